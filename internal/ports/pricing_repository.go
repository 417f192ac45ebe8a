package ports

import (
	"context"

	"github.com/emiliopalmerini/agentpulse/internal/domain"
)

// PricingRepository resolves static per-token rates for a provider/model
// pair. Returns nil when no rates are known.
type PricingRepository interface {
	GetByModel(ctx context.Context, providerID, modelID string) (*domain.ModelPricing, error)
}
