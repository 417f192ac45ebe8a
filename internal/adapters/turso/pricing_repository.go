package turso

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/emiliopalmerini/agentpulse/internal/domain"
)

// PricingRepository reads the static model_pricing table seeded by the
// migrations.
type PricingRepository struct {
	db *sql.DB
}

func NewPricingRepository(db *sql.DB) *PricingRepository {
	return &PricingRepository{db: db}
}

func (r *PricingRepository) GetByModel(ctx context.Context, providerID, modelID string) (*domain.ModelPricing, error) {
	var p domain.ModelPricing
	err := r.db.QueryRowContext(ctx, `
		SELECT provider_id, model_id, input_per_million, output_per_million, cache_read_per_million, cache_write_per_million
		FROM model_pricing
		WHERE provider_id = ? AND model_id = ?
	`, providerID, modelID).Scan(
		&p.ProviderID, &p.ModelID, &p.InputPerMillion, &p.OutputPerMillion,
		&p.CacheReadPerMillion, &p.CacheWritePerMillion,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pricing: %w", err)
	}
	return &p, nil
}
