package ports

import (
	"context"

	"github.com/emiliopalmerini/agentpulse/internal/domain"
)

// MetricsExporter publishes ingestion counters to an external metrics sink.
type MetricsExporter interface {
	// RecordEvent counts one successfully ingested event of the given kind.
	RecordEvent(ctx context.Context, kind string)

	// RecordUsage adds a request's measurement delta to the token and cost
	// counters, attributed to its provider/model pair.
	RecordUsage(ctx context.Context, providerID, modelID string, delta domain.Measurements)

	// Shutdown flushes pending metrics.
	Shutdown(ctx context.Context) error
}
