package otel

import (
	"context"

	"github.com/emiliopalmerini/agentpulse/internal/domain"
)

// NoOpExporter is a metrics exporter that does nothing.
type NoOpExporter struct{}

// NewNoOpExporter creates a new no-op exporter for graceful degradation.
func NewNoOpExporter() *NoOpExporter {
	return &NoOpExporter{}
}

func (e *NoOpExporter) RecordEvent(ctx context.Context, kind string) {}

func (e *NoOpExporter) RecordUsage(ctx context.Context, providerID, modelID string, delta domain.Measurements) {
}

func (e *NoOpExporter) Shutdown(ctx context.Context) error {
	return nil
}
