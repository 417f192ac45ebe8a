package ports

import (
	"context"

	"github.com/emiliopalmerini/agentpulse/internal/domain"
)

// ReadStore is the query surface consumed by dashboard collaborators. Reads
// only ever observe states the ingestion core could have produced.
type ReadStore interface {
	GetAggregateStats(ctx context.Context) (*domain.AggregateStats, error)
	ListSessions(ctx context.Context, limit int64) ([]*domain.Session, error)
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	ListTurnsBySession(ctx context.Context, sessionID string) ([]*domain.Turn, error)
	ListToolCallsByTurn(ctx context.Context, turnID string) ([]*domain.ToolCall, error)
	ListDailySummaries(ctx context.Context, since string) ([]*domain.DailySummary, error)
}
