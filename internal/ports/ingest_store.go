package ports

import (
	"context"

	"github.com/emiliopalmerini/agentpulse/internal/domain"
)

// IngestStore is the write surface used by the ingestion core. Methods that
// touch more than one row apply their writes in a single transaction, so a
// store failure leaves every aggregate exactly as it was.
type IngestStore interface {
	// TouchSession creates the session row on first sight or bumps its
	// last-seen timestamp.
	TouchSession(ctx context.Context, sessionID, seenAt string) error

	// GetRequest returns the stored request for a messageId, or nil if the
	// messageId has never been reported.
	GetRequest(ctx context.Context, messageID string) (*domain.Request, error)

	// ApplyRequest overwrites the request row with its latest state and
	// applies delta to the session and daily summary aggregates in one
	// transaction. firstReport also counts the request into the aggregates'
	// request counters. When closeTurnID is non-empty the matching open turn
	// is stamped with the request's measurements and closed; the returned
	// flag reports whether that close actually applied.
	ApplyRequest(ctx context.Context, req *domain.Request, delta domain.Measurements, firstReport bool, closeTurnID string) (bool, error)

	// CreateTurn inserts a new open turn. If a turn already exists for the
	// same userMessageId the insert is ignored and turn.ID is rewritten to
	// the existing row's id.
	CreateTurn(ctx context.Context, turn *domain.Turn) error

	// FindOpenTurn returns the session's most recently created turn whose
	// assistant message is still unset, or nil.
	FindOpenTurn(ctx context.Context, sessionID string) (*domain.Turn, error)

	// StartToolCall records the started phase of a tool call, keeping any
	// completion fields already merged under the same callId.
	StartToolCall(ctx context.Context, call *domain.ToolCall) error

	// CompleteToolCall merges the completed phase into the callId's row,
	// inserting it if the started phase was never observed.
	CompleteToolCall(ctx context.Context, call *domain.ToolCall) error

	// AppendFileEdit inserts one file operation record.
	AppendFileEdit(ctx context.Context, edit *domain.FileEdit) error

	// AccumulateTextPart inserts the part (ignoring duplicates of the same
	// messageId/partId pair), recomputes the full text from all stored parts
	// in creation order, caches it on turnID when non-empty, and returns it.
	AccumulateTextPart(ctx context.Context, part *domain.TextPart, turnID string) (string, error)
}
