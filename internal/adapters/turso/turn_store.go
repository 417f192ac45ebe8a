package turso

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/emiliopalmerini/agentpulse/internal/domain"
	"github.com/emiliopalmerini/agentpulse/internal/util"
)

// CreateTurn inserts a new open turn. Redelivered prompts hit the
// user_message_id unique constraint; the insert is ignored and turn.ID is
// rewritten to the already-stored row's id.
func (s *Store) CreateTurn(ctx context.Context, turn *domain.Turn) error {
	return withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO turns (id, session_id, user_message_id, prompt, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(user_message_id) DO NOTHING
		`, turn.ID, turn.SessionID, turn.UserMessageID, turn.Prompt, turn.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert turn: %w", err)
		}

		var id string
		err = s.db.QueryRowContext(ctx,
			`SELECT id FROM turns WHERE user_message_id = ?`, turn.UserMessageID,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to resolve turn id: %w", err)
		}
		turn.ID = id
		return nil
	})
}

// FindOpenTurn returns the session's most recently created turn whose
// assistant message is still unset. The in-memory open-turn pointer is the
// hot path; this is the durable fallback after a restart.
func (s *Store) FindOpenTurn(ctx context.Context, sessionID string) (*domain.Turn, error) {
	return WithRetry(ctx, streamRetries, func() (*domain.Turn, error) {
		return s.findOpenTurn(ctx, sessionID)
	})
}

func (s *Store) findOpenTurn(ctx context.Context, sessionID string) (*domain.Turn, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, user_message_id, assistant_message_id, prompt, response_text,
		       tokens_input, tokens_output, cost_usd, created_at, completed_at
		FROM turns
		WHERE session_id = ? AND assistant_message_id IS NULL
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, sessionID)

	turn, err := scanTurn(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find open turn: %w", err)
	}
	return turn, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTurn(row rowScanner) (*domain.Turn, error) {
	var turn domain.Turn
	var assistantMessageID, completedAt sql.NullString
	err := row.Scan(
		&turn.ID, &turn.SessionID, &turn.UserMessageID, &assistantMessageID,
		&turn.Prompt, &turn.ResponseText,
		&turn.TokensInput, &turn.TokensOutput, &turn.CostUSD,
		&turn.CreatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	turn.AssistantMessageID = util.NullStringToPtr(assistantMessageID)
	turn.CompletedAt = util.NullStringToPtr(completedAt)
	return &turn, nil
}
