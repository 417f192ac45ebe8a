package turso

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/emiliopalmerini/agentpulse/internal/domain"
	"github.com/emiliopalmerini/agentpulse/internal/util"
)

func (s *Store) GetRequest(ctx context.Context, messageID string) (*domain.Request, error) {
	return WithRetry(ctx, streamRetries, func() (*domain.Request, error) {
		return s.getRequest(ctx, messageID)
	})
}

func (s *Store) getRequest(ctx context.Context, messageID string) (*domain.Request, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT message_id, session_id, provider_id, model_id, agent,
		       tokens_input, tokens_output, tokens_reasoning, tokens_cache_read, tokens_cache_write,
		       cost_usd, duration_ms, finish_reason, cwd, created_at, completed_at
		FROM requests WHERE message_id = ?
	`, messageID)

	var req domain.Request
	var durationMs sql.NullInt64
	var completedAt sql.NullString
	err := row.Scan(
		&req.MessageID, &req.SessionID, &req.ProviderID, &req.ModelID, &req.Agent,
		&req.Measurements.TokensInput, &req.Measurements.TokensOutput, &req.Measurements.TokensReasoning,
		&req.Measurements.TokensCacheRead, &req.Measurements.TokensCacheWrite,
		&req.Measurements.CostUSD, &durationMs, &req.FinishReason, &req.Cwd,
		&req.CreatedAt, &completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	req.DurationMs = util.NullInt64ToPtr(durationMs)
	req.CompletedAt = util.NullStringToPtr(completedAt)
	return &req, nil
}

// ApplyRequest performs the whole request write in one transaction: the
// request row is replaced with its latest snapshot, the session and daily
// summary rows absorb the measurement delta, and the open turn (if any) is
// closed. The zero-delta fast path still replaces the row and closes the
// turn but skips the aggregate statements.
func (s *Store) ApplyRequest(ctx context.Context, req *domain.Request, delta domain.Measurements, firstReport bool, closeTurnID string) (bool, error) {
	return WithRetry(ctx, streamRetries, func() (bool, error) {
		return s.applyRequest(ctx, req, delta, firstReport, closeTurnID)
	})
}

func (s *Store) applyRequest(ctx context.Context, req *domain.Request, delta domain.Measurements, firstReport bool, closeTurnID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	m := req.Measurements
	_, err = tx.ExecContext(ctx, `
		INSERT INTO requests (
			message_id, session_id, provider_id, model_id, agent,
			tokens_input, tokens_output, tokens_reasoning, tokens_cache_read, tokens_cache_write,
			cost_usd, duration_ms, finish_reason, cwd, created_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(message_id) DO UPDATE SET
			tokens_input = excluded.tokens_input,
			tokens_output = excluded.tokens_output,
			tokens_reasoning = excluded.tokens_reasoning,
			tokens_cache_read = excluded.tokens_cache_read,
			tokens_cache_write = excluded.tokens_cache_write,
			cost_usd = excluded.cost_usd,
			duration_ms = excluded.duration_ms,
			finish_reason = excluded.finish_reason,
			completed_at = excluded.completed_at
	`,
		req.MessageID, req.SessionID, req.ProviderID, req.ModelID, req.Agent,
		m.TokensInput, m.TokensOutput, m.TokensReasoning, m.TokensCacheRead, m.TokensCacheWrite,
		m.CostUSD, util.NullInt64Ptr(req.DurationMs), req.FinishReason, req.Cwd,
		req.CreatedAt, util.NullStringPtr(req.CompletedAt),
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert request: %w", err)
	}

	if firstReport || !delta.IsZero() {
		var reqInc int64
		if firstReport {
			reqInc = 1
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO sessions (id, first_seen_at, last_seen_at, total_requests, total_cost_usd, total_tokens_input, total_tokens_output)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				last_seen_at = MAX(last_seen_at, excluded.last_seen_at),
				total_requests = total_requests + ?,
				total_cost_usd = total_cost_usd + ?,
				total_tokens_input = total_tokens_input + ?,
				total_tokens_output = total_tokens_output + ?
		`,
			req.SessionID, req.CreatedAt, req.CreatedAt, reqInc, delta.CostUSD, delta.TokensInput, delta.TokensOutput,
			reqInc, delta.CostUSD, delta.TokensInput, delta.TokensOutput,
		)
		if err != nil {
			return false, fmt.Errorf("failed to update session totals: %w", err)
		}

		// The daily key uses the request's original created_at date so every
		// re-report of a messageId lands on the same row.
		date := dateOf(req.CreatedAt)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO daily_summaries (date, provider_id, model_id, request_count, total_cost_usd,
				tokens_input, tokens_output, tokens_reasoning, tokens_cache_read, tokens_cache_write)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(date, provider_id, model_id) DO UPDATE SET
				request_count = request_count + ?,
				total_cost_usd = total_cost_usd + ?,
				tokens_input = tokens_input + ?,
				tokens_output = tokens_output + ?,
				tokens_reasoning = tokens_reasoning + ?,
				tokens_cache_read = tokens_cache_read + ?,
				tokens_cache_write = tokens_cache_write + ?
		`,
			date, req.ProviderID, req.ModelID, reqInc, delta.CostUSD,
			delta.TokensInput, delta.TokensOutput, delta.TokensReasoning, delta.TokensCacheRead, delta.TokensCacheWrite,
			reqInc, delta.CostUSD,
			delta.TokensInput, delta.TokensOutput, delta.TokensReasoning, delta.TokensCacheRead, delta.TokensCacheWrite,
		)
		if err != nil {
			return false, fmt.Errorf("failed to update daily summary: %w", err)
		}
	}

	closedTurn := false
	if closeTurnID != "" {
		// A stale re-report may arrive after its turn closed and a newer
		// prompt opened a fresh one; the messageId must never attach to two
		// turns.
		var alreadyClosed int64
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM turns WHERE assistant_message_id = ?`, req.MessageID,
		).Scan(&alreadyClosed)
		if err != nil {
			return false, fmt.Errorf("failed to check turn attribution: %w", err)
		}

		if alreadyClosed == 0 {
			res, err := tx.ExecContext(ctx, `
				UPDATE turns SET
					assistant_message_id = ?,
					tokens_input = ?,
					tokens_output = ?,
					cost_usd = ?,
					completed_at = ?
				WHERE id = ? AND assistant_message_id IS NULL
			`,
				req.MessageID, m.TokensInput, m.TokensOutput, m.CostUSD,
				util.NullStringPtr(req.CompletedAt), closeTurnID,
			)
			if err != nil {
				return false, fmt.Errorf("failed to close turn: %w", err)
			}
			if n, err := res.RowsAffected(); err == nil && n > 0 {
				closedTurn = true
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit request: %w", err)
	}
	return closedTurn, nil
}

// dateOf extracts the calendar day from an RFC3339 timestamp.
func dateOf(timestamp string) string {
	if len(timestamp) >= 10 {
		return timestamp[:10]
	}
	return timestamp
}
