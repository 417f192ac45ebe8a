package turso

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/emiliopalmerini/agentpulse/internal/domain"
	"github.com/emiliopalmerini/agentpulse/internal/util"
)

func (s *Store) GetAggregateStats(ctx context.Context) (*domain.AggregateStats, error) {
	var stats domain.AggregateStats

	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&stats.SessionCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(tokens_input), 0),
		       COALESCE(SUM(tokens_output), 0),
		       COALESCE(SUM(cost_usd), 0)
		FROM requests
	`).Scan(&stats.RequestCount, &stats.TotalTokensInput, &stats.TotalTokensOutput, &stats.TotalCostUSD)
	if err != nil {
		return nil, fmt.Errorf("failed to get aggregate stats: %w", err)
	}

	return &stats, nil
}

func (s *Store) ListSessions(ctx context.Context, limit int64) ([]*domain.Session, error) {
	if limit == 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, first_seen_at, last_seen_at, total_requests, total_cost_usd, total_tokens_input, total_tokens_output
		FROM sessions
		ORDER BY last_seen_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.Session
	for rows.Next() {
		var sess domain.Session
		if err := rows.Scan(&sess.ID, &sess.FirstSeenAt, &sess.LastSeenAt,
			&sess.TotalRequests, &sess.TotalCostUSD, &sess.TotalTokensInput, &sess.TotalTokensOutput); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, &sess)
	}
	return sessions, rows.Err()
}

func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var sess domain.Session
	err := s.db.QueryRowContext(ctx, `
		SELECT id, first_seen_at, last_seen_at, total_requests, total_cost_usd, total_tokens_input, total_tokens_output
		FROM sessions WHERE id = ?
	`, id).Scan(&sess.ID, &sess.FirstSeenAt, &sess.LastSeenAt,
		&sess.TotalRequests, &sess.TotalCostUSD, &sess.TotalTokensInput, &sess.TotalTokensOutput)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &sess, nil
}

func (s *Store) ListTurnsBySession(ctx context.Context, sessionID string) ([]*domain.Turn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, user_message_id, assistant_message_id, prompt, response_text,
		       tokens_input, tokens_output, cost_usd, created_at, completed_at
		FROM turns
		WHERE session_id = ?
		ORDER BY created_at, rowid
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	defer rows.Close()

	var turns []*domain.Turn
	for rows.Next() {
		turn, err := scanTurn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

func (s *Store) ListToolCallsByTurn(ctx context.Context, turnID string) ([]*domain.ToolCall, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT call_id, session_id, turn_id, tool_name, arguments, output, success, duration_ms, started_at, completed_at
		FROM tool_calls
		WHERE turn_id = ?
		ORDER BY started_at, rowid
	`, turnID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tool calls: %w", err)
	}
	defer rows.Close()

	var calls []*domain.ToolCall
	for rows.Next() {
		var call domain.ToolCall
		var turnID, arguments, output, startedAt, completedAt sql.NullString
		var success, durationMs sql.NullInt64
		if err := rows.Scan(&call.CallID, &call.SessionID, &turnID, &call.ToolName,
			&arguments, &output, &success, &durationMs, &startedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tool call: %w", err)
		}
		call.TurnID = util.NullStringToPtr(turnID)
		call.Arguments = util.NullStringToPtr(arguments)
		call.Output = util.NullStringToPtr(output)
		call.Success = util.NullInt64ToBoolPtr(success)
		call.DurationMs = util.NullInt64ToPtr(durationMs)
		call.StartedAt = util.NullStringToPtr(startedAt)
		call.CompletedAt = util.NullStringToPtr(completedAt)
		calls = append(calls, &call)
	}
	return calls, rows.Err()
}

func (s *Store) ListDailySummaries(ctx context.Context, since string) ([]*domain.DailySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, provider_id, model_id, request_count, total_cost_usd,
		       tokens_input, tokens_output, tokens_reasoning, tokens_cache_read, tokens_cache_write
		FROM daily_summaries
		WHERE date >= ?
		ORDER BY date DESC, provider_id, model_id
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily summaries: %w", err)
	}
	defer rows.Close()

	var summaries []*domain.DailySummary
	for rows.Next() {
		var d domain.DailySummary
		if err := rows.Scan(&d.Date, &d.ProviderID, &d.ModelID, &d.RequestCount,
			&d.Measurements.CostUSD, &d.Measurements.TokensInput, &d.Measurements.TokensOutput,
			&d.Measurements.TokensReasoning, &d.Measurements.TokensCacheRead, &d.Measurements.TokensCacheWrite); err != nil {
			return nil, fmt.Errorf("failed to scan daily summary: %w", err)
		}
		summaries = append(summaries, &d)
	}
	return summaries, rows.Err()
}
