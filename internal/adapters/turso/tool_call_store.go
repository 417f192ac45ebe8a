package turso

import (
	"context"
	"fmt"

	"github.com/emiliopalmerini/agentpulse/internal/domain"
	"github.com/emiliopalmerini/agentpulse/internal/util"
)

// StartToolCall records the started phase. When the completed phase raced
// ahead of it, the existing row keeps its completion fields and only gains
// the start-side ones.
func (s *Store) StartToolCall(ctx context.Context, call *domain.ToolCall) error {
	return withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO tool_calls (call_id, session_id, turn_id, tool_name, arguments, started_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(call_id) DO UPDATE SET
				tool_name = excluded.tool_name,
				arguments = COALESCE(excluded.arguments, tool_calls.arguments),
				started_at = COALESCE(tool_calls.started_at, excluded.started_at),
				turn_id = COALESCE(tool_calls.turn_id, excluded.turn_id)
		`,
			call.CallID, call.SessionID, util.NullStringPtr(call.TurnID), call.ToolName,
			util.NullStringPtr(call.Arguments), util.NullStringPtr(call.StartedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to start tool call: %w", err)
		}
		return nil
	})
}

// CompleteToolCall merges the completed phase into the callId's row, creating
// it when the started phase was never observed.
func (s *Store) CompleteToolCall(ctx context.Context, call *domain.ToolCall) error {
	return withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO tool_calls (call_id, session_id, turn_id, tool_name, output, success, duration_ms, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(call_id) DO UPDATE SET
				output = excluded.output,
				success = excluded.success,
				duration_ms = excluded.duration_ms,
				completed_at = excluded.completed_at,
				turn_id = COALESCE(tool_calls.turn_id, excluded.turn_id)
		`,
			call.CallID, call.SessionID, util.NullStringPtr(call.TurnID), call.ToolName,
			util.NullStringPtr(call.Output), util.NullBoolPtr(call.Success),
			util.NullInt64Ptr(call.DurationMs), util.NullStringPtr(call.CompletedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to complete tool call: %w", err)
		}
		return nil
	})
}
