package turso

import (
	"context"
	"fmt"

	"github.com/emiliopalmerini/agentpulse/internal/domain"
	"github.com/emiliopalmerini/agentpulse/internal/util"
)

// AppendFileEdit inserts one file operation record. File edits are
// append-only; there is nothing to merge.
func (s *Store) AppendFileEdit(ctx context.Context, edit *domain.FileEdit) error {
	return withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO file_edits (session_id, turn_id, call_id, file_path, operation, lines_added, lines_removed, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			edit.SessionID, util.NullStringPtr(edit.TurnID), util.NullStringPtr(edit.CallID),
			edit.FilePath, edit.Operation, edit.LinesAdded, edit.LinesRemoved, edit.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to append file edit: %w", err)
		}
		return nil
	})
}
