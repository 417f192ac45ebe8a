package turso

import (
	"context"
	"fmt"
)

// TouchSession creates the session row on first sight or bumps last_seen_at.
// Totals are only moved by ApplyRequest. The MAX guard keeps a stale event
// timestamp from rewinding last_seen_at below what later events recorded.
func (s *Store) TouchSession(ctx context.Context, sessionID, seenAt string) error {
	return withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO sessions (id, first_seen_at, last_seen_at)
			VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET last_seen_at = MAX(last_seen_at, excluded.last_seen_at)
		`, sessionID, seenAt, seenAt)
		if err != nil {
			return fmt.Errorf("failed to touch session: %w", err)
		}
		return nil
	})
}
