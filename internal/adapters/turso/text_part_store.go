package turso

import (
	"context"
	"fmt"
	"strings"

	"github.com/emiliopalmerini/agentpulse/internal/domain"
)

// AccumulateTextPart inserts the part (duplicates of the same
// messageId/partId pair are ignored), then recomputes the full response text
// from every stored part in creation order and caches it on the turn. The
// re-read keeps the cached text correct under out-of-order and duplicate
// part delivery.
func (s *Store) AccumulateTextPart(ctx context.Context, part *domain.TextPart, turnID string) (string, error) {
	return WithRetry(ctx, streamRetries, func() (string, error) {
		return s.accumulateTextPart(ctx, part, turnID)
	})
}

func (s *Store) accumulateTextPart(ctx context.Context, part *domain.TextPart, turnID string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO text_parts (message_id, part_id, content, created_at)
		VALUES (?, ?, ?, ?)
	`, part.MessageID, part.PartID, part.Content, part.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to insert text part: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT content FROM text_parts
		WHERE message_id = ?
		ORDER BY created_at, rowid
	`, part.MessageID)
	if err != nil {
		return "", fmt.Errorf("failed to read text parts: %w", err)
	}

	var b strings.Builder
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			_ = rows.Close()
			return "", fmt.Errorf("failed to scan text part: %w", err)
		}
		b.WriteString(content)
	}
	// The cursor must be drained and closed before the tx can run the
	// update below.
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return "", fmt.Errorf("failed to iterate text parts: %w", err)
	}
	_ = rows.Close()
	fullText := b.String()

	if turnID != "" {
		_, err = tx.ExecContext(ctx,
			`UPDATE turns SET response_text = ? WHERE id = ?`, fullText, turnID)
		if err != nil {
			return "", fmt.Errorf("failed to cache response text: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit text part: %w", err)
	}
	return fullText, nil
}
