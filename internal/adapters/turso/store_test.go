package turso_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/emiliopalmerini/agentpulse/internal/adapters/turso"
	"github.com/emiliopalmerini/agentpulse/internal/domain"
)

func uniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func TestToolCall_MergesPhasesByCallID(t *testing.T) {
	db := testDB(t)
	store := turso.NewStore(db)
	ctx := context.Background()

	callID := uniqueID("call")
	sessionID := uniqueID("sess")
	args := `{"file_path":"/tmp/a.go"}`
	startedAt := "2026-08-30T10:00:00Z"

	err := store.StartToolCall(ctx, &domain.ToolCall{
		CallID:    callID,
		SessionID: sessionID,
		ToolName:  "read",
		Arguments: &args,
		StartedAt: &startedAt,
	})
	if err != nil {
		t.Fatalf("StartToolCall failed: %v", err)
	}

	output := `{"content":"package main"}`
	success := true
	durationMs := int64(42)
	completedAt := "2026-08-30T10:00:01Z"
	err = store.CompleteToolCall(ctx, &domain.ToolCall{
		CallID:      callID,
		SessionID:   sessionID,
		ToolName:    "read",
		Output:      &output,
		Success:     &success,
		DurationMs:  &durationMs,
		CompletedAt: &completedAt,
	})
	if err != nil {
		t.Fatalf("CompleteToolCall failed: %v", err)
	}

	var count int64
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tool_calls WHERE call_id = ?", callID).Scan(&count); err != nil {
		t.Fatalf("Failed to count tool calls: %v", err)
	}
	assertEqual(t, "row count", int64(1), count)

	var gotArgs, gotOutput string
	var gotSuccess int64
	if err := db.QueryRowContext(ctx,
		"SELECT arguments, output, success FROM tool_calls WHERE call_id = ?", callID,
	).Scan(&gotArgs, &gotOutput, &gotSuccess); err != nil {
		t.Fatalf("Failed to query tool call: %v", err)
	}
	assertEqual(t, "arguments", args, gotArgs)
	assertEqual(t, "output", output, gotOutput)
	assertEqual(t, "success", int64(1), gotSuccess)
}

func TestToolCall_CompletionBeforeStart(t *testing.T) {
	db := testDB(t)
	store := turso.NewStore(db)
	ctx := context.Background()

	callID := uniqueID("call")
	sessionID := uniqueID("sess")

	output := "done"
	completedAt := "2026-08-30T10:00:01Z"
	err := store.CompleteToolCall(ctx, &domain.ToolCall{
		CallID:      callID,
		SessionID:   sessionID,
		ToolName:    "bash",
		Output:      &output,
		CompletedAt: &completedAt,
	})
	if err != nil {
		t.Fatalf("CompleteToolCall failed: %v", err)
	}

	args := `{"command":"ls"}`
	startedAt := "2026-08-30T10:00:00Z"
	err = store.StartToolCall(ctx, &domain.ToolCall{
		CallID:    callID,
		SessionID: sessionID,
		ToolName:  "bash",
		Arguments: &args,
		StartedAt: &startedAt,
	})
	if err != nil {
		t.Fatalf("StartToolCall failed: %v", err)
	}

	var gotArgs, gotOutput, gotStarted, gotCompleted string
	if err := db.QueryRowContext(ctx,
		"SELECT arguments, output, started_at, completed_at FROM tool_calls WHERE call_id = ?", callID,
	).Scan(&gotArgs, &gotOutput, &gotStarted, &gotCompleted); err != nil {
		t.Fatalf("Failed to query tool call: %v", err)
	}
	assertEqual(t, "arguments", args, gotArgs)
	assertEqual(t, "output", output, gotOutput)
	assertEqual(t, "started_at", startedAt, gotStarted)
	assertEqual(t, "completed_at", completedAt, gotCompleted)
}

func TestTouchSession_StaleTimestampDoesNotRewind(t *testing.T) {
	db := testDB(t)
	store := turso.NewStore(db)
	ctx := context.Background()

	sessionID := uniqueID("sess")
	if err := store.TouchSession(ctx, sessionID, "2026-08-30T11:00:00Z"); err != nil {
		t.Fatalf("TouchSession failed: %v", err)
	}
	// A late-arriving event carries an older timestamp.
	if err := store.TouchSession(ctx, sessionID, "2026-08-30T10:00:00Z"); err != nil {
		t.Fatalf("TouchSession failed: %v", err)
	}

	sess, err := store.GetSession(ctx, sessionID)
	if err != nil || sess == nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	assertEqual(t, "last seen", "2026-08-30T11:00:00Z", sess.LastSeenAt)
	assertEqual(t, "first seen", "2026-08-30T11:00:00Z", sess.FirstSeenAt)
}

func TestCreateTurn_IdempotentByUserMessageID(t *testing.T) {
	db := testDB(t)
	store := turso.NewStore(db)
	ctx := context.Background()

	sessionID := uniqueID("sess")
	userMessageID := uniqueID("msg")

	first := &domain.Turn{
		ID:            "turn-1-" + userMessageID,
		SessionID:     sessionID,
		UserMessageID: userMessageID,
		Prompt:        "fix the bug",
		CreatedAt:     "2026-08-30T10:00:00Z",
	}
	if err := store.CreateTurn(ctx, first); err != nil {
		t.Fatalf("CreateTurn failed: %v", err)
	}

	dup := &domain.Turn{
		ID:            "turn-2-" + userMessageID,
		SessionID:     sessionID,
		UserMessageID: userMessageID,
		Prompt:        "fix the bug",
		CreatedAt:     "2026-08-30T10:00:05Z",
	}
	if err := store.CreateTurn(ctx, dup); err != nil {
		t.Fatalf("CreateTurn redelivery failed: %v", err)
	}

	assertEqual(t, "resolved turn id", first.ID, dup.ID)

	var count int64
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM turns WHERE user_message_id = ?", userMessageID).Scan(&count); err != nil {
		t.Fatalf("Failed to count turns: %v", err)
	}
	assertEqual(t, "turn count", int64(1), count)
}

func TestFindOpenTurn(t *testing.T) {
	db := testDB(t)
	store := turso.NewStore(db)
	ctx := context.Background()

	sessionID := uniqueID("sess")

	turn, err := store.FindOpenTurn(ctx, sessionID)
	if err != nil {
		t.Fatalf("FindOpenTurn failed: %v", err)
	}
	if turn != nil {
		t.Fatalf("expected no open turn, got %+v", turn)
	}

	created := &domain.Turn{
		ID:            uniqueID("turn"),
		SessionID:     sessionID,
		UserMessageID: uniqueID("msg"),
		Prompt:        "hello",
		CreatedAt:     "2026-08-30T10:00:00Z",
	}
	if err := store.CreateTurn(ctx, created); err != nil {
		t.Fatalf("CreateTurn failed: %v", err)
	}

	turn, err = store.FindOpenTurn(ctx, sessionID)
	if err != nil {
		t.Fatalf("FindOpenTurn failed: %v", err)
	}
	if turn == nil {
		t.Fatal("expected an open turn")
	}
	assertEqual(t, "turn id", created.ID, turn.ID)
	if !turn.Open() {
		t.Error("expected turn to be open")
	}
}

func TestPricingRepository_GetByModel(t *testing.T) {
	db := testDB(t)
	repo := turso.NewPricingRepository(db)
	ctx := context.Background()

	p, err := repo.GetByModel(ctx, "anthropic", "claude-sonnet-4-5")
	if err != nil {
		t.Fatalf("GetByModel failed: %v", err)
	}
	if p == nil {
		t.Fatal("expected seeded pricing row")
	}
	assertEqual(t, "InputPerMillion", 3.00, p.InputPerMillion)
	assertEqual(t, "OutputPerMillion", 15.00, p.OutputPerMillion)

	missing, err := repo.GetByModel(ctx, "anthropic", "no-such-model")
	if err != nil {
		t.Fatalf("GetByModel failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown model, got %+v", missing)
	}
}

func TestAccumulateTextPart_OrderAndDedup(t *testing.T) {
	db := testDB(t)
	store := turso.NewStore(db)
	ctx := context.Background()

	messageID := uniqueID("msg")

	// Part "b" arrives first but was created second.
	text, err := store.AccumulateTextPart(ctx, &domain.TextPart{
		MessageID: messageID, PartID: "b", Content: " world", CreatedAt: "2026-08-30T10:00:02Z",
	}, "")
	if err != nil {
		t.Fatalf("AccumulateTextPart failed: %v", err)
	}
	assertEqual(t, "text after b", " world", text)

	text, err = store.AccumulateTextPart(ctx, &domain.TextPart{
		MessageID: messageID, PartID: "a", Content: "hello", CreatedAt: "2026-08-30T10:00:01Z",
	}, "")
	if err != nil {
		t.Fatalf("AccumulateTextPart failed: %v", err)
	}
	assertEqual(t, "text after a", "hello world", text)

	// Redelivered duplicate must not appear twice.
	text, err = store.AccumulateTextPart(ctx, &domain.TextPart{
		MessageID: messageID, PartID: "a", Content: "hello", CreatedAt: "2026-08-30T10:00:01Z",
	}, "")
	if err != nil {
		t.Fatalf("AccumulateTextPart failed: %v", err)
	}
	assertEqual(t, "text after duplicate", "hello world", text)
}
