package turso_test

import (
	"context"
	"errors"
	"testing"

	"github.com/emiliopalmerini/agentpulse/internal/adapters/turso"
)

func TestWithRetry_RetriesStreamErrors(t *testing.T) {
	calls := 0
	got, err := turso.WithRetry(context.Background(), 3, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("hrana: stream not found")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestWithRetry_OtherErrorsFailFast(t *testing.T) {
	calls := 0
	_, err := turso.WithRetry(context.Background(), 3, func() (int, error) {
		calls++
		return 0, errors.New("constraint violation")
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if calls != 1 {
		t.Errorf("non-stream errors must not retry, got %d attempts", calls)
	}
}

func TestWithRetry_ExhaustsRetries(t *testing.T) {
	calls := 0
	_, err := turso.WithRetry(context.Background(), 2, func() (int, error) {
		calls++
		return 0, errors.New("hrana: stream not found")
	})
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts for maxRetries=2, got %d", calls)
	}
}

func TestIsStreamError(t *testing.T) {
	if !turso.IsStreamError(errors.New("hrana: stream not found")) {
		t.Error("expected stream error to be detected")
	}
	if turso.IsStreamError(errors.New("syntax error")) {
		t.Error("unrelated error misclassified as stream error")
	}
	if turso.IsStreamError(nil) {
		t.Error("nil is not a stream error")
	}
}
