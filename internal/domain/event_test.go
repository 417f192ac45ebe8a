package domain

import (
	"errors"
	"testing"
)

func TestParseEvent_Prompt(t *testing.T) {
	input := []byte(`{
		"type": "prompt",
		"sessionId": "sess-1",
		"messageId": "msg-u1",
		"prompt": "fix the bug"
	}`)

	event, err := ParseEvent(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, ok := event.(*PromptEvent)
	if !ok {
		t.Fatalf("expected *PromptEvent, got %T", event)
	}

	assertEqual(t, "SessionID", "sess-1", p.SessionID)
	assertEqual(t, "MessageID", "msg-u1", p.MessageID)
	assertEqual(t, "Prompt", "fix the bug", p.Prompt)
}

func TestParseEvent_ToolBefore(t *testing.T) {
	input := []byte(`{
		"type": "tool.before",
		"sessionId": "sess-1",
		"callId": "call-1",
		"tool": "read",
		"arguments": {"file_path": "/tmp/a.go"}
	}`)

	event, err := ParseEvent(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tb, ok := event.(*ToolBeforeEvent)
	if !ok {
		t.Fatalf("expected *ToolBeforeEvent, got %T", event)
	}

	assertEqual(t, "CallID", "call-1", tb.CallID)
	assertEqual(t, "Tool", "read", tb.Tool)
}

func TestParseEvent_Request(t *testing.T) {
	input := []byte(`{
		"type": "request",
		"sessionId": "sess-1",
		"messageId": "msg-a1",
		"providerId": "anthropic",
		"modelId": "claude-sonnet-4-5",
		"tokens": {"input": 100, "output": 40, "reasoning": 5, "cache": {"read": 20, "write": 10}},
		"costUsd": 0.0123,
		"finishReason": "stop"
	}`)

	event, err := ParseEvent(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req, ok := event.(*RequestEvent)
	if !ok {
		t.Fatalf("expected *RequestEvent, got %T", event)
	}

	assertEqual(t, "MessageID", "msg-a1", req.MessageID)
	assertEqual(t, "Tokens.Input", int64(100), req.Tokens.Input)
	assertEqual(t, "Tokens.Output", int64(40), req.Tokens.Output)
	assertEqual(t, "Tokens.Cache.Read", int64(20), req.Tokens.Cache.Read)
	assertEqual(t, "Tokens.Cache.Write", int64(10), req.Tokens.Cache.Write)
	assertEqual(t, "CostUSD", 0.0123, req.CostUSD)
}

func TestParseEvent_LegacyRequestInference(t *testing.T) {
	// No type discriminator, but a tokens object: legacy request payload.
	input := []byte(`{
		"sessionId": "sess-1",
		"messageId": "msg-a2",
		"providerId": "anthropic",
		"modelId": "claude-sonnet-4-5",
		"tokens": {"input": 10, "output": 2}
	}`)

	event, err := ParseEvent(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req, ok := event.(*RequestEvent)
	if !ok {
		t.Fatalf("expected *RequestEvent, got %T", event)
	}
	assertEqual(t, "Type", KindRequest, req.Type)
}

func TestParseEvent_UnknownKind(t *testing.T) {
	_, err := ParseEvent([]byte(`{"type": "mystery", "sessionId": "s"}`))
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}

	_, err = ParseEvent([]byte(`{"sessionId": "s"}`))
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind for missing type, got %v", err)
	}
}

func TestParseEvent_Malformed(t *testing.T) {
	_, err := ParseEvent([]byte(`{not json`))
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestParseEvent_MissingRequiredFields(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"prompt without messageId", `{"type":"prompt","sessionId":"s","prompt":"hi"}`},
		{"prompt without prompt", `{"type":"prompt","sessionId":"s","messageId":"m"}`},
		{"tool.before without callId", `{"type":"tool.before","sessionId":"s","tool":"read"}`},
		{"tool.after without tool", `{"type":"tool.after","sessionId":"s","callId":"c"}`},
		{"file.edit without operation", `{"type":"file.edit","sessionId":"s","filePath":"/a"}`},
		{"assistant.text without partId", `{"type":"assistant.text","sessionId":"s","messageId":"m","text":"t"}`},
		{"request without providerId", `{"type":"request","sessionId":"s","messageId":"m","modelId":"x"}`},
		{"request without sessionId", `{"type":"request","messageId":"m","providerId":"p","modelId":"x"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseEvent([]byte(tc.input))
			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestMeasurements_SubAndIsZero(t *testing.T) {
	a := Measurements{TokensInput: 50, TokensOutput: 25, CostUSD: 0.5}
	b := Measurements{TokensInput: 30, TokensOutput: 15, CostUSD: 0.3}

	d := a.Sub(b)
	assertEqual(t, "TokensInput", int64(20), d.TokensInput)
	assertEqual(t, "TokensOutput", int64(10), d.TokensOutput)

	// Stale redelivery produces negative components.
	neg := b.Sub(a)
	assertEqual(t, "TokensInput", int64(-20), neg.TokensInput)

	if !a.Sub(a).IsZero() {
		t.Error("expected zero delta for identical measurements")
	}
	if d.IsZero() {
		t.Error("expected non-zero delta")
	}
}

func assertEqual[T comparable](t *testing.T, name string, expected, actual T) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s: expected %v, got %v", name, expected, actual)
	}
}
