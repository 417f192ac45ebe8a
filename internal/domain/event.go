package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event kinds accepted at the ingestion boundary.
const (
	KindPrompt        = "prompt"
	KindToolBefore    = "tool.before"
	KindToolAfter     = "tool.after"
	KindFileEdit      = "file.edit"
	KindAssistantText = "assistant.text"
	KindRequest       = "request"
)

var (
	// ErrMalformed marks payloads that cannot be decoded at all.
	ErrMalformed = errors.New("malformed event payload")
	// ErrValidation marks payloads missing a field their kind requires.
	ErrValidation = errors.New("invalid event")
	// ErrUnknownKind marks payloads whose kind cannot be determined.
	ErrUnknownKind = errors.New("unknown event kind")
)

// EventBase contains fields common to all telemetry events.
type EventBase struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Timestamp string `json:"timestamp,omitempty"`
}

// PromptEvent is sent when the user submits a prompt, opening a new turn.
type PromptEvent struct {
	EventBase
	MessageID string `json:"messageId"`
	Prompt    string `json:"prompt"`
}

// ToolBeforeEvent is sent when a tool invocation starts.
type ToolBeforeEvent struct {
	EventBase
	CallID    string          `json:"callId"`
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolAfterEvent is sent when a tool invocation completes.
type ToolAfterEvent struct {
	EventBase
	CallID     string          `json:"callId"`
	Tool       string          `json:"tool"`
	Output     json.RawMessage `json:"output,omitempty"`
	Success    *bool           `json:"success,omitempty"`
	DurationMs *int64          `json:"durationMs,omitempty"`
}

// FileEditEvent records one file operation performed during a turn.
type FileEditEvent struct {
	EventBase
	FilePath     string `json:"filePath"`
	Operation    string `json:"operation"`
	CallID       string `json:"callId,omitempty"`
	LinesAdded   int64  `json:"linesAdded"`
	LinesRemoved int64  `json:"linesRemoved"`
}

// AssistantTextEvent carries one fragment of a streamed assistant response.
type AssistantTextEvent struct {
	EventBase
	MessageID string `json:"messageId"`
	PartID    string `json:"partId"`
	Text      string `json:"text"`
}

// CacheTokens nests the cache counters of a request's token usage.
type CacheTokens struct {
	Read  int64 `json:"read"`
	Write int64 `json:"write"`
}

// TokenUsage carries the five token counters reported with a request.
type TokenUsage struct {
	Input     int64       `json:"input"`
	Output    int64       `json:"output"`
	Reasoning int64       `json:"reasoning"`
	Cache     CacheTokens `json:"cache"`
}

// RequestEvent reports one model invocation. The same messageId may be
// re-sent with grown token counts as streaming checkpoints land.
type RequestEvent struct {
	EventBase
	MessageID    string     `json:"messageId"`
	ProviderID   string     `json:"providerId"`
	ModelID      string     `json:"modelId"`
	Agent        string     `json:"agent,omitempty"`
	Tokens       TokenUsage `json:"tokens"`
	CostUSD      float64    `json:"costUsd"`
	DurationMs   *int64     `json:"durationMs,omitempty"`
	FinishReason string     `json:"finishReason,omitempty"`
	Cwd          string     `json:"cwd,omitempty"`
}

// ParseEvent decodes raw JSON into the typed event for its kind and
// validates the kind's required fields. The kind is taken from the "type"
// discriminator; legacy payloads without one but carrying a "tokens" object
// are treated as request events.
func ParseEvent(data []byte) (any, error) {
	var base EventBase
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	kind := base.Type
	if kind == "" {
		var sniff struct {
			Tokens json.RawMessage `json:"tokens"`
		}
		if err := json.Unmarshal(data, &sniff); err == nil && len(sniff.Tokens) > 0 {
			kind = KindRequest
		}
	}

	switch kind {
	case KindPrompt:
		var event PromptEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return &event, event.validate()

	case KindToolBefore:
		var event ToolBeforeEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return &event, event.validate()

	case KindToolAfter:
		var event ToolAfterEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return &event, event.validate()

	case KindFileEdit:
		var event FileEditEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return &event, event.validate()

	case KindAssistantText:
		var event AssistantTextEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return &event, event.validate()

	case KindRequest:
		var event RequestEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		event.Type = KindRequest
		return &event, event.validate()

	case "":
		return nil, fmt.Errorf("%w: missing type field", ErrUnknownKind)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

func (e *PromptEvent) validate() error {
	return requireFields(KindPrompt, map[string]string{
		"sessionId": e.SessionID,
		"messageId": e.MessageID,
		"prompt":    e.Prompt,
	})
}

func (e *ToolBeforeEvent) validate() error {
	return requireFields(KindToolBefore, map[string]string{
		"sessionId": e.SessionID,
		"callId":    e.CallID,
		"tool":      e.Tool,
	})
}

func (e *ToolAfterEvent) validate() error {
	return requireFields(KindToolAfter, map[string]string{
		"sessionId": e.SessionID,
		"callId":    e.CallID,
		"tool":      e.Tool,
	})
}

func (e *FileEditEvent) validate() error {
	return requireFields(KindFileEdit, map[string]string{
		"sessionId": e.SessionID,
		"filePath":  e.FilePath,
		"operation": e.Operation,
	})
}

func (e *AssistantTextEvent) validate() error {
	return requireFields(KindAssistantText, map[string]string{
		"sessionId": e.SessionID,
		"messageId": e.MessageID,
		"partId":    e.PartID,
		"text":      e.Text,
	})
}

func (e *RequestEvent) validate() error {
	return requireFields(KindRequest, map[string]string{
		"sessionId":  e.SessionID,
		"messageId":  e.MessageID,
		"providerId": e.ProviderID,
		"modelId":    e.ModelID,
	})
}

func requireFields(kind string, fields map[string]string) error {
	for name, value := range fields {
		if value == "" {
			return fmt.Errorf("%w: %s requires %s", ErrValidation, kind, name)
		}
	}
	return nil
}

// Envelope is the type-tagged form in which ingested events are re-emitted
// to live observers, enriched with the turn they were attributed to.
type Envelope struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	TurnID    string          `json:"turnId,omitempty"`
	Event     json.RawMessage `json:"event"`
}
