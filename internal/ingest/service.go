// Package ingest implements the event router, the delta engine, and the
// turn tracker: one inbound telemetry event in, consistent aggregates and
// one live broadcast out.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/emiliopalmerini/agentpulse/internal/domain"
	"github.com/emiliopalmerini/agentpulse/internal/ports"
)

const maxToolPayloadSize = 10 * 1024 // 10KB

// Service processes inbound telemetry events. Safe for concurrent use; the
// read-modify-write sequence for a given messageId is serialized by a keyed
// mutex while different keys proceed in parallel.
type Service struct {
	store   ports.IngestStore
	hub     ports.Broadcaster
	metrics ports.MetricsExporter
	turns   *turnTracker
	keys    *keyMutex
}

// NewService wires the ingestion core.
func NewService(store ports.IngestStore, hub ports.Broadcaster, metrics ports.MetricsExporter) *Service {
	return &Service{
		store:   store,
		hub:     hub,
		metrics: metrics,
		turns:   newTurnTracker(),
		keys:    newKeyMutex(),
	}
}

// Ingest decodes one raw event, dispatches it to its kind's handler, and on
// success re-emits the enriched event to all live observers. Parse and
// validation failures carry domain.ErrMalformed / domain.ErrValidation /
// domain.ErrUnknownKind; anything else is a store failure and the event must
// be treated as not ingested.
func (s *Service) Ingest(ctx context.Context, payload []byte) (*domain.Envelope, error) {
	event, err := domain.ParseEvent(payload)
	if err != nil {
		return nil, err
	}

	var env *domain.Envelope
	switch e := event.(type) {
	case *domain.PromptEvent:
		env, err = s.handlePrompt(ctx, e, payload)
	case *domain.ToolBeforeEvent:
		env, err = s.handleToolBefore(ctx, e, payload)
	case *domain.ToolAfterEvent:
		env, err = s.handleToolAfter(ctx, e, payload)
	case *domain.FileEditEvent:
		env, err = s.handleFileEdit(ctx, e, payload)
	case *domain.AssistantTextEvent:
		env, err = s.handleAssistantText(ctx, e, payload)
	case *domain.RequestEvent:
		env, err = s.handleRequest(ctx, e, payload)
	default:
		return nil, fmt.Errorf("unhandled event type: %T", event)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.RecordEvent(ctx, env.Type)
	// Broadcasting is best-effort and never affects the ingestion verdict.
	s.hub.Publish(*env)
	return env, nil
}

func (s *Service) handlePrompt(ctx context.Context, e *domain.PromptEvent, payload []byte) (*domain.Envelope, error) {
	at := eventTime(e.Timestamp)
	if err := s.store.TouchSession(ctx, e.SessionID, at); err != nil {
		return nil, err
	}

	turn := &domain.Turn{
		ID:            uuid.NewString(),
		SessionID:     e.SessionID,
		UserMessageID: e.MessageID,
		Prompt:        e.Prompt,
		CreatedAt:     at,
	}
	if err := s.store.CreateTurn(ctx, turn); err != nil {
		return nil, err
	}
	s.turns.setOpen(e.SessionID, turn.ID)

	return envelope(domain.KindPrompt, e.SessionID, turn.ID, payload), nil
}

func (s *Service) handleToolBefore(ctx context.Context, e *domain.ToolBeforeEvent, payload []byte) (*domain.Envelope, error) {
	at := eventTime(e.Timestamp)
	if err := s.store.TouchSession(ctx, e.SessionID, at); err != nil {
		return nil, err
	}

	turnID := s.openTurnID(ctx, e.SessionID)
	call := &domain.ToolCall{
		CallID:    e.CallID,
		SessionID: e.SessionID,
		TurnID:    optional(turnID),
		ToolName:  e.Tool,
		Arguments: rawJSONField(e.Arguments),
		StartedAt: &at,
	}
	if err := s.store.StartToolCall(ctx, call); err != nil {
		return nil, err
	}

	return envelope(domain.KindToolBefore, e.SessionID, turnID, payload), nil
}

func (s *Service) handleToolAfter(ctx context.Context, e *domain.ToolAfterEvent, payload []byte) (*domain.Envelope, error) {
	at := eventTime(e.Timestamp)
	if err := s.store.TouchSession(ctx, e.SessionID, at); err != nil {
		return nil, err
	}

	turnID := s.openTurnID(ctx, e.SessionID)
	call := &domain.ToolCall{
		CallID:      e.CallID,
		SessionID:   e.SessionID,
		TurnID:      optional(turnID),
		ToolName:    e.Tool,
		Output:      rawJSONField(e.Output),
		Success:     e.Success,
		DurationMs:  e.DurationMs,
		CompletedAt: &at,
	}
	if err := s.store.CompleteToolCall(ctx, call); err != nil {
		return nil, err
	}

	return envelope(domain.KindToolAfter, e.SessionID, turnID, payload), nil
}

func (s *Service) handleFileEdit(ctx context.Context, e *domain.FileEditEvent, payload []byte) (*domain.Envelope, error) {
	at := eventTime(e.Timestamp)
	if err := s.store.TouchSession(ctx, e.SessionID, at); err != nil {
		return nil, err
	}

	turnID := s.openTurnID(ctx, e.SessionID)
	edit := &domain.FileEdit{
		SessionID:    e.SessionID,
		TurnID:       optional(turnID),
		CallID:       optional(e.CallID),
		FilePath:     e.FilePath,
		Operation:    e.Operation,
		LinesAdded:   e.LinesAdded,
		LinesRemoved: e.LinesRemoved,
		CreatedAt:    at,
	}
	if err := s.store.AppendFileEdit(ctx, edit); err != nil {
		return nil, err
	}

	return envelope(domain.KindFileEdit, e.SessionID, turnID, payload), nil
}

func (s *Service) handleAssistantText(ctx context.Context, e *domain.AssistantTextEvent, payload []byte) (*domain.Envelope, error) {
	at := eventTime(e.Timestamp)
	if err := s.store.TouchSession(ctx, e.SessionID, at); err != nil {
		return nil, err
	}

	turnID := s.openTurnID(ctx, e.SessionID)
	part := &domain.TextPart{
		MessageID: e.MessageID,
		PartID:    e.PartID,
		Content:   e.Text,
		CreatedAt: at,
	}
	if _, err := s.store.AccumulateTextPart(ctx, part, turnID); err != nil {
		return nil, err
	}

	return envelope(domain.KindAssistantText, e.SessionID, turnID, payload), nil
}

// handleRequest is the delta engine. The same messageId may be reported many
// times with growing token counts; aggregates only ever absorb the
// difference against the previously stored snapshot, so redelivery and
// streaming checkpoints never double-count.
func (s *Service) handleRequest(ctx context.Context, e *domain.RequestEvent, payload []byte) (*domain.Envelope, error) {
	unlock := s.keys.lock(e.MessageID)
	defer unlock()

	// Advance the session's last-seen clock with this event's own time; the
	// aggregate write below reuses the first report's created_at and must
	// not move it.
	at := eventTime(e.Timestamp)
	if err := s.store.TouchSession(ctx, e.SessionID, at); err != nil {
		return nil, err
	}

	prev, err := s.store.GetRequest(ctx, e.MessageID)
	if err != nil {
		return nil, err
	}
	m := domain.MeasurementsFromUsage(e.Tokens, e.CostUSD)
	req := &domain.Request{
		MessageID:    e.MessageID,
		SessionID:    e.SessionID,
		ProviderID:   e.ProviderID,
		ModelID:      e.ModelID,
		Agent:        e.Agent,
		Measurements: m,
		DurationMs:   e.DurationMs,
		FinishReason: e.FinishReason,
		Cwd:          e.Cwd,
		CreatedAt:    at,
		CompletedAt:  &at,
	}

	firstReport := prev == nil
	delta := m
	if !firstReport {
		delta = m.Sub(prev.Measurements)
		// Keep the original created_at so every re-report maps to the same
		// daily summary key.
		req.CreatedAt = prev.CreatedAt
	}

	turnID := s.openTurnID(ctx, e.SessionID)
	closed, err := s.store.ApplyRequest(ctx, req, delta, firstReport, turnID)
	if err != nil {
		return nil, err
	}
	if closed {
		s.turns.clear(e.SessionID)
	}

	s.metrics.RecordUsage(ctx, e.ProviderID, e.ModelID, delta)
	return envelope(domain.KindRequest, e.SessionID, turnID, payload), nil
}

// openTurnID resolves the session's open turn, consulting the in-memory
// pointer first and the durable record second.
func (s *Service) openTurnID(ctx context.Context, sessionID string) string {
	if id, ok := s.turns.get(sessionID); ok {
		return id
	}
	turn, err := s.store.FindOpenTurn(ctx, sessionID)
	if err != nil || turn == nil {
		return ""
	}
	s.turns.setOpen(sessionID, turn.ID)
	return turn.ID
}

func envelope(kind, sessionID, turnID string, payload []byte) *domain.Envelope {
	return &domain.Envelope{
		Type:      kind,
		SessionID: sessionID,
		TurnID:    turnID,
		Event:     json.RawMessage(payload),
	}
}

func eventTime(timestamp string) string {
	if timestamp != "" {
		return timestamp
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// rawJSONField compacts a raw JSON field for storage and truncates oversized
// payloads, mirroring what producers may stream through tool outputs.
func rawJSONField(data json.RawMessage) *string {
	if len(data) == 0 {
		return nil
	}
	str := string(data)
	if compacted, err := compactJSON(data); err == nil {
		str = compacted
	}
	str = truncateString(str, maxToolPayloadSize)
	return &str
}

// truncateString cuts s down to at most maxLen bytes, backing off to a rune
// boundary so the stored value stays valid UTF-8.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...[truncated]"
}

func compactJSON(data json.RawMessage) (string, error) {
	var buf any
	if err := json.Unmarshal(data, &buf); err != nil {
		return "", err
	}
	compacted, err := json.Marshal(buf)
	if err != nil {
		return "", err
	}
	return string(compacted), nil
}
