package domain

// Turn associates one user prompt with the assistant response that resolves
// it. A turn is open while AssistantMessageID is nil.
type Turn struct {
	ID                 string
	SessionID          string
	UserMessageID      string
	AssistantMessageID *string
	Prompt             string
	ResponseText       string
	TokensInput        int64
	TokensOutput       int64
	CostUSD            float64
	CreatedAt          string
	CompletedAt        *string
}

// Open reports whether the turn still awaits its assistant response.
func (t *Turn) Open() bool {
	return t.AssistantMessageID == nil
}

// ToolCall is one tool invocation, merged from its started and completed
// phases by callId. TurnID is nil when no turn was open at processing time.
type ToolCall struct {
	CallID      string
	SessionID   string
	TurnID      *string
	ToolName    string
	Arguments   *string
	Output      *string
	Success     *bool
	DurationMs  *int64
	StartedAt   *string
	CompletedAt *string
}

// FileEdit is one append-only file operation record.
type FileEdit struct {
	ID           int64
	SessionID    string
	TurnID       *string
	CallID       *string
	FilePath     string
	Operation    string
	LinesAdded   int64
	LinesRemoved int64
	CreatedAt    string
}

// TextPart is one fragment of a streamed assistant response. The full text
// is the concatenation of all parts for a messageId in creation order.
type TextPart struct {
	MessageID string
	PartID    string
	Content   string
	CreatedAt string
}
