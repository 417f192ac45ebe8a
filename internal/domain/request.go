package domain

// Request is the stored state of one model invocation, keyed by the
// producer-assigned messageId. Re-reports replace the measurements in full;
// the delta against the previous state is what flows into aggregates.
type Request struct {
	MessageID    string
	SessionID    string
	ProviderID   string
	ModelID      string
	Agent        string
	Measurements Measurements
	DurationMs   *int64
	FinishReason string
	Cwd          string
	CreatedAt    string
	CompletedAt  *string
}
