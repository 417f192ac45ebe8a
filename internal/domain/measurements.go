package domain

// Measurements is the set of numeric fields a request reports. Aggregates are
// maintained by applying the component-wise difference between successive
// reports for the same messageId, never the raw values.
type Measurements struct {
	TokensInput      int64
	TokensOutput     int64
	TokensReasoning  int64
	TokensCacheRead  int64
	TokensCacheWrite int64
	CostUSD          float64
}

// Sub returns the component-wise difference m - o. Components may be
// negative when a stale snapshot is redelivered after a newer one.
func (m Measurements) Sub(o Measurements) Measurements {
	return Measurements{
		TokensInput:      m.TokensInput - o.TokensInput,
		TokensOutput:     m.TokensOutput - o.TokensOutput,
		TokensReasoning:  m.TokensReasoning - o.TokensReasoning,
		TokensCacheRead:  m.TokensCacheRead - o.TokensCacheRead,
		TokensCacheWrite: m.TokensCacheWrite - o.TokensCacheWrite,
		CostUSD:          m.CostUSD - o.CostUSD,
	}
}

// IsZero reports whether every component is exactly zero.
func (m Measurements) IsZero() bool {
	return m == Measurements{}
}

// MeasurementsFromUsage converts a request event's token usage and cost into
// the stored measurement set.
func MeasurementsFromUsage(tokens TokenUsage, costUSD float64) Measurements {
	return Measurements{
		TokensInput:      tokens.Input,
		TokensOutput:     tokens.Output,
		TokensReasoning:  tokens.Reasoning,
		TokensCacheRead:  tokens.Cache.Read,
		TokensCacheWrite: tokens.Cache.Write,
		CostUSD:          costUSD,
	}
}
