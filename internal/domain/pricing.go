package domain

// ModelPricing maps one (provider, model) pair to per-million-token rates.
// The read side uses it to backfill a display cost when a request reported
// zero cost; stored rows are never rewritten.
type ModelPricing struct {
	ProviderID           string
	ModelID              string
	InputPerMillion      float64
	OutputPerMillion     float64
	CacheReadPerMillion  float64
	CacheWritePerMillion float64
}

// CalculateCost computes a cost estimate in USD for the given measurements.
func (p *ModelPricing) CalculateCost(m Measurements) float64 {
	cost := float64(m.TokensInput) * p.InputPerMillion / 1_000_000
	cost += float64(m.TokensOutput+m.TokensReasoning) * p.OutputPerMillion / 1_000_000
	cost += float64(m.TokensCacheRead) * p.CacheReadPerMillion / 1_000_000
	cost += float64(m.TokensCacheWrite) * p.CacheWritePerMillion / 1_000_000
	return cost
}
