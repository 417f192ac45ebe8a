package domain

// Session holds the running totals for one conversation. Created on the
// first event referencing an unseen session id, never deleted by the core.
type Session struct {
	ID                string
	FirstSeenAt       string
	LastSeenAt        string
	TotalRequests     int64
	TotalCostUSD      float64
	TotalTokensInput  int64
	TotalTokensOutput int64
}

// DailySummary holds running totals scoped to one calendar day and one
// provider/model pair. Summing all rows must equal summing the final state
// of all requests.
type DailySummary struct {
	Date         string
	ProviderID   string
	ModelID      string
	RequestCount int64
	Measurements Measurements
}

// AggregateStats is the read-side rollup served by the stats endpoint.
type AggregateStats struct {
	SessionCount      int64
	RequestCount      int64
	TotalTokensInput  int64
	TotalTokensOutput int64
	TotalCostUSD      float64
}
