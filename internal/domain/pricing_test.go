package domain

import (
	"math"
	"testing"
)

func TestCalculateCost(t *testing.T) {
	p := &ModelPricing{
		ProviderID:           "anthropic",
		ModelID:              "claude-sonnet-4-5",
		InputPerMillion:      3.0,
		OutputPerMillion:     15.0,
		CacheReadPerMillion:  0.3,
		CacheWritePerMillion: 3.75,
	}

	cost := p.CalculateCost(Measurements{
		TokensInput:      1_000_000,
		TokensOutput:     100_000,
		TokensCacheRead:  500_000,
		TokensCacheWrite: 200_000,
	})

	want := 3.0 + 1.5 + 0.15 + 0.75
	if math.Abs(cost-want) > 1e-9 {
		t.Errorf("cost: expected %v, got %v", want, cost)
	}
}

func TestCalculateCost_ReasoningBilledAsOutput(t *testing.T) {
	p := &ModelPricing{OutputPerMillion: 10.0}

	cost := p.CalculateCost(Measurements{TokensOutput: 500_000, TokensReasoning: 500_000})
	if math.Abs(cost-10.0) > 1e-9 {
		t.Errorf("cost: expected 10.0, got %v", cost)
	}
}
