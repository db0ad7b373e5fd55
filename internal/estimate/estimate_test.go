package estimate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/fundwatch/internal/contracts"
)

func snapshot(pcts map[string]float64) contracts.QuoteSnapshot {
	s := make(contracts.QuoteSnapshot, len(pcts))
	for code, pct := range pcts {
		s[code] = contracts.Quote{Code: code, Name: code, ChangePct: pct}
	}
	return s
}

func TestEstimateWeightedAverageOfPresentSecurities(t *testing.T) {
	fund := contracts.Fund{
		Name:   "A",
		Factor: 1.0,
		Holdings: []contracts.Holding{
			{Code: "X", Weight: 0.5},
			{Code: "Y", Weight: 0.3},
			{Code: "Z", Weight: 0.2},
		},
	}

	// Z has no quote
	result := Estimate(fund, snapshot(map[string]float64{"X": 2.0, "Y": -1.0}))

	assert.True(t, result.Known)
	assert.InDelta(t, (2.0*0.5-1.0*0.3)/0.8, result.Raw, 1e-12)
	assert.InDelta(t, 0.8, result.MatchedWeight, 1e-12)
	assert.Len(t, result.Contributors, 2)
	assert.Equal(t, "X", result.Contributors[0].Code)
}

func TestEstimateSkipsNonFiniteQuotes(t *testing.T) {
	fund := contracts.Fund{
		Name:     "A",
		Factor:   1.1,
		Holdings: []contracts.Holding{{Code: "X", Weight: 0.5}, {Code: "Y", Weight: 0.5}},
	}

	result := Estimate(fund, snapshot(map[string]float64{"X": math.NaN(), "Y": -1.0}))
	assert.True(t, result.Known)
	assert.InDelta(t, -1.0, result.Raw, 1e-12)
	assert.InDelta(t, -1.1, result.Estimate, 1e-12)
	assert.Len(t, result.Contributors, 1)

	result = Estimate(fund, snapshot(map[string]float64{"X": math.Inf(1)}))
	assert.False(t, result.Known)
	assert.Equal(t, 0.0, result.Estimate)
}

func TestEstimateZeroOverlapIsExactlyZero(t *testing.T) {
	fund := contracts.Fund{
		Name:     "A",
		Factor:   1.3,
		Holdings: []contracts.Holding{{Code: "X", Weight: 1}},
	}

	result := Estimate(fund, snapshot(map[string]float64{"Q": 5.0}))

	assert.False(t, result.Known)
	assert.Equal(t, 0.0, result.Estimate)
	assert.Equal(t, 0.0, result.Raw)
	assert.Empty(t, result.Contributors)
}

func TestEstimateAppliesFactor(t *testing.T) {
	fund := contracts.Fund{
		Name:     "A",
		Factor:   1.1,
		Holdings: []contracts.Holding{{Code: "X", Weight: 0.5}, {Code: "Y", Weight: 0.5}},
	}

	result := Estimate(fund, snapshot(map[string]float64{"X": -2.0, "Y": 0.0}))

	assert.InDelta(t, -1.0, result.Raw, 1e-12)
	assert.InDelta(t, -1.1, result.Estimate, 1e-12)
	assert.Equal(t, 1.1, result.Factor)
}

func TestEstimateZeroWeightsAreUnknown(t *testing.T) {
	fund := contracts.Fund{
		Name:     "A",
		Factor:   1.0,
		Holdings: []contracts.Holding{{Code: "X", Weight: 0}},
	}

	result := Estimate(fund, snapshot(map[string]float64{"X": 3.0}))
	assert.False(t, result.Known)
	assert.Equal(t, 0.0, result.Estimate)
}
