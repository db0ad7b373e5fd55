// Package estimate computes a fund's same-day return from its static
// holding weights and realtime quotes.
package estimate

import (
	"github.com/wonny/fundwatch/internal/contracts"
)

// RawEstimate returns the weighted average % change of the holdings present in
// the snapshot, the matched weight, and the contributing securities.
// Holdings absent from the snapshot, or with a non-finite change, are excluded from both sums.
func RawEstimate(fund contracts.Fund, snapshot contracts.QuoteSnapshot) (raw, matchedWeight float64, contributors []contracts.Contribution) {
	var weightedSum float64

	for _, h := range fund.Holdings {
		quote, ok := snapshot[h.Code]
		if !ok || !contracts.IsFinite(quote.ChangePct) {
			continue
		}
		weightedSum += quote.ChangePct * h.Weight
		matchedWeight += h.Weight
		contributors = append(contributors, contracts.Contribution{
			Code: h.Code,
			Name: quote.Name,
			Pct:  quote.ChangePct,
		})
	}

	if matchedWeight > 0 {
		raw = weightedSum / matchedWeight
	}
	return raw, matchedWeight, contributors
}

// Estimate computes the calibrated estimate of fund.
// No matched holding yields Estimate 0 with Known false, never an error.
func Estimate(fund contracts.Fund, snapshot contracts.QuoteSnapshot) contracts.EstimationResult {
	raw, matched, contributors := RawEstimate(fund, snapshot)

	return contracts.EstimationResult{
		FundName:      fund.Name,
		Estimate:      raw * fund.Factor,
		Raw:           raw,
		Factor:        fund.Factor,
		MatchedWeight: matched,
		Known:         matched > 0,
		Contributors:  contributors,
	}
}
