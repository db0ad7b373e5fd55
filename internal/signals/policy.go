// Package signals turns a fund's estimated return into buy/sell advice
// relative to a benchmark index.
package signals

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/wonny/fundwatch/internal/contracts"
	"github.com/wonny/fundwatch/pkg/cny"
	"github.com/wonny/fundwatch/pkg/config"
)

// Policy holds the signal thresholds (percent) and sizing rules
// ⭐ SSOT: buy/sell thresholds
type Policy struct {
	BuyThreshold        float64 // BUY when estimate < this and < benchmark
	StrongBuyThreshold  float64 // amount multiplied when estimate < this
	StrongBuyMultiplier int64
	SellThreshold       float64 // SELL when estimate > this and > benchmark + offset
	SellBenchmarkOffset float64
	SellFraction        float64
}

// DefaultPolicy returns the historical thresholds
func DefaultPolicy() Policy {
	return Policy{
		BuyThreshold:        -2.5,
		StrongBuyThreshold:  -4.0,
		StrongBuyMultiplier: 2,
		SellThreshold:       3.0,
		SellBenchmarkOffset: 1.5,
		SellFraction:        0.25,
	}
}

// PolicyFromConfig builds a Policy from configuration
func PolicyFromConfig(cfg config.PolicyConfig) Policy {
	return Policy{
		BuyThreshold:        cfg.BuyThreshold,
		StrongBuyThreshold:  cfg.StrongBuyThreshold,
		StrongBuyMultiplier: cfg.StrongBuyMultiplier,
		SellThreshold:       cfg.SellThreshold,
		SellBenchmarkOffset: cfg.SellBenchmarkOffset,
		SellFraction:        cfg.SellFraction,
	}
}

// Evaluate applies the policy to an estimate. BUY is checked before SELL;
// ok is false when neither fires.
func (p Policy) Evaluate(estimate, benchmark, baseUnit float64) (signal contracts.Signal, ok bool) {
	gap := math.Abs(estimate - benchmark)

	if estimate < p.BuyThreshold && estimate < benchmark {
		multiplier := int64(1)
		if estimate < p.StrongBuyThreshold {
			multiplier = p.StrongBuyMultiplier
		}
		amount := decimal.NewFromFloat(baseUnit).Mul(decimal.NewFromInt(multiplier))

		return contracts.Signal{
			Action:    contracts.ActionBuy,
			Estimate:  estimate,
			Benchmark: benchmark,
			Gap:       gap,
			Amount:    amount,
			Strong:    multiplier > 1,
			Rationale: fmt.Sprintf("跑输基准 %.1f%%", gap),
			Advice:    "建议加仓 " + cny.Format(amount),
		}, true
	}

	if estimate > p.SellThreshold && estimate > benchmark+p.SellBenchmarkOffset {
		return contracts.Signal{
			Action:       contracts.ActionSell,
			Estimate:     estimate,
			Benchmark:    benchmark,
			Gap:          gap,
			Amount:       decimal.Zero,
			SellFraction: p.SellFraction,
			Rationale:    fmt.Sprintf("跑赢基准 %.1f%%", gap),
			Advice:       "建议卖出 " + fraction(p.SellFraction),
		}, true
	}

	return contracts.Signal{}, false
}

// fraction renders 0.25 as 1/4 when it is a unit fraction, else as a percent
func fraction(f float64) string {
	if f > 0 && f <= 1 {
		inv := 1 / f
		if math.Abs(inv-math.Round(inv)) < 1e-9 {
			return fmt.Sprintf("1/%d", int(math.Round(inv)))
		}
	}
	return fmt.Sprintf("%.0f%%", f*100)
}
