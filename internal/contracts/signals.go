package contracts

import "github.com/shopspring/decimal"

// Contribution is a matched holding that took part in an estimate
type Contribution struct {
	Code string  `json:"code"`
	Name string  `json:"name"`
	Pct  float64 `json:"pct"`
}

// EstimationResult is a fund's estimate for one evaluation cycle
type EstimationResult struct {
	FundName      string         `json:"fund_name"`
	Estimate      float64        `json:"estimated_return_pct"` // raw * factor
	Raw           float64        `json:"raw_return_pct"`
	Factor        float64        `json:"factor"`
	MatchedWeight float64        `json:"matched_weight"`
	Known         bool           `json:"known"` // false: no holding matched, Estimate is a placeholder 0
	Contributors  []Contribution `json:"contributing_securities"`
}

// Benchmark is a reference index resolved for a fund
type Benchmark struct {
	Class BenchmarkClass `json:"class"`
	Code  string         `json:"code"`
	Name  string         `json:"name"`
}

// SignalAction is the advisory action of a signal
type SignalAction string

const (
	ActionBuy  SignalAction = "BUY"
	ActionSell SignalAction = "SELL"
)

// Signal is the advisory output of the signal engine
// ⭐ SSOT: buy/sell advice shape
type Signal struct {
	Action       SignalAction    `json:"action"`
	Estimate     float64         `json:"estimated_return_pct"`
	Benchmark    float64         `json:"benchmark_return_pct"`
	Gap          float64         `json:"gap_pct"` // |estimate - benchmark|
	Amount       decimal.Decimal `json:"amount"`  // suggested buy amount, zero for SELL
	SellFraction float64         `json:"sell_fraction,omitempty"`
	Strong       bool            `json:"strong,omitempty"`
	Rationale    string          `json:"rationale"`
	Advice       string          `json:"advice"`
}

// StreakDirection is the sign of a run of realized daily returns
type StreakDirection string

const (
	StreakNone StreakDirection = "none"
	StreakUp   StreakDirection = "up"
	StreakDown StreakDirection = "down"
	StreakFlat StreakDirection = "flat"
)

// HistoryStats summarizes a fund's realized NAV history
type HistoryStats struct {
	MostRecentReturn float64         `json:"most_recent_return"`
	MostRecentDate   string          `json:"most_recent_date"`
	StreakLength     int             `json:"streak_length"`
	StreakDirection  StreakDirection `json:"streak_direction"`
}
