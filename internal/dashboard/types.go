package dashboard

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/fundwatch/internal/contracts"
	"github.com/wonny/fundwatch/internal/signals"
)

// IndexQuote is a market index on the dashboard header
type IndexQuote struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	ChangePct float64 `json:"change_pct"`
	Available bool    `json:"available"`
}

// FundCard is one fund's evaluation
type FundCard struct {
	Name            string                     `json:"name"`
	ShortName       string                     `json:"short_name"`
	Result          contracts.EstimationResult `json:"result"`
	Benchmark       contracts.Benchmark        `json:"benchmark"`
	BenchmarkReturn float64                    `json:"benchmark_return_pct"`
	Signal          *contracts.Signal          `json:"signal,omitempty"`
	Stats           contracts.HistoryStats     `json:"history"`
	HoldingValue    decimal.Decimal            `json:"holding_value"`
	Profit          decimal.Decimal            `json:"profit"`
	YesterdayProfit decimal.Decimal            `json:"yesterday_profit"`
	ActualReturn    *float64                   `json:"actual_return_pct,omitempty"` // official % for today, once published
}

// Totals aggregates the portfolio
type Totals struct {
	Principal       decimal.Decimal `json:"principal"`
	EstimatedProfit decimal.Decimal `json:"estimated_profit"`
	EstimatedYield  float64         `json:"estimated_yield_pct"`
	ActualReady     bool            `json:"actual_ready"` // every fund has today's official return
	ActualProfit    decimal.Decimal `json:"actual_profit"`
	ActualYield     float64         `json:"actual_yield_pct"`
	Delta           decimal.Decimal `json:"delta"` // actual - estimated
}

// Evaluation is the output of one evaluation cycle
// ⭐ SSOT: dashboard payload (REST and websocket)
type Evaluation struct {
	RunID   string               `json:"run_id"`
	Date    string               `json:"date"`
	At      time.Time            `json:"at"`
	Indices []IndexQuote         `json:"indices"`
	Funds   []FundCard           `json:"funds"`
	Signals []signals.FundSignal `json:"signals"`
	Totals  Totals               `json:"totals"`
}

// Status is the live state of the dashboard
type Status string

const (
	StatusIdle       Status = "idle"       // never refreshed
	StatusLive       Status = "live"       // last refresh produced quotes
	StatusConnecting Status = "connecting" // last refresh got no quotes
)
