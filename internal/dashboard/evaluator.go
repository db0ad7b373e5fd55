// Package dashboard runs the evaluate-once pipeline behind the dashboard,
// the intraday check and the CLI.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wonny/fundwatch/internal/contracts"
	"github.com/wonny/fundwatch/internal/estimate"
	"github.com/wonny/fundwatch/internal/history"
	"github.com/wonny/fundwatch/internal/portfolio"
	"github.com/wonny/fundwatch/internal/signals"
	"github.com/wonny/fundwatch/pkg/logger"
)

// ErrNoQuotes is returned when the quote feed produced nothing ("connecting")
var ErrNoQuotes = errors.New("dashboard: no quotes available")

var hundred = decimal.NewFromInt(100)

// Evaluator runs one evaluation cycle
type Evaluator struct {
	quotes contracts.QuoteSource
	policy signals.Policy
	logger *logger.Logger
}

// NewEvaluator creates an evaluator
func NewEvaluator(quotes contracts.QuoteSource, policy signals.Policy, log *logger.Logger) *Evaluator {
	return &Evaluator{quotes: quotes, policy: policy, logger: log}
}

// Evaluate fetches quotes for every holding and market index, estimates every
// fund and attaches benchmark, signal, history stats and profit figures.
// now decides the trading date for the actual-profit columns.
func (e *Evaluator) Evaluate(ctx context.Context, p *portfolio.Portfolio, navHistory history.NavHistory, now time.Time) (*Evaluation, error) {
	codes := make([]string, 0, len(signals.MarketIndices))
	for _, idx := range signals.MarketIndices {
		codes = append(codes, idx.Code)
	}

	snapshot, err := e.quotes.FetchQuotes(ctx, p.SecurityCodes(codes...))
	if err != nil {
		e.logger.WithError(err).Warn("Quote fetch failed")
		return nil, fmt.Errorf("%w: %w", ErrNoQuotes, err)
	}
	if len(snapshot) == 0 {
		return nil, ErrNoQuotes
	}

	return e.Build(p, navHistory, snapshot, now), nil
}

// Build assembles an Evaluation from an already fetched snapshot
func (e *Evaluator) Build(p *portfolio.Portfolio, navHistory history.NavHistory, snapshot contracts.QuoteSnapshot, now time.Time) *Evaluation {
	today := contracts.DateOf(now)

	eval := &Evaluation{
		RunID:   uuid.NewString(),
		Date:    today,
		At:      now,
		Signals: []signals.FundSignal{},
	}

	for _, idx := range signals.MarketIndices {
		q, ok := snapshot[idx.Code]
		if ok && !contracts.IsFinite(q.ChangePct) {
			q, ok = contracts.Quote{}, false
		}
		eval.Indices = append(eval.Indices, IndexQuote{
			Code:      idx.Code,
			Name:      idx.Name,
			ChangePct: q.ChangePct,
			Available: ok,
		})
	}

	totals := Totals{ActualReady: len(p.Funds) > 0}

	for _, fund := range p.List() {
		card := e.card(fund, snapshot, navHistory[fund.Name])

		if actual, ok := navHistory[fund.Name][today]; ok {
			a := actual
			card.ActualReturn = &a
			totals.ActualProfit = totals.ActualProfit.Add(percentOf(card.HoldingValue, actual))
		} else {
			totals.ActualReady = false
		}

		totals.Principal = totals.Principal.Add(card.HoldingValue)
		totals.EstimatedProfit = totals.EstimatedProfit.Add(card.Profit)

		if card.Signal != nil {
			eval.Signals = append(eval.Signals, signals.FundSignal{Fund: fund.Name, Signal: *card.Signal})
		}
		eval.Funds = append(eval.Funds, card)
	}

	totals.EstimatedYield = yield(totals.EstimatedProfit, totals.Principal)
	if totals.ActualReady {
		totals.ActualYield = yield(totals.ActualProfit, totals.Principal)
		totals.Delta = totals.ActualProfit.Sub(totals.EstimatedProfit)
	} else {
		totals.ActualProfit = decimal.Zero
	}
	eval.Totals = totals

	e.logger.WithFields(map[string]interface{}{
		"run_id":  eval.RunID,
		"funds":   len(eval.Funds),
		"quotes":  len(snapshot),
		"signals": len(eval.Signals),
	}).Debug("Evaluation built")

	return eval
}

func (e *Evaluator) card(fund contracts.Fund, snapshot contracts.QuoteSnapshot, series history.Series) FundCard {
	result := estimate.Estimate(fund, snapshot)
	bench := signals.BenchmarkFor(fund)
	benchReturn := signals.BenchmarkReturn(bench, snapshot)
	stats := history.Stats(series)
	principal := decimal.NewFromFloat(fund.HoldingValue)

	card := FundCard{
		Name:            fund.Name,
		ShortName:       fund.ShortName(),
		Result:          result,
		Benchmark:       bench,
		BenchmarkReturn: benchReturn,
		Stats:           stats,
		HoldingValue:    principal,
		Profit:          percentOf(principal, result.Estimate),
		YesterdayProfit: percentOf(principal, stats.MostRecentReturn),
	}

	if result.Known {
		if s, ok := e.policy.Evaluate(result.Estimate, benchReturn, fund.BaseUnit); ok {
			card.Signal = &s
		}
	}

	return card
}

// percentOf returns amount * pct / 100
func percentOf(amount decimal.Decimal, pct float64) decimal.Decimal {
	return amount.Mul(decimal.NewFromFloat(pct)).Div(hundred)
}

// yield returns profit / principal * 100, 0 without principal
func yield(profit, principal decimal.Decimal) float64 {
	if !principal.IsPositive() {
		return 0
	}
	return profit.Div(principal).Mul(hundred).InexactFloat64()
}
