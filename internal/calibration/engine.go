// Package calibration records daily raw estimates and nudges each fund's
// calibration factor toward the official return by exponential smoothing.
package calibration

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/wonny/fundwatch/internal/contracts"
	"github.com/wonny/fundwatch/internal/estimate"
	"github.com/wonny/fundwatch/internal/external/eastmoney"
	"github.com/wonny/fundwatch/internal/portfolio"
	"github.com/wonny/fundwatch/pkg/logger"
)

// ErrNoQuotes is returned by Capture when the quote feed produced nothing
var ErrNoQuotes = errors.New("calibration: no quotes for snapshot")

// DefaultSmoothing is the weight kept on the previous factor
const DefaultSmoothing = 0.8

// State is the calibration state of a (fund, date) pair
type State string

const (
	StatePending    State = "pending"    // raw recorded, not calibrated
	StateResolvable State = "resolvable" // official return dated >= date available
	StateCalibrated State = "calibrated" // factor logged for the date, terminal
	StateSkipped    State = "skipped"    // no raw estimate or no fund code
)

// Outcome is what happened to one fund during a calibration run
type Outcome struct {
	Fund         string  `json:"fund"`
	State        State   `json:"state"`
	Raw          float64 `json:"raw,omitempty"`
	Official     float64 `json:"official,omitempty"`
	OfficialDate string  `json:"official_date,omitempty"`
	OldFactor    float64 `json:"old_factor,omitempty"`
	NewFactor    float64 `json:"new_factor,omitempty"`
	Reason       string  `json:"reason,omitempty"`
}

// Result summarizes a calibration run
type Result struct {
	RunID    string             `json:"run_id"`
	Date     string             `json:"date"`
	Outcomes []Outcome          `json:"outcomes"`
	Updated  map[string]float64 `json:"updated"`            // factors written to funds.json
	Repaired map[string]float64 `json:"repaired,omitempty"` // logged factors re-applied, not re-smoothed
}

const reasonRepaired = "factor re-applied from log"

// NextFactor smooths old toward official/raw and rounds to 4 decimals
func NextFactor(old, official, raw, smoothing float64) float64 {
	next := old*smoothing + (official/raw)*(1-smoothing)
	return math.Round(next*1e4) / 1e4
}

// Engine runs the close snapshot and the evening calibration
// ⭐ SSOT: calibration factor 갱신은 여기서만
type Engine struct {
	funds     *portfolio.Repository
	logs      *Store
	nav       contracts.NavSource
	smoothing float64
	logger    *logger.Logger
}

// NewEngine creates a calibration engine
func NewEngine(funds *portfolio.Repository, logs *Store, nav contracts.NavSource, smoothing float64, log *logger.Logger) *Engine {
	return &Engine{
		funds:     funds,
		logs:      logs,
		nav:       nav,
		smoothing: smoothing,
		logger:    log,
	}
}

// Snapshot records every fund's raw estimate for date, replacing that date's entry
func (e *Engine) Snapshot(ctx context.Context, snapshot contracts.QuoteSnapshot, date string) (map[string]float64, error) {
	p, err := e.funds.Load(ctx)
	if err != nil {
		return nil, err
	}

	raws := make(map[string]float64, len(p.Funds))
	for _, fund := range p.List() {
		raw, _, _ := estimate.RawEstimate(fund, snapshot)
		raws[fund.Name] = raw
	}

	if err := e.logs.PutSnapshot(ctx, date, raws); err != nil {
		return nil, err
	}

	e.logger.WithFields(map[string]interface{}{
		"date":  date,
		"funds": len(raws),
	}).Info("Snapshot saved")

	return raws, nil
}

// Capture fetches live quotes for every holding and records the snapshot for date
func (e *Engine) Capture(ctx context.Context, quotes contracts.QuoteSource, date string) (map[string]float64, error) {
	p, err := e.funds.Load(ctx)
	if err != nil {
		return nil, err
	}

	snapshot, err := quotes.FetchQuotes(ctx, p.SecurityCodes())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoQuotes, err)
	}
	if len(snapshot) == 0 {
		return nil, ErrNoQuotes
	}

	return e.Snapshot(ctx, snapshot, date)
}

// CalibrateAll calibrates every configured fund for date; an empty date
// means the latest snapshot date
func (e *Engine) CalibrateAll(ctx context.Context, date string) (*Result, error) {
	return e.run(ctx, date, "")
}

// Calibrate calibrates one fund for date
func (e *Engine) Calibrate(ctx context.Context, fund, date string) (*Result, error) {
	return e.run(ctx, date, fund)
}

func (e *Engine) run(ctx context.Context, date, only string) (*Result, error) {
	result := &Result{RunID: uuid.NewString(), Updated: make(map[string]float64), Repaired: make(map[string]float64)}

	snapshots, _, err := e.logs.Snapshots(ctx)
	if err != nil {
		return nil, err
	}
	if date == "" {
		date = snapshots.Latest()
	}
	result.Date = date
	if date == "" {
		e.logger.Info("No snapshot recorded, nothing to calibrate")
		return result, nil
	}

	factors, _, err := e.logs.Factors(ctx)
	if err != nil {
		return nil, err
	}

	p, err := e.funds.Load(ctx)
	if err != nil {
		return nil, err
	}
	if only != "" {
		if _, ok := p.Get(only); !ok {
			return nil, fmt.Errorf("%w: %s", portfolio.ErrUnknownFund, only)
		}
	}

	// fresh holds the factors smoothed by this run; only they enter the log
	fresh := make(map[string]float64)

	for _, fund := range p.List() {
		if only != "" && fund.Name != only {
			continue
		}

		outcome := e.resolve(ctx, fund, date, snapshots, factors)
		switch {
		case outcome.State == StateResolvable:
			outcome.NewFactor = NextFactor(fund.Factor, outcome.Official, outcome.Raw, e.smoothing)
			outcome.State = StateCalibrated
			fresh[fund.Name] = outcome.NewFactor

		case outcome.State == StateCalibrated && needsRepair(fund, date, factors):
			// the log entry landed but funds.json did not
			outcome.Reason = reasonRepaired
			result.Repaired[fund.Name] = outcome.NewFactor

		default:
			result.Outcomes = append(result.Outcomes, outcome)
			continue
		}

		if err := p.SetFactor(fund.Name, outcome.NewFactor); err != nil {
			return nil, err
		}
		result.Updated[fund.Name] = outcome.NewFactor
		result.Outcomes = append(result.Outcomes, outcome)
	}

	if len(result.Updated) == 0 {
		e.logger.WithField("date", date).Info("No factor updates needed")
		return result, nil
	}

	// ⭐ 순서: factor log 먼저, funds.json 나중.
	// A failed log write changes nothing; a failed funds.json write is
	// repaired from the log on the next run instead of being smoothed again.
	if len(fresh) > 0 {
		if err := e.logs.MergeFactors(ctx, date, fresh); err != nil {
			return nil, err
		}
	}
	if err := e.funds.Save(ctx, p, "Audit"); err != nil {
		return nil, err
	}

	e.logger.WithFields(map[string]interface{}{
		"run_id":   result.RunID,
		"date":     date,
		"updated":  len(result.Updated),
		"repaired": len(result.Repaired),
	}).Info("Calibration completed")

	return result, nil
}

// needsRepair reports whether date is the fund's most recent logged calibration
// and funds.json still carries a different factor
func needsRepair(fund contracts.Fund, date string, factors DateLog) bool {
	if factors.LatestFor(fund.Name) != date {
		return false
	}
	return fund.Factor != factors[date][fund.Name]
}

// resolve determines the state of (fund, date) and fetches the official return
func (e *Engine) resolve(ctx context.Context, fund contracts.Fund, date string, snapshots, factors DateLog) Outcome {
	outcome := Outcome{Fund: fund.Name, OldFactor: fund.Factor}

	if factors.Has(date, fund.Name) {
		outcome.State = StateCalibrated
		outcome.NewFactor = factors[date][fund.Name]
		outcome.Reason = "already calibrated"
		return outcome
	}

	raw, ok := snapshots[date][fund.Name]
	if !ok {
		outcome.State = StateSkipped
		outcome.Reason = "no raw snapshot"
		return outcome
	}
	outcome.Raw = raw

	if fund.Code == "" {
		outcome.State = StateSkipped
		outcome.Reason = "no fund code"
		return outcome
	}

	outcome.State = StatePending

	point, ok, err := eastmoney.LatestChange(ctx, e.nav, fund.Code)
	if err != nil {
		e.logger.WithFields(map[string]interface{}{
			"fund":  fund.Name,
			"code":  fund.Code,
			"error": err.Error(),
		}).Warn("Official NAV fetch failed")
		outcome.Reason = "nav fetch failed"
		return outcome
	}
	if !ok {
		outcome.Reason = "no official return"
		return outcome
	}

	outcome.Official = point.Value
	outcome.OfficialDate = point.Date

	switch {
	case point.Date < date:
		outcome.Reason = "official return not yet published"
	case raw == 0:
		outcome.Reason = "raw estimate is zero"
	default:
		outcome.State = StateResolvable
	}
	return outcome
}
