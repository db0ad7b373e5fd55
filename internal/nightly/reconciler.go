// Package nightly waits for the official NAVs of the day, records them into
// the NAV history and sends one actual-profit report per day.
package nightly

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/fundwatch/internal/blobstore"
	"github.com/wonny/fundwatch/internal/contracts"
	"github.com/wonny/fundwatch/internal/dashboard"
	"github.com/wonny/fundwatch/internal/external/eastmoney"
	"github.com/wonny/fundwatch/internal/history"
	"github.com/wonny/fundwatch/internal/portfolio"
	"github.com/wonny/fundwatch/pkg/logger"
)

// Defaults of the polling loop
const (
	DefaultInterval = 3 * time.Minute
	DefaultDeadline = "23:30"
)

var hundred = decimal.NewFromInt(100)

// State is nightly_state.json
type State struct {
	LastReported string `json:"last_reported"`
}

// Poll is the outcome of one PollOnce
type Poll struct {
	Date     string             `json:"date"`
	Recorded map[string]float64 `json:"recorded"` // newly recorded % per fund
	Pending  []string           `json:"pending"`  // coded funds still without today
	Done     bool               `json:"done"`     // every coded fund has today
	Reported bool               `json:"reported"` // this poll sent the report
}

// Reconciler polls the NAV feed for today's official returns
// ⭐ SSOT: 야간 정산 리포트는 여기서만
type Reconciler struct {
	funds    *portfolio.Repository
	history  *history.Cache
	nav      contracts.NavSource
	blobs    blobstore.Store
	notifier contracts.Notifier
	interval time.Duration
	deadline string // HH:MM local
	loc      *time.Location
	now      func() time.Time
	logger   *logger.Logger
}

// Config holds the loop timing
type Config struct {
	Interval time.Duration
	Deadline string // HH:MM
	Location *time.Location
}

// NewReconciler creates a reconciler
func NewReconciler(funds *portfolio.Repository, hist *history.Cache, nav contracts.NavSource, blobs blobstore.Store, notifier contracts.Notifier, cfg Config, log *logger.Logger) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Deadline == "" {
		cfg.Deadline = DefaultDeadline
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Reconciler{
		funds:    funds,
		history:  hist,
		nav:      nav,
		blobs:    blobs,
		notifier: notifier,
		interval: cfg.Interval,
		deadline: cfg.Deadline,
		loc:      cfg.Location,
		now:      time.Now,
		logger:   log,
	}
}

// PollOnce records today's % for every coded fund still lacking it, using
// NAV-diff mode, and sends the report once all of them have today.
func (r *Reconciler) PollOnce(ctx context.Context, today string) (*Poll, error) {
	poll := &Poll{Date: today, Recorded: make(map[string]float64)}

	p, err := r.funds.Load(ctx)
	if err != nil {
		return nil, err
	}
	h, token, err := r.history.Load(ctx)
	if err != nil {
		return nil, err
	}

	coded := p.WithCode()
	for _, fund := range coded {
		if h.Has(fund.Name, today) {
			continue
		}

		point, ok, err := eastmoney.LatestNavDiff(ctx, r.nav, fund.Code)
		switch {
		case err != nil:
			r.logger.WithFields(map[string]interface{}{
				"fund":  fund.Name,
				"code":  fund.Code,
				"error": err.Error(),
			}).Warn("Official NAV fetch failed")
			poll.Pending = append(poll.Pending, fund.Name)
		case !ok || point.Date != today:
			poll.Pending = append(poll.Pending, fund.Name)
		default:
			h.Add(fund.Name, today, point.Value)
			poll.Recorded[fund.Name] = point.Value
			r.logger.WithFields(map[string]interface{}{
				"fund": fund.Name,
				"pct":  point.Value,
			}).Info("Official NAV published")
		}
	}

	if len(poll.Recorded) > 0 {
		if _, err := r.history.Save(ctx, h, token, "Nightly NAV "+today); err != nil {
			return nil, err
		}
	}

	if len(poll.Pending) > 0 || len(coded) == 0 {
		return poll, nil
	}
	poll.Done = true

	var state State
	stateToken, err := blobstore.ReadJSON(ctx, r.blobs, blobstore.KeyNightly, &state)
	if err != nil {
		return nil, fmt.Errorf("failed to load nightly state: %w", err)
	}
	if state.LastReported == today {
		return poll, nil
	}

	title, body := Report(coded, h, today)
	r.notifier.Send(ctx, title, body)

	state.LastReported = today
	if _, err := blobstore.WriteJSON(ctx, r.blobs, blobstore.KeyNightly, state, stateToken, "Nightly Report "+today); err != nil {
		return nil, fmt.Errorf("failed to save nightly state: %w", err)
	}
	poll.Reported = true

	r.logger.WithFields(map[string]interface{}{
		"date":  today,
		"funds": len(coded),
	}).Info("Nightly report sent")

	return poll, nil
}

// Run polls every interval until every coded fund has today or the deadline passes.
// The date is fixed when Run starts.
func (r *Reconciler) Run(ctx context.Context) (*Poll, error) {
	start := r.now().In(r.loc)
	today := contracts.DateOf(start)

	deadline, err := time.ParseInLocation(contracts.DateLayout+" 15:04", today+" "+r.deadline, r.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid nightly deadline %q: %w", r.deadline, err)
	}

	for {
		poll, err := r.PollOnce(ctx, today)
		if err != nil {
			return nil, err
		}
		if poll.Done {
			return poll, nil
		}

		if !r.now().Add(r.interval).Before(deadline) {
			r.logger.WithFields(map[string]interface{}{
				"date":    today,
				"pending": poll.Pending,
			}).Warn("Nightly deadline reached")
			return poll, nil
		}

		select {
		case <-ctx.Done():
			return poll, ctx.Err()
		case <-time.After(r.interval):
		}
	}
}

// Report renders the actual-profit notification for today
func Report(funds []contracts.Fund, h history.NavHistory, today string) (title, body string) {
	totalProfit := decimal.Zero
	principal := decimal.Zero
	lines := make([]string, 0, len(funds))

	for _, fund := range funds {
		pct := h[fund.Name][today]
		value := decimal.NewFromFloat(fund.HoldingValue)
		profit := value.Mul(decimal.NewFromFloat(pct)).Div(hundred)

		principal = principal.Add(value)
		totalProfit = totalProfit.Add(profit)

		lines = append(lines, fmt.Sprintf("%s %s: %+.2f%% (¥%s)", dashboard.Icon(pct), fund.ShortName(), pct, signedWhole(profit)))
	}

	yield := 0.0
	if principal.IsPositive() {
		yield = totalProfit.Div(principal).Mul(hundred).InexactFloat64()
	}

	title = fmt.Sprintf("今日实际: %s (%+.2f%%)", signedWhole(totalProfit), yield)
	body = "📅 " + today + " 净值已出炉\n\n" + strings.Join(lines, "\n")
	return title, body
}

// signedWhole renders d rounded to a whole amount with an explicit sign
func signedWhole(d decimal.Decimal) string {
	s := d.Round(0).StringFixed(0)
	if s == "-0" {
		s = "0"
	}
	if !strings.HasPrefix(s, "-") {
		s = "+" + s
	}
	return s
}
