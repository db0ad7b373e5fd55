// Package alerts runs the intraday signal check and the close valuation report.
package alerts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/fundwatch/internal/contracts"
	"github.com/wonny/fundwatch/internal/dashboard"
	"github.com/wonny/fundwatch/internal/journal"
	"github.com/wonny/fundwatch/internal/signals"
	"github.com/wonny/fundwatch/pkg/logger"
)

// SignalTitle is the title of the signal notification
const SignalTitle = "基金信号提醒"

// Evaluator runs one evaluation cycle (dashboard.Service)
type Evaluator interface {
	Evaluate(ctx context.Context) (*dashboard.Evaluation, error)
}

// Window is a local time-of-day range, both ends inclusive
type Window struct {
	Start string // HH:MM
	End   string // HH:MM
}

// Contains reports whether t's wall clock falls inside the window
func (w Window) Contains(t time.Time) bool {
	hm := t.Format("15:04")
	return hm >= w.Start && hm <= w.End
}

// Result is what one check did
type Result struct {
	RunID      string                `json:"run_id"`
	Signals    int                   `json:"signals"`
	ReportSent bool                  `json:"report_sent"`
	Evaluation *dashboard.Evaluation `json:"evaluation"`
}

// Checker sends signal alerts and, inside the close window, the valuation report
// ⭐ SSOT: 장중 신호 알림은 여기서만
type Checker struct {
	evaluator Evaluator
	notifier  contracts.Notifier
	journal   *journal.Journal
	window    Window
	logger    *logger.Logger
}

// NewChecker creates a checker. journal may be nil.
func NewChecker(evaluator Evaluator, notifier contracts.Notifier, j *journal.Journal, window Window, log *logger.Logger) *Checker {
	return &Checker{
		evaluator: evaluator,
		notifier:  notifier,
		journal:   j,
		window:    window,
		logger:    log,
	}
}

// Check evaluates once and notifies. now is the local time of the trigger.
// dashboard.ErrNoQuotes is returned untouched when the feed produced nothing.
func (c *Checker) Check(ctx context.Context, now time.Time) (*Result, error) {
	eval, err := c.evaluator.Evaluate(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{RunID: eval.RunID, Signals: len(eval.Signals), Evaluation: eval}

	if len(eval.Signals) > 0 {
		c.notifier.Send(ctx, SignalTitle, SignalBody(eval))
		c.record(eval)
	} else {
		c.logger.WithField("run_id", eval.RunID).Info("No signals")
	}

	if c.window.Contains(now) {
		c.notifier.Send(ctx, CloseTitle(now), CloseBody(eval))
		result.ReportSent = true
	}

	c.logger.WithFields(map[string]interface{}{
		"run_id":      result.RunID,
		"signals":     result.Signals,
		"report_sent": result.ReportSent,
	}).Info("Check completed")

	return result, nil
}

// record appends the signals to the journal; failures are logged only
func (c *Checker) record(eval *dashboard.Evaluation) {
	if c.journal == nil {
		return
	}
	if err := c.journal.Append(Entries(eval)); err != nil {
		c.logger.WithError(err).WithField("path", c.journal.Path()).Error("Failed to append signal journal")
	}
}

// SignalBody joins one paragraph per signal
func SignalBody(eval *dashboard.Evaluation) string {
	short := shortNames(eval)
	paragraphs := make([]string, 0, len(eval.Signals))
	for _, fs := range eval.Signals {
		paragraphs = append(paragraphs, signals.Message(short[fs.Fund], fs.Signal))
	}
	return strings.Join(paragraphs, "\n\n")
}

// Entries converts the signals into journal rows
func Entries(eval *dashboard.Evaluation) []journal.Entry {
	short := shortNames(eval)
	entries := make([]journal.Entry, 0, len(eval.Signals))
	for _, fs := range eval.Signals {
		entries = append(entries, journal.Entry{
			Date:   eval.Date,
			Fund:   short[fs.Fund],
			Signal: signals.Label(fs.Signal.Action),
			Detail: signals.Detail(fs.Signal),
			Action: signals.Action(fs.Signal),
		})
	}
	return entries
}

// CloseTitle is the close report title stamped with the trigger time
func CloseTitle(now time.Time) string {
	return "收盘估值播报 " + now.Format("15:04")
}

// CloseBody lists every fund's estimate under the date
func CloseBody(eval *dashboard.Evaluation) string {
	lines := make([]string, 0, len(eval.Funds))
	for _, card := range eval.Funds {
		est := card.Result.Estimate
		lines = append(lines, fmt.Sprintf("%s %s: %+.2f%%", dashboard.Icon(est), card.ShortName, est))
	}
	return "📅 " + eval.Date + "\n\n" + strings.Join(lines, "\n")
}

func shortNames(eval *dashboard.Evaluation) map[string]string {
	short := make(map[string]string, len(eval.Funds))
	for _, card := range eval.Funds {
		short[card.Name] = card.ShortName
	}
	return short
}
