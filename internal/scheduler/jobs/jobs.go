// Package jobs binds the evaluate-once entry points to cron schedules.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/fundwatch/internal/alerts"
	"github.com/wonny/fundwatch/internal/calibration"
	"github.com/wonny/fundwatch/internal/contracts"
	"github.com/wonny/fundwatch/internal/dashboard"
	"github.com/wonny/fundwatch/internal/history"
	"github.com/wonny/fundwatch/internal/nightly"
	"github.com/wonny/fundwatch/internal/portfolio"
	"github.com/wonny/fundwatch/pkg/logger"
)

// Job names
const (
	NameDashboard   = "dashboard_refresh"
	NameSignalCheck = "signal_check"
	NameCloseReport = "close_report"
	NameSnapshot    = "close_snapshot"
	NameHistory     = "history_refresh"
	NameNightly     = "nightly_poll"
	NameCalibration = "calibration"
)

// Clock gives jobs the local trading time
type Clock struct {
	Location *time.Location
	Now      func() time.Time
}

// Local returns the current time in the trading timezone
func (c Clock) Local() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return now().In(loc)
}

// Today returns the current trading date key
func (c Clock) Today() string {
	return contracts.DateOf(c.Local())
}

// DashboardJob refreshes the live dashboard
type DashboardJob struct {
	service  *dashboard.Service
	interval time.Duration
	logger   *logger.Logger
}

// NewDashboardJob creates a new dashboard refresh job
func NewDashboardJob(service *dashboard.Service, interval time.Duration, log *logger.Logger) *DashboardJob {
	return &DashboardJob{service: service, interval: interval, logger: log}
}

// Name returns the job name
func (j *DashboardJob) Name() string { return NameDashboard }

// Schedule returns the cron schedule (every interval)
func (j *DashboardJob) Schedule() string {
	return fmt.Sprintf("@every %s", j.interval)
}

// Run refreshes once; a quote outage only flips the dashboard to connecting
func (j *DashboardJob) Run(ctx context.Context) error {
	if _, err := j.service.Refresh(ctx); err != nil && !errors.Is(err, dashboard.ErrNoQuotes) {
		return err
	}
	return nil
}

// CheckJob runs the signal check; inside the close window it also reports
type CheckJob struct {
	name     string
	schedule string
	checker  *alerts.Checker
	clock    Clock
	logger   *logger.Logger
}

// NewSignalCheckJob runs the check at 14:45 on weekdays
func NewSignalCheckJob(checker *alerts.Checker, clock Clock, log *logger.Logger) *CheckJob {
	return &CheckJob{name: NameSignalCheck, schedule: "0 45 14 * * 1-5", checker: checker, clock: clock, logger: log}
}

// NewCloseReportJob runs the check at 15:15 on weekdays, inside the close window
func NewCloseReportJob(checker *alerts.Checker, clock Clock, log *logger.Logger) *CheckJob {
	return &CheckJob{name: NameCloseReport, schedule: "0 15 15 * * 1-5", checker: checker, clock: clock, logger: log}
}

// Name returns the job name
func (j *CheckJob) Name() string { return j.name }

// Schedule returns the cron schedule
func (j *CheckJob) Schedule() string { return j.schedule }

// Run executes the check
func (j *CheckJob) Run(ctx context.Context) error {
	_, err := j.checker.Check(ctx, j.clock.Local())
	if errors.Is(err, dashboard.ErrNoQuotes) {
		j.logger.WithField("job", j.name).Warn("No quotes, check skipped")
		return nil
	}
	return err
}

// SnapshotJob records the raw estimates after the close
type SnapshotJob struct {
	engine *calibration.Engine
	quotes contracts.QuoteSource
	clock  Clock
	logger *logger.Logger
}

// NewSnapshotJob creates a new close snapshot job
func NewSnapshotJob(engine *calibration.Engine, quotes contracts.QuoteSource, clock Clock, log *logger.Logger) *SnapshotJob {
	return &SnapshotJob{engine: engine, quotes: quotes, clock: clock, logger: log}
}

// Name returns the job name
func (j *SnapshotJob) Name() string { return NameSnapshot }

// Schedule returns the cron schedule (15:05 on weekdays)
func (j *SnapshotJob) Schedule() string { return "0 5 15 * * 1-5" }

// Run captures today's snapshot
func (j *SnapshotJob) Run(ctx context.Context) error {
	_, err := j.engine.Capture(ctx, j.quotes, j.clock.Today())
	if errors.Is(err, calibration.ErrNoQuotes) {
		j.logger.WithField("job", NameSnapshot).Warn("No quotes, snapshot skipped")
		return nil
	}
	return err
}

// HistoryJob refreshes the realized NAV history
type HistoryJob struct {
	funds   *portfolio.Repository
	history *history.Cache
	clock   Clock
	logger  *logger.Logger
}

// NewHistoryJob creates a new history refresh job
func NewHistoryJob(funds *portfolio.Repository, hist *history.Cache, clock Clock, log *logger.Logger) *HistoryJob {
	return &HistoryJob{funds: funds, history: hist, clock: clock, logger: log}
}

// Name returns the job name
func (j *HistoryJob) Name() string { return NameHistory }

// Schedule returns the cron schedule (09:00 daily)
func (j *HistoryJob) Schedule() string { return "0 0 9 * * *" }

// Run refreshes every coded fund
func (j *HistoryJob) Run(ctx context.Context) error {
	p, err := j.funds.Load(ctx)
	if err != nil {
		return err
	}
	_, inserted, err := j.history.Refresh(ctx, p.WithCode(), j.clock.Today())
	if err != nil {
		return err
	}

	total := 0
	for _, n := range inserted {
		total += n
	}
	j.logger.WithField("inserted", total).Info("History refreshed")
	return nil
}

// NightlyJob polls the official NAVs inside the nightly window
type NightlyJob struct {
	reconciler *nightly.Reconciler
	schedule   string
	start      string // HH:MM
	deadline   string // HH:MM
	clock      Clock
	logger     *logger.Logger
}

// NewNightlyJob polls every interval from start until the end of the day.
// Polls before start (inside the start hour) or after deadline are skipped.
func NewNightlyJob(reconciler *nightly.Reconciler, interval time.Duration, start, deadline string, clock Clock, log *logger.Logger) (*NightlyJob, error) {
	startAt, err := time.Parse("15:04", start)
	if err != nil {
		return nil, fmt.Errorf("invalid nightly start %q: %w", start, err)
	}
	minutes := int(interval / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	return &NightlyJob{
		reconciler: reconciler,
		schedule:   fmt.Sprintf("0 */%d %d-23 * * 1-5", minutes, startAt.Hour()),
		start:      startAt.Format("15:04"),
		deadline:   deadline,
		clock:      clock,
		logger:     log,
	}, nil
}

// Name returns the job name
func (j *NightlyJob) Name() string { return NameNightly }

// Schedule returns the cron schedule
func (j *NightlyJob) Schedule() string { return j.schedule }

// Run polls once inside [start, deadline]
func (j *NightlyJob) Run(ctx context.Context) error {
	now := j.clock.Local()
	hm := now.Format("15:04")
	if hm < j.start || (j.deadline != "" && hm > j.deadline) {
		return nil
	}
	_, err := j.reconciler.PollOnce(ctx, contracts.DateOf(now))
	return err
}

// CalibrationJob runs the evening audit on the latest snapshot date
type CalibrationJob struct {
	engine *calibration.Engine
	logger *logger.Logger
}

// NewCalibrationJob creates a new calibration job
func NewCalibrationJob(engine *calibration.Engine, log *logger.Logger) *CalibrationJob {
	return &CalibrationJob{engine: engine, logger: log}
}

// Name returns the job name
func (j *CalibrationJob) Name() string { return NameCalibration }

// Schedule returns the cron schedule (22:00 on weekdays)
func (j *CalibrationJob) Schedule() string { return "0 0 22 * * 1-5" }

// Run calibrates every fund
func (j *CalibrationJob) Run(ctx context.Context) error {
	_, err := j.engine.CalibrateAll(ctx, "")
	return err
}
