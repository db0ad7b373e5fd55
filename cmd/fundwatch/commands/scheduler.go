package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/fundwatch/internal/scheduler"
	"github.com/wonny/fundwatch/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `Runs the cron scheduler or one of its jobs.

Subcommands:
  start   - start the scheduler (Ctrl+C to stop)
  list    - list registered jobs and their schedules
  run     - run one job immediately

Example:
  go run ./cmd/fundwatch scheduler start
  go run ./cmd/fundwatch scheduler run nightly_poll`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `Starts the scheduler with every job:
- dashboard_refresh: every DASHBOARD_INTERVAL
- signal_check:      14:45 on weekdays
- close_snapshot:    15:05 on weekdays
- close_report:      15:15 on weekdays
- history_refresh:   09:00 daily
- nightly_poll:      every NIGHTLY_POLL_INTERVAL from NIGHTLY_START
- calibration:       22:00 on weekdays`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// scheduler registers every job
func (a *app) scheduler() (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log, a.loc)

	nightlyJob, err := jobs.NewNightlyJob(a.reconciler, a.cfg.Schedule.NightlyPollInterval,
		a.cfg.Schedule.NightlyStart, a.cfg.Schedule.NightlyDeadline, a.clock, a.log)
	if err != nil {
		return nil, err
	}

	for _, job := range []scheduler.Job{
		jobs.NewDashboardJob(a.dashboard, a.cfg.Schedule.DashboardInterval, a.log),
		jobs.NewSignalCheckJob(a.checker, a.clock, a.log),
		jobs.NewCloseReportJob(a.checker, a.clock, a.log),
		jobs.NewSnapshotJob(a.engine, a.quotes, a.clock, a.log),
		jobs.NewHistoryJob(a.funds, a.history, a.clock, a.log),
		nightlyJob,
		jobs.NewCalibrationJob(a.engine, a.log),
	} {
		if err := sched.AddJob(job); err != nil {
			return nil, err
		}
	}

	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := a.scheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	sched.Start()

	fmt.Println("✅ Scheduler started")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := a.scheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	stats := sched.GetJobStats()
	if jsonOutput {
		return printJSON(stats)
	}

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %-18s %s\n", jobName, stats[jobName].Schedule)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := a.scheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	result, err := sched.RunNow(ctx, args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(result)
	}
	fmt.Printf("✅ %s completed in %s\n", result.JobName, result.Duration)
	return nil
}
