package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fundwatch/internal/calibration"
	"github.com/wonny/fundwatch/internal/contracts"
	"github.com/wonny/fundwatch/internal/nightly"
)

// calibrateCmd represents the calibrate command
var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "晚间审计 (校准系数)",
	Long: `Compares the recorded raw estimates against the official returns and
smooths each fund's calibration factor. Funds already calibrated for the date
are left alone; funds whose official return is not out yet stay pending.

Example:
  go run ./cmd/fundwatch calibrate
  go run ./cmd/fundwatch calibrate --date 2024-01-05 --fund "泰康新锐C (韩庆/成长)"`,
	RunE: runCalibrate,
}

// nightlyCmd represents the nightly command
var nightlyCmd = &cobra.Command{
	Use:   "nightly",
	Short: "夜间净值核对",
	Long: `Polls the official NAVs until every fund with a code has today's
value (or NIGHTLY_DEADLINE passes) and sends the actual-profit report once.`,
	RunE: runNightly,
}

var (
	calibrateDate string
	calibrateFund string
	nightlyOnce   bool
)

func init() {
	rootCmd.AddCommand(calibrateCmd)
	rootCmd.AddCommand(nightlyCmd)

	calibrateCmd.Flags().StringVar(&calibrateDate, "date", "", "snapshot date YYYY-MM-DD (default latest)")
	calibrateCmd.Flags().StringVar(&calibrateFund, "fund", "", "calibrate one fund only")
	nightlyCmd.Flags().BoolVar(&nightlyOnce, "once", false, "poll once and exit")
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	if calibrateDate != "" {
		if _, err := time.Parse(contracts.DateLayout, calibrateDate); err != nil {
			return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
		}
	}

	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	var result *calibration.Result
	if calibrateFund != "" {
		result, err = a.engine.Calibrate(ctx, calibrateFund, calibrateDate)
	} else {
		result, err = a.engine.CalibrateAll(ctx, calibrateDate)
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(result)
	}

	if result.Date == "" {
		fmt.Println("No snapshot recorded yet")
		return nil
	}

	fmt.Printf("Calibration %s (%s)\n", result.Date, result.RunID)
	for _, o := range result.Outcomes {
		switch o.State {
		case calibration.StateCalibrated:
			fmt.Printf("  ✅ %s: %.4f -> %.4f", o.Fund, o.OldFactor, o.NewFactor)
			if o.Reason != "" {
				fmt.Printf(" (%s)", o.Reason)
			}
			fmt.Println()
		default:
			fmt.Printf("  ⏳ %s: %s (%s)\n", o.Fund, o.State, o.Reason)
		}
	}
	return nil
}

func runNightly(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	var poll *nightly.Poll
	if nightlyOnce {
		poll, err = a.reconciler.PollOnce(ctx, a.today())
	} else {
		poll, err = a.reconciler.Run(ctx)
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(poll)
	}

	fmt.Printf("Nightly %s: done=%v reported=%v\n", poll.Date, poll.Done, poll.Reported)
	for name, pct := range poll.Recorded {
		fmt.Printf("  ✅ %s: %+.2f%%\n", name, pct)
	}
	for _, name := range poll.Pending {
		fmt.Printf("  ⏳ %s\n", name)
	}
	return nil
}
