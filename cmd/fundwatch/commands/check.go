package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/fundwatch/internal/dashboard"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "盘中信号检查",
	Long: `Evaluates every fund once and sends the signal alert. Inside the
close window (CLOSE_WINDOW_START - CLOSE_WINDOW_END) the close valuation
report is sent as well.

Example:
  go run ./cmd/fundwatch check
  go run ./cmd/fundwatch check --dry-run`,
	RunE: runCheck,
}

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "收盘存证",
	Long: `Records every fund's raw estimate for today into history.json.
The calibration of the evening compares these against the official returns.`,
	RunE: runSnapshot,
}

var checkDryRun bool

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(snapshotCmd)

	checkCmd.Flags().BoolVar(&checkDryRun, "dry-run", false, "print the evaluation without notifying")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	var eval *dashboard.Evaluation
	if checkDryRun {
		eval, err = a.dashboard.Evaluate(ctx)
		if err != nil {
			return err
		}
	} else {
		result, err := a.checker.Check(ctx, a.clock.Local())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(result)
		}
		eval = result.Evaluation
		defer fmt.Printf("\n信号 %d 条, 收盘报告: %v\n", result.Signals, result.ReportSent)
	}

	if jsonOutput {
		return printJSON(eval)
	}
	fmt.Print(dashboard.Summary(eval))
	return nil
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	date := a.today()
	raws, err := a.engine.Capture(ctx, a.quotes, date)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(map[string]interface{}{"date": date, "raw": raws})
	}

	fmt.Printf("✅ Snapshot %s\n", date)
	p, err := a.funds.Load(ctx)
	if err != nil {
		return err
	}
	for _, name := range p.Names() {
		fmt.Printf("  %s: %+.4f%%\n", name, raws[name])
	}
	return nil
}
