package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/fundwatch/internal/contracts"
	"github.com/wonny/fundwatch/internal/history"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "净值历史",
	Long: `Manages nav_history.json, the realized daily returns per fund.

Subcommands:
  refresh - fetch the latest official records for funds behind today
  stats   - most recent return and streak per fund`,
}

var (
	historyRefreshCmd = &cobra.Command{
		Use:   "refresh",
		Short: "净值历史增量更新",
		RunE:  runHistoryRefresh,
	}

	historyStatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "连涨/连跌统计",
		RunE:  runHistoryStats,
	}
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyRefreshCmd)
	historyCmd.AddCommand(historyStatsCmd)
}

func runHistoryRefresh(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	p, err := a.funds.Load(ctx)
	if err != nil {
		return err
	}

	_, inserted, err := a.history.Refresh(ctx, p.WithCode(), a.today())
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(inserted)
	}
	for _, f := range p.WithCode() {
		fmt.Printf("  %s: +%d\n", f.Name, inserted[f.Name])
	}
	return nil
}

func runHistoryStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	p, err := a.funds.Load(ctx)
	if err != nil {
		return err
	}
	h, _, err := a.history.Load(ctx)
	if err != nil {
		return err
	}

	stats := make(map[string]contracts.HistoryStats, len(p.Funds))
	for _, name := range p.Names() {
		stats[name] = history.Stats(h[name])
	}

	if jsonOutput {
		return printJSON(stats)
	}
	for _, name := range p.Names() {
		st := stats[name]
		if st.MostRecentDate == "" {
			fmt.Printf("  %s: --\n", name)
			continue
		}
		fmt.Printf("  %s: %s %+.2f%%  streak %d %s\n", name, st.MostRecentDate, st.MostRecentReturn, st.StreakLength, st.StreakDirection)
	}
	return nil
}
