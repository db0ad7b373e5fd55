package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/fundwatch/internal/contracts"
	"github.com/wonny/fundwatch/internal/portfolio"
	"github.com/wonny/fundwatch/internal/signals"
	"github.com/wonny/fundwatch/pkg/cny"
)

// fundsCmd represents the funds command
var fundsCmd = &cobra.Command{
	Use:   "funds",
	Short: "基金配置",
	Long: `Lists or edits funds.json.

Example:
  go run ./cmd/fundwatch funds list
  go run ./cmd/fundwatch funds set "泰康新锐C (韩庆/成长)" --holding-value 12000 --benchmark growth`,
}

var (
	fundsListCmd = &cobra.Command{
		Use:   "list",
		Short: "基金列表",
		RunE:  runFundsList,
	}

	fundsSetCmd = &cobra.Command{
		Use:   "set [name]",
		Short: "修改基金配置",
		Args:  cobra.ExactArgs(1),
		RunE:  runFundsSet,
	}
)

var (
	setHoldingValue float64
	setBaseUnit     float64
	setBenchmark    string
	setCode         string
	setToken        string
)

func init() {
	rootCmd.AddCommand(fundsCmd)
	fundsCmd.AddCommand(fundsListCmd)
	fundsCmd.AddCommand(fundsSetCmd)

	fundsSetCmd.Flags().Float64Var(&setHoldingValue, "holding-value", 0, "principal invested")
	fundsSetCmd.Flags().Float64Var(&setBaseUnit, "base-unit", 0, "suggested buy amount")
	fundsSetCmd.Flags().StringVar(&setBenchmark, "benchmark", "", "benchmark class (broad|growth)")
	fundsSetCmd.Flags().StringVar(&setCode, "code", "", "official fund code")
	fundsSetCmd.Flags().StringVar(&setToken, "token", "", "expected funds.json token (optimistic check)")
}

func runFundsList(cmd *cobra.Command, args []string) error {
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

	if jsonOutput {
		return printJSON(map[string]interface{}{"funds": p.Funds, "token": p.Token})
	}

	fmt.Printf("token: %s\n", p.Token)
	for _, f := range p.List() {
		b := signals.BenchmarkFor(f)
		fmt.Printf("  %s [%s] factor %.4f  holding %s  unit %s  benchmark %s  holdings %d\n",
			f.Name, f.Code, f.Factor, cny.FormatFloat(f.HoldingValue), cny.FormatFloat(f.BaseUnit), b.Name, len(f.Holdings))
	}
	return nil
}

func runFundsSet(cmd *cobra.Command, args []string) error {
	var patch portfolio.Patch
	flags := cmd.Flags()
	if flags.Changed("holding-value") {
		patch.HoldingValue = &setHoldingValue
	}
	if flags.Changed("base-unit") {
		patch.BaseUnit = &setBaseUnit
	}
	if flags.Changed("benchmark") {
		class := contracts.BenchmarkClass(setBenchmark)
		patch.Benchmark = &class
	}
	if flags.Changed("code") {
		patch.Code = &setCode
	}
	if patch.Empty() {
		return fmt.Errorf("nothing to update")
	}

	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	p, err := a.funds.Update(ctx, args[0], setToken, patch)
	if err != nil {
		return err
	}

	f, _ := p.Get(args[0])
	if jsonOutput {
		return printJSON(map[string]interface{}{"fund": f, "token": p.Token})
	}
	fmt.Printf("✅ %s updated (token %s)\n", f.Name, p.Token)
	return nil
}
