package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	jsonOutput bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fundwatch",
	Short: "fundwatch - 基金盘中估值与信号",
	Long: `fundwatch estimates same-day fund returns from realtime quotes,
calibrates the estimate against official NAVs and pushes buy/sell signals.

Usage:
  go run ./cmd/fundwatch [command]

Examples:
  go run ./cmd/fundwatch serve
  go run ./cmd/fundwatch check
  go run ./cmd/fundwatch calibrate --date 2024-01-05
  go run ./cmd/fundwatch funds set "泰康新锐C (韩庆/成长)" --base-unit 2000`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug log level)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}
