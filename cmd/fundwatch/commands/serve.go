package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fundwatch/internal/api"
	"github.com/wonny/fundwatch/internal/api/handlers"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "API 서버와 스케줄러 시작",
	Long: `Starts the JSON/websocket API and, unless --no-scheduler is given,
the cron scheduler.

Endpoints:
  GET  /health                  - Health check
  GET  /api/evaluation          - Latest evaluation (?refresh=true)
  GET  /api/funds               - Funds with the update token
  PUT  /api/funds/{name}        - Update a fund (If-Match: token)
  GET  /api/funds/{name}/stats  - Realized NAV streak
  GET  /api/factors             - Calibration log
  POST /api/snapshot            - Record today's raw estimates
  POST /api/calibrate           - Run the calibration
  GET  /ws                      - Evaluation stream

Example:
  go run ./cmd/fundwatch serve --port 8089`,
	RunE: runServe,
}

var (
	servePort   string
	noScheduler bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	// Flags
	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (default PORT)")
	serveCmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "serve the API only")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	// Override port if flag is set
	if servePort != "" {
		a.cfg.Port = servePort
	}

	router := api.NewRouter(api.Handlers{
		Dashboard:   handlers.NewDashboardHandler(a.dashboard, a.log),
		Funds:       handlers.NewFundHandler(a.funds, a.history, a.log),
		Calibration: handlers.NewCalibrationHandler(a.engine, a.logs, a.quotes, a.loc, a.log),
		Stream:      a.hub,
	}, a.log)
	server := api.New(a.cfg, a.log, router)

	if !noScheduler {
		sched, err := a.scheduler()
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
