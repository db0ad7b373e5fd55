package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/fundwatch/internal/alerts"
	"github.com/wonny/fundwatch/internal/blobstore"
	"github.com/wonny/fundwatch/internal/calibration"
	"github.com/wonny/fundwatch/internal/contracts"
	"github.com/wonny/fundwatch/internal/dashboard"
	"github.com/wonny/fundwatch/internal/external/eastmoney"
	"github.com/wonny/fundwatch/internal/external/tencent"
	"github.com/wonny/fundwatch/internal/history"
	"github.com/wonny/fundwatch/internal/journal"
	"github.com/wonny/fundwatch/internal/nightly"
	"github.com/wonny/fundwatch/internal/notify"
	"github.com/wonny/fundwatch/internal/portfolio"
	"github.com/wonny/fundwatch/internal/realtime"
	"github.com/wonny/fundwatch/internal/scheduler/jobs"
	"github.com/wonny/fundwatch/internal/signals"
	"github.com/wonny/fundwatch/internal/strategyconfig"
	"github.com/wonny/fundwatch/pkg/config"
	"github.com/wonny/fundwatch/pkg/database"
	"github.com/wonny/fundwatch/pkg/httputil"
	"github.com/wonny/fundwatch/pkg/logger"
	"github.com/wonny/fundwatch/pkg/redis"
)

// githubTimeout bounds a contents API round trip
const githubTimeout = 10 * time.Second

// app holds every wired component of one process
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	loc   *time.Location
	clock jobs.Clock

	store blobstore.Store
	db    *database.DB
	redis *redis.Client

	quotes contracts.QuoteSource
	nav    contracts.NavSource

	funds      *portfolio.Repository
	history    *history.Cache
	logs       *calibration.Store
	engine     *calibration.Engine
	evaluator  *dashboard.Evaluator
	dashboard  *dashboard.Service
	hub        *realtime.Hub
	notifier   *notify.Dispatcher
	journal    *journal.Journal
	checker    *alerts.Checker
	reconciler *nightly.Reconciler
}

// newApp loads configuration and wires the components
func newApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log, loc: cfg.Location()}
	a.clock = jobs.Clock{Location: a.loc}

	// 2-1. Policy file overrides the environment policy
	if err := a.loadPolicy(); err != nil {
		return nil, err
	}

	// 3. Blob store
	if err := a.openStore(ctx); err != nil {
		a.close()
		return nil, err
	}

	// 4. Redis (optional NAV cache)
	a.redis, err = redis.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, NAV cache disabled")
		a.redis = redis.NewFromRedis(nil)
	}

	// 5. External feeds
	quoteHTTP := httputil.New(log, cfg.Quote.Timeout).DisableRetry().WithRateLimit(cfg.Quote.RateLimit)
	a.quotes = tencent.NewClient(quoteHTTP, log, cfg.Quote.BaseURL, cfg.Quote.BatchSize)
	a.nav = a.navSource()

	// 6. Domain engines
	a.funds = portfolio.NewRepository(a.store, log)
	a.history = history.NewCache(a.store, a.nav, cfg.NAV.HistoryLimit, log)
	a.logs = calibration.NewStore(a.store)
	a.engine = calibration.NewEngine(a.funds, a.logs, a.nav, cfg.Policy.Smoothing, log)

	// 7. Surfaces
	a.hub = realtime.NewHub(log)
	a.evaluator = dashboard.NewEvaluator(a.quotes, signals.PolicyFromConfig(cfg.Policy), log)
	a.dashboard = dashboard.NewService(a.evaluator, a.funds, a.history, a.hub, a.loc, 4*cfg.Schedule.DashboardInterval, log)
	a.notifier = notify.FromConfig(cfg.Notify, log)
	a.journal = journal.New(cfg.JournalPath, log)
	a.checker = alerts.NewChecker(a.dashboard, a.notifier, a.journal,
		alerts.Window{Start: cfg.Schedule.CloseWindowStart, End: cfg.Schedule.CloseWindowEnd}, log)
	a.reconciler = nightly.NewReconciler(a.funds, a.history, a.nav, a.store, a.notifier, nightly.Config{
		Interval: cfg.Schedule.NightlyPollInterval,
		Deadline: cfg.Schedule.NightlyDeadline,
		Location: a.loc,
	}, log)

	return a, nil
}

// loadPolicy applies POLICY_FILE when set and logs the active policy hash
func (a *app) loadPolicy() error {
	policy := strategyconfig.FromConfig(a.cfg)
	if a.cfg.PolicyFile != "" {
		loaded, _, err := strategyconfig.Load(a.cfg.PolicyFile)
		if err != nil {
			return fmt.Errorf("load policy file %s: %w", a.cfg.PolicyFile, err)
		}
		loaded.Apply(a.cfg)
		policy = loaded
	}

	hash, err := strategyconfig.Hash(policy)
	if err != nil {
		return fmt.Errorf("hash policy: %w", err)
	}

	a.log.WithFields(map[string]interface{}{
		"strategy_id": policy.Meta.StrategyID,
		"version":     policy.Meta.Version,
		"hash":        hash[:12],
	}).Debug("Policy loaded")
	return nil
}

// openStore selects the blob store backend
func (a *app) openStore(ctx context.Context) error {
	cfg := a.cfg

	switch cfg.Store.Backend {
	case "postgres":
		db, err := database.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		a.db = db

		store := blobstore.NewPostgresStore(db.Pool)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		a.store = store

	case "github":
		client := httputil.New(a.log, githubTimeout)
		a.store = blobstore.NewGitHubStore(client, blobstore.GitHubOptions{
			BaseURL: cfg.Store.GitHubAPI,
			Owner:   cfg.Store.GitHubOwner,
			Repo:    cfg.Store.GitHubRepo,
			Branch:  cfg.Store.GitHubBranch,
			Token:   cfg.Store.GitHubToken,
		})

	default:
		a.log.Warn("Using the in-memory store, nothing is persisted")
		a.store = blobstore.NewMemoryStore()
	}

	a.log.WithField("backend", cfg.Store.Backend).Info("Blob store ready")
	return nil
}

// navSource builds the official NAV adapter, behind the Redis cache when enabled
func (a *app) navSource() contracts.NavSource {
	cfg := a.cfg
	client := eastmoney.NewHTTPClient(a.log, cfg.NAV.Timeout, cfg.NAV.RateLimit)
	if a.redis.Enabled() {
		// one request window across every fundwatch process on this Redis
		limiter := redis.NewRateLimiter(a.redis, "fundwatch")
		client.WithLimiter(limiter.For(redis.NAVRateLimit(cfg.NAV.RateLimit)))
	}

	var src contracts.NavSource
	if cfg.NAV.Source == "html" {
		src = eastmoney.NewHTMLClient(client, a.log, cfg.NAV.HTMLBaseURL)
	} else {
		src = eastmoney.NewClient(client, a.log, cfg.NAV.BaseURL)
	}

	if a.redis.Enabled() {
		return eastmoney.NewCachedSource(src, redis.NewCache(a.redis, "fundwatch"), cfg.Redis.NAVTTL, a.log)
	}
	return src
}

// today returns the trading date in the configured timezone
func (a *app) today() string {
	return a.clock.Today()
}

// close releases connections
func (a *app) close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
