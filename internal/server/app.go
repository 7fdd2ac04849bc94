// Package server wires the latecheck components together and runs the HTTP
// API, the gRPC health endpoint and the challenge sweeper until shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/latecheck/internal/logging"
	"github.com/dmitrijs2005/latecheck/internal/server/ceremony"
	"github.com/dmitrijs2005/latecheck/internal/server/challenges"
	"github.com/dmitrijs2005/latecheck/internal/server/config"
	"github.com/dmitrijs2005/latecheck/internal/server/httpapi"
	"github.com/dmitrijs2005/latecheck/internal/server/metrics"
	"github.com/dmitrijs2005/latecheck/internal/server/reports"
	"github.com/dmitrijs2005/latecheck/internal/server/repositories/memory"
	"github.com/dmitrijs2005/latecheck/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/latecheck/internal/server/services"
	"github.com/go-redis/redis/v8"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	gs "github.com/dmitrijs2005/latecheck/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	flush   func() error
	db      *sql.DB
	redis   *redis.Client
	sweeper *challenges.MemoryLedger
	metrics *metrics.Metrics
	router  http.Handler
	checks  []gs.Check
}

func newLogger(c *config.Config) (logging.Logger, func() error) {
	if c.LogBackend == "slog" {
		return logging.NewJSONSlogLogger(os.Stdout, c.LogLevel), func() error { return nil }
	}
	z := logging.NewZapLogger(logging.NewProductionZap(c.LogLevel))
	return z, z.Sync
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, flush := newLogger(c)
	app := &App{config: c, logger: logger, flush: flush}

	var rm repomanager.RepositoryManager
	if c.DatabaseDSN != "" {
		db, err := openDB(c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db ping error: %w", err)
		}
		pm := repomanager.NewPostgresRepositoryManager()
		if err := pm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migration error: %w", err)
		}
		app.db, rm = db, pm
		app.checks = append(app.checks, gs.Check{Name: "postgres", Ping: db.PingContext})
	} else {
		logger.Warn(ctx, "no database configured, using in-memory stores")
		rm = memory.NewRepositoryManager()
	}

	clock := clockwork.NewRealClock()

	var ledger challenges.Ledger
	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB})
		rl := challenges.NewRedisLedger(app.redis, c.CeremonyTimeout)
		ledger = rl
		app.checks = append(app.checks, gs.Check{Name: "redis", Ping: rl.Ping})
	} else {
		app.sweeper = challenges.NewMemoryLedger(c.CeremonyTimeout, clock)
		ledger = app.sweeper
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.metrics = metrics.New(reg)

	checkins, err := services.NewCheckinService(app.db, rm, c, clock, logger, app.metrics)
	if err != nil {
		return nil, err
	}
	arrivals, err := services.NewArrivalService(app.db, rm, c, clock)
	if err != nil {
		return nil, err
	}
	admins := services.NewAdminService(app.db, rm, c, clock, logger)
	if err := admins.Seed(ctx, c.AdminUsername, c.AdminPassword, c.AdminEmail); err != nil {
		return nil, err
	}

	wa, err := ceremony.NewWebAuthn(c)
	if err != nil {
		return nil, fmt.Errorf("webauthn init error: %w", err)
	}

	app.router = httpapi.NewRouter(httpapi.Deps{
		Ceremonies: ceremony.NewEngine(app.db, rm, ledger, wa, checkins, c, logger.With("module", "ceremony"), app.metrics),
		Checkins:   checkins,
		Students:   services.NewStudentService(app.db, rm),
		Arrivals:   arrivals,
		Admins:     admins,
		Reports:    reports.NewService(arrivals, c, clock, logger.With("module", "reports")),
		Origins:    c.RPOrigins,
		Metrics:    app.metrics,
		Gatherer:   reg,
		Log:        logger.With("module", "http"),
	})

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.HTTPAddr,
		Handler:           app.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			app.logger.Error(ctx, "http shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) healthServer() *gs.Server {
	return gs.NewServer(app.config.GRPCAddr, app.logger, app.config.HealthCheckInterval, app.checks...)
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.healthServer().Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a signal arrives or a server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.sweeper != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.sweeper.RunSweeper(ctx, app.config.ChallengeSweepInterval, app.metrics.Swept)
		}()
	}

	wg.Wait()
	app.close(ctx)
}

func (app *App) close(ctx context.Context) {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err)
		}
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "redis close error", "error", err)
		}
	}
	app.logger.Info(ctx, "App stopped")
	_ = app.flush()
}
