// Package server wires configuration, storage and services together and runs
// the gRPC endpoint alongside the admin HTTP server until a shutdown signal
// arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/totpgate/internal/dbx"
	"github.com/dmitrijs2005/totpgate/internal/logging"
	"github.com/dmitrijs2005/totpgate/internal/server/config"
	"github.com/dmitrijs2005/totpgate/internal/server/limiter"
	"github.com/dmitrijs2005/totpgate/internal/server/metrics"
	"github.com/dmitrijs2005/totpgate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/totpgate/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"

	gs "github.com/dmitrijs2005/totpgate/internal/server/grpc"
)

// how long startup waits for Postgres and Redis to come up
const dependencyWait = 30 * time.Second

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	metrics        *metrics.Metrics
	limiter        limiter.Limiter
	closeLimiter   func() error
	userService    *services.UserService
	accessService  *services.AccessService
	profileService *services.ProfileService
}

// OpenDatabase opens the Postgres pool and waits until it answers.
func OpenDatabase(ctx context.Context, dsn string, l logging.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	err = dbx.Connect(ctx, db, dependencyWait, func(err error, next time.Duration) {
		l.Warn(ctx, "database not ready", "error", err, "retry_in", next)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db connect error: %w", err)
	}
	return db, nil
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := OpenDatabase(ctx, c.DatabaseDSN, logger)
	if err != nil {
		return nil, err
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db, metrics: metrics.New()}

	if c.RedisURL != "" {
		rl, err := limiter.NewRedisLimiter(ctx, c.RedisURL, c.VerifyAttemptLimit, c.VerifyAttemptWindow, dependencyWait)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("redis limiter error: %w", err)
		}
		app.limiter, app.closeLimiter = rl, rl.Close
	} else {
		logger.Warn(ctx, "redis url not set, attempt limits are per process")
		app.limiter = limiter.NewMemoryLimiter(c.VerifyAttemptLimit, c.VerifyAttemptWindow)
	}

	sessions := services.NewSessionService(db, rm, logger)
	app.userService = services.NewUserService(db, rm, c)
	app.accessService = services.NewAccessService(db, rm, sessions, app.limiter, c.ToleranceWindows, app.metrics, logger)
	app.profileService = services.NewProfileService(db, rm, app.accessService, sessions)

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger,
		app.userService, app.accessService, app.profileService,
		app.config.SecretKey, app.metrics.UnaryServerInterceptor)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := metrics.NewServer(app.config.MetricsAddr, app.metrics, app.db.PingContext, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startMetricsServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(ctx)
}

func (app *App) close(ctx context.Context) {
	if app.closeLimiter != nil {
		if err := app.closeLimiter(); err != nil {
			app.logger.Error(ctx, "closing limiter", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
