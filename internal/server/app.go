// Package server initializes and runs the auth server: it opens PostgreSQL and
// Redis, applies migrations, wires the session services and runs the gRPC
// endpoint next to the expired-session reaper until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/YousefAdel777/chatter-backend-sub000/internal/logging"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/auth"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/config"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/credentials"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/exchange"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/presence"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/reaper"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/repositories/repomanager"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	gs "github.com/YousefAdel777/chatter-backend-sub000/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	rdb    *redis.Client
	grpc   *gs.GRPCServer
	reaper *reaper.Reaper
}

// NewApp validates c, connects to the stores and runs migrations.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("redis init error: %w", err)
	}

	return newApp(c, logger, db, rdb, m)
}

// newApp wires services on top of already opened stores.
func newApp(c *config.Config, logger logging.Logger, db *sql.DB, rdb *redis.Client, m repomanager.RepositoryManager) (*App, error) {
	codec, err := auth.NewCodec(auth.CodecConfig{Secret: []byte(c.SecretKey)})
	if err != nil {
		return nil, err
	}

	verifier, err := credentials.NewBcryptVerifier(m.Users(db), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	svc := services.NewAuthService(db, m, c, services.AuthDeps{
		Codec:    codec,
		Verifier: verifier,
		Hasher:   verifier,
		Exchange: exchange.NewRedisCache(rdb, c.ExchangeCodeValidityDuration),
		Presence: presence.NewRedisNotifier(rdb, c.PresenceChannel),
		Logger:   logger,
	})

	return &App{
		config: c,
		logger: logger,
		db:     db,
		rdb:    rdb,
		grpc:   gs.NewGRPCServer(c.EndpointAddrGRPC, logger, svc),
		reaper: reaper.New(m.RefreshTokens(db), c.SessionReapInterval, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) func() {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigs:
			cancelFunc()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// Run serves until ctx is cancelled, a termination signal arrives or the gRPC
// server fails, then releases the stores.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	stopSignals := app.initSignalHandler(cancelFunc)
	defer stopSignals()

	app.logger.Info(ctx, "Starting app...")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.grpc.Run(gctx) })
	g.Go(func() error { return app.reaper.Run(gctx) })

	err := g.Wait()
	app.close(context.Background())

	if err != nil {
		app.logger.Error(ctx, "app stopped with error", "error", err)
		return err
	}
	app.logger.Info(ctx, "App stopped")
	return nil
}

func (app *App) close(ctx context.Context) {
	if err := app.rdb.Close(); err != nil {
		app.logger.Warn(ctx, "redis close failed", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close failed", "error", err)
	}
}
