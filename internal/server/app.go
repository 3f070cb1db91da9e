// Package server wires the ordermeow server together: it opens the
// database, applies migrations, builds the auth and order services and runs
// the HTTP API next to the gRPC health endpoint until a signal arrives.
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

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/ordermeow/ordermeow/internal/dbx"
	"github.com/ordermeow/ordermeow/internal/logging"
	"github.com/ordermeow/ordermeow/internal/server/auth"
	"github.com/ordermeow/ordermeow/internal/server/cache"
	"github.com/ordermeow/ordermeow/internal/server/config"
	"github.com/ordermeow/ordermeow/internal/server/httpapi"
	"github.com/ordermeow/ordermeow/internal/server/queue"
	"github.com/ordermeow/ordermeow/internal/server/repositories/repomanager"
	"github.com/ordermeow/ordermeow/internal/server/services"

	gs "github.com/ordermeow/ordermeow/internal/server/grpc"
)

const dbProbeInterval = 5 * time.Second

type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	redis        *redis.Client
	publisher    queue.Publisher
	authService  *services.AuthService
	orderService *services.OrderService
	codec        *auth.Codec
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db}

	if err := app.init(ctx); err != nil {
		app.close(ctx)
		return nil, err
	}

	return app, nil
}

func (app *App) init(ctx context.Context) error {
	c := app.config

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	codec, err := auth.NewCodec(auth.CodecConfig{
		Secret:    []byte(c.SecretKey),
		Issuer:    c.Issuer,
		Audience:  c.Audience,
		AccessTTL: c.AccessTokenValidityDuration,
	})
	if err != nil {
		return fmt.Errorf("token codec error: %w", err)
	}
	app.codec = codec

	app.redis, err = cache.NewRedisClient(ctx, cache.RedisOptions{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})
	if err != nil {
		return fmt.Errorf("redis init error: %w", err)
	}

	app.publisher = queue.NopPublisher{}
	if c.AMQPURL != "" {
		p, err := queue.DialAMQP(c.AMQPURL, c.OrderQueue, app.logger)
		if err != nil {
			return fmt.Errorf("amqp init error: %w", err)
		}
		app.publisher = p
	}

	tx := dbx.NewReadCommittedTxRunner(app.db)

	app.authService = services.NewAuthService(services.AuthDeps{
		DB:               app.db,
		Tx:               tx,
		Repos:            rm,
		Codec:            codec,
		Refresh:          auth.NewRefreshGenerator(c.RefreshTokenValidityDuration),
		Hasher:           auth.NewBcryptHasher(c.BcryptCost),
		Logger:           app.logger,
		LoginMinDuration: c.LoginMinDuration,
	})

	app.orderService = services.NewOrderService(services.OrderDeps{
		DB:        app.db,
		Tx:        tx,
		Repos:     rm,
		Cache:     cache.NewOrderCache(app.redis, c.OrderCacheTTL, app.logger),
		Publisher: app.publisher,
		Logger:    app.logger,
	})

	return nil
}

func (app *App) close(ctx context.Context) {
	if app.publisher != nil {
		if err := app.publisher.Close(); err != nil {
			app.logger.Error(ctx, "publisher close error", "error", err)
		}
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "redis close error", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger)

	go s.WatchProbe(ctx, app.db.PingContext, dbProbeInterval)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.authService, app.orderService, app.codec)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until SIGINT, SIGTERM or SIGQUIT arrives, ctx is cancelled, or
// one of the servers fails. Resources are released before it returns.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "http", app.config.EndpointAddrHTTP, "grpc", app.config.EndpointAddrGRPC)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(context.WithoutCancel(ctx))
	app.logger.Info(context.WithoutCancel(ctx), "Stopped")
}
