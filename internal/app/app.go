package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/starknow-arena/internal/auth"
	"github.com/gokatarajesh/starknow-arena/internal/auth/jwt"
	"github.com/gokatarajesh/starknow-arena/internal/config"
	"github.com/gokatarajesh/starknow-arena/internal/db/queries"
	"github.com/gokatarajesh/starknow-arena/internal/db/repository"
	"github.com/gokatarajesh/starknow-arena/internal/duel"
	duelqueue "github.com/gokatarajesh/starknow-arena/internal/duel/queue"
	"github.com/gokatarajesh/starknow-arena/internal/history"
	"github.com/gokatarajesh/starknow-arena/internal/leaderboard"
	"github.com/gokatarajesh/starknow-arena/internal/logging"
	"github.com/gokatarajesh/starknow-arena/internal/relay"
	"github.com/gokatarajesh/starknow-arena/internal/server"
	ws "github.com/gokatarajesh/starknow-arena/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server) and
// the in-memory duel state.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	reaper         *duel.Reaper
	snapshotWorker *leaderboard.SnapshotWorker
	bgCancels      []context.CancelFunc
}

// New bootstraps configs, logger, Postgres, Redis and HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	poolCfg, err := pgxpool.ParseConfig(cfg.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.Postgres.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.Postgres.MaxConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	q := queries.New(pool)
	duelRepo := repository.NewDuelRepository(q)

	tokens := jwt.NewManager(jwt.TokenConfig{
		Secret: []byte(cfg.Security.JWTSecret),
		Issuer: cfg.Security.JWTIssuer,
	})

	leaderboardSvc := leaderboard.NewService(redisClient, logger, leaderboard.ServiceOptions{
		TopN:     cfg.Leaderboard.SnapshotTopN,
		EntryTTL: cfg.Leaderboard.EntryTTL,
	})
	var snapshotWorker *leaderboard.SnapshotWorker
	if interval := cfg.Leaderboard.SnapshotInterval; interval > 0 {
		snapshotWorker = leaderboard.NewSnapshotWorker(
			leaderboardSvc,
			q,
			interval,
			cfg.Leaderboard.SnapshotTopN,
			logger,
		)
	}

	// Duel state lives for the lifetime of the process.
	duelSvc := duel.NewService(
		duelqueue.NewManager(logger, cfg.Arena.QueueTTL),
		duel.NewMailbox(cfg.Arena.RoomTTL),
		duel.NewRegistry(logger, cfg.Arena.RoomTTL, cfg.Arena.QuestionCount),
		duelRepo,
		leaderboardSvc,
		logger,
	)
	reaper, err := duel.NewReaper(duelSvc, cfg.Arena.SweepInterval, logger)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, err
	}

	relayHandler := relay.NewHandler(relay.NewHub(logger), ws.NewUpgrader(cfg.CORS.AllowedOrigins), logger)

	apiServer := server.NewHTTPServer(cfg, logger, server.Options{
		Dependencies: map[string]server.Pinger{
			"postgres": server.PingFunc(pool.Ping),
			"redis":    server.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
		},
		Routers: []server.Router{
			duel.NewHTTPHandlers(duelSvc, logger),
			history.NewHTTPHandler(duelRepo, cfg.Arena.TiesAsDraw, cfg.Arena.HistoryLimit, logger),
			leaderboard.NewHTTPHandler(leaderboardSvc, q, logger),
		},
		RelayPath:    cfg.Arena.RelayPath,
		Relay:        relayHandler,
		Authenticate: auth.Middleware(tokens, logger),
	})

	return &Application{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		http:           apiServer,
		reaper:         reaper,
		snapshotWorker: snapshotWorker,
		bgCancels:      make([]context.CancelFunc, 0, 1),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	if err := a.reaper.Stop(); err != nil {
		a.logger.Error().Err(err).Msg("reaper shutdown error")
	}
	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return runErr
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	a.reaper.Start()

	if a.snapshotWorker != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.snapshotWorker.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Msg("leaderboard snapshot worker stopped")
			}
		}()
	}
}
