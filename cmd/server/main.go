package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/DirtyReal/cfh-new/internal/app"
	"github.com/DirtyReal/cfh-new/internal/config"
	"github.com/DirtyReal/cfh-new/internal/database"
	"github.com/DirtyReal/cfh-new/internal/logging"
	"github.com/DirtyReal/cfh-new/internal/redis"
	"github.com/DirtyReal/cfh-new/internal/retry"
	"github.com/DirtyReal/cfh-new/internal/server"
	"github.com/DirtyReal/cfh-new/internal/version"
	"github.com/DirtyReal/cfh-new/internal/voting"
	"github.com/DirtyReal/cfh-new/internal/websocket"
)

// connectPolicy retries dials during startup, when Postgres or Redis may
// still be coming up.
func connectPolicy(target string) retry.Policy {
	return retry.Policy{
		MaxAttempts:    5,
		InitialBackoff: time.Second,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			slog.Warn("Connection attempt failed, retrying",
				"target", target,
				"attempt", attempt,
				"backoff", backoff,
				"error", err)
		},
	}
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := retry.Do(ctx, connectPolicy("postgres"), func() (*pgxpool.Pool, error) {
		return database.Connect(ctx, cfg.DatabaseURL)
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := retry.Do(ctx, connectPolicy("redis"), func() (*goredis.Client, error) {
		return redis.NewClient(ctx, cfg.RedisURL)
	})
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

// setupEngine builds the vote engine over Postgres, replays the persisted
// ledger, and starts the command loop.
func setupEngine(pool *pgxpool.Pool, hub *websocket.Hub, clock clockwork.Clock) *voting.Engine {
	engine := voting.NewEngine(database.NewVoteStore(pool), hub, clock)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := engine.Warm(ctx); err != nil {
		slog.Error("Failed to warm vote ledger", "error", err)
		os.Exit(1)
	}

	engine.Start()
	return engine
}

func runGracefulShutdown(srv *server.Server, engine *voting.Engine, hub *websocket.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		// Engine before hub: queued votes must reach Postgres before the
		// hub drops its clients.
		engine.Stop()
		hub.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting",
		"version", version.Get().String(),
		"env", cfg.AppEnv,
		"port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(context.Background(), cfg)
	defer func() { _ = redisClient.Close() }()

	hub := websocket.NewHub()
	engine := setupEngine(pool, hub, clock)

	repos := app.Repos{
		Users:       database.NewUserRepo(pool),
		Memes:       database.NewMemeRepo(pool),
		Comments:    database.NewCommentRepo(pool),
		Resources:   database.NewResourceRepo(pool),
		Game:        database.NewGameProgressRepo(pool),
		Subscribers: database.NewSubscriberRepo(pool),
	}

	sessions := redis.NewSessionRepo(redisClient, clock)
	feedCache := redis.NewFeedCache(redisClient)
	voteLimiter := redis.NewVoteRateLimiter(redisClient, clock, cfg.VotesPerMinute, cfg.VotesPerMinute)

	appSvc := app.NewService(repos, sessions, engine, feedCache, voteLimiter)

	healthChecks := []server.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
		{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
	}

	srv := server.NewServer(cfg, appSvc, hub, healthChecks)

	done := runGracefulShutdown(srv, engine, hub)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
