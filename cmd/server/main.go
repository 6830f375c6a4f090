package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/jconnolly84/quizmas/internal/config"
	"github.com/jconnolly84/quizmas/internal/database"
	"github.com/jconnolly84/quizmas/internal/docstore"
	"github.com/jconnolly84/quizmas/internal/handler/health"
	"github.com/jconnolly84/quizmas/internal/migrations"
	"github.com/jconnolly84/quizmas/internal/quiz"
	"github.com/jconnolly84/quizmas/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	opts := []docstore.Option{
		docstore.WithLogger(logger),
		docstore.WithRetries(cfg.TxnRetries),
	}
	checks := map[string]health.Checker{}

	// --- Redis (optional) ---
	var relay *docstore.RedisRelay
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis", "channel", cfg.RedisChannel)

		relay = docstore.NewRedisRelay(rdb, cfg.RedisChannel, logger)
		opts = append(opts, docstore.WithRelay(relay))
		checks["redis"] = health.CheckFunc(relay.Ping)
	}

	store := docstore.NewSQLiteStore(db, opts...)
	checks["sqlite"] = health.CheckFunc(store.Ping)

	rooms := quiz.NewService(store, logger)

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, rooms, health.NewHandler(logger, checks).Routes(), cfg.SPADir)

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	if relay != nil {
		g.Go(func() error {
			return relay.Run(gctx, store.Broker())
		})
	}

	if cfg.RoomTTL > 0 {
		sweeper := quiz.NewSweeper(store, cfg.RoomTTL, cfg.SweepInterval, logger)
		g.Go(func() error {
			logger.Info("starting room sweeper", "ttl", cfg.RoomTTL.String(), "interval", cfg.SweepInterval.String())
			return sweeper.Run(gctx)
		})
	}

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}
