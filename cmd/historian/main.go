// cmd/historian/main.go is an asynchronous historian service that pops session event
// records from a Redis queue and archives them in PostgreSQL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/faaizHadaina/jobi-socket/internal/cache"
	"github.com/faaizHadaina/jobi-socket/internal/config"
	"github.com/faaizHadaina/jobi-socket/internal/database"
	"github.com/faaizHadaina/jobi-socket/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisAddr := cfg.Redis.Addr
	if !cfg.Redis.Enabled() {
		redisAddr = "localhost:6379"
	}
	rdb, err := cache.Connect(ctx, redisAddr, cfg.Redis.DB)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer rdb.Close()

	pool, err := database.Connect(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer pool.Close()
	logger.Infof("Connected to database at %s:%s/%s", cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.Database)

	store := database.NewSessionEventStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatalf("%v", err)
	}

	hs := historian.NewService(rdb, store, historian.Options{
		Queue:      cfg.Redis.Queue,
		BatchSize:  cfg.Historian.BatchSize,
		FlushDelay: cfg.Historian.FlushDelay,
		Inactivity: cfg.Historian.Inactivity,
	}, logger)
	hs.Run(ctx)
	logger.Info("Historian shutdown complete.")
}
