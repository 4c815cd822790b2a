// cmd/historian is an asynchronous historian service that pops game action
// records from a Redis queue and persists them to PostgreSQL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/taki/internal/cache"
	"github.com/jason-s-yu/taki/internal/config"
	"github.com/jason-s-yu/taki/internal/database"
	"github.com/jason-s-yu/taki/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)
	if cfg.RedisAddr == "" || cfg.DatabaseURL == "" {
		logger.Fatal("REDIS_ADDR and DATABASE_URL are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	store := database.NewHistoryStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatalf("postgres: %v", err)
	}

	hcfg := historian.DefaultConfig()
	hcfg.BatchSize = cfg.HistorianBatchSize
	hcfg.FlushDelay = cfg.HistorianFlushDelay
	hcfg.Inactivity = cfg.GameInactivity
	svc := historian.New(cache.NewActionQueue(rdb, cfg.QueueName), store, hcfg, logger)

	logger.Infof("taki-historian started, reading %q", cfg.QueueName)
	if err := svc.Run(ctx); err != nil {
		logger.Errorf("historian stopped: %v", err)
	}
	logger.Info("taki-historian shutdown complete")
}
