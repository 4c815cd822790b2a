// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/taki/internal/auth"
	"github.com/jason-s-yu/taki/internal/cache"
	"github.com/jason-s-yu/taki/internal/config"
	"github.com/jason-s-yu/taki/internal/handlers"
	"github.com/jason-s-yu/taki/internal/lobby"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ids, err := newTokenIssuer(cfg)
	if err != nil {
		logger.Fatalf("identity: %v", err)
	}

	var recorder lobby.ActionRecorder
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		recorder = cache.NewActionQueue(rdb, cfg.QueueName)
		logger.Infof("recording game actions to redis list %q", cfg.QueueName)
	} else {
		logger.Info("REDIS_ADDR not set, action history disabled")
	}

	registry := lobby.NewRegistry()
	hub := handlers.NewHub(logger)
	manager := lobby.NewManager(registry, lobby.NewBroadcaster(hub, registry, logger), recorder, cfg.Lobby, logger)
	gs := handlers.NewGameServer(logger, hub, manager, ids, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           gs.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}

func newTokenIssuer(cfg config.Config) (*auth.TokenIssuer, error) {
	if cfg.TokenKeyPath != "" {
		return auth.NewTokenIssuerFromFiles(cfg.TokenKeyPath, cfg.TokenTTL)
	}
	return auth.NewTokenIssuer(cfg.TokenTTL)
}
