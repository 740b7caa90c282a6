// Command oauth-relay runs the OAuth authorization-code relay: it issues
// authorization URLs, receives the provider callback, and hands the token
// bundle to the plugin exactly once via polling.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/appleboy/graceful"

	"github.com/go-training/oauth-relay/pkg/config"
	"github.com/go-training/oauth-relay/pkg/exchange"
	"github.com/go-training/oauth-relay/pkg/logger"
	"github.com/go-training/oauth-relay/pkg/relay"
	"github.com/go-training/oauth-relay/pkg/server"
	"github.com/go-training/oauth-relay/pkg/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New()
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.NewWithLevel(cfg.LogLevel)

	storeConfig := store.Config{
		Type: store.ParseStoreType(cfg.StoreType),
		Redis: store.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
	}
	kv, err := store.NewStore(storeConfig)
	if err != nil {
		slog.Error("Failed to create store", "type", cfg.StoreType, "error", err)
		os.Exit(1)
	}
	switch storeConfig.Type {
	case store.StoreTypeMemory:
		slog.Info("Using in-memory store")
	case store.StoreTypeRedis:
		slog.Info("Using Redis store", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		if redisStore, ok := kv.(*store.RedisStore); ok {
			defer redisStore.Close()
		}
	}

	service := relay.NewService(cfg, kv, exchange.NewClient())
	srv, err := server.New(cfg, service)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("Relay HTTP server listening", "addr", cfg.Addr)

	m := graceful.NewManager()
	m.AddRunningJob(func(ctx context.Context) error {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	m.AddShutdownJob(func() error {
		slog.Info("Shutdown signal received, draining connections")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(ctx)
	})

	<-m.Done()
	slog.Info("Server shutdown gracefully")
}
