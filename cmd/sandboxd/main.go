package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yodlink/yodlink/internal/config"
	"github.com/yodlink/yodlink/internal/infra"
	"github.com/yodlink/yodlink/internal/logging"
	"github.com/yodlink/yodlink/internal/sandbox"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()

	deps := sandbox.Deps{Logger: logger}

	if cfg.DatabaseURL != "" {
		db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := sandbox.EnsureSchema(ctx, db); err != nil {
			logger.Error("ensure schema", "error", err)
			os.Exit(1)
		}
		deps.Users = sandbox.NewPostgresUserStore(db)
		deps.SiteAccounts = sandbox.NewPostgresSiteAccountStore(db)
		logger.Info("sandbox stores backed by postgres")
	} else {
		logger.Info("sandbox stores in memory")
	}

	if cfg.RedisURL != "" {
		cache, err := infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
		deps.Cache = cache
	}

	srv := sandbox.New(sandbox.Config{
		CobrandLogin:    cfg.CobrandLogin,
		CobrandPassword: cfg.CobrandPassword,
		SessionTTL:      cfg.SessionTTL,
	}, deps)

	logger.Info("sandbox starting", "addr", cfg.Address(), "env", cfg.AppEnv)

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen(cfg.Address())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("sandbox exited cleanly")
}
