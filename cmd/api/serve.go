package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/gatekeeper/internal/auth"
	"github.com/yourusername/gatekeeper/internal/config"
	"github.com/yourusername/gatekeeper/internal/logging"
	"github.com/yourusername/gatekeeper/internal/metrics"
	"github.com/yourusername/gatekeeper/internal/storage"
	"github.com/yourusername/gatekeeper/internal/users"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	// データベース接続
	pool, err := storage.Connect(ctx, storage.PostgresConfig{
		URL:             cfg.DatabaseURL,
		MaxConns:        cfg.DBMaxConns,
		ConnectAttempts: cfg.DBConnectAttempts,
	})
	if err != nil {
		logger.Error("failed to connect database", "error", err)
		return err
	}
	defer pool.Close()

	if cfg.DBAutoMigrate {
		if err := storage.Migrate(ctx, pool); err != nil {
			logger.Error("failed to apply migrations", "error", err)
			return err
		}
	}

	// セッションストアの設定
	backend, err := setupSessions(cfg)
	if err != nil {
		logger.Error("failed to set up sessions", "error", err)
		return err
	}
	defer func() {
		if err := backend.close(); err != nil {
			logger.Warn("failed to close session backend", "error", err)
		}
	}()

	checks := map[string]func(context.Context) error{
		"postgres": storage.Healthcheck(pool),
	}
	if backend.ping != nil {
		checks[cfg.SessionBackend] = backend.ping
	}

	router, err := newRouter(cfg, routerDeps{
		logger:   logger,
		users:    users.NewPostgresStore(pool),
		sessions: backend.store,
		checks:   checks,
		metrics:  metrics.NewAuth(),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "mode", cfg.GinMode, "session_backend", cfg.SessionBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	pool, err := storage.Connect(ctx, storage.PostgresConfig{
		URL:             cfg.DatabaseURL,
		MaxConns:        cfg.DBMaxConns,
		ConnectAttempts: cfg.DBConnectAttempts,
	})
	if err != nil {
		logger.Error("failed to connect database", "error", err)
		return err
	}
	defer pool.Close()

	if err := storage.Migrate(ctx, pool); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		return err
	}
	logger.Info("migrations applied")
	return nil
}

// 認証サービスが要求するストアを満たしていること
var _ auth.UserStore = (*users.PostgresStore)(nil)
