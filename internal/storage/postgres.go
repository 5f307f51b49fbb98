// Package storage は PostgreSQL 接続プールとスキーマ管理を提供します。
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/yourusername/gatekeeper/internal/storage/migrations"
)

const (
	defaultConnectAttempts = 5
	connectBackoffBase     = 500 * time.Millisecond
	connectTimeout         = 5 * time.Second
)

// PostgresConfig は接続プールの設定です。
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	ConnectAttempts uint64
}

// Connect は接続プールを作成し、疎通確認が取れるまで指数バックオフで再試行します。
func Connect(ctx context.Context, cfg PostgresConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").Wrap(err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	attempts := cfg.ConnectAttempts
	if attempts == 0 {
		attempts = defaultConnectAttempts
	}
	backoff := retry.WithMaxRetries(attempts-1, retry.NewExponential(connectBackoffBase))

	var pool *pgxpool.Pool
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		p, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return retry.RetryableError(err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := p.Ping(pingCtx); err != nil {
			p.Close()
			return retry.RetryableError(err)
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("attempts", attempts).
			Wrap(err)
	}
	return pool, nil
}

// gooseUp は goose.UpContext の差し替え用シームです。
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

// Migrate は埋め込みマイグレーションを適用します。
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	return migrate(ctx, db)
}

func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := gooseUp(ctx, db, "."); err != nil {
		return oops.Code("DB_MIGRATION_FAILED").Wrap(err)
	}
	return nil
}

// Pinger は疎通確認が可能な依存先を表します。
type Pinger interface {
	Ping(ctx context.Context) error
}

// Healthcheck は疎通確認関数を返します。
func Healthcheck(p Pinger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return oops.Code("DB_UNHEALTHY").Wrap(err)
		}
		return nil
	}
}
