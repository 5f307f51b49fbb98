// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	// SessionBackendRedis はセッションを Redis に保存します。
	SessionBackendRedis = "redis"
	// SessionBackendMemory はセッションをプロセス内メモリに保存します（開発・テスト用）。
	SessionBackendMemory = "memory"

	debugMode   = "debug"
	releaseMode = "release"
	testMode    = "test"

	minReleaseSecretLength = 32
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port    string `env:"PORT" envDefault:"3000"`        // HTTPサーバーのポート番号
	GinMode string `env:"GIN_MODE" envDefault:"debug"` // Ginの実行モード (debug, release, test)

	// セッション設定
	SessionSecret  string        `env:"SESSION_SECRET"`                     // セッションID署名用の秘密鍵
	SessionMaxAge  time.Duration `env:"SESSION_MAX_AGE" envDefault:"12h"`   // クッキーとRedisキーの有効期間
	SessionBackend string        `env:"SESSION_BACKEND" envDefault:"redis"` // redis または memory
	RedisURL       string        `env:"REDIS_URL" envDefault:"redis://127.0.0.1:6379/0"`

	// データベース設定
	DatabaseURL       string `env:"DATABASE_URL"`
	DBMaxConns        int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBConnectAttempts uint64 `env:"DB_CONNECT_ATTEMPTS" envDefault:"5"`
	DBAutoMigrate     bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`

	// パスワードハッシュのコスト
	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`

	// CORS設定
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000"` // カンマ区切り

	// ログ設定
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	// .env.local ファイルを読み込む（存在しない場合はスキップ）
	loadEnvFile()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	// 必須設定のバリデーション
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// IsRelease は release モードで動作しているかを返します。
func (c *Config) IsRelease() bool {
	return c.GinMode == releaseMode
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	// 秘密鍵のデフォルト値は持たない
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	switch c.GinMode {
	case debugMode, releaseMode, testMode:
	default:
		return fmt.Errorf("unknown GIN_MODE %q (debug, release or test)", c.GinMode)
	}

	switch c.SessionBackend {
	case SessionBackendRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required when SESSION_BACKEND=redis")
		}
	case SessionBackendMemory:
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}

	if c.SessionMaxAge <= 0 {
		return errors.New("SESSION_MAX_AGE must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}

	if c.IsRelease() {
		if len(c.SessionSecret) < minReleaseSecretLength {
			return fmt.Errorf("SESSION_SECRET must be at least %d bytes in release mode", minReleaseSecretLength)
		}
		if c.SessionBackend == SessionBackendMemory {
			return errors.New("SESSION_BACKEND=memory is not allowed in release mode")
		}
	}

	return nil
}

// SessionMaxAgeSeconds はクッキーの MaxAge に利用する秒数を返します。
func (c *Config) SessionMaxAgeSeconds() int {
	return int(c.SessionMaxAge.Seconds())
}
