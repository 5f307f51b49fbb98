package main

import (
	"context"
	"fmt"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/memstore"
	redis "github.com/redis/go-redis/v9"

	"github.com/yourusername/gatekeeper/internal/config"
	"github.com/yourusername/gatekeeper/internal/sessionstore"
)

// sessionBackend はセッションの保存先と、その疎通確認・終了処理をまとめたものです。
type sessionBackend struct {
	store sessions.Store
	ping  func(ctx context.Context) error
	close func() error
}

func setupSessions(cfg *config.Config) (*sessionBackend, error) {
	secret := []byte(cfg.SessionSecret)

	switch cfg.SessionBackend {
	case config.SessionBackendMemory:
		return &sessionBackend{
			store: memstore.NewStore(secret),
			close: func() error { return nil },
		}, nil
	case config.SessionBackendRedis:
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}

		redisClient := redis.NewClient(opt)
		store := sessionstore.NewRedisStore(redisClient, secret)
		return &sessionBackend{
			store: store,
			ping:  store.Ping,
			close: redisClient.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}
