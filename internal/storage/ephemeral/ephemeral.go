// Package ephemeral picks the short-lived key-value backend once at startup:
// redis when it answers a ping, the in-process map otherwise. There is no
// failover afterwards.
package ephemeral

import (
	"context"
	"log/slog"
	"time"

	"ecom_stationery/internal/config"
	sl "ecom_stationery/internal/lib/logger"
	"ecom_stationery/internal/storage/memory"
	"ecom_stationery/internal/storage/redis"
)

const (
	BackendRedis  = "redis"
	BackendMemory = "memory"

	sweepInterval = time.Minute
)

type Store interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) (bool, error)
	Close() error
}

func New(ctx context.Context, log *slog.Logger, cfg config.Redis) (Store, string) {
	log = log.With(slog.String("op", "storage.ephemeral.New"))

	if cfg.Address != "" {
		repo, err := redis.New(ctx, redis.Options{
			Addr:        cfg.Address,
			Password:    cfg.Password,
			DB:          cfg.DB,
			DialTimeout: cfg.DialTimeout,
			OpTimeout:   cfg.OpTimeout,
		})
		if err == nil {
			log.Info("using redis ephemeral store", slog.String("addr", cfg.Address))
			return repo, BackendRedis
		}

		log.Warn("redis unavailable, falling back to in-process store", sl.Err(err))
	}

	log.Warn("in-process ephemeral store is not shared between instances and is lost on restart")

	store := memory.New()
	go store.RunSweeper(ctx, sweepInterval)

	return store, BackendMemory
}
