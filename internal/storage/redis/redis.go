package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"ecom_stationery/internal/storage"

	"github.com/redis/go-redis/v9"
)

type RedisRepo struct {
	client *redis.Client
}

type Options struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
	OpTimeout   time.Duration
}

func New(ctx context.Context, opts Options) (*RedisRepo, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:                  opts.Addr,
		Password:              opts.Password,
		DB:                    opts.DB,
		MaxRetries:            1,
		DialTimeout:           opts.DialTimeout,
		ReadTimeout:           opts.OpTimeout,
		WriteTimeout:          opts.OpTimeout,
		ContextTimeoutEnabled: true,
		PoolSize:              10,
		MinIdleConns:          2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisRepo{
		client: client,
	}, nil
}

// Set stores value under key; redis drops it after ttl.
func (r *RedisRepo) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	const op = "storage.redis.Set"

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, wrap(err))
	}

	return nil
}

func (r *RedisRepo) Get(ctx context.Context, key string) (string, error) {
	const op = "storage.redis.Get"

	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", storage.ErrKeyNotFound
		}

		return "", fmt.Errorf("%s: %w", op, wrap(err))
	}

	return val, nil
}

// Delete relies on DEL being atomic: of two concurrent callers only one sees
// a removed count of 1.
func (r *RedisRepo) Delete(ctx context.Context, key string) (bool, error) {
	const op = "storage.redis.Delete"

	n, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, wrap(err))
	}

	return n > 0, nil
}

func (r *RedisRepo) Close() error {
	return r.client.Close()
}

func wrap(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return errors.Join(storage.ErrUnavailable, err)
	}

	return err
}
