package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/achrilik/storefront/pkg/config"
	"github.com/achrilik/storefront/pkg/storage"
	"github.com/redis/go-redis/v9"
)

const keyNamespace = "achrilik"

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// KV stores storefront state in Redis under namespaced keys.
type KV struct {
	store cmdable
	raw   *redis.Client
}

// New bootstraps a Redis-backed store with pooling/timeouts and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig) (*KV, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &KV{store: raw, raw: raw}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if opts.DB == 0 {
		opts.DB = cfg.DB
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.MinIdleConns == 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

func (k *KV) Get(ctx context.Context, key string) (string, error) {
	if k.store == nil {
		return "", errors.New("redis client not initialized")
	}
	value, err := k.store.Get(ctx, buildKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", storage.ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (k *KV) Set(ctx context.Context, key, value string) error {
	if k.store == nil {
		return errors.New("redis client not initialized")
	}
	return k.store.Set(ctx, buildKey(key), value, 0).Err()
}

func (k *KV) Remove(ctx context.Context, key string) error {
	if k.store == nil {
		return errors.New("redis client not initialized")
	}
	return k.store.Del(ctx, buildKey(key)).Err()
}

// Ping verifies the connection.
func (k *KV) Ping(ctx context.Context) error {
	if k.store == nil {
		return errors.New("redis client not initialized")
	}
	return k.store.Ping(ctx).Err()
}

// Close shuts down the underlying client if available.
func (k *KV) Close() error {
	if k.raw == nil {
		return nil
	}
	return k.raw.Close()
}

func buildKey(key string) string {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return keyNamespace
	}
	if strings.HasPrefix(trimmed, keyNamespace+":") {
		return trimmed
	}
	return keyNamespace + ":" + trimmed
}
