// Package cache holds the shared Redis client and the feed and rating
// caches built on it. Every helper degrades to a no-op without Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"showcase/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

var client atomic.Pointer[redis.Client]

// errorHook counts failed commands by name. redis.Nil is a miss, not a failure.
type errorHook struct{}

func countFailure(name string, err error) {
	if err != nil && !errors.Is(err, redis.Nil) {
		middleware.RedisErrors.WithLabelValues(name).Inc()
	}
}

func (errorHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (errorHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		countFailure(cmd.Name(), err)
		return err
	}
}

func (errorHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		countFailure("pipeline", err)
		return err
	}
}

// NewClient accepts a redis:// or rediss:// URL or a bare host:port.
func NewClient(addr string) (*redis.Client, error) {
	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}
	rdb := redis.NewClient(opts)
	rdb.AddHook(errorHook{})
	return rdb, nil
}

// Connect builds a client and pings it. On any failure it logs, installs a
// nil client and returns nil, so the process runs without caching.
func Connect(ctx context.Context, addr string) *redis.Client {
	log := middleware.Logger.With(slog.String("component", "redis"))
	rdb, err := NewClient(addr)
	if err != nil {
		log.Warn("invalid REDIS_URL, caching disabled", slog.String("error", err.Error()))
		SetClient(nil)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, caching disabled", slog.String("error", err.Error()))
		_ = rdb.Close()
		SetClient(nil)
		return nil
	}

	log.Info("redis connected")
	SetClient(rdb)
	return rdb
}

// SetClient installs rdb as the shared client. Tests use it with miniredis.
func SetClient(rdb *redis.Client) {
	client.Store(rdb)
}

func GetClient() *redis.Client {
	return client.Load()
}
