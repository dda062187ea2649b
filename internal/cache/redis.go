// Package cache provides Redis caching utilities for the application.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"recipebox/internal/middleware"
	"recipebox/internal/observability"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// client is shared by the cache helpers. nil means caching is off.
var client *redis.Client

// errorCounter feeds failed commands into the redis error metric.
// redis.Nil is a miss, not a failure.
type errorCounter struct{}

func countFailure(name string, err error) {
	if err == nil || errors.Is(err, redis.Nil) {
		return
	}
	observability.RedisErrors.WithLabelValues(name).Inc()
}

func (errorCounter) DialHook(next redis.DialHook) redis.DialHook { return next }

func (errorCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		countFailure(cmd.Name(), err)
		return err
	}
}

func (errorCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		countFailure("pipeline", err)
		return err
	}
}

// parseOptions accepts either a redis:// URL or a bare host:port.
func parseOptions(target string) (*redis.Options, error) {
	if !strings.Contains(target, "://") {
		return &redis.Options{Addr: target}, nil
	}
	opts, err := redis.ParseURL(target)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return opts, nil
}

// Open dials Redis at target and checks it answers a PING.
func Open(ctx context.Context, target string) (*redis.Client, error) {
	opts, err := parseOptions(target)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opts)
	c.AddHook(errorCounter{})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return c, nil
}

// Connect opens Redis for the process and installs it for the cache helpers.
// An empty target or an unreachable server returns nil and the app runs uncached.
func Connect(ctx context.Context, target string) *redis.Client {
	if target == "" {
		client = nil
		return nil
	}
	c, err := Open(ctx, target)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "Redis unavailable, continuing without cache", slog.String("error", err.Error()))
		client = nil
		return nil
	}
	middleware.Logger.InfoContext(ctx, "Redis connected", slog.String("addr", c.Options().Addr))
	client = c
	return c
}

// SetClient installs c for the cache helpers, e.g. one bound to miniredis in tests.
func SetClient(c *redis.Client) {
	if c != nil {
		c.AddHook(errorCounter{})
	}
	client = c
}
