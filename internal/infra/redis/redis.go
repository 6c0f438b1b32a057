// Package redis provides the shared Redis client used by the cache-backed
// revocation registry.
package redis

import (
	"context"
	"log/slog"
	"time"

	"fittrack/config"
	"fittrack/internal/domain/lifecycle"
	"fittrack/internal/errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const (
	dialTimeout  = 3 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New parses the configured Redis URL and returns a ready-to-use client.
// Connectivity is validated on startup via the fx lifecycle. Returns a nil
// client when the revocation registry runs in-memory; Redis is optional then.
func New(params Params) (*redis.Client, error) {
	if params.Config.Auth.BlacklistBackend != config.BlacklistBackendRedis {
		return nil, nil
	}

	options, err := redis.ParseURL(params.Config.Auth.RedisURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid redis URL")
	}

	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout

	client := redis.NewClient(options)

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := client.Ping(ctx).Err(); err != nil {
				return errors.Wrap(err, "failed to ping redis")
			}

			params.Logger.Info("Redis client connected", slog.String("addr", options.Addr))

			return nil
		},
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	return client, nil
}
