// Package bootstrap wires the process-level dependencies shared by the binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"linkboard/internal/cache"
	"linkboard/internal/config"
	"linkboard/internal/database"
	"linkboard/internal/middleware"
	"linkboard/internal/observability"

	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ApplySchema runs migrations according to DB_SCHEMA_MODE after connecting.
	ApplySchema bool
	// SkipRedis leaves the cache disabled without attempting a connection.
	SkipRedis bool
}

// Runtime holds the initialized dependencies and their cleanup hooks.
type Runtime struct {
	DB    *gorm.DB
	Cache *cache.Cache

	shutdownTracing func(context.Context) error
}

// InitLogging configures the process logger from cfg.
func InitLogging(cfg *config.Config) *slog.Logger {
	l := middleware.InitLogger(cfg.Env, cfg.LogLevel)
	observability.SetLogger(l)
	return l
}

// InitRuntime sets up logging and tracing, connects to the database (with
// retry) and optionally to Redis. An unreachable Redis is not an error.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	InitLogging(cfg)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   1.0,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if opts.ApplySchema {
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			_ = database.Close(db)
			_ = shutdownTracing(ctx)
			return nil, fmt.Errorf("schema apply failed: %w", err)
		}
	}

	rt := &Runtime{DB: db, Cache: cache.New(nil), shutdownTracing: shutdownTracing}
	if !opts.SkipRedis && cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			middleware.Logger.Warn("Redis unavailable, running without cache",
				slog.String("redis_url", cfg.RedisURL),
				slog.String("error", err.Error()),
			)
		} else {
			rt.Cache = cache.New(client)
		}
	}

	return rt, nil
}

// Close flushes traces. The database and cache are owned by whoever serves
// with them and are closed there; Close releases them only if asked.
func (r *Runtime) Close(ctx context.Context, releaseStores bool) error {
	if releaseStores {
		if err := r.Cache.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
		if err := database.Close(r.DB); err != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", err.Error()))
		}
	}
	if r.shutdownTracing != nil {
		return r.shutdownTracing(ctx)
	}
	return nil
}
