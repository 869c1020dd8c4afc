package di

import (
	"fmt"

	"rategate/internal/handler/api"
	"rategate/internal/limiter"
	"rategate/pkg/config"
	xhttp "rategate/pkg/http"
	applogger "rategate/pkg/logger"
	"rategate/pkg/metrics"
	"rategate/pkg/server"
	"rategate/pkg/store"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideRecorder creates a Prometheus limiter telemetry recorder.
func ProvideRecorder(cfg *config.Config) limiter.Recorder {
	if !cfg.Metrics.Enabled {
		return limiter.NopRecorder{}
	}
	return metrics.New()
}

// ProvideConnector creates the Redis connector. The memory backend runs
// without one.
func ProvideConnector(cfg *config.Config) (*store.Connector, error) {
	if cfg.Limiter.Backend != "redis" {
		return nil, nil
	}
	conn, err := store.New(
		store.WithAddr(cfg.Redis.Addr),
		store.WithPassword(cfg.Redis.Password),
		store.WithDB(cfg.Redis.DB),
		store.WithPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns),
		store.WithTimeouts(cfg.Redis.DialTimeout, cfg.Redis.ReadTimeout, cfg.Redis.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("redis connector: %w", err)
	}
	return conn, nil
}

// ProvideLimiter creates the configured limiter backend.
func ProvideLimiter(cfg *config.Config, conn *store.Connector, rec limiter.Recorder) (limiter.Limiter, error) {
	switch cfg.Limiter.Backend {
	case "redis":
		return limiter.NewRedisLimiter(conn.Client(),
			limiter.WithPrefix(cfg.Limiter.KeyPrefix),
			limiter.WithBucketTTL(cfg.Limiter.BucketTTL),
			limiter.WithRecorder(rec),
		), nil
	case "memory":
		return limiter.NewMemoryLimiter(
			limiter.WithMemoryBucketTTL(cfg.Limiter.BucketTTL),
			limiter.WithMemoryRecorder(rec),
		), nil
	default:
		return nil, fmt.Errorf("unknown limiter backend %q", cfg.Limiter.Backend)
	}
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(log *applogger.Logger, lim limiter.Limiter) xhttp.Handler {
	return api.NewRateLimitEchoHandler(log, lim)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, log *applogger.Logger, conn *store.Connector, handler xhttp.Handler) *server.App {
	return server.New(cfg, log, conn, handler)
}
