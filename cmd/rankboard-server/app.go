package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"rankboard/adapters/jsonfile"
	mem "rankboard/adapters/memory"
	redisAdapter "rankboard/adapters/redis"
	sqlxAdapter "rankboard/adapters/sqlx"
	"rankboard/api/httpapi"
	"rankboard/config"
	"rankboard/engine"
	"rankboard/rankboard"
	"rankboard/realtime"
)

// App aggregates the assembled server components.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Hub     *realtime.Hub
	Service *engine.RankingService
	Handler http.Handler
	Server  *http.Server
}

func provideConfig(ctx context.Context) (*config.Config, error) {
	return config.Load()
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg, nil)
}

func provideHub() *realtime.Hub {
	return realtime.NewHub()
}

func provideStore(ctx context.Context, cfg *config.Config) (engine.Store, error) {
	return setupStore(ctx, cfg)
}

func provideService(cfg *config.Config, logger *slog.Logger, hub *realtime.Hub, store engine.Store) *engine.RankingService {
	mode := engine.DispatchSync
	if cfg.Ranking.AsyncEvents {
		mode = engine.DispatchAsync
	}
	return rankboard.New(
		rankboard.WithStore(store),
		rankboard.WithRealtime(hub),
		rankboard.WithLogger(logger),
		rankboard.WithRegistryKey(cfg.Ranking.RegistryKey),
		rankboard.WithDispatchMode(mode),
	)
}

func provideHandler(svc *engine.RankingService, hub *realtime.Hub, cfg *config.Config) http.Handler {
	return httpapi.NewMux(svc, hub, httpapi.Options{
		PathPrefix:       cfg.Server.PathPrefix,
		AllowCORSOrigin:  cfg.Server.CORSOrigin,
		APIKeys:          cfg.Security.APIKeys,
		RateLimitEnabled: cfg.Security.EnableRateLimit,
		RateLimitRPM:     cfg.Security.RateLimit.RequestsPerMinute,
		RateLimitBurst:   cfg.Security.RateLimit.BurstSize,
	})
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

// setupLogging configures the process logger. A nil w selects the configured
// output stream.
func setupLogging(cfg *config.Config, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
		if cfg.Logging.Output == "stderr" {
			w = os.Stderr
		}
	}
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	if len(cfg.Logging.Attributes) > 0 {
		attrs := make([]slog.Attr, 0, len(cfg.Logging.Attributes))
		for k, v := range cfg.Logging.Attributes {
			attrs = append(attrs, slog.String(k, v))
		}
		handler = handler.WithAttrs(attrs)
	}

	logger := slog.New(handler).With("environment", string(cfg.Environment))
	slog.SetDefault(logger)
	return logger
}

func parseLogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// setupStore opens the storage adapter named by the configuration.
func setupStore(ctx context.Context, cfg *config.Config) (engine.Store, error) {
	switch cfg.Storage.Adapter {
	case config.AdapterMemory:
		return mem.New(), nil
	case config.AdapterFile:
		return jsonfile.New(cfg.Storage.File.Path)
	case config.AdapterRedis:
		return redisAdapter.New(cfg.Storage.Redis)
	case config.AdapterSQL:
		return sqlxAdapter.New(cfg.Storage.SQL)
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}
}
