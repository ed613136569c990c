// Package rankboard assembles a ready-to-use ranking service from a store,
// an event bus, an optional realtime hub and an optional logger.
package rankboard

import (
	"context"
	"log/slog"

	mem "rankboard/adapters/memory"
	"rankboard/core"
	"rankboard/engine"
	"rankboard/realtime"
)

// Option configures the service builder.
type Option func(*config)

type config struct {
	store       engine.Store
	mode        engine.DispatchMode
	hub         *realtime.Hub
	logger      *slog.Logger
	registryKey string
}

// WithStore sets the persistence adapter.
func WithStore(s engine.Store) Option { return func(c *config) { c.store = s } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithRealtime wires a realtime hub to receive all ranking events.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// WithLogger logs every ranking event at debug level.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// WithRegistryKey overrides the store key of the board registry.
func WithRegistryKey(key string) Option { return func(c *config) { c.registryKey = key } }

// New builds a configured RankingService. If not provided, defaults are used:
//   - store: in-memory
//   - dispatch: async
//   - registry key: core.DefaultRegistryKey
func New(opts ...Option) *engine.RankingService {
	cfg := &config{mode: engine.DispatchAsync, registryKey: core.DefaultRegistryKey}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.store == nil {
		cfg.store = mem.New()
	}
	bus := engine.NewEventBus(cfg.mode)
	svc := engine.NewRankingService(cfg.store, bus, cfg.registryKey)
	if cfg.hub != nil {
		bus.SubscribeAll(cfg.hub.Broadcast)
	}
	if cfg.logger != nil {
		logger := cfg.logger
		bus.SubscribeAll(func(ctx context.Context, e core.Event) {
			logger.DebugContext(ctx, "ranking event",
				"id", e.ID,
				"type", e.Type,
				"board", e.Board,
				"participant", e.Participant,
				"loser", e.Loser,
				"position", e.Position)
		})
	}
	return svc
}
