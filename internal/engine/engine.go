// Package engine provides the infrastructure core of the aggregation layer:
// the mirror endpoint pool, the shared HTTP client facade, the mirror request
// dispatcher, the TTL caches, and the unified record types that all provider
// responses are normalized into.
package engine

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Engine bundles the stateful services shared by every use case. One instance
// is created at process start and lives for the process lifetime; all state
// beyond it is per-request.
type Engine struct {
	cfg    Config
	pool   *EndpointPool
	client *Client

	configCache   *TTLCache[string]
	trendingCache *TTLCache[[]VideoSummary]
	thumbCache    *ThumbCache
}

// New creates an engine from the given configuration. Zero-value fields fall
// back to the reference deployment defaults.
func New(cfg Config) *Engine {
	cfg = cfg.withDefaults()

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Warn("thumb cache: invalid redis URL, L2 disabled", slog.Any("error", err))
		} else {
			rdb = redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err != nil {
				slog.Warn("thumb cache: redis unreachable, L2 disabled", slog.Any("error", err))
				rdb = nil
			} else {
				slog.Info("thumb cache: L2 redis connected", slog.String("addr", opts.Addr))
			}
		}
	}

	e := &Engine{
		cfg:           cfg,
		pool:          NewEndpointPool(cfg.Instances),
		client:        NewClient(cfg.RequestsPerSecond),
		configCache:   NewTTLCache[string](cfg.ConfigTTL, 0),
		trendingCache: NewTTLCache[[]VideoSummary](cfg.TrendingTTL, 0),
		thumbCache:    NewThumbCache(cfg.ThumbTTL, cfg.ThumbMaxEntries, rdb),
	}
	slog.Info("engine initialized",
		slog.Int("instances", e.pool.Len()),
		slog.Int("fan_out", cfg.MirrorFanOut),
		slog.Bool("keyed_search", cfg.SearchAPIKey != ""),
		slog.Bool("thumb_l2", rdb != nil),
	)
	return e
}

// Config returns the effective configuration after defaulting.
func (e *Engine) Config() Config { return e.cfg }

// Pool returns the mirror endpoint pool.
func (e *Engine) Pool() *EndpointPool { return e.pool }

// Client returns the shared HTTP client facade.
func (e *Engine) Client() *Client { return e.client }

// ConfigCache holds the remote config parameter string (single slot).
func (e *Engine) ConfigCache() *TTLCache[string] { return e.configCache }

// TrendingCache holds the trending list (single slot).
func (e *Engine) TrendingCache() *TTLCache[[]VideoSummary] { return e.trendingCache }

// ThumbCache holds thumbnail bytes keyed by video id.
func (e *Engine) ThumbCache() *ThumbCache { return e.thumbCache }
