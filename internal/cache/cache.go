// Package cache is a read-through, tag-invalidated cache with per-key
// single-flight fills and stale-while-revalidate serving.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/metrics"
)

// Config tunes fill behavior.
type Config struct {
	// FillTimeout bounds how long a caller waits on another caller's fill
	// before computing the value itself. Zero waits for the fill.
	FillTimeout time.Duration
	// LoadTimeout bounds a single loader call, detached from the caller's context.
	LoadTimeout time.Duration
	// StaleGrace keeps entries servable this long after TTL while a refresh runs.
	// Zero disables stale serving.
	StaleGrace time.Duration
}

// Policy describes how a value is cached.
type Policy struct {
	TTL  time.Duration
	Tags []string
}

// Loader computes a value on a miss.
type Loader func(ctx context.Context) ([]byte, error)

// Notifier fans invalidations out to other instances.
type Notifier interface {
	Publish(ctx context.Context, tags []string) error
}

// Cache fronts a Backend. Safe for concurrent use.
type Cache struct {
	backend  Backend
	cfg      Config
	logger   *zap.Logger
	results  *prometheus.CounterVec
	invs     *prometheus.CounterVec
	notifier Notifier
	now      func() time.Time

	group singleflight.Group
	// gen advances on every invalidation. A fill started under an older
	// generation is not stored. invMu orders stores against invalidations.
	gen   atomic.Uint64
	invMu sync.RWMutex
}

// Option configures a Cache.
type Option func(*Cache)

// WithNotifier publishes invalidations to other instances.
func WithNotifier(n Notifier) Option {
	return func(c *Cache) { c.notifier = n }
}

// WithClock sets the clock used for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithMetrics overrides the counters; nil disables them.
func WithMetrics(results, invalidations *prometheus.CounterVec) Option {
	return func(c *Cache) {
		c.results = results
		c.invs = invalidations
	}
}

// New creates a cache over backend.
func New(backend Backend, cfg Config, logger *zap.Logger, opts ...Option) *Cache {
	c := &Cache{
		backend: backend,
		cfg:     cfg,
		logger:  logger,
		results: metrics.CacheResultsTotal,
		invs:    metrics.CacheInvalidationsTotal,
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns a fresh value. Stale entries are reported as misses.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	e, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", domain.ErrCacheUnavailable, err)
	}
	if !ok || !e.Fresh(c.now()) {
		return nil, false, nil
	}
	return e.Value, true, nil
}

// Set stores value under key.
func (c *Cache) Set(ctx context.Context, key string, value []byte, p Policy) error {
	return c.store(ctx, key, value, p, c.gen.Load())
}

// Invalidate drops every entry under the tags here and on every other instance.
func (c *Cache) Invalidate(ctx context.Context, tags ...string) error {
	if len(tags) == 0 {
		return nil
	}
	if err := c.invalidate(ctx, tags, "local"); err != nil {
		return err
	}
	if c.notifier != nil {
		if err := c.notifier.Publish(ctx, tags); err != nil {
			c.logger.Warn("Failed to publish cache invalidation",
				zap.Strings("tags", tags), zap.Error(err))
		}
	}
	return nil
}

// InvalidateLocal drops entries under the tags on this instance only.
// Used for invalidations received from other instances.
func (c *Cache) InvalidateLocal(ctx context.Context, tags ...string) error {
	if len(tags) == 0 {
		return nil
	}
	return c.invalidate(ctx, tags, "remote")
}

func (c *Cache) invalidate(ctx context.Context, tags []string, origin string) error {
	c.invMu.Lock()
	defer c.invMu.Unlock()

	c.gen.Add(1)
	if c.invs != nil {
		c.invs.WithLabelValues(origin).Add(float64(len(tags)))
	}
	if err := c.backend.Invalidate(ctx, tags); err != nil {
		return fmt.Errorf("invalidate %v: %w: %w", tags, domain.ErrCacheUnavailable, err)
	}
	return nil
}

// Fetch returns the cached value for key or computes it with load.
// Concurrent misses on one key share a single load. A backend failure never
// fails the call: the value is computed directly and the cache is bypassed.
func (c *Cache) Fetch(ctx context.Context, key string, p Policy, load Loader) ([]byte, error) {
	e, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		c.inc(metrics.CacheBypass)
		c.logger.Warn("Cache unavailable, bypassing",
			zap.String("key", key), zap.Error(fmt.Errorf("%w: %w", domain.ErrCacheUnavailable, err)))
		return load(ctx)
	}
	if ok {
		if e.Fresh(c.now()) {
			c.inc(metrics.CacheHit)
			return e.Value, nil
		}
		if c.cfg.StaleGrace > 0 {
			c.inc(metrics.CacheStale)
			c.fill(ctx, key, p, load)
			return e.Value, nil
		}
	}

	c.inc(metrics.CacheMiss)
	ch := c.fill(ctx, key, p, load)

	var timeout <-chan time.Time
	if c.cfg.FillTimeout > 0 {
		timer := time.NewTimer(c.cfg.FillTimeout)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		v, _ := res.Val.([]byte)
		return v, nil
	case <-timeout:
		c.inc(metrics.CacheFillTimeout)
		return load(ctx)
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for fill %s: %w", key, ctx.Err())
	}
}

// fill loads key once per generation: callers arriving after an invalidation
// start a new flight instead of joining one that may return pre-invalidation data.
func (c *Cache) fill(ctx context.Context, key string, p Policy, load Loader) <-chan singleflight.Result {
	gen := c.gen.Load()
	return c.group.DoChan(strconv.FormatUint(gen, 10)+"|"+key, func() (any, error) {
		lctx := context.WithoutCancel(ctx)
		if c.cfg.LoadTimeout > 0 {
			var cancel context.CancelFunc
			lctx, cancel = context.WithTimeout(lctx, c.cfg.LoadTimeout)
			defer cancel()
		}
		v, err := load(lctx)
		if err != nil {
			return nil, err
		}
		if err := c.store(lctx, key, v, p, gen); err != nil {
			c.logger.Warn("Failed to store cache entry", zap.String("key", key), zap.Error(err))
		}
		return v, nil
	})
}

// store writes unless an invalidation happened since gen was observed.
func (c *Cache) store(ctx context.Context, key string, value []byte, p Policy, gen uint64) error {
	c.invMu.RLock()
	defer c.invMu.RUnlock()

	if c.gen.Load() != gen {
		return nil
	}
	e := Entry{
		Value:    value,
		StoredAt: c.now(),
		TTL:      p.TTL,
		Grace:    c.cfg.StaleGrace,
		Tags:     p.Tags,
	}
	if err := c.backend.Set(ctx, key, e); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCacheUnavailable, err)
	}
	return nil
}

func (c *Cache) inc(result string) {
	if c.results != nil {
		c.results.WithLabelValues(result).Inc()
	}
}

// Close releases the backend.
func (c *Cache) Close() error {
	return c.backend.Close()
}

// Fetcher is the read-through surface FetchJSON needs; *Cache implements it.
type Fetcher interface {
	Fetch(ctx context.Context, key string, p Policy, load Loader) ([]byte, error)
}

// FetchJSON is Fetch for JSON-encoded values.
func FetchJSON[T any](ctx context.Context, c Fetcher, key string, p Policy,
	load func(ctx context.Context) (T, error),
) (T, error) {
	var out T
	raw, err := c.Fetch(ctx, key, p, func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", key, err)
		}
		return data, nil
	})
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return out, nil
}
