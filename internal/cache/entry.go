package cache

import (
	"context"
	"time"
)

// Entry is a cached value with its freshness window.
type Entry struct {
	Value    []byte
	StoredAt time.Time
	TTL      time.Duration
	// Grace extends the physical lifetime past TTL so the value can be served stale
	// while it is recomputed.
	Grace time.Duration
	Tags  []string
}

// Fresh reports whether the entry is within its TTL at now.
func (e *Entry) Fresh(now time.Time) bool {
	return now.Before(e.StoredAt.Add(e.TTL))
}

// Servable reports whether the entry may still be returned, fresh or stale.
func (e *Entry) Servable(now time.Time) bool {
	return now.Before(e.StoredAt.Add(e.TTL + e.Grace))
}

// Backend stores entries. Implementations must make Invalidate atomic with
// respect to Get: once Invalidate returns, no Get observes an entry under the tags.
type Backend interface {
	// Get returns a servable entry. ok is false on a miss.
	Get(ctx context.Context, key string) (e Entry, ok bool, err error)
	Set(ctx context.Context, key string, e Entry) error
	// Invalidate drops every entry carrying any of the tags.
	Invalidate(ctx context.Context, tags []string) error
	Close() error
}
