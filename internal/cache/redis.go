package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/jobmatch/internal/db"
	"github.com/kailas-cloud/jobmatch/internal/domain"
)

var (
	entryKeyPrefix = domain.KeyPrefix + "cache:"
	tagKeyPrefix   = domain.KeyPrefix + "cache_tag:"
)

// redisStore is the consumer interface for the shared cache backend (ISP).
type redisStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetTagged(ctx context.Context, key string, value []byte, ttl time.Duration, tagKeys []string) error
	DelTagged(ctx context.Context, tagKeys []string) (int64, error)
}

// Redis is a backend shared by every instance. Entries expire in Redis after
// TTL plus grace; tag sets are maintained by server-side scripts.
type Redis struct {
	store redisStore
	now   func() time.Time
}

// NewRedis creates a shared backend.
func NewRedis(s redisStore) *Redis {
	return &Redis{store: s, now: time.Now}
}

type envelope struct {
	Value    []byte   `json:"v"`
	StoredAt int64    `json:"s"`
	TTL      int64    `json:"t"`
	Grace    int64    `json:"g,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Get returns a servable entry.
func (r *Redis) Get(ctx context.Context, key string) (Entry, bool, error) {
	raw, err := r.store.Get(ctx, entryKeyPrefix+key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("get %s: %w", key, err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// A corrupt envelope is treated as a miss and overwritten by the next fill.
		return Entry{}, false, nil
	}
	e := Entry{
		Value:    env.Value,
		StoredAt: time.UnixMilli(env.StoredAt),
		TTL:      time.Duration(env.TTL) * time.Millisecond,
		Grace:    time.Duration(env.Grace) * time.Millisecond,
		Tags:     env.Tags,
	}
	if !e.Servable(r.now()) {
		return Entry{}, false, nil
	}
	return e, true, nil
}

// Set stores the entry and registers it under its tags.
func (r *Redis) Set(ctx context.Context, key string, e Entry) error {
	data, err := json.Marshal(envelope{
		Value:    e.Value,
		StoredAt: e.StoredAt.UnixMilli(),
		TTL:      e.TTL.Milliseconds(),
		Grace:    e.Grace.Milliseconds(),
		Tags:     e.Tags,
	})
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	if err := r.store.SetTagged(ctx, entryKeyPrefix+key, data, e.TTL+e.Grace, tagKeys(e.Tags)); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Invalidate drops every entry under the tags in one script call.
func (r *Redis) Invalidate(ctx context.Context, tags []string) error {
	if _, err := r.store.DelTagged(ctx, tagKeys(tags)); err != nil {
		return fmt.Errorf("invalidate: %w", err)
	}
	return nil
}

// Close is a no-op; the store is owned by the caller.
func (r *Redis) Close() error { return nil }

func tagKeys(tags []string) []string {
	keys := make([]string, len(tags))
	for i, t := range tags {
		keys[i] = tagKeyPrefix + t
	}
	return keys
}
