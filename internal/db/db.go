package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	HashStore
	KVStore
	SetStore
	SortedSetStore
	ListStore
	PubSub
	TagStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, keys ...string) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// MGet returns one slot per key; missing keys yield nil.
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// SetStore provides unordered set operations.
type SetStore interface {
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// ScoredMember is one sorted-set entry.
type ScoredMember struct {
	Member string
	Score  float64
}

// SortedSetStore provides sorted set operations.
type SortedSetStore interface {
	// ZAddMulti adds members, only ever raising an existing member's score (ZADD GT).
	ZAddMulti(ctx context.Context, items []ZAddItem) error
	ZRangeWithScores(ctx context.Context, key string) ([]ScoredMember, error)
}

// ZAddItem holds a single key+member+score triple for pipelined ZADD.
type ZAddItem struct {
	Key    string
	Member string
	Score  float64
}

// ListStore provides capped append-only lists.
type ListStore interface {
	// RPushCapped appends values and trims the list to its newest maxLen entries.
	RPushCapped(ctx context.Context, key string, maxLen int64, values ...string) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
}

// PubSub provides fire-and-forget channel messaging.
type PubSub interface {
	Publish(ctx context.Context, channel, message string) error
	// Subscribe blocks, delivering messages to fn until ctx is done or the store closes.
	Subscribe(ctx context.Context, channel string, fn func(message string)) error
}

// TagStore keeps values indexed by tag sets so a tag can drop all its values at once.
type TagStore interface {
	// SetTagged stores value at key with ttl and adds key to every tag set, atomically.
	SetTagged(ctx context.Context, key string, value []byte, ttl time.Duration, tagKeys []string) error
	// DelTagged deletes every key listed in the tag sets and the sets themselves, atomically.
	DelTagged(ctx context.Context, tagKeys []string) (int64, error)
}
