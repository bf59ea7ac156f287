package cache

import (
	"context"
	"hash/maphash"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Memory defaults.
const (
	DefaultShards          = 32
	DefaultMaxPerShard     = 4096
	DefaultJanitorInterval = time.Minute
)

// Memory is an in-process backend. Keys hash onto shards, each an LRU bounded
// to maxPerShard entries behind its own lock.
type Memory struct {
	seed   maphash.Seed
	shards []*shard
	now    func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type shard struct {
	mu  sync.Mutex
	lru *simplelru.LRU[string, *Entry]
	// tags indexes keys of this shard by tag. The LRU eviction callback keeps it
	// in sync, so every removal path goes through lru.
	tags map[string]map[string]struct{}
}

// MemoryOption configures a Memory backend.
type MemoryOption func(*Memory)

// WithMemoryClock sets the clock used for expiry.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory creates a sharded backend and starts its expiry janitor.
// janitorInterval <= 0 disables the janitor.
func NewMemory(shards, maxPerShard int, janitorInterval time.Duration, opts ...MemoryOption) *Memory {
	if shards <= 0 {
		shards = DefaultShards
	}
	if maxPerShard <= 0 {
		maxPerShard = DefaultMaxPerShard
	}
	m := &Memory{
		seed:   maphash.MakeSeed(),
		shards: make([]*shard, shards),
		now:    time.Now,
		stop:   make(chan struct{}),
	}
	for _, o := range opts {
		o(m)
	}
	for i := range m.shards {
		m.shards[i] = newShard(maxPerShard)
	}
	if janitorInterval > 0 {
		m.wg.Add(1)
		go m.janitor(janitorInterval)
	}
	return m
}

func newShard(size int) *shard {
	sh := &shard{tags: map[string]map[string]struct{}{}}
	// NewLRU only fails for a non-positive size.
	sh.lru, _ = simplelru.NewLRU[string, *Entry](size, sh.unlink)
	return sh
}

func (m *Memory) shardFor(key string) *shard {
	return m.shards[maphash.String(m.seed, key)%uint64(len(m.shards))]
}

// Get returns a servable entry and marks it recently used.
func (m *Memory) Get(_ context.Context, key string) (Entry, bool, error) {
	sh := m.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	e, ok := sh.lru.Get(key)
	if !ok {
		return Entry{}, false, nil
	}
	if !e.Servable(m.now()) {
		sh.lru.Remove(key)
		return Entry{}, false, nil
	}
	return *e, true, nil
}

// Set stores an entry, evicting the least recently used key of a full shard.
func (m *Memory) Set(_ context.Context, key string, e Entry) error {
	sh := m.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	// Replacing goes through Remove so the old tags are unlinked.
	sh.lru.Remove(key)
	stored := e
	stored.Value = append([]byte(nil), e.Value...)
	stored.Tags = append([]string(nil), e.Tags...)
	sh.lru.Add(key, &stored)
	for _, t := range stored.Tags {
		keys, ok := sh.tags[t]
		if !ok {
			keys = map[string]struct{}{}
			sh.tags[t] = keys
		}
		keys[key] = struct{}{}
	}
	return nil
}

// Invalidate drops every entry under the tags. All shards are held for the
// duration, so no Get observes a partially invalidated tag.
func (m *Memory) Invalidate(_ context.Context, tags []string) error {
	for _, sh := range m.shards {
		sh.mu.Lock()
	}
	defer func() {
		for _, sh := range m.shards {
			sh.mu.Unlock()
		}
	}()
	for _, sh := range m.shards {
		for _, t := range tags {
			for key := range sh.tags[t] {
				sh.lru.Remove(key)
			}
			delete(sh.tags, t)
		}
	}
	return nil
}

// Len returns the number of stored entries, including stale ones.
func (m *Memory) Len() int {
	n := 0
	for _, sh := range m.shards {
		sh.mu.Lock()
		n += sh.lru.Len()
		sh.mu.Unlock()
	}
	return n
}

// Close stops the janitor.
func (m *Memory) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	m.wg.Wait()
	return nil
}

func (m *Memory) janitor(every time.Duration) {
	defer m.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Memory) sweep() {
	now := m.now()
	for _, sh := range m.shards {
		sh.mu.Lock()
		for _, key := range sh.lru.Keys() {
			if e, ok := sh.lru.Peek(key); ok && !e.Servable(now) {
				sh.lru.Remove(key)
			}
		}
		sh.mu.Unlock()
	}
}

// unlink is the LRU eviction callback; it runs with sh.mu held.
func (sh *shard) unlink(key string, e *Entry) {
	for _, t := range e.Tags {
		if keys, ok := sh.tags[t]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(sh.tags, t)
			}
		}
	}
}
