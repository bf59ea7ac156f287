package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kailas-cloud/jobmatch/internal/db"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// failingBackend fails every call.
type failingBackend struct{}

var errBackendDown = errors.New("backend down")

func (failingBackend) Get(context.Context, string) (Entry, bool, error) {
	return Entry{}, false, errBackendDown
}
func (failingBackend) Set(context.Context, string, Entry) error { return errBackendDown }
func (failingBackend) Invalidate(context.Context, []string) error { return errBackendDown }
func (failingBackend) Close() error { return nil }

// mockRedisStore implements redisStore in memory.
type mockRedisStore struct {
	mu     sync.Mutex
	values map[string][]byte
	ttls   map[string]time.Duration
	tags   map[string]map[string]struct{}
	err    error
}

func newMockRedisStore() *mockRedisStore {
	return &mockRedisStore{
		values: map[string][]byte{},
		ttls:   map[string]time.Duration{},
		tags:   map[string]map[string]struct{}{},
	}
}

func (m *mockRedisStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.values[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockRedisStore) SetTagged(_ context.Context, key string, value []byte, ttl time.Duration, tagKeys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	m.ttls[key] = ttl
	for _, t := range tagKeys {
		if m.tags[t] == nil {
			m.tags[t] = map[string]struct{}{}
		}
		m.tags[t][key] = struct{}{}
	}
	return nil
}

func (m *mockRedisStore) DelTagged(_ context.Context, tagKeys []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for _, t := range tagKeys {
		for k := range m.tags[t] {
			if _, ok := m.values[k]; ok {
				delete(m.values, k)
				n++
			}
		}
		delete(m.tags, t)
	}
	return n, nil
}

// mockPubSub loops published messages back to subscribers.
type mockPubSub struct {
	mu   sync.Mutex
	subs []func(string)
	sent []string
	err  error
}

func (m *mockPubSub) Publish(_ context.Context, _ string, message string) error {
	m.mu.Lock()
	if m.err != nil {
		m.mu.Unlock()
		return m.err
	}
	m.sent = append(m.sent, message)
	subs := append([]func(string){}, m.subs...)
	m.mu.Unlock()
	for _, fn := range subs {
		fn(message)
	}
	return nil
}

func (m *mockPubSub) Subscribe(ctx context.Context, _ string, fn func(string)) error {
	m.mu.Lock()
	m.subs = append(m.subs, fn)
	m.mu.Unlock()
	<-ctx.Done()
	return nil
}

func (m *mockPubSub) subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

func (m *mockPubSub) handleRaw(message string) {
	m.mu.Lock()
	subs := append([]func(string){}, m.subs...)
	m.mu.Unlock()
	for _, fn := range subs {
		fn(message)
	}
}
