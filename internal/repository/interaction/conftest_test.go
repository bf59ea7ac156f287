package interaction

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/kailas-cloud/jobmatch/internal/db"
)

// memStore is an in-memory fake of the consumer interface with Redis semantics
// for capped lists, ZADD GT and sets.
type memStore struct {
	mu    sync.Mutex
	lists map[string][]string
	zsets map[string]map[string]float64
	sets  map[string]map[string]struct{}
	err   error
}

func newMemStore() *memStore {
	return &memStore{
		lists: map[string][]string{},
		zsets: map[string]map[string]float64{},
		sets:  map[string]map[string]struct{}{},
	}
}

func (m *memStore) RPushCapped(_ context.Context, key string, maxLen int64, values ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	l := append(m.lists[key], values...)
	if int64(len(l)) > maxLen {
		l = l[int64(len(l))-maxLen:]
	}
	m.lists[key] = l
	return nil
}

func (m *memStore) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	l := m.lists[key]
	n := int64(len(l))
	if start < 0 {
		start = max(n+start, 0)
	}
	if stop < 0 {
		stop = n + stop
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop {
		return nil, nil
	}
	return append([]string(nil), l[start:stop+1]...), nil
}

func (m *memStore) ZAddMulti(_ context.Context, items []db.ZAddItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, it := range items {
		z := m.zsets[it.Key]
		if z == nil {
			z = map[string]float64{}
			m.zsets[it.Key] = z
		}
		if cur, ok := z[it.Member]; !ok || it.Score > cur {
			z[it.Member] = it.Score
		}
	}
	return nil
}

func (m *memStore) ZRangeWithScores(_ context.Context, key string) ([]db.ScoredMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []db.ScoredMember
	for member, score := range m.zsets[key] {
		out = append(out, db.ScoredMember{Member: member, Score: score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	return out, nil
}

func (m *memStore) SAdd(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	s := m.sets[key]
	if s == nil {
		s = map[string]struct{}{}
		m.sets[key] = s
	}
	for _, v := range members {
		s[v] = struct{}{}
	}
	return nil
}

func (m *memStore) SMembers(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []string
	for v := range m.sets[key] {
		out = append(out, v)
	}
	return out, nil
}

func newTestRepo(t *testing.T, limit int64) (*Repo, *memStore) {
	t.Helper()
	ms := newMemStore()
	return New(ms, limit), ms
}
