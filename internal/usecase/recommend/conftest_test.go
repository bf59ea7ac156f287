package recommend

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	domprofile "github.com/kailas-cloud/jobmatch/internal/domain/profile"
	domrec "github.com/kailas-cloud/jobmatch/internal/domain/recommendation"
)

type mockProfiles struct {
	getFn    func(ctx context.Context, userID string) (*domprofile.Profile, error)
	activeFn func(ctx context.Context) ([]string, error)
}

func (m *mockProfiles) Get(ctx context.Context, userID string) (*domprofile.Profile, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockProfiles) ActiveUsers(ctx context.Context) ([]string, error) {
	if m.activeFn != nil {
		return m.activeFn(ctx)
	}
	return nil, nil
}

type mockInteractions struct {
	userJobs  map[string]map[string]float64
	dismissed map[string]map[string]struct{}
	err       error
}

func (m *mockInteractions) UserJobs(_ context.Context, userID string) (map[string]float64, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.userJobs[userID], nil
}

func (m *mockInteractions) JobUsers(_ context.Context, jobID string) (map[string]float64, error) {
	out := map[string]float64{}
	for u, jobs := range m.userJobs {
		if w, ok := jobs[jobID]; ok {
			out[u] = w
		}
	}
	return out, nil
}

func (m *mockInteractions) Dismissed(_ context.Context, userID string) (map[string]struct{}, error) {
	return m.dismissed[userID], nil
}

// memSets is an in-memory SetStore keeping copies.
type memSets struct {
	mu    sync.Mutex
	sets  map[string]domrec.Set
	saves int
	err   error
}

func newMemSets() *memSets { return &memSets{sets: map[string]domrec.Set{}} }

func (m *memSets) Save(_ context.Context, set *domrec.Set, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	cp := *set
	cp.Entries = slices.Clone(set.Entries)
	m.sets[set.UserID] = cp
	m.saves++
	return nil
}

func (m *memSets) Get(_ context.Context, userID string) (*domrec.Set, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sets[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	s.Entries = slices.Clone(s.Entries)
	return &s, nil
}

func (m *memSets) put(set domrec.Set) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[set.UserID] = set
}

func (m *memSets) get(userID string) (domrec.Set, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sets[userID]
	return s, ok
}
