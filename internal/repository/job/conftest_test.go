package job

import (
	"context"
	"testing"
	"time"

	domjob "github.com/kailas-cloud/jobmatch/internal/domain/job"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	getFn  func(ctx context.Context, key string) ([]byte, error)
	mgetFn func(ctx context.Context, keys []string) ([][]byte, error)
	setFn  func(ctx context.Context, key string, value []byte) error
	delFn  func(ctx context.Context, keys ...string) error
	scanFn func(ctx context.Context, pattern string) ([]string, error)
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, nil
}

func (m *mockStore) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	if m.mgetFn != nil {
		return m.mgetFn(ctx, keys)
	}
	return make([][]byte, len(keys)), nil
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	if m.delFn != nil {
		return m.delFn(ctx, keys...)
	}
	return nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

func testJob(t *testing.T, id string) *domjob.Job {
	t.Helper()
	lat, lon := 52.52, 13.405
	salMin, salMax := 60000.0, 80000.0
	published := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &domjob.Job{
		ID:               id,
		Title:            "Backend Engineer",
		Description:      "Build APIs",
		Requirements:     "Go, Redis",
		Company:          "Acme",
		CategoryID:       "eng",
		Location:         "Berlin",
		Latitude:         &lat,
		Longitude:        &lon,
		Type:             domjob.FullTime,
		Experience:       domjob.Senior,
		SalaryMin:        &salMin,
		SalaryMax:        &salMax,
		Skills:           []string{"go", "redis"},
		Status:           domjob.Published,
		Language:         "en",
		ViewCount:        10,
		ApplicationCount: 2,
		PublishedAt:      published,
		UpdatedAt:        published.Add(time.Hour),
	}
}
