package recommendation

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/kailas-cloud/jobmatch/internal/db"
	"github.com/kailas-cloud/jobmatch/internal/domain"
	domrec "github.com/kailas-cloud/jobmatch/internal/domain/recommendation"
)

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func testSet() *domrec.Set {
	return &domrec.Set{
		UserID:     "u-1",
		ComputedAt: now,
		Entries: []domrec.Entry{{
			ID:         "3f1c0c1e-0000-4000-8000-000000000001",
			UserID:     "u-1",
			JobID:      "j-1",
			Algorithm:  domrec.Hybrid,
			Score:      0.82,
			Breakdown:  domrec.Breakdown{Content: 0.9, Collaborative: 0.5, Popularity: 1},
			Reason:     "matches 3 of your skills",
			ComputedAt: now,
			ExpiresAt:  now.Add(6 * time.Hour),
			Flags:      domrec.Flags{Viewed: true},
		}},
	}
}

func TestSaveGet_RoundTrip(t *testing.T) {
	repo, ms := newTestRepo(t, 24*time.Hour)
	ctx := context.Background()

	var stored []byte
	ms.setWithTTLFn = func(_ context.Context, key string, value []byte, ttl time.Duration) error {
		if key != "jobmatch:recs:u-1" {
			t.Errorf("unexpected key: %s", key)
		}
		if ttl != 30*time.Hour {
			t.Errorf("ttl = %v, want expiry + retention", ttl)
		}
		stored = value
		return nil
	}
	ms.getFn = func(context.Context, string) ([]byte, error) { return stored, nil }

	set := testSet()
	if err := repo.Save(ctx, set, now); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repo.Get(ctx, "u-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, set) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, set)
	}
}

func TestSave_EmptySetUsesRetention(t *testing.T) {
	repo, ms := newTestRepo(t, time.Hour)
	ms.setWithTTLFn = func(_ context.Context, _ string, _ []byte, ttl time.Duration) error {
		if ttl != time.Hour {
			t.Errorf("ttl = %v", ttl)
		}
		return nil
	}

	if err := repo.Save(context.Background(), &domrec.Set{UserID: "u-1", ComputedAt: now}, now); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t, time.Hour)
	ms.getFn = func(context.Context, string) ([]byte, error) { return nil, db.ErrKeyNotFound }

	_, err := repo.Get(context.Background(), "u-1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t, time.Hour)
	boom := errors.New("down")
	ms.getFn = func(context.Context, string) ([]byte, error) { return nil, boom }

	_, err := repo.Get(context.Background(), "u-1")
	if !errors.Is(err, boom) || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unexpected error: %v", err)
	}
}
