package profile

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/domain/geo"
	"github.com/kailas-cloud/jobmatch/internal/domain/job"
	domprofile "github.com/kailas-cloud/jobmatch/internal/domain/profile"
)

func TestSaveGet_RoundTrip(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()
	p := &domprofile.Profile{
		UserID:             "u-1",
		Skills:             []string{"go", "c++, rust"},
		PreferredLocations: []string{"Berlin"},
		PreferredTypes:     []job.Type{job.FullTime, job.Contract},
		OpenToRemote:       true,
		Location:           &geo.Point{Latitude: 52.52, Longitude: 13.405},
		Active:             true,
		UpdatedAt:          time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC),
	}

	hash := map[string]string{}
	ms.hsetFn = func(_ context.Context, key string, fields map[string]string) error {
		if key != "jobmatch:profile:u-1" {
			t.Errorf("unexpected key: %s", key)
		}
		for k, v := range fields {
			hash[k] = v
		}
		return nil
	}
	ms.hgetAllFn = func(context.Context, string) (map[string]string, error) { return hash, nil }
	var added []string
	ms.saddFn = func(_ context.Context, key string, members ...string) error {
		if key != "jobmatch:users:active" {
			t.Errorf("unexpected key: %s", key)
		}
		added = append(added, members...)
		return nil
	}

	if err := repo.Save(ctx, p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(added) != 1 || added[0] != "u-1" {
		t.Errorf("active set additions = %v", added)
	}
	got, err := repo.Get(ctx, "u-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, p) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, p)
	}
}

func TestSave_ClearsDroppedLocation(t *testing.T) {
	repo, ms := newTestRepo(t)
	var fields map[string]string
	ms.hsetFn = func(_ context.Context, _ string, f map[string]string) error {
		fields = f
		return nil
	}

	if err := repo.Save(context.Background(), &domprofile.Profile{UserID: "u-1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if v, ok := fields[fieldLat]; !ok || v != "" {
		t.Errorf("lat field = %q, %v; want written empty", v, ok)
	}
	got := parseHashFields("u-1", fields)
	if got.Location != nil {
		t.Errorf("Location = %+v, want nil", got.Location)
	}
}

func TestSave_InactiveLeavesActiveSet(t *testing.T) {
	repo, ms := newTestRepo(t)
	var removed []string
	ms.sremFn = func(_ context.Context, _ string, members ...string) error {
		removed = append(removed, members...)
		return nil
	}
	ms.saddFn = func(context.Context, string, ...string) error {
		t.Error("inactive profile must not be added")
		return nil
	}

	if err := repo.Save(context.Background(), &domprofile.Profile{UserID: "u-2"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(removed) != 1 || removed[0] != "u-2" {
		t.Errorf("removed = %v", removed)
	}
}

func TestSave_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hsetFn = func(context.Context, string, map[string]string) error { return errors.New("down") }

	if err := repo.Save(context.Background(), &domprofile.Profile{UserID: "u-1"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Get(context.Background(), "nobody")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestActiveUsers_Sorted(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.smembersFn = func(context.Context, string) ([]string, error) {
		return []string{"u-3", "u-1", "u-2"}, nil
	}

	users, err := repo.ActiveUsers(context.Background())
	if err != nil {
		t.Fatalf("ActiveUsers: %v", err)
	}
	if !reflect.DeepEqual(users, []string{"u-1", "u-2", "u-3"}) {
		t.Fatalf("users = %v", users)
	}
}
