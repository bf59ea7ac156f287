package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	dominteraction "github.com/kailas-cloud/jobmatch/internal/domain/interaction"
	domprofile "github.com/kailas-cloud/jobmatch/internal/domain/profile"
)

type mockProfiles struct {
	saveFn func(ctx context.Context, p *domprofile.Profile) error
}

func (m *mockProfiles) Save(ctx context.Context, p *domprofile.Profile) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, p)
	}
	return nil
}

type mockInteractions struct {
	recorded  []dominteraction.Event
	dismissed [][2]string
	err       error
}

func (m *mockInteractions) Record(_ context.Context, e *dominteraction.Event) error {
	if m.err != nil {
		return m.err
	}
	m.recorded = append(m.recorded, *e)
	return nil
}

func (m *mockInteractions) Recent(_ context.Context, userID string, n int64) ([]dominteraction.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []dominteraction.Event
	for _, e := range m.recorded {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	if int64(len(out)) > n {
		out = out[int64(len(out))-n:]
	}
	return out, nil
}

func (m *mockInteractions) Dismiss(_ context.Context, userID, jobID string) error {
	if m.err != nil {
		return m.err
	}
	m.dismissed = append(m.dismissed, [2]string{userID, jobID})
	return nil
}

type mockRecs struct {
	applied   int
	forgotten int
	err       error
}

func (m *mockRecs) ApplyInteraction(context.Context, *dominteraction.Event) error {
	m.applied++
	return m.err
}

func (m *mockRecs) Forget(context.Context, string, string) error {
	m.forgotten++
	return m.err
}

var ts = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

func TestUpsertProfile(t *testing.T) {
	var saved *domprofile.Profile
	svc := New(&mockProfiles{saveFn: func(_ context.Context, p *domprofile.Profile) error {
		saved = p
		return nil
	}}, &mockInteractions{}, nil, zap.NewNop())

	if err := svc.UpsertProfile(context.Background(), &domprofile.Profile{UserID: "u1", Skills: []string{"go"}}); err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}
	if saved == nil || saved.UserID != "u1" {
		t.Fatalf("saved = %+v", saved)
	}

	err := svc.UpsertProfile(context.Background(), &domprofile.Profile{})
	if !errors.Is(err, domain.ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestUpsertProfile_StoreError(t *testing.T) {
	svc := New(&mockProfiles{saveFn: func(context.Context, *domprofile.Profile) error {
		return errors.New("down")
	}}, &mockInteractions{}, nil, zap.NewNop())

	if err := svc.UpsertProfile(context.Background(), &domprofile.Profile{UserID: "u1"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestRecordInteraction(t *testing.T) {
	store := &mockInteractions{}
	recs := &mockRecs{err: errors.New("flags unavailable")}
	svc := New(&mockProfiles{}, store, recs, zap.NewNop())

	e := &dominteraction.Event{UserID: "u1", JobID: "j1", Type: dominteraction.Apply, Timestamp: ts}
	if err := svc.RecordInteraction(context.Background(), e); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}
	if len(store.recorded) != 1 || recs.applied != 1 {
		t.Fatalf("recorded = %d, flag updates = %d", len(store.recorded), recs.applied)
	}

	bad := &dominteraction.Event{UserID: "u1", JobID: "j1", Type: "like", Timestamp: ts}
	if err := svc.RecordInteraction(context.Background(), bad); !errors.Is(err, domain.ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
	if len(store.recorded) != 1 {
		t.Error("invalid event recorded")
	}
}

func TestRecordInteraction_StoreErrorSkipsFlags(t *testing.T) {
	recs := &mockRecs{}
	svc := New(&mockProfiles{}, &mockInteractions{err: errors.New("down")}, recs, zap.NewNop())

	e := &dominteraction.Event{UserID: "u1", JobID: "j1", Type: dominteraction.View, Timestamp: ts}
	if err := svc.RecordInteraction(context.Background(), e); err == nil {
		t.Fatal("expected error")
	}
	if recs.applied != 0 {
		t.Error("flags updated for an unrecorded interaction")
	}
}

func TestDismiss(t *testing.T) {
	store := &mockInteractions{}
	recs := &mockRecs{}
	svc := New(&mockProfiles{}, store, recs, zap.NewNop())

	if err := svc.Dismiss(context.Background(), "u1", "j1"); err != nil {
		t.Fatalf("Dismiss: %v", err)
	}
	if len(store.dismissed) != 1 || recs.forgotten != 1 {
		t.Fatalf("dismissed = %v, forgotten = %d", store.dismissed, recs.forgotten)
	}
	if err := svc.Dismiss(context.Background(), "", "j1"); !errors.Is(err, domain.ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestHistory(t *testing.T) {
	store := &mockInteractions{}
	svc := New(&mockProfiles{}, store, nil, zap.NewNop())
	ctx := context.Background()
	for i, jobID := range []string{"j1", "j2", "j3"} {
		e := &dominteraction.Event{UserID: "u1", JobID: jobID, Type: dominteraction.View, Timestamp: ts.Add(time.Duration(i) * time.Minute)}
		if err := svc.RecordInteraction(ctx, e); err != nil {
			t.Fatalf("RecordInteraction: %v", err)
		}
	}
	_ = svc.RecordInteraction(ctx, &dominteraction.Event{UserID: "u2", JobID: "j9", Type: dominteraction.Save, Timestamp: ts})

	got, err := svc.History(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 2 || got[0].JobID != "j3" || got[1].JobID != "j2" {
		t.Fatalf("History = %+v, want j3, j2", got)
	}
}

func TestHistory_Errors(t *testing.T) {
	svc := New(&mockProfiles{}, &mockInteractions{}, nil, zap.NewNop())
	if _, err := svc.History(context.Background(), "", 0); !errors.Is(err, domain.ErrInvalidEvent) {
		t.Errorf("empty user: err = %v", err)
	}

	svc = New(&mockProfiles{}, &mockInteractions{err: errors.New("down")}, nil, zap.NewNop())
	if _, err := svc.History(context.Background(), "u1", 0); err == nil {
		t.Error("store error not returned")
	}
}
