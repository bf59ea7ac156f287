package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestBus_DeliversRemoteInvalidations(t *testing.T) {
	ps := &mockPubSub{}
	local := NewBus(ps, "", zap.NewNop())
	remote := NewBus(ps, "", zap.NewNop())
	if local.Origin() == remote.Origin() {
		t.Fatal("origins must differ")
	}

	var mu sync.Mutex
	var got [][]string
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		local.Run(ctx, func(_ context.Context, tags ...string) error {
			mu.Lock()
			got = append(got, tags)
			mu.Unlock()
			return nil
		})
	}()

	deadline := time.Now().Add(time.Second)
	for ps.subscribers() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if err := local.Publish(context.Background(), []string{"own"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := remote.Publish(context.Background(), []string{"jobs:search", "job:1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	ps.handleRaw("not json")

	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("applied %d invalidations, want 1 (own messages skipped): %v", len(got), got)
	}
	if got[0][0] != "jobs:search" || got[0][1] != "job:1" {
		t.Errorf("tags = %v", got[0])
	}
}

func TestCache_WiredToBus(t *testing.T) {
	ps := &mockPubSub{}
	busA := NewBus(ps, "", zap.NewNop())
	busB := NewBus(ps, "", zap.NewNop())
	a, _, _ := newTestCache(t, Config{}, WithNotifier(busA))
	b, _, _ := newTestCache(t, Config{}, WithNotifier(busB))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go busB.Run(ctx, b.InvalidateLocal)

	deadline := time.Now().Add(time.Second)
	for ps.subscribers() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	_ = b.Set(context.Background(), "k", []byte("v"), Policy{TTL: time.Minute, Tags: []string{"t"}})
	if err := a.Invalidate(context.Background(), "t"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok, _ := b.Get(context.Background(), "k"); ok {
		t.Fatal("peer cache should drop entries invalidated elsewhere")
	}
}
