package recommend

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/domain"
)

type countingBatcher struct {
	calls atomic.Int32
	err   error
}

func (b *countingBatcher) RunBatch(context.Context) (BatchReport, error) {
	b.calls.Add(1)
	return BatchReport{}, b.err
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	if _, err := NewScheduler("not a cron", &countingBatcher{}, zap.NewNop()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestScheduler_Next(t *testing.T) {
	s, err := NewScheduler("0 */6 * * *", &countingBatcher{}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	from := time.Date(2026, 7, 1, 7, 30, 0, 0, time.UTC)
	if got, want := s.Next(from), time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("Next = %v, want %v", got, want)
	}
}

func TestScheduler_RunFiresUntilCancelled(t *testing.T) {
	// seven fields: fires every second
	b := &countingBatcher{err: domain.ErrBatchRunning}
	s, err := NewScheduler("* * * * * * *", b, zap.NewNop())
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(3 * time.Second)
	for b.calls.Load() == 0 {
		select {
		case <-deadline:
			cancel()
			t.Fatal("scheduler never fired")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
