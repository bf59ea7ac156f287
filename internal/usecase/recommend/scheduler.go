package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorhill/cronexpr"
	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/domain"
)

// Batcher runs one recommendation batch.
type Batcher interface {
	RunBatch(ctx context.Context) (BatchReport, error)
}

// Scheduler triggers batches on a cron schedule.
type Scheduler struct {
	expr   *cronexpr.Expression
	batch  Batcher
	logger *zap.Logger
	now    func() time.Time
}

// NewScheduler parses spec (5, 6 or 7 cron fields) and binds it to b.
func NewScheduler(spec string, b Batcher, logger *zap.Logger) (*Scheduler, error) {
	expr, err := cronexpr.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse batch schedule %q: %w", spec, err)
	}
	return &Scheduler{expr: expr, batch: b, logger: logger, now: time.Now}, nil
}

// Next returns the first fire time after t, or the zero time if there is none.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.expr.Next(t)
}

// Run blocks until ctx is done, running a batch at every scheduled time.
// A tick that finds a batch already running is skipped.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		now := s.now()
		next := s.expr.Next(now)
		if next.IsZero() {
			s.logger.Warn("Batch schedule has no future runs")
			return
		}
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, err := s.batch.RunBatch(ctx); err != nil {
			if errors.Is(err, domain.ErrBatchRunning) {
				s.logger.Info("Skipping scheduled batch, previous run still active")
				continue
			}
			s.logger.Error("Scheduled recommendation batch failed", zap.Error(err))
		}
	}
}
