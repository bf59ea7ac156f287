package recommend

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/metrics"
)

// Batch outcomes for metrics.
const (
	batchCompleted = "completed"
	batchPartial   = "partial"
	batchSkipped   = "skipped"
	batchFailed    = "failed"
)

// BatchReport summarizes one batch run.
type BatchReport struct {
	Users     int
	Succeeded int
	Failed    int
	// Skipped counts users not reached before the budget ran out.
	Skipped  int
	Duration time.Duration
}

// RunBatch recomputes recommendations for every active user. Only one batch runs
// at a time; a concurrent call fails with domain.ErrBatchRunning. The budget is
// checked between users only, so every started user is written completely.
func (s *Service) RunBatch(ctx context.Context) (BatchReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		metrics.RecommendationBatchRunsTotal.WithLabelValues(batchSkipped).Inc()
		return BatchReport{}, domain.ErrBatchRunning
	}
	defer s.running.Store(false)

	start := time.Now()
	if s.cfg.BatchBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.BatchBudget)
		defer cancel()
	}

	users, err := s.profiles.ActiveUsers(ctx)
	if err != nil {
		metrics.RecommendationBatchRunsTotal.WithLabelValues(batchFailed).Inc()
		return BatchReport{}, fmt.Errorf("list active users: %w", err)
	}
	if s.cfg.BatchMaxUsers > 0 && len(users) > s.cfg.BatchMaxUsers {
		users = users[:s.cfg.BatchMaxUsers]
	}

	var ok, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.BatchConcurrency)
	for _, u := range users {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			if _, err := s.Recompute(context.WithoutCancel(gctx), u); err != nil {
				failed.Add(1)
				metrics.RecommendationBatchUsersTotal.WithLabelValues("error").Inc()
				s.logger.Warn("Failed to recompute recommendations", zap.String("user_id", u), zap.Error(err))
				return nil
			}
			ok.Add(1)
			metrics.RecommendationBatchUsersTotal.WithLabelValues("ok").Inc()
			return nil
		})
	}
	_ = g.Wait()

	r := BatchReport{
		Users:     len(users),
		Succeeded: int(ok.Load()),
		Failed:    int(failed.Load()),
		Duration:  time.Since(start),
	}
	r.Skipped = r.Users - r.Succeeded - r.Failed

	outcome := batchCompleted
	if r.Skipped > 0 {
		outcome = batchPartial
	}
	metrics.RecommendationBatchRunsTotal.WithLabelValues(outcome).Inc()
	s.logger.Info("Recommendation batch finished",
		zap.String("result", outcome),
		zap.Int("users", r.Users),
		zap.Int("succeeded", r.Succeeded),
		zap.Int("failed", r.Failed),
		zap.Int("skipped", r.Skipped),
		zap.Duration("duration", r.Duration),
	)
	return r, nil
}
