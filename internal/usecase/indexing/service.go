// Package indexing applies job mutation events to the search index, keeps the
// persisted copy in step and invalidates every cached read they affect.
package indexing

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/domain/job"
	"github.com/kailas-cloud/jobmatch/internal/index"
	"github.com/kailas-cloud/jobmatch/internal/metrics"
)

// Outcome values for applied mutations.
const (
	resultApplied = "applied"
	resultIgnored = "ignored"
)

// Summary counts the effect of a batch of mutations.
type Summary struct {
	Applied int
	Ignored int
}

// Service coordinates index writes, persistence and cache invalidation.
type Service struct {
	index  Index
	jobs   JobStore
	cache  Invalidator
	logger *zap.Logger
	now    func() time.Time
	ready  atomic.Bool
}

// errNotBootstrapped is reported by Ready until Bootstrap succeeds.
var errNotBootstrapped = errors.New("index not bootstrapped")

// New creates an indexing service.
func New(ix Index, jobs JobStore, cache Invalidator, logger *zap.Logger) *Service {
	return &Service{index: ix, jobs: jobs, cache: cache, logger: logger, now: time.Now}
}

// WithClock overrides the clock used for expiry sweeps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Apply applies a single mutation.
func (s *Service) Apply(ctx context.Context, m *job.Mutation) (Summary, error) {
	return s.ApplyAll(ctx, []*job.Mutation{m})
}

// ApplyAll validates every mutation first and rejects the whole batch if any
// is malformed. Valid mutations are applied in order; the affected cache tags
// are invalidated once for the batch before persistence runs.
func (s *Service) ApplyAll(ctx context.Context, ms []*job.Mutation) (Summary, error) {
	for i, m := range ms {
		if err := m.Validate(); err != nil {
			return Summary{}, fmt.Errorf("mutation %d: %w", i, err)
		}
	}

	var sum Summary
	var tags []string
	type write struct {
		save *job.Job
		del  string
	}
	writes := make([]write, 0, len(ms))

	for _, m := range ms {
		ch := s.index.Apply(m)
		if !ch.Applied {
			sum.Ignored++
			metrics.IndexMutationsTotal.WithLabelValues(string(m.Op), resultIgnored).Inc()
			s.logger.Debug("Ignored stale or no-op job mutation",
				zap.String("job_id", m.JobID), zap.String("op", string(m.Op)), zap.Time("ts", m.Timestamp))
			continue
		}
		sum.Applied++
		metrics.IndexMutationsTotal.WithLabelValues(string(m.Op), resultApplied).Inc()
		tags = append(tags, Tags(ch)...)

		if ch.Current != nil {
			rec := *ch.Current
			rec.UpdatedAt = m.Timestamp
			writes = append(writes, write{save: &rec})
		} else {
			writes = append(writes, write{del: m.JobID})
		}
	}
	metrics.IndexDocuments.Set(float64(s.index.Snapshot().Len()))

	s.invalidate(ctx, tags)

	for _, w := range writes {
		if w.save != nil {
			if err := s.jobs.Save(ctx, w.save); err != nil {
				return sum, fmt.Errorf("persist job %s: %w", w.save.ID, err)
			}
			continue
		}
		if err := s.jobs.Delete(ctx, w.del); err != nil {
			return sum, fmt.Errorf("delete job %s: %w", w.del, err)
		}
	}
	return sum, nil
}

// Bootstrap rebuilds the index from persisted job records.
func (s *Service) Bootstrap(ctx context.Context) (int, error) {
	start := time.Now()
	jobs, skipped, err := s.jobs.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("load jobs: %w", err)
	}
	n := s.index.Build(jobs)
	metrics.IndexDocuments.Set(float64(s.index.Snapshot().Len()))
	s.ready.Store(true)

	if skipped > 0 {
		s.logger.Warn("Skipped undecodable job records", zap.Int("skipped", skipped))
	}
	s.logger.Info("Index bootstrapped",
		zap.Int("records", len(jobs)),
		zap.Int("indexed", n),
		zap.Duration("duration", time.Since(start)),
	)
	return n, nil
}

// Ready reports whether the index has been rebuilt from persisted records.
func (s *Service) Ready(_ context.Context) error {
	if !s.ready.Load() {
		return errNotBootstrapped
	}
	return nil
}

// ExpireDue removes documents whose expiry has passed and invalidates their tags.
// Returns the number of removed documents.
func (s *Service) ExpireDue(ctx context.Context) int {
	now := s.now()
	var due []*job.Mutation
	s.index.Snapshot().Each(func(d *index.Document) bool {
		if j := d.Job(); j.ExpiresAt != nil && !now.Before(*j.ExpiresAt) {
			due = append(due, &job.Mutation{JobID: d.ID(), Op: job.OpDelete, Timestamp: d.Version()})
		}
		return true
	})
	if len(due) == 0 {
		return 0
	}

	var tags []string
	removed := 0
	for _, m := range due {
		ch := s.index.Apply(m)
		if !ch.Applied {
			continue
		}
		removed++
		metrics.IndexMutationsTotal.WithLabelValues("expire", resultApplied).Inc()
		tags = append(tags, Tags(ch)...)
	}
	metrics.IndexDocuments.Set(float64(s.index.Snapshot().Len()))
	s.invalidate(ctx, tags)

	if removed > 0 {
		s.logger.Info("Expired jobs removed from index", zap.Int("count", removed))
	}
	return removed
}

// RunExpiry calls ExpireDue every interval until ctx is done.
func (s *Service) RunExpiry(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ExpireDue(ctx)
		}
	}
}

func (s *Service) invalidate(ctx context.Context, tags []string) {
	if len(tags) == 0 {
		return
	}
	slices.Sort(tags)
	tags = slices.Compact(tags)
	if err := s.cache.Invalidate(ctx, tags...); err != nil {
		// Entries under these tags expire by TTL; staleness stays bounded.
		s.logger.Warn("Failed to invalidate cache after index write",
			zap.Strings("tags", tags), zap.Error(err))
	}
}

// Tags returns the cache tags affected by an index change.
func Tags(ch index.Change) []string {
	tags := []string{domain.TagSearch, domain.TagSuggest, domain.TagTrending}
	for _, j := range []*job.Job{ch.Previous, ch.Current} {
		if j == nil {
			continue
		}
		tags = append(tags, domain.JobTag(j.ID))
		if j.CategoryID != "" {
			tags = append(tags, domain.CategoryTag(j.CategoryID))
		}
	}
	return tags
}
