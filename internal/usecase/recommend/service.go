// Package recommend computes, persists and serves personalized job recommendations.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	dominteraction "github.com/kailas-cloud/jobmatch/internal/domain/interaction"
	domprofile "github.com/kailas-cloud/jobmatch/internal/domain/profile"
	domrec "github.com/kailas-cloud/jobmatch/internal/domain/recommendation"
	logpkg "github.com/kailas-cloud/jobmatch/internal/logger"
	"github.com/kailas-cloud/jobmatch/internal/metrics"
)

// Defaults.
const (
	DefaultLimit           = 10
	MaxLimit               = 50
	DefaultNeighbors       = 20
	DefaultTTL             = 6 * time.Hour
	DefaultOnDemandTimeout = 500 * time.Millisecond

	// maxNeighborCandidates bounds how many co-interacting users are compared per request.
	maxNeighborCandidates = 500
)

// Request sources for metrics.
const (
	sourcePersisted = "persisted"
	sourceComputed  = "computed"
	sourceStale     = "stale"
	sourcePopular   = "popular"
	sourceEmpty     = "empty"
)

// Config holds serving and batch settings.
type Config struct {
	DefaultLimit int
	// MaxLimit also caps how many entries are persisted per user.
	MaxLimit        int
	Neighbors       int
	TTL             time.Duration
	OnDemandTimeout time.Duration

	BatchBudget      time.Duration
	BatchMaxUsers    int
	BatchConcurrency int
}

func (c *Config) applyDefaults() {
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = DefaultLimit
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = MaxLimit
	}
	if c.Neighbors <= 0 {
		c.Neighbors = DefaultNeighbors
	}
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.OnDemandTimeout <= 0 {
		c.OnDemandTimeout = DefaultOnDemandTimeout
	}
	if c.BatchConcurrency <= 0 {
		c.BatchConcurrency = 4
	}
}

// Service serves recommendations and runs batch recomputation.
type Service struct {
	index        IndexReader
	engine       *Engine
	profiles     ProfileStore
	interactions InteractionStore
	sets         SetStore
	cfg          Config
	logger       *zap.Logger
	now          func() time.Time
	running      atomic.Bool
}

// New creates a recommendation service.
func New(
	ix IndexReader, engine *Engine, profiles ProfileStore, interactions InteractionStore,
	sets SetStore, cfg Config, logger *zap.Logger,
) *Service {
	cfg.applyDefaults()
	return &Service{
		index: ix, engine: engine, profiles: profiles, interactions: interactions,
		sets: sets, cfg: cfg, logger: logger, now: time.Now,
	}
}

// WithClock overrides the clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Recommendations serves fresh persisted entries when available. Otherwise it
// computes synchronously under the on-demand timeout; on failure it falls back
// to the last persisted entries, then to a popularity-only list, both marked degraded.
// refresh skips the persisted read. Applied and dismissed jobs are removed on every
// path; when they cannot be loaded the listing is empty and degraded.
func (s *Service) Recommendations(ctx context.Context, userID string, limit int, refresh bool) (*domrec.Listing, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required: %w", domain.ErrInvalidEvent)
	}
	limit = s.limit(limit)
	log := logpkg.FromContextOr(ctx, s.logger).With(zap.String("user_id", userID))
	now := s.now()

	in, err := s.exclusionsWithTimeout(ctx, userID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("recommendations for %s: %w", userID, ctx.Err())
		}
		log.Warn("Serving empty recommendations, exclusions unavailable", zap.Error(err))
		metrics.RecommendationRequestsTotal.WithLabelValues(sourceEmpty).Inc()
		return &domrec.Listing{Entries: []domrec.Entry{}, Degraded: true}, nil
	}

	stored, err := s.sets.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Warn("Failed to read persisted recommendations", zap.Error(err))
		}
		stored = nil
	}
	if !refresh && stored != nil && stored.Fresh(now) {
		metrics.RecommendationRequestsTotal.WithLabelValues(sourcePersisted).Inc()
		return listing(stored.Entries, in, limit, false), nil
	}

	set, err := s.computeWithTimeout(ctx, userID, in, now)
	if err == nil {
		if err := s.sets.Save(ctx, set, now); err != nil {
			log.Warn("Failed to persist recommendations", zap.Error(err))
		}
		metrics.RecommendationRequestsTotal.WithLabelValues(sourceComputed).Inc()
		return listing(set.Entries, in, limit, false), nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("recommendations for %s: %w", userID, ctx.Err())
	}
	log.Warn("Serving degraded recommendations", zap.Error(err))

	if stored != nil && len(stored.Entries) > 0 {
		metrics.RecommendationRequestsTotal.WithLabelValues(sourceStale).Inc()
		return listing(stored.Entries, in, limit, true), nil
	}
	metrics.RecommendationRequestsTotal.WithLabelValues(sourcePopular).Inc()
	popular := s.engine.Popular(s.index.Snapshot(), in, now, limit)
	return listing(s.entries(userID, popular, now), in, limit, true), nil
}

func (s *Service) limit(n int) int {
	if n <= 0 {
		return s.cfg.DefaultLimit
	}
	return min(n, s.cfg.MaxLimit)
}

// listing drops applied and excluded entries and marks the rest degraded when asked.
// Flags can lag behind the interaction store, so both are consulted.
func listing(entries []domrec.Entry, in *Input, limit int, degraded bool) *domrec.Listing {
	out := make([]domrec.Entry, 0, min(limit, len(entries)))
	for _, e := range entries {
		if len(out) == limit {
			break
		}
		if e.Flags.Applied || in.excluded(e.JobID) {
			continue
		}
		out = append(out, e)
	}
	return &domrec.Listing{Entries: out, Degraded: degraded}
}

// exclusions loads the interaction weights and dismissals of a user.
func (s *Service) exclusions(ctx context.Context, userID string) (*Input, error) {
	in := &Input{}
	var err error
	if in.Interactions, err = s.interactions.UserJobs(ctx, userID); err != nil {
		return nil, fmt.Errorf("load interactions %s: %w", userID, err)
	}
	if in.Dismissed, err = s.interactions.Dismissed(ctx, userID); err != nil {
		return nil, fmt.Errorf("load dismissals %s: %w", userID, err)
	}
	return in, nil
}

func (s *Service) exclusionsWithTimeout(ctx context.Context, userID string) (*Input, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OnDemandTimeout)
	defer cancel()
	return s.exclusions(ctx, userID)
}

func (s *Service) computeWithTimeout(ctx context.Context, userID string, in *Input, now time.Time) (*domrec.Set, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OnDemandTimeout)
	defer cancel()

	type outcome struct {
		set *domrec.Set
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		set, err := s.compute(ctx, userID, in, now)
		ch <- outcome{set: set, err: err}
	}()
	select {
	case o := <-ch:
		return o.set, o.err
	case <-ctx.Done():
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrRecommendationTimeout)
	}
}

// Recompute scores a user and replaces the persisted set.
func (s *Service) Recompute(ctx context.Context, userID string) (*domrec.Set, error) {
	now := s.now()
	in, err := s.exclusions(ctx, userID)
	if err != nil {
		return nil, err
	}
	set, err := s.compute(ctx, userID, in, now)
	if err != nil {
		return nil, err
	}
	if err := s.sets.Save(ctx, set, now); err != nil {
		return nil, fmt.Errorf("save recommendations %s: %w", userID, err)
	}
	return set, nil
}

func (s *Service) compute(ctx context.Context, userID string, excl *Input, now time.Time) (*domrec.Set, error) {
	in := *excl
	if err := s.gather(ctx, userID, &in); err != nil {
		return nil, err
	}
	scored := s.engine.Score(s.index.Snapshot(), &in, now, s.cfg.MaxLimit)
	return &domrec.Set{UserID: userID, ComputedAt: now, Entries: s.entries(userID, scored, now)}, nil
}

func (s *Service) entries(userID string, scored []Scored, now time.Time) []domrec.Entry {
	out := make([]domrec.Entry, len(scored))
	for i, sc := range scored {
		out[i] = domrec.Entry{
			ID:         uuid.NewString(),
			UserID:     userID,
			JobID:      sc.JobID,
			Algorithm:  sc.Algorithm,
			Score:      sc.Score,
			Breakdown:  sc.Breakdown,
			Reason:     sc.Reason,
			ComputedAt: now,
			ExpiresAt:  now.Add(s.cfg.TTL),
		}
	}
	return out
}

// gather completes in, which already holds the user's exclusions, with the
// profile and nearest neighbors.
func (s *Service) gather(ctx context.Context, userID string, in *Input) error {
	p, err := s.profiles.Get(ctx, userID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		p = &domprofile.Profile{UserID: userID}
	default:
		return fmt.Errorf("load profile %s: %w", userID, err)
	}
	neighbors, err := s.neighbors(ctx, userID, in.Interactions)
	if err != nil {
		return err
	}
	in.Profile = p
	in.Neighbors = neighbors
	return nil
}

func (s *Service) neighbors(ctx context.Context, userID string, own map[string]float64) ([]Neighbor, error) {
	if len(own) == 0 {
		return nil, nil
	}
	seen := map[string]struct{}{}
	for jobID := range own {
		users, err := s.interactions.JobUsers(ctx, jobID)
		if err != nil {
			return nil, fmt.Errorf("load job users %s: %w", jobID, err)
		}
		for u := range users {
			if u != userID {
				seen[u] = struct{}{}
			}
		}
	}
	ids := make([]string, 0, len(seen))
	for u := range seen {
		ids = append(ids, u)
	}
	slices.Sort(ids)
	if len(ids) > maxNeighborCandidates {
		ids = ids[:maxNeighborCandidates]
	}

	others := make(map[string]map[string]float64, len(ids))
	for _, u := range ids {
		jobs, err := s.interactions.UserJobs(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("load interactions %s: %w", u, err)
		}
		others[u] = jobs
	}
	return NearestNeighbors(own, others, s.cfg.Neighbors), nil
}

// MarkClicked sets the clicked flag on the user's entry for jobID.
func (s *Service) MarkClicked(ctx context.Context, userID, jobID string) error {
	return s.updateEntry(ctx, userID, jobID, func(set *domrec.Set, i int) {
		set.Entries[i].Flags.Clicked = true
	})
}

// ApplyInteraction reflects a view or application of a recommended job in its flags.
// Interactions with jobs that were never recommended are ignored.
func (s *Service) ApplyInteraction(ctx context.Context, e *dominteraction.Event) error {
	var set func(f *domrec.Flags)
	switch e.Type {
	case dominteraction.View:
		set = func(f *domrec.Flags) { f.Viewed = true }
	case dominteraction.Apply:
		set = func(f *domrec.Flags) { f.Applied = true }
	default:
		return nil
	}
	err := s.updateEntry(ctx, e.UserID, e.JobID, func(rs *domrec.Set, i int) { set(&rs.Entries[i].Flags) })
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

// Forget drops the user's entry for jobID, e.g. after a dismissal.
func (s *Service) Forget(ctx context.Context, userID, jobID string) error {
	err := s.updateEntry(ctx, userID, jobID, func(set *domrec.Set, i int) {
		set.Entries = slices.Delete(set.Entries, i, i+1)
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

func (s *Service) updateEntry(ctx context.Context, userID, jobID string, fn func(set *domrec.Set, i int)) error {
	set, err := s.sets.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("recommendations for %s: %w", userID, err)
	}
	i := slices.IndexFunc(set.Entries, func(e domrec.Entry) bool { return e.JobID == jobID })
	if i < 0 {
		return fmt.Errorf("recommendation %s for %s: %w", jobID, userID, domain.ErrNotFound)
	}
	fn(set, i)
	if err := s.sets.Save(ctx, set, s.now()); err != nil {
		return fmt.Errorf("save recommendations %s: %w", userID, err)
	}
	return nil
}
