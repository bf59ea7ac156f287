// Package trending lists searchable jobs by time-decayed popularity.
package trending

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/cache"
	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/domain/job"
	"github.com/kailas-cloud/jobmatch/internal/index"
	"github.com/kailas-cloud/jobmatch/internal/metrics"
)

// Defaults.
const (
	DefaultLimit    = 20
	MaxLimit        = 100
	DefaultHalfLife = 72 * time.Hour
)

// Item is one trending job. Score is popularity normalized to [0,1] by the top job.
type Item struct {
	Job   *job.Job
	Score float64
}

// Config tunes the listing.
type Config struct {
	DefaultLimit int
	MaxLimit     int
	HalfLife     time.Duration
	CacheTTL     time.Duration
}

type cachedItem struct {
	JobID string  `json:"id"`
	Score float64 `json:"s"`
}

// Service computes trending listings.
type Service struct {
	index  IndexReader
	cache  Cache
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// New creates a trending service.
func New(ix IndexReader, c Cache, cfg Config, logger *zap.Logger) *Service {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = MaxLimit
	}
	if cfg.HalfLife <= 0 {
		cfg.HalfLife = DefaultHalfLife
	}
	return &Service{index: ix, cache: c, cfg: cfg, logger: logger, now: time.Now}
}

// WithClock overrides the clock used for decay and expiry.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Trending returns up to limit jobs, optionally restricted to one category.
func (s *Service) Trending(ctx context.Context, limit int, category string) ([]Item, error) {
	category = strings.TrimSpace(category)
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	limit = min(limit, s.cfg.MaxLimit)

	key := "trending:" + strconv.Itoa(limit) + ":" + category
	tags := []string{domain.TagTrending}
	if category != "" {
		tags = append(tags, domain.CategoryTag(category))
	}
	cached, err := cache.FetchJSON(ctx, s.cache, key, cache.Policy{TTL: s.cfg.CacheTTL, Tags: tags},
		func(context.Context) ([]cachedItem, error) {
			return s.rank(s.index.Snapshot(), limit, category), nil
		})
	if err != nil {
		return nil, fmt.Errorf("trending %q: %w", category, err)
	}

	snap := s.index.Snapshot()
	out := make([]Item, 0, len(cached))
	for _, c := range cached {
		d, ok := snap.Get(c.JobID)
		if !ok {
			metrics.IndexInconsistentTotal.Inc()
			s.logger.Warn("Trending job missing from index",
				zap.String("job_id", c.JobID), zap.Error(domain.ErrIndexInconsistent))
			continue
		}
		out = append(out, Item{Job: d.Job(), Score: c.Score})
	}
	return out, nil
}

func (s *Service) rank(snap *index.Snapshot, limit int, category string) []cachedItem {
	now := s.now()
	type scored struct {
		j     *job.Job
		score float64
	}
	var all []scored
	top := 0.0
	snap.Each(func(d *index.Document) bool {
		j := d.Job()
		if !j.Searchable(now) || (category != "" && j.CategoryID != category) {
			return true
		}
		p := job.Popularity(j, now, s.cfg.HalfLife)
		top = max(top, p)
		all = append(all, scored{j: j, score: p})
		return true
	})

	slices.SortFunc(all, func(a, b scored) int {
		switch {
		case a.score != b.score:
			if a.score > b.score {
				return -1
			}
			return 1
		case !a.j.PublishedAt.Equal(b.j.PublishedAt):
			if a.j.PublishedAt.After(b.j.PublishedAt) {
				return -1
			}
			return 1
		}
		return strings.Compare(a.j.ID, b.j.ID)
	})
	if len(all) > limit {
		all = all[:limit]
	}

	out := make([]cachedItem, len(all))
	for i, sc := range all {
		score := 0.0
		if top > 0 {
			score = sc.score / top
		}
		out[i] = cachedItem{JobID: sc.j.ID, Score: score}
	}
	return out
}
