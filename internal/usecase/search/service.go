// Package search runs ranked, keyset-paginated job search over the index snapshot.
package search

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/cache"
	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/domain/job"
	"github.com/kailas-cloud/jobmatch/internal/domain/search/cursor"
	"github.com/kailas-cloud/jobmatch/internal/domain/search/mode"
	"github.com/kailas-cloud/jobmatch/internal/domain/search/query"
	"github.com/kailas-cloud/jobmatch/internal/domain/search/result"
	"github.com/kailas-cloud/jobmatch/internal/index"
	logpkg "github.com/kailas-cloud/jobmatch/internal/logger"
	"github.com/kailas-cloud/jobmatch/internal/metrics"
)

// Request is one search call.
type Request struct {
	Query    string
	Lang     string
	Filters  query.Filters
	Cursor   string
	PageSize int
}

// Hit is a ranked result with the job it refers to.
type Hit struct {
	result.Result
	Job *job.Job
}

// Page is one page of hits.
type Page struct {
	Hits []Hit
	Mode mode.Mode
	// NextCursor is empty on the last page.
	NextCursor string
}

// Config holds pagination and caching settings.
type Config struct {
	DefaultPageSize int
	MaxPageSize     int
	CacheTTL        time.Duration
}

// Service handles search requests.
type Service struct {
	index  IndexReader
	parser *Parser
	ranker *Ranker
	codec  *cursor.Codec
	cache  Cache
	cfg    Config
	logger *zap.Logger
}

// New creates a search service.
func New(
	ix IndexReader, parser *Parser, ranker *Ranker, codec *cursor.Codec,
	c Cache, cfg Config, logger *zap.Logger,
) *Service {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = query.DefaultPageSize
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = query.MaxPageSize
	}
	return &Service{
		index: ix, parser: parser, ranker: ranker, codec: codec,
		cache: c, cfg: cfg, logger: logger,
	}
}

// cachedPage is the cached form of one ranked page.
type cachedPage struct {
	Keys []result.SortKey `json:"keys"`
	// Offset is the 0-based position of Keys[0] in the full ranking.
	Offset int    `json:"offset"`
	Next   string `json:"next,omitempty"`
}

// Search parses, ranks and paginates. Identical requests against an unchanged
// index return identical pages.
func (s *Service) Search(ctx context.Context, req *Request) (*Page, error) {
	q, err := s.parser.Parse(req.Query, req.Lang, req.Filters)
	if err != nil {
		return nil, err
	}
	scope := q.Fingerprint()

	var after *result.SortKey
	if req.Cursor != "" {
		k, err := s.codec.Decode(req.Cursor, scope)
		if err != nil {
			return nil, err
		}
		if k.Mode != q.Mode() {
			return nil, fmt.Errorf("cursor mode %s: %w", k.Mode, domain.ErrInvalidCursor)
		}
		after = &k
	}
	size := s.pageSize(req.PageSize)

	key := "search:" + scope + ":" + strconv.Itoa(size) + ":" + req.Cursor
	policy := cache.Policy{TTL: s.cfg.CacheTTL, Tags: []string{domain.TagSearch}}
	cp, err := cache.FetchJSON(ctx, s.cache, key, policy, func(context.Context) (cachedPage, error) {
		return s.rankPage(&q, scope, after, size), nil
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", scope, err)
	}
	return s.hydrate(ctx, &cp, q.Mode()), nil
}

func (s *Service) pageSize(n int) int {
	if n <= 0 {
		return s.cfg.DefaultPageSize
	}
	return min(n, s.cfg.MaxPageSize)
}

// rankPage ranks against the current snapshot and cuts the page strictly after the cursor key.
func (s *Service) rankPage(q *query.Query, scope string, after *result.SortKey, size int) cachedPage {
	start := time.Now()
	keys := s.ranker.Rank(s.index.Snapshot(), q)
	metrics.SearchDuration.WithLabelValues(string(q.Mode())).Observe(time.Since(start).Seconds())

	from := 0
	if after != nil {
		from = sort.Search(len(keys), func(i int) bool { return after.Before(keys[i]) })
	}
	to := min(from+size, len(keys))
	cp := cachedPage{Keys: keys[from:to], Offset: from}
	if to < len(keys) && to > from {
		cp.Next = s.codec.Encode(keys[to-1], scope)
	}
	return cp
}

// hydrate attaches job records from the current snapshot. A ranked job missing
// from the snapshot is dropped, logged and counted.
func (s *Service) hydrate(ctx context.Context, cp *cachedPage, m mode.Mode) *Page {
	snap := s.index.Snapshot()
	page := &Page{Hits: make([]Hit, 0, len(cp.Keys)), Mode: m, NextCursor: cp.Next}
	for i, k := range cp.Keys {
		d, ok := snap.Get(k.JobID)
		if !ok {
			metrics.IndexInconsistentTotal.Inc()
			logpkg.FromContextOr(ctx, s.logger).Warn("Ranked job missing from index",
				zap.String("job_id", k.JobID),
				zap.Error(domain.ErrIndexInconsistent),
			)
			continue
		}
		page.Hits = append(page.Hits, Hit{Result: result.New(k, cp.Offset+i+1), Job: d.Job()})
	}
	return page
}

var _ IndexReader = (*index.Index)(nil)
