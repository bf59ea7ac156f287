// Package suggest completes partial query text from the indexed vocabulary.
package suggest

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/analysis"
	"github.com/kailas-cloud/jobmatch/internal/cache"
	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/index"
)

// Defaults.
const (
	DefaultLimit       = 10
	MaxLimit           = 50
	DefaultThreshold   = 0.3
	DefaultPrefixBoost = 0.3
	// MaxPrefixLength bounds the accepted prefix.
	MaxPrefixLength = 100
)

// Suggestion is one completion candidate.
type Suggestion struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
	// DF is the number of documents carrying the term.
	DF int `json:"df"`
}

// Config tunes candidate selection.
type Config struct {
	DefaultLimit int
	MaxLimit     int
	Threshold    float64
	PrefixBoost  float64
	// MinDescriptionDF admits description-only terms once they appear in at
	// least this many job descriptions. Title terms are always admitted.
	MinDescriptionDF int
	CacheTTL         time.Duration
}

func (c *Config) applyDefaults() {
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = DefaultLimit
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = MaxLimit
	}
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	if c.PrefixBoost < 0 {
		c.PrefixBoost = 0
	}
	if c.MinDescriptionDF <= 0 {
		c.MinDescriptionDF = 1
	}
}

// Service ranks vocabulary terms against a prefix.
type Service struct {
	index  IndexReader
	cache  Cache
	cfg    Config
	logger *zap.Logger
}

// New creates a suggest service.
func New(ix IndexReader, c Cache, cfg Config, logger *zap.Logger) *Service {
	cfg.applyDefaults()
	return &Service{index: ix, cache: c, cfg: cfg, logger: logger}
}

// Suggest returns up to limit terms most similar to prefix. An empty prefix
// yields no suggestions.
func (s *Service) Suggest(ctx context.Context, prefix string, limit int) ([]Suggestion, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return []Suggestion{}, nil
	}
	if len(prefix) > MaxPrefixLength {
		return nil, domain.NewFilterError("prefix", fmt.Sprintf("too long (max %d chars)", MaxPrefixLength))
	}
	limit = s.limit(limit)

	key := "suggest:" + strconv.Itoa(limit) + ":" + prefix
	policy := cache.Policy{TTL: s.cfg.CacheTTL, Tags: []string{domain.TagSuggest}}
	out, err := cache.FetchJSON(ctx, s.cache, key, policy, func(context.Context) ([]Suggestion, error) {
		return s.rank(s.index.Snapshot(), prefix, limit), nil
	})
	if err != nil {
		return nil, fmt.Errorf("suggest %q: %w", prefix, err)
	}
	return out, nil
}

func (s *Service) limit(n int) int {
	if n <= 0 {
		return s.cfg.DefaultLimit
	}
	return min(n, s.cfg.MaxLimit)
}

func (s *Service) rank(snap *index.Snapshot, prefix string, limit int) []Suggestion {
	grams := analysis.Trigrams(prefix)
	out := []Suggestion{}
	snap.Vocabulary(func(term string, st *index.TermStats) bool {
		if st.TitleDF == 0 && st.DescriptionDF < s.cfg.MinDescriptionDF {
			return true
		}
		score := grams.Similarity(st.Trigrams)
		if strings.HasPrefix(term, prefix) {
			score = min(1, score+s.cfg.PrefixBoost)
		}
		if score < s.cfg.Threshold {
			return true
		}
		out = append(out, Suggestion{Term: term, Score: score, DF: st.TitleDF + st.DescriptionDF})
		return true
	})

	slices.SortFunc(out, func(a, b Suggestion) int {
		switch {
		case a.Score != b.Score:
			if a.Score > b.Score {
				return -1
			}
			return 1
		case a.DF != b.DF:
			return b.DF - a.DF
		}
		return strings.Compare(a.Term, b.Term)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
