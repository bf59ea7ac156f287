package result

import (
	"time"

	"github.com/kailas-cloud/jobmatch/internal/domain/search/mode"
)

// SortKey is the position of a hit in the total search order. It is what
// pagination cursors carry.
type SortKey struct {
	Mode        mode.Mode `json:"m"`
	Score       float64   `json:"s"`
	Views       int64     `json:"v"`
	PublishedAt time.Time `json:"p"`
	JobID       string    `json:"id"`
}

// Before reports whether k sorts strictly before o.
// Relevance: score desc, views desc, published desc, id asc.
// Recency: published desc, id asc.
func (k SortKey) Before(o SortKey) bool {
	if k.Mode == mode.Relevance {
		if k.Score != o.Score {
			return k.Score > o.Score
		}
		if k.Views != o.Views {
			return k.Views > o.Views
		}
	}
	if !k.PublishedAt.Equal(o.PublishedAt) {
		return k.PublishedAt.After(o.PublishedAt)
	}
	return k.JobID < o.JobID
}

// Equal reports whether two keys denote the same position.
func (k SortKey) Equal(o SortKey) bool {
	return k.Mode == o.Mode && k.Score == o.Score && k.Views == o.Views &&
		k.PublishedAt.Equal(o.PublishedAt) && k.JobID == o.JobID
}

// Result is a single ranked search hit. Never persisted.
type Result struct {
	key  SortKey
	rank int
}

// New creates a ranked result at the given 1-based rank.
func New(key SortKey, rank int) Result {
	return Result{key: key, rank: rank}
}

// JobID returns the job identifier.
func (r *Result) JobID() string { return r.key.JobID }

// Score returns the relevance score (0 in recency mode).
func (r *Result) Score() float64 { return r.key.Score }

// Rank returns the 1-based position in the full result list.
func (r *Result) Rank() int { return r.rank }

// Key returns the sort key used for pagination.
func (r *Result) Key() SortKey { return r.key }
