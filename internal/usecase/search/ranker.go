package search

import (
	"math"
	"slices"
	"time"

	"github.com/kailas-cloud/jobmatch/internal/analysis"
	"github.com/kailas-cloud/jobmatch/internal/domain/search/mode"
	"github.com/kailas-cloud/jobmatch/internal/domain/search/query"
	"github.com/kailas-cloud/jobmatch/internal/domain/search/result"
	"github.com/kailas-cloud/jobmatch/internal/index"
)

// RankerConfig tunes scoring.
type RankerConfig struct {
	// FuzzyDamping scales fuzzy scores. FuzzyDamping * max field weight must be
	// below the min field weight so a fuzzy match never outranks an exact one.
	FuzzyDamping float64
	// FuzzyThreshold is the minimum trigram similarity that counts as a match.
	FuzzyThreshold float64
	// Epsilon drops relevance hits scoring below it.
	Epsilon float64
	// MaxCandidates caps the ranked list; 0 keeps every hit.
	MaxCandidates int
}

// DefaultRankerConfig returns the default scoring parameters.
func DefaultRankerConfig() RankerConfig {
	return RankerConfig{FuzzyDamping: 0.25, FuzzyThreshold: 0.3, Epsilon: 0.01}
}

// Ranker scores index documents against a query. Stateless and safe for concurrent use.
type Ranker struct {
	cfg RankerConfig
	now func() time.Time
}

// NewRanker creates a ranker. now decides job expiry.
func NewRanker(cfg RankerConfig, now func() time.Time) *Ranker {
	if now == nil {
		now = time.Now
	}
	return &Ranker{cfg: cfg, now: now}
}

// Rank returns the sort keys of every matching document in total order.
func (r *Ranker) Rank(snap *index.Snapshot, q *query.Query) []result.SortKey {
	now := r.now()
	f := q.Filters()

	var keys []result.SortKey
	if q.Mode() == mode.Recency {
		snap.Each(func(d *index.Document) bool {
			if eligible(d, f, now) {
				keys = append(keys, sortKey(mode.Recency, 0, d))
			}
			return true
		})
	} else {
		keys = r.rankRelevance(snap, q, now)
	}

	slices.SortFunc(keys, compareKeys)
	if r.cfg.MaxCandidates > 0 && len(keys) > r.cfg.MaxCandidates {
		keys = keys[:r.cfg.MaxCandidates]
	}
	return keys
}

func (r *Ranker) rankRelevance(snap *index.Snapshot, q *query.Query, now time.Time) []result.SortKey {
	terms := q.Terms()
	w := snap.Weights()

	exact := make(map[string]struct{})
	for _, t := range terms {
		for id := range snap.Postings(t) {
			exact[id] = struct{}{}
		}
	}

	similar := r.similarTerms(snap, terms)
	fuzzy := make(map[string]struct{})
	for _, sims := range similar {
		for v := range sims {
			for id := range snap.Postings(v) {
				if _, ok := exact[id]; !ok {
					fuzzy[id] = struct{}{}
				}
			}
		}
	}

	keys := make([]result.SortKey, 0, len(exact)+len(fuzzy))
	score := func(id string, fn func(*index.Document) float64) {
		d, ok := snap.Get(id)
		if !ok || !eligible(d, q.Filters(), now) {
			return
		}
		s := fn(d)
		if s < r.cfg.Epsilon {
			return
		}
		keys = append(keys, sortKey(mode.Relevance, s, d))
	}
	for id := range exact {
		score(id, func(d *index.Document) float64 { return exactScore(d, terms, w) })
	}
	for id := range fuzzy {
		score(id, func(d *index.Document) float64 { return r.fuzzyScore(d, similar, w) })
	}
	return keys
}

// similarTerms maps each query term to the vocabulary terms within the fuzzy threshold.
func (r *Ranker) similarTerms(snap *index.Snapshot, terms []string) []map[string]float64 {
	grams := make([]analysis.TrigramSet, len(terms))
	out := make([]map[string]float64, len(terms))
	for i, t := range terms {
		grams[i] = analysis.Trigrams(t)
		out[i] = map[string]float64{}
	}
	snap.Vocabulary(func(v string, st *index.TermStats) bool {
		for i := range terms {
			if sim := grams[i].Similarity(st.Trigrams); sim >= r.cfg.FuzzyThreshold {
				out[i][v] = sim
			}
		}
		return true
	})
	return out
}

// exactScore sums, over query terms, the best weighted log term frequency across fields.
func exactScore(d *index.Document, terms []string, w index.Weights) float64 {
	total := 0.0
	for _, t := range terms {
		best := 0.0
		for _, f := range index.Fields {
			if tf := d.TF(f, t); tf > 0 {
				best = max(best, w.Of(f)*(1+math.Log(float64(tf))))
			}
		}
		total += best
	}
	return total
}

// fuzzyScore is the damped mean, over query terms, of the best weighted similarity
// between the term and any token of the document.
func (r *Ranker) fuzzyScore(d *index.Document, similar []map[string]float64, w index.Weights) float64 {
	if len(similar) == 0 {
		return 0
	}
	total := 0.0
	for _, sims := range similar {
		best := 0.0
		for v, sim := range sims {
			for _, f := range index.Fields {
				if d.TF(f, v) > 0 {
					best = max(best, w.Of(f)*sim)
				}
			}
		}
		total += best
	}
	return r.cfg.FuzzyDamping * total / float64(len(similar))
}

func eligible(d *index.Document, f *query.Filters, now time.Time) bool {
	j := d.Job()
	return j.Searchable(now) && f.Match(j)
}

func sortKey(m mode.Mode, score float64, d *index.Document) result.SortKey {
	j := d.Job()
	k := result.SortKey{Mode: m, PublishedAt: j.PublishedAt, JobID: j.ID}
	if m == mode.Relevance {
		k.Score = score
		k.Views = j.ViewCount
	}
	return k
}

func compareKeys(a, b result.SortKey) int {
	switch {
	case a.Before(b):
		return -1
	case b.Before(a):
		return 1
	}
	return 0
}
