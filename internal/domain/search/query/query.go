package query

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed raw query length in bytes.
	MaxQueryLength  = 1024
	MaxTerms        = 32
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Query is a validated, normalized search request.
type Query struct {
	terms   []string
	lang    string
	filters Filters
}

// New validates a query. terms must come from the same analyzer that built the index.
// A query whose text normalizes to no terms runs in recency mode.
func New(raw string, terms []string, lang string, filters Filters) (Query, error) {
	if len(raw) > MaxQueryLength {
		return Query{}, domain.NewFilterError("q", fmt.Sprintf("too long (max %d chars)", MaxQueryLength))
	}
	if len(terms) > MaxTerms {
		return Query{}, domain.NewFilterError("q", fmt.Sprintf("too many terms (max %d)", MaxTerms))
	}
	if err := filters.Validate(); err != nil {
		return Query{}, err
	}
	return Query{terms: dedupe(terms), lang: lang, filters: filters}, nil
}

// Terms returns the normalized, de-duplicated query terms.
func (q *Query) Terms() []string { return q.terms }

// Lang returns the analyzer language.
func (q *Query) Lang() string { return q.lang }

// Filters returns the filter conjunction.
func (q *Query) Filters() *Filters { return &q.filters }

// Mode returns the ordering this query runs in.
func (q *Query) Mode() mode.Mode {
	if len(q.terms) == 0 {
		return mode.Recency
	}
	return mode.Relevance
}

// Fingerprint identifies the result set of the query: two queries with equal
// fingerprints rank identically against the same index snapshot.
func (q *Query) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(string(q.Mode()) + "\x00" + q.lang + "\x00" + strings.Join(q.terms, "\x1f") + "\x00"))
	h.Write([]byte(q.filters.Fingerprint()))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

func dedupe(terms []string) []string {
	if len(terms) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
