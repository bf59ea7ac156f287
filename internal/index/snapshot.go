package index

import (
	"time"

	"github.com/kailas-cloud/jobmatch/internal/analysis"
)

// TermStats are vocabulary statistics for one term.
type TermStats struct {
	// TitleDF is the number of documents whose title contains the term.
	TitleDF int
	// DescriptionDF is the number of documents whose description contains the term.
	DescriptionDF int
	// CompanyDF is the number of documents whose company name contains the term.
	CompanyDF int
	Trigrams  analysis.TrigramSet
}

// DF returns the number of documents containing the term in any field.
// A document counts once per field it appears in.
func (s *TermStats) DF() int { return s.TitleDF + s.DescriptionDF + s.CompanyDF }

func (s *TermStats) add(f Field, delta int) {
	switch f {
	case FieldTitle:
		s.TitleDF += delta
	case FieldDescription:
		s.DescriptionDF += delta
	case FieldCompany:
		s.CompanyDF += delta
	}
}

// Snapshot is an immutable view of the index. Readers hold on to one snapshot for
// the duration of a request and never observe a partially applied write.
type Snapshot struct {
	docs     map[string]*Document
	postings map[string]map[string]struct{}
	vocab    map[string]*TermStats
	weights  Weights
	seq      uint64
	builtAt  time.Time
}

func emptySnapshot(w Weights) *Snapshot {
	return &Snapshot{
		docs:     map[string]*Document{},
		postings: map[string]map[string]struct{}{},
		vocab:    map[string]*TermStats{},
		weights:  w,
	}
}

// Len returns the number of indexed documents.
func (s *Snapshot) Len() int { return len(s.docs) }

// Seq increases by one with every published write.
func (s *Snapshot) Seq() uint64 { return s.seq }

// BuiltAt returns when the snapshot was published.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// Weights returns the field weights the snapshot was built with.
func (s *Snapshot) Weights() Weights { return s.weights }

// Get returns the document for id.
func (s *Snapshot) Get(id string) (*Document, bool) {
	d, ok := s.docs[id]
	return d, ok
}

// Each calls fn for every document until fn returns false. Order is unspecified.
func (s *Snapshot) Each(fn func(*Document) bool) {
	for _, d := range s.docs {
		if !fn(d) {
			return
		}
	}
}

// Postings returns the ids of documents containing term in any field.
// Callers must not modify the returned set.
func (s *Snapshot) Postings(term string) map[string]struct{} {
	return s.postings[term]
}

// Stats returns vocabulary statistics for term.
func (s *Snapshot) Stats(term string) (*TermStats, bool) {
	st, ok := s.vocab[term]
	return st, ok
}

// Vocabulary calls fn for every known term until fn returns false. Order is unspecified.
func (s *Snapshot) Vocabulary(fn func(term string, st *TermStats) bool) {
	for t, st := range s.vocab {
		if !fn(t, st) {
			return
		}
	}
}
