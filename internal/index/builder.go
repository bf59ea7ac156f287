package index

import (
	"maps"

	"github.com/kailas-cloud/jobmatch/internal/analysis"
)

// builder accumulates writes against a base snapshot. Top-level maps are
// cloned once; posting sets and term stats are copied on first touch, so the
// base snapshot is never mutated.
type builder struct {
	base     *Snapshot
	docs     map[string]*Document
	postings map[string]map[string]struct{}
	vocab    map[string]*TermStats
	owned    map[string]struct{}
	ownStats map[string]struct{}
}

func newBuilder(base *Snapshot) *builder {
	return &builder{
		base:     base,
		docs:     maps.Clone(base.docs),
		postings: maps.Clone(base.postings),
		vocab:    maps.Clone(base.vocab),
		owned:    map[string]struct{}{},
		ownStats: map[string]struct{}{},
	}
}

func (b *builder) postingsFor(term string) map[string]struct{} {
	if _, ok := b.owned[term]; ok {
		return b.postings[term]
	}
	set := maps.Clone(b.postings[term])
	if set == nil {
		set = map[string]struct{}{}
	}
	b.postings[term] = set
	b.owned[term] = struct{}{}
	return set
}

func (b *builder) statsFor(term string) *TermStats {
	if _, ok := b.ownStats[term]; ok {
		return b.vocab[term]
	}
	var st *TermStats
	if old, ok := b.vocab[term]; ok {
		cp := *old
		st = &cp
	} else {
		st = &TermStats{Trigrams: analysis.Trigrams(term)}
	}
	b.vocab[term] = st
	b.ownStats[term] = struct{}{}
	return st
}

func (b *builder) link(d *Document) {
	b.docs[d.ID()] = d
	for _, f := range Fields {
		for term := range d.terms[f] {
			b.postingsFor(term)[d.ID()] = struct{}{}
			b.statsFor(term).add(f, 1)
		}
	}
}

func (b *builder) unlink(d *Document) {
	delete(b.docs, d.ID())
	for _, f := range Fields {
		for term := range d.terms[f] {
			if _, ok := b.vocab[term]; ok {
				st := b.statsFor(term)
				st.add(f, -1)
				if st.DF() <= 0 {
					delete(b.vocab, term)
					delete(b.ownStats, term)
				}
			}
			if _, ok := b.postings[term]; !ok {
				continue
			}
			set := b.postingsFor(term)
			delete(set, d.ID())
			if len(set) == 0 {
				delete(b.postings, term)
				delete(b.owned, term)
			}
		}
	}
}

func (b *builder) snapshot(w Weights) *Snapshot {
	return &Snapshot{
		docs:     b.docs,
		postings: b.postings,
		vocab:    b.vocab,
		weights:  w,
		seq:      b.base.seq + 1,
	}
}
