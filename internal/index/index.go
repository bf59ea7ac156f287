// Package index maintains the in-memory search index derived from job mutations.
package index

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/kailas-cloud/jobmatch/internal/analysis"
	"github.com/kailas-cloud/jobmatch/internal/domain/job"
)

// DefaultTombstoneRetention bounds how long deletes are remembered for
// rejecting out-of-order older upserts.
const DefaultTombstoneRetention = 24 * time.Hour

// Change describes the effect of one write.
type Change struct {
	// Applied is false when the write was older than the stored version.
	Applied bool
	// Previous is the job the index held before the write, if any.
	Previous *job.Job
	// Current is the job the index holds after the write; nil after a removal.
	Current *job.Job
}

// Index publishes immutable snapshots. Reads are lock-free; writes are
// serialized and copy-on-write.
type Index struct {
	analyzer  *analysis.Analyzer
	weights   Weights
	retention time.Duration
	now       func() time.Time

	mu         sync.Mutex
	tombstones map[string]time.Time
	cur        atomic.Pointer[Snapshot]
}

// Option configures an Index.
type Option func(*Index)

// WithClock sets the clock used to decide searchability.
func WithClock(now func() time.Time) Option {
	return func(ix *Index) { ix.now = now }
}

// WithTombstoneRetention sets how long deletes are remembered.
func WithTombstoneRetention(d time.Duration) Option {
	return func(ix *Index) { ix.retention = d }
}

// New creates an empty index.
func New(an *analysis.Analyzer, w Weights, opts ...Option) *Index {
	ix := &Index{
		analyzer:   an,
		weights:    w,
		retention:  DefaultTombstoneRetention,
		now:        time.Now,
		tombstones: map[string]time.Time{},
	}
	for _, o := range opts {
		o(ix)
	}
	s := emptySnapshot(w)
	s.builtAt = ix.now()
	ix.cur.Store(s)
	return ix
}

// Analyzer returns the analyzer documents are built with.
func (ix *Index) Analyzer() *analysis.Analyzer { return ix.analyzer }

// Snapshot returns the current snapshot.
func (ix *Index) Snapshot() *Snapshot { return ix.cur.Load() }

// Upsert indexes j at version. Jobs that are not searchable are removed instead.
// A write older than the stored document or a remembered delete is ignored.
func (ix *Index) Upsert(j *job.Job, version time.Time) Change {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	b := newBuilder(ix.cur.Load())
	ch := ix.upsertLocked(b, j, version)
	if ch.Applied {
		ix.publish(b)
	}
	return ch
}

// Remove excludes id from all subsequent reads, unless a newer version is stored.
func (ix *Index) Remove(id string, version time.Time) Change {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	b := newBuilder(ix.cur.Load())
	ch := ix.removeLocked(b, id, version)
	if ch.Applied {
		ix.publish(b)
	}
	return ch
}

// Apply routes a mutation to Upsert or Remove.
func (ix *Index) Apply(m *job.Mutation) Change {
	if m.Op == job.OpDelete {
		return ix.Remove(m.JobID, m.Timestamp)
	}
	return ix.Upsert(m.Job, m.Timestamp)
}

// Build applies many records in one snapshot. Records follow the same
// last-writer-wins rules as Upsert; each record's UpdatedAt is its version.
func (ix *Index) Build(jobs []*job.Job) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	b := newBuilder(ix.cur.Load())
	applied := 0
	for _, j := range jobs {
		if ix.upsertLocked(b, j, j.UpdatedAt).Applied {
			applied++
		}
	}
	if applied > 0 {
		ix.publish(b)
	}
	return applied
}

func (ix *Index) upsertLocked(b *builder, j *job.Job, version time.Time) Change {
	if !j.Searchable(ix.now()) {
		return ix.removeLocked(b, j.ID, version)
	}
	if del, ok := ix.tombstones[j.ID]; ok {
		if version.Before(del) {
			return Change{}
		}
		delete(ix.tombstones, j.ID)
	}
	prev, had := b.docs[j.ID]
	if had && version.Before(prev.version) {
		return Change{}
	}
	doc := newDocument(ix.analyzer, j, version)
	if had {
		b.unlink(prev)
	}
	b.link(doc)

	ch := Change{Applied: true, Current: doc.Job()}
	if had {
		ch.Previous = prev.Job()
	}
	return ch
}

func (ix *Index) removeLocked(b *builder, id string, version time.Time) Change {
	prev, had := b.docs[id]
	if had && version.Before(prev.version) {
		return Change{}
	}
	if del, ok := ix.tombstones[id]; ok && version.Before(del) {
		return Change{}
	}
	ix.tombstones[id] = version
	ix.pruneTombstones(version)
	if !had {
		// Nothing visible changes, but the tombstone must still be recorded.
		return Change{}
	}
	b.unlink(prev)
	return Change{Applied: true, Previous: prev.Job()}
}

func (ix *Index) pruneTombstones(latest time.Time) {
	if ix.retention <= 0 {
		return
	}
	cutoff := latest.Add(-ix.retention)
	for id, at := range ix.tombstones {
		if at.Before(cutoff) {
			delete(ix.tombstones, id)
		}
	}
}

func (ix *Index) publish(b *builder) {
	s := b.snapshot(ix.weights)
	s.builtAt = ix.now()
	ix.cur.Store(s)
}
