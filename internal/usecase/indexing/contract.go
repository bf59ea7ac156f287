package indexing

import (
	"context"

	"github.com/kailas-cloud/jobmatch/internal/domain/job"
	"github.com/kailas-cloud/jobmatch/internal/index"
)

// Index is the in-memory search index.
type Index interface {
	Apply(m *job.Mutation) index.Change
	Build(jobs []*job.Job) int
	Snapshot() *index.Snapshot
}

// JobStore persists indexed job records for warm restarts.
type JobStore interface {
	Save(ctx context.Context, j *job.Job) error
	Delete(ctx context.Context, id string) error
	All(ctx context.Context) ([]*job.Job, int, error)
}

// Invalidator drops cached reads by tag on every instance.
type Invalidator interface {
	Invalidate(ctx context.Context, tags ...string) error
}
