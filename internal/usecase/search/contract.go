package search

import (
	"context"

	"github.com/kailas-cloud/jobmatch/internal/cache"
	"github.com/kailas-cloud/jobmatch/internal/index"
)

// IndexReader exposes the current index snapshot.
type IndexReader interface {
	Snapshot() *index.Snapshot
}

// Cache is the read-through cache in front of ranking.
type Cache interface {
	Fetch(ctx context.Context, key string, p cache.Policy, load cache.Loader) ([]byte, error)
}
