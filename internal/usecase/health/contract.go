package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker reports whether the search index is serving.
type IndexChecker interface {
	Ready(ctx context.Context) error
}
