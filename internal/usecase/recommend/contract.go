package recommend

import (
	"context"
	"time"

	domprofile "github.com/kailas-cloud/jobmatch/internal/domain/profile"
	domrec "github.com/kailas-cloud/jobmatch/internal/domain/recommendation"
	"github.com/kailas-cloud/jobmatch/internal/index"
)

// IndexReader exposes the current index snapshot.
type IndexReader interface {
	Snapshot() *index.Snapshot
}

// ProfileStore reads user profiles.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*domprofile.Profile, error)
	ActiveUsers(ctx context.Context) ([]string, error)
}

// InteractionStore reads aggregated interaction weights and dismissals.
type InteractionStore interface {
	UserJobs(ctx context.Context, userID string) (map[string]float64, error)
	JobUsers(ctx context.Context, jobID string) (map[string]float64, error)
	Dismissed(ctx context.Context, userID string) (map[string]struct{}, error)
}

// SetStore persists each user's recommendation set.
type SetStore interface {
	Save(ctx context.Context, set *domrec.Set, now time.Time) error
	Get(ctx context.Context, userID string) (*domrec.Set, error)
}
