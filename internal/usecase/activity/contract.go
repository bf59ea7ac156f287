package activity

import (
	"context"

	dominteraction "github.com/kailas-cloud/jobmatch/internal/domain/interaction"
	domprofile "github.com/kailas-cloud/jobmatch/internal/domain/profile"
)

// ProfileStore persists user profile snapshots.
type ProfileStore interface {
	Save(ctx context.Context, p *domprofile.Profile) error
}

// InteractionStore appends interactions and dismissals and reads back the event log.
type InteractionStore interface {
	Record(ctx context.Context, e *dominteraction.Event) error
	Recent(ctx context.Context, userID string, n int64) ([]dominteraction.Event, error)
	Dismiss(ctx context.Context, userID, jobID string) error
}

// Recommendations keeps persisted recommendations in step with user activity.
type Recommendations interface {
	ApplyInteraction(ctx context.Context, e *dominteraction.Event) error
	Forget(ctx context.Context, userID, jobID string) error
}
