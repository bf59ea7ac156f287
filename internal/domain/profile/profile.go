package profile

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/domain/geo"
	"github.com/kailas-cloud/jobmatch/internal/domain/job"
)

// Profile is a snapshot of a job seeker's matching-relevant preferences,
// pushed by the profile collaborator.
type Profile struct {
	UserID             string
	Skills             []string
	PreferredLocations []string
	PreferredTypes     []job.Type
	OpenToRemote       bool
	Location           *geo.Point
	Active             bool
	UpdatedAt          time.Time
}

// Validate checks the snapshot.
func (p *Profile) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("user_id is required: %w", domain.ErrInvalidEvent)
	}
	for _, t := range p.PreferredTypes {
		if !t.IsValid() {
			return fmt.Errorf("user %s: unknown preferred job type %q: %w", p.UserID, t, domain.ErrInvalidEvent)
		}
	}
	if p.Location != nil && !geo.ValidateCoordinates(p.Location.Latitude, p.Location.Longitude) {
		return fmt.Errorf("user %s: invalid coordinates: %w", p.UserID, domain.ErrInvalidEvent)
	}
	return nil
}
