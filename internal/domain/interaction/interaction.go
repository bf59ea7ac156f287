package interaction

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/jobmatch/internal/domain"
)

// Type is the kind of user/job interaction.
type Type string

// Interaction kinds, weakest to strongest.
const (
	View  Type = "view"
	Save  Type = "save"
	Apply Type = "apply"
)

// Weight is the behavioral strength of an interaction in [0,1].
func (t Type) Weight() float64 {
	switch t {
	case View:
		return 0.3
	case Save:
		return 0.6
	case Apply:
		return 1.0
	}
	return 0
}

// IsValid reports whether t is a known interaction type.
func (t Type) IsValid() bool { return t.Weight() > 0 }

// Event is an append-only interaction record.
type Event struct {
	UserID    string
	JobID     string
	Type      Type
	Timestamp time.Time
}

// Validate checks the event.
func (e *Event) Validate() error {
	if e.UserID == "" || e.JobID == "" {
		return fmt.Errorf("user_id and job_id are required: %w", domain.ErrInvalidEvent)
	}
	if !e.Type.IsValid() {
		return fmt.Errorf("unknown interaction type %q: %w", e.Type, domain.ErrInvalidEvent)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required: %w", domain.ErrInvalidEvent)
	}
	return nil
}

// Applied reports whether an aggregated interaction weight includes an application.
func Applied(weight float64) bool { return weight >= Apply.Weight() }
