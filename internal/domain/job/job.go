package job

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/domain/geo"
)

// MaxIDLength bounds job identifiers accepted from collaborators.
const MaxIDLength = 128

// Type is the employment type of a job posting.
type Type string

// Supported job types.
const (
	FullTime   Type = "full_time"
	PartTime   Type = "part_time"
	Contract   Type = "contract"
	Freelance  Type = "freelance"
	Internship Type = "internship"
)

// IsValid reports whether t is a known job type.
func (t Type) IsValid() bool {
	switch t {
	case FullTime, PartTime, Contract, Freelance, Internship:
		return true
	}
	return false
}

// ExperienceLevel is the seniority a job asks for.
type ExperienceLevel string

// Supported experience levels.
const (
	Entry        ExperienceLevel = "entry"
	Intermediate ExperienceLevel = "intermediate"
	Senior       ExperienceLevel = "senior"
	Lead         ExperienceLevel = "lead"
	Executive    ExperienceLevel = "executive"
)

// IsValid reports whether l is a known experience level.
func (l ExperienceLevel) IsValid() bool {
	switch l {
	case Entry, Intermediate, Senior, Lead, Executive:
		return true
	}
	return false
}

// Status is the publication state of a job.
type Status string

// Publication states. Only published jobs are searchable.
const (
	Draft     Status = "draft"
	Published Status = "published"
	Closed    Status = "closed"
	Archived  Status = "archived"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case Draft, Published, Closed, Archived:
		return true
	}
	return false
}

// Job is the collaborator-owned job record as seen by the matching core.
type Job struct {
	ID           string
	Title        string
	Description  string
	Requirements string
	Company      string
	CategoryID   string
	Location     string
	Latitude     *float64
	Longitude    *float64
	Remote       bool
	Type         Type
	Experience   ExperienceLevel
	SalaryMin    *float64
	SalaryMax    *float64
	Skills       []string
	Status       Status
	Language     string

	ViewCount        int64
	ApplicationCount int64
	SaveCount        int64

	PublishedAt time.Time
	ExpiresAt   *time.Time
	UpdatedAt   time.Time
}

// Validate checks the record for fields the core relies on.
func (j *Job) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("job id is required: %w", domain.ErrInvalidEvent)
	}
	if len(j.ID) > MaxIDLength {
		return fmt.Errorf("job id too long (max %d): %w", MaxIDLength, domain.ErrInvalidEvent)
	}
	if j.Title == "" {
		return fmt.Errorf("job %s: title is required: %w", j.ID, domain.ErrInvalidEvent)
	}
	if j.Type != "" && !j.Type.IsValid() {
		return fmt.Errorf("job %s: unknown job type %q: %w", j.ID, j.Type, domain.ErrInvalidEvent)
	}
	if j.Experience != "" && !j.Experience.IsValid() {
		return fmt.Errorf("job %s: unknown experience level %q: %w", j.ID, j.Experience, domain.ErrInvalidEvent)
	}
	if !j.Status.IsValid() {
		return fmt.Errorf("job %s: unknown status %q: %w", j.ID, j.Status, domain.ErrInvalidEvent)
	}
	if (j.Latitude == nil) != (j.Longitude == nil) {
		return fmt.Errorf("job %s: latitude and longitude must be set together: %w", j.ID, domain.ErrInvalidEvent)
	}
	if j.Latitude != nil && !geo.ValidateCoordinates(*j.Latitude, *j.Longitude) {
		return fmt.Errorf("job %s: invalid coordinates: %w", j.ID, domain.ErrInvalidEvent)
	}
	if j.SalaryMin != nil && j.SalaryMax != nil && *j.SalaryMin > *j.SalaryMax {
		return fmt.Errorf("job %s: salary_min exceeds salary_max: %w", j.ID, domain.ErrInvalidEvent)
	}
	if j.ViewCount < 0 || j.ApplicationCount < 0 || j.SaveCount < 0 {
		return fmt.Errorf("job %s: negative counters: %w", j.ID, domain.ErrInvalidEvent)
	}
	return nil
}

// Searchable reports whether the job may appear in search, suggest and recommendations at now.
func (j *Job) Searchable(now time.Time) bool {
	if j.Status != Published {
		return false
	}
	return j.ExpiresAt == nil || now.Before(*j.ExpiresAt)
}

// Op is the kind of job mutation published by the job collaborator.
type Op string

// Mutation kinds.
const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Mutation is a job change event. Job is nil for deletes.
type Mutation struct {
	JobID     string
	Op        Op
	Job       *Job
	Timestamp time.Time
}

// Validate checks the event envelope and the carried record.
func (m *Mutation) Validate() error {
	if m.JobID == "" {
		return fmt.Errorf("job_id is required: %w", domain.ErrInvalidEvent)
	}
	if m.Timestamp.IsZero() {
		return fmt.Errorf("job %s: timestamp is required: %w", m.JobID, domain.ErrInvalidEvent)
	}
	switch m.Op {
	case OpDelete:
		return nil
	case OpCreate, OpUpdate:
		if m.Job == nil {
			return fmt.Errorf("job %s: %s requires job fields: %w", m.JobID, m.Op, domain.ErrInvalidEvent)
		}
		if m.Job.ID == "" {
			m.Job.ID = m.JobID
		}
		if m.Job.ID != m.JobID {
			return fmt.Errorf("job %s: payload id %s does not match: %w", m.JobID, m.Job.ID, domain.ErrInvalidEvent)
		}
		return m.Job.Validate()
	default:
		return fmt.Errorf("job %s: unknown op %q: %w", m.JobID, m.Op, domain.ErrInvalidEvent)
	}
}
