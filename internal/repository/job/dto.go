package job

import (
	"time"

	domjob "github.com/kailas-cloud/jobmatch/internal/domain/job"
)

// jobDTO is the persisted JSON shape of a job record.
type jobDTO struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Requirements string     `json:"requirements,omitempty"`
	Company      string     `json:"company,omitempty"`
	CategoryID   string     `json:"category_id,omitempty"`
	Location     string     `json:"location,omitempty"`
	Latitude     *float64   `json:"lat,omitempty"`
	Longitude    *float64   `json:"lon,omitempty"`
	Remote       bool       `json:"remote,omitempty"`
	Type         string     `json:"job_type,omitempty"`
	Experience   string     `json:"experience_level,omitempty"`
	SalaryMin    *float64   `json:"salary_min,omitempty"`
	SalaryMax    *float64   `json:"salary_max,omitempty"`
	Skills       []string   `json:"skills,omitempty"`
	Status       string     `json:"status"`
	Language     string     `json:"lang,omitempty"`
	Views        int64      `json:"views,omitempty"`
	Applications int64      `json:"applications,omitempty"`
	Saves        int64      `json:"saves,omitempty"`
	PublishedAt  time.Time  `json:"published_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func toDTO(j *domjob.Job) jobDTO {
	return jobDTO{
		ID:           j.ID,
		Title:        j.Title,
		Description:  j.Description,
		Requirements: j.Requirements,
		Company:      j.Company,
		CategoryID:   j.CategoryID,
		Location:     j.Location,
		Latitude:     j.Latitude,
		Longitude:    j.Longitude,
		Remote:       j.Remote,
		Type:         string(j.Type),
		Experience:   string(j.Experience),
		SalaryMin:    j.SalaryMin,
		SalaryMax:    j.SalaryMax,
		Skills:       j.Skills,
		Status:       string(j.Status),
		Language:     j.Language,
		Views:        j.ViewCount,
		Applications: j.ApplicationCount,
		Saves:        j.SaveCount,
		PublishedAt:  j.PublishedAt,
		ExpiresAt:    j.ExpiresAt,
		UpdatedAt:    j.UpdatedAt,
	}
}

func (d *jobDTO) toDomain() *domjob.Job {
	return &domjob.Job{
		ID:               d.ID,
		Title:            d.Title,
		Description:      d.Description,
		Requirements:     d.Requirements,
		Company:          d.Company,
		CategoryID:       d.CategoryID,
		Location:         d.Location,
		Latitude:         d.Latitude,
		Longitude:        d.Longitude,
		Remote:           d.Remote,
		Type:             domjob.Type(d.Type),
		Experience:       domjob.ExperienceLevel(d.Experience),
		SalaryMin:        d.SalaryMin,
		SalaryMax:        d.SalaryMax,
		Skills:           d.Skills,
		Status:           domjob.Status(d.Status),
		Language:         d.Language,
		ViewCount:        d.Views,
		ApplicationCount: d.Applications,
		SaveCount:        d.Saves,
		PublishedAt:      d.PublishedAt,
		ExpiresAt:        d.ExpiresAt,
		UpdatedAt:        d.UpdatedAt,
	}
}
