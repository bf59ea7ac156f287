package chi

import (
	"time"

	"github.com/kailas-cloud/jobmatch/internal/domain/geo"
	dominteraction "github.com/kailas-cloud/jobmatch/internal/domain/interaction"
	domjob "github.com/kailas-cloud/jobmatch/internal/domain/job"
	domprofile "github.com/kailas-cloud/jobmatch/internal/domain/profile"
	domrec "github.com/kailas-cloud/jobmatch/internal/domain/recommendation"
	recommenduc "github.com/kailas-cloud/jobmatch/internal/usecase/recommend"
	searchuc "github.com/kailas-cloud/jobmatch/internal/usecase/search"
	suggestuc "github.com/kailas-cloud/jobmatch/internal/usecase/suggest"
	trendinguc "github.com/kailas-cloud/jobmatch/internal/usecase/trending"
)

// ErrorCode is the machine-readable error class of an ErrorResponse.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest    ErrorCode = "bad_request"
	ErrorCodeInvalidFilter ErrorCode = "invalid_filter"
	ErrorCodeInvalidCursor ErrorCode = "invalid_cursor"
	ErrorCodeInvalidEvent  ErrorCode = "invalid_event"
	ErrorCodeNotFound      ErrorCode = "not_found"
	ErrorCodeBatchRunning  ErrorCode = "batch_running"
	ErrorCodeUnauthorized  ErrorCode = "unauthorized"
	ErrorCodeInternalError ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// --- Inbound events ---

// JobPayload carries the job fields of a create/update event.
type JobPayload struct {
	Title           string     `json:"title" validate:"required,max=500"`
	Description     string     `json:"description" validate:"max=50000"`
	Requirements    string     `json:"requirements" validate:"max=20000"`
	Company         string     `json:"company" validate:"max=500"`
	CategoryID      string     `json:"category_id" validate:"max=128"`
	Location        string     `json:"location" validate:"max=500"`
	Latitude        *float64   `json:"latitude" validate:"omitempty,latitude"`
	Longitude       *float64   `json:"longitude" validate:"omitempty,longitude"`
	Remote          bool       `json:"is_remote"`
	JobType         string     `json:"job_type" validate:"omitempty,oneof=full_time part_time contract freelance internship"`
	ExperienceLevel string     `json:"experience_level" validate:"omitempty,oneof=entry intermediate senior lead executive"`
	SalaryMin       *float64   `json:"salary_min" validate:"omitempty,gte=0"`
	SalaryMax       *float64   `json:"salary_max" validate:"omitempty,gte=0"`
	Skills          []string   `json:"skills" validate:"max=100,dive,max=100"`
	Status          string     `json:"status" validate:"required,oneof=draft published closed archived"`
	Language        string     `json:"language" validate:"max=16"`
	ViewCount       int64      `json:"view_count" validate:"gte=0"`
	ApplyCount      int64      `json:"application_count" validate:"gte=0"`
	SaveCount       int64      `json:"save_count" validate:"gte=0"`
	PublishedAt     time.Time  `json:"published_at"`
	ExpiresAt       *time.Time `json:"expires_at"`
}

// JobEvent is a job mutation published by the job collaborator.
type JobEvent struct {
	JobID     string      `json:"job_id" validate:"required,max=128"`
	Op        string      `json:"op" validate:"required,oneof=create update delete"`
	Timestamp time.Time   `json:"timestamp" validate:"required"`
	Job       *JobPayload `json:"job"`
}

func (e *JobEvent) toDomain() *domjob.Mutation {
	m := &domjob.Mutation{JobID: e.JobID, Op: domjob.Op(e.Op), Timestamp: e.Timestamp}
	if e.Job == nil || m.Op == domjob.OpDelete {
		return m
	}
	p := e.Job
	m.Job = &domjob.Job{
		ID:               e.JobID,
		Title:            p.Title,
		Description:      p.Description,
		Requirements:     p.Requirements,
		Company:          p.Company,
		CategoryID:       p.CategoryID,
		Location:         p.Location,
		Latitude:         p.Latitude,
		Longitude:        p.Longitude,
		Remote:           p.Remote,
		Type:             domjob.Type(p.JobType),
		Experience:       domjob.ExperienceLevel(p.ExperienceLevel),
		SalaryMin:        p.SalaryMin,
		SalaryMax:        p.SalaryMax,
		Skills:           p.Skills,
		Status:           domjob.Status(p.Status),
		Language:         p.Language,
		ViewCount:        p.ViewCount,
		ApplicationCount: p.ApplyCount,
		SaveCount:        p.SaveCount,
		PublishedAt:      p.PublishedAt,
		ExpiresAt:        p.ExpiresAt,
		UpdatedAt:        e.Timestamp,
	}
	return m
}

// JobEventsResponse reports how many mutations changed the index.
type JobEventsResponse struct {
	Applied int `json:"applied"`
	Ignored int `json:"ignored"`
}

// ProfileRequest is a profile snapshot pushed by the profile collaborator.
type ProfileRequest struct {
	Skills             []string   `json:"skills" validate:"max=200,dive,max=100"`
	PreferredLocations []string   `json:"preferred_locations" validate:"max=50,dive,max=200"`
	PreferredJobTypes  []string   `json:"preferred_job_types" validate:"dive,oneof=full_time part_time contract freelance internship"`
	OpenToRemote       bool       `json:"open_to_remote"`
	Latitude           *float64   `json:"latitude" validate:"omitempty,latitude"`
	Longitude          *float64   `json:"longitude" validate:"omitempty,longitude"`
	Active             *bool      `json:"active"`
	UpdatedAt          *time.Time `json:"updated_at"`
}

func (p *ProfileRequest) toDomain(userID string, now time.Time) *domprofile.Profile {
	out := &domprofile.Profile{
		UserID:             userID,
		Skills:             p.Skills,
		PreferredLocations: p.PreferredLocations,
		OpenToRemote:       p.OpenToRemote,
		Active:             p.Active == nil || *p.Active,
		UpdatedAt:          now,
	}
	for _, t := range p.PreferredJobTypes {
		out.PreferredTypes = append(out.PreferredTypes, domjob.Type(t))
	}
	if p.Latitude != nil && p.Longitude != nil {
		out.Location = &geo.Point{Latitude: *p.Latitude, Longitude: *p.Longitude}
	}
	if p.UpdatedAt != nil {
		out.UpdatedAt = *p.UpdatedAt
	}
	return out
}

// InteractionRequest is an interaction event. A missing timestamp means now.
type InteractionRequest struct {
	UserID    string     `json:"user_id" validate:"required,max=128"`
	JobID     string     `json:"job_id" validate:"required,max=128"`
	Type      string     `json:"type" validate:"required,oneof=view apply save"`
	Timestamp *time.Time `json:"timestamp"`
}

func (r *InteractionRequest) toDomain(now time.Time) *dominteraction.Event {
	e := &dominteraction.Event{UserID: r.UserID, JobID: r.JobID, Type: dominteraction.Type(r.Type), Timestamp: now}
	if r.Timestamp != nil {
		e.Timestamp = *r.Timestamp
	}
	return e
}

// InvalidateRequest lists cache tags to drop.
type InvalidateRequest struct {
	Tags []string `json:"tags" validate:"required,min=1,max=100,dive,required,max=256"`
}

// InvalidateResponse echoes the invalidated tags.
type InvalidateResponse struct {
	Invalidated []string `json:"invalidated"`
}

// --- Outbound views ---

// JobView is the job as returned to callers.
type JobView struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Company         string     `json:"company,omitempty"`
	CategoryID      string     `json:"category_id,omitempty"`
	Location        string     `json:"location,omitempty"`
	Latitude        *float64   `json:"latitude,omitempty"`
	Longitude       *float64   `json:"longitude,omitempty"`
	Remote          bool       `json:"is_remote"`
	JobType         string     `json:"job_type,omitempty"`
	ExperienceLevel string     `json:"experience_level,omitempty"`
	SalaryMin       *float64   `json:"salary_min,omitempty"`
	SalaryMax       *float64   `json:"salary_max,omitempty"`
	Skills          []string   `json:"skills,omitempty"`
	ViewCount       int64      `json:"view_count"`
	PublishedAt     time.Time  `json:"published_at"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
}

func jobView(j *domjob.Job) *JobView {
	if j == nil {
		return nil
	}
	return &JobView{
		ID:              j.ID,
		Title:           j.Title,
		Company:         j.Company,
		CategoryID:      j.CategoryID,
		Location:        j.Location,
		Latitude:        j.Latitude,
		Longitude:       j.Longitude,
		Remote:          j.Remote,
		JobType:         string(j.Type),
		ExperienceLevel: string(j.Experience),
		SalaryMin:       j.SalaryMin,
		SalaryMax:       j.SalaryMax,
		Skills:          j.Skills,
		ViewCount:       j.ViewCount,
		PublishedAt:     j.PublishedAt,
		ExpiresAt:       j.ExpiresAt,
	}
}

// SearchResultItem is one ranked hit.
type SearchResultItem struct {
	JobID string   `json:"job_id"`
	Score float64  `json:"score"`
	Rank  int      `json:"rank"`
	Job   *JobView `json:"job"`
}

// SearchResponse is one page of search results.
type SearchResponse struct {
	Results    []SearchResultItem `json:"results"`
	Mode       string             `json:"mode"`
	NextCursor *string            `json:"next_cursor,omitempty"`
}

func searchResponse(p *searchuc.Page) SearchResponse {
	resp := SearchResponse{Results: make([]SearchResultItem, len(p.Hits)), Mode: string(p.Mode)}
	for i, h := range p.Hits {
		resp.Results[i] = SearchResultItem{JobID: h.JobID(), Score: h.Score(), Rank: h.Rank(), Job: jobView(h.Job)}
	}
	if p.NextCursor != "" {
		c := p.NextCursor
		resp.NextCursor = &c
	}
	return resp
}

// SuggestResponse lists completions.
type SuggestResponse struct {
	Suggestions []suggestuc.Suggestion `json:"suggestions"`
}

// TrendingItem is one trending job.
type TrendingItem struct {
	Score float64  `json:"score"`
	Job   *JobView `json:"job"`
}

// TrendingResponse lists trending jobs.
type TrendingResponse struct {
	Results []TrendingItem `json:"results"`
}

func trendingResponse(items []trendinguc.Item) TrendingResponse {
	resp := TrendingResponse{Results: make([]TrendingItem, len(items))}
	for i, it := range items {
		resp.Results[i] = TrendingItem{Score: it.Score, Job: jobView(it.Job)}
	}
	return resp
}

// RecommendationsResponse lists a user's recommendations.
type RecommendationsResponse struct {
	Recommendations []domrec.Entry `json:"recommendations"`
	Degraded        bool           `json:"degraded"`
}

// InteractionView is one entry of a user's interaction history.
type InteractionView struct {
	JobID     string    `json:"job_id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// InteractionHistoryResponse lists a user's newest interactions first.
type InteractionHistoryResponse struct {
	Interactions []InteractionView `json:"interactions"`
}

func interactionHistoryResponse(events []dominteraction.Event) InteractionHistoryResponse {
	out := make([]InteractionView, len(events))
	for i := range events {
		out[i] = InteractionView{JobID: events[i].JobID, Type: string(events[i].Type), Timestamp: events[i].Timestamp}
	}
	return InteractionHistoryResponse{Interactions: out}
}

// BatchResponse summarizes a batch run.
type BatchResponse struct {
	Users      int   `json:"users"`
	Succeeded  int   `json:"succeeded"`
	Failed     int   `json:"failed"`
	Skipped    int   `json:"skipped"`
	DurationMs int64 `json:"duration_ms"`
}

func batchResponse(r recommenduc.BatchReport) BatchResponse {
	return BatchResponse{
		Users:      r.Users,
		Succeeded:  r.Succeeded,
		Failed:     r.Failed,
		Skipped:    r.Skipped,
		DurationMs: r.Duration.Milliseconds(),
	}
}

// HealthResponse reports component health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
