package chi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	chiv5 "github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	domjob "github.com/kailas-cloud/jobmatch/internal/domain/job"
	domrec "github.com/kailas-cloud/jobmatch/internal/domain/recommendation"
	healthuc "github.com/kailas-cloud/jobmatch/internal/usecase/health"
	suggestuc "github.com/kailas-cloud/jobmatch/internal/usecase/suggest"
)

const (
	maxBodyBytes   = 10 << 20
	maxJobEvents   = 1000
	maxIDParamSize = 128
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Services bundles the use cases the HTTP API exposes.
type Services struct {
	Search    Searcher
	Suggest   Suggester
	Trending  TrendingLister
	Recommend Recommender
	Indexing  JobIndexer
	Activity  ActivityRecorder
	Cache     CacheInvalidator
	Health    HealthChecker
}

// Server serves the matching API over chi.
type Server struct {
	svc           Services
	validate      *validator.Validate
	logger        *zap.Logger
	now           func() time.Time
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(svc Services, logger *zap.Logger) *Server {
	s := &Server{
		svc:      svc,
		validate: newValidator(),
		logger:   logger,
		now:      time.Now,
	}
	s.errorHandlers = []errorHandler{
		filterErrorHandler,
		sentinelHandler(domain.ErrInvalidFilter, http.StatusBadRequest, ErrorCodeInvalidFilter),
		sentinelHandler(domain.ErrInvalidCursor, http.StatusBadRequest, ErrorCodeInvalidCursor),
		sentinelHandler(domain.ErrInvalidEvent, http.StatusBadRequest, ErrorCodeInvalidEvent),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrBatchRunning, http.StatusConflict, ErrorCodeBatchRunning),
	}
	return s
}

// WithClock overrides the time source used to default event timestamps.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r chiv5.Router) {
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chiv5.Router) {
		r.Get("/search", s.Search)
		r.Get("/suggest", s.Suggest)
		r.Get("/trending", s.Trending)

		r.Post("/events/jobs", s.JobEvents)
		r.Post("/events/interactions", s.RecordInteraction)
		r.Put("/profiles/{user_id}", s.UpsertProfile)

		r.Route("/users/{user_id}", func(r chiv5.Router) {
			r.Get("/recommendations", s.Recommendations)
			r.Get("/interactions", s.InteractionHistory)
			r.Post("/recommendations/{job_id}/click", s.MarkClicked)
			r.Post("/dismissals/{job_id}", s.Dismiss)
		})

		r.Post("/cache/invalidate", s.InvalidateCache)
		r.Post("/admin/recommendations/batch", s.RunBatch)
	})
}

// Search handles GET /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchParams(r.URL.Query())
	if err != nil {
		s.handleBindError(w, err)
		return
	}
	req, err := params.toRequest()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	page, err := s.svc.Search.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse(page))
}

// Suggest handles GET /v1/suggest.
func (s *Server) Suggest(w http.ResponseWriter, r *http.Request) {
	var (
		prefix *string
		limit  *int
	)
	if err := bindQuery(r.URL.Query(),
		queryParam{name: "prefix", dest: &prefix},
		queryParam{name: "limit", dest: &limit},
	); err != nil {
		s.handleBindError(w, err)
		return
	}

	items, err := s.svc.Suggest.Suggest(r.Context(), deref(prefix), deref(limit))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if items == nil {
		items = []suggestuc.Suggestion{}
	}
	writeJSON(w, http.StatusOK, SuggestResponse{Suggestions: items})
}

// Trending handles GET /v1/trending.
func (s *Server) Trending(w http.ResponseWriter, r *http.Request) {
	var (
		limit    *int
		category *string
	)
	if err := bindQuery(r.URL.Query(),
		queryParam{name: "limit", dest: &limit},
		queryParam{name: "category", dest: &category, filter: true},
	); err != nil {
		s.handleBindError(w, err)
		return
	}

	items, err := s.svc.Trending.Trending(r.Context(), deref(limit), deref(category))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trendingResponse(items))
}

// JobEvents handles POST /v1/events/jobs. The body is one event or an array of events,
// applied all-or-nothing.
func (s *Server) JobEvents(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var events []JobEvent
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &events)
	} else {
		events = make([]JobEvent, 1)
		err = json.Unmarshal(trimmed, &events[0])
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(events) == 0 {
		writeError(w, http.StatusBadRequest, ErrorCodeInvalidEvent, "at least one event is required")
		return
	}
	if len(events) > maxJobEvents {
		writeError(w, http.StatusBadRequest, ErrorCodeInvalidEvent, "too many events in one request")
		return
	}

	mutations := make([]*domjob.Mutation, len(events))
	for i := range events {
		if err := s.validate.Struct(&events[i]); err != nil {
			writeError(w, http.StatusBadRequest, ErrorCodeInvalidEvent, validationMessage(err))
			return
		}
		mutations[i] = events[i].toDomain()
	}

	sum, err := s.svc.Indexing.ApplyAll(r.Context(), mutations)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, JobEventsResponse{Applied: sum.Applied, Ignored: sum.Ignored})
}

// UpsertProfile handles PUT /v1/profiles/{user_id}.
func (s *Server) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "user_id")
	if !ok {
		return
	}
	var req ProfileRequest
	if !s.decode(w, r, &req, ErrorCodeInvalidEvent) {
		return
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		writeError(w, http.StatusBadRequest, ErrorCodeInvalidEvent, "latitude and longitude must be set together")
		return
	}

	if err := s.svc.Activity.UpsertProfile(r.Context(), req.toDomain(userID, s.now())); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecordInteraction handles POST /v1/events/interactions.
func (s *Server) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	var req InteractionRequest
	if !s.decode(w, r, &req, ErrorCodeInvalidEvent) {
		return
	}

	if err := s.svc.Activity.RecordInteraction(r.Context(), req.toDomain(s.now())); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// Dismiss handles POST /v1/users/{user_id}/dismissals/{job_id}.
func (s *Server) Dismiss(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "user_id")
	if !ok {
		return
	}
	jobID, ok := s.pathID(w, r, "job_id")
	if !ok {
		return
	}

	if err := s.svc.Activity.Dismiss(r.Context(), userID, jobID); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Recommendations handles GET /v1/users/{user_id}/recommendations.
func (s *Server) Recommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "user_id")
	if !ok {
		return
	}
	var (
		limit   *int
		refresh *bool
	)
	if err := bindQuery(r.URL.Query(),
		queryParam{name: "limit", dest: &limit},
		queryParam{name: "refresh", dest: &refresh},
	); err != nil {
		s.handleBindError(w, err)
		return
	}

	listing, err := s.svc.Recommend.Recommendations(r.Context(), userID, deref(limit), deref(refresh))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	resp := RecommendationsResponse{Recommendations: listing.Entries, Degraded: listing.Degraded}
	if resp.Recommendations == nil {
		resp.Recommendations = []domrec.Entry{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// InteractionHistory handles GET /v1/users/{user_id}/interactions.
func (s *Server) InteractionHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "user_id")
	if !ok {
		return
	}
	var limit *int
	if err := bindQuery(r.URL.Query(), queryParam{name: "limit", dest: &limit}); err != nil {
		s.handleBindError(w, err)
		return
	}

	events, err := s.svc.Activity.History(r.Context(), userID, deref(limit))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, interactionHistoryResponse(events))
}

// MarkClicked handles POST /v1/users/{user_id}/recommendations/{job_id}/click.
func (s *Server) MarkClicked(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "user_id")
	if !ok {
		return
	}
	jobID, ok := s.pathID(w, r, "job_id")
	if !ok {
		return
	}

	if err := s.svc.Recommend.MarkClicked(r.Context(), userID, jobID); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// InvalidateCache handles POST /v1/cache/invalidate.
func (s *Server) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	var req InvalidateRequest
	if !s.decode(w, r, &req, ErrorCodeBadRequest) {
		return
	}

	if err := s.svc.Cache.Invalidate(r.Context(), req.Tags...); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, InvalidateResponse{Invalidated: req.Tags})
}

// RunBatch handles POST /v1/admin/recommendations/batch. The run is synchronous.
func (s *Server) RunBatch(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Recommend.RunBatch(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse(report))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.svc.Health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: string(report.Status), Checks: checks})
}

// decode reads a JSON body into dst and validates it, reporting rule violations with code.
// It writes the error response itself.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any, code ErrorCode) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, code, validationMessage(err))
		return false
	}
	return true
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := chiv5.URLParam(r, name)
	if v == "" || len(v) > maxIDParamSize {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid "+name)
		return "", false
	}
	return v, true
}

func (s *Server) handleBindError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrInvalidFilter) {
		s.handleDomainError(w, err)
		return
	}
	writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a client-facing message without exposing internals.
// Errors caused by the request itself are echoed in full.
func safeDomainMessage(err error) string {
	for _, s := range []error{domain.ErrInvalidFilter, domain.ErrInvalidCursor, domain.ErrInvalidEvent} {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	for _, s := range []error{domain.ErrNotFound, domain.ErrBatchRunning} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// filterErrorHandler reports the offending filter dimension.
func filterErrorHandler(w http.ResponseWriter, err error, _ string) bool {
	var fe *domain.FilterError
	if !errors.As(err, &fe) {
		return false
	}
	writeError(w, http.StatusBadRequest, ErrorCodeInvalidFilter, fe.Field+": "+fe.Reason)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("Domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("Internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
