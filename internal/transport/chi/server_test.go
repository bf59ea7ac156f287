package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chiv5 "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	dominteraction "github.com/kailas-cloud/jobmatch/internal/domain/interaction"
	domjob "github.com/kailas-cloud/jobmatch/internal/domain/job"
	domprofile "github.com/kailas-cloud/jobmatch/internal/domain/profile"
	domrec "github.com/kailas-cloud/jobmatch/internal/domain/recommendation"
	"github.com/kailas-cloud/jobmatch/internal/domain/search/mode"
	"github.com/kailas-cloud/jobmatch/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/jobmatch/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/jobmatch/internal/usecase/indexing"
	recommenduc "github.com/kailas-cloud/jobmatch/internal/usecase/recommend"
	searchuc "github.com/kailas-cloud/jobmatch/internal/usecase/search"
	suggestuc "github.com/kailas-cloud/jobmatch/internal/usecase/suggest"
	trendinguc "github.com/kailas-cloud/jobmatch/internal/usecase/trending"
)

var testNow = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

type fakeSearch struct {
	searchFn func(ctx context.Context, req *searchuc.Request) (*searchuc.Page, error)
}

func (f *fakeSearch) Search(ctx context.Context, req *searchuc.Request) (*searchuc.Page, error) {
	return f.searchFn(ctx, req)
}

type fakeSuggest struct {
	suggestFn func(ctx context.Context, prefix string, limit int) ([]suggestuc.Suggestion, error)
}

func (f *fakeSuggest) Suggest(ctx context.Context, prefix string, limit int) ([]suggestuc.Suggestion, error) {
	return f.suggestFn(ctx, prefix, limit)
}

type fakeTrending struct {
	trendingFn func(ctx context.Context, limit int, category string) ([]trendinguc.Item, error)
}

func (f *fakeTrending) Trending(ctx context.Context, limit int, category string) ([]trendinguc.Item, error) {
	return f.trendingFn(ctx, limit, category)
}

type fakeRecommend struct {
	recommendationsFn func(ctx context.Context, userID string, limit int, refresh bool) (*domrec.Listing, error)
	markClickedFn     func(ctx context.Context, userID, jobID string) error
	runBatchFn        func(ctx context.Context) (recommenduc.BatchReport, error)
}

func (f *fakeRecommend) Recommendations(
	ctx context.Context, userID string, limit int, refresh bool,
) (*domrec.Listing, error) {
	return f.recommendationsFn(ctx, userID, limit, refresh)
}

func (f *fakeRecommend) MarkClicked(ctx context.Context, userID, jobID string) error {
	return f.markClickedFn(ctx, userID, jobID)
}

func (f *fakeRecommend) RunBatch(ctx context.Context) (recommenduc.BatchReport, error) {
	return f.runBatchFn(ctx)
}

type fakeIndexing struct {
	applyAllFn func(ctx context.Context, ms []*domjob.Mutation) (indexinguc.Summary, error)
}

func (f *fakeIndexing) ApplyAll(ctx context.Context, ms []*domjob.Mutation) (indexinguc.Summary, error) {
	return f.applyAllFn(ctx, ms)
}

type fakeActivity struct {
	profiles     []*domprofile.Profile
	interactions []*dominteraction.Event
	dismissed    []string
	historyFn    func(ctx context.Context, userID string, limit int) ([]dominteraction.Event, error)
	err          error
}

func (f *fakeActivity) History(ctx context.Context, userID string, limit int) ([]dominteraction.Event, error) {
	if f.historyFn != nil {
		return f.historyFn(ctx, userID, limit)
	}
	return nil, f.err
}

func (f *fakeActivity) UpsertProfile(_ context.Context, p *domprofile.Profile) error {
	f.profiles = append(f.profiles, p)
	return f.err
}

func (f *fakeActivity) RecordInteraction(_ context.Context, e *dominteraction.Event) error {
	f.interactions = append(f.interactions, e)
	return f.err
}

func (f *fakeActivity) Dismiss(_ context.Context, userID, jobID string) error {
	f.dismissed = append(f.dismissed, userID+"/"+jobID)
	return f.err
}

type fakeCache struct{ tags []string }

func (f *fakeCache) Invalidate(_ context.Context, tags ...string) error {
	f.tags = append(f.tags, tags...)
	return nil
}

type fakeHealth struct{ report healthuc.Report }

func (f *fakeHealth) Check(context.Context) healthuc.Report { return f.report }

func newTestRouter(svc Services) http.Handler {
	r := chiv5.NewRouter()
	NewServer(svc, zap.NewNop()).WithClock(func() time.Time { return testNow }).Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code ErrorCode) ErrorResponse {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, status, rr.Body.String())
	}
	resp := decodeError(t, rr)
	if resp.Code != code {
		t.Fatalf("code: got %s, want %s", resp.Code, code)
	}
	return resp
}

func TestSearch_BindsQueryAndFilters(t *testing.T) {
	var got *searchuc.Request
	search := &fakeSearch{searchFn: func(_ context.Context, req *searchuc.Request) (*searchuc.Page, error) {
		got = req
		key := result.SortKey{Mode: mode.Relevance, Score: 0.8, JobID: "J1", PublishedAt: testNow}
		return &searchuc.Page{
			Hits:       []searchuc.Hit{{Result: result.New(key, 1), Job: &domjob.Job{ID: "J1", Title: "Backend Engineer"}}},
			Mode:       mode.Relevance,
			NextCursor: "next",
		}, nil
	}}
	h := newTestRouter(Services{Search: search})

	rr := do(t, h, http.MethodGet,
		"/v1/search?q=go+engineer&job_type=full_time&job_type=contract&remote=true&salary_min=5000&category=eng&page_size=5", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d (body %s)", rr.Code, rr.Body.String())
	}

	if got.Query != "go engineer" || got.PageSize != 5 {
		t.Errorf("request: got query %q page_size %d", got.Query, got.PageSize)
	}
	if len(got.Filters.JobTypes) != 2 || got.Filters.JobTypes[1] != domjob.Contract {
		t.Errorf("job types: got %v", got.Filters.JobTypes)
	}
	if got.Filters.Remote == nil || !*got.Filters.Remote {
		t.Errorf("remote: got %v", got.Filters.Remote)
	}
	if got.Filters.SalaryMin == nil || *got.Filters.SalaryMin != 5000 {
		t.Errorf("salary_min: got %v", got.Filters.SalaryMin)
	}
	if got.Filters.SalaryMax != nil || got.Filters.Near != nil {
		t.Errorf("unset filters must stay nil")
	}

	var resp SearchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].JobID != "J1" || resp.Results[0].Rank != 1 {
		t.Fatalf("results: got %+v", resp.Results)
	}
	if resp.Results[0].Job == nil || resp.Results[0].Job.Title != "Backend Engineer" {
		t.Errorf("job view: got %+v", resp.Results[0].Job)
	}
	if resp.Mode != "relevance" || resp.NextCursor == nil || *resp.NextCursor != "next" {
		t.Errorf("mode/cursor: got %s %v", resp.Mode, resp.NextCursor)
	}
}

func TestSearch_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		status int
		code   ErrorCode
	}{
		{name: "malformed remote", target: "/v1/search?remote=maybe", status: http.StatusBadRequest, code: ErrorCodeInvalidFilter},
		{name: "radius without center", target: "/v1/search?radius_km=10", status: http.StatusBadRequest, code: ErrorCodeInvalidFilter},
		{name: "center without radius", target: "/v1/search?lat=52.5&lon=13.4", status: http.StatusBadRequest, code: ErrorCodeInvalidFilter},
		{name: "malformed page size", target: "/v1/search?page_size=ten", status: http.StatusBadRequest, code: ErrorCodeBadRequest},
		{
			name:   "service filter error",
			target: "/v1/search?job_type=nope",
			err:    domain.NewFilterError("job_type", "unknown value"),
			status: http.StatusBadRequest, code: ErrorCodeInvalidFilter,
		},
		{
			name:   "bad cursor",
			target: "/v1/search?q=go&cursor=xyz",
			err:    fmt.Errorf("decode: %w", domain.ErrInvalidCursor),
			status: http.StatusBadRequest, code: ErrorCodeInvalidCursor,
		},
		{
			name:   "internal",
			target: "/v1/search?q=go",
			err:    errors.New("snapshot exploded"),
			status: http.StatusInternalServerError, code: ErrorCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			search := &fakeSearch{searchFn: func(context.Context, *searchuc.Request) (*searchuc.Page, error) {
				if tt.err == nil {
					t.Fatal("search must not be called")
				}
				return nil, tt.err
			}}
			rr := do(t, newTestRouter(Services{Search: search}), http.MethodGet, tt.target, "")
			resp := expectError(t, rr, tt.status, tt.code)
			if tt.code == ErrorCodeInternalError && resp.Message != "internal error" {
				t.Errorf("internal details leaked: %q", resp.Message)
			}
		})
	}
}

func TestSuggest_EmptyListIsArray(t *testing.T) {
	var gotPrefix string
	var gotLimit int
	suggest := &fakeSuggest{suggestFn: func(_ context.Context, prefix string, limit int) ([]suggestuc.Suggestion, error) {
		gotPrefix, gotLimit = prefix, limit
		return nil, nil
	}}
	rr := do(t, newTestRouter(Services{Suggest: suggest}), http.MethodGet, "/v1/suggest?prefix=back&limit=3", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if gotPrefix != "back" || gotLimit != 3 {
		t.Errorf("args: got %q %d", gotPrefix, gotLimit)
	}
	if !strings.Contains(rr.Body.String(), `"suggestions":[]`) {
		t.Errorf("body: got %s", rr.Body.String())
	}
}

func TestTrending_PassesCategory(t *testing.T) {
	trending := &fakeTrending{trendingFn: func(_ context.Context, limit int, category string) ([]trendinguc.Item, error) {
		if limit != 0 || category != "eng" {
			t.Errorf("args: got %d %q", limit, category)
		}
		return []trendinguc.Item{{Job: &domjob.Job{ID: "J9", Title: "SRE"}, Score: 1}}, nil
	}}
	rr := do(t, newTestRouter(Services{Trending: trending}), http.MethodGet, "/v1/trending?category=eng", "")

	var resp TrendingResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Job.ID != "J9" || resp.Results[0].Score != 1 {
		t.Errorf("results: got %+v", resp.Results)
	}
}

func TestJobEvents(t *testing.T) {
	const event = `{"job_id":"J1","op":"create","timestamp":"2026-07-01T10:00:00Z",
		"job":{"title":"Go Engineer","status":"published","job_type":"full_time","published_at":"2026-07-01T09:00:00Z"}}`

	t.Run("single object", func(t *testing.T) {
		var got []*domjob.Mutation
		ix := &fakeIndexing{applyAllFn: func(_ context.Context, ms []*domjob.Mutation) (indexinguc.Summary, error) {
			got = ms
			return indexinguc.Summary{Applied: len(ms)}, nil
		}}
		rr := do(t, newTestRouter(Services{Indexing: ix}), http.MethodPost, "/v1/events/jobs", event)

		if rr.Code != http.StatusOK {
			t.Fatalf("status: got %d (body %s)", rr.Code, rr.Body.String())
		}
		if len(got) != 1 || got[0].Op != domjob.OpCreate || got[0].Job == nil {
			t.Fatalf("mutations: got %+v", got)
		}
		j := got[0].Job
		if j.ID != "J1" || j.Type != domjob.FullTime || j.Status != domjob.Published {
			t.Errorf("job: got %+v", j)
		}
		if !j.UpdatedAt.Equal(got[0].Timestamp) {
			t.Errorf("updated_at: got %v, want event timestamp", j.UpdatedAt)
		}
	})

	t.Run("array with delete", func(t *testing.T) {
		var got []*domjob.Mutation
		ix := &fakeIndexing{applyAllFn: func(_ context.Context, ms []*domjob.Mutation) (indexinguc.Summary, error) {
			got = ms
			return indexinguc.Summary{Applied: 1, Ignored: 1}, nil
		}}
		body := "[" + event + `,{"job_id":"J2","op":"delete","timestamp":"2026-07-01T11:00:00Z"}]`
		rr := do(t, newTestRouter(Services{Indexing: ix}), http.MethodPost, "/v1/events/jobs", body)

		var resp JobEventsResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Applied != 1 || resp.Ignored != 1 {
			t.Errorf("summary: got %+v", resp)
		}
		if len(got) != 2 || got[1].Op != domjob.OpDelete || got[1].Job != nil {
			t.Errorf("mutations: got %+v", got)
		}
	})

	rejects := []struct {
		name string
		body string
		code ErrorCode
	}{
		{name: "malformed json", body: `{"job_id":`, code: ErrorCodeBadRequest},
		{name: "empty array", body: `[]`, code: ErrorCodeInvalidEvent},
		{name: "unknown op", body: `{"job_id":"J1","op":"upsert","timestamp":"2026-07-01T10:00:00Z"}`, code: ErrorCodeInvalidEvent},
		{name: "missing timestamp", body: `{"job_id":"J1","op":"delete"}`, code: ErrorCodeInvalidEvent},
		{
			name: "unknown status",
			body: `{"job_id":"J1","op":"update","timestamp":"2026-07-01T10:00:00Z","job":{"title":"x","status":"live"}}`,
			code: ErrorCodeInvalidEvent,
		},
	}
	for _, tt := range rejects {
		t.Run(tt.name, func(t *testing.T) {
			ix := &fakeIndexing{applyAllFn: func(context.Context, []*domjob.Mutation) (indexinguc.Summary, error) {
				t.Fatal("rejected events must not reach the index")
				return indexinguc.Summary{}, nil
			}}
			rr := do(t, newTestRouter(Services{Indexing: ix}), http.MethodPost, "/v1/events/jobs", tt.body)
			expectError(t, rr, http.StatusBadRequest, tt.code)
		})
	}

	t.Run("domain rejection", func(t *testing.T) {
		ix := &fakeIndexing{applyAllFn: func(context.Context, []*domjob.Mutation) (indexinguc.Summary, error) {
			return indexinguc.Summary{}, fmt.Errorf("job J1: create requires job fields: %w", domain.ErrInvalidEvent)
		}}
		body := `{"job_id":"J1","op":"create","timestamp":"2026-07-01T10:00:00Z"}`
		rr := do(t, newTestRouter(Services{Indexing: ix}), http.MethodPost, "/v1/events/jobs", body)
		resp := expectError(t, rr, http.StatusBadRequest, ErrorCodeInvalidEvent)
		if !strings.Contains(resp.Message, "requires job fields") {
			t.Errorf("message: got %q", resp.Message)
		}
	})
}

func TestRecordInteraction_DefaultsTimestamp(t *testing.T) {
	act := &fakeActivity{}
	h := newTestRouter(Services{Activity: act})

	rr := do(t, h, http.MethodPost, "/v1/events/interactions", `{"user_id":"U1","job_id":"J1","type":"apply"}`)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status: got %d (body %s)", rr.Code, rr.Body.String())
	}
	if len(act.interactions) != 1 {
		t.Fatalf("interactions: got %d", len(act.interactions))
	}
	e := act.interactions[0]
	if e.Type != dominteraction.Apply || !e.Timestamp.Equal(testNow) {
		t.Errorf("event: got %+v", e)
	}

	rr = do(t, h, http.MethodPost, "/v1/events/interactions", `{"user_id":"U1","job_id":"J1","type":"like"}`)
	resp := expectError(t, rr, http.StatusBadRequest, ErrorCodeInvalidEvent)
	if resp.Message != "validation error: type - oneof" {
		t.Errorf("message: got %q", resp.Message)
	}
}

func TestUpsertProfile(t *testing.T) {
	act := &fakeActivity{}
	h := newTestRouter(Services{Activity: act})

	body := `{"skills":["go","sql"],"preferred_job_types":["contract"],"open_to_remote":true,"latitude":52.5,"longitude":13.4}`
	rr := do(t, h, http.MethodPut, "/v1/profiles/U1", body)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d (body %s)", rr.Code, rr.Body.String())
	}
	p := act.profiles[0]
	if p.UserID != "U1" || !p.Active || !p.OpenToRemote || p.Location == nil || p.Location.Latitude != 52.5 {
		t.Errorf("profile: got %+v", p)
	}
	if len(p.PreferredTypes) != 1 || p.PreferredTypes[0] != domjob.Contract || !p.UpdatedAt.Equal(testNow) {
		t.Errorf("profile: got %+v", p)
	}

	rr = do(t, h, http.MethodPut, "/v1/profiles/U1", `{"latitude":52.5}`)
	expectError(t, rr, http.StatusBadRequest, ErrorCodeInvalidEvent)
}

func TestDismiss(t *testing.T) {
	act := &fakeActivity{}
	rr := do(t, newTestRouter(Services{Activity: act}), http.MethodPost, "/v1/users/U1/dismissals/J7", "")

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d", rr.Code)
	}
	if len(act.dismissed) != 1 || act.dismissed[0] != "U1/J7" {
		t.Errorf("dismissed: got %v", act.dismissed)
	}
}

func TestInteractionHistory(t *testing.T) {
	act := &fakeActivity{historyFn: func(_ context.Context, userID string, limit int) ([]dominteraction.Event, error) {
		if userID != "U1" || limit != 2 {
			t.Errorf("args: got %s %d", userID, limit)
		}
		return []dominteraction.Event{
			{UserID: "U1", JobID: "J2", Type: dominteraction.Apply, Timestamp: testNow},
			{UserID: "U1", JobID: "J1", Type: dominteraction.View, Timestamp: testNow.Add(-time.Hour)},
		}, nil
	}}
	rr := do(t, newTestRouter(Services{Activity: act}), http.MethodGet, "/v1/users/U1/interactions?limit=2", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d (body %s)", rr.Code, rr.Body.String())
	}
	var resp InteractionHistoryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Interactions) != 2 || resp.Interactions[0].JobID != "J2" || resp.Interactions[0].Type != "apply" {
		t.Errorf("interactions: got %+v", resp.Interactions)
	}
}

func TestInteractionHistory_EmptyAndBadLimit(t *testing.T) {
	h := newTestRouter(Services{Activity: &fakeActivity{}})

	rr := do(t, h, http.MethodGet, "/v1/users/U1/interactions", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"interactions":[]`) {
		t.Errorf("empty history: got %d %s", rr.Code, rr.Body.String())
	}

	rr = do(t, h, http.MethodGet, "/v1/users/U1/interactions?limit=many", "")
	expectError(t, rr, http.StatusBadRequest, ErrorCodeBadRequest)
}

func TestRecommendations(t *testing.T) {
	rec := &fakeRecommend{recommendationsFn: func(
		_ context.Context, userID string, limit int, refresh bool,
	) (*domrec.Listing, error) {
		if userID != "U1" || limit != 5 || !refresh {
			t.Errorf("args: got %s %d %v", userID, limit, refresh)
		}
		return &domrec.Listing{Degraded: true}, nil
	}}
	rr := do(t, newTestRouter(Services{Recommend: rec}), http.MethodGet, "/v1/users/U1/recommendations?limit=5&refresh=true", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `"recommendations":[]`) || !strings.Contains(body, `"degraded":true`) {
		t.Errorf("body: got %s", body)
	}
}

func TestMarkClicked_NotFound(t *testing.T) {
	rec := &fakeRecommend{markClickedFn: func(_ context.Context, userID, jobID string) error {
		return fmt.Errorf("recommendations for %s: %w", userID, domain.ErrNotFound)
	}}
	rr := do(t, newTestRouter(Services{Recommend: rec}), http.MethodPost, "/v1/users/U1/recommendations/J1/click", "")
	expectError(t, rr, http.StatusNotFound, ErrorCodeNotFound)
}

func TestRunBatch(t *testing.T) {
	t.Run("report", func(t *testing.T) {
		rec := &fakeRecommend{runBatchFn: func(context.Context) (recommenduc.BatchReport, error) {
			return recommenduc.BatchReport{Users: 3, Succeeded: 2, Failed: 1, Duration: 1500 * time.Millisecond}, nil
		}}
		rr := do(t, newTestRouter(Services{Recommend: rec}), http.MethodPost, "/v1/admin/recommendations/batch", "")

		var resp BatchResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Users != 3 || resp.Failed != 1 || resp.DurationMs != 1500 {
			t.Errorf("report: got %+v", resp)
		}
	})

	t.Run("already running", func(t *testing.T) {
		rec := &fakeRecommend{runBatchFn: func(context.Context) (recommenduc.BatchReport, error) {
			return recommenduc.BatchReport{}, domain.ErrBatchRunning
		}}
		rr := do(t, newTestRouter(Services{Recommend: rec}), http.MethodPost, "/v1/admin/recommendations/batch", "")
		expectError(t, rr, http.StatusConflict, ErrorCodeBatchRunning)
	})
}

func TestInvalidateCache(t *testing.T) {
	c := &fakeCache{}
	h := newTestRouter(Services{Cache: c})

	rr := do(t, h, http.MethodPost, "/v1/cache/invalidate", `{"tags":["search","job:J1"]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if len(c.tags) != 2 || c.tags[1] != "job:J1" {
		t.Errorf("tags: got %v", c.tags)
	}

	rr = do(t, h, http.MethodPost, "/v1/cache/invalidate", `{"tags":[]}`)
	expectError(t, rr, http.StatusBadRequest, ErrorCodeBadRequest)
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name   string
		report healthuc.Report
		want   int
	}{
		{
			name:   "healthy",
			report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK}},
			want:   http.StatusOK,
		},
		{
			name:   "degraded",
			report: healthuc.Report{Status: healthuc.Degraded, Checks: map[string]healthuc.CheckResult{"index": healthuc.CheckError}},
			want:   http.StatusServiceUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, newTestRouter(Services{Health: &fakeHealth{report: tt.report}}), http.MethodGet, "/health", "")
			if rr.Code != tt.want {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.want)
			}
			var resp HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != string(tt.report.Status) {
				t.Errorf("status field: got %s", resp.Status)
			}
		})
	}
}
