package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/v1/users/{user_id}/recommendations", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})
	r.Post("/v1/events/jobs", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	r.Get("/v1/trending", func(http.ResponseWriter, *http.Request) {})
	return r
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := newRouter()
	route := "/v1/users/{user_id}/recommendations"
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", route, "200"))

	for _, user := range []string{"u1", "u2", "u3"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/users/"+user+"/recommendations", http.NoBody))
		if rr.Code != http.StatusOK {
			t.Fatalf("status: got %d", rr.Code)
		}
	}

	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", route, "200")) - before; got != 3 {
		t.Errorf("requests for %s: got %v, want 3", route, got)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected duration observations")
	}
	if v := testutil.ToFloat64(httpRequestsInFlight); v != 0 {
		t.Errorf("in flight after completion: got %v", v)
	}
}

func TestMiddleware_Status(t *testing.T) {
	r := newRouter()
	tests := []struct {
		method, path, route, status string
	}{
		{method: "POST", path: "/v1/events/jobs", route: "/v1/events/jobs", status: "400"},
		{method: "GET", path: "/v1/trending", route: "/v1/trending", status: "200"},
		{method: "GET", path: "/nope", route: unmatchedRoute, status: "404"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tt.method, tt.route, tt.status))
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.path, http.NoBody))
			after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tt.method, tt.route, tt.status))
			if after-before != 1 {
				t.Errorf("counter delta: got %v, want 1", after-before)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	if got := normalizePath(""); got != unmatchedRoute {
		t.Errorf("empty pattern: got %q", got)
	}
	if got := normalizePath("/v1/search"); got != "/v1/search" {
		t.Errorf("pattern: got %q", got)
	}
}
