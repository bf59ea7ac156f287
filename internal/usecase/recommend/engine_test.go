package recommend

import (
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/jobmatch/internal/analysis"
	"github.com/kailas-cloud/jobmatch/internal/domain/job"
	domprofile "github.com/kailas-cloud/jobmatch/internal/domain/profile"
	domrec "github.com/kailas-cloud/jobmatch/internal/domain/recommendation"
	"github.com/kailas-cloud/jobmatch/internal/index"
)

var now = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

func newTestIndex(t *testing.T, jobs ...*job.Job) (*index.Index, *analysis.Analyzer) {
	t.Helper()
	an, err := analysis.New()
	if err != nil {
		t.Fatalf("analysis.New: %v", err)
	}
	ix := index.New(an, index.DefaultWeights(), index.WithClock(func() time.Time { return now }))
	for _, j := range jobs {
		ix.Upsert(j, now)
	}
	return ix, an
}

func newJob(id, title string, skills ...string) *job.Job {
	return &job.Job{ID: id, Title: title, Skills: skills, Status: job.Published, PublishedAt: now.Add(-time.Hour)}
}

func scoredIDs(s []Scored) []string {
	out := make([]string, len(s))
	for i := range s {
		out[i] = s[i].JobID
	}
	return out
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestScore_ContentMatch(t *testing.T) {
	ix, an := newTestIndex(t, newJob("a", "Golang", "golang"), newJob("b", "Chef"))
	e := NewEngine(an, DefaultEngineConfig())
	in := &Input{Profile: &domprofile.Profile{UserID: "u", Skills: []string{"Golang"}}}

	got := e.Score(ix.Snapshot(), in, now, 10)
	if len(got) != 1 || got[0].JobID != "a" {
		t.Fatalf("got %+v", got)
	}
	// content 1.0 weighted 0.5 over a total weight of 1.0
	if !near(got[0].Score, 0.5) {
		t.Errorf("score = %v, want 0.5", got[0].Score)
	}
	if got[0].Algorithm != domrec.ContentBased {
		t.Errorf("algorithm = %s", got[0].Algorithm)
	}
	if !strings.Contains(got[0].Reason, "matches 1 of your skills") {
		t.Errorf("reason = %q", got[0].Reason)
	}
}

func TestScore_ExcludesAppliedAndDismissed(t *testing.T) {
	applied := newJob("applied", "Go", "golang")
	saved := newJob("saved", "Go", "golang")
	dismissed := newJob("dismissed", "Go", "golang")
	ix, an := newTestIndex(t, applied, saved, dismissed)
	e := NewEngine(an, DefaultEngineConfig())

	in := &Input{
		Profile:      &domprofile.Profile{UserID: "u", Skills: []string{"golang"}},
		Interactions: map[string]float64{"applied": 1.0, "saved": 0.6},
		Dismissed:    map[string]struct{}{"dismissed": {}},
	}
	got := e.Score(ix.Snapshot(), in, now, 10)
	if want := []string{"saved"}; !reflect.DeepEqual(scoredIDs(got), want) {
		t.Fatalf("got %v, want %v", scoredIDs(got), want)
	}
}

func TestScore_BoundedAndDeterministic(t *testing.T) {
	var jobs []*job.Job
	for i, title := range []string{"Go Engineer", "Rust Engineer", "Go Lead", "Designer"} {
		j := newJob(string(rune('a'+i)), title, "golang", "kubernetes")
		j.ViewCount = int64(10 * (i + 1))
		j.ApplicationCount = int64(i)
		j.Remote = i%2 == 0
		j.Location = "Berlin"
		jobs = append(jobs, j)
	}
	ix, an := newTestIndex(t, jobs...)
	cfg := DefaultEngineConfig()
	cfg.MinScore = 0
	e := NewEngine(an, cfg)

	in := &Input{
		Profile: &domprofile.Profile{
			UserID: "u", Skills: []string{"golang"}, OpenToRemote: true,
			PreferredLocations: []string{"berlin"}, PreferredTypes: []job.Type{job.FullTime},
		},
		Neighbors: []Neighbor{{UserID: "v", Similarity: 0.5, Jobs: map[string]float64{"c": 1.0}}},
	}
	first := e.Score(ix.Snapshot(), in, now, 10)
	second := e.Score(ix.Snapshot(), in, now, 10)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical inputs produced different output")
	}
	if len(first) != 4 {
		t.Fatalf("got %d results", len(first))
	}
	for i, s := range first {
		if s.Score < 0 || s.Score > 1 {
			t.Errorf("%s: score %v out of [0,1]", s.JobID, s.Score)
		}
		if i > 0 && first[i-1].Score < s.Score {
			t.Errorf("not sorted at %d", i)
		}
	}
}

func TestScore_MinScoreAndTies(t *testing.T) {
	ix, an := newTestIndex(t, newJob("b", "Golang", "golang"), newJob("a", "Golang", "golang"), newJob("z", "Chef"))
	cfg := DefaultEngineConfig()
	cfg.MinScore = 0.3
	e := NewEngine(an, cfg)
	in := &Input{Profile: &domprofile.Profile{UserID: "u", Skills: []string{"golang"}}}

	got := e.Score(ix.Snapshot(), in, now, 10)
	if want := []string{"a", "b"}; !reflect.DeepEqual(scoredIDs(got), want) {
		t.Fatalf("got %v, want %v", scoredIDs(got), want)
	}
}

func TestNearestNeighbors(t *testing.T) {
	own := map[string]float64{"j1": 1.0, "j2": 0.3}
	others := map[string]map[string]float64{
		"v1": {"j1": 1.0, "j3": 1.0},
		"v2": {"j1": 0.3, "j2": 0.3, "j4": 0.6},
		"v3": {"j5": 1.0},
	}

	got := NearestNeighbors(own, others, 2)
	if len(got) != 2 || got[0].UserID != "v2" || got[1].UserID != "v1" {
		t.Fatalf("neighbors = %+v", got)
	}
	if !near(got[0].Similarity, 2.0/3) || !near(got[1].Similarity, 1.0/3) {
		t.Errorf("similarities = %v, %v", got[0].Similarity, got[1].Similarity)
	}

	if c := collaborative(got, "j3"); !near(c, 1.0/3) {
		t.Errorf("collaborative(j3) = %v, want 1/3", c)
	}
	if c := collaborative(got, "j4"); !near(c, 0.4) {
		t.Errorf("collaborative(j4) = %v, want 0.4", c)
	}
	if c := collaborative(nil, "j4"); c != 0 {
		t.Errorf("no neighbors = %v", c)
	}
	if n := NearestNeighbors(nil, others, 2); n != nil {
		t.Errorf("user without interactions has neighbors: %+v", n)
	}
}

func TestPopular(t *testing.T) {
	hot := newJob("hot", "Hot")
	hot.ViewCount, hot.ApplicationCount = 100, 10
	warm := newJob("warm", "Warm")
	warm.ViewCount = 10
	ix, an := newTestIndex(t, warm, hot, newJob("cold", "Cold"))
	e := NewEngine(an, DefaultEngineConfig())

	got := e.Popular(ix.Snapshot(), &Input{}, now, 2)
	if want := []string{"hot", "warm"}; !reflect.DeepEqual(scoredIDs(got), want) {
		t.Fatalf("got %v, want %v", scoredIDs(got), want)
	}
	if got[0].Score != 1 || got[0].Algorithm != domrec.Trending {
		t.Errorf("top = %+v", got[0])
	}
}

func TestCosine(t *testing.T) {
	set := func(toks ...string) map[string]struct{} {
		m := map[string]struct{}{}
		for _, t := range toks {
			m[t] = struct{}{}
		}
		return m
	}
	tests := []struct {
		name string
		a, b map[string]struct{}
		want float64
	}{
		{"identical", set("x", "y"), set("x", "y"), 1},
		{"disjoint", set("x"), set("y"), 0},
		{"half", set("x"), set("x", "y", "z", "w"), 0.5},
		{"empty", set(), set("x"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cosine(tt.a, tt.b); !near(got, tt.want) {
				t.Errorf("cosine = %v, want %v", got, tt.want)
			}
		})
	}
}
