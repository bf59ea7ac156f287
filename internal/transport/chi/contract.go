package chi

import (
	"context"

	dominteraction "github.com/kailas-cloud/jobmatch/internal/domain/interaction"
	domjob "github.com/kailas-cloud/jobmatch/internal/domain/job"
	domprofile "github.com/kailas-cloud/jobmatch/internal/domain/profile"
	domrec "github.com/kailas-cloud/jobmatch/internal/domain/recommendation"
	healthuc "github.com/kailas-cloud/jobmatch/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/jobmatch/internal/usecase/indexing"
	recommenduc "github.com/kailas-cloud/jobmatch/internal/usecase/recommend"
	searchuc "github.com/kailas-cloud/jobmatch/internal/usecase/search"
	suggestuc "github.com/kailas-cloud/jobmatch/internal/usecase/suggest"
	trendinguc "github.com/kailas-cloud/jobmatch/internal/usecase/trending"
)

// Searcher runs paginated job search.
type Searcher interface {
	Search(ctx context.Context, req *searchuc.Request) (*searchuc.Page, error)
}

// Suggester completes search prefixes.
type Suggester interface {
	Suggest(ctx context.Context, prefix string, limit int) ([]suggestuc.Suggestion, error)
}

// TrendingLister lists popular jobs.
type TrendingLister interface {
	Trending(ctx context.Context, limit int, category string) ([]trendinguc.Item, error)
}

// Recommender serves and maintains per-user recommendations.
type Recommender interface {
	Recommendations(ctx context.Context, userID string, limit int, refresh bool) (*domrec.Listing, error)
	MarkClicked(ctx context.Context, userID, jobID string) error
	RunBatch(ctx context.Context) (recommenduc.BatchReport, error)
}

// JobIndexer consumes job mutation events.
type JobIndexer interface {
	ApplyAll(ctx context.Context, ms []*domjob.Mutation) (indexinguc.Summary, error)
}

// ActivityRecorder consumes profile snapshots and user behavior.
type ActivityRecorder interface {
	UpsertProfile(ctx context.Context, p *domprofile.Profile) error
	RecordInteraction(ctx context.Context, e *dominteraction.Event) error
	History(ctx context.Context, userID string, limit int) ([]dominteraction.Event, error)
	Dismiss(ctx context.Context, userID, jobID string) error
}

// CacheInvalidator drops cached entries by tag.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, tags ...string) error
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
