package interaction

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/jobmatch/internal/db"
	"github.com/kailas-cloud/jobmatch/internal/domain"
	dominteraction "github.com/kailas-cloud/jobmatch/internal/domain/interaction"
)

// DefaultHistoryLimit caps the per-user raw event log.
const DefaultHistoryLimit = 1000

const (
	eventsPrefix    = domain.KeyPrefix + "interactions:"
	userJobsPrefix  = domain.KeyPrefix + "user_jobs:"
	jobUsersPrefix  = domain.KeyPrefix + "job_users:"
	dismissedPrefix = domain.KeyPrefix + "dismissed:"
)

// store is the consumer interface for interaction history (ISP).
type store interface {
	RPushCapped(ctx context.Context, key string, maxLen int64, values ...string) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ZAddMulti(ctx context.Context, items []db.ZAddItem) error
	ZRangeWithScores(ctx context.Context, key string) ([]db.ScoredMember, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

type eventDTO struct {
	JobID     string    `json:"job_id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"ts"`
}

// Repo keeps the append-only event log per user plus two aggregated views:
// the strongest interaction weight per (user, job) indexed both ways.
type Repo struct {
	store        store
	historyLimit int64
}

// New creates an interaction repository. historyLimit <= 0 uses DefaultHistoryLimit.
func New(s store, historyLimit int64) *Repo {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Repo{store: s, historyLimit: historyLimit}
}

// Record appends the event and raises the aggregated pair weight.
func (r *Repo) Record(ctx context.Context, e *dominteraction.Event) error {
	data, err := json.Marshal(eventDTO{JobID: e.JobID, Type: string(e.Type), Timestamp: e.Timestamp.UTC()})
	if err != nil {
		return fmt.Errorf("marshal interaction: %w", err)
	}
	key := eventsPrefix + e.UserID
	if err := r.store.RPushCapped(ctx, key, r.historyLimit, string(data)); err != nil {
		return fmt.Errorf("rpush %s: %w", key, err)
	}

	w := e.Type.Weight()
	items := []db.ZAddItem{
		{Key: userJobsPrefix + e.UserID, Member: e.JobID, Score: w},
		{Key: jobUsersPrefix + e.JobID, Member: e.UserID, Score: w},
	}
	if err := r.store.ZAddMulti(ctx, items); err != nil {
		return fmt.Errorf("zadd interaction weights %s/%s: %w", e.UserID, e.JobID, err)
	}
	return nil
}

// Recent returns up to n of the user's newest events, oldest first.
func (r *Repo) Recent(ctx context.Context, userID string, n int64) ([]dominteraction.Event, error) {
	if n <= 0 {
		return nil, nil
	}
	key := eventsPrefix + userID
	raw, err := r.store.LRange(ctx, key, -n, -1)
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}
	events := make([]dominteraction.Event, 0, len(raw))
	for _, s := range raw {
		var d eventDTO
		if err := json.Unmarshal([]byte(s), &d); err != nil {
			continue
		}
		events = append(events, dominteraction.Event{
			UserID:    userID,
			JobID:     d.JobID,
			Type:      dominteraction.Type(d.Type),
			Timestamp: d.Timestamp,
		})
	}
	return events, nil
}

// UserJobs returns the strongest interaction weight per job for the user.
func (r *Repo) UserJobs(ctx context.Context, userID string) (map[string]float64, error) {
	return r.weights(ctx, userJobsPrefix+userID)
}

// JobUsers returns the strongest interaction weight per user for the job.
func (r *Repo) JobUsers(ctx context.Context, jobID string) (map[string]float64, error) {
	return r.weights(ctx, jobUsersPrefix+jobID)
}

func (r *Repo) weights(ctx context.Context, key string) (map[string]float64, error) {
	members, err := r.store.ZRangeWithScores(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("zrange %s: %w", key, err)
	}
	out := make(map[string]float64, len(members))
	for _, m := range members {
		out[m.Member] = m.Score
	}
	return out, nil
}

// Dismiss records that the user is not interested in the job.
func (r *Repo) Dismiss(ctx context.Context, userID, jobID string) error {
	key := dismissedPrefix + userID
	if err := r.store.SAdd(ctx, key, jobID); err != nil {
		return fmt.Errorf("sadd %s: %w", key, err)
	}
	return nil
}

// Dismissed returns the jobs the user dismissed.
func (r *Repo) Dismissed(ctx context.Context, userID string) (map[string]struct{}, error) {
	key := dismissedPrefix + userID
	ids, err := r.store.SMembers(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("smembers %s: %w", key, err)
	}
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}
