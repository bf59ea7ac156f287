package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/jobmatch/internal/db"
	"github.com/kailas-cloud/jobmatch/internal/domain"
	domjob "github.com/kailas-cloud/jobmatch/internal/domain/job"
)

const (
	keyPrefix = domain.KeyPrefix + "job:"
	// mgetBatch bounds the number of keys per MGET during bootstrap.
	mgetBatch = 500
)

// store is the consumer interface for job records (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo keeps the last indexed version of every job so the index can be
// rebuilt on startup. It is a derived copy; the job collaborator owns the record.
type Repo struct {
	store store
}

// New creates a job repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Save stores the job record.
func (r *Repo) Save(ctx context.Context, j *domjob.Job) error {
	data, err := json.Marshal(toDTO(j))
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", j.ID, err)
	}
	key := jobKey(j.ID)
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Get returns a job by ID.
func (r *Repo) Get(ctx context.Context, id string) (*domjob.Job, error) {
	key := jobKey(id)
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return decode(raw)
}

// Delete removes a job record. Deleting a missing job is not an error.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := jobKey(id)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// All returns every stored job. Undecodable records are skipped and counted.
func (r *Repo) All(ctx context.Context) ([]*domjob.Job, int, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return nil, 0, fmt.Errorf("scan jobs: %w", err)
	}

	jobs := make([]*domjob.Job, 0, len(keys))
	skipped := 0
	for start := 0; start < len(keys); start += mgetBatch {
		end := min(start+mgetBatch, len(keys))
		values, err := r.store.MGet(ctx, keys[start:end])
		if err != nil {
			return nil, 0, fmt.Errorf("mget jobs: %w", err)
		}
		for _, raw := range values {
			if raw == nil {
				// deleted between SCAN and MGET
				continue
			}
			j, err := decode(raw)
			if err != nil {
				skipped++
				continue
			}
			jobs = append(jobs, j)
		}
	}
	return jobs, skipped, nil
}

func decode(raw []byte) (*domjob.Job, error) {
	var d jobDTO
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	if d.ID == "" {
		return nil, fmt.Errorf("job record without id: %w", domain.ErrInvalidEvent)
	}
	return d.toDomain(), nil
}

func jobKey(id string) string {
	return keyPrefix + id
}
