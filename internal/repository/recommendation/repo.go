package recommendation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/jobmatch/internal/db"
	"github.com/kailas-cloud/jobmatch/internal/domain"
	domrec "github.com/kailas-cloud/jobmatch/internal/domain/recommendation"
)

const keyPrefix = domain.KeyPrefix + "recs:"

// store is the consumer interface for recommendation sets (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Repo stores each user's whole recommendation set under one key, so a
// recomputation replaces the previous set with a single write.
type Repo struct {
	store store
	// retention keeps sets past their entries' expiry as degraded fallbacks.
	retention time.Duration
}

// New creates a recommendation repository. retention is how long a set
// outlives its expiry for degraded reads.
func New(s store, retention time.Duration) *Repo {
	return &Repo{store: s, retention: retention}
}

// Save replaces the user's set. The key expires retention after the set's
// latest entry expiry.
func (r *Repo) Save(ctx context.Context, set *domrec.Set, now time.Time) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal recommendations %s: %w", set.UserID, err)
	}
	ttl := r.retention
	for i := range set.Entries {
		if d := set.Entries[i].ExpiresAt.Sub(now) + r.retention; d > ttl {
			ttl = d
		}
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	key := recsKey(set.UserID)
	if err := r.store.SetWithTTL(ctx, key, data, ttl); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Get returns the user's last persisted set, fresh or not.
func (r *Repo) Get(ctx context.Context, userID string) (*domrec.Set, error) {
	key := recsKey(userID)
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("recommendations %s: %w", userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	var set domrec.Set
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return &set, nil
}

func recsKey(userID string) string {
	return keyPrefix + userID
}
