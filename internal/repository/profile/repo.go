package profile

import (
	"context"
	"fmt"
	"slices"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	domprofile "github.com/kailas-cloud/jobmatch/internal/domain/profile"
)

const (
	keyPrefix = domain.KeyPrefix + "profile:"
	activeKey = domain.KeyPrefix + "users:active"
)

// store is the consumer interface for profile snapshots (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Repo stores profile snapshots as hashes plus the set of active users.
type Repo struct {
	store store
}

// New creates a profile repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Save replaces the user's snapshot and updates active-set membership.
func (r *Repo) Save(ctx context.Context, p *domprofile.Profile) error {
	key := profileKey(p.UserID)
	if err := r.store.HSet(ctx, key, buildHashFields(p)); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	if p.Active {
		if err := r.store.SAdd(ctx, activeKey, p.UserID); err != nil {
			return fmt.Errorf("sadd %s: %w", activeKey, err)
		}
		return nil
	}
	if err := r.store.SRem(ctx, activeKey, p.UserID); err != nil {
		return fmt.Errorf("srem %s: %w", activeKey, err)
	}
	return nil
}

// Get returns the user's snapshot.
func (r *Repo) Get(ctx context.Context, userID string) (*domprofile.Profile, error) {
	key := profileKey(userID)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return nil, fmt.Errorf("profile %s: %w", userID, domain.ErrNotFound)
	}
	return parseHashFields(userID, m), nil
}

// ActiveUsers returns the ids of active users in ascending order.
func (r *Repo) ActiveUsers(ctx context.Context) ([]string, error) {
	users, err := r.store.SMembers(ctx, activeKey)
	if err != nil {
		return nil, fmt.Errorf("smembers %s: %w", activeKey, err)
	}
	slices.Sort(users)
	return users, nil
}

func profileKey(userID string) string {
	return keyPrefix + userID
}
