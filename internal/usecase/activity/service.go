// Package activity ingests user-side signals: profile snapshots, interactions
// and dismissals.
package activity

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	dominteraction "github.com/kailas-cloud/jobmatch/internal/domain/interaction"
	domprofile "github.com/kailas-cloud/jobmatch/internal/domain/profile"
	logpkg "github.com/kailas-cloud/jobmatch/internal/logger"
)

// History page sizes.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// Service records user activity.
type Service struct {
	profiles     ProfileStore
	interactions InteractionStore
	recs         Recommendations
	logger       *zap.Logger
}

// New creates an activity service. recs may be nil.
func New(profiles ProfileStore, interactions InteractionStore, recs Recommendations, logger *zap.Logger) *Service {
	return &Service{profiles: profiles, interactions: interactions, recs: recs, logger: logger}
}

// UpsertProfile replaces the stored profile snapshot.
func (s *Service) UpsertProfile(ctx context.Context, p *domprofile.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.profiles.Save(ctx, p); err != nil {
		return fmt.Errorf("save profile %s: %w", p.UserID, err)
	}
	return nil
}

// RecordInteraction appends the event and reflects it in recommendation flags.
// A flag update failure is logged; the interaction itself is already durable.
func (s *Service) RecordInteraction(ctx context.Context, e *dominteraction.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := s.interactions.Record(ctx, e); err != nil {
		return fmt.Errorf("record interaction %s/%s: %w", e.UserID, e.JobID, err)
	}
	if s.recs != nil {
		if err := s.recs.ApplyInteraction(ctx, e); err != nil {
			logpkg.FromContextOr(ctx, s.logger).Warn("Failed to update recommendation flags",
				zap.String("user_id", e.UserID), zap.String("job_id", e.JobID), zap.Error(err))
		}
	}
	return nil
}

// Dismiss marks jobID as not interesting to userID and drops it from their
// persisted recommendations.
func (s *Service) Dismiss(ctx context.Context, userID, jobID string) error {
	if userID == "" || jobID == "" {
		return fmt.Errorf("user_id and job_id are required: %w", domain.ErrInvalidEvent)
	}
	if err := s.interactions.Dismiss(ctx, userID, jobID); err != nil {
		return fmt.Errorf("dismiss %s/%s: %w", userID, jobID, err)
	}
	if s.recs != nil {
		if err := s.recs.Forget(ctx, userID, jobID); err != nil {
			logpkg.FromContextOr(ctx, s.logger).Warn("Failed to drop dismissed recommendation",
				zap.String("user_id", userID), zap.String("job_id", jobID), zap.Error(err))
		}
	}
	return nil
}

// History returns up to limit of the user's newest interactions, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]dominteraction.Event, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required: %w", domain.ErrInvalidEvent)
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, MaxHistoryLimit)
	events, err := s.interactions.Recent(ctx, userID, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("interaction history %s: %w", userID, err)
	}
	slices.Reverse(events)
	return events, nil
}
