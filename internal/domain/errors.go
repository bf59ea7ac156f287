package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidFilter signals malformed or contradictory search filters.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidCursor signals a malformed, tampered or foreign pagination cursor.
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrInvalidEvent signals a malformed collaborator event (job mutation, interaction, profile).
	ErrInvalidEvent = errors.New("invalid event")

	// ErrCacheUnavailable signals a degraded cache backend. Never surfaced to callers.
	ErrCacheUnavailable = errors.New("cache unavailable")
	// ErrIndexInconsistent signals a referenced job without a search document.
	ErrIndexInconsistent = errors.New("index inconsistent")
	// ErrRecommendationTimeout signals that on-demand recommendation missed its deadline.
	ErrRecommendationTimeout = errors.New("recommendation timeout")
	// ErrBatchRunning signals that a recommendation batch is already in progress.
	ErrBatchRunning = errors.New("recommendation batch already running")
)

// FilterError wraps ErrInvalidFilter with the offending filter dimension.
type FilterError struct {
	Field  string
	Reason string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidFilter.Error(), e.Field, e.Reason)
}

func (e *FilterError) Unwrap() error { return ErrInvalidFilter }

// NewFilterError creates a filter validation error for the given dimension.
func NewFilterError(field, reason string) error {
	return &FilterError{Field: field, Reason: reason}
}
