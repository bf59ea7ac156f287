package redis

import (
	"context"

	"github.com/kailas-cloud/jobmatch/internal/db"
)

// RPushCapped appends values and trims the list to its newest maxLen entries
// in a single DoMulti round-trip.
func (s *Store) RPushCapped(ctx context.Context, key string, maxLen int64, values ...string) error {
	if len(values) == 0 {
		return nil
	}
	push := s.b().Rpush().Key(key).Element(values...).Build()
	if maxLen <= 0 {
		if err := s.do(ctx, push).Error(); err != nil {
			return &db.Error{Op: db.OpRPush, Err: err}
		}
		return nil
	}
	trim := s.b().Ltrim().Key(key).Start(-maxLen).Stop(-1).Build()
	results := s.client.DoMulti(ctx, push, trim)
	if err := results[0].Error(); err != nil {
		return &db.Error{Op: db.OpRPush, Err: err}
	}
	if err := results[1].Error(); err != nil {
		return &db.Error{Op: db.OpLTrim, Err: err}
	}
	return nil
}

// LRange returns list elements between start and stop (inclusive, negative from the tail).
func (s *Store) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	cmd := s.b().Lrange().Key(key).Start(start).Stop(stop).Build()
	vals, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpLRange, Err: err}
	}
	return vals, nil
}
