package recommendation

import (
	"time"
)

// Algorithm labels the strategy that produced an entry.
type Algorithm string

// Supported algorithms.
const (
	ContentBased  Algorithm = "content_based"
	Collaborative Algorithm = "collaborative"
	Hybrid        Algorithm = "hybrid"
	Trending      Algorithm = "trending"
)

// Breakdown holds the normalized component scores, each in [0,1].
type Breakdown struct {
	Content       float64 `json:"content"`
	Collaborative float64 `json:"collaborative"`
	Popularity    float64 `json:"popularity"`
}

// Flags track what the user did with a recommendation.
type Flags struct {
	Viewed  bool `json:"viewed"`
	Clicked bool `json:"clicked"`
	Applied bool `json:"applied"`
}

// Entry is one persisted recommendation for a user.
type Entry struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	JobID      string    `json:"job_id"`
	Algorithm  Algorithm `json:"algorithm"`
	Score      float64   `json:"score"`
	Breakdown  Breakdown `json:"breakdown"`
	Reason     string    `json:"reason"`
	ComputedAt time.Time `json:"computed_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Flags      Flags     `json:"flags"`
}

// Fresh reports whether the entry is still valid at now.
func (e *Entry) Fresh(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// Set is a user's complete recommendation list as of one computation.
type Set struct {
	UserID     string    `json:"user_id"`
	ComputedAt time.Time `json:"computed_at"`
	Entries    []Entry   `json:"entries"`
}

// Fresh reports whether the set may be served without recomputation.
func (s *Set) Fresh(now time.Time) bool {
	if len(s.Entries) == 0 {
		return false
	}
	for i := range s.Entries {
		if !s.Entries[i].Fresh(now) {
			return false
		}
	}
	return true
}

// Listing is what the on-demand read returns.
type Listing struct {
	Entries []Entry
	// Degraded marks a stale or popularity-only fallback.
	Degraded bool
}
