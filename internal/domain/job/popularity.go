package job

import (
	"math"
	"time"
)

// Popularity returns the raw time-decayed popularity of a job at now.
// Applications count double; the decay halves the signal every halfLife of job age.
// The value is unbounded; callers normalize across their candidate set.
func Popularity(j *Job, now time.Time, halfLife time.Duration) float64 {
	raw := math.Log1p(float64(j.ViewCount)) +
		2*math.Log1p(float64(j.ApplicationCount)) +
		math.Log1p(float64(j.SaveCount))
	if raw == 0 {
		return 0
	}
	return raw * Decay(j.PublishedAt, now, halfLife)
}

// Decay is exp(-ln2 * age / halfLife). Jobs without a publish time or from the future decay as new.
func Decay(publishedAt, now time.Time, halfLife time.Duration) float64 {
	if halfLife <= 0 || publishedAt.IsZero() {
		return 1
	}
	age := now.Sub(publishedAt)
	if age <= 0 {
		return 1
	}
	return math.Exp(-math.Ln2 * float64(age) / float64(halfLife))
}
