package cache

import "time"

// Policy decides whether a stored page must be fetched again.
type Policy interface {
	IsStale(storedAt, now time.Time) bool
}

// NeverStale keeps every stored page forever.
type NeverStale struct{}

// IsStale implements Policy.
func (NeverStale) IsStale(time.Time, time.Time) bool { return false }

// MaxAge expires pages older than its duration.
type MaxAge time.Duration

// IsStale implements Policy.
func (m MaxAge) IsStale(storedAt, now time.Time) bool {
	return now.Sub(storedAt) > time.Duration(m)
}

// PolicyFor returns MaxAge(d) for positive d and NeverStale otherwise.
func PolicyFor(d time.Duration) Policy {
	if d > 0 {
		return MaxAge(d)
	}
	return NeverStale{}
}
