// Package ratelimit provides a keyed token bucket limiter for outbound
// requests, one bucket per key (typically a host name).
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultIdleTTL is how long an unused bucket is kept before eviction.
const DefaultIdleTTL = 10 * time.Minute

type entry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// KeyedRateLimiter manages per-key rate limiting.
// Each unique key gets its own independent bucket; buckets idle for longer
// than the TTL are dropped by a background sweep.
type KeyedRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a keyed rate limiter allowing rps requests per second per key
// with bursts of up to burst requests.
func New(rps float64, burst int) *KeyedRateLimiter {
	return NewWithTTL(rps, burst, DefaultIdleTTL)
}

// NewWithTTL is New with an explicit idle TTL.
func NewWithTTL(rps float64, burst int, idleTTL time.Duration) *KeyedRateLimiter {
	krl := &KeyedRateLimiter{
		entries: make(map[string]*entry),
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		done:    make(chan struct{}),
	}

	go krl.sweep()

	return krl
}

// Allow reports whether a request for key may proceed now, consuming a
// token if so.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	return krl.get(key).Allow()
}

// Wait blocks until a request for key is allowed or ctx is done.
func (krl *KeyedRateLimiter) Wait(ctx context.Context, key string) error {
	return krl.get(key).Wait(ctx)
}

// Len returns the number of live buckets.
func (krl *KeyedRateLimiter) Len() int {
	krl.mu.Lock()
	defer krl.mu.Unlock()
	return len(krl.entries)
}

func (krl *KeyedRateLimiter) get(key string) *rate.Limiter {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	e, ok := krl.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(krl.limit, krl.burst)}
		krl.entries[key] = e
	}
	e.lastUsed = time.Now()
	return e.limiter
}

// evictIdle drops buckets unused since before cutoff.
func (krl *KeyedRateLimiter) evictIdle(cutoff time.Time) {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	for key, e := range krl.entries {
		if e.lastUsed.Before(cutoff) {
			delete(krl.entries, key)
		}
	}
}

// Stop shuts down the sweep goroutine.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
}

func (krl *KeyedRateLimiter) sweep() {
	if krl.idleTTL <= 0 {
		<-krl.done
		return
	}

	ticker := time.NewTicker(krl.idleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-krl.done:
			return
		case now := <-ticker.C:
			krl.evictIdle(now.Add(-krl.idleTTL))
		}
	}
}
