package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// UserRateLimiter throttles quiz-start attempts per user so a double-sent
// command or a hammered button cannot spin up work faster than intended.
type UserRateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*userLimiter
}

type userLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewUserRateLimiter allows `perMinute` events per minute per user with the
// given burst.
func NewUserRateLimiter(perMinute float64, burst int) *UserRateLimiter {
	return &UserRateLimiter{
		limit:    rate.Limit(perMinute / 60.0),
		burst:    burst,
		limiters: map[string]*userLimiter{},
	}
}

// Allow reports whether userID may proceed now.
func (rl *UserRateLimiter) Allow(userID string) bool {
	rl.mu.Lock()
	ul, ok := rl.limiters[userID]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[userID] = ul
	}
	ul.lastAccess = time.Now()
	rl.mu.Unlock()
	return ul.limiter.Allow()
}

// Cleanup drops limiters idle longer than ttl; callers run it periodically.
func (rl *UserRateLimiter) Cleanup(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	removed := 0
	for uid, ul := range rl.limiters {
		if ul.lastAccess.Before(cutoff) {
			delete(rl.limiters, uid)
			removed++
		}
	}
	return removed
}

// Size reports the number of tracked users, for tests and metrics.
func (rl *UserRateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}
