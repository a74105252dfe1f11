// internal/resolver/ratelimit.go
package resolver

import (
	"time"

	"go.uber.org/ratelimit"
)

// RateLimiter enforces minimum spacing between requests to one upstream host.
// Each SourceClient owns its own limiter; limits are per-host, not global.
type RateLimiter struct {
	limiter ratelimit.Limiter
}

// NewRateLimiter builds a limiter allowing perMinute requests per minute.
// perMinute <= 0 disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		return &RateLimiter{limiter: ratelimit.NewUnlimited()}
	}
	return &RateLimiter{limiter: ratelimit.New(perMinute, ratelimit.Per(time.Minute))}
}

// Take blocks until the next request slot is available and returns the time
// the slot was granted.
func (r *RateLimiter) Take() time.Time {
	return r.limiter.Take()
}
