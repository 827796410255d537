package sources

import (
	"time"

	"golang.org/x/time/rate"
)

// newRateLimiter allows one request per interval with no burst. A zero interval disables pacing.
func newRateLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}
