package api

import (
	"net/http"
	"sync"
	"time"
)

// RateLimiter is a fixed-window counter keyed by caller identity. Excess
// mutating requests are rejected before the service layer runs.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	windowStart time.Time
	count       int
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

func (l *RateLimiter) Allow(key string) bool {
	if l.limit <= 0 {
		return true
	}

	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || now.Sub(b.windowStart) >= l.window {
		l.buckets[key] = &bucket{windowStart: now, count: 1}
		return true
	}
	if b.count >= l.limit {
		return false
	}
	b.count++
	return true
}

// RateLimit wraps mutating routes; the key is the session user id. Runs after
// SessionAuth so anonymous requests were already rejected.
func RateLimit(l *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := UserFromContext(r.Context())
			key := r.RemoteAddr
			if u != nil {
				key = u.ID
			}
			if !l.Allow(key) {
				WriteError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, retry later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
