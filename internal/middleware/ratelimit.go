package middleware

import (
	"net/http"
	"sync"
	"time"
)

type bucket struct {
	count int
	until time.Time
}

// RateLimit enforces a fixed-window limit per caller. Authenticated requests
// are keyed by user id so a shared NAT cannot exhaust another user's budget;
// anonymous requests fall back to the client IP.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	var mu sync.Mutex
	buckets := make(map[string]*bucket)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rateLimitKey(r)
			mu.Lock()
			b, ok := buckets[key]
			now := time.Now()
			if !ok || now.After(b.until) {
				b = &bucket{count: 0, until: now.Add(per)}
				buckets[key] = b
			}
			if b.count >= limit {
				mu.Unlock()
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			b.count++
			mu.Unlock()
			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitKey(r *http.Request) string {
	if user := UserFromContext(r.Context()); user != nil {
		return "user:" + user.ID
	}
	return "ip:" + ClientIP(r)
}
