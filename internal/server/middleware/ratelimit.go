package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	limiterSweepInterval = 10 * time.Minute
	limiterIdleTimeout   = 30 * time.Minute
	rateLimitedDetail    = "Too many requests. Please slow down."
)

type entry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// keyedLimiter hands out one token bucket per key. Idle buckets are swept
// until ctx is done.
type keyedLimiter[K comparable] struct {
	mu       sync.Mutex
	limiters map[K]*entry
	rps      rate.Limit
	burst    int
}

func newKeyedLimiter[K comparable](ctx context.Context, rps float64, burst int) *keyedLimiter[K] {
	kl := &keyedLimiter[K]{
		limiters: make(map[K]*entry),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
	go kl.sweep(ctx)
	return kl
}

func (kl *keyedLimiter[K]) allow(key K) bool {
	kl.mu.Lock()
	e, ok := kl.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(kl.rps, kl.burst)}
		kl.limiters[key] = e
	}
	e.lastAccess = time.Now()
	kl.mu.Unlock()

	return e.limiter.Allow()
}

func (kl *keyedLimiter[K]) sweep(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-limiterIdleTimeout)
			kl.mu.Lock()
			for k, e := range kl.limiters {
				if e.lastAccess.Before(cutoff) {
					delete(kl.limiters, k)
				}
			}
			kl.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

// RateLimitByIP applies per-IP rate limiting for unauthenticated endpoints.
// Run it after chi's RealIP so proxied requests are keyed by client address.
func RateLimitByIP(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	kl := newKeyedLimiter[string](ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !kl.allow(clientIP(r)) {
				writeProblem(w, http.StatusTooManyRequests, rateLimitedDetail)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit applies per-user rate limiting. It must run after Auth; requests
// without a user pass through.
func RateLimit(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	kl := newKeyedLimiter[uuid.UUID](ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			if !kl.allow(userID) {
				writeProblem(w, http.StatusTooManyRequests, rateLimitedDetail)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
