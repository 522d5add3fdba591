package httpx

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter is a per-client fixed-window limiter kept in process memory.
// It is the fallback when no Redis is configured.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

type visitor struct {
	count     int
	resetTime time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		limit:    limit,
		window:   window,
		now:      time.Now,
		visitors: map[string]*visitor{},
	}
}

func (rl *RateLimiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := rl.take(clientKey(r))
			if !writeQuota(w, rl.limit, q) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) take(key string) quota {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	v := rl.visitors[key]
	if v == nil || !now.Before(v.resetTime) {
		v = &visitor{resetTime: now.Add(rl.window)}
		rl.visitors[key] = v
	}
	v.count++
	return quota{used: int64(v.count), resetIn: v.resetTime.Sub(now)}
}

// sweep drops expired visitors at most once per window. Caller holds mu.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.window {
		return
	}
	rl.lastSweep = now
	for k, v := range rl.visitors {
		if !now.Before(v.resetTime) {
			delete(rl.visitors, k)
		}
	}
}

func clientKey(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		first, _, _ := strings.Cut(ip, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// quota is one client's standing in the current window after counting the
// request being served.
type quota struct {
	used    int64
	resetIn time.Duration
}

// writeQuota sets the rate limit headers and answers 429 when the quota is
// exhausted. It reports whether the request may proceed.
func writeQuota(w http.ResponseWriter, limit int, q quota) bool {
	remaining := int64(limit) - q.used
	if remaining < 0 {
		remaining = 0
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
	if q.used <= int64(limit) {
		return true
	}
	retry := int(math.Ceil(q.resetIn.Seconds()))
	if retry < 1 {
		retry = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retry))
	WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
	return false
}
