package httpx

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter is a fixed-window limiter shared by every replica through Redis.
type RedisRateLimiter struct {
	rdb    redis.Scripter
	limit  int
	window time.Duration
	prefix string
}

// The script returns {count, pttl} so the middleware can report when the
// window resets.
var redisFixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

func NewRedisRateLimiter(rdb redis.Scripter, limit int, window time.Duration, prefix string) *RedisRateLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisRateLimiter{rdb: rdb, limit: limit, window: window, prefix: prefix}
}

// Middleware rejects over-limit clients. When Redis itself fails the request is
// let through if failOpen is set, otherwise answered with 503.
func (rl *RedisRateLimiter) Middleware(logger *slog.Logger, failOpen bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q, err := rl.take(r.Context(), rl.prefix+":"+clientKey(r))
			if err != nil {
				logger.WarnContext(r.Context(), "redis rate limiter error", "err", err, "fail_open", failOpen)
				if failOpen {
					next.ServeHTTP(w, r)
					return
				}
				WriteError(w, http.StatusServiceUnavailable, "rate limiter unavailable")
				return
			}
			if !writeQuota(w, rl.limit, q) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RedisRateLimiter) take(ctx context.Context, key string) (quota, error) {
	res, err := redisFixedWindowScript.Run(ctx, rl.rdb, []string{key}, rl.window.Milliseconds()).Int64Slice()
	if err != nil {
		return quota{}, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 2 {
		return quota{}, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}
	resetIn := time.Duration(res[1]) * time.Millisecond
	if res[1] < 0 {
		resetIn = rl.window
	}
	return quota{used: res[0], resetIn: resetIn}, nil
}
