package internal

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixed-window counter: INCR + PEXPIRE on first hit, atomic via Lua
var rateLimitScript = redis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local windowMs = tonumber(ARGV[2])

	local count = redis.call('INCR', key)
	if count == 1 then
		redis.call('PEXPIRE', key, windowMs)
	end
	if count > limit then
		return 0
	end
	return 1
`)

// RedisRateLimiter is a fixed-window per-IP rate limiter backed by Redis,
// for deployments running multiple webhook replicas behind one address.
// The client can be *redis.Client, *redis.ClusterClient, or *redis.Ring.
type RedisRateLimiter struct {
	client    redis.UniversalClient
	keyPrefix string
	limit     int
	window    time.Duration
}

// NewRedisRateLimiter creates a Redis-backed rate limiter.
func NewRedisRateLimiter(client redis.UniversalClient, keyPrefix string, limit int, window time.Duration) *RedisRateLimiter {
	if keyPrefix == "" {
		keyPrefix = "subsync:ratelimit:"
	}
	return &RedisRateLimiter{
		client:    client,
		keyPrefix: keyPrefix,
		limit:     limit,
		window:    window,
	}
}

// Allow reports whether the given IP is within its window budget.
// Redis errors fail open: a broken limiter must not reject billing events.
func (rl *RedisRateLimiter) Allow(ctx context.Context, ip string) bool {
	res, err := rateLimitScript.Run(ctx, rl.client,
		[]string{rl.keyPrefix + ip},
		rl.limit, rl.window.Milliseconds(),
	).Int()
	if err != nil {
		return true
	}
	return res == 1
}

// Middleware wraps an HTTP handler with distributed rate limiting
func (rl *RedisRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := GetClientIP(r)
		if !rl.Allow(r.Context(), ip) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
