package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/AnshRaj112/travelstory-backend/pkg/clientip"
)

const RateLimitKeyPrefix = "ratelimit:"

// Limiter decides whether one more request for key fits in the budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, err error)
	Limit() int
}

// NewLimiter returns a Redis fixed-window limiter when client is set and an
// in-process token bucket otherwise.
func NewLimiter(client *redis.Client, limit int, window time.Duration) Limiter {
	if client != nil {
		return &RedisLimiter{client: client, limit: limit, window: window, prefix: RateLimitKeyPrefix}
	}
	return NewMemoryLimiter(limit, window)
}

// RedisLimiter counts requests per key in a fixed window shared by every
// server instance.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func (l *RedisLimiter) Limit() int { return l.limit }

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	redisKey := l.prefix + key
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return true, l.limit, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return true, l.limit, err
		}
	}
	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return int(count) <= l.limit, remaining, nil
}

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// MemoryLimiter is a per-key token bucket refilling limit tokens per window.
// Idle keys are swept lazily.
type MemoryLimiter struct {
	limit     int
	every     time.Duration
	ttl       time.Duration
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	if limit <= 0 {
		limit = 1
	}
	return &MemoryLimiter{
		limit:   limit,
		every:   window / time.Duration(limit),
		ttl:     30 * time.Minute,
		entries: make(map[string]*limiterEntry),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Limit() int { return l.limit }

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > 5*time.Minute {
		for k, e := range l.entries {
			if now.Sub(e.lastUse) > l.ttl {
				delete(l.entries, k)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Every(l.every), l.limit)}
		l.entries[key] = e
	}
	e.lastUse = now
	allowed := e.limiter.AllowN(now, 1)
	remaining := int(e.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return allowed, remaining, nil
}

// RateLimit applies limiter per client IP. Limiter errors fail open.
func RateLimit(limiter Limiter, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := scope + ":" + clientip.RealClientIP(r)
			allowed, remaining, err := limiter.Allow(r.Context(), key)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !allowed {
				writeJSONError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
