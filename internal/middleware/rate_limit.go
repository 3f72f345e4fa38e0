package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultBlockDuration is how long a client/endpoint pair stays banned
// after exceeding its limit. Deliberately decoupled from the window: the
// penalty escalates well past the window that was exceeded.
const DefaultBlockDuration = 5 * time.Minute

// Policy bounds one endpoint: at most Limit requests per Window for each
// client. Policies are plain configuration handed to the router, not
// annotations on handlers.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

// LimiterStore decides whether a keyed request is admitted. Implementations
// must treat the check-and-record sequence as atomic per key.
type LimiterStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// MemoryStore is the in-process limiter: a sliding window of timestamps
// per key, pruned on read, plus a block table with timed expiry. All
// decisions run under one mutex so concurrent requests for the same key
// cannot overshoot the limit. The bound is per process; multi-process
// deployments should use RedisStore instead.
type MemoryStore struct {
	mu       sync.Mutex
	logs     map[string][]time.Time
	blocks   *gocache.Cache
	blockFor time.Duration
	now      func() time.Time
}

// MemoryStoreOption configures a MemoryStore
type MemoryStoreOption func(*MemoryStore)

// WithBlockDuration overrides the ban duration applied on limit excess
func WithBlockDuration(d time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) { s.blockFor = d }
}

// NewMemoryStore creates an in-process limiter store
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		logs:     make(map[string][]time.Time),
		blockFor: DefaultBlockDuration,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	// The janitor removes expired blocks instead of leaving them ignored
	s.blocks = gocache.New(s.blockFor, time.Minute)
	return s
}

// Allow implements LimiterStore
func (s *MemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	// An active block rejects without touching the request log
	if _, blocked := s.blocks.Get(key); blocked {
		return false, nil
	}

	// Prune entries older than the window
	cutoff := now.Add(-window)
	log := s.logs[key]
	kept := log[:0]
	for _, ts := range log {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= limit {
		s.blocks.Set(key, struct{}{}, s.blockFor)
		delete(s.logs, key)
		return false, nil
	}

	s.logs[key] = append(kept, now)
	return true, nil
}

// RedisStore enforces the same admission semantics against Redis so the
// bound holds across processes: a counter per fixed window slot plus a
// block key with TTL.
type RedisStore struct {
	client   *redis.Client
	blockFor time.Duration
}

// NewRedisStore creates a Redis-backed limiter store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, blockFor: DefaultBlockDuration}
}

// Allow implements LimiterStore
func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	blockKey := "ratelimit:block:" + key

	blocked, err := s.client.Exists(ctx, blockKey).Result()
	if err != nil {
		return false, err
	}
	if blocked > 0 {
		return false, nil
	}

	slot := time.Now().Truncate(window).Unix()
	countKey := fmt.Sprintf("ratelimit:count:%s:%d", key, slot)

	pipe := s.client.Pipeline()
	incr := pipe.Incr(ctx, countKey)
	pipe.Expire(ctx, countKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	if int(incr.Val()) > limit {
		if err := s.client.Set(ctx, blockKey, 1, s.blockFor).Err(); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// ClientIdentity extracts the rate-limit identity of a request: the first
// forwarded address when behind a proxy, else the direct peer, else a
// fallback placeholder.
func ClientIdentity(c *gin.Context) string {
	if fwd := c.Request.Header.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// RateLimit returns a middleware stage enforcing the given policy against
// the shared store. Rejections carry a Retry-After hint matching the block
// duration and are recorded on the security channel. A failing store
// (e.g. Redis unreachable) fails open rather than refusing traffic.
func RateLimit(store LimiterStore, policy Policy, seclog zerolog.Logger) gin.HandlerFunc {
	retryAfter := int(DefaultBlockDuration.Seconds())

	return func(c *gin.Context) {
		identity := ClientIdentity(c)
		key := identity + ":" + policy.Name

		allowed, err := store.Allow(c.Request.Context(), key, policy.Limit, policy.Window)
		if err != nil {
			seclog.Warn().Err(err).Str("endpoint", policy.Name).Msg("rate limit check failed, admitting request")
			c.Next()
			return
		}

		if !allowed {
			rateLimitRejections.WithLabelValues(policy.Name).Inc()
			seclog.Warn().
				Str("event", "rate_limit_exceeded").
				Str("client", identity).
				Str("endpoint", policy.Name).
				Msg("request rejected by admission guard")

			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many requests, please wait before retrying",
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}
