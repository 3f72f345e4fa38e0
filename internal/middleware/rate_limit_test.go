package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreAllowsUpToLimit(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, err := store.Allow(ctx, "1.2.3.4:generate", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be admitted", i+1)
	}

	allowed, err := store.Allow(ctx, "1.2.3.4:generate", 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed, "request over the limit must be rejected")
}

func TestMemoryStoreBlockPersistsWithoutTraffic(t *testing.T) {
	store := NewMemoryStore(WithBlockDuration(100 * time.Millisecond))
	ctx := context.Background()

	_, err := store.Allow(ctx, "k:list", 1, time.Minute)
	require.NoError(t, err)

	// Exceeding installs the block
	allowed, err := store.Allow(ctx, "k:list", 1, time.Minute)
	require.NoError(t, err)
	require.False(t, allowed)

	// Still rejected while the block is active, even with no other traffic
	allowed, err = store.Allow(ctx, "k:list", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestMemoryStoreFreshWindowAfterBlockExpiry(t *testing.T) {
	store := NewMemoryStore(WithBlockDuration(50 * time.Millisecond))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.Allow(ctx, "k:get", 2, time.Hour); err != nil {
			t.Fatal(err)
		}
	}

	time.Sleep(80 * time.Millisecond)

	// The block has expired and pre-block timestamps are gone: a full
	// fresh window is available despite the one-hour window length.
	for i := 0; i < 2; i++ {
		allowed, err := store.Allow(ctx, "k:get", 2, time.Hour)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d after expiry should be admitted", i+1)
	}
}

func TestMemoryStoreSlidingWindowPrunes(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	window := 100 * time.Millisecond

	for i := 0; i < 2; i++ {
		allowed, err := store.Allow(ctx, "k:static", 2, window)
		require.NoError(t, err)
		require.True(t, allowed)
	}

	time.Sleep(150 * time.Millisecond)

	allowed, err := store.Allow(ctx, "k:static", 2, window)
	require.NoError(t, err)
	assert.True(t, allowed, "old timestamps must be pruned once outside the window")
}

func TestMemoryStoreKeysAreIsolated(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		store.Allow(ctx, "1.1.1.1:generate", 3, time.Minute)
	}

	allowed, err := store.Allow(ctx, "2.2.2.2:generate", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed, "exhausting one key must not affect another")

	allowed, err = store.Allow(ctx, "1.1.1.1:list", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed, "same client on another endpoint is a distinct key")
}

func newLimitedRouter(store LimiterStore, policy Policy) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping", RateLimit(store, policy, zerolog.Nop()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestRateLimitMiddlewareRejectsOverLimit(t *testing.T) {
	router := newLimitedRouter(NewMemoryStore(), Policy{Name: "ping", Limit: 2, Window: time.Minute})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "300", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), `"retry_after":300`)
}

func TestRateLimitMiddlewareSeparatesForwardedClients(t *testing.T) {
	router := newLimitedRouter(NewMemoryStore(), Policy{Name: "ping", Limit: 1, Window: time.Minute})

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1")
	router.ServeHTTP(first, req)
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.2")
	router.ServeHTTP(second, req)
	assert.Equal(t, http.StatusOK, second.Code, "a different forwarded client has its own bucket")

	third := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1")
	router.ServeHTTP(third, req)
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
}

func TestClientIdentityPrefersForwardedHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("X-Forwarded-For", "203.0.113.9, 198.51.100.1")

	assert.Equal(t, "203.0.113.9", ClientIdentity(c))
}
