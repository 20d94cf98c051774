package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) (*RateLimiter, *time.Time) {
	t.Helper()
	rl := NewRateLimiter(time.Hour)
	t.Cleanup(rl.Stop)
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }
	return rl, &clock
}

func login(h http.Handler, remote string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = remote
	h.ServeHTTP(rec, req)
	return rec
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	t.Parallel()
	rl, _ := newTestLimiter(t)
	h := rl.Limit(5)(okHandler)

	for i := range 5 {
		assert.Equal(t, http.StatusOK, login(h, "10.0.0.1:5000").Code, "request %d", i)
	}
	rec := login(h, "10.0.0.1:5001")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, "same host on another port shares the bucket")
	assert.Equal(t, "13", rec.Header().Get("Retry-After"))
}

func TestRateLimiter_ClientsIndependent(t *testing.T) {
	t.Parallel()
	rl, _ := newTestLimiter(t)
	h := rl.Limit(1)(okHandler)

	require.Equal(t, http.StatusOK, login(h, "10.0.0.1:1").Code)
	require.Equal(t, http.StatusTooManyRequests, login(h, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusOK, login(h, "10.0.0.2:1").Code)
}

func TestRateLimiter_Refill(t *testing.T) {
	t.Parallel()
	rl, clock := newTestLimiter(t)
	h := rl.Limit(60)(okHandler)

	for range 60 {
		login(h, "10.0.0.3:1")
	}
	require.Equal(t, http.StatusTooManyRequests, login(h, "10.0.0.3:1").Code)

	*clock = clock.Add(time.Second)
	assert.Equal(t, http.StatusOK, login(h, "10.0.0.3:1").Code)
}

func TestRateLimiter_DisabledWhenZero(t *testing.T) {
	t.Parallel()
	rl, _ := newTestLimiter(t)
	h := rl.Limit(0)(okHandler)

	for range 100 {
		require.Equal(t, http.StatusOK, login(h, "10.0.0.4:1").Code)
	}
}

func TestRateLimiter_SweepDropsIdleBuckets(t *testing.T) {
	t.Parallel()
	rl, clock := newTestLimiter(t)
	login(rl.Limit(3)(okHandler), "10.0.0.5:1")

	*clock = clock.Add(bucketIdle + time.Minute)
	rl.sweep()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.buckets)
}
