package middlewarectx

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("success")); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	})
}

func requestFrom(addr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/signup", nil)
	req.RemoteAddr = addr
	return req
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("blocks requests exceeding burst", func(t *testing.T) {
		handler := RateLimitMiddleware(newNoopLogger(), NewIPRateLimiter(1, 2))(okHandler(t))

		for i := 0; i < 2; i++ {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, requestFrom("203.0.113.1:1234"))
			assert.Equal(t, http.StatusOK, w.Code)
		}

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom("203.0.113.1:1234"))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.JSONEq(t, `{"status":"Error","error":{"code":"TOO_MANY_REQUESTS","message":"too many requests"}}`, w.Body.String())
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	})

	t.Run("limits are per address", func(t *testing.T) {
		handler := RateLimitMiddleware(newNoopLogger(), NewIPRateLimiter(1, 1))(okHandler(t))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom("203.0.113.1:1234"))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom("203.0.113.1:5678"))
		assert.Equal(t, http.StatusTooManyRequests, w.Code, "same host, different port")

		w = httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom("203.0.113.2:1234"))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("handler not called when rate limited", func(t *testing.T) {
		var calls int
		next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls++
			w.WriteHeader(http.StatusOK)
		})
		handler := RateLimitMiddleware(newNoopLogger(), NewIPRateLimiter(1, 1))(next)

		for i := 0; i < 3; i++ {
			handler.ServeHTTP(httptest.NewRecorder(), requestFrom("203.0.113.9:1"))
		}
		assert.Equal(t, 1, calls)
	})
}

func TestIPRateLimiter_Refill(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(1, 1)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a"))
}

func TestIPRateLimiter_EvictsIdleVisitors(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(1, 1)
	l.now = func() time.Time { return now }

	l.visitors["stale"] = &visitor{lastSeen: now.Add(-visitorTTL - time.Second)}
	for i := len(l.visitors); i < maxVisitors; i++ {
		l.visitors["fresh-"+strconv.Itoa(i)] = &visitor{lastSeen: now}
	}

	assert.True(t, l.Allow("new"))
	_, ok := l.visitors["stale"]
	assert.False(t, ok)
	assert.Len(t, l.visitors, maxVisitors)
}
