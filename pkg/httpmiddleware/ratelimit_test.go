package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doFrom(h http.Handler, method, path, addr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = addr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimit_BurstThenReject(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := RateLimit(ctx, RateLimitConfig{Max: 3, Window: time.Minute})(okHandler())

	for i := range 3 {
		w := doFrom(h, http.MethodPost, "/", "10.0.0.1:1234")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	w := doFrom(h, http.MethodPost, "/", "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"code":"rate_limited","message":"rate limit exceeded"}`, w.Body.String())
}

func TestRateLimit_PerClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := RateLimit(ctx, RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	assert.Equal(t, http.StatusOK, doFrom(h, http.MethodGet, "/", "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, doFrom(h, http.MethodGet, "/", "10.0.0.1:2").Code)
	assert.Equal(t, http.StatusOK, doFrom(h, http.MethodGet, "/", "10.0.0.2:1").Code)
}

func TestRateLimit_Match(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := RateLimit(ctx, RateLimitConfig{
		Max:    1,
		Window: time.Minute,
		Match: func(r *http.Request) bool {
			return r.Method == http.MethodPost
		},
	})(okHandler())

	for range 5 {
		assert.Equal(t, http.StatusOK, doFrom(h, http.MethodGet, "/", "10.0.0.1:1").Code)
	}
	assert.Equal(t, http.StatusOK, doFrom(h, http.MethodPost, "/", "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, doFrom(h, http.MethodPost, "/", "10.0.0.1:1").Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := RateLimit(ctx, RateLimitConfig{})(okHandler())

	for range 10 {
		assert.Equal(t, http.StatusOK, doFrom(h, http.MethodGet, "/", "10.0.0.1:1").Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header http.Header
		remote string
		want   string
	}{
		{name: "xff", header: http.Header{"X-Forwarded-For": {"1.1.1.1, 2.2.2.2"}}, remote: "3.3.3.3:1", want: "1.1.1.1"},
		{name: "real ip", header: http.Header{"X-Real-Ip": {"4.4.4.4"}}, remote: "3.3.3.3:1", want: "4.4.4.4"},
		{name: "remote", header: http.Header{}, remote: "3.3.3.3:1", want: "3.3.3.3"},
		{name: "bare remote", header: http.Header{}, remote: "pipe", want: "pipe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header = tt.header
			req.RemoteAddr = tt.remote
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
