package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"
)

func trusted(t *testing.T, entries ...string) TrustedProxies {
	t.Helper()
	tp, err := ParseTrustedProxies(entries)
	require.NoError(t, err)
	return tp
}

func TestParseTrustedProxies(t *testing.T) {
	tp, err := ParseTrustedProxies([]string{"10.0.0.0/8", " ", "192.168.1.5", "::ffff:172.16.0.1"})
	require.NoError(t, err)
	assert.Len(t, tp, 3)
	assert.True(t, tp.contains("10.20.30.40"))
	assert.True(t, tp.contains("192.168.1.5"))
	assert.False(t, tp.contains("192.168.1.6"))
	assert.True(t, tp.contains("172.16.0.1"))

	_, err = ParseTrustedProxies([]string{"not-an-ip"})
	assert.Error(t, err)
	_, err = ParseTrustedProxies([]string{"10.0.0.0/99"})
	assert.Error(t, err)
}

func TestClientIP_UntrustedPeerIgnoresForwardingHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:5555"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	req.Header.Set("X-Real-Ip", "5.6.7.8")
	assert.Equal(t, "203.0.113.7", trusted(t, "10.0.0.0/8").clientIP(req))
	assert.Equal(t, "203.0.113.7", TrustedProxies(nil).clientIP(req))
}

func TestClientIP_TrustedPeerUsesRightmostUntrustedHop(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	req.Header.Add("X-Forwarded-For", "6.6.6.6, 1.2.3.4")
	req.Header.Add("X-Forwarded-For", "10.0.0.9")
	assert.Equal(t, "1.2.3.4", trusted(t, "10.0.0.0/8").clientIP(req))
}

func TestClientIP_AllHopsTrustedUsesLeftmost(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	req.Header.Set("X-Forwarded-For", "10.1.1.1, 10.0.0.3")
	assert.Equal(t, "10.1.1.1", trusted(t, "10.0.0.0/8").clientIP(req))
}

func TestClientIP_TrustedPeerFallsBackToXRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	req.Header.Set("X-Real-Ip", "9.10.11.12")
	assert.Equal(t, "9.10.11.12", trusted(t, "10.0.0.0/8").clientIP(req))
}

func TestClientIP_RemoteAddrWithoutPort(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1"
	assert.Equal(t, "192.168.1.1", TrustedProxies(nil).clientIP(req))
}

func TestRateLimiter_PerIP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewRateLimiter(ctx, rate.Limit(0.001), 1, nil).Limit(http.HandlerFunc(okHandler))

	serve := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, serve("1.1.1.1:1000"))
	assert.Equal(t, http.StatusTooManyRequests, serve("1.1.1.1:2000"))
	assert.Equal(t, http.StatusOK, serve("2.2.2.2:1000"))
}

func TestRateLimiter_ForwardedForCannotRotateBucket(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewRateLimiter(ctx, rate.Limit(0.001), 1, trusted(t, "10.0.0.0/8")).Limit(http.HandlerFunc(okHandler))

	serve := func(addr, fwd string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		req.Header.Set("X-Forwarded-For", fwd)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	// Direct client: the header is ignored, so a fresh value does not reset the bucket.
	assert.Equal(t, http.StatusOK, serve("203.0.113.7:1000", "1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, serve("203.0.113.7:1000", "2.2.2.2"))

	// Through the trusted proxy each forwarded client gets its own bucket.
	assert.Equal(t, http.StatusOK, serve("10.0.0.2:1000", "3.3.3.3"))
	assert.Equal(t, http.StatusTooManyRequests, serve("10.0.0.2:1000", "3.3.3.3"))
	assert.Equal(t, http.StatusOK, serve("10.0.0.2:1000", "4.4.4.4"))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/health-check/ping", nil)
	req.RemoteAddr = "203.0.113.7:5555"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	h.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("http request").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "/v1/health-check/ping", fields["path"])
		assert.Equal(t, int64(http.StatusTeapot), fields["status"])
		assert.Equal(t, "203.0.113.7", fields["remote_ip"])
	}
}
