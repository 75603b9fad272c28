package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memWindowLimiter struct {
	counts map[string]int64
	err    error
}

func (m *memWindowLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if m.err != nil {
		return false, 0, m.err
	}
	if m.counts == nil {
		m.counts = map[string]int64{}
	}
	m.counts[scope]++
	return m.counts[scope] <= limit, m.counts[scope], nil
}

func loginRequest(ip, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(body))
	req.RemoteAddr = ip + ":4000"
	return req
}

func TestAuthRateLimitPerIP(t *testing.T) {
	limiter := &memWindowLimiter{}
	policy := NewAuthRateLimitPolicy("Login", time.Minute, 2, 0)
	handler := AuthRateLimit(policy, limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	require.Equal(t, http.StatusOK, serve(handler, loginRequest("10.0.0.1", `{}`)).Code)
	require.Equal(t, http.StatusOK, serve(handler, loginRequest("10.0.0.1", `{}`)).Code)
	blocked := serve(handler, loginRequest("10.0.0.1", `{}`))
	require.Equal(t, http.StatusTooManyRequests, blocked.Code)
	require.Equal(t, "60", blocked.Header().Get("Retry-After"))

	require.Equal(t, http.StatusOK, serve(handler, loginRequest("10.0.0.2", `{}`)).Code)
	require.Contains(t, limiter.counts, "login:ip:10.0.0.1")
}

func TestAuthRateLimitPerEmailKeepsBody(t *testing.T) {
	limiter := &memWindowLimiter{}
	policy := NewAuthRateLimitPolicy("reset", time.Minute, 0, 1)
	var seen string
	handler := AuthRateLimit(policy, limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, _ := io.ReadAll(r.Body)
		seen = string(payload)
		w.WriteHeader(http.StatusOK)
	}))

	body := `{"email":" Renter@Example.com "}`
	require.Equal(t, http.StatusOK, serve(handler, loginRequest("10.0.0.1", body)).Code)
	require.Equal(t, body, seen)

	// a different IP does not help once the email is throttled
	require.Equal(t, http.StatusTooManyRequests, serve(handler, loginRequest("10.0.0.9", `{"email":"renter@example.com"}`)).Code)
	require.Contains(t, limiter.counts, "reset:email:"+hashValue("renter@example.com"))
}

func TestAuthRateLimitDisabledAndFailures(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	disabled := AuthRateLimit(NewAuthRateLimitPolicy("login", 0, 1, 1), &memWindowLimiter{err: errors.New("unused")}, nil)(next)
	require.Equal(t, http.StatusOK, serve(disabled, loginRequest("10.0.0.1", `{}`)).Code)

	broken := AuthRateLimit(NewAuthRateLimitPolicy("login", time.Minute, 1, 0), &memWindowLimiter{err: errors.New("redis down")}, nil)(next)
	require.Equal(t, http.StatusServiceUnavailable, serve(broken, loginRequest("10.0.0.1", `{}`)).Code)
}

func TestClientIPPrefersForwardedHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:5555"
	require.Equal(t, "192.168.1.1", clientIP(req))

	req.Header.Set("X-Real-IP", "172.16.0.1")
	require.Equal(t, "172.16.0.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.5 , 10.0.0.1")
	require.Equal(t, "203.0.113.5", clientIP(req))
}
