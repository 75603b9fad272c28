package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rentwise/rentwise-backend/api/validators"
	"github.com/stretchr/testify/require"
)

type memIdempotencyStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{data: map[string]string{}}
}

func (m *memIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memIdempotencyStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value.(string)
	return nil
}

func (m *memIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *memIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idempotency:" + scope + ":" + id
}

func (m *memIdempotencyStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func idempotentPost(handler http.Handler, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/rentals", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	return serve(handler, req)
}

func TestIdempotencyReplaysSuccessfulResponse(t *testing.T) {
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		payload, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"echo":` + string(payload) + `}`))
	})
	handler := Idempotency(newMemIdempotencyStore(), time.Minute, nil)(next)

	first := idempotentPost(handler, "abc", `{"n":1}`)
	require.Equal(t, http.StatusCreated, first.Code)

	second := idempotentPost(handler, "abc", `{"n":1}`)
	require.Equal(t, http.StatusCreated, second.Code)
	require.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	require.Equal(t, "application/json", second.Header().Get("Content-Type"))
	require.JSONEq(t, first.Body.String(), second.Body.String())
	require.Equal(t, 1, calls)

	conflict := idempotentPost(handler, "abc", `{"n":2}`)
	require.Equal(t, http.StatusConflict, conflict.Code)
	require.Contains(t, conflict.Body.String(), "IDEMPOTENCY_KEY_REUSED")
	require.Equal(t, 1, calls)
}

func TestIdempotencyPassesThroughWithoutKey(t *testing.T) {
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})
	handler := Idempotency(newMemIdempotencyStore(), time.Minute, nil)(next)

	idempotentPost(handler, "", `{}`)
	idempotentPost(handler, "", `{}`)
	require.Equal(t, 2, calls)
}

func TestIdempotencyDoesNotStoreFailures(t *testing.T) {
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
	handler := Idempotency(newMemIdempotencyStore(), time.Minute, nil)(next)

	require.Equal(t, http.StatusConflict, idempotentPost(handler, "retry", `{}`).Code)
	require.Equal(t, http.StatusCreated, idempotentPost(handler, "retry", `{}`).Code)
	require.Equal(t, 2, calls)
}

func TestIdempotencyRejectsConcurrentRetry(t *testing.T) {
	store := newMemIdempotencyStore()
	release := make(chan struct{})
	entered := make(chan struct{})
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		close(entered)
		<-release
		w.WriteHeader(http.StatusCreated)
	})
	handler := Idempotency(store, time.Minute, nil)(next)

	done := make(chan *httptest.ResponseRecorder)
	go func() { done <- idempotentPost(handler, "double-click", `{"n":1}`) }()
	<-entered

	inFlight := idempotentPost(handler, "double-click", `{"n":1}`)
	require.Equal(t, http.StatusConflict, inFlight.Code)
	require.Contains(t, inFlight.Body.String(), "in progress")

	close(release)
	require.Equal(t, http.StatusCreated, (<-done).Code)
	require.Equal(t, http.StatusCreated, idempotentPost(handler, "double-click", `{"n":1}`).Code)
	require.Equal(t, 1, calls)
}

func TestIdempotencyRejectsLongKey(t *testing.T) {
	handler := Idempotency(newMemIdempotencyStore(), time.Minute, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))
	resp := idempotentPost(handler, strings.Repeat("k", maxIdempotencyKeyLen+1), `{}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestIdempotencyRejectsOversizedBody(t *testing.T) {
	store := newMemIdempotencyStore()
	handler := Idempotency(store, time.Minute, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))
	resp := idempotentPost(handler, "big-1", strings.Repeat("x", validators.MaxBodyBytes+1))
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(), "request body too large")
	require.Empty(t, store.data)
}
