package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/api/middleware"
	"github.com/rentwise/rentwise-backend/pkg/auth"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	"github.com/rentwise/rentwise-backend/pkg/logger"
	"github.com/stretchr/testify/require"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

type requestOpts struct {
	body   string
	params map[string]string
	actor  *auth.Actor
	header map[string]string
}

func newRequest(method, target string, opts requestOpts) *http.Request {
	var body io.Reader
	if opts.body != "" {
		body = strings.NewReader(opts.body)
	}
	req := httptest.NewRequest(method, target, body)
	for k, v := range opts.header {
		req.Header.Set(k, v)
	}
	ctx := req.Context()
	if len(opts.params) > 0 {
		routeCtx := chi.NewRouteContext()
		for k, v := range opts.params {
			routeCtx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	}
	if opts.actor != nil {
		ctx = middleware.WithActor(ctx, *opts.actor)
	}
	return req.WithContext(ctx)
}

func do(handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func actorWith(role enums.Role) *auth.Actor {
	return &auth.Actor{UserID: uuid.New(), Role: role}
}

type envelope struct {
	Status     string          `json:"status"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Message    string          `json:"message"`
	StatusCode int             `json:"statusCode"`
	Code       string          `json:"code"`
	Details    map[string]any  `json:"details"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}
