package controllers

import (
	"net/http"
	"strings"

	"github.com/rentwise/rentwise-backend/api/middleware"
	"github.com/rentwise/rentwise-backend/pkg/auth"
	pkgerrors "github.com/rentwise/rentwise-backend/pkg/errors"
)

func requireActor(r *http.Request) (auth.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return auth.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return actor, nil
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}

// parseQueryEnum reads an optional enum query parameter using the enum's parser.
func parseQueryEnum[T ~string](r *http.Request, key string, parse func(string) (T, error)) (*T, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := parse(strings.ToLower(raw))
	if err != nil {
		return nil, pkgerrors.Validation(err.Error(), map[string]any{"field": key})
	}
	return &v, nil
}

func requiredParam(key string) error {
	return pkgerrors.Validation(key+" is required", map[string]any{"field": key})
}
