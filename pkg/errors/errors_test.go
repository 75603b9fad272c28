package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected", detailsOK: true},
		{code: CodeStateConflict, status: http.StatusBadRequest, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		require.Equal(t, tt.status, meta.HTTPStatus, "code %s", tt.code)
		require.Equal(t, tt.publicMsg, meta.PublicMessage, "code %s", tt.code)
		require.Equal(t, tt.retryable, meta.Retryable, "code %s", tt.code)
		require.Equal(t, tt.detailsOK, meta.DetailsAllowed, "code %s", tt.code)
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	require.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	require.Equal(t, CodeValidation, base.Code())
	require.Equal(t, "missing foo", base.Message())
	require.Nil(t, base.Details())

	base.WithDetails(map[string]any{"field": "foo"})
	require.NotNil(t, base.Details())

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	require.ErrorIs(t, wrapped, cause)
	require.Equal(t, CodeConflict, wrapped.Code())

	nf := NotFound("Equipment")
	require.Equal(t, CodeNotFound, nf.Code())
	require.Equal(t, "Equipment not found", nf.Message())

	require.Nil(t, Validation("bad", nil).Details())
}

func TestAsAndIsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeForbidden, "no entry"))
	got := As(err)
	require.NotNil(t, got)
	require.Equal(t, CodeForbidden, got.Code())
	require.True(t, IsCode(err, CodeForbidden))
	require.False(t, IsCode(err, CodeNotFound))
	require.Nil(t, As(nil))
}

func TestPassthroughKeepsTypedErrors(t *testing.T) {
	typed := New(CodeNotFound, "Rental not found")
	require.Same(t, typed, Passthrough(typed, CodeInternal, "x").(*Error))

	wrapped := Passthrough(stdErrors.New("db down"), CodeInternal, "load rental")
	require.True(t, IsCode(wrapped, CodeInternal))
	require.Nil(t, Passthrough(nil, CodeInternal, "x"))
}

func TestLogFieldsCapturesPgError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key", TableName: "users", Message: "duplicate"}
	err := Wrap(CodeConflict, pgErr, "Email already exists")

	fields := LogFields(err)
	require.Equal(t, CodeConflict, fields["error_code"])
	require.Equal(t, "23505", fields["pg_code"])
	require.Equal(t, "users_email_key", fields["pg_constraint"])
	require.NotContains(t, fields, "pg_column")
	require.Len(t, fields["error_chain"], 2)

	plain := LogFields(stdErrors.New("boom"))
	require.NotContains(t, plain, "error_code")
	require.Empty(t, LogFields(nil))
}
