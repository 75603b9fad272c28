package controllers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/rentwise/rentwise-backend/internal/auth"
	"github.com/rentwise/rentwise-backend/internal/users"
	pkgerrors "github.com/rentwise/rentwise-backend/pkg/errors"
	"github.com/stretchr/testify/require"
)

type stubAuthService struct {
	auth.Service
	tokens      *auth.TokenResponse
	oauth       *auth.OAuthResult
	err         error
	gotEmail    string
	gotAccess   string
	gotRefresh  string
	gotProvider string
	gotRedirect string
}

func (s *stubAuthService) Login(_ context.Context, req auth.LoginRequest) (*auth.TokenResponse, error) {
	s.gotEmail = req.Email
	return s.tokens, s.err
}

func (s *stubAuthService) Register(_ context.Context, req auth.RegisterRequest) (*auth.TokenResponse, error) {
	s.gotEmail = req.Email
	return s.tokens, s.err
}

func (s *stubAuthService) Refresh(_ context.Context, access, refresh string) (*auth.TokenResponse, error) {
	s.gotAccess, s.gotRefresh = access, refresh
	return s.tokens, s.err
}

func (s *stubAuthService) Logout(_ context.Context, access string) error {
	s.gotAccess = access
	return s.err
}

func (s *stubAuthService) ForgotPassword(_ context.Context, email string) error {
	s.gotEmail = email
	return s.err
}

func (s *stubAuthService) OAuthStart(_ context.Context, provider, redirect string) (string, error) {
	s.gotProvider, s.gotRedirect = provider, redirect
	return "https://accounts.example.com/auth?state=abc", s.err
}

func (s *stubAuthService) OAuthCallback(_ context.Context, provider, _, _ string) (*auth.OAuthResult, error) {
	s.gotProvider = provider
	return s.oauth, s.err
}

func sampleTokens() *auth.TokenResponse {
	return &auth.TokenResponse{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		ExpiresIn:    900,
		User:         &users.UserDTO{Email: "renter@example.com"},
	}
}

func TestAuthLogin(t *testing.T) {
	svc := &stubAuthService{tokens: sampleTokens()}
	rec := do(AuthLogin(svc, testLogger()), newRequest(http.MethodPost, "/v1/auth/login", requestOpts{
		body: `{"email":"renter@example.com","password":"secret123"}`,
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "access", rec.Header().Get(tokenHeader))
	require.Equal(t, "renter@example.com", svc.gotEmail)

	env := decodeEnvelope(t, rec)
	require.Equal(t, "success", env.Status)
	require.Contains(t, string(env.Data), `"refresh_token":"refresh"`)
}

func TestAuthLoginValidation(t *testing.T) {
	svc := &stubAuthService{tokens: sampleTokens()}
	rec := do(AuthLogin(svc, testLogger()), newRequest(http.MethodPost, "/v1/auth/login", requestOpts{
		body: `{"email":"not-an-email"}`,
	}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.Equal(t, "VALIDATION_ERROR", env.Code)
	require.Empty(t, svc.gotEmail)
}

func TestAuthLoginUnauthorized(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	rec := do(AuthLogin(svc, testLogger()), newRequest(http.MethodPost, "/v1/auth/login", requestOpts{
		body: `{"email":"renter@example.com","password":"wrong"}`,
	}))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid credentials", decodeEnvelope(t, rec).Message)
}

func TestAuthRegisterReturnsCreated(t *testing.T) {
	svc := &stubAuthService{tokens: sampleTokens()}
	rec := do(AuthRegister(svc, testLogger()), newRequest(http.MethodPost, "/v1/auth/register", requestOpts{
		body: `{"email":"new@example.com","password":"longenough","first_name":"Ada","last_name":"Lovelace"}`,
	}))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "new@example.com", svc.gotEmail)

	short := do(AuthRegister(svc, testLogger()), newRequest(http.MethodPost, "/v1/auth/register", requestOpts{
		body: `{"email":"new@example.com","password":"short","first_name":"Ada","last_name":"Lovelace"}`,
	}))
	require.Equal(t, http.StatusBadRequest, short.Code)
}

func TestAuthRefreshAndLogoutUseBearerToken(t *testing.T) {
	svc := &stubAuthService{tokens: sampleTokens()}

	missing := do(AuthRefresh(svc, testLogger()), newRequest(http.MethodPost, "/v1/auth/refresh", requestOpts{
		body: `{"refresh_token":"r1"}`,
	}))
	require.Equal(t, http.StatusUnauthorized, missing.Code)

	rec := do(AuthRefresh(svc, testLogger()), newRequest(http.MethodPost, "/v1/auth/refresh", requestOpts{
		body:   `{"refresh_token":"r1"}`,
		header: map[string]string{"Authorization": "Bearer expired-access"},
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "expired-access", svc.gotAccess)
	require.Equal(t, "r1", svc.gotRefresh)

	out := do(AuthLogout(svc, testLogger()), newRequest(http.MethodPost, "/v1/auth/logout", requestOpts{
		header: map[string]string{"Authorization": "Bearer other"},
	}))
	require.Equal(t, http.StatusOK, out.Code)
	require.Equal(t, "other", svc.gotAccess)
}

func TestAuthForgotPasswordIsUniform(t *testing.T) {
	svc := &stubAuthService{}
	rec := do(AuthForgotPassword(svc, testLogger()), newRequest(http.MethodPost, "/v1/auth/forgot-password", requestOpts{
		body: `{"email":"nobody@example.com"}`,
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "nobody@example.com", svc.gotEmail)
}

func TestAuthOAuthStartRedirects(t *testing.T) {
	svc := &stubAuthService{}
	rec := do(AuthOAuthStart(svc, testLogger()), newRequest(http.MethodGet, "/v1/auth/oauth/google?redirect=/rentals", requestOpts{
		params: map[string]string{"provider": "google"},
	}))
	require.Equal(t, http.StatusFound, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Location"), "https://accounts.example.com/auth"))
	require.Equal(t, "google", svc.gotProvider)
	require.Equal(t, "/rentals", svc.gotRedirect)
}

func TestAuthOAuthCallback(t *testing.T) {
	result := &auth.OAuthResult{TokenResponse: *sampleTokens(), Redirect: "/rentals", Created: true}

	t.Run("redirects with fragment", func(t *testing.T) {
		svc := &stubAuthService{oauth: result}
		rec := do(AuthOAuthCallback(svc, "https://app.example.com/oauth/done", testLogger()), newRequest(http.MethodGet, "/v1/auth/oauth/github/callback?code=c&state=s", requestOpts{
			params: map[string]string{"provider": "github"},
		}))
		require.Equal(t, http.StatusFound, rec.Code)

		location, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		require.Equal(t, "app.example.com", location.Host)
		fragment, err := url.ParseQuery(location.Fragment)
		require.NoError(t, err)
		require.Equal(t, "access", fragment.Get("access_token"))
		require.Equal(t, "refresh", fragment.Get("refresh_token"))
		require.Equal(t, "/rentals", fragment.Get("redirect"))
		require.Equal(t, "true", fragment.Get("created"))
	})

	t.Run("json without success url", func(t *testing.T) {
		svc := &stubAuthService{oauth: result}
		rec := do(AuthOAuthCallback(svc, "", testLogger()), newRequest(http.MethodGet, "/v1/auth/oauth/github/callback?code=c&state=s", requestOpts{
			params: map[string]string{"provider": "github"},
		}))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, string(decodeEnvelope(t, rec).Data), `"created":true`)
	})

	t.Run("provider denial", func(t *testing.T) {
		svc := &stubAuthService{oauth: result}
		rec := do(AuthOAuthCallback(svc, "", testLogger()), newRequest(http.MethodGet, "/v1/auth/oauth/github/callback?error=access_denied", requestOpts{
			params: map[string]string{"provider": "github"},
		}))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Empty(t, svc.gotProvider)
	})

	t.Run("bad state", func(t *testing.T) {
		svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid oauth state")}
		rec := do(AuthOAuthCallback(svc, "https://app.example.com", testLogger()), newRequest(http.MethodGet, "/v1/auth/oauth/google/callback?code=c&state=bad", requestOpts{
			params: map[string]string{"provider": "google"},
		}))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthMeRequiresActor(t *testing.T) {
	rec := do(AuthMe(&stubAuthService{}, testLogger()), newRequest(http.MethodGet, "/v1/auth/me", requestOpts{}))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
