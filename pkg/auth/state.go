package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/enums"
)

const stateAudience = "oauth-state"

var ErrInvalidState = errors.New("invalid oauth state")

// MintOAuthState signs a short-lived state value bound to provider.
func MintOAuthState(secret string, ttl time.Duration, now time.Time, provider enums.OAuthProvider, redirect string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("state secret is required")
	}
	if !provider.IsValid() {
		return "", fmt.Errorf("invalid provider %q", provider)
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	claims := OAuthStateClaims{
		Provider: provider,
		Nonce:    uuid.NewString(),
		Redirect: redirect,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{stateAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return sign(secret, claims)
}

// ParseOAuthState verifies signature, expiry and that the state was minted for provider.
func ParseOAuthState(secret, state string, provider enums.OAuthProvider) (*OAuthStateClaims, error) {
	if secret == "" || state == "" {
		return nil, ErrInvalidState
	}
	claims := &OAuthStateClaims{}
	_, err := jwt.ParseWithClaims(
		state,
		claims,
		keyFunc(secret),
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithAudience(stateAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if claims.Provider != provider {
		return nil, fmt.Errorf("%w: provider mismatch", ErrInvalidState)
	}
	return claims, nil
}
