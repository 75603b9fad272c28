package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Email  string
	Role   enums.Role
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID uuid.UUID  `json:"user_id"`
	Email  string     `json:"email"`
	Role   enums.Role `json:"role"`
	jwt.RegisteredClaims
}

// OAuthStateClaims is the signed CSRF state round-tripped through an OAuth provider.
type OAuthStateClaims struct {
	Provider enums.OAuthProvider `json:"provider"`
	Nonce    string              `json:"nonce"`
	Redirect string              `json:"redirect,omitempty"`
	jwt.RegisteredClaims
}
