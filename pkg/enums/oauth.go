package enums

import "fmt"

// OAuthProvider identifies an external identity provider.
type OAuthProvider string

const (
	OAuthProviderGoogle OAuthProvider = "google"
	OAuthProviderGitHub OAuthProvider = "github"
)

// String implements fmt.Stringer.
func (p OAuthProvider) String() string {
	return string(p)
}

// IsValid reports whether the value is a supported provider.
func (p OAuthProvider) IsValid() bool {
	return p == OAuthProviderGoogle || p == OAuthProviderGitHub
}

// ParseOAuthProvider converts raw input into an OAuthProvider.
func ParseOAuthProvider(value string) (OAuthProvider, error) {
	p := OAuthProvider(value)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid oauth provider %q", value)
	}
	return p, nil
}
