package oauth

import (
	"context"
	"fmt"

	"github.com/rentwise/rentwise-backend/pkg/enums"
	"golang.org/x/oauth2"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

type Google struct {
	cfg         *oauth2.Config
	userInfoURL string
}

func NewGoogle(cfg *oauth2.Config) *Google {
	return &Google{cfg: cfg, userInfoURL: googleUserInfoURL}
}

func (g *Google) Name() enums.OAuthProvider { return enums.OAuthProviderGoogle }

func (g *Google) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.SetAuthURLParam("prompt", "select_account"))
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

func (g *Google) Exchange(ctx context.Context, code string) (*Identity, error) {
	token, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google code exchange: %w", err)
	}

	var info googleUserInfo
	if err := getJSON(ctx, g.cfg.Client(ctx, token), g.userInfoURL, &info); err != nil {
		return nil, err
	}
	if info.Sub == "" {
		return nil, fmt.Errorf("google userinfo missing subject")
	}
	if info.Email == "" || !info.EmailVerified {
		return nil, ErrNoVerifiedEmail
	}

	return &Identity{
		Provider:       enums.OAuthProviderGoogle,
		ProviderUserID: info.Sub,
		Email:          info.Email,
		EmailVerified:  info.EmailVerified,
		FirstName:      info.GivenName,
		LastName:       info.FamilyName,
	}, nil
}
