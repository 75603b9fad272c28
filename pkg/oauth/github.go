package oauth

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rentwise/rentwise-backend/pkg/enums"
	"golang.org/x/oauth2"
)

const githubAPIBase = "https://api.github.com"

type GitHub struct {
	cfg     *oauth2.Config
	apiBase string
}

func NewGitHub(cfg *oauth2.Config) *GitHub {
	return &GitHub{cfg: cfg, apiBase: githubAPIBase}
}

func (g *GitHub) Name() enums.OAuthProvider { return enums.OAuthProviderGitHub }

func (g *GitHub) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state)
}

type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// Exchange resolves the user and their primary verified address; the public profile
// email may be hidden, so /user/emails is authoritative.
func (g *GitHub) Exchange(ctx context.Context, code string) (*Identity, error) {
	token, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("github code exchange: %w", err)
	}
	client := g.cfg.Client(ctx, token)

	var user githubUser
	if err := getJSON(ctx, client, g.apiBase+"/user", &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("github user missing id")
	}

	var emails []githubEmail
	if err := getJSON(ctx, client, g.apiBase+"/user/emails", &emails); err != nil {
		return nil, err
	}
	email := ""
	for _, e := range emails {
		if e.Primary && e.Verified {
			email = e.Email
			break
		}
	}
	if email == "" {
		return nil, ErrNoVerifiedEmail
	}

	first, last := splitName(user.Name)
	if first == "" {
		first = user.Login
	}
	return &Identity{
		Provider:       enums.OAuthProviderGitHub,
		ProviderUserID: strconv.FormatInt(user.ID, 10),
		Email:          email,
		EmailVerified:  true,
		FirstName:      first,
		LastName:       last,
	}, nil
}

func splitName(full string) (string, string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}
	first, last, _ := strings.Cut(full, " ")
	return first, strings.TrimSpace(last)
}
