package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/rentwise/rentwise-backend/internal/users"
	pkgAuth "github.com/rentwise/rentwise-backend/pkg/auth"
	"github.com/rentwise/rentwise-backend/pkg/db"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	pkgerrors "github.com/rentwise/rentwise-backend/pkg/errors"
	"github.com/rentwise/rentwise-backend/pkg/oauth"
	"gorm.io/gorm"
)

func (s *service) provider(name string) (enums.OAuthProvider, oauth.Provider, error) {
	parsed, err := enums.ParseOAuthProvider(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return "", nil, pkgerrors.NotFound("OAuth provider")
	}
	if s.providers == nil {
		return "", nil, pkgerrors.NotFound("OAuth provider")
	}
	p, ok := s.providers.Get(parsed)
	if !ok {
		return "", nil, pkgerrors.NotFound("OAuth provider")
	}
	return parsed, p, nil
}

// safeRedirect keeps only same-site relative paths.
func safeRedirect(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, `\`) {
		return ""
	}
	return raw
}

// OAuthStart returns the provider authorization URL carrying a signed state.
func (s *service) OAuthStart(ctx context.Context, provider, redirect string) (string, error) {
	name, p, err := s.provider(provider)
	if err != nil {
		return "", err
	}
	state, err := pkgAuth.MintOAuthState(s.oauthCfg.StateKey(s.jwtCfg), s.oauthCfg.StateTTL, s.now().UTC(), name, safeRedirect(redirect))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint oauth state")
	}
	return p.AuthCodeURL(state), nil
}

// OAuthCallback verifies state, exchanges the code and signs in the linked or new user.
func (s *service) OAuthCallback(ctx context.Context, provider, code, state string) (*OAuthResult, error) {
	name, p, err := s.provider(provider)
	if err != nil {
		return nil, err
	}
	claims, err := pkgAuth.ParseOAuthState(s.oauthCfg.StateKey(s.jwtCfg), state, name)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid oauth state")
	}
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.Validation("code is required", nil)
	}

	identity, err := p.Exchange(ctx, code)
	if err != nil {
		if errors.Is(err, oauth.ErrNoVerifiedEmail) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "provider account has no verified email")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "oauth provider unavailable")
	}

	user, created, err := s.linkOrCreate(ctx, identity)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account unavailable")
	}

	tokens, err := s.signIn(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"user_id":  user.ID.String(),
		"provider": string(name),
		"created":  created,
	}), "auth.oauth_signed_in")
	return &OAuthResult{TokenResponse: *tokens, Redirect: claims.Redirect, Created: created}, nil
}

// linkOrCreate resolves an identity to a user: an existing link wins, then a user with the
// same verified email is linked, otherwise a customer is created.
func (s *service) linkOrCreate(ctx context.Context, identity *oauth.Identity) (*models.User, bool, error) {
	email, err := users.NormalizeEmail(identity.Email)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "provider returned an unusable email")
	}

	var (
		user    *models.User
		created bool
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)

		acct, err := repo.FindOAuthAccount(ctx, identity.Provider, identity.ProviderUserID)
		switch {
		case err == nil:
			user, err = repo.FindByID(ctx, acct.UserID)
			if err != nil {
				return db.Classify(err, db.OpWrite, entityUser)
			}
			return nil
		case !db.IsNotFound(err):
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup oauth account")
		}

		user, err = repo.FindByEmail(ctx, email)
		if err != nil && !db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
		}
		if user == nil {
			if !identity.EmailVerified {
				return pkgerrors.New(pkgerrors.CodeUnauthorized, "provider account has no verified email")
			}
			user, err = repo.Create(ctx, users.CreateUserDTO{
				Email:         email,
				FirstName:     identity.FirstName,
				LastName:      identity.LastName,
				Role:          enums.RoleCustomer,
				EmailVerified: true,
			})
			if err != nil {
				return db.Classify(err, db.OpWrite, entityUser)
			}
			created = true
		} else if !user.EmailVerified && identity.EmailVerified {
			if _, err := repo.Update(ctx, user.ID, map[string]any{"email_verified": true}); err != nil {
				return db.Classify(err, db.OpWrite, entityUser)
			}
			user.EmailVerified = true
		}

		if err := repo.CreateOAuthAccount(ctx, &models.OAuthAccount{
			UserID:         user.ID,
			Provider:       identity.Provider,
			ProviderUserID: identity.ProviderUserID,
			Email:          email,
		}); err != nil {
			return db.Classify(err, db.OpWrite, "OAuth account")
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return user, created, nil
}
