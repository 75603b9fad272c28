package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/internal/users"
	pkgAuth "github.com/rentwise/rentwise-backend/pkg/auth"
	"github.com/rentwise/rentwise-backend/pkg/auth/session"
	"github.com/rentwise/rentwise-backend/pkg/config"
	"github.com/rentwise/rentwise-backend/pkg/db"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	pkgerrors "github.com/rentwise/rentwise-backend/pkg/errors"
	"github.com/rentwise/rentwise-backend/pkg/logger"
	"github.com/rentwise/rentwise-backend/pkg/oauth"
	"github.com/rentwise/rentwise-backend/pkg/security"
	"gorm.io/gorm"
)

const (
	invalidCredentialsMessage = "invalid credentials"
	entityUser                = "User"
)

// Service defines the behavior needed by the auth controllers.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenResponse, error)
	Logout(ctx context.Context, accessToken string) error
	Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
	AcceptInvite(ctx context.Context, req AcceptInviteRequest) (*TokenResponse, error)
	OAuthStart(ctx context.Context, provider, redirect string) (string, error)
	OAuthCallback(ctx context.Context, provider, code, state string) (*OAuthResult, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type oneTimeTokens interface {
	Issue(ctx context.Context, purpose session.Purpose, userID uuid.UUID, ttl time.Duration) (string, error)
	Consume(ctx context.Context, purpose session.Purpose, token string) (uuid.UUID, error)
}

type resetSender interface {
	SendPasswordReset(ctx context.Context, to, name, link string) error
}

type providerRegistry interface {
	Get(name enums.OAuthProvider) (oauth.Provider, bool)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Users          *users.Repository
	Tx             txRunner
	SessionManager sessionManager
	Tokens         oneTimeTokens
	Mailer         resetSender
	Providers      providerRegistry
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	TokensConfig   config.TokensConfig
	OAuthConfig    config.OAuthConfig
	FrontendURL    string
	Logger         *logger.Logger
	Now            func() time.Time
}

type service struct {
	users       *users.Repository
	tx          txRunner
	session     sessionManager
	tokens      oneTimeTokens
	mailer      resetSender
	providers   providerRegistry
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	tokensCfg   config.TokensConfig
	oauthCfg    config.OAuthConfig
	frontendURL string
	logg        *logger.Logger
	now         func() time.Time
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("one-time token store is required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		users:       params.Users,
		tx:          params.Tx,
		session:     params.SessionManager,
		tokens:      params.Tokens,
		mailer:      params.Mailer,
		providers:   params.Providers,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		tokensCfg:   params.TokensConfig,
		oauthCfg:    params.OAuthConfig,
		frontendURL: strings.TrimRight(params.FrontendURL, "/"),
		logg:        params.Logger,
		now:         params.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	email, err := users.NormalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if err := users.CheckPassword(req.Password, s.passwordCfg); err != nil {
		return nil, err
	}
	first, last := strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName)
	if first == "" || last == "" {
		return nil, pkgerrors.Validation("first_name and last_name are required", nil)
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	var phone *string
	if req.Phone != nil {
		if p := strings.TrimSpace(*req.Phone); p != "" {
			phone = &p
		}
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Email:        email,
		PasswordHash: &hash,
		FirstName:    first,
		LastName:     last,
		Phone:        phone,
		Role:         enums.RoleCustomer,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "Email already exists")
		}
		return nil, db.Classify(err, db.OpWrite, entityUser)
	}
	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "auth.registered")
	return s.signIn(ctx, user)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return s.signIn(ctx, user)
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := strings.ToLower(strings.TrimSpace(email))
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if !user.HasPassword() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	valid, err := security.VerifyPassword(password, *user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

// signIn records the login and issues a fresh access/refresh pair.
func (s *service) signIn(ctx context.Context, user *models.User) (*TokenResponse, error) {
	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now

	accessID := session.NewAccessID()
	accessToken, err := s.mint(user, accessID, now)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}
	return s.response(user, accessToken, refreshToken), nil
}

func (s *service) mint(user *models.User, accessID string, now time.Time) (string, error) {
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return token, nil
}

func (s *service) response(user *models.User, access, refresh string) *TokenResponse {
	return &TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.jwtCfg.AccessTokenTTL().Seconds()),
		User:         users.FromModel(user),
	}
}

// Refresh rotates the session bound to the presented (possibly expired) access token.
// The user is reloaded so role changes and deactivation take effect on refresh.
func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}

	newAccessID, newRefresh, err := s.session.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		_ = s.session.Revoke(ctx, newAccessID)
		if err != nil && !db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
		}
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account unavailable")
	}

	access, err := s.mint(user, newAccessID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	return s.response(user, access, newRefresh), nil
}

func (s *service) Logout(ctx context.Context, accessToken string) error {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	if err := s.session.Revoke(ctx, claims.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, db.Classify(err, db.OpWrite, entityUser)
	}
	return users.FromModel(user), nil
}

// ForgotPassword never reveals whether the address is registered; delivery problems are
// logged and swallowed.
func (s *service) ForgotPassword(ctx context.Context, email string) error {
	normalized, err := users.NormalizeEmail(email)
	if err != nil {
		return err
	}
	user, err := s.users.FindByEmail(ctx, normalized)
	if err != nil {
		if db.IsNotFound(err) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if !user.IsActive || !user.HasPassword() {
		return nil
	}

	logCtx := s.logg.WithUserID(ctx, user.ID.String())
	ttl := s.tokensCfg.ResetTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	token, err := s.tokens.Issue(ctx, session.PurposePasswordReset, user.ID, ttl)
	if err != nil {
		s.logg.Error(logCtx, "auth.reset_token_failed", err)
		return nil
	}
	link := s.frontendURL + "/reset-password?token=" + url.QueryEscape(token)
	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.FirstName, link); err != nil {
		s.logg.Error(logCtx, "auth.reset_email_failed", err)
		return nil
	}
	s.logg.Info(logCtx, "auth.reset_requested")
	return nil
}

func (s *service) consume(ctx context.Context, purpose session.Purpose, token string) (*models.User, error) {
	userID, err := s.tokens.Consume(ctx, purpose, token)
	if err != nil {
		if errors.Is(err, session.ErrInvalidOneTimeToken) {
			return nil, pkgerrors.Validation("invalid or expired token", map[string]any{"field": "token"})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume token")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Validation("invalid or expired token", map[string]any{"field": "token"})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}

func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	// check the password first so a typo does not burn the token
	if err := users.CheckPassword(req.Password, s.passwordCfg); err != nil {
		return err
	}
	user, err := s.consume(ctx, session.PurposePasswordReset, req.Token)
	if err != nil {
		return err
	}
	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if _, err := s.users.Update(ctx, user.ID, map[string]any{
		"password_hash": hash,
		"updated_at":    s.now().UTC(),
	}); err != nil {
		return db.Classify(err, db.OpWrite, entityUser)
	}
	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "auth.password_reset")
	return nil
}

func (s *service) AcceptInvite(ctx context.Context, req AcceptInviteRequest) (*TokenResponse, error) {
	if err := users.CheckPassword(req.Password, s.passwordCfg); err != nil {
		return nil, err
	}
	user, err := s.consume(ctx, session.PurposeInvite, req.Token)
	if err != nil {
		return nil, err
	}
	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	fields := map[string]any{
		"password_hash":  hash,
		"is_active":      true,
		"email_verified": true,
		"updated_at":     s.now().UTC(),
	}
	if req.FirstName != nil && strings.TrimSpace(*req.FirstName) != "" {
		fields["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil && strings.TrimSpace(*req.LastName) != "" {
		fields["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if _, err := s.users.Update(ctx, user.ID, fields); err != nil {
		return nil, db.Classify(err, db.OpWrite, entityUser)
	}
	user, err = s.users.FindByID(ctx, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload user")
	}
	return s.signIn(ctx, user)
}
