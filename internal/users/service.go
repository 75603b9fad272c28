package users

import (
	"context"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/auth"
	"github.com/rentwise/rentwise-backend/pkg/auth/session"
	"github.com/rentwise/rentwise-backend/pkg/config"
	"github.com/rentwise/rentwise-backend/pkg/db"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	pkgerrors "github.com/rentwise/rentwise-backend/pkg/errors"
	"github.com/rentwise/rentwise-backend/pkg/logger"
	"github.com/rentwise/rentwise-backend/pkg/security"
	"github.com/rentwise/rentwise-backend/pkg/types"
	"gorm.io/gorm"
)

const entityUser = "User"

// Service covers account administration and self-service profile changes.
type Service interface {
	List(ctx context.Context, input ListInput) (*types.ListEnvelope[UserDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	Update(ctx context.Context, actor auth.Actor, id uuid.UUID, patch AdminPatch) (*UserDTO, error)
	Deactivate(ctx context.Context, actor auth.Actor, id uuid.UUID) (*UserDTO, error)
	Invite(ctx context.Context, actor auth.Actor, input InviteInput) (*InviteResult, error)
	UpdateProfile(ctx context.Context, actor auth.Actor, patch ProfilePatch) (*UserDTO, error)
	ChangePassword(ctx context.Context, actor auth.Actor, input ChangePasswordInput) error
}

type tokenIssuer interface {
	Issue(ctx context.Context, purpose session.Purpose, userID uuid.UUID, ttl time.Duration) (string, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type inviteSender interface {
	SendInvitation(ctx context.Context, to, name, role, link string) error
}

// ServiceParams bundles the dependencies required to build a users service.
type ServiceParams struct {
	Repo        *Repository
	Tx          txRunner
	Tokens      tokenIssuer
	Mailer      inviteSender
	Password    config.PasswordConfig
	TokenTTLs   config.TokensConfig
	FrontendURL string
	Logger      *logger.Logger
}

type service struct {
	repo        *Repository
	tx          txRunner
	tokens      tokenIssuer
	mailer      inviteSender
	passwordCfg config.PasswordConfig
	ttl         config.TokensConfig
	frontendURL string
	logg        *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("users repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("token issuer is required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &service{
		repo:        params.Repo,
		tx:          params.Tx,
		tokens:      params.Tokens,
		mailer:      params.Mailer,
		passwordCfg: params.Password,
		ttl:         params.TokenTTLs,
		frontendURL: strings.TrimRight(params.FrontendURL, "/"),
		logg:        params.Logger,
	}, nil
}

// NormalizeEmail trims and lowercases an address and checks that it parses.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", pkgerrors.Validation("email is required", nil)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return "", pkgerrors.Validation("email is invalid", map[string]any{"email": raw})
	}
	return email, nil
}

// CheckPassword enforces the configured minimum length and bcrypt's byte limit.
func CheckPassword(password string, cfg config.PasswordConfig) error {
	minLen := cfg.MinLength
	if minLen <= 0 {
		minLen = 8
	}
	if len(password) < minLen {
		return pkgerrors.Validation(fmt.Sprintf("password must be at least %d characters", minLen), nil)
	}
	if len(password) > 72 {
		return pkgerrors.Validation("password must be at most 72 bytes", nil)
	}
	return nil
}

func (s *service) List(ctx context.Context, input ListInput) (*types.ListEnvelope[UserDTO], error) {
	input.Pagination = input.Pagination.Normalize()
	rows, total, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	items := make([]UserDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return &types.ListEnvelope[UserDTO]{
		Items:  items,
		Total:  total,
		Limit:  input.Pagination.Limit,
		Offset: input.Pagination.Offset,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Classify(err, db.OpWrite, entityUser)
	}
	return FromModel(user), nil
}

func (s *service) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, patch AdminPatch) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Classify(err, db.OpWrite, entityUser)
	}

	fields := profileFields(patch.FirstName, patch.LastName, patch.Phone)
	if patch.Role != nil {
		if !patch.Role.IsValid() {
			return nil, pkgerrors.Validation("invalid role", map[string]any{"role": *patch.Role})
		}
		if id == actor.UserID && *patch.Role != user.Role {
			return nil, pkgerrors.Validation("you cannot change your own role", nil)
		}
		fields["role"] = *patch.Role
	}
	if patch.IsActive != nil {
		if id == actor.UserID && !*patch.IsActive {
			return nil, pkgerrors.Validation("you cannot deactivate your own account", nil)
		}
		fields["is_active"] = *patch.IsActive
	}
	if len(fields) == 0 {
		return FromModel(user), nil
	}
	return s.applyGuarded(ctx, user, fields)
}

// demotesAdmin reports whether fields take an active admin out of the active admin set.
func demotesAdmin(user *models.User, fields map[string]any) bool {
	if user.Role != enums.RoleAdmin || !user.IsActive {
		return false
	}
	if role, ok := fields["role"].(enums.Role); ok && role != enums.RoleAdmin {
		return true
	}
	if active, ok := fields["is_active"].(bool); ok && !active {
		return true
	}
	return false
}

// applyGuarded writes fields, refusing changes that would leave no active admin. The admin
// rows stay locked from the count until the write commits.
func (s *service) applyGuarded(ctx context.Context, user *models.User, fields map[string]any) (*UserDTO, error) {
	if !demotesAdmin(user, fields) {
		return s.apply(ctx, user.ID, fields)
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		admins, err := repo.LockActiveAdmins(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count admins")
		}
		// a concurrent request may already have demoted this user
		if containsID(admins, user.ID) && len(admins) <= 1 {
			return pkgerrors.New(pkgerrors.CodeConflict, "at least one active admin is required")
		}
		fields["updated_at"] = time.Now().UTC()
		rows, err := repo.Update(ctx, user.ID, fields)
		if err != nil {
			return db.Classify(err, db.OpWrite, entityUser)
		}
		if rows == 0 {
			return pkgerrors.NotFound(entityUser)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, user.ID)
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func (s *service) Deactivate(ctx context.Context, actor auth.Actor, id uuid.UUID) (*UserDTO, error) {
	if id == actor.UserID {
		return nil, pkgerrors.Validation("you cannot deactivate your own account", nil)
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Classify(err, db.OpWrite, entityUser)
	}
	return s.applyGuarded(ctx, user, map[string]any{"is_active": false})
}

func (s *service) Invite(ctx context.Context, actor auth.Actor, input InviteInput) (*InviteResult, error) {
	email, err := NormalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	role := input.Role
	if role == "" {
		role = enums.RoleCustomer
	}
	if !role.IsValid() {
		return nil, pkgerrors.Validation("invalid role", map[string]any{"role": input.Role})
	}

	inactive := false
	user, err := s.repo.Create(ctx, CreateUserDTO{
		Email:     email,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Role:      role,
		IsActive:  &inactive,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "Email already exists")
		}
		return nil, db.Classify(err, db.OpWrite, entityUser)
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"invited_user_id": user.ID.String(),
		"invited_by":      actor.UserID.String(),
		"role":            string(role),
	})

	token, err := s.tokens.Issue(ctx, session.PurposeInvite, user.ID, s.inviteTTL())
	if err != nil {
		s.logg.Error(logCtx, "users.invite_token_failed", err)
		return &InviteResult{User: FromModel(user)}, nil
	}
	link := s.link("/accept-invite", token)
	if err := s.mailer.SendInvitation(ctx, user.Email, user.FirstName, string(role), link); err != nil {
		s.logg.Error(logCtx, "users.invite_email_failed", err)
		return &InviteResult{User: FromModel(user)}, nil
	}
	s.logg.Info(logCtx, "users.invited")
	return &InviteResult{User: FromModel(user), InviteSent: true}, nil
}

func (s *service) inviteTTL() time.Duration {
	if s.ttl.InviteTTL > 0 {
		return s.ttl.InviteTTL
	}
	return 7 * 24 * time.Hour
}

func (s *service) link(path, token string) string {
	return s.frontendURL + path + "?token=" + url.QueryEscape(token)
}

func (s *service) UpdateProfile(ctx context.Context, actor auth.Actor, patch ProfilePatch) (*UserDTO, error) {
	fields := profileFields(patch.FirstName, patch.LastName, patch.Phone)
	if len(fields) == 0 {
		return s.Get(ctx, actor.UserID)
	}
	return s.apply(ctx, actor.UserID, fields)
}

func (s *service) ChangePassword(ctx context.Context, actor auth.Actor, input ChangePasswordInput) error {
	user, err := s.repo.FindByID(ctx, actor.UserID)
	if err != nil {
		return db.Classify(err, db.OpWrite, entityUser)
	}
	// accounts created through OAuth may set a first password without one
	if user.HasPassword() {
		ok, err := security.VerifyPassword(input.CurrentPassword, *user.PasswordHash)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
		}
		if !ok {
			return pkgerrors.Validation("current password is incorrect", map[string]any{"field": "current_password"})
		}
	}
	if err := CheckPassword(input.NewPassword, s.passwordCfg); err != nil {
		return err
	}
	hash, err := security.HashPassword(input.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if _, err := s.repo.Update(ctx, user.ID, map[string]any{"password_hash": hash}); err != nil {
		return db.Classify(err, db.OpWrite, entityUser)
	}
	return nil
}

func (s *service) apply(ctx context.Context, id uuid.UUID, fields map[string]any) (*UserDTO, error) {
	fields["updated_at"] = time.Now().UTC()
	rows, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, db.Classify(err, db.OpWrite, entityUser)
	}
	if rows == 0 {
		return nil, pkgerrors.NotFound(entityUser)
	}
	return s.Get(ctx, id)
}

func profileFields(first, last, phone *string) map[string]any {
	fields := map[string]any{}
	if first != nil {
		fields["first_name"] = strings.TrimSpace(*first)
	}
	if last != nil {
		fields["last_name"] = strings.TrimSpace(*last)
	}
	if phone != nil {
		if p := strings.TrimSpace(*phone); p != "" {
			fields["phone"] = p
		} else {
			fields["phone"] = nil
		}
	}
	return fields
}
