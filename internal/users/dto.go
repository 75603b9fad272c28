package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	"github.com/rentwise/rentwise-backend/pkg/pagination"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Phone         *string    `json:"phone,omitempty"`
	Role          enums.Role `json:"role"`
	IsActive      bool       `json:"is_active"`
	EmailVerified bool       `json:"email_verified"`
	HasPassword   bool       `json:"has_password"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email         string
	PasswordHash  *string
	FirstName     string
	LastName      string
	Phone         *string
	Role          enums.Role
	IsActive      *bool
	EmailVerified bool
}

// ListFilters narrows the admin user list.
type ListFilters struct {
	Role     *enums.Role
	IsActive *bool
	Query    string
}

type ListInput struct {
	Filters    ListFilters
	Pagination pagination.Params
}

// AdminPatch is the set of fields an admin may change on any account.
type AdminPatch struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Role      *enums.Role
	IsActive  *bool
}

// ProfilePatch is what a user may change on their own account.
type ProfilePatch struct {
	FirstName *string
	LastName  *string
	Phone     *string
}

type InviteInput struct {
	Email     string
	Role      enums.Role
	FirstName string
	LastName  string
}

// InviteResult reports the invited user and whether the email went out.
type InviteResult struct {
	User       *UserDTO `json:"user"`
	InviteSent bool     `json:"invite_sent"`
}

type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Phone:         u.Phone,
		Role:          u.Role,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		HasPassword:   u.HasPassword(),
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}
	role := c.Role
	if role == "" {
		role = enums.RoleCustomer
	}

	return &models.User{
		Email:         c.Email,
		PasswordHash:  c.PasswordHash,
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		Phone:         c.Phone,
		Role:          role,
		IsActive:      isActive,
		EmailVerified: c.EmailVerified,
	}
}
