package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	"gorm.io/gorm"
)

// User is an account on the platform. PasswordHash is nil for OAuth-only accounts.
type User struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email         string     `gorm:"type:text;not null;uniqueIndex" json:"email"`
	PasswordHash  *string    `gorm:"column:password_hash" json:"-"`
	FirstName     string     `gorm:"column:first_name;not null" json:"first_name"`
	LastName      string     `gorm:"column:last_name;not null" json:"last_name"`
	Phone         *string    `gorm:"column:phone" json:"phone,omitempty"`
	Role          enums.Role `gorm:"column:role;type:text;not null" json:"role"`
	IsActive      bool       `gorm:"column:is_active;not null" json:"is_active"`
	EmailVerified bool       `gorm:"column:email_verified;not null" json:"email_verified"`
	LastLoginAt   *time.Time `gorm:"column:last_login_at" json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// OAuthAccount links a user to an external identity.
type OAuthAccount struct {
	ID             uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID           `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	Provider       enums.OAuthProvider `gorm:"column:provider;type:text;not null" json:"provider"`
	ProviderUserID string              `gorm:"column:provider_user_id;not null" json:"provider_user_id"`
	Email          string              `gorm:"column:email" json:"email"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (OAuthAccount) TableName() string { return "oauth_providers" }

func (a *OAuthAccount) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
