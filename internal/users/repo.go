package users

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/db"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) List(ctx context.Context, in ListInput) ([]models.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})
	f := in.Filters
	if f.Role != nil {
		q = q.Where("role = ?", *f.Role)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	if term := strings.TrimSpace(f.Query); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("(LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?)", like, like, like)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.User
	if err := q.Order("created_at DESC").
		Limit(in.Pagination.Limit).
		Offset(in.Pagination.Offset).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update writes the given columns; it reports how many rows matched.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	return res.RowsAffected, res.Error
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// LockActiveAdmins returns the ids of active admins, locking their rows on Postgres so two
// concurrent demotions serialize. Postgres refuses FOR UPDATE on an aggregate, hence ids.
func (r *Repository) LockActiveAdmins(ctx context.Context) ([]uuid.UUID, error) {
	tx := r.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ? AND is_active = ?", enums.RoleAdmin, true).
		Order("id")
	if db.IsPostgres(r.db) {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var ids []uuid.UUID
	err := tx.Pluck("id", &ids).Error
	return ids, err
}

// FindOAuthAccount looks up the link for an external identity.
func (r *Repository) FindOAuthAccount(ctx context.Context, provider enums.OAuthProvider, providerUserID string) (*models.OAuthAccount, error) {
	var acct models.OAuthAccount
	if err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_user_id = ?", provider, providerUserID).
		First(&acct).Error; err != nil {
		return nil, err
	}
	return &acct, nil
}

func (r *Repository) CreateOAuthAccount(ctx context.Context, acct *models.OAuthAccount) error {
	return r.db.WithContext(ctx).Create(acct).Error
}
