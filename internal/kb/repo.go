package kb

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/db"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists knowledge base categories and articles.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) ListCategories(ctx context.Context) ([]models.KBCategory, error) {
	var cats []models.KBCategory
	err := r.db.WithContext(ctx).Order("sort_order ASC, name ASC").Find(&cats).Error
	return cats, err
}

func (r *Repository) FindCategory(ctx context.Context, id uuid.UUID) (*models.KBCategory, error) {
	var cat models.KBCategory
	if err := r.db.WithContext(ctx).First(&cat, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *Repository) CreateCategory(ctx context.Context, cat *models.KBCategory) error {
	return r.db.WithContext(ctx).Create(cat).Error
}

func (r *Repository) SaveCategory(ctx context.Context, cat *models.KBCategory) error {
	return r.db.WithContext(ctx).Save(cat).Error
}

// DetachCategory clears category_id on every article in the category.
func (r *Repository) DetachCategory(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.KBArticle{}).
		Where("category_id = ?", id).
		Update("category_id", nil).Error
}

func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.KBCategory{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

func (r *Repository) ListArticles(ctx context.Context, in ListArticlesInput) ([]models.KBArticle, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.KBArticle{})
	f := in.Filters
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.Tag != "" {
		if db.IsPostgres(r.db) {
			q = q.Where("? = ANY(tags)", f.Tag)
		} else {
			// array literal text; every element is double quoted
			q = q.Where("tags LIKE ?", `%"`+f.Tag+`"%`)
		}
	}
	if term := strings.TrimSpace(f.Query); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(COALESCE(summary, '')) LIKE ? OR LOWER(body) LIKE ?)", like, like, like)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var articles []models.KBArticle
	if err := q.Order("published_at IS NULL, published_at DESC, created_at DESC").
		Limit(in.Pagination.Limit).
		Offset(in.Pagination.Offset).
		Find(&articles).Error; err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

func (r *Repository) FindArticle(ctx context.Context, id uuid.UUID) (*models.KBArticle, error) {
	var a models.KBArticle
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) FindArticleBySlug(ctx context.Context, slug string) (*models.KBArticle, error) {
	var a models.KBArticle
	if err := r.db.WithContext(ctx).First(&a, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) CreateArticle(ctx context.Context, a *models.KBArticle) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *Repository) SaveArticle(ctx context.Context, a *models.KBArticle) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *Repository) DeleteArticle(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.KBArticle{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

// IncrementViews bumps view_count without touching updated_at.
func (r *Repository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.KBArticle{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}
