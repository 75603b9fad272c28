package kb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rentwise/rentwise-backend/pkg/auth"
	"github.com/rentwise/rentwise-backend/pkg/db"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	pkgerrors "github.com/rentwise/rentwise-backend/pkg/errors"
	"github.com/rentwise/rentwise-backend/pkg/types"
	"gorm.io/gorm"
)

const (
	entityCategory = "KB category"
	entityArticle  = "Article"

	MaxTags = 20
)

// Service manages the knowledge base. Anonymous and customer readers only see published articles.
type Service interface {
	ListCategories(ctx context.Context) ([]models.KBCategory, error)
	CreateCategory(ctx context.Context, input CategoryInput) (*models.KBCategory, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, patch CategoryPatch) (*models.KBCategory, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListArticles(ctx context.Context, staff bool, input ListArticlesInput) (*types.ListEnvelope[models.KBArticle], error)
	GetArticle(ctx context.Context, staff bool, slugOrID string) (*models.KBArticle, error)
	CreateArticle(ctx context.Context, actor auth.Actor, input ArticleInput) (*models.KBArticle, error)
	UpdateArticle(ctx context.Context, id uuid.UUID, patch ArticlePatch) (*models.KBArticle, error)
	DeleteArticle(ctx context.Context, id uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
	now  func() time.Time
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("kb repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, now: time.Now}, nil
}

func required(field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", pkgerrors.Validation(field+" is required", nil)
	}
	return trimmed, nil
}

func checkSlug(slug string) error {
	if slug == "" {
		return pkgerrors.Validation("slug must contain letters or digits", nil)
	}
	return nil
}

// NormalizeTags slugifies tags, drops empties and duplicates and keeps first-seen order.
func NormalizeTags(raw []string) (pq.StringArray, error) {
	out := pq.StringArray{}
	seen := map[string]bool{}
	for _, t := range raw {
		tag := types.Slugify(t)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	if len(out) > MaxTags {
		return nil, pkgerrors.Validation(fmt.Sprintf("at most %d tags are allowed", MaxTags), nil)
	}
	return out, nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.KBCategory, error) {
	cats, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list kb categories")
	}
	if cats == nil {
		cats = []models.KBCategory{}
	}
	return cats, nil
}

func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*models.KBCategory, error) {
	name, err := required("name", input.Name)
	if err != nil {
		return nil, err
	}
	slug := types.SlugOrDerive(input.Slug, name)
	if err := checkSlug(slug); err != nil {
		return nil, err
	}
	cat := &models.KBCategory{
		Name:        name,
		Slug:        slug,
		Description: input.Description,
		SortOrder:   input.SortOrder,
	}
	if err := s.repo.CreateCategory(ctx, cat); err != nil {
		return nil, db.Classify(err, db.OpWrite, entityCategory)
	}
	return cat, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, patch CategoryPatch) (*models.KBCategory, error) {
	cat, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		return nil, db.Classify(err, db.OpWrite, entityCategory)
	}
	if patch.Name != nil {
		if cat.Name, err = required("name", *patch.Name); err != nil {
			return nil, err
		}
	}
	if patch.Slug != nil {
		cat.Slug = types.Slugify(*patch.Slug)
		if err := checkSlug(cat.Slug); err != nil {
			return nil, err
		}
	}
	if patch.Description != nil {
		cat.Description = patch.Description
	}
	if patch.SortOrder != nil {
		cat.SortOrder = *patch.SortOrder
	}
	if err := s.repo.SaveCategory(ctx, cat); err != nil {
		return nil, db.Classify(err, db.OpWrite, entityCategory)
	}
	return cat, nil
}

// DeleteCategory removes the category and leaves its articles uncategorized.
func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DetachCategory(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "detach articles")
		}
		n, err := repo.DeleteCategory(ctx, id)
		if err != nil {
			return db.Classify(err, db.OpDelete, entityCategory)
		}
		if n == 0 {
			return pkgerrors.NotFound(entityCategory)
		}
		return nil
	})
}

func (s *service) ListArticles(ctx context.Context, staff bool, input ListArticlesInput) (*types.ListEnvelope[models.KBArticle], error) {
	if !staff {
		published := enums.ArticleStatusPublished
		input.Filters.Status = &published
	}
	if input.Filters.Tag != "" {
		input.Filters.Tag = types.Slugify(input.Filters.Tag)
	}
	input.Pagination = input.Pagination.Normalize()
	articles, total, err := s.repo.ListArticles(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list articles")
	}
	if articles == nil {
		articles = []models.KBArticle{}
	}
	return &types.ListEnvelope[models.KBArticle]{
		Items:  articles,
		Total:  total,
		Limit:  input.Pagination.Limit,
		Offset: input.Pagination.Offset,
	}, nil
}

// GetArticle resolves a slug, or an id for staff. Public reads of published articles count a view.
func (s *service) GetArticle(ctx context.Context, staff bool, slugOrID string) (*models.KBArticle, error) {
	var (
		article *models.KBArticle
		err     error
	)
	if id, parseErr := uuid.Parse(slugOrID); parseErr == nil && staff {
		article, err = s.repo.FindArticle(ctx, id)
	} else {
		article, err = s.repo.FindArticleBySlug(ctx, strings.ToLower(strings.TrimSpace(slugOrID)))
	}
	if err != nil {
		return nil, db.Classify(err, db.OpWrite, entityArticle)
	}
	if staff {
		return article, nil
	}
	if article.Status != enums.ArticleStatusPublished {
		return nil, pkgerrors.NotFound(entityArticle)
	}
	if err := s.repo.IncrementViews(ctx, article.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count article view")
	}
	article.ViewCount++
	return article, nil
}

func (s *service) CreateArticle(ctx context.Context, actor auth.Actor, input ArticleInput) (*models.KBArticle, error) {
	title, err := required("title", input.Title)
	if err != nil {
		return nil, err
	}
	slug := types.SlugOrDerive(input.Slug, title)
	if err := checkSlug(slug); err != nil {
		return nil, err
	}
	tags, err := NormalizeTags(input.Tags)
	if err != nil {
		return nil, err
	}
	status := enums.ArticleStatusDraft
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.Validation("invalid status", map[string]any{"status": *input.Status})
		}
		status = *input.Status
	}

	article := &models.KBArticle{
		CategoryID: input.CategoryID,
		AuthorID:   actor.UserID,
		Title:      title,
		Slug:       slug,
		Summary:    input.Summary,
		Body:       input.Body,
		Tags:       tags,
		Status:     status,
	}
	s.stampPublished(article)
	if err := s.repo.CreateArticle(ctx, article); err != nil {
		return nil, db.Classify(err, db.OpWrite, entityArticle)
	}
	return article, nil
}

// stampPublished records the first publication time.
func (s *service) stampPublished(a *models.KBArticle) {
	if a.Status == enums.ArticleStatusPublished && a.PublishedAt == nil {
		now := s.now().UTC()
		a.PublishedAt = &now
	}
}

func (s *service) UpdateArticle(ctx context.Context, id uuid.UUID, patch ArticlePatch) (*models.KBArticle, error) {
	article, err := s.repo.FindArticle(ctx, id)
	if err != nil {
		return nil, db.Classify(err, db.OpWrite, entityArticle)
	}
	if patch.Title != nil {
		if article.Title, err = required("title", *patch.Title); err != nil {
			return nil, err
		}
	}
	if patch.Slug != nil {
		article.Slug = types.Slugify(*patch.Slug)
		if err := checkSlug(article.Slug); err != nil {
			return nil, err
		}
	}
	switch {
	case patch.ClearCategory:
		article.CategoryID = nil
	case patch.CategoryID != nil:
		article.CategoryID = patch.CategoryID
	}
	if patch.Summary != nil {
		article.Summary = patch.Summary
	}
	if patch.Body != nil {
		article.Body = *patch.Body
	}
	if patch.Tags != nil {
		if article.Tags, err = NormalizeTags(*patch.Tags); err != nil {
			return nil, err
		}
	}
	if patch.Status != nil {
		if !patch.Status.IsValid() {
			return nil, pkgerrors.Validation("invalid status", map[string]any{"status": *patch.Status})
		}
		article.Status = *patch.Status
	}
	if article.Tags == nil {
		article.Tags = pq.StringArray{}
	}
	s.stampPublished(article)
	if err := s.repo.SaveArticle(ctx, article); err != nil {
		return nil, db.Classify(err, db.OpWrite, entityArticle)
	}
	return article, nil
}

func (s *service) DeleteArticle(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.DeleteArticle(ctx, id)
	if err != nil {
		return db.Classify(err, db.OpDelete, entityArticle)
	}
	if n == 0 {
		return pkgerrors.NotFound(entityArticle)
	}
	return nil
}
