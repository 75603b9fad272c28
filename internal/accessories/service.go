package accessories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/db"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	pkgerrors "github.com/rentwise/rentwise-backend/pkg/errors"
	"github.com/rentwise/rentwise-backend/pkg/types"
	"gorm.io/gorm"
)

const (
	entityAccessory = "Accessory"
	entityColor     = "Accessory color"
	entityLink      = "Accessory link"
)

// Input creates an accessory.
type Input struct {
	Name           string
	Slug           *string
	Description    *string
	PriceCents     int64
	IsActive       *bool
	TrackInventory bool
}

// Patch updates an accessory.
type Patch struct {
	Name           *string
	Slug           *string
	Description    *string
	PriceCents     *int64
	IsActive       *bool
	TrackInventory *bool
}

// ColorInput creates an accessory color.
type ColorInput struct {
	Name    string
	HexCode *string
}

// LinkInput is one entry of a product's accessory set.
type LinkInput struct {
	AccessoryID uuid.UUID
	IsRequired  bool
	IsDefault   bool
	SortOrder   int
}

// Service exposes accessory management.
type Service interface {
	List(ctx context.Context, includeInactive bool, query string) ([]models.Accessory, error)
	Get(ctx context.Context, id uuid.UUID, includeInactive bool) (*models.Accessory, error)
	Create(ctx context.Context, input Input) (*models.Accessory, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) (*models.Accessory, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddColor(ctx context.Context, accessoryID uuid.UUID, input ColorInput) (*models.AccessoryColor, error)
	DeleteColor(ctx context.Context, colorID uuid.UUID) error
	ListLinks(ctx context.Context, productID uuid.UUID) ([]models.ProductAccessoryLink, error)
	ReplaceLinks(ctx context.Context, productID uuid.UUID, links []LinkInput) ([]models.ProductAccessoryLink, error)
	RemoveLink(ctx context.Context, productID, accessoryID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("accessories repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, includeInactive bool, query string) ([]models.Accessory, error) {
	out, err := s.repo.List(ctx, includeInactive, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list accessories")
	}
	if out == nil {
		out = []models.Accessory{}
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID, includeInactive bool) (*models.Accessory, error) {
	acc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Classify(err, db.OpWrite, entityAccessory)
	}
	if !acc.IsActive && !includeInactive {
		return nil, pkgerrors.NotFound(entityAccessory)
	}
	return acc, nil
}

func (s *service) Create(ctx context.Context, input Input) (*models.Accessory, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.Validation("name is required", nil)
	}
	slug := types.SlugOrDerive(input.Slug, name)
	if slug == "" {
		return nil, pkgerrors.Validation("slug must contain letters or digits", nil)
	}
	if input.PriceCents < 0 {
		return nil, pkgerrors.Validation("price_cents must not be negative", nil)
	}
	acc := &models.Accessory{
		Name:           name,
		Slug:           slug,
		Description:    input.Description,
		PriceCents:     input.PriceCents,
		IsActive:       input.IsActive == nil || *input.IsActive,
		TrackInventory: input.TrackInventory,
	}
	if err := s.repo.Create(ctx, acc); err != nil {
		return nil, db.Classify(err, db.OpWrite, entityAccessory)
	}
	return acc, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, patch Patch) (*models.Accessory, error) {
	acc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Classify(err, db.OpWrite, entityAccessory)
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, pkgerrors.Validation("name must not be empty", nil)
		}
		acc.Name = name
	}
	if patch.Slug != nil {
		acc.Slug = types.Slugify(*patch.Slug)
		if acc.Slug == "" {
			return nil, pkgerrors.Validation("slug must contain letters or digits", nil)
		}
	}
	if patch.Description != nil {
		acc.Description = patch.Description
	}
	if patch.PriceCents != nil {
		if *patch.PriceCents < 0 {
			return nil, pkgerrors.Validation("price_cents must not be negative", nil)
		}
		acc.PriceCents = *patch.PriceCents
	}
	if patch.IsActive != nil {
		acc.IsActive = *patch.IsActive
	}
	if patch.TrackInventory != nil {
		acc.TrackInventory = *patch.TrackInventory
	}
	if err := s.repo.Save(ctx, acc); err != nil {
		return nil, db.Classify(err, db.OpWrite, entityAccessory)
	}
	return acc, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return db.Classify(err, db.OpDelete, entityAccessory)
	}
	if affected == 0 {
		return pkgerrors.NotFound(entityAccessory)
	}
	return nil
}

func (s *service) AddColor(ctx context.Context, accessoryID uuid.UUID, input ColorInput) (*models.AccessoryColor, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.Validation("name is required", nil)
	}
	if _, err := s.repo.FindByID(ctx, accessoryID); err != nil {
		return nil, db.Classify(err, db.OpWrite, entityAccessory)
	}
	color := &models.AccessoryColor{AccessoryID: accessoryID, Name: name, HexCode: input.HexCode}
	if err := s.repo.CreateColor(ctx, color); err != nil {
		return nil, db.Classify(err, db.OpWrite, entityColor)
	}
	return color, nil
}

func (s *service) DeleteColor(ctx context.Context, colorID uuid.UUID) error {
	affected, err := s.repo.DeleteColor(ctx, colorID)
	if err != nil {
		return db.Classify(err, db.OpDelete, entityColor)
	}
	if affected == 0 {
		return pkgerrors.NotFound(entityColor)
	}
	return nil
}

func (s *service) ListLinks(ctx context.Context, productID uuid.UUID) ([]models.ProductAccessoryLink, error) {
	exists, err := s.repo.ProductExists(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !exists {
		return nil, pkgerrors.NotFound("Product")
	}
	links, err := s.repo.ListLinks(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list accessory links")
	}
	if links == nil {
		links = []models.ProductAccessoryLink{}
	}
	return links, nil
}

func (s *service) ReplaceLinks(ctx context.Context, productID uuid.UUID, input []LinkInput) ([]models.ProductAccessoryLink, error) {
	seen := make(map[uuid.UUID]bool, len(input))
	links := make([]models.ProductAccessoryLink, 0, len(input))
	for i, in := range input {
		if in.AccessoryID == uuid.Nil {
			return nil, pkgerrors.Validation("accessory_id is required", map[string]any{"index": i})
		}
		if seen[in.AccessoryID] {
			return nil, pkgerrors.Validation("accessory listed twice", map[string]any{"index": i, "accessory_id": in.AccessoryID})
		}
		seen[in.AccessoryID] = true
		links = append(links, models.ProductAccessoryLink{
			ProductTemplateID: productID,
			AccessoryID:       in.AccessoryID,
			IsRequired:        in.IsRequired,
			IsDefault:         in.IsDefault || in.IsRequired,
			SortOrder:         in.SortOrder,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		exists, err := repo.ProductExists(ctx, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}
		if !exists {
			return pkgerrors.NotFound("Product")
		}
		if err := repo.ReplaceLinks(ctx, productID, links); err != nil {
			return db.Classify(err, db.OpWrite, entityLink)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.ListLinks(ctx, productID)
}

func (s *service) RemoveLink(ctx context.Context, productID, accessoryID uuid.UUID) error {
	affected, err := s.repo.DeleteLink(ctx, productID, accessoryID)
	if err != nil {
		return db.Classify(err, db.OpDelete, entityLink)
	}
	if affected == 0 {
		return pkgerrors.NotFound(entityLink)
	}
	return nil
}
