package pricing

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/db"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	pkgerrors "github.com/rentwise/rentwise-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const entityModifier = "Pricing modifier"

// Service exposes modifier administration and resolution.
type Service interface {
	ListModifiers(ctx context.Context, activeOnly bool) ([]models.PricingModifier, error)
	CreateModifier(ctx context.Context, input CreateModifierInput) (*models.PricingModifier, error)
	UpdateModifier(ctx context.Context, id uuid.UUID, input UpdateModifierInput) (*models.PricingModifier, error)
	DeleteModifier(ctx context.Context, id uuid.UUID) error
	ResolveModifiers(ctx context.Context, tx *gorm.DB, codes []string) ([]models.PricingModifier, error)
}

type service struct {
	repo *Repository
}

// NewService builds the pricing service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pricing repository required")
	}
	return &service{repo: repo}, nil
}

// CreateModifierInput is the payload for a new modifier.
type CreateModifierInput struct {
	Code        string
	Name        string
	Kind        enums.ModifierKind
	Percentage  decimal.Decimal
	AppliesTo   enums.ModifierTarget
	IsAutomatic bool
	IsActive    *bool
}

// UpdateModifierInput carries optional modifier changes.
type UpdateModifierInput struct {
	Name        *string
	Kind        *enums.ModifierKind
	Percentage  *decimal.Decimal
	AppliesTo   *enums.ModifierTarget
	IsAutomatic *bool
	IsActive    *bool
}

func validatePercentage(p decimal.Decimal) error {
	if p.IsNegative() || p.GreaterThan(hundred) {
		return pkgerrors.Validation("percentage must be between 0 and 100", map[string]any{"percentage": p.String()})
	}
	return nil
}

func (s *service) ListModifiers(ctx context.Context, activeOnly bool) ([]models.PricingModifier, error) {
	mods, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pricing modifiers")
	}
	return mods, nil
}

func (s *service) CreateModifier(ctx context.Context, input CreateModifierInput) (*models.PricingModifier, error) {
	code := NormalizeCode(input.Code)
	if code == "" {
		return nil, pkgerrors.Validation("code is required", nil)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.Validation("name is required", nil)
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.Validation("kind must be discount or fee", nil)
	}
	target := input.AppliesTo
	if target == "" {
		target = enums.ModifierTargetSubtotal
	}
	if !target.IsValid() {
		return nil, pkgerrors.Validation("applies_to must be subtotal or deposit", nil)
	}
	if err := validatePercentage(input.Percentage); err != nil {
		return nil, err
	}

	mod := &models.PricingModifier{
		Code:        code,
		Name:        name,
		Kind:        input.Kind,
		Percentage:  input.Percentage,
		AppliesTo:   target,
		IsAutomatic: input.IsAutomatic,
		IsActive:    input.IsActive == nil || *input.IsActive,
	}
	if err := s.repo.Create(ctx, mod); err != nil {
		return nil, db.Classify(err, db.OpWrite, entityModifier)
	}
	return mod, nil
}

func (s *service) UpdateModifier(ctx context.Context, id uuid.UUID, input UpdateModifierInput) (*models.PricingModifier, error) {
	mod, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Classify(err, db.OpWrite, entityModifier)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.Validation("name must not be empty", nil)
		}
		mod.Name = name
	}
	if input.Kind != nil {
		if !input.Kind.IsValid() {
			return nil, pkgerrors.Validation("kind must be discount or fee", nil)
		}
		mod.Kind = *input.Kind
	}
	if input.AppliesTo != nil {
		if !input.AppliesTo.IsValid() {
			return nil, pkgerrors.Validation("applies_to must be subtotal or deposit", nil)
		}
		mod.AppliesTo = *input.AppliesTo
	}
	if input.Percentage != nil {
		if err := validatePercentage(*input.Percentage); err != nil {
			return nil, err
		}
		mod.Percentage = *input.Percentage
	}
	if input.IsAutomatic != nil {
		mod.IsAutomatic = *input.IsAutomatic
	}
	if input.IsActive != nil {
		mod.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, mod); err != nil {
		return nil, db.Classify(err, db.OpWrite, entityModifier)
	}
	return mod, nil
}

func (s *service) DeleteModifier(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return db.Classify(err, db.OpDelete, entityModifier)
	}
	if affected == 0 {
		return pkgerrors.NotFound(entityModifier)
	}
	return nil
}

// ResolveModifiers returns the automatic modifiers plus the requested codes.
// Unknown or inactive codes are rejected with a validation error naming them.
func (s *service) ResolveModifiers(ctx context.Context, tx *gorm.DB, codes []string) ([]models.PricingModifier, error) {
	repo := s.repo.WithTx(tx)

	mods, err := repo.Automatic(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load automatic modifiers")
	}

	requested, err := repo.FindByCodes(ctx, codes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load requested modifiers")
	}
	found := make(map[string]models.PricingModifier, len(requested))
	for _, m := range requested {
		found[m.Code] = m
	}

	var invalid []string
	for _, raw := range codes {
		code := NormalizeCode(raw)
		m, ok := found[code]
		if !ok || !m.IsActive {
			invalid = append(invalid, code)
			continue
		}
		mods = append(mods, m)
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return nil, pkgerrors.Validation("unknown or inactive modifier code", map[string]any{"modifier_codes": invalid})
	}
	return mods, nil
}
