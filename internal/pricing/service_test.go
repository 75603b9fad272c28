package pricing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/db/dbtest"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	pkgerrors "github.com/rentwise/rentwise-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(dbtest.Open(t)))
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresRepo(t *testing.T) {
	_, err := NewService(nil)
	require.Error(t, err)
}

func TestCreateModifierNormalizesAndRejectsDuplicates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	mod, err := svc.CreateModifier(ctx, CreateModifierInput{
		Code:       " spring10 ",
		Name:       "Spring sale",
		Kind:       enums.ModifierKindDiscount,
		Percentage: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	require.Equal(t, "SPRING10", mod.Code)
	require.Equal(t, enums.ModifierTargetSubtotal, mod.AppliesTo)
	require.True(t, mod.IsActive)

	_, err = svc.CreateModifier(ctx, CreateModifierInput{
		Code:       "SPRING10",
		Name:       "again",
		Kind:       enums.ModifierKindDiscount,
		Percentage: decimal.NewFromInt(5),
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)
}

func TestCreateModifierValidatesPercentage(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.CreateModifier(context.Background(), CreateModifierInput{
		Code:       "HUGE",
		Name:       "too much",
		Kind:       enums.ModifierKindFee,
		Percentage: decimal.NewFromInt(101),
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateAndDeleteModifier(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	mod, err := svc.CreateModifier(ctx, CreateModifierInput{
		Code: "WEEKEND", Name: "Weekend fee", Kind: enums.ModifierKindFee, Percentage: decimal.NewFromInt(5),
	})
	require.NoError(t, err)

	pct := decimal.RequireFromString("7.5")
	inactive := false
	updated, err := svc.UpdateModifier(ctx, mod.ID, UpdateModifierInput{Percentage: &pct, IsActive: &inactive})
	require.NoError(t, err)
	require.True(t, updated.Percentage.Equal(pct))
	require.False(t, updated.IsActive)

	active, err := svc.ListModifiers(ctx, true)
	require.NoError(t, err)
	require.Empty(t, active)

	require.NoError(t, svc.DeleteModifier(ctx, mod.ID))
	require.True(t, pkgerrors.IsCode(svc.DeleteModifier(ctx, mod.ID), pkgerrors.CodeNotFound))

	_, err = svc.UpdateModifier(ctx, uuid.New(), UpdateModifierInput{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestResolveModifiers(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	inactive := false

	_, err := svc.CreateModifier(ctx, CreateModifierInput{
		Code: "SERVICE", Name: "Service fee", Kind: enums.ModifierKindFee, Percentage: decimal.NewFromInt(3), IsAutomatic: true,
	})
	require.NoError(t, err)
	_, err = svc.CreateModifier(ctx, CreateModifierInput{
		Code: "VIP", Name: "VIP", Kind: enums.ModifierKindDiscount, Percentage: decimal.NewFromInt(15),
	})
	require.NoError(t, err)
	_, err = svc.CreateModifier(ctx, CreateModifierInput{
		Code: "OLD", Name: "Old promo", Kind: enums.ModifierKindDiscount, Percentage: decimal.NewFromInt(50), IsActive: &inactive,
	})
	require.NoError(t, err)

	mods, err := svc.ResolveModifiers(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, mods, 1)
	require.Equal(t, "SERVICE", mods[0].Code)

	mods, err = svc.ResolveModifiers(ctx, nil, []string{"vip"})
	require.NoError(t, err)
	require.Len(t, mods, 2)

	_, err = svc.ResolveModifiers(ctx, nil, []string{"OLD", "NOPE"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	require.Equal(t, map[string]any{"modifier_codes": []string{"NOPE", "OLD"}}, typed.Details())
}
