package rentals

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/internal/availability"
	"github.com/rentwise/rentwise-backend/internal/pricing"
	"github.com/rentwise/rentwise-backend/pkg/auth"
	"github.com/rentwise/rentwise-backend/pkg/db"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	pkgerrors "github.com/rentwise/rentwise-backend/pkg/errors"
	"github.com/rentwise/rentwise-backend/pkg/logger"
	"github.com/rentwise/rentwise-backend/pkg/types"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const (
	entityRental  = "Rental"
	entityItem    = "Inventory item"
	entityProduct = "Product"

	// ExpiredReason is stored on pending rentals cancelled because their start date passed.
	ExpiredReason = "expired"
)

// Service exposes the rental lifecycle.
type Service interface {
	List(ctx context.Context, actor auth.Actor, input ListInput) (*types.ListEnvelope[models.Rental], error)
	Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*models.Rental, error)
	Create(ctx context.Context, actor auth.Actor, input CreateInput) (*models.Rental, error)
	CreateEnhanced(ctx context.Context, actor auth.Actor, input EnhancedInput) (*models.Rental, error)
	Quote(ctx context.Context, input EnhancedInput) (*Quote, error)
	Cancel(ctx context.Context, actor auth.Actor, id uuid.UUID, reason *string) (*models.Rental, error)
	UpdateStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, next enums.RentalStatus) (*models.Rental, error)
	MarkOverdue(ctx context.Context) (SweepResult, error)
	ExpirePending(ctx context.Context) (SweepResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type modifierResolver interface {
	ResolveModifiers(ctx context.Context, tx *gorm.DB, codes []string) ([]models.PricingModifier, error)
}

// ServiceParams wires the rental service.
type ServiceParams struct {
	Repo         *Repository
	Availability *availability.Repository
	Pricing      modifierResolver
	Tx           txRunner
	Logger       *logger.Logger
	Now          func() time.Time
}

type service struct {
	repo    *Repository
	avail   *availability.Repository
	pricing modifierResolver
	tx      txRunner
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("rentals repository required")
	}
	if p.Availability == nil {
		return nil, fmt.Errorf("availability repository required")
	}
	if p.Pricing == nil {
		return nil, fmt.Errorf("pricing resolver required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &service{
		repo:    p.Repo,
		avail:   p.Availability,
		pricing: p.Pricing,
		tx:      p.Tx,
		logg:    p.Logger,
		now:     p.Now,
	}, nil
}

func (s *service) today() time.Time {
	return types.TruncateDate(s.now())
}

// checkDates normalizes the range and applies the booking window rules.
func (s *service) checkDates(actor auth.Actor, start, end time.Time) (time.Time, time.Time, error) {
	if start.IsZero() || end.IsZero() {
		return start, end, pkgerrors.Validation("start_date and end_date are required", nil)
	}
	start, end = types.TruncateDate(start), types.TruncateDate(end)
	if end.Before(start) {
		return start, end, pkgerrors.Validation("end_date must not be before start_date", map[string]any{
			"start_date": start.Format(types.DateLayout),
			"end_date":   end.Format(types.DateLayout),
		})
	}
	if !actor.IsStaff() && start.Before(s.today()) {
		return start, end, pkgerrors.Validation("start_date must not be in the past", map[string]any{
			"start_date": start.Format(types.DateLayout),
		})
	}
	return start, end, nil
}

func bookingUser(actor auth.Actor, requested *uuid.UUID) uuid.UUID {
	if requested != nil && *requested != uuid.Nil && actor.IsStaff() {
		return *requested
	}
	return actor.UserID
}

func (s *service) List(ctx context.Context, actor auth.Actor, input ListInput) (*types.ListEnvelope[models.Rental], error) {
	if !actor.IsStaff() {
		input.Filters.UserID = &actor.UserID
	}
	input.Pagination = input.Pagination.Normalize()
	rentals, total, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list rentals")
	}
	if rentals == nil {
		rentals = []models.Rental{}
	}
	return &types.ListEnvelope[models.Rental]{
		Items:  rentals,
		Total:  total,
		Limit:  input.Pagination.Limit,
		Offset: input.Pagination.Offset,
	}, nil
}

func (s *service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*models.Rental, error) {
	rental, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Classify(err, db.OpWrite, entityRental)
	}
	if !actor.CanAccess(rental.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "rental belongs to another user")
	}
	return rental, nil
}

// Create books one specific unit. The unit must be available and free for the whole range.
func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateInput) (*models.Rental, error) {
	start, end, err := s.checkDates(actor, input.StartDate, input.EndDate)
	if err != nil {
		return nil, err
	}
	if input.InventoryItemID == uuid.Nil {
		return nil, pkgerrors.Validation("inventory_item_id is required", nil)
	}

	var rental models.Rental
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.LockItem(ctx, input.InventoryItemID)
		if err != nil {
			return db.Classify(err, db.OpWrite, entityItem)
		}
		if item.ProductTemplateID == nil {
			return pkgerrors.Validation("inventory item is not a rentable product", nil)
		}
		if item.Status != enums.InventoryStatusAvailable {
			return pkgerrors.New(pkgerrors.CodeConflict, "Equipment is not available").
				WithDetails(map[string]any{"status": item.Status})
		}
		booked, err := s.avail.WithTx(tx).ItemBooked(ctx, item.ID, start, end, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check overlapping rentals")
		}
		if booked {
			return pkgerrors.New(pkgerrors.CodeConflict, "Equipment is already booked for these dates")
		}

		product, err := repo.FindProduct(ctx, *item.ProductTemplateID)
		if err != nil {
			return db.Classify(err, db.OpWrite, entityProduct)
		}
		mods, err := s.pricing.ResolveModifiers(ctx, tx, input.ModifierCodes)
		if err != nil {
			return err
		}
		breakdown, err := pricing.Calculate(pricing.Input{
			StartDate:        start,
			EndDate:          end,
			BasePriceCents:   product.BasePriceCents,
			RentalPeriodDays: product.RentalPeriodDays,
			DepositCents:     product.DepositCents,
			Modifiers:        mods,
		})
		if err != nil {
			return pkgerrors.Validation(err.Error(), nil)
		}

		rental = newRentalFromBreakdown(breakdown)
		rental.UserID = bookingUser(actor, input.UserID)
		rental.InventoryItemID = &item.ID
		rental.ProductTemplateID = product.ID
		rental.ColorID = item.ColorID
		rental.StartDate = start
		rental.EndDate = end
		rental.Notes = input.Notes
		if err := repo.Create(ctx, &rental); err != nil {
			return db.Classify(err, db.OpWrite, entityRental)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"rental_id":         rental.ID.String(),
		"inventory_item_id": input.InventoryItemID.String(),
	}), "rental.created")
	return &rental, nil
}

// priced is the validated, priced form of an enhanced booking.
type priced struct {
	product   *models.ProductTemplate
	breakdown pricing.Breakdown
	lines     []QuoteAccessory
}

// price validates product, color and accessory selections and prices them.
func (s *service) price(ctx context.Context, tx *gorm.DB, input EnhancedInput, start, end time.Time) (*priced, error) {
	repo := s.repo.WithTx(tx)
	if input.ProductTemplateID == uuid.Nil {
		return nil, pkgerrors.Validation("product_template_id is required", nil)
	}
	product, err := repo.FindProduct(ctx, input.ProductTemplateID)
	if err != nil {
		return nil, db.Classify(err, db.OpWrite, entityProduct)
	}
	if !product.IsActive {
		return nil, pkgerrors.NotFound(entityProduct)
	}

	if input.ColorID != nil {
		color, err := repo.FindColor(ctx, *input.ColorID)
		if err != nil && !db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load color")
		}
		if color == nil || color.ProductTemplateID != product.ID || !color.IsActive {
			return nil, pkgerrors.Validation("color is not offered for this product", map[string]any{"color_id": *input.ColorID})
		}
	}

	links, err := repo.Links(ctx, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load accessory links")
	}
	byAccessory := make(map[uuid.UUID]models.ProductAccessoryLink, len(links))
	for _, l := range links {
		byAccessory[l.AccessoryID] = l
	}

	selected := map[uuid.UUID]bool{}
	var pricingLines []pricing.AccessoryLine
	var lines []QuoteAccessory
	for i, sel := range input.Accessories {
		link, ok := byAccessory[sel.AccessoryID]
		if !ok || link.Accessory == nil || !link.Accessory.IsActive {
			return nil, pkgerrors.Validation("accessory is not offered for this product", map[string]any{"index": i, "accessory_id": sel.AccessoryID})
		}
		if sel.Quantity < 1 {
			return nil, pkgerrors.Validation("accessory quantity must be at least 1", map[string]any{"index": i})
		}
		if sel.AccessoryColorID != nil && !hasColor(link.Accessory, *sel.AccessoryColorID) {
			return nil, pkgerrors.Validation("accessory color does not belong to the accessory", map[string]any{"index": i})
		}
		selected[sel.AccessoryID] = true
		pricingLines = append(pricingLines, pricing.AccessoryLine{
			AccessoryID:    sel.AccessoryID,
			Quantity:       sel.Quantity,
			UnitPriceCents: link.Accessory.PriceCents,
		})
		lines = append(lines, QuoteAccessory{
			AccessoryID:      sel.AccessoryID,
			AccessoryColorID: sel.AccessoryColorID,
			Name:             link.Accessory.Name,
			Quantity:         sel.Quantity,
			UnitPriceCents:   link.Accessory.PriceCents,
			LineTotalCents:   link.Accessory.PriceCents * int64(sel.Quantity),
		})
	}

	var missing []uuid.UUID
	for _, l := range links {
		if l.IsRequired && !selected[l.AccessoryID] {
			missing = append(missing, l.AccessoryID)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.Validation("required accessories are missing", map[string]any{"accessory_ids": missing})
	}

	mods, err := s.pricing.ResolveModifiers(ctx, tx, input.ModifierCodes)
	if err != nil {
		return nil, err
	}
	breakdown, err := pricing.Calculate(pricing.Input{
		StartDate:        start,
		EndDate:          end,
		BasePriceCents:   product.BasePriceCents,
		RentalPeriodDays: product.RentalPeriodDays,
		DepositCents:     product.DepositCents,
		Accessories:      pricingLines,
		Modifiers:        mods,
	})
	if err != nil {
		return nil, pkgerrors.Validation(err.Error(), nil)
	}
	if lines == nil {
		lines = []QuoteAccessory{}
	}
	return &priced{product: product, breakdown: breakdown, lines: lines}, nil
}

func hasColor(acc *models.Accessory, colorID uuid.UUID) bool {
	for _, c := range acc.Colors {
		if c.ID == colorID {
			return true
		}
	}
	return false
}

// CreateEnhanced validates the selection, prices it and assigns the best free unit, all in
// one transaction.
func (s *service) CreateEnhanced(ctx context.Context, actor auth.Actor, input EnhancedInput) (*models.Rental, error) {
	start, end, err := s.checkDates(actor, input.StartDate, input.EndDate)
	if err != nil {
		return nil, err
	}

	var rental models.Rental
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		p, err := s.price(ctx, tx, input, start, end)
		if err != nil {
			return err
		}
		item, err := assignUnit(ctx, s.avail.WithTx(tx), availability.Query{
			ProductTemplateID: p.product.ID,
			ColorID:           input.ColorID,
			StartDate:         start,
			EndDate:           end,
		})
		if err != nil {
			return err
		}

		rental = newRentalFromBreakdown(p.breakdown)
		rental.UserID = bookingUser(actor, input.UserID)
		rental.InventoryItemID = &item.ID
		rental.ProductTemplateID = p.product.ID
		rental.ColorID = input.ColorID
		if rental.ColorID == nil {
			rental.ColorID = item.ColorID
		}
		rental.StartDate = start
		rental.EndDate = end
		rental.Notes = input.Notes
		for _, line := range p.lines {
			rental.Accessories = append(rental.Accessories, models.RentalAccessory{
				AccessoryID:      line.AccessoryID,
				AccessoryColorID: line.AccessoryColorID,
				Quantity:         line.Quantity,
				UnitPriceCents:   line.UnitPriceCents,
			})
		}
		if err := s.repo.WithTx(tx).Create(ctx, &rental); err != nil {
			return db.Classify(err, db.OpWrite, entityRental)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"rental_id":         rental.ID.String(),
		"inventory_item_id": rental.InventoryItemID.String(),
	}), "rental.created")
	return &rental, nil
}

const maxAssignAttempts = 5

// unitPicker is the slice of availability used to assign a unit inside a transaction.
type unitPicker interface {
	PickFree(ctx context.Context, q availability.Query) (*models.InventoryItem, error)
	ItemBooked(ctx context.Context, itemID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (bool, error)
}

// assignUnit locks a free unit, then re-checks its bookings in a new statement. On Postgres
// the locking read keeps the snapshot from before the lock wait, so a rental committed by a
// concurrent booking only shows up in the re-check; such units are skipped.
func assignUnit(ctx context.Context, picker unitPicker, q availability.Query) (*models.InventoryItem, error) {
	for attempt := 0; attempt < maxAssignAttempts; attempt++ {
		item, err := picker.PickFree(ctx, q)
		if err != nil {
			if db.IsNotFound(err) {
				break
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assign inventory")
		}
		booked, err := picker.ItemBooked(ctx, item.ID, q.StartDate, q.EndDate, nil)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check overlapping rentals")
		}
		if !booked {
			return item, nil
		}
		q.ExcludeItemIDs = append(q.ExcludeItemIDs, item.ID)
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "No units available for these dates")
}

// Quote prices an enhanced booking without reserving anything.
func (s *service) Quote(ctx context.Context, input EnhancedInput) (*Quote, error) {
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return nil, pkgerrors.Validation("start_date and end_date are required", nil)
	}
	start, end := types.TruncateDate(input.StartDate), types.TruncateDate(input.EndDate)
	if end.Before(start) {
		return nil, pkgerrors.Validation("end_date must not be before start_date", nil)
	}
	p, err := s.price(ctx, nil, input, start, end)
	if err != nil {
		return nil, err
	}
	free, err := s.avail.CountFree(ctx, availability.Query{
		ProductTemplateID: p.product.ID,
		ColorID:           input.ColorID,
		StartDate:         start,
		EndDate:           end,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count free units")
	}
	return &Quote{
		Breakdown:         p.breakdown,
		ProductTemplateID: p.product.ID,
		ColorID:           input.ColorID,
		StartDate:         start.Format(types.DateLayout),
		EndDate:           end.Format(types.DateLayout),
		Lines:             p.lines,
		AvailableUnits:    free,
	}, nil
}

// Cancel cancels a pending or confirmed rental on behalf of its owner or staff.
func (s *service) Cancel(ctx context.Context, actor auth.Actor, id uuid.UUID, reason *string) (*models.Rental, error) {
	var out *models.Rental
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rental, err := repo.LockByID(ctx, id)
		if err != nil {
			return db.Classify(err, db.OpWrite, entityRental)
		}
		if !actor.CanAccess(rental.UserID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "rental belongs to another user")
		}
		if !rental.Status.IsCancellable() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot cancel a %s rental", rental.Status)).
				WithDetails(map[string]any{"status": rental.Status})
		}
		now := s.now().UTC()
		if err := repo.Update(ctx, id, map[string]any{
			"status":        enums.RentalStatusCancelled,
			"cancelled_at":  now,
			"cancel_reason": reason,
			"updated_at":    now,
		}); err != nil {
			return db.Classify(err, db.OpWrite, entityRental)
		}
		out, err = repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus applies a staff-driven lifecycle transition and keeps the unit's status in step.
func (s *service) UpdateStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, next enums.RentalStatus) (*models.Rental, error) {
	if !actor.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "staff role required")
	}
	if !next.IsValid() {
		return nil, pkgerrors.Validation("invalid status", map[string]any{"status": next})
	}

	var out *models.Rental
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		out, err = s.transition(ctx, tx, id, next, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// transition moves one locked rental to next inside tx.
func (s *service) transition(ctx context.Context, tx *gorm.DB, id uuid.UUID, next enums.RentalStatus, reason *string) (*models.Rental, error) {
	repo := s.repo.WithTx(tx)
	rental, err := repo.LockByID(ctx, id)
	if err != nil {
		return nil, db.Classify(err, db.OpWrite, entityRental)
	}
	if !rental.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move rental from %s to %s", rental.Status, next)).
			WithDetails(map[string]any{"from": rental.Status, "to": next})
	}

	now := s.now().UTC()
	fields := map[string]any{"status": next, "updated_at": now}

	switch next {
	case enums.RentalStatusActive:
		if rental.InventoryItemID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "rental has no inventory item assigned")
		}
		item, err := repo.LockItem(ctx, *rental.InventoryItemID)
		if err != nil {
			return nil, db.Classify(err, db.OpWrite, entityItem)
		}
		if item.Status != enums.InventoryStatusAvailable {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "Equipment is not available for pickup").
				WithDetails(map[string]any{"status": item.Status})
		}
		if err := repo.SetItemStatus(ctx, item.ID, enums.InventoryStatusRented, now); err != nil {
			return nil, db.Classify(err, db.OpWrite, entityItem)
		}
		fields["picked_up_at"] = now
	case enums.RentalStatusCompleted:
		if rental.InventoryItemID != nil {
			if err := repo.SetItemStatus(ctx, *rental.InventoryItemID, enums.InventoryStatusAvailable, now); err != nil {
				return nil, db.Classify(err, db.OpWrite, entityItem)
			}
		}
		fields["returned_at"] = now
	case enums.RentalStatusCancelled:
		fields["cancelled_at"] = now
		fields["cancel_reason"] = reason
	}

	if err := repo.Update(ctx, id, fields); err != nil {
		return nil, db.Classify(err, db.OpWrite, entityRental)
	}
	return repo.FindByID(ctx, id)
}

// sweep transitions every matching rental in its own transaction and aggregates failures.
func (s *service) sweep(ctx context.Context, ids []uuid.UUID, next enums.RentalStatus, reason *string) (SweepResult, error) {
	res := SweepResult{Matched: len(ids)}
	var errs error
	for _, id := range ids {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			_, err := s.transition(ctx, tx, id, next, reason)
			return err
		})
		if err != nil {
			// lost a race with a concurrent transition
			if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("rental %s: %w", id, err))
			continue
		}
		res.Updated++
	}
	return res, errs
}

// MarkOverdue flags active rentals whose end date has passed.
func (s *service) MarkOverdue(ctx context.Context) (SweepResult, error) {
	ids, err := s.repo.IDsByStatusBefore(ctx, enums.RentalStatusActive, "end_date", s.today())
	if err != nil {
		return SweepResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list overdue rentals")
	}
	return s.sweep(ctx, ids, enums.RentalStatusOverdue, nil)
}

// ExpirePending cancels pending rentals whose start date has passed.
func (s *service) ExpirePending(ctx context.Context) (SweepResult, error) {
	ids, err := s.repo.IDsByStatusBefore(ctx, enums.RentalStatusPending, "start_date", s.today())
	if err != nil {
		return SweepResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list expired rentals")
	}
	reason := ExpiredReason
	return s.sweep(ctx, ids, enums.RentalStatusCancelled, &reason)
}
