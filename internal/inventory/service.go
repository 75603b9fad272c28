package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/db"
	"github.com/rentwise/rentwise-backend/pkg/db/models"
	"github.com/rentwise/rentwise-backend/pkg/enums"
	pkgerrors "github.com/rentwise/rentwise-backend/pkg/errors"
	"github.com/rentwise/rentwise-backend/pkg/types"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const entityItem = "Inventory item"

// MaxBulkItems caps a single bulk create request.
const MaxBulkItems = 500

// Service exposes inventory management.
type Service interface {
	List(ctx context.Context, input ListInput) (*types.ListEnvelope[models.InventoryItem], error)
	Summary(ctx context.Context) ([]SummaryRow, error)
	Get(ctx context.Context, id uuid.UUID) (*ItemDetail, error)
	Create(ctx context.Context, input ItemInput) (*models.InventoryItem, error)
	BulkCreate(ctx context.Context, inputs []ItemInput) (*BulkResult, error)
	Update(ctx context.Context, id uuid.UUID, patch ItemPatch) (*models.InventoryItem, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.InventoryStatus) (*models.InventoryItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
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
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, now: time.Now}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*types.ListEnvelope[models.InventoryItem], error) {
	input.Pagination = input.Pagination.Normalize()
	items, total, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list inventory")
	}
	if items == nil {
		items = []models.InventoryItem{}
	}
	return &types.ListEnvelope[models.InventoryItem]{
		Items:  items,
		Total:  total,
		Limit:  input.Pagination.Limit,
		Offset: input.Pagination.Offset,
	}, nil
}

func (s *service) Summary(ctx context.Context) ([]SummaryRow, error) {
	counts, err := s.repo.Summary(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "summarize inventory")
	}
	rows := []SummaryRow{}
	index := map[uuid.UUID]int{}
	for _, c := range counts {
		i, ok := index[c.ProductTemplateID]
		if !ok {
			i = len(rows)
			index[c.ProductTemplateID] = i
			rows = append(rows, SummaryRow{
				ProductTemplateID: c.ProductTemplateID,
				ProductName:       c.ProductName,
				ByStatus:          map[enums.InventoryStatus]int64{},
			})
		}
		rows[i].ByStatus[c.Status] += c.Count
		rows[i].Total += c.Count
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ItemDetail, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Classify(err, db.OpWrite, entityItem)
	}
	rentals, err := s.repo.UpcomingRentals(ctx, id, types.TruncateDate(s.now()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load item rentals")
	}
	if rentals == nil {
		rentals = []models.Rental{}
	}
	return &ItemDetail{InventoryItem: *item, Rentals: rentals}, nil
}

// checkShape validates the fields of one input that need no database lookups.
func checkShape(in ItemInput) error {
	var errs error
	if strings.TrimSpace(in.SerialNumber) == "" {
		errs = multierr.Append(errs, fmt.Errorf("serial_number is required"))
	}
	hasProduct := in.ProductTemplateID != nil && *in.ProductTemplateID != uuid.Nil
	hasAccessory := in.AccessoryID != nil && *in.AccessoryID != uuid.Nil
	if hasProduct == hasAccessory {
		errs = multierr.Append(errs, fmt.Errorf("exactly one of product_template_id and accessory_id is required"))
	}
	if hasAccessory && in.ColorID != nil {
		errs = multierr.Append(errs, fmt.Errorf("color_id is only valid for product items"))
	}
	if in.Status != "" && !in.Status.IsValid() {
		errs = multierr.Append(errs, fmt.Errorf("invalid status %q", in.Status))
	}
	if in.Status == enums.InventoryStatusRented {
		errs = multierr.Append(errs, fmt.Errorf("new items cannot start as rented"))
	}
	if in.Condition != "" && !in.Condition.IsValid() {
		errs = multierr.Append(errs, fmt.Errorf("invalid condition %q", in.Condition))
	}
	if in.PurchasePriceCents != nil && *in.PurchasePriceCents < 0 {
		errs = multierr.Append(errs, fmt.Errorf("purchase_price_cents must not be negative"))
	}
	return errs
}

// references holds the lookups needed to validate a batch against the database.
type references struct {
	serials     map[string]bool
	products    map[uuid.UUID]bool
	accessories map[uuid.UUID]bool
	colors      map[uuid.UUID]uuid.UUID
}

func (s *service) loadReferences(ctx context.Context, repo *Repository, inputs []ItemInput) (*references, error) {
	var serials []string
	var products, accessories, colors []uuid.UUID
	for _, in := range inputs {
		serials = append(serials, strings.TrimSpace(in.SerialNumber))
		if in.ProductTemplateID != nil {
			products = append(products, *in.ProductTemplateID)
		}
		if in.AccessoryID != nil {
			accessories = append(accessories, *in.AccessoryID)
		}
		if in.ColorID != nil {
			colors = append(colors, *in.ColorID)
		}
	}

	refs := &references{}
	var err error
	if refs.serials, err = repo.ExistingSerials(ctx, serials); err != nil {
		return nil, err
	}
	if refs.products, err = repo.ProductIDs(ctx, products); err != nil {
		return nil, err
	}
	if refs.accessories, err = repo.AccessoryIDs(ctx, accessories); err != nil {
		return nil, err
	}
	if refs.colors, err = repo.ColorOwners(ctx, colors); err != nil {
		return nil, err
	}
	return refs, nil
}

func (refs *references) check(in ItemInput) error {
	var errs error
	if refs.serials[strings.TrimSpace(in.SerialNumber)] {
		errs = multierr.Append(errs, fmt.Errorf("serial_number %q already exists", in.SerialNumber))
	}
	if in.ProductTemplateID != nil && !refs.products[*in.ProductTemplateID] {
		errs = multierr.Append(errs, fmt.Errorf("product_template_id does not exist"))
	}
	if in.AccessoryID != nil && !refs.accessories[*in.AccessoryID] {
		errs = multierr.Append(errs, fmt.Errorf("accessory_id does not exist"))
	}
	if in.ColorID != nil && in.ProductTemplateID != nil {
		owner, ok := refs.colors[*in.ColorID]
		if !ok || owner != *in.ProductTemplateID {
			errs = multierr.Append(errs, fmt.Errorf("color_id does not belong to the product"))
		}
	}
	return errs
}

func toModel(in ItemInput) models.InventoryItem {
	item := models.InventoryItem{
		ProductTemplateID:  in.ProductTemplateID,
		AccessoryID:        in.AccessoryID,
		ColorID:            in.ColorID,
		SerialNumber:       strings.TrimSpace(in.SerialNumber),
		Status:             in.Status,
		Condition:          in.Condition,
		Location:           in.Location,
		Notes:              in.Notes,
		PurchasePriceCents: in.PurchasePriceCents,
	}
	if in.PurchaseDate != nil {
		d := types.TruncateDate(*in.PurchaseDate)
		item.PurchaseDate = &d
	}
	return item
}

func joinErrors(err error) string {
	parts := make([]string, 0)
	for _, e := range multierr.Errors(err) {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

func (s *service) Create(ctx context.Context, input ItemInput) (*models.InventoryItem, error) {
	if err := checkShape(input); err != nil {
		return nil, pkgerrors.Validation(joinErrors(err), nil)
	}
	refs, err := s.loadReferences(ctx, s.repo, []ItemInput{input})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "validate inventory item")
	}
	if err := refs.check(input); err != nil {
		if refs.serials[strings.TrimSpace(input.SerialNumber)] {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "Serial number already exists")
		}
		return nil, pkgerrors.Validation(joinErrors(err), nil)
	}
	item := toModel(input)
	if err := s.repo.Create(ctx, &item); err != nil {
		return nil, db.Classify(err, db.OpWrite, entityItem)
	}
	return &item, nil
}

// BulkCreate validates every entry, creates the valid ones in one transaction and reports
// the rest by index.
func (s *service) BulkCreate(ctx context.Context, inputs []ItemInput) (*BulkResult, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.Validation("items must not be empty", nil)
	}
	if len(inputs) > MaxBulkItems {
		return nil, pkgerrors.Validation(fmt.Sprintf("at most %d items per request", MaxBulkItems), nil)
	}

	result := &BulkResult{Created: []models.InventoryItem{}, Failed: []BulkFailure{}}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		refs, err := s.loadReferences(ctx, repo, inputs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "validate inventory batch")
		}

		seen := map[string]int{}
		var valid []models.InventoryItem
		for i, in := range inputs {
			errs := checkShape(in)
			errs = multierr.Append(errs, refs.check(in))
			serial := strings.TrimSpace(in.SerialNumber)
			if first, dup := seen[serial]; dup && serial != "" {
				errs = multierr.Append(errs, fmt.Errorf("serial_number duplicates item %d", first))
			} else {
				seen[serial] = i
			}
			if errs != nil {
				result.Failed = append(result.Failed, BulkFailure{Index: i, SerialNumber: serial, Error: joinErrors(errs)})
				continue
			}
			valid = append(valid, toModel(in))
		}

		if err := repo.CreateBatch(ctx, valid); err != nil {
			return db.Classify(err, db.OpWrite, entityItem)
		}
		if valid != nil {
			result.Created = valid
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, patch ItemPatch) (*models.InventoryItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Classify(err, db.OpWrite, entityItem)
	}

	if patch.ColorID.Valid {
		if patch.ColorID.Value != nil {
			if item.ProductTemplateID == nil {
				return nil, pkgerrors.Validation("color_id is only valid for product items", nil)
			}
			owners, err := s.repo.ColorOwners(ctx, []uuid.UUID{*patch.ColorID.Value})
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load color")
			}
			if owners[*patch.ColorID.Value] != *item.ProductTemplateID {
				return nil, pkgerrors.Validation("color_id does not belong to the product", nil)
			}
		}
		patch.ColorID.Apply(&item.ColorID)
	}
	if patch.SerialNumber != nil {
		serial := strings.TrimSpace(*patch.SerialNumber)
		if serial == "" {
			return nil, pkgerrors.Validation("serial_number must not be empty", nil)
		}
		item.SerialNumber = serial
	}
	if patch.Condition != nil {
		if !patch.Condition.IsValid() {
			return nil, pkgerrors.Validation("invalid condition", map[string]any{"condition": *patch.Condition})
		}
		item.Condition = *patch.Condition
	}
	if patch.Location != nil {
		item.Location = patch.Location
	}
	if patch.Notes != nil {
		item.Notes = patch.Notes
	}
	if patch.PurchaseDate != nil {
		d := types.TruncateDate(*patch.PurchaseDate)
		item.PurchaseDate = &d
	}
	if patch.PurchasePriceCents != nil {
		if *patch.PurchasePriceCents < 0 {
			return nil, pkgerrors.Validation("purchase_price_cents must not be negative", nil)
		}
		item.PurchasePriceCents = patch.PurchasePriceCents
	}

	if err := s.repo.Save(ctx, item); err != nil {
		return nil, db.Classify(err, db.OpWrite, entityItem)
	}
	return item, nil
}

// UpdateStatus moves an item between physical states. Retired is terminal, rented is owned by
// the rental lifecycle, and an item held by an active rental cannot be released by hand.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.InventoryStatus) (*models.InventoryItem, error) {
	if !status.IsValid() {
		return nil, pkgerrors.Validation("invalid status", map[string]any{"status": status})
	}
	if status == enums.InventoryStatusRented {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "rented is set when a rental becomes active")
	}

	var item *models.InventoryItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := repo.FindByID(ctx, id)
		if err != nil {
			return db.Classify(err, db.OpWrite, entityItem)
		}
		if found.Status == status {
			item = found
			return nil
		}
		if found.Status == enums.InventoryStatusRetired {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "retired items cannot change status").
				WithDetails(map[string]any{"from": found.Status, "to": status})
		}
		held, err := repo.CountRentals(ctx, id, enums.BlockingRentalStatuses)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check open rentals")
		}
		if held > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "Inventory item is held by an open rental")
		}
		if err := repo.UpdateStatus(ctx, id, status); err != nil {
			return db.Classify(err, db.OpWrite, entityItem)
		}
		found.Status = status
		item = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			return db.Classify(err, db.OpDelete, entityItem)
		}
		live, err := repo.CountRentals(ctx, id, enums.BlockingRentalStatuses)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check item rentals")
		}
		if live > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "Inventory item has open rentals")
		}
		if _, err := repo.Delete(ctx, id); err != nil {
			return db.Classify(err, db.OpDelete, entityItem)
		}
		return nil
	})
}
