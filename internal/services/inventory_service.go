// internal/services/inventory_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/shop-catalog/internal/events"
	"github.com/javajoker/shop-catalog/internal/models"
	"github.com/javajoker/shop-catalog/internal/repository"
	"github.com/javajoker/shop-catalog/internal/utils"
)

// InventoryService keeps a product's color and size variants in step with the
// submitted lists and applies stock decrements.
type InventoryService struct {
	store     repository.Store
	publisher events.Publisher
}

type ColorInput struct {
	ColorID uuid.UUID `json:"color_id" validate:"required"`
	Name    string    `json:"name" validate:"required,notblank,max=100"`
}

type SizeInput struct {
	SizeID        uuid.UUID `json:"size_id" validate:"required"`
	Name          string    `json:"name" validate:"max=100"`
	OriginalPrice float64   `json:"original_price" validate:"gte=0"`
	// OriginalQty is a pointer so a missing quantity can be told apart from zero.
	OriginalQty *Quantity `json:"original_qty"`
}

type OrderRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	SizeID    uuid.UUID `json:"size_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gte=1,lte=100000"`
	UserID    uuid.UUID `json:"-"`
}

type InsufficientStock struct {
	Size      string `json:"size"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

func NewInventoryService(store repository.Store, publisher events.Publisher) *InventoryService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &InventoryService{store: store, publisher: publisher}
}

// ValidateSizes checks that every size id references a Size row and that each
// size carries a non-negative quantity. Blank names fall back to the
// reference size name. The whole list is rejected on the first failing rule.
func (s *InventoryService) ValidateSizes(ctx context.Context, store repository.Store, sizes []SizeInput) ([]SizeInput, error) {
	if len(sizes) == 0 {
		return sizes, nil
	}

	ids := make([]uuid.UUID, 0, len(sizes))
	seen := make(map[uuid.UUID]bool, len(sizes))
	var duplicates []string
	for _, size := range sizes {
		if seen[size.SizeID] {
			duplicates = append(duplicates, size.SizeID.String())
			continue
		}
		seen[size.SizeID] = true
		ids = append(ids, size.SizeID)
	}
	if len(duplicates) > 0 {
		return nil, validationError("Duplicate size ids", details{"duplicate_size_ids": duplicates})
	}

	refs, err := store.Sizes().FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Size, len(refs))
	for _, ref := range refs {
		byID[ref.ID] = ref
	}

	var invalid []string
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			invalid = append(invalid, id.String())
		}
	}
	if len(invalid) > 0 {
		return nil, validationError("Invalid size ids", details{"invalid_size_ids": invalid})
	}

	normalized := make([]SizeInput, len(sizes))
	for i, size := range sizes {
		if size.Name == "" {
			size.Name = byID[size.SizeID].Name
		}
		if n, ok := size.OriginalQty.Int(); !ok || n < 0 {
			return nil, validationError(fmt.Sprintf("Invalid original quantity for size %s", size.Name),
				details{"size_id": size.SizeID.String(), "name": size.Name, "original_qty": size.OriginalQty.String()})
		}
		normalized[i] = size
	}
	return normalized, nil
}

// ValidateColors rejects duplicate and unknown color ids.
func (s *InventoryService) ValidateColors(ctx context.Context, store repository.Store, colors []ColorInput) error {
	if len(colors) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(colors))
	seen := make(map[uuid.UUID]bool, len(colors))
	var duplicates []string
	for _, color := range colors {
		if seen[color.ColorID] {
			duplicates = append(duplicates, color.ColorID.String())
			continue
		}
		seen[color.ColorID] = true
		ids = append(ids, color.ColorID)
	}
	if len(duplicates) > 0 {
		return validationError("Duplicate color ids", details{"duplicate_color_ids": duplicates})
	}

	refs, err := store.Colors().FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	found := make(map[uuid.UUID]bool, len(refs))
	for _, ref := range refs {
		found[ref.ID] = true
	}

	var invalid []string
	for _, id := range ids {
		if !found[id] {
			invalid = append(invalid, id.String())
		}
	}
	if len(invalid) > 0 {
		return validationError("Invalid color ids", details{"invalid_color_ids": invalid})
	}
	return nil
}

// CreateVariants inserts the variant rows of a new product. Sizes start with
// nothing purchased.
func (s *InventoryService) CreateVariants(ctx context.Context, store repository.Store, productID uuid.UUID, colors []ColorInput, sizes []SizeInput) error {
	if err := store.Variants().CreateColors(ctx, newProductColors(productID, colors)); err != nil {
		return err
	}
	return store.Variants().CreateSizes(ctx, newProductSizes(productID, sizes))
}

// ReconcileColors turns the submitted color list into deletes, renames and
// inserts. An empty list leaves the product's colors untouched.
func (s *InventoryService) ReconcileColors(ctx context.Context, store repository.Store, productID uuid.UUID, colors []ColorInput) error {
	if len(colors) == 0 {
		return nil
	}

	existing, err := store.Variants().ListColors(ctx, productID)
	if err != nil {
		return err
	}
	byColor := make(map[uuid.UUID]models.ProductColor, len(existing))
	for _, row := range existing {
		byColor[row.ColorID] = row
	}

	keep := make([]uuid.UUID, 0, len(colors))
	var added []ColorInput
	for _, color := range colors {
		keep = append(keep, color.ColorID)
		row, ok := byColor[color.ColorID]
		if !ok {
			added = append(added, color)
			continue
		}
		if row.Name != color.Name {
			if err := store.Variants().UpdateColorName(ctx, row.ID, color.Name); err != nil {
				return err
			}
		}
	}

	if _, err := store.Variants().DeleteColorsNotIn(ctx, productID, keep); err != nil {
		return err
	}
	return store.Variants().CreateColors(ctx, newProductColors(productID, added))
}

// ReconcileSizes turns the submitted size list into deletes, stock updates and
// inserts. Kept rows retain their id and purchase count; their remaining
// quantity becomes the new original quantity minus what was already sold.
// An empty list leaves the product's sizes untouched.
func (s *InventoryService) ReconcileSizes(ctx context.Context, store repository.Store, productID uuid.UUID, sizes []SizeInput) error {
	if len(sizes) == 0 {
		return nil
	}

	existing, err := store.Variants().ListSizes(ctx, productID)
	if err != nil {
		return err
	}
	bySize := make(map[uuid.UUID]models.ProductSize, len(existing))
	for _, row := range existing {
		bySize[row.SizeID] = row
	}

	// Reject before writing anything.
	for _, size := range sizes {
		if row, ok := bySize[size.SizeID]; ok && size.OriginalQty.Value() < row.PurchaseQty {
			return belowPurchasedError(size.Name, row.PurchaseQty, size.OriginalQty.Value())
		}
	}

	keep := make([]uuid.UUID, 0, len(sizes))
	var added []SizeInput
	for _, size := range sizes {
		keep = append(keep, size.SizeID)
		row, ok := bySize[size.SizeID]
		if !ok {
			added = append(added, size)
			continue
		}
		if row.Name == size.Name && row.OriginalPrice == size.OriginalPrice && row.OriginalQty == size.OriginalQty.Value() {
			continue
		}

		rows, err := store.Variants().UpdateSizeStock(ctx, row.ID, size.Name, size.OriginalPrice, size.OriginalQty.Value())
		if err != nil {
			return err
		}
		if rows == 0 {
			// Stock was sold between the read and the write.
			return belowPurchasedError(size.Name, row.PurchaseQty, size.OriginalQty.Value())
		}
	}

	if _, err := store.Variants().DeleteSizesNotIn(ctx, productID, keep); err != nil {
		return err
	}
	return store.Variants().CreateSizes(ctx, newProductSizes(productID, added))
}

func belowPurchasedError(name string, purchased, requested int) *Error {
	return conflictError(
		fmt.Sprintf("Original quantity for size %s cannot be below the %d units already purchased", name, purchased),
		details{"name": name, "purchase_qty": purchased, "original_qty": requested},
	)
}

// PlaceOrder takes quantity units from the (product, size) ledger with a single
// conditional update, so concurrent orders can never oversell.
func (s *InventoryService) PlaceOrder(ctx context.Context, req *OrderRequest) (*models.ProductSize, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError("Invalid order", utils.GetValidationErrors(err))
	}

	rows, err := s.store.Variants().ReserveStock(ctx, req.ProductID, req.SizeID, req.Quantity)
	if err != nil {
		return nil, err
	}

	ledger, err := s.store.Variants().FindSize(ctx, req.ProductID, req.SizeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("Size not found for this product")
		}
		return nil, err
	}

	if rows == 0 {
		return nil, conflictError(
			fmt.Sprintf("Insufficient stock for size %s: %d available, %d requested", ledger.Name, ledger.RemainingQty, req.Quantity),
			InsufficientStock{Size: ledger.Name, Available: ledger.RemainingQty, Requested: req.Quantity},
		)
	}

	logrus.WithFields(logrus.Fields{
		"product_id": req.ProductID,
		"size_id":    req.SizeID,
		"quantity":   req.Quantity,
		"remaining":  ledger.RemainingQty,
	}).Info("Order placed")

	s.publisher.Publish(ctx, events.OrderPlaced, req.ProductID.String(), details{
		"product_id":    req.ProductID,
		"size_id":       req.SizeID,
		"user_id":       req.UserID,
		"quantity":      req.Quantity,
		"remaining_qty": ledger.RemainingQty,
	})

	return ledger, nil
}

func newProductColors(productID uuid.UUID, colors []ColorInput) []models.ProductColor {
	rows := make([]models.ProductColor, 0, len(colors))
	for _, color := range colors {
		rows = append(rows, models.ProductColor{
			ProductID: productID,
			ColorID:   color.ColorID,
			Name:      color.Name,
		})
	}
	return rows
}

func newProductSizes(productID uuid.UUID, sizes []SizeInput) []models.ProductSize {
	rows := make([]models.ProductSize, 0, len(sizes))
	for _, size := range sizes {
		rows = append(rows, models.ProductSize{
			ProductID:     productID,
			SizeID:        size.SizeID,
			Name:          size.Name,
			OriginalPrice: size.OriginalPrice,
			OriginalQty:   size.OriginalQty.Value(),
			PurchaseQty:   0,
			RemainingQty:  size.OriginalQty.Value(),
		})
	}
	return rows
}
