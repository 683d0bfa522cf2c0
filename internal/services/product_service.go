// internal/services/product_service.go
package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/shop-catalog/internal/events"
	"github.com/javajoker/shop-catalog/internal/models"
	"github.com/javajoker/shop-catalog/internal/repository"
	"github.com/javajoker/shop-catalog/internal/utils"
)

// ImageRemover deletes stored blobs that a product no longer references.
type ImageRemover interface {
	DeleteByURL(ctx context.Context, url string) error
}

type ProductService struct {
	store     repository.Store
	inventory *InventoryService
	images    ImageRemover
	publisher events.Publisher
}

type ProductRequest struct {
	Name           string       `json:"name" form:"name" validate:"required,notblank,max=255"`
	BasePrice      *float64     `json:"base_price" form:"base_price" validate:"required,gte=0"`
	Description    string       `json:"description" form:"description"`
	Details        []string     `json:"details"`
	SizeFit        []string     `json:"size_fit"`
	MaterialCare   []string     `json:"material_care"`
	ShippingReturn []string     `json:"shipping_return"`
	CategoryID     *uuid.UUID   `json:"category_id" validate:"required"`
	CollectionID   *uuid.UUID   `json:"collection_id"`
	Colors         []ColorInput `json:"colors" validate:"dive"`
	Sizes          []SizeInput  `json:"sizes" validate:"dive"`
	// Images are already stored URLs; uploaded files are appended after them.
	Images []string `json:"images"`
}

type ProductListParams struct {
	utils.PaginationParams
	CategoryID   *uuid.UUID
	CollectionID *uuid.UUID
}

func NewProductService(store repository.Store, inventory *InventoryService, images ImageRemover, publisher events.Publisher) *ProductService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ProductService{store: store, inventory: inventory, images: images, publisher: publisher}
}

// validate checks the request and its references. It returns the sizes with
// blank names filled from the reference data.
func (s *ProductService) validate(ctx context.Context, req *ProductRequest) ([]SizeInput, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError("Invalid product", utils.GetValidationErrors(err))
	}

	exists, err := s.store.Categories().Exists(ctx, *req.CategoryID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, validationError("Invalid category id", details{"category_id": req.CategoryID.String()})
	}

	if req.CollectionID != nil {
		exists, err := s.store.Collections().Exists(ctx, *req.CollectionID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, validationError("Invalid collection id", details{"collection_id": req.CollectionID.String()})
		}
	}

	if err := s.inventory.ValidateColors(ctx, s.store, req.Colors); err != nil {
		return nil, err
	}
	return s.inventory.ValidateSizes(ctx, s.store, req.Sizes)
}

func (req *ProductRequest) apply(product *models.Product) {
	product.Name = req.Name
	product.BasePrice = *req.BasePrice
	product.Description = req.Description
	product.Details = pq.StringArray(req.Details)
	product.SizeFit = pq.StringArray(req.SizeFit)
	product.MaterialCare = pq.StringArray(req.MaterialCare)
	product.ShippingReturn = pq.StringArray(req.ShippingReturn)
	product.CategoryID = req.CategoryID
	product.CollectionID = req.CollectionID
}

// Create validates the product and writes it with its images and variants in
// one transaction.
func (s *ProductService) Create(ctx context.Context, req *ProductRequest, uploaded []string) (*models.Product, error) {
	sizes, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	product := &models.Product{}
	req.apply(product)
	imageURLs := append(append([]string{}, req.Images...), uploaded...)

	err = s.store.HandleTrx(ctx, func(tx repository.Store) error {
		if err := tx.Products().Create(ctx, product); err != nil {
			return err
		}
		if err := tx.Images().ReplaceForProduct(ctx, product.ID, imageURLs); err != nil {
			return err
		}
		return s.inventory.CreateVariants(ctx, tx, product.ID, req.Colors, sizes)
	})
	if err != nil {
		return nil, s.duplicateAsConflict(err)
	}

	logrus.WithFields(logrus.Fields{
		"product_id": product.ID,
		"sizes":      len(sizes),
		"colors":     len(req.Colors),
	}).Info("Product created")

	return s.store.Products().FindByID(ctx, product.ID, true)
}

// Update rewrites the product's fields and reconciles its variants. Images
// are replaced wholesale when any are supplied.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req *ProductRequest, uploaded []string) (*models.Product, error) {
	existing, err := s.store.Products().FindByID(ctx, id, true)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("Product not found")
		}
		return nil, err
	}

	sizes, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	req.apply(existing)
	imageURLs := append(append([]string{}, req.Images...), uploaded...)
	replaced := existing.ImageURLs()

	err = s.store.HandleTrx(ctx, func(tx repository.Store) error {
		if err := tx.Products().Update(ctx, existing); err != nil {
			return err
		}
		if len(imageURLs) > 0 {
			if err := tx.Images().ReplaceForProduct(ctx, id, imageURLs); err != nil {
				return err
			}
		}
		if err := s.inventory.ReconcileColors(ctx, tx, id, req.Colors); err != nil {
			return err
		}
		return s.inventory.ReconcileSizes(ctx, tx, id, sizes)
	})
	if err != nil {
		return nil, s.duplicateAsConflict(err)
	}

	if len(imageURLs) > 0 {
		s.removeImages(ctx, unreferenced(replaced, imageURLs))
	}

	logrus.WithField("product_id", id).Info("Product updated")
	return s.store.Products().FindByID(ctx, id, true)
}

func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.store.Products().FindByID(ctx, id, true)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("Product not found")
		}
		return nil, err
	}
	return product, nil
}

func (s *ProductService) List(ctx context.Context, params ProductListParams) (utils.PaginationResult, error) {
	params.PaginationParams = utils.NormalizePagination(params.PaginationParams)
	products, total, err := s.store.Products().List(ctx, repository.ProductFilter{
		PaginationParams: params.PaginationParams,
		CategoryID:       params.CategoryID,
		CollectionID:     params.CollectionID,
	})
	if err != nil {
		return utils.PaginationResult{}, err
	}
	return utils.CreatePaginationResult(products, total, params.PaginationParams), nil
}

// Delete removes the product together with its images, variants and ratings.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.store.Products().FindByID(ctx, id, true)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundError("Product not found")
		}
		return err
	}

	rows, err := s.store.Products().Delete(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFoundError("Product not found")
	}

	s.removeImages(ctx, product.ImageURLs())
	logrus.WithField("product_id", id).Info("Product deleted")
	s.publisher.Publish(ctx, events.ProductDeleted, id.String(), details{"product_id": id, "name": product.Name})
	return nil
}

// RemoveUploads deletes blobs stored for a request that was then rejected.
func (s *ProductService) RemoveUploads(ctx context.Context, urls []string) {
	s.removeImages(ctx, urls)
}

func (s *ProductService) removeImages(ctx context.Context, urls []string) {
	if s.images == nil {
		return
	}
	for _, url := range urls {
		if err := s.images.DeleteByURL(ctx, url); err != nil {
			logrus.WithError(err).WithField("url", url).Warn("Failed to delete product image")
		}
	}
}

func (s *ProductService) duplicateAsConflict(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return conflictError("Product variants conflict with existing rows", nil)
	}
	return err
}

// unreferenced returns the urls of old that are absent from current.
func unreferenced(old, current []string) []string {
	keep := make(map[string]bool, len(current))
	for _, url := range current {
		keep[url] = true
	}
	var out []string
	for _, url := range old {
		if !keep[url] {
			out = append(out, url)
		}
	}
	return out
}
