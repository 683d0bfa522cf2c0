// internal/services/catalog_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/shop-catalog/internal/models"
	"github.com/javajoker/shop-catalog/internal/utils"
)

// CatalogService manages the reference data products point at: categories,
// collections, sizes and colors.
type CatalogService struct {
	db     *gorm.DB
	images ImageRemover
}

type CategoryRequest struct {
	Name string `json:"name" form:"name" validate:"required,notblank,max=100"`
}

type CollectionRequest struct {
	Name       string     `json:"name" form:"name" validate:"required,notblank,max=100"`
	CategoryID *uuid.UUID `json:"category_id" form:"category_id"`
	// Images are already stored URLs; uploaded files are appended after them.
	Images []string `json:"images" form:"images"`
}

type SizeRequest struct {
	Name string `json:"name" validate:"required,notblank,max=50"`
}

type ColorRequest struct {
	Name    string `json:"name" validate:"required,notblank,max=50"`
	HexCode string `json:"hex_code" validate:"required,hexcolor,len=7"`
}

func NewCatalogService(db *gorm.DB, images ImageRemover) *CatalogService {
	return &CatalogService{db: db, images: images}
}

// Categories

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).Preload("Collections").First(&category, "id = ?", id).Error; err != nil {
		return nil, lookupError(err, "Category not found")
	}
	return &category, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, req *CategoryRequest) (*models.Category, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError("Invalid category", utils.GetValidationErrors(err))
	}

	category := &models.Category{Name: strings.TrimSpace(req.Name)}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, nameError(err, "category", category.Name)
	}
	logrus.WithField("category_id", category.ID).Info("Category created")
	return category, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, req *CategoryRequest) (*models.Category, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError("Invalid category", utils.GetValidationErrors(err))
	}

	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, lookupError(err, "Category not found")
	}
	category.Name = strings.TrimSpace(req.Name)
	if err := s.db.WithContext(ctx).Save(&category).Error; err != nil {
		return nil, nameError(err, "category", category.Name)
	}
	return &category, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, &models.Category{}, id, "Category not found")
}

// Collections

func (s *CatalogService) ListCollections(ctx context.Context, categoryID *uuid.UUID) ([]models.Collection, error) {
	query := s.db.WithContext(ctx).Preload("Category").Order("name ASC")
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}

	var collections []models.Collection
	if err := query.Find(&collections).Error; err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return collections, nil
}

func (s *CatalogService) GetCollection(ctx context.Context, id uuid.UUID) (*models.Collection, error) {
	var collection models.Collection
	if err := s.db.WithContext(ctx).Preload("Category").First(&collection, "id = ?", id).Error; err != nil {
		return nil, lookupError(err, "Collection not found")
	}
	return &collection, nil
}

func (s *CatalogService) CreateCollection(ctx context.Context, req *CollectionRequest, uploaded []string) (*models.Collection, error) {
	if err := s.validateCollection(ctx, req); err != nil {
		return nil, err
	}

	collection := &models.Collection{
		Name:       strings.TrimSpace(req.Name),
		CategoryID: req.CategoryID,
		Images:     pq.StringArray(append(append([]string{}, req.Images...), uploaded...)),
	}
	if err := s.db.WithContext(ctx).Create(collection).Error; err != nil {
		return nil, nameError(err, "collection", collection.Name)
	}
	logrus.WithField("collection_id", collection.ID).Info("Collection created")
	return collection, nil
}

// UpdateCollection replaces the collection's images only when new ones are
// supplied.
func (s *CatalogService) UpdateCollection(ctx context.Context, id uuid.UUID, req *CollectionRequest, uploaded []string) (*models.Collection, error) {
	var collection models.Collection
	if err := s.db.WithContext(ctx).First(&collection, "id = ?", id).Error; err != nil {
		return nil, lookupError(err, "Collection not found")
	}
	if err := s.validateCollection(ctx, req); err != nil {
		return nil, err
	}

	images := append(append([]string{}, req.Images...), uploaded...)
	replaced := []string(collection.Images)

	collection.Name = strings.TrimSpace(req.Name)
	collection.CategoryID = req.CategoryID
	if len(images) > 0 {
		collection.Images = pq.StringArray(images)
	}
	if err := s.db.WithContext(ctx).Omit("Category").Save(&collection).Error; err != nil {
		return nil, nameError(err, "collection", collection.Name)
	}

	if len(images) > 0 {
		s.removeImages(ctx, unreferenced(replaced, images))
	}
	return &collection, nil
}

func (s *CatalogService) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	var collection models.Collection
	if err := s.db.WithContext(ctx).First(&collection, "id = ?", id).Error; err != nil {
		return lookupError(err, "Collection not found")
	}
	if err := s.deleteByID(ctx, &models.Collection{}, id, "Collection not found"); err != nil {
		return err
	}
	s.removeImages(ctx, collection.Images)
	return nil
}

func (s *CatalogService) validateCollection(ctx context.Context, req *CollectionRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return validationError("Invalid collection", utils.GetValidationErrors(err))
	}
	if req.CategoryID == nil {
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", *req.CategoryID).Count(&count).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if count == 0 {
		return validationError("Invalid category id", details{"category_id": req.CategoryID.String()})
	}
	return nil
}

// RemoveUploads deletes blobs stored for a request that was then rejected.
func (s *CatalogService) RemoveUploads(ctx context.Context, urls []string) {
	s.removeImages(ctx, urls)
}

func (s *CatalogService) removeImages(ctx context.Context, urls []string) {
	if s.images == nil {
		return
	}
	for _, url := range urls {
		if err := s.images.DeleteByURL(ctx, url); err != nil {
			logrus.WithError(err).WithField("url", url).Warn("Failed to delete collection image")
		}
	}
}

// Sizes

func (s *CatalogService) ListSizes(ctx context.Context) ([]models.Size, error) {
	var sizes []models.Size
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&sizes).Error; err != nil {
		return nil, fmt.Errorf("failed to list sizes: %w", err)
	}
	return sizes, nil
}

func (s *CatalogService) GetSize(ctx context.Context, id uuid.UUID) (*models.Size, error) {
	var size models.Size
	if err := s.db.WithContext(ctx).First(&size, "id = ?", id).Error; err != nil {
		return nil, lookupError(err, "Size not found")
	}
	return &size, nil
}

func (s *CatalogService) CreateSize(ctx context.Context, req *SizeRequest) (*models.Size, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError("Invalid size", utils.GetValidationErrors(err))
	}

	size := &models.Size{Name: strings.TrimSpace(req.Name)}
	if err := s.db.WithContext(ctx).Create(size).Error; err != nil {
		return nil, nameError(err, "size", size.Name)
	}
	return size, nil
}

func (s *CatalogService) UpdateSize(ctx context.Context, id uuid.UUID, req *SizeRequest) (*models.Size, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError("Invalid size", utils.GetValidationErrors(err))
	}

	size, err := s.GetSize(ctx, id)
	if err != nil {
		return nil, err
	}
	size.Name = strings.TrimSpace(req.Name)
	if err := s.db.WithContext(ctx).Save(size).Error; err != nil {
		return nil, nameError(err, "size", size.Name)
	}
	return size, nil
}

// DeleteSize fails with a conflict while product variants still use the size.
func (s *CatalogService) DeleteSize(ctx context.Context, id uuid.UUID) error {
	if err := s.ensureUnused(ctx, &models.ProductSize{}, "size_id", id, "Size is still used by products"); err != nil {
		return err
	}
	return s.deleteByID(ctx, &models.Size{}, id, "Size not found")
}

// Colors

func (s *CatalogService) ListColors(ctx context.Context) ([]models.Color, error) {
	var colors []models.Color
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&colors).Error; err != nil {
		return nil, fmt.Errorf("failed to list colors: %w", err)
	}
	return colors, nil
}

func (s *CatalogService) GetColor(ctx context.Context, id uuid.UUID) (*models.Color, error) {
	var color models.Color
	if err := s.db.WithContext(ctx).First(&color, "id = ?", id).Error; err != nil {
		return nil, lookupError(err, "Color not found")
	}
	return &color, nil
}

func (s *CatalogService) CreateColor(ctx context.Context, req *ColorRequest) (*models.Color, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError("Invalid color", utils.GetValidationErrors(err))
	}

	color := &models.Color{Name: strings.TrimSpace(req.Name), HexCode: strings.ToUpper(req.HexCode)}
	if err := s.db.WithContext(ctx).Create(color).Error; err != nil {
		return nil, nameError(err, "color", color.Name)
	}
	return color, nil
}

func (s *CatalogService) UpdateColor(ctx context.Context, id uuid.UUID, req *ColorRequest) (*models.Color, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError("Invalid color", utils.GetValidationErrors(err))
	}

	color, err := s.GetColor(ctx, id)
	if err != nil {
		return nil, err
	}
	color.Name = strings.TrimSpace(req.Name)
	color.HexCode = strings.ToUpper(req.HexCode)
	if err := s.db.WithContext(ctx).Save(color).Error; err != nil {
		return nil, nameError(err, "color", color.Name)
	}
	return color, nil
}

func (s *CatalogService) DeleteColor(ctx context.Context, id uuid.UUID) error {
	if err := s.ensureUnused(ctx, &models.ProductColor{}, "color_id", id, "Color is still used by products"); err != nil {
		return err
	}
	return s.deleteByID(ctx, &models.Color{}, id, "Color not found")
}

func (s *CatalogService) ensureUnused(ctx context.Context, model interface{}, column string, id uuid.UUID, message string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(model).Where(column+" = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if count > 0 {
		return conflictError(message, details{"products": count})
	}
	return nil
}

func (s *CatalogService) deleteByID(ctx context.Context, model interface{}, id uuid.UUID, notFound string) error {
	result := s.db.WithContext(ctx).Delete(model, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFoundError(notFound)
	}
	return nil
}

func lookupError(err error, notFound string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundError(notFound)
	}
	return fmt.Errorf("database error: %w", err)
}

func nameError(err error, entity, name string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return conflictError(fmt.Sprintf("A %s named %s already exists", entity, name), details{"name": name})
	}
	return fmt.Errorf("failed to save %s: %w", entity, err)
}
