// internal/repository/gorm_store.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/shop-catalog/internal/database"
	"github.com/javajoker/shop-catalog/internal/models"
	"github.com/javajoker/shop-catalog/internal/utils"
)

var productSortFields = []string{"created_at", "updated_at", "name", "base_price", "average_rating"}

// GormStore is the relational Store backed by GORM.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) HandleTrx(ctx context.Context, fn func(store Store) error) error {
	return database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) Products() ProductRepository       { return &gormProductRepository{db: s.db} }
func (s *GormStore) Variants() VariantRepository       { return &gormVariantRepository{db: s.db} }
func (s *GormStore) Images() ImageRepository           { return &gormImageRepository{db: s.db} }
func (s *GormStore) Ratings() RatingRepository         { return &gormRatingRepository{db: s.db} }
func (s *GormStore) Sizes() SizeRepository             { return &gormSizeRepository{db: s.db} }
func (s *GormStore) Colors() ColorRepository           { return &gormColorRepository{db: s.db} }
func (s *GormStore) Categories() CategoryRepository    { return &gormExistsRepository{db: s.db, model: &models.Category{}} }
func (s *GormStore) Collections() CollectionRepository { return &gormExistsRepository{db: s.db, model: &models.Collection{}} }
func (s *GormStore) Users() UserRepository             { return &gormExistsRepository{db: s.db, model: &models.User{}} }

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

type gormProductRepository struct {
	db *gorm.DB
}

func (r *gormProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", translate(err))
	}
	return nil
}

func (r *gormProductRepository) FindByID(ctx context.Context, id uuid.UUID, withAssociations bool) (*models.Product, error) {
	query := r.db.WithContext(ctx)
	if withAssociations {
		query = preloadProduct(query)
	}

	var product models.Product
	if err := query.First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *gormProductRepository) List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})

	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.CollectionID != nil {
		query = query.Where("collection_id = ?", *filter.CollectionID)
	}
	if filter.Search != "" {
		searchTerm := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query = utils.ApplySort(query, filter.PaginationParams, productSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var products []models.Product
	if err := preloadProduct(query).Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}
	return products, total, nil
}

func (r *gormProductRepository) Update(ctx context.Context, product *models.Product) error {
	err := r.db.WithContext(ctx).Model(product).
		Omit(clause.Associations).
		Select("name", "base_price", "description", "details", "size_fit", "material_care",
			"shipping_return", "category_id", "collection_id").
		Updates(product).Error
	if err != nil {
		return fmt.Errorf("failed to update product: %w", translate(err))
	}
	return nil
}

func (r *gormProductRepository) UpdateAggregate(ctx context.Context, id uuid.UUID, averageRating int, totalReviews int64) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"average_rating": averageRating,
			"total_reviews":  totalReviews,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update rating aggregate: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *gormProductRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := []interface{}{&models.Image{}, &models.ProductColor{}, &models.ProductSize{}, &models.Rating{}, &models.Cart{}}
		for _, model := range owned {
			if err := tx.Where("product_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}

		result := tx.Delete(&models.Product{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete product: %w", err)
	}
	return affected, nil
}

func preloadProduct(query *gorm.DB) *gorm.DB {
	byCreation := func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }
	return query.
		Preload("Images", byCreation).
		Preload("ProductColors", byCreation).
		Preload("ProductColors.Color").
		Preload("ProductSizes", byCreation).
		Preload("Category").
		Preload("Collection")
}

type gormVariantRepository struct {
	db *gorm.DB
}

func (r *gormVariantRepository) ListColors(ctx context.Context, productID uuid.UUID) ([]models.ProductColor, error) {
	var colors []models.ProductColor
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("created_at ASC").Find(&colors).Error; err != nil {
		return nil, fmt.Errorf("failed to load product colors: %w", err)
	}
	return colors, nil
}

func (r *gormVariantRepository) CreateColors(ctx context.Context, colors []models.ProductColor) error {
	if len(colors) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&colors).Error; err != nil {
		return fmt.Errorf("failed to create product colors: %w", translate(err))
	}
	return nil
}

func (r *gormVariantRepository) UpdateColorName(ctx context.Context, id uuid.UUID, name string) error {
	err := r.db.WithContext(ctx).Model(&models.ProductColor{}).Where("id = ?", id).Update("name", name).Error
	if err != nil {
		return fmt.Errorf("failed to update product color: %w", err)
	}
	return nil
}

func (r *gormVariantRepository) DeleteColorsNotIn(ctx context.Context, productID uuid.UUID, keep []uuid.UUID) (int64, error) {
	query := r.db.WithContext(ctx).Where("product_id = ?", productID)
	if len(keep) > 0 {
		query = query.Where("color_id NOT IN ?", keep)
	}

	result := query.Delete(&models.ProductColor{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete product colors: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *gormVariantRepository) ListSizes(ctx context.Context, productID uuid.UUID) ([]models.ProductSize, error) {
	var sizes []models.ProductSize
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("created_at ASC").Find(&sizes).Error; err != nil {
		return nil, fmt.Errorf("failed to load product sizes: %w", err)
	}
	return sizes, nil
}

func (r *gormVariantRepository) CreateSizes(ctx context.Context, sizes []models.ProductSize) error {
	if len(sizes) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&sizes).Error; err != nil {
		return fmt.Errorf("failed to create product sizes: %w", translate(err))
	}
	return nil
}

func (r *gormVariantRepository) UpdateSizeStock(ctx context.Context, id uuid.UUID, name string, originalPrice float64, originalQty int) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.ProductSize{}).
		Where("id = ? AND purchase_qty <= ?", id, originalQty).
		Updates(map[string]interface{}{
			"name":           name,
			"original_price": originalPrice,
			"original_qty":   originalQty,
			"remaining_qty":  gorm.Expr("? - purchase_qty", originalQty),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update product size: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *gormVariantRepository) DeleteSizesNotIn(ctx context.Context, productID uuid.UUID, keep []uuid.UUID) (int64, error) {
	query := r.db.WithContext(ctx).Where("product_id = ?", productID)
	if len(keep) > 0 {
		query = query.Where("size_id NOT IN ?", keep)
	}

	result := query.Delete(&models.ProductSize{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete product sizes: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *gormVariantRepository) FindSize(ctx context.Context, productID, sizeID uuid.UUID) (*models.ProductSize, error) {
	var size models.ProductSize
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND size_id = ?", productID, sizeID).
		First(&size).Error
	if err != nil {
		return nil, translate(err)
	}
	return &size, nil
}

// ReserveStock relies on Postgres evaluating every SET expression against the
// pre-update row, so remaining_qty is derived from the old purchase_qty. The
// guard compares against the remaining headroom so a huge quantity cannot wrap.
func (r *gormVariantRepository) ReserveStock(ctx context.Context, productID, sizeID uuid.UUID, quantity int) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.ProductSize{}).
		Where("product_id = ? AND size_id = ? AND original_qty - purchase_qty >= ?", productID, sizeID, quantity).
		Updates(map[string]interface{}{
			"purchase_qty":  gorm.Expr("purchase_qty + ?", quantity),
			"remaining_qty": gorm.Expr("original_qty - purchase_qty - ?", quantity),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to reserve stock: %w", result.Error)
	}
	return result.RowsAffected, nil
}

type gormImageRepository struct {
	db *gorm.DB
}

func (r *gormImageRepository) Create(ctx context.Context, images []models.Image) error {
	if len(images) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&images).Error; err != nil {
		return fmt.Errorf("failed to create images: %w", err)
	}
	return nil
}

func (r *gormImageRepository) ReplaceForProduct(ctx context.Context, productID uuid.UUID, urls []string) error {
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&models.Image{}).Error; err != nil {
		return fmt.Errorf("failed to delete images: %w", err)
	}

	images := make([]models.Image, 0, len(urls))
	for _, url := range urls {
		images = append(images, models.Image{ProductID: productID, ImageURL: url})
	}
	return r.Create(ctx, images)
}

type gormRatingRepository struct {
	db *gorm.DB
}

func (r *gormRatingRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Rating, error) {
	var rating models.Rating
	if err := r.db.WithContext(ctx).First(&rating, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &rating, nil
}

func (r *gormRatingRepository) FindByProductAndUser(ctx context.Context, productID, userID uuid.UUID) (*models.Rating, error) {
	var rating models.Rating
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND user_id = ?", productID, userID).
		First(&rating).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rating, nil
}

func (r *gormRatingRepository) Create(ctx context.Context, rating *models.Rating) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(rating).Error; err != nil {
		return fmt.Errorf("failed to create rating: %w", translate(err))
	}
	return nil
}

func (r *gormRatingRepository) Update(ctx context.Context, id uuid.UUID, rating float64, description string) error {
	err := r.db.WithContext(ctx).Model(&models.Rating{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"rating": rating, "description": description}).Error
	if err != nil {
		return fmt.Errorf("failed to update rating: %w", err)
	}
	return nil
}

func (r *gormRatingRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.Rating{}, "id = ?", id)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete rating: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *gormRatingRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Rating, error) {
	var ratings []models.Rating
	err := r.db.WithContext(ctx).
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "username") }).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&ratings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}
	return ratings, nil
}

func (r *gormRatingRepository) ListAll(ctx context.Context, params utils.PaginationParams) ([]models.Rating, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Rating{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count ratings: %w", err)
	}

	var ratings []models.Rating
	query := r.db.WithContext(ctx).
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "username", "email") }).
		Preload("Product", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Order("created_at DESC")
	if err := utils.ApplyPagination(query, params).Find(&ratings).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to load ratings: %w", err)
	}
	return ratings, total, nil
}

type gormSizeRepository struct {
	db *gorm.DB
}

func (r *gormSizeRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Size, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var sizes []models.Size
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&sizes).Error; err != nil {
		return nil, fmt.Errorf("failed to load sizes: %w", err)
	}
	return sizes, nil
}

type gormColorRepository struct {
	db *gorm.DB
}

func (r *gormColorRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Color, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var colors []models.Color
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&colors).Error; err != nil {
		return nil, fmt.Errorf("failed to load colors: %w", err)
	}
	return colors, nil
}

// gormExistsRepository answers existence checks for reference tables.
type gormExistsRepository struct {
	db    *gorm.DB
	model interface{}
}

func (r *gormExistsRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(r.model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return count > 0, nil
}
