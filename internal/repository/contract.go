// internal/repository/contract.go
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/javajoker/shop-catalog/internal/models"
	"github.com/javajoker/shop-catalog/internal/utils"
)

var (
	// ErrNotFound is returned by lookups that match no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a unique key.
	ErrDuplicate = errors.New("duplicate record")
)

// Store is the catalog store. Every repository obtained from a Store handed to
// HandleTrx's callback runs inside that transaction.
type Store interface {
	HandleTrx(ctx context.Context, fn func(store Store) error) error

	Products() ProductRepository
	Variants() VariantRepository
	Images() ImageRepository
	Ratings() RatingRepository
	Sizes() SizeRepository
	Colors() ColorRepository
	Categories() CategoryRepository
	Collections() CollectionRepository
	Users() UserRepository
}

type ProductFilter struct {
	utils.PaginationParams
	CategoryID   *uuid.UUID
	CollectionID *uuid.UUID
}

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	// FindByID loads the product; withAssociations also loads images, variants,
	// category and collection.
	FindByID(ctx context.Context, id uuid.UUID, withAssociations bool) (*models.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	Update(ctx context.Context, product *models.Product) error
	// UpdateAggregate writes the cached rating aggregate and reports the rows affected.
	UpdateAggregate(ctx context.Context, id uuid.UUID, averageRating int, totalReviews int64) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

type VariantRepository interface {
	ListColors(ctx context.Context, productID uuid.UUID) ([]models.ProductColor, error)
	CreateColors(ctx context.Context, colors []models.ProductColor) error
	UpdateColorName(ctx context.Context, id uuid.UUID, name string) error
	// DeleteColorsNotIn removes the product's colors whose color id is not in keep.
	DeleteColorsNotIn(ctx context.Context, productID uuid.UUID, keep []uuid.UUID) (int64, error)

	ListSizes(ctx context.Context, productID uuid.UUID) ([]models.ProductSize, error)
	CreateSizes(ctx context.Context, sizes []models.ProductSize) error
	// UpdateSizeStock rewrites name, price and original quantity of the row and
	// recomputes remaining = original - purchase from the stored purchase count.
	// It affects no row when the stored purchase count exceeds the new original quantity.
	UpdateSizeStock(ctx context.Context, id uuid.UUID, name string, originalPrice float64, originalQty int) (int64, error)
	DeleteSizesNotIn(ctx context.Context, productID uuid.UUID, keep []uuid.UUID) (int64, error)
	FindSize(ctx context.Context, productID, sizeID uuid.UUID) (*models.ProductSize, error)
	// ReserveStock adds quantity to the purchase count in a single conditional
	// update. It affects no row when the stock cannot cover the quantity.
	ReserveStock(ctx context.Context, productID, sizeID uuid.UUID, quantity int) (int64, error)
}

type ImageRepository interface {
	Create(ctx context.Context, images []models.Image) error
	// ReplaceForProduct drops every image of the product and inserts urls.
	ReplaceForProduct(ctx context.Context, productID uuid.UUID, urls []string) error
}

type RatingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Rating, error)
	FindByProductAndUser(ctx context.Context, productID, userID uuid.UUID) (*models.Rating, error)
	Create(ctx context.Context, rating *models.Rating) error
	Update(ctx context.Context, id uuid.UUID, rating float64, description string) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	// ListByProduct returns the product's ratings, newest first, with their users.
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Rating, error)
	ListAll(ctx context.Context, params utils.PaginationParams) ([]models.Rating, int64, error)
}

type SizeRepository interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Size, error)
}

type ColorRepository interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Color, error)
}

type CategoryRepository interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type CollectionRepository interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type UserRepository interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
