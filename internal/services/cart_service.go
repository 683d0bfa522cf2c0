// internal/services/cart_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/shop-catalog/internal/models"
	"github.com/javajoker/shop-catalog/internal/utils"
)

type CartService struct {
	db *gorm.DB
}

type AddToCartRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gte=1,lte=1000"`
}

type UpdateCartRequest struct {
	// Quantity zero or below removes the line.
	Quantity *int `json:"quantity" validate:"required"`
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

// Add puts quantity units of the product into the user's cart. An existing
// line for the same product has its quantity increased.
func (s *CartService) Add(ctx context.Context, principal Principal, req *AddToCartRequest) (*models.Cart, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError("Invalid cart item", utils.GetValidationErrors(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.mustExist(gctx, &models.Product{}, req.ProductID, "Product not found")
	})
	g.Go(func() error {
		return s.mustExist(gctx, &models.User{}, principal.UserID, "User not found")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	line := &models.Cart{UserID: principal.UserID, ProductID: req.ProductID, Quantity: req.Quantity}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("carts.quantity + EXCLUDED.quantity"),
			"updated_at": gorm.Expr("NOW()"),
		}),
	}).Create(line).Error
	if err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	var saved models.Cart
	if err := s.db.WithContext(ctx).Preload("Product").
		First(&saved, "user_id = ? AND product_id = ?", principal.UserID, req.ProductID).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    principal.UserID,
		"product_id": req.ProductID,
		"quantity":   saved.Quantity,
	}).Info("Cart item added")
	return &saved, nil
}

func (s *CartService) mustExist(ctx context.Context, model interface{}, id uuid.UUID, notFound string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if count == 0 {
		return notFoundError(notFound)
	}
	return nil
}

func (s *CartService) ListByUser(ctx context.Context, principal Principal, userID uuid.UUID) ([]models.Cart, error) {
	if !principal.CanActFor(userID) {
		return nil, forbiddenError("You can only view your own cart")
	}

	var lines []models.Cart
	err := s.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Images").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return lines, nil
}

// Update sets the line's quantity and returns nil when the line was removed.
func (s *CartService) Update(ctx context.Context, principal Principal, cartID uuid.UUID, req *UpdateCartRequest) (*models.Cart, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError("Invalid cart update", utils.GetValidationErrors(err))
	}

	line, err := s.ownedLine(ctx, principal, cartID)
	if err != nil {
		return nil, err
	}

	if *req.Quantity <= 0 {
		return nil, s.Remove(ctx, principal, cartID)
	}

	line.Quantity = *req.Quantity
	if err := s.db.WithContext(ctx).Model(line).Update("quantity", line.Quantity).Error; err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	return line, nil
}

func (s *CartService) Remove(ctx context.Context, principal Principal, cartID uuid.UUID) error {
	if _, err := s.ownedLine(ctx, principal, cartID); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Delete(&models.Cart{}, "id = ?", cartID)
	if result.Error != nil {
		return fmt.Errorf("failed to remove cart item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFoundError("Cart item not found")
	}
	return nil
}

func (s *CartService) ownedLine(ctx context.Context, principal Principal, cartID uuid.UUID) (*models.Cart, error) {
	var line models.Cart
	if err := s.db.WithContext(ctx).First(&line, "id = ?", cartID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("Cart item not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !principal.CanActFor(line.UserID) {
		return nil, forbiddenError("You can only change your own cart")
	}
	return &line, nil
}
