// internal/services/user_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/shop-catalog/internal/database"
	"github.com/javajoker/shop-catalog/internal/models"
	"github.com/javajoker/shop-catalog/internal/repository"
	"github.com/javajoker/shop-catalog/internal/utils"
)

type UserService struct {
	db *gorm.DB
}

type UpdateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,notblank,min=2,max=50"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Phone    *string `json:"phone" validate:"omitempty,phone"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) List(ctx context.Context, params utils.PaginationParams) (utils.PaginationResult, error) {
	params = utils.NormalizePagination(params)

	query := s.db.WithContext(ctx).Model(&models.User{})
	if params.Search != "" {
		like := "%" + params.Search + "%"
		query = query.Where("username ILIKE ? OR email ILIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.PaginationResult{}, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	query = utils.ApplySort(query, params, []string{"created_at", "username", "email"})
	if err := utils.ApplyPagination(query, params).Find(&users).Error; err != nil {
		return utils.PaginationResult{}, fmt.Errorf("failed to list users: %w", err)
	}

	return utils.CreatePaginationResult(users, total, params), nil
}

func (s *UserService) Get(ctx context.Context, principal Principal, id uuid.UUID) (*models.User, error) {
	if !principal.CanActFor(id) {
		return nil, forbiddenError("You can only view your own account")
	}
	return s.find(ctx, id)
}

func (s *UserService) find(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("User not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func (s *UserService) Update(ctx context.Context, principal Principal, id uuid.UUID, req *UpdateUserRequest) (*models.User, error) {
	if !principal.CanActFor(id) {
		return nil, forbiddenError("You can only update your own account")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError("Invalid user update", utils.GetValidationErrors(err))
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		user.Username = strings.TrimSpace(*req.Username)
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != user.Email {
			var count int64
			if err := s.db.WithContext(ctx).Model(&models.User{}).
				Where("email = ? AND id <> ?", email, id).Count(&count).Error; err != nil {
				return nil, fmt.Errorf("database error: %w", err)
			}
			if count > 0 {
				return nil, conflictError("A user with this email already exists", details{"email": email})
			}
			user.Email = email
		}
	}
	if req.Password != nil {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
	}

	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflictError("A user with this email already exists", details{"email": user.Email})
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	logrus.WithField("user_id", id).Info("User updated")
	return user, nil
}

// Delete removes the user. Ratings and cart lines go with it, and the
// aggregates of every product the user had rated are refreshed.
func (s *UserService) Delete(ctx context.Context, principal Principal, id uuid.UUID) error {
	if !principal.CanActFor(id) {
		return forbiddenError("You can only delete your own account")
	}

	return database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var productIDs []uuid.UUID
		if err := tx.Model(&models.Rating{}).Where("user_id = ?", id).
			Distinct().Pluck("product_id", &productIDs).Error; err != nil {
			return fmt.Errorf("failed to load user ratings: %w", err)
		}

		result := tx.Delete(&models.User{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete user: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return notFoundError("User not found")
		}

		if err := refreshAggregates(ctx, repository.NewGormStore(tx), productIDs); err != nil {
			return err
		}

		logrus.WithFields(logrus.Fields{
			"user_id":          id,
			"refreshed_rating": len(productIDs),
		}).Info("User deleted")
		return nil
	})
}
