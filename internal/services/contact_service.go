// internal/services/contact_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/shop-catalog/internal/models"
	"github.com/javajoker/shop-catalog/internal/utils"
)

type ContactService struct {
	db *gorm.DB
}

type ContactRequest struct {
	Name    string `json:"name" validate:"required,notblank,max=100"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Message string `json:"message" validate:"required,notblank,max=5000"`
}

func NewContactService(db *gorm.DB) *ContactService {
	return &ContactService{db: db}
}

func (s *ContactService) Add(ctx context.Context, req *ContactRequest) (*models.Contact, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError("Invalid contact message", utils.GetValidationErrors(err))
	}

	contact := &models.Contact{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Message: strings.TrimSpace(req.Message),
	}
	if err := s.db.WithContext(ctx).Create(contact).Error; err != nil {
		return nil, fmt.Errorf("failed to save contact: %w", err)
	}

	logrus.WithField("contact_id", contact.ID).Info("Contact message received")
	return contact, nil
}

func (s *ContactService) List(ctx context.Context, params utils.PaginationParams) (utils.PaginationResult, error) {
	params = utils.NormalizePagination(params)

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Contact{}).Count(&total).Error; err != nil {
		return utils.PaginationResult{}, fmt.Errorf("failed to count contacts: %w", err)
	}

	var contacts []models.Contact
	query := utils.ApplySort(s.db.WithContext(ctx), params, []string{"created_at", "name", "email"})
	if err := utils.ApplyPagination(query, params).Find(&contacts).Error; err != nil {
		return utils.PaginationResult{}, fmt.Errorf("failed to list contacts: %w", err)
	}
	return utils.CreatePaginationResult(contacts, total, params), nil
}

func (s *ContactService) Remove(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.Contact{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to remove contact: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFoundError("Contact not found")
	}
	return nil
}
