// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/shop-catalog/internal/config"
	"github.com/javajoker/shop-catalog/internal/models"
	"github.com/javajoker/shop-catalog/internal/utils"
)

type AuthService struct {
	db        *gorm.DB
	cfg       *config.Config
	blacklist TokenBlacklist
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignupRequest struct {
	Username string `json:"username" validate:"required,notblank,min=2,max=50"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"` // in seconds
}

func NewAuthService(db *gorm.DB, cfg *config.Config, blacklist TokenBlacklist) *AuthService {
	return &AuthService{
		db:        db,
		cfg:       cfg,
		blacklist: blacklist,
	}
}

func (s *AuthService) Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError("Invalid signup request", utils.GetValidationErrors(err))
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user := &models.User{
		Username: strings.TrimSpace(req.Username),
		Email:    email,
		Phone:    req.Phone,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflictError("A user with this email already exists", details{"email": email})
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logrus.WithField("user_id", user.ID).Info("User signed up")
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError("Invalid login request", utils.GetValidationErrors(err))
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, unauthorizedError("Invalid email or password")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := user.CheckPassword(req.Password); err != nil {
		logrus.WithField("user_id", user.ID).Warn("Failed login attempt")
		return nil, unauthorizedError("Invalid email or password")
	}

	return s.issue(&user)
}

func (s *AuthService) issue(user *models.User) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(user.ID, user.Email, user.IsAdmin, s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &AuthResponse{
		User:        user,
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   s.cfg.JWT.AccessTokenTTL * 3600, // Convert hours to seconds
	}, nil
}

// Logout revokes the presented token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims *utils.JWTClaims) error {
	if claims == nil || claims.TokenID() == "" {
		return unauthorizedError("Invalid token")
	}
	if err := s.blacklist.Revoke(ctx, claims.TokenID(), claims.TTL()); err != nil {
		return err
	}

	logrus.WithField("user_id", claims.UserID).Info("User logged out")
	return nil
}
