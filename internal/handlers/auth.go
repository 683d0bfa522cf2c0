// internal/handlers/auth.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/shop-catalog/internal/i18n"
	"github.com/javajoker/shop-catalog/internal/services"
	"github.com/javajoker/shop-catalog/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// POST /users/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req services.SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.authService.Signup(c.Request.Context(), &req)
	if err != nil {
		if services.KindOf(err) == services.KindConflict {
			utils.ConflictResponse(c, message(c, i18n.KeyAuthUserExists), nil)
			return
		}
		handleError(c, "signup", err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":    message(c, i18n.KeyAuthRegisterSuccess),
		"user":       authResponse.User,
		"token":      authResponse.AccessToken,
		"token_type": authResponse.TokenType,
		"expires_in": authResponse.ExpiresIn,
	})
}

// POST /users/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		if services.KindOf(err) == services.KindUnauthorized {
			utils.UnauthorizedResponse(c, message(c, i18n.KeyAuthInvalidCredentials))
			return
		}
		handleError(c, "login", err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":    message(c, i18n.KeyAuthLoginSuccess),
		"user":       authResponse.User,
		"token":      authResponse.AccessToken,
		"token_type": authResponse.TokenType,
		"expires_in": authResponse.ExpiresIn,
	})
}

// POST /users/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, _ := c.Get(utils.ContextClaims)
	jwtClaims, _ := claims.(*utils.JWTClaims)

	if err := h.authService.Logout(c.Request.Context(), jwtClaims); err != nil {
		handleError(c, "logout", err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": message(c, i18n.KeyAuthLogoutSuccess),
	})
}
