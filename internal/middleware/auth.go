// internal/middleware/auth.go
package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/shop-catalog/internal/i18n"
	"github.com/javajoker/shop-catalog/internal/utils"
)

// RevocationChecker reports whether a token id was revoked by a logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}

	// Extract token from "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setClaims(c *gin.Context, claims *utils.JWTClaims) {
	c.Set(utils.ContextUserID, claims.UserID)
	c.Set(utils.ContextIsAdmin, claims.IsAdmin)
	c.Set(utils.ContextClaims, claims)
}

func AuthRequired(revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		if c.GetHeader("Authorization") == "" {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			return
		}

		claims, err := utils.ValidateJWT(token)
		if err != nil {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			return
		}

		if revoked != nil {
			isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.TokenID())
			if err != nil {
				logrus.WithError(err).Error("Failed to check token revocation")
				utils.InternalErrorResponse(c, "")
				return
			}
			if isRevoked {
				utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthTokenRevoked))
				return
			}
		}

		setClaims(c, claims)
		c.Next()
	}
}

// AdminRequired must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !utils.IsAdminFromContext(c) {
			utils.ForbiddenResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthAdminRequired))
			return
		}
		c.Next()
	}
}

// OptionalAuth sets the caller's identity when a valid token is presented and
// otherwise lets the request through anonymously.
func OptionalAuth(revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		claims, err := utils.ValidateJWT(token)
		if err != nil {
			c.Next()
			return
		}
		if revoked != nil {
			if isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.TokenID()); err != nil || isRevoked {
				c.Next()
				return
			}
		}

		setClaims(c, claims)
		c.Next()
	}
}
