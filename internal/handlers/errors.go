// internal/handlers/errors.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/shop-catalog/internal/i18n"
	"github.com/javajoker/shop-catalog/internal/services"
	"github.com/javajoker/shop-catalog/internal/utils"
)

// handleError writes the response for a failed service call. Errors without a
// service kind are logged and reported as a generic internal error.
func handleError(c *gin.Context, operation string, err error) {
	var serviceErr *services.Error
	if !errors.As(err, &serviceErr) {
		logrus.WithError(err).WithFields(logrus.Fields{
			"operation":  operation,
			"request_id": c.GetString("request_id"),
		}).Error("Unexpected error")
		utils.InternalErrorResponse(c, "")
		return
	}

	switch serviceErr.Kind {
	case services.KindValidation:
		utils.ValidationErrorResponse(c, serviceErr.Message, serviceErr.Details)
	case services.KindNotFound:
		utils.NotFoundResponse(c, serviceErr.Message)
	case services.KindConflict:
		utils.ConflictResponse(c, serviceErr.Message, serviceErr.Details)
	case services.KindUnauthorized:
		utils.UnauthorizedResponse(c, serviceErr.Message)
	case services.KindForbidden:
		utils.ForbiddenResponse(c, serviceErr.Message)
	default:
		logrus.WithError(err).WithFields(logrus.Fields{
			"operation":  operation,
			"kind":       serviceErr.Kind.String(),
			"request_id": c.GetString("request_id"),
		}).Error("Inconsistent store state")
		utils.InternalErrorResponse(c, "")
	}
}

// bindJSON binds the request body and reports malformed input.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	return true
}

// paramID parses the named path parameter as a uuid.
func paramID(c *gin.Context, name, entity string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationID, entity), nil)
		return uuid.Nil, false
	}
	return id, true
}

// queryID parses an optional uuid query parameter.
func queryID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationID, name), nil)
		return nil, false
	}
	return &id, true
}

// principal returns the authenticated caller set by the auth middleware.
func principal(c *gin.Context) (services.Principal, bool) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return services.Principal{}, false
	}
	return services.Principal{UserID: userID, IsAdmin: utils.IsAdminFromContext(c)}, true
}

func message(c *gin.Context, key string) string {
	return i18n.T(utils.GetLangFromContext(c), key)
}
