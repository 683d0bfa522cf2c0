// internal/handlers/user.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/shop-catalog/internal/i18n"
	"github.com/javajoker/shop-catalog/internal/services"
	"github.com/javajoker/shop-catalog/internal/utils"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GET /users/allusers
func (h *UserHandler) GetUsers(c *gin.Context) {
	result, err := h.userService.List(c.Request.Context(), utils.GetPaginationParams(c))
	if err != nil {
		handleError(c, "list_users", err)
		return
	}

	utils.PaginatedResponse(c, result)
}

// GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "user")
	if !ok {
		return
	}

	user, err := h.userService.Get(c.Request.Context(), caller, id)
	if err != nil {
		handleError(c, "get_user", err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"user": user,
	})
}

// PUT /users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "user")
	if !ok {
		return
	}

	var req services.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Update(c.Request.Context(), caller, id, &req)
	if err != nil {
		handleError(c, "update_user", err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": message(c, i18n.KeySuccess),
		"user":    user,
	})
}

// DELETE /users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "user")
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), caller, id); err != nil {
		handleError(c, "delete_user", err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": message(c, i18n.KeyUserDeleted),
	})
}
