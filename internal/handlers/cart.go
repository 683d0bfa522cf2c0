// internal/handlers/cart.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/shop-catalog/internal/i18n"
	"github.com/javajoker/shop-catalog/internal/services"
	"github.com/javajoker/shop-catalog/internal/utils"
)

type CartHandler struct {
	cartService *services.CartService
}

func NewCartHandler(cartService *services.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// POST /cart/add
func (h *CartHandler) AddToCart(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	var req services.AddToCartRequest
	if !bindJSON(c, &req) {
		return
	}

	line, err := h.cartService.Add(c.Request.Context(), caller, &req)
	if err != nil {
		handleError(c, "add_to_cart", err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": message(c, i18n.KeyCartAdded),
		"cart":    line,
	})
}

// GET /cart/get/:userId
func (h *CartHandler) GetCart(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	userID, ok := paramID(c, "userId", "user")
	if !ok {
		return
	}

	lines, err := h.cartService.ListByUser(c.Request.Context(), caller, userID)
	if err != nil {
		handleError(c, "get_cart", err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"cart":  lines,
		"total": len(lines),
	})
}

// PUT /cart/update/:cartId
func (h *CartHandler) UpdateCart(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	cartID, ok := paramID(c, "cartId", "cart")
	if !ok {
		return
	}
	var req services.UpdateCartRequest
	if !bindJSON(c, &req) {
		return
	}

	line, err := h.cartService.Update(c.Request.Context(), caller, cartID, &req)
	if err != nil {
		handleError(c, "update_cart", err)
		return
	}

	if line == nil {
		utils.SuccessResponse(c, gin.H{"message": message(c, i18n.KeyCartRemoved)})
		return
	}
	utils.SuccessResponse(c, gin.H{
		"message": message(c, i18n.KeyCartUpdated),
		"cart":    line,
	})
}

// DELETE /cart/remove/:cartId
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	cartID, ok := paramID(c, "cartId", "cart")
	if !ok {
		return
	}

	if err := h.cartService.Remove(c.Request.Context(), caller, cartID); err != nil {
		handleError(c, "remove_from_cart", err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": message(c, i18n.KeyCartRemoved)})
}
