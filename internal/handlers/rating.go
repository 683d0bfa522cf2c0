// internal/handlers/rating.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/shop-catalog/internal/i18n"
	"github.com/javajoker/shop-catalog/internal/models"
	"github.com/javajoker/shop-catalog/internal/services"
	"github.com/javajoker/shop-catalog/internal/utils"
)

type RatingHandler struct {
	ratingService *services.RatingService
}

func NewRatingHandler(ratingService *services.RatingService) *RatingHandler {
	return &RatingHandler{ratingService: ratingService}
}

// POST /ratings
func (h *RatingHandler) UpsertRating(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}

	var req services.UpsertRatingRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.ratingService.Upsert(c.Request.Context(), caller, &req)
	if err != nil {
		handleError(c, "upsert_rating", err)
		return
	}

	body := gin.H{
		"message":        message(c, i18n.KeyRatingSaved),
		"rating":         result.Rating,
		"created":        result.Created,
		"average_rating": result.AverageRating,
		"total_reviews":  result.TotalReviews,
	}
	if result.Created {
		utils.CreatedResponse(c, body)
		return
	}
	utils.SuccessResponse(c, body)
}

// DELETE /ratings/:ratingId
func (h *RatingHandler) DeleteRating(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "ratingId", "rating")
	if !ok {
		return
	}

	aggregate, err := h.ratingService.Delete(c.Request.Context(), caller, id)
	if err != nil {
		handleError(c, "delete_rating", err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":        message(c, i18n.KeyRatingDeleted),
		"product_id":     aggregate.ProductID,
		"average_rating": aggregate.AverageRating,
		"total_reviews":  aggregate.TotalReviews,
	})
}

// GET /ratings/products/:productId
// Signed-in callers also get their own rating back as own_rating.
func (h *RatingHandler) GetProductRatings(c *gin.Context) {
	productID, ok := paramID(c, "productId", "product")
	if !ok {
		return
	}

	ratings, err := h.ratingService.ListByProduct(c.Request.Context(), productID)
	if err != nil {
		handleError(c, "list_product_ratings", err)
		return
	}

	var own *models.Rating
	if userID, ok := utils.GetUserIDFromContext(c); ok {
		for i := range ratings {
			if ratings[i].UserID == userID {
				own = &ratings[i]
				break
			}
		}
	}

	utils.SuccessResponse(c, gin.H{
		"ratings":    ratings,
		"total":      len(ratings),
		"own_rating": own,
	})
}

// GET /ratings
func (h *RatingHandler) GetAllRatings(c *gin.Context) {
	result, err := h.ratingService.ListAll(c.Request.Context(), utils.GetPaginationParams(c))
	if err != nil {
		handleError(c, "list_ratings", err)
		return
	}

	utils.PaginatedResponse(c, result)
}
