// internal/handlers/product.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/shop-catalog/internal/i18n"
	"github.com/javajoker/shop-catalog/internal/services"
	"github.com/javajoker/shop-catalog/internal/utils"
)

const productImageFolder = "products"

type ProductHandler struct {
	productService   *services.ProductService
	inventoryService *services.InventoryService
	storageService   *services.StorageService
}

func NewProductHandler(productService *services.ProductService, inventoryService *services.InventoryService, storageService *services.StorageService) *ProductHandler {
	return &ProductHandler{
		productService:   productService,
		inventoryService: inventoryService,
		storageService:   storageService,
	}
}

// GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	params := services.ProductListParams{PaginationParams: utils.GetPaginationParams(c)}

	var ok bool
	if params.CategoryID, ok = queryID(c, "category_id"); !ok {
		return
	}
	if params.CollectionID, ok = queryID(c, "collection_id"); !ok {
		return
	}

	result, err := h.productService.List(c.Request.Context(), params)
	if err != nil {
		handleError(c, "list_products", err)
		return
	}

	utils.PaginatedResponse(c, result)
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := paramID(c, "id", "product")
	if !ok {
		return
	}

	product, err := h.productService.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, "get_product", err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product": product,
	})
}

// POST /products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	req, uploaded, ok := h.bindProduct(c)
	if !ok {
		return
	}

	product, err := h.productService.Create(c.Request.Context(), req, uploaded)
	if err != nil {
		h.productService.RemoveUploads(c.Request.Context(), uploaded)
		handleError(c, "create_product", err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": message(c, i18n.KeyProductCreated),
		"product": product,
	})
}

// PUT /products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := paramID(c, "id", "product")
	if !ok {
		return
	}

	req, uploaded, ok := h.bindProduct(c)
	if !ok {
		return
	}

	product, err := h.productService.Update(c.Request.Context(), id, req, uploaded)
	if err != nil {
		h.productService.RemoveUploads(c.Request.Context(), uploaded)
		handleError(c, "update_product", err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": message(c, i18n.KeyProductUpdated),
		"product": product,
	})
}

// DELETE /products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := paramID(c, "id", "product")
	if !ok {
		return
	}

	if err := h.productService.Delete(c.Request.Context(), id); err != nil {
		handleError(c, "delete_product", err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": message(c, i18n.KeyProductDeleted),
	})
}

// POST /products/order
func (h *ProductHandler) OrderProduct(c *gin.Context) {
	caller, ok := principal(c)
	if !ok {
		return
	}

	var req services.OrderRequest
	if !bindJSON(c, &req) {
		return
	}
	req.UserID = caller.UserID

	size, err := h.inventoryService.PlaceOrder(c.Request.Context(), &req)
	if err != nil {
		var serviceErr *services.Error
		if errors.As(err, &serviceErr) && serviceErr.Kind == services.KindConflict {
			utils.ConflictResponse(c, message(c, i18n.KeyProductOutOfStock), serviceErr.Details)
			return
		}
		handleError(c, "order_product", err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": message(c, i18n.KeyProductOrdered),
		"size":    size,
	})
}

// bindProduct reads a product from a JSON body or from a multipart form whose
// list fields are JSON-encoded and whose files arrive under "images". Files
// are stored before the request is validated; the caller removes them again
// when the service rejects the request.
func (h *ProductHandler) bindProduct(c *gin.Context) (*services.ProductRequest, []string, bool) {
	var req services.ProductRequest

	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if !bindJSON(c, &req) {
			return nil, nil, false
		}
		return &req, nil, true
	}

	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, message(c, i18n.KeyFileUploadFailed), err.Error())
		return nil, nil, false
	}
	if err := decodeProductForm(form.Value, &req); err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "input"), err.Error())
		return nil, nil, false
	}

	uploaded, err := h.storageService.UploadImages(c.Request.Context(), form.File["images"], productImageFolder)
	if err != nil {
		handleError(c, "upload_product_images", err)
		return nil, nil, false
	}
	return &req, uploaded, true
}

func decodeProductForm(values map[string][]string, req *services.ProductRequest) error {
	get := func(key string) string {
		if v := values[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	req.Name = get("name")
	req.Description = get("description")

	if raw := get("base_price"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("base_price: %w", err)
		}
		req.BasePrice = &price
	}

	for key, target := range map[string]**uuid.UUID{"category_id": &req.CategoryID, "collection_id": &req.CollectionID} {
		if raw := get(key); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*target = &id
		}
	}

	lists := map[string]interface{}{
		"details":         &req.Details,
		"size_fit":        &req.SizeFit,
		"material_care":   &req.MaterialCare,
		"shipping_return": &req.ShippingReturn,
		"colors":          &req.Colors,
		"sizes":           &req.Sizes,
		"images":          &req.Images,
	}
	for key, target := range lists {
		raw := get(key)
		if raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(raw), target); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}
