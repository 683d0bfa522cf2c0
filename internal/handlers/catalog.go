// internal/handlers/catalog.go
package handlers

import (
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/shop-catalog/internal/i18n"
	"github.com/javajoker/shop-catalog/internal/services"
	"github.com/javajoker/shop-catalog/internal/utils"
)

const collectionImageFolder = "collections"

// CatalogHandler serves categories, collections, sizes and colors.
type CatalogHandler struct {
	catalogService *services.CatalogService
	storageService *services.StorageService
}

func NewCatalogHandler(catalogService *services.CatalogService, storageService *services.StorageService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		storageService: storageService,
	}
}

// GET /categories
func (h *CatalogHandler) GetCategories(c *gin.Context) {
	categories, err := h.catalogService.ListCategories(c.Request.Context())
	if err != nil {
		handleError(c, "list_categories", err)
		return
	}
	utils.SuccessResponse(c, gin.H{"categories": categories})
}

// GET /categories/:id
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	id, ok := paramID(c, "id", "category")
	if !ok {
		return
	}
	category, err := h.catalogService.GetCategory(c.Request.Context(), id)
	if err != nil {
		handleError(c, "get_category", err)
		return
	}
	utils.SuccessResponse(c, gin.H{"category": category})
}

// POST /categories
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req services.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.catalogService.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		handleError(c, "create_category", err)
		return
	}
	utils.CreatedResponse(c, gin.H{"message": message(c, i18n.KeyCategoryCreated), "category": category})
}

// PUT /categories/:id
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	id, ok := paramID(c, "id", "category")
	if !ok {
		return
	}
	var req services.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.catalogService.UpdateCategory(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, "update_category", err)
		return
	}
	utils.SuccessResponse(c, gin.H{"message": message(c, i18n.KeyCategoryUpdated), "category": category})
}

// DELETE /categories/:id
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, ok := paramID(c, "id", "category")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteCategory(c.Request.Context(), id); err != nil {
		handleError(c, "delete_category", err)
		return
	}
	utils.SuccessResponse(c, gin.H{"message": message(c, i18n.KeyCategoryDeleted)})
}

// GET /collections
func (h *CatalogHandler) GetCollections(c *gin.Context) {
	categoryID, ok := queryID(c, "category_id")
	if !ok {
		return
	}
	collections, err := h.catalogService.ListCollections(c.Request.Context(), categoryID)
	if err != nil {
		handleError(c, "list_collections", err)
		return
	}
	utils.SuccessResponse(c, gin.H{"collections": collections})
}

// GET /collections/:id
func (h *CatalogHandler) GetCollection(c *gin.Context) {
	id, ok := paramID(c, "id", "collection")
	if !ok {
		return
	}
	collection, err := h.catalogService.GetCollection(c.Request.Context(), id)
	if err != nil {
		handleError(c, "get_collection", err)
		return
	}
	utils.SuccessResponse(c, gin.H{"collection": collection})
}

// POST /collections
func (h *CatalogHandler) CreateCollection(c *gin.Context) {
	req, uploaded, ok := h.bindCollection(c)
	if !ok {
		return
	}
	collection, err := h.catalogService.CreateCollection(c.Request.Context(), req, uploaded)
	if err != nil {
		h.catalogService.RemoveUploads(c.Request.Context(), uploaded)
		handleError(c, "create_collection", err)
		return
	}
	utils.CreatedResponse(c, gin.H{"message": message(c, i18n.KeyCollectionCreated), "collection": collection})
}

// PUT /collections/:id
func (h *CatalogHandler) UpdateCollection(c *gin.Context) {
	id, ok := paramID(c, "id", "collection")
	if !ok {
		return
	}
	req, uploaded, ok := h.bindCollection(c)
	if !ok {
		return
	}
	collection, err := h.catalogService.UpdateCollection(c.Request.Context(), id, req, uploaded)
	if err != nil {
		h.catalogService.RemoveUploads(c.Request.Context(), uploaded)
		handleError(c, "update_collection", err)
		return
	}
	utils.SuccessResponse(c, gin.H{"message": message(c, i18n.KeyCollectionUpdated), "collection": collection})
}

// DELETE /collections/:id
func (h *CatalogHandler) DeleteCollection(c *gin.Context) {
	id, ok := paramID(c, "id", "collection")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteCollection(c.Request.Context(), id); err != nil {
		handleError(c, "delete_collection", err)
		return
	}
	utils.SuccessResponse(c, gin.H{"message": message(c, i18n.KeyCollectionDeleted)})
}

func (h *CatalogHandler) bindCollection(c *gin.Context) (*services.CollectionRequest, []string, bool) {
	var req services.CollectionRequest
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

	invalid := func(detail string) (*services.CollectionRequest, []string, bool) {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "input"), detail)
		return nil, nil, false
	}

	req.Name = c.PostForm("name")
	if raw := c.PostForm("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return invalid("category_id: " + err.Error())
		}
		req.CategoryID = &id
	}
	if raw := c.PostForm("images"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Images); err != nil {
			return invalid("images: " + err.Error())
		}
	}

	uploaded, err := h.storageService.UploadImages(c.Request.Context(), form.File["images"], collectionImageFolder)
	if err != nil {
		handleError(c, "upload_collection_images", err)
		return nil, nil, false
	}
	return &req, uploaded, true
}

// GET /sizes
func (h *CatalogHandler) GetSizes(c *gin.Context) {
	sizes, err := h.catalogService.ListSizes(c.Request.Context())
	if err != nil {
		handleError(c, "list_sizes", err)
		return
	}
	utils.SuccessResponse(c, gin.H{"sizes": sizes})
}

// GET /sizes/:id
func (h *CatalogHandler) GetSize(c *gin.Context) {
	id, ok := paramID(c, "id", "size")
	if !ok {
		return
	}
	size, err := h.catalogService.GetSize(c.Request.Context(), id)
	if err != nil {
		handleError(c, "get_size", err)
		return
	}
	utils.SuccessResponse(c, gin.H{"size": size})
}

// POST /sizes
func (h *CatalogHandler) CreateSize(c *gin.Context) {
	var req services.SizeRequest
	if !bindJSON(c, &req) {
		return
	}
	size, err := h.catalogService.CreateSize(c.Request.Context(), &req)
	if err != nil {
		handleError(c, "create_size", err)
		return
	}
	utils.CreatedResponse(c, gin.H{"message": message(c, i18n.KeySizeCreated), "size": size})
}

// PUT /sizes/:id
func (h *CatalogHandler) UpdateSize(c *gin.Context) {
	id, ok := paramID(c, "id", "size")
	if !ok {
		return
	}
	var req services.SizeRequest
	if !bindJSON(c, &req) {
		return
	}
	size, err := h.catalogService.UpdateSize(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, "update_size", err)
		return
	}
	utils.SuccessResponse(c, gin.H{"message": message(c, i18n.KeySizeUpdated), "size": size})
}

// DELETE /sizes/:id
func (h *CatalogHandler) DeleteSize(c *gin.Context) {
	id, ok := paramID(c, "id", "size")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteSize(c.Request.Context(), id); err != nil {
		handleError(c, "delete_size", err)
		return
	}
	utils.SuccessResponse(c, gin.H{"message": message(c, i18n.KeySizeDeleted)})
}

// GET /colors
func (h *CatalogHandler) GetColors(c *gin.Context) {
	colors, err := h.catalogService.ListColors(c.Request.Context())
	if err != nil {
		handleError(c, "list_colors", err)
		return
	}
	utils.SuccessResponse(c, gin.H{"colors": colors})
}

// GET /colors/:id
func (h *CatalogHandler) GetColor(c *gin.Context) {
	id, ok := paramID(c, "id", "color")
	if !ok {
		return
	}
	color, err := h.catalogService.GetColor(c.Request.Context(), id)
	if err != nil {
		handleError(c, "get_color", err)
		return
	}
	utils.SuccessResponse(c, gin.H{"color": color})
}

// POST /colors
func (h *CatalogHandler) CreateColor(c *gin.Context) {
	var req services.ColorRequest
	if !bindJSON(c, &req) {
		return
	}
	color, err := h.catalogService.CreateColor(c.Request.Context(), &req)
	if err != nil {
		handleError(c, "create_color", err)
		return
	}
	utils.CreatedResponse(c, gin.H{"message": message(c, i18n.KeyColorCreated), "color": color})
}

// PUT /colors/:id
func (h *CatalogHandler) UpdateColor(c *gin.Context) {
	id, ok := paramID(c, "id", "color")
	if !ok {
		return
	}
	var req services.ColorRequest
	if !bindJSON(c, &req) {
		return
	}
	color, err := h.catalogService.UpdateColor(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, "update_color", err)
		return
	}
	utils.SuccessResponse(c, gin.H{"message": message(c, i18n.KeyColorUpdated), "color": color})
}

// DELETE /colors/:id
func (h *CatalogHandler) DeleteColor(c *gin.Context) {
	id, ok := paramID(c, "id", "color")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteColor(c.Request.Context(), id); err != nil {
		handleError(c, "delete_color", err)
		return
	}
	utils.SuccessResponse(c, gin.H{"message": message(c, i18n.KeyColorDeleted)})
}
