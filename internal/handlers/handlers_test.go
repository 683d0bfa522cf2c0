package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/shop-catalog/internal/config"
	"github.com/javajoker/shop-catalog/internal/events"
	"github.com/javajoker/shop-catalog/internal/i18n"
	"github.com/javajoker/shop-catalog/internal/middleware"
	"github.com/javajoker/shop-catalog/internal/models"
	"github.com/javajoker/shop-catalog/internal/repository/memory"
	"github.com/javajoker/shop-catalog/internal/services"
	"github.com/javajoker/shop-catalog/internal/utils"
)

var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

type CatalogAPITestSuite struct {
	suite.Suite
	store    *memory.Store
	recorder *events.Recorder
	router   *gin.Engine

	category models.Category
	small    models.Size
	red      models.Color

	admin      models.User
	ann        models.User
	bob        models.User
	adminToken string
	annToken   string
	bobToken   string
}

func TestCatalogAPITestSuite(t *testing.T) {
	suite.Run(t, new(CatalogAPITestSuite))
}

func (s *CatalogAPITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("handlers-test-secret")
	s.Require().NoError(i18n.Initialize())
}

func (s *CatalogAPITestSuite) SetupTest() {
	s.store = memory.NewStore()
	s.recorder = &events.Recorder{}

	storage, err := services.NewStorageService(&config.Config{
		Upload: config.UploadConfig{Dir: s.T().TempDir(), MaxFiles: 5, MaxSize: 1 << 20},
	})
	s.Require().NoError(err)

	inventory := services.NewInventoryService(s.store, s.recorder)
	products := NewProductHandler(services.NewProductService(s.store, inventory, storage, s.recorder), inventory, storage)
	ratings := NewRatingHandler(services.NewRatingService(s.store, s.recorder))

	s.category = s.store.SeedCategory("Shirts")
	s.small = s.store.SeedSize("S")
	s.red = s.store.SeedColor("Red", "#FF0000")
	s.admin = s.store.SeedUser("root", "root@example.com", true)
	s.ann = s.store.SeedUser("ann", "ann@example.com", false)
	s.bob = s.store.SeedUser("bob", "bob@example.com", false)
	s.adminToken = s.token(s.admin)
	s.annToken = s.token(s.ann)
	s.bobToken = s.token(s.bob)

	blacklist := services.NewMemoryTokenBlacklist()
	auth := middleware.AuthRequired(blacklist)

	r := gin.New()
	r.Use(middleware.I18nMiddleware())
	r.GET("/products", products.GetProducts)
	r.GET("/products/:id", products.GetProduct)
	r.POST("/products/order", auth, products.OrderProduct)
	r.POST("/products", auth, middleware.AdminRequired(), products.CreateProduct)
	r.PUT("/products/:id", auth, middleware.AdminRequired(), products.UpdateProduct)
	r.DELETE("/products/:id", auth, middleware.AdminRequired(), products.DeleteProduct)
	r.POST("/ratings", auth, ratings.UpsertRating)
	r.GET("/ratings", auth, middleware.AdminRequired(), ratings.GetAllRatings)
	r.GET("/ratings/products/:productId", middleware.OptionalAuth(blacklist), ratings.GetProductRatings)
	r.DELETE("/ratings/:ratingId", auth, ratings.DeleteRating)
	s.router = r
}

func (s *CatalogAPITestSuite) token(user models.User) string {
	token, err := utils.GenerateJWT(user.ID, user.Email, user.IsAdmin, 1)
	s.Require().NoError(err)
	return token
}

func (s *CatalogAPITestSuite) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return s.serve(req, token)
}

func (s *CatalogAPITestSuite) serve(req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func (s *CatalogAPITestSuite) productBody(qty int) gin.H {
	return gin.H{
		"name":        "Linen shirt",
		"base_price":  49.5,
		"category_id": s.category.ID,
		"details":     []string{"100% linen"},
		"colors":      []gin.H{{"color_id": s.red.ID, "name": "Crimson"}},
		"sizes":       []gin.H{{"size_id": s.small.ID, "original_price": 49.5, "original_qty": qty}},
	}
}

func (s *CatalogAPITestSuite) createProduct(qty int) models.Product {
	w, env := s.do(http.MethodPost, "/products", s.adminToken, s.productBody(qty))
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		Product models.Product `json:"product"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	return data.Product
}

func (s *CatalogAPITestSuite) TestCreateProductWithVariants() {
	product := s.createProduct(5)

	s.Require().Len(product.ProductSizes, 1)
	s.Equal("S", product.ProductSizes[0].Name)
	s.Equal(5, product.ProductSizes[0].RemainingQty)
	s.Require().Len(product.ProductColors, 1)
	s.Equal("Crimson", product.ProductColors[0].Name)

	w, _ := s.do(http.MethodGet, "/products/"+product.ID.String(), "", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *CatalogAPITestSuite) TestCreateProductRejectsUnknownSize() {
	body := s.productBody(5)
	unknown := uuid.New()
	body["sizes"] = []gin.H{{"size_id": unknown, "original_qty": 1}}

	w, env := s.do(http.MethodPost, "/products", s.adminToken, body)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Require().NotNil(env.Error)
	s.Equal("VALIDATION_ERROR", env.Error.Code)
	s.Contains(string(env.Error.Details), unknown.String())

	_, list := s.do(http.MethodGet, "/products", "", nil)
	s.JSONEq(`[]`, string(list.Data))
}

func (s *CatalogAPITestSuite) TestCreateProductRequiresAdmin() {
	w, _ := s.do(http.MethodPost, "/products", s.annToken, s.productBody(5))
	s.Equal(http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodPost, "/products", "", s.productBody(5))
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *CatalogAPITestSuite) postMultipart(sizes string, image []byte) (*httptest.ResponseRecorder, envelope) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fields := map[string]string{
		"name":        "Linen shirt",
		"base_price":  "49.5",
		"category_id": s.category.ID.String(),
		"details":     `["100% linen"]`,
		"sizes":       sizes,
	}
	for key, value := range fields {
		s.Require().NoError(writer.WriteField(key, value))
	}
	if image != nil {
		part, err := writer.CreateFormFile("images", "front.png")
		s.Require().NoError(err)
		_, err = part.Write(image)
		s.Require().NoError(err)
	}
	s.Require().NoError(writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return s.serve(req, s.adminToken)
}

func (s *CatalogAPITestSuite) TestCreateProductMultipart() {
	w, env := s.postMultipart(`[{"size_id":"`+s.small.ID.String()+`","original_qty":3}]`, pngPixel)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		Product models.Product `json:"product"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Require().Len(data.Product.Images, 1)
	s.True(strings.HasPrefix(data.Product.Images[0].ImageURL, "/uploads/products/"))
	s.Equal(3, data.Product.ProductSizes[0].OriginalQty)
}

func (s *CatalogAPITestSuite) TestCreateProductMultipartStringQuantity() {
	w, env := s.postMultipart(`[{"size_id":"`+s.small.ID.String()+`","original_qty":"10"}]`, nil)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		Product models.Product `json:"product"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Require().Len(data.Product.ProductSizes, 1)
	s.Equal(10, data.Product.ProductSizes[0].OriginalQty)
	s.Equal(10, data.Product.ProductSizes[0].RemainingQty)
}

func (s *CatalogAPITestSuite) TestCreateProductMultipartBadQuantityNamesSize() {
	w, env := s.postMultipart(`[{"size_id":"`+s.small.ID.String()+`","name":"Small","original_qty":"ten"}]`, nil)
	s.Require().Equal(http.StatusBadRequest, w.Code, w.Body.String())
	s.Require().NotNil(env.Error)
	s.Contains(env.Error.Message, "Small")
	s.Contains(string(env.Error.Details), `"original_qty":"ten"`)

	_, list := s.do(http.MethodGet, "/products", "", nil)
	s.JSONEq(`[]`, string(list.Data))
}

func (s *CatalogAPITestSuite) TestOrderDecrementsStock() {
	product := s.createProduct(5)
	order := gin.H{"product_id": product.ID, "size_id": s.small.ID, "quantity": 3}

	w, env := s.do(http.MethodPost, "/products/order", s.annToken, order)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var data struct {
		Size models.ProductSize `json:"size"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Equal(3, data.Size.PurchaseQty)
	s.Equal(2, data.Size.RemainingQty)

	order["quantity"] = 5
	w, env = s.do(http.MethodPost, "/products/order", s.annToken, order)
	s.Equal(http.StatusConflict, w.Code)
	s.JSONEq(`{"size":"S","available":2,"requested":5}`, string(env.Error.Details))

	order["size_id"] = uuid.New()
	w, _ = s.do(http.MethodPost, "/products/order", s.annToken, order)
	s.Equal(http.StatusNotFound, w.Code)

	s.Equal([]string{events.OrderPlaced}, s.recorder.Types())
}

func (s *CatalogAPITestSuite) TestUpdateBelowPurchasedIsConflict() {
	product := s.createProduct(5)
	w, _ := s.do(http.MethodPost, "/products/order", s.annToken,
		gin.H{"product_id": product.ID, "size_id": s.small.ID, "quantity": 4})
	s.Require().Equal(http.StatusOK, w.Code)

	w, _ = s.do(http.MethodPut, "/products/"+product.ID.String(), s.adminToken, s.productBody(3))
	s.Equal(http.StatusConflict, w.Code)

	w, env := s.do(http.MethodPut, "/products/"+product.ID.String(), s.adminToken, s.productBody(10))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var data struct {
		Product models.Product `json:"product"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Equal(4, data.Product.ProductSizes[0].PurchaseQty)
	s.Equal(6, data.Product.ProductSizes[0].RemainingQty)
}

func (s *CatalogAPITestSuite) TestRatingLifecycle() {
	product := s.createProduct(5)

	w, env := s.do(http.MethodPost, "/ratings", s.annToken,
		gin.H{"product_id": product.ID, "rating": 4, "description": "Fits well"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Rating        models.Rating `json:"rating"`
		AverageRating int           `json:"average_rating"`
		TotalReviews  int64         `json:"total_reviews"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &created))
	s.Equal(4, created.AverageRating)
	s.Equal(int64(1), created.TotalReviews)

	w, _ = s.do(http.MethodPost, "/ratings", s.annToken,
		gin.H{"product_id": product.ID, "rating": 2, "description": "Shrank"})
	s.Equal(http.StatusOK, w.Code)

	w, env = s.do(http.MethodGet, "/ratings/products/"+product.ID.String(), "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(string(env.Data), `"total":1`)

	ratingPath := "/ratings/" + created.Rating.ID.String()
	w, _ = s.do(http.MethodDelete, ratingPath, s.bobToken, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w, env = s.do(http.MethodDelete, ratingPath, s.annToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(string(env.Data), `"total_reviews":0`)

	w, _ = s.do(http.MethodDelete, ratingPath, s.annToken, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *CatalogAPITestSuite) TestProductRatingsFlagCallersOwnRating() {
	product := s.createProduct(5)
	w, _ := s.do(http.MethodPost, "/ratings", s.annToken,
		gin.H{"product_id": product.ID, "rating": 5, "description": "Great"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	w, _ = s.do(http.MethodPost, "/ratings", s.bobToken,
		gin.H{"product_id": product.ID, "rating": 2, "description": "Itchy"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	path := "/ratings/products/" + product.ID.String()
	var data struct {
		Total     int            `json:"total"`
		OwnRating *models.Rating `json:"own_rating"`
	}

	w, env := s.do(http.MethodGet, path, s.annToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Equal(2, data.Total)
	s.Require().NotNil(data.OwnRating)
	s.Equal(s.ann.ID, data.OwnRating.UserID)
	s.Equal(5.0, data.OwnRating.Rating)

	data.OwnRating = nil
	w, env = s.do(http.MethodGet, path, "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Nil(data.OwnRating)

	w, env = s.do(http.MethodGet, path, "not-a-jwt", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Nil(data.OwnRating)
}

func (s *CatalogAPITestSuite) TestRatingValidation() {
	product := s.createProduct(5)

	w, env := s.do(http.MethodPost, "/ratings", s.annToken,
		gin.H{"product_id": product.ID, "rating": 7, "description": "Too good"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(string(env.Error.Details), "rating")

	w, _ = s.do(http.MethodPost, "/ratings", s.annToken,
		gin.H{"product_id": uuid.New(), "rating": 3, "description": "Where is it"})
	s.Equal(http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodGet, "/ratings/products/not-a-uuid", "", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *CatalogAPITestSuite) TestListAllRatingsIsAdminOnly() {
	w, _ := s.do(http.MethodGet, "/ratings", s.annToken, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodGet, "/ratings", s.adminToken, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *CatalogAPITestSuite) TestDeleteProduct() {
	product := s.createProduct(5)
	path := "/products/" + product.ID.String()

	w, _ := s.do(http.MethodDelete, path, s.adminToken, nil)
	s.Equal(http.StatusOK, w.Code)

	w, _ = s.do(http.MethodGet, path, "", nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Contains(s.recorder.Types(), events.ProductDeleted)
}
