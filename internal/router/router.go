// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/shop-catalog/internal/config"
	"github.com/javajoker/shop-catalog/internal/handlers"
	"github.com/javajoker/shop-catalog/internal/middleware"
	"github.com/javajoker/shop-catalog/internal/services"
)

// Handlers are the request handlers mounted by Initialize.
type Handlers struct {
	Auth    *handlers.AuthHandler
	User    *handlers.UserHandler
	Product *handlers.ProductHandler
	Rating  *handlers.RatingHandler
	Catalog *handlers.CatalogHandler
	Cart    *handlers.CartHandler
	Contact *handlers.ContactHandler
}

func Initialize(cfg *config.Config, h Handlers, revoked middleware.RevocationChecker, limiters *middleware.Limiters) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.I18nMiddleware())
	r.Use(limiters.General.Middleware())

	authRequired := middleware.AuthRequired(revoked)
	optionalAuth := middleware.OptionalAuth(revoked)
	adminRequired := []gin.HandlerFunc{authRequired, middleware.AdminRequired()}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// Locally stored uploads; S3 URLs are absolute and never hit this route.
	r.Static(services.LocalURLPrefix, cfg.Upload.Dir)

	users := r.Group("/users")
	{
		auth := users.Group("")
		auth.Use(limiters.Auth.Middleware())
		{
			auth.POST("/signup", h.Auth.Signup)
			auth.POST("/login", h.Auth.Login)
		}
		users.POST("/logout", authRequired, h.Auth.Logout)
		users.GET("/allusers", append(adminRequired, h.User.GetUsers)...)

		protected := users.Group("")
		protected.Use(authRequired)
		{
			protected.GET("/:id", h.User.GetUser)
			protected.PUT("/:id", h.User.UpdateUser)
			protected.DELETE("/:id", h.User.DeleteUser)
		}
	}

	categories := r.Group("/categories")
	{
		categories.GET("", h.Catalog.GetCategories)
		categories.GET("/:id", h.Catalog.GetCategory)
		categories.POST("", append(adminRequired, h.Catalog.CreateCategory)...)
		categories.PUT("/:id", append(adminRequired, h.Catalog.UpdateCategory)...)
		categories.DELETE("/:id", append(adminRequired, h.Catalog.DeleteCategory)...)
	}

	collections := r.Group("/collections")
	{
		collections.GET("", h.Catalog.GetCollections)
		collections.GET("/:id", h.Catalog.GetCollection)
		collections.POST("", append(adminRequired, limiters.Upload.Middleware(), h.Catalog.CreateCollection)...)
		collections.PUT("/:id", append(adminRequired, limiters.Upload.Middleware(), h.Catalog.UpdateCollection)...)
		collections.DELETE("/:id", append(adminRequired, h.Catalog.DeleteCollection)...)
	}

	sizes := r.Group("/sizes")
	{
		sizes.GET("", h.Catalog.GetSizes)
		sizes.GET("/:id", h.Catalog.GetSize)
		sizes.POST("", append(adminRequired, h.Catalog.CreateSize)...)
		sizes.PUT("/:id", append(adminRequired, h.Catalog.UpdateSize)...)
		sizes.DELETE("/:id", append(adminRequired, h.Catalog.DeleteSize)...)
	}

	colors := r.Group("/colors")
	{
		colors.GET("", h.Catalog.GetColors)
		colors.GET("/:id", h.Catalog.GetColor)
		colors.POST("", append(adminRequired, h.Catalog.CreateColor)...)
		colors.PUT("/:id", append(adminRequired, h.Catalog.UpdateColor)...)
		colors.DELETE("/:id", append(adminRequired, h.Catalog.DeleteColor)...)
	}

	products := r.Group("/products")
	{
		products.GET("", h.Product.GetProducts)
		products.GET("/:id", h.Product.GetProduct)
		products.POST("/order", authRequired, h.Product.OrderProduct)

		admin := products.Group("")
		admin.Use(adminRequired...)
		{
			admin.POST("", limiters.Upload.Middleware(), h.Product.CreateProduct)
			admin.PUT("/:id", limiters.Upload.Middleware(), h.Product.UpdateProduct)
			admin.DELETE("/:id", h.Product.DeleteProduct)
		}
	}

	ratings := r.Group("/ratings")
	{
		ratings.GET("", append(adminRequired, h.Rating.GetAllRatings)...)
		ratings.GET("/products/:productId", optionalAuth, h.Rating.GetProductRatings)
		ratings.POST("", authRequired, h.Rating.UpsertRating)
		ratings.DELETE("/:ratingId", authRequired, h.Rating.DeleteRating)
	}

	cart := r.Group("/cart")
	cart.Use(authRequired)
	{
		cart.POST("/add", h.Cart.AddToCart)
		cart.GET("/get/:userId", h.Cart.GetCart)
		cart.PUT("/update/:cartId", h.Cart.UpdateCart)
		cart.DELETE("/remove/:cartId", h.Cart.RemoveFromCart)
	}

	contacts := r.Group("/contacts")
	{
		contacts.POST("/addContact", h.Contact.AddContact)
		contacts.GET("/getContact", append(adminRequired, h.Contact.GetContacts)...)
		contacts.DELETE("/remove/:id", append(adminRequired, h.Contact.RemoveContact)...)
	}

	return r
}
