// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/sweets-storefront/internal/interfaces/http/handlers"
	"github.com/your-org/sweets-storefront/internal/interfaces/http/middleware"
)

// Handlers groups every API handler
type Handlers struct {
	Session      *handlers.SessionHandler
	Product      *handlers.ProductHandler
	Review       *handlers.ReviewHandler
	Content      *handlers.ContentHandler
	Cart         *handlers.CartHandler
	Address      *handlers.AddressHandler
	Checkout     *handlers.CheckoutHandler
	Order        *handlers.OrderHandler
	Notification *handlers.NotificationHandler
	SignInURL    string
}

// SetupRoutes registers all API routes on rg. rg must already carry the Shopper middleware.
func SetupRoutes(rg *gin.RouterGroup, h Handlers) {
	SetupSessionRoutes(rg, h)
	SetupCatalogRoutes(rg, h)
	SetupContentRoutes(rg, h)
	SetupCartRoutes(rg, h)
	SetupAddressRoutes(rg, h)
	SetupCheckoutRoutes(rg, h)
	SetupOrderRoutes(rg, h)
	SetupNotificationRoutes(rg, h)
}

// SetupSessionRoutes sets up the identity provider bridge
func SetupSessionRoutes(rg *gin.RouterGroup, h Handlers) {
	session := rg.Group("/session")
	{
		session.GET("", h.Session.GetSession)
		session.POST("", h.Session.SignIn)
		session.DELETE("", h.Session.SignOut)
	}
}

// SetupCatalogRoutes sets up product, category and review routes
func SetupCatalogRoutes(rg *gin.RouterGroup, h Handlers) {
	products := rg.Group("/products")
	{
		products.GET("", h.Product.ListProducts)
		products.GET("/:id", h.Product.GetProduct)
		products.GET("/:id/reviews", h.Review.ListReviews)
		products.POST("/:id/reviews", middleware.RequireSignIn(h.SignInURL), h.Review.CreateReview)
	}

	categories := rg.Group("/categories")
	{
		categories.GET("", h.Product.ListCategories)
		categories.GET("/:id", h.Product.GetCategory)
	}
}

// SetupContentRoutes sets up the static content routes
func SetupContentRoutes(rg *gin.RouterGroup, h Handlers) {
	rg.GET("/faqs", h.Content.ListFAQs)
	rg.GET("/sliders", h.Content.ListSliders)
	rg.GET("/branches/main", h.Content.MainBranch)
}

// SetupCartRoutes sets up cart routes
func SetupCartRoutes(rg *gin.RouterGroup, h Handlers) {
	cart := rg.Group("/cart")
	cart.Use(middleware.RequireSignIn(h.SignInURL))
	{
		cart.GET("", h.Cart.GetCart)
		cart.POST("/items", h.Cart.AddToCart)
	}
}

// SetupAddressRoutes sets up delivery address routes
func SetupAddressRoutes(rg *gin.RouterGroup, h Handlers) {
	addresses := rg.Group("/addresses")
	addresses.Use(middleware.RequireSignIn(h.SignInURL))
	{
		addresses.GET("", h.Address.ListAddresses)
		addresses.POST("", h.Address.CreateAddress)
		addresses.PATCH("/:id", h.Address.UpdateAddress)
		addresses.POST("/:id/default", h.Address.SetDefaultAddress)
		addresses.POST("/:id/select", h.Address.SelectAddress)
	}
}

// SetupCheckoutRoutes sets up checkout and payment callback routes
func SetupCheckoutRoutes(rg *gin.RouterGroup, h Handlers) {
	checkout := rg.Group("/checkout")
	checkout.Use(middleware.RequireSignIn(h.SignInURL))
	{
		checkout.GET("", h.Checkout.GetCheckout)
		checkout.POST("", h.Checkout.BeginCheckout)
		checkout.GET("/attempts", h.Checkout.ListAttempts)
		checkout.POST("/payment/success", h.Checkout.PaymentSuccess)
		checkout.POST("/payment/failure", h.Checkout.PaymentFailure)
	}
}

// SetupOrderRoutes sets up order history routes
func SetupOrderRoutes(rg *gin.RouterGroup, h Handlers) {
	orders := rg.Group("/orders")
	orders.Use(middleware.RequireSignIn(h.SignInURL))
	{
		orders.GET("", h.Order.ListOrders)
	}
}

// SetupNotificationRoutes sets up toast routes
func SetupNotificationRoutes(rg *gin.RouterGroup, h Handlers) {
	notifications := rg.Group("/notifications")
	{
		notifications.GET("", h.Notification.ListNotifications)
		notifications.DELETE("", h.Notification.ClearNotifications)
		notifications.DELETE("/:id", h.Notification.DismissNotification)
	}
}
