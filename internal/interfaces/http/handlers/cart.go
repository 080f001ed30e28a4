// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/sweets-storefront/internal/domain/cart"
	"github.com/your-org/sweets-storefront/internal/domain/notification"
	"github.com/your-org/sweets-storefront/internal/domain/product"
	"github.com/your-org/sweets-storefront/internal/domain/storefront"
	"github.com/your-org/sweets-storefront/internal/infrastructure/commerce"
	"github.com/your-org/sweets-storefront/internal/interfaces/http/middleware"
)

// ProductFinder loads the product an add-to-cart request refers to
type ProductFinder interface {
	Product(ctx context.Context, id int) (*commerce.Product, error)
}

// AddToCartRequest represents the request to add a product or one of its variants
type AddToCartRequest struct {
	ProductID int   `json:"product_id" binding:"required,min=1"`
	ItemID    int   `json:"item_id" binding:"omitempty,min=1"`
	Notify    *bool `json:"notify"`
}

// CartView is the shopper's cart as rendered by the header badge and cart page
type CartView struct {
	Carts     []commerce.Cart      `json:"carts"`
	ItemCount int                  `json:"item_count"`
	Summary   cart.Summary         `json:"summary"`
	AddState  string               `json:"add_state"`
	Toasts    []notification.Toast `json:"toasts"`
}

// CartHandler handles cart endpoints
type CartHandler struct {
	products  ProductFinder
	signInURL string
}

// NewCartHandler creates a new cart handler
func NewCartHandler(products ProductFinder, signInURL string) *CartHandler {
	return &CartHandler{products: products, signInURL: signInURL}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	s := middleware.ShopperFromContext(c)

	if err := s.Cart.FetchCart(c.Request.Context()); err != nil {
		respondError(c, h.signInURL, err, "Failed to retrieve cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    cartView(s),
	})
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	s := middleware.ShopperFromContext(c)

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.products.Product(c.Request.Context(), req.ProductID)
	if err != nil {
		respondError(c, h.signInURL, err, "Failed to retrieve product")
		return
	}

	entity, err := product.ResolveEntity(p, req.ItemID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": variantMessage(err),
		})
		return
	}

	notify := req.Notify == nil || *req.Notify
	err = s.Cart.AddToCart(c.Request.Context(), entity, notify)
	switch {
	case err == nil:
	case errors.Is(err, cart.ErrAddInFlight):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Still adding your last item. Please wait a moment.",
		})
		return
	default:
		// The manager already raised the failure toast
		respondError(c, h.signInURL, err, "We couldn't add this item to your cart. Please try again.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart successfully",
		"data":    cartView(s),
	})
}

func cartView(s *storefront.Shopper) CartView {
	return CartView{
		Carts:     s.Cart.Carts(),
		ItemCount: s.Cart.ItemCount(),
		Summary:   s.Cart.Summary(),
		AddState:  s.Cart.AddState().String(),
		Toasts:    s.Toasts.List(),
	}
}

func variantMessage(err error) string {
	switch {
	case errors.Is(err, product.ErrVariantRequired):
		return "Please choose a size before adding to cart."
	case errors.Is(err, product.ErrUnknownVariant):
		return "The selected size is not available for this product."
	default:
		return "This product cannot be added to the cart."
	}
}
