// internal/interfaces/http/handlers/order.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/sweets-storefront/internal/domain/order"
	"github.com/your-org/sweets-storefront/internal/interfaces/http/middleware"
)

// OrderHandler serves the order history
type OrderHandler struct {
	orders    *order.Service
	signInURL string
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *order.Service, signInURL string) *OrderHandler {
	return &OrderHandler{orders: orders, signInURL: signInURL}
}

// ListOrders handles GET /orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	s := middleware.ShopperFromContext(c)

	orders, err := h.orders.List(c.Request.Context(), s.Gate.Token(), c.Query("status"))
	if errors.Is(err, order.ErrInvalidStatus) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order status",
		})
		return
	}
	if err != nil {
		respondError(c, h.signInURL, err, "Failed to retrieve orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    orders,
	})
}
