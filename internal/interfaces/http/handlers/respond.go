// internal/interfaces/http/handlers/respond.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/sweets-storefront/internal/domain/cart"
	"github.com/your-org/sweets-storefront/internal/domain/checkout"
	"github.com/your-org/sweets-storefront/internal/infrastructure/commerce"
	"github.com/your-org/sweets-storefront/internal/interfaces/http/middleware"
	"github.com/your-org/sweets-storefront/internal/pkg/validation"
)

// respondError maps an error to a plain-language JSON response. A commerce 401
// drops the shopper's session before answering.
func respondError(c *gin.Context, signInURL string, err error, message string) {
	switch {
	case commerce.IsUnauthorized(err):
		if s := middleware.ShopperFromContext(c); s != nil {
			s.Gate.ForceSignOut("commerce api returned 401")
		}
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":    checkout.AlertSessionExpired,
			"redirect": signInURL,
		})
	case errors.Is(err, cart.ErrNotAuthenticated), errors.Is(err, checkout.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":    checkout.AlertSignIn,
			"redirect": signInURL,
		})
	case validation.FieldErrors(err) != nil:
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": validation.FieldErrors(err),
		})
	case commerce.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "We couldn't find what you were looking for.",
		})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"error": "The request took too long. Please try again.",
		})
	default:
		c.JSON(http.StatusBadGateway, gin.H{
			"error": message,
		})
	}
}

// badRequest answers a request that failed binding
func badRequest(c *gin.Context, err error) {
	if details := validation.FieldErrors(err); details != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": details,
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"error": "Invalid request data",
	})
}

// idParam parses a positive integer path parameter
func idParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name,
		})
		return 0, false
	}
	return id, true
}
