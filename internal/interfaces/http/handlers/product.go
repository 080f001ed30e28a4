// internal/interfaces/http/handlers/product.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/sweets-storefront/internal/domain/product"
	"github.com/your-org/sweets-storefront/internal/infrastructure/commerce"
)

// ProductHandler handles catalog endpoints
type ProductHandler struct {
	products *product.Service
}

// NewProductHandler creates a new product handler
func NewProductHandler(products *product.Service) *ProductHandler {
	return &ProductHandler{products: products}
}

// ListProducts handles GET /products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var q commerce.ProductQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.products.ListProducts(c.Request.Context(), q)
	if err != nil {
		respondError(c, "", err, "Failed to retrieve products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Products retrieved successfully",
		"data":    resp,
	})
}

// GetProduct handles GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	p, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, "", err, "Failed to retrieve product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product retrieved successfully",
		"data":    p,
	})
}

// ListCategories handles GET /categories
func (h *ProductHandler) ListCategories(c *gin.Context) {
	var q commerce.CategoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	page, err := h.products.ListCategories(c.Request.Context(), q)
	if err != nil {
		respondError(c, "", err, "Failed to retrieve categories")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Categories retrieved successfully",
		"data":    page,
	})
}

// GetCategory handles GET /categories/:id
func (h *ProductHandler) GetCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	category, err := h.products.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, "", err, "Failed to retrieve category")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Category retrieved successfully",
		"data":    category,
	})
}
