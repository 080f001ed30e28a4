// internal/interfaces/http/handlers/review.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/sweets-storefront/internal/domain/product"
	"github.com/your-org/sweets-storefront/internal/interfaces/http/middleware"
)

// ReviewHandler handles product review endpoints
type ReviewHandler struct {
	reviews   *product.ReviewService
	signInURL string
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviews *product.ReviewService, signInURL string) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, signInURL: signInURL}
}

// ListReviews handles GET /products/:id/reviews
func (h *ReviewHandler) ListReviews(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}

	summary, err := h.reviews.List(c.Request.Context(), productID)
	if err != nil {
		respondError(c, h.signInURL, err, "Failed to retrieve reviews")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Reviews retrieved successfully",
		"data":    summary,
	})
}

// CreateReview handles POST /products/:id/reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req product.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	s := middleware.ShopperFromContext(c)
	rating, err := h.reviews.Create(c.Request.Context(), s.Gate.Token(), productID, req)
	if err != nil {
		respondError(c, h.signInURL, err, "We couldn't post your review. Please try again.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Review posted successfully",
		"data":    rating,
	})
}
