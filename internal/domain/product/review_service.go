// internal/domain/product/review_service.go
package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/your-org/sweets-storefront/internal/infrastructure/commerce"
	"github.com/your-org/sweets-storefront/internal/pkg/validation"
)

// ReviewAPI is the part of the commerce client serving ratings
type ReviewAPI interface {
	ListRatings(ctx context.Context, contentType string, objectID int) ([]commerce.Rating, error)
	CreateRating(ctx context.Context, token string, req commerce.RatingRequest) (*commerce.Rating, error)
}

// CreateReviewRequest represents the request to review a product
type CreateReviewRequest struct {
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
	Review string `json:"review" binding:"required,max=2000"`
}

// ReviewSummary is the review list of a product with its average
type ReviewSummary struct {
	Reviews       []commerce.Rating `json:"reviews"`
	Count         int               `json:"count"`
	AverageRating float64           `json:"average_rating"`
}

// ReviewService handles product reviews
type ReviewService struct {
	api      ReviewAPI
	validate *validator.Validate
	logger   *logrus.Entry
}

// NewReviewService creates a new review service
func NewReviewService(api ReviewAPI, logger *logrus.Logger) *ReviewService {
	return &ReviewService{
		api:      api,
		validate: validation.New(),
		logger:   logger.WithField("component", "reviews"),
	}
}

// List returns the reviews of a product
func (s *ReviewService) List(ctx context.Context, productID int) (*ReviewSummary, error) {
	ratings, err := s.api.ListRatings(ctx, commerce.ContentTypeProduct, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	summary := &ReviewSummary{Reviews: ratings, Count: len(ratings)}
	if summary.Reviews == nil {
		summary.Reviews = []commerce.Rating{}
	}
	if len(ratings) > 0 {
		total := 0
		for _, r := range ratings {
			total += r.Rating
		}
		summary.AverageRating = float64(total*10/len(ratings)) / 10
	}
	return summary, nil
}

// Create submits a review. Invalid requests never reach the commerce API.
func (s *ReviewService) Create(ctx context.Context, token string, productID int, req CreateReviewRequest) (*commerce.Rating, error) {
	req.Review = strings.TrimSpace(req.Review)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	rating, err := s.api.CreateRating(ctx, token, commerce.RatingRequest{
		ContentType: commerce.ContentTypeProduct,
		ObjectID:    productID,
		Rating:      req.Rating,
		Review:      req.Review,
	})
	if err != nil {
		s.logger.WithError(err).WithField("product_id", productID).Error("Failed to create review")
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return rating, nil
}
