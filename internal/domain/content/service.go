// internal/domain/content/service.go
package content

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/sweets-storefront/internal/infrastructure/cache"
	"github.com/your-org/sweets-storefront/internal/infrastructure/commerce"
)

// API is the part of the commerce client serving static content
type API interface {
	ListFAQs(ctx context.Context) ([]commerce.FAQ, error)
	ListSliders(ctx context.Context) ([]commerce.Slider, error)
	MainBranch(ctx context.Context) (*commerce.Branch, error)
}

// Service serves cached static content
type Service struct {
	api    API
	cache  *cache.Cache
	ttl    time.Duration
	logger *logrus.Entry
}

// NewService creates a new content service
func NewService(api API, c *cache.Cache, ttl time.Duration, logger *logrus.Logger) *Service {
	return &Service{
		api:    api,
		cache:  c,
		ttl:    ttl,
		logger: logger.WithField("component", "content"),
	}
}

// FAQs returns the frequently asked questions
func (s *Service) FAQs(ctx context.Context) ([]commerce.FAQ, error) {
	faqs, err := cache.Fetch(ctx, s.cache, "faqs", s.ttl, s.api.ListFAQs)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load FAQs")
		return nil, fmt.Errorf("failed to load faqs: %w", err)
	}
	return nonNil(faqs), nil
}

// Sliders returns the home page banners
func (s *Service) Sliders(ctx context.Context) ([]commerce.Slider, error) {
	sliders, err := cache.Fetch(ctx, s.cache, "sliders", s.ttl, s.api.ListSliders)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load sliders")
		return nil, fmt.Errorf("failed to load sliders: %w", err)
	}
	return nonNil(sliders), nil
}

// MainBranch returns the flagship shop
func (s *Service) MainBranch(ctx context.Context) (*commerce.Branch, error) {
	branch, err := cache.Fetch(ctx, s.cache, "branch:main", s.ttl, s.api.MainBranch)
	if err != nil {
		return nil, fmt.Errorf("failed to load main branch: %w", err)
	}
	return branch, nil
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
