// internal/domain/product/service.go
package product

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/sweets-storefront/internal/infrastructure/cache"
	"github.com/your-org/sweets-storefront/internal/infrastructure/commerce"
)

// CatalogAPI is the part of the commerce client serving public catalog reads
type CatalogAPI interface {
	ListProducts(ctx context.Context, q commerce.ProductQuery) (*commerce.Page[commerce.Product], error)
	GetProduct(ctx context.Context, id int) (*commerce.Product, error)
	ListCategories(ctx context.Context, q commerce.CategoryQuery) (*commerce.Page[commerce.Category], error)
	GetCategory(ctx context.Context, id int) (*commerce.Category, error)
}

// ProductView is a product with its display pricing
type ProductView struct {
	commerce.Product
	Pricing Pricing `json:"pricing"`
}

// ProductListResponse is a page of products
type ProductListResponse struct {
	Count    int           `json:"count"`
	Next     *string       `json:"next"`
	Previous *string       `json:"previous"`
	Products []ProductView `json:"products"`
}

// Service handles catalog reads
type Service struct {
	api    CatalogAPI
	cache  *cache.Cache
	ttl    time.Duration
	logger *logrus.Entry
}

// NewService creates a new catalog service. A zero ttl disables caching.
func NewService(api CatalogAPI, c *cache.Cache, ttl time.Duration, logger *logrus.Logger) *Service {
	return &Service{
		api:    api,
		cache:  c,
		ttl:    ttl,
		logger: logger.WithField("component", "catalog"),
	}
}

// ListProducts returns a page of products matching q
func (s *Service) ListProducts(ctx context.Context, q commerce.ProductQuery) (*ProductListResponse, error) {
	key := "products:" + q.Values().Encode()
	page, err := cache.Fetch(ctx, s.cache, key, s.ttl, func(ctx context.Context) (*commerce.Page[commerce.Product], error) {
		return s.api.ListProducts(ctx, q)
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to list products")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	resp := &ProductListResponse{
		Count:    page.Count,
		Next:     page.Next,
		Previous: page.Previous,
		Products: make([]ProductView, len(page.Results)),
	}
	for i := range page.Results {
		resp.Products[i] = view(page.Results[i])
	}
	return resp, nil
}

// GetProduct returns one product with pricing
func (s *Service) GetProduct(ctx context.Context, id int) (*ProductView, error) {
	p, err := s.product(ctx, id)
	if err != nil {
		return nil, err
	}
	v := view(*p)
	return &v, nil
}

// Product returns the raw product, used to resolve cart entities
func (s *Service) Product(ctx context.Context, id int) (*commerce.Product, error) {
	return s.product(ctx, id)
}

func (s *Service) product(ctx context.Context, id int) (*commerce.Product, error) {
	p, err := cache.Fetch(ctx, s.cache, "product:"+strconv.Itoa(id), s.ttl, func(ctx context.Context) (*commerce.Product, error) {
		return s.api.GetProduct(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return p, nil
}

// ListCategories returns a page of categories
func (s *Service) ListCategories(ctx context.Context, q commerce.CategoryQuery) (*commerce.Page[commerce.Category], error) {
	key := "categories:" + q.Values().Encode()
	page, err := cache.Fetch(ctx, s.cache, key, s.ttl, func(ctx context.Context) (*commerce.Page[commerce.Category], error) {
		return s.api.ListCategories(ctx, q)
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to list categories")
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return page, nil
}

// GetCategory returns one category
func (s *Service) GetCategory(ctx context.Context, id int) (*commerce.Category, error) {
	c, err := cache.Fetch(ctx, s.cache, "category:"+strconv.Itoa(id), s.ttl, func(ctx context.Context) (*commerce.Category, error) {
		return s.api.GetCategory(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get category %d: %w", id, err)
	}
	return c, nil
}

func view(p commerce.Product) ProductView {
	return ProductView{Product: p, Pricing: PriceOf(&p)}
}
