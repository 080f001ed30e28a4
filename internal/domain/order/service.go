// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/your-org/sweets-storefront/internal/domain/cart"
	"github.com/your-org/sweets-storefront/internal/infrastructure/commerce"
)

// ErrInvalidStatus is returned when the history is asked for draft carts
var ErrInvalidStatus = errors.New("draft carts are not orders")

// API is the part of the commerce client the order history needs
type API interface {
	ListCarts(ctx context.Context, token, status string) ([]commerce.Cart, error)
}

// Order is a checked-out cart with its display totals
type Order struct {
	commerce.Cart
	Summary cart.Summary `json:"summary"`
}

// Service reads the order history. Orders are carts the commerce API moved past DRAFT.
type Service struct {
	api    API
	logger *logrus.Entry
}

// NewService creates a new order service
func NewService(api API, logger *logrus.Logger) *Service {
	return &Service{
		api:    api,
		logger: logger.WithField("component", "orders"),
	}
}

// List returns the user's orders with the given status, newest first.
// An empty status means CHECKOUT.
func (s *Service) List(ctx context.Context, token, status string) ([]Order, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if status == "" {
		status = commerce.CartStatusCheckout
	}
	if status == commerce.CartStatusDraft {
		return nil, ErrInvalidStatus
	}

	carts, err := s.api.ListCarts(ctx, token, status)
	if err != nil {
		s.logger.WithError(err).WithField("status", status).Error("Failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := make([]Order, 0, len(carts))
	for _, c := range carts {
		orders = append(orders, Order{
			Cart:    c,
			Summary: cart.Summarize([]commerce.Cart{c}),
		})
	}

	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i].CreatedAt, orders[j].CreatedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return orders, nil
}
