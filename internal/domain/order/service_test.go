package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/sweets-storefront/internal/infrastructure/commerce"
	"github.com/your-org/sweets-storefront/internal/pkg/logger"
)

type fakeAPI struct {
	carts  []commerce.Cart
	err    error
	status string
	token  string
}

func (f *fakeAPI) ListCarts(_ context.Context, token, status string) ([]commerce.Cart, error) {
	f.token, f.status = token, status
	return f.carts, f.err
}

func at(day int) *time.Time {
	t := time.Date(2026, 3, day, 12, 0, 0, 0, time.UTC)
	return &t
}

func TestList_DefaultsToCheckedOut(t *testing.T) {
	api := &fakeAPI{}
	svc := NewService(api, logger.Discard())

	orders, err := svc.List(context.Background(), "tok", "")

	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.NotNil(t, orders)
	assert.Equal(t, commerce.CartStatusCheckout, api.status)
	assert.Equal(t, "tok", api.token)
}

func TestList_NormalizesStatus(t *testing.T) {
	api := &fakeAPI{}
	svc := NewService(api, logger.Discard())

	_, err := svc.List(context.Background(), "tok", " delivered ")

	require.NoError(t, err)
	assert.Equal(t, "DELIVERED", api.status)
}

func TestList_RejectsDraft(t *testing.T) {
	api := &fakeAPI{}
	svc := NewService(api, logger.Discard())

	_, err := svc.List(context.Background(), "tok", "draft")

	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Empty(t, api.status)
}

func TestList_NewestFirstWithTotals(t *testing.T) {
	api := &fakeAPI{carts: []commerce.Cart{
		{ID: 1, Status: "CHECKOUT", CreatedAt: at(1)},
		{ID: 2, Status: "CHECKOUT"},
		{ID: 3, Status: "CHECKOUT", CreatedAt: at(5), Items: []commerce.LineItem{
			{ID: 9, Count: 2, Price: decimal.NewFromInt(250)},
		}},
	}}
	svc := NewService(api, logger.Discard())

	orders, err := svc.List(context.Background(), "tok", "")

	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, []int{3, 1, 2}, []int{orders[0].ID, orders[1].ID, orders[2].ID})
	assert.True(t, orders[0].Summary.Subtotal.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, 2, orders[0].Summary.ItemCount)
}

func TestList_PropagatesUnauthorized(t *testing.T) {
	api := &fakeAPI{err: commerce.ErrUnauthorized}
	svc := NewService(api, logger.Discard())

	_, err := svc.List(context.Background(), "tok", "")

	assert.True(t, commerce.IsUnauthorized(err))
	assert.False(t, errors.Is(err, ErrInvalidStatus))
}
