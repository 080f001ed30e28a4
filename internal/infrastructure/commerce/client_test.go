package commerce

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/sweets-storefront/internal/config"
	"github.com/your-org/sweets-storefront/internal/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.CommerceConfig{BaseURL: srv.URL + "/", Timeout: 5 * time.Second}, logger.Discard())
}

func TestListProducts_EncodesFilters(t *testing.T) {
	discounted := true
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cms/products/", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "12", q.Get("page_size"))
		assert.Equal(t, "ladoo", q.Get("search"))
		assert.Equal(t, "3", q.Get("category"))
		assert.Equal(t, "100", q.Get("min_price"))
		assert.Equal(t, "true", q.Get("is_discounted"))
		assert.Empty(t, r.Header.Get("Authorization"))

		w.Write([]byte(`{"count":1,"next":null,"previous":null,"results":[
			{"id":7,"title":"Motichoor Ladoo","category":3,"price":"300.00","discounted_price":"250.00",
			 "items":[{"id":11,"quantity":250,"price":"300.00","discounted_price":"250.00"}]}]}`))
	})

	page, err := client.ListProducts(context.Background(), ProductQuery{
		Page: 2, PageSize: 12, Search: "ladoo", Category: 3, MinPrice: "100", Discounted: &discounted,
	})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, 1, page.Count)
	assert.Equal(t, "Motichoor Ladoo", page.Results[0].Title)
	assert.True(t, decimal.RequireFromString("250").Equal(page.Results[0].Items[0].DiscountedPrice))
}

func TestListCarts_SendsBearerAndAcceptsBareArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cms/carts/", r.URL.Path)
		assert.Equal(t, "DRAFT", r.URL.Query().Get("status"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`[{"id":1,"status":"DRAFT","items":[{"id":5,"content_type":"item","object_id":11,"count":2}]}]`))
	})

	carts, err := client.ListCarts(context.Background(), "tok", CartStatusDraft)
	require.NoError(t, err)
	require.Len(t, carts, 1)
	assert.Equal(t, 2, carts[0].Items[0].Count)
}

func TestListCarts_AcceptsPaginatedEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"count":2,"results":[{"id":1,"status":"DRAFT"},{"id":2,"status":"DRAFT"}]}`))
	})

	carts, err := client.ListCarts(context.Background(), "tok", CartStatusDraft)
	require.NoError(t, err)
	assert.Len(t, carts, 2)
}

func TestUnauthorizedIsSentinel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"token expired"}`))
	})

	_, err := client.Me(context.Background(), "stale")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
}

func TestNon2xxIsAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"object_id":["invalid"]}`))
	})

	err := client.AddToCart(context.Background(), "tok", AddToCartRequest{ContentType: ContentTypeItem, ObjectID: 1})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "/cms/carts/add/", apiErr.Path)
	assert.False(t, IsUnauthorized(err))
}

func TestAddToCart_Body(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "item", body["content_type"])
		assert.Equal(t, float64(11), body["object_id"])
		w.WriteHeader(http.StatusCreated)
	})

	err := client.AddToCart(context.Background(), "tok", AddToCartRequest{ContentType: ContentTypeItem, ObjectID: 11})
	assert.NoError(t, err)
}

func TestCheckout_DecodesAmount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cms/carts/9/checkout/", r.URL.Path)
		var body CheckoutRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 4, body.Address)
		w.Write([]byte(`{"amount":250,"order_id":"order_abc","title":"Sweets"}`))
	})

	resp, err := client.Checkout(context.Background(), "tok", 9, CheckoutRequest{Address: 4})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", resp.OrderID)
	assert.True(t, resp.Amount.Equal(decimal.NewFromInt(250)))
}

func TestValidatePayment_OnlyNoContentSucceeds(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "no content", status: http.StatusNoContent},
		{name: "ok with json body", status: http.StatusOK, body: `{"error":"signature mismatch"}`, wantErr: ErrPaymentNotVerified},
		{name: "created", status: http.StatusCreated, body: `{}`, wantErr: ErrPaymentNotVerified},
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/cms/carts/9/validate_payment/", r.URL.Path)
				var conf PaymentConfirmation
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&conf))
				assert.Equal(t, "pay_1", conf.RazorpayPaymentID)
				w.WriteHeader(tt.status)
				if tt.body != "" {
					w.Write([]byte(tt.body))
				}
			})

			err := client.ValidatePayment(context.Background(), "tok", 9, PaymentConfirmation{
				RazorpayOrderID: "order_abc", RazorpayPaymentID: "pay_1", RazorpaySignature: "sig",
			})
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidatePayment_ServerErrorIsFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := client.ValidatePayment(context.Background(), "tok", 9, PaymentConfirmation{})
	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestTransportErrorIsWrapped(t *testing.T) {
	client := NewClient(config.CommerceConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, logger.Discard())

	_, err := client.ListFAQs(context.Background())
	require.Error(t, err)
	assert.False(t, IsUnauthorized(err))
	assert.Contains(t, err.Error(), "/cms/faqs/")
}

func TestMainBranch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("is_main"))
		w.Write([]byte(`[{"id":1,"name":"Main","is_main":true}]`))
	})

	branch, err := client.MainBranch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Main", branch.Name)
}

func TestMainBranch_NoneIsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := client.MainBranch(context.Background())
	assert.True(t, IsNotFound(err))
}

func TestUpdateAddress_SendsOnlyPatchedFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/iam/addresses/3/", r.URL.Path)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"is_default": true}, body)
		w.Write([]byte(`{"id":3,"is_default":true}`))
	})

	isDefault := true
	addr, err := client.UpdateAddress(context.Background(), "tok", 3, AddressPatch{IsDefault: &isDefault})
	require.NoError(t, err)
	assert.True(t, addr.IsDefault)
}
