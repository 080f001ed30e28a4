package checkout

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/sweets-storefront/internal/config"
	"github.com/your-org/sweets-storefront/internal/domain/payment"
	"github.com/your-org/sweets-storefront/internal/domain/session"
	"github.com/your-org/sweets-storefront/internal/infrastructure/commerce"
	"github.com/your-org/sweets-storefront/internal/pkg/logger"
)

type fakeAPI struct {
	resp         *commerce.CheckoutResponse
	checkoutErr  error
	validateErr  error
	checkouts    []commerce.CheckoutRequest
	checkoutCart []int
	validations  []commerce.PaymentConfirmation
}

func (f *fakeAPI) Checkout(ctx context.Context, token string, cartID int, req commerce.CheckoutRequest) (*commerce.CheckoutResponse, error) {
	f.checkouts = append(f.checkouts, req)
	f.checkoutCart = append(f.checkoutCart, cartID)
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	return f.resp, nil
}

func (f *fakeAPI) ValidatePayment(ctx context.Context, token string, cartID int, conf commerce.PaymentConfirmation) error {
	f.validations = append(f.validations, conf)
	return f.validateErr
}

type fakeCarts struct {
	cart     *commerce.Cart
	fetches  int
	fetchErr error
	// loaded is the cart that appears after the first fetch
	loaded *commerce.Cart
}

func (f *fakeCarts) DraftCart() (commerce.Cart, bool) {
	if f.cart == nil {
		return commerce.Cart{}, false
	}
	return *f.cart, true
}

func (f *fakeCarts) FetchCart(ctx context.Context) error {
	f.fetches++
	if f.fetchErr != nil {
		return f.fetchErr
	}
	if f.loaded != nil {
		f.cart = f.loaded
	}
	return nil
}

type fakeWidget struct {
	keyConfigured bool
	loaded        bool
	opened        []payment.Options
}

func (f *fakeWidget) KeyConfigured() bool { return f.keyConfigured }
func (f *fakeWidget) Loaded() bool        { return f.loaded }

func (f *fakeWidget) Open(ctx context.Context, opts payment.Options) (*payment.WidgetOptions, error) {
	f.opened = append(f.opened, opts)
	return &payment.WidgetOptions{Key: "rzp_test_key", OrderID: opts.OrderID, Prefill: opts.Prefill}, nil
}

type fakeGate struct {
	identity session.Identity
	forced   []string
}

func (f *fakeGate) Token() string             { return f.identity.Token }
func (f *fakeGate) Current() session.Identity { return f.identity }
func (f *fakeGate) ForceSignOut(reason string) {
	f.forced = append(f.forced, reason)
	f.identity = session.Identity{}
}

type recorder struct {
	mu       sync.Mutex
	attempts []Attempt
}

func (r *recorder) Record(ctx context.Context, a *Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, *a)
	return nil
}

func (r *recorder) states() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]State, len(r.attempts))
	for i, a := range r.attempts {
		out[i] = a.State
	}
	return out
}

type harness struct {
	flow     *Flow
	api      *fakeAPI
	carts    *fakeCarts
	widget   *fakeWidget
	gate     *fakeGate
	recorder *recorder
}

func oneItemCart() *commerce.Cart {
	return &commerce.Cart{
		ID:     3,
		Status: commerce.CartStatusDraft,
		Items: []commerce.LineItem{
			{ID: 1, ContentType: "item", ObjectID: 11, Count: 1, Title: "Kaju Katli", Quantity: 250, Price: decimal.NewFromInt(250)},
		},
		DiscountedTotal: decimal.NewFromInt(250),
	}
}

func newHarness(resp *commerce.CheckoutResponse) *harness {
	h := &harness{
		api:    &fakeAPI{resp: resp},
		carts:  &fakeCarts{cart: oneItemCart()},
		widget: &fakeWidget{keyConfigured: true, loaded: true},
		gate: &fakeGate{identity: session.Identity{
			Token: "tok",
			User:  &commerce.User{ID: 7, FirstName: "Asha", LastName: "Rao", Email: "asha@example.in", Phone: "9876543210"},
		}},
		recorder: &recorder{},
	}
	h.flow = NewFlow("sess-1", h.api, h.carts, h.widget, h.gate, h.recorder, logrus.NewEntry(logger.Discard()))
	return h
}

func paidResponse() *commerce.CheckoutResponse {
	return &commerce.CheckoutResponse{Amount: decimal.NewFromInt(250), OrderID: "order_abc", Title: "Order #3"}
}

func fullConfirmation() commerce.PaymentConfirmation {
	return commerce.PaymentConfirmation{
		RazorpayOrderID:   "order_abc",
		RazorpayPaymentID: "pay_123",
		RazorpaySignature: "sig",
	}
}

func TestBegin_RequiresAddress(t *testing.T) {
	h := newHarness(paidResponse())

	out, err := h.flow.Begin(context.Background(), 0)

	assert.ErrorIs(t, err, ErrAddressRequired)
	assert.Equal(t, AlertAddressRequired, out.Alert)
	assert.Equal(t, StateDraft, h.flow.State())
	assert.Empty(t, h.api.checkouts)
	assert.Zero(t, h.carts.fetches)
	assert.Empty(t, h.recorder.states())
}

func TestBegin_RequiresSignIn(t *testing.T) {
	h := newHarness(paidResponse())
	h.gate.identity = session.Identity{}

	out, err := h.flow.Begin(context.Background(), 5)

	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, SignInPath, out.Redirect)
	assert.Empty(t, h.api.checkouts)
}

func TestBegin_ZeroAmountCompletesWithoutPayment(t *testing.T) {
	h := newHarness(&commerce.CheckoutResponse{Amount: decimal.Zero})

	out, err := h.flow.Begin(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, StateCompletedFree, out.State)
	assert.Empty(t, out.Alert)
	assert.Nil(t, out.Widget)
	assert.Empty(t, h.widget.opened)
	assert.Equal(t, 1, h.carts.fetches)
	assert.Equal(t, []State{StateCheckoutRequested, StateCompletedFree}, h.recorder.states())
}

func TestPaidCheckout_VerifiedScenario(t *testing.T) {
	h := newHarness(paidResponse())
	ctx := context.Background()

	out, err := h.flow.Begin(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, StatePaymentPending, out.State)
	require.NotNil(t, out.Widget)
	assert.Equal(t, "order_abc", out.Widget.OrderID)
	assert.Empty(t, out.Alert)

	require.Len(t, h.api.checkouts, 1)
	assert.Equal(t, 5, h.api.checkouts[0].Address)
	assert.Equal(t, []int{3}, h.api.checkoutCart)

	require.Len(t, h.widget.opened, 1)
	assert.Equal(t, payment.Prefill{Name: "Asha Rao", Email: "asha@example.in", Contact: "9876543210"}, h.widget.opened[0].Prefill)
	assert.True(t, decimal.NewFromInt(250).Equal(h.widget.opened[0].Amount))

	out, err = h.flow.CompletePayment(ctx, fullConfirmation())
	require.NoError(t, err)
	assert.Equal(t, StatePaymentVerified, out.State)
	assert.Equal(t, OrdersPath, out.Redirect)
	assert.Empty(t, out.Alert)

	assert.Len(t, h.api.validations, 1)
	assert.Equal(t, 1, h.carts.fetches)
	assert.Equal(t, StatePaymentVerified, h.flow.State())
	assert.Equal(t, []State{StateCheckoutRequested, StatePaymentPending, StatePaymentVerified}, h.recorder.states())

	attempts := h.recorder.attempts
	assert.Equal(t, "order_abc", attempts[2].OrderReference)
	require.NotNil(t, attempts[2].UserID)
	assert.Equal(t, 7, *attempts[2].UserID)
	assert.Equal(t, "sess-1", attempts[2].SessionID)
}

func TestCompletePayment_NonNoContentIsFailure(t *testing.T) {
	h := newHarness(paidResponse())
	h.api.validateErr = commerce.ErrPaymentNotVerified
	ctx := context.Background()

	_, err := h.flow.Begin(ctx, 5)
	require.NoError(t, err)

	out, err := h.flow.CompletePayment(ctx, fullConfirmation())
	assert.ErrorIs(t, err, ErrVerificationFailed)
	assert.Equal(t, StatePaymentFailed, out.State)
	assert.Equal(t, AlertVerificationFailed, out.Alert)
	assert.Empty(t, out.Redirect)
	assert.Zero(t, h.carts.fetches)
}

func TestCompletePayment_IncompleteConfirmation(t *testing.T) {
	fields := map[string]func(c *commerce.PaymentConfirmation){
		"order id":   func(c *commerce.PaymentConfirmation) { c.RazorpayOrderID = "" },
		"payment id": func(c *commerce.PaymentConfirmation) { c.RazorpayPaymentID = "" },
		"signature":  func(c *commerce.PaymentConfirmation) { c.RazorpaySignature = "" },
	}

	for name, clear := range fields {
		t.Run(name, func(t *testing.T) {
			h := newHarness(paidResponse())
			_, err := h.flow.Begin(context.Background(), 5)
			require.NoError(t, err)

			conf := fullConfirmation()
			clear(&conf)
			out, err := h.flow.CompletePayment(context.Background(), conf)

			assert.ErrorIs(t, err, ErrIncompleteConfirmation)
			assert.Equal(t, StatePaymentFailed, out.State)
			assert.NotEmpty(t, out.Alert)
			assert.Empty(t, h.api.validations)
		})
	}
}

func TestCompletePayment_OrderMismatch(t *testing.T) {
	h := newHarness(paidResponse())
	_, err := h.flow.Begin(context.Background(), 5)
	require.NoError(t, err)

	conf := fullConfirmation()
	conf.RazorpayOrderID = "order_other"
	_, err = h.flow.CompletePayment(context.Background(), conf)

	assert.ErrorIs(t, err, ErrOrderMismatch)
	assert.Empty(t, h.api.validations)
}

func TestCompletePayment_RequiresPending(t *testing.T) {
	h := newHarness(paidResponse())

	out, err := h.flow.CompletePayment(context.Background(), fullConfirmation())

	assert.ErrorIs(t, err, ErrNotPending)
	assert.Equal(t, StateDraft, out.State)
	assert.Empty(t, h.api.validations)
}

func TestBegin_PreconditionsHalt(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(h *harness)
	}{
		{"key missing", func(h *harness) { h.widget.keyConfigured = false }},
		{"sdk not loaded", func(h *harness) { h.widget.loaded = false }},
		{"order reference missing", func(h *harness) { h.api.resp.OrderID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(paidResponse())
			tt.mutate(h)

			out, err := h.flow.Begin(context.Background(), 5)

			assert.ErrorIs(t, err, ErrPaymentUnavailable)
			assert.Equal(t, StatePaymentFailed, out.State)
			assert.Equal(t, AlertPaymentUnavailable, out.Alert)
			assert.Nil(t, out.Widget)
			assert.Empty(t, h.widget.opened)
			assert.Len(t, h.api.checkouts, 1)
		})
	}
}

func TestBegin_CheckoutFailureIsGeneric(t *testing.T) {
	failures := map[string]error{
		"http":      &commerce.APIError{StatusCode: 500, Body: "traceback"},
		"transport": errors.New("dial tcp: connection refused"),
	}

	for name, failure := range failures {
		t.Run(name, func(t *testing.T) {
			h := newHarness(paidResponse())
			h.api.checkoutErr = failure

			out, err := h.flow.Begin(context.Background(), 5)

			assert.ErrorIs(t, err, ErrCheckoutFailed)
			assert.Equal(t, AlertCheckoutFailed, out.Alert)
			assert.Equal(t, StateDraft, h.flow.State())
			assert.NotContains(t, out.Alert, "traceback")
		})
	}
}

func TestBegin_UnauthorizedForcesSignOut(t *testing.T) {
	h := newHarness(paidResponse())
	h.api.checkoutErr = commerce.ErrUnauthorized

	out, err := h.flow.Begin(context.Background(), 5)

	assert.True(t, commerce.IsUnauthorized(err))
	assert.Equal(t, SignInPath, out.Redirect)
	assert.Equal(t, AlertSessionExpired, out.Alert)
	assert.Len(t, h.gate.forced, 1)
	assert.Equal(t, StateDraft, h.flow.State())
}

func TestCompletePayment_UnauthorizedForcesSignOut(t *testing.T) {
	h := newHarness(paidResponse())
	_, err := h.flow.Begin(context.Background(), 5)
	require.NoError(t, err)

	h.api.validateErr = commerce.ErrUnauthorized
	out, err := h.flow.CompletePayment(context.Background(), fullConfirmation())

	assert.True(t, commerce.IsUnauthorized(err))
	assert.Equal(t, SignInPath, out.Redirect)
	assert.Len(t, h.gate.forced, 1)
}

func TestBegin_EmptyCart(t *testing.T) {
	h := newHarness(paidResponse())
	h.carts.cart = &commerce.Cart{ID: 3, Status: commerce.CartStatusDraft}

	out, err := h.flow.Begin(context.Background(), 5)

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, AlertEmptyCart, out.Alert)
	assert.Empty(t, h.api.checkouts)
}

func TestBegin_FetchesCartWhenNotCached(t *testing.T) {
	h := newHarness(paidResponse())
	h.carts.cart = nil
	h.carts.loaded = oneItemCart()

	_, err := h.flow.Begin(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, 1, h.carts.fetches)
	assert.Len(t, h.api.checkouts, 1)
}

func TestBegin_UsesReturnedCartID(t *testing.T) {
	h := newHarness(paidResponse())
	other := 42
	h.api.resp.CartID = &other
	ctx := context.Background()

	_, err := h.flow.Begin(ctx, 5)
	require.NoError(t, err)

	assert.Equal(t, 42, h.flow.Status().CartID)
}

func TestFailPayment_NoRollback(t *testing.T) {
	h := newHarness(paidResponse())
	_, err := h.flow.Begin(context.Background(), 5)
	require.NoError(t, err)

	out, err := h.flow.FailPayment(context.Background(), Failure{Code: "BAD_REQUEST_ERROR", Description: "Payment failed", Reason: "payment_failed"})

	assert.ErrorIs(t, err, ErrPaymentFailed)
	assert.Equal(t, StatePaymentFailed, out.State)
	assert.Equal(t, AlertPaymentFailed, out.Alert)
	assert.Len(t, h.api.checkouts, 1)
	assert.Empty(t, h.api.validations)

	last := h.recorder.attempts[len(h.recorder.attempts)-1]
	assert.Contains(t, last.FailureReason, "BAD_REQUEST_ERROR")
}

func TestFailPayment_Cancel(t *testing.T) {
	h := newHarness(paidResponse())
	_, err := h.flow.Begin(context.Background(), 5)
	require.NoError(t, err)

	_, err = h.flow.FailPayment(context.Background(), Failure{})

	assert.ErrorIs(t, err, ErrPaymentFailed)
	last := h.recorder.attempts[len(h.recorder.attempts)-1]
	assert.Equal(t, "cancelled", last.FailureReason)
}

func TestBegin_RetryAfterFailure(t *testing.T) {
	h := newHarness(paidResponse())
	h.widget.loaded = false
	_, err := h.flow.Begin(context.Background(), 5)
	require.ErrorIs(t, err, ErrPaymentUnavailable)

	h.widget.loaded = true
	out, err := h.flow.Begin(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, StatePaymentPending, out.State)
}

func TestReset(t *testing.T) {
	h := newHarness(paidResponse())
	_, err := h.flow.Begin(context.Background(), 5)
	require.NoError(t, err)

	h.flow.Reset()

	st := h.flow.Status()
	assert.Equal(t, StateDraft, st.State)
	assert.Empty(t, st.OrderID)
	assert.Nil(t, st.Amount)
}

func TestStateIsTerminal(t *testing.T) {
	assert.True(t, StatePaymentVerified.IsTerminal())
	assert.True(t, StatePaymentFailed.IsTerminal())
	assert.True(t, StateCompletedFree.IsTerminal())
	assert.False(t, StatePaymentPending.IsTerminal())
	assert.False(t, StateDraft.IsTerminal())
}

// A verification endpoint answering 200 with a JSON body must not count as success.
func TestCompletePayment_OKWithBodyAgainstCommerceClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cms/carts/3/checkout/":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"amount":"250.00","order_id":"order_abc","title":"Order #3"}`))
		case "/cms/carts/3/validate_payment/":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"detail":"signature mismatch"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := commerce.NewClient(config.CommerceConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}, logger.Discard())
	h := newHarness(nil)
	h.flow = NewFlow("sess-1", client, h.carts, h.widget, h.gate, h.recorder, logrus.NewEntry(logger.Discard()))

	_, err := h.flow.Begin(context.Background(), 5)
	require.NoError(t, err)

	out, err := h.flow.CompletePayment(context.Background(), fullConfirmation())
	assert.ErrorIs(t, err, ErrVerificationFailed)
	assert.Equal(t, StatePaymentFailed, out.State)
}
