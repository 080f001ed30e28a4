// internal/domain/checkout/flow.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/sweets-storefront/internal/domain/payment"
	"github.com/your-org/sweets-storefront/internal/domain/session"
	"github.com/your-org/sweets-storefront/internal/infrastructure/commerce"
)

var (
	ErrNotAuthenticated       = errors.New("sign in required")
	ErrAddressRequired        = errors.New("delivery address required")
	ErrEmptyCart              = errors.New("no draft cart to check out")
	ErrCheckoutInProgress     = errors.New("checkout already in progress")
	ErrCheckoutFailed         = errors.New("checkout request failed")
	ErrPaymentUnavailable     = errors.New("payment cannot be started")
	ErrNotPending             = errors.New("no payment awaiting confirmation")
	ErrIncompleteConfirmation = errors.New("payment confirmation is incomplete")
	ErrOrderMismatch          = errors.New("payment confirmation is for another order")
	ErrVerificationFailed     = errors.New("payment verification failed")
	ErrPaymentFailed          = errors.New("payment failed")
)

// Messages shown to the shopper
const (
	AlertSignIn             = "Please sign in to continue."
	AlertSessionExpired     = "Your session has expired. Please sign in again."
	AlertAddressRequired    = "Please select a delivery address before checking out."
	AlertEmptyCart          = "Your cart is empty."
	AlertInProgress         = "Your checkout is already being processed."
	AlertCheckoutFailed     = "We couldn't start checkout. Please try again."
	AlertPaymentUnavailable = "Online payment is unavailable right now. Please try again later."
	AlertNotPending         = "There is no payment awaiting confirmation."
	AlertVerificationFailed = "We couldn't verify your payment. Please contact us if you were charged."
	AlertPaymentFailed      = "Your payment was not completed. Please try again."
)

// Redirect targets
const (
	SignInPath = "/signin"
	OrdersPath = "/orders"
)

// API is the part of the commerce client the checkout needs
type API interface {
	Checkout(ctx context.Context, token string, cartID int, req commerce.CheckoutRequest) (*commerce.CheckoutResponse, error)
	ValidatePayment(ctx context.Context, token string, cartID int, conf commerce.PaymentConfirmation) error
}

// CartSource is the shopper's cart manager
type CartSource interface {
	DraftCart() (commerce.Cart, bool)
	FetchCart(ctx context.Context) error
}

// Widget is the browser payment widget
type Widget interface {
	KeyConfigured() bool
	Loaded() bool
	Open(ctx context.Context, opts payment.Options) (*payment.WidgetOptions, error)
}

// IdentityGate is the shopper's session gate
type IdentityGate interface {
	Token() string
	Current() session.Identity
	ForceSignOut(reason string)
}

// Failure is the widget's failure or cancel report
type Failure struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Reason      string `json:"reason"`
	OrderID     string `json:"order_id"`
}

// Outcome is what the browser should do after a flow operation
type Outcome struct {
	State    State                  `json:"state"`
	Alert    string                 `json:"alert,omitempty"`
	Redirect string                 `json:"redirect,omitempty"`
	Widget   *payment.WidgetOptions `json:"widget,omitempty"`
	Amount   *decimal.Decimal       `json:"amount,omitempty"`
	OrderID  string                 `json:"order_id,omitempty"`
}

// Status is a read-only view of the flow
type Status struct {
	State   State            `json:"state"`
	CartID  int              `json:"cart_id,omitempty"`
	OrderID string           `json:"order_id,omitempty"`
	Amount  *decimal.Decimal `json:"amount,omitempty"`
}

// Flow drives one shopper from a draft cart to a verified payment
type Flow struct {
	api       API
	carts     CartSource
	widget    Widget
	identity  IdentityGate
	recorder  AttemptRecorder
	pending   PendingStore
	sessionID string
	logger    *logrus.Entry

	// serializes flow operations
	opMu sync.Mutex

	mu         sync.Mutex
	state      State
	cartID     int
	addressID  int
	orderID    string
	amount     decimal.Decimal
	generation uint64
}

// NewFlow creates a checkout flow in DRAFT
func NewFlow(sessionID string, api API, carts CartSource, widget Widget, identity IdentityGate, recorder AttemptRecorder, logger *logrus.Entry) *Flow {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Flow{
		api:       api,
		carts:     carts,
		widget:    widget,
		identity:  identity,
		recorder:  recorder,
		sessionID: sessionID,
		logger:    logger.WithField("component", "checkout"),
		state:     StateDraft,
	}
}

// State returns the current state
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Status returns the current state with its order details
func (f *Flow) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := Status{State: f.state, CartID: f.cartID, OrderID: f.orderID}
	if !f.amount.IsZero() {
		amount := f.amount
		st.Amount = &amount
	}
	return st
}

// Reset returns the flow to DRAFT. Operations started before the reset stop updating state.
func (f *Flow) Reset() {
	f.mu.Lock()
	had := f.state != StateDraft
	f.state = StateDraft
	f.cartID = 0
	f.addressID = 0
	f.orderID = ""
	f.amount = decimal.Zero
	f.generation++
	f.mu.Unlock()

	if had {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		f.forgetPending(ctx)
	}
}

// UsePendingStore persists checkouts awaiting payment in store
func (f *Flow) UsePendingStore(store PendingStore) {
	f.pending = store
}

// Restore puts a flow that is still in DRAFT back into PAYMENT_PENDING for p.
// It returns false if the flow has already moved on.
func (f *Flow) Restore(p Pending) bool {
	if p.CartID <= 0 || p.OrderID == "" {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateDraft {
		return false
	}
	f.state = StatePaymentPending
	f.cartID = p.CartID
	f.addressID = p.AddressID
	f.orderID = p.OrderID
	f.amount = p.Amount
	f.generation++
	return true
}

// Begin submits the draft cart for checkout to addressID and opens the payment
// widget when a balance is due. A missing address never reaches the network.
func (f *Flow) Begin(ctx context.Context, addressID int) (*Outcome, error) {
	f.opMu.Lock()
	defer f.opMu.Unlock()

	f.mu.Lock()
	gen, current := f.generation, f.state
	f.mu.Unlock()

	if addressID <= 0 {
		return &Outcome{State: current, Alert: AlertAddressRequired}, ErrAddressRequired
	}
	if current.InProgress() {
		return &Outcome{State: current, Alert: AlertInProgress}, ErrCheckoutInProgress
	}

	token := f.identity.Token()
	if token == "" {
		return &Outcome{State: current, Alert: AlertSignIn, Redirect: SignInPath}, ErrNotAuthenticated
	}

	draft, ok := f.carts.DraftCart()
	if !ok {
		if err := f.carts.FetchCart(ctx); err != nil {
			if commerce.IsUnauthorized(err) {
				return f.unauthorized(err), err
			}
			return &Outcome{State: current, Alert: AlertCheckoutFailed}, fmt.Errorf("%w: %w", ErrCheckoutFailed, err)
		}
		draft, ok = f.carts.DraftCart()
	}
	if !ok || len(draft.Items) == 0 {
		return &Outcome{State: current, Alert: AlertEmptyCart}, ErrEmptyCart
	}

	log := f.logger.WithFields(logrus.Fields{"cart_id": draft.ID, "address_id": addressID})
	if !f.set(gen, func() {
		f.state = StateCheckoutRequested
		f.cartID = draft.ID
		f.addressID = addressID
		f.orderID = ""
		f.amount = decimal.Zero
	}) {
		return f.superseded(), ErrCheckoutFailed
	}
	f.record(ctx, StateCheckoutRequested, "")

	resp, err := f.api.Checkout(ctx, token, draft.ID, commerce.CheckoutRequest{Address: addressID})
	if err != nil {
		if commerce.IsUnauthorized(err) {
			return f.unauthorized(err), err
		}
		log.WithError(err).Error("Checkout request failed")
		// The server did not take the cart, so the shopper is back at their draft
		f.set(gen, func() { f.state = StateDraft })
		f.record(ctx, StateDraft, err.Error())
		return &Outcome{State: StateDraft, Alert: AlertCheckoutFailed}, fmt.Errorf("%w: %w", ErrCheckoutFailed, err)
	}

	cartID := draft.ID
	if resp.CartID != nil {
		cartID = *resp.CartID
	}
	amount := resp.Amount

	if !amount.IsPositive() {
		if err := f.carts.FetchCart(ctx); err != nil {
			log.WithError(err).Warn("Cart refresh after free checkout failed")
		}
		f.set(gen, func() {
			f.state = StateCompletedFree
			f.cartID = cartID
			f.amount = decimal.Zero
		})
		f.record(ctx, StateCompletedFree, "")
		log.Info("Checkout completed without payment")
		return &Outcome{State: StateCompletedFree, Redirect: OrdersPath}, nil
	}

	f.set(gen, func() {
		f.state = StatePaymentRequired
		f.cartID = cartID
		f.orderID = resp.OrderID
		f.amount = amount
	})

	if reason := f.missingPrecondition(resp.OrderID); reason != "" {
		return f.fail(ctx, gen, AlertPaymentUnavailable, reason, ErrPaymentUnavailable)
	}

	opts, err := f.widget.Open(ctx, payment.Options{
		Amount:      amount,
		OrderID:     resp.OrderID,
		Description: resp.Title,
		Prefill:     f.prefill(),
	})
	if err != nil {
		return f.fail(ctx, gen, AlertPaymentUnavailable, err.Error(), ErrPaymentUnavailable)
	}

	if !f.set(gen, func() { f.state = StatePaymentPending }) {
		return f.superseded(), ErrPaymentUnavailable
	}
	f.record(ctx, StatePaymentPending, "")
	f.savePending(ctx)
	log.WithField("order_id", resp.OrderID).Info("Payment widget opened")

	return &Outcome{
		State:   StatePaymentPending,
		Widget:  opts,
		Amount:  &amount,
		OrderID: resp.OrderID,
	}, nil
}

// CompletePayment verifies the widget's success payload with the commerce API.
// Only an HTTP 204 from the verification endpoint counts as success.
func (f *Flow) CompletePayment(ctx context.Context, conf commerce.PaymentConfirmation) (*Outcome, error) {
	f.opMu.Lock()
	defer f.opMu.Unlock()

	f.mu.Lock()
	gen, current, cartID, orderID := f.generation, f.state, f.cartID, f.orderID
	f.mu.Unlock()

	if current != StatePaymentPending {
		return &Outcome{State: current, Alert: AlertNotPending}, ErrNotPending
	}

	if conf.RazorpayOrderID == "" || conf.RazorpayPaymentID == "" || conf.RazorpaySignature == "" {
		return f.fail(ctx, gen, AlertVerificationFailed, "confirmation fields missing", ErrIncompleteConfirmation)
	}
	if conf.RazorpayOrderID != orderID {
		return f.fail(ctx, gen, AlertVerificationFailed, "confirmation order "+conf.RazorpayOrderID+" does not match "+orderID, ErrOrderMismatch)
	}

	token := f.identity.Token()
	if token == "" {
		return &Outcome{State: current, Alert: AlertSignIn, Redirect: SignInPath}, ErrNotAuthenticated
	}

	if err := f.api.ValidatePayment(ctx, token, cartID, conf); err != nil {
		if commerce.IsUnauthorized(err) {
			return f.unauthorized(err), err
		}
		return f.fail(ctx, gen, AlertVerificationFailed, err.Error(), ErrVerificationFailed)
	}

	if err := f.carts.FetchCart(ctx); err != nil {
		f.logger.WithError(err).Warn("Cart refresh after payment failed")
	}
	f.set(gen, func() { f.state = StatePaymentVerified })
	f.record(ctx, StatePaymentVerified, "")
	f.forgetPending(ctx)
	f.logger.WithFields(logrus.Fields{
		"cart_id":    cartID,
		"order_id":   orderID,
		"payment_id": conf.RazorpayPaymentID,
	}).Info("Payment verified")

	return &Outcome{State: StatePaymentVerified, Redirect: OrdersPath, OrderID: orderID}, nil
}

// FailPayment records a widget failure or cancel. The server cart is not rolled back.
func (f *Flow) FailPayment(ctx context.Context, failure Failure) (*Outcome, error) {
	f.opMu.Lock()
	defer f.opMu.Unlock()

	f.mu.Lock()
	gen, current := f.generation, f.state
	f.mu.Unlock()

	if current != StatePaymentPending {
		return &Outcome{State: current, Alert: AlertNotPending}, ErrNotPending
	}

	reason := failure.Reason
	if failure.Code != "" || failure.Description != "" {
		reason = fmt.Sprintf("%s: %s (%s)", failure.Code, failure.Description, failure.Reason)
	}
	if reason == "" {
		reason = "cancelled"
	}
	return f.fail(ctx, gen, AlertPaymentFailed, reason, ErrPaymentFailed)
}

func (f *Flow) missingPrecondition(orderID string) string {
	switch {
	case !f.widget.KeyConfigured():
		return "payment key not configured"
	case !f.widget.Loaded():
		return "payment widget not loaded"
	case orderID == "":
		return "order reference missing"
	}
	return ""
}

func (f *Flow) prefill() payment.Prefill {
	u := f.identity.Current().User
	if u == nil {
		return payment.Prefill{}
	}
	return payment.Prefill{Name: u.FullName(), Email: u.Email, Contact: u.Phone}
}

// fail moves to PAYMENT_FAILED and builds the alert outcome
func (f *Flow) fail(ctx context.Context, gen uint64, alert, reason string, sentinel error) (*Outcome, error) {
	f.set(gen, func() { f.state = StatePaymentFailed })
	f.record(ctx, StatePaymentFailed, reason)
	f.forgetPending(ctx)
	f.logger.WithField("reason", reason).Warn("Checkout failed")
	return &Outcome{State: StatePaymentFailed, Alert: alert}, fmt.Errorf("%w: %s", sentinel, reason)
}

// unauthorized resets the flow and drops the session
func (f *Flow) unauthorized(err error) *Outcome {
	f.Reset()
	f.identity.ForceSignOut("commerce api rejected token during checkout")
	f.logger.WithError(err).Warn("Checkout aborted by sign-out")
	return &Outcome{State: f.State(), Alert: AlertSessionExpired, Redirect: SignInPath}
}

func (f *Flow) superseded() *Outcome {
	return &Outcome{State: f.State(), Alert: AlertCheckoutFailed}
}

// set applies fn unless the flow was reset since gen was taken
func (f *Flow) set(gen uint64, fn func()) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.generation != gen {
		return false
	}
	fn()
	return true
}

func (f *Flow) record(ctx context.Context, state State, reason string) {
	f.mu.Lock()
	attempt := &Attempt{
		SessionID:      f.sessionID,
		CartID:         f.cartID,
		AddressID:      f.addressID,
		OrderReference: f.orderID,
		Amount:         f.amount,
		State:          state,
		FailureReason:  reason,
	}
	f.mu.Unlock()

	if u := f.identity.Current().User; u != nil {
		id := u.ID
		attempt.UserID = &id
	}

	// The ledger outlives a disconnected client
	if err := f.recorder.Record(context.WithoutCancel(ctx), attempt); err != nil {
		f.logger.WithError(err).Warn("Failed to record checkout attempt")
	}
}

// savePending stores the checkout awaiting payment
func (f *Flow) savePending(ctx context.Context) {
	if f.pending == nil {
		return
	}

	f.mu.Lock()
	p := Pending{
		CartID:    f.cartID,
		AddressID: f.addressID,
		OrderID:   f.orderID,
		Amount:    f.amount,
	}
	f.mu.Unlock()
	p.Subject = f.identity.Current().Subject

	if err := f.pending.SavePending(context.WithoutCancel(ctx), f.sessionID, p); err != nil {
		f.logger.WithError(err).Warn("Failed to persist pending checkout")
	}
}

func (f *Flow) forgetPending(ctx context.Context) {
	if f.pending == nil {
		return
	}
	if err := f.pending.DeletePending(context.WithoutCancel(ctx), f.sessionID); err != nil {
		f.logger.WithError(err).Warn("Failed to delete pending checkout")
	}
}
