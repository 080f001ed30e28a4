// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/sweets-storefront/internal/domain/checkout"
	"github.com/your-org/sweets-storefront/internal/domain/storefront"
	"github.com/your-org/sweets-storefront/internal/domain/user"
	"github.com/your-org/sweets-storefront/internal/infrastructure/commerce"
	"github.com/your-org/sweets-storefront/internal/interfaces/http/middleware"
)

// AttemptLister reads the checkout attempt ledger
type AttemptLister interface {
	ListBySession(ctx context.Context, sessionID string, limit int) ([]checkout.Attempt, error)
}

// BeginCheckoutRequest starts checkout. Without an address id the shopper's
// selected or default address is used.
type BeginCheckoutRequest struct {
	AddressID int `json:"address_id" binding:"omitempty,min=1"`
}

// CheckoutHandler drives the checkout flow and receives the payment widget callbacks
type CheckoutHandler struct {
	addresses *user.AddressService
	attempts  AttemptLister
	signInURL string
}

// NewCheckoutHandler creates a new checkout handler. attempts may be nil.
func NewCheckoutHandler(addresses *user.AddressService, attempts AttemptLister, signInURL string) *CheckoutHandler {
	return &CheckoutHandler{addresses: addresses, attempts: attempts, signInURL: signInURL}
}

// GetCheckout handles GET /checkout
func (h *CheckoutHandler) GetCheckout(c *gin.Context) {
	s := middleware.ShopperFromContext(c)

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout status retrieved successfully",
		"data":    s.Checkout.Status(),
	})
}

// BeginCheckout handles POST /checkout
func (h *CheckoutHandler) BeginCheckout(c *gin.Context) {
	s := middleware.ShopperFromContext(c)

	var req BeginCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	addressID := req.AddressID
	if addressID > 0 {
		s.SelectAddress(addressID)
	} else {
		addresses, err := h.shopperAddresses(c.Request.Context(), s)
		if err != nil {
			respondError(c, h.signInURL, err, checkout.AlertCheckoutFailed)
			return
		}
		if addr, ok := selectedAddress(s, addresses); ok {
			addressID = addr.ID
		}
	}

	outcome, err := s.Checkout.Begin(c.Request.Context(), addressID)
	h.writeOutcome(c, outcome, err, "Checkout started successfully")
}

// shopperAddresses answers from the profile cached on the session, fetching it only when absent
func (h *CheckoutHandler) shopperAddresses(ctx context.Context, s *storefront.Shopper) ([]commerce.Address, error) {
	if u := s.Gate.Current().User; u != nil {
		return u.Addresses, nil
	}

	token := s.Gate.Token()
	u, err := h.addresses.Profile(ctx, token)
	if err != nil {
		return nil, err
	}
	s.AttachProfile(token, u)
	return u.Addresses, nil
}

// PaymentSuccess handles POST /checkout/payment/success
func (h *CheckoutHandler) PaymentSuccess(c *gin.Context) {
	s := middleware.ShopperFromContext(c)

	var conf commerce.PaymentConfirmation
	if err := c.ShouldBindJSON(&conf); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	outcome, err := s.Checkout.CompletePayment(c.Request.Context(), conf)
	h.writeOutcome(c, outcome, err, "Payment verified successfully")
}

// PaymentFailure handles POST /checkout/payment/failure
func (h *CheckoutHandler) PaymentFailure(c *gin.Context) {
	s := middleware.ShopperFromContext(c)

	var failure checkout.Failure
	if err := c.ShouldBindJSON(&failure); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	outcome, err := s.Checkout.FailPayment(c.Request.Context(), failure)
	if errors.Is(err, checkout.ErrPaymentFailed) {
		// The failure was recorded; the browser shows the alert
		c.JSON(http.StatusOK, gin.H{
			"message": "Payment failure recorded",
			"data":    outcome,
		})
		return
	}
	h.writeOutcome(c, outcome, err, "Payment failure recorded")
}

// ListAttempts handles GET /checkout/attempts
func (h *CheckoutHandler) ListAttempts(c *gin.Context) {
	s := middleware.ShopperFromContext(c)

	attempts := []checkout.Attempt{}
	if h.attempts != nil {
		list, err := h.attempts.ListBySession(c.Request.Context(), s.ID, 20)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve checkout history",
			})
			return
		}
		attempts = append(attempts, list...)
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout attempts retrieved successfully",
		"data":    attempts,
	})
}

func (h *CheckoutHandler) writeOutcome(c *gin.Context, outcome *checkout.Outcome, err error, message string) {
	if err == nil {
		c.JSON(http.StatusOK, gin.H{
			"message": message,
			"data":    outcome,
		})
		return
	}

	body := gin.H{
		"error": outcome.Alert,
		"data":  outcome,
	}
	if outcome.Redirect == checkout.SignInPath {
		outcome.Redirect = h.signInURL
	}
	if outcome.Redirect != "" {
		body["redirect"] = outcome.Redirect
	}
	c.JSON(outcomeStatus(err), body)
}

func outcomeStatus(err error) int {
	switch {
	case commerce.IsUnauthorized(err), errors.Is(err, checkout.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, checkout.ErrAddressRequired),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrIncompleteConfirmation),
		errors.Is(err, checkout.ErrOrderMismatch):
		return http.StatusBadRequest
	case errors.Is(err, checkout.ErrCheckoutInProgress), errors.Is(err, checkout.ErrNotPending):
		return http.StatusConflict
	case errors.Is(err, checkout.ErrPaymentUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
