// internal/domain/payment/razorpay_widget.go
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/sweets-storefront/internal/config"
)

var (
	ErrKeyNotConfigured = errors.New("payment key is not configured")
	ErrWidgetNotLoaded  = errors.New("payment widget is not available")
	ErrOrderMissing     = errors.New("payment order reference is missing")
)

// Callback paths the browser reports widget results to
const (
	SuccessCallbackPath = "/api/v1/checkout/payment/success"
	FailureCallbackPath = "/api/v1/checkout/payment/failure"
)

// Prefill is the customer data shown in the widget
type Prefill struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// Options is what the checkout flow supplies to open the widget
type Options struct {
	Amount      decimal.Decimal
	OrderID     string
	Description string
	Prefill     Prefill
}

// Theme styles the widget
type Theme struct {
	Color string `json:"color,omitempty"`
}

// Handlers tells the browser where to report widget results
type Handlers struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
}

// WidgetOptions are handed to the checkout script in the browser
type WidgetOptions struct {
	Key         string      `json:"key"`
	Amount      json.Number `json:"amount"`
	Currency    string      `json:"currency"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	OrderID     string      `json:"order_id"`
	Prefill     Prefill     `json:"prefill"`
	Theme       Theme       `json:"theme"`
	Handler     Handlers    `json:"handler"`
	ScriptURL   string      `json:"script_url"`
}

// RazorpayWidget prepares the Razorpay checkout widget for the browser
type RazorpayWidget struct {
	cfg        config.RazorpayConfig
	httpClient *http.Client
	loaded     atomic.Bool
	logger     *logrus.Entry
}

// NewRazorpayWidget creates a widget. It reports not loaded until the first successful probe.
func NewRazorpayWidget(cfg config.RazorpayConfig, logger *logrus.Logger) *RazorpayWidget {
	return &RazorpayWidget{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.WithField("component", "payment"),
	}
}

// KeyConfigured reports whether a public key id is set
func (w *RazorpayWidget) KeyConfigured() bool {
	return w.cfg.KeyID != ""
}

// Loaded reports whether the checkout script was reachable at the last probe
func (w *RazorpayWidget) Loaded() bool {
	return w.loaded.Load()
}

// Probe checks that the checkout script can be fetched
func (w *RazorpayWidget) Probe(ctx context.Context) error {
	err := w.probe(ctx, http.MethodHead)
	var se *statusError
	if errors.As(err, &se) && se.code == http.StatusMethodNotAllowed {
		err = w.probe(ctx, http.MethodGet)
	}

	was := w.loaded.Swap(err == nil)
	switch {
	case err != nil && was:
		w.logger.WithError(err).Warn("Checkout script became unreachable")
	case err == nil && !was:
		w.logger.WithField("url", w.cfg.CheckoutScriptURL).Info("Checkout script available")
	}
	return err
}

// Run probes immediately and then on every ProbeInterval until ctx is done
func (w *RazorpayWidget) Run(ctx context.Context) {
	if err := w.Probe(ctx); err != nil {
		w.logger.WithError(err).Warn("Checkout script probe failed")
	}
	if w.cfg.ProbeInterval <= 0 {
		return
	}

	ticker := time.NewTicker(w.cfg.ProbeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = w.Probe(ctx)
		}
	}
}

// Open builds the widget options for an order
func (w *RazorpayWidget) Open(ctx context.Context, opts Options) (*WidgetOptions, error) {
	switch {
	case !w.KeyConfigured():
		return nil, ErrKeyNotConfigured
	case !w.Loaded():
		return nil, ErrWidgetNotLoaded
	case opts.OrderID == "":
		return nil, ErrOrderMissing
	}

	description := opts.Description
	if description == "" {
		description = w.cfg.Description
	}

	w.logger.WithFields(logrus.Fields{
		"order_id": opts.OrderID,
		"amount":   opts.Amount.String(),
	}).Info("Opening checkout widget")

	return &WidgetOptions{
		Key:         w.cfg.KeyID,
		Amount:      json.Number(opts.Amount.String()),
		Currency:    w.cfg.Currency,
		Name:        w.cfg.BusinessName,
		Description: description,
		OrderID:     opts.OrderID,
		Prefill:     opts.Prefill,
		Theme:       Theme{Color: w.cfg.ThemeColor},
		Handler: Handlers{
			Success: SuccessCallbackPath,
			Failure: FailureCallbackPath,
		},
		ScriptURL: w.cfg.CheckoutScriptURL,
	}, nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("checkout script returned %d", e.code)
}

func (w *RazorpayWidget) probe(ctx context.Context, method string) error {
	if w.cfg.CheckoutScriptURL == "" {
		return errors.New("checkout script url is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, method, w.cfg.CheckoutScriptURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create probe request: %w", err)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach checkout script: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}
