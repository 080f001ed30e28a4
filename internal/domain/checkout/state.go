// internal/domain/checkout/state.go
package checkout

// State is the position of a shopper in the checkout flow
type State string

const (
	StateDraft             State = "DRAFT"
	StateCheckoutRequested State = "CHECKOUT_REQUESTED"
	StatePaymentRequired   State = "PAYMENT_REQUIRED"
	StatePaymentPending    State = "PAYMENT_PENDING"
	StatePaymentVerified   State = "PAYMENT_VERIFIED"
	StatePaymentFailed     State = "PAYMENT_FAILED"
	StateCompletedFree     State = "COMPLETED_FREE"
)

// IsTerminal reports whether the flow has finished, successfully or not
func (s State) IsTerminal() bool {
	switch s {
	case StatePaymentVerified, StatePaymentFailed, StateCompletedFree:
		return true
	}
	return false
}

// InProgress reports whether a checkout request is being processed
func (s State) InProgress() bool {
	return s == StateCheckoutRequested || s == StatePaymentRequired
}

// Active reports whether a checkout has started and not yet finished.
// A shopper in this state may still receive a widget callback.
func (s State) Active() bool {
	return s != StateDraft && !s.IsTerminal()
}
