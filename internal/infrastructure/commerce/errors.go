// internal/infrastructure/commerce/errors.go
package commerce

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned for any 401. The session is no longer valid.
	ErrUnauthorized = errors.New("commerce api: unauthorized")

	// ErrPaymentNotVerified is returned when verification answers anything other than 204
	ErrPaymentNotVerified = errors.New("commerce api: payment not verified")
)

// APIError is a non-2xx response other than 401
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("commerce api: %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// IsUnauthorized reports whether err means the session must be dropped
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsNotFound reports whether err is a 404 from the commerce API
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
