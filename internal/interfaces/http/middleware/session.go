// internal/interfaces/http/middleware/session.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/your-org/sweets-storefront/internal/config"
	"github.com/your-org/sweets-storefront/internal/domain/checkout"
	"github.com/your-org/sweets-storefront/internal/domain/storefront"
)

const shopperKey = "shopper"

// Shopper resolves the browser session cookie to its shopper, issuing a new
// session id when the cookie is missing or malformed.
func Shopper(cfg config.SessionConfig, registry *storefront.Registry) gin.HandlerFunc {
	maxAge := int(cfg.TokenTTL.Seconds())

	return func(c *gin.Context) {
		sessionID, err := c.Cookie(cfg.CookieName)
		if err != nil || !validSessionID(sessionID) {
			sessionID = uuid.NewString()
		}

		// Refresh the cookie on every request so it expires with the stored token
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cfg.CookieName, sessionID, maxAge, "/", "", cfg.CookieSecure, true)

		c.Set(shopperKey, registry.Get(c.Request.Context(), sessionID))
		c.Next()
	}
}

// RequireSignIn answers 401 with a sign-in redirect when the shopper has no token
func RequireSignIn(signInURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := ShopperFromContext(c)
		if s == nil || !s.Gate.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":    checkout.AlertSignIn,
				"redirect": signInURL,
			})
			return
		}
		c.Next()
	}
}

// ShopperFromContext returns the shopper set by the Shopper middleware
func ShopperFromContext(c *gin.Context) *storefront.Shopper {
	v, ok := c.Get(shopperKey)
	if !ok {
		return nil
	}
	s, _ := v.(*storefront.Shopper)
	return s
}

func validSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
