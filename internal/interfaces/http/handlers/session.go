// internal/interfaces/http/handlers/session.go
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/sweets-storefront/internal/domain/session"
	"github.com/your-org/sweets-storefront/internal/infrastructure/commerce"
	"github.com/your-org/sweets-storefront/internal/interfaces/http/middleware"
	"github.com/your-org/sweets-storefront/internal/pkg/auth"
)

// TokenInspector validates identity provider tokens
type TokenInspector interface {
	Inspect(token string) (*auth.Claims, error)
}

// EventPublisher forwards identity provider events to a session's gate
type EventPublisher interface {
	Publish(sessionID string, ev session.Event)
}

// ProfileFetcher loads the signed-in user's profile
type ProfileFetcher interface {
	Profile(ctx context.Context, token string) (*commerce.User, error)
}

// SignInRequest is what the identity provider's browser SDK reports after sign-in or refresh.
// The token may instead arrive as an Authorization bearer header.
type SignInRequest struct {
	Token string `json:"token"`
	Event string `json:"event" binding:"omitempty,oneof=signed_in refreshed"`
}

// SessionView is the shopper's identity as shown to the browser. The token is never echoed.
type SessionView struct {
	Authenticated bool           `json:"authenticated"`
	Subject       string         `json:"subject,omitempty"`
	User          *commerce.User `json:"user,omitempty"`
	ExpiresAt     *time.Time     `json:"expires_at,omitempty"`
}

// SessionHandler bridges the identity provider's browser SDK to the shopper's gate
type SessionHandler struct {
	events    EventPublisher
	verifier  TokenInspector
	profiles  ProfileFetcher
	signInURL string
	logger    *logrus.Entry
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(events EventPublisher, verifier TokenInspector, profiles ProfileFetcher, signInURL string, logger *logrus.Logger) *SessionHandler {
	return &SessionHandler{
		events:    events,
		verifier:  verifier,
		profiles:  profiles,
		signInURL: signInURL,
		logger:    logger.WithField("component", "session_handler"),
	}
}

// GetSession handles GET /session
func (h *SessionHandler) GetSession(c *gin.Context) {
	s := middleware.ShopperFromContext(c)

	c.JSON(http.StatusOK, gin.H{
		"message": "Session retrieved successfully",
		"data":    viewOf(s.Gate.Current()),
	})
}

// SignIn handles POST /session
func (h *SessionHandler) SignIn(c *gin.Context) {
	s := middleware.ShopperFromContext(c)

	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	token := strings.TrimSpace(req.Token)
	if token == "" {
		token = auth.ExtractTokenFromHeader(c.GetHeader("Authorization"))
	}
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": gin.H{"token": "This field is required"},
		})
		return
	}

	claims, err := h.verifier.Inspect(token)
	if err != nil {
		h.logger.WithError(err).Warn("Rejected sign-in token")
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":    "Your sign-in could not be verified. Please sign in again.",
			"redirect": h.signInURL,
		})
		return
	}

	identity := session.Identity{Token: token, Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		expires := claims.ExpiresAt.Time
		if !expires.After(time.Now()) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":    "Your session has expired. Please sign in again.",
				"redirect": h.signInURL,
			})
			return
		}
		identity.ExpiresAt = &expires
	}

	kind := session.EventSignedIn
	if req.Event == string(session.EventRefreshed) {
		kind = session.EventRefreshed
	}
	h.events.Publish(s.ID, session.Event{Kind: kind, Identity: identity})

	// Refreshes of the same account keep the profile already on the gate
	if s.Gate.Current().User == nil {
		user, err := h.profiles.Profile(c.Request.Context(), token)
		switch {
		case err == nil:
			s.AttachProfile(token, user)
		case commerce.IsUnauthorized(err):
			respondError(c, h.signInURL, err, "")
			return
		default:
			h.logger.WithError(err).Warn("Failed to load profile after sign-in")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Signed in successfully",
		"data":    viewOf(s.Gate.Current()),
	})
}

// SignOut handles DELETE /session
func (h *SessionHandler) SignOut(c *gin.Context) {
	s := middleware.ShopperFromContext(c)
	h.events.Publish(s.ID, session.Event{Kind: session.EventSignedOut})

	c.JSON(http.StatusOK, gin.H{
		"message": "Signed out successfully",
		"data":    viewOf(s.Gate.Current()),
	})
}

func viewOf(identity session.Identity) SessionView {
	return SessionView{
		Authenticated: !identity.Empty(),
		Subject:       identity.Subject,
		User:          identity.User,
		ExpiresAt:     identity.ExpiresAt,
	}
}
