// internal/interfaces/http/handlers/notification.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/sweets-storefront/internal/interfaces/http/middleware"
)

// NotificationHandler exposes the shopper's toast queue
type NotificationHandler struct{}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler() *NotificationHandler {
	return &NotificationHandler{}
}

// ListNotifications handles GET /notifications
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	s := middleware.ShopperFromContext(c)

	c.JSON(http.StatusOK, gin.H{
		"message": "Notifications retrieved successfully",
		"data":    s.Toasts.List(),
	})
}

// DismissNotification handles DELETE /notifications/:id
func (h *NotificationHandler) DismissNotification(c *gin.Context) {
	s := middleware.ShopperFromContext(c)

	if !s.Toasts.Dismiss(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Notification not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Notification dismissed",
		"data":    s.Toasts.List(),
	})
}

// ClearNotifications handles DELETE /notifications
func (h *NotificationHandler) ClearNotifications(c *gin.Context) {
	s := middleware.ShopperFromContext(c)
	s.Toasts.ClearAll()

	c.JSON(http.StatusOK, gin.H{
		"message": "Notifications cleared",
		"data":    s.Toasts.List(),
	})
}
