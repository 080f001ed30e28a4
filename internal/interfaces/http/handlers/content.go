// internal/interfaces/http/handlers/content.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/sweets-storefront/internal/domain/content"
)

// ContentHandler serves the static storefront content
type ContentHandler struct {
	content *content.Service
}

// NewContentHandler creates a new content handler
func NewContentHandler(svc *content.Service) *ContentHandler {
	return &ContentHandler{content: svc}
}

// ListFAQs handles GET /faqs
func (h *ContentHandler) ListFAQs(c *gin.Context) {
	faqs, err := h.content.FAQs(c.Request.Context())
	if err != nil {
		respondError(c, "", err, "Failed to retrieve FAQs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "FAQs retrieved successfully", "data": faqs})
}

// ListSliders handles GET /sliders
func (h *ContentHandler) ListSliders(c *gin.Context) {
	sliders, err := h.content.Sliders(c.Request.Context())
	if err != nil {
		respondError(c, "", err, "Failed to retrieve sliders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sliders retrieved successfully", "data": sliders})
}

// MainBranch handles GET /branches/main
func (h *ContentHandler) MainBranch(c *gin.Context) {
	branch, err := h.content.MainBranch(c.Request.Context())
	if err != nil {
		respondError(c, "", err, "Failed to retrieve store details")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Store details retrieved successfully", "data": branch})
}
