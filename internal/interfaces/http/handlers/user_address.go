// internal/interfaces/http/handlers/user_address.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/sweets-storefront/internal/domain/storefront"
	"github.com/your-org/sweets-storefront/internal/domain/user"
	"github.com/your-org/sweets-storefront/internal/infrastructure/commerce"
	"github.com/your-org/sweets-storefront/internal/interfaces/http/middleware"
)

// AddressListResponse lists the user's addresses with the one checkout will use
type AddressListResponse struct {
	Addresses []commerce.Address `json:"addresses"`
	Selected  *commerce.Address  `json:"selected"`
}

// AddressHandler handles delivery address endpoints
type AddressHandler struct {
	addresses *user.AddressService
	signInURL string
}

// NewAddressHandler creates a new address handler
func NewAddressHandler(addresses *user.AddressService, signInURL string) *AddressHandler {
	return &AddressHandler{addresses: addresses, signInURL: signInURL}
}

// ListAddresses handles GET /addresses
func (h *AddressHandler) ListAddresses(c *gin.Context) {
	s := middleware.ShopperFromContext(c)

	addresses, err := h.addresses.Addresses(c.Request.Context(), s.Gate.Token())
	if err != nil {
		respondError(c, h.signInURL, err, "Failed to retrieve addresses")
		return
	}

	resp := AddressListResponse{Addresses: addresses}
	if selected, ok := selectedAddress(s, addresses); ok {
		resp.Selected = &selected
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Addresses retrieved successfully",
		"data":    resp,
	})
}

// CreateAddress handles POST /addresses
func (h *AddressHandler) CreateAddress(c *gin.Context) {
	s := middleware.ShopperFromContext(c)

	var req user.CreateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	addr, err := h.addresses.Create(c.Request.Context(), s.Gate.Token(), req)
	if err != nil {
		respondError(c, h.signInURL, err, "We couldn't save your address. Please try again.")
		return
	}
	h.refreshProfile(c, s)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Address created successfully",
		"data":    addr,
	})
}

// UpdateAddress handles PATCH /addresses/:id
func (h *AddressHandler) UpdateAddress(c *gin.Context) {
	s := middleware.ShopperFromContext(c)
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req user.UpdateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	addr, err := h.addresses.Update(c.Request.Context(), s.Gate.Token(), id, req)
	if errors.Is(err, user.ErrEmptyUpdate) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Nothing to update",
		})
		return
	}
	if err != nil {
		respondError(c, h.signInURL, err, "We couldn't update your address. Please try again.")
		return
	}
	h.refreshProfile(c, s)

	c.JSON(http.StatusOK, gin.H{
		"message": "Address updated successfully",
		"data":    addr,
	})
}

// SetDefaultAddress handles POST /addresses/:id/default
func (h *AddressHandler) SetDefaultAddress(c *gin.Context) {
	s := middleware.ShopperFromContext(c)
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	addr, err := h.addresses.SetDefault(c.Request.Context(), s.Gate.Token(), id)
	if err != nil {
		respondError(c, h.signInURL, err, "We couldn't update your address. Please try again.")
		return
	}
	h.refreshProfile(c, s)

	c.JSON(http.StatusOK, gin.H{
		"message": "Default address updated successfully",
		"data":    addr,
	})
}

// SelectAddress handles POST /addresses/:id/select
func (h *AddressHandler) SelectAddress(c *gin.Context) {
	s := middleware.ShopperFromContext(c)
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	addresses, err := h.addresses.Addresses(c.Request.Context(), s.Gate.Token())
	if err != nil {
		respondError(c, h.signInURL, err, "Failed to retrieve addresses")
		return
	}

	addr, err := user.FindAddress(addresses, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Address not found",
		})
		return
	}
	s.SelectAddress(addr.ID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Delivery address selected",
		"data":    addr,
	})
}

// refreshProfile reloads the profile cached on the session after an address change.
// If the reload fails the cached profile is dropped so checkout fetches it again.
func (h *AddressHandler) refreshProfile(c *gin.Context, s *storefront.Shopper) {
	token := s.Gate.Token()
	u, err := h.addresses.Profile(c.Request.Context(), token)
	if err != nil {
		u = nil
	}
	s.AttachProfile(token, u)
}

// selectedAddress is the shopper's explicit pick when it still exists, else the default
func selectedAddress(s *storefront.Shopper, addresses []commerce.Address) (commerce.Address, bool) {
	if id := s.SelectedAddress(); id > 0 {
		if addr, err := user.FindAddress(addresses, id); err == nil {
			return addr, true
		}
	}
	return user.DefaultAddress(addresses)
}
