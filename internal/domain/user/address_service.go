// internal/domain/user/address_service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/your-org/sweets-storefront/internal/infrastructure/commerce"
	"github.com/your-org/sweets-storefront/internal/pkg/validation"
)

var (
	ErrEmptyUpdate     = errors.New("no address fields to update")
	ErrAddressNotFound = errors.New("address not found")
)

// API is the part of the commerce client serving profiles and addresses
type API interface {
	Me(ctx context.Context, token string) (*commerce.User, error)
	CreateAddress(ctx context.Context, token string, addr commerce.Address) (*commerce.Address, error)
	UpdateAddress(ctx context.Context, token string, id int, patch commerce.AddressPatch) (*commerce.Address, error)
}

// CreateAddressRequest represents address creation data
type CreateAddressRequest struct {
	Name      string `json:"name"`
	Address   string `json:"address" binding:"required"`
	City      string `json:"city" binding:"required,alphaspace"`
	District  string `json:"district" binding:"required,alphaspace"`
	State     string `json:"state" binding:"required,alphaspace"`
	Country   string `json:"country" binding:"required,alphaspace"`
	Pincode   string `json:"pincode" binding:"required,len=6,digits"`
	Phone     string `json:"phone" binding:"required,len=10,digits"`
	Email     string `json:"email" binding:"required,email"`
	IsDefault bool   `json:"is_default"`
}

// UpdateAddressRequest represents a partial address update
// A field that is present is validated like its create counterpart.
type UpdateAddressRequest struct {
	Name      *string `json:"name"`
	Address   *string `json:"address" binding:"omitnil,min=1"`
	City      *string `json:"city" binding:"omitnil,alphaspace"`
	District  *string `json:"district" binding:"omitnil,alphaspace"`
	State     *string `json:"state" binding:"omitnil,alphaspace"`
	Country   *string `json:"country" binding:"omitnil,alphaspace"`
	Pincode   *string `json:"pincode" binding:"omitnil,len=6,digits"`
	Phone     *string `json:"phone" binding:"omitnil,len=10,digits"`
	Email     *string `json:"email" binding:"omitnil,email"`
	IsDefault *bool   `json:"is_default"`
}

// AddressService handles profile and address operations against the commerce API
type AddressService struct {
	api      API
	validate *validator.Validate
	logger   *logrus.Entry
}

// NewAddressService creates a new address service
func NewAddressService(api API, logger *logrus.Logger) *AddressService {
	return &AddressService{
		api:      api,
		validate: validation.New(),
		logger:   logger.WithField("component", "addresses"),
	}
}

// Profile returns the signed-in user's profile
func (s *AddressService) Profile(ctx context.Context, token string) (*commerce.User, error) {
	u, err := s.api.Me(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return u, nil
}

// Addresses returns the signed-in user's addresses
func (s *AddressService) Addresses(ctx context.Context, token string) ([]commerce.Address, error) {
	u, err := s.Profile(ctx, token)
	if err != nil {
		return nil, err
	}
	if u.Addresses == nil {
		return []commerce.Address{}, nil
	}
	return u.Addresses, nil
}

// ValidateAddress checks a new address before any network call
func (s *AddressService) ValidateAddress(req *CreateAddressRequest) error {
	req.Address = strings.TrimSpace(req.Address)
	req.City = strings.TrimSpace(req.City)
	req.District = strings.TrimSpace(req.District)
	req.State = strings.TrimSpace(req.State)
	req.Country = strings.TrimSpace(req.Country)
	req.Email = strings.TrimSpace(req.Email)
	return s.validate.Struct(req)
}

// Create validates and creates an address
func (s *AddressService) Create(ctx context.Context, token string, req CreateAddressRequest) (*commerce.Address, error) {
	if err := s.ValidateAddress(&req); err != nil {
		return nil, err
	}

	addr, err := s.api.CreateAddress(ctx, token, commerce.Address{
		Name:      strings.TrimSpace(req.Name),
		Address:   req.Address,
		City:      req.City,
		District:  req.District,
		State:     req.State,
		Country:   req.Country,
		Pincode:   req.Pincode,
		Phone:     req.Phone,
		Email:     req.Email,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to create address")
		return nil, fmt.Errorf("failed to create address: %w", err)
	}
	return addr, nil
}

// Update validates and applies a partial update
func (s *AddressService) Update(ctx context.Context, token string, id int, req UpdateAddressRequest) (*commerce.Address, error) {
	for _, field := range []**string{&req.Name, &req.Address, &req.City, &req.District, &req.State, &req.Country, &req.Email} {
		*field = trimmed(*field)
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	patch := commerce.AddressPatch{
		Name:      req.Name,
		Address:   req.Address,
		City:      req.City,
		District:  req.District,
		State:     req.State,
		Country:   req.Country,
		Pincode:   req.Pincode,
		Phone:     req.Phone,
		Email:     req.Email,
		IsDefault: req.IsDefault,
	}
	if patch == (commerce.AddressPatch{}) {
		return nil, ErrEmptyUpdate
	}

	addr, err := s.api.UpdateAddress(ctx, token, id, patch)
	if err != nil {
		s.logger.WithError(err).WithField("address_id", id).Error("Failed to update address")
		return nil, fmt.Errorf("failed to update address: %w", err)
	}
	return addr, nil
}

// trimmed returns a copy of *v without surrounding whitespace, nil for nil
func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

// SetDefault marks the address as the user's default. The server clears the previous one.
func (s *AddressService) SetDefault(ctx context.Context, token string, id int) (*commerce.Address, error) {
	isDefault := true
	return s.Update(ctx, token, id, UpdateAddressRequest{IsDefault: &isDefault})
}

// DefaultAddress returns the default-flagged address, else the first one
func DefaultAddress(addresses []commerce.Address) (commerce.Address, bool) {
	for _, a := range addresses {
		if a.IsDefault {
			return a, true
		}
	}
	if len(addresses) > 0 {
		return addresses[0], true
	}
	return commerce.Address{}, false
}

// FindAddress looks up an address by id
func FindAddress(addresses []commerce.Address, id int) (commerce.Address, error) {
	for _, a := range addresses {
		if a.ID == id {
			return a, nil
		}
	}
	return commerce.Address{}, ErrAddressNotFound
}
