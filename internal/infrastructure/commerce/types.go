// internal/infrastructure/commerce/types.go
package commerce

import (
	"time"

	"github.com/shopspring/decimal"
)

// Content types understood by the cart and ratings endpoints
const (
	ContentTypeProduct = "product"
	ContentTypeItem    = "item"
)

// Cart statuses
const (
	CartStatusDraft    = "DRAFT"
	CartStatusCheckout = "CHECKOUT"
)

// Page is the paginated envelope returned by list endpoints
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// Category represents a product category
type Category struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Item is a purchasable variant of a product, e.g. a 250g box
type Item struct {
	ID              int             `json:"id"`
	Quantity        int             `json:"quantity"` // grams
	Price           decimal.Decimal `json:"price"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
}

// Product represents a catalog product
type Product struct {
	ID              int             `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	Thumbnail       string          `json:"thumbnail,omitempty"`
	Images          []string        `json:"images,omitempty"`
	Category        int             `json:"category"`
	Price           decimal.Decimal `json:"price"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
	IsDiscounted    bool            `json:"is_discounted"`
	Rating          float64         `json:"rating,omitempty"`
	Items           []Item          `json:"items"`
}

// LineItem is one entry in a cart, with display fields denormalized by the server
type LineItem struct {
	ID              int             `json:"id"`
	ContentType     string          `json:"content_type"`
	ObjectID        int             `json:"object_id"`
	Count           int             `json:"count"`
	Title           string          `json:"title"`
	Thumbnail       string          `json:"thumbnail,omitempty"`
	Quantity        int             `json:"quantity,omitempty"` // grams
	Price           decimal.Decimal `json:"price"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
}

// Cart is a server-owned cart aggregate
type Cart struct {
	ID              int             `json:"id"`
	Status          string          `json:"status"`
	Items           []LineItem      `json:"items"`
	DiscountedTotal decimal.Decimal `json:"discounted_total"`
	CreatedAt       *time.Time      `json:"created_at,omitempty"`
	UpdatedAt       *time.Time      `json:"updated_at,omitempty"`
}

// AddToCartRequest references the entity being added
type AddToCartRequest struct {
	ContentType string `json:"content_type"`
	ObjectID    int    `json:"object_id"`
}

// CheckoutRequest submits a draft cart for checkout
type CheckoutRequest struct {
	Address int `json:"address"`
}

// CheckoutResponse carries the amount due and the gateway order reference
type CheckoutResponse struct {
	Amount  decimal.Decimal `json:"amount"`
	OrderID string          `json:"order_id"`
	Title   string          `json:"title"`
	CartID  *int            `json:"cart_id,omitempty"`
}

// PaymentConfirmation is the gateway's success payload, forwarded for verification
type PaymentConfirmation struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

// Address belongs to a user profile
type Address struct {
	ID        int    `json:"id"`
	Name      string `json:"name,omitempty"`
	Address   string `json:"address"`
	City      string `json:"city"`
	District  string `json:"district"`
	State     string `json:"state"`
	Country   string `json:"country"`
	Pincode   string `json:"pincode"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	IsDefault bool   `json:"is_default"`
}

// AddressPatch carries a partial address update
type AddressPatch struct {
	Name      *string `json:"name,omitempty"`
	Address   *string `json:"address,omitempty"`
	City      *string `json:"city,omitempty"`
	District  *string `json:"district,omitempty"`
	State     *string `json:"state,omitempty"`
	Country   *string `json:"country,omitempty"`
	Pincode   *string `json:"pincode,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Email     *string `json:"email,omitempty"`
	IsDefault *bool   `json:"is_default,omitempty"`
}

// User is the authenticated profile
type User struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Addresses []Address `json:"addresses"`
}

// FullName returns the user's display name
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.LastName
	}
}

// Rating is a product review
type Rating struct {
	ID          int        `json:"id"`
	ContentType string     `json:"content_type"`
	ObjectID    int        `json:"object_id"`
	Rating      int        `json:"rating"`
	Review      string     `json:"review"`
	UserName    string     `json:"user_name,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// RatingRequest creates a review
type RatingRequest struct {
	ContentType string `json:"content_type"`
	ObjectID    int    `json:"object_id"`
	Rating      int    `json:"rating"`
	Review      string `json:"review"`
}

// FAQ is a question/answer pair
type FAQ struct {
	ID       int    `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Slider is a home page banner
type Slider struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Image string `json:"image"`
	Link  string `json:"link,omitempty"`
}

// Branch is a physical shop
type Branch struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	MapURL  string `json:"map_url,omitempty"`
	IsMain  bool   `json:"is_main"`
}
