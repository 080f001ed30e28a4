// internal/infrastructure/commerce/client.go
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/sweets-storefront/internal/config"
)

// maxErrorBody caps how much of an error response ends up in APIError
const maxErrorBody = 512

// Client talks to the commerce REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Entry
}

// NewClient creates a new commerce API client
func NewClient(cfg config.CommerceConfig, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.WithField("component", "commerce"),
	}
}

// ProductQuery filters the product list
type ProductQuery struct {
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
	Search     string `form:"search"`
	Title      string `form:"title"`
	Category   int    `form:"category"`
	MinPrice   string `form:"min_price"`
	MaxPrice   string `form:"max_price"`
	Discounted *bool  `form:"is_discounted"`
}

// Values encodes the query for the wire
func (q ProductQuery) Values() url.Values {
	v := url.Values{}
	setPaging(v, q.Page, q.PageSize)
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Title != "" {
		v.Set("title", q.Title)
	}
	if q.Category > 0 {
		v.Set("category", strconv.Itoa(q.Category))
	}
	if q.MinPrice != "" {
		v.Set("min_price", q.MinPrice)
	}
	if q.MaxPrice != "" {
		v.Set("max_price", q.MaxPrice)
	}
	if q.Discounted != nil {
		v.Set("is_discounted", strconv.FormatBool(*q.Discounted))
	}
	return v
}

// CategoryQuery filters the category list
type CategoryQuery struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Search   string `form:"search"`
	Title    string `form:"title"`
}

// Values encodes the query for the wire
func (q CategoryQuery) Values() url.Values {
	v := url.Values{}
	setPaging(v, q.Page, q.PageSize)
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Title != "" {
		v.Set("title", q.Title)
	}
	return v
}

func setPaging(v url.Values, page, pageSize int) {
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		v.Set("page_size", strconv.Itoa(pageSize))
	}
}

// ListProducts handles GET /cms/products/
func (c *Client) ListProducts(ctx context.Context, q ProductQuery) (*Page[Product], error) {
	var page Page[Product]
	if _, err := c.do(ctx, http.MethodGet, "/cms/products/", q.Values(), "", nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetProduct handles GET /cms/products/{id}/
func (c *Client) GetProduct(ctx context.Context, id int) (*Product, error) {
	var p Product
	if _, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/cms/products/%d/", id), nil, "", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListCategories handles GET /cms/categories/
func (c *Client) ListCategories(ctx context.Context, q CategoryQuery) (*Page[Category], error) {
	var page Page[Category]
	if _, err := c.do(ctx, http.MethodGet, "/cms/categories/", q.Values(), "", nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetCategory handles GET /cms/categories/{id}/
func (c *Client) GetCategory(ctx context.Context, id int) (*Category, error) {
	var cat Category
	if _, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/cms/categories/%d/", id), nil, "", nil, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// ListCarts handles GET /cms/carts/?status=
func (c *Client) ListCarts(ctx context.Context, token, status string) ([]Cart, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	var carts []Cart
	if err := c.list(ctx, "/cms/carts/", q, token, &carts); err != nil {
		return nil, err
	}
	return carts, nil
}

// AddToCart handles POST /cms/carts/add/
func (c *Client) AddToCart(ctx context.Context, token string, req AddToCartRequest) error {
	_, err := c.do(ctx, http.MethodPost, "/cms/carts/add/", nil, token, req, nil)
	return err
}

// Checkout handles POST /cms/carts/{id}/checkout/
func (c *Client) Checkout(ctx context.Context, token string, cartID int, req CheckoutRequest) (*CheckoutResponse, error) {
	var resp CheckoutResponse
	if _, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/cms/carts/%d/checkout/", cartID), nil, token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ValidatePayment handles POST /cms/carts/{id}/validate_payment/.
// Only a 204 counts as verified.
func (c *Client) ValidatePayment(ctx context.Context, token string, cartID int, conf PaymentConfirmation) error {
	status, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/cms/carts/%d/validate_payment/", cartID), nil, token, conf, nil)
	if err != nil {
		return err
	}
	if status != http.StatusNoContent {
		return fmt.Errorf("%w: status %d", ErrPaymentNotVerified, status)
	}
	return nil
}

// Me handles GET /iam/users/me/
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var u User
	if _, err := c.do(ctx, http.MethodGet, "/iam/users/me/", nil, token, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateAddress handles POST /iam/addresses/
func (c *Client) CreateAddress(ctx context.Context, token string, addr Address) (*Address, error) {
	var created Address
	if _, err := c.do(ctx, http.MethodPost, "/iam/addresses/", nil, token, addr, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateAddress handles PATCH /iam/addresses/{id}/
func (c *Client) UpdateAddress(ctx context.Context, token string, id int, patch AddressPatch) (*Address, error) {
	var updated Address
	if _, err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/iam/addresses/%d/", id), nil, token, patch, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListRatings handles GET /cms/ratings/?content_type=&object_id=
func (c *Client) ListRatings(ctx context.Context, contentType string, objectID int) ([]Rating, error) {
	q := url.Values{}
	q.Set("content_type", contentType)
	q.Set("object_id", strconv.Itoa(objectID))
	var ratings []Rating
	if err := c.list(ctx, "/cms/ratings/", q, "", &ratings); err != nil {
		return nil, err
	}
	return ratings, nil
}

// CreateRating handles POST /cms/ratings/
func (c *Client) CreateRating(ctx context.Context, token string, req RatingRequest) (*Rating, error) {
	var r Rating
	if _, err := c.do(ctx, http.MethodPost, "/cms/ratings/", nil, token, req, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListFAQs handles GET /cms/faqs/
func (c *Client) ListFAQs(ctx context.Context) ([]FAQ, error) {
	var faqs []FAQ
	if err := c.list(ctx, "/cms/faqs/", nil, "", &faqs); err != nil {
		return nil, err
	}
	return faqs, nil
}

// ListSliders handles GET /cms/sliders/
func (c *Client) ListSliders(ctx context.Context) ([]Slider, error) {
	var sliders []Slider
	if err := c.list(ctx, "/cms/sliders/", nil, "", &sliders); err != nil {
		return nil, err
	}
	return sliders, nil
}

// MainBranch handles GET /cms/branches/?is_main=true and returns the first match
func (c *Client) MainBranch(ctx context.Context) (*Branch, error) {
	q := url.Values{}
	q.Set("is_main", "true")
	var branches []Branch
	if err := c.list(ctx, "/cms/branches/", q, "", &branches); err != nil {
		return nil, err
	}
	if len(branches) == 0 {
		return nil, &APIError{Method: http.MethodGet, Path: "/cms/branches/", StatusCode: http.StatusNotFound, Body: "no main branch"}
	}
	return &branches[0], nil
}

// list decodes endpoints that answer either a bare array or a paginated envelope
func (c *Client) list(ctx context.Context, path string, query url.Values, token string, out any) error {
	var raw json.RawMessage
	if _, err := c.do(ctx, http.MethodGet, path, query, token, nil, &raw); err != nil {
		return err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, out); err != nil {
			return fmt.Errorf("failed to decode %s: %w", path, err)
		}
		return nil
	}

	var envelope struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if len(envelope.Results) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Results, out); err != nil {
		return fmt.Errorf("failed to decode %s results: %w", path, err)
	}
	return nil
}

// do performs one request and returns the HTTP status
func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, body, out any) (int, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"method": method,
			"path":   path,
		}).Warn("Commerce request failed")
		return 0, fmt.Errorf("failed to execute %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"method":  method,
		"path":    path,
		"status":  resp.StatusCode,
		"latency": time.Since(start),
	}).Debug("Commerce request completed")

	if resp.StatusCode == http.StatusUnauthorized {
		return resp.StatusCode, ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := respBody
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return resp.StatusCode, &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(snippet),
		}
	}

	if out != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return resp.StatusCode, nil
}
