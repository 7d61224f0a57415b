// Package stripecheckout implements payment.Provider against the Stripe
// hosted checkout REST API.
package stripecheckout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/resumedesk/server/internal/domain/payment"
)

const defaultBaseURL = "https://api.stripe.com"

var _ payment.Provider = (*Client)(nil)

// Client calls the Stripe API with a secret key. A zero-value key marks the
// provider as not configured; CreateSession then fails fast without touching
// the network.
type Client struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithBaseURL overrides the API origin. Used by tests to point at a local
// stub server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// New creates a Stripe client. secretKey may be empty when payments are not
// configured for the deployment.
func New(secretKey string, opts ...Option) *Client {
	c := &Client{
		secretKey: secretKey,
		baseURL:   defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// sessionResponse is the subset of the checkout session object we use.
type sessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// apiError is Stripe's error envelope.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// CreateSession creates a hosted checkout session with a single line item.
func (c *Client) CreateSession(ctx context.Context, spec payment.CheckoutSpec) (*payment.Session, error) {
	if c.secretKey == "" {
		return nil, payment.ErrNotConfigured
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[]", "card")
	form.Set("line_items[0][price_data][currency]", "usd")
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(spec.AmountCents, 10))
	form.Set("line_items[0][price_data][product_data][name]", spec.ItemName)
	form.Set("line_items[0][price_data][product_data][description]", spec.Description)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", spec.SuccessURL)
	form.Set("cancel_url", spec.CancelURL)
	form.Set("client_reference_id", strconv.FormatInt(spec.OrderID, 10))
	form.Set("customer_email", spec.CustomerEmail)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.SetBasicAuth(c.secretKey, "")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error.Message != "" {
			return nil, errors.Errorf("stripe: %s (status %d)", apiErr.Error.Message, resp.StatusCode)
		}
		return nil, errors.Errorf("stripe: unexpected status %d", resp.StatusCode)
	}

	var sess sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	if sess.ID == "" || sess.URL == "" {
		return nil, errors.New("stripe: session response missing id or url")
	}

	return &payment.Session{ID: sess.ID, URL: sess.URL}, nil
}
