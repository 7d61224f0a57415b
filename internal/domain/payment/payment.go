// Package payment adapts the hosted-checkout payment provider to the order
// lifecycle: session creation and callback reconciliation.
package payment

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	// ErrNotConfigured is returned before any network call when the
	// provider has no credentials.
	ErrNotConfigured = errors.New("payment provider is not configured")
	// ErrProviderFailure wraps any provider-call failure. Surfaced to the
	// customer as a generic retryable error.
	ErrProviderFailure = errors.New("payment provider request failed")
	// ErrAlreadyPaid is returned when checkout is requested for a paid order.
	ErrAlreadyPaid = errors.New("order is already paid")
)

// SessionPlaceholder is substituted by the provider with the real session id
// when the customer completes checkout. It is embedded verbatim in the
// success URL.
const SessionPlaceholder = "{CHECKOUT_SESSION_ID}"

// CheckoutSpec describes the single line item checkout session to create.
type CheckoutSpec struct {
	// OrderID is embedded as the session's client reference.
	OrderID int64
	// ItemName and Description label the line item on the hosted page.
	ItemName    string
	Description string
	// AmountCents is the payable total in minor units.
	AmountCents   int64
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// Session is the provider's handle for one checkout attempt. ID reconciles
// the success callback to the order; URL is where the customer is sent.
type Session struct {
	ID  string
	URL string
}

// Provider creates hosted checkout sessions. Implementations return
// ErrNotConfigured without touching the network when credentials are absent.
type Provider interface {
	CreateSession(ctx context.Context, spec CheckoutSpec) (*Session, error)
}
