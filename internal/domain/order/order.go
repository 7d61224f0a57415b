// Package order implements the order lifecycle: intake, status transitions,
// tracking history, and customer-facing lookups.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/resumedesk/server/internal/domain/catalog"
)

// PaymentStatus describes whether an order has been paid for.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// ErrNotFound is returned when no order matches the lookup. Track lookups
// deliberately return it for both a wrong id and a wrong email so callers
// cannot probe which part was wrong.
var ErrNotFound = errors.New("order not found")

// ValidationError indicates rejected intake input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Order is a customer order for one service at one tier.
type Order struct {
	ID                  int64
	FirstName           string
	LastName            string
	Email               string
	Phone               string
	ServiceID           int64
	ServiceTier         catalog.Tier
	TotalAmount         decimal.Decimal
	Status              Status
	PaymentStatus       PaymentStatus
	StripeSessionID     string
	ResumePath          string
	CoverLetterPath     string
	JobDescriptionPath  string
	CurrentPosition     string
	TargetPosition      string
	Industry            string
	CareerGoals         string
	SpecialRequirements string
	AdminNotes          string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	CompletedAt         *time.Time
}

// FullName returns the customer's display name.
func (o *Order) FullName() string {
	return o.FirstName + " " + o.LastName
}

// TrackingEntry is one append-only history record for an order. Entries are
// never mutated or deleted.
type TrackingEntry struct {
	ID        int64
	OrderID   int64
	Note      string
	CreatedAt time.Time
}

// ListFilter selects and pages orders for the admin console.
type ListFilter struct {
	// Status filters by order status when non-empty.
	Status Status
	// Page is 1-based.
	Page    int
	PerPage int
}

// Stats aggregates dashboard counters.
type Stats struct {
	Total      int64
	Pending    int64
	InProgress int64
	Completed  int64
	// Revenue sums total_amount over paid orders.
	Revenue decimal.Decimal
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create persists a new order and fills its ID and timestamps. The
	// initial tracking entry is written in the same transaction.
	Create(ctx context.Context, o *Order, trackingNote string) error
	// Get returns the order with the given id, or ErrNotFound.
	Get(ctx context.Context, id int64) (*Order, error)
	// GetByIDAndEmail returns the order matching both id and email
	// (case-insensitive), or ErrNotFound.
	GetByIDAndEmail(ctx context.Context, id int64, email string) (*Order, error)
	// GetBySession returns the order holding the given checkout session id,
	// or ErrNotFound.
	GetBySession(ctx context.Context, sessionID string) (*Order, error)
	// SetSession stores the checkout session id on an unpaid order.
	SetSession(ctx context.Context, id int64, sessionID string) error
	// Transition row-locks the order, applies fn to the loaded row, and
	// writes back status, payment status, admin notes, and completed_at.
	// A non-empty note appends a tracking entry in the same transaction.
	// Concurrent transitions on one order serialize on the row lock.
	Transition(ctx context.Context, id int64, fn TransitionFunc) (*Order, error)
	// TransitionBySession behaves like Transition but locates the order by
	// checkout session id.
	TransitionBySession(ctx context.Context, sessionID string, fn TransitionFunc) (*Order, error)
	// Tracking returns the order's history, newest first.
	Tracking(ctx context.Context, orderID int64) ([]TrackingEntry, error)
	// List returns a page of orders (newest first) and the total match count.
	List(ctx context.Context, f ListFilter) ([]Order, int64, error)
	// ListAll streams every order for exports, newest first.
	ListAll(ctx context.Context) ([]Order, error)
	// Stats returns dashboard counters.
	Stats(ctx context.Context) (*Stats, error)
}

// TransitionFunc mutates a row-locked order. Returning a non-empty note
// appends a tracking entry. Returning an error aborts the transaction and
// leaves the order untouched.
type TransitionFunc func(o *Order) (note string, err error)
