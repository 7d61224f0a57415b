// Package discount implements discount code validation and the exactly-once
// application of a code to an order.
package discount

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates the supported discount strategies.
type Type string

const (
	// TypePercentage applies a percentage of the order subtotal.
	TypePercentage Type = "percentage"
	// TypeFixed applies a fixed monetary amount capped at the subtotal.
	TypeFixed Type = "fixed"
)

// Distinct validation failures, surfaced to the submitter as separate
// conditions.
var (
	ErrNotFound      = errors.New("discount code not found")
	ErrExpired       = errors.New("discount code expired")
	ErrUsageExceeded = errors.New("discount code usage limit reached")
	ErrMinimumNotMet = errors.New("order subtotal below the code minimum")
	// ErrAlreadyApplied is returned when an order already carries a discount.
	ErrAlreadyApplied = errors.New("discount already applied to this order")
)

// Rule defines a discount code's behaviour and eligibility constraints.
type Rule struct {
	ID             int64
	Code           string
	Type           Type
	Value          decimal.Decimal
	MinOrderAmount decimal.Decimal
	ValidFrom      *time.Time
	ValidUntil     *time.Time
	// MaxUses of zero means unlimited.
	MaxUses int
	Uses    int
	Active  bool
}

// OrderDiscount is the join record: which code applied to which order and
// the resulting amount. At most one exists per order.
type OrderDiscount struct {
	ID        int64
	OrderID   int64
	CodeID    int64
	Amount    decimal.Decimal
	CreatedAt time.Time
}

// Repository provides lookup and mutation of discount codes.
type Repository interface {
	// FindByCode returns the active rule for code (case-insensitive), or
	// ErrNotFound.
	FindByCode(ctx context.Context, code string) (*Rule, error)
	// ApplyToOrder atomically inserts the join record, replaces the order's
	// payable total, and bumps the code's usage counter. Returns
	// ErrAlreadyApplied when the order already carries a discount and
	// order.ErrNotFound when the order is missing or no longer unpaid. On
	// any failure none of the three writes survive.
	ApplyToOrder(ctx context.Context, od *OrderDiscount, newTotal decimal.Decimal) error
}
