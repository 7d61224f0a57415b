package discount

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/resumedesk/server/internal/domain/order"
)

var hundred = decimal.NewFromInt(100)

// Orders is the slice of order persistence the engine needs: loading the
// current payable total. The write-back happens inside Repository.ApplyToOrder.
type Orders interface {
	Get(ctx context.Context, id int64) (*order.Order, error)
}

// Engine validates discount codes and applies them to orders.
type Engine struct {
	codes  Repository
	orders Orders
	now    func() time.Time
}

// NewEngine creates an Engine backed by the given repositories.
func NewEngine(codes Repository, orders Orders) *Engine {
	return &Engine{codes: codes, orders: orders, now: time.Now}
}

// Validate checks the code against the subtotal and returns the rule together
// with the computed discount amount. Failure modes are distinct: ErrNotFound,
// ErrExpired, ErrUsageExceeded, and ErrMinimumNotMet.
func (e *Engine) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*Rule, decimal.Decimal, error) {
	rule, err := e.codes.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, decimal.Zero, ErrNotFound
		}
		return nil, decimal.Zero, errors.Wrap(err, "lookup discount code")
	}

	now := e.now()
	if rule.ValidFrom != nil && now.Before(*rule.ValidFrom) {
		return nil, decimal.Zero, ErrExpired
	}
	if rule.ValidUntil != nil && now.After(*rule.ValidUntil) {
		return nil, decimal.Zero, ErrExpired
	}
	if rule.MaxUses > 0 && rule.Uses >= rule.MaxUses {
		return nil, decimal.Zero, ErrUsageExceeded
	}
	if subtotal.LessThan(rule.MinOrderAmount) {
		return nil, decimal.Zero, ErrMinimumNotMet
	}

	return rule, Amount(rule, subtotal), nil
}

// Amount computes the discount for a rule against a subtotal. Both strategies
// are capped at the subtotal so a payable total can never go negative.
func Amount(rule *Rule, subtotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch rule.Type {
	case TypePercentage:
		amount = subtotal.Mul(rule.Value).Div(hundred)
	case TypeFixed:
		amount = rule.Value
	default:
		return decimal.Zero
	}
	amount = decimal.Min(amount, subtotal)
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return amount.Round(2)
}

// Apply validates the code against the order's current payable total, then
// records the join row, reduces the total, and bumps the usage counter in one
// repository transaction. The order_discounts unique constraint makes this
// exactly-once: a second application fails with ErrAlreadyApplied and the
// total is unchanged. A failed total update (the order paid in the meantime)
// rolls the join row back too, so the user can retry.
func (e *Engine) Apply(ctx context.Context, orderID int64, code string) (decimal.Decimal, error) {
	o, err := e.orders.Get(ctx, orderID)
	if err != nil {
		return decimal.Zero, err
	}

	rule, amount, err := e.Validate(ctx, code, o.TotalAmount)
	if err != nil {
		return decimal.Zero, err
	}

	od := &OrderDiscount{
		OrderID: o.ID,
		CodeID:  rule.ID,
		Amount:  amount,
	}
	newTotal := o.TotalAmount.Sub(amount).Round(2)
	if err := e.codes.ApplyToOrder(ctx, od, newTotal); err != nil {
		return decimal.Zero, err
	}

	return newTotal, nil
}
