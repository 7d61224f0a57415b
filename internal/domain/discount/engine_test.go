package discount

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resumedesk/server/internal/domain/order"
)

// --- Mock implementations ---

type mockOrders struct {
	byID map[int64]*order.Order
}

func (m *mockOrders) Get(_ context.Context, id int64) (*order.Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

type mockCodeRepo struct {
	rules   map[string]*Rule
	orders  *mockOrders
	applied map[int64]*OrderDiscount // order id -> applied discount
	uses    map[int64]int
}

func newMockCodeRepo(orders *mockOrders, rules ...*Rule) *mockCodeRepo {
	byCode := make(map[string]*Rule, len(rules))
	for _, r := range rules {
		byCode[r.Code] = r
	}
	return &mockCodeRepo{
		rules:   byCode,
		orders:  orders,
		applied: make(map[int64]*OrderDiscount),
		uses:    make(map[int64]int),
	}
}

func (m *mockCodeRepo) FindByCode(_ context.Context, code string) (*Rule, error) {
	r, ok := m.rules[code]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// ApplyToOrder mirrors the transactional semantics of the real repository:
// either all three writes land or none of them do.
func (m *mockCodeRepo) ApplyToOrder(_ context.Context, od *OrderDiscount, newTotal decimal.Decimal) error {
	if _, ok := m.applied[od.OrderID]; ok {
		return ErrAlreadyApplied
	}
	o, ok := m.orders.byID[od.OrderID]
	if !ok || o.PaymentStatus != order.PaymentUnpaid {
		return order.ErrNotFound
	}
	m.applied[od.OrderID] = od
	o.TotalAmount = newTotal
	m.uses[od.CodeID]++
	return nil
}

// --- Helpers ---

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func percentRule(code string, percent int64) *Rule {
	return &Rule{
		ID:     1,
		Code:   code,
		Type:   TypePercentage,
		Value:  decimal.NewFromInt(percent),
		Active: true,
	}
}

func unpaidOrder(id int64, total string) *order.Order {
	return &order.Order{
		ID:            id,
		TotalAmount:   decimal.RequireFromString(total),
		Status:        order.StatusPending,
		PaymentStatus: order.PaymentUnpaid,
	}
}

func newTestEngine(orders *mockOrders, rules ...*Rule) (*Engine, *mockCodeRepo) {
	codes := newMockCodeRepo(orders, rules...)
	e := NewEngine(codes, orders)
	e.now = func() time.Time { return testNow }
	return e, codes
}

// --- Tests ---

func TestValidate_Percentage(t *testing.T) {
	e, _ := newTestEngine(&mockOrders{}, percentRule("SAVE10", 10))

	rule, amount, err := e.Validate(context.Background(), "SAVE10", decimal.RequireFromString("299.00"))

	require.NoError(t, err)
	assert.Equal(t, "SAVE10", rule.Code)
	assert.True(t, decimal.RequireFromString("29.90").Equal(amount), "got %s", amount)
}

func TestValidate_UnknownCode(t *testing.T) {
	e, _ := newTestEngine(&mockOrders{})

	_, _, err := e.Validate(context.Background(), "BOGUS", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidate_TimeWindow(t *testing.T) {
	future := testNow.Add(24 * time.Hour)
	past := testNow.Add(-24 * time.Hour)

	notYet := percentRule("SOON", 10)
	notYet.ValidFrom = &future

	over := percentRule("GONE", 10)
	over.ValidUntil = &past

	e, _ := newTestEngine(&mockOrders{}, notYet, over)

	_, _, err := e.Validate(context.Background(), "SOON", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ErrExpired)

	_, _, err = e.Validate(context.Background(), "GONE", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ErrExpired)
}

func TestValidate_UsageCap(t *testing.T) {
	exhausted := percentRule("MAXED", 10)
	exhausted.MaxUses = 5
	exhausted.Uses = 5

	e, _ := newTestEngine(&mockOrders{}, exhausted)

	_, _, err := e.Validate(context.Background(), "MAXED", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ErrUsageExceeded)
}

func TestValidate_Minimum(t *testing.T) {
	picky := percentRule("BIGONLY", 10)
	picky.MinOrderAmount = decimal.NewFromInt(150)

	e, _ := newTestEngine(&mockOrders{}, picky)

	_, _, err := e.Validate(context.Background(), "BIGONLY", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ErrMinimumNotMet)

	_, _, err = e.Validate(context.Background(), "BIGONLY", decimal.NewFromInt(150))
	assert.NoError(t, err, "minimum is inclusive")
}

func TestAmount_FixedCappedAtSubtotal(t *testing.T) {
	rule := &Rule{Type: TypeFixed, Value: decimal.NewFromInt(50)}

	amount := Amount(rule, decimal.NewFromInt(30))
	assert.True(t, decimal.NewFromInt(30).Equal(amount), "fixed discount capped at subtotal")

	amount = Amount(rule, decimal.NewFromInt(80))
	assert.True(t, decimal.NewFromInt(50).Equal(amount))
}

func TestAmount_RoundsToCents(t *testing.T) {
	rule := &Rule{Type: TypePercentage, Value: decimal.RequireFromString("33.33")}

	amount := Amount(rule, decimal.RequireFromString("149.00"))
	assert.Equal(t, int32(-2), amount.Exponent())
}

func TestApply_ReducesTotalOnce(t *testing.T) {
	orders := &mockOrders{byID: map[int64]*order.Order{7: unpaidOrder(7, "299.00")}}
	e, codes := newTestEngine(orders, percentRule("SAVE10", 10))

	newTotal, err := e.Apply(context.Background(), 7, "SAVE10")

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("269.10").Equal(newTotal), "got %s", newTotal)
	assert.True(t, decimal.RequireFromString("269.10").Equal(orders.byID[7].TotalAmount))
	assert.Equal(t, 1, codes.uses[1])

	// Second application is rejected and changes nothing.
	_, err = e.Apply(context.Background(), 7, "SAVE10")
	assert.ErrorIs(t, err, ErrAlreadyApplied)
	assert.True(t, decimal.RequireFromString("269.10").Equal(orders.byID[7].TotalAmount))
	assert.Equal(t, 1, codes.uses[1])
}

func TestApply_OrderNotFound(t *testing.T) {
	e, _ := newTestEngine(&mockOrders{}, percentRule("SAVE10", 10))

	_, err := e.Apply(context.Background(), 404, "SAVE10")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestApply_PaidOrderLeavesNothingBehind(t *testing.T) {
	orders := &mockOrders{byID: map[int64]*order.Order{7: unpaidOrder(7, "299.00")}}
	e, codes := newTestEngine(orders, percentRule("SAVE10", 10))

	// Order pays between the load and the application writes.
	orders.byID[7].PaymentStatus = order.PaymentPaid

	_, err := e.Apply(context.Background(), 7, "SAVE10")

	assert.ErrorIs(t, err, order.ErrNotFound)
	assert.Empty(t, codes.applied, "no join row on failed application")
	assert.Zero(t, codes.uses[1])
	assert.True(t, decimal.RequireFromString("299.00").Equal(orders.byID[7].TotalAmount))

	// A retry does not trip over leftovers from the failed attempt.
	_, err = e.Apply(context.Background(), 7, "SAVE10")
	assert.ErrorIs(t, err, order.ErrNotFound)
	assert.NotErrorIs(t, err, ErrAlreadyApplied)
}
