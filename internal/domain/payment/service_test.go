package payment

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/resumedesk/server/internal/domain/catalog"
	"github.com/resumedesk/server/internal/domain/order"
)

// --- Mock implementations ---

type mockOrders struct {
	byID     map[int64]*order.Order
	tracking map[int64][]string
}

func newMockOrders(orders ...*order.Order) *mockOrders {
	byID := make(map[int64]*order.Order, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
	}
	return &mockOrders{byID: byID, tracking: make(map[int64][]string)}
}

func (m *mockOrders) Create(_ context.Context, _ *order.Order, _ string) error { return nil }

func (m *mockOrders) Get(_ context.Context, id int64) (*order.Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrders) GetByIDAndEmail(_ context.Context, _ int64, _ string) (*order.Order, error) {
	return nil, order.ErrNotFound
}

func (m *mockOrders) GetBySession(_ context.Context, sessionID string) (*order.Order, error) {
	for _, o := range m.byID {
		if o.StripeSessionID == sessionID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, order.ErrNotFound
}

func (m *mockOrders) SetSession(_ context.Context, id int64, sessionID string) error {
	o, ok := m.byID[id]
	if !ok {
		return order.ErrNotFound
	}
	o.StripeSessionID = sessionID
	return nil
}

func (m *mockOrders) Transition(_ context.Context, id int64, fn order.TransitionFunc) (*order.Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	note, err := fn(&cp)
	if err != nil {
		return nil, err
	}
	m.byID[id] = &cp
	if note != "" {
		m.tracking[id] = append(m.tracking[id], note)
	}
	out := cp
	return &out, nil
}

func (m *mockOrders) TransitionBySession(ctx context.Context, sessionID string, fn order.TransitionFunc) (*order.Order, error) {
	for id, o := range m.byID {
		if o.StripeSessionID == sessionID {
			return m.Transition(ctx, id, fn)
		}
	}
	return nil, order.ErrNotFound
}

func (m *mockOrders) Tracking(_ context.Context, id int64) ([]order.TrackingEntry, error) {
	return nil, nil
}

func (m *mockOrders) List(_ context.Context, _ order.ListFilter) ([]order.Order, int64, error) {
	return nil, 0, nil
}

func (m *mockOrders) ListAll(_ context.Context) ([]order.Order, error) { return nil, nil }

func (m *mockOrders) Stats(_ context.Context) (*order.Stats, error) { return &order.Stats{}, nil }

type mockCatalog struct{}

func (mockCatalog) ListActive(_ context.Context) ([]catalog.Service, error) { return nil, nil }

func (m mockCatalog) GetActive(ctx context.Context, id int64) (*catalog.Service, error) {
	return m.Get(ctx, id)
}

func (mockCatalog) Get(_ context.Context, id int64) (*catalog.Service, error) {
	return &catalog.Service{ID: id, Name: "Professional Resume Writing"}, nil
}

type mockProvider struct {
	lastSpec CheckoutSpec
	session  *Session
	err      error
}

func (m *mockProvider) CreateSession(_ context.Context, spec CheckoutSpec) (*Session, error) {
	m.lastSpec = spec
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

type mockNotifier struct {
	confirmed int
}

func (m *mockNotifier) PaymentConfirmed(_ context.Context, _ *order.Order, _ *catalog.Service) error {
	m.confirmed++
	return nil
}

// --- Helpers ---

func unpaidOrder(id int64) *order.Order {
	return &order.Order{
		ID:            id,
		FirstName:     "Ada",
		LastName:      "Lovelace",
		Email:         "ada@example.com",
		ServiceID:     1,
		ServiceTier:   catalog.TierPremium,
		TotalAmount:   decimal.RequireFromString("199.00"),
		Status:        order.StatusPending,
		PaymentStatus: order.PaymentUnpaid,
	}
}

func newTestService(orders *mockOrders, p Provider, n *mockNotifier) *Service {
	return NewService(orders, mockCatalog{}, p, n, "https://resumedesk.example", zap.NewNop())
}

// --- Tests ---

func TestStartCheckout(t *testing.T) {
	orders := newMockOrders(unpaidOrder(7))
	provider := &mockProvider{session: &Session{ID: "cs_test_123", URL: "https://checkout.example/cs_test_123"}}
	svc := newTestService(orders, provider, &mockNotifier{})

	sess, err := svc.StartCheckout(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/cs_test_123", sess.URL)

	spec := provider.lastSpec
	assert.Equal(t, int64(19900), spec.AmountCents)
	assert.Equal(t, "ada@example.com", spec.CustomerEmail)
	assert.Equal(t, "Professional Resume Writing - Premium", spec.ItemName)
	assert.Equal(t, "https://resumedesk.example/payment-success?session_id="+SessionPlaceholder, spec.SuccessURL)
	assert.Equal(t, "https://resumedesk.example/payment-cancel?order_id=7", spec.CancelURL)

	// The session id is persisted for later reconciliation.
	assert.Equal(t, "cs_test_123", orders.byID[7].StripeSessionID)
}

func TestStartCheckout_AlreadyPaid(t *testing.T) {
	paid := unpaidOrder(7)
	paid.PaymentStatus = order.PaymentPaid
	svc := newTestService(newMockOrders(paid), &mockProvider{}, &mockNotifier{})

	_, err := svc.StartCheckout(context.Background(), 7)
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestStartCheckout_NotConfigured(t *testing.T) {
	svc := newTestService(newMockOrders(unpaidOrder(7)), &mockProvider{err: ErrNotConfigured}, &mockNotifier{})

	_, err := svc.StartCheckout(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestStartCheckout_ProviderFailure(t *testing.T) {
	orders := newMockOrders(unpaidOrder(7))
	svc := newTestService(orders, &mockProvider{err: assert.AnError}, &mockNotifier{})

	_, err := svc.StartCheckout(context.Background(), 7)

	assert.ErrorIs(t, err, ErrProviderFailure)
	assert.Empty(t, orders.byID[7].StripeSessionID, "no partial state on provider failure")
}

func TestReconcileSuccess(t *testing.T) {
	o := unpaidOrder(7)
	o.StripeSessionID = "cs_test_123"
	orders := newMockOrders(o)
	n := &mockNotifier{}
	svc := newTestService(orders, &mockProvider{}, n)

	got, err := svc.ReconcileSuccess(context.Background(), "cs_test_123")

	require.NoError(t, err)
	assert.Equal(t, order.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, order.StatusInProgress, got.Status)
	assert.Equal(t, 1, n.confirmed)
	require.Len(t, orders.tracking[7], 1)
	assert.Equal(t, "Payment received, order moved to in progress", orders.tracking[7][0])
}

func TestReconcileSuccess_Idempotent(t *testing.T) {
	o := unpaidOrder(7)
	o.StripeSessionID = "cs_test_123"
	orders := newMockOrders(o)
	n := &mockNotifier{}
	svc := newTestService(orders, &mockProvider{}, n)

	_, err := svc.ReconcileSuccess(context.Background(), "cs_test_123")
	require.NoError(t, err)

	// A page refresh replays the callback.
	got, err := svc.ReconcileSuccess(context.Background(), "cs_test_123")

	require.NoError(t, err)
	assert.Equal(t, order.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, 1, n.confirmed, "no second confirmation email")
	assert.Len(t, orders.tracking[7], 1, "no second tracking entry")
}

func TestReconcileSuccess_UnknownSession(t *testing.T) {
	svc := newTestService(newMockOrders(), &mockProvider{}, &mockNotifier{})

	_, err := svc.ReconcileSuccess(context.Background(), "cs_unknown")
	assert.ErrorIs(t, err, order.ErrNotFound)

	_, err = svc.ReconcileSuccess(context.Background(), "")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestReconcileCancel_LeavesOrderUntouched(t *testing.T) {
	orders := newMockOrders(unpaidOrder(7))
	svc := newTestService(orders, &mockProvider{}, &mockNotifier{})

	got, err := svc.ReconcileCancel(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, got.Status)
	assert.Equal(t, order.PaymentUnpaid, got.PaymentStatus)
	assert.Empty(t, orders.tracking[7])
}
