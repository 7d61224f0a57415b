package notify

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resumedesk/server/internal/domain/catalog"
	"github.com/resumedesk/server/internal/domain/engage"
	"github.com/resumedesk/server/internal/domain/order"
	"github.com/resumedesk/server/internal/domain/referral"
)

// --- Mock implementations ---

type captureSender struct {
	sent []Message
	err  error
}

func (c *captureSender) Send(_ context.Context, m Message) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, m)
	return nil
}

// --- Helpers ---

func newTestNotifier(s Sender) *Notifier {
	return New(s, Config{
		AdminEmail: "admin@resumedesk.example",
		SiteURL:    "https://resumedesk.example",
	})
}

func testOrder() *order.Order {
	return &order.Order{
		ID:             42,
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Email:          "ada@example.com",
		ServiceTier:    catalog.TierStandard,
		TargetPosition: "Staff Engineer",
		TotalAmount:    decimal.RequireFromString("149.00"),
		Status:         order.StatusPending,
	}
}

func testService() *catalog.Service {
	return &catalog.Service{ID: 1, Name: "Professional Resume Writing"}
}

// --- Tests ---

func TestOrderCreated(t *testing.T) {
	s := &captureSender{}
	n := newTestNotifier(s)

	require.NoError(t, n.OrderCreated(context.Background(), testOrder(), testService()))

	require.Len(t, s.sent, 1)
	m := s.sent[0]
	assert.Equal(t, []string{"ada@example.com"}, m.To)
	assert.Equal(t, "Order Confirmation #42 - Professional Resume Writing", m.Subject)
	assert.Contains(t, m.Body, "Dear Ada Lovelace")
	assert.Contains(t, m.Body, "Standard package")
	assert.Contains(t, m.Body, "$149.00")
	assert.Contains(t, m.Body, "Staff Engineer")
}

func TestPaymentConfirmed(t *testing.T) {
	s := &captureSender{}
	n := newTestNotifier(s)

	require.NoError(t, n.PaymentConfirmed(context.Background(), testOrder(), testService()))

	require.Len(t, s.sent, 1)
	assert.Equal(t, "Payment Confirmed - Order #42", s.sent[0].Subject)
	assert.Contains(t, s.sent[0].Body, "Amount Paid: $149.00")
}

func TestStatusChanged(t *testing.T) {
	s := &captureSender{}
	n := newTestNotifier(s)

	o := testOrder()
	o.Status = order.StatusCompleted

	require.NoError(t, n.StatusChanged(context.Background(), o, testService(), order.StatusInProgress))

	require.Len(t, s.sent, 1)
	assert.Equal(t, "Order Update - #42 Status Changed", s.sent[0].Subject)
	assert.Contains(t, s.sent[0].Body, "New Status: Completed")
	assert.Contains(t, s.sent[0].Body, "has been completed")
}

func TestStatusChanged_SuppressedWhenUnchanged(t *testing.T) {
	s := &captureSender{}
	n := newTestNotifier(s)

	o := testOrder()
	o.Status = order.StatusInProgress

	require.NoError(t, n.StatusChanged(context.Background(), o, testService(), order.StatusInProgress))
	assert.Empty(t, s.sent)
}

func TestContactReceived(t *testing.T) {
	s := &captureSender{}
	n := newTestNotifier(s)

	msg := &engage.ContactMessage{
		Name:    "Grace",
		Email:   "grace@example.com",
		Subject: "Pricing question",
		Message: "Do you offer bulk discounts?",
	}

	require.NoError(t, n.ContactReceived(context.Background(), msg))

	require.Len(t, s.sent, 2)
	assert.Equal(t, []string{"admin@resumedesk.example"}, s.sent[0].To)
	assert.Equal(t, "New Contact Form Submission: Pricing question", s.sent[0].Subject)
	assert.Equal(t, []string{"grace@example.com"}, s.sent[1].To)
	assert.Contains(t, s.sent[1].Body, "Dear Grace")
}

func TestContactReceived_DefaultSubject(t *testing.T) {
	s := &captureSender{}
	n := newTestNotifier(s)

	msg := &engage.ContactMessage{Name: "Grace", Email: "grace@example.com", Message: "Hello"}

	require.NoError(t, n.ContactReceived(context.Background(), msg))

	require.Len(t, s.sent, 2)
	assert.Equal(t, "New Contact Form Submission: General Inquiry", s.sent[0].Subject)
	assert.Contains(t, s.sent[1].Body, "Subject: General Inquiry")
}

func TestReferralCreated(t *testing.T) {
	s := &captureSender{}
	n := newTestNotifier(s)

	r := &referral.Referral{
		ReferrerName:  "Ada",
		ReferrerEmail: "ada@example.com",
		ReferredName:  "Grace",
		ReferredEmail: "grace@example.com",
		Code:          "REF12345",
		RewardAmount:  decimal.NewFromInt(25),
	}

	require.NoError(t, n.ReferralCreated(context.Background(), r))

	require.Len(t, s.sent, 2)
	assert.Equal(t, []string{"grace@example.com"}, s.sent[0].To)
	assert.Equal(t, "Ada referred you to ResumeDesk - Get $25 Off!", s.sent[0].Subject)
	assert.Contains(t, s.sent[0].Body, "https://resumedesk.example/order?ref=REF12345")
	assert.Equal(t, []string{"ada@example.com"}, s.sent[1].To)
	assert.Contains(t, s.sent[1].Body, "REF12345")
}

func TestNewsletterWelcome(t *testing.T) {
	s := &captureSender{}
	n := newTestNotifier(s)

	require.NoError(t, n.NewsletterWelcome(context.Background(), &engage.Subscriber{Email: "sub@example.com"}))

	require.Len(t, s.sent, 1)
	assert.Equal(t, []string{"sub@example.com"}, s.sent[0].To)
	assert.Contains(t, s.sent[0].Body, "Hi there!")
	assert.Contains(t, s.sent[0].Body, "WELCOME10")
}

func TestSendErrorPropagates(t *testing.T) {
	n := newTestNotifier(&captureSender{err: assert.AnError})

	err := n.OrderCreated(context.Background(), testOrder(), testService())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcde...", truncate("abcdefgh", 5))
}
