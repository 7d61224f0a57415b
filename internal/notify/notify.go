// Package notify composes and dispatches the transactional emails. Every
// send is best-effort: callers log failures and never let them block the
// triggering operation.
package notify

import (
	"context"
	"fmt"

	"github.com/resumedesk/server/internal/domain/catalog"
	"github.com/resumedesk/server/internal/domain/engage"
	"github.com/resumedesk/server/internal/domain/order"
	"github.com/resumedesk/server/internal/domain/referral"
)

// Message is one outbound email.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Sender delivers a message. Implementations must respect ctx cancellation.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Config holds the notifier's addressing.
type Config struct {
	// AdminEmail receives contact form notifications.
	AdminEmail string
	// SiteURL is the public origin linked from email bodies.
	SiteURL string
}

// Notifier formats the domain events into emails and hands them to a Sender.
// It satisfies the Notifier interfaces of the order, payment, referral, and
// engage packages.
type Notifier struct {
	sender Sender
	cfg    Config
}

// New creates a Notifier.
func New(sender Sender, cfg Config) *Notifier {
	return &Notifier{sender: sender, cfg: cfg}
}

// OrderCreated sends the order confirmation to the customer.
func (n *Notifier) OrderCreated(ctx context.Context, o *order.Order, svc *catalog.Service) error {
	body := fmt.Sprintf(`Dear %s,

Thank you for your order! We have received your request for %s (%s package).

Order Details:
- Order ID: #%d
- Service: %s - %s
- Total Amount: $%s
- Target Position: %s

Your order is currently pending payment. Once payment is completed, our
professional writers will begin working on your resume.

We will keep you updated on the progress of your order.

Best regards,
The ResumeDesk Team
`,
		o.FullName(), svc.Name, tierLabel(o.ServiceTier),
		o.ID, svc.Name, tierLabel(o.ServiceTier),
		o.TotalAmount.StringFixed(2), o.TargetPosition)

	return n.sender.Send(ctx, Message{
		To:      []string{o.Email},
		Subject: fmt.Sprintf("Order Confirmation #%d - %s", o.ID, svc.Name),
		Body:    body,
	})
}

// PaymentConfirmed sends the payment confirmation to the customer.
func (n *Notifier) PaymentConfirmed(ctx context.Context, o *order.Order, svc *catalog.Service) error {
	body := fmt.Sprintf(`Dear %s,

Your payment has been successfully processed! Our professional writing team
will now begin working on your %s.

Order Details:
- Order ID: #%d
- Service: %s - %s
- Amount Paid: $%s
- Status: In Progress

Expected Delivery: 3-5 business days

You will receive email updates as your order progresses. If you have any
questions, please don't hesitate to contact us.

Best regards,
The ResumeDesk Team
`,
		o.FullName(), svc.Name,
		o.ID, svc.Name, tierLabel(o.ServiceTier),
		o.TotalAmount.StringFixed(2))

	return n.sender.Send(ctx, Message{
		To:      []string{o.Email},
		Subject: fmt.Sprintf("Payment Confirmed - Order #%d", o.ID),
		Body:    body,
	})
}

// StatusChanged tells the customer their order moved to a new status. Callers
// suppress it entirely when the status did not change.
func (n *Notifier) StatusChanged(ctx context.Context, o *order.Order, svc *catalog.Service, old order.Status) error {
	if old == o.Status {
		return nil
	}

	detail := map[order.Status]string{
		order.StatusInProgress: "Our team has started working on your order.",
		order.StatusCompleted:  "Your order has been completed! Please check your email for the final documents.",
		order.StatusCancelled:  "Your order has been cancelled. If you have any questions, please contact us.",
	}[o.Status]
	if detail == "" {
		detail = "Your order status has been updated."
	}

	body := fmt.Sprintf(`Dear %s,

Your order status has been updated.

Order Details:
- Order ID: #%d
- Service: %s - %s
- New Status: %s

%s

Best regards,
The ResumeDesk Team
`,
		o.FullName(), o.ID, svc.Name, tierLabel(o.ServiceTier),
		statusLabel(o.Status), detail)

	return n.sender.Send(ctx, Message{
		To:      []string{o.Email},
		Subject: fmt.Sprintf("Order Update - #%d Status Changed", o.ID),
		Body:    body,
	})
}

// ContactReceived notifies the admin of a contact submission and auto-replies
// to the customer.
func (n *Notifier) ContactReceived(ctx context.Context, m *engage.ContactMessage) error {
	subject := m.Subject
	if subject == "" {
		subject = "General Inquiry"
	}

	adminBody := fmt.Sprintf(`New contact form submission received:

Name: %s
Email: %s
Subject: %s

Message:
%s

Please respond to this inquiry promptly.
`, m.Name, m.Email, subject, m.Message)

	if err := n.sender.Send(ctx, Message{
		To:      []string{n.cfg.AdminEmail},
		Subject: "New Contact Form Submission: " + subject,
		Body:    adminBody,
	}); err != nil {
		return err
	}

	replyBody := fmt.Sprintf(`Dear %s,

Thank you for reaching out to ResumeDesk! We have received your message and
will get back to you within 24 hours.

Your inquiry details:
Subject: %s
Message: %s

Best regards,
The ResumeDesk Team
`, m.Name, subject, truncate(m.Message, 200))

	return n.sender.Send(ctx, Message{
		To:      []string{m.Email},
		Subject: "Thank you for contacting ResumeDesk",
		Body:    replyBody,
	})
}

// ReferralCreated sends the offer to the referred person and a thank-you to
// the referrer.
func (n *Notifier) ReferralCreated(ctx context.Context, r *referral.Referral) error {
	referredName := r.ReferredName
	if referredName == "" {
		referredName = "there"
	}
	reward := r.RewardAmount.StringFixed(0)

	offerBody := fmt.Sprintf(`Hi %s!

Great news! %s has referred you to ResumeDesk and you'll receive $%s off
your first order!

Use referral code: %s

Ready to get started? Visit: %s/order?ref=%s

This offer is valid for 30 days from today.

Best regards,
The ResumeDesk Team
`, referredName, r.ReferrerName, reward, r.Code, n.cfg.SiteURL, r.Code)

	if err := n.sender.Send(ctx, Message{
		To:      []string{r.ReferredEmail},
		Subject: fmt.Sprintf("%s referred you to ResumeDesk - Get $%s Off!", r.ReferrerName, reward),
		Body:    offerBody,
	}); err != nil {
		return err
	}

	thanksBody := fmt.Sprintf(`Hi %s!

Thank you for referring %s to ResumeDesk!

We've sent them a special offer for $%s off their first order. When they
complete their order using referral code %s, you'll receive a $%s credit
towards your next order.

Best regards,
The ResumeDesk Team
`, r.ReferrerName, referredName, reward, r.Code, reward)

	return n.sender.Send(ctx, Message{
		To:      []string{r.ReferrerEmail},
		Subject: "Thank you for referring a friend to ResumeDesk!",
		Body:    thanksBody,
	})
}

// NewsletterWelcome greets a new subscriber.
func (n *Notifier) NewsletterWelcome(ctx context.Context, s *engage.Subscriber) error {
	name := s.Name
	if name == "" {
		name = "there"
	}

	body := fmt.Sprintf(`Hi %s!

Welcome to the ResumeDesk newsletter! You'll now receive career tips, resume
writing best practices, industry insights, and exclusive offers.

As a welcome gift, here's a 10%% discount code for your first order: WELCOME10

Ready to transform your career? Visit: %s

Best regards,
The ResumeDesk Team
`, name, n.cfg.SiteURL)

	return n.sender.Send(ctx, Message{
		To:      []string{s.Email},
		Subject: "Welcome to the ResumeDesk Newsletter!",
		Body:    body,
	})
}

func tierLabel(t catalog.Tier) string {
	switch t {
	case catalog.TierBasic:
		return "Basic"
	case catalog.TierStandard:
		return "Standard"
	case catalog.TierPremium:
		return "Premium"
	}
	return string(t)
}

func statusLabel(s order.Status) string {
	switch s {
	case order.StatusPending:
		return "Pending"
	case order.StatusInProgress:
		return "In Progress"
	case order.StatusCompleted:
		return "Completed"
	case order.StatusCancelled:
		return "Cancelled"
	}
	return string(s)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
