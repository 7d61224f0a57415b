package engage

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// SubscribeResult describes what a newsletter signup did.
type SubscribeResult int

const (
	// Subscribed means a new subscriber row was created.
	Subscribed SubscribeResult = iota
	// Resubscribed means an inactive subscriber was reactivated.
	Resubscribed
	// AlreadySubscribed means the email was already active.
	AlreadySubscribed
)

// Notifier sends the engagement emails: the contact admin notification plus
// customer auto-reply, and the newsletter welcome. All best-effort.
type Notifier interface {
	ContactReceived(ctx context.Context, m *ContactMessage) error
	NewsletterWelcome(ctx context.Context, s *Subscriber) error
}

// Service drives the engagement entity lifecycles.
type Service struct {
	repo     Repository
	notifier Notifier
	lg       *zap.Logger
}

// NewService creates the engagement service.
func NewService(repo Repository, notifier Notifier, lg *zap.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, lg: lg}
}

// SubmitContact stores the message and fires the admin notification and
// auto-reply. A failed send is logged; the message is kept either way.
func (s *Service) SubmitContact(ctx context.Context, m *ContactMessage) error {
	if m.Name == "" || m.Message == "" {
		return &ValidationError{Message: "name and message are required"}
	}
	if !strings.Contains(m.Email, "@") {
		return &ValidationError{Message: "a valid email address is required"}
	}

	if err := s.repo.CreateContactMessage(ctx, m); err != nil {
		return errors.Wrap(err, "store contact message")
	}

	if err := s.notifier.ContactReceived(ctx, m); err != nil {
		s.lg.Error("contact notification email failed",
			zap.Int64("message_id", m.ID), zap.Error(err))
	}
	return nil
}

// Subscribe signs an email up for the newsletter. A previously deactivated
// subscriber is reactivated; an active one is reported as such. The welcome
// email goes out only for brand-new subscribers, best-effort.
func (s *Service) Subscribe(ctx context.Context, email, name string) (SubscribeResult, error) {
	if !strings.Contains(email, "@") {
		return 0, &ValidationError{Message: "a valid email address is required"}
	}

	existing, err := s.repo.GetSubscriberByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Active {
			return AlreadySubscribed, nil
		}
		if err := s.repo.SetSubscriberActive(ctx, existing.ID, true); err != nil {
			return 0, errors.Wrap(err, "reactivate subscriber")
		}
		return Resubscribed, nil
	case errors.Is(err, ErrNotFound):
		// fall through to create
	default:
		return 0, errors.Wrap(err, "lookup subscriber")
	}

	sub := &Subscriber{Email: email, Name: name, Active: true}
	if err := s.repo.CreateSubscriber(ctx, sub); err != nil {
		return 0, errors.Wrap(err, "create subscriber")
	}

	if err := s.notifier.NewsletterWelcome(ctx, sub); err != nil {
		s.lg.Error("newsletter welcome email failed",
			zap.String("email", sub.Email), zap.Error(err))
	}
	return Subscribed, nil
}

// Testimonials lists approved testimonials for public pages, or all of them
// for moderation when f.ApprovedOnly is false.
func (s *Service) Testimonials(ctx context.Context, f TestimonialFilter) ([]Testimonial, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 || f.PerPage > 100 {
		f.PerPage = 12
	}
	return s.repo.ListTestimonials(ctx, f)
}

// Moderate updates a testimonial's approved/featured flags.
func (s *Service) Moderate(ctx context.Context, id int64, approved, featured bool) error {
	return s.repo.ModerateTestimonial(ctx, id, approved, featured)
}

// FAQs lists entries for the given category; empty category means all.
func (s *Service) FAQs(ctx context.Context, category string, activeOnly bool) ([]FAQ, error) {
	return s.repo.ListFAQs(ctx, category, activeOnly)
}

// SaveFAQ creates or updates an FAQ entry.
func (s *Service) SaveFAQ(ctx context.Context, f *FAQ) error {
	if f.Question == "" || f.Answer == "" {
		return &ValidationError{Message: "question and answer are required"}
	}
	if f.ID == 0 {
		return s.repo.CreateFAQ(ctx, f)
	}
	return s.repo.UpdateFAQ(ctx, f)
}

// ContactMessages pages the stored contact messages for the admin console.
func (s *Service) ContactMessages(ctx context.Context, page, perPage int) ([]ContactMessage, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.repo.ListContactMessages(ctx, page, perPage)
}
