// Package engage holds the customer-engagement entities that live alongside
// the order lifecycle without being coupled to it: contact messages,
// testimonials, FAQs, and newsletter subscriptions.
package engage

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError indicates rejected form input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ContactMessage is one submission of the contact form.
type ContactMessage struct {
	ID        int64
	Name      string
	Email     string
	Subject   string
	Message   string
	CreatedAt time.Time
}

// Testimonial is a client review, published only after moderation.
type Testimonial struct {
	ID         int64
	ClientName string
	Content    string
	Rating     int
	Industry   string
	Approved   bool
	Featured   bool
	CreatedAt  time.Time
}

// FAQ is one question/answer entry, ordered within its category.
type FAQ struct {
	ID         int64
	Question   string
	Answer     string
	Category   string
	OrderIndex int
	Active     bool
	CreatedAt  time.Time
}

// Subscriber is a newsletter signup. Unsubscribing deactivates rather than
// deletes, so a later signup reactivates the same row.
type Subscriber struct {
	ID        int64
	Email     string
	Name      string
	Active    bool
	CreatedAt time.Time
}

// TestimonialFilter selects testimonials for listing.
type TestimonialFilter struct {
	// ApprovedOnly restricts to moderated entries (always set for public
	// listings).
	ApprovedOnly bool
	// Industry filters by industry when non-empty.
	Industry string
	// MinRating filters by rating when positive.
	MinRating int
	Page      int
	PerPage   int
}

// Repository defines persistence for the engagement entities.
type Repository interface {
	CreateContactMessage(ctx context.Context, m *ContactMessage) error
	ListContactMessages(ctx context.Context, page, perPage int) ([]ContactMessage, int64, error)

	ListTestimonials(ctx context.Context, f TestimonialFilter) ([]Testimonial, int64, error)
	// ModerateTestimonial sets the approved/featured flags, or ErrNotFound.
	ModerateTestimonial(ctx context.Context, id int64, approved, featured bool) error

	// ListFAQs returns FAQs ordered by order_index then creation time.
	ListFAQs(ctx context.Context, category string, activeOnly bool) ([]FAQ, error)
	CreateFAQ(ctx context.Context, f *FAQ) error
	UpdateFAQ(ctx context.Context, f *FAQ) error

	GetSubscriberByEmail(ctx context.Context, email string) (*Subscriber, error)
	CreateSubscriber(ctx context.Context, s *Subscriber) error
	SetSubscriberActive(ctx context.Context, id int64, active bool) error
}
