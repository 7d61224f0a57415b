package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/resumedesk/server/internal/domain/engage"
)

const (
	insertContactSQL = `INSERT INTO contact_messages (name, email, subject, message)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	listContactsSQL = `SELECT id, name, email, subject, message, created_at
		FROM contact_messages ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	countContactsSQL = `SELECT count(*) FROM contact_messages`

	listTestimonialsSQL = `SELECT id, client_name, content, rating, industry, approved, featured, created_at
		FROM testimonials
		WHERE ($1 = FALSE OR approved = TRUE)
		  AND ($2 = '' OR industry = $2)
		  AND ($3 = 0 OR rating >= $3)
		ORDER BY created_at DESC, id DESC LIMIT $4 OFFSET $5`
	countTestimonialsSQL = `SELECT count(*) FROM testimonials
		WHERE ($1 = FALSE OR approved = TRUE)
		  AND ($2 = '' OR industry = $2)
		  AND ($3 = 0 OR rating >= $3)`
	moderateTestimonialSQL = `UPDATE testimonials SET approved = $2, featured = $3 WHERE id = $1`

	listFAQsSQL = `SELECT id, question, answer, category, order_index, active, created_at
		FROM faqs
		WHERE ($1 = '' OR category = $1) AND ($2 = FALSE OR active = TRUE)
		ORDER BY order_index ASC, created_at DESC`
	insertFAQSQL = `INSERT INTO faqs (question, answer, category, order_index, active)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	updateFAQSQL = `UPDATE faqs SET question = $2, answer = $3, category = $4,
		order_index = $5, active = $6 WHERE id = $1`

	getSubscriberSQL = `SELECT id, email, name, active, created_at
		FROM newsletter_subscribers WHERE LOWER(email) = LOWER($1)`
	insertSubscriberSQL = `INSERT INTO newsletter_subscribers (email, name, active)
		VALUES ($1, $2, $3) RETURNING id, created_at`
	setSubscriberActiveSQL = `UPDATE newsletter_subscribers SET active = $2 WHERE id = $1`
)

var _ engage.Repository = (*EngageRepository)(nil)

// EngageRepository implements engage.Repository backed by PostgreSQL.
type EngageRepository struct {
	pool *pgxpool.Pool
}

// NewEngageRepository returns an EngageRepository that uses the given pool.
func NewEngageRepository(pool *pgxpool.Pool) *EngageRepository {
	return &EngageRepository{pool: pool}
}

// CreateContactMessage inserts a contact form submission.
func (r *EngageRepository) CreateContactMessage(ctx context.Context, m *engage.ContactMessage) error {
	err := r.pool.QueryRow(ctx, insertContactSQL,
		m.Name, m.Email, m.Subject, m.Message,
	).Scan(&m.ID, &m.CreatedAt)
	return errors.Wrap(err, "insert contact message")
}

// ListContactMessages pages contact messages, newest first.
func (r *EngageRepository) ListContactMessages(ctx context.Context, page, perPage int) ([]engage.ContactMessage, int64, error) {
	rows, err := r.pool.Query(ctx, listContactsSQL, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list contact messages")
	}
	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (engage.ContactMessage, error) {
		var m engage.ContactMessage
		err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.CreatedAt)
		return m, err
	})
	if err != nil {
		return nil, 0, errors.Wrap(err, "scan contact messages")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, countContactsSQL).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count contact messages")
	}
	return msgs, total, nil
}

// ListTestimonials pages testimonials matching the filter, newest first.
func (r *EngageRepository) ListTestimonials(ctx context.Context, f engage.TestimonialFilter) ([]engage.Testimonial, int64, error) {
	rows, err := r.pool.Query(ctx, listTestimonialsSQL,
		f.ApprovedOnly, f.Industry, f.MinRating, f.PerPage, (f.Page-1)*f.PerPage)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list testimonials")
	}
	items, err := pgx.CollectRows(rows, scanTestimonial)
	if err != nil {
		return nil, 0, errors.Wrap(err, "scan testimonials")
	}

	var total int64
	err = r.pool.QueryRow(ctx, countTestimonialsSQL, f.ApprovedOnly, f.Industry, f.MinRating).Scan(&total)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count testimonials")
	}
	return items, total, nil
}

// ModerateTestimonial sets the approved/featured flags.
func (r *EngageRepository) ModerateTestimonial(ctx context.Context, id int64, approved, featured bool) error {
	tag, err := r.pool.Exec(ctx, moderateTestimonialSQL, id, approved, featured)
	if err != nil {
		return errors.Wrapf(err, "moderate testimonial %d", id)
	}
	if tag.RowsAffected() == 0 {
		return engage.ErrNotFound
	}
	return nil
}

// ListFAQs returns FAQs ordered for display.
func (r *EngageRepository) ListFAQs(ctx context.Context, category string, activeOnly bool) ([]engage.FAQ, error) {
	rows, err := r.pool.Query(ctx, listFAQsSQL, category, activeOnly)
	if err != nil {
		return nil, errors.Wrap(err, "list faqs")
	}
	faqs, err := pgx.CollectRows(rows, scanFAQ)
	if err != nil {
		return nil, errors.Wrap(err, "scan faqs")
	}
	return faqs, nil
}

// CreateFAQ inserts a new FAQ entry.
func (r *EngageRepository) CreateFAQ(ctx context.Context, f *engage.FAQ) error {
	err := r.pool.QueryRow(ctx, insertFAQSQL,
		f.Question, f.Answer, f.Category, f.OrderIndex, f.Active,
	).Scan(&f.ID, &f.CreatedAt)
	return errors.Wrap(err, "insert faq")
}

// UpdateFAQ rewrites an existing FAQ entry.
func (r *EngageRepository) UpdateFAQ(ctx context.Context, f *engage.FAQ) error {
	tag, err := r.pool.Exec(ctx, updateFAQSQL,
		f.ID, f.Question, f.Answer, f.Category, f.OrderIndex, f.Active)
	if err != nil {
		return errors.Wrapf(err, "update faq %d", f.ID)
	}
	if tag.RowsAffected() == 0 {
		return engage.ErrNotFound
	}
	return nil
}

// GetSubscriberByEmail returns the subscriber for an email
// (case-insensitive), or engage.ErrNotFound.
func (r *EngageRepository) GetSubscriberByEmail(ctx context.Context, email string) (*engage.Subscriber, error) {
	rows, err := r.pool.Query(ctx, getSubscriberSQL, email)
	if err != nil {
		return nil, errors.Wrap(err, "get subscriber")
	}
	sub, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (engage.Subscriber, error) {
		var s engage.Subscriber
		err := row.Scan(&s.ID, &s.Email, &s.Name, &s.Active, &s.CreatedAt)
		return s, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, engage.ErrNotFound
		}
		return nil, errors.Wrap(err, "scan subscriber")
	}
	return &sub, nil
}

// CreateSubscriber inserts a newsletter signup.
func (r *EngageRepository) CreateSubscriber(ctx context.Context, s *engage.Subscriber) error {
	err := r.pool.QueryRow(ctx, insertSubscriberSQL, s.Email, s.Name, s.Active).
		Scan(&s.ID, &s.CreatedAt)
	return errors.Wrap(err, "insert subscriber")
}

// SetSubscriberActive toggles the soft-deactivation flag.
func (r *EngageRepository) SetSubscriberActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, setSubscriberActiveSQL, id, active)
	if err != nil {
		return errors.Wrapf(err, "set subscriber %d active", id)
	}
	if tag.RowsAffected() == 0 {
		return engage.ErrNotFound
	}
	return nil
}

func scanTestimonial(row pgx.CollectableRow) (engage.Testimonial, error) {
	var (
		t      engage.Testimonial
		rating int32
	)
	err := row.Scan(&t.ID, &t.ClientName, &t.Content, &rating, &t.Industry,
		&t.Approved, &t.Featured, &t.CreatedAt)
	t.Rating = int(rating)
	return t, err
}

func scanFAQ(row pgx.CollectableRow) (engage.FAQ, error) {
	var (
		f   engage.FAQ
		idx int32
	)
	err := row.Scan(&f.ID, &f.Question, &f.Answer, &f.Category, &idx, &f.Active, &f.CreatedAt)
	f.OrderIndex = int(idx)
	return f, err
}
