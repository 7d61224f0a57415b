package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/resumedesk/server/internal/domain/order"
)

const (
	orderColumns = `id, first_name, last_name, email, phone, service_id, service_tier,
		total_amount, status, payment_status, stripe_session_id,
		resume_path, cover_letter_path, job_description_path,
		current_position, target_position, industry, career_goals,
		special_requirements, admin_notes, created_at, updated_at, completed_at`

	insertOrderSQL = `INSERT INTO orders (
		first_name, last_name, email, phone, service_id, service_tier,
		total_amount, status, payment_status,
		resume_path, cover_letter_path, job_description_path,
		current_position, target_position, industry, career_goals,
		special_requirements)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at, updated_at`

	getOrderSQL           = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	getOrderByEmailSQL    = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND LOWER(email) = LOWER($2)`
	getOrderBySessionSQL  = `SELECT ` + orderColumns + ` FROM orders WHERE stripe_session_id = $1`
	lockOrderSQL          = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	lockOrderBySessionSQL = `SELECT ` + orderColumns + ` FROM orders WHERE stripe_session_id = $1 FOR UPDATE`

	setSessionSQL = `UPDATE orders SET stripe_session_id = $2, updated_at = now()
		WHERE id = $1 AND payment_status = 'unpaid'`

	updateOrderStateSQL = `UPDATE orders SET status = $2, payment_status = $3,
		admin_notes = $4, completed_at = $5, updated_at = now()
		WHERE id = $1 RETURNING updated_at`

	insertTrackingSQL = `INSERT INTO order_tracking (order_id, note) VALUES ($1, $2)`
	listTrackingSQL   = `SELECT id, order_id, note, created_at FROM order_tracking
		WHERE order_id = $1 ORDER BY created_at DESC, id DESC`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	countOrdersSQL = `SELECT count(*) FROM orders WHERE ($1 = '' OR status = $1)`
	listAllSQL     = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, id DESC`

	orderStatsSQL = `SELECT count(*),
		count(*) FILTER (WHERE status = 'pending'),
		count(*) FILTER (WHERE status = 'in_progress'),
		count(*) FILTER (WHERE status = 'completed'),
		COALESCE(sum(total_amount) FILTER (WHERE payment_status = 'paid'), 0)
		FROM orders`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order plus its first tracking entry in a single
// transaction and fills the generated id and timestamps.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order, trackingNote string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, insertOrderSQL,
		o.FirstName, o.LastName, o.Email, o.Phone, o.ServiceID, o.ServiceTier,
		o.TotalAmount, o.Status, o.PaymentStatus,
		o.ResumePath, o.CoverLetterPath, o.JobDescriptionPath,
		o.CurrentPosition, o.TargetPosition, o.Industry, o.CareerGoals,
		o.SpecialRequirements,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "insert order")
	}

	if trackingNote != "" {
		if _, err := tx.Exec(ctx, insertTrackingSQL, o.ID, trackingNote); err != nil {
			return errors.Wrap(err, "insert tracking entry")
		}
	}

	return errors.Wrap(tx.Commit(ctx), "commit")
}

// Get returns the order with the given id, or order.ErrNotFound.
func (r *OrderRepository) Get(ctx context.Context, id int64) (*order.Order, error) {
	return r.getOne(ctx, getOrderSQL, id)
}

// GetByIDAndEmail matches both id and email (case-insensitive); any mismatch
// yields order.ErrNotFound.
func (r *OrderRepository) GetByIDAndEmail(ctx context.Context, id int64, email string) (*order.Order, error) {
	return r.getOne(ctx, getOrderByEmailSQL, id, email)
}

// GetBySession returns the order holding the given checkout session id.
func (r *OrderRepository) GetBySession(ctx context.Context, sessionID string) (*order.Order, error) {
	return r.getOne(ctx, getOrderBySessionSQL, sessionID)
}

func (r *OrderRepository) getOne(ctx context.Context, sql string, args ...any) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query order")
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrap(err, "scan order")
	}
	return &o, nil
}

// SetSession stores the checkout session id. Only unpaid orders accept a
// session id; a paid order's payment fields are immutable.
func (r *OrderRepository) SetSession(ctx context.Context, id int64, sessionID string) error {
	tag, err := r.pool.Exec(ctx, setSessionSQL, id, sessionID)
	if err != nil {
		return errors.Wrapf(err, "set session for order %d", id)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// Transition row-locks the order by id and applies fn. Concurrent
// transitions on one order (a payment callback racing an admin update)
// serialize on the FOR UPDATE lock.
func (r *OrderRepository) Transition(ctx context.Context, id int64, fn order.TransitionFunc) (*order.Order, error) {
	return r.transition(ctx, lockOrderSQL, id, fn)
}

// TransitionBySession behaves like Transition but locates the order by its
// stored checkout session id.
func (r *OrderRepository) TransitionBySession(ctx context.Context, sessionID string, fn order.TransitionFunc) (*order.Order, error) {
	return r.transition(ctx, lockOrderBySessionSQL, sessionID, fn)
}

func (r *OrderRepository) transition(ctx context.Context, lockSQL string, arg any, fn order.TransitionFunc) (*order.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, lockSQL, arg)
	if err != nil {
		return nil, errors.Wrap(err, "lock order")
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrap(err, "scan order")
	}

	note, err := fn(&o)
	if err != nil {
		return nil, err
	}

	err = tx.QueryRow(ctx, updateOrderStateSQL,
		o.ID, o.Status, o.PaymentStatus, o.AdminNotes, o.CompletedAt,
	).Scan(&o.UpdatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "update order")
	}

	if note != "" {
		if _, err := tx.Exec(ctx, insertTrackingSQL, o.ID, note); err != nil {
			return nil, errors.Wrap(err, "insert tracking entry")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	return &o, nil
}

// Tracking returns the order's history, newest first.
func (r *OrderRepository) Tracking(ctx context.Context, orderID int64) ([]order.TrackingEntry, error) {
	rows, err := r.pool.Query(ctx, listTrackingSQL, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "list tracking")
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.TrackingEntry, error) {
		var e order.TrackingEntry
		err := row.Scan(&e.ID, &e.OrderID, &e.Note, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan tracking")
	}
	return entries, nil
}

// List returns one page of orders, newest first, and the total match count.
func (r *OrderRepository) List(ctx context.Context, f order.ListFilter) ([]order.Order, int64, error) {
	offset := (f.Page - 1) * f.PerPage

	rows, err := r.pool.Query(ctx, listOrdersSQL, string(f.Status), f.PerPage, offset)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list orders")
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, 0, errors.Wrap(err, "scan orders")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, countOrdersSQL, string(f.Status)).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count orders")
	}
	return orders, total, nil
}

// ListAll returns every order, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listAllSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, errors.Wrap(err, "scan orders")
	}
	return orders, nil
}

// Stats returns dashboard counters.
func (r *OrderRepository) Stats(ctx context.Context) (*order.Stats, error) {
	var s order.Stats
	err := r.pool.QueryRow(ctx, orderStatsSQL).Scan(
		&s.Total, &s.Pending, &s.InProgress, &s.Completed, &s.Revenue,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query stats")
	}
	return &s, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o         order.Order
		sessionID *string
	)
	err := row.Scan(
		&o.ID, &o.FirstName, &o.LastName, &o.Email, &o.Phone,
		&o.ServiceID, &o.ServiceTier, &o.TotalAmount,
		&o.Status, &o.PaymentStatus, &sessionID,
		&o.ResumePath, &o.CoverLetterPath, &o.JobDescriptionPath,
		&o.CurrentPosition, &o.TargetPosition, &o.Industry, &o.CareerGoals,
		&o.SpecialRequirements, &o.AdminNotes,
		&o.CreatedAt, &o.UpdatedAt, &o.CompletedAt,
	)
	if sessionID != nil {
		o.StripeSessionID = *sessionID
	}
	return o, err
}
