package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/resumedesk/server/internal/domain/discount"
	"github.com/resumedesk/server/internal/domain/order"
)

const (
	getCodeSQL = `SELECT id, code, discount_type, value, min_order_amount,
		valid_from, valid_until, max_uses, uses, active
		FROM discount_codes WHERE UPPER(code) = UPPER($1) AND active = TRUE`

	incrementUsesSQL = `UPDATE discount_codes SET uses = uses + 1 WHERE id = $1`

	insertOrderDiscountSQL = `INSERT INTO order_discounts (order_id, code_id, amount)
		VALUES ($1, $2, $3) RETURNING id, created_at`

	discountTotalSQL = `UPDATE orders SET total_amount = $2, updated_at = now()
		WHERE id = $1 AND payment_status = 'unpaid'`
)

var _ discount.Repository = (*DiscountRepository)(nil)

// DiscountRepository implements discount.Repository backed by PostgreSQL.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository returns a DiscountRepository that uses the given pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// FindByCode looks up an active discount code (case-insensitive). Returns
// discount.ErrNotFound when no matching active code exists.
func (r *DiscountRepository) FindByCode(ctx context.Context, code string) (*discount.Rule, error) {
	rows, err := r.pool.Query(ctx, getCodeSQL, code)
	if err != nil {
		return nil, errors.Wrapf(err, "find discount code %q", code)
	}
	rule, err := pgx.CollectExactlyOneRow(rows, scanRule)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, discount.ErrNotFound
		}
		return nil, errors.Wrapf(err, "find discount code %q", code)
	}
	return &rule, nil
}

// ApplyToOrder runs the three application writes in one transaction so a
// failed total update cannot strand a join row behind. The unique constraint
// on order_id makes application exactly-once: a second insert maps to
// discount.ErrAlreadyApplied. The total update is guarded on payment_status,
// so an order paid between validation and this call rolls everything back
// with order.ErrNotFound.
func (r *DiscountRepository) ApplyToOrder(ctx context.Context, od *discount.OrderDiscount, newTotal decimal.Decimal) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, insertOrderDiscountSQL,
		od.OrderID, od.CodeID, od.Amount,
	).Scan(&od.ID, &od.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return discount.ErrAlreadyApplied
		}
		return errors.Wrapf(err, "create order discount for order %d", od.OrderID)
	}

	tag, err := tx.Exec(ctx, discountTotalSQL, od.OrderID, newTotal)
	if err != nil {
		return errors.Wrapf(err, "set total for order %d", od.OrderID)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}

	if _, err := tx.Exec(ctx, incrementUsesSQL, od.CodeID); err != nil {
		return errors.Wrapf(err, "increment uses for code %d", od.CodeID)
	}

	return errors.Wrap(tx.Commit(ctx), "commit")
}

func scanRule(row pgx.CollectableRow) (discount.Rule, error) {
	var (
		rule     discount.Rule
		discType string
		maxUses  int32
		uses     int32
	)
	err := row.Scan(
		&rule.ID, &rule.Code, &discType, &rule.Value, &rule.MinOrderAmount,
		&rule.ValidFrom, &rule.ValidUntil, &maxUses, &uses, &rule.Active,
	)
	rule.Type = discount.Type(discType)
	rule.MaxUses = int(maxUses)
	rule.Uses = int(uses)
	return rule, err
}
