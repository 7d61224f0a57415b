package repository

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/resumedesk/server/internal/domain/referral"
)

const insertReferralSQL = `INSERT INTO referrals
	(referrer_name, referrer_email, referred_name, referred_email, code, reward_amount)
	VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`

var _ referral.Repository = (*ReferralRepository)(nil)

// ReferralRepository implements referral.Repository backed by PostgreSQL.
type ReferralRepository struct {
	pool *pgxpool.Pool
}

// NewReferralRepository returns a ReferralRepository that uses the given pool.
func NewReferralRepository(pool *pgxpool.Pool) *ReferralRepository {
	return &ReferralRepository{pool: pool}
}

// Create inserts the referral. The two unique constraints map to distinct
// errors: a repeated (referrer, referred) pair is referral.ErrDuplicate,
// a repeated code is referral.ErrCodeCollision so the caller can retry with
// a fresh code.
func (r *ReferralRepository) Create(ctx context.Context, ref *referral.Referral) error {
	err := r.pool.QueryRow(ctx, insertReferralSQL,
		ref.ReferrerName, ref.ReferrerEmail, ref.ReferredName, ref.ReferredEmail,
		ref.Code, ref.RewardAmount,
	).Scan(&ref.ID, &ref.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "code") {
				return referral.ErrCodeCollision
			}
			return referral.ErrDuplicate
		}
		return errors.Wrap(err, "insert referral")
	}
	return nil
}
