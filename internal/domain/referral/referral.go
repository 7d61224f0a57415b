// Package referral implements the refer-a-friend program: unique
// referrer/referred pairs with generated reward codes.
package referral

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrDuplicate is returned when the exact (referrer, referred) email
	// pair has already been submitted.
	ErrDuplicate = errors.New("this person has already been referred")
	// ErrCodeCollision signals the generated code already exists; callers
	// retry with a fresh code.
	ErrCodeCollision = errors.New("referral code collision")
)

// ValidationError indicates rejected referral form input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Referral is one referrer/referred pair with its reward code.
type Referral struct {
	ID            int64
	ReferrerName  string
	ReferrerEmail string
	ReferredName  string
	ReferredEmail string
	Code          string
	RewardAmount  decimal.Decimal
	CreatedAt     time.Time
}

// Repository defines persistence for referrals.
type Repository interface {
	// Create inserts the referral and fills its ID. Returns ErrDuplicate for
	// a repeated pair and ErrCodeCollision for a repeated code.
	Create(ctx context.Context, r *Referral) error
}

// codeAlphabet avoids characters that read ambiguously in an email (0/O, 1/I).
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 8
)

// GenerateCode produces a short, unpredictable referral code. Uniqueness is
// not guaranteed here; the insert detects collisions and the caller retries.
func GenerateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "read random bytes")
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
