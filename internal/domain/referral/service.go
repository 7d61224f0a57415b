package referral

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// rewardAmount is the credit granted per successful referral.
var rewardAmount = decimal.NewFromInt(25)

// maxCodeRetries bounds regeneration on the (negligible) chance of a code
// collision at insert time.
const maxCodeRetries = 5

// Notifier sends the two-recipient referral email (offer to the referred
// person, thank-you to the referrer). Best-effort.
type Notifier interface {
	ReferralCreated(ctx context.Context, r *Referral) error
}

// CreateRequest holds the referral form data.
type CreateRequest struct {
	ReferrerName  string
	ReferrerEmail string
	ReferredName  string
	ReferredEmail string
}

// Service creates referrals.
type Service struct {
	repo     Repository
	notifier Notifier
	lg       *zap.Logger
}

// NewService creates the referral service.
func NewService(repo Repository, notifier Notifier, lg *zap.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, lg: lg}
}

// Create records a referral with a freshly generated code. A repeated
// (referrer, referred) pair fails with ErrDuplicate. The notification is
// best-effort: a failed send is logged and the referral stands.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Referral, error) {
	if !strings.Contains(req.ReferrerEmail, "@") || !strings.Contains(req.ReferredEmail, "@") {
		return nil, &ValidationError{Message: "valid referrer and referred emails are required"}
	}
	if strings.EqualFold(req.ReferrerEmail, req.ReferredEmail) {
		return nil, &ValidationError{Message: "you cannot refer yourself"}
	}

	r := &Referral{
		ReferrerName:  req.ReferrerName,
		ReferrerEmail: req.ReferrerEmail,
		ReferredName:  req.ReferredName,
		ReferredEmail: req.ReferredEmail,
		RewardAmount:  rewardAmount,
	}

	for attempt := 0; ; attempt++ {
		code, err := GenerateCode()
		if err != nil {
			return nil, err
		}
		r.Code = code

		err = s.repo.Create(ctx, r)
		if err == nil {
			break
		}
		if errors.Is(err, ErrCodeCollision) && attempt < maxCodeRetries {
			continue
		}
		return nil, err
	}

	if err := s.notifier.ReferralCreated(ctx, r); err != nil {
		s.lg.Error("referral email failed",
			zap.String("code", r.Code), zap.Error(err))
	}

	return r, nil
}
