package payment

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/resumedesk/server/internal/domain/catalog"
	"github.com/resumedesk/server/internal/domain/order"
)

var cents = decimal.NewFromInt(100)

// Notifier sends the payment confirmation email. Best-effort.
type Notifier interface {
	PaymentConfirmed(ctx context.Context, o *order.Order, svc *catalog.Service) error
}

// Service wires checkout sessions and payment callbacks onto order records.
// It is the sole writer of stripe_session_id and the only trigger for
// payment_status transitions.
type Service struct {
	orders   order.Repository
	catalog  catalog.Repository
	provider Provider
	notifier Notifier
	baseURL  string
	lg       *zap.Logger
}

// NewService creates the payment service. baseURL is the public origin used
// to build success and cancel return URLs.
func NewService(
	orders order.Repository,
	cat catalog.Repository,
	provider Provider,
	notifier Notifier,
	baseURL string,
	lg *zap.Logger,
) *Service {
	return &Service{
		orders:   orders,
		catalog:  cat,
		provider: provider,
		notifier: notifier,
		baseURL:  baseURL,
		lg:       lg,
	}
}

// StartCheckout creates a hosted checkout session for the order and persists
// the session id before handing back the redirect URL, so a crashed redirect
// can still be reconciled later by token lookup. Provider failures leave no
// partial state behind.
func (s *Service) StartCheckout(ctx context.Context, orderID int64) (*Session, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentStatus == order.PaymentPaid {
		return nil, ErrAlreadyPaid
	}

	svc, err := s.catalog.Get(ctx, o.ServiceID)
	if err != nil {
		return nil, errors.Wrap(err, "load service")
	}

	spec := CheckoutSpec{
		OrderID:       o.ID,
		ItemName:      svc.Name + " - " + tierTitle(o.ServiceTier),
		Description:   "Resume writing service for " + o.FullName(),
		AmountCents:   o.TotalAmount.Mul(cents).Round(0).IntPart(),
		CustomerEmail: o.Email,
		SuccessURL:    s.baseURL + "/payment-success?session_id=" + SessionPlaceholder,
		CancelURL:     fmt.Sprintf("%s/payment-cancel?order_id=%d", s.baseURL, o.ID),
	}

	sess, err := s.provider.CreateSession(ctx, spec)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return nil, err
		}
		s.lg.Error("checkout session creation failed",
			zap.Int64("order_id", o.ID), zap.Error(err))
		return nil, errors.Wrap(ErrProviderFailure, err.Error())
	}

	if err := s.orders.SetSession(ctx, o.ID, sess.ID); err != nil {
		return nil, errors.Wrap(err, "persist session id")
	}

	return sess, nil
}

// ReconcileSuccess marks the order behind the session token as paid and in
// progress. The order is located by the stored token only; client-supplied
// order ids are never trusted. The operation is idempotent: an already-paid
// order is returned unchanged and no second email is sent. An unknown token
// is a NotFound no-op.
func (s *Service) ReconcileSuccess(ctx context.Context, sessionID string) (*order.Order, error) {
	if sessionID == "" {
		return nil, order.ErrNotFound
	}

	confirmed := false
	o, err := s.orders.TransitionBySession(ctx, sessionID, func(o *order.Order) (string, error) {
		if o.PaymentStatus == order.PaymentPaid {
			return "", nil
		}
		o.PaymentStatus = order.PaymentPaid
		o.Status = order.StatusInProgress
		confirmed = true
		return "Payment received, order moved to in progress", nil
	})
	if err != nil {
		return nil, err
	}

	if confirmed {
		svc, svcErr := s.catalog.Get(ctx, o.ServiceID)
		if svcErr != nil {
			s.lg.Error("load service for payment email failed",
				zap.Int64("order_id", o.ID), zap.Error(svcErr))
		} else if err := s.notifier.PaymentConfirmed(ctx, o, svc); err != nil {
			s.lg.Error("payment confirmation email failed",
				zap.Int64("order_id", o.ID), zap.Error(err))
		}
	}

	return o, nil
}

// ReconcileCancel is informational only. A cancelled checkout is not a
// cancelled order: the customer may retry, so no state is mutated.
func (s *Service) ReconcileCancel(ctx context.Context, orderID int64) (*order.Order, error) {
	return s.orders.Get(ctx, orderID)
}

func tierTitle(t catalog.Tier) string {
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
