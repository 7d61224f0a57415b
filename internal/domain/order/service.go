package order

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/resumedesk/server/internal/domain/catalog"
)

func nowUTC() time.Time { return time.Now().UTC() }

// FileStore persists uploaded customer documents. Save returns the stored
// relative reference. Files are written before the order row that references
// them, so a crash in between leaves only a harmless orphan file.
type FileStore interface {
	Save(kind, filename string, content io.Reader) (string, error)
}

// Notifier sends the lifecycle's transactional emails. Implementations must
// be safe to call on the request path; all sends here are best-effort, so
// errors are logged by the service and never propagated.
type Notifier interface {
	OrderCreated(ctx context.Context, o *Order, svc *catalog.Service) error
	StatusChanged(ctx context.Context, o *Order, svc *catalog.Service, old Status) error
}

// Upload is one optional customer document attached at intake.
type Upload struct {
	Filename string
	Content  io.Reader
}

// CreateRequest holds the validated intake form data.
type CreateRequest struct {
	FirstName           string
	LastName            string
	Email               string
	Phone               string
	ServiceID           int64
	Tier                catalog.Tier
	CurrentPosition     string
	TargetPosition      string
	Industry            string
	CareerGoals         string
	SpecialRequirements string
	Resume              *Upload
	CoverLetter         *Upload
	JobDescription      *Upload
}

// Service drives the order lifecycle. It is the sole writer of order status
// and the only component that appends tracking history.
type Service struct {
	catalog  catalog.Repository
	orders   Repository
	files    FileStore
	notifier Notifier
	lg       *zap.Logger
}

// NewService creates the lifecycle service with its dependencies.
func NewService(
	cat catalog.Repository,
	orders Repository,
	files FileStore,
	notifier Notifier,
	lg *zap.Logger,
) *Service {
	return &Service{
		catalog:  cat,
		orders:   orders,
		files:    files,
		notifier: notifier,
		lg:       lg,
	}
}

// Create validates the requested service and tier, stores uploads, and
// persists a pending, unpaid order. The confirmation email is best-effort:
// a send failure is logged and does not roll back the order.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	if req.FirstName == "" || req.LastName == "" {
		return nil, &ValidationError{Field: "name", Message: "first and last name are required"}
	}
	if !strings.Contains(req.Email, "@") {
		return nil, &ValidationError{Field: "email", Message: "a valid email address is required"}
	}

	svc, err := s.catalog.GetActive(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, &ValidationError{Field: "service_id", Message: "invalid service selected"}
		}
		return nil, errors.Wrap(err, "load service")
	}

	price, err := svc.TierPrice(req.Tier)
	if err != nil {
		return nil, &ValidationError{Field: "service_tier", Message: "invalid service tier selected"}
	}

	o := &Order{
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Email:               req.Email,
		Phone:               req.Phone,
		ServiceID:           svc.ID,
		ServiceTier:         req.Tier,
		TotalAmount:         price,
		Status:              StatusPending,
		PaymentStatus:       PaymentUnpaid,
		CurrentPosition:     req.CurrentPosition,
		TargetPosition:      req.TargetPosition,
		Industry:            req.Industry,
		CareerGoals:         req.CareerGoals,
		SpecialRequirements: req.SpecialRequirements,
	}

	// Files land on disk before the row referencing them is committed.
	if o.ResumePath, err = s.saveUpload("resume", req.Resume); err != nil {
		return nil, err
	}
	if o.CoverLetterPath, err = s.saveUpload("cover", req.CoverLetter); err != nil {
		return nil, err
	}
	if o.JobDescriptionPath, err = s.saveUpload("job", req.JobDescription); err != nil {
		return nil, err
	}

	if err := s.orders.Create(ctx, o, "Order received, awaiting payment"); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	if err := s.notifier.OrderCreated(ctx, o, svc); err != nil {
		s.lg.Error("order confirmation email failed",
			zap.Int64("order_id", o.ID), zap.Error(err))
	}

	return o, nil
}

func (s *Service) saveUpload(kind string, u *Upload) (string, error) {
	if u == nil {
		return "", nil
	}
	path, err := s.files.Save(kind, u.Filename, u.Content)
	if err != nil {
		return "", errors.Wrapf(err, "store %s upload", kind)
	}
	return path, nil
}

// UpdateStatus moves an order along the transition table and records the
// change in the tracking history. A same-status update is a no-op: no
// tracking entry, no email. completed_at is set only on the edge into
// completed. The status email is best-effort.
func (s *Service) UpdateStatus(ctx context.Context, id int64, to Status, adminNotes string) (*Order, error) {
	if !ValidStatus(to) {
		return nil, &ValidationError{Field: "status", Message: "unknown order status"}
	}

	var old Status
	changed := false

	updated, err := s.orders.Transition(ctx, id, func(o *Order) (string, error) {
		old = o.Status
		if o.Status == to {
			// No-op guard: still allow the admin notes to refresh.
			o.AdminNotes = adminNotes
			return "", nil
		}
		if err := checkTransition(o.Status, to); err != nil {
			return "", err
		}
		o.Status = to
		o.AdminNotes = adminNotes
		if to == StatusCompleted {
			now := nowUTC()
			o.CompletedAt = &now
		}
		changed = true
		return "Status changed from " + string(old) + " to " + string(to), nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		svc, svcErr := s.catalog.Get(ctx, updated.ServiceID)
		if svcErr != nil {
			s.lg.Error("load service for status email failed",
				zap.Int64("order_id", updated.ID), zap.Error(svcErr))
		} else if err := s.notifier.StatusChanged(ctx, updated, svc, old); err != nil {
			s.lg.Error("status update email failed",
				zap.Int64("order_id", updated.ID), zap.Error(err))
		}
	}

	return updated, nil
}

// Track is the public lookup: both the id and email must match the same
// order. Either mismatch yields the same ErrNotFound so order ids cannot be
// enumerated with a known email or vice versa.
func (s *Service) Track(ctx context.Context, id int64, email string) (*Order, []TrackingEntry, error) {
	o, err := s.orders.GetByIDAndEmail(ctx, id, email)
	if err != nil {
		return nil, nil, err
	}
	history, err := s.orders.Tracking(ctx, o.ID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "load tracking history")
	}
	return o, history, nil
}

// Get returns one order for the admin console.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.orders.Get(ctx, id)
}

// List pages orders for the admin console.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Order, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 || f.PerPage > 100 {
		f.PerPage = 20
	}
	if f.Status != "" && !ValidStatus(f.Status) {
		return nil, 0, &ValidationError{Field: "status", Message: "unknown order status"}
	}
	return s.orders.List(ctx, f)
}

// ListAll returns every order for exports.
func (s *Service) ListAll(ctx context.Context) ([]Order, error) {
	return s.orders.ListAll(ctx)
}

// Stats returns dashboard counters.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.orders.Stats(ctx)
}

// UploadPath maps a file-type key to the order's stored reference. The
// second return is false for unknown keys or absent files.
func (o *Order) UploadPath(key string) (string, bool) {
	var path string
	switch key {
	case "resume":
		path = o.ResumePath
	case "cover_letter":
		path = o.CoverLetterPath
	case "job_description":
		path = o.JobDescriptionPath
	default:
		return "", false
	}
	if path == "" {
		return "", false
	}
	return path, true
}
