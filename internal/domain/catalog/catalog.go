// Package catalog holds the service catalog: the offerings customers can
// order, each priced at three tiers.
package catalog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Tier is one of the three pricing levels offered for every service.
type Tier string

const (
	TierBasic    Tier = "basic"
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
)

// ErrNotFound is returned when a service does not exist or is inactive.
var ErrNotFound = errors.New("service not found")

// ErrUnknownTier is returned when a requested tier is not in the service's
// price table.
var ErrUnknownTier = errors.New("unknown service tier")

// Service is a catalog entry. Read-only from the order workflow's perspective.
type Service struct {
	ID            int64
	Name          string
	Description   string
	PriceBasic    decimal.Decimal
	PriceStandard decimal.Decimal
	PricePremium  decimal.Decimal
	Active        bool
	CreatedAt     time.Time
}

// TierPrice returns the unit price for the given tier.
func (s *Service) TierPrice(tier Tier) (decimal.Decimal, error) {
	switch tier {
	case TierBasic:
		return s.PriceBasic, nil
	case TierStandard:
		return s.PriceStandard, nil
	case TierPremium:
		return s.PricePremium, nil
	default:
		return decimal.Zero, ErrUnknownTier
	}
}

// Repository defines read access to the service catalog.
type Repository interface {
	// ListActive returns all active services.
	ListActive(ctx context.Context) ([]Service, error)
	// GetActive returns the active service with the given id, or ErrNotFound.
	GetActive(ctx context.Context, id int64) (*Service, error)
	// Get returns the service with the given id regardless of its active
	// flag, or ErrNotFound.
	Get(ctx context.Context, id int64) (*Service, error)
}
