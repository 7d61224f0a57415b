package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/resumedesk/server/internal/domain/catalog"
)

const (
	serviceColumns = `id, name, description, price_basic, price_standard, price_premium, active, created_at`

	listActiveServicesSQL = `SELECT ` + serviceColumns + ` FROM services WHERE active = TRUE ORDER BY id`
	getActiveServiceSQL   = `SELECT ` + serviceColumns + ` FROM services WHERE id = $1 AND active = TRUE`
	getServiceSQL         = `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ListActive returns all active services.
func (r *CatalogRepository) ListActive(ctx context.Context) ([]catalog.Service, error) {
	rows, err := r.pool.Query(ctx, listActiveServicesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list services")
	}
	services, err := pgx.CollectRows(rows, scanService)
	if err != nil {
		return nil, errors.Wrap(err, "scan services")
	}
	return services, nil
}

// GetActive returns the active service with the given id, or
// catalog.ErrNotFound.
func (r *CatalogRepository) GetActive(ctx context.Context, id int64) (*catalog.Service, error) {
	return r.get(ctx, getActiveServiceSQL, id)
}

// Get returns the service with the given id regardless of the active flag.
func (r *CatalogRepository) Get(ctx context.Context, id int64) (*catalog.Service, error) {
	return r.get(ctx, getServiceSQL, id)
}

func (r *CatalogRepository) get(ctx context.Context, sql string, id int64) (*catalog.Service, error) {
	rows, err := r.pool.Query(ctx, sql, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get service %d", id)
	}
	svc, err := pgx.CollectExactlyOneRow(rows, scanService)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get service %d", id)
	}
	return &svc, nil
}

func scanService(row pgx.CollectableRow) (catalog.Service, error) {
	var s catalog.Service
	err := row.Scan(
		&s.ID, &s.Name, &s.Description,
		&s.PriceBasic, &s.PriceStandard, &s.PricePremium,
		&s.Active, &s.CreatedAt,
	)
	return s, err
}
