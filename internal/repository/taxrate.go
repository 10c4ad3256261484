package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mirsvobo/eshop/internal/domain/taxrate"
)

const (
	getTaxRateByIDSQL = `SELECT id, name, rate FROM tax_rates WHERE id = $1`

	listTaxRatesSQL = `SELECT id, name, rate FROM tax_rates ORDER BY rate`
)

var _ taxrate.Repository = (*TaxRateRepository)(nil)

// TaxRateRepository implements taxrate.Repository backed by PostgreSQL.
type TaxRateRepository struct {
	pool *pgxpool.Pool
}

// NewTaxRateRepository returns a TaxRateRepository that uses the given pool.
func NewTaxRateRepository(pool *pgxpool.Pool) *TaxRateRepository {
	return &TaxRateRepository{pool: pool}
}

// GetByID returns a single tax rate by its identifier.
func (r *TaxRateRepository) GetByID(ctx context.Context, id int64) (taxrate.TaxRate, error) {
	rows, err := r.pool.Query(ctx, getTaxRateByIDSQL, id)
	if err != nil {
		return taxrate.TaxRate{}, fmt.Errorf("getting tax rate %d: %w", id, err)
	}

	tr, err := pgx.CollectExactlyOneRow(rows, scanTaxRate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return taxrate.TaxRate{}, taxrate.ErrNotFound
		}
		return taxrate.TaxRate{}, fmt.Errorf("getting tax rate %d: %w", id, err)
	}
	return tr, nil
}

// List returns all tax rates ordered by rate.
func (r *TaxRateRepository) List(ctx context.Context) ([]taxrate.TaxRate, error) {
	rows, err := r.pool.Query(ctx, listTaxRatesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing tax rates: %w", err)
	}
	return pgx.CollectRows(rows, scanTaxRate)
}

func scanTaxRate(row pgx.CollectableRow) (taxrate.TaxRate, error) {
	var tr taxrate.TaxRate
	err := row.Scan(&tr.ID, &tr.Name, &tr.Rate)
	return tr, err
}
