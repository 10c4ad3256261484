package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mirsvobo/eshop/internal/domain/discount"
	"github.com/mirsvobo/eshop/internal/money"
)

const (
	listActiveDiscountsSQL = `SELECT id, name, percentage, value, fixed_czk, fixed_eur,
		valid_from, valid_to, active
		FROM discounts WHERE active = TRUE`

	getDiscountProductIDsSQL = `SELECT discount_id, product_id FROM discount_products
		WHERE discount_id = ANY($1) ORDER BY discount_id, product_id`
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

// ListActive returns every active discount with its target product set.
// Window filtering happens in the evaluator, not in SQL, so a near-future
// discount loaded just before its start behaves consistently.
func (r *DiscountRepository) ListActive(ctx context.Context) ([]discount.Discount, error) {
	rows, err := r.pool.Query(ctx, listActiveDiscountsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing active discounts: %w", err)
	}

	discounts, err := pgx.CollectRows(rows, scanDiscount)
	if err != nil {
		return nil, fmt.Errorf("listing active discounts: %w", err)
	}
	if len(discounts) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(discounts))
	byID := make(map[int64]*discount.Discount, len(discounts))
	for i := range discounts {
		ids = append(ids, discounts[i].ID)
		byID[discounts[i].ID] = &discounts[i]
	}

	prodRows, err := r.pool.Query(ctx, getDiscountProductIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("listing discount products: %w", err)
	}
	defer prodRows.Close()

	for prodRows.Next() {
		var discountID, productID int64
		if err := prodRows.Scan(&discountID, &productID); err != nil {
			return nil, fmt.Errorf("scanning discount product: %w", err)
		}
		if d, ok := byID[discountID]; ok {
			d.ProductIDs = append(d.ProductIDs, productID)
		}
	}
	if err := prodRows.Err(); err != nil {
		return nil, fmt.Errorf("listing discount products: %w", err)
	}

	return discounts, nil
}

func scanDiscount(row pgx.CollectableRow) (discount.Discount, error) {
	var (
		d        discount.Discount
		czk, eur decimal.NullDecimal
	)
	err := row.Scan(
		&d.ID, &d.Name, &d.Percentage, &d.Value, &czk, &eur,
		&d.ValidFrom, &d.ValidTo, &d.Active,
	)
	d.FixedValue = money.NewPair(czk.Decimal, eur.Decimal)
	return d, err
}
