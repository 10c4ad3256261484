package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mirsvobo/eshop/internal/domain/coupon"
	"github.com/mirsvobo/eshop/internal/money"
)

const (
	getCouponByCodeSQL = `SELECT id, code, name, percentage, value, fixed_czk, fixed_eur,
		free_shipping, start_date, expiration_date,
		usage_limit, used_times, usage_limit_per_customer,
		min_order_czk, min_order_eur, active
		FROM coupons WHERE UPPER(code) = UPPER($1) AND active = TRUE`

	incrementCouponUsesSQL = `UPDATE coupons SET used_times = used_times + 1 WHERE id = $1`

	countCustomerCouponUsageSQL = `SELECT COUNT(*) FROM orders
		WHERE customer_id = $1 AND coupon_id = $2`
)

var (
	_ coupon.Repository  = (*CouponRepository)(nil)
	_ coupon.UsageSource = (*CouponRepository)(nil)
)

// CouponRepository implements coupon.Repository and coupon.UsageSource
// backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up an active coupon by its code (case-insensitive).
// Returns coupon.ErrNotFound when no matching active coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &c, nil
}

// IncrementUses atomically increments the usage counter for the coupon.
func (r *CouponRepository) IncrementUses(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, incrementCouponUsesSQL, id)
	if err != nil {
		return fmt.Errorf("incrementing uses for coupon %d: %w", id, err)
	}
	return nil
}

// CountCustomerUsage counts the customer's persisted orders that reference
// the coupon.
func (r *CouponRepository) CountCustomerUsage(ctx context.Context, customerID, couponID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, countCustomerCouponUsageSQL, customerID, couponID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting coupon %d usage for customer %d: %w", couponID, customerID, err)
	}
	return count, nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c                  coupon.Coupon
		fixedCZK, fixedEUR decimal.NullDecimal
		minCZK, minEUR     decimal.NullDecimal
		usageLimit         int32
		usedTimes          int32
		perCustomer        int32
	)
	err := row.Scan(
		&c.ID, &c.Code, &c.Name, &c.Percentage, &c.Value, &fixedCZK, &fixedEUR,
		&c.FreeShipping, &c.StartDate, &c.ExpirationDate,
		&usageLimit, &usedTimes, &perCustomer,
		&minCZK, &minEUR, &c.Active,
	)
	c.FixedValue = money.NewPair(fixedCZK.Decimal, fixedEUR.Decimal)
	c.MinimumOrderValue = money.NewPair(minCZK.Decimal, minEUR.Decimal)
	c.UsageLimit = int(usageLimit)
	c.UsedTimes = int(usedTimes)
	c.UsageLimitPerCustomer = int(perCustomer)
	return c, err
}
