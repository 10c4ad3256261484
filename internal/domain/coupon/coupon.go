// Package coupon implements cart-level discount codes: their validity rules,
// usage limits, and discount amount calculation.
package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/mirsvobo/eshop/internal/money"
)

// ErrNotFound is returned when no active coupon exists for a code.
var ErrNotFound = errors.New("coupon not found")

// Coupon is a redeemable discount code. Codes are unique case-insensitively.
// A percentage coupon carries Value; a fixed coupon carries per-currency
// FixedValue amounts. A coupon may instead (or additionally) grant free
// shipping.
type Coupon struct {
	ID           int64
	Code         string
	Name         string
	Percentage   bool
	Value        decimal.Decimal
	FixedValue   money.Pair
	FreeShipping bool

	StartDate      *time.Time
	ExpirationDate *time.Time

	// UsageLimit caps total redemptions; 0 means unlimited.
	UsageLimit int
	UsedTimes  int
	// UsageLimitPerCustomer caps redemptions per registered customer;
	// 0 means unlimited.
	UsageLimitPerCustomer int

	MinimumOrderValue money.Pair
	Active            bool
}

// FreeShippingOnly reports whether the coupon grants free shipping without
// any price discount.
func (c *Coupon) FreeShippingOnly() bool {
	if !c.FreeShipping {
		return false
	}
	if c.Percentage {
		return !c.Value.IsPositive()
	}
	return !c.FixedValue.CZK.IsPositive() && !c.FixedValue.EUR.IsPositive()
}

// MeetsMinimumOrderValue reports whether the subtotal satisfies the coupon's
// minimum order value for the currency. A missing minimum always passes.
func (c *Coupon) MeetsMinimumOrderValue(subtotalNet decimal.Decimal, cur money.Currency) bool {
	minimum := c.MinimumOrderValue.For(cur)
	if !minimum.IsPositive() {
		return true
	}
	return subtotalNet.GreaterThanOrEqual(minimum)
}

// Repository provides lookup and mutation of coupons.
type Repository interface {
	// FindByCode looks up an active coupon case-insensitively.
	// Returns ErrNotFound when no matching coupon exists.
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	// IncrementUses adds exactly one use to the coupon's counter.
	IncrementUses(ctx context.Context, id int64) error
}

// UsageSource counts how many persisted orders of a customer reference a
// coupon. Backed by order storage.
type UsageSource interface {
	CountCustomerUsage(ctx context.Context, customerID, couponID int64) (int64, error)
}
