// Package discount evaluates catalog-level discounts (as opposed to coupons,
// which act on the whole cart). A discount is either a percentage or a fixed
// per-currency amount, optionally restricted to a set of target products.
package discount

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mirsvobo/eshop/internal/money"
)

// Discount is a catalog price reduction with a validity window. An empty
// ProductIDs set means the discount applies to every product.
type Discount struct {
	ID         int64
	Name       string
	Percentage bool
	Value      decimal.Decimal
	FixedValue money.Pair
	ValidFrom  *time.Time
	ValidTo    *time.Time
	Active     bool
	ProductIDs []int64
}

// AppliesTo reports whether the discount targets the given product.
func (d *Discount) AppliesTo(productID int64) bool {
	if len(d.ProductIDs) == 0 {
		return true
	}
	for _, id := range d.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// activeAt reports whether the discount is in effect at the given instant.
// Both window bounds must be set for a discount to ever be active.
func (d *Discount) activeAt(now time.Time) bool {
	if !d.Active || d.ValidFrom == nil || d.ValidTo == nil {
		return false
	}
	return !now.Before(*d.ValidFrom) && !now.After(*d.ValidTo)
}

// Repository provides read access to catalog discounts.
type Repository interface {
	ListActive(ctx context.Context) ([]Discount, error)
}
