// Package shipping prices order delivery. The store ships at a flat
// per-currency rate; a distance-based carrier quote would plug in behind the
// same interface.
package shipping

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/mirsvobo/eshop/internal/money"
)

// ErrCostNotConfigured is returned when no shipping cost exists for the
// requested currency.
var ErrCostNotConfigured = errors.New("shipping cost not configured for currency")

// FlatRate charges a fixed net cost per currency, taxed at one configured
// rate.
type FlatRate struct {
	cost    money.Pair
	taxRate decimal.Decimal
}

// NewFlatRate builds a flat-rate shipping service from the configured
// per-currency costs and tax rate.
func NewFlatRate(cost money.Pair, taxRate decimal.Decimal) *FlatRate {
	return &FlatRate{cost: cost, taxRate: taxRate}
}

// Cost returns the net delivery cost for the currency. The subtotal is
// accepted for interface compatibility; a flat rate does not depend on it.
func (f *FlatRate) Cost(_ context.Context, cur money.Currency, _ decimal.Decimal) (decimal.Decimal, error) {
	if !f.cost.Configured(cur) {
		return decimal.Zero, errors.Wrapf(ErrCostNotConfigured, "%s", cur)
	}
	return money.Round(f.cost.For(cur)), nil
}

// TaxRate returns the tax rate applied to shipping.
func (f *FlatRate) TaxRate() decimal.Decimal {
	return f.taxRate
}
