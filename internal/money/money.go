// Package money holds the shared monetary conventions of the pricing core:
// the closed currency set, decimal scales, and rounding rules.
package money

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Currency is a supported settlement currency.
type Currency string

const (
	// CZK is the Czech koruna, the store's default currency.
	CZK Currency = "CZK"
	// EUR is the euro.
	EUR Currency = "EUR"
)

const (
	// PriceScale is the number of decimal places for presented amounts.
	PriceScale = 2
	// CalcScale is the number of decimal places for intermediate ratios.
	CalcScale = 4
)

// ErrUnknownCurrency is returned when a currency code is outside {CZK, EUR}.
var ErrUnknownCurrency = errors.New("unknown currency")

// Parse validates a currency code at the boundary. Anything other than
// "CZK" or "EUR" is rejected before it can reach the pricing math.
func Parse(code string) (Currency, error) {
	switch Currency(code) {
	case CZK, EUR:
		return Currency(code), nil
	default:
		return "", errors.Wrapf(ErrUnknownCurrency, "%q", code)
	}
}

// Known reports whether the currency belongs to the supported set.
func (c Currency) Known() bool {
	return c == CZK || c == EUR
}

// Round rounds an amount half-up to the presentation scale.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(PriceScale)
}

// RoundRate rounds a tax or ratio value half-up to the calculation scale.
func RoundRate(d decimal.Decimal) decimal.Decimal {
	return d.Round(CalcScale)
}

// RoundDownWhole truncates an amount to the nearest whole currency unit.
// Used only for the final chargeable total; component amounts round half-up.
func RoundDownWhole(d decimal.Decimal) decimal.Decimal {
	return d.RoundDown(0)
}

// ClampZero floors negative intermediate results at zero.
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Pair carries a per-currency amount. A zero value for a currency means the
// amount is not configured for it, mirroring how the catalog stores optional
// prices.
type Pair struct {
	CZK decimal.Decimal
	EUR decimal.Decimal
}

// NewPair builds a Pair from CZK and EUR amounts.
func NewPair(czk, eur decimal.Decimal) Pair {
	return Pair{CZK: czk, EUR: eur}
}

// For returns the amount for the given currency.
func (p Pair) For(c Currency) decimal.Decimal {
	if c == EUR {
		return p.EUR
	}
	return p.CZK
}

// Configured reports whether a positive amount exists for the currency.
func (p Pair) Configured(c Currency) bool {
	return p.For(c).IsPositive()
}
