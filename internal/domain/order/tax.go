package order

import (
	"github.com/shopspring/decimal"

	"github.com/mirsvobo/eshop/internal/money"
)

// TaxBreakdown holds the recomputed per-unit and per-line figures for one
// order item.
type TaxBreakdown struct {
	UnitNet   decimal.Decimal
	UnitTax   decimal.Decimal
	UnitGross decimal.Decimal
	LineNet   decimal.Decimal
	LineTax   decimal.Decimal
	LineGross decimal.Decimal
}

// RecalculateTax is the single source of truth for line VAT math. Unit tax is
// rounded first, then multiplied by the quantity. Under reverse charge the
// seller's invoice carries zero VAT, so tax is zero and gross equals net
// regardless of the nominal rate. It must be re-invoked in full whenever the
// rate or the reverse-charge flag changes.
func RecalculateTax(unitNet decimal.Decimal, quantity int, rate decimal.Decimal, reverseCharge bool) TaxBreakdown {
	qty := decimal.NewFromInt(int64(quantity))
	lineNet := unitNet.Mul(qty)

	if reverseCharge || !rate.IsPositive() {
		return TaxBreakdown{
			UnitNet:   unitNet,
			UnitTax:   decimal.Zero,
			UnitGross: unitNet,
			LineNet:   lineNet,
			LineTax:   decimal.Zero,
			LineGross: lineNet,
		}
	}

	unitTax := money.Round(unitNet.Mul(rate))
	lineTax := unitTax.Mul(qty)
	return TaxBreakdown{
		UnitNet:   unitNet,
		UnitTax:   unitTax,
		UnitGross: unitNet.Add(unitTax),
		LineNet:   lineNet,
		LineTax:   lineTax,
		LineGross: lineNet.Add(lineTax),
	}
}
