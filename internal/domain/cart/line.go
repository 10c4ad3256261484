// Package cart implements the session-scoped shopping cart: configuration-
// aware line identity, quantity merging, coupon application, and the
// currency-parameterized aggregate queries used by checkout.
package cart

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mirsvobo/eshop/internal/money"
)

// AddonSelection is one chosen addon with its quantity.
type AddonSelection struct {
	AddonID  int64
	Quantity int
}

// Line is one cart position. Its identity is the Fingerprint: two lines with
// the same fingerprint are the same logical line and merge on add. The unit
// price already includes attribute surcharges and addon prices.
type Line struct {
	Fingerprint string
	ProductID   int64
	ProductName string
	Quantity    int
	Custom      bool

	UnitPrice     money.Pair
	TaxRateID     int64
	TaxRateValue  decimal.Decimal
	ReverseCharge bool

	DesignID      int64
	GlazeID       int64
	RoofColorID   int64
	DesignName    string
	GlazeName     string
	RoofColorName string

	Length decimal.Decimal
	Width  decimal.Decimal
	Height decimal.Decimal

	RoofOverstep  string
	HasDivider    bool
	HasGutter     bool
	HasGardenShed bool
	Addons        []AddonSelection

	VariantInfo string
}

// ComputeFingerprint derives the line's deterministic identity from every
// configuration-affecting field. Lines that differ only in quantity or price
// share a fingerprint.
func (l *Line) ComputeFingerprint() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "P%d-T%d", l.ProductID, l.TaxRateID)

	if l.Custom {
		sb.WriteString("-C")
		fmt.Fprintf(&sb, "-DIMS[L=%s;W=%s;H=%s]",
			plain(l.Length), plain(l.Width), plain(l.Height))
		l.appendAttributes(&sb)
		if l.RoofOverstep != "" {
			fmt.Fprintf(&sb, "-RO(%s)", l.RoofOverstep)
		}
		if l.HasDivider {
			sb.WriteString("-Di")
		}
		if l.HasGutter {
			sb.WriteString("-Gu")
		}
		if l.HasGardenShed {
			sb.WriteString("-Sh")
		}
		if len(l.Addons) > 0 {
			addons := make([]AddonSelection, len(l.Addons))
			copy(addons, l.Addons)
			sort.Slice(addons, func(i, j int) bool { return addons[i].AddonID < addons[j].AddonID })
			sb.WriteString("-ADNS[")
			for _, a := range addons {
				fmt.Fprintf(&sb, "%dx%d;", a.AddonID, a.Quantity)
			}
			sb.WriteString("]")
		}
	} else {
		sb.WriteString("-S")
		l.appendAttributes(&sb)
	}

	return sb.String()
}

func (l *Line) appendAttributes(sb *strings.Builder) {
	if l.DesignID != 0 {
		fmt.Fprintf(sb, "-D%d", l.DesignID)
	}
	if l.GlazeID != 0 {
		fmt.Fprintf(sb, "-G%d", l.GlazeID)
	}
	if l.RoofColorID != 0 {
		fmt.Fprintf(sb, "-RC%d", l.RoofColorID)
	}
}

func plain(d decimal.Decimal) string {
	return d.Truncate(money.PriceScale).String()
}

// TotalNet is the line's net price: unit price times quantity, presentation
// scale.
func (l *Line) TotalNet(cur money.Currency) decimal.Decimal {
	if l.Quantity <= 0 {
		return decimal.Zero
	}
	unit := l.UnitPrice.For(cur)
	return money.Round(unit.Mul(decimal.NewFromInt(int64(l.Quantity))))
}

// VATAmount is the VAT due on the line: tax is rounded per unit and then
// multiplied by the quantity, the same math the order applies at checkout.
// Reverse-charge lines carry zero VAT regardless of the nominal rate.
func (l *Line) VATAmount(cur money.Currency) decimal.Decimal {
	if l.ReverseCharge || !l.TaxRateValue.IsPositive() || l.Quantity <= 0 {
		return decimal.Zero
	}
	unitTax := money.Round(l.UnitPrice.For(cur).Mul(l.TaxRateValue))
	return unitTax.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// TotalGross is the line's net price plus VAT.
func (l *Line) TotalGross(cur money.Currency) decimal.Decimal {
	return l.TotalNet(cur).Add(l.VATAmount(cur))
}
