package product

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/mirsvobo/eshop/internal/money"
)

// ErrDimensionOutOfRange is returned when a requested custom dimension falls
// outside the configurator's allowed range.
var ErrDimensionOutOfRange = errors.New("dimension out of allowed range")

// Dimensions are the requested measurements of a made-to-measure product,
// in centimeters.
type Dimensions struct {
	Length decimal.Decimal
	Width  decimal.Decimal
	Height decimal.Decimal
}

// Options are the flat-priced extras of a made-to-measure product.
type Options struct {
	HasDivider    bool
	HasGutter     bool
	HasGardenShed bool
}

// Configurator holds the pricing rules for a customisable product: allowed
// dimension ranges, per-centimeter prices, and flat option prices, each per
// currency.
type Configurator struct {
	MinLength decimal.Decimal
	MaxLength decimal.Decimal
	MinWidth  decimal.Decimal
	MaxWidth  decimal.Decimal
	MinHeight decimal.Decimal
	MaxHeight decimal.Decimal

	PricePerCmLength money.Pair
	PricePerCmWidth  money.Pair
	PricePerCmHeight money.Pair

	DividerPrice    money.Pair
	GutterPrice     money.Pair
	GardenShedPrice money.Pair
}

// BasePrice computes the net base price of a custom configuration:
// each dimension times its per-centimeter price, plus the flat price of every
// selected option. Dimensions are validated against the configured ranges.
func (c *Configurator) BasePrice(dims Dimensions, opts Options, cur money.Currency) (decimal.Decimal, error) {
	if err := c.validateDimensions(dims); err != nil {
		return decimal.Zero, err
	}

	perCmL := c.PricePerCmLength.For(cur)
	perCmW := c.PricePerCmWidth.For(cur)
	perCmH := c.PricePerCmHeight.For(cur)
	if !perCmL.IsPositive() || !perCmW.IsPositive() || !perCmH.IsPositive() {
		return decimal.Zero, errors.Wrapf(ErrPriceNotConfigured, "per-cm prices, currency %s", cur)
	}

	price := dims.Length.Mul(perCmL).
		Add(dims.Width.Mul(perCmW)).
		Add(dims.Height.Mul(perCmH))

	if opts.HasDivider {
		price = price.Add(c.DividerPrice.For(cur))
	}
	if opts.HasGutter {
		price = price.Add(c.GutterPrice.For(cur))
	}
	if opts.HasGardenShed {
		price = price.Add(c.GardenShedPrice.For(cur))
	}

	return money.ClampZero(money.Round(price)), nil
}

func (c *Configurator) validateDimensions(dims Dimensions) error {
	checks := []struct {
		name     string
		value    decimal.Decimal
		min, max decimal.Decimal
	}{
		{"length", dims.Length, c.MinLength, c.MaxLength},
		{"width", dims.Width, c.MinWidth, c.MaxWidth},
		{"height", dims.Height, c.MinHeight, c.MaxHeight},
	}
	for _, ch := range checks {
		if ch.value.LessThan(ch.min) || ch.value.GreaterThan(ch.max) {
			return errors.Wrapf(ErrDimensionOutOfRange,
				"%s %s not in [%s, %s]", ch.name, ch.value, ch.min, ch.max)
		}
	}
	return nil
}
