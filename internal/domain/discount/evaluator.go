package discount

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/mirsvobo/eshop/internal/money"
)

var hundred = decimal.NewFromInt(100)

// Evaluator finds the best catalog discount for a product. It is read-only:
// evaluating a discount never mutates discount state.
type Evaluator struct {
	repo Repository
	now  func() time.Time
}

// NewEvaluator creates an Evaluator backed by the given Repository.
func NewEvaluator(repo Repository) *Evaluator {
	return &Evaluator{repo: repo, now: time.Now}
}

// BestPrice applies the single best catalog discount to a net price and
// returns the reduced price. The best percentage discount and the best fixed
// discount are evaluated independently and the lower resulting price wins;
// percentage and fixed discounts never stack. When no discount beats the
// original price, the price is returned unchanged.
func (e *Evaluator) BestPrice(ctx context.Context, productID int64, netPrice decimal.Decimal, cur money.Currency) (decimal.Decimal, error) {
	if !netPrice.IsPositive() {
		return netPrice, nil
	}

	all, err := e.repo.ListActive(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "list active discounts")
	}

	now := e.now()
	applicable := all[:0:0]
	for _, d := range all {
		if d.activeAt(now) && d.AppliesTo(productID) {
			applicable = append(applicable, d)
		}
	}
	if len(applicable) == 0 {
		return netPrice, nil
	}

	best := netPrice
	if p, ok := applyBestPercentage(applicable, netPrice); ok && p.LessThan(best) {
		best = p
	}
	if f, ok := applyBestFixed(applicable, netPrice, cur); ok && f.LessThan(best) {
		best = f
	}
	return best, nil
}

// applyBestPercentage applies the highest percentage among the candidates.
func applyBestPercentage(discounts []Discount, price decimal.Decimal) (decimal.Decimal, bool) {
	var bestValue decimal.Decimal
	found := false
	for _, d := range discounts {
		if d.Percentage && d.Value.IsPositive() && d.Value.GreaterThan(bestValue) {
			bestValue = d.Value
			found = true
		}
	}
	if !found {
		return decimal.Zero, false
	}

	factor := decimal.NewFromInt(1).Sub(bestValue.DivRound(hundred, money.CalcScale))
	return money.ClampZero(money.Round(price.Mul(factor))), true
}

// applyBestFixed subtracts the highest fixed amount configured for the
// currency among the candidates.
func applyBestFixed(discounts []Discount, price decimal.Decimal, cur money.Currency) (decimal.Decimal, bool) {
	var bestValue decimal.Decimal
	found := false
	for _, d := range discounts {
		if d.Percentage {
			continue
		}
		v := d.FixedValue.For(cur)
		if v.IsPositive() && v.GreaterThan(bestValue) {
			bestValue = v
			found = true
		}
	}
	if !found {
		return decimal.Zero, false
	}
	return money.Round(money.ClampZero(price.Sub(bestValue))), true
}
