package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mirsvobo/eshop/internal/money"
)

var hundred = decimal.NewFromInt(100)

// Amount computes the discount a coupon grants on a net subtotal. Percentage
// coupons take their share of the subtotal; fixed coupons apply the
// currency-specific value. The result never exceeds the subtotal and never
// goes negative. Free-shipping-only coupons discount nothing.
//
// A coupon lacking a usable value for the requested currency yields zero;
// that is a configuration gap, not an error, and callers holding a context
// log it via the Validator.
func Amount(c *Coupon, subtotalNet decimal.Decimal, cur money.Currency) decimal.Decimal {
	if c == nil || !subtotalNet.IsPositive() || c.FreeShippingOnly() {
		return decimal.Zero
	}

	var amount decimal.Decimal
	if c.Percentage {
		if c.Value.IsPositive() {
			amount = subtotalNet.Mul(c.Value.DivRound(hundred, money.CalcScale))
		}
	} else {
		if v := c.FixedValue.For(cur); v.IsPositive() {
			amount = v
		}
	}

	return money.Round(decimal.Min(amount, subtotalNet))
}

// Validator runs the coupon validity chain: general validity, minimum order
// value, and per-customer usage limits.
type Validator struct {
	repo  Repository
	usage UsageSource
	now   func() time.Time
}

// NewValidator creates a Validator backed by the given repository and order
// usage source.
func NewValidator(repo Repository, usage UsageSource) *Validator {
	return &Validator{repo: repo, usage: usage, now: time.Now}
}

// FindByCode looks up an active coupon case-insensitively.
func (v *Validator) FindByCode(ctx context.Context, code string) (*Coupon, error) {
	return v.repo.FindByCode(ctx, code)
}

// GenerallyValid checks activity, the validity window, and the overall usage
// cap. It does not look at order value or customer history.
func (v *Validator) GenerallyValid(c *Coupon) bool {
	if c == nil || !c.Active {
		return false
	}
	now := v.now()
	if c.StartDate != nil && now.Before(*c.StartDate) {
		return false
	}
	if c.ExpirationDate != nil && now.After(*c.ExpirationDate) {
		return false
	}
	if c.UsageLimit > 0 && c.UsedTimes >= c.UsageLimit {
		return false
	}
	return true
}

// WithinCustomerLimit checks the per-customer usage cap against the
// customer's persisted orders. Guests pass: the check is deferred until the
// guest converts to a registered customer.
func (v *Validator) WithinCustomerLimit(ctx context.Context, customerID int64, guest bool, c *Coupon) (bool, error) {
	if c == nil || c.UsageLimitPerCustomer <= 0 {
		return true, nil
	}
	if guest || customerID == 0 {
		zctx.From(ctx).Warn("Applying customer-limited coupon to guest, limit check deferred",
			zap.String("code", c.Code))
		return true, nil
	}

	used, err := v.usage.CountCustomerUsage(ctx, customerID, c.ID)
	if err != nil {
		return false, errors.Wrap(err, "count customer coupon usage")
	}
	return used < int64(c.UsageLimitPerCustomer), nil
}

// DiscountAmount computes the coupon's discount on the subtotal, logging
// configuration gaps (missing value for the currency).
func (v *Validator) DiscountAmount(ctx context.Context, c *Coupon, subtotalNet decimal.Decimal, cur money.Currency) decimal.Decimal {
	amount := Amount(c, subtotalNet, cur)
	if c != nil && amount.IsZero() && subtotalNet.IsPositive() && !c.FreeShippingOnly() {
		zctx.From(ctx).Warn("Coupon has no usable value for currency, applying zero discount",
			zap.String("code", c.Code), zap.String("currency", string(cur)))
	}
	return amount
}

// MarkUsed increments the coupon's usage counter by exactly one. Callers are
// responsible for invoking it once per placed order; order storage performs
// the same increment inside the order transaction instead when the order and
// the counter must commit atomically.
func (v *Validator) MarkUsed(ctx context.Context, c *Coupon) error {
	if c == nil || c.ID == 0 {
		return errors.New("cannot mark transient coupon as used")
	}
	if err := v.repo.IncrementUses(ctx, c.ID); err != nil {
		return errors.Wrap(err, "increment coupon uses")
	}
	return nil
}
