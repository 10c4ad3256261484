package cart

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mirsvobo/eshop/internal/domain/coupon"
	"github.com/mirsvobo/eshop/internal/money"
)

// Cart is a session-scoped aggregate of lines plus at most one applied
// coupon. Lines keep their insertion order. All methods are safe for
// concurrent use.
type Cart struct {
	mu            sync.Mutex
	order         []string
	items         map[string]*Line
	coupon        *coupon.Coupon
	attemptedCode string
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{items: make(map[string]*Line)}
}

// AddLine inserts the line, computing its fingerprint when unset. When a line
// with the same fingerprint already exists, quantities add and the incoming
// unit price and display payload win.
func (c *Cart) AddLine(l *Line) {
	if l.Fingerprint == "" {
		l.Fingerprint = l.ComputeFingerprint()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.items[l.Fingerprint]; ok {
		qty := existing.Quantity + l.Quantity
		merged := *l
		merged.Quantity = qty
		c.items[l.Fingerprint] = &merged
		return
	}

	cp := *l
	c.items[l.Fingerprint] = &cp
	c.order = append(c.order, l.Fingerprint)
}

// UpdateQuantity sets the line's quantity. A quantity of zero or less removes
// the line. Unknown fingerprints are ignored.
func (c *Cart) UpdateQuantity(fingerprint string, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[fingerprint]; !ok {
		return
	}
	if quantity <= 0 {
		c.removeLocked(fingerprint)
		return
	}
	c.items[fingerprint].Quantity = quantity
}

// RemoveLine drops the line with the given fingerprint, if present.
func (c *Cart) RemoveLine(fingerprint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(fingerprint)
}

func (c *Cart) removeLocked(fingerprint string) {
	if _, ok := c.items[fingerprint]; !ok {
		return
	}
	delete(c.items, fingerprint)
	for i, fp := range c.order {
		if fp == fingerprint {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Clear drops every line and any applied coupon.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = nil
	c.items = make(map[string]*Line)
	c.coupon = nil
	c.attemptedCode = ""
}

// Lines returns the lines in insertion order. The returned slice holds
// copies; mutating them does not affect the cart.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, 0, len(c.order))
	for _, fp := range c.order {
		out = append(out, *c.items[fp])
	}
	return out
}

// IsEmpty reports whether the cart holds no lines.
func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) == 0
}

// TotalQuantity sums the quantities across all lines.
func (c *Cart) TotalQuantity() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int
	for _, l := range c.items {
		n += l.Quantity
	}
	return n
}

// ApplyCoupon records the coupon as applied and remembers the code the
// customer typed.
func (c *Cart) ApplyCoupon(cp *coupon.Coupon, attemptedCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.coupon = cp
	c.attemptedCode = attemptedCode
}

// SetAttemptedCode records the code the customer just typed. When it does
// not match the currently-applied coupon's code, the stale coupon is dropped
// so a discount computed for a different code never lingers.
func (c *Cart) SetAttemptedCode(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attemptedCode = code
	if c.coupon != nil && c.coupon.Code != code {
		c.coupon = nil
	}
}

// RemoveCoupon drops the applied coupon and the attempted code.
func (c *Cart) RemoveCoupon() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.coupon = nil
	c.attemptedCode = ""
}

// Coupon returns the applied coupon, or nil.
func (c *Cart) Coupon() *coupon.Coupon {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coupon
}

// AttemptedCode returns the coupon code the customer last applied.
func (c *Cart) AttemptedCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attemptedCode
}

// Subtotal is the sum of line net prices before any coupon.
func (c *Cart) Subtotal(cur money.Currency) decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subtotalLocked(cur)
}

func (c *Cart) subtotalLocked(cur money.Currency) decimal.Decimal {
	total := decimal.Zero
	for _, fp := range c.order {
		total = total.Add(c.items[fp].TotalNet(cur))
	}
	return total
}

// DiscountAmount is the applied coupon's monetary value, never exceeding the
// subtotal. Zero when no coupon is applied.
func (c *Cart) DiscountAmount(cur money.Currency) decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.coupon == nil {
		return decimal.Zero
	}
	return coupon.Amount(c.coupon, c.subtotalLocked(cur), cur)
}

// NetAfterDiscount is the subtotal less the coupon discount, floored at zero.
func (c *Cart) NetAfterDiscount(cur money.Currency) decimal.Decimal {
	return money.ClampZero(c.Subtotal(cur).Sub(c.DiscountAmount(cur)))
}

// TotalVAT sums the per-line VAT amounts.
func (c *Cart) TotalVAT(cur money.Currency) decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, fp := range c.order {
		total = total.Add(c.items[fp].VATAmount(cur))
	}
	return total
}

// RateVAT is one row of the VAT breakdown: a tax rate and the VAT collected
// at that rate.
type RateVAT struct {
	Rate   decimal.Decimal
	Amount decimal.Decimal
}

// VATBreakdown groups per-line VAT by tax rate, rates rounded to two decimal
// places, sorted ascending. The row amounts sum to TotalVAT.
func (c *Cart) VATBreakdown(cur money.Currency) []RateVAT {
	c.mu.Lock()
	defer c.mu.Unlock()

	byRate := make(map[string]*RateVAT)
	var keys []string
	for _, fp := range c.order {
		l := c.items[fp]
		amount := l.VATAmount(cur)
		if amount.IsZero() {
			continue
		}
		rate := money.Round(l.TaxRateValue)
		key := rate.String()
		row, ok := byRate[key]
		if !ok {
			row = &RateVAT{Rate: rate}
			byRate[key] = row
			keys = append(keys, key)
		}
		row.Amount = row.Amount.Add(amount)
	}

	out := make([]RateVAT, 0, len(keys))
	for _, key := range keys {
		out = append(out, *byRate[key])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rate.LessThan(out[j].Rate) })
	return out
}

// TotalBeforeShipping is the discounted net plus total VAT.
func (c *Cart) TotalBeforeShipping(cur money.Currency) decimal.Decimal {
	return c.NetAfterDiscount(cur).Add(c.TotalVAT(cur))
}
