// Package order assembles, prices, and persists customer orders. It glues
// the product catalog, discount and coupon evaluation, shipping and payment
// collaborators into one atomic checkout operation.
package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mirsvobo/eshop/internal/money"
)

// PaymentMethod is the payment option chosen at checkout.
type PaymentMethod string

const (
	PaymentBankTransfer   PaymentMethod = "BANK_TRANSFER"
	PaymentCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
)

// PaymentStatus tracks how far the order's payment has progressed.
type PaymentStatus string

const (
	// StatusAwaitingDeposit means a custom-order deposit is due before
	// production starts.
	StatusAwaitingDeposit PaymentStatus = "AWAITING_DEPOSIT"
	// StatusPendingPayment means a bank transfer for the full amount is
	// expected.
	StatusPendingPayment PaymentStatus = "PENDING_PAYMENT"
	// StatusPending means payment happens on delivery.
	StatusPending PaymentStatus = "PENDING"
	// StatusDepositPaid means the deposit arrived and the balance remains.
	StatusDepositPaid PaymentStatus = "DEPOSIT_PAID"
	// StatusPaid means the order is settled in full.
	StatusPaid PaymentStatus = "PAID"
)

// Address is the postal and contact snapshot stored on the order. It is
// copied from the customer profile at checkout and never updated afterwards.
type Address struct {
	Name    string
	Email   string
	Phone   string
	Street  string
	City    string
	Zip     string
	Country string

	CompanyName string
	CompanyID   string
	VATID       string
}

// ItemAddon snapshots one addon sold with a customisable item, with the
// prices in effect at checkout.
type ItemAddon struct {
	AddonID  int64
	Name     string
	Quantity int
	UnitNet  decimal.Decimal
	LineNet  decimal.Decimal
}

// Item is one priced order line. All monetary and descriptive fields are
// historical snapshots; later catalog edits must not change them.
type Item struct {
	ProductID int64
	SKU       string
	Name      string
	Variant   string
	Quantity  int
	Custom    bool

	TaxRateID     int64
	TaxRate       decimal.Decimal
	ReverseCharge bool

	UnitNet   decimal.Decimal
	UnitTax   decimal.Decimal
	UnitGross decimal.Decimal
	LineNet   decimal.Decimal
	LineTax   decimal.Decimal
	LineGross decimal.Decimal

	Length decimal.Decimal
	Width  decimal.Decimal
	Height decimal.Decimal

	RoofOverstep  string
	HasDivider    bool
	HasGutter     bool
	HasGardenShed bool

	DesignName    string
	GlazeName     string
	RoofColorName string

	Addons []ItemAddon
}

// Order is a fully-priced, internally consistent checkout result.
type Order struct {
	ID        uuid.UUID
	Code      int64
	CreatedAt time.Time
	Currency  money.Currency

	CustomerID      *int64
	InvoiceAddress  Address
	DeliveryAddress Address

	Items []Item

	SubtotalNet decimal.Decimal
	ItemsTax    decimal.Decimal

	CouponID       *int64
	CouponCode     string
	CouponDiscount decimal.Decimal
	FreeShipping   bool

	ShippingNet     decimal.Decimal
	ShippingTaxRate decimal.Decimal
	ShippingTax     decimal.Decimal
	// ShippingListNet is the carrier cost a free-shipping coupon waived.
	// Reporting only, never part of the order arithmetic.
	ShippingListNet decimal.Decimal

	TotalNet decimal.Decimal
	TotalTax decimal.Decimal
	// TotalGross is the exact pre-rounding figure, kept for accounting
	// reconciliation. TotalRounded is the amount actually charged:
	// TotalGross rounded down to a whole currency unit.
	TotalGross   decimal.Decimal
	TotalRounded decimal.Decimal

	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	DepositAmount decimal.Decimal
	ReverseCharge bool

	Note string
}

// HasCustomItem reports whether any line is a made-to-measure product.
func (o *Order) HasCustomItem() bool {
	for _, it := range o.Items {
		if it.Custom {
			return true
		}
	}
	return false
}

// AverageTaxRate is the blended rate across all items: total item tax over
// the net subtotal, scale 4 half-up. Invoicing uses it to synthesize the
// deposit line on mixed-rate orders; the resulting figure is an accepted
// approximation. Zero when the subtotal is zero.
func (o *Order) AverageTaxRate() decimal.Decimal {
	if !o.SubtotalNet.IsPositive() {
		return decimal.Zero
	}
	return money.RoundRate(o.ItemsTax.DivRound(o.SubtotalNet, money.CalcScale))
}

// RemainingAmount is what the customer still owes after any paid deposit.
func (o *Order) RemainingAmount() decimal.Decimal {
	switch o.PaymentStatus {
	case StatusPaid:
		return decimal.Zero
	case StatusDepositPaid:
		return money.ClampZero(o.TotalRounded.Sub(o.DepositAmount))
	default:
		return o.TotalRounded
	}
}

// MarkDepositPaid transitions an awaiting-deposit order to deposit-paid.
// Any other starting state, including a second call, is invalid.
func (o *Order) MarkDepositPaid() error {
	if o.PaymentStatus != StatusAwaitingDeposit {
		return errInvalidState("cannot mark deposit paid from status %s", o.PaymentStatus)
	}
	o.PaymentStatus = StatusDepositPaid
	return nil
}

// Repository persists orders. Create must run atomically: it assigns the
// next order code, writes the order with its items and addons, and
// increments the applied coupon's usage counter in the same transaction.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) error
}

// ShippingService computes delivery cost for an order.
type ShippingService interface {
	Cost(ctx context.Context, cur money.Currency, subtotalNet decimal.Decimal) (decimal.Decimal, error)
	TaxRate() decimal.Decimal
}

// PaymentService maps checkout input to an initial payment status and
// computes the custom-order deposit.
type PaymentService interface {
	InitialStatus(method PaymentMethod, hasCustomItem bool) PaymentStatus
	Deposit(totalRounded decimal.Decimal) decimal.Decimal
}

// Notifier delivers post-checkout notifications. Failures are logged and
// swallowed by the caller.
type Notifier interface {
	OrderConfirmation(ctx context.Context, o *Order) error
	AdminNewOrder(ctx context.Context, o *Order) error
}

// Invoicer triggers deposit invoicing for custom orders.
type Invoicer interface {
	IssueProformaDeposit(ctx context.Context, o *Order) error
}
