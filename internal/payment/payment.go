// Package payment maps checkout input to an initial payment status and
// computes the deposit due on made-to-measure orders.
package payment

import (
	"github.com/shopspring/decimal"

	"github.com/mirsvobo/eshop/internal/domain/order"
	"github.com/mirsvobo/eshop/internal/money"
)

var hundred = decimal.NewFromInt(100)

// Service decides initial payment statuses and deposit amounts.
type Service struct {
	depositPercent decimal.Decimal
}

// New builds the payment service. depositPercent is the share of the rounded
// order total due up front on custom orders, e.g. 50.
func New(depositPercent decimal.Decimal) *Service {
	return &Service{depositPercent: depositPercent}
}

// InitialStatus maps the payment method to the order's starting status.
// Custom-order deposit handling may override the result afterwards.
func (s *Service) InitialStatus(method order.PaymentMethod, _ bool) order.PaymentStatus {
	switch method {
	case order.PaymentCashOnDelivery:
		return order.StatusPending
	default:
		return order.StatusPendingPayment
	}
}

// Deposit returns the up-front payment on a custom order: the configured
// percentage of the rounded total, rounded half-up to two decimals.
func (s *Service) Deposit(totalRounded decimal.Decimal) decimal.Decimal {
	if !s.depositPercent.IsPositive() || !totalRounded.IsPositive() {
		return decimal.Zero
	}
	share := s.depositPercent.DivRound(hundred, money.CalcScale)
	return money.Round(totalRounded.Mul(share))
}
