// Package invoice synthesizes the proforma deposit line for custom orders.
// Actual invoice delivery happens in an external accounting system; this
// package owns the line math and the trigger point.
package invoice

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mirsvobo/eshop/internal/domain/order"
	"github.com/mirsvobo/eshop/internal/money"
)

// DepositLine is the single line of a proforma deposit invoice. The deposit
// is a share of the gross total, so the line is decomposed back into net and
// tax using the order's blended average tax rate. On mixed-rate orders this
// is an approximation, accepted for deposit invoices.
type DepositLine struct {
	Description string
	Net         decimal.Decimal
	TaxRate     decimal.Decimal
	Tax         decimal.Decimal
	Gross       decimal.Decimal
}

// BuildDepositLine decomposes the order's deposit amount into a net/tax/gross
// invoice line at the order's average tax rate. Tax is the remainder after
// rounding the net, so Net + Tax always equals the gross deposit.
func BuildDepositLine(o *order.Order) DepositLine {
	rate := o.AverageTaxRate()
	gross := o.DepositAmount

	net := gross
	if rate.IsPositive() {
		net = money.Round(gross.DivRound(decimal.NewFromInt(1).Add(rate), money.CalcScale))
	}

	return DepositLine{
		Description: "Deposit",
		Net:         net,
		TaxRate:     rate,
		Tax:         gross.Sub(net),
		Gross:       gross,
	}
}

// LogInvoicer logs the proforma deposit invoice that would be issued.
type LogInvoicer struct {
	lg *zap.Logger
}

// NewLogInvoicer builds a log-only invoicer.
func NewLogInvoicer(lg *zap.Logger) *LogInvoicer {
	return &LogInvoicer{lg: lg}
}

// IssueProformaDeposit logs the deposit invoice for an awaiting-deposit
// order.
func (i *LogInvoicer) IssueProformaDeposit(_ context.Context, o *order.Order) error {
	line := BuildDepositLine(o)
	i.lg.Info("Proforma deposit invoice",
		zap.Int64("order_code", o.Code),
		zap.String("net", line.Net.String()),
		zap.String("tax_rate", line.TaxRate.String()),
		zap.String("tax", line.Tax.String()),
		zap.String("gross", line.Gross.String()),
	)
	return nil
}
