// Package notify delivers post-checkout notifications. The shipped
// implementation only logs the would-be messages; an SMTP sender satisfies
// the same interface.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/mirsvobo/eshop/internal/domain/order"
)

// LogNotifier writes every notification to the log instead of sending it.
type LogNotifier struct {
	lg         *zap.Logger
	adminEmail string
}

// NewLogNotifier builds a log-only notifier. adminEmail is where new-order
// notices would go.
func NewLogNotifier(lg *zap.Logger, adminEmail string) *LogNotifier {
	return &LogNotifier{lg: lg, adminEmail: adminEmail}
}

// OrderConfirmation logs the confirmation that would be emailed to the
// customer.
func (n *LogNotifier) OrderConfirmation(_ context.Context, o *order.Order) error {
	n.lg.Info("Order confirmation",
		zap.Int64("order_code", o.Code),
		zap.String("recipient", o.InvoiceAddress.Email),
		zap.String("currency", string(o.Currency)),
		zap.String("total", o.TotalRounded.String()),
	)
	return nil
}

// AdminNewOrder logs the new-order notice that would be emailed to the shop
// admin.
func (n *LogNotifier) AdminNewOrder(_ context.Context, o *order.Order) error {
	n.lg.Info("New order notice",
		zap.Int64("order_code", o.Code),
		zap.String("recipient", n.adminEmail),
		zap.String("payment_status", string(o.PaymentStatus)),
		zap.String("total", o.TotalRounded.String()),
	)
	return nil
}
