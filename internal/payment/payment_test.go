package payment

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mirsvobo/eshop/internal/domain/order"
)

func TestInitialStatus(t *testing.T) {
	t.Parallel()

	s := New(decimal.NewFromInt(50))

	assert.Equal(t, order.StatusPendingPayment, s.InitialStatus(order.PaymentBankTransfer, false))
	assert.Equal(t, order.StatusPendingPayment, s.InitialStatus(order.PaymentBankTransfer, true))
	assert.Equal(t, order.StatusPending, s.InitialStatus(order.PaymentCashOnDelivery, false))
}

func TestDeposit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		percent string
		total   string
		want    string
	}{
		{"half of odd whole total", "50", "10001", "5000.50"},
		{"half of even total", "50", "2600", "1300.00"},
		{"rounds half up", "50", "10001.01", "5000.51"},
		{"thirty percent", "30", "1000", "300.00"},
		{"zero percent disables deposit", "0", "10001", "0"},
		{"zero total", "50", "0", "0"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := New(decimal.RequireFromString(tt.percent))
			got := s.Deposit(decimal.RequireFromString(tt.total))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}
