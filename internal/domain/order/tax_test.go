package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRecalculateTax(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		unitNet       string
		quantity      int
		rate          string
		reverseCharge bool
		wantUnitTax   string
		wantLineNet   string
		wantLineTax   string
		wantLineGross string
	}{
		{
			name:    "standard rate",
			unitNet: "1000.00", quantity: 2, rate: "0.21",
			wantUnitTax: "210.00", wantLineNet: "2000.00",
			wantLineTax: "420.00", wantLineGross: "2420.00",
		},
		{
			name:    "unit tax rounds before multiplying",
			unitNet: "33.33", quantity: 3, rate: "0.21",
			// 33.33 * 0.21 = 6.9993 -> 7.00 per unit, then *3
			wantUnitTax: "7.00", wantLineNet: "99.99",
			wantLineTax: "21.00", wantLineGross: "120.99",
		},
		{
			name:    "reverse charge zeroes tax",
			unitNet: "1000.00", quantity: 2, rate: "0.21", reverseCharge: true,
			wantUnitTax: "0", wantLineNet: "2000.00",
			wantLineTax: "0", wantLineGross: "2000.00",
		},
		{
			name:    "zero rate",
			unitNet: "500.00", quantity: 1, rate: "0",
			wantUnitTax: "0", wantLineNet: "500.00",
			wantLineTax: "0", wantLineGross: "500.00",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			bd := RecalculateTax(
				decimal.RequireFromString(tt.unitNet),
				tt.quantity,
				decimal.RequireFromString(tt.rate),
				tt.reverseCharge,
			)
			assert.True(t, bd.UnitTax.Equal(decimal.RequireFromString(tt.wantUnitTax)), "unit tax: %s", bd.UnitTax)
			assert.True(t, bd.LineNet.Equal(decimal.RequireFromString(tt.wantLineNet)), "line net: %s", bd.LineNet)
			assert.True(t, bd.LineTax.Equal(decimal.RequireFromString(tt.wantLineTax)), "line tax: %s", bd.LineTax)
			assert.True(t, bd.LineGross.Equal(decimal.RequireFromString(tt.wantLineGross)), "line gross: %s", bd.LineGross)
			assert.True(t, bd.UnitGross.Equal(bd.UnitNet.Add(bd.UnitTax)))
		})
	}
}

func TestOrderAverageTaxRate(t *testing.T) {
	t.Parallel()

	o := &Order{
		SubtotalNet: decimal.RequireFromString("3000.00"),
		ItemsTax:    decimal.RequireFromString("510.00"),
	}
	// 510 / 3000 = 0.17
	assert.True(t, o.AverageTaxRate().Equal(decimal.RequireFromString("0.17")))

	empty := &Order{}
	assert.True(t, empty.AverageTaxRate().IsZero())
}

func TestOrderMarkDepositPaid(t *testing.T) {
	t.Parallel()

	o := &Order{PaymentStatus: StatusAwaitingDeposit}
	assert.NoError(t, o.MarkDepositPaid())
	assert.Equal(t, StatusDepositPaid, o.PaymentStatus)

	err := o.MarkDepositPaid()
	assert.Error(t, err)
	assert.Equal(t, KindInvalidState, KindOf(err))

	plain := &Order{PaymentStatus: StatusPendingPayment}
	assert.Error(t, plain.MarkDepositPaid())
}

func TestOrderRemainingAmount(t *testing.T) {
	t.Parallel()

	o := &Order{
		TotalRounded:  decimal.RequireFromString("10001"),
		DepositAmount: decimal.RequireFromString("5000.50"),
		PaymentStatus: StatusAwaitingDeposit,
	}
	assert.True(t, o.RemainingAmount().Equal(decimal.RequireFromString("10001")))

	o.PaymentStatus = StatusDepositPaid
	assert.True(t, o.RemainingAmount().Equal(decimal.RequireFromString("5000.50")))

	o.PaymentStatus = StatusPaid
	assert.True(t, o.RemainingAmount().IsZero())
}
