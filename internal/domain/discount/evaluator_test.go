package discount

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirsvobo/eshop/internal/money"
)

type mockDiscountRepo struct {
	discounts []Discount
	err       error
}

func (m *mockDiscountRepo) ListActive(_ context.Context) ([]Discount, error) {
	return m.discounts, m.err
}

func TestEvaluatorBestPrice(t *testing.T) {
	fixedNow := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	windowStart := fixedNow.Add(-24 * time.Hour)
	windowEnd := fixedNow.Add(24 * time.Hour)
	pastEnd := fixedNow.Add(-time.Hour)

	window := func(d Discount) Discount {
		d.Active = true
		d.ValidFrom = &windowStart
		d.ValidTo = &windowEnd
		return d
	}

	price := decimal.NewFromInt(1000)

	tests := []struct {
		name      string
		discounts []Discount
		productID int64
		currency  money.Currency
		want      string
	}{
		{
			name: "highest percentage wins among percentages",
			discounts: []Discount{
				window(Discount{ID: 1, Percentage: true, Value: decimal.NewFromInt(10)}),
				window(Discount{ID: 2, Percentage: true, Value: decimal.NewFromInt(25)}),
			},
			productID: 1,
			currency:  money.CZK,
			want:      "750.00",
		},
		{
			name: "fixed beats percentage when lower result",
			discounts: []Discount{
				window(Discount{ID: 1, Percentage: true, Value: decimal.NewFromInt(10)}),
				window(Discount{ID: 2, FixedValue: money.NewPair(decimal.NewFromInt(400), decimal.Zero)}),
			},
			productID: 1,
			currency:  money.CZK,
			want:      "600.00",
		},
		{
			name: "percentage beats fixed when lower result",
			discounts: []Discount{
				window(Discount{ID: 1, Percentage: true, Value: decimal.NewFromInt(50)}),
				window(Discount{ID: 2, FixedValue: money.NewPair(decimal.NewFromInt(100), decimal.Zero)}),
			},
			productID: 1,
			currency:  money.CZK,
			want:      "500.00",
		},
		{
			name: "fixed discount clamped at zero",
			discounts: []Discount{
				window(Discount{ID: 1, FixedValue: money.NewPair(decimal.NewFromInt(5000), decimal.Zero)}),
			},
			productID: 1,
			currency:  money.CZK,
			want:      "0.00",
		},
		{
			name: "expired discount ignored",
			discounts: []Discount{
				{ID: 1, Percentage: true, Value: decimal.NewFromInt(50), Active: true, ValidFrom: &windowStart, ValidTo: &pastEnd},
			},
			productID: 1,
			currency:  money.CZK,
			want:      "1000.00",
		},
		{
			name: "inactive discount ignored",
			discounts: []Discount{
				{ID: 1, Percentage: true, Value: decimal.NewFromInt(50), ValidFrom: &windowStart, ValidTo: &windowEnd},
			},
			productID: 1,
			currency:  money.CZK,
			want:      "1000.00",
		},
		{
			name: "targeted discount skips other products",
			discounts: []Discount{
				window(Discount{ID: 1, Percentage: true, Value: decimal.NewFromInt(50), ProductIDs: []int64{7}}),
			},
			productID: 1,
			currency:  money.CZK,
			want:      "1000.00",
		},
		{
			name: "targeted discount applies to its product",
			discounts: []Discount{
				window(Discount{ID: 1, Percentage: true, Value: decimal.NewFromInt(50), ProductIDs: []int64{7}}),
			},
			productID: 7,
			currency:  money.CZK,
			want:      "500.00",
		},
		{
			name: "fixed value respects currency",
			discounts: []Discount{
				window(Discount{ID: 1, FixedValue: money.NewPair(decimal.NewFromInt(400), decimal.NewFromInt(20))}),
			},
			productID: 1,
			currency:  money.EUR,
			want:      "980.00",
		},
		{
			name:      "no discounts leaves price unchanged",
			discounts: nil,
			productID: 1,
			currency:  money.CZK,
			want:      "1000.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEvaluator(&mockDiscountRepo{discounts: tt.discounts})
			e.now = func() time.Time { return fixedNow }

			got, err := e.BestPrice(context.Background(), tt.productID, price, tt.currency)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestEvaluatorBestPriceRoundsPercentage(t *testing.T) {
	fixedNow := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	start := fixedNow.Add(-time.Hour)
	end := fixedNow.Add(time.Hour)

	e := NewEvaluator(&mockDiscountRepo{discounts: []Discount{
		{ID: 1, Percentage: true, Value: decimal.NewFromInt(15), Active: true, ValidFrom: &start, ValidTo: &end},
	}})
	e.now = func() time.Time { return fixedNow }

	// 333.33 * 0.85 = 283.3305 -> 283.33
	got, err := e.BestPrice(context.Background(), 1, decimal.RequireFromString("333.33"), money.CZK)
	require.NoError(t, err)
	assert.Equal(t, "283.33", got.StringFixed(2))
}

func TestEvaluatorBestPriceZeroPrice(t *testing.T) {
	e := NewEvaluator(&mockDiscountRepo{})
	got, err := e.BestPrice(context.Background(), 1, decimal.Zero, money.CZK)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}
