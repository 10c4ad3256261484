package invoice

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mirsvobo/eshop/internal/domain/order"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBuildDepositLine(t *testing.T) {
	t.Parallel()

	t.Run("single rate order", func(t *testing.T) {
		t.Parallel()

		o := &order.Order{
			SubtotalNet:   dec("8265.60"),
			ItemsTax:      dec("1735.78"),
			DepositAmount: dec("5000.50"),
		}

		line := BuildDepositLine(o)
		// Average rate 1735.78/8265.60 = 0.21 after rounding.
		assert.True(t, line.TaxRate.Equal(dec("0.21")), "rate %s", line.TaxRate)
		assert.True(t, line.Net.Equal(dec("4132.64")), "net %s", line.Net)
		assert.True(t, line.Net.Add(line.Tax).Equal(line.Gross),
			"decomposition must reproduce the gross deposit exactly")
	})

	t.Run("mixed rates blend", func(t *testing.T) {
		t.Parallel()

		// 1000 @ 21% + 1000 @ 12%: blended rate 0.165.
		o := &order.Order{
			SubtotalNet:   dec("2000.00"),
			ItemsTax:      dec("330.00"),
			DepositAmount: dec("1165.00"),
		}

		line := BuildDepositLine(o)
		assert.True(t, line.TaxRate.Equal(dec("0.165")), "rate %s", line.TaxRate)
		assert.True(t, line.Net.Add(line.Tax).Equal(line.Gross))
	})

	t.Run("zero tax order", func(t *testing.T) {
		t.Parallel()

		o := &order.Order{
			SubtotalNet:   dec("2000.00"),
			ItemsTax:      decimal.Zero,
			DepositAmount: dec("1000.00"),
		}

		line := BuildDepositLine(o)
		assert.True(t, line.TaxRate.IsZero())
		assert.True(t, line.Net.Equal(line.Gross))
		assert.True(t, line.Tax.IsZero())
	})
}
