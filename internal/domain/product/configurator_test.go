package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirsvobo/eshop/internal/domain/taxrate"
	"github.com/mirsvobo/eshop/internal/money"
)

func testConfigurator() *Configurator {
	return &Configurator{
		MinLength: decimal.NewFromInt(100),
		MaxLength: decimal.NewFromInt(600),
		MinWidth:  decimal.NewFromInt(50),
		MaxWidth:  decimal.NewFromInt(300),
		MinHeight: decimal.NewFromInt(150),
		MaxHeight: decimal.NewFromInt(250),

		PricePerCmLength: money.NewPair(decimal.NewFromInt(20), decimal.RequireFromString("0.80")),
		PricePerCmWidth:  money.NewPair(decimal.NewFromInt(15), decimal.RequireFromString("0.60")),
		PricePerCmHeight: money.NewPair(decimal.NewFromInt(10), decimal.RequireFromString("0.40")),

		DividerPrice:    money.NewPair(decimal.NewFromInt(1500), decimal.NewFromInt(60)),
		GutterPrice:     money.NewPair(decimal.NewFromInt(800), decimal.NewFromInt(32)),
		GardenShedPrice: money.NewPair(decimal.NewFromInt(5000), decimal.NewFromInt(200)),
	}
}

func TestConfiguratorBasePrice(t *testing.T) {
	dims := Dimensions{
		Length: decimal.NewFromInt(300),
		Width:  decimal.NewFromInt(100),
		Height: decimal.NewFromInt(200),
	}

	tests := []struct {
		name     string
		opts     Options
		currency money.Currency
		want     string
	}{
		{
			// 300*20 + 100*15 + 200*10 = 9500
			name:     "dimensions only CZK",
			currency: money.CZK,
			want:     "9500.00",
		},
		{
			// 300*0.80 + 100*0.60 + 200*0.40 = 380
			name:     "dimensions only EUR",
			currency: money.EUR,
			want:     "380.00",
		},
		{
			// 9500 + 1500 + 800 = 11800
			name:     "divider and gutter CZK",
			opts:     Options{HasDivider: true, HasGutter: true},
			currency: money.CZK,
			want:     "11800.00",
		},
		{
			// 9500 + 5000 = 14500
			name:     "garden shed CZK",
			opts:     Options{HasGardenShed: true},
			currency: money.CZK,
			want:     "14500.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := testConfigurator().BasePrice(dims, tt.opts, tt.currency)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestConfiguratorBasePriceDimensionOutOfRange(t *testing.T) {
	dims := Dimensions{
		Length: decimal.NewFromInt(700), // above MaxLength
		Width:  decimal.NewFromInt(100),
		Height: decimal.NewFromInt(200),
	}

	_, err := testConfigurator().BasePrice(dims, Options{}, money.CZK)
	require.ErrorIs(t, err, ErrDimensionOutOfRange)
}

func TestConfiguratorBasePriceMissingCurrencyPrice(t *testing.T) {
	cfg := testConfigurator()
	cfg.PricePerCmHeight.EUR = decimal.Zero

	dims := Dimensions{
		Length: decimal.NewFromInt(300),
		Width:  decimal.NewFromInt(100),
		Height: decimal.NewFromInt(200),
	}

	_, err := cfg.BasePrice(dims, Options{}, money.EUR)
	require.ErrorIs(t, err, ErrPriceNotConfigured)
}

func TestProductTaxRateWhitelist(t *testing.T) {
	p := &Product{
		ID: 1,
		TaxRates: []taxrate.TaxRate{
			{ID: 1, Name: "Standard 21%", Rate: decimal.RequireFromString("0.21")},
			{ID: 2, Name: "Reduced 12%", Rate: decimal.RequireFromString("0.12")},
		},
	}

	tr, ok := p.TaxRateByID(2)
	require.True(t, ok)
	assert.Equal(t, "Reduced 12%", tr.Name)

	_, ok = p.TaxRateByID(99)
	assert.False(t, ok)
}
