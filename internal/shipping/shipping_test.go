package shipping

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirsvobo/eshop/internal/money"
)

func TestFlatRateCost(t *testing.T) {
	t.Parallel()

	f := NewFlatRate(
		money.NewPair(decimal.RequireFromString("150.00"), decimal.RequireFromString("6.00")),
		decimal.RequireFromString("0.21"),
	)

	czk, err := f.Cost(context.Background(), money.CZK, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, czk.Equal(decimal.RequireFromString("150.00")))

	eur, err := f.Cost(context.Background(), money.EUR, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, eur.Equal(decimal.RequireFromString("6.00")))

	assert.True(t, f.TaxRate().Equal(decimal.RequireFromString("0.21")))
}

func TestFlatRateCostMissingCurrency(t *testing.T) {
	t.Parallel()

	f := NewFlatRate(money.Pair{CZK: decimal.RequireFromString("150.00")}, decimal.Zero)

	_, err := f.Cost(context.Background(), money.EUR, decimal.Zero)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCostNotConfigured)
}
