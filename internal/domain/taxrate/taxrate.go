// Package taxrate defines the VAT rates a buyer can select at checkout.
package taxrate

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no tax rate exists for the given id.
var ErrNotFound = errors.New("tax rate not found")

// TaxRate is one selectable VAT rate. Rate is the multiplier, e.g. 0.21 for
// the Czech standard rate.
type TaxRate struct {
	ID   int64
	Name string
	Rate decimal.Decimal
}

// Repository provides read access to tax rates.
type Repository interface {
	GetByID(ctx context.Context, id int64) (TaxRate, error)
	List(ctx context.Context) ([]TaxRate, error)
}
