// Package product defines the catalog items, their configurable attributes,
// and the dimension-driven pricing of made-to-measure goods.
package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/mirsvobo/eshop/internal/domain/taxrate"
	"github.com/mirsvobo/eshop/internal/money"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrInactive is returned when an inactive product is requested for purchase.
	ErrInactive = errors.New("product is inactive")
	// ErrPriceNotConfigured indicates a missing catalog or configurator price
	// for the requested currency.
	ErrPriceNotConfigured = errors.New("price not configured for currency")
)

// Product represents a catalog item available for purchase. A customisable
// product carries a Configurator and is priced by its dimensions instead of
// the catalog base price.
type Product struct {
	ID           int64
	Name         string
	Slug         string
	Active       bool
	Customisable bool
	BasePrice    money.Pair
	TaxRates     []taxrate.TaxRate
	Configurator *Configurator
	AddonIDs     []int64
}

// CatalogPrice returns the base catalog price for a standard product in the
// given currency.
func (p *Product) CatalogPrice(c money.Currency) (decimal.Decimal, error) {
	price := p.BasePrice.For(c)
	if !price.IsPositive() {
		return decimal.Zero, errors.Wrapf(ErrPriceNotConfigured, "product %d, currency %s", p.ID, c)
	}
	return price, nil
}

// TaxRateByID returns the allowed tax rate with the given id, if the buyer
// may select it for this product.
func (p *Product) TaxRateByID(id int64) (taxrate.TaxRate, bool) {
	for _, tr := range p.TaxRates {
		if tr.ID == id {
			return tr, true
		}
	}
	return taxrate.TaxRate{}, false
}

// AllowsAddon reports whether the addon id is whitelisted for this product.
func (p *Product) AllowsAddon(id int64) bool {
	for _, a := range p.AddonIDs {
		if a == id {
			return true
		}
	}
	return false
}

// AttributeKind distinguishes the selectable product attributes.
type AttributeKind string

const (
	AttributeDesign    AttributeKind = "design"
	AttributeGlaze     AttributeKind = "glaze"
	AttributeRoofColor AttributeKind = "roof_color"
)

// Attribute is a selectable product option (design, glaze, roof color) with
// an optional per-currency price surcharge.
type Attribute struct {
	ID        int64
	Kind      AttributeKind
	Name      string
	Active    bool
	Surcharge money.Pair
}

// Addon is an optional extra sold alongside a customisable product.
type Addon struct {
	ID     int64
	Name   string
	Active bool
	Price  money.Pair
}

// Repository defines read operations for the product catalog.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetAttribute(ctx context.Context, kind AttributeKind, id int64) (*Attribute, error)
	GetAddonsByIDs(ctx context.Context, ids []int64) ([]Addon, error)
}
