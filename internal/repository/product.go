package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mirsvobo/eshop/internal/domain/product"
	"github.com/mirsvobo/eshop/internal/domain/taxrate"
	"github.com/mirsvobo/eshop/internal/money"
)

const (
	getProductByIDSQL = `SELECT id, name, slug, active, customisable,
		base_price_czk, base_price_eur,
		min_length, max_length, min_width, max_width, min_height, max_height,
		price_cm_length_czk, price_cm_length_eur,
		price_cm_width_czk, price_cm_width_eur,
		price_cm_height_czk, price_cm_height_eur,
		divider_price_czk, divider_price_eur,
		gutter_price_czk, gutter_price_eur,
		garden_shed_price_czk, garden_shed_price_eur
		FROM products WHERE id = $1`

	getProductTaxRatesSQL = `SELECT t.id, t.name, t.rate
		FROM tax_rates t
		JOIN product_tax_rates pt ON pt.tax_rate_id = t.id
		WHERE pt.product_id = $1
		ORDER BY t.rate`

	getProductAddonIDsSQL = `SELECT addon_id FROM product_addons WHERE product_id = $1 ORDER BY addon_id`

	getAttributeSQL = `SELECT id, kind, name, active, surcharge_czk, surcharge_eur
		FROM attributes WHERE id = $1 AND kind = $2`

	getAddonsByIDsSQL = `SELECT id, name, active, price_czk, price_eur
		FROM addons WHERE id = ANY($1) ORDER BY id`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// GetByID returns a product with its tax-rate whitelist and addon whitelist.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}

	trRows, err := r.pool.Query(ctx, getProductTaxRatesSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting tax rates for product %d: %w", id, err)
	}
	p.TaxRates, err = pgx.CollectRows(trRows, func(row pgx.CollectableRow) (taxrate.TaxRate, error) {
		var tr taxrate.TaxRate
		err := row.Scan(&tr.ID, &tr.Name, &tr.Rate)
		return tr, err
	})
	if err != nil {
		return nil, fmt.Errorf("getting tax rates for product %d: %w", id, err)
	}

	addonRows, err := r.pool.Query(ctx, getProductAddonIDsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting addon ids for product %d: %w", id, err)
	}
	p.AddonIDs, err = pgx.CollectRows(addonRows, func(row pgx.CollectableRow) (int64, error) {
		var addonID int64
		err := row.Scan(&addonID)
		return addonID, err
	})
	if err != nil {
		return nil, fmt.Errorf("getting addon ids for product %d: %w", id, err)
	}

	return &p, nil
}

// GetAttribute returns a selectable attribute of the given kind.
func (r *ProductRepository) GetAttribute(ctx context.Context, kind product.AttributeKind, id int64) (*product.Attribute, error) {
	rows, err := r.pool.Query(ctx, getAttributeSQL, id, string(kind))
	if err != nil {
		return nil, fmt.Errorf("getting %s attribute %d: %w", kind, id, err)
	}

	a, err := pgx.CollectExactlyOneRow(rows, scanAttribute)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s attribute %d not found", kind, id)
		}
		return nil, fmt.Errorf("getting %s attribute %d: %w", kind, id, err)
	}
	return &a, nil
}

// GetAddonsByIDs returns addons matching any of the given IDs.
func (r *ProductRepository) GetAddonsByIDs(ctx context.Context, ids []int64) ([]product.Addon, error) {
	rows, err := r.pool.Query(ctx, getAddonsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting addons by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanAddon)
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p                      product.Product
		priceCZK, priceEUR     decimal.NullDecimal
		minL, maxL             decimal.NullDecimal
		minW, maxW             decimal.NullDecimal
		minH, maxH             decimal.NullDecimal
		cmLCZK, cmLEUR         decimal.NullDecimal
		cmWCZK, cmWEUR         decimal.NullDecimal
		cmHCZK, cmHEUR         decimal.NullDecimal
		dividerCZK, dividerEUR decimal.NullDecimal
		gutterCZK, gutterEUR   decimal.NullDecimal
		shedCZK, shedEUR       decimal.NullDecimal
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Active, &p.Customisable,
		&priceCZK, &priceEUR,
		&minL, &maxL, &minW, &maxW, &minH, &maxH,
		&cmLCZK, &cmLEUR, &cmWCZK, &cmWEUR, &cmHCZK, &cmHEUR,
		&dividerCZK, &dividerEUR, &gutterCZK, &gutterEUR, &shedCZK, &shedEUR,
	)
	if err != nil {
		return p, err
	}

	p.BasePrice = money.NewPair(priceCZK.Decimal, priceEUR.Decimal)
	if p.Customisable {
		p.Configurator = &product.Configurator{
			MinLength: minL.Decimal, MaxLength: maxL.Decimal,
			MinWidth: minW.Decimal, MaxWidth: maxW.Decimal,
			MinHeight: minH.Decimal, MaxHeight: maxH.Decimal,

			PricePerCmLength: money.NewPair(cmLCZK.Decimal, cmLEUR.Decimal),
			PricePerCmWidth:  money.NewPair(cmWCZK.Decimal, cmWEUR.Decimal),
			PricePerCmHeight: money.NewPair(cmHCZK.Decimal, cmHEUR.Decimal),

			DividerPrice:    money.NewPair(dividerCZK.Decimal, dividerEUR.Decimal),
			GutterPrice:     money.NewPair(gutterCZK.Decimal, gutterEUR.Decimal),
			GardenShedPrice: money.NewPair(shedCZK.Decimal, shedEUR.Decimal),
		}
	}
	return p, nil
}

func scanAttribute(row pgx.CollectableRow) (product.Attribute, error) {
	var (
		a        product.Attribute
		kind     string
		czk, eur decimal.NullDecimal
	)
	err := row.Scan(&a.ID, &kind, &a.Name, &a.Active, &czk, &eur)
	a.Kind = product.AttributeKind(kind)
	a.Surcharge = money.NewPair(czk.Decimal, eur.Decimal)
	return a, err
}

func scanAddon(row pgx.CollectableRow) (product.Addon, error) {
	var (
		a        product.Addon
		czk, eur decimal.NullDecimal
	)
	err := row.Scan(&a.ID, &a.Name, &a.Active, &czk, &eur)
	a.Price = money.NewPair(czk.Decimal, eur.Decimal)
	return a, err
}
