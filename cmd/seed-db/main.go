// Command seed-db loads the catalog seed file into the database: tax rates,
// products with their configurators, attributes, addons, discounts, and
// coupons.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mirsvobo/eshop/internal/repository"
)

type seedFile struct {
	TaxRates []struct {
		ID   int64           `json:"id"`
		Name string          `json:"name"`
		Rate decimal.Decimal `json:"rate"`
	} `json:"taxRates"`
	Products []struct {
		ID           int64            `json:"id"`
		Name         string           `json:"name"`
		Slug         string           `json:"slug"`
		Active       bool             `json:"active"`
		Customisable bool             `json:"customisable"`
		PriceCZK     *decimal.Decimal `json:"priceCzk"`
		PriceEUR     *decimal.Decimal `json:"priceEur"`
		TaxRateIDs   []int64          `json:"taxRateIds"`
		AddonIDs     []int64          `json:"addonIds"`
		Configurator *struct {
			MinLength decimal.Decimal `json:"minLength"`
			MaxLength decimal.Decimal `json:"maxLength"`
			MinWidth  decimal.Decimal `json:"minWidth"`
			MaxWidth  decimal.Decimal `json:"maxWidth"`
			MinHeight decimal.Decimal `json:"minHeight"`
			MaxHeight decimal.Decimal `json:"maxHeight"`

			PerCmLengthCZK decimal.Decimal `json:"perCmLengthCzk"`
			PerCmLengthEUR decimal.Decimal `json:"perCmLengthEur"`
			PerCmWidthCZK  decimal.Decimal `json:"perCmWidthCzk"`
			PerCmWidthEUR  decimal.Decimal `json:"perCmWidthEur"`
			PerCmHeightCZK decimal.Decimal `json:"perCmHeightCzk"`
			PerCmHeightEUR decimal.Decimal `json:"perCmHeightEur"`

			DividerCZK    decimal.Decimal `json:"dividerCzk"`
			DividerEUR    decimal.Decimal `json:"dividerEur"`
			GutterCZK     decimal.Decimal `json:"gutterCzk"`
			GutterEUR     decimal.Decimal `json:"gutterEur"`
			GardenShedCZK decimal.Decimal `json:"gardenShedCzk"`
			GardenShedEUR decimal.Decimal `json:"gardenShedEur"`
		} `json:"configurator"`
	} `json:"products"`
	Attributes []struct {
		ID           int64            `json:"id"`
		Kind         string           `json:"kind"`
		Name         string           `json:"name"`
		Active       bool             `json:"active"`
		SurchargeCZK *decimal.Decimal `json:"surchargeCzk"`
		SurchargeEUR *decimal.Decimal `json:"surchargeEur"`
	} `json:"attributes"`
	Addons []struct {
		ID       int64            `json:"id"`
		Name     string           `json:"name"`
		Active   bool             `json:"active"`
		PriceCZK *decimal.Decimal `json:"priceCzk"`
		PriceEUR *decimal.Decimal `json:"priceEur"`
	} `json:"addons"`
	Coupons []struct {
		Code         string           `json:"code"`
		Name         string           `json:"name"`
		Percentage   bool             `json:"percentage"`
		Value        decimal.Decimal  `json:"value"`
		FixedCZK     *decimal.Decimal `json:"fixedCzk"`
		FixedEUR     *decimal.Decimal `json:"fixedEur"`
		FreeShipping bool             `json:"freeShipping"`
		MinOrderCZK  *decimal.Decimal `json:"minOrderCzk"`
		MinOrderEUR  *decimal.Decimal `json:"minOrderEur"`
	} `json:"coupons"`
}

func main() {
	var (
		databaseURL string
		seedPath    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&seedPath, "seed-file", "db/seed/catalog.json", "path to catalog seed JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, seedPath); err != nil {
		slog.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seeding completed successfully")
}

func run(ctx context.Context, databaseURL, seedPath string) error {
	data, err := os.ReadFile(seedPath)
	if err != nil {
		return errors.Wrap(err, "read seed file")
	}
	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return errors.Wrap(err, "parse seed file")
	}

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedCatalog(ctx, pool, &seed); err != nil {
		return err
	}

	slog.Info("seeded",
		slog.Int("tax_rates", len(seed.TaxRates)),
		slog.Int("products", len(seed.Products)),
		slog.Int("attributes", len(seed.Attributes)),
		slog.Int("addons", len(seed.Addons)),
		slog.Int("coupons", len(seed.Coupons)),
	)
	return nil
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool, seed *seedFile) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin seed transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	for _, tr := range seed.TaxRates {
		_, err := tx.Exec(ctx,
			`INSERT INTO tax_rates (id, name, rate) VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, rate = EXCLUDED.rate`,
			tr.ID, tr.Name, tr.Rate)
		if err != nil {
			return errors.Wrapf(err, "seed tax rate %d", tr.ID)
		}
	}

	for _, a := range seed.Addons {
		_, err := tx.Exec(ctx,
			`INSERT INTO addons (id, name, active, price_czk, price_eur)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, active = EXCLUDED.active,
				price_czk = EXCLUDED.price_czk, price_eur = EXCLUDED.price_eur`,
			a.ID, a.Name, a.Active, a.PriceCZK, a.PriceEUR)
		if err != nil {
			return errors.Wrapf(err, "seed addon %d", a.ID)
		}
	}

	for _, a := range seed.Attributes {
		_, err := tx.Exec(ctx,
			`INSERT INTO attributes (id, kind, name, active, surcharge_czk, surcharge_eur)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO UPDATE SET kind = EXCLUDED.kind, name = EXCLUDED.name,
				active = EXCLUDED.active, surcharge_czk = EXCLUDED.surcharge_czk,
				surcharge_eur = EXCLUDED.surcharge_eur`,
			a.ID, a.Kind, a.Name, a.Active, a.SurchargeCZK, a.SurchargeEUR)
		if err != nil {
			return errors.Wrapf(err, "seed attribute %d", a.ID)
		}
	}

	for _, p := range seed.Products {
		args := []any{
			p.ID, p.Name, p.Slug, p.Active, p.Customisable, p.PriceCZK, p.PriceEUR,
		}
		cfgCols := make([]any, 18)
		if c := p.Configurator; c != nil {
			cfgCols = []any{
				c.MinLength, c.MaxLength, c.MinWidth, c.MaxWidth, c.MinHeight, c.MaxHeight,
				c.PerCmLengthCZK, c.PerCmLengthEUR,
				c.PerCmWidthCZK, c.PerCmWidthEUR,
				c.PerCmHeightCZK, c.PerCmHeightEUR,
				c.DividerCZK, c.DividerEUR,
				c.GutterCZK, c.GutterEUR,
				c.GardenShedCZK, c.GardenShedEUR,
			}
		}
		args = append(args, cfgCols...)

		_, err := tx.Exec(ctx,
			`INSERT INTO products (id, name, slug, active, customisable,
				base_price_czk, base_price_eur,
				min_length, max_length, min_width, max_width, min_height, max_height,
				price_cm_length_czk, price_cm_length_eur,
				price_cm_width_czk, price_cm_width_eur,
				price_cm_height_czk, price_cm_height_eur,
				divider_price_czk, divider_price_eur,
				gutter_price_czk, gutter_price_eur,
				garden_shed_price_czk, garden_shed_price_eur)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
				$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
			 ON CONFLICT (id) DO NOTHING`,
			args...)
		if err != nil {
			return errors.Wrapf(err, "seed product %d", p.ID)
		}

		for _, trID := range p.TaxRateIDs {
			_, err := tx.Exec(ctx,
				`INSERT INTO product_tax_rates (product_id, tax_rate_id)
				 VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				p.ID, trID)
			if err != nil {
				return errors.Wrapf(err, "seed tax rate %d of product %d", trID, p.ID)
			}
		}
		for _, addonID := range p.AddonIDs {
			_, err := tx.Exec(ctx,
				`INSERT INTO product_addons (product_id, addon_id)
				 VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				p.ID, addonID)
			if err != nil {
				return errors.Wrapf(err, "seed addon %d of product %d", addonID, p.ID)
			}
		}
	}

	for _, c := range seed.Coupons {
		_, err := tx.Exec(ctx,
			`INSERT INTO coupons (code, name, percentage, value, fixed_czk, fixed_eur,
				free_shipping, min_order_czk, min_order_eur, active)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
			 ON CONFLICT DO NOTHING`,
			c.Code, c.Name, c.Percentage, c.Value, c.FixedCZK, c.FixedEUR,
			c.FreeShipping, c.MinOrderCZK, c.MinOrderEUR)
		if err != nil {
			return errors.Wrapf(err, "seed coupon %q", c.Code)
		}
	}

	return errors.Wrap(tx.Commit(ctx), "commit seed transaction")
}
