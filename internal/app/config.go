package app

import (
	"os"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (ESHOP_ prefix), flags, or YAML config files.
type Config struct {
	DatabaseURL string `usage:"PostgreSQL connection URL (ESHOP_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	AdminEmail  string `default:"orders@drevo-doghouses.example" usage:"Recipient of new-order notices" flag:"admin-email"`
	Order       OrderConfig
	Shipping    ShippingConfig
}

// OrderConfig controls order numbering and the custom-order deposit policy.
type OrderConfig struct {
	CodeFloor      int64 `default:"2400000" usage:"Lowest order code ever assigned" flag:"order-code-floor"`
	DepositPercent int   `default:"50" usage:"Custom-order deposit share of the rounded total, in percent" flag:"deposit-percent"`
}

// ShippingConfig is the flat-rate shipping price table.
type ShippingConfig struct {
	CostCZK string `default:"150.00" usage:"Flat shipping net cost in CZK" flag:"shipping-czk"`
	CostEUR string `default:"6.00" usage:"Flat shipping net cost in EUR" flag:"shipping-eur"`
	TaxRate string `default:"0.21" usage:"Tax rate applied to shipping" flag:"shipping-tax-rate"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and platform defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "ESHOP",
		Files:     []string{"config.yaml", "/etc/eshop/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}

	if cfg.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			cfg.DatabaseURL = v
		}
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set ESHOP_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}
