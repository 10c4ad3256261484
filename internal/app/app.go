// Package app wires configuration, storage, and the domain services into a
// runnable pricing core.
package app

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mirsvobo/eshop/internal/domain/cart"
	"github.com/mirsvobo/eshop/internal/domain/coupon"
	"github.com/mirsvobo/eshop/internal/domain/discount"
	"github.com/mirsvobo/eshop/internal/domain/order"
	"github.com/mirsvobo/eshop/internal/invoice"
	"github.com/mirsvobo/eshop/internal/money"
	"github.com/mirsvobo/eshop/internal/notify"
	"github.com/mirsvobo/eshop/internal/payment"
	"github.com/mirsvobo/eshop/internal/repository"
	"github.com/mirsvobo/eshop/internal/shipping"
)

// App holds the wired application graph. Checkout-facing callers reach the
// pricing core through Carts and Orders.
type App struct {
	Pool *pgxpool.Pool

	Products  *repository.ProductRepository
	TaxRates  *repository.TaxRateRepository
	Customers *repository.CustomerRepository

	Carts     *cart.Store
	Discounts *discount.Evaluator
	Coupons   *coupon.Validator
	Orders    *order.Service
}

// Build creates all dependencies: the database pool with migrations, the
// repositories, and the domain services. It is the single wiring point.
func Build(ctx context.Context, lg *zap.Logger, cfg *Config) (*App, error) {
	lg.Info("Initializing",
		zap.Int64("order_code_floor", cfg.Order.CodeFloor),
		zap.Int("deposit_percent", cfg.Order.DepositPercent))

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "create db pool")
	}

	if err := repository.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "run migrations")
	}

	shippingCZK, err := decimal.NewFromString(cfg.Shipping.CostCZK)
	if err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "parse shipping cost CZK")
	}
	shippingEUR, err := decimal.NewFromString(cfg.Shipping.CostEUR)
	if err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "parse shipping cost EUR")
	}
	shippingRate, err := decimal.NewFromString(cfg.Shipping.TaxRate)
	if err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "parse shipping tax rate")
	}

	productRepo := repository.NewProductRepository(pool)
	taxRateRepo := repository.NewTaxRateRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	discountRepo := repository.NewDiscountRepository(pool)
	couponRepo := repository.NewCouponRepository(pool)
	orderRepo := repository.NewOrderRepository(pool, cfg.Order.CodeFloor)

	discountEval := discount.NewEvaluator(discountRepo)
	couponValidator := coupon.NewValidator(couponRepo, couponRepo)

	orderService := order.NewService(
		productRepo,
		discountEval,
		couponValidator,
		customerRepo,
		orderRepo,
		shipping.NewFlatRate(money.NewPair(shippingCZK, shippingEUR), shippingRate),
		payment.New(decimal.NewFromInt(int64(cfg.Order.DepositPercent))),
		notify.NewLogNotifier(lg, cfg.AdminEmail),
		invoice.NewLogInvoicer(lg),
	)

	return &App{
		Pool:      pool,
		Products:  productRepo,
		TaxRates:  taxRateRepo,
		Customers: customerRepo,
		Carts:     cart.NewStore(),
		Discounts: discountEval,
		Coupons:   couponValidator,
		Orders:    orderService,
	}, nil
}

// Close releases the application's resources.
func (a *App) Close() {
	a.Pool.Close()
}
