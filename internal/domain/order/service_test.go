package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirsvobo/eshop/internal/domain/coupon"
	"github.com/mirsvobo/eshop/internal/domain/customer"
	"github.com/mirsvobo/eshop/internal/domain/discount"
	"github.com/mirsvobo/eshop/internal/domain/product"
	"github.com/mirsvobo/eshop/internal/domain/taxrate"
	"github.com/mirsvobo/eshop/internal/money"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type mockProducts struct {
	products map[int64]*product.Product
	attrs    map[int64]*product.Attribute
	addons   map[int64]product.Addon
}

func (m *mockProducts) GetByID(_ context.Context, id int64) (*product.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockProducts) GetAttribute(_ context.Context, kind product.AttributeKind, id int64) (*product.Attribute, error) {
	a, ok := m.attrs[id]
	if !ok || a.Kind != kind {
		return nil, errors.New("attribute not found")
	}
	return a, nil
}

func (m *mockProducts) GetAddonsByIDs(_ context.Context, ids []int64) ([]product.Addon, error) {
	var out []product.Addon
	for _, id := range ids {
		if a, ok := m.addons[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

type mockCustomers struct {
	customers map[int64]*customer.Customer
}

func (m *mockCustomers) GetByID(_ context.Context, id int64) (*customer.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return c, nil
}

type mockDiscounts struct {
	discounts []discount.Discount
}

func (m *mockDiscounts) ListActive(_ context.Context) ([]discount.Discount, error) {
	return m.discounts, nil
}

type mockCoupons struct {
	coupons map[string]*coupon.Coupon
}

func (m *mockCoupons) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	c, ok := m.coupons[code]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return c, nil
}

func (m *mockCoupons) IncrementUses(_ context.Context, _ int64) error { return nil }

type mockUsage struct {
	count int64
}

func (m *mockUsage) CountCustomerUsage(_ context.Context, _, _ int64) (int64, error) {
	return m.count, nil
}

type mockOrders struct {
	created []*Order
	stored  map[uuid.UUID]*Order
	updated map[uuid.UUID]PaymentStatus
}

func (m *mockOrders) Create(_ context.Context, o *Order) error {
	o.Code = 2400001 + int64(len(m.created))
	m.created = append(m.created, o)
	return nil
}

func (m *mockOrders) GetByID(_ context.Context, id uuid.UUID) (*Order, error) {
	o, ok := m.stored[id]
	if !ok {
		return nil, errors.New("order not found")
	}
	return o, nil
}

func (m *mockOrders) UpdatePaymentStatus(_ context.Context, id uuid.UUID, status PaymentStatus) error {
	if m.updated == nil {
		m.updated = make(map[uuid.UUID]PaymentStatus)
	}
	m.updated[id] = status
	return nil
}

type mockShipping struct {
	net  decimal.Decimal
	rate decimal.Decimal
	err  error

	calls int
}

func (m *mockShipping) Cost(_ context.Context, _ money.Currency, _ decimal.Decimal) (decimal.Decimal, error) {
	m.calls++
	if m.err != nil {
		return decimal.Zero, m.err
	}
	return m.net, nil
}

func (m *mockShipping) TaxRate() decimal.Decimal { return m.rate }

type stubPayment struct{}

func (stubPayment) InitialStatus(method PaymentMethod, _ bool) PaymentStatus {
	if method == PaymentCashOnDelivery {
		return StatusPending
	}
	return StatusPendingPayment
}

func (stubPayment) Deposit(totalRounded decimal.Decimal) decimal.Decimal {
	return money.Round(totalRounded.Mul(dec("0.5")))
}

type mockNotifier struct {
	confirmations int
	adminNotices  int
	err           error
}

func (m *mockNotifier) OrderConfirmation(_ context.Context, _ *Order) error {
	m.confirmations++
	return m.err
}

func (m *mockNotifier) AdminNewOrder(_ context.Context, _ *Order) error {
	m.adminNotices++
	return m.err
}

type mockInvoicer struct {
	proformas int
	err       error
}

func (m *mockInvoicer) IssueProformaDeposit(_ context.Context, _ *Order) error {
	m.proformas++
	return m.err
}

type testDeps struct {
	products *mockProducts
	custs    *mockCustomers
	disc     *mockDiscounts
	coupons  *mockCoupons
	usage    *mockUsage
	orders   *mockOrders
	shipping *mockShipping
	notifier *mockNotifier
	invoicer *mockInvoicer
}

func newTestDeps() *testDeps {
	standard := taxrate.TaxRate{ID: 1, Name: "standard", Rate: dec("0.21")}
	reduced := taxrate.TaxRate{ID: 2, Name: "reduced", Rate: dec("0.12")}

	return &testDeps{
		products: &mockProducts{
			products: map[int64]*product.Product{
				1: {
					ID: 1, Name: "Doghouse Classic", Slug: "doghouse-classic", Active: true,
					BasePrice: money.NewPair(dec("1000.00"), dec("40.00")),
					TaxRates:  []taxrate.TaxRate{standard, reduced},
				},
				7: {
					ID: 7, Name: "Doghouse Custom", Slug: "doghouse-custom", Active: true,
					Customisable: true,
					TaxRates:     []taxrate.TaxRate{standard},
					AddonIDs:     []int64{1},
					Configurator: &product.Configurator{
						MinLength: dec("100"), MaxLength: dec("500"),
						MinWidth: dec("50"), MaxWidth: dec("300"),
						MinHeight: dec("50"), MaxHeight: dec("250"),
						PricePerCmLength: money.Pair{CZK: dec("10")},
						PricePerCmWidth:  money.Pair{CZK: dec("10")},
						PricePerCmHeight: money.Pair{CZK: dec("10")},
						DividerPrice:     money.Pair{CZK: dec("2265.60")},
					},
				},
				9: {
					ID: 9, Name: "Retired Doghouse", Slug: "retired", Active: false,
					BasePrice: money.NewPair(dec("800.00"), dec("32.00")),
					TaxRates:  []taxrate.TaxRate{standard},
				},
			},
			attrs: map[int64]*product.Attribute{
				11: {ID: 11, Kind: product.AttributeGlaze, Name: "Teak", Active: true,
					Surcharge: money.Pair{CZK: dec("100.00"), EUR: dec("4.00")}},
			},
			addons: map[int64]product.Addon{
				1: {ID: 1, Name: "Name plate", Active: true,
					Price: money.Pair{CZK: dec("250.00"), EUR: dec("10.00")}},
			},
		},
		custs: &mockCustomers{
			customers: map[int64]*customer.Customer{
				42: {
					ID: 42, Email: "jan@example.com", Name: "Jan Novák", Phone: "+420777123456",
					BillingAddress: customer.Address{
						Street: "Dlouhá 12", City: "Praha", Zip: "11000", Country: "CZ",
					},
				},
			},
		},
		disc:     &mockDiscounts{},
		coupons:  &mockCoupons{coupons: map[string]*coupon.Coupon{}},
		usage:    &mockUsage{},
		orders:   &mockOrders{stored: map[uuid.UUID]*Order{}},
		shipping: &mockShipping{net: dec("150.00"), rate: dec("0.21")},
		notifier: &mockNotifier{},
		invoicer: &mockInvoicer{},
	}
}

func (d *testDeps) service() *Service {
	s := NewService(
		d.products,
		discount.NewEvaluator(d.disc),
		coupon.NewValidator(d.coupons, d.usage),
		d.custs,
		d.orders,
		d.shipping,
		stubPayment{},
		d.notifier,
		d.invoicer,
	)
	s.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func standardRequest() Request {
	return Request{
		CustomerID:    42,
		Currency:      money.CZK,
		PaymentMethod: PaymentBankTransfer,
		Lines: []LineRequest{
			{ProductID: 1, Quantity: 2, TaxRateID: 1},
		},
	}
}

func TestAssembleStandardOrder(t *testing.T) {
	t.Parallel()

	deps := newTestDeps()
	o, err := deps.service().Assemble(context.Background(), standardRequest())
	require.NoError(t, err)

	assert.True(t, o.SubtotalNet.Equal(dec("2000.00")))
	assert.True(t, o.ItemsTax.Equal(dec("420.00")))
	assert.True(t, o.ShippingNet.Equal(dec("150.00")))
	assert.True(t, o.ShippingTax.Equal(dec("31.50")))
	assert.True(t, o.TotalNet.Equal(dec("2150.00")))
	assert.True(t, o.TotalTax.Equal(dec("451.50")))
	assert.True(t, o.TotalGross.Equal(dec("2601.50")))
	assert.True(t, o.TotalRounded.Equal(dec("2601")))
	assert.Equal(t, StatusPendingPayment, o.PaymentStatus)
	assert.True(t, o.DepositAmount.IsZero())
	assert.Equal(t, int64(2400001), o.Code)

	require.Len(t, o.Items, 1)
	item := o.Items[0]
	assert.Equal(t, "doghouse-classic", item.SKU)
	assert.True(t, item.UnitNet.Equal(dec("1000.00")))
	assert.True(t, item.LineGross.Equal(dec("2420.00")))

	assert.Equal(t, "Jan Novák", o.InvoiceAddress.Name)
	assert.Equal(t, "Dlouhá 12", o.DeliveryAddress.Street)

	require.Len(t, deps.orders.created, 1)
	assert.Equal(t, 1, deps.notifier.confirmations)
	assert.Equal(t, 1, deps.notifier.adminNotices)
	assert.Equal(t, 0, deps.invoicer.proformas)
}

func TestAssembleCustomOrderDeposit(t *testing.T) {
	t.Parallel()

	deps := newTestDeps()
	zero := decimal.Zero
	req := Request{
		CustomerID:    42,
		Currency:      money.CZK,
		PaymentMethod: PaymentBankTransfer,
		ShippingNet:   &zero,
		ShippingTax:   &zero,
		Lines: []LineRequest{{
			ProductID: 7, Quantity: 1, TaxRateID: 1, Custom: true,
			Dimensions: product.Dimensions{
				Length: dec("300"), Width: dec("200"), Height: dec("100"),
			},
			Options: product.Options{HasDivider: true},
		}},
	}

	o, err := deps.service().Assemble(context.Background(), req)
	require.NoError(t, err)

	// 300+200+100 cm at 10 CZK/cm plus the divider: 8265.60 net,
	// 1735.78 tax, 10001.38 gross, charged as 10001 whole crowns.
	require.Len(t, o.Items, 1)
	assert.Equal(t, "CUSTOM-7", o.Items[0].SKU)
	assert.True(t, o.Items[0].UnitNet.Equal(dec("8265.60")))
	assert.True(t, o.TotalGross.Equal(dec("10001.38")))
	assert.True(t, o.TotalRounded.Equal(dec("10001")))

	assert.True(t, o.DepositAmount.Equal(dec("5000.50")))
	assert.Equal(t, StatusAwaitingDeposit, o.PaymentStatus)
	assert.Equal(t, 1, deps.invoicer.proformas)
}

func TestAssembleFreeShippingCoupon(t *testing.T) {
	t.Parallel()

	deps := newTestDeps()
	deps.coupons.coupons["DOPRAVA"] = &coupon.Coupon{
		ID: 5, Code: "DOPRAVA", FreeShipping: true, Active: true,
	}

	req := standardRequest()
	req.CouponCode = "DOPRAVA"

	o, err := deps.service().Assemble(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, o.ShippingNet.IsZero())
	assert.True(t, o.ShippingTax.IsZero())
	assert.True(t, o.ShippingListNet.Equal(dec("150.00")), "waived cost kept for reporting")
	assert.True(t, o.CouponDiscount.IsZero(), "free-shipping-only coupon discounts nothing")
	require.NotNil(t, o.CouponID)
	assert.Equal(t, int64(5), *o.CouponID)
	assert.True(t, o.TotalGross.Equal(dec("2420.00")))
}

func TestAssemblePercentageCoupon(t *testing.T) {
	t.Parallel()

	deps := newTestDeps()
	deps.coupons.coupons["SAVE10"] = &coupon.Coupon{
		ID: 6, Code: "SAVE10", Percentage: true, Value: dec("10"), Active: true,
		MinimumOrderValue: money.Pair{CZK: dec("500.00")},
	}

	req := standardRequest()
	req.CouponCode = "SAVE10"

	o, err := deps.service().Assemble(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, o.CouponDiscount.Equal(dec("200.00")))
	// 1800 net after discount + 150 shipping, 420 + 31.50 tax.
	assert.True(t, o.TotalNet.Equal(dec("1950.00")))
	assert.True(t, o.TotalGross.Equal(dec("2401.50")))
	assert.True(t, o.TotalRounded.Equal(dec("2401")))
}

func TestAssembleCouponSilentDrop(t *testing.T) {
	t.Parallel()

	expired := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	started := expired.Add(-24 * time.Hour)

	tests := []struct {
		name  string
		setup func(d *testDeps)
	}{
		{"unknown code", func(*testDeps) {}},
		{"expired", func(d *testDeps) {
			d.coupons.coupons["OLD"] = &coupon.Coupon{
				ID: 8, Code: "OLD", Percentage: true, Value: dec("10"), Active: true,
				StartDate: &started, ExpirationDate: &expired,
			}
		}},
		{"minimum order value not met", func(d *testDeps) {
			d.coupons.coupons["OLD"] = &coupon.Coupon{
				ID: 8, Code: "OLD", Percentage: true, Value: dec("10"), Active: true,
				MinimumOrderValue: money.Pair{CZK: dec("99999.00")},
			}
		}},
		{"per-customer limit reached", func(d *testDeps) {
			d.coupons.coupons["OLD"] = &coupon.Coupon{
				ID: 8, Code: "OLD", Percentage: true, Value: dec("10"), Active: true,
				UsageLimitPerCustomer: 1,
			}
			d.usage.count = 1
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			deps := newTestDeps()
			tt.setup(deps)

			req := standardRequest()
			req.CouponCode = "OLD"

			o, err := deps.service().Assemble(context.Background(), req)
			require.NoError(t, err, "coupon problems must not abort checkout")
			assert.Nil(t, o.CouponID)
			assert.True(t, o.CouponDiscount.IsZero())
			assert.True(t, o.TotalGross.Equal(dec("2601.50")))
		})
	}
}

func TestAssembleShippingFailureAborts(t *testing.T) {
	t.Parallel()

	deps := newTestDeps()
	deps.shipping.err = errors.New("carrier unreachable")

	_, err := deps.service().Assemble(context.Background(), standardRequest())
	require.Error(t, err)
	assert.Equal(t, KindExternal, KindOf(err))
	assert.Empty(t, deps.orders.created, "nothing may be persisted on abort")
	assert.Equal(t, 0, deps.notifier.confirmations)
}

func TestAssembleValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(r *Request)
		wantKind ErrorKind
	}{
		{"no lines", func(r *Request) { r.Lines = nil }, KindInvalidArgument},
		{"unknown currency", func(r *Request) { r.Currency = "USD" }, KindInvalidArgument},
		{"unknown customer", func(r *Request) { r.CustomerID = 404 }, KindNotFound},
		{"unknown product", func(r *Request) { r.Lines[0].ProductID = 404 }, KindNotFound},
		{"inactive product", func(r *Request) { r.Lines[0].ProductID = 9 }, KindInvalidArgument},
		{"zero quantity", func(r *Request) { r.Lines[0].Quantity = 0 }, KindInvalidArgument},
		{"tax rate not in product's allowed set", func(r *Request) { r.Lines[0].TaxRateID = 99 }, KindInvalidArgument},
		{"unknown attribute", func(r *Request) { r.Lines[0].GlazeID = 404 }, KindInvalidArgument},
		{"custom flag on plain product", func(r *Request) { r.Lines[0].Custom = true }, KindInvalidArgument},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			deps := newTestDeps()
			req := standardRequest()
			tt.mutate(&req)

			_, err := deps.service().Assemble(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, KindOf(err))
			assert.Empty(t, deps.orders.created)
		})
	}
}

func TestAssembleReverseCharge(t *testing.T) {
	t.Parallel()

	deps := newTestDeps()
	req := standardRequest()
	req.ReverseCharge = true

	o, err := deps.service().Assemble(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, o.ItemsTax.IsZero())
	assert.True(t, o.ShippingTax.IsZero())
	assert.True(t, o.TotalTax.IsZero())
	assert.True(t, o.TotalGross.Equal(o.TotalNet))
	assert.True(t, o.Items[0].LineGross.Equal(o.Items[0].LineNet))
}

func TestAssembleDiscountAppliesToBaseOnly(t *testing.T) {
	t.Parallel()

	deps := newTestDeps()
	from := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2035, 1, 1, 0, 0, 0, 0, time.UTC)
	deps.disc.discounts = []discount.Discount{
		{ID: 1, Name: "Summer", Percentage: true, Value: dec("10"), Active: true,
			ValidFrom: &from, ValidTo: &to},
	}

	req := standardRequest()
	req.Lines[0].Quantity = 1
	req.Lines[0].GlazeID = 11

	o, err := deps.service().Assemble(context.Background(), req)
	require.NoError(t, err)

	// Base 1000 discounted to 900, teak glaze surcharge 100 added after.
	require.Len(t, o.Items, 1)
	assert.True(t, o.Items[0].UnitNet.Equal(dec("1000.00")))
	assert.Equal(t, "Teak", o.Items[0].GlazeName)
}

func TestAssembleSkipsInvalidAddon(t *testing.T) {
	t.Parallel()

	deps := newTestDeps()
	zero := decimal.Zero
	req := Request{
		CustomerID:    42,
		Currency:      money.CZK,
		PaymentMethod: PaymentBankTransfer,
		ShippingNet:   &zero,
		ShippingTax:   &zero,
		Lines: []LineRequest{{
			ProductID: 7, Quantity: 1, TaxRateID: 1, Custom: true,
			Dimensions: product.Dimensions{
				Length: dec("100"), Width: dec("50"), Height: dec("50"),
			},
			Addons: []AddonRequest{
				{AddonID: 1, Quantity: 2},
				{AddonID: 99, Quantity: 1},
			},
		}},
	}

	o, err := deps.service().Assemble(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, o.Items, 1)
	item := o.Items[0]
	require.Len(t, item.Addons, 1, "unknown addon is skipped, not fatal")
	assert.Equal(t, "Name plate", item.Addons[0].Name)
	assert.True(t, item.Addons[0].LineNet.Equal(dec("500.00")))
	// 2000 dimension price + 500 addons.
	assert.True(t, item.UnitNet.Equal(dec("2500.00")))
}

func TestAssembleGuestCheckout(t *testing.T) {
	t.Parallel()

	deps := newTestDeps()
	req := standardRequest()
	req.CustomerID = 0
	req.Guest = &customer.Customer{
		Email: "guest@example.com", Name: "Eva Malá",
		BillingAddress: customer.Address{
			Street: "Krátká 1", City: "Brno", Zip: "60200", Country: "CZ",
		},
	}

	o, err := deps.service().Assemble(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, o.CustomerID)
	assert.Equal(t, "Eva Malá", o.InvoiceAddress.Name)

	t.Run("incomplete guest address rejected", func(t *testing.T) {
		req := standardRequest()
		req.CustomerID = 0
		req.Guest = &customer.Customer{Email: "guest@example.com", Name: "Eva Malá"}

		_, err := newTestDeps().service().Assemble(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, KindInvalidArgument, KindOf(err))
	})
}

func TestAssembleSideEffectFailuresSwallowed(t *testing.T) {
	t.Parallel()

	deps := newTestDeps()
	deps.notifier.err = errors.New("smtp down")
	deps.invoicer.err = errors.New("invoicing down")

	o, err := deps.service().Assemble(context.Background(), standardRequest())
	require.NoError(t, err, "side effects never fail a committed order")
	require.NotNil(t, o)
	require.Len(t, deps.orders.created, 1)
}

func TestServiceMarkDepositPaid(t *testing.T) {
	t.Parallel()

	deps := newTestDeps()
	id := uuid.New()
	deps.orders.stored[id] = &Order{
		ID:            id,
		PaymentStatus: StatusAwaitingDeposit,
		DepositAmount: dec("5000.50"),
	}

	svc := deps.service()
	o, err := svc.MarkDepositPaid(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusDepositPaid, o.PaymentStatus)
	assert.Equal(t, StatusDepositPaid, deps.orders.updated[id])

	_, err = svc.MarkDepositPaid(context.Background(), id)
	require.Error(t, err)
	assert.Equal(t, KindInvalidState, KindOf(err))
}
