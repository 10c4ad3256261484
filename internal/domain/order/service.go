package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mirsvobo/eshop/internal/domain/coupon"
	"github.com/mirsvobo/eshop/internal/domain/customer"
	"github.com/mirsvobo/eshop/internal/domain/discount"
	"github.com/mirsvobo/eshop/internal/domain/product"
	"github.com/mirsvobo/eshop/internal/money"
)

// AddonRequest selects one addon for a customisable line.
type AddonRequest struct {
	AddonID  int64
	Quantity int
}

// LineRequest describes one requested order line. Custom lines carry
// dimensions, options, and addon selections; standard lines only the
// attribute choices.
type LineRequest struct {
	ProductID int64
	Quantity  int
	TaxRateID int64
	Custom    bool

	DesignID    int64
	GlazeID     int64
	RoofColorID int64

	Dimensions   product.Dimensions
	Options      product.Options
	RoofOverstep string
	Addons       []AddonRequest
}

// Request is the full checkout input for one order.
type Request struct {
	// CustomerID identifies a registered buyer. Zero with a non-nil Guest
	// means anonymous checkout.
	CustomerID int64
	Guest      *customer.Customer

	Currency      money.Currency
	Lines         []LineRequest
	PaymentMethod PaymentMethod
	CouponCode    string

	// ReverseCharge is the checkout-time flag set by the caller. It is the
	// only source of the reverse-charge decision.
	ReverseCharge bool

	// ShippingNet and ShippingTax, when both are set and non-negative, are
	// used as-is instead of calling the shipping collaborator.
	ShippingNet *decimal.Decimal
	ShippingTax *decimal.Decimal

	Note string
}

// Service assembles orders.
type Service struct {
	products  product.Repository
	discounts *discount.Evaluator
	coupons   *coupon.Validator
	customers customer.Repository
	orders    Repository
	shipping  ShippingService
	payment   PaymentService
	notifier  Notifier
	invoicer  Invoicer

	now func() time.Time
}

// NewService wires the assembly dependencies.
func NewService(
	products product.Repository,
	discounts *discount.Evaluator,
	coupons *coupon.Validator,
	customers customer.Repository,
	orders Repository,
	shipping ShippingService,
	payment PaymentService,
	notifier Notifier,
	invoicer Invoicer,
) *Service {
	return &Service{
		products:  products,
		discounts: discounts,
		coupons:   coupons,
		customers: customers,
		orders:    orders,
		shipping:  shipping,
		payment:   payment,
		notifier:  notifier,
		invoicer:  invoicer,
		now:       time.Now,
	}
}

// Assemble prices and persists one order. Every step before persistence
// aborts the whole order on failure; nothing partial is written. Post-commit
// side effects are best-effort.
func (s *Service) Assemble(ctx context.Context, req Request) (*Order, error) {
	lg := zctx.From(ctx)

	if len(req.Lines) == 0 {
		return nil, errInvalidArgument("order has no lines")
	}
	if !req.Currency.Known() {
		return nil, errInvalidArgument("unknown currency %q", req.Currency)
	}

	cust, err := s.resolveCustomer(ctx, req)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:            uuid.New(),
		CreatedAt:     s.now(),
		Currency:      req.Currency,
		PaymentMethod: req.PaymentMethod,
		ReverseCharge: req.ReverseCharge,
		Note:          req.Note,
	}
	if req.CustomerID != 0 {
		id := req.CustomerID
		o.CustomerID = &id
	}
	o.InvoiceAddress, o.DeliveryAddress = snapshotAddresses(cust)

	subtotalNet := decimal.Zero
	itemsTax := decimal.Zero
	for i, lr := range req.Lines {
		item, err := s.buildItem(ctx, lr, req.Currency, req.ReverseCharge)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", i)
		}
		o.Items = append(o.Items, *item)
		subtotalNet = subtotalNet.Add(item.LineNet)
		itemsTax = itemsTax.Add(item.LineTax)
	}
	o.SubtotalNet = subtotalNet
	o.ItemsTax = itemsTax

	s.applyCoupon(ctx, o, req, lg)

	if err := s.applyShipping(ctx, o, req, lg); err != nil {
		return nil, err
	}

	netAfterDiscount := money.ClampZero(o.SubtotalNet.Sub(o.CouponDiscount))
	o.TotalNet = netAfterDiscount.Add(o.ShippingNet)
	o.TotalTax = o.ItemsTax.Add(o.ShippingTax)
	o.TotalGross = o.TotalNet.Add(o.TotalTax)
	o.TotalRounded = money.RoundDownWhole(o.TotalGross)

	o.PaymentStatus = s.payment.InitialStatus(req.PaymentMethod, o.HasCustomItem())
	if o.HasCustomItem() {
		deposit := s.payment.Deposit(o.TotalRounded)
		if deposit.IsPositive() {
			// Custom-order deposit policy overrides the payment-method default.
			o.DepositAmount = deposit
			o.PaymentStatus = StatusAwaitingDeposit
		}
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errInternal(err, "persist order")
	}

	s.runSideEffects(ctx, o, lg)

	return o, nil
}

func (s *Service) resolveCustomer(ctx context.Context, req Request) (*customer.Customer, error) {
	var cust *customer.Customer
	switch {
	case req.CustomerID != 0:
		c, err := s.customers.GetByID(ctx, req.CustomerID)
		if err != nil {
			if errors.Is(err, customer.ErrNotFound) {
				return nil, errNotFound(err, "customer %d", req.CustomerID)
			}
			return nil, errInternal(err, "load customer %d", req.CustomerID)
		}
		cust = c
	case req.Guest != nil:
		cust = req.Guest
	default:
		return nil, errInvalidArgument("neither customer id nor guest details supplied")
	}

	if !cust.HasSufficientAddress() {
		return nil, errInvalidArgument("customer address data is incomplete")
	}
	return cust, nil
}

func snapshotAddresses(cust *customer.Customer) (invoice, delivery Address) {
	invoice = Address{
		Name:        cust.Name,
		Email:       cust.Email,
		Phone:       cust.Phone,
		Street:      cust.BillingAddress.Street,
		City:        cust.BillingAddress.City,
		Zip:         cust.BillingAddress.Zip,
		Country:     cust.BillingAddress.Country,
		CompanyName: cust.CompanyName,
		CompanyID:   cust.CompanyID,
		VATID:       cust.VATID,
	}

	ship := cust.ShippingAddress()
	delivery = Address{
		Name:    cust.Name,
		Email:   cust.Email,
		Phone:   cust.Phone,
		Street:  ship.Street,
		City:    ship.City,
		Zip:     ship.Zip,
		Country: ship.Country,
	}
	return invoice, delivery
}

func (s *Service) buildItem(ctx context.Context, lr LineRequest, cur money.Currency, reverseCharge bool) (*Item, error) {
	if lr.Quantity <= 0 {
		return nil, errInvalidArgument("quantity must be positive")
	}

	p, err := s.products.GetByID(ctx, lr.ProductID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, errNotFound(err, "product %d", lr.ProductID)
		}
		return nil, errInternal(err, "load product %d", lr.ProductID)
	}
	if !p.Active {
		return nil, errInvalidArgument("product %d is not available for purchase", p.ID)
	}

	rate, ok := p.TaxRateByID(lr.TaxRateID)
	if !ok {
		return nil, errInvalidArgument("tax rate %d is not allowed for product %d", lr.TaxRateID, p.ID)
	}

	item := &Item{
		ProductID:     p.ID,
		Name:          p.Name,
		Quantity:      lr.Quantity,
		Custom:        lr.Custom,
		TaxRateID:     rate.ID,
		TaxRate:       rate.Rate,
		ReverseCharge: reverseCharge,
	}

	var base decimal.Decimal
	if lr.Custom {
		if p.Configurator == nil {
			return nil, errInvalidArgument("product %d cannot be customised", p.ID)
		}
		base, err = p.Configurator.BasePrice(lr.Dimensions, lr.Options, cur)
		if err != nil {
			if errors.Is(err, product.ErrDimensionOutOfRange) {
				return nil, errInvalidArgument("product %d: %s", p.ID, err)
			}
			return nil, errInternal(err, "configurator price for product %d", p.ID)
		}
		item.SKU = fmt.Sprintf("CUSTOM-%d", p.ID)
		item.Length = lr.Dimensions.Length
		item.Width = lr.Dimensions.Width
		item.Height = lr.Dimensions.Height
		item.RoofOverstep = lr.RoofOverstep
		item.HasDivider = lr.Options.HasDivider
		item.HasGutter = lr.Options.HasGutter
		item.HasGardenShed = lr.Options.HasGardenShed
	} else {
		base, err = p.CatalogPrice(cur)
		if err != nil {
			return nil, errInternal(err, "catalog price for product %d", p.ID)
		}
		item.SKU = p.Slug
	}

	// Catalog discount applies to the base component only. Surcharges and
	// addons are added after discounting.
	discounted, err := s.discounts.BestPrice(ctx, p.ID, base, cur)
	if err != nil {
		return nil, errInternal(err, "catalog discount for product %d", p.ID)
	}

	surcharges, err := s.applyAttributes(ctx, item, lr, cur)
	if err != nil {
		return nil, err
	}

	addonsPerUnit, err := s.applyAddons(ctx, item, p, lr, cur)
	if err != nil {
		return nil, err
	}

	item.Variant = variantText(item)

	unitNet := money.Round(discounted.Add(surcharges).Add(addonsPerUnit))
	bd := RecalculateTax(unitNet, item.Quantity, rate.Rate, reverseCharge)
	item.UnitNet = bd.UnitNet
	item.UnitTax = bd.UnitTax
	item.UnitGross = bd.UnitGross
	item.LineNet = bd.LineNet
	item.LineTax = bd.LineTax
	item.LineGross = bd.LineGross

	return item, nil
}

func (s *Service) applyAttributes(ctx context.Context, item *Item, lr LineRequest, cur money.Currency) (decimal.Decimal, error) {
	total := decimal.Zero

	type choice struct {
		kind product.AttributeKind
		id   int64
		name *string
	}
	choices := []choice{
		{product.AttributeDesign, lr.DesignID, &item.DesignName},
		{product.AttributeGlaze, lr.GlazeID, &item.GlazeName},
		{product.AttributeRoofColor, lr.RoofColorID, &item.RoofColorName},
	}
	for _, ch := range choices {
		if ch.id == 0 {
			continue
		}
		attr, err := s.products.GetAttribute(ctx, ch.kind, ch.id)
		if err != nil {
			return decimal.Zero, errInvalidArgument("unknown %s attribute %d", ch.kind, ch.id)
		}
		if !attr.Active {
			return decimal.Zero, errInvalidArgument("%s attribute %d is no longer offered", ch.kind, ch.id)
		}
		*ch.name = attr.Name
		total = total.Add(attr.Surcharge.For(cur))
	}
	return total, nil
}

// applyAddons resolves the selected addons, skipping invalid ones with a
// warning instead of failing the line, and returns the per-unit addon total.
func (s *Service) applyAddons(ctx context.Context, item *Item, p *product.Product, lr LineRequest, cur money.Currency) (decimal.Decimal, error) {
	if !lr.Custom || len(lr.Addons) == 0 {
		return decimal.Zero, nil
	}
	lg := zctx.From(ctx)

	ids := make([]int64, 0, len(lr.Addons))
	for _, ar := range lr.Addons {
		ids = append(ids, ar.AddonID)
	}
	addons, err := s.products.GetAddonsByIDs(ctx, ids)
	if err != nil {
		return decimal.Zero, errInternal(err, "load addons for product %d", p.ID)
	}
	byID := make(map[int64]product.Addon, len(addons))
	for _, a := range addons {
		byID[a.ID] = a
	}

	total := decimal.Zero
	for _, ar := range lr.Addons {
		if ar.Quantity <= 0 {
			continue
		}
		a, ok := byID[ar.AddonID]
		if !ok || !a.Active || !p.AllowsAddon(ar.AddonID) {
			lg.Warn("Skipping invalid addon selection",
				zap.Int64("product_id", p.ID),
				zap.Int64("addon_id", ar.AddonID))
			continue
		}
		unit := money.Round(a.Price.For(cur))
		lineNet := unit.Mul(decimal.NewFromInt(int64(ar.Quantity)))
		item.Addons = append(item.Addons, ItemAddon{
			AddonID:  a.ID,
			Name:     a.Name,
			Quantity: ar.Quantity,
			UnitNet:  unit,
			LineNet:  lineNet,
		})
		total = total.Add(lineNet)
	}
	return total, nil
}

func variantText(item *Item) string {
	var parts []string
	if item.Custom {
		parts = append(parts, fmt.Sprintf("%s × %s × %s cm",
			item.Length, item.Width, item.Height))
	}
	if item.DesignName != "" {
		parts = append(parts, "design "+item.DesignName)
	}
	if item.GlazeName != "" {
		parts = append(parts, "glaze "+item.GlazeName)
	}
	if item.RoofColorName != "" {
		parts = append(parts, "roof "+item.RoofColorName)
	}
	if item.RoofOverstep != "" {
		parts = append(parts, "overstep "+item.RoofOverstep)
	}
	if item.HasDivider {
		parts = append(parts, "divider")
	}
	if item.HasGutter {
		parts = append(parts, "gutter")
	}
	if item.HasGardenShed {
		parts = append(parts, "garden shed")
	}
	return strings.Join(parts, ", ")
}

// applyCoupon runs the full evaluation chain. Coupon problems are never
// fatal to checkout: any failure drops the coupon and leaves the discount at
// zero.
func (s *Service) applyCoupon(ctx context.Context, o *Order, req Request, lg *zap.Logger) {
	o.CouponDiscount = decimal.Zero
	if req.CouponCode == "" {
		return
	}

	c, err := s.coupons.FindByCode(ctx, req.CouponCode)
	if err != nil {
		lg.Warn("Dropping coupon: lookup failed",
			zap.String("code", req.CouponCode), zap.Error(err))
		return
	}
	if !s.coupons.GenerallyValid(c) {
		lg.Info("Dropping coupon: not valid", zap.String("code", c.Code))
		return
	}
	if !c.MeetsMinimumOrderValue(o.SubtotalNet, o.Currency) {
		lg.Info("Dropping coupon: minimum order value not met", zap.String("code", c.Code))
		return
	}
	var customerID int64
	if o.CustomerID != nil {
		customerID = *o.CustomerID
	}
	ok, err := s.coupons.WithinCustomerLimit(ctx, customerID, o.CustomerID == nil, c)
	if err != nil {
		lg.Warn("Dropping coupon: usage check failed",
			zap.String("code", c.Code), zap.Error(err))
		return
	}
	if !ok {
		lg.Info("Dropping coupon: per-customer limit reached", zap.String("code", c.Code))
		return
	}

	o.CouponID = &c.ID
	o.CouponCode = c.Code
	o.CouponDiscount = s.coupons.DiscountAmount(ctx, c, o.SubtotalNet, o.Currency)
	o.FreeShipping = c.FreeShipping
}

// applyShipping fills the shipping fields. An unresolvable shipping cost
// aborts the order; shipping is mandatory for physical goods.
func (s *Service) applyShipping(ctx context.Context, o *Order, req Request, lg *zap.Logger) error {
	o.ShippingTaxRate = s.shipping.TaxRate()

	if o.FreeShipping {
		o.ShippingNet = decimal.Zero
		o.ShippingTax = decimal.Zero
		if list, err := s.shipping.Cost(ctx, o.Currency, o.SubtotalNet); err == nil {
			o.ShippingListNet = list
		} else {
			lg.Warn("Could not price waived shipping", zap.Error(err))
		}
		return nil
	}

	if req.ShippingNet != nil && req.ShippingTax != nil &&
		!req.ShippingNet.IsNegative() && !req.ShippingTax.IsNegative() {
		o.ShippingNet = money.Round(*req.ShippingNet)
		o.ShippingTax = money.Round(*req.ShippingTax)
		if req.ReverseCharge {
			o.ShippingTax = decimal.Zero
		}
		return nil
	}

	net, err := s.shipping.Cost(ctx, o.Currency, o.SubtotalNet)
	if err != nil {
		return errExternal(err, "determine shipping cost")
	}
	o.ShippingNet = money.Round(net)
	if req.ReverseCharge {
		o.ShippingTax = decimal.Zero
	} else {
		o.ShippingTax = money.Round(o.ShippingNet.Mul(o.ShippingTaxRate))
	}
	return nil
}

// runSideEffects fires the post-commit notifications. Each failure is logged
// and swallowed; the committed order is never affected.
func (s *Service) runSideEffects(ctx context.Context, o *Order, lg *zap.Logger) {
	if err := s.notifier.OrderConfirmation(ctx, o); err != nil {
		lg.Warn("Order confirmation failed",
			zap.Stringer("order_id", o.ID), zap.Error(err))
	}
	if err := s.notifier.AdminNewOrder(ctx, o); err != nil {
		lg.Warn("Admin notification failed",
			zap.Stringer("order_id", o.ID), zap.Error(err))
	}
	if o.DepositAmount.IsPositive() {
		if err := s.invoicer.IssueProformaDeposit(ctx, o); err != nil {
			lg.Warn("Proforma deposit invoice failed",
				zap.Stringer("order_id", o.ID), zap.Error(err))
		}
	}
}

// MarkDepositPaid records an incoming deposit payment. Paying a deposit
// twice, or on an order that never required one, is an invalid state.
func (s *Service) MarkDepositPaid(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, errNotFound(err, "order %s", id)
	}
	if err := o.MarkDepositPaid(); err != nil {
		return nil, err
	}
	if err := s.orders.UpdatePaymentStatus(ctx, o.ID, o.PaymentStatus); err != nil {
		return nil, errInternal(err, "update payment status for order %s", id)
	}
	return o, nil
}
