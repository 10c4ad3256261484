package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mirsvobo/eshop/internal/domain/order"
	"github.com/mirsvobo/eshop/internal/money"
)

const (
	// nextOrderCodeSQL bumps the single-row counter, keeping it at or above
	// the configured floor. The row lock makes concurrent checkouts take
	// strictly increasing codes.
	nextOrderCodeSQL = `UPDATE order_code_counter
		SET value = GREATEST(value + 1, $1) RETURNING value`

	insertOrderSQL = `INSERT INTO orders (id, code, created_at, currency, customer_id,
		invoice_name, invoice_email, invoice_phone, invoice_street, invoice_city,
		invoice_zip, invoice_country, invoice_company_name, invoice_company_id, invoice_vat_id,
		delivery_name, delivery_email, delivery_phone, delivery_street, delivery_city,
		delivery_zip, delivery_country,
		subtotal_net, items_tax, coupon_id, coupon_code, coupon_discount, free_shipping,
		shipping_net, shipping_tax_rate, shipping_tax, shipping_list_net,
		total_net, total_tax, total_gross, total_rounded,
		payment_method, payment_status, deposit_amount, reverse_charge, note)
		VALUES ($1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22,
			$23, $24, $25, $26, $27, $28,
			$29, $30, $31, $32,
			$33, $34, $35, $36,
			$37, $38, $39, $40, $41)`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, product_id, sku, name, variant,
		quantity, custom, tax_rate_id, tax_rate, reverse_charge,
		unit_net, unit_tax, unit_gross, line_net, line_tax, line_gross,
		length, width, height, roof_overstep, has_divider, has_gutter, has_garden_shed,
		design_name, glaze_name, roof_color_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
		RETURNING id`

	insertOrderItemAddonSQL = `INSERT INTO order_item_addons (order_item_id, addon_id, name,
		quantity, unit_net, line_net)
		VALUES ($1, $2, $3, $4, $5, $6)`

	getOrderByIDSQL = `SELECT id, code, created_at, currency, customer_id,
		invoice_name, invoice_email, invoice_phone, invoice_street, invoice_city,
		invoice_zip, invoice_country, invoice_company_name, invoice_company_id, invoice_vat_id,
		delivery_name, delivery_email, delivery_phone, delivery_street, delivery_city,
		delivery_zip, delivery_country,
		subtotal_net, items_tax, coupon_id, coupon_code, coupon_discount, free_shipping,
		shipping_net, shipping_tax_rate, shipping_tax, shipping_list_net,
		total_net, total_tax, total_gross, total_rounded,
		payment_method, payment_status, deposit_amount, reverse_charge, note
		FROM orders WHERE id = $1`

	getOrderItemsSQL = `SELECT id, product_id, sku, name, variant,
		quantity, custom, tax_rate_id, tax_rate, reverse_charge,
		unit_net, unit_tax, unit_gross, line_net, line_tax, line_gross,
		length, width, height, roof_overstep, has_divider, has_gutter, has_garden_shed,
		design_name, glaze_name, roof_color_name
		FROM order_items WHERE order_id = $1 ORDER BY id`

	getOrderItemAddonsSQL = `SELECT order_item_id, addon_id, name, quantity, unit_net, line_net
		FROM order_item_addons WHERE order_item_id = ANY($1) ORDER BY id`

	updateOrderPaymentStatusSQL = `UPDATE orders SET payment_status = $2 WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
	// codeFloor is the lowest order code ever handed out. Keeps the numbering
	// continuous with the pre-migration order history.
	codeFloor int64
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
// Codes never go below codeFloor.
func NewOrderRepository(pool *pgxpool.Pool, codeFloor int64) *OrderRepository {
	return &OrderRepository{pool: pool, codeFloor: codeFloor}
}

// Create persists the order in one transaction: it assigns the next order
// code, writes the order with its items and addons, and increments the
// applied coupon's usage counter. Either everything commits or nothing does.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning order transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := tx.QueryRow(ctx, nextOrderCodeSQL, r.codeFloor).Scan(&o.Code); err != nil {
		return fmt.Errorf("assigning order code: %w", err)
	}

	_, err = tx.Exec(ctx, insertOrderSQL,
		o.ID, o.Code, o.CreatedAt, string(o.Currency), o.CustomerID,
		o.InvoiceAddress.Name, o.InvoiceAddress.Email, o.InvoiceAddress.Phone,
		o.InvoiceAddress.Street, o.InvoiceAddress.City, o.InvoiceAddress.Zip,
		o.InvoiceAddress.Country, o.InvoiceAddress.CompanyName,
		o.InvoiceAddress.CompanyID, o.InvoiceAddress.VATID,
		o.DeliveryAddress.Name, o.DeliveryAddress.Email, o.DeliveryAddress.Phone,
		o.DeliveryAddress.Street, o.DeliveryAddress.City, o.DeliveryAddress.Zip,
		o.DeliveryAddress.Country,
		o.SubtotalNet, o.ItemsTax, o.CouponID, o.CouponCode, o.CouponDiscount, o.FreeShipping,
		o.ShippingNet, o.ShippingTaxRate, o.ShippingTax, o.ShippingListNet,
		o.TotalNet, o.TotalTax, o.TotalGross, o.TotalRounded,
		string(o.PaymentMethod), string(o.PaymentStatus), o.DepositAmount, o.ReverseCharge, o.Note,
	)
	if err != nil {
		return fmt.Errorf("creating order %s: %w", o.ID, err)
	}

	for i := range o.Items {
		it := &o.Items[i]
		var itemID int64
		err := tx.QueryRow(ctx, insertOrderItemSQL,
			o.ID, it.ProductID, it.SKU, it.Name, it.Variant,
			it.Quantity, it.Custom, it.TaxRateID, it.TaxRate, it.ReverseCharge,
			it.UnitNet, it.UnitTax, it.UnitGross, it.LineNet, it.LineTax, it.LineGross,
			it.Length, it.Width, it.Height, it.RoofOverstep,
			it.HasDivider, it.HasGutter, it.HasGardenShed,
			it.DesignName, it.GlazeName, it.RoofColorName,
		).Scan(&itemID)
		if err != nil {
			return fmt.Errorf("creating order item %d of order %s: %w", i, o.ID, err)
		}

		for _, a := range it.Addons {
			_, err := tx.Exec(ctx, insertOrderItemAddonSQL,
				itemID, a.AddonID, a.Name, a.Quantity, a.UnitNet, a.LineNet,
			)
			if err != nil {
				return fmt.Errorf("creating addon %d of order item %d: %w", a.AddonID, itemID, err)
			}
		}
	}

	if o.CouponID != nil {
		if _, err := tx.Exec(ctx, incrementCouponUsesSQL, *o.CouponID); err != nil {
			return fmt.Errorf("incrementing uses for coupon %d: %w", *o.CouponID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order %s: %w", o.ID, err)
	}
	return nil
}

// GetByID returns an order with its items and their addons.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %s: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %s not found", id)
		}
		return nil, fmt.Errorf("getting order %s: %w", id, err)
	}

	itemRows, err := r.pool.Query(ctx, getOrderItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting items of order %s: %w", id, err)
	}
	defer itemRows.Close()

	var itemIDs []int64
	itemByID := make(map[int64]int)
	for itemRows.Next() {
		var (
			it     order.Item
			itemID int64
		)
		err := itemRows.Scan(
			&itemID, &it.ProductID, &it.SKU, &it.Name, &it.Variant,
			&it.Quantity, &it.Custom, &it.TaxRateID, &it.TaxRate, &it.ReverseCharge,
			&it.UnitNet, &it.UnitTax, &it.UnitGross, &it.LineNet, &it.LineTax, &it.LineGross,
			&it.Length, &it.Width, &it.Height, &it.RoofOverstep,
			&it.HasDivider, &it.HasGutter, &it.HasGardenShed,
			&it.DesignName, &it.GlazeName, &it.RoofColorName,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning item of order %s: %w", id, err)
		}
		itemIDs = append(itemIDs, itemID)
		itemByID[itemID] = len(o.Items)
		o.Items = append(o.Items, it)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("getting items of order %s: %w", id, err)
	}

	if len(itemIDs) > 0 {
		addonRows, err := r.pool.Query(ctx, getOrderItemAddonsSQL, itemIDs)
		if err != nil {
			return nil, fmt.Errorf("getting item addons of order %s: %w", id, err)
		}
		defer addonRows.Close()

		for addonRows.Next() {
			var (
				itemID int64
				a      order.ItemAddon
			)
			if err := addonRows.Scan(&itemID, &a.AddonID, &a.Name, &a.Quantity, &a.UnitNet, &a.LineNet); err != nil {
				return nil, fmt.Errorf("scanning item addon of order %s: %w", id, err)
			}
			idx := itemByID[itemID]
			o.Items[idx].Addons = append(o.Items[idx].Addons, a)
		}
		if err := addonRows.Err(); err != nil {
			return nil, fmt.Errorf("getting item addons of order %s: %w", id, err)
		}
	}

	return &o, nil
}

// UpdatePaymentStatus sets the order's payment status.
func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status order.PaymentStatus) error {
	tag, err := r.pool.Exec(ctx, updateOrderPaymentStatusSQL, id, string(status))
	if err != nil {
		return fmt.Errorf("updating payment status of order %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %s not found", id)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o             order.Order
		currency      string
		paymentMethod string
		paymentStatus string
	)
	err := row.Scan(
		&o.ID, &o.Code, &o.CreatedAt, &currency, &o.CustomerID,
		&o.InvoiceAddress.Name, &o.InvoiceAddress.Email, &o.InvoiceAddress.Phone,
		&o.InvoiceAddress.Street, &o.InvoiceAddress.City, &o.InvoiceAddress.Zip,
		&o.InvoiceAddress.Country, &o.InvoiceAddress.CompanyName,
		&o.InvoiceAddress.CompanyID, &o.InvoiceAddress.VATID,
		&o.DeliveryAddress.Name, &o.DeliveryAddress.Email, &o.DeliveryAddress.Phone,
		&o.DeliveryAddress.Street, &o.DeliveryAddress.City, &o.DeliveryAddress.Zip,
		&o.DeliveryAddress.Country,
		&o.SubtotalNet, &o.ItemsTax, &o.CouponID, &o.CouponCode, &o.CouponDiscount, &o.FreeShipping,
		&o.ShippingNet, &o.ShippingTaxRate, &o.ShippingTax, &o.ShippingListNet,
		&o.TotalNet, &o.TotalTax, &o.TotalGross, &o.TotalRounded,
		&paymentMethod, &paymentStatus, &o.DepositAmount, &o.ReverseCharge, &o.Note,
	)
	o.Currency = money.Currency(currency)
	o.PaymentMethod = order.PaymentMethod(paymentMethod)
	o.PaymentStatus = order.PaymentStatus(paymentStatus)
	return o, err
}
