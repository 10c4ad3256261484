package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mirsvobo/eshop/internal/domain/customer"
)

const getCustomerByIDSQL = `SELECT id, email, name, phone,
	billing_street, billing_city, billing_zip, billing_country,
	delivery_street, delivery_city, delivery_zip, delivery_country,
	company_name, company_id, vat_id
	FROM customers WHERE id = $1`

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// GetByID returns a single customer by its identifier.
func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*customer.Customer, error) {
	rows, err := r.pool.Query(ctx, getCustomerByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting customer %d: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("getting customer %d: %w", id, err)
	}
	return &c, nil
}

func scanCustomer(row pgx.CollectableRow) (customer.Customer, error) {
	var (
		c                                        customer.Customer
		phone                                    *string
		dStreet, dCity, dZip, dCountry           *string
		companyName, companyID, vatID            *string
	)
	err := row.Scan(
		&c.ID, &c.Email, &c.Name, &phone,
		&c.BillingAddress.Street, &c.BillingAddress.City,
		&c.BillingAddress.Zip, &c.BillingAddress.Country,
		&dStreet, &dCity, &dZip, &dCountry,
		&companyName, &companyID, &vatID,
	)
	if err != nil {
		return c, err
	}

	if phone != nil {
		c.Phone = *phone
	}
	if dStreet != nil && dCity != nil && dZip != nil && dCountry != nil {
		c.DeliveryAddress = &customer.Address{
			Street: *dStreet, City: *dCity, Zip: *dZip, Country: *dCountry,
		}
	}
	if companyName != nil {
		c.CompanyName = *companyName
	}
	if companyID != nil {
		c.CompanyID = *companyID
	}
	if vatID != nil {
		c.VATID = *vatID
	}
	return c, nil
}
