// Package customer holds the buyer model referenced by carts and orders.
package customer

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no customer exists for the given id.
var ErrNotFound = errors.New("customer not found")

// Address is a postal address snapshot source. Orders copy these fields at
// checkout so later edits to the customer do not rewrite history.
type Address struct {
	Street  string
	City    string
	Zip     string
	Country string
}

// Complete reports whether every field needed for delivery is filled.
func (a Address) Complete() bool {
	return a.Street != "" && a.City != "" && a.Zip != "" && a.Country != ""
}

// Customer is a registered buyer. Company fields are empty for consumers.
type Customer struct {
	ID    int64
	Email string
	Name  string
	Phone string

	BillingAddress  Address
	DeliveryAddress *Address

	CompanyName string
	CompanyID   string
	VATID       string
}

// IsCompany reports whether the customer checked out as a business.
func (c *Customer) IsCompany() bool {
	return c.CompanyID != "" || c.VATID != ""
}

// ShippingAddress returns the delivery address when one is set, otherwise
// the billing address.
func (c *Customer) ShippingAddress() Address {
	if c.DeliveryAddress != nil {
		return *c.DeliveryAddress
	}
	return c.BillingAddress
}

// HasSufficientAddress reports whether the customer can be invoiced and
// shipped to: contact details plus a complete billing address, and a
// complete delivery address when a separate one is set.
func (c *Customer) HasSufficientAddress() bool {
	if c.Email == "" || c.Name == "" {
		return false
	}
	if !c.BillingAddress.Complete() {
		return false
	}
	if c.DeliveryAddress != nil && !c.DeliveryAddress.Complete() {
		return false
	}
	return true
}

// Repository loads customers from storage.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Customer, error)
}
