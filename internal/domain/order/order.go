// Package order renders cart contents into an order transcript and hands
// it off to an outbound channel.
package order

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for checkout validation. They are returned wrapped in a
// *ValidationError.
var (
	ErrNameRequired    = errors.New("name required")
	ErrPaymentRequired = errors.New("payment method required")
	ErrPaymentUnknown  = errors.New("payment method not accepted")
	ErrEmptyCart       = errors.New("cart is empty")
)

// ValidationError indicates user-correctable checkout input.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Customer holds the fields entered at checkout.
type Customer struct {
	Name    string
	Phone   string
	Address string
	Payment string
}

// Normalize returns c with surrounding whitespace trimmed from every field.
func (c Customer) Normalize() Customer {
	return Customer{
		Name:    strings.TrimSpace(c.Name),
		Phone:   strings.TrimSpace(c.Phone),
		Address: strings.TrimSpace(c.Address),
		Payment: strings.TrimSpace(c.Payment),
	}
}

// Validate checks the required fields of a normalized customer.
func (c Customer) Validate() error {
	if c.Name == "" {
		return &ValidationError{Field: "name", Err: ErrNameRequired}
	}
	if c.Payment == "" {
		return &ValidationError{Field: "payment", Err: ErrPaymentRequired}
	}
	return nil
}

// Summary is a rendered order ready for hand-off.
type Summary struct {
	Text        string
	Destination string
	Total       decimal.Decimal
	ItemCount   int
}
