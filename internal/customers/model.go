package customers

import (
	"fmt"
	"strings"
)

// Customer is a row of the customer table.
type Customer struct {
	CustNo  int64   `json:"cust_no"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// AddCustomerInput carries the add-customer form.
type AddCustomerInput struct {
	Name    string `form:"name" validate:"required"`
	Email   string `form:"email" validate:"required,email"`
	Phone   string `form:"phone" validate:"omitempty,phone9"`
	Address string `form:"address" validate:"omitempty,postal_address"`
}

// CustomerAnonymizedEvent is emitted after a customer's identity is masked.
type CustomerAnonymizedEvent struct {
	CustNo int64
}

const (
	maskedNamePrefix  = "NAME"
	maskedEmailPrefix = "X"
)

// MaskedName formats the n-th anonymized name, NAME0000000001 for n=1.
func MaskedName(n int64) string {
	return fmt.Sprintf("%s%010d", maskedNamePrefix, n)
}

// MaskedEmail formats the n-th anonymized email, X000001 for n=1.
func MaskedEmail(n int64) string {
	return fmt.Sprintf("%s%06d", maskedEmailPrefix, n)
}

// IsActive reports whether c still carries a real identity.
func (c Customer) IsActive() bool {
	return !strings.HasPrefix(c.Name, maskedNamePrefix) && !strings.HasPrefix(c.Email, maskedEmailPrefix)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
