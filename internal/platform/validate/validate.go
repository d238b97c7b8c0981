// Package validate wraps go-playground/validator with the back-office field rules.
package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/HenriqueProj/Web-App-BD/internal/shared"
)

// AddressPattern accepts "Street [number] NNNN-NNN City". Street and city may use any
// letter, so accented names such as "Rua São Bento" match.
var AddressPattern = regexp.MustCompile(`^[\p{L}\p{M}\p{N}_\s]+(?: \d+)? \d{4}-\d{3} [\p{L}\p{M}\p{N}_\s]+$`)

var phonePattern = regexp.MustCompile(`^[0-9]{9}$`)

// Validator checks tagged structs and reports the first failing field.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator with the custom tags registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("phone9", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("postal_address", func(fl validator.FieldLevel) bool {
		return AddressPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("numeric_text", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
		return err == nil && !d.IsNegative()
	})
	_ = v.RegisterValidation("not_numeric", func(fl validator.FieldLevel) bool {
		return !IsDigits(fl.Field().String())
	})
	_ = v.RegisterValidation("iso_date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(time.DateOnly, fl.Field().String())
		return err == nil
	})
	return &Validator{v: v}
}

// Messages maps "field.tag" to the text shown to operators. Missing entries fall back
// to a generic message naming the field.
type Messages map[string]string

// Struct validates s. Fields are checked in declaration order and the first failure
// becomes a *shared.ValidationError carrying the matching message.
func (val *Validator) Struct(s any, messages Messages) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	first := fieldErrs[0]
	field := first.Field()
	if msg, ok := messages[field+"."+first.Tag()]; ok {
		return shared.NewValidationError(field, msg)
	}
	return shared.NewValidationError(field, field+" is invalid.")
}

// IsDigits reports whether s is a non-empty run of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
