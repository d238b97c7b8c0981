package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HenriqueProj/Web-App-BD/internal/shared"
)

type sample struct {
	Name    string `form:"name" validate:"required"`
	Phone   string `form:"phone" validate:"omitempty,phone9"`
	Address string `form:"address" validate:"omitempty,postal_address"`
	Price   string `form:"price" validate:"omitempty,numeric_text"`
	Notes   string `form:"notes" validate:"omitempty,not_numeric"`
	Date    string `form:"date" validate:"omitempty,iso_date"`
}

var sampleMessages = Messages{
	"name.required":          "Name is required.",
	"phone.phone9":           "Phone number must have 9 numeric digits",
	"address.postal_address": "Address format is invalid",
}

func TestStructFirstFailureWins(t *testing.T) {
	v := New()
	err := v.Struct(sample{Phone: "12", Address: "nope"}, sampleMessages)
	var vErr *shared.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "name", vErr.Field)
	assert.Equal(t, "Name is required.", vErr.Message)

	err = v.Struct(sample{Name: "Ana", Phone: "12345678a", Address: "nope"}, sampleMessages)
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "Phone number must have 9 numeric digits", vErr.Message)
}

func TestCustomTags(t *testing.T) {
	v := New()
	ok := sample{
		Name:    "Ana",
		Phone:   "912345678",
		Address: "Rua Augusta 12 1100-053 Lisboa",
		Price:   "5.00",
		Notes:   "blue ink",
		Date:    "2024-01-31",
	}
	assert.NoError(t, v.Struct(ok, nil))

	bad := []sample{
		{Name: "Ana", Address: "Rua Augusta Lisboa"},
		{Name: "Ana", Price: "-1"},
		{Name: "Ana", Price: "abc"},
		{Name: "Ana", Notes: "12345"},
		{Name: "Ana", Date: "31/01/2024"},
	}
	for _, s := range bad {
		err := v.Struct(s, nil)
		assert.ErrorIs(t, err, shared.ErrValidation, "%+v", s)
	}
}

func TestAddressPattern(t *testing.T) {
	assert.True(t, AddressPattern.MatchString("Rua Augusta 1100-053 Lisboa"))
	assert.True(t, AddressPattern.MatchString("Rua Augusta 12 1100-053 Lisboa"))
	assert.False(t, AddressPattern.MatchString("Rua Augusta 1100053 Lisboa"))

	assert.True(t, AddressPattern.MatchString("Rua São Bento 10 1000-100 Lisboa"))
	assert.True(t, AddressPattern.MatchString("Avenida da República 5 1050-187 Lisboa"))
	assert.True(t, AddressPattern.MatchString("Largo do Município 1100-365 Évora"))
	assert.False(t, AddressPattern.MatchString("Rua São Bento, 10 1000-100 Lisboa"))
}

func TestIsDigits(t *testing.T) {
	assert.True(t, IsDigits("007"))
	assert.False(t, IsDigits(""))
	assert.False(t, IsDigits("-1"))
	assert.False(t, IsDigits("1.5"))
}
