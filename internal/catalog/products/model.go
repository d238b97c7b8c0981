package products

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Product is a row of the product table.
type Product struct {
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	EAN         *string         `json:"ean"`
}

// AddProductInput carries the add-product form.
type AddProductInput struct {
	SKU         string `form:"sku" validate:"required"`
	Name        string `form:"name" validate:"required"`
	Description string `form:"description"`
	Price       string `form:"price" validate:"omitempty,numeric_text"`
	EAN         string `form:"ean"`
}

// EditProductInput carries the price and description form.
type EditProductInput struct {
	Price       string `form:"price" validate:"required,numeric_text"`
	Description string `form:"description" validate:"omitempty,not_numeric"`
}

// maxPrice is the first value NUMERIC(10,2) cannot hold.
var maxPrice = decimal.New(1, 8)

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
