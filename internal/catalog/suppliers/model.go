package suppliers

import "time"

// Supplier is a row of the supplier table.
type Supplier struct {
	TIN     string     `json:"tin"`
	Name    *string    `json:"name"`
	Address *string    `json:"address"`
	SKU     *string    `json:"sku"`
	Date    *time.Time `json:"date"`
}

// AddSupplierInput carries the add-supplier form.
type AddSupplierInput struct {
	TIN     string `form:"tin" validate:"required"`
	Name    string `form:"name"`
	Address string `form:"address" validate:"omitempty,postal_address"`
	SKU     string `form:"sku"`
	Date    string `form:"date" validate:"omitempty,iso_date"`
}
