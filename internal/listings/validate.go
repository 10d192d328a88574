package listings

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/localharvest/market/internal/market"
)

// Validate checks a field set for create/edit and reports every offending
// field at once.
func Validate(f market.ListingFields) *market.ValidationError {
	fields := map[string]string{}
	if strings.TrimSpace(f.Name) == "" {
		fields["name"] = "name must not be empty"
	}
	if !market.ValidCategory(f.Category) {
		fields["category"] = "unknown category"
	}
	if !f.Price.GreaterThan(decimal.Zero) {
		fields["price"] = "price must be greater than zero"
	}
	if strings.TrimSpace(f.Unit) == "" {
		fields["unit"] = "unit must not be empty"
	}
	if f.Quantity < 0 {
		fields["quantity"] = "quantity must not be negative"
	}
	if strings.TrimSpace(f.Description) == "" {
		fields["description"] = "description must not be empty"
	}
	if len(fields) > 0 {
		return &market.ValidationError{Fields: fields}
	}
	return nil
}
