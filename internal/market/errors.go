package market

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("not the owner of this listing")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrConcurrencyConflict = errors.New("concurrent update conflict")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailTaken          = errors.New("email already registered")
	ErrNoSession           = errors.New("no valid session")
)

// ValidationError carries every offending field so the caller can surface
// field-level messages in one round trip.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	return "invalid fields: " + strings.Join(names, ", ")
}

// Shortfall describes one listing that could not cover the requested quantity.
type Shortfall struct {
	ListingID string `json:"listing_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	Inactive  bool   `json:"inactive,omitempty"`
}

// InsufficientStockError names every offending listing, not just the first.
type InsufficientStockError struct {
	Items []Shortfall
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %d listing(s)", len(e.Items))
}
