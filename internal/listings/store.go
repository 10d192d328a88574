package listings

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/localharvest/market/internal/market"
)

// ReservedLine is a cart line priced from the locked listing row. The price
// here is the one the order item will snapshot.
type ReservedLine struct {
	ListingID string
	Qty       int
	UnitPrice decimal.Decimal
}

// Store is the listing table plus its inventory ledger. Every stock mutation
// goes through here so the quantity>=0 and active-at-zero rules hold in one
// place.
type Store interface {
	Create(ctx context.Context, l *market.Listing) error
	Get(ctx context.Context, id string) (*market.Listing, error)
	BySeller(ctx context.Context, sellerID string) ([]market.Listing, error)
	// Browse returns active listings with stock, newest first.
	Browse(ctx context.Context) ([]market.Listing, error)
	Update(ctx context.Context, l *market.Listing) error
	Delete(ctx context.Context, id string) error

	// Available reports quantity, active state and current unit price.
	Available(ctx context.Context, id string) (market.Availability, error)
	// ReserveAndDecrementMany decrements every line or none. On shortfall it
	// fails with *market.InsufficientStockError naming every offending
	// listing. Serializable against concurrent calls on the same listings.
	ReserveAndDecrementMany(ctx context.Context, lines []market.CartLine) error
	// Restock adds addQty and reactivates the listing.
	Restock(ctx context.Context, id string, addQty int) error
	// SetActive flips the flag independent of quantity.
	SetActive(ctx context.Context, id string, active bool) error
}
