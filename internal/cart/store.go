package cart

import (
	"context"

	"github.com/localharvest/market/internal/market"
)

// Store holds one buyer session's desired quantities per listing. No stock
// checks happen here; stock is validated at checkout only.
type Store interface {
	// Add merges qty into the existing line for listingID. qty must be > 0.
	Add(ctx context.Context, sessionID, listingID string, qty int) error
	// Update overwrites quantities in bulk; a qty <= 0 removes the line.
	// Applying the same map twice leaves the cart unchanged.
	Update(ctx context.Context, sessionID string, quantities map[string]int) error
	Remove(ctx context.Context, sessionID, listingID string) error
	// Snapshot returns the lines sorted by listing id.
	Snapshot(ctx context.Context, sessionID string) ([]market.CartLine, error)
	Clear(ctx context.Context, sessionID string) error
}
