package orders

import (
	"context"

	"github.com/localharvest/market/internal/market"
)

// Store persists the Order/OrderItem aggregate.
type Store interface {
	// CreateFromCart runs the whole checkout unit as one atomic operation:
	// lock and validate every listing, price from the locked rows, persist
	// order + items with snapshot prices, decrement stock. On any failure
	// nothing persists for any line.
	CreateFromCart(ctx context.Context, buyerID string, lines []market.CartLine) (market.Receipt, error)
	Get(ctx context.Context, orderID string) (*market.Order, error)
	ByBuyer(ctx context.Context, buyerID string) ([]market.Order, error)
}
