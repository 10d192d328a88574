package orders

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/localharvest/market/internal/listings"
	"github.com/localharvest/market/internal/market"
)

// MemStore pairs with listings.MemStore. The reserve step is atomic inside
// the listing store, and nothing after it can fail, so the all-or-nothing
// property carries over.
type MemStore struct {
	Listings *listings.MemStore

	mu     sync.Mutex
	orders map[string]*market.Order
}

func NewMemStore(ls *listings.MemStore) *MemStore {
	return &MemStore{Listings: ls, orders: make(map[string]*market.Order)}
}

func (s *MemStore) CreateFromCart(ctx context.Context, buyerID string, lines []market.CartLine) (market.Receipt, error) {
	reserved, err := s.Listings.ReserveLines(ctx, lines)
	if err != nil {
		return market.Receipt{}, err
	}

	total := decimal.Zero
	orderID := uuid.NewString()
	items := make([]market.OrderItem, 0, len(reserved))
	for _, ln := range reserved {
		total = total.Add(ln.UnitPrice.Mul(decimal.NewFromInt(int64(ln.Qty))))
		items = append(items, market.OrderItem{
			OrderID:   orderID,
			ListingID: ln.ListingID,
			Qty:       ln.Qty,
			UnitPrice: ln.UnitPrice,
		})
	}

	s.mu.Lock()
	s.orders[orderID] = &market.Order{
		ID:        orderID,
		BuyerID:   buyerID,
		Total:     total,
		Status:    market.OrderPending,
		CreatedAt: time.Now().UTC(),
		Items:     items,
	}
	s.mu.Unlock()
	return market.Receipt{OrderID: orderID, Total: total}, nil
}

func (s *MemStore) Get(ctx context.Context, orderID string) (*market.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, market.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *MemStore) ByBuyer(ctx context.Context, buyerID string) ([]market.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []market.Order
	for _, o := range s.orders {
		if o.BuyerID == buyerID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
