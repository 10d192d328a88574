package cart

import (
	"context"
	"sort"
	"sync"

	"github.com/localharvest/market/internal/market"
)

// MemStore is the in-memory Store used in tests and single-node dev runs.
type MemStore struct {
	mu    sync.Mutex
	carts map[string]map[string]int // session -> listing -> qty
}

func NewMemStore() *MemStore {
	return &MemStore{carts: make(map[string]map[string]int)}
}

func (s *MemStore) cart(sessionID string) map[string]int {
	c, ok := s.carts[sessionID]
	if !ok {
		c = make(map[string]int)
		s.carts[sessionID] = c
	}
	return c
}

func (s *MemStore) Add(ctx context.Context, sessionID, listingID string, qty int) error {
	if qty <= 0 {
		return market.ErrInvalidQuantity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart(sessionID)[listingID] += qty
	return nil
}

func (s *MemStore) Update(ctx context.Context, sessionID string, quantities map[string]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cart(sessionID)
	for listingID, qty := range quantities {
		if qty <= 0 {
			delete(c, listingID)
		} else {
			c[listingID] = qty
		}
	}
	return nil
}

func (s *MemStore) Remove(ctx context.Context, sessionID, listingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cart(sessionID), listingID)
	return nil
}

func (s *MemStore) Snapshot(ctx context.Context, sessionID string) ([]market.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cart(sessionID)
	lines := make([]market.CartLine, 0, len(c))
	for listingID, qty := range c {
		lines = append(lines, market.CartLine{ListingID: listingID, Qty: qty})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ListingID < lines[j].ListingID })
	return lines, nil
}

func (s *MemStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	return nil
}
