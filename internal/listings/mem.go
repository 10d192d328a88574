package listings

import (
	"context"
	"sort"
	"sync"

	"github.com/localharvest/market/internal/market"
)

// MemStore implements Store in memory with a mutex per listing. Lock
// acquisition follows the same ascending-id order as the postgres store, so
// the concurrency properties of checkout hold here too. Used by tests and
// single-node dev runs.
type MemStore struct {
	mu       sync.RWMutex
	listings map[string]*market.Listing
	locks    map[string]*sync.Mutex
}

func NewMemStore() *MemStore {
	return &MemStore{
		listings: make(map[string]*market.Listing),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *MemStore) Create(ctx context.Context, l *market.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *l
	s.listings[l.ID] = &cp
	s.locks[l.ID] = &sync.Mutex{}
	return nil
}

func (s *MemStore) Get(ctx context.Context, id string) (*market.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, market.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *MemStore) BySeller(ctx context.Context, sellerID string) ([]market.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []market.Listing
	for _, l := range s.listings {
		if l.SellerID == sellerID {
			out = append(out, *l)
		}
	}
	sortByCreated(out)
	return out, nil
}

func (s *MemStore) Browse(ctx context.Context) ([]market.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []market.Listing
	for _, l := range s.listings {
		if l.Active && l.Quantity > 0 {
			out = append(out, *l)
		}
	}
	sortByCreated(out)
	return out, nil
}

func sortByCreated(ls []market.Listing) {
	sort.Slice(ls, func(i, j int) bool {
		if ls[i].CreatedAt.Equal(ls[j].CreatedAt) {
			return ls[i].ID < ls[j].ID
		}
		return ls[i].CreatedAt.After(ls[j].CreatedAt)
	})
}

func (s *MemStore) Update(ctx context.Context, l *market.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listings[l.ID]; !ok {
		return market.ErrNotFound
	}
	cp := *l
	s.listings[l.ID] = &cp
	return nil
}

func (s *MemStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listings[id]; !ok {
		return market.ErrNotFound
	}
	delete(s.listings, id)
	delete(s.locks, id)
	return nil
}

func (s *MemStore) Available(ctx context.Context, id string) (market.Availability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.listings[id]
	if !ok {
		return market.Availability{}, market.ErrNotFound
	}
	return market.Availability{Quantity: l.Quantity, Active: l.Active, UnitPrice: l.Price}, nil
}

// ReserveLines is the in-memory counterpart of ReserveTx: lock ascending,
// validate every line, then decrement all or none.
func (s *MemStore) ReserveLines(ctx context.Context, lines []market.CartLine) ([]ReservedLine, error) {
	sorted := make([]market.CartLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ListingID < sorted[j].ListingID })

	locked := make([]*sync.Mutex, 0, len(sorted))
	unlock := func() {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].Unlock()
		}
	}

	s.mu.RLock()
	for _, ln := range sorted {
		lk, ok := s.locks[ln.ListingID]
		if !ok {
			s.mu.RUnlock()
			unlock()
			return nil, market.ErrNotFound
		}
		lk.Lock()
		locked = append(locked, lk)
	}
	defer s.mu.RUnlock()
	defer unlock()

	var shortfalls []market.Shortfall
	reserved := make([]ReservedLine, 0, len(sorted))
	for _, ln := range sorted {
		l := s.listings[ln.ListingID]
		if !l.Active || l.Quantity < ln.Qty {
			shortfalls = append(shortfalls, market.Shortfall{
				ListingID: ln.ListingID,
				Requested: ln.Qty,
				Available: l.Quantity,
				Inactive:  !l.Active,
			})
			continue
		}
		reserved = append(reserved, ReservedLine{ListingID: ln.ListingID, Qty: ln.Qty, UnitPrice: l.Price})
	}
	if len(shortfalls) > 0 {
		return nil, &market.InsufficientStockError{Items: shortfalls}
	}

	for _, ln := range reserved {
		l := s.listings[ln.ListingID]
		l.Quantity -= ln.Qty
		if l.Quantity == 0 {
			l.Active = false
		}
	}
	return reserved, nil
}

func (s *MemStore) ReserveAndDecrementMany(ctx context.Context, lines []market.CartLine) error {
	_, err := s.ReserveLines(ctx, lines)
	return err
}

func (s *MemStore) Restock(ctx context.Context, id string, addQty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return market.ErrNotFound
	}
	l.Quantity += addQty
	l.Active = true
	return nil
}

func (s *MemStore) SetActive(ctx context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return market.ErrNotFound
	}
	l.Active = active
	return nil
}
