package accounts

import (
	"context"
	"sync"

	"github.com/localharvest/market/internal/market"
)

type MemStore struct {
	mu    sync.Mutex
	byID  map[string]*market.User
	byEml map[string]*market.User
}

func NewMemStore() *MemStore {
	return &MemStore{byID: map[string]*market.User{}, byEml: map[string]*market.User{}}
}

func (s *MemStore) Create(ctx context.Context, u *market.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEml[u.Email]; ok {
		return market.ErrEmailTaken
	}
	cp := *u
	s.byID[u.ID] = &cp
	s.byEml[u.Email] = &cp
	return nil
}

func (s *MemStore) ByEmail(ctx context.Context, email string) (*market.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byEml[email]
	if !ok {
		return nil, market.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemStore) Get(ctx context.Context, id string) (*market.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, market.ErrNotFound
	}
	cp := *u
	return &cp, nil
}
