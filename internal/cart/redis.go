package cart

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/localharvest/market/internal/market"
	"github.com/localharvest/market/internal/redisx"
)

// RedisStore keeps each cart as a hash: cart:{session_id} -> listing_id => qty.
type RedisStore struct {
	RDB *redis.Client
	TTL time.Duration
}

func (s *RedisStore) key(sessionID string) string {
	return fmt.Sprintf(redisx.KeyCart, sessionID)
}

func (s *RedisStore) Add(ctx context.Context, sessionID, listingID string, qty int) error {
	if qty <= 0 {
		return market.ErrInvalidQuantity
	}
	key := s.key(sessionID)
	pipe := s.RDB.TxPipeline()
	pipe.HIncrBy(ctx, key, listingID, int64(qty))
	pipe.Expire(ctx, key, s.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cart add: %w", err)
	}
	return nil
}

func (s *RedisStore) Update(ctx context.Context, sessionID string, quantities map[string]int) error {
	key := s.key(sessionID)
	pipe := s.RDB.TxPipeline()
	for listingID, qty := range quantities {
		if qty <= 0 {
			pipe.HDel(ctx, key, listingID)
		} else {
			pipe.HSet(ctx, key, listingID, qty)
		}
	}
	pipe.Expire(ctx, key, s.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cart update: %w", err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, sessionID, listingID string) error {
	if err := s.RDB.HDel(ctx, s.key(sessionID), listingID).Err(); err != nil {
		return fmt.Errorf("cart remove: %w", err)
	}
	return nil
}

func (s *RedisStore) Snapshot(ctx context.Context, sessionID string) ([]market.CartLine, error) {
	m, err := s.RDB.HGetAll(ctx, s.key(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("cart snapshot: %w", err)
	}
	lines := make([]market.CartLine, 0, len(m))
	for listingID, raw := range m {
		qty, err := strconv.Atoi(raw)
		if err != nil || qty <= 0 {
			continue
		}
		lines = append(lines, market.CartLine{ListingID: listingID, Qty: qty})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ListingID < lines[j].ListingID })
	return lines, nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.RDB.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("cart clear: %w", err)
	}
	return nil
}
