package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localharvest/market/internal/market"
)

func TestAddMergesQuantities(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	require.NoError(t, s.Add(ctx, "sess", "l1", 2))
	require.NoError(t, s.Add(ctx, "sess", "l1", 3))

	lines, err := s.Snapshot(ctx, "sess")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, market.CartLine{ListingID: "l1", Qty: 5}, lines[0])
}

func TestAddRejectsNonPositiveQty(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	assert.ErrorIs(t, s.Add(ctx, "sess", "l1", 0), market.ErrInvalidQuantity)
	assert.ErrorIs(t, s.Add(ctx, "sess", "l1", -4), market.ErrInvalidQuantity)

	lines, err := s.Snapshot(ctx, "sess")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestUpdateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	require.NoError(t, s.Add(ctx, "sess", "l1", 1))
	require.NoError(t, s.Add(ctx, "sess", "l2", 7))
	require.NoError(t, s.Add(ctx, "sess", "l3", 2))

	update := map[string]int{"l1": 4, "l2": 0, "l3": -1}
	require.NoError(t, s.Update(ctx, "sess", update))
	once, err := s.Snapshot(ctx, "sess")
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, "sess", update))
	twice, err := s.Snapshot(ctx, "sess")
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	assert.Equal(t, []market.CartLine{{ListingID: "l1", Qty: 4}}, twice)
}

func TestSnapshotSortedAndSessionScoped(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	require.NoError(t, s.Add(ctx, "a", "l2", 1))
	require.NoError(t, s.Add(ctx, "a", "l1", 1))
	require.NoError(t, s.Add(ctx, "b", "l9", 3))

	lines, err := s.Snapshot(ctx, "a")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "l1", lines[0].ListingID)
	assert.Equal(t, "l2", lines[1].ListingID)

	other, err := s.Snapshot(ctx, "b")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, "l9", other[0].ListingID)
}

func TestRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	require.NoError(t, s.Add(ctx, "sess", "l1", 1))
	require.NoError(t, s.Add(ctx, "sess", "l2", 1))

	require.NoError(t, s.Remove(ctx, "sess", "l1"))
	lines, _ := s.Snapshot(ctx, "sess")
	require.Len(t, lines, 1)

	require.NoError(t, s.Clear(ctx, "sess"))
	lines, _ = s.Snapshot(ctx, "sess")
	assert.Empty(t, lines)
}
