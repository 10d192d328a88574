package listings

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localharvest/market/internal/images"
	"github.com/localharvest/market/internal/market"
)

func newLifecycle() (*Lifecycle, *MemStore) {
	s := NewMemStore()
	return &Lifecycle{Store: s, Images: images.Noop{}}, s
}

func goodFields() market.ListingFields {
	return market.ListingFields{
		Name:        "raw honey",
		Category:    market.CategoryHoney,
		Price:       decimal.RequireFromString("7.25"),
		Unit:        "jar",
		Quantity:    12,
		Description: "wildflower honey from the back field",
	}
}

func TestCreateValidListing(t *testing.T) {
	lc, _ := newLifecycle()
	l, err := lc.Create(context.Background(), "seller", goodFields(), "", "")
	require.NoError(t, err)
	assert.NotEmpty(t, l.ID)
	assert.True(t, l.Active)
	assert.Equal(t, 12, l.Quantity)
}

func TestCreateZeroQuantityStartsInactive(t *testing.T) {
	lc, _ := newLifecycle()
	f := goodFields()
	f.Quantity = 0
	l, err := lc.Create(context.Background(), "seller", f, "", "")
	require.NoError(t, err)
	assert.False(t, l.Active)
}

func TestCreateReportsEveryBadField(t *testing.T) {
	lc, _ := newLifecycle()
	f := market.ListingFields{
		Name:        "",
		Category:    market.Category("gadgets"),
		Price:       decimal.Zero,
		Unit:        " ",
		Quantity:    -1,
		Description: "",
	}
	_, err := lc.Create(context.Background(), "seller", f, "", "")
	var verr *market.ValidationError
	require.ErrorAs(t, err, &verr)
	for _, field := range []string{"name", "category", "price", "unit", "quantity", "description"} {
		assert.Contains(t, verr.Fields, field)
	}
}

func TestEditRequiresOwnership(t *testing.T) {
	lc, _ := newLifecycle()
	ctx := context.Background()
	l, err := lc.Create(ctx, "alice", goodFields(), "", "")
	require.NoError(t, err)

	_, err = lc.Edit(ctx, l.ID, "mallory", goodFields(), "", "")
	assert.ErrorIs(t, err, market.ErrForbidden)

	err = lc.Delete(ctx, l.ID, "mallory")
	assert.ErrorIs(t, err, market.ErrForbidden)

	err = lc.Restock(ctx, l.ID, "mallory", 5)
	assert.ErrorIs(t, err, market.ErrForbidden)
}

func TestEditToZeroQuantityDeactivates(t *testing.T) {
	lc, s := newLifecycle()
	ctx := context.Background()
	l, err := lc.Create(ctx, "alice", goodFields(), "", "")
	require.NoError(t, err)

	f := goodFields()
	f.Quantity = 0
	_, err = lc.Edit(ctx, l.ID, "alice", f, "", "")
	require.NoError(t, err)

	a, err := s.Available(ctx, l.ID)
	require.NoError(t, err)
	assert.False(t, a.Active)
}

func TestRestockValidatesQuantity(t *testing.T) {
	lc, _ := newLifecycle()
	ctx := context.Background()
	l, err := lc.Create(ctx, "alice", goodFields(), "", "")
	require.NoError(t, err)

	var verr *market.ValidationError
	require.ErrorAs(t, lc.Restock(ctx, l.ID, "alice", 0), &verr)
	require.ErrorAs(t, lc.Restock(ctx, l.ID, "alice", -3), &verr)
}

func TestRestockAddsAndReactivates(t *testing.T) {
	lc, s := newLifecycle()
	ctx := context.Background()
	f := goodFields()
	f.Quantity = 0
	l, err := lc.Create(ctx, "alice", f, "", "")
	require.NoError(t, err)

	require.NoError(t, lc.Restock(ctx, l.ID, "alice", 10))
	a, err := s.Available(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, a.Quantity)
	assert.True(t, a.Active)
}

func TestManualActivateIsIndependentOfQuantity(t *testing.T) {
	lc, s := newLifecycle()
	ctx := context.Background()
	f := goodFields()
	f.Quantity = 0
	l, err := lc.Create(ctx, "alice", f, "", "")
	require.NoError(t, err)

	require.NoError(t, lc.Activate(ctx, l.ID, "alice"))
	a, _ := s.Available(ctx, l.ID)
	assert.True(t, a.Active)

	require.NoError(t, lc.Deactivate(ctx, l.ID, "alice"))
	a, _ = s.Available(ctx, l.ID)
	assert.False(t, a.Active)
}

func TestDeleteRemovesListing(t *testing.T) {
	lc, s := newLifecycle()
	ctx := context.Background()
	l, err := lc.Create(ctx, "alice", goodFields(), "", "")
	require.NoError(t, err)

	require.NoError(t, lc.Delete(ctx, l.ID, "alice"))
	_, err = s.Get(ctx, l.ID)
	assert.ErrorIs(t, err, market.ErrNotFound)

	assert.ErrorIs(t, lc.Delete(ctx, l.ID, "alice"), market.ErrNotFound)
}
