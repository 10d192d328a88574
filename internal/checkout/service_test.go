package checkout

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/localharvest/market/internal/cart"
	"github.com/localharvest/market/internal/listings"
	"github.com/localharvest/market/internal/market"
	"github.com/localharvest/market/internal/orders"
)

type capturePublisher struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (p *capturePublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, value)
}

type fixture struct {
	svc      *Service
	carts    *cart.MemStore
	listings *listings.MemStore
	orders   *orders.MemStore
	events   *capturePublisher
}

func newFixture() *fixture {
	ls := listings.NewMemStore()
	os := orders.NewMemStore(ls)
	cs := cart.NewMemStore()
	pub := &capturePublisher{}
	return &fixture{
		svc: &Service{
			Cart:        cs,
			Orders:      os,
			Producer:    pub,
			ServiceName: "market-test",
			Backoff:     time.Millisecond,
		},
		carts:    cs,
		listings: ls,
		orders:   os,
		events:   pub,
	}
}

func (f *fixture) seed(t *testing.T, id string, qty int, price string) {
	t.Helper()
	require.NoError(t, f.listings.Create(context.Background(), &market.Listing{
		ID:       id,
		SellerID: "seller",
		Name:     "eggs",
		Category: market.CategoryEggs,
		Price:    decimal.RequireFromString(price),
		Unit:     "dozen",
		Quantity: qty,
		Active:   qty > 0,
	}))
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Checkout(context.Background(), "sess", "buyer")
	assert.ErrorIs(t, err, market.ErrEmptyCart)
}

// quantity=5, cart requests 3: order committed, stock drops to 2, total is
// 3 * unit price, cart cleared.
func TestCheckoutHappyPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seed(t, "l1", 5, "4.00")
	require.NoError(t, f.carts.Add(ctx, "sess", "l1", 3))

	receipt, err := f.svc.Checkout(ctx, "sess", "buyer")
	require.NoError(t, err)
	assert.True(t, receipt.Total.Equal(decimal.RequireFromString("12.00")))

	a, err := f.listings.Available(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, 2, a.Quantity)

	lines, err := f.carts.Snapshot(ctx, "sess")
	require.NoError(t, err)
	assert.Empty(t, lines)

	o, err := f.orders.Get(ctx, receipt.OrderID)
	require.NoError(t, err)
	assert.Equal(t, market.OrderPending, o.Status)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 3, o.Items[0].Qty)
}

// Every committed order is financially self-consistent.
func TestOrderTotalMatchesItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seed(t, "l1", 5, "4.00")
	f.seed(t, "l2", 9, "1.25")
	require.NoError(t, f.carts.Add(ctx, "sess", "l1", 2))
	require.NoError(t, f.carts.Add(ctx, "sess", "l2", 4))

	receipt, err := f.svc.Checkout(ctx, "sess", "buyer")
	require.NoError(t, err)

	o, err := f.orders.Get(ctx, receipt.OrderID)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Qty))))
	}
	assert.True(t, sum.Equal(o.Total), "sum %s != total %s", sum, o.Total)
	assert.True(t, receipt.Total.Equal(o.Total))
}

// quantity=2, cart requests 5: no order, no decrement, cart untouched.
func TestCheckoutInsufficientStockIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seed(t, "l1", 2, "4.00")
	f.seed(t, "l2", 10, "1.00")
	require.NoError(t, f.carts.Add(ctx, "sess", "l1", 5))
	require.NoError(t, f.carts.Add(ctx, "sess", "l2", 1))

	_, err := f.svc.Checkout(ctx, "sess", "buyer")
	var serr *market.InsufficientStockError
	require.ErrorAs(t, err, &serr)
	require.Len(t, serr.Items, 1)
	assert.Equal(t, "l1", serr.Items[0].ListingID)

	a1, _ := f.listings.Available(ctx, "l1")
	a2, _ := f.listings.Available(ctx, "l2")
	assert.Equal(t, 2, a1.Quantity)
	assert.Equal(t, 10, a2.Quantity)

	os, err := f.orders.ByBuyer(ctx, "buyer")
	require.NoError(t, err)
	assert.Empty(t, os)

	lines, _ := f.carts.Snapshot(ctx, "sess")
	assert.Len(t, lines, 2)
}

// Two buyers race for 2 units each of a quantity-3 listing: exactly one order.
func TestCheckoutConcurrentBuyers(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seed(t, "l1", 3, "2.50")
	require.NoError(t, f.carts.Add(ctx, "s1", "l1", 2))
	require.NoError(t, f.carts.Add(ctx, "s2", "l1", 2))

	var g errgroup.Group
	results := make([]error, 2)
	for i, sess := range []string{"s1", "s2"} {
		i, sess := i, sess
		g.Go(func() error {
			_, err := f.svc.Checkout(ctx, sess, "buyer-"+sess)
			results[i] = err
			return nil
		})
	}
	require.NoError(t, g.Wait())

	ok := 0
	for _, err := range results {
		if err == nil {
			ok++
		} else {
			var serr *market.InsufficientStockError
			require.ErrorAs(t, err, &serr)
		}
	}
	assert.Equal(t, 1, ok)

	a, _ := f.listings.Available(ctx, "l1")
	assert.Equal(t, 1, a.Quantity)
}

type flakyStore struct {
	orders.Store
	mu       sync.Mutex
	failures int
	calls    int
}

func (s *flakyStore) CreateFromCart(ctx context.Context, buyerID string, lines []market.CartLine) (market.Receipt, error) {
	s.mu.Lock()
	s.calls++
	n := s.calls
	s.mu.Unlock()
	if n <= s.failures {
		return market.Receipt{}, market.ErrConcurrencyConflict
	}
	return s.Store.CreateFromCart(ctx, buyerID, lines)
}

func TestCheckoutRetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seed(t, "l1", 5, "1.00")
	require.NoError(t, f.carts.Add(ctx, "sess", "l1", 1))

	flaky := &flakyStore{Store: f.orders, failures: 2}
	f.svc.Orders = flaky

	_, err := f.svc.Checkout(ctx, "sess", "buyer")
	require.NoError(t, err)
	assert.Equal(t, 3, flaky.calls)
}

func TestCheckoutSurfacesConflictAfterBudget(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seed(t, "l1", 5, "1.00")
	require.NoError(t, f.carts.Add(ctx, "sess", "l1", 1))

	flaky := &flakyStore{Store: f.orders, failures: 10}
	f.svc.Orders = flaky

	_, err := f.svc.Checkout(ctx, "sess", "buyer")
	assert.ErrorIs(t, err, market.ErrConcurrencyConflict)
	assert.Equal(t, 3, flaky.calls)

	// the failed attempt must not clear the cart
	lines, _ := f.carts.Snapshot(ctx, "sess")
	assert.Len(t, lines, 1)
}

// Deleting a listing after checkout leaves the stored snapshot prices alone.
func TestHistoricalOrderSurvivesListingDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seed(t, "l1", 5, "4.00")
	require.NoError(t, f.carts.Add(ctx, "sess", "l1", 2))

	receipt, err := f.svc.Checkout(ctx, "sess", "buyer")
	require.NoError(t, err)

	require.NoError(t, f.listings.Delete(ctx, "l1"))

	o, err := f.orders.Get(ctx, receipt.OrderID)
	require.NoError(t, err)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("8.00")))
	require.Len(t, o.Items, 1)
	assert.True(t, o.Items[0].UnitPrice.Equal(decimal.RequireFromString("4.00")))
}

func TestCheckoutPublishesOrderCreated(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seed(t, "l1", 5, "4.00")
	require.NoError(t, f.carts.Add(ctx, "sess", "l1", 1))

	receipt, err := f.svc.Checkout(ctx, "sess", "buyer")
	require.NoError(t, err)

	require.Len(t, f.events.msgs, 1)
	var env market.Envelope
	require.NoError(t, json.Unmarshal(f.events.msgs[0], &env))
	assert.Equal(t, market.EventOrderCreated, env.EventType)
	assert.Equal(t, receipt.OrderID, env.CorrelationID)

	var p market.OrderCreatedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, receipt.OrderID, p.OrderID)
	assert.Equal(t, "buyer", p.BuyerID)
	require.Len(t, p.Items, 1)
}
