package checkout

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/localharvest/market/internal/cart"
	kafkax "github.com/localharvest/market/internal/kafka"
	"github.com/localharvest/market/internal/market"
	"github.com/localharvest/market/internal/orders"
)

const (
	defaultMaxAttempts = 3
	defaultBackoff     = 100 * time.Millisecond
)

// Publisher is the producer surface Service needs; satisfied by
// *kafkax.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Service turns a session cart into a durable order. The atomic unit lives in
// orders.Store; this layer adds the empty-cart guard, the bounded retry on
// lock contention, cart clearing and the order.created event.
type Service struct {
	Cart        cart.Store
	Orders      orders.Store
	Producer    Publisher // may be nil
	ServiceName string

	MaxAttempts int
	Backoff     time.Duration
}

func (s *Service) Checkout(ctx context.Context, sessionID, buyerID string) (market.Receipt, error) {
	lines, err := s.Cart.Snapshot(ctx, sessionID)
	if err != nil {
		return market.Receipt{}, err
	}
	if len(lines) == 0 {
		return market.Receipt{}, market.ErrEmptyCart
	}

	attempts := s.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	backoff := s.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	var receipt market.Receipt
	for attempt := 1; ; attempt++ {
		receipt, err = s.Orders.CreateFromCart(ctx, buyerID, lines)
		if err == nil {
			break
		}
		if !errors.Is(err, market.ErrConcurrencyConflict) || attempt >= attempts {
			return market.Receipt{}, err
		}
		select {
		case <-ctx.Done():
			return market.Receipt{}, ctx.Err()
		case <-time.After(time.Duration(attempt) * backoff):
		}
	}

	// The order is committed; neither cart cleanup nor the event may undo it.
	if err := s.Cart.Clear(ctx, sessionID); err != nil {
		log.Printf("clear cart %s: %v", sessionID, err)
	}
	s.publishCreated(ctx, buyerID, receipt)
	return receipt, nil
}

func (s *Service) publishCreated(ctx context.Context, buyerID string, receipt market.Receipt) {
	if s.Producer == nil {
		return
	}
	payload := market.OrderCreatedPayload{
		OrderID: receipt.OrderID,
		BuyerID: buyerID,
		Total:   receipt.Total,
	}
	if o, err := s.Orders.Get(ctx, receipt.OrderID); err == nil {
		payload.Items = o.Items
	} else {
		log.Printf("load order %s for event: %v", receipt.OrderID, err)
	}
	ev := market.Envelope{
		EventID:       uuid.NewString(),
		EventType:     market.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: receipt.OrderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	s.Producer.Publish(market.PartitionKey(receipt.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(market.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
