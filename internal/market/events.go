package market

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated   = "OrderCreated"
	EventListingDeleted = "ListingDeleted"
)

const (
	TopicOrderCreated   = "market.order.created"
	TopicListingDeleted = "market.listing.deleted"
)

// Partition key = order_id so every event of one order keeps its ordering.
func PartitionKey(id string) []byte { return []byte(id) }

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID string          `json:"order_id"`
	BuyerID string          `json:"buyer_id"`
	Items   []OrderItem     `json:"items"`
	Total   decimal.Decimal `json:"total"`
}

type ListingDeletedPayload struct {
	ListingID string `json:"listing_id"`
	SellerID  string `json:"seller_id"`
}
