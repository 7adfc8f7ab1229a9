package orders

import (
	"encoding/json"
	"strconv"
	"time"

	"waiterserver/internal/stock"
)

const (
	TopicOrderCreated  = "order.created"
	TopicOrderRejected = "order.rejected"
)

const (
	EventOrderCreated  = "OrderCreated"
	EventOrderRejected = "OrderRejected"
)

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
	OrderID    int64  `json:"order_id"`
	TotalPrice string `json:"total_price"`
	Items      []Item `json:"items"`
}

type OrderRejectedPayload struct {
	Reason    string           `json:"reason"`
	Items     []Item           `json:"items"`
	Shortages []stock.Shortage `json:"shortages,omitempty"`
}

// PartitionKey keeps every event of one order on the same partition.
func PartitionKey(orderID int64) []byte {
	return []byte(strconv.FormatInt(orderID, 10))
}
