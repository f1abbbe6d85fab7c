// Package events is the catalog of messages exchanged between the checkout
// pipeline stages. Events are transient: they are never persisted, only
// published to the topic exchange and consumed by the next stage and by the
// status projector.
package events

import "time"

// Routing keys, one per event type.
const (
	RKOrderPlaced      = "checkout.order.placed"
	RKPaymentConfirmed = "checkout.payment.confirmed"
	RKPaymentFailed    = "checkout.payment.failed"
	RKOrderProcessing  = "checkout.order.processing"
	RKOrderShipped     = "checkout.order.shipped"
	RKOrderDelivered   = "checkout.order.delivered"
	RKOrderCompleted   = "checkout.order.completed"
)

// OrderPlacedEvent starts the pipeline. It is the only event carrying a
// snapshot of the order beyond its id.
type OrderPlacedEvent struct {
	OrderID      int64             `json:"order_id"`
	CheckoutDate time.Time         `json:"checkout_date"`
	Status       string            `json:"status"`
	Items        []OrderPlacedItem `json:"items"`
}

type OrderPlacedItem struct {
	BookID   int64 `json:"book_id"`
	Quantity int   `json:"quantity"`
}

type PaymentConfirmedEvent struct {
	OrderID     int64     `json:"order_id"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// PaymentFailedEvent is the terminal branch of the pipeline: nothing is
// published after it.
type PaymentFailedEvent struct {
	OrderID  int64     `json:"order_id"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
}

type OrderProcessingEvent struct {
	OrderID      int64     `json:"order_id"`
	ProcessingAt time.Time `json:"processing_at"`
}

type OrderShippedEvent struct {
	OrderID   int64     `json:"order_id"`
	ShippedAt time.Time `json:"shipped_at"`
}

type OrderDeliveredEvent struct {
	OrderID     int64     `json:"order_id"`
	DeliveredAt time.Time `json:"delivered_at"`
}

type OrderCompletedEvent struct {
	OrderID     int64     `json:"order_id"`
	CompletedAt time.Time `json:"completed_at"`
}
