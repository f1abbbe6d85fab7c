package checkout

import "time"

// Status is the pipeline position of an order. The zero value is Placed.
type Status int

const (
	StatusPlaced Status = iota
	StatusPaymentFailed
	StatusPaymentConfirmed
	StatusProcessing
	StatusShipped
	StatusDelivered
	StatusCompleted
)

// Label is the display form carried in DTOs and in the OrderPlaced event.
func (s Status) Label() string {
	switch s {
	case StatusPlaced:
		return "Order Placed"
	case StatusPaymentFailed:
		return "Payment Failed"
	case StatusPaymentConfirmed:
		return "Payment Confirmed"
	case StatusProcessing:
		return "Order Processing"
	case StatusShipped:
		return "Order Shipped"
	case StatusDelivered:
		return "Order Delivered"
	case StatusCompleted:
		return "Order Completed"
	default:
		return "Unknown"
	}
}

// Order is created once by the checkout service; afterwards only the status
// projector touches its Status field.
type Order struct {
	ID           int64
	CheckoutDate time.Time
	Status       Status
	Items        []OrderItem
}

// OrderItem exists only inside an Order. Title is denormalized from the
// catalog at read time for display.
type OrderItem struct {
	ID       int64
	BookID   int64
	Title    string
	Quantity int
}
