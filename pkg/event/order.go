package event

import "time"

const (
	OrdersSubmittedTopic = "pos.orders.submitted"
	EventOrderCreated    = "order.created"
	EventOrderUpdated    = "order.updated"
)

// OrderSubmittedEvent is published by a waiter session after the POS API
// accepted a new or edited order. Other sessions use it to refresh their
// open-orders cache without waiting for the next poll.
type OrderSubmittedEvent struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	SessionID  string    `json:"session_id"`
	OrderID    int       `json:"order_id"`
	TableID    int       `json:"table_id"`
	Waiter     string    `json:"waiter"`
	ItemCount  int       `json:"item_count"`
	GrandTotal string    `json:"grand_total"`

	// Denormalized for kitchen and floor displays
	TableNumber int `json:"table_number,omitempty"`
}
