package model

// Event names carried on the order event stream. The notifier turns them
// into buyer and operations emails; the ledger never waits for delivery.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is the payload published at checkout and on status changes.
// EventID doubles as the notifier's idempotency key.
type OrderEvent struct {
	EventID  string      `json:"event_id"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Buyer    string      `json:"buyer"`
	Order    *Order      `json:"order"`
	MomoName string      `json:"momo_name"`
	Status   OrderStatus `json:"status,omitempty"`
}
