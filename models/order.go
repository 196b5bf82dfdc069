package models

import "time"

// OrderState is the lifecycle state of a booking order.
type OrderState string

const (
	OrderInitiated           OrderState = "INITIATED"
	OrderQuoted              OrderState = "QUOTED"
	OrderProvisionallyBooked OrderState = "PROVISIONALLY_BOOKED"
	OrderConfirmed           OrderState = "CONFIRMED"
	OrderInProgress          OrderState = "IN_PROGRESS"
	OrderCompleted           OrderState = "COMPLETED"
	OrderCancelled           OrderState = "CANCELLED"
	OrderFailed              OrderState = "FAILED"
)

// orderEdges is the allowed transition table. CANCELLED and FAILED are
// reachable from elsewhere and handled in CanTransitionTo.
var orderEdges = map[OrderState][]OrderState{
	OrderInitiated:           {OrderQuoted},
	OrderQuoted:              {OrderProvisionallyBooked},
	OrderProvisionallyBooked: {OrderConfirmed},
	OrderConfirmed:           {OrderInProgress},
	OrderInProgress:          {OrderCompleted},
}

// Terminal reports whether no further transitions are allowed.
func (s OrderState) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled || s == OrderFailed
}

// CanTransitionTo reports whether the edge s -> next is in the allowed
// table. CANCELLED is reachable from any non-terminal state (window
// enforcement happens in the order service); FAILED from any state.
func (s OrderState) CanTransitionTo(next OrderState) bool {
	if next == OrderFailed {
		return true
	}
	if next == OrderCancelled {
		return !s.Terminal()
	}
	for _, t := range orderEdges[s] {
		if t == next {
			return true
		}
	}
	return false
}

// OrderItem references a catalog item with a quantity.
type OrderItem struct {
	ID         string `bson:"id" json:"id"`
	Quantity   int    `bson:"quantity" json:"quantity"`
	Descriptor string `bson:"descriptor" json:"descriptor"`
	Price      Money  `bson:"price" json:"price"`
}

// QuoteLine is one component of a quotation breakup.
type QuoteLine struct {
	Title string `bson:"title" json:"title"`
	Price Money  `bson:"price" json:"price"`
}

// Quotation is the provider's price for an order.
type Quotation struct {
	Price   Money       `bson:"price" json:"price"`
	Breakup []QuoteLine `bson:"breakup,omitempty" json:"breakup,omitempty"`
}

// Billing identifies the paying party.
type Billing struct {
	Name    string `bson:"name" json:"name"`
	Email   string `bson:"email,omitempty" json:"email,omitempty"`
	Phone   string `bson:"phone,omitempty" json:"phone,omitempty"`
	Address string `bson:"address,omitempty" json:"address,omitempty"`
}

// Payment records the payment attached to an order.
type Payment struct {
	ID       string `bson:"id" json:"id"`
	Method   string `bson:"method" json:"method"` // "card" or "cash"
	Status   string `bson:"status" json:"status"`
	Amount   Money  `bson:"amount" json:"amount"`
	IntentID string `bson:"intent_id,omitempty" json:"intent_id,omitempty"`
}

// Order is a booking in the marketplace. It references exactly one
// Fulfillment and is mutated only through the order state machine.
type Order struct {
	ID            string     `bson:"id" json:"id"`
	TransactionID string     `bson:"transaction_id" json:"transaction_id"`
	State         OrderState `bson:"state" json:"state"`
	FulfillmentID string     `bson:"fulfillment_id" json:"fulfillment_id"`
	ProviderID    string     `bson:"provider_id" json:"provider_id"`
	HSPAID        string     `bson:"hspa_id" json:"hspa_id"`
	Items         []OrderItem `bson:"items" json:"items"`
	Billing       Billing    `bson:"billing" json:"billing"`
	Quote         *Quotation `bson:"quote,omitempty" json:"quote,omitempty"`
	Payment       *Payment   `bson:"payment,omitempty" json:"payment,omitempty"`
	LastMessageID string     `bson:"last_message_id,omitempty" json:"-"`
	Version       int64      `bson:"version" json:"-"`
	CreatedAt     time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at" json:"updated_at"`
}

// Touch bumps the updated timestamp, keeping it monotonic non-decreasing.
func (o *Order) Touch(now time.Time) {
	if now.After(o.UpdatedAt) {
		o.UpdatedAt = now
	}
}
