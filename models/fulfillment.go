package models

import "time"

// FulfillmentState is the lifecycle state of an appointment.
type FulfillmentState string

const (
	FulfillmentScheduled   FulfillmentState = "SCHEDULED"
	FulfillmentWaiting     FulfillmentState = "WAITING"
	FulfillmentInProgress  FulfillmentState = "IN_PROGRESS"
	FulfillmentCompleted   FulfillmentState = "COMPLETED"
	FulfillmentCancelled   FulfillmentState = "CANCELLED"
	FulfillmentNoShow      FulfillmentState = "NO_SHOW"
	FulfillmentRescheduled FulfillmentState = "RESCHEDULED"
)

var fulfillmentEdges = map[FulfillmentState][]FulfillmentState{
	FulfillmentScheduled: {
		FulfillmentWaiting, FulfillmentInProgress, FulfillmentCancelled,
		FulfillmentNoShow, FulfillmentRescheduled,
	},
	FulfillmentWaiting:    {FulfillmentInProgress},
	FulfillmentInProgress: {FulfillmentCompleted},
}

// CanTransitionTo reports whether the edge s -> next is allowed.
func (s FulfillmentState) CanTransitionTo(next FulfillmentState) bool {
	for _, t := range fulfillmentEdges[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Active reports whether the state occupies the provider's calendar.
func (s FulfillmentState) Active() bool {
	return s == FulfillmentScheduled || s == FulfillmentWaiting || s == FulfillmentInProgress
}

// Agent delivers the service (e.g., the doctor).
type Agent struct {
	ID     string `bson:"id" json:"id"`
	Name   string `bson:"name" json:"name"`
	Gender string `bson:"gender,omitempty" json:"gender,omitempty"`
	Image  string `bson:"image,omitempty" json:"image,omitempty"`
}

// Customer receives the service.
type Customer struct {
	Name    string            `bson:"name" json:"name"`
	Contact map[string]string `bson:"contact,omitempty" json:"contact,omitempty"`
}

// Fulfillment is one scheduled appointment. It is never deleted, only
// driven to a terminal state, and is mutated only through the fulfillment
// state machine.
type Fulfillment struct {
	ID         string            `bson:"id" json:"id"`
	Type       string            `bson:"type" json:"type"` // e.g. "teleconsultation"
	OrderID    string            `bson:"order_id" json:"order_id"`
	ProviderID string            `bson:"provider_id" json:"provider_id"`
	State      FulfillmentState  `bson:"state" json:"state"`
	Slot       TimeSlot          `bson:"slot" json:"slot"`
	Agent      *Agent            `bson:"agent,omitempty" json:"agent,omitempty"`
	Customer   *Customer         `bson:"customer,omitempty" json:"customer,omitempty"`
	Tags       map[string]string `bson:"tags,omitempty" json:"tags,omitempty"`
	Version    int64             `bson:"version" json:"-"`
	CreatedAt  time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time         `bson:"updated_at" json:"updated_at"`
}

// Touch bumps the updated timestamp, keeping it monotonic non-decreasing.
func (f *Fulfillment) Touch(now time.Time) {
	if now.After(f.UpdatedAt) {
		f.UpdatedAt = now
	}
}
