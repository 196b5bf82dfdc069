package models

// Wire bodies for the protocol actions. Each sits inside Envelope.Message
// for the action named after it.

// SearchMessage starts a discovery round.
type SearchMessage struct {
	Intent SearchIntent `json:"intent"`
}

// OnSearchMessage is one responder's catalog for an open search.
type OnSearchMessage struct {
	Catalog SearchResult `json:"catalog"`
}

// SelectMessage asks a provider to price a chosen item and slot.
type SelectMessage struct {
	Intent SearchIntent `json:"intent"`
}

// OnSelectMessage carries the provider's quotation for a selection.
type OnSelectMessage struct {
	Quote Quotation `json:"quote"`
}

// FulfillmentDraft is the appointment half of an init request.
type FulfillmentDraft struct {
	Type     string    `json:"type"`
	Slot     TimeSlot  `json:"slot"`
	Customer *Customer `json:"customer,omitempty"`
	Agent    *Agent    `json:"agent,omitempty"`
}

// OrderDraft is the order half of an init request.
type OrderDraft struct {
	ProviderID  string           `json:"provider_id"`
	HSPAID      string           `json:"hspa_id"`
	Items       []OrderItem      `json:"items"`
	Billing     Billing          `json:"billing"`
	Fulfillment FulfillmentDraft `json:"fulfillment"`
}

// InitMessage opens the booking lifecycle for a draft order.
type InitMessage struct {
	Order OrderDraft `json:"order"`
}

// OnInitMessage is the provider's quote for an initiated order.
type OnInitMessage struct {
	OrderID string    `json:"order_id,omitempty"`
	Quote   Quotation `json:"quote"`
}

// ConfirmMessage asks to firm up a quoted order.
type ConfirmMessage struct {
	OrderID       string `json:"order_id"`
	PaymentMethod string `json:"payment_method"` // "card" or "cash"
}

// OnConfirmMessage is the provider's confirmation callback.
type OnConfirmMessage struct {
	OrderID string     `json:"order_id"`
	State   OrderState `json:"state,omitempty"`
}

// StatusMessage requests the current state of an order.
type StatusMessage struct {
	OrderID string `json:"order_id"`
}

// OnStatusMessage reports the provider-side fulfillment state.
type OnStatusMessage struct {
	OrderID          string           `json:"order_id"`
	FulfillmentState FulfillmentState `json:"fulfillment_state"`
}
