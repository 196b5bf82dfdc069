package models

import "time"

// ReminderPayload is the asynq payload for an appointment reminder.
type ReminderPayload struct {
	OrderID       string    `json:"order_id"`
	FulfillmentID string    `json:"fulfillment_id"`
	Start         time.Time `json:"start"`
}
