package notification

import (
	"context"
	"fmt"

	"caregate/database/repository/fulfillment"
	"caregate/models"
	"caregate/utils"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// Service sends booking pushes to the customer attached to a fulfillment.
type Service interface {
	NotifyBookingConfirmed(ctx context.Context, order *models.Order, f *models.Fulfillment) error
	NotifyBookingCancelled(ctx context.Context, order *models.Order, f *models.Fulfillment) error
	SendAppointmentReminder(ctx context.Context, fulfillmentID string) error
}

// FCMNotifier is the production implementation over Firebase Cloud
// Messaging. A customer without a push token is skipped, not an error.
type FCMNotifier struct {
	Fulfillments fulfillmentRepo.FulfillmentRepository
}

func NewFCMNotifier(fulfillments fulfillmentRepo.FulfillmentRepository) *FCMNotifier {
	return &FCMNotifier{Fulfillments: fulfillments}
}

func (n *FCMNotifier) NotifyBookingConfirmed(ctx context.Context, order *models.Order, f *models.Fulfillment) error {
	title := "Appointment confirmed"
	body := fmt.Sprintf("Your appointment on %s is confirmed.", f.Slot.Start.Format("Mon, 2 Jan 15:04"))
	return n.push(ctx, f, title, body, map[string]string{
		"type":     "booking_confirmed",
		"order_id": order.ID,
	})
}

func (n *FCMNotifier) NotifyBookingCancelled(ctx context.Context, order *models.Order, f *models.Fulfillment) error {
	title := "Appointment cancelled"
	body := fmt.Sprintf("Your appointment on %s was cancelled.", f.Slot.Start.Format("Mon, 2 Jan 15:04"))
	return n.push(ctx, f, title, body, map[string]string{
		"type":     "booking_cancelled",
		"order_id": order.ID,
	})
}

func (n *FCMNotifier) SendAppointmentReminder(ctx context.Context, fulfillmentID string) error {
	f, err := n.Fulfillments.GetByID(ctx, fulfillmentID)
	if err != nil {
		return fmt.Errorf("reminder lookup failed: %w", err)
	}
	if f.State != models.FulfillmentScheduled {
		// Appointment moved on since the reminder was queued.
		return nil
	}
	title := "Upcoming appointment"
	body := fmt.Sprintf("Reminder: your appointment starts at %s.", f.Slot.Start.Format("15:04"))
	return n.push(ctx, f, title, body, map[string]string{
		"type":           "appointment_reminder",
		"fulfillment_id": f.ID,
	})
}

func (n *FCMNotifier) push(ctx context.Context, f *models.Fulfillment, title, body string, data map[string]string) error {
	if f.Customer == nil {
		return nil
	}
	token := f.Customer.Contact["fcm_token"]
	if token == "" {
		return nil // no push target
	}

	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}
	if _, err := utils.FCMClient.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send FCM message: %w", err)
	}
	utils.GetLogger().Debug("push sent",
		zap.String("fulfillment_id", f.ID),
		zap.String("type", data["type"]))
	return nil
}

// NopNotifier discards every notification. Used by tests and local runs
// without Firebase credentials.
type NopNotifier struct{}

func (NopNotifier) NotifyBookingConfirmed(context.Context, *models.Order, *models.Fulfillment) error {
	return nil
}

func (NopNotifier) NotifyBookingCancelled(context.Context, *models.Order, *models.Fulfillment) error {
	return nil
}

func (NopNotifier) SendAppointmentReminder(context.Context, string) error { return nil }
