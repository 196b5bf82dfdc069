package tasks

import (
	"context"
	"encoding/json"
	"time"

	"caregate/models"
	"caregate/services/notification"
	"caregate/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeAppointmentReminder = "appointment:reminder"

// NewReminderTask builds a deferred reminder task that fires at fireAt.
func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeAppointmentReminder, b)
	opts := []asynq.Option{asynq.ProcessAt(fireAt)}
	return task, opts, nil
}

// Handler processes queued reminder tasks.
type Handler struct {
	Notifier notification.Service
}

func NewHandler(notifier notification.Service) *Handler {
	return &Handler{Notifier: notifier}
}

func (h *Handler) HandleReminder(ctx context.Context, task *asynq.Task) error {
	var p models.ReminderPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		utils.GetLogger().Error("invalid reminder payload", zap.Error(err))
		return err
	}
	utils.GetLogger().Info("firing appointment reminder",
		zap.String("fulfillment_id", p.FulfillmentID),
		zap.Time("start", p.Start))
	return h.Notifier.SendAppointmentReminder(ctx, p.FulfillmentID)
}

// NewServeMux wires the task handlers for the asynq worker.
func NewServeMux(h *Handler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeAppointmentReminder, h.HandleReminder)
	return mux
}
