package handlers

import (
	"net/http"

	"caregate/gateway"
	"caregate/models"
	"caregate/services/order"
	"caregate/utils"

	"github.com/gin-gonic/gin"
)

// NewInitHandler opens the booking lifecycle: it books the slot, creates
// the order/fulfillment pair and forwards the init to the HSPA.
func NewInitHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var msg models.InitMessage
		env, ok := bindEnvelope(c, &msg)
		if !ok {
			return
		}
		o, f, err := svc.Init(c.Request.Context(), env.Context, msg.Order)
		if err != nil {
			nack(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"message":     models.AckResponse(),
			"order":       o,
			"fulfillment": f,
		})
	}
}

// NewOnInitHandler applies the provider's quote and relays it onward.
func NewOnInitHandler(svc *order.Service, dispatcher gateway.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var msg models.OnInitMessage
		env, ok := bindEnvelope(c, &msg)
		if !ok {
			return
		}
		o, err := svc.OnInit(c.Request.Context(), env.Context.TransactionID, env.Context.MessageID, msg.Quote)
		if err != nil {
			nack(c, err)
			return
		}
		relayToConsumer(c, dispatcher, env, "on_init", models.OnInitMessage{OrderID: o.ID, Quote: msg.Quote})
		c.JSON(http.StatusOK, gin.H{
			"message": models.AckResponse(),
			"order":   o,
		})
	}
}

// NewConfirmHandler firms up a quoted order: slot re-check, payment, then
// the confirm goes to the HSPA.
func NewConfirmHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var msg models.ConfirmMessage
		_, ok := bindEnvelope(c, &msg)
		if !ok {
			return
		}
		o, err := svc.Confirm(c.Request.Context(), msg.OrderID, msg.PaymentMethod)
		if err != nil {
			nack(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"message": models.AckResponse(),
			"order":   o,
		})
	}
}

// NewOnConfirmHandler finalizes the booking and relays the confirmation.
// A redelivered on_confirm ACKs with the already-committed snapshot.
func NewOnConfirmHandler(svc *order.Service, dispatcher gateway.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var msg models.OnConfirmMessage
		env, ok := bindEnvelope(c, &msg)
		if !ok {
			return
		}
		o, err := svc.OnConfirm(c.Request.Context(), env.Context.TransactionID, env.Context.MessageID)
		if err != nil {
			nack(c, err)
			return
		}
		relayToConsumer(c, dispatcher, env, "on_confirm", models.OnConfirmMessage{OrderID: o.ID, State: o.State})
		c.JSON(http.StatusOK, gin.H{
			"message": models.AckResponse(),
			"order":   o,
		})
	}
}

// NewStatusHandler returns the local snapshot and asks the HSPA for a
// fresh report.
func NewStatusHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var msg models.StatusMessage
		_, ok := bindEnvelope(c, &msg)
		if !ok {
			return
		}
		o, f, err := svc.Status(c.Request.Context(), msg.OrderID)
		if err != nil {
			nack(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":     models.AckResponse(),
			"order":       o,
			"fulfillment": f,
		})
	}
}

// NewOnStatusHandler applies the provider-reported fulfillment state and
// relays the result.
func NewOnStatusHandler(svc *order.Service, dispatcher gateway.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var msg models.OnStatusMessage
		env, ok := bindEnvelope(c, &msg)
		if !ok {
			return
		}
		o, f, err := svc.OnStatus(c.Request.Context(), env.Context.TransactionID, msg.FulfillmentState)
		if err != nil {
			nack(c, err)
			return
		}
		relayToConsumer(c, dispatcher, env, "on_status", models.OnStatusMessage{OrderID: o.ID, FulfillmentState: f.State})
		c.JSON(http.StatusOK, gin.H{
			"message":     models.AckResponse(),
			"order":       o,
			"fulfillment": f,
		})
	}
}

// NewGetOrderHandler returns one order by id.
func NewGetOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.Orders.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			utils.JSONAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// NewCancelOrderHandler cancels an order inside its notice window.
func NewCancelOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.Cancel(c.Request.Context(), c.Param("id"))
		if err != nil {
			utils.JSONAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}
