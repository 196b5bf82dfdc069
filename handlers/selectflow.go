package handlers

import (
	"net/http"

	"caregate/database/repository/registry"
	"caregate/gateway"
	"caregate/models"

	"github.com/gin-gonic/gin"
)

// NewSelectHandler relays a selection to the provider's HSPA so it can
// price the chosen item and slot. No local state is created until init.
func NewSelectHandler(dispatcher gateway.Dispatcher, registry registryRepo.SubscriberRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var msg models.SelectMessage
		env, ok := bindEnvelope(c, &msg)
		if !ok {
			return
		}
		if env.Context.ProviderID == "" {
			c.JSON(http.StatusBadRequest, models.NackResponse("missing provider id"))
			return
		}

		hspa, err := registry.GetByID(c.Request.Context(), env.Context.ProviderID)
		if err != nil {
			nack(c, err)
			return
		}
		out := gateway.Outbound{Context: env.Context, Message: msg}
		if err := dispatcher.Dispatch(c.Request.Context(), hspa.ParticipantRef(), "select", out); err != nil {
			nack(c, err)
			return
		}
		c.JSON(http.StatusAccepted, models.AckResponse())
	}
}

// NewOnSelectHandler relays the provider's quotation back to the consumer.
func NewOnSelectHandler(dispatcher gateway.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var msg models.OnSelectMessage
		env, ok := bindEnvelope(c, &msg)
		if !ok {
			return
		}
		relayToConsumer(c, dispatcher, env, "on_select", msg)
		c.JSON(http.StatusOK, models.AckResponse())
	}
}
