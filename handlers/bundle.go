package handlers

import (
	"encoding/json"
	"net/http"

	"caregate/gateway"
	"caregate/models"
	"caregate/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	Verifier gateway.Verifier

	// Protocol action endpoints
	SearchHandler    gin.HandlerFunc
	OnSearchHandler  gin.HandlerFunc
	SelectHandler    gin.HandlerFunc
	OnSelectHandler  gin.HandlerFunc
	InitHandler      gin.HandlerFunc
	OnInitHandler    gin.HandlerFunc
	ConfirmHandler   gin.HandlerFunc
	OnConfirmHandler gin.HandlerFunc
	StatusHandler    gin.HandlerFunc
	OnStatusHandler  gin.HandlerFunc

	// Session endpoints
	GetSessionHandler   gin.HandlerFunc
	CloseSessionHandler gin.HandlerFunc

	// Order endpoints
	GetOrderHandler    gin.HandlerFunc
	CancelOrderHandler gin.HandlerFunc

	// Fulfillment endpoints
	TransitionFulfillmentHandler gin.HandlerFunc
	RescheduleFulfillmentHandler gin.HandlerFunc

	// Provider endpoints
	GetAvailabilityHandler gin.HandlerFunc
	GetSlotsHandler        gin.HandlerFunc
}

// bindEnvelope parses the protocol envelope and its action-specific body.
// A nil message pointer skips body decoding.
func bindEnvelope(c *gin.Context, message any) (*models.Envelope, bool) {
	var env models.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.JSON(http.StatusBadRequest, models.NackResponse("invalid envelope: "+err.Error()))
		return nil, false
	}
	if env.Context.TransactionID == "" || env.Context.MessageID == "" {
		c.JSON(http.StatusBadRequest, models.NackResponse("missing transaction or message id"))
		return nil, false
	}
	if message != nil {
		if err := json.Unmarshal(env.Message, message); err != nil {
			c.JSON(http.StatusBadRequest, models.NackResponse("invalid message body: "+err.Error()))
			return nil, false
		}
	}
	return &env, true
}

// nack writes a protocol-level failure with the mapped status code.
func nack(c *gin.Context, err error) {
	utils.JSONAppError(c, err)
}

// relayToConsumer forwards a callback to the transaction's consumer. Relay
// failures are logged; the callback has already been applied locally.
func relayToConsumer(c *gin.Context, d gateway.Dispatcher, env *models.Envelope, action string, message any) {
	if env.Context.ConsumerURI == "" {
		return
	}
	ref := models.ParticipantRef{ID: env.Context.ConsumerID, CallbackURI: env.Context.ConsumerURI}
	out := gateway.Outbound{Context: env.Context, Message: message}
	if err := d.Dispatch(c.Request.Context(), ref, action, out); err != nil {
		utils.GetLogger().Warn("consumer relay failed",
			zap.String("action", action),
			zap.String("consumer", env.Context.ConsumerID),
			zap.Error(err))
	}
}
