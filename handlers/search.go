package handlers

import (
	"net/http"

	"caregate/database/repository/registry"
	"caregate/models"
	"caregate/services/search"
	"caregate/utils"

	"github.com/gin-gonic/gin"
)

// NewSearchHandler opens a discovery round: every subscribed HSPA in the
// request's city is fanned out to, keyed by the transaction id.
func NewSearchHandler(correlator *search.Correlator, registry registryRepo.SubscriberRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var msg models.SearchMessage
		env, ok := bindEnvelope(c, &msg)
		if !ok {
			return
		}

		subscribers, err := registry.ListByRole(c.Request.Context(), models.RoleHSPA, env.Context.City)
		if err != nil {
			nack(c, err)
			return
		}
		participants := make([]models.ParticipantRef, 0, len(subscribers))
		for _, s := range subscribers {
			participants = append(participants, s.ParticipantRef())
		}

		session, err := correlator.Open(c.Request.Context(), env.Context, msg.Intent, participants)
		if err != nil {
			nack(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"message":    models.AckResponse(),
			"session_id": session.ID,
			"deadline":   session.Deadline,
		})
	}
}

// NewOnSearchHandler records one responder's catalog against the open
// session. Absorbed responses (after close, or duplicates) still ACK.
func NewOnSearchHandler(correlator *search.Correlator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var msg models.OnSearchMessage
		env, ok := bindEnvelope(c, &msg)
		if !ok {
			return
		}
		participantID := c.GetString("subscriber_id")
		if participantID == "" {
			participantID = env.Context.ProviderID
		}

		session, err := correlator.RecordResponse(c.Request.Context(), env.Context.TransactionID, participantID, msg.Catalog)
		if err != nil {
			nack(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": models.AckResponse(),
			"status":  session.Status,
		})
	}
}

// NewGetSessionHandler returns the session, including the aggregate once
// closed.
func NewGetSessionHandler(correlator *search.Correlator) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := correlator.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			utils.JSONAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

// NewCloseSessionHandler closes a session early on the consumer's behalf.
func NewCloseSessionHandler(correlator *search.Correlator) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := correlator.Close(c.Request.Context(), c.Param("id"))
		if err != nil {
			utils.JSONAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}
