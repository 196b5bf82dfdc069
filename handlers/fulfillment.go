package handlers

import (
	"net/http"

	"caregate/models"
	"caregate/services/fulfillment"
	"caregate/utils"

	"github.com/gin-gonic/gin"
)

// NewTransitionFulfillmentHandler drives one state-machine edge on an
// appointment.
func NewTransitionFulfillmentHandler(svc *fulfillment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			State models.FulfillmentState `json:"state" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
			return
		}
		f, err := svc.Transition(c.Request.Context(), c.Param("id"), input.State)
		if err != nil {
			utils.JSONAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, f)
	}
}

// NewRescheduleFulfillmentHandler moves an appointment to a new slot.
func NewRescheduleFulfillmentHandler(svc *fulfillment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Slot models.TimeSlot `json:"slot" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
			return
		}
		f, err := svc.Reschedule(c.Request.Context(), c.Param("id"), input.Slot)
		if err != nil {
			utils.JSONAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, f)
	}
}
