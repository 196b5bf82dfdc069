package handlers

import (
	"net/http"
	"strconv"
	"time"

	"caregate/models"
	"caregate/services/availability"
	"caregate/services/directory"
	"caregate/utils"

	"github.com/gin-gonic/gin"
)

// NewGetAvailabilityHandler answers whether one concrete slot can be
// booked right now: ?start=RFC3339&duration_minutes=N.
func NewGetAvailabilityHandler(dir directory.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		start, err := time.Parse(time.RFC3339, c.Query("start"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start", "details": err.Error()})
			return
		}
		minutes, err := strconv.Atoi(c.Query("duration_minutes"))
		if err != nil || minutes <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration_minutes"})
			return
		}
		slot := models.TimeSlot{Start: start, Duration: time.Duration(minutes) * time.Minute}

		providerID := c.Param("id")
		cfg, err := dir.Schedule(c.Request.Context(), providerID)
		if err != nil {
			utils.JSONAppError(c, err)
			return
		}
		active, err := dir.ActiveFulfillments(c.Request.Context(), providerID)
		if err != nil {
			utils.JSONAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"provider_id": providerID,
			"slot":        slot,
			"available":   availability.Check(cfg, active, slot),
		})
	}
}

// NewGetSlotsHandler enumerates free slots in a window:
// ?from=RFC3339&to=RFC3339&duration_minutes=N.
func NewGetSlotsHandler(dir directory.Directory, engine availability.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, err := time.Parse(time.RFC3339, c.Query("from"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from", "details": err.Error()})
			return
		}
		to, err := time.Parse(time.RFC3339, c.Query("to"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to", "details": err.Error()})
			return
		}
		minutes, err := strconv.Atoi(c.Query("duration_minutes"))
		if err != nil || minutes <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration_minutes"})
			return
		}

		providerID := c.Param("id")
		cfg, err := dir.Schedule(c.Request.Context(), providerID)
		if err != nil {
			utils.JSONAppError(c, err)
			return
		}
		active, err := dir.ActiveFulfillments(c.Request.Context(), providerID)
		if err != nil {
			utils.JSONAppError(c, err)
			return
		}
		slots := engine.FindSlots(cfg, active, from, to, time.Duration(minutes)*time.Minute)
		c.JSON(http.StatusOK, gin.H{
			"provider_id": providerID,
			"slots":       slots,
		})
	}
}
