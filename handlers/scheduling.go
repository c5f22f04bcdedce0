package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"soulseer/models"
	"soulseer/services/scheduling"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SchedulingHandler exposes the booking engine over HTTP.
type SchedulingHandler struct {
	Engine scheduling.BookingEngine
	Logger *zap.Logger
}

func NewSchedulingHandler(engine scheduling.BookingEngine, logger *zap.Logger) *SchedulingHandler {
	return &SchedulingHandler{Engine: engine, Logger: logger}
}

// GetSlots lists the bookable slots for a reader over a window.
func (h *SchedulingHandler) GetSlots(c *gin.Context) {
	readerID := c.Query("readerId")
	readingType := c.DefaultQuery("type", models.SessionTypeVideo)
	if readerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "readerId is required"})
		return
	}

	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from timestamp", "details": err.Error()})
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to timestamp", "details": err.Error()})
		return
	}
	duration, err := strconv.Atoi(c.DefaultQuery("duration", "30"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration", "details": err.Error()})
		return
	}

	slots, err := h.Engine.GenerateSlots(c.Request.Context(), readerID, readingType, from, to, duration)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

// BookReading books a slot for the calling client.
func (h *SchedulingHandler) BookReading(c *gin.Context) {
	var input struct {
		ReaderID    string    `json:"readerId" binding:"required"`
		ReadingType string    `json:"readingType" binding:"required"`
		ScheduledAt time.Time `json:"scheduledAt" binding:"required"`
		Duration    int       `json:"duration" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	reading, err := h.Engine.BookReading(c.Request.Context(), callerID(c), input.ReaderID, input.ReadingType, input.ScheduledAt, input.Duration)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"reading": reading})
}

// RescheduleReading moves a reading to a new interval.
func (h *SchedulingHandler) RescheduleReading(c *gin.Context) {
	var input struct {
		ScheduledAt time.Time `json:"scheduledAt" binding:"required"`
		Duration    int       `json:"duration" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	reading, err := h.Engine.RescheduleReading(c.Request.Context(), c.Param("readingID"), input.ScheduledAt, input.Duration)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reading": reading})
}

// CancelReading cancels a reading and frees its interval.
func (h *SchedulingHandler) CancelReading(c *gin.Context) {
	var input struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&input)

	if err := h.Engine.CancelReading(c.Request.Context(), c.Param("readingID"), input.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"readingID": c.Param("readingID"), "status": models.ReadingCancelled})
}

// ListReadings returns the caller's readings, as client or reader, optionally
// filtered by a comma-separated status list.
func (h *SchedulingHandler) ListReadings(c *gin.Context) {
	role := c.DefaultQuery("role", "client")
	var statuses []string
	if raw := c.Query("status"); raw != "" {
		statuses = strings.Split(raw, ",")
	}

	readings, err := h.Engine.ListReadings(c.Request.Context(), callerID(c), role, statuses)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"readings": readings})
}

// SetAvailability replaces the calling reader's recurring availability rule.
func (h *SchedulingHandler) SetAvailability(c *gin.Context) {
	var input struct {
		TimeZone   string                      `json:"timeZone" binding:"required"`
		Windows    []models.AvailabilityWindow `json:"windows" binding:"required"`
		AutoAccept bool                        `json:"autoAccept"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	avail := models.ReaderAvailability{
		ReaderID:   callerID(c),
		TimeZone:   input.TimeZone,
		Windows:    input.Windows,
		AutoAccept: input.AutoAccept,
	}
	if err := h.Engine.SetAvailability(c.Request.Context(), avail); err != nil {
		respondError(c, err)
		return
	}
	h.Logger.Info("availability updated", zap.String("readerID", avail.ReaderID))
	c.JSON(http.StatusOK, gin.H{"availability": avail})
}
