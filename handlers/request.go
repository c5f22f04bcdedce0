package handlers

import (
	"net/http"

	"soulseer/services/dispatch"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestHandler exposes on-demand reading requests over HTTP.
type RequestHandler struct {
	Dispatcher dispatch.Dispatcher
	Logger     *zap.Logger
}

func NewRequestHandler(dispatcher dispatch.Dispatcher, logger *zap.Logger) *RequestHandler {
	return &RequestHandler{Dispatcher: dispatcher, Logger: logger}
}

// SendRequest creates an instant reading request for the calling client.
func (h *RequestHandler) SendRequest(c *gin.Context) {
	var input struct {
		ReaderID    string `json:"readerId" binding:"required"`
		ReadingType string `json:"readingType" binding:"required"`
		Urgency     string `json:"urgency"`
		Message     string `json:"message"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	req, err := h.Dispatcher.SendReadingRequest(c.Request.Context(), callerID(c), input.ReaderID, input.ReadingType, input.Urgency, input.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request": req})
}

// AcceptRequest accepts an open request and returns the created session with
// its funding hold already authorized.
func (h *RequestHandler) AcceptRequest(c *gin.Context) {
	sess, err := h.Dispatcher.AcceptRequest(c.Request.Context(), c.Param("requestID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// DeclineRequest declines an open request.
func (h *RequestHandler) DeclineRequest(c *gin.Context) {
	if err := h.Dispatcher.DeclineRequest(c.Request.Context(), c.Param("requestID")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requestID": c.Param("requestID"), "status": "declined"})
}

// GetRequest returns the current state of a request, expiring it first when
// overdue.
func (h *RequestHandler) GetRequest(c *gin.Context) {
	req, err := h.Dispatcher.GetRequest(c.Request.Context(), c.Param("requestID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": req})
}
