package handlers

import (
	"io"
	"net/http"

	"soulseer/models"
	"soulseer/services/rates"
	"soulseer/services/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionHandler exposes the metered session lifecycle over HTTP.
type SessionHandler struct {
	Sessions session.LifecycleService
	Rates    *rates.Catalog
	Logger   *zap.Logger
}

func NewSessionHandler(sessions session.LifecycleService, rateCatalog *rates.Catalog, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{Sessions: sessions, Rates: rateCatalog, Logger: logger}
}

// RequestSession authorizes the funding hold and creates the session in
// Pending. The caller is the paying client.
func (h *SessionHandler) RequestSession(c *gin.Context) {
	var input struct {
		ReaderID    string `json:"readerId" binding:"required"`
		SessionType string `json:"sessionType" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	rate, err := h.Rates.Resolve(input.ReaderID, input.SessionType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.Sessions.RequestSession(c.Request.Context(), callerID(c), input.ReaderID, input.SessionType, rate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": sess})
}

// GetPackages lists a reader's discounted minute bundles for a session type.
func (h *SessionHandler) GetPackages(c *gin.Context) {
	readerID := c.Param("readerID")
	sessionType := c.DefaultQuery("type", models.SessionTypeVideo)

	pkgs, err := h.Rates.ListPackages(readerID, sessionType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": pkgs})
}

// StartSession moves the session to Active and begins metering.
func (h *SessionHandler) StartSession(c *gin.Context) {
	sessionID := c.Param("sessionID")
	if err := h.Sessions.StartSession(c.Request.Context(), sessionID); err != nil {
		respondError(c, err)
		return
	}
	sess, err := h.Sessions.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// EndSession settles the session. The recorded reason depends on which side
// hung up; an explicit reason in the body wins.
func (h *SessionHandler) EndSession(c *gin.Context) {
	sessionID := c.Param("sessionID")
	var input struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&input)
	reason := input.Reason
	if reason == "" {
		if role, _ := c.Get("role"); role == "reader" {
			reason = session.ReasonReaderEnded
		} else {
			reason = session.ReasonClientEnded
		}
	}

	if err := h.Sessions.EndSession(c.Request.Context(), sessionID, reason); err != nil {
		respondError(c, err)
		return
	}
	sess, err := h.Sessions.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// CancelSession tears down a session the client abandoned before it started.
// The full hold is released.
func (h *SessionHandler) CancelSession(c *gin.Context) {
	sessionID := c.Param("sessionID")
	if err := h.Sessions.EndSession(c.Request.Context(), sessionID, session.ReasonClientCancelled); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionID": sessionID, "status": "cancelled"})
}

// GetSession returns a snapshot of the session.
func (h *SessionHandler) GetSession(c *gin.Context) {
	sess, err := h.Sessions.GetSession(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// StreamBilling pushes the live billing feed as server-sent events. The
// stream ends after the terminal update is delivered or the client goes away.
func (h *SessionHandler) StreamBilling(c *gin.Context) {
	sessionID := c.Param("sessionID")
	updates, cancel, err := h.Sessions.Subscribe(sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case upd, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("billing", upd)
			return true
		}
	})
	h.Logger.Debug("billing stream closed", zap.String("sessionID", sessionID))
}
