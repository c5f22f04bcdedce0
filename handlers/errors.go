package handlers

import (
	"errors"
	"net/http"

	"soulseer/services/dispatch"
	"soulseer/services/payment"
	"soulseer/services/scheduling"
	"soulseer/services/session"
	"soulseer/utils"

	"github.com/gin-gonic/gin"
)

// statusFor maps the service error taxonomies onto HTTP statuses. Unknown
// errors are a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, payment.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, payment.ErrGatewayTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, payment.ErrCaptureFailed):
		return http.StatusBadGateway
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, scheduling.ErrReadingNotFound),
		errors.Is(err, dispatch.ErrRequestNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrInvalidTransition),
		errors.Is(err, session.ErrDuplicateSession),
		errors.Is(err, scheduling.ErrSlotConflict),
		errors.Is(err, scheduling.ErrInvalidState),
		errors.Is(err, dispatch.ErrRequestClosed):
		return http.StatusConflict
	case errors.Is(err, scheduling.ErrInvalidSlot):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	utils.JSONError(c, statusFor(err), err.Error(), "")
}

// callerID returns the authenticated user id set by the auth middleware.
func callerID(c *gin.Context) string {
	id, _ := c.Get("userID")
	s, _ := id.(string)
	return s
}
