package handlers

import (
	"errors"
	"net/http"
	"testing"

	"soulseer/services/dispatch"
	"soulseer/services/payment"
	"soulseer/services/scheduling"
	"soulseer/services/session"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{payment.ErrInsufficientFunds, http.StatusPaymentRequired},
		{payment.ErrGatewayTimeout, http.StatusGatewayTimeout},
		{payment.ErrCaptureFailed, http.StatusBadGateway},
		{session.ErrSessionNotFound, http.StatusNotFound},
		{scheduling.ErrReadingNotFound, http.StatusNotFound},
		{dispatch.ErrRequestNotFound, http.StatusNotFound},
		{session.ErrInvalidTransition, http.StatusConflict},
		{scheduling.ErrSlotConflict, http.StatusConflict},
		{scheduling.ErrInvalidState, http.StatusConflict},
		{dispatch.ErrRequestClosed, http.StatusConflict},
		{scheduling.ErrInvalidSlot, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), "error %v", tc.err)
	}
}
