package session

import (
	"context"

	"soulseer/models"
)

// LifecycleService owns the session state machine: it authorizes the funding
// hold, starts and stops the billing meter, and finalizes settlement.
type LifecycleService interface {
	// RequestSession authorizes a hold sized by the configured buffer and
	// registers the session in Pending. On a declined hold no session is
	// created and payment.ErrInsufficientFunds is returned.
	RequestSession(ctx context.Context, clientID, readerID, sessionType string, ratePerMinute int64) (*models.Session, error)

	// StartSession moves Pending to Active and begins metering. Calling it on
	// an already Active session is a no-op; any other state is an
	// ErrInvalidTransition.
	StartSession(ctx context.Context, sessionID string) error

	// EndSession stops the meter, settles the hold and moves the session to
	// its terminal state. Safe to call more than once.
	EndSession(ctx context.Context, sessionID, reason string) error

	// GetSession returns a snapshot of the session.
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)

	// Subscribe yields the live billing feed for the session. The channel is
	// closed once the terminal update has been delivered. The returned func
	// cancels the subscription.
	Subscribe(sessionID string) (<-chan models.BillingUpdate, func(), error)
}
