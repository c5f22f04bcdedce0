package models

import "time"

// Instant reading request statuses. Accepted, Expired and Declined are
// terminal and immutable.
const (
	RequestOpen     = "open"
	RequestAccepted = "accepted"
	RequestExpired  = "expired"
	RequestDeclined = "declined"
)

// ReadingRequest is an on-demand ask for an immediate reading. It lives from
// CreatedAt until ExpiresAt; a request past ExpiresAt can never be accepted.
type ReadingRequest struct {
	ID          string    `bson:"id" json:"id"`
	ClientID    string    `bson:"client_id" json:"clientId"`
	ReaderID    string    `bson:"reader_id" json:"readerId"`
	ReadingType string    `bson:"reading_type" json:"readingType"`
	Urgency     string    `bson:"urgency,omitempty" json:"urgency,omitempty"`
	Message     string    `bson:"message,omitempty" json:"message,omitempty"`
	Status      string    `bson:"status" json:"status"`
	SessionID   string    `bson:"session_id,omitempty" json:"sessionId,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
	ExpiresAt   time.Time `bson:"expires_at" json:"expiresAt"`
}
