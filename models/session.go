package models

import "time"

// Session types mirror the reading channels offered to clients.
const (
	SessionTypeChat  = "chat"
	SessionTypePhone = "phone"
	SessionTypeVideo = "video"
)

// Session statuses. Ended, Cancelled and Failed are terminal; AccruedCost is
// frozen once a terminal status is reached.
const (
	SessionRequested = "requested"
	SessionPending   = "pending"
	SessionActive    = "active"
	SessionEnded     = "ended"
	SessionCancelled = "cancelled"
	SessionFailed    = "failed"
)

// Session is one metered reading session between a client and a reader.
// All monetary amounts are integer cents.
type Session struct {
	ID            string     `bson:"id" json:"id"`
	ClientID      string     `bson:"client_id" json:"clientId"`
	ReaderID      string     `bson:"reader_id" json:"readerId"`
	SessionType   string     `bson:"session_type" json:"sessionType"`
	RatePerMinute int64      `bson:"rate_per_minute" json:"ratePerMinute"`
	Status        string     `bson:"status" json:"status"`
	StartTime     *time.Time `bson:"start_time,omitempty" json:"startTime,omitempty"`
	EndTime       *time.Time `bson:"end_time,omitempty" json:"endTime,omitempty"`
	AccruedCost   int64      `bson:"accrued_cost" json:"accruedCost"`
	FundingCap    int64      `bson:"funding_cap" json:"fundingCap"`
	HoldID        string     `bson:"hold_id,omitempty" json:"holdId,omitempty"`
	EndReason     string     `bson:"end_reason,omitempty" json:"endReason,omitempty"`
	CreatedAt     time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `bson:"updated_at" json:"updatedAt"`
}

// Terminal reports whether the session has reached a final status.
func (s *Session) Terminal() bool {
	return s.Status == SessionEnded || s.Status == SessionCancelled || s.Status == SessionFailed
}

// BillingUpdate is one element of the live feed consumed by presentation
// layers. Updates for a session are monotonically non-decreasing in cost
// until the terminal value is fixed.
type BillingUpdate struct {
	SessionID      string `json:"sessionId"`
	Status         string `json:"status"`
	ElapsedSeconds int64  `json:"elapsedSeconds"`
	AccruedCost    int64  `json:"accruedCost"`
	EndReason      string `json:"endReason,omitempty"`
}
