package models

import "time"

// SettlementRecord captures the final money movement for a session. Failed
// settlements retain the last known accrued cost for manual reconciliation.
type SettlementRecord struct {
	SessionID  string    `bson:"session_id" json:"sessionId"`
	HoldID     string    `bson:"hold_id" json:"holdId"`
	Captured   int64     `bson:"captured" json:"captured"` // cents
	Released   int64     `bson:"released" json:"released"` // cents
	Failed     bool      `bson:"failed" json:"failed"`
	Error      string    `bson:"error,omitempty" json:"error,omitempty"`
	SettledAt  time.Time `bson:"settled_at" json:"settledAt"`
	RetryCount int       `bson:"retry_count" json:"retryCount"`
}
