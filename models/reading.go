package models

import "time"

// Scheduled reading statuses. Pending and Confirmed occupy the reader's
// calendar; for one reader no two readings in those statuses may overlap.
const (
	ReadingPending     = "pending"
	ReadingConfirmed   = "confirmed"
	ReadingRescheduled = "rescheduled"
	ReadingCancelled   = "cancelled"
	ReadingCompleted   = "completed"
)

// ScheduledReading is a future appointment booked against a reader's
// availability. ScheduledAt is timezone-qualified; Duration is minutes.
type ScheduledReading struct {
	ID           string    `bson:"id" json:"id"`
	ClientID     string    `bson:"client_id" json:"clientId"`
	ReaderID     string    `bson:"reader_id" json:"readerId"`
	ReadingType  string    `bson:"reading_type" json:"readingType"`
	ScheduledAt  time.Time `bson:"scheduled_at" json:"scheduledAt"`
	TimeZone     string    `bson:"time_zone" json:"timeZone"`
	Duration     int       `bson:"duration" json:"duration"`
	Price        int64     `bson:"price" json:"price"` // cents
	Status       string    `bson:"status" json:"status"`
	CancelReason string    `bson:"cancel_reason,omitempty" json:"cancelReason,omitempty"`
	Notes        string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updatedAt"`
}

// Interval returns the half-open [start, end) window the reading occupies.
func (r *ScheduledReading) Interval() (time.Time, time.Time) {
	return r.ScheduledAt, r.ScheduledAt.Add(time.Duration(r.Duration) * time.Minute)
}

// Active reports whether the reading currently blocks its interval.
// Rescheduled readings keep blocking their (new) interval until completed or
// cancelled.
func (r *ScheduledReading) Active() bool {
	return r.Status == ReadingPending || r.Status == ReadingConfirmed || r.Status == ReadingRescheduled
}

// BlockingStatuses are the statuses that occupy a reader's calendar.
var BlockingStatuses = []string{ReadingPending, ReadingConfirmed, ReadingRescheduled}
