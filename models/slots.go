package models

import "time"

// AvailabilityWindow is one recurring weekly window in a reader's schedule,
// expressed as minutes from midnight in the reader's time zone
// (e.g., 540 for 9:00 AM).
type AvailabilityWindow struct {
	Weekday time.Weekday `bson:"weekday" json:"weekday"`
	Start   int          `bson:"start" json:"start"`
	End     int          `bson:"end" json:"end"`
}

// ReaderAvailability is a reader's recurring availability rule. Bookable
// slots are derived from it; they are never stored.
type ReaderAvailability struct {
	ReaderID   string               `bson:"reader_id" json:"readerId"`
	TimeZone   string               `bson:"time_zone" json:"timeZone"`
	Windows    []AvailabilityWindow `bson:"windows" json:"windows"`
	AutoAccept bool                 `bson:"auto_accept" json:"autoAccept"` // bookings confirm without reader approval
	UpdatedAt  time.Time            `bson:"updated_at" json:"updatedAt"`
}

// TimeSlot is a discrete bookable interval offered to a client. It is a
// derived view: the availability rule sliced into duration-sized pieces,
// minus intervals covered by pending or confirmed readings.
type TimeSlot struct {
	ID       string    `json:"id"`
	ReaderID string    `json:"readerId"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Duration int       `json:"duration"` // minutes
	Price    int64     `json:"price"`    // cents
}
