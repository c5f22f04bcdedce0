package scheduling

import (
	"context"
	"time"

	"soulseer/models"
)

// BookingEngine validates and commits appointments against reader
// availability, with conflict detection on reschedule and cancel.
type BookingEngine interface {
	// GenerateSlots derives the bookable slots for a reader over [from, to)
	// at the given duration in minutes. Deterministic for a fixed bookings
	// snapshot.
	GenerateSlots(ctx context.Context, readerID, readingType string, from, to time.Time, duration int) ([]models.TimeSlot, error)

	// BookReading re-validates the interval against current availability and
	// inserts the reading atomically with respect to other bookings for the
	// same reader.
	BookReading(ctx context.Context, clientID, readerID, readingType string, start time.Time, duration int) (*models.ScheduledReading, error)

	// RescheduleReading is an atomic cancel-old+book-new; on conflict the
	// original booking is untouched.
	RescheduleReading(ctx context.Context, readingID string, newStart time.Time, newDuration int) (*models.ScheduledReading, error)

	// CancelReading marks the reading cancelled and frees its interval.
	// Idempotent on an already-cancelled reading.
	CancelReading(ctx context.Context, readingID, reason string) error

	// ListReadings returns a user's readings filtered by role and status.
	ListReadings(ctx context.Context, userID, role string, statuses []string) ([]models.ScheduledReading, error)

	// SetAvailability replaces a reader's recurring availability rule.
	SetAvailability(ctx context.Context, avail models.ReaderAvailability) error
}
