package readingRepo

import (
	"context"
	"time"

	"soulseer/models"
)

// Repository persists scheduled readings. The booking engine serializes
// writes per reader, so FindOverlapping followed by Insert is safe under the
// engine's per-reader lock.
type Repository interface {
	Insert(ctx context.Context, reading models.ScheduledReading) error
	Update(ctx context.Context, reading models.ScheduledReading) error
	GetByID(ctx context.Context, id string) (*models.ScheduledReading, error)

	// FindOverlapping returns pending/confirmed readings for the reader whose
	// [scheduledAt, scheduledAt+duration) interval intersects [start, end).
	FindOverlapping(ctx context.Context, readerID string, start, end time.Time) ([]models.ScheduledReading, error)

	// ListByUser returns readings where the user participates as the given
	// role ("client" or "reader"), optionally filtered by status.
	ListByUser(ctx context.Context, userID, role string, statuses []string) ([]models.ScheduledReading, error)
}
