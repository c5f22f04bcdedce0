package availabilityRepo

import (
	"context"

	"soulseer/models"
)

// Repository persists reader availability rules. Rules are small and
// per-reader; bookable slots are derived from them at query time.
type Repository interface {
	GetByReader(ctx context.Context, readerID string) (*models.ReaderAvailability, error)
	Upsert(ctx context.Context, avail models.ReaderAvailability) error
}
