package availabilityRepo

import (
	"context"
	"sync"

	"soulseer/models"
)

// MemoryAvailabilityRepo is the in-memory Repository used for tests and
// single-node development.
type MemoryAvailabilityRepo struct {
	mu    sync.RWMutex
	rules map[string]models.ReaderAvailability
}

func NewMemoryAvailabilityRepo() *MemoryAvailabilityRepo {
	return &MemoryAvailabilityRepo{rules: make(map[string]models.ReaderAvailability)}
}

func (r *MemoryAvailabilityRepo) GetByReader(ctx context.Context, readerID string) (*models.ReaderAvailability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	avail, ok := r.rules[readerID]
	if !ok {
		return nil, nil
	}
	return &avail, nil
}

func (r *MemoryAvailabilityRepo) Upsert(ctx context.Context, avail models.ReaderAvailability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[avail.ReaderID] = avail
	return nil
}
