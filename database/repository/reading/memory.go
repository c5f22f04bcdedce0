package readingRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"soulseer/models"
)

// MemoryReadingRepo is the in-memory Repository used for tests and
// single-node development.
type MemoryReadingRepo struct {
	mu       sync.RWMutex
	readings map[string]models.ScheduledReading
}

func NewMemoryReadingRepo() *MemoryReadingRepo {
	return &MemoryReadingRepo{readings: make(map[string]models.ScheduledReading)}
}

func (r *MemoryReadingRepo) Insert(ctx context.Context, reading models.ScheduledReading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readings[reading.ID] = reading
	return nil
}

func (r *MemoryReadingRepo) Update(ctx context.Context, reading models.ScheduledReading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readings[reading.ID] = reading
	return nil
}

func (r *MemoryReadingRepo) GetByID(ctx context.Context, id string) (*models.ScheduledReading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reading, ok := r.readings[id]
	if !ok {
		return nil, nil
	}
	return &reading, nil
}

func (r *MemoryReadingRepo) FindOverlapping(ctx context.Context, readerID string, start, end time.Time) ([]models.ScheduledReading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.ScheduledReading
	for _, reading := range r.readings {
		if reading.ReaderID != readerID || !reading.Active() {
			continue
		}
		s, e := reading.Interval()
		if s.Before(end) && e.After(start) {
			out = append(out, reading)
		}
	}
	return out, nil
}

func (r *MemoryReadingRepo) ListByUser(ctx context.Context, userID, role string, statuses []string) ([]models.ScheduledReading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.ScheduledReading
	for _, reading := range r.readings {
		if role == "reader" {
			if reading.ReaderID != userID {
				continue
			}
		} else if reading.ClientID != userID {
			continue
		}
		if len(statuses) > 0 && !contains(statuses, reading.Status) {
			continue
		}
		out = append(out, reading)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
