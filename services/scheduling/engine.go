package scheduling

import (
	"context"
	"fmt"
	"sync"
	"time"

	availabilityRepo "soulseer/database/repository/availability"
	readingRepo "soulseer/database/repository/reading"
	"soulseer/models"
	"soulseer/services/rates"
	"soulseer/utils"

	"go.uber.org/zap"
)

// DefaultBookingEngine implements BookingEngine. All mutations of a reader's
// calendar are serialized through a per-reader lock so the check-then-insert
// is indivisible and the no-overlap invariant holds under concurrent booking
// attempts.
type DefaultBookingEngine struct {
	readingRepo readingRepo.Repository
	availRepo   availabilityRepo.Repository
	rates       *rates.Catalog
	clock       utils.Clock
	ids         utils.IDGenerator
	logger      *zap.Logger

	mu          sync.Mutex
	readerLocks map[string]*sync.Mutex
}

func NewBookingEngine(
	readings readingRepo.Repository,
	avail availabilityRepo.Repository,
	rateCatalog *rates.Catalog,
	clock utils.Clock,
	ids utils.IDGenerator,
	logger *zap.Logger,
) *DefaultBookingEngine {
	return &DefaultBookingEngine{
		readingRepo: readings,
		availRepo:   avail,
		rates:       rateCatalog,
		clock:       clock,
		ids:         ids,
		logger:      logger,
		readerLocks: make(map[string]*sync.Mutex),
	}
}

// readerLock returns the mutex serializing one reader's calendar.
func (se *DefaultBookingEngine) readerLock(readerID string) *sync.Mutex {
	se.mu.Lock()
	defer se.mu.Unlock()
	l, ok := se.readerLocks[readerID]
	if !ok {
		l = &sync.Mutex{}
		se.readerLocks[readerID] = l
	}
	return l
}

func (se *DefaultBookingEngine) BookReading(ctx context.Context, clientID, readerID, readingType string, start time.Time, duration int) (*models.ScheduledReading, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("non-positive duration %d", duration)
	}
	rate, err := se.rates.Resolve(readerID, readingType)
	if err != nil {
		return nil, err
	}

	lock := se.readerLock(readerID)
	lock.Lock()
	defer lock.Unlock()

	rule, err := se.availabilityFor(ctx, readerID)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(rule.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("bad time zone %q for reader %s: %w", rule.TimeZone, readerID, err)
	}
	if !withinWindows(rule, loc, start, duration) {
		return nil, ErrInvalidSlot
	}

	// Re-validate against the current calendar, never a stale client copy.
	end := start.Add(time.Duration(duration) * time.Minute)
	overlapping, err := se.readingRepo.FindOverlapping(ctx, readerID, start, end)
	if err != nil {
		return nil, err
	}
	for i := range overlapping {
		existing := &overlapping[i]
		if existing.ClientID == clientID && existing.ScheduledAt.Equal(start) &&
			existing.Duration == duration && existing.ReadingType == readingType {
			// Identical duplicate: idempotent no-op success.
			return existing, nil
		}
	}
	if len(overlapping) > 0 {
		return nil, ErrSlotConflict
	}

	now := se.clock.Now()
	status := models.ReadingPending
	if rule.AutoAccept {
		status = models.ReadingConfirmed
	}
	reading := models.ScheduledReading{
		ID:          se.ids.NewID(),
		ClientID:    clientID,
		ReaderID:    readerID,
		ReadingType: readingType,
		ScheduledAt: start,
		TimeZone:    rule.TimeZone,
		Duration:    duration,
		Price:       rate * int64(duration),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := se.readingRepo.Insert(ctx, reading); err != nil {
		return nil, fmt.Errorf("failed to insert reading: %w", err)
	}

	se.logger.Info("reading booked",
		zap.String("readingID", reading.ID), zap.String("readerID", readerID),
		zap.Time("scheduledAt", start), zap.String("status", status))
	return &reading, nil
}

// RescheduleReading moves a reading to a new interval atomically. If the new
// slot conflicts, the original booking is returned to the caller unchanged.
func (se *DefaultBookingEngine) RescheduleReading(ctx context.Context, readingID string, newStart time.Time, newDuration int) (*models.ScheduledReading, error) {
	if newDuration <= 0 {
		return nil, fmt.Errorf("non-positive duration %d", newDuration)
	}

	reading, err := se.readingRepo.GetByID(ctx, readingID)
	if err != nil {
		return nil, err
	}
	if reading == nil {
		return nil, ErrReadingNotFound
	}

	lock := se.readerLock(reading.ReaderID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock; the reading may have changed while we waited.
	reading, err = se.readingRepo.GetByID(ctx, readingID)
	if err != nil {
		return nil, err
	}
	if reading == nil {
		return nil, ErrReadingNotFound
	}
	if !reading.Active() {
		return nil, ErrInvalidState
	}

	rule, err := se.availabilityFor(ctx, reading.ReaderID)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(rule.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("bad time zone %q for reader %s: %w", rule.TimeZone, reading.ReaderID, err)
	}
	if !withinWindows(rule, loc, newStart, newDuration) {
		return nil, ErrInvalidSlot
	}

	newEnd := newStart.Add(time.Duration(newDuration) * time.Minute)
	overlapping, err := se.readingRepo.FindOverlapping(ctx, reading.ReaderID, newStart, newEnd)
	if err != nil {
		return nil, err
	}
	for i := range overlapping {
		if overlapping[i].ID != readingID {
			return nil, ErrSlotConflict
		}
	}

	rate, err := se.rates.Resolve(reading.ReaderID, reading.ReadingType)
	if err != nil {
		return nil, err
	}

	updated := *reading
	updated.ScheduledAt = newStart
	updated.Duration = newDuration
	updated.Price = rate * int64(newDuration)
	updated.Status = models.ReadingRescheduled
	updated.UpdatedAt = se.clock.Now()
	if err := se.readingRepo.Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to update reading: %w", err)
	}

	se.logger.Info("reading rescheduled",
		zap.String("readingID", readingID), zap.Time("newStart", newStart))
	return &updated, nil
}

// CancelReading marks the reading cancelled. The interval frees itself:
// availability is derived from blocking readings, and a cancelled reading no
// longer blocks.
func (se *DefaultBookingEngine) CancelReading(ctx context.Context, readingID, reason string) error {
	reading, err := se.readingRepo.GetByID(ctx, readingID)
	if err != nil {
		return err
	}
	if reading == nil {
		return ErrReadingNotFound
	}

	lock := se.readerLock(reading.ReaderID)
	lock.Lock()
	defer lock.Unlock()

	reading, err = se.readingRepo.GetByID(ctx, readingID)
	if err != nil {
		return err
	}
	if reading == nil {
		return ErrReadingNotFound
	}
	if reading.Status == models.ReadingCancelled {
		return nil // idempotent
	}
	if reading.Status == models.ReadingCompleted {
		return ErrInvalidState
	}

	updated := *reading
	updated.Status = models.ReadingCancelled
	updated.CancelReason = reason
	updated.UpdatedAt = se.clock.Now()
	if err := se.readingRepo.Update(ctx, updated); err != nil {
		return fmt.Errorf("failed to cancel reading: %w", err)
	}

	se.logger.Info("reading cancelled",
		zap.String("readingID", readingID), zap.String("reason", reason))
	return nil
}

func (se *DefaultBookingEngine) ListReadings(ctx context.Context, userID, role string, statuses []string) ([]models.ScheduledReading, error) {
	return se.readingRepo.ListByUser(ctx, userID, role, statuses)
}

// SetAvailability validates and replaces the reader's recurring rule.
func (se *DefaultBookingEngine) SetAvailability(ctx context.Context, avail models.ReaderAvailability) error {
	if _, err := time.LoadLocation(avail.TimeZone); err != nil {
		return fmt.Errorf("bad time zone %q: %w", avail.TimeZone, err)
	}
	for _, w := range avail.Windows {
		if w.Start < 0 || w.End > 24*60 || w.Start >= w.End {
			return fmt.Errorf("bad availability window [%d, %d)", w.Start, w.End)
		}
	}

	lock := se.readerLock(avail.ReaderID)
	lock.Lock()
	defer lock.Unlock()

	avail.UpdatedAt = se.clock.Now()
	return se.availRepo.Upsert(ctx, avail)
}
