package scheduling

import (
	"context"
	"fmt"
	"sort"
	"time"

	"soulseer/models"

	"go.uber.org/zap"
)

// DefaultWindows mirror the fallback schedule offered to readers who have
// not configured availability yet: weekday mornings 9-12 and afternoons 2-6.
var DefaultWindows = []models.AvailabilityWindow{
	{Weekday: time.Monday, Start: 540, End: 720},
	{Weekday: time.Monday, Start: 840, End: 1080},
	{Weekday: time.Tuesday, Start: 540, End: 720},
	{Weekday: time.Tuesday, Start: 840, End: 1080},
	{Weekday: time.Wednesday, Start: 540, End: 720},
	{Weekday: time.Wednesday, Start: 840, End: 1080},
	{Weekday: time.Thursday, Start: 540, End: 720},
	{Weekday: time.Thursday, Start: 840, End: 1080},
	{Weekday: time.Friday, Start: 540, End: 720},
	{Weekday: time.Friday, Start: 840, End: 1080},
}

const defaultTimeZone = "America/New_York"

// availabilityFor loads the reader's rule, falling back to the default
// weekday schedule when none is configured.
func (se *DefaultBookingEngine) availabilityFor(ctx context.Context, readerID string) (models.ReaderAvailability, error) {
	rule, err := se.availRepo.GetByReader(ctx, readerID)
	if err != nil {
		return models.ReaderAvailability{}, err
	}
	if rule == nil {
		return models.ReaderAvailability{
			ReaderID: readerID,
			TimeZone: defaultTimeZone,
			Windows:  DefaultWindows,
		}, nil
	}
	return *rule, nil
}

// GenerateSlots derives the bookable slots for a reader. The same inputs and
// bookings snapshot always yield the same sequence: slot ids are derived from
// the reader and start instant, ordering is chronological, and no randomness
// is involved.
func (se *DefaultBookingEngine) GenerateSlots(ctx context.Context, readerID, readingType string, from, to time.Time, duration int) ([]models.TimeSlot, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("non-positive slot duration %d", duration)
	}
	rule, err := se.availabilityFor(ctx, readerID)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(rule.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("bad time zone %q for reader %s: %w", rule.TimeZone, readerID, err)
	}

	rate, err := se.rates.Resolve(readerID, readingType)
	if err != nil {
		return nil, err
	}
	price := rate * int64(duration)

	booked, err := se.readingRepo.FindOverlapping(ctx, readerID, from, to)
	if err != nil {
		return nil, err
	}

	now := se.clock.Now()
	var slots []models.TimeSlot

	day := time.Date(from.In(loc).Year(), from.In(loc).Month(), from.In(loc).Day(), 0, 0, 0, 0, loc)
	for ; day.Before(to); day = day.AddDate(0, 0, 1) {
		for _, w := range rule.Windows {
			if w.Weekday != day.Weekday() {
				continue
			}
			for m := w.Start; m+duration <= w.End; m += duration {
				start := day.Add(time.Duration(m) * time.Minute)
				end := start.Add(time.Duration(duration) * time.Minute)
				if start.Before(from) || end.After(to) || !start.After(now) {
					continue
				}
				if overlapsAny(booked, start, end) {
					continue
				}
				slots = append(slots, models.TimeSlot{
					ID:       fmt.Sprintf("slot_%s_%d", readerID, start.Unix()),
					ReaderID: readerID,
					Start:    start,
					End:      end,
					Duration: duration,
					Price:    price,
				})
			}
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
	se.logger.Debug("generated slots",
		zap.String("readerID", readerID), zap.Int("count", len(slots)))
	return slots, nil
}

// withinWindows reports whether [start, start+duration) sits inside one of
// the reader's availability windows.
func withinWindows(rule models.ReaderAvailability, loc *time.Location, start time.Time, duration int) bool {
	local := start.In(loc)
	startMin := local.Hour()*60 + local.Minute()
	for _, w := range rule.Windows {
		if w.Weekday == local.Weekday() && startMin >= w.Start && startMin+duration <= w.End {
			return true
		}
	}
	return false
}

func overlapsAny(readings []models.ScheduledReading, start, end time.Time) bool {
	for i := range readings {
		s, e := readings[i].Interval()
		if s.Before(end) && e.After(start) {
			return true
		}
	}
	return false
}
