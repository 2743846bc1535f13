package availability

import (
	"context"
	"fmt"
	"iter"
	"time"

	"bookline/models"
	"bookline/services/calendar"
)

// Engine computes bookable slots from business-hours config and fresh busy
// periods. It holds no state between queries: every call refetches from the
// provider so availability always reflects the latest bookings.
type Engine struct {
	Providers calendar.Factory
	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewEngine(providers calendar.Factory) *Engine {
	return &Engine{Providers: providers, Now: time.Now}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// DaySlots returns the free slots for one instance-local date ("2006-01-02"),
// in chronological order. Local time arithmetic uses the instance's fixed UTC
// offset: the stored offset is the source of truth, not timezone-name rules.
func (e *Engine) DaySlots(ctx context.Context, inst *models.Instance, date string) ([]models.AvailabilitySlot, error) {
	loc, err := inst.Location()
	if err != nil {
		return nil, err
	}
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return nil, fmt.Errorf("date must be formatted YYYY-MM-DD: %w", err)
	}

	windowStart, windowEnd, err := inst.WorkdayWindow(day)
	if err != nil {
		return nil, err
	}

	provider, err := e.Providers(ctx, inst)
	if err != nil {
		return nil, err
	}
	buffer := inst.Buffer()
	busy, err := provider.BusyPeriods(ctx, windowStart.Add(-buffer), windowEnd.Add(buffer))
	if err != nil {
		return nil, err
	}

	earliest := e.now().Add(inst.MinLead())
	var slots []models.AvailabilitySlot
	for slot := range slotGrid(windowStart, windowEnd, inst.SlotDuration()) {
		if slot.Start.Before(earliest) {
			continue
		}
		if overlapsAny(slot, busy, buffer) {
			continue
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// Bookable checks whether a specific start instant is a valid free slot right
// now: grid-aligned within the workday, past the minimum lead time, and clear
// of busy periods per a fresh provider query. The string return is a
// guest-presentable reason when the answer is no.
func (e *Engine) Bookable(ctx context.Context, inst *models.Instance, start time.Time) (bool, string, error) {
	loc, err := inst.Location()
	if err != nil {
		return false, "", err
	}
	local := start.In(loc)

	windowStart, windowEnd, err := inst.WorkdayWindow(local)
	if err != nil {
		return false, "", err
	}
	duration := inst.SlotDuration()

	if local.Before(windowStart) || local.Add(duration).After(windowEnd) {
		return false, "that time is outside business hours", nil
	}
	if local.Sub(windowStart)%duration != 0 {
		return false, fmt.Sprintf("appointments start on a %d-minute grid", inst.SlotDurationMins), nil
	}
	if local.Before(e.now().Add(inst.MinLead())) {
		return false, "that time is too soon to book", nil
	}

	provider, err := e.Providers(ctx, inst)
	if err != nil {
		return false, "", err
	}
	buffer := inst.Buffer()
	busy, err := provider.BusyPeriods(ctx, local.Add(-buffer), local.Add(duration).Add(buffer))
	if err != nil {
		return false, "", err
	}

	slot := models.AvailabilitySlot{Start: local, End: local.Add(duration)}
	if overlapsAny(slot, busy, buffer) {
		return false, "that slot is no longer available", nil
	}
	return true, "", nil
}

// slotGrid lazily yields grid-aligned slots from start through end-duration.
// The sequence is finite and restartable: each range re-enumerates from the
// same bounds.
func slotGrid(start, end time.Time, duration time.Duration) iter.Seq[models.AvailabilitySlot] {
	return func(yield func(models.AvailabilitySlot) bool) {
		for s := start; !s.Add(duration).After(end); s = s.Add(duration) {
			if !yield(models.AvailabilitySlot{Start: s, End: s.Add(duration)}) {
				return
			}
		}
	}
}

// overlapsAny reports whether the slot intersects any busy period, padded by
// the configured buffer on both sides.
func overlapsAny(slot models.AvailabilitySlot, busy []calendar.BusyPeriod, buffer time.Duration) bool {
	for _, b := range busy {
		if b.Start.Add(-buffer).Before(slot.End) && b.End.Add(buffer).After(slot.Start) {
			return true
		}
	}
	return false
}
