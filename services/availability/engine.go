package availability

import (
	"time"

	"caregate/models"
)

// Check decides whether a slot can be booked against a provider's
// schedule and current load. Three rules, all on half-open intervals:
//
//  1. the slot lies inside a single working range effective that date,
//  2. the slot does not intersect any recurring break,
//  3. the slot, widened by the buffer on both sides, does not overlap
//     any active fulfillment.
//
// A slot that spans midnight fails rule 1 because no working range
// crosses a date boundary. Working ranges and breaks are minute-of-day
// values, so a slot that is not minute-aligned is rejected outright
// rather than silently truncated into the grid.
func Check(cfg models.ScheduleConfig, existing []models.Fulfillment, slot models.TimeSlot) bool {
	if !slot.Valid() || !minuteAligned(slot) {
		return false
	}

	startMin := minuteOfDay(slot.Start)
	endMin := startMin + int(slot.Duration/time.Minute)
	if endMin > 24*60 {
		return false
	}

	within := false
	for _, r := range cfg.WorkingRanges(slot.Start) {
		if r.Contains(startMin, endMin) {
			within = true
			break
		}
	}
	if !within {
		return false
	}

	for _, b := range cfg.BreakRanges(slot.Start) {
		if b.Overlaps(startMin, endMin) {
			return false
		}
	}

	padded := slot.Interval().Expand(cfg.Buffer())
	for _, f := range existing {
		if !f.State.Active() {
			continue
		}
		if padded.Overlaps(f.Slot.Interval()) {
			return false
		}
	}
	return true
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func minuteAligned(slot models.TimeSlot) bool {
	return slot.Start.Second() == 0 && slot.Start.Nanosecond() == 0 &&
		slot.Duration%time.Minute == 0
}
