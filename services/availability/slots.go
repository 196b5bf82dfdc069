package availability

import (
	"time"

	"caregate/models"
)

// Engine enumerates bookable slots on a fixed granularity grid.
type Engine struct {
	// Granularity is the step between candidate slot starts.
	Granularity time.Duration
	// Horizon caps how far ahead of `from` enumeration may reach.
	Horizon time.Duration
}

// FindSlots returns every free slot of the given duration whose start lies
// in [from, to), in chronological order. Candidates are aligned to the
// granularity grid counted from midnight of each day, and the window is
// clamped to the engine's horizon.
func (e Engine) FindSlots(cfg models.ScheduleConfig, existing []models.Fulfillment, from, to time.Time, duration time.Duration) []models.TimeSlot {
	if duration <= 0 || e.Granularity <= 0 || !from.Before(to) {
		return nil
	}
	if limit := from.Add(e.Horizon); e.Horizon > 0 && limit.Before(to) {
		to = limit
	}

	var out []models.TimeSlot
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	for ; day.Before(to); day = day.AddDate(0, 0, 1) {
		for _, r := range cfg.WorkingRanges(day) {
			for m := alignUp(r.Start, int(e.Granularity/time.Minute)); m < r.End; m += int(e.Granularity / time.Minute) {
				start := day.Add(time.Duration(m) * time.Minute)
				if start.Before(from) || !start.Before(to) {
					continue
				}
				slot := models.TimeSlot{Start: start, Duration: duration}
				if Check(cfg, existing, slot) {
					out = append(out, slot)
				}
			}
		}
	}
	return out
}

func alignUp(minute, step int) int {
	if rem := minute % step; rem != 0 {
		return minute + step - rem
	}
	return minute
}
