package models

import "time"

// ClockRange is a half-open [Start, End) range in minutes from midnight.
type ClockRange struct {
	Start int `bson:"start" json:"start"`
	End   int `bson:"end" json:"end"`
}

// Contains reports whether [start, end) lies entirely inside the range.
func (r ClockRange) Contains(start, end int) bool {
	return start >= r.Start && end <= r.End
}

// Overlaps reports whether [start, end) intersects the range, half-open.
func (r ClockRange) Overlaps(start, end int) bool {
	return start < r.End && r.Start < end
}

// Interval is a half-open [Start, End) span of absolute time.
type Interval struct {
	Start time.Time `bson:"start" json:"start"`
	End   time.Time `bson:"end" json:"end"`
}

// Overlaps uses half-open semantics so shared boundaries do not count as a
// conflict.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start.Before(o.End) && o.Start.Before(iv.End)
}

// Expand widens the interval symmetrically by d on both sides.
func (iv Interval) Expand(d time.Duration) Interval {
	return Interval{Start: iv.Start.Add(-d), End: iv.End.Add(d)}
}

// TimeSlot is a start timestamp plus a positive duration.
type TimeSlot struct {
	Start    time.Time     `bson:"start" json:"start"`
	Duration time.Duration `bson:"duration" json:"duration"`
}

// Valid reports whether the slot has a positive duration.
func (ts TimeSlot) Valid() bool { return ts.Duration > 0 }

// End returns the exclusive end of the slot.
func (ts TimeSlot) End() time.Time { return ts.Start.Add(ts.Duration) }

// Interval returns the half-open interval covered by the slot.
func (ts TimeSlot) Interval() Interval {
	return Interval{Start: ts.Start, End: ts.End()}
}

// Money is an amount with its currency.
type Money struct {
	Currency string  `bson:"currency" json:"currency"`
	Value    float64 `bson:"value" json:"value"`
}
