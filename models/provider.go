package models

import "time"

// ScheduleConfig describes when a provider can be booked. Weekly and Breaks
// are indexed by time.Weekday (0 = Sunday). An exception entry replaces the
// weekday's working ranges for that date; breaks still apply.
type ScheduleConfig struct {
	Weekly        [7][]ClockRange        `bson:"weekly" json:"weekly"`
	Exceptions    map[string][]ClockRange `bson:"exceptions,omitempty" json:"exceptions,omitempty"` // "2006-01-02" -> ranges
	Breaks        [7][]ClockRange        `bson:"breaks" json:"breaks"`
	BufferMinutes int                    `bson:"buffer_minutes" json:"buffer_minutes"`
}

// WorkingRanges returns the ranges effective on a date, exception first.
func (s ScheduleConfig) WorkingRanges(date time.Time) []ClockRange {
	if ranges, ok := s.Exceptions[date.Format("2006-01-02")]; ok {
		return ranges
	}
	return s.Weekly[date.Weekday()]
}

// BreakRanges returns the break ranges recurring on the date's weekday.
func (s ScheduleConfig) BreakRanges(date time.Time) []ClockRange {
	return s.Breaks[date.Weekday()]
}

// Buffer returns the configured buffer as a duration.
func (s ScheduleConfig) Buffer() time.Duration {
	return time.Duration(s.BufferMinutes) * time.Minute
}

// Provider is a bookable service provider (e.g., a clinic or doctor)
// published by an HSPA.
type Provider struct {
	ID         string         `bson:"id" json:"id"`
	Name       string         `bson:"name" json:"name"`
	HSPAID     string         `bson:"hspa_id" json:"hspa_id"`
	Categories []string       `bson:"categories,omitempty" json:"categories,omitempty"`
	Schedule   ScheduleConfig `bson:"schedule" json:"schedule"`
	Version    int64          `bson:"version" json:"-"`
	CreatedAt  time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `bson:"updated_at" json:"updated_at"`
}
