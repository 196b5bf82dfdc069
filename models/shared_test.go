package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntervalHalfOpenOverlap(t *testing.T) {
	base := Interval{
		Start: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC),
	}

	// Touching boundaries do not overlap.
	after := Interval{Start: base.End, End: base.End.Add(30 * time.Minute)}
	assert.False(t, base.Overlaps(after))
	assert.False(t, after.Overlaps(base))

	inside := Interval{Start: base.Start.Add(10 * time.Minute), End: base.End.Add(10 * time.Minute)}
	assert.True(t, base.Overlaps(inside))
	assert.True(t, inside.Overlaps(base))
}

func TestIntervalExpand(t *testing.T) {
	iv := Interval{
		Start: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC),
	}
	padded := iv.Expand(5 * time.Minute)
	assert.Equal(t, iv.Start.Add(-5*time.Minute), padded.Start)
	assert.Equal(t, iv.End.Add(5*time.Minute), padded.End)
}

func TestClockRange(t *testing.T) {
	r := ClockRange{Start: 9 * 60, End: 17 * 60}
	assert.True(t, r.Contains(9*60, 10*60))
	assert.True(t, r.Contains(16*60+30, 17*60))
	assert.False(t, r.Contains(16*60+45, 17*60+15))

	assert.True(t, r.Overlaps(8*60, 9*60+1))
	assert.False(t, r.Overlaps(8*60, 9*60)) // half-open
	assert.False(t, r.Overlaps(17*60, 18*60))
}

func TestTimeSlot(t *testing.T) {
	ts := TimeSlot{Start: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), Duration: 30 * time.Minute}
	assert.True(t, ts.Valid())
	assert.Equal(t, time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC), ts.End())
	assert.False(t, TimeSlot{Start: ts.Start}.Valid())
}
