package availability

import (
	"testing"
	"time"

	"caregate/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindSlotsEnumeratesGrid(t *testing.T) {
	cfg := models.ScheduleConfig{}
	for d := 0; d < 7; d++ {
		cfg.Weekly[d] = []models.ClockRange{{Start: 9 * 60, End: 11 * 60}}
	}

	eng := Engine{Granularity: 30 * time.Minute, Horizon: 30 * 24 * time.Hour}
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	slots := eng.FindSlots(cfg, nil, from, to, 30*time.Minute)
	require.Len(t, slots, 4)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), slots[0].Start)
	assert.Equal(t, time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC), slots[3].Start)
	for i := 1; i < len(slots); i++ {
		assert.True(t, slots[i-1].Start.Before(slots[i].Start), "slots must be chronological")
	}
}

func TestFindSlotsSkipsBookedAndBuffered(t *testing.T) {
	cfg := workdaySchedule(5)
	eng := Engine{Granularity: 30 * time.Minute, Horizon: 30 * 24 * time.Hour}
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	existing := []models.Fulfillment{scheduledAt(t, "2026-03-02", "10:00", 30*time.Minute)}

	slots := eng.FindSlots(cfg, existing, from, to, 30*time.Minute)
	for _, s := range slots {
		// 09:30 ends inside the head buffer, 10:00 is taken, 10:30 starts
		// inside the tail buffer.
		assert.NotEqual(t, 9*60+30, minuteOfDay(s.Start))
		assert.NotEqual(t, 10*60, minuteOfDay(s.Start))
		assert.NotEqual(t, 10*60+30, minuteOfDay(s.Start))
	}
	assert.NotEmpty(t, slots)
}

func TestFindSlotsHorizonClamp(t *testing.T) {
	cfg := workdaySchedule(0)
	eng := Engine{Granularity: time.Hour, Horizon: 24 * time.Hour}
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 14)

	slots := eng.FindSlots(cfg, nil, from, to, time.Hour)
	require.NotEmpty(t, slots)
	for _, s := range slots {
		assert.True(t, s.Start.Before(from.Add(24*time.Hour)), "slot %v beyond horizon", s.Start)
	}
}

func TestFindSlotsEmptyWindow(t *testing.T) {
	cfg := workdaySchedule(0)
	eng := Engine{Granularity: 30 * time.Minute, Horizon: 24 * time.Hour}
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	assert.Nil(t, eng.FindSlots(cfg, nil, from, from, 30*time.Minute))
	assert.Nil(t, eng.FindSlots(cfg, nil, from.AddDate(0, 0, 1), from, 30*time.Minute))
	assert.Nil(t, eng.FindSlots(cfg, nil, from, from.AddDate(0, 0, 1), 0))
}
