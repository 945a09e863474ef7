package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPolicy = Policy{
	MaxDaysInAdvance: 15,
	MinHoursNotice:   4,
	MeetingDuration:  45,
	SlotInterval:     45,
	Timezone:         "Asia/Kolkata",
}

var weekdayHours = WorkingHours{
	time.Monday:    {Start: "09:00", End: "17:00"},
	time.Tuesday:   {Start: "09:00", End: "17:00"},
	time.Wednesday: {Start: "09:00", End: "17:00"},
	time.Thursday:  {Start: "09:00", End: "17:00"},
	time.Friday:    {Start: "09:00", End: "17:00"},
}

func TestAvailableDatesRespectsWindowAndWeekdays(t *testing.T) {
	// Monday June 1 2026, 08:00 UTC.
	now := time.Date(2026, time.June, 1, 8, 0, 0, 0, time.UTC)

	dates := AvailableDates(time.June, 2026, now, testPolicy, weekdayHours)
	require.NotEmpty(t, dates)

	// June 6 and 7 are Saturday/Sunday with no working hours.
	assert.NotContains(t, dates, "2026-06-06")
	assert.NotContains(t, dates, "2026-06-07")
	// The horizon ends June 16 08:00; June 16's end-of-day falls past it.
	assert.Contains(t, dates, "2026-06-15")
	assert.NotContains(t, dates, "2026-06-16")
	// Today qualifies because end-of-day is past now+4h.
	assert.Contains(t, dates, "2026-06-01")
}

func TestAvailableDatesExcludesPastMonth(t *testing.T) {
	now := time.Date(2026, time.June, 20, 8, 0, 0, 0, time.UTC)
	dates := AvailableDates(time.May, 2026, now, testPolicy, weekdayHours)
	assert.Empty(t, dates)
}

func TestFreeSlotsNoticeAndClosingBounds(t *testing.T) {
	// Monday 08:00: with 4h notice the first slot must start after 12:00,
	// and with a 45-minute meeting the last can start at 16:15 at the latest.
	now := time.Date(2026, time.June, 1, 8, 0, 0, 0, time.UTC)

	slots, err := FreeSlots(2026, time.June, 1, weekdayHours, testPolicy, nil, now)
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	first := slots[0].Start
	last := slots[len(slots)-1].Start
	assert.False(t, first.Before(time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)))
	assert.False(t, last.After(time.Date(2026, time.June, 1, 16, 15, 0, 0, time.UTC)))

	for _, s := range slots {
		assert.Equal(t, 45*time.Minute, s.End.Sub(s.Start))
		assert.True(t, s.Start.After(now.Add(4*time.Hour)))
	}
}

func TestFreeSlotsExcludesOverlappingBusy(t *testing.T) {
	hours := WorkingHours{time.Monday: {Start: "10:00", End: "12:15"}}
	now := time.Date(2026, time.June, 1, 1, 0, 0, 0, time.UTC)
	busy := []BusyInterval{{
		Start: time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2026, time.June, 1, 10, 30, 0, 0, time.UTC),
	}}

	slots, err := FreeSlots(2026, time.June, 1, hours, testPolicy, busy, now)
	require.NoError(t, err)

	starts := make([]string, 0, len(slots))
	for _, s := range slots {
		starts = append(starts, s.Start.Format("15:04"))
	}
	// [10:00,10:45) overlaps the busy period; [10:45,11:30) touches its end
	// and is kept under half-open semantics.
	assert.NotContains(t, starts, "10:00")
	assert.Contains(t, starts, "10:45")
}

func TestFreeSlotsClosedWeekday(t *testing.T) {
	now := time.Date(2026, time.June, 1, 8, 0, 0, 0, time.UTC)
	// June 6 2026 is a Saturday, absent from the table.
	slots, err := FreeSlots(2026, time.June, 6, weekdayHours, testPolicy, nil, now)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestFreeSlotsIdempotent(t *testing.T) {
	now := time.Date(2026, time.June, 1, 8, 0, 0, 0, time.UTC)
	busy := []BusyInterval{{
		Start: time.Date(2026, time.June, 1, 13, 0, 0, 0, time.UTC),
		End:   time.Date(2026, time.June, 1, 14, 0, 0, 0, time.UTC),
	}}

	a, err := FreeSlots(2026, time.June, 1, weekdayHours, testPolicy, busy, now)
	require.NoError(t, err)
	b, err := FreeSlots(2026, time.June, 1, weekdayHours, testPolicy, busy, now)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFreeSlotsNeverOverlapBusy(t *testing.T) {
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	busy := []BusyInterval{
		{Start: time.Date(2026, time.June, 1, 9, 30, 0, 0, time.UTC), End: time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)},
		{Start: time.Date(2026, time.June, 1, 14, 0, 0, 0, time.UTC), End: time.Date(2026, time.June, 1, 16, 0, 0, 0, time.UTC)},
	}

	slots, err := FreeSlots(2026, time.June, 1, weekdayHours, testPolicy, busy, now)
	require.NoError(t, err)
	for _, s := range slots {
		for _, b := range busy {
			overlap := s.Start.Before(b.End) && s.End.After(b.Start)
			assert.False(t, overlap, "slot %s overlaps busy %s", s.Display, b.Start)
		}
	}
}

func TestFreeSlotsInvalidWindow(t *testing.T) {
	hours := WorkingHours{time.Monday: {Start: "17:00", End: "09:00"}}
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	_, err := FreeSlots(2026, time.June, 1, hours, testPolicy, nil, now)
	assert.Error(t, err)
}

func TestDisplayTime(t *testing.T) {
	assert.Equal(t, "12:00 AM", displayTime(0, 0))
	assert.Equal(t, "9:05 AM", displayTime(9, 5))
	assert.Equal(t, "12:30 PM", displayTime(12, 30))
	assert.Equal(t, "1:00 PM", displayTime(13, 0))
	assert.Equal(t, "11:45 PM", displayTime(23, 45))
}
