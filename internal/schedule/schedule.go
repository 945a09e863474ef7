package schedule

import (
	"fmt"
	"time"
)

// Policy holds the scheduling knobs applied to every availability query.
type Policy struct {
	MaxDaysInAdvance int    // how far ahead meetings can be booked
	MinHoursNotice   int    // minimum lead time before a slot may start
	MeetingDuration  int    // meeting length in minutes
	SlotInterval     int    // minutes between candidate slot starts
	Timezone         string // IANA name attached to outgoing calendar events
}

// DayHours is a working window on a single weekday, wall-clock "HH:MM".
type DayHours struct {
	Start string
	End   string
}

// WorkingHours maps weekdays to working windows. A missing weekday is closed.
type WorkingHours map[time.Weekday]DayHours

// BusyInterval is an externally reported period during which the calendar
// owner is unavailable. Intervals may overlap and arrive in any order.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// Slot is a bookable meeting window. End is always Start plus the configured
// meeting duration.
type Slot struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Display string    `json:"display"`
}

// AvailableDates returns the bookable days of a month as "YYYY-MM-DD"
// strings. A day qualifies when its end-of-day instant falls inside
// [now+minNotice, now+maxDaysInAdvance] and working hours exist for its
// weekday. The result is recomputed statelessly on every call.
func AvailableDates(month time.Month, year int, now time.Time, p Policy, hours WorkingHours) []string {
	minTime := now.Add(time.Duration(p.MinHoursNotice) * time.Hour)
	maxTime := now.Add(time.Duration(p.MaxDaysInAdvance) * 24 * time.Hour)

	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, now.Location()).Day()

	var dates []string
	for day := 1; day <= daysInMonth; day++ {
		endOfDay := time.Date(year, month, day, 23, 59, 59, 999000000, now.Location())
		if endOfDay.Before(minTime) || endOfDay.After(maxTime) {
			continue
		}
		if _, open := hours[endOfDay.Weekday()]; !open {
			continue
		}
		dates = append(dates, fmt.Sprintf("%04d-%02d-%02d", year, int(month), day))
	}
	return dates
}

// FreeSlots walks candidate starts across the working window of the given day
// and keeps those that respect the notice period and overlap no busy
// interval. Candidates step by SlotInterval, not by meeting duration, so
// consecutive slots may overlap or leave gaps depending on configuration.
func FreeSlots(year int, month time.Month, day int, hours WorkingHours, p Policy, busy []BusyInterval, now time.Time) ([]Slot, error) {
	weekday := time.Date(year, month, day, 0, 0, 0, 0, now.Location()).Weekday()
	window, open := hours[weekday]
	if !open {
		return nil, nil
	}

	startMins, err := minutesOfDay(window.Start)
	if err != nil {
		return nil, err
	}
	endMins, err := minutesOfDay(window.End)
	if err != nil {
		return nil, err
	}
	if endMins <= startMins {
		return nil, fmt.Errorf("working hours end %q not after start %q", window.End, window.Start)
	}

	minTime := now.Add(time.Duration(p.MinHoursNotice) * time.Hour)
	duration := time.Duration(p.MeetingDuration) * time.Minute

	var slots []Slot
	for cur := startMins; cur <= endMins-p.MeetingDuration; cur += p.SlotInterval {
		hour, min := cur/60, cur%60
		slotStart := time.Date(year, month, day, hour, min, 0, 0, now.Location())
		slotEnd := slotStart.Add(duration)

		if !slotStart.After(minTime) {
			continue
		}
		if overlapsAny(slotStart, slotEnd, busy) {
			continue
		}
		slots = append(slots, Slot{
			Start:   slotStart,
			End:     slotEnd,
			Display: displayTime(hour, min),
		})
	}
	return slots, nil
}

// overlapsAny applies the half-open overlap test: touching endpoints do not
// count as a conflict.
func overlapsAny(start, end time.Time, busy []BusyInterval) bool {
	for _, b := range busy {
		if start.Before(b.End) && end.After(b.Start) {
			return true
		}
	}
	return false
}

func minutesOfDay(s string) (int, error) {
	if len(s) < 5 {
		return 0, fmt.Errorf("invalid time string: %s", s)
	}
	tt, err := time.Parse("15:04", s[:5])
	if err != nil {
		return 0, err
	}
	return tt.Hour()*60 + tt.Minute(), nil
}

// displayTime renders a 12-hour clock label, e.g. "9:00 AM" or "1:05 PM".
func displayTime(hour, min int) string {
	displayHour := hour
	switch {
	case hour > 12:
		displayHour = hour - 12
	case hour == 0:
		displayHour = 12
	}
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", displayHour, min, period)
}
