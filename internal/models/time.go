package models

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
)

// Clock constants.
const (
	HoursPerDay    = 24              // Hours in a day
	HalfDayHours   = HoursPerDay / 2 // Hours before a 12-hour clock wraps
	MinutesPerHour = 60              // Minutes in an hour
)

// Meridiem is the AM/PM indicator of a 12-hour clock reading.
type Meridiem int

const (
	AM Meridiem = iota
	PM
)

func (m Meridiem) String() string {
	if m == PM {
		return "PM"
	}
	return "AM"
}

// ParseMeridiem accepts "AM" or "PM" in any letter case.
func ParseMeridiem(s string) (Meridiem, bool) {
	switch strings.ToUpper(s) {
	case "AM":
		return AM, true
	case "PM":
		return PM, true
	}
	return AM, false
}

var meridiemDisplay atomic.Bool

// SetMeridiemDisplay changes the clock used by Time.String and returns the
// previous setting, so callers can restore it.
func SetMeridiemDisplay(on bool) bool {
	return meridiemDisplay.Swap(on)
}

// MeridiemDisplay reports whether Time.String renders 12-hour times.
func MeridiemDisplay() bool {
	return meridiemDisplay.Load()
}

// Time is a time of day with minute resolution, stored as minutes since
// midnight on a 24-hour clock.
type Time struct {
	minutes int
}

// FromMinutes builds a Time from minutes since midnight. The value is not
// range checked.
func FromMinutes(minutes int) Time {
	return Time{minutes: minutes}
}

// FromHourMinute builds a Time from 24-hour fields. Like FromMinutes it does
// not validate its arguments; only ParseTime enforces bounds.
func FromHourMinute(hour, minute int) Time {
	return FromMinutes(hour*MinutesPerHour + minute)
}

// FromHourMinuteMeridiem builds a Time from a 12-hour reading. Hour 12 is
// midnight or noon, and hour 0 is accepted as an alias for 12.
func FromHourMinuteMeridiem(hour, minute int, m Meridiem) Time {
	if hour == HalfDayHours {
		hour = 0
	}
	if m == PM {
		hour += HalfDayHours
	}
	return FromHourMinute(hour, minute)
}

// ParseTime reads "H:MM" (24-hour) or "H:MM AM|PM" (12-hour).
func ParseTime(text string) (Time, error) {
	parts := strings.Split(text, ":")
	if len(parts) != 2 {
		return Time{}, formatError(text, "time must have exactly one colon", nil)
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Time{}, formatError(text, "hour is not a number", err)
	}

	sub := strings.Fields(parts[1])
	if len(sub) == 0 || len(sub) > 2 {
		return Time{}, formatError(text, "expected minutes and an optional AM/PM", nil)
	}
	minute, err := strconv.Atoi(sub[0])
	if err != nil {
		return Time{}, formatError(text, "minute is not a number", err)
	}

	if len(sub) == 2 {
		m, ok := ParseMeridiem(sub[1])
		if !ok {
			return Time{}, formatError(text, "meridiem must be AM or PM", nil)
		}
		switch {
		case m == AM && hour == HalfDayHours:
			hour = 0
		case m == PM && hour != HalfDayHours:
			hour += HalfDayHours
		}
	}

	if hour < 0 || hour >= HoursPerDay || minute < 0 || minute >= MinutesPerHour {
		return Time{}, formatError(text, fmt.Sprintf("bad time %d:%d", hour, minute), nil)
	}
	return FromHourMinute(hour, minute), nil
}

// Minutes returns the minutes since midnight.
func (t Time) Minutes() int { return t.minutes }

// Hour returns the hour on a 24-hour clock.
func (t Time) Hour() int { return t.minutes / MinutesPerHour }

// Minute returns the minutes past the hour.
func (t Time) Minute() int { return t.minutes % MinutesPerHour }

// Compare returns the difference in minutes between t and other.
func (t Time) Compare(other Time) int {
	return t.minutes - other.minutes
}

// Format renders "HH:MM", or "H:MM AM"/"H:MM PM" when meridiem is set.
// On a 12-hour clock hour 0 is shown as 12.
func (t Time) Format(meridiem bool) string {
	hour, minute := t.Hour(), t.Minute()
	if !meridiem {
		return fmt.Sprintf("%02d:%02d", hour, minute)
	}
	m := AM
	if hour >= HalfDayHours {
		m = PM
		hour -= HalfDayHours
	}
	if hour == 0 {
		hour = HalfDayHours
	}
	return fmt.Sprintf("%d:%02d %s", hour, minute, m)
}

// String formats t with the process-wide clock setting.
func (t Time) String() string {
	return t.Format(MeridiemDisplay())
}
