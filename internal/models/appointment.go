package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Appointment is a single entry in a month calendar.
type Appointment struct {
	date        int    // Day of the month
	time        Time   // Time of day
	description string // Free text; a comma only survives as the last field
	removed     bool   // Set when a calendar drops this appointment
}

// lineBreaks would split a serialized appointment across file lines.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// NewAppointment creates an appointment that has not been removed. Line
// breaks in the description become spaces.
func NewAppointment(date int, t Time, description string) *Appointment {
	return &Appointment{date: date, time: t, description: lineBreaks.Replace(description)}
}

// ParseAppointment reads a "date,time,description" line as produced by Line.
// The time field may be "H:MM" or "H:MM AM|PM"; without a meridiem the hour
// and minute are used verbatim, without bounds checks.
func ParseAppointment(line string) (*Appointment, error) {
	fields := strings.SplitN(line, ",", 3)
	if len(fields) < 3 {
		return nil, formatError(line, "expected date,time,description", nil)
	}

	date, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return nil, formatError(line, "date is not a number", err)
	}

	t, err := parseTimeField(line, fields[1])
	if err != nil {
		return nil, err
	}
	return NewAppointment(date, t, fields[2]), nil
}

func parseTimeField(line, field string) (Time, error) {
	parts := strings.Split(field, ":")
	if len(parts) != 2 {
		return Time{}, formatError(line, "time must have exactly one colon", nil)
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Time{}, formatError(line, "hour is not a number", err)
	}

	tokens := strings.Fields(parts[1])
	if len(tokens) == 0 || len(tokens) > 2 {
		return Time{}, formatError(line, "expected minutes and an optional AM/PM", nil)
	}
	minute, err := strconv.Atoi(tokens[0])
	if err != nil {
		return Time{}, formatError(line, "minute is not a number", err)
	}
	if len(tokens) == 1 {
		return FromHourMinute(hour, minute), nil
	}

	m, ok := ParseMeridiem(tokens[1])
	if !ok {
		return Time{}, formatError(line, "meridiem must be AM or PM", nil)
	}
	return FromHourMinuteMeridiem(hour, minute, m), nil
}

// Date returns the day of the month.
func (a *Appointment) Date() int { return a.date }

// Time returns the time of day.
func (a *Appointment) Time() Time { return a.time }

// Description returns the free-text description.
func (a *Appointment) Description() string { return a.description }

// MarkRemoved flags the appointment as just removed from a calendar.
func (a *Appointment) MarkRemoved() { a.removed = true }

// Removed reports whether MarkRemoved has been called.
func (a *Appointment) Removed() bool { return a.removed }

// Compare orders by date, then by time. Descriptions are ignored.
func (a *Appointment) Compare(other *Appointment) int {
	if a.date != other.date {
		if a.date < other.date {
			return -1
		}
		return 1
	}
	return a.time.Compare(other.time)
}

// Equal reports whether date, time and description all match. The removed
// flag is not compared.
func (a *Appointment) Equal(other *Appointment) bool {
	if other == nil {
		return false
	}
	return a.date == other.date && a.time == other.time && a.description == other.description
}

// Line serializes the appointment for the calendar file.
func (a *Appointment) Line(meridiem bool) string {
	return strconv.Itoa(a.date) + "," + a.time.Format(meridiem) + "," + a.description
}

func (a *Appointment) String() string {
	return fmt.Sprintf("on %d %s %s", a.date, a.time, a.description)
}
