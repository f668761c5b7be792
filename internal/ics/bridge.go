package ics

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"kal/internal/calendar"
	"kal/internal/models"
)

const productID = "-//kal//EN"

// ErrEmptyCalendar is returned when exporting a calendar with no appointments.
var ErrEmptyCalendar = errors.New("calendar has no appointments to export")

var uidNamespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("kal"))

// Options anchors the day-of-month appointments to a real month.
type Options struct {
	Year     int
	Month    time.Month
	Location *time.Location
	Duration time.Duration // Length of exported events
	Now      func() time.Time
}

// ImportResult counts the events seen by Import.
type ImportResult struct {
	Imported int
	Skipped  int
}

// Bridge converts between a Calendar and iCalendar documents.
type Bridge struct {
	logger *slog.Logger
	opts   Options
}

// NewBridge creates a Bridge. Missing options default to UTC, one-hour
// events and the wall clock.
func NewBridge(logger *slog.Logger, opts Options) *Bridge {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Duration <= 0 {
		opts.Duration = time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Bridge{logger: logger, opts: opts}
}

// Export writes every appointment of cal as a VEVENT.
func (b *Bridge) Export(w io.Writer, cal *calendar.Calendar) error {
	all := cal.All()
	if len(all) == 0 {
		return ErrEmptyCalendar
	}

	ic := ical.NewCalendar()
	ic.Props.SetText(ical.PropVersion, "2.0")
	ic.Props.SetText(ical.PropProductID, productID)
	stamp := b.opts.Now().UTC()
	for _, a := range all {
		ic.Children = append(ic.Children, b.toICal(a, stamp))
	}

	if err := ical.NewEncoder(w).Encode(ic); err != nil {
		return fmt.Errorf("failed to encode calendar to iCal format: %w", err)
	}
	b.logger.Info("Exported appointments.", "count", len(all), "year", b.opts.Year, "month", b.opts.Month)
	return nil
}

// ExportFile writes the export to path. Nothing is created for an empty
// calendar, and a partly written file is removed.
func (b *Bridge) ExportFile(path string, cal *calendar.Calendar) error {
	if cal.Len() == 0 {
		return ErrEmptyCalendar
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create %s: %w", path, err)
	}
	if err := b.Export(f, cal); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// toICal converts an appointment to a VEVENT component.
func (b *Bridge) toICal(a *models.Appointment, stamp time.Time) *ical.Component {
	start := b.StartOf(a)
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, UID(a))
	ve.Props.SetText(ical.PropSummary, a.Description())
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	ve.Props.SetDateTime(ical.PropDateTimeStart, start)
	ve.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(b.opts.Duration))
	return ve
}

// StartOf places an appointment in the configured month and zone.
func (b *Bridge) StartOf(a *models.Appointment) time.Time {
	t := a.Time()
	return time.Date(b.opts.Year, b.opts.Month, a.Date(), t.Hour(), t.Minute(), 0, 0, b.opts.Location)
}

// Import adds every VEVENT of r that starts in the configured month. Events
// in other months, or without a usable start, are skipped.
func (b *Bridge) Import(r io.Reader, cal *calendar.Calendar) (ImportResult, error) {
	var res ImportResult
	dec := ical.NewDecoder(r)
	for {
		ic, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, fmt.Errorf("failed to decode iCalendar: %w", err)
		}

		for _, ev := range ic.Events() {
			start, err := ev.DateTimeStart(b.opts.Location)
			if err != nil {
				b.logger.Warn("Skipping event without a usable start.", "error", err)
				res.Skipped++
				continue
			}
			start = start.In(b.opts.Location)
			if start.Year() != b.opts.Year || start.Month() != b.opts.Month {
				b.logger.Debug("Skipping event outside the month.", "start", start)
				res.Skipped++
				continue
			}

			summary, err := ev.Props.Text(ical.PropSummary)
			if err != nil {
				b.logger.Warn("Event has an unreadable summary.", "error", err)
			}
			if err := cal.AddAt(start.Day(), models.FromHourMinute(start.Hour(), start.Minute()), flatten(summary)); err != nil {
				return res, fmt.Errorf("failed to add imported event: %w", err)
			}
			res.Imported++
		}
	}
	b.logger.Info("Imported events.", "imported", res.Imported, "skipped", res.Skipped)
	return res, nil
}

// flatten keeps a summary on one line and free of the file's field separator.
func flatten(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, ",", ";")
}

// UID derives a stable identifier from the appointment's date, time and
// description.
func UID(a *models.Appointment) string {
	return uuid.NewSHA1(uidNamespace, []byte(a.Line(false))).String()
}
