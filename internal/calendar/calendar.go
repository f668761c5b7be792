package calendar

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"kal/internal/models"
)

const (
	// NoFile asks Load for an empty calendar without a save target.
	NoFile = "NONE"

	// DefaultMonthSize is the month size of a calendar loaded from NoFile.
	DefaultMonthSize = 28

	// maxLineSize bounds a single line of a calendar file.
	maxLineSize = 16 * 1024 * 1024
)

// ChangeKind tells observers what happened to an appointment.
type ChangeKind int

const (
	Added ChangeKind = iota
	Removed
)

func (k ChangeKind) String() string {
	if k == Removed {
		return "removed"
	}
	return "added"
}

// Change describes one mutation of a Calendar.
type Change struct {
	Kind        ChangeKind
	Appointment *models.Appointment
}

// Observer is notified synchronously after every Add and Remove.
type Observer interface {
	Update(c *Calendar, change Change) error
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(c *Calendar, change Change) error

func (f ObserverFunc) Update(c *Calendar, change Change) error { return f(c, change) }

// Calendar holds the appointments of a single month.
// The key of appointments is the day of the month.
type Calendar struct {
	logger       *slog.Logger
	monthSize    int
	appointments map[int][]*models.Appointment
	sourceFile   string
	meridiem     bool
	observers    []Observer
}

// New creates an empty calendar that is not bound to a file.
func New(logger *slog.Logger, monthSize int) *Calendar {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Calendar{
		logger:       logger,
		monthSize:    monthSize,
		appointments: make(map[int][]*models.Appointment),
	}
}

// Load reads a calendar file: the month size on the first line, then one
// appointment per line. The path becomes the target of Save. Passing NoFile
// returns an empty calendar of DefaultMonthSize days with no save target.
func Load(logger *slog.Logger, path string) (*Calendar, error) {
	if path == NoFile {
		return New(logger, DefaultMonthSize), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	c, err := read(logger, f)
	if err != nil {
		var fe *models.FormatError
		if errors.As(err, &fe) {
			return nil, fmt.Errorf("failed to load calendar %s: %w", path, err)
		}
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	c.sourceFile = path
	c.logger.Debug("Loaded calendar.", "file", path, "monthSize", c.monthSize, "appointments", c.Len())
	return c, nil
}

func read(logger *slog.Logger, r io.Reader) (*Calendar, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, &models.FormatError{Input: "", Reason: "missing month size"}
	}
	header := strings.TrimSpace(scanner.Text())
	monthSize, err := strconv.Atoi(header)
	if err != nil {
		return nil, &models.FormatError{Input: header, Reason: "month size is not a number", Err: err}
	}

	c := New(logger, monthSize)
	lineNo := 1
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		a, err := models.ParseAppointment(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		c.insert(a)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

// MonthSize returns the number of days in the month.
func (c *Calendar) MonthSize() int { return c.monthSize }

// SourceFile returns the save target, or "" when there is none.
func (c *Calendar) SourceFile() string { return c.sourceFile }

// UseMeridiem selects the clock Save writes times with.
func (c *Calendar) UseMeridiem(on bool) { c.meridiem = on }

// Len returns the number of stored appointments.
func (c *Calendar) Len() int {
	n := 0
	for _, list := range c.appointments {
		n += len(list)
	}
	return n
}

// AppointmentsOn returns the appointments of a date ordered by time. Dates
// with nothing scheduled, including ones outside the month, yield an empty
// slice.
func (c *Calendar) AppointmentsOn(date int) []*models.Appointment {
	list := c.appointments[date]
	slices.SortStableFunc(list, func(a, b *models.Appointment) int {
		return a.Time().Compare(b.Time())
	})
	return slices.Clone(list)
}

// All returns every appointment from day 1 to the last day of the month.
func (c *Calendar) All() []*models.Appointment {
	var all []*models.Appointment
	for date := 1; date <= c.monthSize; date++ {
		all = append(all, c.AppointmentsOn(date)...)
	}
	return all
}

// AddObserver registers o for change notifications.
func (c *Calendar) AddObserver(o Observer) {
	c.observers = append(c.observers, o)
}

// Add stores the appointment under its date and notifies observers.
func (c *Calendar) Add(a *models.Appointment) error {
	c.insert(a)
	c.logger.Debug("Added appointment.", "date", a.Date(), "time", a.Time().Format(false))
	return c.notify(Change{Kind: Added, Appointment: a})
}

// AddAt builds an appointment and adds it.
func (c *Calendar) AddAt(date int, t models.Time, description string) error {
	return c.Add(models.NewAppointment(date, t, description))
}

func (c *Calendar) insert(a *models.Appointment) {
	c.appointments[a.Date()] = append(c.appointments[a.Date()], a)
}

// Remove marks a as removed and drops every appointment on its date that is
// scheduled at the same time, whatever its description. Removing something
// that is not stored only notifies observers.
func (c *Calendar) Remove(a *models.Appointment) error {
	a.MarkRemoved()

	if list, ok := c.appointments[a.Date()]; ok {
		kept := make([]*models.Appointment, 0, len(list))
		for _, stored := range list {
			if stored.Time().Compare(a.Time()) != 0 {
				kept = append(kept, stored)
			}
		}
		c.appointments[a.Date()] = kept
		c.logger.Debug("Removed appointments.", "date", a.Date(), "time", a.Time().Format(false), "count", len(list)-len(kept))
	}

	return c.notify(Change{Kind: Removed, Appointment: a})
}

// notify calls every observer in registration order. A failing observer does
// not stop the others; all failures are returned together.
func (c *Calendar) notify(change Change) error {
	var errs []error
	for _, o := range c.observers {
		if err := o.Update(c, change); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Save writes the calendar back to the file it was loaded from.
func (c *Calendar) Save() error {
	if c.sourceFile == "" {
		return &IOError{Op: "save", Err: ErrNotLoaded}
	}
	if err := c.writeFile(c.sourceFile); err != nil {
		return &IOError{Op: "write", Path: c.sourceFile, Err: err}
	}
	c.logger.Debug("Saved calendar.", "file", c.sourceFile, "appointments", c.Len())
	return nil
}

// WriteTo writes the calendar in file format to w.
func (c *Calendar) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	write := func(s string) error {
		m, err := bw.WriteString(s + "\n")
		n += int64(m)
		return err
	}

	if err := write(strconv.Itoa(c.monthSize)); err != nil {
		return n, err
	}
	for _, a := range c.All() {
		if err := write(a.Line(c.meridiem)); err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// writeFile replaces path through a temp file in the same directory.
func (c *Calendar) writeFile(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".kal-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := c.WriteTo(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
