package ics

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kal/internal/calendar"
	"kal/internal/models"
)

var fixedNow = func() time.Time { return time.Date(2025, 2, 20, 8, 0, 0, 0, time.UTC) }

func marchOptions() Options {
	return Options{
		Year:     2025,
		Month:    time.March,
		Location: time.UTC,
		Duration: 30 * time.Minute,
		Now:      fixedNow,
	}
}

func sampleCalendar(t *testing.T) *calendar.Calendar {
	t.Helper()
	cal := calendar.New(nil, 31)
	require.NoError(t, cal.AddAt(15, models.FromHourMinute(14, 30), "Haircut, short"))
	require.NoError(t, cal.AddAt(15, models.FromHourMinute(9, 0), "Dentist"))
	require.NoError(t, cal.AddAt(2, models.FromHourMinute(7, 15), "Run"))
	return cal
}

func decodeAll(t *testing.T, r io.Reader) []ical.Event {
	t.Helper()
	var events []ical.Event
	dec := ical.NewDecoder(r)
	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return events
		}
		require.NoError(t, err)
		events = append(events, cal.Events()...)
	}
}

func TestExport(t *testing.T) {
	cal := sampleCalendar(t)
	var buf bytes.Buffer
	require.NoError(t, NewBridge(nil, marchOptions()).Export(&buf, cal))

	events := decodeAll(t, &buf)
	require.Len(t, events, 3)

	wantSummaries := []string{"Run", "Dentist", "Haircut, short"}
	wantStarts := []time.Time{
		time.Date(2025, 3, 2, 7, 15, 0, 0, time.UTC),
		time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC),
	}
	for i, ev := range events {
		summary, err := ev.Props.Text(ical.PropSummary)
		require.NoError(t, err)
		assert.Equal(t, wantSummaries[i], summary)

		start, err := ev.DateTimeStart(time.UTC)
		require.NoError(t, err)
		assert.True(t, wantStarts[i].Equal(start), "start %v", start)

		end, err := ev.DateTimeEnd(time.UTC)
		require.NoError(t, err)
		assert.Equal(t, 30*time.Minute, end.Sub(start))

		uid, err := ev.Props.Text(ical.PropUID)
		require.NoError(t, err)
		assert.Equal(t, UID(cal.All()[i]), uid)
	}
}

func TestExport_Empty(t *testing.T) {
	err := NewBridge(nil, marchOptions()).Export(io.Discard, calendar.New(nil, 30))
	assert.ErrorIs(t, err, ErrEmptyCalendar)
}

func TestImport_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	b := NewBridge(nil, marchOptions())
	require.NoError(t, b.Export(&buf, sampleCalendar(t)))

	target := calendar.New(nil, 31)
	res, err := b.Import(&buf, target)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Imported: 3}, res)

	got := target.AppointmentsOn(15)
	require.Len(t, got, 2)
	assert.Equal(t, "Dentist", got[0].Description())
	assert.Equal(t, "09:00", got[0].Time().Format(false))
	assert.Equal(t, "Haircut; short", got[1].Description())
	assert.Len(t, target.AppointmentsOn(2), 1)
}

func TestImport_SkipsOtherMonths(t *testing.T) {
	var buf bytes.Buffer
	aprilOpts := marchOptions()
	aprilOpts.Month = time.April
	require.NoError(t, NewBridge(nil, aprilOpts).Export(&buf, sampleCalendar(t)))

	target := calendar.New(nil, 31)
	res, err := NewBridge(nil, marchOptions()).Import(&buf, target)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Skipped: 3}, res)
	assert.Zero(t, target.Len())
}

func TestImport_Malformed(t *testing.T) {
	_, err := NewBridge(nil, marchOptions()).Import(bytes.NewBufferString("BEGIN:VCALENDAR\nnot a property\n"), calendar.New(nil, 31))
	assert.Error(t, err)
}

func TestUID_Stable(t *testing.T) {
	a := models.NewAppointment(15, models.FromHourMinute(9, 0), "Dentist")
	b := models.NewAppointment(15, models.FromHourMinute(9, 0), "Dentist")
	c := models.NewAppointment(15, models.FromHourMinute(9, 0), "Doctor")

	assert.Equal(t, UID(a), UID(b))
	assert.NotEqual(t, UID(a), UID(c))
}

func TestNewBridge_Defaults(t *testing.T) {
	b := NewBridge(nil, Options{Year: 2025, Month: time.March})
	a := models.NewAppointment(1, models.FromHourMinute(9, 30), "x")

	start := b.StartOf(a)
	assert.Equal(t, time.UTC, start.Location())
	assert.Equal(t, time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC), start)
}

func TestExportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "march.ics")
	require.NoError(t, NewBridge(nil, marchOptions()).ExportFile(path, sampleCalendar(t)))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, decodeAll(t, f), 3)
}

func TestExportFile_EmptyCreatesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "march.ics")
	err := NewBridge(nil, marchOptions()).ExportFile(path, calendar.New(nil, 30))
	assert.ErrorIs(t, err, ErrEmptyCalendar)
	assert.NoFileExists(t, path)
}

func TestExportFile_OnlyOutsideMonthRemovesFile(t *testing.T) {
	cal := calendar.New(nil, 28)
	require.NoError(t, cal.AddAt(30, models.FromHourMinute(9, 0), "past the last day"))

	path := filepath.Join(t.TempDir(), "march.ics")
	err := NewBridge(nil, marchOptions()).ExportFile(path, cal)
	assert.ErrorIs(t, err, ErrEmptyCalendar)
	assert.NoFileExists(t, path)
}
