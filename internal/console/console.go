package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"kal/internal/calendar"
	"kal/internal/models"
)

const Prompt = "Kal> "

type command struct {
	name   string
	usage  string
	action func(c *Console, args string) error
}

// commands in the order help lists them. Filled in init because help
// refers back to the table.
var commands []command

func init() {
	commands = []command{
		{"new", "new date,time,appointment", (*Console).newAppointment},
		{"show", "show [date]", (*Console).show},
		{"remove", "remove date,time", (*Console).removeAppointment},
		{"save", "save", (*Console).save},
		{"help", "help", (*Console).help},
		{"quit", "quit", nil},
	}
}

// Console is a line-oriented front end for a Calendar.
type Console struct {
	logger *slog.Logger
	cal    *calendar.Calendar
	in     *bufio.Scanner
	out    io.Writer
}

// New creates a Console reading commands from in and registers it as an
// observer of cal.
func New(logger *slog.Logger, cal *calendar.Calendar, in io.Reader, out io.Writer) *Console {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Console{
		logger: logger,
		cal:    cal,
		in:     bufio.NewScanner(in),
		out:    out,
	}
	cal.AddObserver(c)
	return c
}

// Update prints the state of the date that changed.
func (c *Console) Update(cal *calendar.Calendar, change calendar.Change) error {
	if change.Kind == calendar.Removed {
		_, err := fmt.Fprintf(c.out, "Removed %s\n", change.Appointment)
		return err
	}
	return c.print(cal.AppointmentsOn(change.Appointment.Date()))
}

// Run reads and executes commands until quit, end of input or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, "Hi, this is Kal!")
	defer fmt.Fprintln(c.out, "Calendar shutting down.")

	for {
		fmt.Fprint(c.out, Prompt)
		if err := ctx.Err(); err != nil {
			return err
		}
		if !c.in.Scan() {
			return c.in.Err()
		}

		name, args, _ := strings.Cut(strings.TrimSpace(c.in.Text()), " ")
		if name == "" {
			continue
		}
		cmd, ok := lookup(name)
		if !ok {
			c.help("")
			continue
		}
		if cmd.action == nil {
			return nil
		}
		if err := cmd.action(c, strings.TrimSpace(args)); err != nil {
			c.logger.Debug("Console command failed.", "command", name, "error", err)
			fmt.Fprintf(c.out, "Action failed: %v\n", err)
		}
	}
}

func lookup(name string) (command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

func (c *Console) help(string) error {
	for _, cmd := range commands {
		fmt.Fprintf(c.out, "%10s: %s\n", cmd.name, cmd.usage)
	}
	return nil
}

func (c *Console) newAppointment(args string) error {
	parts := strings.SplitN(args, ",", 3)
	if len(parts) != 3 {
		return errors.New("usage: new date,time,appointment")
	}
	date, t, err := ParseDateTime(parts[0], parts[1])
	if err != nil {
		return err
	}
	return c.cal.AddAt(date, t, strings.TrimSpace(parts[2]))
}

// removeAppointment drops whatever is scheduled at the given date and time;
// a description, if given, is not used to pick between appointments.
func (c *Console) removeAppointment(args string) error {
	parts := strings.SplitN(args, ",", 3)
	if len(parts) < 2 {
		return errors.New("usage: remove date,time")
	}
	date, t, err := ParseDateTime(parts[0], parts[1])
	if err != nil {
		return err
	}
	description := ""
	if len(parts) == 3 {
		description = strings.TrimSpace(parts[2])
	}
	return c.cal.Remove(models.NewAppointment(date, t, description))
}

func (c *Console) show(args string) error {
	if args == "" {
		return c.print(c.cal.All())
	}
	date, err := strconv.Atoi(args)
	if err != nil {
		return fmt.Errorf("invalid date '%s': %w", args, err)
	}
	return c.print(c.cal.AppointmentsOn(date))
}

func (c *Console) save(string) error {
	if err := c.cal.Save(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(c.out, "Saved to %s\n", c.cal.SourceFile())
	return err
}

func (c *Console) print(appointments []*models.Appointment) error {
	for _, a := range appointments {
		if _, err := fmt.Fprintln(c.out, a); err != nil {
			return err
		}
	}
	return nil
}

// ParseDateTime reads the date and time fields of a console command.
func ParseDateTime(dateField, timeField string) (int, models.Time, error) {
	date, err := strconv.Atoi(strings.TrimSpace(dateField))
	if err != nil {
		return 0, models.Time{}, fmt.Errorf("invalid date '%s': %w", strings.TrimSpace(dateField), err)
	}
	t, err := models.ParseTime(strings.TrimSpace(timeField))
	if err != nil {
		return 0, models.Time{}, err
	}
	return date, t, nil
}
