package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"kal/internal/calendar"
	"kal/internal/config"
	"kal/internal/console"
	"kal/internal/ics"
	"kal/internal/models"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:      "kal",
		Usage:     "Keep a month of appointments in a plain text file.",
		ArgsUsage: "[calendar file]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Calendar file to load and save.", EnvVars: []string{"KAL_FILE"}},
			&cli.BoolFlag{Name: "12-hour", Usage: "Show and save times on a 12-hour clock.", EnvVars: []string{"KAL_12_HOUR"}},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error.", EnvVars: []string{"LOG_LEVEL"}},
		},
		Action: consoleAction,
		Commands: []*cli.Command{
			consoleCommand(),
			showCommand(),
			addCommand(),
			removeCommand(),
			exportCommand(),
			importCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

// session is what every command needs: settings, a logger and the calendar.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	cal    *calendar.Calendar
}

// openSession loads the calendar named by file, or by --file / KAL_FILE when
// file is empty.
func openSession(c *cli.Context, file string) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if c.IsSet("file") {
		cfg.CalendarFile = c.String("file")
	}
	if file != "" {
		cfg.CalendarFile = file
	}
	if c.IsSet("12-hour") {
		cfg.Use12Hour = c.Bool("12-hour")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	logger := setupLogger(cfg.LogLevel)
	models.SetMeridiemDisplay(cfg.Use12Hour)

	cal, err := calendar.Load(logger, cfg.CalendarFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open calendar: %w", err)
	}
	cal.UseMeridiem(cfg.Use12Hour)
	logger.Debug("Calendar ready.", "file", cfg.CalendarFile, "monthSize", cal.MonthSize(), "appointments", cal.Len())
	return &session{cfg: cfg, logger: logger, cal: cal}, nil
}

func (s *session) bridge() *ics.Bridge {
	return ics.NewBridge(s.logger, ics.Options{
		Year:     s.cfg.Year,
		Month:    s.cfg.Month,
		Location: s.cfg.Location,
		Duration: s.cfg.EventDuration,
	})
}

func consoleCommand() *cli.Command {
	return &cli.Command{
		Name:      "console",
		Usage:     "Manage appointments interactively (default).",
		ArgsUsage: "[calendar file]",
		Action:    consoleAction,
	}
}

func consoleAction(c *cli.Context) error {
	s, err := openSession(c, c.Args().First())
	if err != nil {
		return err
	}
	return console.New(s.logger, s.cal, os.Stdin, os.Stdout).Run(c.Context)
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print the appointments of one date, or of the whole month.",
		ArgsUsage: "[date]",
		Action: func(c *cli.Context) error {
			s, err := openSession(c, "")
			if err != nil {
				return err
			}
			appointments := s.cal.All()
			if c.Args().Present() {
				date, err := strconv.Atoi(c.Args().First())
				if err != nil {
					return fmt.Errorf("invalid date '%s': %w", c.Args().First(), err)
				}
				appointments = s.cal.AppointmentsOn(date)
			}
			for _, a := range appointments {
				fmt.Println(a)
			}
			return nil
		},
	}
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add an appointment and save the calendar.",
		ArgsUsage: "date,time,description",
		Action: func(c *cli.Context) error {
			parts := strings.SplitN(strings.Join(c.Args().Slice(), " "), ",", 3)
			if len(parts) != 3 {
				return fmt.Errorf("expected date,time,description")
			}
			date, t, err := console.ParseDateTime(parts[0], parts[1])
			if err != nil {
				return err
			}
			s, err := openSession(c, "")
			if err != nil {
				return err
			}
			if err := s.cal.AddAt(date, t, strings.TrimSpace(parts[2])); err != nil {
				return err
			}
			if err := s.cal.Save(); err != nil {
				return fmt.Errorf("failed to save calendar: %w", err)
			}
			s.logger.Info("Added appointment.", "date", date, "time", t)
			return nil
		},
	}
}

func removeCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Remove everything scheduled at a date and time, then save.",
		ArgsUsage: "date,time",
		Action: func(c *cli.Context) error {
			parts := strings.SplitN(strings.Join(c.Args().Slice(), " "), ",", 3)
			if len(parts) < 2 {
				return fmt.Errorf("expected date,time")
			}
			date, t, err := console.ParseDateTime(parts[0], parts[1])
			if err != nil {
				return err
			}
			s, err := openSession(c, "")
			if err != nil {
				return err
			}
			before := len(s.cal.AppointmentsOn(date))
			if err := s.cal.Remove(models.NewAppointment(date, t, "")); err != nil {
				return err
			}
			if err := s.cal.Save(); err != nil {
				return fmt.Errorf("failed to save calendar: %w", err)
			}
			s.logger.Info("Removed appointments.", "date", date, "time", t, "count", before-len(s.cal.AppointmentsOn(date)))
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write the month as an iCalendar (.ics) file.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "kal.ics", Usage: "Output file, '-' for stdout."},
		},
		Action: func(c *cli.Context) error {
			s, err := openSession(c, "")
			if err != nil {
				return err
			}
			out := c.String("out")
			if out == "-" {
				return s.bridge().Export(os.Stdout, s.cal)
			}
			return s.bridge().ExportFile(out, s.cal)
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Add the events of an iCalendar file that fall in the configured month, then save.",
		ArgsUsage: "file.ics",
		Action: func(c *cli.Context) error {
			if !c.Args().Present() {
				return fmt.Errorf("expected an .ics file")
			}
			s, err := openSession(c, "")
			if err != nil {
				return err
			}

			f, err := os.Open(c.Args().First())
			if err != nil {
				return fmt.Errorf("unable to open %s: %w", c.Args().First(), err)
			}
			defer f.Close()

			res, err := s.bridge().Import(f, s.cal)
			if err != nil {
				return err
			}
			if err := s.cal.Save(); err != nil {
				return fmt.Errorf("failed to save calendar: %w", err)
			}
			fmt.Printf("Imported %d events, skipped %d.\n", res.Imported, res.Skipped)
			return nil
		},
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
