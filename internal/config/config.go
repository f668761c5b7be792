package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Config holds the settings read from the environment (and a .env file,
// loaded by the caller).
type Config struct {
	CalendarFile  string         // KAL_FILE; "NONE" for an unsaved calendar
	Use12Hour     bool           // KAL_12_HOUR
	Timezone      string         // KAL_TIMEZONE, used by the iCalendar bridge
	Location      *time.Location // Resolved Timezone
	Year          int            // KAL_YEAR
	Month         time.Month     // KAL_MONTH
	EventDuration time.Duration  // KAL_EVENT_MINUTES
	LogLevel      string         // LOG_LEVEL
}

// Default returns the configuration used when no variable is set. The
// iCalendar month defaults to the month containing now.
func Default(now time.Time) *Config {
	return &Config{
		CalendarFile:  "NONE",
		Timezone:      "UTC",
		Location:      time.UTC,
		Year:          now.Year(),
		Month:         now.Month(),
		EventDuration: time.Hour,
		LogLevel:      "info",
	}
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := Default(time.Now())

	if v := os.Getenv("KAL_FILE"); v != "" {
		cfg.CalendarFile = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("KAL_12_HOUR"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid KAL_12_HOUR '%s': %w", v, err)
		}
		cfg.Use12Hour = b
	}
	if v := os.Getenv("KAL_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("KAL_YEAR"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid KAL_YEAR '%s': %w", v, err)
		}
		cfg.Year = y
	}
	if v := os.Getenv("KAL_MONTH"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid KAL_MONTH '%s': %w", v, err)
		}
		cfg.Month = time.Month(m)
	}
	if v := os.Getenv("KAL_EVENT_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid KAL_EVENT_MINUTES '%s': %w", v, err)
		}
		cfg.EventDuration = time.Duration(n) * time.Minute
	}

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalize validates the month and resolves Timezone into Location. A
// non-positive event duration falls back to one hour.
func (c *Config) Normalize() error {
	if c.Month < time.January || c.Month > time.December {
		return fmt.Errorf("invalid month %d", c.Month)
	}
	if c.EventDuration <= 0 {
		c.EventDuration = time.Hour
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", c.Timezone, err)
	}
	c.Location = loc
	return nil
}
