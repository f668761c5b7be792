package models

import (
	"errors"
	"fmt"
)

// ErrFormat is matched by every FormatError through errors.Is.
var ErrFormat = errors.New("malformed input")

// FormatError reports text that could not be parsed into a Time, an
// Appointment or a calendar header.
type FormatError struct {
	Input  string // The offending text
	Reason string // What was wrong with it
	Err    error  // Underlying parse error, if any
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bad format %q: %s: %v", e.Input, e.Reason, e.Err)
	}
	return fmt.Sprintf("bad format %q: %s", e.Input, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrFormat) match any FormatError.
func (e *FormatError) Is(target error) bool { return target == ErrFormat }

func formatError(input, reason string, err error) error {
	return &FormatError{Input: input, Reason: reason, Err: err}
}
