package calendar

import "errors"

// ErrNotLoaded is returned by Save for a calendar without a source file.
var ErrNotLoaded = errors.New("calendar not loaded from a file")

// IOError reports a failure to read or write a calendar file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error { return e.Err }
