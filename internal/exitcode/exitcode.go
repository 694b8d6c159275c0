// Package exitcode defines the process exit codes this tool commits to
// and a small error wrapper for carrying a code up to main.
package exitcode

import "errors"

const (
	OK = 0
	// Environment covers setup failures before any AWS call succeeds,
	// such as an unloadable shared config.
	Environment = 1
	Identity    = 2
	// ReservedJSONTool is kept so automation keyed to the historical
	// numbering never sees this value reassigned. It is not produced.
	ReservedJSONTool = 3
	NotFound         = 4
	Version          = 5
	Download         = 6
)

// Error pairs an exit code with its cause.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Wrap attaches code to err. A nil err returns nil.
func Wrap(code int, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Err: err}
}

// From extracts the exit code from err, defaulting to Environment for
// errors that never got a code (flag parsing, usage errors).
func From(err error) int {
	if err == nil {
		return OK
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return Environment
}
