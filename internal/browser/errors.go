package browser

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotReady is returned when a command is issued before the worker has
// signalled readiness. Callers get an immediate failure, never a silent
// block.
var ErrNotReady = errors.New("browser worker is not ready")

// CommandError reports a command that reached the worker but failed
// there (page-load timeout, element not found, parsing failure).
type CommandError struct {
	Op  string
	Err error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("browser command %s: %v", e.Op, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// TimeoutError reports that the client gave up waiting for a result.
// The in-flight browser operation is not cancelled; only the wait stops.
type TimeoutError struct {
	Op    string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("browser command %s timed out after %s", e.Op, e.After)
}

// StartupError reports a fatal failure while creating the browser
// session or logging in. It ends that startup attempt only; the caller's
// login loop retries on its next tick.
type StartupError struct {
	Stage string // "create driver" or "login"
	Err   error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("browser startup (%s): %v", e.Stage, e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }
