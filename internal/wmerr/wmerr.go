// Package wmerr names the error kinds the core can produce (spec §7).
//
// None of these cross a component boundary as a panic or an exception-style
// unwind; every operation that can fail returns a plain Go error, and
// callers test membership with errors.Is against the sentinels here.
package wmerr

import (
	"errors"
	"strconv"
)

var (
	// ErrMemoryExhaustion is fatal: the process logs best-effort and exits.
	ErrMemoryExhaustion = errors.New("memory exhausted")

	// ErrXConnectionLost is fatal: the process exits so a session manager
	// can relaunch it.
	ErrXConnectionLost = errors.New("x11 connection lost")

	// ErrInvalidCommand reports a command the executor could not run.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrUnknownCriteria reports a criteria predicate the executor does
	// not recognize.
	ErrUnknownCriteria = errors.New("unknown criteria")

	// ErrAssignmentTargetMissing is logged as a warning, not surfaced to
	// the caller: the workspace is created on the focused output instead.
	ErrAssignmentTargetMissing = errors.New("assignment target output missing")

	// ErrRestoreFailure means a layout snapshot was malformed; the tree
	// starts empty instead of failing startup.
	ErrRestoreFailure = errors.New("layout snapshot restore failed")

	// ErrChildProcessFailure is logged; the core continues running.
	ErrChildProcessFailure = errors.New("child process failed")

	// ErrKindDiscipline reports an attach/replace that would violate the
	// container kind discipline of spec §3.
	ErrKindDiscipline = errors.New("container kind discipline violated")

	// ErrNotFound reports a lookup (container, workspace, output, mark)
	// that found nothing.
	ErrNotFound = errors.New("not found")
)

// XProtocolError wraps an X11 request failure. Sequence is the request's
// sequence number; if it was found in the reactor's ignore table the error
// is swallowed by the caller instead of logged.
type XProtocolError struct {
	Sequence uint16
	Op       string
	Err      error
}

func (e *XProtocolError) Error() string {
	return e.Op + ": x protocol error (seq " + strconv.Itoa(int(e.Sequence)) + "): " + e.Err.Error()
}

func (e *XProtocolError) Unwrap() error { return e.Err }
