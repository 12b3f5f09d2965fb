package minichain

import (
	"errors"
	"fmt"
)

// Code classifies runtime errors.
type Code uint8

const (
	// Internal signals broken registry invariants. Treat as a bug.
	Internal Code = iota
	// NotFound: unknown chain, application or message reference.
	NotFound
	// InvalidArgument: unsupported app type or action, malformed
	// parameters, vote for a missing option.
	InvalidArgument
	// Unavailable: the runtime is not running.
	Unavailable
)

func (c Code) String() string {
	switch c {
	case Internal:
		return "Internal"
	case NotFound:
		return "NotFound"
	case InvalidArgument:
		return "InvalidArgument"
	case Unavailable:
		return "Unavailable"
	default:
		return fmt.Sprintf("Code(%d)", uint8(c))
	}
}

// Error is the error type returned by every runtime operation.
type Error struct {
	Code Code
	// Operation that failed, e.g. "deploy" or "execute".
	Op  string
	Msg string
	Err error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code, so errors.Is(err,
// ErrNotFound) works across wrapping layers.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Msg == "" && t.Err == nil && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrNotFound        = &Error{Code: NotFound}
	ErrInvalidArgument = &Error{Code: InvalidArgument}
	ErrInternal        = &Error{Code: Internal}
	ErrUnavailable     = &Error{Code: Unavailable}
)

// NotFoundf creates a NotFound error for op.
func NotFoundf(op, format string, args ...any) *Error {
	return &Error{Code: NotFound, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// InvalidArgumentf creates an InvalidArgument error for op.
func InvalidArgumentf(op, format string, args ...any) *Error {
	return &Error{Code: InvalidArgument, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Internalf creates an Internal error for op.
func Internalf(op, format string, args ...any) *Error {
	return &Error{Code: Internal, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches op and code to err. A nil err returns nil.
func Wrap(code Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or
// Internal if there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Internal
}

// IsNotFound reports whether err carries the NotFound code.
func IsNotFound(err error) bool {
	return err != nil && CodeOf(err) == NotFound
}

// IsInvalidArgument reports whether err carries the InvalidArgument code.
func IsInvalidArgument(err error) bool {
	return err != nil && CodeOf(err) == InvalidArgument
}
