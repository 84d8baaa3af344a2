package pdf

import (
	"errors"
	"fmt"
)

var (
	// ErrRead is matched by every *ReadError (missing or corrupt index/data file).
	ErrRead = errors.New("read error")
	// ErrUser is matched by every *UserError (malformed identifier, unknown strategy name, bad member).
	ErrUser = errors.New("user error")
	// ErrRange is matched by every *RangeError (structurally invalid query).
	ErrRange = errors.New("range error")
)

// ReadError reports a missing or unparseable index, info or grid file.
//
// The underlying error (if any) can be accessed via errors.Unwrap.
type ReadError struct {
	Path string
	Msg  string
	Err  error
}

func (e *ReadError) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Path == "" {
		return "read error: " + msg
	}
	return fmt.Sprintf("read error: %s: %s", e.Path, msg)
}

func (e *ReadError) Unwrap() error { return e.Err }

func (e *ReadError) Is(target error) bool { return target == ErrRead }

// UserError reports invalid caller input such as a malformed "set/member" string.
type UserError struct {
	Input string
	Msg   string
	Err   error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("user error: %s %q: %v", e.Msg, e.Input, e.Err)
	}
	return fmt.Sprintf("user error: %s %q", e.Msg, e.Input)
}

func (e *UserError) Unwrap() error { return e.Err }

func (e *UserError) Is(target error) bool { return target == ErrUser }

// RangeError reports a query that no PDF can answer, e.g. x outside [0, 1].
// Points merely outside the tabulated grid are extrapolated, not rejected.
type RangeError struct {
	Quantity string
	Value    float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range error: invalid %s = %g", e.Quantity, e.Value)
}

func (e *RangeError) Is(target error) bool { return target == ErrRange }

func readErrorf(path string, format string, args ...any) *ReadError {
	return &ReadError{Path: path, Msg: fmt.Sprintf(format, args...)}
}
