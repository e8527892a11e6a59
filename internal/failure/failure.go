package failure

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotRunning     = errors.New("daemon not running")
	ErrTimeout        = errors.New("daemon timed out")
	ErrNotFound       = errors.New("not found")
	ErrOutOfRange     = errors.New("out of range")
	ErrCannotResolve  = errors.New("cannot resolve element")
	ErrLoad           = errors.New("module load failed")
	ErrIO             = errors.New("io error")
	ErrAlreadyExists  = errors.New("already exists")
	ErrNotInitialized = errors.New("element not initialized")
	ErrInvalid        = errors.New("invalid request")
)

// Code is the wire name of a taxonomy entry.
type Code string

const (
	CodeNotRunning     Code = "not_running"
	CodeTimeout        Code = "timeout"
	CodeNotFound       Code = "not_found"
	CodeOutOfRange     Code = "out_of_range"
	CodeCannotResolve  Code = "cannot_resolve"
	CodeLoad           Code = "load_error"
	CodeIO             Code = "io_error"
	CodeAlreadyExists  Code = "already_exists"
	CodeNotInitialized Code = "not_initialized"
	CodeInvalid        Code = "invalid"
	CodeUnknown        Code = "unknown"
)

var codes = []struct {
	code Code
	err  error
}{
	{CodeNotRunning, ErrNotRunning},
	{CodeTimeout, ErrTimeout},
	{CodeNotFound, ErrNotFound},
	{CodeOutOfRange, ErrOutOfRange},
	{CodeCannotResolve, ErrCannotResolve},
	{CodeLoad, ErrLoad},
	{CodeIO, ErrIO},
	{CodeAlreadyExists, ErrAlreadyExists},
	{CodeNotInitialized, ErrNotInitialized},
	{CodeInvalid, ErrInvalid},
}

// CodeOf returns the taxonomy code for err, or CodeUnknown.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	for _, entry := range codes {
		if errors.Is(err, entry.err) {
			return entry.code
		}
	}
	return CodeUnknown
}

// Sentinel returns the sentinel error for a code, or nil for unknown codes.
func Sentinel(code Code) error {
	for _, entry := range codes {
		if entry.code == code {
			return entry.err
		}
	}
	return nil
}

// OpError records which operation failed and on which object.
type OpError struct {
	Op  string
	ID  string
	Err error
}

func (e *OpError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.ID != "" {
		b.WriteString(" ")
		b.WriteString(e.ID)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *OpError) Unwrap() error { return e.Err }

// Wrap attaches operation context to err. A nil err stays nil.
func Wrap(op, id string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, ID: id, Err: err}
}

// Newf builds an error classified under sentinel with a formatted detail.
func Newf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

// CheckRange validates a half-open [start, end) request against a collection
// of length n.
func CheckRange(start, end, n int) error {
	if start < 0 || start > end {
		return Newf(ErrOutOfRange, "invalid range %d..%d", start, end)
	}
	if end > n {
		return Newf(ErrOutOfRange, "range %d..%d exceeds length %d", start, end, n)
	}
	return nil
}
