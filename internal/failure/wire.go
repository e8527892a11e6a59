package failure

import (
	"errors"
	"strings"
)

// Encode renders err as "[code] message" so the classification survives a
// transport that only carries strings.
func Encode(err error) string {
	if err == nil {
		return ""
	}
	return "[" + string(CodeOf(err)) + "] " + err.Error()
}

// Decode reverses Encode. Messages without a recognised code prefix are
// returned as plain errors.
func Decode(message string) error {
	if message == "" {
		return nil
	}
	if !strings.HasPrefix(message, "[") {
		return errors.New(message)
	}
	end := strings.Index(message, "] ")
	if end < 0 {
		return errors.New(message)
	}
	code := Code(message[1:end])
	detail := message[end+2:]
	sentinel := Sentinel(code)
	if sentinel == nil {
		return errors.New(detail)
	}
	return &remoteError{sentinel: sentinel, message: detail}
}

// remoteError keeps the daemon's full message while matching the sentinel.
type remoteError struct {
	sentinel error
	message  string
}

func (e *remoteError) Error() string { return e.message }

func (e *remoteError) Unwrap() error { return e.sentinel }
