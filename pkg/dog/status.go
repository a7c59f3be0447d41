package dog

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a failed remote call.
type ErrorCode int

const (
	OK              ErrorCode = 0
	ServiceNotReady ErrorCode = 1
	Timeout         ErrorCode = 2
	InternalError   ErrorCode = 3
	ServiceError    ErrorCode = 4
)

func (c ErrorCode) String() string {
	switch c {
	case OK:
		return "OK"
	case ServiceNotReady:
		return "SERVICE_NOT_READY"
	case Timeout:
		return "TIMEOUT"
	case InternalError:
		return "INTERNAL_ERROR"
	case ServiceError:
		return "SERVICE_ERROR"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
}

// Status is the error returned by every remote operation. A nil error is OK;
// a *Status is never returned with Code OK.
type Status struct {
	Code    ErrorCode
	Message string
}

func (s *Status) Error() string {
	if s.Message == "" {
		return "dog: " + s.Code.String()
	}
	return fmt.Sprintf("dog: %s: %s", s.Code, s.Message)
}

// Is matches any *Status with the same code, so errors.Is(err, ErrNotConnected)
// holds for every SERVICE_NOT_READY failure.
func (s *Status) Is(target error) bool {
	t, ok := target.(*Status)
	return ok && t.Code == s.Code
}

var (
	// ErrNotConnected is returned by calls made before Connect or after Disconnect.
	ErrNotConnected = &Status{Code: ServiceNotReady, Message: "not connected"}

	// ErrTimeout is returned when the robot does not answer within the call timeout.
	ErrTimeout = &Status{Code: Timeout, Message: "call timed out"}
)

func newStatus(code ErrorCode, format string, args ...any) *Status {
	return &Status{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the ErrorCode carried by err. nil is OK, and an error that
// is not a *Status counts as INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return OK
	}
	var s *Status
	if errors.As(err, &s) {
		return s.Code
	}
	return InternalError
}
