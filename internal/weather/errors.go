package weather

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a forecast failure.
type ErrorKind string

const (
	KindInvalidLocation         ErrorKind = "invalid_location"
	KindNetwork                 ErrorKind = "network_error"
	KindInvalidServerResponse   ErrorKind = "invalid_server_response"
	KindServer                  ErrorKind = "server_error"
	KindUnexpectedResponseShape ErrorKind = "unexpected_response_shape"
)

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrInvalidLocation         = &Error{Kind: KindInvalidLocation}
	ErrNetwork                 = &Error{Kind: KindNetwork}
	ErrInvalidServerResponse   = &Error{Kind: KindInvalidServerResponse}
	ErrServer                  = &Error{Kind: KindServer}
	ErrUnexpectedResponseShape = &Error{Kind: KindUnexpectedResponseShape}
)

// Error is a forecast failure. Status is the HTTP status when one was received.
type Error struct {
	Kind    ErrorKind
	Message string
	Status  int
	Err     error
}

func newError(kind ErrorKind, msg string, status int, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Status: status, Err: cause}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can test against the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of a forecast error, or "" for other errors.
func KindOf(err error) ErrorKind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
