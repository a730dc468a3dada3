package record

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrNotFound is returned when no record matches a query.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a primary or unique index key is taken.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidKey is returned when a record or a query does not yield a valid key.
	ErrInvalidKey = errors.New("invalid key")
	// ErrConflict is returned when a write keeps losing to concurrent writers.
	ErrConflict = errors.New("conflict")
)

// Error describes a failed table operation. It matches its kind
// (ErrNotFound and the like) and its cause with errors.Is.
type Error struct {
	Table   string
	Message string
	Code    codes.Code

	kind  error
	cause error
}

func newError(table string, kind, cause error, format string, args ...any) *Error {
	return &Error{
		Table:   table,
		Message: fmt.Sprintf(format, args...),
		Code:    codeOf(kind),
		kind:    kind,
		cause:   cause,
	}
}

func codeOf(kind error) codes.Code {
	switch kind {
	case ErrNotFound:
		return codes.NotFound
	case ErrAlreadyExists:
		return codes.AlreadyExists
	case ErrInvalidKey:
		return codes.InvalidArgument
	case ErrConflict:
		return codes.Aborted
	default:
		return codes.Internal
	}
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Table != "" {
		msg = e.Table + ": " + msg
	}

	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}

	return msg
}

// Unwrap returns the kind sentinel and the cause.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2) //nolint:mnd

	if e.kind != nil {
		out = append(out, e.kind)
	}

	if e.cause != nil {
		out = append(out, e.cause)
	}

	return out
}

// GRPCStatus lets status.FromError and status.Code report the error code.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(e.Code, e.Error())
}

// Code returns the status code of err: codes.OK for nil, the code of a
// wrapped *Error, and codes.Unknown otherwise.
func Code(err error) codes.Code {
	if err == nil {
		return codes.OK
	}

	var recErr *Error
	if errors.As(err, &recErr) {
		return recErr.Code
	}

	return codes.Unknown
}
