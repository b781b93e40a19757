package expression

import (
	"errors"
	"fmt"

	"github.com/orneryd/nornicexpr/pkg/functions"
	"github.com/orneryd/nornicexpr/pkg/value"
)

// ErrorKind classifies evaluation failures.
type ErrorKind int

const (
	ErrorUndefinedVariable ErrorKind = iota + 1
	ErrorPropertyNotFound
	ErrorLabelNotFound
	ErrorType
	ErrorInvalidOperation
	ErrorEncoding
	ErrorUndefinedFunction
	ErrorArgumentCount
)

var errorKindNames = [...]string{
	ErrorUndefinedVariable: "undefined variable",
	ErrorPropertyNotFound:  "property not found",
	ErrorLabelNotFound:     "label not found",
	ErrorType:              "type error",
	ErrorInvalidOperation:  "invalid operation",
	ErrorEncoding:          "encoding error",
	ErrorUndefinedFunction: "undefined function",
	ErrorArgumentCount:     "argument count",
}

func (k ErrorKind) String() string {
	if k > 0 && int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is the error type returned by Evaluate.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrUndefinedVariable = &Error{Kind: ErrorUndefinedVariable}
	ErrPropertyNotFound  = &Error{Kind: ErrorPropertyNotFound}
	ErrLabelNotFound     = &Error{Kind: ErrorLabelNotFound}
	ErrTypeError         = &Error{Kind: ErrorType}
	ErrInvalidOperation  = &Error{Kind: ErrorInvalidOperation}
	ErrEncoding          = &Error{Kind: ErrorEncoding}
	ErrUndefinedFunction = &Error{Kind: ErrorUndefinedFunction}
	ErrArgumentCount     = &Error{Kind: ErrorArgumentCount}
)

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func typeError(format string, args ...any) *Error {
	return newError(ErrorType, format, args...)
}

// classify wraps an error raised by a value operation or a function body
// into an *Error. An *Error passes through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	var argErr *functions.ArgumentError
	switch {
	case errors.As(err, &argErr), errors.Is(err, value.ErrTypeMismatch):
		return &Error{Kind: ErrorType, Cause: err}
	case errors.Is(err, value.ErrDivisionByZero), errors.Is(err, value.ErrInvalidArgument),
		errors.Is(err, functions.ErrInvalidArgument):
		return &Error{Kind: ErrorInvalidOperation, Cause: err}
	case errors.Is(err, functions.ErrUndefinedFunction), errors.Is(err, functions.ErrDisabled):
		return &Error{Kind: ErrorUndefinedFunction, Cause: err}
	case errors.Is(err, functions.ErrArgumentCount):
		return &Error{Kind: ErrorArgumentCount, Cause: err}
	case errors.Is(err, value.ErrUnsupportedCast):
		return &Error{Kind: ErrorType, Cause: err}
	}
	return &Error{Kind: ErrorInvalidOperation, Cause: err}
}

// sourceError wraps a failure reported by a row or graph source.
func sourceError(what string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: ErrorEncoding, Message: what, Cause: err}
}
