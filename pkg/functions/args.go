package functions

import (
	"fmt"

	"github.com/orneryd/nornicexpr/pkg/value"
)

// ArgumentError reports an argument of the wrong type. It matches
// ErrInvalidArgument under errors.Is.
type ArgumentError struct {
	Func  string
	Index int // zero-based
	Want  string
	Got   value.DataType
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s argument %d must be %s, got %s", ErrInvalidArgument, e.Func, e.Index+1, e.Want, e.Got)
}

func (e *ArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

func argError(fn string, i int, want string, got value.Value) error {
	return &ArgumentError{Func: fn, Index: i, Want: want, Got: value.TypeOf(got)}
}

// anyNull reports whether an argument is Null or Empty.
func anyNull(args []value.Value) bool {
	for _, a := range args {
		if value.IsNull(a) || value.IsEmpty(a) {
			return true
		}
	}
	return false
}

// strict wraps body so that any Null or Empty argument yields Null.
func strict(body Body) Body {
	return func(env Env, args []value.Value) (value.Value, error) {
		if anyNull(args) {
			return value.NullValue, nil
		}
		return body(env, args)
	}
}

func stringArg(fn string, args []value.Value, i int) (string, error) {
	if s, ok := args[i].(value.String); ok {
		return string(s), nil
	}
	return "", argError(fn, i, "a string", args[i])
}

func intArg(fn string, args []value.Value, i int) (int64, error) {
	if n, ok := args[i].(value.Int); ok {
		return int64(n), nil
	}
	return 0, argError(fn, i, "an integer", args[i])
}

// floatArg accepts Int or Float.
func floatArg(fn string, args []value.Value, i int) (float64, error) {
	switch n := args[i].(type) {
	case value.Int:
		return float64(n), nil
	case value.Float:
		return float64(n), nil
	}
	return 0, argError(fn, i, "a number", args[i])
}

func listArg(fn string, args []value.Value, i int) (value.List, error) {
	if l, ok := args[i].(value.List); ok {
		return l, nil
	}
	return nil, argError(fn, i, "a list", args[i])
}

// floatResult maps NaN to Null(NaN).
func floatResult(f float64) value.Value {
	if f != f {
		return value.NaNValue
	}
	return value.Float(f)
}
