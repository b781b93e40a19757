// Arithmetic and logical operations.
//
// Numeric operators are defined over the (Int, Float) matrix and widen to
// Float when the operands differ. Any other operand pair is an *OpError,
// never a Null. Integer overflow yields Null(overflow).
//
// Supported combinations:
//
//	Add   Int/Float  String+String (concat)  Duration+Duration
//	      Date+Duration  DateTime+Duration  Time+Duration (and commuted)
//	Sub   Int/Float  Duration-Duration  Date-Duration  DateTime-Duration
//	      Time-Duration  Date-Date  DateTime-DateTime
//	Mul, Div, Rem, Pow   Int/Float only
//	Neg, Abs             Int/Float (Neg also Duration)
//	And, Or, Xor, Not    Bool only
//	Length               String (bytes), List, Map, Set, Path (steps)

package value

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

// Sentinel causes carried by *OpError.
var (
	// ErrTypeMismatch marks an operator applied to unsupported operand types.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrDivisionByZero marks a zero divisor in Div or Rem.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrInvalidArgument marks a domain error such as a negative integer
	// exponent.
	ErrInvalidArgument = errors.New("invalid argument")
)

// OpError describes a failed value operation.
type OpError struct {
	Op    string
	Left  DataType
	Right DataType
	Unary bool
	Err   error
}

func (e *OpError) Error() string {
	switch {
	case errors.Is(e.Err, ErrTypeMismatch) && e.Unary:
		return fmt.Sprintf("%s: %s, %s not supported", e.Op, e.Err, e.Left)
	case errors.Is(e.Err, ErrTypeMismatch):
		return fmt.Sprintf("%s: %s between %s and %s", e.Op, e.Err, e.Left, e.Right)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func mismatch(op string, a, b Value) error {
	return &OpError{Op: op, Left: TypeOf(a), Right: TypeOf(b), Err: ErrTypeMismatch}
}

func unaryMismatch(op string, a Value) error {
	return &OpError{Op: op, Left: TypeOf(a), Unary: true, Err: ErrTypeMismatch}
}

// numericPair widens a mixed Int/Float pair. It reports whether both are
// Ints (ia, ib valid) and whether the pair is numeric at all.
func numericPair(a, b Value) (ia, ib int64, fa, fb float64, bothInt, ok bool) {
	switch x := a.(type) {
	case Int:
		switch y := b.(type) {
		case Int:
			return int64(x), int64(y), 0, 0, true, true
		case Float:
			return 0, 0, float64(x), float64(y), false, true
		}
	case Float:
		switch y := b.(type) {
		case Int:
			return 0, 0, float64(x), float64(y), false, true
		case Float:
			return 0, 0, float64(x), float64(y), false, true
		}
	}
	return 0, 0, 0, 0, false, false
}

func checkedAdd(a, b int64) (int64, bool) {
	s := a + b
	if (a > 0 && b > 0 && s < 0) || (a < 0 && b < 0 && s >= 0) {
		return s, false
	}
	return s, true
}

func checkedSub(a, b int64) (int64, bool) {
	d := a - b
	if (b > 0 && d > a) || (b < 0 && d < a) {
		return d, false
	}
	return d, true
}

func checkedMul(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	hi, lo := bits.Mul64(uint64(absU(a)), uint64(absU(b)))
	neg := (a < 0) != (b < 0)
	if hi != 0 {
		return 0, false
	}
	if neg {
		if lo > 1<<63 {
			return 0, false
		}
		return -int64(lo), true
	}
	if lo > math.MaxInt64 {
		return 0, false
	}
	return int64(lo), true
}

func absU(a int64) uint64 {
	if a < 0 {
		return uint64(-(a + 1)) + 1
	}
	return uint64(a)
}

func intResult(n int64, ok bool) Value {
	if !ok {
		return OverflowValue
	}
	return Int(n)
}

// Add returns a + b.
func Add(a, b Value) (Value, error) {
	if ia, ib, fa, fb, bothInt, ok := numericPair(a, b); ok {
		if bothInt {
			return intResult(checkedAdd(ia, ib)), nil
		}
		return Float(fa + fb), nil
	}
	switch x := a.(type) {
	case String:
		if y, ok := b.(String); ok {
			return x + y, nil
		}
	case Duration:
		switch y := b.(type) {
		case Duration:
			return x.Add(y), nil
		case Date, DateTime, Time:
			return Add(y, x)
		}
	case Date:
		if y, ok := b.(Duration); ok {
			return x.AddDuration(y), nil
		}
	case DateTime:
		if y, ok := b.(Duration); ok {
			return x.AddDuration(y), nil
		}
	case Time:
		if y, ok := b.(Duration); ok {
			t, _ := x.AddDuration(y)
			return t, nil
		}
	}
	return nil, mismatch("add", a, b)
}

// Sub returns a - b.
func Sub(a, b Value) (Value, error) {
	if ia, ib, fa, fb, bothInt, ok := numericPair(a, b); ok {
		if bothInt {
			return intResult(checkedSub(ia, ib)), nil
		}
		return Float(fa - fb), nil
	}
	switch x := a.(type) {
	case Duration:
		if y, ok := b.(Duration); ok {
			return x.Sub(y), nil
		}
	case Date:
		switch y := b.(type) {
		case Duration:
			return x.AddDuration(y.Neg()), nil
		case Date:
			return x.Sub(y), nil
		}
	case DateTime:
		switch y := b.(type) {
		case Duration:
			return x.AddDuration(y.Neg()), nil
		case DateTime:
			return x.Sub(y), nil
		}
	case Time:
		if y, ok := b.(Duration); ok {
			t, _ := x.AddDuration(y.Neg())
			return t, nil
		}
	}
	return nil, mismatch("sub", a, b)
}

// Mul returns a * b.
func Mul(a, b Value) (Value, error) {
	ia, ib, fa, fb, bothInt, ok := numericPair(a, b)
	if !ok {
		return nil, mismatch("mul", a, b)
	}
	if bothInt {
		return intResult(checkedMul(ia, ib)), nil
	}
	return Float(fa * fb), nil
}

// Div returns a / b. Integer division truncates toward zero. A zero
// divisor of either type is an error.
func Div(a, b Value) (Value, error) {
	ia, ib, fa, fb, bothInt, ok := numericPair(a, b)
	if !ok {
		return nil, mismatch("div", a, b)
	}
	if bothInt {
		if ib == 0 {
			return nil, &OpError{Op: "div", Left: TypeInt, Right: TypeInt, Err: ErrDivisionByZero}
		}
		if ia == math.MinInt64 && ib == -1 {
			return OverflowValue, nil
		}
		return Int(ia / ib), nil
	}
	if fb == 0 {
		return nil, &OpError{Op: "div", Left: TypeOf(a), Right: TypeOf(b), Err: ErrDivisionByZero}
	}
	return Float(fa / fb), nil
}

// Rem returns the remainder of a / b with the sign of a. Floats use
// math.Mod.
func Rem(a, b Value) (Value, error) {
	ia, ib, fa, fb, bothInt, ok := numericPair(a, b)
	if !ok {
		return nil, mismatch("rem", a, b)
	}
	if bothInt {
		if ib == 0 {
			return nil, &OpError{Op: "rem", Left: TypeInt, Right: TypeInt, Err: ErrDivisionByZero}
		}
		if ib == -1 {
			return Int(0), nil
		}
		return Int(ia % ib), nil
	}
	if fb == 0 {
		return nil, &OpError{Op: "rem", Left: TypeOf(a), Right: TypeOf(b), Err: ErrDivisionByZero}
	}
	return Float(math.Mod(fa, fb)), nil
}

// Pow returns a ** b. Int ** negative Int is an error; any Float operand
// promotes the result to Float.
func Pow(a, b Value) (Value, error) {
	ia, ib, fa, fb, bothInt, ok := numericPair(a, b)
	if !ok {
		return nil, mismatch("pow", a, b)
	}
	if !bothInt {
		return Float(math.Pow(fa, fb)), nil
	}
	if ib < 0 {
		return nil, &OpError{Op: "pow", Left: TypeInt, Right: TypeInt,
			Err: fmt.Errorf("%w: negative integer exponent %d", ErrInvalidArgument, ib)}
	}
	result, base := int64(1), ia
	for exp := ib; exp > 0; exp >>= 1 {
		if exp&1 == 1 {
			if result, ok = checkedMul(result, base); !ok {
				return OverflowValue, nil
			}
		}
		if exp > 1 {
			if base, ok = checkedMul(base, base); !ok {
				return OverflowValue, nil
			}
		}
	}
	return Int(result), nil
}

// Neg returns -a.
func Neg(a Value) (Value, error) {
	switch x := a.(type) {
	case Int:
		if x == math.MinInt64 {
			return OverflowValue, nil
		}
		return -x, nil
	case Float:
		return -x, nil
	case Duration:
		return x.Neg(), nil
	}
	return nil, unaryMismatch("neg", a)
}

// Abs returns |a|.
func Abs(a Value) (Value, error) {
	switch x := a.(type) {
	case Int:
		if x == math.MinInt64 {
			return OverflowValue, nil
		}
		if x < 0 {
			return -x, nil
		}
		return x, nil
	case Float:
		return Float(math.Abs(float64(x))), nil
	}
	return nil, unaryMismatch("abs", a)
}

func boolPair(op string, a, b Value) (bool, bool, error) {
	x, ok1 := a.(Bool)
	y, ok2 := b.(Bool)
	if !ok1 || !ok2 {
		return false, false, mismatch(op, a, b)
	}
	return bool(x), bool(y), nil
}

// And returns a AND b.
func And(a, b Value) (Value, error) {
	x, y, err := boolPair("and", a, b)
	if err != nil {
		return nil, err
	}
	return Bool(x && y), nil
}

// Or returns a OR b.
func Or(a, b Value) (Value, error) {
	x, y, err := boolPair("or", a, b)
	if err != nil {
		return nil, err
	}
	return Bool(x || y), nil
}

// Xor returns a XOR b.
func Xor(a, b Value) (Value, error) {
	x, y, err := boolPair("xor", a, b)
	if err != nil {
		return nil, err
	}
	return Bool(x != y), nil
}

// Not returns NOT a.
func Not(a Value) (Value, error) {
	if x, ok := a.(Bool); ok {
		return !x, nil
	}
	return nil, unaryMismatch("not", a)
}

// Length returns the byte length of a string, the cardinality of a list,
// map or set, or the number of steps of a path.
func Length(a Value) (Value, error) {
	switch x := a.(type) {
	case String:
		return Int(len(x)), nil
	case List:
		return Int(len(x)), nil
	case Map:
		return Int(len(x)), nil
	case *Set:
		return Int(x.Len()), nil
	case *Path:
		return Int(x.Length()), nil
	}
	return nil, unaryMismatch("length", a)
}
