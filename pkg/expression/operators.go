// Operator evaluation.
//
// Semantics:
//   - NULL propagation: arithmetic, comparison, string and membership
//     operators return NULL when an operand is NULL (the NULL kind is kept)
//     or EMPTY.
//   - AND / OR use three-valued logic and short-circuit once the left
//     operand decides the result: false AND x = false, true OR x = true,
//     NULL AND true = NULL.
//   - Comparisons use the total value order, with INT and FLOAT compared
//     numerically so 1 == 1.0.
//   - =~ matches the whole string.
//   - x IN list is NULL when x is not found and the list holds a NULL.

package expression

import (
	"strings"

	"github.com/orneryd/nornicexpr/pkg/functions"
	"github.com/orneryd/nornicexpr/pkg/value"
)

// isNullish reports whether v is Null or Empty.
func isNullish(v value.Value) bool {
	return value.IsNull(v) || value.IsEmpty(v)
}

// propagateNull returns the value an operator yields when an operand is
// absent: the first Null operand, else Empty.
func propagateNull(vals ...value.Value) (value.Value, bool) {
	empty := false
	for _, v := range vals {
		if value.IsNull(v) {
			return v, true
		}
		if value.IsEmpty(v) {
			empty = true
		}
	}
	if empty {
		return value.EmptyValue, true
	}
	return nil, false
}

// compareValues orders a and b, comparing mixed INT/FLOAT numerically and
// exactly, so equality stays transitive beyond 2^53.
func compareValues(a, b value.Value) int {
	switch x := a.(type) {
	case value.Int:
		if y, ok := b.(value.Float); ok {
			return value.CompareIntFloat(int64(x), float64(y))
		}
	case value.Float:
		if y, ok := b.(value.Int); ok {
			return -value.CompareIntFloat(int64(y), float64(x))
		}
	}
	return value.Compare(a, b)
}

func equalValues(a, b value.Value) bool { return compareValues(a, b) == 0 }

func evalBinary(n *Binary, ctx Context) (value.Value, error) {
	if n.Op == OpAnd || n.Op == OpOr {
		return evalLogical(n, ctx)
	}
	l, err := Evaluate(n.Left, ctx)
	if err != nil {
		return nil, err
	}
	r, err := Evaluate(n.Right, ctx)
	if err != nil {
		return nil, err
	}
	return applyBinary(n.Op, l, r, ctx)
}

var arithmetic = map[BinaryOp]func(a, b value.Value) (value.Value, error){
	OpAdd: value.Add,
	OpSub: value.Sub,
	OpMul: value.Mul,
	OpDiv: value.Div,
	OpMod: value.Rem,
	OpPow: value.Pow,
}

func applyBinary(op BinaryOp, l, r value.Value, ctx Context) (value.Value, error) {
	if fn, ok := arithmetic[op]; ok {
		if v, ok := propagateNull(l, r); ok {
			return v, nil
		}
		out, err := fn(l, r)
		if err != nil {
			return nil, classify(err)
		}
		return out, nil
	}

	switch op {
	case OpIn, OpNotIn:
		return evalIn(op, l, r)
	case OpAnd, OpOr:
		return logical(op, l, r)
	}

	if v, ok := propagateNull(l, r); ok {
		return v, nil
	}
	switch op {
	case OpEq:
		return value.Bool(equalValues(l, r)), nil
	case OpNe:
		return value.Bool(!equalValues(l, r)), nil
	case OpLt:
		return value.Bool(compareValues(l, r) < 0), nil
	case OpLe:
		return value.Bool(compareValues(l, r) <= 0), nil
	case OpGt:
		return value.Bool(compareValues(l, r) > 0), nil
	case OpGe:
		return value.Bool(compareValues(l, r) >= 0), nil
	case OpXor:
		out, err := value.Xor(l, r)
		if err != nil {
			return nil, classify(err)
		}
		return out, nil
	case OpContains:
		return evalContains(l, r)
	case OpStartsWith, OpEndsWith:
		ls, lok := l.(value.String)
		rs, rok := r.(value.String)
		if !lok || !rok {
			return nil, typeError("%s requires STRING operands, got %s and %s", op, value.TypeOf(l), value.TypeOf(r))
		}
		if op == OpStartsWith {
			return value.Bool(strings.HasPrefix(string(ls), string(rs))), nil
		}
		return value.Bool(strings.HasSuffix(string(ls), string(rs))), nil
	case OpRegexMatch:
		return evalRegexMatch(l, r, ctx)
	case OpConcat:
		return evalConcat(l, r)
	}
	return nil, newError(ErrorInvalidOperation, "unknown operator %s", op)
}

// ============================================================================
// Logic
// ============================================================================

// truth splits a logical operand into its boolean and whether it is
// unknown (NULL or EMPTY).
func truth(op BinaryOp, v value.Value) (b, unknown bool, err error) {
	if isNullish(v) {
		return false, true, nil
	}
	if x, ok := v.(value.Bool); ok {
		return bool(x), false, nil
	}
	return false, false, typeError("%s operand must be BOOL, got %s", op, value.TypeOf(v))
}

func evalLogical(n *Binary, ctx Context) (value.Value, error) {
	l, err := Evaluate(n.Left, ctx)
	if err != nil {
		return nil, err
	}
	lb, lnull, err := truth(n.Op, l)
	if err != nil {
		return nil, err
	}
	if !lnull {
		if n.Op == OpAnd && !lb {
			return value.Bool(false), nil
		}
		if n.Op == OpOr && lb {
			return value.Bool(true), nil
		}
	}
	r, err := Evaluate(n.Right, ctx)
	if err != nil {
		return nil, err
	}
	return logical(n.Op, l, r)
}

// logical combines two operands with AND or OR under three-valued logic.
func logical(op BinaryOp, l, r value.Value) (value.Value, error) {
	lb, lnull, err := truth(op, l)
	if err != nil {
		return nil, err
	}
	rb, rnull, err := truth(op, r)
	if err != nil {
		return nil, err
	}
	// The decisive value wins over an unknown operand.
	decisive := op == OpOr
	if (!lnull && lb == decisive) || (!rnull && rb == decisive) {
		return value.Bool(decisive), nil
	}
	if lnull || rnull {
		return value.NullValue, nil
	}
	return value.Bool(!decisive), nil
}

func evalNot(v value.Value) (value.Value, error) {
	if isNullish(v) {
		return value.NullValue, nil
	}
	out, err := value.Not(v)
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// ============================================================================
// Strings and collections
// ============================================================================

func evalContains(l, r value.Value) (value.Value, error) {
	switch x := l.(type) {
	case value.String:
		if y, ok := r.(value.String); ok {
			return value.Bool(strings.Contains(string(x), string(y))), nil
		}
	case value.List:
		return value.Bool(containsValue(x, r)), nil
	case *value.Set:
		return value.Bool(containsValue(x.Items(), r)), nil
	}
	return nil, typeError("CONTAINS is not defined between %s and %s", value.TypeOf(l), value.TypeOf(r))
}

func containsValue(items []value.Value, v value.Value) bool {
	for _, it := range items {
		if equalValues(it, v) {
			return true
		}
	}
	return false
}

func evalRegexMatch(l, r value.Value, ctx Context) (value.Value, error) {
	s, lok := l.(value.String)
	pattern, rok := r.(value.String)
	if !lok || !rok {
		return nil, typeError("=~ requires STRING operands, got %s and %s", value.TypeOf(l), value.TypeOf(r))
	}
	re, err := functions.CompileRegex(ctx, "^(?:"+string(pattern)+")$")
	if err != nil {
		return nil, classify(err)
	}
	return value.Bool(re.MatchString(string(s))), nil
}

func evalIn(op BinaryOp, l, r value.Value) (value.Value, error) {
	if v, ok := propagateNull(l, r); ok {
		return v, nil
	}
	var items []value.Value
	switch x := r.(type) {
	case value.List:
		items = x
	case *value.Set:
		items = x.Items()
	default:
		return nil, typeError("%s requires a LIST or SET on the right, got %s", op, value.TypeOf(r))
	}
	sawNull := false
	for _, it := range items {
		if isNullish(it) {
			sawNull = true
			continue
		}
		if equalValues(l, it) {
			return value.Bool(op == OpIn), nil
		}
	}
	if sawNull {
		return value.NullValue, nil
	}
	return value.Bool(op == OpNotIn), nil
}

func evalConcat(l, r value.Value) (value.Value, error) {
	switch x := l.(type) {
	case value.String:
		if y, ok := r.(value.String); ok {
			return x + y, nil
		}
	case value.List:
		if y, ok := r.(value.List); ok {
			out := make(value.List, 0, len(x)+len(y))
			return append(append(out, x...), y...), nil
		}
	}
	return nil, typeError("|| is not defined between %s and %s", value.TypeOf(l), value.TypeOf(r))
}

// ============================================================================
// Unary
// ============================================================================

func evalUnary(n *Unary, ctx Context) (value.Value, error) {
	v, err := Evaluate(n.Operand, ctx)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case OpIsNull:
		return value.Bool(value.IsNull(v)), nil
	case OpIsNotNull:
		return value.Bool(!value.IsNull(v)), nil
	case OpIsEmpty:
		return value.Bool(value.IsEmpty(v)), nil
	case OpIsNotEmpty:
		return value.Bool(!value.IsEmpty(v)), nil
	case OpNot:
		return evalNot(v)
	}

	if out, ok := propagateNull(v); ok {
		return out, nil
	}
	switch n.Op {
	case OpPlus:
		switch v.(type) {
		case value.Int, value.Float, value.Duration:
			return v, nil
		}
		return nil, typeError("unary + is not defined for %s", value.TypeOf(v))
	case OpMinus:
		out, err := value.Neg(v)
		if err != nil {
			return nil, classify(err)
		}
		return out, nil
	}
	return nil, newError(ErrorInvalidOperation, "unknown operator %s", n.Op)
}
