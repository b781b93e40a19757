package expression

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/nornicexpr/pkg/functions"
	"github.com/orneryd/nornicexpr/pkg/value"
)

func lit(v value.Value) *Literal { return NewLiteral(v) }

func ints(xs ...int64) value.List {
	out := make(value.List, len(xs))
	for i, x := range xs {
		out[i] = value.Int(x)
	}
	return out
}

func eval(t *testing.T, n Node, ctx Context) value.Value {
	t.Helper()
	v, err := Evaluate(n, ctx)
	require.NoError(t, err, n.String())
	return v
}

func TestEvaluateArithmetic(t *testing.T) {
	expr := NewBinary(OpMul,
		NewBinary(OpAdd, lit(value.Int(10)), lit(value.Int(5))),
		lit(value.Int(2)))

	assert.Equal(t, value.Int(30), eval(t, expr, NewBasicContext(nil)))
	assert.Equal(t, "((10 + 5) * 2)", expr.String())

	_, err := Evaluate(NewBinary(OpDiv, lit(value.Int(10)), lit(value.Int(0))), NewBasicContext(nil))
	require.ErrorIs(t, err, ErrInvalidOperation)
	assert.ErrorIs(t, err, value.ErrDivisionByZero, "the value error stays reachable")

	got := eval(t, NewUnary(OpMinus, lit(value.Float(3.14))), NewBasicContext(nil))
	assert.Equal(t, value.Float(-3.14), got)

	_, err = Evaluate(NewBinary(OpPow, lit(value.Int(2)), lit(value.Int(-1))), NewBasicContext(nil))
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestEvaluateNullPropagation(t *testing.T) {
	ctx := NewBasicContext(nil)
	for _, op := range []BinaryOp{OpAdd, OpMul, OpEq, OpNe, OpLt, OpGe, OpContains, OpStartsWith, OpConcat, OpXor} {
		got := eval(t, NewBinary(op, lit(value.NullValue), lit(value.Int(1))), ctx)
		assert.Equal(t, value.NullValue, got, op.String())
	}

	got := eval(t, NewBinary(OpAdd, lit(value.Int(1)), lit(value.NaNValue)), ctx)
	assert.Equal(t, value.NaNValue, got, "null kind is kept")

	got = eval(t, NewBinary(OpAdd, lit(value.EmptyValue), lit(value.Int(1))), ctx)
	assert.Equal(t, value.EmptyValue, got)

	got = eval(t, NewUnary(OpMinus, lit(value.NullValue)), ctx)
	assert.Equal(t, value.NullValue, got)
}

func TestEvaluateLogic(t *testing.T) {
	T, F, N := lit(value.Bool(true)), lit(value.Bool(false)), lit(value.NullValue)
	tests := []struct {
		op   BinaryOp
		l, r Node
		want value.Value
	}{
		{OpAnd, T, T, value.Bool(true)},
		{OpAnd, T, F, value.Bool(false)},
		{OpAnd, N, F, value.Bool(false)},
		{OpAnd, N, T, value.NullValue},
		{OpAnd, T, N, value.NullValue},
		{OpOr, F, F, value.Bool(false)},
		{OpOr, N, T, value.Bool(true)},
		{OpOr, F, N, value.NullValue},
		{OpXor, T, F, value.Bool(true)},
		{OpXor, T, T, value.Bool(false)},
		{OpXor, N, T, value.NullValue},
	}
	ctx := NewBasicContext(nil)
	for _, tt := range tests {
		n := NewBinary(tt.op, tt.l, tt.r)
		t.Run(n.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, eval(t, n, ctx))
		})
	}

	assert.Equal(t, value.Bool(false), eval(t, NewUnary(OpNot, T), ctx))
	assert.Equal(t, value.NullValue, eval(t, NewUnary(OpNot, N), ctx))

	_, err := Evaluate(NewUnary(OpNot, lit(value.Int(1))), ctx)
	assert.ErrorIs(t, err, ErrTypeError)
	_, err = Evaluate(NewBinary(OpAnd, lit(value.Int(1)), T), ctx)
	assert.ErrorIs(t, err, ErrTypeError)
}

func TestEvaluateShortCircuit(t *testing.T) {
	reg := functions.NewRegistry(nil)
	calls := 0
	require.NoError(t, reg.RegisterCustom(functions.Descriptor{
		Name: "probe", MinArity: 0, MaxArity: 0,
		Body: func(functions.Env, []value.Value) (value.Value, error) {
			calls++
			return value.Bool(true), nil
		},
	}))
	ctx := NewBasicContext(reg)
	probe := NewFunctionCall("probe")

	assert.Equal(t, value.Bool(false), eval(t, NewBinary(OpAnd, lit(value.Bool(false)), probe), ctx))
	assert.Equal(t, value.Bool(true), eval(t, NewBinary(OpOr, lit(value.Bool(true)), probe), ctx))
	assert.Zero(t, calls)

	assert.Equal(t, value.Bool(true), eval(t, NewBinary(OpAnd, lit(value.Bool(true)), probe), ctx))
	assert.Equal(t, 1, calls)

	// Undecided left operand: the right side is evaluated.
	assert.Equal(t, value.Bool(true), eval(t, NewBinary(OpOr, lit(value.NullValue), probe), ctx))
	assert.Equal(t, 2, calls)
}

func TestEvaluateComparison(t *testing.T) {
	ctx := NewBasicContext(nil)
	tests := []struct {
		op   BinaryOp
		l, r value.Value
		want bool
	}{
		{OpEq, value.Int(2), value.Float(2), true},
		{OpLt, value.Int(1), value.Float(1.5), true},
		{OpGt, value.Float(2.5), value.Int(2), true},
		{OpLe, value.String("a"), value.String("b"), true},
		{OpNe, value.String("a"), value.Int(1), true},
		{OpGe, ints(1, 2), ints(1), true},
		{OpEq, value.Map{"a": value.Int(1)}, value.Map{"a": value.Int(1)}, true},
		{OpLt, value.Int(9), value.String("1"), true},
	}
	for _, tt := range tests {
		n := NewBinary(tt.op, lit(tt.l), lit(tt.r))
		t.Run(n.String(), func(t *testing.T) {
			assert.Equal(t, value.Bool(tt.want), eval(t, n, ctx))
		})
	}
}

func TestMixedNumericEqualityIsExact(t *testing.T) {
	ctx := NewBasicContext(nil)
	big := value.Int(1<<53 + 1)
	f := value.Float(1 << 53)

	assert.Equal(t, value.Bool(false), eval(t, NewBinary(OpEq, lit(big), lit(f)), ctx))
	assert.Equal(t, value.Bool(true), eval(t, NewBinary(OpGt, lit(big), lit(f)), ctx))
	assert.Equal(t, value.Bool(true), eval(t, NewBinary(OpLt, lit(f), lit(big)), ctx))
	assert.Equal(t, value.Bool(true), eval(t, NewBinary(OpEq, lit(f), lit(value.Int(1<<53))), ctx))
	assert.Equal(t, value.Bool(false), eval(t, NewBinary(OpIn, lit(big), lit(value.List{f})), ctx))
	assert.Equal(t, value.Bool(true), eval(t, NewBinary(OpLt, lit(value.Int(math.MaxInt64)), lit(value.Float(1<<63))), ctx))
}

func TestEvaluateStringAndMembership(t *testing.T) {
	ctx := NewBasicContext(nil)
	s := lit(value.String("graph database"))

	assert.Equal(t, value.Bool(true), eval(t, NewBinary(OpContains, s, lit(value.String("h d"))), ctx))
	assert.Equal(t, value.Bool(true), eval(t, NewBinary(OpEndsWith, s, lit(value.String("base"))), ctx))
	assert.Equal(t, value.Bool(false), eval(t, NewBinary(OpStartsWith, s, lit(value.String("base"))), ctx))
	assert.Equal(t, value.Bool(true), eval(t, NewBinary(OpRegexMatch, s, lit(value.String(`graph\s+\w+`))), ctx))
	assert.Equal(t, value.Bool(false), eval(t, NewBinary(OpRegexMatch, s, lit(value.String(`graph`))), ctx))

	_, err := Evaluate(NewBinary(OpStartsWith, s, lit(value.Int(1))), ctx)
	assert.ErrorIs(t, err, ErrTypeError)
	_, err = Evaluate(NewBinary(OpRegexMatch, s, lit(value.String("("))), ctx)
	assert.ErrorIs(t, err, ErrInvalidOperation)

	set := lit(value.NewSet(value.Int(1), value.Int(2)))
	assert.Equal(t, value.Bool(true), eval(t, NewBinary(OpIn, lit(value.Float(2)), set), ctx))
	assert.Equal(t, value.Bool(false), eval(t, NewBinary(OpNotIn, lit(value.Int(1)), set), ctx))
	assert.Equal(t, value.Bool(true), eval(t, NewBinary(OpIn, lit(value.Int(1)), lit(value.List{value.NullValue, value.Int(1)})), ctx))
	assert.Equal(t, value.NullValue, eval(t, NewBinary(OpNotIn, lit(value.Int(3)), lit(value.List{value.NullValue})), ctx))
	assert.Equal(t, value.NullValue, eval(t, NewBinary(OpIn, lit(value.NullValue), lit(ints(1))), ctx))

	_, err = Evaluate(NewBinary(OpIn, lit(value.Int(1)), lit(value.Int(1))), ctx)
	assert.ErrorIs(t, err, ErrTypeError)

	got := eval(t, NewBinary(OpConcat, lit(ints(1)), lit(ints(2, 3))), ctx)
	assert.Equal(t, ints(1, 2, 3), got)
	_, err = Evaluate(NewBinary(OpConcat, lit(value.String("a")), lit(value.Int(1))), ctx)
	assert.ErrorIs(t, err, ErrTypeError)
}

func TestRegexUsesContextCache(t *testing.T) {
	ctx := NewBasicContext(nil)
	n := NewBinary(OpRegexMatch, lit(value.String("abc")), lit(value.String("a.c")))
	eval(t, n, ctx)
	eval(t, n, ctx)

	stats := ctx.Cache().Stats()
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Hits)
}

func TestEvaluateUnary(t *testing.T) {
	ctx := NewBasicContext(nil)
	assert.Equal(t, value.Int(4), eval(t, NewUnary(OpPlus, lit(value.Int(4))), ctx))
	_, err := Evaluate(NewUnary(OpPlus, lit(value.String("4"))), ctx)
	assert.ErrorIs(t, err, ErrTypeError)

	assert.Equal(t, value.Bool(true), eval(t, NewUnary(OpIsNull, lit(value.BadDataValue)), ctx))
	assert.Equal(t, value.Bool(false), eval(t, NewUnary(OpIsNull, lit(value.EmptyValue)), ctx))
	assert.Equal(t, value.Bool(true), eval(t, NewUnary(OpIsEmpty, lit(value.EmptyValue)), ctx))
	assert.Equal(t, value.Bool(true), eval(t, NewUnary(OpIsNotEmpty, lit(value.NullValue)), ctx))
	assert.Equal(t, value.Bool(true), eval(t, NewUnary(OpIsNotNull, lit(value.Int(0))), ctx))
	assert.Equal(t, value.OverflowValue, eval(t, NewUnary(OpMinus, lit(value.Int(-1<<63))), ctx))
}

func TestEvaluateVariables(t *testing.T) {
	ctx := fixtureContext()
	assert.Equal(t, value.Int(7), eval(t, NewVariable("n"), ctx))

	_, err := Evaluate(NewVariable("nope"), ctx)
	require.ErrorIs(t, err, ErrUndefinedVariable)
	assert.EqualError(t, err, "undefined variable: nope")

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, ErrorUndefinedVariable, e.Kind)

	assert.Equal(t, value.Int(7), eval(t, NewVersionedVariable("n", 0), ctx))
	_, err = Evaluate(NewVersionedVariable("n", -1), ctx)
	assert.ErrorIs(t, err, ErrUndefinedVariable)

	assert.Equal(t, value.Int(7), eval(t, NewInputProperty("n"), ctx), "$- falls back to variables")
	assert.Equal(t, value.String("player"), eval(t, NewLabel("player"), ctx))
}

func TestTagPropertyAccess(t *testing.T) {
	ctx := fixtureContext()

	assert.Equal(t, value.String("Tim"), eval(t, NewTagProperty("player", "name"), ctx))
	assert.Equal(t, value.Int(42), eval(t, NewProperty(NewLabel("player"), "age"), ctx))

	_, err := Evaluate(NewTagProperty("team", "name"), ctx)
	assert.ErrorIs(t, err, ErrLabelNotFound)

	_, err = Evaluate(NewTagProperty("player", "salary"), ctx)
	assert.ErrorIs(t, err, ErrPropertyNotFound)
	assert.NotErrorIs(t, err, ErrLabelNotFound)

	_, err = Evaluate(NewTagProperty("player", "name"), NewBasicContext(nil))
	assert.ErrorIs(t, err, ErrLabelNotFound, "no vertex in scope")
}

func TestPropertyAccess(t *testing.T) {
	ctx := fixtureContext()
	ctx.SetVariable("v", fixtureVertex())
	ctx.SetVariable("e", fixtureEdge())
	ctx.SetVariable("dt", value.NewDateTime(value.Date{Year: 2024, Month: 2, Day: 29}, value.Time{Hour: 13, Minute: 5}))
	ctx.SetVariable("geo", value.Geography{Latitude: 1.5, Longitude: 2.5})

	tests := []struct {
		owner, prop string
		want        value.Value
	}{
		{"m", "a", value.Int(1)},
		{"m", "b", value.UnknownPropValue},
		{"v", "age", value.Int(42)},
		{"v", "height", value.UnknownPropValue},
		{"e", "start_year", value.Int(1997)},
		{"e", "_type", value.String("serve")},
		{"e", "_rank", value.Int(0)},
		{"dt", "year", value.Int(2024)},
		{"dt", "minute", value.Int(5)},
		{"dt", "era", value.UnknownPropValue},
		{"geo", "longitude", value.Float(2.5)},
	}
	for _, tt := range tests {
		t.Run(tt.owner+"."+tt.prop, func(t *testing.T) {
			got := eval(t, NewProperty(NewVariable(tt.owner), tt.prop), ctx)
			assert.True(t, value.Equal(tt.want, got), "want %v got %v", tt.want, got)
		})
	}

	assert.Equal(t, value.NullValue, eval(t, NewProperty(lit(value.NullValue), "x"), ctx))
	_, err := Evaluate(NewProperty(NewVariable("n"), "x"), ctx)
	assert.ErrorIs(t, err, ErrTypeError)
}

func TestEdgeAndEndpointProperties(t *testing.T) {
	ctx := fixtureContext()
	assert.Equal(t, value.Int(1997), eval(t, NewEdgeProperty("serve", "start_year"), ctx))
	assert.Equal(t, value.Int(1997), eval(t, NewEdgeProperty("*", "start_year"), ctx))
	assert.Equal(t, value.String("p1"), eval(t, NewEdgeProperty("", "_src"), ctx))

	_, err := Evaluate(NewEdgeProperty("like", "start_year"), ctx)
	assert.ErrorIs(t, err, ErrLabelNotFound)
	_, err = Evaluate(NewEdgeProperty("serve", "end_year"), ctx)
	assert.ErrorIs(t, err, ErrPropertyNotFound)

	_, err = Evaluate(NewSrcProperty("player", "name"), ctx)
	assert.ErrorIs(t, err, ErrLabelNotFound, "endpoints not set")

	team := &value.Vertex{VID: value.String("t1"), Tags: []value.Tag{{Name: "team", Props: value.Map{"name": value.String("Spurs")}}}}
	ctx.SetEndpoints(fixtureVertex(), team)
	assert.Equal(t, value.String("Tim"), eval(t, NewSrcProperty("player", "name"), ctx))
	assert.Equal(t, value.String("Spurs"), eval(t, NewDstProperty("team", "name"), ctx))
	_, err = Evaluate(NewDstProperty("player", "name"), ctx)
	assert.ErrorIs(t, err, ErrLabelNotFound)
}

func TestFunctionCalls(t *testing.T) {
	ctx := fixtureContext()
	assert.Equal(t, value.String("tim duncan"), eval(t, NewFunctionCall("LOWER", NewVariable("name")), ctx))

	// Arity is checked before the arguments are evaluated.
	_, err := Evaluate(NewFunctionCall("abs", NewVariable("nope"), NewVariable("nope")), ctx)
	assert.ErrorIs(t, err, ErrArgumentCount)

	_, err = Evaluate(NewFunctionCall("abs", NewVariable("nope")), ctx)
	assert.ErrorIs(t, err, ErrUndefinedVariable)

	_, err = Evaluate(NewFunctionCall("lower", lit(value.Int(1))), ctx)
	assert.ErrorIs(t, err, ErrTypeError)

	_, err = Evaluate(NewFunctionCall("range", lit(value.Int(1)), lit(value.Int(5)), lit(value.Int(0))), ctx)
	assert.ErrorIs(t, err, ErrInvalidOperation)

	_, err = Evaluate(NewFunctionCall("no_such_fn"), ctx)
	assert.ErrorIs(t, err, ErrUndefinedFunction)

	cfg := functions.DefaultConfig()
	cfg.Categories["string"] = false
	_, err = Evaluate(NewFunctionCall("lower", lit(value.String("A"))), NewBasicContext(functions.NewRegistry(cfg)))
	require.ErrorIs(t, err, ErrUndefinedFunction)
	assert.EqualError(t, err, "undefined function: lower is disabled")
}

func TestToBoolScenarios(t *testing.T) {
	tests := []struct {
		arg  value.Value
		want value.Value
	}{
		{value.String("true"), value.Bool(true)},
		{value.String("FALSE"), value.Bool(false)},
		{value.String("yes"), value.NullValue},
		{value.Bool(true), value.Bool(true)},
		{value.Int(1), value.BadDataValue},
		{value.NullValue, value.NullValue},
	}
	ctx := NewBasicContext(nil)
	for _, tt := range tests {
		n := NewFunctionCall("to_bool", lit(tt.arg))
		t.Run(n.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, eval(t, n, ctx))
		})
	}
}

func TestAggregateNode(t *testing.T) {
	ctx := fixtureContext()
	assert.Equal(t, value.Float(2), eval(t, NewAggregate("avg", NewVariable("nums"), false), ctx))
	assert.Equal(t, value.Int(0), eval(t, NewAggregate("count", lit(value.NullValue), false), ctx))

	got := eval(t, NewAggregate("collect", lit(value.List{value.Int(1), value.Float(1), value.Int(1)}), true), ctx)
	assert.Equal(t, value.List{value.Int(1), value.Float(1)}, got, "distinct keeps INT and FLOAT apart")

	_, err := Evaluate(NewAggregate("sum", NewVariable("n"), false), ctx)
	assert.ErrorIs(t, err, ErrTypeError)
	_, err = Evaluate(NewAggregate("median", NewVariable("nums"), false), ctx)
	assert.ErrorIs(t, err, ErrUndefinedFunction)
	_, err = Evaluate(NewAggregate("sum", lit(value.List{value.String("x")}), false), ctx)
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestCaseAndCast(t *testing.T) {
	ctx := fixtureContext()

	c := &Case{Whens: []WhenClause{{When: lit(value.Bool(false)), Then: lit(value.Int(1))}}}
	assert.Equal(t, value.NullValue, eval(t, c, ctx), "no match and no default")

	c = &Case{Whens: []WhenClause{{When: lit(value.NullValue), Then: lit(value.Int(1))}}}
	_, err := Evaluate(c, ctx)
	assert.ErrorIs(t, err, ErrTypeError)

	c = &Case{
		Subject: NewVariable("n"),
		Whens:   []WhenClause{{When: lit(value.Float(7)), Then: lit(value.String("seven"))}},
		Default: lit(value.String("other")),
	}
	assert.Equal(t, value.String("seven"), eval(t, c, ctx))

	assert.Equal(t, value.Float(7), eval(t, NewCast(NewVariable("n"), value.TypeFloat), ctx))
	assert.Equal(t, value.NullValue, eval(t, NewCast(lit(value.String("abc")), value.TypeInt), ctx))
	assert.Equal(t, value.BadDataValue, eval(t, NewCast(NewVariable("nums"), value.TypeInt), ctx))

	_, err = Evaluate(NewCast(lit(value.Int(1)), value.TypePath), ctx)
	assert.ErrorIs(t, err, ErrTypeError)
	assert.ErrorIs(t, err, value.ErrUnsupportedCast)
}

func TestSubscriptAndRange(t *testing.T) {
	ctx := fixtureContext()
	nums := NewVariable("nums")
	idx := func(i int64) Node { return lit(value.Int(i)) }

	assert.Equal(t, value.Int(1), eval(t, NewSubscript(nums, idx(0)), ctx))
	assert.Equal(t, value.Int(2), eval(t, NewSubscript(nums, idx(-2)), ctx))
	assert.Equal(t, value.NullValue, eval(t, NewSubscript(nums, idx(3)), ctx))
	assert.Equal(t, value.NullValue, eval(t, NewSubscript(nums, lit(value.NullValue)), ctx))
	assert.Equal(t, value.String("é"), eval(t, NewSubscript(lit(value.String("café")), idx(-1)), ctx))
	assert.Equal(t, value.Int(1), eval(t, NewSubscript(NewVariable("m"), lit(value.String("a"))), ctx))
	assert.Equal(t, value.Int(42), eval(t, NewSubscript(lit(fixtureVertex()), lit(value.String("age"))), ctx))

	_, err := Evaluate(NewSubscript(nums, lit(value.String("a"))), ctx)
	assert.ErrorIs(t, err, ErrTypeError)

	assert.Equal(t, ints(1, 2), eval(t, NewRange(nums, nil, idx(-1)), ctx))
	assert.Equal(t, ints(2, 3), eval(t, NewRange(nums, idx(1), idx(10)), ctx))
	assert.Equal(t, value.List{}, eval(t, NewRange(nums, idx(2), idx(1)), ctx))
	assert.Equal(t, value.String("af"), eval(t, NewRange(lit(value.String("café")), idx(1), idx(3)), ctx))
	assert.Equal(t, value.NullValue, eval(t, NewRange(nums, lit(value.NullValue), nil), ctx))

	_, err = Evaluate(NewRange(lit(value.Int(1)), nil, nil), ctx)
	assert.ErrorIs(t, err, ErrTypeError)
	_, err = Evaluate(NewRange(nums, lit(value.Float(1)), nil), ctx)
	assert.ErrorIs(t, err, ErrTypeError)
}

func TestPathExpr(t *testing.T) {
	ctx := fixtureContext()
	team := &value.Vertex{VID: value.String("t1")}
	ctx.SetVariable("a", fixtureVertex())
	ctx.SetVariable("e", fixtureEdge())
	ctx.SetVariable("b", team)

	got := eval(t, NewPath(NewVariable("a"), NewVariable("e"), NewVariable("b")), ctx)
	p, ok := got.(*value.Path)
	require.True(t, ok)
	assert.Equal(t, 1, p.Length())
	assert.Equal(t, team, p.Steps[0].Dst)

	ctx.SetPath("p", p)
	assert.Same(t, p, eval(t, NewNamedPath("p"), ctx))

	_, err := Evaluate(NewNamedPath("q"), ctx)
	assert.ErrorIs(t, err, ErrUndefinedVariable)
	_, err = Evaluate(NewPath(NewVariable("a"), NewVariable("e")), ctx)
	assert.ErrorIs(t, err, ErrTypeError)
	_, err = Evaluate(NewPath(NewVariable("a"), NewVariable("b"), NewVariable("b")), ctx)
	assert.ErrorIs(t, err, ErrTypeError)
}

func TestEvaluateCollections(t *testing.T) {
	ctx := fixtureContext()
	got := eval(t, NewList(NewVariable("n"), lit(value.String("x"))), ctx)
	assert.Equal(t, value.List{value.Int(7), value.String("x")}, got)

	got = eval(t, NewMap(MapEntry{"a", NewVariable("n")}, MapEntry{"a", lit(value.Int(1))}), ctx)
	assert.Equal(t, value.Map{"a": value.Int(1)}, got, "last duplicate key wins")
}

func TestEvaluateBatch(t *testing.T) {
	ctx := fixtureContext()
	vals, err := EvaluateBatch([]Node{NewVariable("n"), lit(value.Int(1))}, ctx)
	require.NoError(t, err)
	assert.Equal(t, []value.Value{value.Int(7), value.Int(1)}, vals)

	vals, err = EvaluateBatch([]Node{NewVariable("n"), NewVariable("nope"), NewVariable("n")}, ctx)
	assert.ErrorIs(t, err, ErrUndefinedVariable)
	assert.Nil(t, vals)

	_, err = Evaluate(nil, ctx)
	assert.ErrorIs(t, err, ErrInvalidOperation)
}
