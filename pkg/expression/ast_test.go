package expression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/nornicexpr/pkg/functions"
	"github.com/orneryd/nornicexpr/pkg/value"
)

func TestNodeString(t *testing.T) {
	tests := []struct {
		node Node
		want string
	}{
		{lit(value.String(`say "hi"`)), `"say \"hi\""`},
		{lit(value.Date{Year: 2024, Month: 2, Day: 29}), `date("2024-02-29")`},
		{lit(nil), "__EMPTY__"},
		{NewUnary(OpMinus, NewVariable("x")), "-x"},
		{NewUnary(OpNot, NewVariable("x")), "NOT x"},
		{NewUnary(OpIsNotEmpty, NewVariable("x")), "x IS NOT EMPTY"},
		{NewBinary(OpNotIn, lit(value.Int(1)), NewList()), "(1 NOT IN [])"},
		{NewEdgeProperty("", "_src"), "*._src"},
		{NewProperty(NewLabel("player"), "age"), "player.age"},
		{NewAggregate("sum", NewVariable("x"), false), "sum(x)"},
		{NewFunctionCall("concat", lit(value.String("a")), NewVariable("b")), `concat("a", b)`},
		{NewMap(MapEntry{Key: "k", Value: lit(value.Bool(true))}), "{k: true}"},
		{NewCast(NewVariable("x"), value.TypeString), "CAST(x AS STRING)"},
		{NewSubscript(NewVariable("xs"), lit(value.Int(-1))), "xs[-1]"},
		{NewRange(NewVariable("xs"), lit(value.Int(1)), nil), "xs[1..]"},
		{&Case{
			Subject: NewVariable("x"),
			Whens:   []WhenClause{{When: lit(value.Int(1)), Then: lit(value.String("one"))}},
			Default: lit(value.NullValue),
		}, `CASE x WHEN 1 THEN "one" ELSE NULL END`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.node.String())
	}
}

func TestNodeKindAndChildren(t *testing.T) {
	c := &Case{
		Whens:   []WhenClause{{When: NewVariable("a"), Then: NewVariable("b")}},
		Default: NewVariable("c"),
	}
	assert.Equal(t, KindCase, c.Kind())
	assert.Len(t, c.Children(), 3)

	r := NewRange(NewVariable("xs"), nil, nil)
	assert.Equal(t, []Node{r.Collection}, r.Children())

	assert.Equal(t, "FunctionCall", KindFunctionCall.String())
	assert.Equal(t, "NodeKind(99)", NodeKind(99).String())
	assert.Equal(t, KindPath, NewNamedPath("p").Kind())
	assert.Empty(t, NewNamedPath("p").Children())
}

func TestParseOperators(t *testing.T) {
	for i := OpAdd; i <= OpConcat; i++ {
		op, ok := ParseBinaryOp(i.String())
		require.True(t, ok, i.String())
		assert.Equal(t, i, op)
	}
	for i := OpPlus; i <= OpIsNotEmpty; i++ {
		op, ok := ParseUnaryOp(i.String())
		require.True(t, ok, i.String())
		assert.Equal(t, i, op)
	}

	op, ok := ParseBinaryOp("=")
	require.True(t, ok)
	assert.Equal(t, OpEq, op)

	op, ok = ParseBinaryOp(" ends\twith ")
	require.True(t, ok)
	assert.Equal(t, OpEndsWith, op)

	_, ok = ParseBinaryOp("~~")
	assert.False(t, ok)
	_, ok = ParseUnaryOp("IS")
	assert.False(t, ok)

	assert.True(t, OpIsNull.Postfix())
	assert.False(t, OpNot.Postfix())
}

func TestWalkAndVariables(t *testing.T) {
	expr := NewBinary(OpAnd,
		NewBinary(OpGt, NewProperty(NewVariable("v"), "age"), NewVersionedVariable("limit", -1)),
		NewFunctionCall("f", NewVariable("v"), NewNamedPath("p"), lit(value.Int(1))))

	assert.Equal(t, []string{"limit", "p", "v"}, Variables(expr))

	count := 0
	Walk(expr, func(Node) bool { count++; return true })
	assert.Equal(t, 9, count)

	// Pruning skips the subtree below the call.
	count = 0
	Walk(expr, func(n Node) bool {
		count++
		_, isCall := n.(*FunctionCall)
		return !isCall
	})
	assert.Equal(t, 6, count)

	assert.Empty(t, Variables(lit(value.Int(1))))
}

func TestCanEvaluate(t *testing.T) {
	constant := NewBinary(OpAdd, lit(value.Int(1)), NewFunctionCall("abs", lit(value.Int(-2))))
	assert.True(t, CanEvaluate(constant))
	assert.True(t, CanEvaluate(NewLabel("player")))

	for _, n := range []Node{
		NewVariable("x"),
		NewTagProperty("player", "name"),
		NewProperty(NewLabel("player"), "name"),
		NewInputProperty("c"),
		NewNamedPath("p"),
		NewFunctionCall("rand"),
		NewList(lit(value.Int(1)), NewSrcProperty("t", "p")),
	} {
		assert.False(t, CanEvaluate(n), n.String())
	}

	reg := functions.NewRegistry(nil)
	require.NoError(t, reg.RegisterCustom(functions.Descriptor{
		Name: "double", MinArity: 1, MaxArity: 1, Pure: true,
		Body: func(_ functions.Env, args []value.Value) (value.Value, error) {
			return value.Mul(args[0], value.Int(2))
		},
	}))
	call := NewFunctionCall("double", lit(value.Int(21)))
	assert.True(t, CanEvaluateWith(call, reg))
	assert.False(t, CanEvaluate(call), "unknown to the default registry")

	got, err := Evaluate(call, NewBasicContext(reg))
	require.NoError(t, err)
	assert.Equal(t, value.Int(42), got)
}
