package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericMatrix(t *testing.T) {
	tests := []struct {
		name string
		op   func(a, b Value) (Value, error)
		a, b Value
		want Value
	}{
		{"int add", Add, Int(2), Int(3), Int(5)},
		{"mixed add widens", Add, Int(2), Float(0.5), Float(2.5)},
		{"float sub", Sub, Float(1.5), Float(0.5), Float(1)},
		{"int mul", Mul, Int(-4), Int(3), Int(-12)},
		{"int div truncates", Div, Int(7), Int(2), Int(3)},
		{"negative int div truncates", Div, Int(-7), Int(2), Int(-3)},
		{"mixed div", Div, Int(7), Float(2), Float(3.5)},
		{"int rem keeps sign of dividend", Rem, Int(-7), Int(3), Int(-1)},
		{"float rem", Rem, Float(7.5), Int(2), Float(1.5)},
		{"int pow", Pow, Int(2), Int(10), Int(1024)},
		{"zero pow zero", Pow, Int(0), Int(0), Int(1)},
		{"string concat", Add, String("foo"), String("bar"), String("foobar")},
		{"add overflow", Add, Int(math.MaxInt64), Int(1), OverflowValue},
		{"sub overflow", Sub, Int(math.MinInt64), Int(1), OverflowValue},
		{"mul overflow", Mul, Int(math.MaxInt64), Int(2), OverflowValue},
		{"mul min int", Mul, Int(math.MinInt64 / 2), Int(2), Int(math.MinInt64)},
		{"pow overflow", Pow, Int(10), Int(19), OverflowValue},
		{"div min by minus one", Div, Int(math.MinInt64), Int(-1), OverflowValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op(tt.a, tt.b)
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "want %v got %v", tt.want, got)
		})
	}

	got, err := Pow(Int(2), Float(0.5))
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt2, float64(got.(Float)), 1e-12)
}

func TestOperationErrors(t *testing.T) {
	_, err := Div(Int(10), Int(0))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = Div(Float(1), Float(0))
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = Rem(Int(1), Int(0))
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = Pow(Int(2), Int(-1))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Add(String("a"), Int(1))
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = Add(NullValue, Int(1))
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = Mul(String("a"), Int(2))
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "mul", opErr.Op)
	assert.Equal(t, TypeString, opErr.Left)
	assert.Equal(t, TypeInt, opErr.Right)
	assert.Equal(t, "mul: type mismatch between STRING and INT", err.Error())
}

func TestUnaryAndLogical(t *testing.T) {
	got, err := Neg(Float(3.14))
	require.NoError(t, err)
	assert.Equal(t, Float(-3.14), got)

	got, err = Neg(Int(math.MinInt64))
	require.NoError(t, err)
	assert.Equal(t, OverflowValue, got)

	got, err = Abs(Int(-5))
	require.NoError(t, err)
	assert.Equal(t, Int(5), got)

	_, err = Neg(String("x"))
	assert.ErrorIs(t, err, ErrTypeMismatch)

	got, err = And(Bool(true), Bool(false))
	require.NoError(t, err)
	assert.Equal(t, Bool(false), got)

	got, err = Or(Bool(true), Bool(false))
	require.NoError(t, err)
	assert.Equal(t, Bool(true), got)

	got, err = Xor(Bool(true), Bool(true))
	require.NoError(t, err)
	assert.Equal(t, Bool(false), got)

	got, err = Not(Bool(false))
	require.NoError(t, err)
	assert.Equal(t, Bool(true), got)

	_, err = And(Bool(true), Int(1))
	assert.ErrorIs(t, err, ErrTypeMismatch, "no truthiness coercion")
	_, err = Not(Int(0))
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestLength(t *testing.T) {
	v := &Vertex{VID: Int(1)}
	e := &Edge{Src: Int(1), Dst: Int(1), EdgeType: "self"}
	tests := []struct {
		in   Value
		want Int
	}{
		{String("héllo"), 6},
		{List{Int(1), Int(2)}, 2},
		{Map{"a": Int(1)}, 1},
		{NewSet(Int(1), Int(1), Int(2)), 2},
		{&Path{Src: v, Steps: []Step{{Dst: v, Edge: e}}}, 1},
	}
	for _, tt := range tests {
		got, err := Length(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	_, err := Length(Int(3))
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestTemporalOperators(t *testing.T) {
	got, err := Add(Date{2024, 1, 31}, Duration{Months: 1})
	require.NoError(t, err)
	assert.Equal(t, Date{2024, 2, 29}, got)

	got, err = Add(Duration{Seconds: 60}, Time{23, 59, 30, 0})
	require.NoError(t, err)
	assert.Equal(t, Time{0, 0, 30, 0}, got)

	got, err = Sub(Date{2024, 3, 1}, Date{2024, 2, 28})
	require.NoError(t, err)
	assert.Equal(t, Duration{Seconds: 2 * 86400}, got)

	got, err = Sub(DateTime{Date{2024, 1, 1}, Time{}}, Duration{Seconds: 1})
	require.NoError(t, err)
	assert.Equal(t, "2023-12-31T23:59:59.000000", got.String())

	got, err = Add(Duration{Seconds: 1, Months: 1}, Duration{Seconds: 2})
	require.NoError(t, err)
	assert.Equal(t, Duration{Seconds: 3, Months: 1}, got)
}
