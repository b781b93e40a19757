package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleValues covers every variant, including the float and null corner
// cases, for the law tests below.
func sampleValues() []Value {
	v1 := &Vertex{VID: String("a"), Tags: []Tag{{Name: "player", Props: Map{"age": Int(30)}}}}
	v2 := &Vertex{VID: String("b"), Tags: []Tag{{Name: "team", Props: Map{}}}}
	e := &Edge{Src: String("a"), Dst: String("b"), EdgeType: "serve", Ranking: 0, Props: Map{"start": Int(2001)}}
	return []Value{
		EmptyValue,
		NullValue, NaNValue, BadDataValue, BadTypeValue, OverflowValue,
		UnknownPropValue, DivByZeroValue, OutOfRangeValue,
		Bool(false), Bool(true),
		Int(math.MinInt64), Int(-1), Int(0), Int(1), Int(math.MaxInt64),
		Float(math.NaN()), Float(math.Inf(-1)), Float(-1.5), Float(0), Float(math.Copysign(0, -1)),
		Float(2.5), Float(math.Inf(1)),
		String(""), String("a"), String("ab"), String("b"),
		Date{2024, 2, 29}, Date{2024, 3, 1},
		Time{10, 0, 0, 0}, Time{10, 0, 0, 1},
		DateTime{Date{2024, 1, 1}, Time{0, 0, 0, 0}},
		Duration{Seconds: 60}, Duration{Seconds: 60, Months: 1},
		Geography{Latitude: 1, Longitude: 2}, Geography{Latitude: math.NaN(), Longitude: 0},
		v1, v2, e,
		&Path{Src: v1, Steps: []Step{{Dst: v2, Edge: e}}},
		List{}, List{Int(1)}, List{Int(1), Int(2)}, List{Int(2)},
		Map{}, Map{"a": Int(1)}, Map{"a": Int(2)}, Map{"b": Int(1)},
		NewSet(), NewSet(Int(1), Int(2)), NewSet(String("x")),
		&DataSet{ColNames: []string{"a"}, Rows: [][]Value{{Int(1)}}},
	}
}

func TestHashEqualLaw(t *testing.T) {
	vals := sampleValues()
	for _, a := range vals {
		for _, b := range vals {
			if Equal(a, b) {
				assert.Equal(t, Hash(a), Hash(b), "equal values %v and %v must hash equal", a, b)
			}
		}
	}
}

func TestFloatCornerCases(t *testing.T) {
	t.Run("independent NaNs are equal and hash equal", func(t *testing.T) {
		a := Float(math.NaN())
		b := Float(math.Float64frombits(0x7ff8000000000001))
		require.True(t, math.IsNaN(float64(b)))
		assert.True(t, Equal(a, b))
		assert.Equal(t, Hash(a), Hash(b))
	})

	t.Run("signed zeros are equal and hash equal", func(t *testing.T) {
		a, b := Float(0.0), Float(math.Copysign(0, -1))
		assert.True(t, Equal(a, b))
		assert.Equal(t, Hash(a), Hash(b))
	})

	t.Run("NaN sorts below every other float", func(t *testing.T) {
		nan := Float(math.NaN())
		assert.Equal(t, -1, Compare(nan, Float(math.Inf(-1))))
		assert.Equal(t, 1, Compare(Float(math.Inf(-1)), nan))
	})

	t.Run("geography canonicalises coordinates", func(t *testing.T) {
		a := Geography{Latitude: math.NaN(), Longitude: 0}
		b := Geography{Latitude: math.Float64frombits(0x7ff8000000000002), Longitude: math.Copysign(0, -1)}
		assert.True(t, Equal(a, b))
		assert.Equal(t, Hash(a), Hash(b))
	})
}

func TestCompareIsTotalOrder(t *testing.T) {
	vals := sampleValues()
	for _, a := range vals {
		for _, b := range vals {
			ab, ba := Compare(a, b), Compare(b, a)
			assert.Equal(t, -ab, ba, "antisymmetry for %v, %v", a, b)
			for _, c := range vals {
				if ab <= 0 && Compare(b, c) <= 0 {
					assert.LessOrEqual(t, Compare(a, c), 0, "transitivity for %v <= %v <= %v", a, b, c)
				}
			}
		}
	}
}

func TestCrossVariantOrder(t *testing.T) {
	vals := []Value{String("a"), Int(1), NullValue, Bool(true), Float(1.5), EmptyValue, BadDataValue, List{}, Date{2020, 1, 1}}
	Sort(vals)
	expected := []Value{EmptyValue, NullValue, BadDataValue, Bool(true), Int(1), Float(1.5), String("a"), Date{2020, 1, 1}, List{}}
	require.Len(t, vals, len(expected))
	for i := range expected {
		assert.True(t, Equal(expected[i], vals[i]), "position %d: want %v got %v", i, expected[i], vals[i])
	}

	again := append([]Value(nil), vals...)
	Sort(again)
	for i := range vals {
		assert.True(t, Equal(vals[i], again[i]), "re-sort must be idempotent")
	}
}

func TestNullKindsOrderByPriority(t *testing.T) {
	ladder := []Value{NullValue, NaNValue, BadDataValue, BadTypeValue, OverflowValue, UnknownPropValue, DivByZeroValue, OutOfRangeValue}
	for i := 1; i < len(ladder); i++ {
		assert.Equal(t, -1, Compare(ladder[i-1], ladder[i]), "%v < %v", ladder[i-1], ladder[i])
		assert.False(t, Equal(ladder[i-1], ladder[i]))
	}
}

func TestContainerOrdering(t *testing.T) {
	t.Run("shorter list with equal prefix sorts first", func(t *testing.T) {
		assert.Equal(t, -1, Compare(List{Int(1)}, List{Int(1), Int(0)}))
		assert.Equal(t, 1, Compare(List{Int(2)}, List{Int(1), Int(0)}))
	})

	t.Run("maps by cardinality then sorted pairs", func(t *testing.T) {
		assert.Equal(t, -1, Compare(Map{"z": Int(9)}, Map{"a": Int(1), "b": Int(2)}))
		assert.Equal(t, -1, Compare(Map{"a": Int(1)}, Map{"b": Int(0)}))
		assert.Equal(t, -1, Compare(Map{"a": Int(1)}, Map{"a": Int(2)}))
	})

	t.Run("map insertion order does not matter", func(t *testing.T) {
		a := Map{}
		a["x"] = Int(1)
		a["y"] = String("two")
		b := Map{}
		b["y"] = String("two")
		b["x"] = Int(1)
		assert.True(t, Equal(a, b))
		assert.Equal(t, Hash(a), Hash(b))
	})

	t.Run("sets ignore insertion order", func(t *testing.T) {
		a := NewSet(Int(3), Int(1), Int(2))
		b := NewSet(Int(2), Int(3), Int(1), Int(1))
		assert.Equal(t, 3, b.Len())
		assert.True(t, Equal(a, b))
		assert.Equal(t, Hash(a), Hash(b))
	})

	t.Run("durations by seconds then micros then months", func(t *testing.T) {
		assert.Equal(t, -1, Compare(Duration{Seconds: 1, Months: 5}, Duration{Seconds: 2}))
		assert.Equal(t, -1, Compare(Duration{Seconds: 1}, Duration{Seconds: 1, Months: 1}))
	})
}

func TestDistinctStringsHashDifferently(t *testing.T) {
	assert.NotEqual(t, Hash(List{String("ab"), String("c")}), Hash(List{String("a"), String("bc")}))
	assert.NotEqual(t, Hash(Int(1)), Hash(Float(1)))
	assert.False(t, Equal(Int(1), Float(1)))
}

func TestCompareIntFloat(t *testing.T) {
	tests := []struct {
		i    int64
		f    float64
		want int
	}{
		{2, 2.0, 0},
		{2, 2.5, -1},
		{3, 2.5, 1},
		{-3, -2.5, -1},
		{-2, -2.5, 1},
		{1<<53 + 1, 1 << 53, 1},
		{1 << 53, 1 << 53, 0},
		{math.MaxInt64, 1 << 63, -1},
		{math.MinInt64, -1 << 63, 0},
		{math.MinInt64, math.Inf(-1), 1},
		{0, math.NaN(), 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CompareIntFloat(tt.i, tt.f), "%d vs %v", tt.i, tt.f)
	}
}
