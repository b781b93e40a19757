package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBool(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want Value
	}{
		{"true string", String("true"), Bool(true)},
		{"mixed case", String("FaLsE"), Bool(false)},
		{"unknown word is a soft failure", String("yes"), NullValue},
		{"int has no rule", Int(1), BadDataValue},
		{"bool passthrough", Bool(true), Bool(true)},
		{"empty source", EmptyValue, NullValue},
		{"null source", NullValue, NullValue},
		{"typed null keeps its kind", DivByZeroValue, DivByZeroValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, Equal(tt.want, ToBool(tt.in)), "want %v got %v", tt.want, ToBool(tt.in))
		})
	}
}

func TestToIntAndFloat(t *testing.T) {
	assert.Equal(t, Int(3), ToInt(Float(3.9)))
	assert.Equal(t, Int(-3), ToInt(Float(-3.9)))
	assert.Equal(t, NullValue, ToInt(Float(math.NaN())))
	assert.Equal(t, NullValue, ToInt(Float(math.Inf(1))))
	assert.Equal(t, Int(math.MaxInt64), ToInt(Float(1e300)))
	assert.Equal(t, Int(math.MinInt64), ToInt(Float(-1e300)))
	assert.Equal(t, Int(42), ToInt(String(" 42 ")))
	assert.Equal(t, Int(4), ToInt(String("4.7")))
	assert.Equal(t, NullValue, ToInt(String("abc")))
	assert.Equal(t, BadDataValue, ToInt(Bool(true)))
	assert.Equal(t, BadDataValue, ToInt(List{Int(1)}))

	assert.Equal(t, Float(2), ToFloat(Int(2)))
	assert.Equal(t, Float(2.5), ToFloat(String("2.5")))
	assert.Equal(t, NullValue, ToFloat(String("two")))
	assert.Equal(t, BadDataValue, ToFloat(Bool(false)))
}

func TestConversionIdempotence(t *testing.T) {
	conversions := map[string]func(Value) Value{
		"int": ToInt, "float": ToFloat, "bool": ToBool, "string": ToString,
		"date": ToDate, "time": ToTime, "datetime": ToDateTime, "duration": ToDuration,
		"list": ToList, "set": ToSet, "map": ToMap, "geography": ToGeography,
	}
	inputs := append(sampleValues(), String("12"), String("2024-01-01"), String("12:00"), String("P1D"), String("POINT(1 2)"))
	for name, conv := range conversions {
		for _, v := range inputs {
			once := conv(v)
			assert.True(t, Equal(once, conv(once)), "%s(%s(%v)) must equal %s(%v)", name, name, v, name, v)
		}
	}
}

func TestNullSources(t *testing.T) {
	for _, src := range []Value{nil, EmptyValue, NullValue} {
		assert.Equal(t, NullValue, ToInt(src))
		assert.Equal(t, NullValue, ToString(src))
	}
	for _, src := range []Value{BadDataValue, OverflowValue, NaNValue} {
		assert.Equal(t, src, ToInt(src), "the null kind is kept")
		assert.Equal(t, src, ToDate(src))
	}
	assert.Equal(t, BadDataValue, ToInt(ToInt(List{})))
}

func TestStringToTemporal(t *testing.T) {
	t.Run("date formats normalise to canonical text", func(t *testing.T) {
		for _, in := range []string{"2024-02-29", "2024/02/29", "20240229"} {
			d := ToDate(String(in))
			require.IsType(t, Date{}, d, in)
			assert.Equal(t, "2024-02-29", ToString(d).String())
		}
	})

	t.Run("invalid dates are bad data", func(t *testing.T) {
		assert.Equal(t, BadDataValue, ToDate(String("2023-02-29")))
		assert.Equal(t, BadDataValue, ToDate(String("29.02.2024")))
	})

	t.Run("time formats", func(t *testing.T) {
		assert.Equal(t, Time{12, 30, 0, 0}, ToTime(String("12:30")))
		assert.Equal(t, Time{12, 30, 45, 0}, ToTime(String("12:30:45")))
		assert.Equal(t, Time{12, 30, 45, 123000}, ToTime(String("12:30:45.123")))
		assert.Equal(t, BadDataValue, ToTime(String("25:00")))
	})

	t.Run("datetime formats", func(t *testing.T) {
		assert.Equal(t, "2024-01-01T10:00:00.000000", ToDateTime(String("2024-01-01T10:00:00")).String())
		assert.Equal(t, "2024-01-01T10:00:00.250000", ToDateTime(String("2024-01-01 10:00:00.25")).String())
		assert.Equal(t, "2024-01-01T08:00:00.000000", ToDateTime(String("2024-01-01T10:00:00+02:00")).String())
		assert.Equal(t, "2024-01-01T00:00:00.000000", ToDateTime(String("2024-01-01")).String())
		assert.Equal(t, "1970-01-02T00:00:00.000000", ToDateTime(Int(86400)).String())
	})

	t.Run("temporal projections", func(t *testing.T) {
		dt := DateTime{Date{2024, 5, 6}, Time{7, 8, 9, 0}}
		assert.Equal(t, Date{2024, 5, 6}, ToDate(dt))
		assert.Equal(t, Time{7, 8, 9, 0}, ToTime(dt))
		assert.Equal(t, DateTime{Date: Date{2024, 5, 6}}, ToDateTime(Date{2024, 5, 6}))
	})

	t.Run("durations", func(t *testing.T) {
		assert.Equal(t, Duration{Seconds: 86400}, ToDuration(String("P1D")))
		assert.Equal(t, Duration{Seconds: 5}, ToDuration(Int(5)))
		assert.Equal(t, BadDataValue, ToDuration(String("one day")))
	})
}

func TestToStringAndContainers(t *testing.T) {
	assert.Equal(t, String("3.0"), ToString(Float(3)))
	assert.Equal(t, String("true"), ToString(Bool(true)))
	assert.Equal(t, String("POINT(2 1)"), ToString(Geography{Latitude: 1, Longitude: 2}))
	assert.Equal(t, BadDataValue, ToString(List{}))

	set := ToSet(List{Int(2), Int(1), Int(2)})
	require.IsType(t, &Set{}, set)
	assert.Equal(t, 2, set.(*Set).Len())
	assert.True(t, Equal(List{Int(1), Int(2)}, ToList(set)))
	assert.Equal(t, BadDataValue, ToMap(List{}))
	assert.True(t, Equal(Map{"a": Int(1)}, ToMap(Map{"a": Int(1)})))
}

func TestTryImplicitCast(t *testing.T) {
	v, err := TryImplicitCast(String("7"), TypeInt)
	require.NoError(t, err)
	assert.Equal(t, Int(7), v)

	v, err = TryImplicitCast(Int(1), TypeBool)
	require.NoError(t, err)
	assert.Equal(t, BadDataValue, v)

	_, err = TryImplicitCast(Int(1), TypeVertex)
	assert.ErrorIs(t, err, ErrUnsupportedCast)
}
