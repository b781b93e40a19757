package functions

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/nornicexpr/pkg/value"
)

func TestAggregates(t *testing.T) {
	vals := []value.Value{value.Int(3), value.NullValue, value.Int(1), value.EmptyValue, value.Int(3), value.Float(2)}

	tests := []struct {
		name     string
		fn       string
		distinct bool
		want     value.Value
	}{
		{"count skips nulls", "count", false, value.Int(4)},
		{"count distinct", "count", true, value.Int(3)},
		{"sum widens", "sum", false, value.Float(9)},
		{"sum distinct", "sum", true, value.Float(6)},
		{"avg", "avg", false, value.Float(2.25)},
		{"min", "min", false, value.Int(1)},
		{"max uses total order", "max", false, value.Float(2)},
		{"collect", "COLLECT", false, value.List{value.Int(3), value.Int(1), value.Int(3), value.Float(2)}},
		{"collect distinct keeps first order", "collect", true, value.List{value.Int(3), value.Int(1), value.Float(2)}},
		{"collect_set", "collect_set", false, value.NewSet(value.Int(1), value.Int(3), value.Float(2))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Aggregate(tt.fn, tt.distinct, vals)
			require.NoError(t, err)
			assert.True(t, value.Equal(tt.want, got), "want %v got %v", tt.want, got)
		})
	}
}

func TestAggregateEdgeCases(t *testing.T) {
	got, err := Aggregate("std", false, []value.Value{value.Int(2), value.Int(4), value.Int(4), value.Int(4), value.Int(5), value.Int(5), value.Int(7), value.Int(9)})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, float64(got.(value.Float)), 1e-12)

	got, err = Aggregate("bit_and", false, []value.Value{value.Int(12), value.Int(10)})
	require.NoError(t, err)
	assert.Equal(t, value.Int(8), got)

	got, err = Aggregate("bit_or", false, []value.Value{value.Int(12), value.Int(10)})
	require.NoError(t, err)
	assert.Equal(t, value.Int(14), got)

	for _, fn := range []string{"avg", "min", "max", "std", "bit_and"} {
		got, err := Aggregate(fn, false, []value.Value{value.NullValue})
		require.NoError(t, err)
		assert.Equal(t, value.NullValue, got, fn)
	}
	got, err = Aggregate("sum", false, nil)
	require.NoError(t, err)
	assert.Equal(t, value.Int(0), got)

	got, err = Aggregate("sum", false, []value.Value{value.Int(math.MaxInt64), value.Int(1)})
	require.NoError(t, err)
	assert.Equal(t, value.OverflowValue, got)

	_, err = Aggregate("sum", false, []value.Value{value.String("x")})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = Aggregate("median", false, nil)
	assert.ErrorIs(t, err, ErrUndefinedFunction)

	assert.True(t, IsAggregate("Count"))
	assert.False(t, IsAggregate("abs"))
	assert.Equal(t, "avg", AggregateNames()[0])
}
