package functions

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/orneryd/nornicexpr/pkg/value"
)

// AggregateFunc folds a list of values into one. NULL and EMPTY inputs have
// already been removed.
type AggregateFunc func(vals []value.Value) (value.Value, error)

var aggregates = map[string]AggregateFunc{
	"count":       aggCount,
	"sum":         aggSum,
	"avg":         aggAvg,
	"min":         func(vals []value.Value) (value.Value, error) { return aggExtreme(vals, -1), nil },
	"max":         func(vals []value.Value) (value.Value, error) { return aggExtreme(vals, 1), nil },
	"collect":     aggCollect,
	"collect_set": aggCollectSet,
	"std":         aggStd,
	"bit_and":     aggBits("bit_and", func(a, b int64) int64 { return a & b }),
	"bit_or":      aggBits("bit_or", func(a, b int64) int64 { return a | b }),
}

// IsAggregate reports whether name is an aggregate function.
func IsAggregate(name string) bool {
	_, ok := aggregates[strings.ToLower(name)]
	return ok
}

// AggregateNames returns the aggregate function names, sorted.
func AggregateNames() []string {
	names := make([]string, 0, len(aggregates))
	for n := range aggregates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Aggregate applies the named aggregate to vals. NULL and EMPTY elements
// are skipped; distinct keeps only the first of each group of equal values.
//
// Example:
//
//	Aggregate("sum", false, []value.Value{value.Int(1), value.NullValue, value.Int(2)}) // 3
//	Aggregate("count", true, []value.Value{value.Int(1), value.Float(1), value.Int(1)}) // 2
func Aggregate(name string, distinct bool, vals []value.Value) (value.Value, error) {
	fn, ok := aggregates[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: aggregate %s", ErrUndefinedFunction, name)
	}
	kept := make([]value.Value, 0, len(vals))
	for _, v := range vals {
		if !value.IsNull(v) && !value.IsEmpty(v) {
			kept = append(kept, v)
		}
	}
	if distinct {
		kept = dedupe(kept)
	}
	return fn(kept)
}

// dedupe keeps the first occurrence of each value, bucketing by hash.
func dedupe(vals []value.Value) []value.Value {
	seen := make(map[uint64][]value.Value, len(vals))
	out := vals[:0:0]
	for _, v := range vals {
		h := value.Hash(v)
		dup := false
		for _, prev := range seen[h] {
			if value.Equal(prev, v) {
				dup = true
				break
			}
		}
		if !dup {
			seen[h] = append(seen[h], v)
			out = append(out, v)
		}
	}
	return out
}

func aggCount(vals []value.Value) (value.Value, error) {
	return value.Int(len(vals)), nil
}

func aggSum(vals []value.Value) (value.Value, error) {
	var acc value.Value = value.Int(0)
	for _, v := range vals {
		if !value.IsNumeric(v) {
			return nil, fmt.Errorf("%w: sum over %s", ErrInvalidArgument, value.TypeOf(v))
		}
		next, err := value.Add(acc, v)
		if err != nil {
			return nil, err
		}
		if value.IsNull(next) {
			return next, nil
		}
		acc = next
	}
	return acc, nil
}

func floats(name string, vals []value.Value) ([]float64, error) {
	out := make([]float64, len(vals))
	for i, v := range vals {
		switch n := v.(type) {
		case value.Int:
			out[i] = float64(n)
		case value.Float:
			out[i] = float64(n)
		default:
			return nil, fmt.Errorf("%w: %s over %s", ErrInvalidArgument, name, value.TypeOf(v))
		}
	}
	return out, nil
}

func aggAvg(vals []value.Value) (value.Value, error) {
	fs, err := floats("avg", vals)
	if err != nil {
		return nil, err
	}
	if len(fs) == 0 {
		return value.NullValue, nil
	}
	var sum float64
	for _, f := range fs {
		sum += f
	}
	return floatResult(sum / float64(len(fs))), nil
}

func aggStd(vals []value.Value) (value.Value, error) {
	fs, err := floats("std", vals)
	if err != nil {
		return nil, err
	}
	if len(fs) == 0 {
		return value.NullValue, nil
	}
	// Welford's online update.
	var mean, m2 float64
	for i, f := range fs {
		delta := f - mean
		mean += delta / float64(i+1)
		m2 += delta * (f - mean)
	}
	return floatResult(math.Sqrt(m2 / float64(len(fs)))), nil
}

// aggExtreme returns the minimum (sign -1) or maximum (sign 1) under the
// total value order.
func aggExtreme(vals []value.Value, sign int) value.Value {
	if len(vals) == 0 {
		return value.NullValue
	}
	best := vals[0]
	for _, v := range vals[1:] {
		if value.Compare(v, best)*sign > 0 {
			best = v
		}
	}
	return best
}

func aggCollect(vals []value.Value) (value.Value, error) {
	return append(value.List{}, vals...), nil
}

func aggCollectSet(vals []value.Value) (value.Value, error) {
	return value.NewSet(vals...), nil
}

func aggBits(name string, op func(a, b int64) int64) AggregateFunc {
	return func(vals []value.Value) (value.Value, error) {
		if len(vals) == 0 {
			return value.NullValue, nil
		}
		var acc int64
		for i, v := range vals {
			n, ok := v.(value.Int)
			if !ok {
				return nil, fmt.Errorf("%w: %s over %s", ErrInvalidArgument, name, value.TypeOf(v))
			}
			if i == 0 {
				acc = int64(n)
				continue
			}
			acc = op(acc, int64(n))
		}
		return value.Int(acc), nil
	}
}
