package functions

import (
	"github.com/orneryd/nornicexpr/pkg/value"
)

// convertFn exposes a total value conversion as a one-argument function.
// Conversions never fail; unconvertible input comes back as a Null kind.
func convertFn(conv func(value.Value) value.Value) Body {
	return func(_ Env, args []value.Value) (value.Value, error) {
		return conv(args[0]), nil
	}
}

func registerConversion(r *Registry) {
	conversions := []struct {
		name, desc string
		conv       func(value.Value) value.Value
		examples   []string
	}{
		{"to_bool", "Convert to boolean; only \"true\"/\"false\" text converts", value.ToBool, []string{`to_bool("TRUE") => true`}},
		{"to_int", "Convert to integer; floats truncate", value.ToInt, []string{`to_int("42") => 42`, `to_int(3.9) => 3`}},
		{"to_integer", "Alias of to_int", value.ToInt, nil},
		{"to_float", "Convert to float", value.ToFloat, []string{`to_float("2.5") => 2.5`}},
		{"to_string", "Canonical text of a scalar or temporal value", value.ToString, []string{`to_string(3.0) => "3.0"`}},
		{"toset", "Deduplicate a list into a set", value.ToSet, []string{`toset([2, 1, 2]) => {1, 2}`}},
		{"to_list", "Convert a set into a sorted list", value.ToList, nil},
	}
	for _, c := range conversions {
		r.add(Descriptor{
			Name: c.name, Category: CategoryConversion, MinArity: 1, MaxArity: 1, Pure: true,
			Description: c.desc, Examples: c.examples, Body: convertFn(c.conv),
		})
	}
}
