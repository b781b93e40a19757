package functions

import (
	"math"
	"math/rand/v2"

	"github.com/orneryd/nornicexpr/pkg/value"
)

// floatFn builds a strict single-argument function over float64.
func floatFn(name string, f func(float64) float64) Body {
	return strict(func(_ Env, args []value.Value) (value.Value, error) {
		x, err := floatArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		return floatResult(f(x)), nil
	})
}

// roundingFn keeps integers as they are and rounds floats with f.
func roundingFn(name string, f func(float64) float64) Body {
	return strict(func(_ Env, args []value.Value) (value.Value, error) {
		switch x := args[0].(type) {
		case value.Int:
			return x, nil
		case value.Float:
			return value.Float(f(float64(x))), nil
		}
		return nil, argError(name, 0, "a number", args[0])
	})
}

func bitFn(name string, f func(a, b int64) int64) Body {
	return strict(func(_ Env, args []value.Value) (value.Value, error) {
		a, err := intArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		b, err := intArg(name, args, 1)
		if err != nil {
			return nil, err
		}
		return value.Int(f(a, b)), nil
	})
}

func registerMath(r *Registry) {
	unary := func(name, desc string, f func(float64) float64, examples ...string) {
		r.add(Descriptor{Name: name, Category: CategoryMath, MinArity: 1, MaxArity: 1, Pure: true,
			Description: desc, Examples: examples, Body: floatFn(name, f)})
	}

	r.add(Descriptor{
		Name: "abs", Category: CategoryMath, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Absolute value; integers stay integers",
		Examples:    []string{"abs(-3) => 3"},
		Body: strict(func(_ Env, args []value.Value) (value.Value, error) {
			return value.Abs(args[0])
		}),
	})
	r.add(Descriptor{
		Name: "ceil", Category: CategoryMath, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Smallest integral value not less than x",
		Examples:    []string{"ceil(1.2) => 2.0"},
		Body:        roundingFn("ceil", math.Ceil),
	})
	r.add(Descriptor{
		Name: "floor", Category: CategoryMath, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Largest integral value not greater than x",
		Examples:    []string{"floor(1.8) => 1.0"},
		Body:        roundingFn("floor", math.Floor),
	})
	r.add(Descriptor{
		Name: "round", Category: CategoryMath, MinArity: 1, MaxArity: 2, Pure: true,
		Description: "Round half away from zero, optionally to a number of decimal places",
		Examples:    []string{"round(2.5) => 3.0", "round(3.14159, 2) => 3.14"},
		Body:        strict(roundBody),
	})
	unary("sqrt", "Square root", math.Sqrt, "sqrt(16) => 4.0")
	unary("cbrt", "Cube root", math.Cbrt, "cbrt(27) => 3.0")
	r.add(Descriptor{
		Name: "pow", Category: CategoryMath, MinArity: 2, MaxArity: 2, Pure: true,
		Description: "x raised to the power y",
		Examples:    []string{"pow(2, 10) => 1024"},
		Body: strict(func(_ Env, args []value.Value) (value.Value, error) {
			return value.Pow(args[0], args[1])
		}),
	})
	unary("exp", "e raised to the power x", math.Exp, "exp(0) => 1.0")
	unary("exp2", "2 raised to the power x", math.Exp2, "exp2(3) => 8.0")
	r.add(Descriptor{
		Name: "log", Category: CategoryMath, MinArity: 1, MaxArity: 2, Pure: true,
		Description: "Natural logarithm, or the logarithm in the given base",
		Examples:    []string{"log(e()) => 1.0", "log(8, 2) => 3.0"},
		Body: strict(func(_ Env, args []value.Value) (value.Value, error) {
			x, err := floatArg("log", args, 0)
			if err != nil {
				return nil, err
			}
			if len(args) == 1 {
				return floatResult(math.Log(x)), nil
			}
			base, err := floatArg("log", args, 1)
			if err != nil {
				return nil, err
			}
			return floatResult(math.Log(x) / math.Log(base)), nil
		}),
	})
	unary("log2", "Base-2 logarithm", math.Log2, "log2(8) => 3.0")
	unary("log10", "Base-10 logarithm", math.Log10, "log10(1000) => 3.0")
	unary("sin", "Sine of x radians", math.Sin)
	unary("cos", "Cosine of x radians", math.Cos)
	unary("tan", "Tangent of x radians", math.Tan)
	unary("asin", "Arc sine in radians", math.Asin)
	unary("acos", "Arc cosine in radians", math.Acos)
	unary("atan", "Arc tangent in radians", math.Atan)
	unary("radians", "Degrees to radians", func(x float64) float64 { return x * math.Pi / 180 }, "radians(180) => 3.141592653589793")
	unary("degrees", "Radians to degrees", func(x float64) float64 { return x * 180 / math.Pi }, "degrees(pi()) => 180.0")

	r.add(Descriptor{
		Name: "sign", Category: CategoryMath, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "-1, 0 or 1 according to the sign of x",
		Examples:    []string{"sign(-2.5) => -1"},
		Body: strict(func(_ Env, args []value.Value) (value.Value, error) {
			x, err := floatArg("sign", args, 0)
			if err != nil {
				return nil, err
			}
			switch {
			case math.IsNaN(x):
				return value.NaNValue, nil
			case x > 0:
				return value.Int(1), nil
			case x < 0:
				return value.Int(-1), nil
			}
			return value.Int(0), nil
		}),
	})
	r.add(Descriptor{
		Name: "hypot", Category: CategoryMath, MinArity: 2, MaxArity: 2, Pure: true,
		Description: "sqrt(x*x + y*y) without undue overflow",
		Examples:    []string{"hypot(3, 4) => 5.0"},
		Body: strict(func(_ Env, args []value.Value) (value.Value, error) {
			x, err := floatArg("hypot", args, 0)
			if err != nil {
				return nil, err
			}
			y, err := floatArg("hypot", args, 1)
			if err != nil {
				return nil, err
			}
			return floatResult(math.Hypot(x, y)), nil
		}),
	})
	r.add(Descriptor{
		Name: "pi", Category: CategoryMath, MinArity: 0, MaxArity: 0, Pure: true,
		Description: "The constant pi",
		Body: func(Env, []value.Value) (value.Value, error) {
			return value.Float(math.Pi), nil
		},
	})
	r.add(Descriptor{
		Name: "e", Category: CategoryMath, MinArity: 0, MaxArity: 0, Pure: true,
		Description: "Euler's number",
		Body: func(Env, []value.Value) (value.Value, error) {
			return value.Float(math.E), nil
		},
	})
	r.add(Descriptor{
		Name: "rand", Category: CategoryMath, MinArity: 0, MaxArity: 0,
		Description: "Uniform random float in [0, 1)",
		Body: func(Env, []value.Value) (value.Value, error) {
			return value.Float(rand.Float64()), nil
		},
	})
	r.add(Descriptor{
		Name: "bit_and", Category: CategoryMath, MinArity: 2, MaxArity: 2, Pure: true,
		Description: "Bitwise AND of two integers",
		Examples:    []string{"bit_and(12, 10) => 8"},
		Body:        bitFn("bit_and", func(a, b int64) int64 { return a & b }),
	})
	r.add(Descriptor{
		Name: "bit_or", Category: CategoryMath, MinArity: 2, MaxArity: 2, Pure: true,
		Description: "Bitwise OR of two integers",
		Examples:    []string{"bit_or(12, 10) => 14"},
		Body:        bitFn("bit_or", func(a, b int64) int64 { return a | b }),
	})
	r.add(Descriptor{
		Name: "bit_xor", Category: CategoryMath, MinArity: 2, MaxArity: 2, Pure: true,
		Description: "Bitwise XOR of two integers",
		Examples:    []string{"bit_xor(12, 10) => 6"},
		Body:        bitFn("bit_xor", func(a, b int64) int64 { return a ^ b }),
	})
}

func roundBody(_ Env, args []value.Value) (value.Value, error) {
	var places int64
	if len(args) == 2 {
		p, err := intArg("round", args, 1)
		if err != nil {
			return nil, err
		}
		places = p
	}
	switch x := args[0].(type) {
	case value.Int:
		if places >= 0 {
			return x, nil
		}
		scale := math.Pow(10, float64(-places))
		return value.ToInt(value.Float(math.Round(float64(x)/scale) * scale)), nil
	case value.Float:
		if places == 0 {
			return value.Float(math.Round(float64(x))), nil
		}
		scale := math.Pow(10, float64(places))
		return floatResult(math.Round(float64(x)*scale) / scale), nil
	}
	return nil, argError("round", 0, "a number", args[0])
}
