package functions

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/nornicexpr/pkg/value"
)

type callCase struct {
	name string
	fn   string
	args []value.Value
	want value.Value
}

func args(vs ...value.Value) []value.Value { return vs }

func runCalls(t *testing.T, reg *Registry, tests []callCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reg.Call(newEnv(), tt.fn, tt.args)
			require.NoError(t, err)
			assert.True(t, value.Equal(tt.want, got), "%s: want %v got %v", tt.fn, tt.want, got)
		})
	}
}

func TestMathFunctions(t *testing.T) {
	null := value.NullValue
	runCalls(t, NewRegistry(nil), []callCase{
		{"abs int", "abs", args(value.Int(-3)), value.Int(3)},
		{"abs null", "abs", args(null), null},
		{"ceil float", "ceil", args(value.Float(1.2)), value.Float(2)},
		{"floor keeps ints", "floor", args(value.Int(5)), value.Int(5)},
		{"round half away", "round", args(value.Float(2.5)), value.Float(3)},
		{"round negative half", "round", args(value.Float(-2.5)), value.Float(-3)},
		{"round places", "round", args(value.Float(3.14159), value.Int(2)), value.Float(3.14)},
		{"round int to hundreds", "round", args(value.Int(1250), value.Int(-2)), value.Int(1300)},
		{"sqrt", "sqrt", args(value.Int(16)), value.Float(4)},
		{"sqrt negative is NaN", "sqrt", args(value.Int(-1)), value.NaNValue},
		{"pow", "pow", args(value.Int(2), value.Int(10)), value.Int(1024)},
		{"exp", "exp", args(value.Int(0)), value.Float(1)},
		{"log2", "log2", args(value.Int(8)), value.Float(3)},
		{"log of zero", "log", args(value.Int(0)), value.Float(math.Inf(-1))},
		{"sin", "sin", args(value.Int(0)), value.Float(0)},
		{"sign", "sign", args(value.Float(-2.5)), value.Int(-1)},
		{"sign zero", "sign", args(value.Int(0)), value.Int(0)},
		{"hypot", "hypot", args(value.Int(3), value.Int(4)), value.Float(5)},
		{"pi", "pi", nil, value.Float(math.Pi)},
		{"e", "e", nil, value.Float(math.E)},
		{"bit_and", "bit_and", args(value.Int(12), value.Int(10)), value.Int(8)},
		{"bit_or", "bit_or", args(value.Int(12), value.Int(10)), value.Int(14)},
		{"bit_xor", "bit_xor", args(value.Int(12), value.Int(10)), value.Int(6)},
	})

	reg := NewRegistry(nil)
	approx := []callCase{
		{"log base", "log", args(value.Int(8), value.Int(2)), value.Float(3)},
		{"log10", "log10", args(value.Int(1000)), value.Float(3)},
		{"cbrt", "cbrt", args(value.Float(27)), value.Float(3)},
		{"exp2", "exp2", args(value.Int(3)), value.Float(8)},
		{"degrees", "degrees", args(value.Float(math.Pi)), value.Float(180)},
		{"radians", "radians", args(value.Int(180)), value.Float(math.Pi)},
	}
	for _, tt := range approx {
		got, err := reg.Call(newEnv(), tt.fn, tt.args)
		require.NoError(t, err, tt.name)
		require.IsType(t, value.Float(0), got, tt.name)
		assert.InDelta(t, float64(tt.want.(value.Float)), float64(got.(value.Float)), 1e-9, tt.name)
	}

	got, err := reg.Call(newEnv(), "rand", nil)
	require.NoError(t, err)
	f := float64(got.(value.Float))
	assert.True(t, f >= 0 && f < 1)

	_, err = reg.Call(newEnv(), "abs", args(value.String("x")))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = reg.Call(newEnv(), "bit_and", args(value.Float(1), value.Int(1)))
	assert.EqualError(t, err, "invalid argument: bit_and argument 1 must be an integer, got FLOAT")
}

func TestStringFunctions(t *testing.T) {
	s := func(x string) value.Value { return value.String(x) }
	runCalls(t, NewRegistry(nil), []callCase{
		{"lower", "lower", args(s("ÄBC")), s("äbc")},
		{"upper", "upper", args(s("héllo")), s("HÉLLO")},
		{"trim", "trim", args(s("  a  ")), s("a")},
		{"ltrim", "ltrim", args(s("  a  ")), s("a  ")},
		{"rtrim", "rtrim", args(s("  a  ")), s("  a")},
		{"left", "left", args(s("abcdef"), value.Int(3)), s("abc")},
		{"left past end", "left", args(s("ab"), value.Int(5)), s("ab")},
		{"right", "right", args(s("abcdef"), value.Int(3)), s("def")},
		{"right counts runes", "right", args(s("añb"), value.Int(2)), s("ñb")},
		{"lpad", "lpad", args(s("7"), value.Int(3), s("0")), s("007")},
		{"rpad cycles pad", "rpad", args(s("ab"), value.Int(5), s("xy")), s("abxyx")},
		{"lpad truncates", "lpad", args(s("hello"), value.Int(2), s("x")), s("he")},
		{"substring", "substring", args(s("hello"), value.Int(1), value.Int(3)), s("ell")},
		{"substring open", "substring", args(s("hello"), value.Int(2)), s("llo")},
		{"substring past end", "substring", args(s("hello"), value.Int(10)), s("")},
		{"replace", "replace", args(s("a-b-c"), s("-"), s("+")), s("a+b+c")},
		{"reverse string", "reverse", args(s("añb")), s("bña")},
		{"reverse list", "reverse", args(value.List{value.Int(1), value.Int(2)}), value.List{value.Int(2), value.Int(1)}},
		{"split", "split", args(s("a,b,c"), s(",")), value.List{s("a"), s("b"), s("c")}},
		{"concat", "concat", args(s("a"), s("b"), s("c")), s("abc")},
		{"concat null", "concat", args(s("a"), value.NullValue), value.NullValue},
		{"concat_ws", "concat_ws", args(s("-"), s("a"), s("b")), s("a-b")},
		{"strcasecmp equal", "strcasecmp", args(s("ABC"), s("abc")), value.Int(0)},
		{"strcasecmp less", "strcasecmp", args(s("a"), s("B")), value.Int(-1)},
		{"contains", "contains", args(s("hello world"), s("o w")), value.Bool(true)},
		{"starts_with", "starts_with", args(s("hello"), s("he")), value.Bool(true)},
		{"ends_with", "ends_with", args(s("hello"), s("he")), value.Bool(false)},
		{"length", "length", args(s("hello")), value.Int(5)},
		{"length null", "length", args(value.NullValue), value.NullValue},
		{"normalize NFC", "normalize", args(s("e\u0301")), s("\u00e9")},
		{"normalize NFD", "normalize", args(s("\u00e9"), s("nfd")), s("e\u0301")},
	})

	reg := NewRegistry(nil)
	_, err := reg.Call(newEnv(), "substring", args(s("abc"), value.Int(-1)))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = reg.Call(newEnv(), "normalize", args(s("abc"), s("NFX")))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = reg.Call(newEnv(), "concat", args(s("a"), value.Int(1)))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRegexFunctions(t *testing.T) {
	reg := NewRegistry(nil)
	runCalls(t, reg, []callCase{
		{"match", "regex_match", args(value.String("abc123"), value.String("[0-9]+$")), value.Bool(true)},
		{"no match", "regex_match", args(value.String("abc"), value.String("^b")), value.Bool(false)},
		{"replace", "regex_replace", args(value.String("a1b22"), value.String("[0-9]+"), value.String("#")), value.String("a#b#")},
		{"replace groups", "regex_replace", args(value.String("john smith"), value.String(`(\w+) (\w+)`), value.String("$2 $1")), value.String("smith john")},
		{"find", "regex_find", args(value.String("a1b22"), value.String("[0-9]+")), value.List{value.String("1"), value.String("22")}},
	})

	env := newEnv()
	for i := 0; i < 3; i++ {
		_, err := reg.Call(env, "regex_match", args(value.String("x"), value.String("x+")))
		require.NoError(t, err)
	}
	stats := env.c.Stats()
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(2), stats.Hits)

	_, err := reg.Call(env, "regex_match", args(value.String("x"), value.String("(")))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	got, err := reg.Call(testEnv{}, "regex_match", args(value.String("x"), value.String("x")))
	require.NoError(t, err, "works without a cache")
	assert.Equal(t, value.Bool(true), got)
}

func TestDateTimeFunctions(t *testing.T) {
	m := func(kv ...any) value.Map {
		out := value.Map{}
		for i := 0; i < len(kv); i += 2 {
			out[kv[i].(string)] = value.Int(kv[i+1].(int))
		}
		return out
	}
	dt := value.DateTime{Date: value.Date{Year: 2024, Month: 5, Day: 6}, Time: value.Time{Hour: 7, Minute: 8, Second: 9}}
	runCalls(t, NewRegistry(nil), []callCase{
		{"date text", "date", args(value.String("2024-02-29")), value.Date{Year: 2024, Month: 2, Day: 29}},
		{"date map", "date", args(m("year", 2024, "month", 2, "day", 29)), value.Date{Year: 2024, Month: 2, Day: 29}},
		{"date bad text", "date", args(value.String("garbage")), value.BadDataValue},
		{"date impossible map", "date", args(m("year", 2023, "month", 2, "day", 29)), value.OutOfRangeValue},
		{"date of datetime", "date", args(dt), dt.Date},
		{"time text", "time", args(value.String("12:30")), value.Time{Hour: 12, Minute: 30}},
		{"time map", "time", args(m("hour", 23, "minute", 59)), value.Time{Hour: 23, Minute: 59}},
		{"time out of range", "time", args(m("hour", 24)), value.OutOfRangeValue},
		{"datetime epoch", "datetime", args(value.Int(0)), value.DateTime{Date: value.Date{Year: 1970, Month: 1, Day: 1}}},
		{"datetime map", "datetime", args(m("year", 2024, "month", 5, "day", 6, "hour", 7, "minute", 8, "second", 9)), dt},
		{"duration text", "duration", args(value.String("P1DT2H")), value.Duration{Seconds: 93600}},
		{"duration map", "duration", args(m("days", 1, "hours", 2)), value.Duration{Seconds: 93600}},
		{"duration months", "duration", args(m("years", 1, "months", 2)), value.Duration{Months: 14}},
		{"timestamp text", "timestamp", args(value.String("1970-01-02T00:00:00")), value.Int(86400)},
		{"timestamp before epoch", "timestamp", args(value.String("1969-12-31T23:59:59.5")), value.Int(-1)},
		{"year", "year", args(dt), value.Int(2024)},
		{"month", "month", args(dt.Date), value.Int(5)},
		{"day", "day", args(dt), value.Int(6)},
		{"hour", "hour", args(dt.Time), value.Int(7)},
		{"minute", "minute", args(dt), value.Int(8)},
		{"second", "second", args(dt), value.Int(9)},
		{"null propagates", "year", args(value.NullValue), value.NullValue},
	})

	reg := NewRegistry(nil)
	_, err := reg.Call(newEnv(), "hour", args(value.Date{Year: 2024, Month: 1, Day: 1}))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = reg.Call(newEnv(), "date", args(value.Map{"year": value.String("2024")}))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	env := newEnv()
	for i := 0; i < 2; i++ {
		_, err := reg.Call(env, "date", args(value.String("2024-01-01")))
		require.NoError(t, err)
	}
	assert.Equal(t, uint64(1), env.c.Stats().Hits, "date literals are parsed once per context")
}

func graphFixture() (*value.Vertex, *value.Edge, *value.Path) {
	a := &value.Vertex{
		VID:   value.String("a"),
		Tags:  []value.Tag{{Name: "player", Props: value.Map{"name": value.String("Tim"), "age": value.Int(42)}}},
		Props: value.Map{},
	}
	b := &value.Vertex{VID: value.String("b"), Tags: []value.Tag{{Name: "team", Props: value.Map{"name": value.String("Spurs")}}}}
	e := &value.Edge{Src: a.VID, Dst: b.VID, EdgeType: "serve", Ranking: 2, Props: value.Map{"since": value.Int(1997)}}
	p := &value.Path{Src: a, Steps: []value.Step{{Dst: b, Edge: e}}}
	return a, e, p
}

func TestGraphFunctions(t *testing.T) {
	a, e, p := graphFixture()
	b := p.Steps[0].Dst
	runCalls(t, NewRegistry(nil), []callCase{
		{"id", "id", args(a), value.String("a")},
		{"tags", "tags", args(a), value.List{value.String("player")}},
		{"labels", "labels", args(b), value.List{value.String("team")}},
		{"vertex properties", "properties", args(a), value.Map{"name": value.String("Tim"), "age": value.Int(42)}},
		{"edge properties", "properties", args(e), value.Map{"since": value.Int(1997)}},
		{"type", "type", args(e), value.String("serve")},
		{"src", "src", args(e), value.String("a")},
		{"dst", "dst", args(e), value.String("b")},
		{"rank", "rank", args(e), value.Int(2)},
		{"nodes", "nodes", args(p), value.List{a, b}},
		{"relationships", "relationships", args(p), value.List{e}},
		{"startnode", "startnode", args(p), a},
		{"endnode", "endnode", args(p), b},
		{"startnode of edge", "startnode", args(e), value.String("a")},
		{"distance to self", "distance", args(value.Geography{Latitude: 1, Longitude: 2}, value.Geography{Latitude: 1, Longitude: 2}), value.Float(0)},
		{"invalid point", "distance", args(value.Geography{Latitude: 91}, value.Geography{}), value.OutOfRangeValue},
	})

	_, err := NewRegistry(nil).Call(newEnv(), "id", args(e))
	assert.EqualError(t, err, "invalid argument: id argument 1 must be a vertex, got EDGE")
}

func TestConversionFunctions(t *testing.T) {
	runCalls(t, NewRegistry(nil), []callCase{
		{"to_bool", "to_bool", args(value.String("TRUE")), value.Bool(true)},
		{"to_bool soft failure", "to_bool", args(value.String("yes")), value.NullValue},
		{"to_int", "to_int", args(value.String("42")), value.Int(42)},
		{"to_integer truncates", "to_integer", args(value.Float(3.9)), value.Int(3)},
		{"to_float", "to_float", args(value.String("2.5")), value.Float(2.5)},
		{"to_string", "to_string", args(value.Float(3)), value.String("3.0")},
		{"toset", "toset", args(value.List{value.Int(2), value.Int(1), value.Int(2)}), value.NewSet(value.Int(1), value.Int(2))},
		{"to_list", "to_list", args(value.NewSet(value.Int(2), value.Int(1))), value.List{value.Int(1), value.Int(2)}},
		{"null source", "to_int", args(value.EmptyValue), value.NullValue},
		{"no rule", "to_int", args(value.Bool(true)), value.BadDataValue},
	})
}

func TestContainerFunctions(t *testing.T) {
	l := value.List{value.Int(1), value.Int(2), value.Int(3)}
	a, e, _ := graphFixture()
	runCalls(t, NewRegistry(nil), []callCase{
		{"size list", "size", args(l), value.Int(3)},
		{"size map", "size", args(value.Map{"a": value.Int(1)}), value.Int(1)},
		{"head", "head", args(l), value.Int(1)},
		{"head empty", "head", args(value.List{}), value.NullValue},
		{"last", "last", args(l), value.Int(3)},
		{"tail", "tail", args(l), value.List{value.Int(2), value.Int(3)}},
		{"tail empty", "tail", args(value.List{}), value.List{}},
		{"keys map", "keys", args(value.Map{"b": value.Int(1), "a": value.Int(2)}), value.List{value.String("a"), value.String("b")}},
		{"keys vertex", "keys", args(a), value.List{value.String("age"), value.String("name")}},
		{"keys edge", "keys", args(e), value.List{value.String("since")}},
		{"range", "range", args(value.Int(1), value.Int(5), value.Int(2)), value.List{value.Int(1), value.Int(3), value.Int(5)}},
		{"range down", "range", args(value.Int(3), value.Int(1), value.Int(-1)), value.List{value.Int(3), value.Int(2), value.Int(1)}},
		{"range empty", "range", args(value.Int(1), value.Int(0)), value.List{}},
		{"range extreme", "range", args(value.Int(math.MaxInt64-1), value.Int(math.MaxInt64)), value.List{value.Int(math.MaxInt64 - 1), value.Int(math.MaxInt64)}},
		{"reverse_list", "reverse_list", args(l), value.List{value.Int(3), value.Int(2), value.Int(1)}},
		{"coalesce", "coalesce", args(value.NullValue, value.EmptyValue, value.Int(2), value.Int(3)), value.Int(2)},
		{"coalesce all null", "coalesce", args(value.NullValue), value.NullValue},
	})

	reg := NewRegistry(nil)
	_, err := reg.Call(newEnv(), "range", args(value.Int(1), value.Int(2), value.Int(0)))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = reg.Call(newEnv(), "range", args(value.Int(math.MinInt64), value.Int(math.MaxInt64)))
	assert.ErrorIs(t, err, ErrInvalidArgument, "collection limit")

	_, err = reg.Call(newEnv(), "head", args(value.String("abc")))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestHashFunctions(t *testing.T) {
	runCalls(t, NewRegistry(nil), []callCase{
		{"hash", "hash", args(value.Int(1)), value.Int(int64(value.Hash(value.Int(1))))},
		{"hash of null", "hash", args(value.NullValue), value.Int(int64(value.Hash(value.NullValue)))},
		{"sha3_256", "sha3_256", args(value.String("")), value.String("a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a")},
		{"blake2b_256", "blake2b_256", args(value.String("")), value.String("0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8")},
	})

	reg := NewRegistry(nil)
	h1, err := reg.Call(newEnv(), "sha3_256", args(value.Map{"a": value.Int(1), "b": value.Int(2)}))
	require.NoError(t, err)
	h2, err := reg.Call(newEnv(), "sha3_256", args(value.Map{"b": value.Int(2), "a": value.Int(1)}))
	require.NoError(t, err)
	assert.Equal(t, h1, h2, "digests of non-strings use the canonical encoding")

	id, err := reg.Call(newEnv(), "uuid", nil)
	require.NoError(t, err)
	parsed, err := uuid.Parse(string(id.(value.String)))
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
}
