package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeOfIsTotal(t *testing.T) {
	for _, v := range sampleValues() {
		assert.NotEqual(t, "", TypeOf(v).String())
	}
	assert.Equal(t, TypeEmpty, TypeOf(nil))
	assert.Equal(t, TypeVertex, TypeOf(&Vertex{}))
	assert.Equal(t, TypeDataSet, TypeOf(&DataSet{}))
}

func TestParseDataType(t *testing.T) {
	for in, want := range map[string]DataType{
		"int": TypeInt, "INTEGER": TypeInt, "double": TypeFloat, "Boolean": TypeBool,
		"timestamp": TypeDateTime, "node": TypeVertex, "point": TypeGeography,
	} {
		got, ok := ParseDataType(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseDataType("banana")
	assert.False(t, ok)
}

func TestNullKinds(t *testing.T) {
	assert.Equal(t, "NULL", NullValue.String())
	assert.Equal(t, "BAD_DATA", BadDataValue.String())
	assert.Equal(t, "ERR_OVERFLOW", OverflowValue.String())
	assert.Equal(t, "DIV_BY_ZERO", DivByZeroValue.String())

	assert.True(t, NullBadType.IsBad())
	assert.True(t, NullOutOfRange.IsBad())
	assert.False(t, NullUnknownProp.IsBad())
	assert.True(t, NullDivByZero.IsComputationalError())
	assert.False(t, NullBadData.IsComputationalError())

	k, ok := ParseNullKind("unknown_prop")
	assert.True(t, ok)
	assert.Equal(t, NullUnknownProp, k)
}

func TestDisplayStrings(t *testing.T) {
	tests := []struct {
		in   Value
		want string
	}{
		{Float(3), "3.0"},
		{Float(3.14), "3.14"},
		{Float(1e21), "1e+21"},
		{Float(math.NaN()), "NaN"},
		{Float(math.Inf(-1)), "-Infinity"},
		{String("plain"), "plain"},
		{List{Int(1), String("a"), NullValue}, `[1, "a", NULL]`},
		{Map{"b": Int(2), "a": Int(1)}, "{a: 1, b: 2}"},
		{NewSet(Int(2), Int(1)), "{1, 2}"},
		{Geography{Latitude: 1.5, Longitude: -2}, "POINT(-2 1.5)"},
		{&Vertex{VID: String("v1"), Tags: []Tag{{Name: "player", Props: Map{"age": Int(42)}}}}, `("v1" :player{age: 42})`},
		{&Edge{Src: Int(1), Dst: Int(2), EdgeType: "follow", Ranking: 3, Props: Map{}}, "[:follow 1->2 @3 {}]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.String())
	}
}

func TestGraphAccessors(t *testing.T) {
	v := &Vertex{
		VID:   Int(7),
		Tags:  []Tag{{Name: "player", Props: Map{"name": String("Tim"), "age": Int(42)}}, {Name: "coach", Props: Map{"age": Int(60)}}},
		Props: Map{"rank": Int(1)},
	}

	val, hasTag, hasProp := v.Property("player", "name")
	assert.True(t, hasTag)
	assert.True(t, hasProp)
	assert.Equal(t, String("Tim"), val)

	_, hasTag, _ = v.Property("team", "name")
	assert.False(t, hasTag)

	_, hasTag, hasProp = v.Property("coach", "name")
	assert.True(t, hasTag)
	assert.False(t, hasProp)

	val, ok := v.PropertyAny("age")
	assert.True(t, ok)
	assert.Equal(t, Int(42), val, "first tag wins")

	all := v.AllProperties()
	assert.Equal(t, Int(60), all["age"], "later tags overwrite earlier ones")
	assert.Equal(t, Int(1), all["rank"])
	assert.Equal(t, []string{"player", "coach"}, v.TagNames())

	p := &Path{Src: v, Steps: []Step{{Dst: &Vertex{VID: Int(8)}, Edge: &Edge{Src: Int(7), Dst: Int(8), EdgeType: "like"}}}}
	assert.Equal(t, 1, p.Length())
	assert.Len(t, p.Vertices(), 2)
	assert.Len(t, p.Edges(), 1)
}

func TestGeographyDistance(t *testing.T) {
	paris := Geography{Latitude: 48.8566, Longitude: 2.3522}
	london := Geography{Latitude: 51.5074, Longitude: -0.1278}
	assert.InDelta(t, 343_500, paris.Distance(london), 1_500)
	assert.Equal(t, 0.0, paris.Distance(paris))
}

func TestDataSet(t *testing.T) {
	ds := NewDataSet("name", "age")
	assert.True(t, ds.Append(String("a"), Int(1)))
	assert.False(t, ds.Append(String("b")))
	idx, ok := ds.Column("age")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "name|age\n\"a\"|1", ds.String())
}

func TestEstimatedSize(t *testing.T) {
	assert.Greater(t, EstimatedSize(String("hello world")), EstimatedSize(String("")))
	assert.Greater(t, EstimatedSize(List{String("a"), String("b")}), EstimatedSize(List{}))
}
