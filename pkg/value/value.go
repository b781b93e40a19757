package value

import (
	"math"
	"strconv"
	"strings"
)

// Value is the sealed sum type of every datum the query layer manipulates.
//
// The set of implementations is closed: Empty, Null, Bool, Int, Float,
// String, Date, Time, DateTime, Duration, Geography, *Vertex, *Edge, *Path,
// List, Map, *Set and *DataSet. Use a type switch to inspect a Value and
// TypeOf to obtain its DataType tag.
//
// Values are treated as immutable once handed to the evaluator. Containers
// returned by accessors must not be modified by callers.
type Value interface {
	// Type returns the DataType tag of the variant.
	Type() DataType
	// String renders the value for display.
	String() string

	isValue()
}

// TypeOf returns the DataType tag for v. A nil interface is reported as
// TypeEmpty.
func TypeOf(v Value) DataType {
	if v == nil {
		return TypeEmpty
	}
	return v.Type()
}

// Empty is the value of nothing at all (an unset slot).
type Empty struct{}

// Null is an absent or invalid value; Kind records why.
type Null struct {
	Kind NullKind
}

// Bool is a boolean value.
type Bool bool

// Int is a 64-bit signed integer value.
type Int int64

// Float is a 64-bit IEEE-754 value.
type Float float64

// String is a UTF-8 text value. Length is measured in bytes.
type String string

// List is an ordered sequence of values.
type List []Value

// Map is a string-keyed dictionary. Insertion order is irrelevant for
// equality, ordering and hashing.
type Map map[string]Value

// Convenience constructors for null kinds.
var (
	NullValue        Value = Null{Kind: NullPlain}
	NaNValue         Value = Null{Kind: NullNaN}
	BadDataValue     Value = Null{Kind: NullBadData}
	BadTypeValue     Value = Null{Kind: NullBadType}
	OverflowValue    Value = Null{Kind: NullOverflow}
	UnknownPropValue Value = Null{Kind: NullUnknownProp}
	DivByZeroValue   Value = Null{Kind: NullDivByZero}
	OutOfRangeValue  Value = Null{Kind: NullOutOfRange}
	EmptyValue       Value = Empty{}
)

// NewNull returns a Null of the given kind.
func NewNull(kind NullKind) Value { return Null{Kind: kind} }

func (Empty) Type() DataType    { return TypeEmpty }
func (Null) Type() DataType     { return TypeNull }
func (Bool) Type() DataType     { return TypeBool }
func (Int) Type() DataType      { return TypeInt }
func (Float) Type() DataType    { return TypeFloat }
func (String) Type() DataType   { return TypeString }
func (List) Type() DataType     { return TypeList }
func (Map) Type() DataType      { return TypeMap }
func (Date) Type() DataType     { return TypeDate }
func (Time) Type() DataType     { return TypeTime }
func (DateTime) Type() DataType { return TypeDateTime }
func (Duration) Type() DataType { return TypeDuration }

func (Geography) Type() DataType { return TypeGeography }
func (*Vertex) Type() DataType   { return TypeVertex }
func (*Edge) Type() DataType     { return TypeEdge }
func (*Path) Type() DataType     { return TypePath }
func (*Set) Type() DataType      { return TypeSet }
func (*DataSet) Type() DataType  { return TypeDataSet }

func (Empty) isValue()     {}
func (Null) isValue()      {}
func (Bool) isValue()      {}
func (Int) isValue()       {}
func (Float) isValue()     {}
func (String) isValue()    {}
func (List) isValue()      {}
func (Map) isValue()       {}
func (Date) isValue()      {}
func (Time) isValue()      {}
func (DateTime) isValue()  {}
func (Duration) isValue()  {}
func (Geography) isValue() {}
func (*Vertex) isValue()   {}
func (*Edge) isValue()     {}
func (*Path) isValue()     {}
func (*Set) isValue()      {}
func (*DataSet) isValue()  {}

func (Empty) String() string  { return "__EMPTY__" }
func (n Null) String() string { return n.Kind.String() }

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// String renders floats with the shortest exact representation, always
// keeping a decimal point for integral values (3 renders as "3.0").
func (f Float) String() string {
	x := float64(f)
	switch {
	case math.IsNaN(x):
		return "NaN"
	case math.IsInf(x, 1):
		return "Infinity"
	case math.IsInf(x, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(x, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func (s String) String() string { return string(s) }

func (l List) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range l {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(nested(v))
	}
	sb.WriteByte(']')
	return sb.String()
}

// String renders the map with keys in sorted order.
func (m Map) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range m.SortedKeys() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(nested(m[k]))
	}
	sb.WriteByte('}')
	return sb.String()
}

// SortedKeys returns the map keys in byte-wise order.
func (m Map) SortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortStrings(keys)
	return keys
}

// nested renders a value as an element of a container, quoting strings.
func nested(v Value) string {
	if v == nil {
		return Empty{}.String()
	}
	if s, ok := v.(String); ok {
		return strconv.Quote(string(s))
	}
	return v.String()
}

// IsNull reports whether v is a Null of any kind.
func IsNull(v Value) bool {
	_, ok := v.(Null)
	return ok
}

// IsEmpty reports whether v is Empty (or a nil interface).
func IsEmpty(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Empty)
	return ok
}

// IsBadNull reports whether v is Null(BAD_DATA) or Null(BAD_TYPE).
func IsBadNull(v Value) bool {
	n, ok := v.(Null)
	return ok && (n.Kind == NullBadData || n.Kind == NullBadType)
}

// IsNumeric reports whether v is an Int or a Float.
func IsNumeric(v Value) bool {
	switch v.(type) {
	case Int, Float:
		return true
	}
	return false
}

// EstimatedSize returns a rough estimate of the memory held by v in bytes.
func EstimatedSize(v Value) int {
	const base = 16
	switch x := v.(type) {
	case String:
		return base + len(x)
	case List:
		size := base + 24
		for _, e := range x {
			size += EstimatedSize(e)
		}
		return size
	case Map:
		size := base + 48
		for k, e := range x {
			size += len(k) + 16 + EstimatedSize(e)
		}
		return size
	case *Set:
		size := base + 24
		for _, e := range x.items {
			size += EstimatedSize(e)
		}
		return size
	case *Vertex:
		if x == nil {
			return base
		}
		size := base + EstimatedSize(x.VID) + EstimatedSize(x.Props)
		for _, t := range x.Tags {
			size += len(t.Name) + EstimatedSize(t.Props)
		}
		return size
	case *Edge:
		if x == nil {
			return base
		}
		return base + EstimatedSize(x.Src) + EstimatedSize(x.Dst) + len(x.EdgeType) + 8 + EstimatedSize(x.Props)
	case *Path:
		if x == nil {
			return base
		}
		size := base + EstimatedSize(x.Src)
		for _, s := range x.Steps {
			size += EstimatedSize(s.Dst) + EstimatedSize(s.Edge)
		}
		return size
	case *DataSet:
		if x == nil {
			return base
		}
		size := base
		for _, c := range x.ColNames {
			size += len(c) + 16
		}
		for _, row := range x.Rows {
			for _, e := range row {
				size += EstimatedSize(e)
			}
		}
		return size
	}
	return base
}
