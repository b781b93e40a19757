// Package value provides the dynamically-typed Value model used by the
// NornicExpr query layer.
//
// Every comparison, sort, hash-based deduplication, filter predicate,
// property access and arithmetic operation executed by the query engine
// routes through this package. A Value is one of a closed set of variants:
//
//	Empty, Null(kind), Bool, Int, Float, String,
//	Date, Time, DateTime, Duration, Geography,
//	*Vertex, *Edge, *Path, List, Map, *Set, *DataSet
//
// The package gives these variants a coordinated equality, total ordering
// and hash (see Equal, Compare, Hash), a total conversion layer (ToBool,
// ToInt, ToDate, ...) that encodes failures as Null kinds instead of errors,
// and typed arithmetic/logical operations that report operand mismatches as
// errors.
//
// Example:
//
//	a := value.Int(10)
//	b := value.Float(2.5)
//	sum, err := value.Add(a, b) // Float(12.5)
//
//	d := value.ToDate(value.String("2024/02/29"))
//	fmt.Println(d) // 2024-02-29
//
// ELI12:
//
// A Value is like a labelled box. The label says what kind of thing is
// inside (a number, some text, a date, a person in the graph...). This
// package knows how to compare any two boxes, even boxes with different
// labels, so the database can always sort and deduplicate them.
package value

import (
	"fmt"
	"strings"
)

// DataType is the tag identifying a Value variant.
//
// The declaration order is also the cross-variant ordering priority, see
// TypePriority. VID and Blob have no Value variant but keep their slot in
// the table so that schema types can be ranked alongside values.
type DataType uint8

const (
	TypeEmpty DataType = iota
	TypeNull
	TypeBool
	TypeInt
	TypeFloat
	TypeString
	TypeDate
	TypeTime
	TypeDateTime
	TypeVID
	TypeDuration
	TypeVertex
	TypeEdge
	TypePath
	TypeList
	TypeMap
	TypeSet
	TypeBlob
	TypeGeography
	TypeDataSet
)

var dataTypeNames = [...]string{
	TypeEmpty:     "EMPTY",
	TypeNull:      "NULL",
	TypeBool:      "BOOL",
	TypeInt:       "INT",
	TypeFloat:     "FLOAT",
	TypeString:    "STRING",
	TypeDate:      "DATE",
	TypeTime:      "TIME",
	TypeDateTime:  "DATETIME",
	TypeVID:       "VID",
	TypeDuration:  "DURATION",
	TypeVertex:    "VERTEX",
	TypeEdge:      "EDGE",
	TypePath:      "PATH",
	TypeList:      "LIST",
	TypeMap:       "MAP",
	TypeSet:       "SET",
	TypeBlob:      "BLOB",
	TypeGeography: "GEOGRAPHY",
	TypeDataSet:   "DATASET",
}

// String returns the upper-case type name, e.g. "INT".
func (t DataType) String() string {
	if int(t) < len(dataTypeNames) {
		return dataTypeNames[t]
	}
	return fmt.Sprintf("DataType(%d)", uint8(t))
}

// typePriority ranks variants for cross-variant ordering:
//
//	Empty < Null < Bool < Int < Float < String < Date < Time < DateTime <
//	VID < Duration < Vertex < Edge < Path < List < Map < Set < Blob <
//	Geography < DataSet
var typePriority = [...]uint8{
	TypeEmpty:     0,
	TypeNull:      1,
	TypeBool:      2,
	TypeInt:       3,
	TypeFloat:     4,
	TypeString:    5,
	TypeDate:      6,
	TypeTime:      7,
	TypeDateTime:  8,
	TypeVID:       9,
	TypeDuration:  10,
	TypeVertex:    11,
	TypeEdge:      12,
	TypePath:      13,
	TypeList:      14,
	TypeMap:       15,
	TypeSet:       16,
	TypeBlob:      17,
	TypeGeography: 18,
	TypeDataSet:   19,
}

// TypePriority returns the cross-variant ordering rank of t.
func TypePriority(t DataType) uint8 {
	if int(t) < len(typePriority) {
		return typePriority[t]
	}
	return 255
}

// ParseDataType resolves a type name (case-insensitive). Common aliases such
// as "INTEGER", "DOUBLE", "BOOLEAN" and "TIMESTAMP" are accepted.
func ParseDataType(name string) (DataType, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "EMPTY":
		return TypeEmpty, true
	case "NULL":
		return TypeNull, true
	case "BOOL", "BOOLEAN":
		return TypeBool, true
	case "INT", "INTEGER", "INT64", "INT32", "INT16", "INT8":
		return TypeInt, true
	case "FLOAT", "DOUBLE", "FLOAT64":
		return TypeFloat, true
	case "STRING", "FIXED_STRING", "TEXT":
		return TypeString, true
	case "DATE":
		return TypeDate, true
	case "TIME":
		return TypeTime, true
	case "DATETIME", "TIMESTAMP":
		return TypeDateTime, true
	case "VID":
		return TypeVID, true
	case "DURATION":
		return TypeDuration, true
	case "VERTEX", "NODE":
		return TypeVertex, true
	case "EDGE", "RELATIONSHIP":
		return TypeEdge, true
	case "PATH":
		return TypePath, true
	case "LIST":
		return TypeList, true
	case "MAP":
		return TypeMap, true
	case "SET":
		return TypeSet, true
	case "BLOB":
		return TypeBlob, true
	case "GEOGRAPHY", "POINT":
		return TypeGeography, true
	case "DATASET":
		return TypeDataSet, true
	}
	return TypeEmpty, false
}

// NullKind explains why a value is absent or invalid.
type NullKind uint8

const (
	// NullPlain is the standard null value.
	NullPlain NullKind = iota
	// NullNaN is the result of a computation that is not a number.
	NullNaN
	// NullBadData marks malformed data or a conversion with no defined rule.
	NullBadData
	// NullBadType marks a conversion target mismatch.
	NullBadType
	// NullOverflow marks arithmetic overflow.
	NullOverflow
	// NullUnknownProp marks a lookup of a property that does not exist.
	NullUnknownProp
	// NullDivByZero marks a division by zero.
	NullDivByZero
	// NullOutOfRange marks a value outside its permitted range.
	NullOutOfRange
)

var nullKindNames = [...]string{
	NullPlain:       "NULL",
	NullNaN:         "NaN",
	NullBadData:     "BAD_DATA",
	NullBadType:     "BAD_TYPE",
	NullOverflow:    "ERR_OVERFLOW",
	NullUnknownProp: "UNKNOWN_PROP",
	NullDivByZero:   "DIV_BY_ZERO",
	NullOutOfRange:  "OUT_OF_RANGE",
}

func (k NullKind) String() string {
	if int(k) < len(nullKindNames) {
		return nullKindNames[k]
	}
	return fmt.Sprintf("NullKind(%d)", uint8(k))
}

// IsBad reports whether the kind signals bad input rather than absence.
func (k NullKind) IsBad() bool {
	switch k {
	case NullBadData, NullBadType, NullOverflow, NullOutOfRange:
		return true
	}
	return false
}

// IsComputationalError reports whether the kind came out of arithmetic.
func (k NullKind) IsComputationalError() bool {
	switch k {
	case NullNaN, NullDivByZero, NullOverflow:
		return true
	}
	return false
}

// nullPriority orders null kinds amongst themselves. Each kind has its own
// rank; kinds that compared unequal but shared a rank would break totality.
var nullPriority = [...]uint8{
	NullPlain:       0,
	NullNaN:         1,
	NullBadData:     2,
	NullBadType:     3,
	NullOverflow:    4,
	NullUnknownProp: 5,
	NullDivByZero:   6,
	NullOutOfRange:  7,
}

// ParseNullKind resolves a kind name as printed by NullKind.String.
func ParseNullKind(name string) (NullKind, bool) {
	for k, n := range nullKindNames {
		if strings.EqualFold(n, name) {
			return NullKind(k), true
		}
	}
	return NullPlain, false
}
