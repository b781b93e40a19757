// Equality and total ordering of values.
//
// Compare defines one total order over every Value. Equal is exactly
// Compare(a, b) == 0, and Hash is built so that equal values hash equal,
// which together make values usable as sort keys and as keys of ordered or
// hashed collections.
//
// Floating point deviates from IEEE-754 in two places:
//
//	NaN == NaN             (reflexive, NaN sorts below every other float)
//	0.0 == -0.0            (and both hash the same)
//
// Values of different variants order by TypePriority. Nulls of different
// kinds order by their kind rank, plain null lowest.

package value

import (
	"cmp"
	"math"
	"sort"
	"strings"
)

// Equal reports whether a and b are the same value. It never panics and
// treats a nil interface as Empty.
func Equal(a, b Value) bool {
	return Compare(a, b) == 0
}

// Compare returns -1, 0 or +1 ordering a relative to b under the total
// value order.
func Compare(a, b Value) int {
	if a == nil {
		a = EmptyValue
	}
	if b == nil {
		b = EmptyValue
	}
	ta, tb := a.Type(), b.Type()
	if ta != tb {
		return cmp.Compare(TypePriority(ta), TypePriority(tb))
	}

	switch x := a.(type) {
	case Empty:
		return 0
	case Null:
		return cmp.Compare(nullPriority[x.Kind], nullPriority[b.(Null).Kind])
	case Bool:
		return compareBool(bool(x), bool(b.(Bool)))
	case Int:
		return cmp.Compare(x, b.(Int))
	case Float:
		return CompareFloat(float64(x), float64(b.(Float)))
	case String:
		return strings.Compare(string(x), string(b.(String)))
	case Date:
		return compareDate(x, b.(Date))
	case Time:
		return compareTime(x, b.(Time))
	case DateTime:
		y := b.(DateTime)
		if c := compareDate(x.Date, y.Date); c != 0 {
			return c
		}
		return compareTime(x.Time, y.Time)
	case Duration:
		y := b.(Duration)
		if c := cmp.Compare(x.Seconds, y.Seconds); c != 0 {
			return c
		}
		if c := cmp.Compare(x.Microseconds, y.Microseconds); c != 0 {
			return c
		}
		return cmp.Compare(x.Months, y.Months)
	case Geography:
		y := b.(Geography)
		if c := CompareFloat(x.Latitude, y.Latitude); c != 0 {
			return c
		}
		return CompareFloat(x.Longitude, y.Longitude)
	case List:
		return compareLists(x, b.(List))
	case Map:
		return compareMaps(x, b.(Map))
	case *Set:
		y := b.(*Set)
		if c := cmp.Compare(x.Len(), y.Len()); c != 0 {
			return c
		}
		return compareLists(x.Items(), y.Items())
	case *Vertex:
		return compareVertices(x, b.(*Vertex))
	case *Edge:
		return compareEdges(x, b.(*Edge))
	case *Path:
		return comparePaths(x, b.(*Path))
	case *DataSet:
		return compareDataSets(x, b.(*DataSet))
	}
	return 0
}

// Less reports whether a sorts before b.
func Less(a, b Value) bool {
	return Compare(a, b) < 0
}

// Sort sorts vals in place by the total value order. The sort is stable so
// repeated sorting is idempotent.
func Sort(vals []Value) {
	sort.SliceStable(vals, func(i, j int) bool { return Compare(vals[i], vals[j]) < 0 })
}

// CompareFloat is a total order over float64: NaN equals NaN and sorts below
// every other value, and 0.0 equals -0.0.
func CompareFloat(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return -1
	case bNaN:
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// CompareIntFloat orders an integer against a float exactly, without
// rounding i to float64. NaN sorts below every integer, as in CompareFloat.
func CompareIntFloat(i int64, f float64) int {
	switch {
	case math.IsNaN(f):
		return 1
	case f >= 1<<63:
		return -1
	case f < -1<<63:
		return 1
	}
	t := math.Trunc(f)
	if c := cmp.Compare(i, int64(t)); c != 0 {
		return c
	}
	return CompareFloat(t, f)
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

func compareDate(a, b Date) int {
	if c := cmp.Compare(a.Year, b.Year); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Month, b.Month); c != 0 {
		return c
	}
	return cmp.Compare(a.Day, b.Day)
}

func compareTime(a, b Time) int {
	if c := cmp.Compare(a.Hour, b.Hour); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Minute, b.Minute); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Second, b.Second); c != 0 {
		return c
	}
	return cmp.Compare(a.Microsecond, b.Microsecond)
}

// compareLists is lexicographic; on an equal prefix the shorter list sorts
// first.
func compareLists(a, b []Value) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

// compareMaps orders by cardinality, then by sorted (key, value) pairs.
func compareMaps(a, b Map) int {
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	ka, kb := a.SortedKeys(), b.SortedKeys()
	for i := range ka {
		if c := strings.Compare(ka[i], kb[i]); c != 0 {
			return c
		}
		if c := Compare(a[ka[i]], b[kb[i]]); c != 0 {
			return c
		}
	}
	return 0
}

func compareTags(a, b []Tag) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if c := strings.Compare(a[i].Name, b[i].Name); c != 0 {
			return c
		}
		if c := compareMaps(a[i].Props, b[i].Props); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

// nil graph pointers sort before non-nil ones.
func compareNil(aNil, bNil bool) (int, bool) {
	switch {
	case aNil && bNil:
		return 0, true
	case aNil:
		return -1, true
	case bNil:
		return 1, true
	}
	return 0, false
}

func compareVertices(a, b *Vertex) int {
	if c, done := compareNil(a == nil, b == nil); done {
		return c
	}
	if c := Compare(a.VID, b.VID); c != 0 {
		return c
	}
	if c := compareTags(a.Tags, b.Tags); c != 0 {
		return c
	}
	return compareMaps(a.Props, b.Props)
}

func compareEdges(a, b *Edge) int {
	if c, done := compareNil(a == nil, b == nil); done {
		return c
	}
	if c := Compare(a.Src, b.Src); c != 0 {
		return c
	}
	if c := Compare(a.Dst, b.Dst); c != 0 {
		return c
	}
	if c := strings.Compare(a.EdgeType, b.EdgeType); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Ranking, b.Ranking); c != 0 {
		return c
	}
	return compareMaps(a.Props, b.Props)
}

func comparePaths(a, b *Path) int {
	if c, done := compareNil(a == nil, b == nil); done {
		return c
	}
	if c := compareVertices(a.Src, b.Src); c != 0 {
		return c
	}
	n := min(len(a.Steps), len(b.Steps))
	for i := 0; i < n; i++ {
		if c := compareVertices(a.Steps[i].Dst, b.Steps[i].Dst); c != 0 {
			return c
		}
		if c := compareEdges(a.Steps[i].Edge, b.Steps[i].Edge); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a.Steps), len(b.Steps))
}

// compareDataSets orders by column names, then row by row, then row count.
func compareDataSets(a, b *DataSet) int {
	if c, done := compareNil(a == nil, b == nil); done {
		return c
	}
	n := min(len(a.ColNames), len(b.ColNames))
	for i := 0; i < n; i++ {
		if c := strings.Compare(a.ColNames[i], b.ColNames[i]); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(len(a.ColNames), len(b.ColNames)); c != 0 {
		return c
	}
	rows := min(len(a.Rows), len(b.Rows))
	for i := 0; i < rows; i++ {
		if c := compareLists(a.Rows[i], b.Rows[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a.Rows), len(b.Rows))
}

func sortStrings(s []string) {
	sort.Strings(s)
}
