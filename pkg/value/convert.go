// Conversion layer.
//
// Every To* function is total: it never returns an error and never panics.
// A failed conversion returns a Null whose kind says why:
//
//	Null(plain)     soft failure: the source type is acceptable but the
//	                text did not parse (ToBool("yes"), ToInt("abc"))
//	Null(bad-data)  hard failure: no rule converts this variant to the
//	                target (ToBool(Int(1)), ToInt(List{...}))
//
// An Empty or plain Null source converts to Null(plain). A Null of any
// other kind is passed through so that the reason survives a chain of
// conversions and ToX(ToX(v)) == ToX(v) holds for every v.
//
// TryImplicitCast is the strict entry point used when coercing operands:
// it returns an error for target types that have no conversion at all.

package value

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnsupportedCast is returned by TryImplicitCast for target types that
// have no conversion.
var ErrUnsupportedCast = errors.New("unsupported cast target")

// nullSource handles the shared Empty/Null source rule. The second result
// is false when v is neither.
func nullSource(v Value) (Value, bool) {
	switch x := v.(type) {
	case nil, Empty:
		return NullValue, true
	case Null:
		if x.Kind == NullPlain {
			return NullValue, true
		}
		return x, true
	}
	return nil, false
}

// ToBool converts to Bool. Strings accept "true"/"false" in any case.
func ToBool(v Value) Value {
	if n, ok := nullSource(v); ok {
		return n
	}
	switch x := v.(type) {
	case Bool:
		return x
	case String:
		switch {
		case strings.EqualFold(string(x), "true"):
			return Bool(true)
		case strings.EqualFold(string(x), "false"):
			return Bool(false)
		}
		return NullValue
	}
	return BadDataValue
}

// ToInt converts to Int. Floats truncate toward zero and clamp to the int64
// range; NaN and infinities give Null(plain). Strings parse as base-10
// integers, falling back to float text.
func ToInt(v Value) Value {
	if n, ok := nullSource(v); ok {
		return n
	}
	switch x := v.(type) {
	case Int:
		return x
	case Float:
		return floatToInt(float64(x))
	case String:
		s := strings.TrimSpace(string(x))
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(i)
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt(f)
		}
		return NullValue
	}
	return BadDataValue
}

func floatToInt(f float64) Value {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return NullValue
	case f >= math.MaxInt64:
		return Int(math.MaxInt64)
	case f <= math.MinInt64:
		return Int(math.MinInt64)
	}
	return Int(int64(f))
}

// ToFloat converts to Float. Ints always widen.
func ToFloat(v Value) Value {
	if n, ok := nullSource(v); ok {
		return n
	}
	switch x := v.(type) {
	case Float:
		return x
	case Int:
		return Float(float64(x))
	case String:
		if f, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64); err == nil {
			return Float(f)
		}
		return NullValue
	}
	return BadDataValue
}

// ToString converts scalar and temporal values to their canonical text.
// Containers and graph structures have no textual conversion.
func ToString(v Value) Value {
	if n, ok := nullSource(v); ok {
		return n
	}
	switch x := v.(type) {
	case String:
		return x
	case Bool, Int, Float, Date, Time, DateTime, Duration, Geography:
		return String(x.String())
	}
	return BadDataValue
}

// ToDate converts to Date. Strings are tried as YYYY-MM-DD, YYYY/MM/DD and
// YYYYMMDD in that order.
func ToDate(v Value) Value {
	if n, ok := nullSource(v); ok {
		return n
	}
	switch x := v.(type) {
	case Date:
		return x
	case DateTime:
		return x.Date
	case String:
		if d, err := ParseDate(string(x)); err == nil {
			return d
		}
	}
	return BadDataValue
}

// ToTime converts to Time. Strings are tried as HH:MM:SS.ffffff, HH:MM:SS
// and HH:MM.
func ToTime(v Value) Value {
	if n, ok := nullSource(v); ok {
		return n
	}
	switch x := v.(type) {
	case Time:
		return x
	case DateTime:
		return x.Time
	case String:
		if t, err := ParseTime(string(x)); err == nil {
			return t
		}
	}
	return BadDataValue
}

// ToDateTime converts to DateTime. Dates become midnight; Ints are read as
// Unix seconds.
func ToDateTime(v Value) Value {
	if n, ok := nullSource(v); ok {
		return n
	}
	switch x := v.(type) {
	case DateTime:
		return x
	case Date:
		return DateTime{Date: x}
	case Int:
		micros, ok := checkedMul(int64(x), microsPerSecond)
		if !ok {
			return OutOfRangeValue
		}
		return DateTimeFromUnixMicro(micros)
	case String:
		if dt, err := ParseDateTime(string(x)); err == nil {
			return dt
		}
	}
	return BadDataValue
}

// ToDuration converts to Duration. Strings parse as ISO 8601 and Ints are
// read as seconds.
func ToDuration(v Value) Value {
	if n, ok := nullSource(v); ok {
		return n
	}
	switch x := v.(type) {
	case Duration:
		return x
	case Int:
		return Duration{Seconds: int64(x)}
	case String:
		if d, err := ParseDuration(string(x)); err == nil {
			return d
		}
	}
	return BadDataValue
}

// ToGeography converts to Geography. Strings parse as WKT "POINT(lon lat)".
func ToGeography(v Value) Value {
	if n, ok := nullSource(v); ok {
		return n
	}
	switch x := v.(type) {
	case Geography:
		return x
	case String:
		if g, err := ParseGeography(string(x)); err == nil {
			return g
		}
	}
	return BadDataValue
}

// ToList converts to List. Sets become their sorted members.
func ToList(v Value) Value {
	if n, ok := nullSource(v); ok {
		return n
	}
	switch x := v.(type) {
	case List:
		out := make(List, len(x))
		copy(out, x)
		return out
	case *Set:
		out := make(List, x.Len())
		copy(out, x.Items())
		return out
	}
	return BadDataValue
}

// ToSet converts to Set, dropping duplicate list elements.
func ToSet(v Value) Value {
	if n, ok := nullSource(v); ok {
		return n
	}
	switch x := v.(type) {
	case *Set:
		return x.Clone()
	case List:
		return NewSet(x...)
	}
	return BadDataValue
}

// ToMap only accepts maps.
func ToMap(v Value) Value {
	if n, ok := nullSource(v); ok {
		return n
	}
	if m, ok := v.(Map); ok {
		out := make(Map, len(m))
		for k, e := range m {
			out[k] = e
		}
		return out
	}
	return BadDataValue
}

// TryImplicitCast converts v to target through the matching To* function.
// Target types without a conversion return ErrUnsupportedCast. The result
// may still be a Null describing a failed conversion.
func TryImplicitCast(v Value, target DataType) (Value, error) {
	switch target {
	case TypeNull:
		return NullValue, nil
	case TypeBool:
		return ToBool(v), nil
	case TypeInt:
		return ToInt(v), nil
	case TypeFloat:
		return ToFloat(v), nil
	case TypeString:
		return ToString(v), nil
	case TypeDate:
		return ToDate(v), nil
	case TypeTime:
		return ToTime(v), nil
	case TypeDateTime:
		return ToDateTime(v), nil
	case TypeDuration:
		return ToDuration(v), nil
	case TypeGeography:
		return ToGeography(v), nil
	case TypeList:
		return ToList(v), nil
	case TypeSet:
		return ToSet(v), nil
	case TypeMap:
		return ToMap(v), nil
	}
	return nil, fmt.Errorf("%w: %s to %s", ErrUnsupportedCast, TypeOf(v), target)
}

// ============================================================================
// Text parsers
// ============================================================================

var (
	dateLayouts     = []string{"2006-01-02", "2006/01/02", "20060102"}
	timeLayouts     = []string{"15:04:05.999999", "15:04:05", "15:04"}
	dateTimeLayouts = []string{"2006-01-02T15:04:05.999999", "2006-01-02 15:04:05.999999", time.RFC3339Nano}
)

// ParseDate parses YYYY-MM-DD, YYYY/MM/DD or YYYYMMDD.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateTimeFromTime(t).Date, nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q", s)
}

// ParseTime parses HH:MM:SS.ffffff, HH:MM:SS or HH:MM.
func ParseTime(s string) (Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateTimeFromTime(t).Time, nil
		}
	}
	return Time{}, fmt.Errorf("invalid time %q", s)
}

// ParseDateTime parses YYYY-MM-DDTHH:MM:SS[.ffffff], the same with a space
// separator, RFC 3339 with an offset (converted to UTC), or a bare date
// (midnight).
func ParseDateTime(s string) (DateTime, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateTimeFromTime(t), nil
		}
	}
	if d, err := ParseDate(s); err == nil {
		return DateTime{Date: d}, nil
	}
	return DateTime{}, fmt.Errorf("invalid datetime %q", s)
}

var pointPattern = regexp.MustCompile(`(?i)^POINT\s*\(\s*(\S+)\s+(\S+)\s*\)$`)

// ParseGeography parses WKT "POINT(lon lat)".
func ParseGeography(s string) (Geography, error) {
	m := pointPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Geography{}, fmt.Errorf("invalid point %q", s)
	}
	lon, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Geography{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	lat, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Geography{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	g := Geography{Latitude: lat, Longitude: lon}
	if !g.Valid() {
		return Geography{}, fmt.Errorf("point %q out of range", s)
	}
	return g, nil
}
