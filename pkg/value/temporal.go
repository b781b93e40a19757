// Calendar-aware temporal primitives.
//
// Dates are proleptic Gregorian and convert to and from Julian day numbers
// with the Fliegel-Van Flandern algorithm, which makes day arithmetic exact
// across month and year boundaries. Durations keep calendar months apart
// from fixed-length seconds so that adding "one month" to January 31st is
// well-defined (it clamps to the end of February).
//
// # Duration Format
//
// Durations print and parse as ISO 8601: [-]P[n]Y[n]M[n]W[n]DT[n]H[n]M[n[.f]]S
//
//	P1Y2M          - 14 months
//	P3DT4H         - 3 days and 4 hours (stored as 273600 seconds)
//	PT0.25S        - 250000 microseconds
//	-P1D           - minus one day
//
// # ELI12
//
// A duration is two piles of time. One pile counts months ("jump to the same
// day next month"), the other counts seconds ("move the clock hands"). We
// keep them apart because months are not all the same length.

package value

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	secondsPerDay     = 86400
	microsPerSecond   = 1_000_000
	microsPerDay      = secondsPerDay * microsPerSecond
	secondsPerHour    = 3600
	secondsPerMinute  = 60
	maxMonthsInt32    = 1<<31 - 1
	minMonthsInt32    = -1 << 31
	unixEpochJulian   = 2440588
	microsPerMinute   = secondsPerMinute * microsPerSecond
	microsPerHour     = secondsPerHour * microsPerSecond
	defaultTimeLayout = "%02d:%02d:%02d.%06d"
)

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// floorMod is the remainder matching floorDiv; it has the sign of b.
func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}

// IsLeapYear reports whether year is a Gregorian leap year.
func IsLeapYear(year int32) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// DaysInMonth returns the number of days in month (1-12) of year, or 0 for
// an invalid month.
func DaysInMonth(year int32, month uint32) uint32 {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	}
	return 0
}

// ============================================================================
// Date
// ============================================================================

// Date is a calendar date without time zone.
type Date struct {
	Year  int32
	Month uint32
	Day   uint32
}

// NewDate returns a validated Date.
func NewDate(year int32, month, day uint32) (Date, error) {
	d := Date{Year: year, Month: month, Day: day}
	if !d.Valid() {
		return Date{}, fmt.Errorf("invalid date %04d-%02d-%02d", year, month, day)
	}
	return d, nil
}

// Valid reports whether the month and day are in range for the year.
func (d Date) Valid() bool {
	return d.Month >= 1 && d.Month <= 12 && d.Day >= 1 && d.Day <= DaysInMonth(d.Year, d.Month)
}

// String returns the canonical YYYY-MM-DD form.
func (d Date) String() string {
	if d.Year < 0 {
		return fmt.Sprintf("-%04d-%02d-%02d", -int64(d.Year), d.Month, d.Day)
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// JulianDay returns the Julian day number of the date (2000-01-01 is
// 2451545).
func (d Date) JulianDay() int64 {
	y, m, day := int64(d.Year), int64(d.Month), int64(d.Day)
	a := floorDiv(14-m, 12)
	y2 := y + 4800 - a
	m2 := m + 12*a - 3
	return day + floorDiv(153*m2+2, 5) + 365*y2 + floorDiv(y2, 4) - floorDiv(y2, 100) + floorDiv(y2, 400) - 32045
}

// DateFromJulianDay is the inverse of Date.JulianDay.
func DateFromJulianDay(jdn int64) Date {
	a := jdn + 32044
	b := floorDiv(4*a+3, 146097)
	c := a - floorDiv(146097*b, 4)
	d := floorDiv(4*c+3, 1461)
	e := c - floorDiv(1461*d, 4)
	m := floorDiv(5*e+2, 153)
	day := e - floorDiv(153*m+2, 5) + 1
	month := m + 3 - 12*floorDiv(m, 10)
	year := 100*b + d - 4800 + floorDiv(m, 10)
	return Date{Year: int32(year), Month: uint32(month), Day: uint32(day)}
}

// AddDays moves the date by n days (n may be negative).
func (d Date) AddDays(n int64) Date {
	if n == 0 {
		return d
	}
	return DateFromJulianDay(d.JulianDay() + n)
}

// AddMonths moves the date by n calendar months, clamping the day to the
// length of the target month (2024-01-31 + 1 month = 2024-02-29).
func (d Date) AddMonths(n int64) Date {
	if n == 0 {
		return d
	}
	total := int64(d.Year)*12 + int64(d.Month) - 1 + n
	year := int32(floorDiv(total, 12))
	month := uint32(floorMod(total, 12)) + 1
	day := d.Day
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	return Date{Year: year, Month: month, Day: day}
}

// AddDuration applies the months of dur first, then its whole days. Any
// sub-day remainder is discarded (truncated toward zero).
func (d Date) AddDuration(dur Duration) Date {
	return d.AddMonths(int64(dur.Months)).AddDays(dur.Seconds / secondsPerDay)
}

// Sub returns d - other as a Duration of whole days.
func (d Date) Sub(other Date) Duration {
	return Duration{Seconds: (d.JulianDay() - other.JulianDay()) * secondsPerDay}
}

// ============================================================================
// Time
// ============================================================================

// Time is a time of day with microsecond precision and no time zone.
type Time struct {
	Hour        uint32
	Minute      uint32
	Second      uint32
	Microsecond uint32
}

// NewTime returns a validated Time.
func NewTime(hour, minute, second, micro uint32) (Time, error) {
	t := Time{Hour: hour, Minute: minute, Second: second, Microsecond: micro}
	if !t.Valid() {
		return Time{}, fmt.Errorf("invalid time %02d:%02d:%02d.%06d", hour, minute, second, micro)
	}
	return t, nil
}

// Valid reports whether every field is in range.
func (t Time) Valid() bool {
	return t.Hour < 24 && t.Minute < 60 && t.Second < 60 && t.Microsecond < microsPerSecond
}

// String returns the canonical HH:MM:SS.ffffff form.
func (t Time) String() string {
	return fmt.Sprintf(defaultTimeLayout, t.Hour, t.Minute, t.Second, t.Microsecond)
}

// MicrosOfDay returns the number of microseconds since midnight.
func (t Time) MicrosOfDay() int64 {
	return int64(t.Hour)*microsPerHour + int64(t.Minute)*microsPerMinute +
		int64(t.Second)*microsPerSecond + int64(t.Microsecond)
}

// TimeFromMicrosOfDay builds a Time from microseconds since midnight,
// wrapping modulo 24 hours.
func TimeFromMicrosOfDay(micros int64) Time {
	micros = floorMod(micros, microsPerDay)
	return Time{
		Hour:        uint32(micros / microsPerHour),
		Minute:      uint32(micros % microsPerHour / microsPerMinute),
		Second:      uint32(micros % microsPerMinute / microsPerSecond),
		Microsecond: uint32(micros % microsPerSecond),
	}
}

// AddDuration adds the fixed-length part of dur, wrapping modulo 24 hours.
// The number of whole days carried over midnight is returned alongside
// (negative when wrapping backwards). Months are ignored.
func (t Time) AddDuration(dur Duration) (Time, int64) {
	total := t.MicrosOfDay() + dur.Seconds*microsPerSecond + int64(dur.Microseconds)
	return TimeFromMicrosOfDay(total), floorDiv(total, microsPerDay)
}

// ============================================================================
// DateTime
// ============================================================================

// DateTime is a Date and a Time of day, without time zone (UTC by
// convention).
type DateTime struct {
	Date Date
	Time Time
}

// NewDateTime combines a date and a time.
func NewDateTime(d Date, t Time) DateTime {
	return DateTime{Date: d, Time: t}
}

// Valid reports whether both halves are valid.
func (dt DateTime) Valid() bool {
	return dt.Date.Valid() && dt.Time.Valid()
}

// String returns the canonical YYYY-MM-DDTHH:MM:SS.ffffff form.
func (dt DateTime) String() string {
	return dt.Date.String() + "T" + dt.Time.String()
}

// AddDuration applies months first (with day clamping), then the
// fixed-length part with carry from the time of day into the date.
func (dt DateTime) AddDuration(dur Duration) DateTime {
	date := dt.Date.AddMonths(int64(dur.Months))
	t, carry := dt.Time.AddDuration(Duration{Seconds: dur.Seconds, Microseconds: dur.Microseconds})
	return DateTime{Date: date.AddDays(carry), Time: t}
}

// Sub returns dt - other as a Duration without months.
func (dt DateTime) Sub(other DateTime) Duration {
	days := dt.Date.JulianDay() - other.Date.JulianDay()
	micros := dt.Time.MicrosOfDay() - other.Time.MicrosOfDay()
	return NewDuration(days*secondsPerDay, micros, 0)
}

// UnixMicro returns microseconds since 1970-01-01T00:00:00.
func (dt DateTime) UnixMicro() int64 {
	return (dt.Date.JulianDay()-unixEpochJulian)*microsPerDay + dt.Time.MicrosOfDay()
}

// DateTimeFromUnixMicro is the inverse of DateTime.UnixMicro.
func DateTimeFromUnixMicro(micros int64) DateTime {
	days := floorDiv(micros, microsPerDay)
	return DateTime{
		Date: DateFromJulianDay(unixEpochJulian + days),
		Time: TimeFromMicrosOfDay(micros),
	}
}

// DateTimeFromTime converts t to UTC and truncates it to microseconds.
func DateTimeFromTime(t time.Time) DateTime {
	t = t.UTC()
	y, m, d := t.Date()
	return DateTime{
		Date: Date{Year: int32(y), Month: uint32(m), Day: uint32(d)},
		Time: Time{
			Hour:        uint32(t.Hour()),
			Minute:      uint32(t.Minute()),
			Second:      uint32(t.Second()),
			Microsecond: uint32(t.Nanosecond() / 1000),
		},
	}
}

// ============================================================================
// Duration
// ============================================================================

// Duration is a span of time. Months are calendar-variable and kept apart
// from Seconds/Microseconds, which are fixed-length. Microseconds always
// carry the sign of Seconds and stay within (-1e6, 1e6); NewDuration
// enforces this.
type Duration struct {
	Seconds      int64
	Microseconds int32
	Months       int32
}

// NewDuration normalises seconds and microseconds and returns the Duration.
func NewDuration(seconds, micros int64, months int32) Duration {
	total := seconds + micros/microsPerSecond
	micros %= microsPerSecond
	if total > 0 && micros < 0 {
		total--
		micros += microsPerSecond
	} else if total < 0 && micros > 0 {
		total++
		micros -= microsPerSecond
	}
	return Duration{Seconds: total, Microseconds: int32(micros), Months: months}
}

// IsZero reports whether every component is zero.
func (d Duration) IsZero() bool {
	return d.Seconds == 0 && d.Microseconds == 0 && d.Months == 0
}

// Add returns d + other componentwise.
func (d Duration) Add(other Duration) Duration {
	return NewDuration(d.Seconds+other.Seconds, int64(d.Microseconds)+int64(other.Microseconds), d.Months+other.Months)
}

// Sub returns d - other componentwise.
func (d Duration) Sub(other Duration) Duration {
	return d.Add(other.Neg())
}

// Neg flips the sign of every component.
func (d Duration) Neg() Duration {
	return Duration{Seconds: -d.Seconds, Microseconds: -d.Microseconds, Months: -d.Months}
}

// TotalMicros returns the fixed-length part in microseconds.
func (d Duration) TotalMicros() int64 {
	return d.Seconds*microsPerSecond + int64(d.Microseconds)
}

// String returns the ISO 8601 form. The zero duration is "PT0S". When every
// component is non-positive the sign is written once in front ("-P1D");
// otherwise each component keeps its own sign.
func (d Duration) String() string {
	if d.IsZero() {
		return "PT0S"
	}
	months, secs, micros := int64(d.Months), d.Seconds, int64(d.Microseconds)

	var sb strings.Builder
	if months <= 0 && secs <= 0 && micros <= 0 {
		sb.WriteByte('-')
		months, secs, micros = -months, -secs, -micros
	}
	sb.WriteByte('P')
	if y := months / 12; y != 0 {
		fmt.Fprintf(&sb, "%dY", y)
	}
	if m := months % 12; m != 0 {
		fmt.Fprintf(&sb, "%dM", m)
	}

	sign := ""
	if secs < 0 || micros < 0 {
		sign = "-"
		secs, micros = -secs, -micros
	}
	if days := secs / secondsPerDay; days != 0 {
		fmt.Fprintf(&sb, "%s%dD", sign, days)
	}
	rem := secs % secondsPerDay
	h, m, s := rem/secondsPerHour, rem%secondsPerHour/secondsPerMinute, rem%secondsPerMinute
	if h == 0 && m == 0 && s == 0 && micros == 0 {
		return sb.String()
	}
	sb.WriteByte('T')
	if h != 0 {
		fmt.Fprintf(&sb, "%s%dH", sign, h)
	}
	if m != 0 {
		fmt.Fprintf(&sb, "%s%dM", sign, m)
	}
	if s != 0 || micros != 0 {
		fmt.Fprintf(&sb, "%s%d", sign, s)
		if micros != 0 {
			frac := strings.TrimRight(fmt.Sprintf("%06d", micros), "0")
			sb.WriteByte('.')
			sb.WriteString(frac)
		}
		sb.WriteByte('S')
	}
	return sb.String()
}

var isoDurationPattern = regexp.MustCompile(
	`^(-)?P(?:(-?\d+)Y)?(?:(-?\d+)M)?(?:(-?\d+)W)?(?:(-?\d+)D)?` +
		`(T(?:(-?\d+)H)?(?:(-?\d+)M)?(?:(-?\d+)(?:\.(\d{1,6})\d*)?S)?)?$`)

// ParseDuration parses an ISO 8601 duration such as "P1Y2M3DT4H5M6.5S".
// Bare "P" and "PT" are rejected, as is any component overflowing int64
// seconds or int32 months.
func ParseDuration(s string) (Duration, error) {
	m := isoDurationPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Duration{}, fmt.Errorf("invalid ISO 8601 duration %q", s)
	}
	if m[2] == "" && m[3] == "" && m[4] == "" && m[5] == "" && m[6] == "" {
		return Duration{}, fmt.Errorf("invalid ISO 8601 duration %q: no components", s)
	}
	if m[6] != "" && m[7] == "" && m[8] == "" && m[9] == "" {
		return Duration{}, fmt.Errorf("invalid ISO 8601 duration %q: empty time part", s)
	}

	var fields [8]int64
	for i, idx := range []int{2, 3, 4, 5, 7, 8, 9} {
		if m[idx] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[idx], 10, 64)
		if err != nil {
			return Duration{}, fmt.Errorf("invalid ISO 8601 duration %q: %w", s, err)
		}
		fields[i] = n
	}
	years, months, weeks, days, hours, minutes, secs := fields[0], fields[1], fields[2], fields[3], fields[4], fields[5], fields[6]

	var micros int64
	if m[10] != "" {
		frac := m[10] + strings.Repeat("0", 6-len(m[10]))
		micros, _ = strconv.ParseInt(frac, 10, 64)
		if strings.HasPrefix(m[9], "-") {
			micros = -micros
		}
	}

	totalMonths, ok := checkedAdd(mustMul(years, 12), months)
	if !ok || totalMonths > maxMonthsInt32 || totalMonths < minMonthsInt32 {
		return Duration{}, fmt.Errorf("invalid ISO 8601 duration %q: months out of range", s)
	}
	totalDays, ok := checkedAdd(mustMul(weeks, 7), days)
	if !ok {
		return Duration{}, fmt.Errorf("invalid ISO 8601 duration %q: days out of range", s)
	}
	total, ok := int64(0), true
	for _, part := range [][2]int64{{totalDays, secondsPerDay}, {hours, secondsPerHour}, {minutes, secondsPerMinute}, {secs, 1}} {
		p, okMul := checkedMul(part[0], part[1])
		if !okMul {
			ok = false
			break
		}
		if total, ok = checkedAdd(total, p); !ok {
			break
		}
	}
	if !ok {
		return Duration{}, fmt.Errorf("invalid ISO 8601 duration %q: seconds out of range", s)
	}

	d := NewDuration(total, micros, int32(totalMonths))
	if m[1] == "-" {
		d = d.Neg()
	}
	return d, nil
}

// mustMul multiplies and saturates on overflow; the saturated result is
// then rejected by the caller's range check.
func mustMul(a, b int64) int64 {
	p, ok := checkedMul(a, b)
	if !ok {
		if (a < 0) != (b < 0) {
			return -1 << 63
		}
		return 1<<63 - 1
	}
	return p
}
