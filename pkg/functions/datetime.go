package functions

import (
	"fmt"

	"github.com/orneryd/nornicexpr/pkg/cache"
	"github.com/orneryd/nornicexpr/pkg/value"
)

// literalCache returns env's cache or a throwaway one for callers without.
func literalCache(env Env) *cache.LiteralCache {
	if env != nil {
		if c := env.Cache(); c != nil {
			return c
		}
	}
	return cache.NewLiteralCache(1, 0)
}

// mapInt reads an integer component from a constructor map.
func mapInt(fn string, m value.Map, key string, def int64) (int64, error) {
	v, ok := m[key]
	if !ok || value.IsNull(v) {
		return def, nil
	}
	n, ok := v.(value.Int)
	if !ok {
		return 0, fmt.Errorf("%w: %s field %q must be an integer, got %s", ErrInvalidArgument, fn, key, value.TypeOf(v))
	}
	return int64(n), nil
}

func dateFromMap(m value.Map) (value.Value, error) {
	y, err := mapInt("date", m, "year", 1970)
	if err != nil {
		return nil, err
	}
	mo, err := mapInt("date", m, "month", 1)
	if err != nil {
		return nil, err
	}
	d, err := mapInt("date", m, "day", 1)
	if err != nil {
		return nil, err
	}
	if mo < 1 || mo > 12 || d < 1 || d > 31 || y < -1<<31 || y > 1<<31-1 {
		return value.OutOfRangeValue, nil
	}
	date, err := value.NewDate(int32(y), uint32(mo), uint32(d))
	if err != nil {
		return value.OutOfRangeValue, nil
	}
	return date, nil
}

func timeFromMap(m value.Map) (value.Value, error) {
	fields := [4]int64{}
	for i, key := range []string{"hour", "minute", "second", "microsecond"} {
		n, err := mapInt("time", m, key, 0)
		if err != nil {
			return nil, err
		}
		if n < 0 || n > 1_000_000 {
			return value.OutOfRangeValue, nil
		}
		fields[i] = n
	}
	t, err := value.NewTime(uint32(fields[0]), uint32(fields[1]), uint32(fields[2]), uint32(fields[3]))
	if err != nil {
		return value.OutOfRangeValue, nil
	}
	return t, nil
}

func durationFromMap(m value.Map) (value.Value, error) {
	units := []struct {
		key     string
		seconds int64
	}{
		{"weeks", 7 * 86400}, {"days", 86400}, {"hours", 3600}, {"minutes", 60}, {"seconds", 1},
	}
	years, err := mapInt("duration", m, "years", 0)
	if err != nil {
		return nil, err
	}
	months, err := mapInt("duration", m, "months", 0)
	if err != nil {
		return nil, err
	}
	totalMonths := years*12 + months
	if totalMonths < -1<<31 || totalMonths > 1<<31-1 {
		return value.OverflowValue, nil
	}
	var secs int64
	for _, u := range units {
		n, err := mapInt("duration", m, u.key, 0)
		if err != nil {
			return nil, err
		}
		part, err := value.Mul(value.Int(n), value.Int(u.seconds))
		if err != nil {
			return nil, err
		}
		sum, err := value.Add(value.Int(secs), part)
		if err != nil {
			return nil, err
		}
		i, ok := sum.(value.Int)
		if !ok {
			return value.OverflowValue, nil
		}
		secs = int64(i)
	}
	micros, err := mapInt("duration", m, "microseconds", 0)
	if err != nil {
		return nil, err
	}
	return value.NewDuration(secs, micros, int32(totalMonths)), nil
}

func registerDateTime(r *Registry) {
	r.add(Descriptor{
		Name: "date", Category: CategoryDateTime, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Build a date from text, a {year, month, day} map or a datetime",
		Examples:    []string{`date("2024-02-29")`, `date({year: 2024, month: 2, day: 29})`},
		Body: strict(func(env Env, args []value.Value) (value.Value, error) {
			switch x := args[0].(type) {
			case value.String:
				d, err := literalCache(env).Date(string(x))
				if err != nil {
					return value.BadDataValue, nil
				}
				return d, nil
			case value.Map:
				return dateFromMap(x)
			case value.Date, value.DateTime:
				return value.ToDate(x), nil
			}
			return nil, argError("date", 0, "a string, map or datetime", args[0])
		}),
	})
	r.add(Descriptor{
		Name: "time", Category: CategoryDateTime, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Build a time of day from text, a {hour, minute, second, microsecond} map or a datetime",
		Examples:    []string{`time("12:30:00")`},
		Body: strict(func(env Env, args []value.Value) (value.Value, error) {
			switch x := args[0].(type) {
			case value.String:
				t, err := literalCache(env).Time(string(x))
				if err != nil {
					return value.BadDataValue, nil
				}
				return t, nil
			case value.Map:
				return timeFromMap(x)
			case value.Time, value.DateTime:
				return value.ToTime(x), nil
			}
			return nil, argError("time", 0, "a string, map or datetime", args[0])
		}),
	})
	r.add(Descriptor{
		Name: "datetime", Category: CategoryDateTime, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Build a datetime from text, a map of date and time fields, a date or unix seconds",
		Examples:    []string{`datetime("2024-01-01T10:00:00")`, `datetime(0)`},
		Body: strict(func(env Env, args []value.Value) (value.Value, error) {
			switch x := args[0].(type) {
			case value.String:
				dt, err := literalCache(env).DateTime(string(x))
				if err != nil {
					return value.BadDataValue, nil
				}
				return dt, nil
			case value.Map:
				d, err := dateFromMap(x)
				if err != nil {
					return nil, err
				}
				t, err := timeFromMap(x)
				if err != nil {
					return nil, err
				}
				date, okD := d.(value.Date)
				tod, okT := t.(value.Time)
				if !okD || !okT {
					return value.OutOfRangeValue, nil
				}
				return value.NewDateTime(date, tod), nil
			case value.Date, value.DateTime, value.Int:
				return value.ToDateTime(x), nil
			}
			return nil, argError("datetime", 0, "a string, map, date or integer", args[0])
		}),
	})
	r.add(Descriptor{
		Name: "duration", Category: CategoryDateTime, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Build a duration from ISO 8601 text, a map of units or seconds",
		Examples:    []string{`duration("P1DT2H")`, `duration({days: 1, hours: 2})`},
		Body: strict(func(env Env, args []value.Value) (value.Value, error) {
			switch x := args[0].(type) {
			case value.String:
				d, err := literalCache(env).Duration(string(x))
				if err != nil {
					return value.BadDataValue, nil
				}
				return d, nil
			case value.Map:
				return durationFromMap(x)
			case value.Duration, value.Int:
				return value.ToDuration(x), nil
			}
			return nil, argError("duration", 0, "a string, map or integer", args[0])
		}),
	})
	r.add(Descriptor{
		Name: "now", Category: CategoryDateTime, MinArity: 0, MaxArity: 0,
		Description: "Current UTC datetime",
		Body: func(Env, []value.Value) (value.Value, error) {
			return value.DateTimeFromTime(r.clock()), nil
		},
	})
	r.add(Descriptor{
		Name: "timestamp", Category: CategoryDateTime, MinArity: 0, MaxArity: 1,
		Description: "Unix seconds of now, of a datetime, or of datetime text",
		Examples:    []string{`timestamp("1970-01-02T00:00:00") => 86400`},
		Body: func(env Env, args []value.Value) (value.Value, error) {
			if len(args) == 0 {
				return value.Int(r.clock().Unix()), nil
			}
			if anyNull(args) {
				return value.NullValue, nil
			}
			var dt value.DateTime
			switch x := args[0].(type) {
			case value.String:
				parsed, err := literalCache(env).DateTime(string(x))
				if err != nil {
					return value.BadDataValue, nil
				}
				dt = parsed
			case value.DateTime:
				dt = x
			case value.Date:
				dt = value.NewDateTime(x, value.Time{})
			case value.Int:
				return x, nil
			default:
				return nil, argError("timestamp", 0, "a string, datetime or integer", args[0])
			}
			micros := dt.UnixMicro()
			secs := micros / 1_000_000
			if micros < 0 && micros%1_000_000 != 0 {
				secs--
			}
			return value.Int(secs), nil
		},
	})

	component := func(name string, get func(value.Value) (int64, bool)) {
		r.add(Descriptor{
			Name: name, Category: CategoryDateTime, MinArity: 1, MaxArity: 1, Pure: true,
			Description: "The " + name + " component of a temporal value",
			Body: strict(func(_ Env, args []value.Value) (value.Value, error) {
				n, ok := get(args[0])
				if !ok {
					return nil, argError(name, 0, "a temporal value with a "+name, args[0])
				}
				return value.Int(n), nil
			}),
		})
	}
	datePart := func(f func(value.Date) int64) func(value.Value) (int64, bool) {
		return func(v value.Value) (int64, bool) {
			switch x := v.(type) {
			case value.Date:
				return f(x), true
			case value.DateTime:
				return f(x.Date), true
			}
			return 0, false
		}
	}
	timePart := func(f func(value.Time) int64) func(value.Value) (int64, bool) {
		return func(v value.Value) (int64, bool) {
			switch x := v.(type) {
			case value.Time:
				return f(x), true
			case value.DateTime:
				return f(x.Time), true
			}
			return 0, false
		}
	}
	component("year", datePart(func(d value.Date) int64 { return int64(d.Year) }))
	component("month", datePart(func(d value.Date) int64 { return int64(d.Month) }))
	component("day", datePart(func(d value.Date) int64 { return int64(d.Day) }))
	component("hour", timePart(func(t value.Time) int64 { return int64(t.Hour) }))
	component("minute", timePart(func(t value.Time) int64 { return int64(t.Minute) }))
	component("second", timePart(func(t value.Time) int64 { return int64(t.Second) }))
}
