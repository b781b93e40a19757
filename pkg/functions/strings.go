package functions

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/orneryd/nornicexpr/pkg/value"
)

// stringFn builds a strict function mapping one string to another.
func stringFn(name string, f func(string) string) Body {
	return strict(func(_ Env, args []value.Value) (value.Value, error) {
		s, err := stringArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		return value.String(f(s)), nil
	})
}

// predicateFn builds a strict (string, string) -> Bool function.
func predicateFn(name string, f func(s, sub string) bool) Body {
	return strict(func(_ Env, args []value.Value) (value.Value, error) {
		s, err := stringArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		sub, err := stringArg(name, args, 1)
		if err != nil {
			return nil, err
		}
		return value.Bool(f(s, sub)), nil
	})
}

// padFn pads s with pad up to n runes on one side, truncating when s is
// already longer than n.
func padFn(name string, left bool) Body {
	return strict(func(_ Env, args []value.Value) (value.Value, error) {
		s, err := stringArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		n, err := intArg(name, args, 1)
		if err != nil {
			return nil, err
		}
		pad, err := stringArg(name, args, 2)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: %s length must not be negative", ErrInvalidArgument, name)
		}
		runes := []rune(s)
		if int64(len(runes)) >= n || pad == "" {
			if int64(len(runes)) > n {
				runes = runes[:n]
			}
			return value.String(string(runes)), nil
		}
		need := int(n) - len(runes)
		padRunes := []rune(pad)
		fill := make([]rune, 0, need)
		for len(fill) < need {
			fill = append(fill, padRunes[len(fill)%len(padRunes)])
		}
		if left {
			return value.String(string(fill) + s), nil
		}
		return value.String(s + string(fill)), nil
	})
}

// sliceFn takes n runes from the start or end of s.
func sliceFn(name string, fromLeft bool) Body {
	return strict(func(_ Env, args []value.Value) (value.Value, error) {
		s, err := stringArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		n, err := intArg(name, args, 1)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: %s length must not be negative", ErrInvalidArgument, name)
		}
		runes := []rune(s)
		if n >= int64(len(runes)) {
			return value.String(s), nil
		}
		if fromLeft {
			return value.String(string(runes[:n])), nil
		}
		return value.String(string(runes[int64(len(runes))-n:])), nil
	})
}

// Casers carry state and must not be shared between goroutines.
func toLower(s string) string { return cases.Lower(language.Und).String(s) }
func toUpper(s string) string { return cases.Upper(language.Und).String(s) }

func registerStrings(r *Registry) {
	r.add(Descriptor{
		Name: "lower", Category: CategoryString, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Unicode lower-case mapping",
		Examples:    []string{`lower("ÄBC") => "äbc"`},
		Body:        stringFn("lower", toLower),
	})
	r.add(Descriptor{
		Name: "upper", Category: CategoryString, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Unicode upper-case mapping",
		Examples:    []string{`upper("straße") => "STRASSE"`},
		Body:        stringFn("upper", toUpper),
	})
	r.add(Descriptor{
		Name: "trim", Category: CategoryString, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Remove leading and trailing white space",
		Body:        stringFn("trim", strings.TrimSpace),
	})
	r.add(Descriptor{
		Name: "ltrim", Category: CategoryString, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Remove leading white space",
		Body:        stringFn("ltrim", func(s string) string { return strings.TrimLeftFunc(s, unicode.IsSpace) }),
	})
	r.add(Descriptor{
		Name: "rtrim", Category: CategoryString, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Remove trailing white space",
		Body:        stringFn("rtrim", func(s string) string { return strings.TrimRightFunc(s, unicode.IsSpace) }),
	})
	r.add(Descriptor{
		Name: "left", Category: CategoryString, MinArity: 2, MaxArity: 2, Pure: true,
		Description: "First n characters",
		Examples:    []string{`left("abcdef", 3) => "abc"`},
		Body:        sliceFn("left", true),
	})
	r.add(Descriptor{
		Name: "right", Category: CategoryString, MinArity: 2, MaxArity: 2, Pure: true,
		Description: "Last n characters",
		Examples:    []string{`right("abcdef", 3) => "def"`},
		Body:        sliceFn("right", false),
	})
	r.add(Descriptor{
		Name: "lpad", Category: CategoryString, MinArity: 3, MaxArity: 3, Pure: true,
		Description: "Left-pad to n characters with pad, truncating longer input",
		Examples:    []string{`lpad("7", 3, "0") => "007"`},
		Body:        padFn("lpad", true),
	})
	r.add(Descriptor{
		Name: "rpad", Category: CategoryString, MinArity: 3, MaxArity: 3, Pure: true,
		Description: "Right-pad to n characters with pad, truncating longer input",
		Examples:    []string{`rpad("ab", 5, "xy") => "abxyx"`},
		Body:        padFn("rpad", false),
	})
	r.add(Descriptor{
		Name: "substring", Category: CategoryString, MinArity: 2, MaxArity: 3, Pure: true,
		Description: "Characters from a zero-based start, optionally limited to a length",
		Examples:    []string{`substring("hello", 1, 3) => "ell"`, `substring("hello", 2) => "llo"`},
		Body:        strict(substringBody),
	})
	r.add(Descriptor{
		Name: "replace", Category: CategoryString, MinArity: 3, MaxArity: 3, Pure: true,
		Description: "Replace every occurrence of search with replacement",
		Examples:    []string{`replace("a-b-c", "-", "+") => "a+b+c"`},
		Body: strict(func(_ Env, args []value.Value) (value.Value, error) {
			s, err := stringArg("replace", args, 0)
			if err != nil {
				return nil, err
			}
			search, err := stringArg("replace", args, 1)
			if err != nil {
				return nil, err
			}
			repl, err := stringArg("replace", args, 2)
			if err != nil {
				return nil, err
			}
			return value.String(strings.ReplaceAll(s, search, repl)), nil
		}),
	})
	r.add(Descriptor{
		Name: "reverse", Category: CategoryString, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Reverse a string by character, or a list by element",
		Examples:    []string{`reverse("abc") => "cba"`},
		Body: strict(func(_ Env, args []value.Value) (value.Value, error) {
			switch x := args[0].(type) {
			case value.String:
				runes := []rune(string(x))
				for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
					runes[i], runes[j] = runes[j], runes[i]
				}
				return value.String(string(runes)), nil
			case value.List:
				return reverseList(x), nil
			}
			return nil, argError("reverse", 0, "a string or list", args[0])
		}),
	})
	r.add(Descriptor{
		Name: "split", Category: CategoryString, MinArity: 2, MaxArity: 2, Pure: true,
		Description: "Split on a delimiter into a list of strings",
		Examples:    []string{`split("a,b,c", ",") => ["a", "b", "c"]`},
		Body: strict(func(_ Env, args []value.Value) (value.Value, error) {
			s, err := stringArg("split", args, 0)
			if err != nil {
				return nil, err
			}
			sep, err := stringArg("split", args, 1)
			if err != nil {
				return nil, err
			}
			parts := strings.Split(s, sep)
			if limit := r.config.MaxCollectionSize(); len(parts) > limit {
				return nil, fmt.Errorf("%w: split would produce %d elements, limit is %d", ErrInvalidArgument, len(parts), limit)
			}
			out := make(value.List, len(parts))
			for i, p := range parts {
				out[i] = value.String(p)
			}
			return out, nil
		}),
	})
	r.add(Descriptor{
		Name: "concat", Category: CategoryString, MinArity: 1, MaxArity: Variadic, Pure: true,
		Description: "Concatenate strings; any NULL argument gives NULL",
		Examples:    []string{`concat("a", "b", "c") => "abc"`},
		Body: strict(func(_ Env, args []value.Value) (value.Value, error) {
			var b strings.Builder
			for i := range args {
				s, err := stringArg("concat", args, i)
				if err != nil {
					return nil, err
				}
				b.WriteString(s)
			}
			return value.String(b.String()), nil
		}),
	})
	r.add(Descriptor{
		Name: "concat_ws", Category: CategoryString, MinArity: 2, MaxArity: Variadic, Pure: true,
		Description: "Join strings with a separator; any NULL argument gives NULL",
		Examples:    []string{`concat_ws("-", "a", "b") => "a-b"`},
		Body: strict(func(_ Env, args []value.Value) (value.Value, error) {
			sep, err := stringArg("concat_ws", args, 0)
			if err != nil {
				return nil, err
			}
			parts := make([]string, 0, len(args)-1)
			for i := 1; i < len(args); i++ {
				s, err := stringArg("concat_ws", args, i)
				if err != nil {
					return nil, err
				}
				parts = append(parts, s)
			}
			return value.String(strings.Join(parts, sep)), nil
		}),
	})
	r.add(Descriptor{
		Name: "strcasecmp", Category: CategoryString, MinArity: 2, MaxArity: 2, Pure: true,
		Description: "Case-insensitive comparison returning -1, 0 or 1",
		Examples:    []string{`strcasecmp("ABC", "abc") => 0`},
		Body: strict(func(_ Env, args []value.Value) (value.Value, error) {
			a, err := stringArg("strcasecmp", args, 0)
			if err != nil {
				return nil, err
			}
			b, err := stringArg("strcasecmp", args, 1)
			if err != nil {
				return nil, err
			}
			return value.Int(strings.Compare(toLower(a), toLower(b))), nil
		}),
	})
	r.add(Descriptor{
		Name: "contains", Category: CategoryString, MinArity: 2, MaxArity: 2, Pure: true,
		Description: "Whether s contains sub",
		Body:        predicateFn("contains", strings.Contains),
	})
	r.add(Descriptor{
		Name: "starts_with", Category: CategoryString, MinArity: 2, MaxArity: 2, Pure: true,
		Description: "Whether s starts with prefix",
		Body:        predicateFn("starts_with", strings.HasPrefix),
	})
	r.add(Descriptor{
		Name: "ends_with", Category: CategoryString, MinArity: 2, MaxArity: 2, Pure: true,
		Description: "Whether s ends with suffix",
		Body:        predicateFn("ends_with", strings.HasSuffix),
	})
	r.add(Descriptor{
		Name: "length", Category: CategoryString, MinArity: 1, MaxArity: 1, Pure: true,
		Description: "Byte length of a string, element count of a list, map or set, step count of a path",
		Examples:    []string{`length("hello") => 5`},
		Body: strict(func(_ Env, args []value.Value) (value.Value, error) {
			return value.Length(args[0])
		}),
	})
	r.add(Descriptor{
		Name: "normalize", Category: CategoryString, MinArity: 1, MaxArity: 2, Pure: true,
		Description: "Unicode normalization to NFC (default), NFD, NFKC or NFKD",
		Examples:    []string{`normalize("é") => "é"`},
		Body:        strict(normalizeBody),
	})
}

func substringBody(_ Env, args []value.Value) (value.Value, error) {
	s, err := stringArg("substring", args, 0)
	if err != nil {
		return nil, err
	}
	start, err := intArg("substring", args, 1)
	if err != nil {
		return nil, err
	}
	if start < 0 {
		return nil, fmt.Errorf("%w: substring start must not be negative", ErrInvalidArgument)
	}
	runes := []rune(s)
	if start >= int64(len(runes)) {
		return value.String(""), nil
	}
	end := int64(len(runes))
	if len(args) == 3 {
		n, err := intArg("substring", args, 2)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: substring length must not be negative", ErrInvalidArgument)
		}
		if n < end-start {
			end = start + n
		}
	}
	return value.String(string(runes[start:end])), nil
}

func normalizeBody(_ Env, args []value.Value) (value.Value, error) {
	s, err := stringArg("normalize", args, 0)
	if err != nil {
		return nil, err
	}
	form := norm.NFC
	if len(args) == 2 {
		name, err := stringArg("normalize", args, 1)
		if err != nil {
			return nil, err
		}
		switch strings.ToUpper(name) {
		case "NFC":
		case "NFD":
			form = norm.NFD
		case "NFKC":
			form = norm.NFKC
		case "NFKD":
			form = norm.NFKD
		default:
			return nil, fmt.Errorf("%w: unknown normal form %q", ErrInvalidArgument, name)
		}
	}
	return value.String(form.String(s)), nil
}
