package functions

import (
	"fmt"
	"regexp"

	"github.com/orneryd/nornicexpr/pkg/value"
)

// CompileRegex compiles pattern through the caller's literal cache when it
// has one. The =~ operator uses it too.
func CompileRegex(env Env, pattern string) (*regexp.Regexp, error) {
	var (
		re  *regexp.Regexp
		err error
	)
	if env != nil && env.Cache() != nil {
		re, err = env.Cache().Regex(pattern)
	} else {
		re, err = regexp.Compile(pattern)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: invalid regular expression %q: %v", ErrInvalidArgument, pattern, err)
	}
	return re, nil
}

// regexArgs extracts the subject and compiled pattern of a regex call.
func regexArgs(name string, env Env, args []value.Value) (string, *regexp.Regexp, error) {
	s, err := stringArg(name, args, 0)
	if err != nil {
		return "", nil, err
	}
	pattern, err := stringArg(name, args, 1)
	if err != nil {
		return "", nil, err
	}
	re, err := CompileRegex(env, pattern)
	if err != nil {
		return "", nil, err
	}
	return s, re, nil
}

func registerRegex(r *Registry) {
	r.add(Descriptor{
		Name: "regex_match", Category: CategoryRegex, MinArity: 2, MaxArity: 2, Pure: true,
		Description: "Whether the pattern matches anywhere in s (RE2 syntax)",
		Examples:    []string{`regex_match("abc123", "[0-9]+$") => true`},
		Body: strict(func(env Env, args []value.Value) (value.Value, error) {
			s, re, err := regexArgs("regex_match", env, args)
			if err != nil {
				return nil, err
			}
			return value.Bool(re.MatchString(s)), nil
		}),
	})
	r.add(Descriptor{
		Name: "regex_replace", Category: CategoryRegex, MinArity: 3, MaxArity: 3, Pure: true,
		Description: "Replace every match; $1 style references expand capture groups",
		Examples:    []string{`regex_replace("a1b22", "[0-9]+", "#") => "a#b#"`},
		Body: strict(func(env Env, args []value.Value) (value.Value, error) {
			s, re, err := regexArgs("regex_replace", env, args)
			if err != nil {
				return nil, err
			}
			repl, err := stringArg("regex_replace", args, 2)
			if err != nil {
				return nil, err
			}
			return value.String(re.ReplaceAllString(s, repl)), nil
		}),
	})
	r.add(Descriptor{
		Name: "regex_find", Category: CategoryRegex, MinArity: 2, MaxArity: 2, Pure: true,
		Description: "Every non-overlapping match as a list of strings",
		Examples:    []string{`regex_find("a1b22", "[0-9]+") => ["1", "22"]`},
		Body: strict(func(env Env, args []value.Value) (value.Value, error) {
			s, re, err := regexArgs("regex_find", env, args)
			if err != nil {
				return nil, err
			}
			matches := re.FindAllString(s, -1)
			out := make(value.List, len(matches))
			for i, m := range matches {
				out[i] = value.String(m)
			}
			return out, nil
		}),
	})
}
