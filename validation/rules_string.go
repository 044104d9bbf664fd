package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// scalarRule wraps check so that empty values pass and non-scalars fail with FormatError.
func scalarRule(check func(value any, params map[string]any, out *Output) any) Rule {
	return func(value any, params map[string]any, out *Output) any {
		if isNoValue(value) {
			return nil
		}
		if !isPrimitive(value) {
			return FormatError
		}
		return check(value, params, out)
	}
}

func oneOf(allowed []any) Rule {
	return scalarRule(func(value any, _ map[string]any, out *Output) any {
		s := toString(value)
		for _, a := range allowed {
			if toString(a) == s {
				out.Set(a)
				return nil
			}
		}
		return "NOT_ALLOWED_VALUE"
	})
}

func lengthRule(min, max int) Rule {
	return scalarRule(func(value any, _ map[string]any, out *Output) any {
		s := toString(value)
		n := utf8.RuneCountInString(s)
		if min >= 0 && n < min {
			return "TOO_SHORT"
		}
		if max >= 0 && n > max {
			return "TOO_LONG"
		}
		out.Set(s)
		return nil
	})
}

var stringRules = map[string]Builder{
	"string": func(args []any, _ *Registry) (Rule, error) {
		return scalarRule(func(value any, _ map[string]any, out *Output) any {
			out.Set(toString(value))
			return nil
		}), nil
	},

	"eq": func(args []any, _ *Registry) (Rule, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expects exactly one value, got %d", len(args))
		}
		return oneOf(args), nil
	},

	"one_of": func(args []any, _ *Registry) (Rule, error) {
		allowed := argsOrList(args)
		if len(allowed) == 0 {
			return nil, fmt.Errorf("expects at least one allowed value")
		}
		return oneOf(allowed), nil
	},

	"max_length": func(args []any, _ *Registry) (Rule, error) {
		max, err := argNumber(args, 0, "max_length")
		if err != nil {
			return nil, err
		}
		return lengthRule(-1, int(max)), nil
	},

	"min_length": func(args []any, _ *Registry) (Rule, error) {
		min, err := argNumber(args, 0, "min_length")
		if err != nil {
			return nil, err
		}
		return lengthRule(int(min), -1), nil
	},

	"length_between": func(args []any, _ *Registry) (Rule, error) {
		min, err := argNumber(args, 0, "length_between")
		if err != nil {
			return nil, err
		}
		max, err := argNumber(args, 1, "length_between")
		if err != nil {
			return nil, err
		}
		return lengthRule(int(min), int(max)), nil
	},

	"length_equal": func(args []any, _ *Registry) (Rule, error) {
		n, err := argNumber(args, 0, "length_equal")
		if err != nil {
			return nil, err
		}
		return lengthRule(int(n), int(n)), nil
	},

	"like": func(args []any, _ *Registry) (Rule, error) {
		pattern, err := argString(args, 0, "like")
		if err != nil {
			return nil, err
		}
		if len(args) > 1 {
			flags, err := argString(args, 1, "like")
			if err != nil {
				return nil, err
			}
			if strings.Contains(flags, "i") {
				pattern = "(?i)" + pattern
			}
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		return scalarRule(func(value any, _ map[string]any, out *Output) any {
			s := toString(value)
			if !re.MatchString(s) {
				return "WRONG_FORMAT"
			}
			out.Set(s)
			return nil
		}), nil
	},
}
