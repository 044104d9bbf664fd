package validation

import (
	"strings"
)

func stringModifier(fn func(string) string) Builder {
	return func(args []any, _ *Registry) (Rule, error) {
		return func(value any, _ map[string]any, out *Output) any {
			if isNoValue(value) || !isPrimitive(value) {
				return nil
			}
			out.Set(fn(toString(value)))
			return nil
		}, nil
	}
}

var modifierRules = map[string]Builder{
	"trim":  stringModifier(strings.TrimSpace),
	"to_lc": stringModifier(strings.ToLower),
	"to_uc": stringModifier(strings.ToUpper),

	"remove": func(args []any, _ *Registry) (Rule, error) {
		chars, err := argString(args, 0, "remove")
		if err != nil {
			return nil, err
		}
		return stringModifier(func(s string) string {
			return strings.Map(func(r rune) rune {
				if strings.ContainsRune(chars, r) {
					return -1
				}
				return r
			}, s)
		})(nil, nil)
	},

	"leave_only": func(args []any, _ *Registry) (Rule, error) {
		chars, err := argString(args, 0, "leave_only")
		if err != nil {
			return nil, err
		}
		return stringModifier(func(s string) string {
			return strings.Map(func(r rune) rune {
				if strings.ContainsRune(chars, r) {
					return r
				}
				return -1
			}, s)
		})(nil, nil)
	},

	"default": func(args []any, _ *Registry) (Rule, error) {
		if len(args) == 0 {
			return func(any, map[string]any, *Output) any { return nil }, nil
		}
		def := args[0]
		if len(args) > 1 {
			def = args
		}
		return func(value any, _ map[string]any, out *Output) any {
			if isNoValue(value) {
				out.Set(def)
			}
			return nil
		}, nil
	},
}
