package validation

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

var (
	emailRe   = regexp.MustCompile(`(?i)^([\w\-_+]+(?:\.[\w\-_+]+)*)@((?:[\w\-]+\.)*\w[\w\-]{0,66})\.([a-z]{2,6}(?:\.[a-z]{2})?)$`)
	isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

var specialRules = map[string]Builder{
	"email": func(args []any, _ *Registry) (Rule, error) {
		return scalarRule(func(value any, _ map[string]any, out *Output) any {
			s := toString(value)
			if !emailRe.MatchString(s) || strings.Count(s, "@") != 1 {
				return "WRONG_EMAIL"
			}
			if strings.Contains(s[strings.Index(s, "@"):], "_") {
				return "WRONG_EMAIL"
			}
			out.Set(s)
			return nil
		}), nil
	},

	"url": func(args []any, _ *Registry) (Rule, error) {
		return scalarRule(func(value any, _ map[string]any, out *Output) any {
			s := toString(value)
			if len(s) >= 2083 {
				return "WRONG_URL"
			}
			u, err := url.Parse(s)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || strings.ContainsAny(s, " \t\n") {
				return "WRONG_URL"
			}
			out.Set(s)
			return nil
		}), nil
	},

	"iso_date": func(args []any, _ *Registry) (Rule, error) {
		return scalarRule(func(value any, _ map[string]any, out *Output) any {
			s := toString(value)
			if !isoDateRe.MatchString(s) {
				return "WRONG_DATE"
			}
			if _, err := time.Parse("2006-01-02", s); err != nil {
				return "WRONG_DATE"
			}
			out.Set(s)
			return nil
		}), nil
	},

	"equal_to_field": func(args []any, _ *Registry) (Rule, error) {
		field, err := argString(args, 0, "equal_to_field")
		if err != nil {
			return nil, err
		}
		return scalarRule(func(value any, params map[string]any, _ *Output) any {
			other, ok := params[field]
			if !ok || !isPrimitive(other) || toString(other) != toString(value) {
				return "FIELDS_NOT_EQUAL"
			}
			return nil
		}), nil
	},
}
