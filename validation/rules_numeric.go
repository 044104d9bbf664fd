package validation

func numberRule(check func(f float64) any) Rule {
	return scalarRule(func(value any, _ map[string]any, out *Output) any {
		f, ok := toNumber(value)
		if !ok {
			return "NOT_NUMBER"
		}
		if errCode := check(f); errCode != nil {
			return errCode
		}
		out.Set(numericOutput(value, f))
		return nil
	})
}

func typedNumberRule(code string, check func(f float64) bool) Builder {
	return func(args []any, _ *Registry) (Rule, error) {
		return scalarRule(func(value any, _ map[string]any, out *Output) any {
			f, ok := toNumber(value)
			if !ok || !check(f) {
				return code
			}
			out.Set(numericOutput(value, f))
			return nil
		}), nil
	}
}

var numericRules = map[string]Builder{
	"integer": typedNumberRule("NOT_INTEGER", isInteger),

	"positive_integer": typedNumberRule("NOT_POSITIVE_INTEGER", func(f float64) bool {
		return isInteger(f) && f > 0
	}),

	"decimal": typedNumberRule("NOT_DECIMAL", func(f float64) bool {
		return true
	}),

	"positive_decimal": typedNumberRule("NOT_POSITIVE_DECIMAL", func(f float64) bool {
		return f > 0
	}),

	"max_number": func(args []any, _ *Registry) (Rule, error) {
		max, err := argNumber(args, 0, "max_number")
		if err != nil {
			return nil, err
		}
		return numberRule(func(f float64) any {
			if f > max {
				return "TOO_HIGH"
			}
			return nil
		}), nil
	},

	"min_number": func(args []any, _ *Registry) (Rule, error) {
		min, err := argNumber(args, 0, "min_number")
		if err != nil {
			return nil, err
		}
		return numberRule(func(f float64) any {
			if f < min {
				return "TOO_LOW"
			}
			return nil
		}), nil
	},

	"number_between": func(args []any, _ *Registry) (Rule, error) {
		min, err := argNumber(args, 0, "number_between")
		if err != nil {
			return nil, err
		}
		max, err := argNumber(args, 1, "number_between")
		if err != nil {
			return nil, err
		}
		return numberRule(func(f float64) any {
			if f < min {
				return "TOO_LOW"
			}
			if f > max {
				return "TOO_HIGH"
			}
			return nil
		}), nil
	},
}
