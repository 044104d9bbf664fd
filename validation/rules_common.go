package validation

var commonRules = map[string]Builder{
	"required": func(args []any, _ *Registry) (Rule, error) {
		return func(value any, _ map[string]any, _ *Output) any {
			if isNoValue(value) {
				return "REQUIRED"
			}
			return nil
		}, nil
	},

	"not_empty": func(args []any, _ *Registry) (Rule, error) {
		return func(value any, _ map[string]any, _ *Output) any {
			if s, ok := value.(string); ok && s == "" {
				return "CANNOT_BE_EMPTY"
			}
			return nil
		}, nil
	},

	"not_empty_list": func(args []any, _ *Registry) (Rule, error) {
		return func(value any, _ map[string]any, out *Output) any {
			if s, ok := value.(string); ok && s == "" || value == nil && out.Missing() {
				return "CANNOT_BE_EMPTY"
			}
			list, ok := asList(value)
			if !ok {
				return FormatError
			}
			if len(list) == 0 {
				return "CANNOT_BE_EMPTY"
			}
			return nil
		}, nil
	},

	"any_object": func(args []any, _ *Registry) (Rule, error) {
		return func(value any, _ map[string]any, _ *Output) any {
			if isNoValue(value) {
				return nil
			}
			if !isObject(value) {
				return FormatError
			}
			return nil
		}, nil
	},
}
