package validation

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func checkField(spec any, value any) (map[string]any, any) {
	v, err := New(map[string]any{"field": spec}, WithExtraRules())
	Expect(err).NotTo(HaveOccurred())
	input := map[string]any{"field": value}
	return v.Check(input)
}

var _ = Describe("Rules", func() {
	DescribeTable("should accept valid values",
		func(spec any, value any, expected any) {
			result, errs := checkField(spec, value)
			Expect(errs).To(BeNil())
			Expect(result).To(HaveKeyWithValue("field", expected))
		},
		Entry("required string", "required", "x", "x"),
		Entry("required zero", "required", 0, 0),
		Entry("not_empty with nil", "not_empty", nil, BeNil()),
		Entry("not_empty_list", "not_empty_list", []any{1}, []any{1}),
		Entry("any_object", "any_object", map[string]any{"a": 1}, map[string]any{"a": 1}),
		Entry("string converts numbers", "string", 12, "12"),
		Entry("string converts floats", "string", 1.5, "1.5"),
		Entry("eq", map[string]any{"eq": "foo"}, "foo", "foo"),
		Entry("eq returns the allowed value", map[string]any{"eq": 1}, "1", 1),
		Entry("one_of spread", map[string]any{"one_of": []any{"a", "b"}}, "b", "b"),
		Entry("one_of nested list", map[string]any{"one_of": []any{[]any{"a", "b"}}}, "a", "a"),
		Entry("max_length", map[string]any{"max_length": 3}, "abc", "abc"),
		Entry("min_length", map[string]any{"min_length": 2}, "ab", "ab"),
		Entry("length_between", map[string]any{"length_between": []any{1, 3}}, "ab", "ab"),
		Entry("length_equal counts runes", map[string]any{"length_equal": 2}, "éé", "éé"),
		Entry("like", map[string]any{"like": "^a+$"}, "aaa", "aaa"),
		Entry("like case-insensitive", map[string]any{"like": []any{"^a+$", "i"}}, "AaA", "AaA"),
		Entry("integer keeps numeric type", "integer", int64(10), int64(10)),
		Entry("integer converts strings", "integer", "10", int64(10)),
		Entry("integer keeps float64", "integer", float64(3), float64(3)),
		Entry("positive_integer", "positive_integer", 1, 1),
		Entry("decimal converts strings", "decimal", "1.25", 1.25),
		Entry("positive_decimal", "positive_decimal", 0.5, 0.5),
		Entry("max_number", map[string]any{"max_number": 10}, 10, 10),
		Entry("min_number", map[string]any{"min_number": 10}, "11", int64(11)),
		Entry("number_between", map[string]any{"number_between": []any{1, 3}}, 2.5, 2.5),
		Entry("email", "email", "john@example.com", "john@example.com"),
		Entry("url", "url", "https://example.com/path?q=1", "https://example.com/path?q=1"),
		Entry("iso_date", "iso_date", "2024-02-29", "2024-02-29"),
		Entry("trim", "trim", "  x ", "x"),
		Entry("to_lc", "to_lc", "ABC", "abc"),
		Entry("to_uc", "to_uc", "abc", "ABC"),
		Entry("trim converts numbers", "trim", 5, "5"),
		Entry("to_lc converts booleans", "to_lc", true, "true"),
		Entry("remove", map[string]any{"remove": "-"}, "1-2-3", "123"),
		Entry("leave_only", map[string]any{"leave_only": "0123456789"}, "+1 (555)", "1555"),
		Entry("default", map[string]any{"default": "x"}, nil, "x"),
		Entry("boolean", "boolean", true, true),
		Entry("is", map[string]any{"is": "ok"}, "ok", "ok"),
		Entry("uuid", "uuid", "4b6f3f5e-1c2d-4e5f-9a8b-7c6d5e4f3a2b", "4b6f3f5e-1c2d-4e5f-9a8b-7c6d5e4f3a2b"),
		Entry("ipv4", "ipv4", "10.0.0.1", "10.0.0.1"),
		Entry("md5", "md5", "d41d8cd98f00b204e9800998ecf8427e", "d41d8cd98f00b204e9800998ecf8427e"),
		Entry("iso_date_time", "iso_date_time", "2024-01-02T03:04:05Z", "2024-01-02T03:04:05.000Z"),
		Entry("iso_date_time converts to UTC", "iso_date_time", "2024-01-02T05:04:05.5+02:00", "2024-01-02T03:04:05.500Z"),
		Entry("list_length", map[string]any{"list_length": []any{1, 2}}, []any{1, 2}, []any{1, 2}),
		Entry("list_items_unique", "list_items_unique", []any{"a", "b"}, []any{"a", "b"}),
		Entry("cel", map[string]any{"cel": "value.startsWith('ab')"}, "abc", "abc"),
		Entry("list_of", map[string]any{"list_of": []any{"required", "integer"}}, []any{"1", 2}, []any{int64(1), 2}),
		Entry("or", map[string]any{"or": []any{"integer", "email"}}, "a@b.com", "a@b.com"),
	)

	DescribeTable("should reject invalid values",
		func(spec any, value any, expected any) {
			result, errs := checkField(spec, value)
			Expect(result).To(BeNil())
			Expect(errs).To(Equal(map[string]any{"field": expected}))
		},
		Entry("required nil", "required", nil, "REQUIRED"),
		Entry("required empty string", "required", "", "REQUIRED"),
		Entry("not_empty", "not_empty", "", "CANNOT_BE_EMPTY"),
		Entry("not_empty_list empty", "not_empty_list", []any{}, "CANNOT_BE_EMPTY"),
		Entry("not_empty_list scalar", "not_empty_list", "x", FormatError),
		Entry("not_empty_list null", "not_empty_list", nil, FormatError),
		Entry("not_empty_list empty string", "not_empty_list", "", "CANNOT_BE_EMPTY"),
		Entry("any_object", "any_object", "x", FormatError),
		Entry("string with object", "string", map[string]any{}, FormatError),
		Entry("eq", map[string]any{"eq": "foo"}, "bar", "NOT_ALLOWED_VALUE"),
		Entry("one_of", map[string]any{"one_of": []any{"a", "b"}}, "c", "NOT_ALLOWED_VALUE"),
		Entry("max_length", map[string]any{"max_length": 2}, "abc", "TOO_LONG"),
		Entry("min_length", map[string]any{"min_length": 4}, "abc", "TOO_SHORT"),
		Entry("like", map[string]any{"like": "^a+$"}, "b", "WRONG_FORMAT"),
		Entry("integer", "integer", 1.5, "NOT_INTEGER"),
		Entry("integer with text", "integer", "abc", "NOT_INTEGER"),
		Entry("positive_integer", "positive_integer", 0, "NOT_POSITIVE_INTEGER"),
		Entry("decimal", "decimal", "1.2.3", "NOT_DECIMAL"),
		Entry("positive_decimal", "positive_decimal", -1, "NOT_POSITIVE_DECIMAL"),
		Entry("max_number", map[string]any{"max_number": 10}, 11, "TOO_HIGH"),
		Entry("min_number", map[string]any{"min_number": 10}, 9, "TOO_LOW"),
		Entry("number_between", map[string]any{"number_between": []any{1, 3}}, "x", "NOT_NUMBER"),
		Entry("email", "email", "john@", "WRONG_EMAIL"),
		Entry("email underscore domain", "email", "john@my_host.com", "WRONG_EMAIL"),
		Entry("url", "url", "ftp://example.com", "WRONG_URL"),
		Entry("iso_date", "iso_date", "2023-02-29", "WRONG_DATE"),
		Entry("boolean", "boolean", "true", "NOT_BOOLEAN"),
		Entry("is missing", map[string]any{"is": "ok"}, nil, "REQUIRED"),
		Entry("uuid", "uuid", "not-a-uuid", "WRONG_UUID"),
		Entry("uuid wrong version", map[string]any{"uuid": "v1"}, "4b6f3f5e-1c2d-4e5f-9a8b-7c6d5e4f3a2b", "WRONG_UUID"),
		Entry("uuid braced", "uuid", "{4b6f3f5e-1c2d-4e5f-9a8b-7c6d5e4f3a2b}", "WRONG_UUID"),
		Entry("ipv4", "ipv4", "::1", "WRONG_IP"),
		Entry("md5", "md5", "xyz", "WRONG_MD5"),
		Entry("list_length too few", map[string]any{"list_length": []any{2, 3}}, []any{1}, "TOO_FEW_ITEMS"),
		Entry("list_length too many", map[string]any{"list_length": 1}, []any{1, 2}, "TOO_MANY_ITEMS"),
		Entry("list_items_unique", "list_items_unique", []any{"a", "a"}, "NOT_UNIQUE_ITEMS"),
		Entry("cel", map[string]any{"cel": "size(value) > 5"}, "abc", "CEL_FALSE"),
		Entry("list_of item errors", map[string]any{"list_of": "integer"}, []any{1, "x"}, []any{nil, "NOT_INTEGER"}),
		Entry("list_of scalar", map[string]any{"list_of": "integer"}, 1, FormatError),
		Entry("or returns last error", map[string]any{"or": []any{"integer", "email"}}, "x", "WRONG_EMAIL"),
	)
})
