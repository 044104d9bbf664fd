package fixtures_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/flanksource/svctest/fixtures"
)

type csvFormat struct{}

func (csvFormat) Name() string         { return "csv" }
func (csvFormat) Extensions() []string { return []string{".csv"} }
func (csvFormat) Decode(content []byte) (any, error) {
	return string(content), nil
}

var _ = Describe("Format registry", func() {
	It("selects formats by the last extension", func() {
		Expect(fixtures.DefaultRegistry.GetForFile("input.json").Name()).To(Equal("json"))
		Expect(fixtures.DefaultRegistry.GetForFile("expected.livr.yml").Name()).To(Equal("yaml"))
		Expect(fixtures.DefaultRegistry.GetForFile("seed.toml").Name()).To(Equal("toml"))
		Expect(fixtures.DefaultRegistry.GetForFile("query.sql").Name()).To(Equal("text"))
		Expect(fixtures.DefaultRegistry.GetForFile("Makefile").Name()).To(Equal("text"))
		Expect(fixtures.DefaultRegistry.GetForFile("INPUT.JSON").Name()).To(Equal("json"))
	})

	It("rejects an extension registered twice", func() {
		r := fixtures.NewRegistry()
		Expect(r.Register(csvFormat{})).To(Succeed())
		Expect(r.Register(csvFormat{})).To(MatchError(ContainSubstring("already registered")))
		Expect(r.List()).To(Equal([]string{".csv"}))
	})

	DescribeTable("normalizes decoded values",
		func(in any, expected any) {
			Expect(fixtures.Normalize(in)).To(Equal(expected))
		},
		Entry("json integer", json.Number("42"), int64(42)),
		Entry("json decimal", json.Number("4.5"), 4.5),
		Entry("json integral decimal", json.Number("1.0"), int64(1)),
		Entry("json exponent", json.Number("1e3"), int64(1000)),
		Entry("json out of int64 range", json.Number("1e19"), 1e19),
		Entry("int", 7, int64(7)),
		Entry("uint64", uint64(7), int64(7)),
		Entry("float32", float32(0.5), 0.5),
		Entry("map with any keys", map[any]any{"a": 1, 2: "b"}, map[string]any{"a": int64(1), "2": "b"}),
		Entry("nested list", []any{[]any{uint8(1)}}, []any{[]any{int64(1)}}),
		Entry("strings untouched", "x", "x"),
	)

	DescribeTable("decodes each format",
		func(format fixtures.Format, content string, expected any) {
			v, err := format.Decode([]byte(content))
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(expected))
		},
		Entry("json", fixtures.JSONFormat{}, `{"a": [1, "b"]}`, map[string]any{"a": []any{int64(1), "b"}}),
		Entry("yaml", fixtures.YAMLFormat{}, "a:\n  - 1\n  - b\n", map[string]any{"a": []any{int64(1), "b"}}),
		Entry("toml", fixtures.TOMLFormat{}, "a = [1, 2]\n", map[string]any{"a": []any{int64(1), int64(2)}}),
		Entry("text", fixtures.TextFormat{}, "hello\n", "hello\n"),
	)
})
