package codefmt

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var braceLineGen = rapid.SampledFrom([]string{
	"", "  ", "\t", "{", "}", "}}", "} else {", "x;", "  foo(", "]);", "[", "})", "call() {",
})

var modeGen = rapid.SampledFrom([]EmptyLineMode{KeepOne, RemoveAll})

func TestProperty_NormalizeIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		input := rapid.SliceOf(braceLineGen).Draw(t, "lines")
		mode := modeGen.Draw(t, "mode")

		once := Normalize(input, mode)
		assert.Equal(t, once, Normalize(once, mode))
	})
}

func TestProperty_BraceIndentStaysNonNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		input := rapid.SliceOf(braceLineGen).Draw(t, "lines")
		mode := modeGen.Draw(t, "mode")

		out := Indent(Normalize(input, mode), LanguageJavaScript, mode)
		require.True(t, strings.HasSuffix(out, "\n"))

		var contents []string
		for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
			trimmed := strings.TrimLeft(line, " ")
			assert.Zero(t, (len(line)-len(trimmed))%len(braceIndentUnit), "odd indentation in %q", line)
			if trimmed != "" {
				contents = append(contents, trimmed)
			}
		}

		var expected []string
		for _, line := range input {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				expected = append(expected, trimmed)
			}
		}
		assert.Equal(t, expected, contents)
	})
}

func TestProperty_BraceFormatIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		input := strings.Join(rapid.SliceOf(braceLineGen).Draw(t, "lines"), "\n")
		opts := FormatOptions{Language: LanguageJavaScript, EmptyLineMode: modeGen.Draw(t, "mode")}

		once := Format(input, opts).Output
		assert.Equal(t, once, Format(once, opts).Output)
	})
}

func jsonValueGen(depth int) *rapid.Generator[any] {
	return rapid.Custom(func(t *rapid.T) any {
		kind := rapid.IntRange(0, 5).Draw(t, "kind")
		if depth <= 0 {
			kind %= 4
		}
		switch kind {
		case 0:
			return rapid.IntRange(-1000, 1000).Draw(t, "int")
		case 1:
			return rapid.StringMatching(`[a-z {}\[\]:,"]{0,8}`).Draw(t, "string")
		case 2:
			return rapid.Bool().Draw(t, "bool")
		case 3:
			return nil
		case 4:
			n := rapid.IntRange(0, 4).Draw(t, "len")
			items := make([]any, n)
			for i := range items {
				items[i] = jsonValueGen(depth-1).Draw(t, "item")
			}
			return items
		default:
			n := rapid.IntRange(0, 4).Draw(t, "len")
			obj := make(map[string]any, n)
			for range n {
				obj[rapid.StringMatching(`[a-z]{1,5}`).Draw(t, "key")] = jsonValueGen(depth-1).Draw(t, "value")
			}
			return obj
		}
	})
}

func TestProperty_JSONRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		value := jsonValueGen(3).Draw(t, "value")
		src, err := json.MarshalIndent(value, "", "\t")
		require.NoError(t, err)

		minified := Minify(string(src), LanguageJSON, DefaultMinifyOptions())
		formatted := Format(minified, FormatOptions{Language: LanguageJSON, EmptyLineMode: KeepOne}).Output

		var want, got any
		require.NoError(t, json.Unmarshal(src, &want))
		require.NoError(t, json.Unmarshal([]byte(formatted), &got))
		assert.Equal(t, want, got)
		assert.True(t, strings.HasSuffix(formatted, "\n"))
	})
}

func TestJSONRoundTrip_Example(t *testing.T) {
	minified := Minify(`{"a":1,"b":[1,2]}`, LanguageJSON, DefaultMinifyOptions())
	got := Format(minified, FormatOptions{Language: LanguageJSON, EmptyLineMode: KeepOne})
	assert.Equal(t, "{\n  \"a\": 1,\n  \"b\": [\n    1,\n    2\n  ]\n}\n", got.Output)
}
