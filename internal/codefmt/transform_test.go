package codefmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertQuotes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		target   QuoteType
		expected string
	}{
		{"double to single", `const s = "hello";`, QuoteSingle, `const s = 'hello';`},
		{"interior single quote is escaped", `const s = "it's";`, QuoteSingle, `const s = 'it\'s';`},
		{"escaped double quote is unescaped", `x = "a\"b"`, QuoteSingle, `x = 'a"b'`},
		{"single to double", `x = 'say "hi"'`, QuoteDouble, `x = "say \"hi\""`},
		{"already in target style", `x = 'a' + "b"`, QuoteSingle, `x = 'a' + 'b'`},
		{"other escapes kept", `x = "a\nb"`, QuoteSingle, `x = 'a\nb'`},
		{"none leaves input alone", `x = "a"`, QuoteNone, `x = "a"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ConvertQuotes(tt.input, tt.target))
		})
	}
}

func TestConvertIndentation(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		target   IndentType
		size     int
		expected string
	}{
		{"spaces to tabs", "a\n  b\n    c", IndentTab, 0, "a\n\tb\n\t\tc"},
		{"two spaces to four", "a\n  b\n    c", IndentSpace, 4, "a\n    b\n        c"},
		{"tabs to two spaces", "a\n\tb\n\t\tc", IndentSpace, 2, "a\n  b\n    c"},
		{"default size", "a\n\tb", IndentSpace, 0, "a\n  b"},
		{"odd remainder kept as spaces", "a\n    b\n     c", IndentTab, 0, "a\n\tb\n\t c"},
		{"whitespace-only line emptied", "a\n   \nb", IndentSpace, 2, "a\n\nb"},
		{"none leaves input alone", "a\n  b", IndentNone, 4, "a\n  b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ConvertIndentation(tt.input, tt.target, tt.size))
		})
	}
}

func TestNamingConversion(t *testing.T) {
	assert.Equal(t, "fooBar", SnakeToCamel("foo_bar"))
	assert.Equal(t, "foo_bar", CamelToSnake("fooBar"))
	assert.Equal(t, "fooBarBaz", SnakeToCamel("foo_bar_baz"))
	assert.Equal(t, "aBC", SnakeToCamel("a_b_c"))
	assert.Equal(t, "get_http_response", CamelToSnake("getHTTPResponse"))

	t.Run("left alone", func(t *testing.T) {
		for _, ident := range []string{"MAX_VALUE", "__init__", "trailing_", "PascalCase", "plain"} {
			assert.Equal(t, ident, SnakeToCamel(ident), ident)
			assert.Equal(t, ident, CamelToSnake(ident), ident)
		}
	})

	t.Run("round trip is lossy", func(t *testing.T) {
		assert.NotEqual(t, "getHTTPResponse", SnakeToCamel(CamelToSnake("getHTTPResponse")))
	})
}

func TestConvertNaming_SkipsStrings(t *testing.T) {
	got := ConvertNaming(`let user_name = "first_name" + 'last_name' + other_value;`, NamingCamel)
	assert.Equal(t, `let userName = "first_name" + 'last_name' + otherValue;`, got)

	got = ConvertNaming("const userId = `userId ${a}`;", NamingSnake)
	assert.Equal(t, "const user_id = `userId ${a}`;", got)

	assert.Equal(t, "foo_bar", ConvertNaming("foo_bar", NamingNone))
}

func TestTransform_AppliesPassesInOrder(t *testing.T) {
	opts := TransformOptions{
		Language:    LanguagePython,
		QuoteType:   QuoteSingle,
		IndentType:  IndentSpace,
		IndentSize:  4,
		NamingStyle: NamingCamel,
	}
	got := Transform("def run():\n  my_value = \"x_y\"\n", opts)
	assert.Equal(t, "def run():\n    myValue = 'x_y'\n", got)
}

func TestTransform_ZeroOptionsIsIdentity(t *testing.T) {
	src := "const a_b = \"c\"; // note\n\tindented();\n"
	assert.Equal(t, src, Transform(src, TransformOptions{Language: LanguageJavaScript}))
}
