package codefmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinify(t *testing.T) {
	all := DefaultMinifyOptions()

	tests := []struct {
		name     string
		input    string
		lang     Language
		opts     MinifyOptions
		expected string
	}{
		{
			name:     "css comment stripped",
			input:    ".a { color: red; /* note */ }",
			lang:     LanguageCSS,
			opts:     all,
			expected: ".a{color:red}",
		},
		{
			name:     "css important preserved",
			input:    ".a { color: red !important; }",
			lang:     LanguageCSS,
			opts:     all,
			expected: ".a{color:red !important}",
		},
		{
			name:     "css important squeezed",
			input:    ".a { color: red !important; }",
			lang:     LanguageCSS,
			opts:     MinifyOptions{RemoveComments: true, RemoveWhitespace: true},
			expected: ".a{color:red!important}",
		},
		{
			name:     "css child selector",
			input:    "ul > li ,\nol > li {\n  margin : 0 ;\n}",
			lang:     LanguageCSS,
			opts:     all,
			expected: "ul>li,ol>li{margin:0}",
		},
		{
			name:     "javascript",
			input:    "// comment\nfunction add(a, b) {\n  return a + b; /* sum */\n}\n",
			lang:     LanguageJavaScript,
			opts:     all,
			expected: "function add(a,b){return a + b;}",
		},
		{
			name:     "javascript comments only",
			input:    "a();\n\n\n// gone\nb();",
			lang:     LanguageTypeScript,
			opts:     MinifyOptions{RemoveComments: true},
			expected: "a();\nb();",
		},
		{
			name:     "javascript nothing enabled keeps comments",
			input:    "a(); // kept\n\n\nb();",
			lang:     LanguageJavaScript,
			opts:     MinifyOptions{},
			expected: "a(); // kept\nb();",
		},
		{
			name:     "html",
			input:    "<div>\n  <!-- c -->\n  <p class=\"x\" >hi</p>\n</div>",
			lang:     LanguageHTML,
			opts:     all,
			expected: "<div><p class=\"x\">hi</p></div>",
		},
		{
			name:     "xml",
			input:    "<root>\n  <leaf  />\n</root>",
			lang:     LanguageXML,
			opts:     all,
			expected: "<root><leaf/></root>",
		},
		{
			name:     "json compact",
			input:    "{\n  \"a\": 1,\n  \"b\": [1, 2]\n}",
			lang:     LanguageJSON,
			opts:     all,
			expected: `{"a":1,"b":[1,2]}`,
		},
		{
			name:     "invalid json falls back",
			input:    "{a:1}\n\n\n",
			lang:     LanguageJSON,
			opts:     all,
			expected: "{a:1}",
		},
		{
			name:     "python collapses blank lines only",
			input:    "a = 1\n\n\nb = 2  # note\n",
			lang:     LanguagePython,
			opts:     all,
			expected: "a = 1\nb = 2  # note",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Minify(tt.input, tt.lang, tt.opts)
			assert.Equal(t, tt.expected, got)
			assert.NotContains(t, got, importantPlaceholder)
		})
	}
}

func TestMinify_CSSNeverKeepsBlockComments(t *testing.T) {
	got := Minify("/* a */\n.a { /* b */ color: red; }\n/* c */", LanguageCSS, DefaultMinifyOptions())
	assert.NotContains(t, got, "/*")
	assert.NotContains(t, got, "*/")
}
