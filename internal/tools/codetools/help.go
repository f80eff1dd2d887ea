package codetools

import (
	"github.com/lumenkit/creative-toolkit/internal/tools"
)

// ProvideExtendedInfo provides detailed usage information for the code_tools tool
func (c *CodeTools) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		WhenToUse:    "Use to tidy pasted or generated snippets, squeeze CSS/JS/HTML/JSON for embedding, switch quote, indentation, naming or comment conventions, or patch obviously truncated code (missing closing braces, unclosed tags) before further work.",
		WhenNotToUse: "Don't use as a replacement for a language's own formatter (gofmt, prettier, black) on a project that already has one. The passes are line and regex heuristics: they do not understand strings inside comments, multi-line strings or template syntax.",
		CommonPatterns: []string{
			"Re-indent a snippet: {\"action\": \"format\", \"code\": \"...\", \"language\": \"python\"}",
			"Repair then re-indent truncated code: {\"action\": \"format\", \"recover_syntax\": true, ...}",
			"Minify CSS but keep comments: {\"action\": \"minify\", \"language\": \"css\", \"remove_comments\": false, ...}",
			"Convert a file to tabs in place: {\"action\": \"transform\", \"file_path\": \"/abs/app.js\", \"indent_type\": \"tab\", \"in_place\": true}",
			"Format a set of files into a directory: {\"action\": \"format\", \"file_paths\": [...], \"output_path\": \"/abs/out\"}",
			"Use show_diff to review what a pass changed before writing it",
		},
		ParameterDetails: map[string]string{
			"action":          "format | minify | transform | recover. Minify and transform work on the raw input; they are not combined with format.",
			"language":        "Drives every pass. Brace languages (javascript, typescript, css, java, csharp) indent by bracket depth, python by trailing colons and dedent keywords, html/xml by tags, json by re-serialising.",
			"empty_line_mode": "keepOne (default) keeps a single blank line where there were several; removeAll drops blank lines entirely.",
			"recover_syntax":  "Runs recovery before formatting. The response's recovery.status says whether it was unchanged, repaired or failed.",
			"naming_style":    "camelCase turns foo_bar into fooBar; snake_case turns fooBar into foo_bar. Text inside quotes is skipped. The two are not exact inverses (getHTTPResponse becomes get_http_response, then getHttpResponse).",
			"comment_style":   "Only applies to javascript and typescript. /** doc */ comments and block comments followed by code on the same line are kept.",
			"output_path":     "Absolute file or directory. Directories receive code.<ext> for inline code or the source file name for file input.",
		},
		Examples: []tools.ToolExample{
			{
				Description: "Re-indent a brace-language snippet",
				Arguments: map[string]any{
					"action":   "format",
					"language": "javascript",
					"code":     "function hello() {\nconsole.log(\"hi\");\n}",
				},
				ExpectedResult: `{"action": "format", "language": "javascript", "output": "function hello() {\n  console.log(\"hi\");\n}\n", "changed": true, ...}`,
			},
			{
				Description: "Compact JSON",
				Arguments: map[string]any{
					"action":   "minify",
					"language": "json",
					"code":     "{\n  \"a\": 1,\n  \"b\": [1, 2]\n}",
				},
				ExpectedResult: `{"action": "minify", "language": "json", "output": "{\"a\":1,\"b\":[1,2]}", ...}`,
			},
			{
				Description: "Close unclosed HTML tags",
				Arguments: map[string]any{
					"action":   "recover",
					"language": "html",
					"code":     "<div>\n<p>hello",
				},
				ExpectedResult: `{"action": "recover", "output": "<div>\n<p>hello\n</p>\n</div>\n", "recovery": {"status": "repaired", "repairs": ["closed 2 unclosed tag(s): div, p"]}, ...}`,
			},
		},
		Troubleshooting: []tools.TroubleshootingTip{
			{
				Problem:  "unknown language error",
				Solution: "Use one of javascript, typescript, html, css, python, json, xml, java, csharp or an alias such as js, ts, py. The error suggests the closest names.",
			},
			{
				Problem:  "Indentation looks wrong after a line like `}) {`",
				Solution: "The brace strategy only looks at the first and last character of each line. Split unusual lines or format smaller pieces.",
			},
			{
				Problem:  "Minified JavaScript lost a URL inside a string",
				Solution: "Comment stripping is textual, so `//` inside strings is treated as a comment. Set remove_comments to false for such input.",
			},
			{
				Problem:  "code exceeds maximum length",
				Solution: "Raise CODE_TOOLS_MAX_LENGTH or max_input_length in the config file, or split the input.",
			},
		},
	}
}
