package codefmt

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
)

// importantPlaceholder stands in for `!important` while CSS whitespace is squeezed
const importantPlaceholder = "__CTK_IMPORTANT__"

var (
	lineCommentPattern   = regexp.MustCompile(`(?m)//.*$`)
	blockCommentPattern  = regexp.MustCompile(`/\*[\s\S]*?\*/`)
	markupCommentPattern = regexp.MustCompile(`<!--[\s\S]*?-->`)
	whitespaceRun        = regexp.MustCompile(`\s+`)
	blankLineRun         = regexp.MustCompile(`\n\s*\n`)

	scriptPunctuationSpace = regexp.MustCompile(`\s*([{}();,:=])\s*`)
	cssPunctuationSpace    = regexp.MustCompile(`\s*([{}:;,>])\s*`)
	cssBangSpace           = regexp.MustCompile(`\s*!\s*`)
	cssImportant           = regexp.MustCompile(`(?i)\s*!\s*important`)
	cssTrailingSemicolon   = regexp.MustCompile(`;}`)
	markupGapBetweenTags   = regexp.MustCompile(`>\s+<`)
	markupSpaceBeforeClose = regexp.MustCompile(`\s+(/?>)`)
	markupSpaceAfterOpen   = regexp.MustCompile(`<\s+`)
)

// Minify strips non-semantic whitespace and comments from source using the regex
// pipeline for lang. Comment stripping is textual, so comment markers inside string
// literals are removed too. Invalid JSON degrades to blank-line collapsing.
func Minify(source string, lang Language, opts MinifyOptions) string {
	switch lang {
	case LanguageJavaScript, LanguageTypeScript:
		return minifyScript(source, opts)
	case LanguageCSS:
		return minifyCSS(source, opts)
	case LanguageHTML, LanguageXML:
		return minifyMarkup(source, opts)
	case LanguageJSON:
		return minifyJSON(source)
	default:
		return collapseBlankLines(source)
	}
}

func minifyScript(source string, opts MinifyOptions) string {
	out := source
	if opts.RemoveComments {
		// line comments go first; each pass is independent of the other
		out = lineCommentPattern.ReplaceAllString(out, "")
		out = blockCommentPattern.ReplaceAllString(out, "")
	}
	if !opts.RemoveWhitespace {
		return collapseBlankLines(out)
	}
	out = whitespaceRun.ReplaceAllString(out, " ")
	out = scriptPunctuationSpace.ReplaceAllString(out, "$1")
	return strings.TrimSpace(out)
}

func minifyCSS(source string, opts MinifyOptions) string {
	out := source
	if opts.RemoveComments {
		out = blockCommentPattern.ReplaceAllString(out, "")
	}
	if !opts.RemoveWhitespace {
		return collapseBlankLines(out)
	}

	if opts.PreserveImportant {
		out = cssImportant.ReplaceAllString(out, " "+importantPlaceholder)
	}
	out = whitespaceRun.ReplaceAllString(out, " ")
	out = cssPunctuationSpace.ReplaceAllString(out, "$1")
	if !opts.PreserveImportant {
		out = cssBangSpace.ReplaceAllString(out, "!")
	}
	out = cssTrailingSemicolon.ReplaceAllString(out, "}")
	if opts.PreserveImportant {
		out = strings.ReplaceAll(out, importantPlaceholder, "!important")
	}
	return strings.TrimSpace(out)
}

func minifyMarkup(source string, opts MinifyOptions) string {
	out := source
	if opts.RemoveComments {
		out = markupCommentPattern.ReplaceAllString(out, "")
	}
	if !opts.RemoveWhitespace {
		return collapseBlankLines(out)
	}
	out = markupGapBetweenTags.ReplaceAllString(out, "><")
	out = whitespaceRun.ReplaceAllString(out, " ")
	out = markupSpaceBeforeClose.ReplaceAllString(out, "$1")
	out = markupSpaceAfterOpen.ReplaceAllString(out, "<")
	return strings.TrimSpace(out)
}

func minifyJSON(source string) string {
	src := []byte(strings.TrimSpace(source))
	if json.Valid(src) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, src); err == nil {
			return buf.String()
		}
	}
	return collapseBlankLines(source)
}

// collapseBlankLines removes every whitespace-only line and trims the ends
func collapseBlankLines(source string) string {
	return strings.TrimSpace(blankLineRun.ReplaceAllString(source, "\n"))
}
