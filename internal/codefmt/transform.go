package codefmt

import (
	"regexp"
	"strings"
	"unicode"
)

// tabWidth is the column width a tab counts for when indentation is measured
const tabWidth = 4

var (
	stringLiteral   = regexp.MustCompile(`"(?:[^"\\\n]|\\.)*"|'(?:[^'\\\n]|\\.)*'`)
	snakeIdentifier = regexp.MustCompile(`\b[a-z][a-z0-9]*(?:_[a-z0-9]+)+\b`)
	camelIdentifier = regexp.MustCompile(`\b[a-z][a-z0-9]*(?:[A-Z][A-Za-z0-9]*)+\b`)
)

// Transform applies the enabled style passes in a fixed order: quotes, indentation,
// naming, then comments. Each pass is textual and best-effort.
func Transform(source string, opts TransformOptions) string {
	out := source
	out = ConvertQuotes(out, opts.QuoteType)
	out = ConvertIndentation(out, opts.IndentType, opts.IndentSize)
	out = ConvertNaming(out, opts.NamingStyle)
	out = ConvertComments(out, opts.Language, opts.CommentStyle)
	return out
}

// ConvertQuotes rewrites string literals delimited by the other quote character to
// use target, escaping any interior target quotes and unescaping the old ones. It
// cannot tell strings from comments or regex literals.
func ConvertQuotes(source string, target QuoteType) string {
	var from, to byte
	switch target {
	case QuoteSingle:
		from, to = '"', '\''
	case QuoteDouble:
		from, to = '\'', '"'
	default:
		return source
	}

	return stringLiteral.ReplaceAllStringFunc(source, func(literal string) string {
		if literal[0] != from {
			return literal
		}
		return string(to) + requote(literal[1:len(literal)-1], from, to) + string(to)
	})
}

func requote(body string, from, to byte) string {
	var b strings.Builder
	b.Grow(len(body) + 2)
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' && i+1 < len(body) {
			i++
			if body[i] != from {
				b.WriteByte('\\')
			}
			b.WriteByte(body[i])
			continue
		}
		if c == to {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}

// ConvertIndentation re-emits every line's leading whitespace as target. Widths are
// measured with tabs counted as four columns and divided by the smallest indent step
// found in the text; leftover columns are kept as spaces. size is the number of
// spaces per level for IndentSpace.
func ConvertIndentation(source string, target IndentType, size int) string {
	if target != IndentSpace && target != IndentTab {
		return source
	}
	if size <= 0 {
		size = DefaultIndentSize
	}

	lines := strings.Split(source, "\n")
	unit := detectIndentUnit(lines)

	for i, line := range lines {
		lead := leadingWhitespace(line)
		if lead == "" {
			continue
		}
		if len(lead) == len(line) {
			lines[i] = ""
			continue
		}

		width := indentWidth(lead)
		level, remainder := width/unit, width%unit
		switch target {
		case IndentTab:
			lines[i] = strings.Repeat("\t", level) + strings.Repeat(" ", remainder) + line[len(lead):]
		case IndentSpace:
			lines[i] = strings.Repeat(" ", level*size+remainder) + line[len(lead):]
		}
	}
	return strings.Join(lines, "\n")
}

// detectIndentUnit returns the smallest indentation width of at least two columns,
// so single-space continuation lines (" * doc") do not define the step.
func detectIndentUnit(lines []string) int {
	unit := 0
	for _, line := range lines {
		lead := leadingWhitespace(line)
		if lead == "" || len(lead) == len(line) {
			continue
		}
		if w := indentWidth(lead); w >= 2 && (unit == 0 || w < unit) {
			unit = w
		}
	}
	if unit == 0 {
		return tabWidth
	}
	return unit
}

func leadingWhitespace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

func indentWidth(lead string) int {
	width := 0
	for _, r := range lead {
		if r == '\t' {
			width += tabWidth
		} else {
			width++
		}
	}
	return width
}

// ConvertNaming rewrites identifiers outside string literals to style.
func ConvertNaming(source string, style NamingStyle) string {
	var convert func(string) string
	switch style {
	case NamingCamel:
		convert = SnakeToCamel
	case NamingSnake:
		convert = CamelToSnake
	default:
		return source
	}

	var b strings.Builder
	b.Grow(len(source))
	for _, seg := range splitQuotedSegments(source) {
		if seg.quoted {
			b.WriteString(seg.text)
			continue
		}
		b.WriteString(convert(seg.text))
	}
	return b.String()
}

// SnakeToCamel turns lower snake_case identifiers into camelCase ("foo_bar" -> "fooBar").
// Identifiers with leading, trailing or doubled underscores and UPPER_CASE names are left alone.
func SnakeToCamel(s string) string {
	return snakeIdentifier.ReplaceAllStringFunc(s, func(ident string) string {
		parts := strings.Split(ident, "_")
		var b strings.Builder
		b.WriteString(parts[0])
		for _, p := range parts[1:] {
			b.WriteString(strings.ToUpper(p[:1]))
			b.WriteString(p[1:])
		}
		return b.String()
	})
}

// CamelToSnake turns camelCase identifiers into snake_case ("fooBar" -> "foo_bar").
// Acronym runs stay together ("getHTTPResponse" -> "get_http_response"), which is why
// the conversion does not round-trip. PascalCase names are left alone.
func CamelToSnake(s string) string {
	return camelIdentifier.ReplaceAllStringFunc(s, func(ident string) string {
		runes := []rune(ident)
		var b strings.Builder
		for i, r := range runes {
			if unicode.IsUpper(r) {
				prevLower := i > 0 && !unicode.IsUpper(runes[i-1])
				acronymEnd := i > 0 && unicode.IsUpper(runes[i-1]) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if prevLower || acronymEnd {
					b.WriteByte('_')
				}
				b.WriteRune(unicode.ToLower(r))
				continue
			}
			b.WriteRune(r)
		}
		return b.String()
	})
}

type quotedSegment struct {
	text   string
	quoted bool
}

// splitQuotedSegments cuts source into alternating code and string-literal pieces.
// Backslash escapes are honoured; an unterminated literal runs to the end.
func splitQuotedSegments(source string) []quotedSegment {
	var segments []quotedSegment
	start := 0
	for i := 0; i < len(source); i++ {
		c := source[i]
		if c != '"' && c != '\'' && c != '`' {
			continue
		}
		if i > start {
			segments = append(segments, quotedSegment{text: source[start:i]})
		}
		end := len(source)
		for j := i + 1; j < len(source); j++ {
			if source[j] == '\\' {
				j++
				continue
			}
			if source[j] == c {
				end = j + 1
				break
			}
		}
		segments = append(segments, quotedSegment{text: source[i:end], quoted: true})
		start = end
		i = end - 1
	}
	if start < len(source) {
		segments = append(segments, quotedSegment{text: source[start:]})
	}
	return segments
}
