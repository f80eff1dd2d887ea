package codefmt

import (
	"strings"
)

// CommentKind distinguishes // comments from /* */ comments
type CommentKind int

const (
	LineComment CommentKind = iota
	BlockComment
)

func (k CommentKind) String() string {
	if k == BlockComment {
		return "block"
	}
	return "line"
}

// CommentSpan locates one comment in a source text. Start is the offset of the
// opening delimiter and End the offset just past the comment; a line comment's End
// stops before its newline. Closed is false for a block comment that runs off the end.
type CommentSpan struct {
	Kind   CommentKind
	Start  int
	End    int
	Closed bool
}

// scanState is the state of the comment scanner
type scanState int

const (
	stateCode scanState = iota
	stateString
	stateTemplate
	stateRegex
	stateRegexClass
	stateLineComment
	stateBlockComment
)

// regexKeywords may directly precede a regex literal
var regexKeywords = map[string]bool{
	"return": true, "typeof": true, "case": true, "do": true, "else": true,
	"in": true, "of": true, "new": true, "delete": true, "void": true,
	"throw": true, "yield": true, "await": true, "instanceof": true,
}

// commentScanner walks a JavaScript-family source one byte at a time and records
// where comments start and end. Strings, template literals and regex literals are
// skipped, so comment markers inside them are not comments.
type commentScanner struct {
	src   string
	state scanState
	quote byte
	// lastSig is the offset of the last non-space byte seen in code, or -1
	lastSig int
	start   int
	spans   []CommentSpan
}

// ScanComments returns every comment in src in order of appearance
func ScanComments(src string) []CommentSpan {
	s := &commentScanner{src: src, lastSig: -1}
	for i := 0; i < len(src); i++ {
		i = s.step(i)
	}
	s.finish()
	return s.spans
}

// step consumes the byte at i and returns the offset of the last byte consumed
func (s *commentScanner) step(i int) int {
	c := s.src[i]
	switch s.state {
	case stateCode:
		return s.stepCode(i, c)

	case stateString:
		switch c {
		case '\\':
			return i + 1
		case '\n':
			// unterminated string; resume code on the next line
			s.state = stateCode
		case s.quote:
			s.state = stateCode
			s.lastSig = i
		}

	case stateTemplate:
		switch c {
		case '\\':
			return i + 1
		case '`':
			s.state = stateCode
			s.lastSig = i
		}

	case stateRegex:
		switch c {
		case '\\':
			return i + 1
		case '[':
			s.state = stateRegexClass
		case '/':
			s.state = stateCode
			s.lastSig = i
		case '\n':
			s.state = stateCode
		}

	case stateRegexClass:
		switch c {
		case '\\':
			return i + 1
		case ']':
			s.state = stateRegex
		case '\n':
			s.state = stateCode
		}

	case stateLineComment:
		if c == '\n' {
			s.spans = append(s.spans, CommentSpan{Kind: LineComment, Start: s.start, End: i, Closed: true})
			s.state = stateCode
		}

	case stateBlockComment:
		if c == '*' && s.peek(i) == '/' {
			s.spans = append(s.spans, CommentSpan{Kind: BlockComment, Start: s.start, End: i + 2, Closed: true})
			s.state = stateCode
			return i + 1
		}
	}
	return i
}

func (s *commentScanner) stepCode(i int, c byte) int {
	switch {
	case c == '/' && s.peek(i) == '/':
		s.state, s.start = stateLineComment, i
		return i + 1
	case c == '/' && s.peek(i) == '*':
		s.state, s.start = stateBlockComment, i
		return i + 1
	case c == '/' && s.regexAllowed():
		s.state = stateRegex
	case c == '"' || c == '\'':
		s.state, s.quote = stateString, c
	case c == '`':
		s.state = stateTemplate
	case c != ' ' && c != '\t' && c != '\n' && c != '\r':
		s.lastSig = i
	}
	return i
}

// finish closes a comment left open at the end of the input
func (s *commentScanner) finish() {
	switch s.state {
	case stateLineComment:
		s.spans = append(s.spans, CommentSpan{Kind: LineComment, Start: s.start, End: len(s.src), Closed: true})
	case stateBlockComment:
		s.spans = append(s.spans, CommentSpan{Kind: BlockComment, Start: s.start, End: len(s.src)})
	}
}

func (s *commentScanner) peek(i int) byte {
	if i+1 < len(s.src) {
		return s.src[i+1]
	}
	return 0
}

// regexAllowed decides whether a slash in code starts a regex literal rather than a
// division, from the last significant token before it.
func (s *commentScanner) regexAllowed() bool {
	if s.lastSig < 0 {
		return true
	}
	prev := s.src[s.lastSig]
	if strings.IndexByte("(,=:[!&|?{};+-*%<>~^", prev) >= 0 {
		return true
	}
	if !isWordByte(prev) {
		return false
	}
	start := s.lastSig
	for start > 0 && isWordByte(s.src[start-1]) {
		start--
	}
	return regexKeywords[s.src[start:s.lastSig+1]]
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// ConvertComments rewrites comments in JavaScript and TypeScript sources to style.
// Converting to block wraps each // comment as /* text */. Converting to line turns
// a /* */ comment into one // line per comment line, but only when nothing but
// whitespace follows it on its closing line; /** doc */ and /*! */ comments are kept.
// Other languages are returned unchanged.
func ConvertComments(source string, lang Language, style CommentStyle) string {
	if !lang.IsScript() || (style != CommentLine && style != CommentBlock) {
		return source
	}

	spans := ScanComments(source)
	if len(spans) == 0 {
		return source
	}

	var b strings.Builder
	b.Grow(len(source))
	last := 0
	for _, span := range spans {
		replacement, ok := convertComment(source, span, style)
		if !ok {
			continue
		}
		b.WriteString(source[last:span.Start])
		b.WriteString(replacement)
		last = span.End
	}
	b.WriteString(source[last:])
	return b.String()
}

func convertComment(source string, span CommentSpan, style CommentStyle) (string, bool) {
	text := source[span.Start:span.End]

	switch {
	case style == CommentBlock && span.Kind == LineComment:
		body := strings.TrimSpace(strings.TrimRight(text[2:], "\r"))
		body = strings.ReplaceAll(body, "*/", "* /")
		if body == "" {
			return "/* */", true
		}
		return "/* " + body + " */", true

	case style == CommentLine && span.Kind == BlockComment:
		if !span.Closed || strings.HasPrefix(text, "/**") || strings.HasPrefix(text, "/*!") {
			return "", false
		}
		if rest := restOfLine(source, span.End); strings.TrimSpace(rest) != "" {
			return "", false
		}

		var lines []string
		for _, l := range strings.Split(text[2:len(text)-2], "\n") {
			l = strings.TrimSpace(l)
			l = strings.TrimSpace(strings.TrimPrefix(l, "*"))
			lines = append(lines, l)
		}
		for len(lines) > 0 && lines[0] == "" {
			lines = lines[1:]
		}
		for len(lines) > 0 && lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}
		if len(lines) == 0 {
			return "//", true
		}

		indent := lineIndent(source, span.Start)
		for i, l := range lines {
			if l == "" {
				lines[i] = "//"
				continue
			}
			lines[i] = "// " + l
		}
		return strings.Join(lines, "\n"+indent), true
	}
	return "", false
}

// restOfLine returns the text from offset to the end of its line
func restOfLine(source string, offset int) string {
	rest := source[offset:]
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		return rest[:i]
	}
	return rest
}

// lineIndent returns the leading whitespace of the line containing offset
func lineIndent(source string, offset int) string {
	lineStart := strings.LastIndexByte(source[:offset], '\n') + 1
	return leadingWhitespace(source[lineStart:offset])
}
