package codefmt

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
)

const (
	braceIndentUnit  = "  "
	pythonIndentUnit = "    "
	markupIndentUnit = "  "

	braceOpeners = "{[("
	braceClosers = "}])"
	jsonOpeners  = "{["
	jsonClosers  = "}]"
)

var (
	// only the bare keyword followed by a colon dedents; `elif x:` keeps its depth
	pythonDedent    = regexp.MustCompile(`^(elif|else|except|finally):`)
	pythonMainGuard = regexp.MustCompile(`^if\s+__name__\s*==\s*(?:"__main__"|'__main__')\s*:$`)

	markupSelfClosing = regexp.MustCompile(`<\w+[^>]*/>`)
	htmlClosingTag    = regexp.MustCompile(`^</([^>]+)>`)
	htmlOpeningTag    = regexp.MustCompile(`^<(\w+)[^>]*>`)
	xmlClosingTag     = regexp.MustCompile(`^</([^>]+)>$`)
	xmlOpeningTag     = regexp.MustCompile(`^<(\w+)[^>]*>$`)
)

// htmlVoidElements never take a closing tag, so they never open a level
var htmlVoidElements = map[string]bool{
	"br":    true,
	"hr":    true,
	"img":   true,
	"input": true,
	"meta":  true,
	"link":  true,
}

// indentWriter accumulates indented output for one call
type indentWriter struct {
	b    strings.Builder
	unit string
	mode EmptyLineMode
}

func newIndentWriter(unit string, mode EmptyLineMode) *indentWriter {
	return &indentWriter{unit: unit, mode: mode}
}

func (w *indentWriter) blank() {
	if w.mode == KeepOne {
		w.b.WriteByte('\n')
	}
}

func (w *indentWriter) line(depth int, text string) {
	w.b.WriteString(strings.Repeat(w.unit, depth))
	w.b.WriteString(text)
	w.b.WriteByte('\n')
}

func (w *indentWriter) String() string {
	return finishOutput(w.b.String())
}

// Indent re-indents already normalised lines for lang. See IndentWith.
func Indent(lines []string, lang Language, mode EmptyLineMode) string {
	opts := DefaultFormatOptions()
	opts.Language = lang
	opts.EmptyLineMode = mode
	return IndentWith(lines, opts)
}

// IndentWith re-indents lines with the strategy for opts.Language, tracking a single
// nesting depth that starts at zero and never goes negative. Blank lines are kept as
// empty lines in KeepOne mode and dropped otherwise. The result always ends in exactly
// one newline.
func IndentWith(lines []string, opts FormatOptions) string {
	ls := toLines(lines)
	switch opts.Language {
	case LanguagePython:
		return indentPython(ls, opts)
	case LanguageHTML:
		return indentHTML(ls, opts.EmptyLineMode)
	case LanguageXML:
		return indentXML(ls, opts.EmptyLineMode)
	case LanguageJSON:
		return indentJSON(ls, opts.EmptyLineMode)
	default:
		return indentBrace(ls, opts.EmptyLineMode, braceOpeners, braceClosers)
	}
}

// indentBrace indents by bracket depth. A line opening with a run of N identical
// closers drops N levels before it is written; a line ending with an opener raises
// the depth for the lines after it. A line that does both ("} else {") is written at
// the current depth and leaves it unchanged.
func indentBrace(lines []Line, mode EmptyLineMode, openers, closers string) string {
	w := newIndentWriter(braceIndentUnit, mode)
	depth := 0

	for _, l := range lines {
		if l.IsBlank() {
			w.blank()
			continue
		}

		closing := l.LeadingClosers(closers)
		opening := l.EndsWithOpener(openers)

		if closing > 0 && opening {
			w.line(depth, l.Trimmed)
			continue
		}
		if closing > 0 {
			depth = max(0, depth-closing)
		}

		w.line(depth, l.Trimmed)

		if opening {
			depth++
		}
	}

	return w.String()
}

func indentPython(lines []Line, opts FormatOptions) string {
	w := newIndentWriter(pythonIndentUnit, opts.EmptyLineMode)
	depth := 0

	for _, l := range lines {
		if l.IsBlank() {
			w.blank()
			continue
		}
		trimmed := l.Trimmed

		if opts.PythonMainGuard && pythonMainGuard.MatchString(trimmed) {
			w.line(0, trimmed)
			depth = 1
			continue
		}

		if pythonDedent.MatchString(trimmed) {
			depth = max(0, depth-1)
		}

		w.line(depth, trimmed)

		if strings.HasSuffix(trimmed, ":") {
			depth++
		}
	}

	return w.String()
}

func indentHTML(lines []Line, mode EmptyLineMode) string {
	w := newIndentWriter(markupIndentUnit, mode)
	depth := 0

	for _, l := range lines {
		if l.IsBlank() {
			w.blank()
			continue
		}
		trimmed := l.Trimmed

		if htmlClosingTag.MatchString(trimmed) {
			depth = max(0, depth-1)
		}

		w.line(depth, trimmed)

		if m := htmlOpeningTag.FindStringSubmatch(trimmed); m != nil &&
			!markupSelfClosing.MatchString(trimmed) &&
			!strings.Contains(trimmed, "</") &&
			!htmlVoidElements[strings.ToLower(m[1])] {
			depth++
		}
	}

	return w.String()
}

func indentXML(lines []Line, mode EmptyLineMode) string {
	w := newIndentWriter(markupIndentUnit, mode)
	depth := 0

	for _, l := range lines {
		if l.IsBlank() {
			w.blank()
			continue
		}
		trimmed := l.Trimmed

		// declarations stay at column zero and do not touch the depth
		if strings.HasPrefix(trimmed, "<?xml") {
			w.line(0, trimmed)
			continue
		}

		if xmlClosingTag.MatchString(trimmed) {
			depth = max(0, depth-1)
		}

		w.line(depth, trimmed)

		if xmlOpeningTag.MatchString(trimmed) &&
			!markupSelfClosing.MatchString(trimmed) &&
			!strings.Contains(trimmed, "</") {
			depth++
		}
	}

	return w.String()
}

// indentJSON re-serialises valid JSON with two-space indentation, keeping key order
// and number spelling. Anything that does not parse falls back to bracket depth over
// [ { and ] } only.
func indentJSON(lines []Line, mode EmptyLineMode) string {
	source := []byte(strings.TrimSpace(strings.Join(rawLines(lines), "\n")))
	if json.Valid(source) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, source, "", "  "); err == nil {
			out := buf.String()
			if mode == RemoveAll {
				out = strings.Join(Normalize(strings.Split(out, "\n"), RemoveAll), "\n")
			}
			return finishOutput(out)
		}
	}
	return indentBrace(lines, mode, jsonOpeners, jsonClosers)
}
