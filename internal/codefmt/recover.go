package codefmt

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// RecoveryStatus says what the recovery pass did
type RecoveryStatus int

const (
	// RecoveryUnchanged means no repair applied; Output equals the input
	RecoveryUnchanged RecoveryStatus = iota
	// RecoveryRepaired means at least one repair changed the text
	RecoveryRepaired
	// RecoveryFailed means the pass hit an internal error; Output is the untouched input
	RecoveryFailed
)

func (s RecoveryStatus) String() string {
	switch s {
	case RecoveryUnchanged:
		return "unchanged"
	case RecoveryRepaired:
		return "repaired"
	case RecoveryFailed:
		return "failed"
	default:
		return fmt.Sprintf("RecoveryStatus(%d)", int(s))
	}
}

// MarshalText lets the status appear by name in JSON tool results
func (s RecoveryStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the names written by MarshalText
func (s *RecoveryStatus) UnmarshalText(text []byte) error {
	for _, candidate := range []RecoveryStatus{RecoveryUnchanged, RecoveryRepaired, RecoveryFailed} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown recovery status %q", text)
}

// RecoveryResult is the outcome of Recover
type RecoveryResult struct {
	Status  RecoveryStatus `json:"status"`
	Output  string         `json:"-"`
	Repairs []string       `json:"repairs,omitempty"`
	Err     error          `json:"-"`
}

var scriptKeywords = []string{
	"function", "return", "const", "let", "var", "if", "else", "for", "while",
	"switch", "case", "break", "continue", "class", "extends", "import", "export",
	"default", "try", "catch", "finally", "throw", "new", "typeof", "instanceof",
	"async", "await", "interface", "implements",
}

var pythonKeywords = []string{
	"def", "class", "return", "import", "from", "if", "elif", "else", "for", "while",
	"try", "except", "finally", "with", "lambda", "yield", "pass", "raise", "async", "await",
}

var (
	scriptFunctionSpacing = regexp.MustCompile(`function\s+([A-Za-z_$][\w$]*)\s*\(`)
	scriptParenBrace      = regexp.MustCompile(`\)\s*\{`)
	pythonDefSpacing      = regexp.MustCompile(`def\s+([A-Za-z_]\w*)\s*\(`)
	pythonParenColon      = regexp.MustCompile(`\)\s*:`)
	pythonDefHeader       = regexp.MustCompile(`def\s+[A-Za-z_]\w*\([^)]*\)`)
	lineBreakRun          = regexp.MustCompile(`\s*\n\s*`)

	jsonBareKey   = regexp.MustCompile(`([{,]\s*)([A-Za-z_$][\w$]*)(\s*:)`)
	jsonBareValue = regexp.MustCompile(`(:\s*)([A-Za-z_][\w-]*)(\s*[,}\]])`)

	markupTag = regexp.MustCompile(`<(/?)([A-Za-z][\w:.-]*)[^>]*?(/?)>`)
)

// Recover makes a best-effort attempt to repair likely-malformed input before it is
// formatted. It never panics and never returns a partially repaired text on failure:
// a failed pass reports RecoveryFailed with the original input and logs a warning.
func Recover(source string, lang Language) (result RecoveryResult) {
	defer func() {
		if r := recover(); r != nil {
			result = failedRecovery(source, lang, fmt.Errorf("recovery panicked: %v", r))
		}
	}()

	var (
		output  string
		repairs []string
		err     error
	)

	switch lang {
	case LanguageJavaScript, LanguageTypeScript:
		output, repairs, err = recoverScript(source)
	case LanguagePython:
		output, repairs, err = recoverPython(source)
	case LanguageJSON:
		output, repairs = recoverJSON(source)
	case LanguageHTML:
		output, repairs = recoverMarkup(source, true)
	case LanguageXML:
		output, repairs = recoverMarkup(source, false)
	default:
		return RecoveryResult{Status: RecoveryUnchanged, Output: source}
	}

	if err != nil {
		return failedRecovery(source, lang, err)
	}
	if output == source {
		return RecoveryResult{Status: RecoveryUnchanged, Output: source}
	}
	return RecoveryResult{Status: RecoveryRepaired, Output: output, Repairs: repairs}
}

func failedRecovery(source string, lang Language, err error) RecoveryResult {
	logrus.WithFields(logrus.Fields{
		"language":    lang,
		"input_bytes": len(source),
	}).WithError(err).Warn("Syntax recovery failed, returning input unchanged")
	return RecoveryResult{Status: RecoveryFailed, Output: source, Err: err}
}

// rejoinKeywords collapses keywords whose letters were split by whitespace or line
// breaks ("ret\nurn") back into the keyword.
func rejoinKeywords(source string, keywords []string) (string, []string, error) {
	var repairs []string
	out := source
	for _, keyword := range keywords {
		letters := make([]string, 0, len(keyword))
		for _, r := range keyword {
			letters = append(letters, regexp.QuoteMeta(string(r)))
		}
		pattern, err := regexp.Compile(`\b` + strings.Join(letters, `\s*`) + `\b`)
		if err != nil {
			return source, nil, fmt.Errorf("failed to build pattern for keyword %q: %w", keyword, err)
		}

		joined := 0
		out = pattern.ReplaceAllStringFunc(out, func(match string) string {
			if match != keyword {
				joined++
			}
			return keyword
		})
		if joined > 0 {
			repairs = append(repairs, fmt.Sprintf("rejoined %d split %q keyword(s)", joined, keyword))
		}
	}
	return out, repairs, nil
}

func recoverScript(source string) (string, []string, error) {
	out, repairs, err := rejoinKeywords(source, scriptKeywords)
	if err != nil {
		return source, nil, err
	}

	out = replaceCounted(out, scriptFunctionSpacing, "function $1(", "normalised function name spacing", &repairs)
	out = replaceCounted(out, scriptParenBrace, ") {", "normalised spacing between ) and {", &repairs)
	out = appendMissingClosers(out, "{(", "})", &repairs)
	return out, repairs, nil
}

func recoverPython(source string) (string, []string, error) {
	out, repairs, err := rejoinKeywords(source, pythonKeywords)
	if err != nil {
		return source, nil, err
	}

	out = replaceCounted(out, pythonDefSpacing, "def $1(", "normalised def name spacing", &repairs)
	out = replaceCounted(out, pythonParenColon, "):", "normalised spacing between ) and :", &repairs)

	reflowed := pythonDefHeader.ReplaceAllStringFunc(out, func(header string) string {
		if !strings.Contains(header, "\n") {
			return header
		}
		header = lineBreakRun.ReplaceAllString(header, " ")
		header = strings.ReplaceAll(header, "( ", "(")
		return strings.ReplaceAll(header, " )", ")")
	})
	if reflowed != out {
		repairs = append(repairs, "joined multi-line def headers")
		out = reflowed
	}

	out = appendMissingClosers(out, "(", ")", &repairs)
	return out, repairs, nil
}

func recoverJSON(source string) (string, []string) {
	if gjson.Valid(source) {
		return source, nil
	}

	var repairs []string
	quoted := jsonBareKey.ReplaceAllString(source, `$1"$2"$3`)
	if quoted != source {
		repairs = append(repairs, "quoted bare object keys")
	}
	valued := jsonBareValue.ReplaceAllStringFunc(quoted, func(match string) string {
		parts := jsonBareValue.FindStringSubmatch(match)
		switch parts[2] {
		case "true", "false", "null":
			return match
		}
		return parts[1] + `"` + parts[2] + `"` + parts[3]
	})
	if valued != quoted {
		repairs = append(repairs, "quoted bare string values")
	}
	if gjson.Valid(valued) {
		return valued, repairs
	}

	// quoting did not produce valid JSON; only balance brackets on the original
	repairs = nil
	out := appendMissingClosers(source, "[{", "]}", &repairs)
	return out, repairs
}

// recoverMarkup appends closing tags, innermost first, for every tag that was opened
// and never closed. Void elements (HTML only) and self-closing tags never open.
func recoverMarkup(source string, html bool) (string, []string) {
	var open []string
	for _, m := range markupTag.FindAllStringSubmatch(source, -1) {
		closing, name, selfClosing := m[1] == "/", m[2], m[3] == "/"
		if closing {
			if i := lastIndex(open, name, html); i >= 0 {
				open = slices.Delete(open, i, i+1)
			}
			continue
		}
		if selfClosing || (html && htmlVoidElements[strings.ToLower(name)]) {
			continue
		}
		open = append(open, name)
	}
	if len(open) == 0 {
		return source, nil
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(source, " \t\r\n"))
	for i := len(open) - 1; i >= 0; i-- {
		b.WriteString("\n</" + open[i] + ">")
	}
	b.WriteByte('\n')
	return b.String(), []string{fmt.Sprintf("closed %d unclosed tag(s): %s", len(open), strings.Join(open, ", "))}
}

// lastIndex finds the innermost open tag called name; HTML names ignore case
func lastIndex(names []string, name string, foldCase bool) int {
	for i := len(names) - 1; i >= 0; i-- {
		if names[i] == name || (foldCase && strings.EqualFold(names[i], name)) {
			return i
		}
	}
	return -1
}

// appendMissingClosers counts each opener against its closer and appends the
// deficit at the end of source. Excess closers are left alone and never offset a
// deficit of another kind. Closers are appended in the order openers lists them;
// braces go on a line of their own and other closers are appended inline.
func appendMissingClosers(source, openers, closers string, repairs *[]string) string {
	var b strings.Builder
	b.WriteString(source)
	var appended []string
	for i := range len(openers) {
		deficit := strings.Count(source, openers[i:i+1]) - strings.Count(source, closers[i:i+1])
		for range deficit {
			if closers[i] == '}' {
				b.WriteByte('\n')
			}
			b.WriteByte(closers[i])
			appended = append(appended, closers[i:i+1])
		}
	}
	if len(appended) == 0 {
		return source
	}
	*repairs = append(*repairs, fmt.Sprintf("appended missing closer(s) %q", strings.Join(appended, "")))
	return b.String()
}

func replaceCounted(s string, re *regexp.Regexp, repl, note string, repairs *[]string) string {
	out := re.ReplaceAllString(s, repl)
	if out != s {
		*repairs = append(*repairs, note)
	}
	return out
}
