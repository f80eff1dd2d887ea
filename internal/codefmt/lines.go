package codefmt

import (
	"strings"
	"unicode"
)

// Line is one input line together with its trimmed content
type Line struct {
	Raw     string
	Trimmed string
}

// SplitLines splits src on newlines. A trailing carriage return is treated as
// whitespace, so CRLF input trims to the same content as LF input.
func SplitLines(src string) []Line {
	return toLines(strings.Split(src, "\n"))
}

func toLines(raw []string) []Line {
	lines := make([]Line, len(raw))
	for i, r := range raw {
		lines[i] = Line{Raw: r, Trimmed: strings.TrimSpace(r)}
	}
	return lines
}

// rawLines returns the Raw field of every line
func rawLines(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Raw
	}
	return out
}

// IsBlank reports whether the line holds only whitespace
func (l Line) IsBlank() bool {
	return l.Trimmed == ""
}

// LeadingClosers returns the length of the run of identical closing brackets that
// starts the trimmed line, counting only characters present in closers.
func (l Line) LeadingClosers(closers string) int {
	t := l.Trimmed
	if t == "" || !strings.ContainsRune(closers, rune(t[0])) {
		return 0
	}
	n := 0
	for n < len(t) && t[n] == t[0] {
		n++
	}
	return n
}

// EndsWithOpener reports whether the trimmed line ends with one of openers
func (l Line) EndsWithOpener(openers string) bool {
	t := l.Trimmed
	return t != "" && strings.ContainsRune(openers, rune(t[len(t)-1]))
}

// Normalize applies the blank-line policy to lines. KeepOne collapses each run of
// whitespace-only lines into one empty line; RemoveAll drops them. Non-blank lines
// are returned unchanged and in order.
func Normalize(lines []string, mode EmptyLineMode) []string {
	out := make([]string, 0, len(lines))
	lastBlank := false
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
			lastBlank = false
			continue
		}
		if mode == RemoveAll || lastBlank {
			continue
		}
		out = append(out, "")
		lastBlank = true
	}
	return out
}

// finishOutput trims trailing whitespace and terminates the text with a single newline
func finishOutput(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace) + "\n"
}
