// Package codefmt implements the heuristic, line-based code reformatter behind the
// code_tools tool: blank-line normalisation, per-language re-indentation, minification,
// best-effort syntax recovery and style transformation.
//
// Nothing here builds a syntax tree. Every pass is a single forward scan or a regular
// expression pipeline over plain text, so results on unusual input are best-effort.
// All functions are pure and total: they never return errors and never panic out.
package codefmt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Language identifies the source language of the input text
type Language string

const (
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageHTML       Language = "html"
	LanguageCSS        Language = "css"
	LanguagePython     Language = "python"
	LanguageJSON       Language = "json"
	LanguageXML        Language = "xml"
	LanguageJava       Language = "java"
	LanguageCSharp     Language = "csharp"
)

// Languages lists every supported language in display order
var Languages = []Language{
	LanguageJavaScript,
	LanguageTypeScript,
	LanguageHTML,
	LanguageCSS,
	LanguagePython,
	LanguageJSON,
	LanguageXML,
	LanguageJava,
	LanguageCSharp,
}

var languageAliases = map[string]Language{
	"js":    LanguageJavaScript,
	"jsx":   LanguageJavaScript,
	"ts":    LanguageTypeScript,
	"tsx":   LanguageTypeScript,
	"htm":   LanguageHTML,
	"py":    LanguagePython,
	"cs":    LanguageCSharp,
	"c#":    LanguageCSharp,
	"svg":   LanguageXML,
	"json5": LanguageJSON,
}

var (
	// ErrUnknownLanguage is returned when a language name cannot be resolved
	ErrUnknownLanguage = errors.New("unknown language")
	// ErrInvalidOption is returned when an option value is not one of its allowed values
	ErrInvalidOption = errors.New("invalid option")
)

// ParseLanguage resolves a language name or alias, case-insensitively.
// Unknown names produce ErrUnknownLanguage with the closest suggestions attached.
func ParseLanguage(name string) (Language, error) {
	normalised := strings.ToLower(strings.TrimSpace(name))
	for _, lang := range Languages {
		if string(lang) == normalised {
			return lang, nil
		}
	}
	if lang, ok := languageAliases[normalised]; ok {
		return lang, nil
	}

	names := make([]string, len(Languages))
	for i, lang := range Languages {
		names[i] = string(lang)
	}
	if suggestions := SuggestLanguages(normalised); len(suggestions) > 0 {
		return "", fmt.Errorf("%w %q (did you mean %s?)", ErrUnknownLanguage, name, strings.Join(suggestions, " or "))
	}
	return "", fmt.Errorf("%w %q (supported: %s)", ErrUnknownLanguage, name, strings.Join(names, ", "))
}

// SuggestLanguages returns up to three supported language names that fuzzily match input
func SuggestLanguages(input string) []string {
	if input == "" {
		return nil
	}
	names := make([]string, len(Languages))
	for i, lang := range Languages {
		names[i] = string(lang)
	}
	matches := fuzzy.Find(input, names)
	suggestions := make([]string, 0, 3)
	for _, match := range matches {
		suggestions = append(suggestions, match.Str)
		if len(suggestions) == 3 {
			break
		}
	}
	return suggestions
}

// IsBraceLanguage reports whether lang is indented by bracket depth
func (l Language) IsBraceLanguage() bool {
	switch l {
	case LanguagePython, LanguageHTML, LanguageXML:
		return false
	default:
		return true
	}
}

// IsScript reports whether lang is JavaScript or TypeScript
func (l Language) IsScript() bool {
	return l == LanguageJavaScript || l == LanguageTypeScript
}

// FileExtension returns the download file extension for lang, "txt" when unknown
func FileExtension(lang Language) string {
	switch lang {
	case LanguageJavaScript:
		return "js"
	case LanguageTypeScript:
		return "ts"
	case LanguageHTML:
		return "html"
	case LanguageCSS:
		return "css"
	case LanguagePython:
		return "py"
	case LanguageJSON:
		return "json"
	case LanguageXML:
		return "xml"
	case LanguageJava:
		return "java"
	case LanguageCSharp:
		return "cs"
	default:
		return "txt"
	}
}

// EmptyLineMode controls how runs of blank lines are treated
type EmptyLineMode string

const (
	// KeepOne collapses each run of blank lines into a single blank line
	KeepOne EmptyLineMode = "keepOne"
	// RemoveAll drops every blank line
	RemoveAll EmptyLineMode = "removeAll"
)

// ParseEmptyLineMode accepts keepOne/removeAll in any case, with or without separators
func ParseEmptyLineMode(s string) (EmptyLineMode, error) {
	switch normaliseOption(s) {
	case "", "keepone":
		return KeepOne, nil
	case "removeall":
		return RemoveAll, nil
	}
	return "", fmt.Errorf("%w: empty line mode %q (expected keepOne or removeAll)", ErrInvalidOption, s)
}

// FormatOptions configures Format
type FormatOptions struct {
	Language      Language
	EmptyLineMode EmptyLineMode
	// RecoverSyntax runs Recover before formatting
	RecoverSyntax bool
	// PythonMainGuard puts an `if __name__ == "__main__":` line at depth 0
	// and its body at depth 1 regardless of the surrounding depth
	PythonMainGuard bool
}

// DefaultFormatOptions returns the options used when a caller sets nothing
func DefaultFormatOptions() FormatOptions {
	return FormatOptions{
		Language:        LanguageJavaScript,
		EmptyLineMode:   KeepOne,
		PythonMainGuard: true,
	}
}

// MinifyOptions configures Minify
type MinifyOptions struct {
	RemoveComments    bool
	RemoveWhitespace  bool
	PreserveImportant bool
}

// DefaultMinifyOptions enables every minification step
func DefaultMinifyOptions() MinifyOptions {
	return MinifyOptions{
		RemoveComments:    true,
		RemoveWhitespace:  true,
		PreserveImportant: true,
	}
}

// QuoteType selects the target string quote character
type QuoteType string

const (
	QuoteNone   QuoteType = "none"
	QuoteSingle QuoteType = "single"
	QuoteDouble QuoteType = "double"
)

// IndentType selects the target indentation character
type IndentType string

const (
	IndentNone  IndentType = "none"
	IndentSpace IndentType = "space"
	IndentTab   IndentType = "tab"
)

// NamingStyle selects the target identifier casing
type NamingStyle string

const (
	NamingNone  NamingStyle = "none"
	NamingCamel NamingStyle = "camelCase"
	NamingSnake NamingStyle = "snake_case"
)

// CommentStyle selects the target comment syntax for JavaScript and TypeScript
type CommentStyle string

const (
	CommentNone  CommentStyle = "none"
	CommentLine  CommentStyle = "line"
	CommentBlock CommentStyle = "block"
)

// DefaultIndentSize is used when TransformOptions.IndentSize is not positive
const DefaultIndentSize = 2

// TransformOptions configures Transform. Zero values disable the corresponding pass.
type TransformOptions struct {
	Language     Language
	QuoteType    QuoteType
	IndentType   IndentType
	IndentSize   int
	NamingStyle  NamingStyle
	CommentStyle CommentStyle
}

// ParseQuoteType accepts single, double or none (empty means none)
func ParseQuoteType(s string) (QuoteType, error) {
	switch normaliseOption(s) {
	case "", "none":
		return QuoteNone, nil
	case "single":
		return QuoteSingle, nil
	case "double":
		return QuoteDouble, nil
	}
	return "", fmt.Errorf("%w: quote type %q (expected single, double or none)", ErrInvalidOption, s)
}

// ParseIndentType accepts space, tab or none (empty means none)
func ParseIndentType(s string) (IndentType, error) {
	switch normaliseOption(s) {
	case "", "none":
		return IndentNone, nil
	case "space", "spaces":
		return IndentSpace, nil
	case "tab", "tabs":
		return IndentTab, nil
	}
	return "", fmt.Errorf("%w: indent type %q (expected space, tab or none)", ErrInvalidOption, s)
}

// ParseNamingStyle accepts camelCase, snake_case or none (empty means none)
func ParseNamingStyle(s string) (NamingStyle, error) {
	switch normaliseOption(s) {
	case "", "none":
		return NamingNone, nil
	case "camelcase", "camel":
		return NamingCamel, nil
	case "snakecase", "snake":
		return NamingSnake, nil
	}
	return "", fmt.Errorf("%w: naming style %q (expected camelCase, snake_case or none)", ErrInvalidOption, s)
}

// ParseCommentStyle accepts line, block or none (empty means none)
func ParseCommentStyle(s string) (CommentStyle, error) {
	switch normaliseOption(s) {
	case "", "none":
		return CommentNone, nil
	case "line":
		return CommentLine, nil
	case "block":
		return CommentBlock, nil
	}
	return "", fmt.Errorf("%w: comment style %q (expected line, block or none)", ErrInvalidOption, s)
}

// normaliseOption lowercases s and drops separators so "snake_case", "Snake-Case" and
// "snakecase" compare equal
func normaliseOption(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)
}
