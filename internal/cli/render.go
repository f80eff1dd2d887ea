package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

var (
	diffHeader  = color.New(color.Bold)
	diffHunk    = color.New(color.FgCyan)
	diffAdded   = color.New(color.FgGreen)
	diffRemoved = color.New(color.FgRed)
)

// writeText prints a tool's text result. JSON results that carry unified diffs are
// printed without them, then each diff follows in colour.
func (r *Runner) writeText(text string) error {
	if !gjson.Valid(text) || !hasDiff(text) {
		_, err := fmt.Fprintln(r.out, text)
		return err
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		_, err := fmt.Fprintln(r.out, text)
		return err
	}
	diffs := extractDiffs(doc)

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render result: %w", err)
	}
	if _, err := fmt.Fprintln(r.out, string(body)); err != nil {
		return err
	}

	for _, diff := range diffs {
		if _, err := fmt.Fprintln(r.out); err != nil {
			return err
		}
		if err := r.writeDiff(diff); err != nil {
			return err
		}
	}
	return nil
}

// hasDiff relies on diff being omitted from results when empty
func hasDiff(text string) bool {
	return gjson.Get(text, "diff").Exists() || len(gjson.Get(text, "results.#.diff").Array()) > 0
}

// extractDiffs removes every non-empty "diff" field from doc and from the entries of
// a batch "results" array, returning them in order
func extractDiffs(doc map[string]any) []string {
	var diffs []string
	if diff, ok := doc["diff"].(string); ok && diff != "" {
		diffs = append(diffs, diff)
		delete(doc, "diff")
	}
	if results, ok := doc["results"].([]any); ok {
		for _, item := range results {
			if entry, ok := item.(map[string]any); ok {
				diffs = append(diffs, extractDiffs(entry)...)
			}
		}
	}
	return diffs
}

func (r *Runner) writeDiff(diff string) error {
	for line := range strings.SplitAfterSeq(diff, "\n") {
		if line == "" {
			continue
		}

		var err error
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			_, err = diffHeader.Fprint(r.out, line)
		case strings.HasPrefix(line, "@@"):
			_, err = diffHunk.Fprint(r.out, line)
		case strings.HasPrefix(line, "+"):
			_, err = diffAdded.Fprint(r.out, line)
		case strings.HasPrefix(line, "-"):
			_, err = diffRemoved.Fprint(r.out, line)
		default:
			_, err = fmt.Fprint(r.out, line)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
