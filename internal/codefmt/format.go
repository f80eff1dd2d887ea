package codefmt

// FormatResult is the outcome of Format. Recovery is nil unless RecoverSyntax was set.
type FormatResult struct {
	Output   string
	Recovery *RecoveryResult
}

// Format runs the full pipeline: optional syntax recovery, line splitting, blank-line
// normalisation and re-indentation. It never fails; input the heuristics do not
// understand comes back re-indented as best they can.
func Format(source string, opts FormatOptions) FormatResult {
	if opts.EmptyLineMode == "" {
		opts.EmptyLineMode = KeepOne
	}

	var result FormatResult
	if opts.RecoverSyntax {
		rec := Recover(source, opts.Language)
		result.Recovery = &rec
		source = rec.Output
	}

	lines := Normalize(rawLines(SplitLines(source)), opts.EmptyLineMode)
	result.Output = IndentWith(lines, opts)
	return result
}
