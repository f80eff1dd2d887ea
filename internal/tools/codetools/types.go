package codetools

import (
	"github.com/lumenkit/creative-toolkit/internal/codefmt"
)

// Action selects which pipeline code_tools runs
type Action string

const (
	ActionFormat    Action = "format"
	ActionMinify    Action = "minify"
	ActionTransform Action = "transform"
	ActionRecover   Action = "recover"
)

// CodeRequest represents the parsed parameters of one code_tools call
type CodeRequest struct {
	Action    Action
	Code      string   // inline source
	FilePath  string   // single file source
	FilePaths []string // batch of file sources
	// Language is empty when the caller left it out; it is then taken from the
	// file extension or the configured default
	Language   codefmt.Language
	Format     codefmt.FormatOptions
	Minify     codefmt.MinifyOptions
	Transform  codefmt.TransformOptions
	OutputPath string
	InPlace    bool
	ShowDiff   bool
}

// CodeResponse is the result for one source
type CodeResponse struct {
	Action      Action                  `json:"action"`
	Language    codefmt.Language        `json:"language"`
	Source      string                  `json:"source,omitempty"`
	Output      string                  `json:"output,omitempty"`
	Changed     bool                    `json:"changed"`
	BytesBefore int                     `json:"bytes_before"`
	BytesAfter  int                     `json:"bytes_after"`
	Recovery    *codefmt.RecoveryResult `json:"recovery,omitempty"`
	Diff        string                  `json:"diff,omitempty"`
	WrittenTo   string                  `json:"written_to,omitempty"`
	Error       string                  `json:"error,omitempty"`
}

// BatchResponse collects the results of a file_paths call in input order
type BatchResponse struct {
	Results   []CodeResponse `json:"results"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
}
