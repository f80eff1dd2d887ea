package codetools

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"fortio.org/safecast"
	"github.com/gofrs/flock"
	"github.com/lumenkit/creative-toolkit/internal/codefmt"
	"github.com/lumenkit/creative-toolkit/internal/config"
	"github.com/lumenkit/creative-toolkit/internal/registry"
	"github.com/lumenkit/creative-toolkit/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// CodeTools implements the code formatting, minification, transformation and
// recovery tool
type CodeTools struct{}

const (
	// MaxLengthEnvVar overrides the maximum accepted input size in bytes
	MaxLengthEnvVar = "CODE_TOOLS_MAX_LENGTH"
	// MaxConcurrencyEnvVar bounds how many files a batch processes at once
	MaxConcurrencyEnvVar = "CODE_TOOLS_MAX_CONCURRENCY"

	maxBatchSize      = 100
	maxIndentSize     = 16
	defaultOutputName = "code"
	lockRetryDelay    = 50 * time.Millisecond
	lockTimeout       = 10 * time.Second
)

// getMaxInputLength returns the configured maximum input length; the environment
// variable wins over the config file
func getMaxInputLength() int {
	if envValue := os.Getenv(MaxLengthEnvVar); envValue != "" {
		if value, err := strconv.Atoi(envValue); err == nil && value > 0 {
			return value
		}
	}
	return config.Get().MaxInputLength
}

func getMaxConcurrency() int {
	if envValue := os.Getenv(MaxConcurrencyEnvVar); envValue != "" {
		if value, err := strconv.Atoi(envValue); err == nil && value > 0 {
			return value
		}
	}
	return config.Get().MaxConcurrency
}

func init() {
	registry.Register(&CodeTools{})
}

// Definition returns the tool's definition for MCP registration
func (c *CodeTools) Definition() mcp.Tool {
	return mcp.NewTool(
		"code_tools",
		mcp.WithDescription(`Reformat, minify, restyle or repair source code with fast line-based heuristics (no parser).

Actions:
- format: re-indent by bracket/keyword/tag depth and normalise blank lines (optionally repair syntax first)
- minify: strip comments and non-semantic whitespace
- transform: convert quote style, indentation, identifier naming and JS/TS comment style
- recover: best-effort repair of split keywords, unbalanced brackets and unclosed tags

Provide the source inline with code, from one file with file_path, or from many files with file_paths.
Languages: javascript, typescript, html, css, python, json, xml, java, csharp.`),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("Operation to perform"),
			mcp.Enum(string(ActionFormat), string(ActionMinify), string(ActionTransform), string(ActionRecover)),
		),
		mcp.WithString("code",
			mcp.MaxLength(getMaxInputLength()),
			mcp.Description("Source code to process inline (if not using file_path or file_paths)"),
		),
		mcp.WithString("file_path",
			mcp.Description("Absolute path of a file to read the source from"),
		),
		mcp.WithArray("file_paths",
			mcp.Description("Absolute paths of files to process concurrently with the same options"),
			mcp.Items(map[string]any{
				"type": "string",
			}),
		),
		mcp.WithString("language",
			mcp.Description("Source language or alias (js, ts, py, htm, cs). Defaults to the file extension, then the configured default"),
		),
		mcp.WithString("empty_line_mode",
			mcp.Description("format: keepOne collapses blank line runs to one, removeAll drops them"),
			mcp.Enum(string(codefmt.KeepOne), string(codefmt.RemoveAll)),
		),
		mcp.WithBoolean("recover_syntax",
			mcp.Description("format: run syntax recovery before re-indenting (default: false)"),
		),
		mcp.WithBoolean("python_main_guard",
			mcp.Description("format: indent the body of `if __name__ == \"__main__\":` one level from column zero (default: from config, true)"),
		),
		mcp.WithBoolean("remove_comments",
			mcp.Description("minify: strip comments (default: true)"),
		),
		mcp.WithBoolean("remove_whitespace",
			mcp.Description("minify: collapse whitespace (default: true)"),
		),
		mcp.WithBoolean("preserve_important",
			mcp.Description("minify: keep the space before CSS !important (default: true)"),
		),
		mcp.WithString("quote_type",
			mcp.Description("transform: target string quote style"),
			mcp.Enum(string(codefmt.QuoteSingle), string(codefmt.QuoteDouble), string(codefmt.QuoteNone)),
		),
		mcp.WithString("indent_type",
			mcp.Description("transform: target indentation character"),
			mcp.Enum(string(codefmt.IndentSpace), string(codefmt.IndentTab), string(codefmt.IndentNone)),
		),
		mcp.WithNumber("indent_size",
			mcp.Description("transform: spaces per indentation level when indent_type is space (default: from config, 2)"),
		),
		mcp.WithString("naming_style",
			mcp.Description("transform: target identifier casing outside string literals"),
			mcp.Enum(string(codefmt.NamingCamel), string(codefmt.NamingSnake), string(codefmt.NamingNone)),
		),
		mcp.WithString("comment_style",
			mcp.Description("transform: target comment syntax (JavaScript and TypeScript only)"),
			mcp.Enum(string(codefmt.CommentLine), string(codefmt.CommentBlock), string(codefmt.CommentNone)),
		),
		mcp.WithString("output_path",
			mcp.Description("Absolute path to write the result to. A directory receives code.<ext>, or the source file name for file input. The output is then left out of the response"),
		),
		mcp.WithBoolean("in_place",
			mcp.Description("Write the result back to the source file (file_path or file_paths only)"),
		),
		mcp.WithBoolean("show_diff",
			mcp.Description("Include a unified diff between the input and the result (default: false)"),
		),
	)
}

// Execute executes the code tools
func (c *CodeTools) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	request, err := c.parseRequest(args)
	if err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if len(request.FilePaths) > 0 {
		return c.executeBatch(ctx, logger, request)
	}

	var response *CodeResponse
	if request.FilePath != "" {
		response, err = c.processFile(ctx, logger, request, request.FilePath)
	} else {
		response, err = c.process(ctx, logger, request, request.Code, "")
	}
	if err != nil {
		return nil, err
	}

	return tools.NewToolResultJSON(response)
}

// executeBatch processes every file in request.FilePaths concurrently. A file that
// fails is reported in its own result and does not stop the others.
func (c *CodeTools) executeBatch(ctx context.Context, logger *logrus.Logger, request *CodeRequest) (*mcp.CallToolResult, error) {
	if request.OutputPath != "" {
		info, err := os.Stat(request.OutputPath)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("output_path must be an existing directory when file_paths is used: %s", request.OutputPath)
		}
	}

	results := make([]CodeResponse, len(request.FilePaths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(getMaxConcurrency(), len(request.FilePaths)))

	for i, path := range request.FilePaths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			response, err := c.processFile(gctx, logger, request, path)
			if err != nil {
				logger.WithError(err).WithField("file_path", path).Warn("Failed to process file in batch")
				results[i] = CodeResponse{Action: request.Action, Source: path, Error: err.Error()}
				return nil
			}
			results[i] = *response
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch interrupted: %w", err)
	}

	batch := BatchResponse{Results: results}
	for _, r := range results {
		if r.Error != "" {
			batch.Failed++
		} else {
			batch.Succeeded++
		}
	}

	logger.WithFields(logrus.Fields{
		"action":    request.Action,
		"files":     len(results),
		"succeeded": batch.Succeeded,
		"failed":    batch.Failed,
	}).Info("Batch processed")

	return tools.NewToolResultJSON(batch)
}

// processFile reads path and runs the requested action on its content
func (c *CodeTools) processFile(ctx context.Context, logger *logrus.Logger, request *CodeRequest, path string) (*CodeResponse, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	maxLength := getMaxInputLength()
	if len(content) > maxLength {
		return nil, fmt.Errorf("file %s exceeds maximum length of %d bytes (got %d)", path, maxLength, len(content))
	}

	return c.process(ctx, logger, request, string(content), path)
}

// process runs the requested action on source. origin is the file the source came
// from, or empty for inline code.
func (c *CodeTools) process(ctx context.Context, logger *logrus.Logger, request *CodeRequest, source, origin string) (*CodeResponse, error) {
	lang := resolveLanguage(request.Language, origin)

	response := &CodeResponse{
		Action:      request.Action,
		Language:    lang,
		Source:      origin,
		BytesBefore: len(source),
	}

	var output string
	switch request.Action {
	case ActionFormat:
		opts := request.Format
		opts.Language = lang
		result := codefmt.Format(source, opts)
		output = result.Output
		response.Recovery = result.Recovery
	case ActionMinify:
		output = codefmt.Minify(source, lang, request.Minify)
	case ActionTransform:
		opts := request.Transform
		opts.Language = lang
		output = codefmt.Transform(source, opts)
	case ActionRecover:
		result := codefmt.Recover(source, lang)
		output = result.Output
		response.Recovery = &result
	default:
		return nil, fmt.Errorf("unsupported action: %s", request.Action)
	}

	if response.Recovery != nil && response.Recovery.Status == codefmt.RecoveryFailed {
		logger.WithError(response.Recovery.Err).WithField("language", lang).Warn("Syntax recovery failed, input left unchanged")
	}

	response.Output = output
	response.BytesAfter = len(output)
	response.Changed = output != source

	if request.ShowDiff && response.Changed {
		response.Diff = unifiedDiff(source, output, diffName(origin, lang), string(request.Action))
	}

	if target := outputTarget(request, origin, lang); target != "" {
		if err := writeOutput(ctx, target, output); err != nil {
			return nil, err
		}
		response.WrittenTo = target
		response.Output = ""
	}

	logger.WithFields(logrus.Fields{
		"action":       request.Action,
		"language":     lang,
		"bytes_before": response.BytesBefore,
		"bytes_after":  response.BytesAfter,
		"changed":      response.Changed,
		"written_to":   response.WrittenTo,
	}).Debug("Code processed")

	return response, nil
}

// resolveLanguage picks the explicit language, then the one implied by the file
// extension, then the configured default
func resolveLanguage(explicit codefmt.Language, origin string) codefmt.Language {
	if explicit != "" {
		return explicit
	}
	if ext := strings.TrimPrefix(filepath.Ext(origin), "."); ext != "" {
		if lang, err := codefmt.ParseLanguage(ext); err == nil {
			return lang
		}
	}
	if lang, err := codefmt.ParseLanguage(config.Get().DefaultLanguage); err == nil {
		return lang
	}
	return codefmt.LanguageJavaScript
}

// outputTarget returns the file the result is written to, or empty for none
func outputTarget(request *CodeRequest, origin string, lang codefmt.Language) string {
	if request.OutputPath == "" {
		if request.InPlace {
			return origin
		}
		return ""
	}

	info, err := os.Stat(request.OutputPath)
	if err != nil || !info.IsDir() {
		return request.OutputPath
	}
	if origin != "" {
		return filepath.Join(request.OutputPath, filepath.Base(origin))
	}
	return filepath.Join(request.OutputPath, defaultOutputName+"."+codefmt.FileExtension(lang))
}

// writeOutput writes content to path while holding an exclusive lock on it, so
// concurrent batch entries aiming at one file do not interleave
func writeOutput(ctx context.Context, path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	fileLock := flock.New(lockPath(path))
	locked, err := fileLock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire write lock for %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("could not acquire write lock for %s", path)
	}
	defer func() {
		if err := fileLock.Unlock(); err != nil {
			logrus.WithError(err).Warn("Failed to release write lock")
		}
	}()

	perm := fs.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return nil
}

// lockPath keeps lock files out of the user's source tree
func lockPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(os.TempDir(), "creative-toolkit-"+hex.EncodeToString(sum[:8])+".lock")
}

func unifiedDiff(before, after, name, action string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: name,
		ToFile:   name + " (" + action + ")",
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return diff
}

func diffName(origin string, lang codefmt.Language) string {
	if origin != "" {
		return filepath.Base(origin)
	}
	return defaultOutputName + "." + codefmt.FileExtension(lang)
}

// parseRequest parses and validates the request parameters
func (c *CodeTools) parseRequest(args map[string]any) (*CodeRequest, error) {
	settings := config.Get()
	defaultMode, err := codefmt.ParseEmptyLineMode(settings.EmptyLineMode)
	if err != nil {
		defaultMode = codefmt.KeepOne
	}
	request := &CodeRequest{
		Format: codefmt.FormatOptions{
			EmptyLineMode:   defaultMode,
			PythonMainGuard: settings.PythonMainGuard,
		},
		Minify: codefmt.DefaultMinifyOptions(),
		Transform: codefmt.TransformOptions{
			IndentSize: settings.IndentSize,
		},
	}

	action, _ := args["action"].(string)
	request.Action = Action(strings.ToLower(strings.TrimSpace(action)))
	switch request.Action {
	case ActionFormat, ActionMinify, ActionTransform, ActionRecover:
	case "":
		return nil, fmt.Errorf("action is required (format, minify, transform or recover)")
	default:
		return nil, fmt.Errorf("unknown action %q (expected format, minify, transform or recover)", action)
	}

	if code, ok := args["code"].(string); ok {
		request.Code = code
	}
	if filePath, ok := args["file_path"].(string); ok {
		request.FilePath = strings.TrimSpace(filePath)
	}
	filePaths, err := stringSliceArg(args, "file_paths")
	if err != nil {
		return nil, err
	}
	request.FilePaths = filePaths

	if err := validateSources(request); err != nil {
		return nil, err
	}

	if language, ok := args["language"].(string); ok && strings.TrimSpace(language) != "" {
		lang, err := codefmt.ParseLanguage(language)
		if err != nil {
			return nil, err
		}
		request.Language = lang
	}

	if err := c.parseFormatOptions(args, request); err != nil {
		return nil, err
	}
	if err := c.parseMinifyOptions(args, request); err != nil {
		return nil, err
	}
	if err := c.parseTransformOptions(args, request); err != nil {
		return nil, err
	}

	if outputPath, ok := args["output_path"].(string); ok && strings.TrimSpace(outputPath) != "" {
		request.OutputPath = strings.TrimSpace(outputPath)
		if !filepath.IsAbs(request.OutputPath) {
			return nil, fmt.Errorf("output_path must be a fully qualified absolute path, got: %s", request.OutputPath)
		}
	}
	if request.InPlace, err = boolArg(args, "in_place", false); err != nil {
		return nil, err
	}
	if request.InPlace && request.Code != "" {
		return nil, fmt.Errorf("in_place needs file_path or file_paths, not inline code")
	}
	if request.InPlace && request.OutputPath != "" {
		return nil, fmt.Errorf("cannot use in_place together with output_path")
	}
	if request.ShowDiff, err = boolArg(args, "show_diff", false); err != nil {
		return nil, err
	}

	return request, nil
}

// validateSources checks exactly one source is given and that it is acceptable
func validateSources(request *CodeRequest) error {
	sources := 0
	for _, set := range []bool{request.Code != "", request.FilePath != "", len(request.FilePaths) > 0} {
		if set {
			sources++
		}
	}
	if sources == 0 {
		return fmt.Errorf("one of 'code', 'file_path' or 'file_paths' must be provided")
	}
	if sources > 1 {
		return fmt.Errorf("provide only one of 'code', 'file_path' or 'file_paths'")
	}

	if request.Code != "" {
		if strings.TrimSpace(request.Code) == "" {
			return fmt.Errorf("code parameter cannot be empty")
		}
		maxLength := getMaxInputLength()
		if len(request.Code) > maxLength {
			return fmt.Errorf("code exceeds maximum length of %d bytes (got %d)", maxLength, len(request.Code))
		}
		return nil
	}

	if len(request.FilePaths) > maxBatchSize {
		return fmt.Errorf("file_paths accepts at most %d files (got %d)", maxBatchSize, len(request.FilePaths))
	}
	paths := request.FilePaths
	if request.FilePath != "" {
		paths = []string{request.FilePath}
	}
	for _, path := range paths {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("file paths must be fully qualified absolute paths, got: %s", path)
		}
	}
	return nil
}

func (c *CodeTools) parseFormatOptions(args map[string]any, request *CodeRequest) error {
	if mode, ok := args["empty_line_mode"].(string); ok {
		parsed, err := codefmt.ParseEmptyLineMode(mode)
		if err != nil {
			return err
		}
		request.Format.EmptyLineMode = parsed
	}

	var err error
	if request.Format.RecoverSyntax, err = boolArg(args, "recover_syntax", false); err != nil {
		return err
	}
	if request.Format.PythonMainGuard, err = boolArg(args, "python_main_guard", request.Format.PythonMainGuard); err != nil {
		return err
	}
	return nil
}

func (c *CodeTools) parseMinifyOptions(args map[string]any, request *CodeRequest) error {
	var err error
	if request.Minify.RemoveComments, err = boolArg(args, "remove_comments", true); err != nil {
		return err
	}
	if request.Minify.RemoveWhitespace, err = boolArg(args, "remove_whitespace", true); err != nil {
		return err
	}
	if request.Minify.PreserveImportant, err = boolArg(args, "preserve_important", true); err != nil {
		return err
	}
	return nil
}

func (c *CodeTools) parseTransformOptions(args map[string]any, request *CodeRequest) error {
	var err error
	opts := &request.Transform

	if opts.QuoteType, err = codefmt.ParseQuoteType(stringArg(args, "quote_type")); err != nil {
		return err
	}
	if opts.IndentType, err = codefmt.ParseIndentType(stringArg(args, "indent_type")); err != nil {
		return err
	}
	if opts.NamingStyle, err = codefmt.ParseNamingStyle(stringArg(args, "naming_style")); err != nil {
		return err
	}
	if opts.CommentStyle, err = codefmt.ParseCommentStyle(stringArg(args, "comment_style")); err != nil {
		return err
	}

	size, ok, err := intArg(args, "indent_size")
	if err != nil {
		return err
	}
	if ok {
		if size < 1 || size > maxIndentSize {
			return fmt.Errorf("%w: indent_size must be between 1 and %d, got %d", codefmt.ErrInvalidOption, maxIndentSize, size)
		}
		opts.IndentSize = size
	}

	if request.Action == ActionTransform &&
		opts.QuoteType == codefmt.QuoteNone &&
		opts.IndentType == codefmt.IndentNone &&
		opts.NamingStyle == codefmt.NamingNone &&
		opts.CommentStyle == codefmt.CommentNone {
		return fmt.Errorf("transform needs at least one of quote_type, indent_type, naming_style or comment_style")
	}
	return nil
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// boolArg reads an optional boolean, accepting the string forms the CLI may pass
func boolArg(args map[string]any, key string, def bool) (bool, error) {
	switch v := args[key].(type) {
	case nil:
		return def, nil
	case bool:
		return v, nil
	case string:
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("%s must be a boolean, got %q", key, v)
		}
		return parsed, nil
	default:
		return false, fmt.Errorf("%s must be a boolean", key)
	}
}

// intArg reads an optional whole number; JSON callers send float64, the CLI int64
func intArg(args map[string]any, key string) (int, bool, error) {
	var (
		n   int
		err error
	)
	switch v := args[key].(type) {
	case nil:
		return 0, false, nil
	case float64:
		if v != float64(int64(v)) {
			return 0, false, fmt.Errorf("%s must be a whole number, got %v", key, v)
		}
		n, err = safecast.Convert[int](v)
	case int64:
		n, err = safecast.Conv[int](v)
	case int:
		n = v
	case string:
		n, err = strconv.Atoi(strings.TrimSpace(v))
	default:
		return 0, false, fmt.Errorf("%s must be a number", key)
	}
	if err != nil {
		return 0, false, fmt.Errorf("%s is out of range: %w", key, err)
	}
	return n, true, nil
}

func stringSliceArg(args map[string]any, key string) ([]string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}

	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case []string:
		return v, nil
	default:
		return nil, fmt.Errorf("%s must be an array of strings", key)
	}

	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s item at index %d must be a string", key, i)
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
