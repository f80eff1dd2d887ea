package cli_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/lumenkit/creative-toolkit/internal/cli"
	"github.com/lumenkit/creative-toolkit/internal/config"
	"github.com/lumenkit/creative-toolkit/internal/registry"
	"github.com/lumenkit/creative-toolkit/internal/testutils"
	_ "github.com/lumenkit/creative-toolkit/internal/tools/codetools"
	_ "github.com/lumenkit/creative-toolkit/internal/tools/utilities/toolhelp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(t *testing.T, output cli.OutputFormat) (*cli.Runner, *bytes.Buffer) {
	t.Helper()
	t.Setenv(registry.DisabledToolsEnvVar, "")
	t.Setenv(registry.EnableAdditionalToolsEnvVar, "")
	registry.Init(testutils.CreateTestLogger())
	testutils.UseSettings(t, config.Defaults())

	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	var buf bytes.Buffer
	runner := cli.NewRunner(testutils.CreateTestLogger(), testutils.CreateTestCache(), output)
	runner.SetOutput(&buf)
	return runner, &buf
}

func TestListTools(t *testing.T) {
	runner, out := newTestRunner(t, cli.OutputText)

	require.NoError(t, runner.ListTools())
	assert.Contains(t, out.String(), "code_tools")
	assert.Contains(t, out.String(), "get_tool_help")
	assert.NotContains(t, out.String(), "color_palette")
}

func TestListTools_JSON(t *testing.T) {
	runner, out := newTestRunner(t, cli.OutputJSON)

	require.NoError(t, runner.ListTools())

	var entries []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &entries))
	require.NotEmpty(t, entries)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
		assert.NotContains(t, e.Description, "\n", "only the first description line is listed")
	}
	assert.Contains(t, names, "code_tools")
}

func TestHelpTool(t *testing.T) {
	runner, out := newTestRunner(t, cli.OutputText)

	require.NoError(t, runner.HelpTool("code-tools"))
	text := out.String()
	assert.Contains(t, text, "Tool: code_tools")
	assert.Contains(t, text, "--file-path")
	assert.Contains(t, text, "(required)")
	assert.Contains(t, text, "[format|minify|transform|recover]")
}

func TestHelpTool_UnknownSuggests(t *testing.T) {
	runner, _ := newTestRunner(t, cli.OutputText)

	err := runner.HelpTool("code-tool")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did you mean code_tools")

	err = runner.HelpTool("qqqq")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creative-toolkit cli list")
}

func TestRunTool_FlagArgs(t *testing.T) {
	runner, out := newTestRunner(t, cli.OutputText)

	err := runner.RunTool(testutils.CreateTestContext(), "code_tools", []string{
		"--action=format",
		"--language", "javascript",
		"--code", "if (a) {\nb();\n}",
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"output": "if (a) {\n  b();\n}\n"`)
	assert.Contains(t, out.String(), `"changed": true`)
}

func TestRunTool_JSONArgsAndKebabName(t *testing.T) {
	runner, out := newTestRunner(t, cli.OutputText)

	err := runner.RunTool(testutils.CreateTestContext(), "code-tools", []string{
		`{"action": "minify", "language": "json", "code": "{ \"a\": 1 }"}`,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"output": "{\"a\":1}"`)
}

func TestRunTool_FlagsTakePrecedenceOverJSON(t *testing.T) {
	runner, out := newTestRunner(t, cli.OutputText)

	err := runner.RunTool(testutils.CreateTestContext(), "code_tools", []string{
		"--language=css",
		`{"action": "format", "language": "python", "code": ".a {\ncolor: red;\n}"}`,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"language": "css"`)
}

func TestRunTool_NumberCoercion(t *testing.T) {
	runner, out := newTestRunner(t, cli.OutputText)

	err := runner.RunTool(testutils.CreateTestContext(), "code_tools", []string{
		"--action=transform",
		"--language=javascript",
		"--indent-type=space",
		"--indent-size=4",
		"--code=if (a) {\n\tb();\n}",
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `{\n    b();\n}`)
}

func TestRunTool_DiffRenderedSeparately(t *testing.T) {
	runner, out := newTestRunner(t, cli.OutputText)

	err := runner.RunTool(testutils.CreateTestContext(), "code_tools", []string{
		"--action=format",
		"--language=javascript",
		"--show-diff",
		"--code=if (a) {\nb();\n}",
	})
	require.NoError(t, err)

	text := out.String()
	assert.NotContains(t, text, `"diff"`)
	assert.Contains(t, text, "--- code.js\n")
	assert.Contains(t, text, "\n+  b();\n")
	assert.Contains(t, text, "\n-b();\n")
}

func TestRunTool_DiffColoured(t *testing.T) {
	runner, out := newTestRunner(t, cli.OutputText)
	color.NoColor = false

	err := runner.RunTool(testutils.CreateTestContext(), "code_tools", []string{
		"--action=format",
		"--language=javascript",
		"--show-diff",
		"--code=if (a) {\nb();\n}",
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "\x1b[32m+  b();")
	assert.Contains(t, out.String(), "\x1b[31m-b();")
}

func TestRunTool_JSONOutputKeepsDiff(t *testing.T) {
	runner, out := newTestRunner(t, cli.OutputJSON)

	err := runner.RunTool(testutils.CreateTestContext(), "code_tools", []string{
		"--action=format",
		"--language=javascript",
		"--show-diff=true",
		"--code=if (a) {\nb();\n}",
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `\"diff\"`)
}

func TestRunTool_Errors(t *testing.T) {
	runner, _ := newTestRunner(t, cli.OutputText)
	ctx := testutils.CreateTestContext()

	tests := []struct {
		name        string
		tool        string
		args        []string
		errContains string
	}{
		{"unknown tool", "formatter", nil, "unknown tool"},
		{"invalid json", "code_tools", []string{"{not json"}, "invalid JSON argument"},
		{"missing flag value", "code_tools", []string{"--language"}, "requires a value"},
		{"unexpected argument", "code_tools", []string{"format"}, "unexpected argument"},
		{"tool validation", "code_tools", []string{"--action=format"}, "tool error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runner.RunTool(ctx, tt.tool, tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestRunTool_ToolFailure(t *testing.T) {
	runner, out := newTestRunner(t, cli.OutputText)
	errBroken := errors.New("broken")
	mock := testutils.NewMockTool("cli_failing_tool").WithError(errBroken)
	registry.Register(mock)

	err := runner.RunTool(testutils.CreateTestContext(), "cli-failing-tool", []string{"--input=hello", "--count=3", "--verbose"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errBroken)
	assert.Empty(t, out.String())

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "hello", calls[0]["input"])
	assert.EqualValues(t, 3, calls[0]["count"])
	assert.Equal(t, true, calls[0]["verbose"])
}

func TestRunTool_FormatterOptionsCanonicalised(t *testing.T) {
	runner, _ := newTestRunner(t, cli.OutputText)
	mock := testutils.NewMockTool("cli_option_tool").
		WithParam("naming_style", map[string]any{"type": "string"}).
		WithParam("language", map[string]any{"type": "string"}).
		WithParam("mode", map[string]any{"type": "string", "enum": []string{"fast", "slow"}})
	registry.Register(mock)

	err := runner.RunTool(testutils.CreateTestContext(), "cli_option_tool", []string{
		"--naming-style=snake",
		`{"language": "ts", "mode": "fast"}`,
	})
	require.NoError(t, err)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "snake_case", calls[0]["naming_style"])
	assert.Equal(t, "typescript", calls[0]["language"])
	assert.Equal(t, "fast", calls[0]["mode"])
}

func TestRunTool_InvalidOptionRejectedBeforeExecute(t *testing.T) {
	runner, _ := newTestRunner(t, cli.OutputText)
	ctx := testutils.CreateTestContext()

	tests := []struct {
		name        string
		args        []string
		errContains string
	}{
		{"naming style", []string{"--action=transform", "--code=x", "--naming-style=kebab"}, "naming style"},
		{"language", []string{"--action=format", "--code=x", "--language=pythn"}, "did you mean python"},
		{"schema enum", []string{"--action=prettify", "--code=x"}, `invalid value "prettify" for --action`},
		{"number", []string{"--action=transform", "--code=x", "--indent-size=four"}, "expected a number"},
		{"boolean", []string{"--action=format", "--code=x", "--show-diff=maybe"}, "expected true or false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runner.RunTool(ctx, "code_tools", tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "argument error")
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestRunTool_CodeFile(t *testing.T) {
	t.Run("from a path", func(t *testing.T) {
		runner, out := newTestRunner(t, cli.OutputText)
		path := filepath.Join(t.TempDir(), "snippet.txt")
		require.NoError(t, os.WriteFile(path, []byte("if (a) {\nb();\n}"), 0o600))

		err := runner.RunTool(testutils.CreateTestContext(), "code_tools", []string{
			"--action=format", "--language=js", "--code-file", path,
		})
		require.NoError(t, err)
		assert.Contains(t, out.String(), `"output": "if (a) {\n  b();\n}\n"`)
	})

	t.Run("from stdin", func(t *testing.T) {
		runner, out := newTestRunner(t, cli.OutputText)
		runner.SetInput(strings.NewReader(".a {\ncolor: red;\n}"))

		err := runner.RunTool(testutils.CreateTestContext(), "code_tools", []string{
			"--action=format", "--language=css", "--code-file=-",
		})
		require.NoError(t, err)
		assert.Contains(t, out.String(), `"output": ".a {\n  color: red;\n}\n"`)
	})

	t.Run("stdin read twice", func(t *testing.T) {
		runner, _ := newTestRunner(t, cli.OutputText)
		runner.SetInput(strings.NewReader("x"))

		err := runner.RunTool(testutils.CreateTestContext(), "code_tools", []string{
			"--action=format", "--code-file=-", "--output-path-file=-",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "stdin can only be read once")
	})

	t.Run("missing file", func(t *testing.T) {
		runner, _ := newTestRunner(t, cli.OutputText)

		err := runner.RunTool(testutils.CreateTestContext(), "code_tools", []string{
			"--action=format", "--code-file", filepath.Join(t.TempDir(), "absent.js"),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "flag --code-file")
	})
}
