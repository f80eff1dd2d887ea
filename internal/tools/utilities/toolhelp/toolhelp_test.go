package toolhelp

import (
	"testing"

	"github.com/lumenkit/creative-toolkit/internal/registry"
	"github.com/lumenkit/creative-toolkit/internal/testutils"
	_ "github.com/lumenkit/creative-toolkit/internal/tools/codetools"
	_ "github.com/lumenkit/creative-toolkit/internal/tools/colorpalette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, enabled string) *ToolHelpTool {
	t.Helper()
	t.Setenv(registry.DisabledToolsEnvVar, "")
	t.Setenv(registry.EnableAdditionalToolsEnvVar, enabled)
	registry.Init(testutils.CreateTestLogger())
	return &ToolHelpTool{}
}

func TestToolHelp_Definition(t *testing.T) {
	tool := setup(t, "")
	definition := tool.Definition()

	assert.Equal(t, "get_tool_help", definition.Name)
	assert.Contains(t, definition.InputSchema.Required, "tool_name")

	property, ok := definition.InputSchema.Properties["tool_name"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, property["enum"], "code_tools")
	assert.NotContains(t, property["enum"], "color_palette", "opt-in tool is not enabled")
}

func TestToolHelp_Execute(t *testing.T) {
	tool := setup(t, "color_palette")

	for _, name := range []string{"code_tools", "color_palette"} {
		t.Run(name, func(t *testing.T) {
			result, err := tool.Execute(testutils.CreateTestContext(), testutils.CreateTestLogger(), testutils.CreateTestCache(), map[string]any{
				"tool_name": name,
			})
			require.NoError(t, err)

			response := testutils.DecodeResult[ToolHelpResponse](t, result)
			assert.Equal(t, name, response.ToolName)
			assert.True(t, response.HasExtendedInfo)
			require.NotNil(t, response.ExtendedInfo)
			assert.NotEmpty(t, response.ExtendedInfo.WhenToUse)
			assert.NotEmpty(t, response.ExtendedInfo.Examples)
			assert.Equal(t, name, response.BasicInfo["name"])
		})
	}
}

func TestToolHelp_Execute_Errors(t *testing.T) {
	tool := setup(t, "")
	ctx := testutils.CreateTestContext()
	logger := testutils.CreateTestLogger()
	cache := testutils.CreateTestCache()

	t.Run("missing name", func(t *testing.T) {
		_, err := tool.Execute(ctx, logger, cache, map[string]any{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tool_name")
	})

	t.Run("misspelt name gets a suggestion", func(t *testing.T) {
		_, err := tool.Execute(ctx, logger, cache, map[string]any{"tool_name": "codetools"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "did you mean code_tools")
	})

	t.Run("disabled opt-in tool", func(t *testing.T) {
		_, err := tool.Execute(ctx, logger, cache, map[string]any{"tool_name": "color_palette"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found or disabled")
	})

	t.Run("tool without extended help", func(t *testing.T) {
		_, err := tool.Execute(ctx, logger, cache, map[string]any{"tool_name": "get_tool_help"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not provide extended help")
	})
}
