package toolhelp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/lumenkit/creative-toolkit/internal/registry"
	"github.com/lumenkit/creative-toolkit/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
)

// ToolHelpTool returns the extended usage information other tools provide
type ToolHelpTool struct{}

func init() {
	registry.Register(&ToolHelpTool{})
}

// Definition returns the tool's definition for MCP registration
func (t *ToolHelpTool) Definition() mcp.Tool {
	toolsWithExtendedHelp := registry.GetToolNamesWithExtendedHelp()

	description := "No tools currently provide extended help information."
	if len(toolsWithExtendedHelp) > 0 {
		description = "Get detailed usage examples, parameter notes and troubleshooting for the creative toolkit tools, e.g. when a call returns an unexpected error or result."
	}

	return mcp.NewTool(
		"get_tool_help",
		mcp.WithDescription(description),
		mcp.WithString("tool_name",
			mcp.Required(),
			mcp.Description("Name of the tool to get help for"),
			mcp.Enum(toolsWithExtendedHelp...),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

// Execute executes the get_tool_help tool
func (t *ToolHelpTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	request, err := t.parseRequest(args)
	if err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	tool, exists := registry.GetTool(request.ToolName)
	if !exists {
		return nil, t.unknownToolError(request.ToolName)
	}

	provider, ok := tool.(tools.ExtendedHelpProvider)
	if !ok {
		return nil, fmt.Errorf("tool '%s' does not provide extended help. Tools with extended help: %s",
			request.ToolName, strings.Join(registry.GetToolNamesWithExtendedHelp(), ", "))
	}

	response := &ToolHelpResponse{
		ToolName:        request.ToolName,
		BasicInfo:       t.extractBasicInfo(tool),
		HasExtendedInfo: true,
	}

	if info := provider.ProvideExtendedInfo(); info != nil {
		response.ExtendedInfo = t.convertExtendedInfo(info)
	} else {
		response.HasExtendedInfo = false
		response.Message = fmt.Sprintf("Tool '%s' returned no extended information", request.ToolName)
	}

	logger.WithField("tool", request.ToolName).Debug("Extended help provided")
	return tools.NewToolResultJSON(response)
}

func (t *ToolHelpTool) parseRequest(args map[string]any) (*ToolHelpRequest, error) {
	toolName, ok := args["tool_name"].(string)
	if !ok || strings.TrimSpace(toolName) == "" {
		return nil, fmt.Errorf("missing or invalid required parameter: tool_name")
	}
	return &ToolHelpRequest{ToolName: strings.TrimSpace(toolName)}, nil
}

func (t *ToolHelpTool) unknownToolError(name string) error {
	available := strings.Join(registry.GetToolNamesWithExtendedHelp(), ", ")
	if suggestions := registry.SuggestToolNames(name); len(suggestions) > 0 {
		return fmt.Errorf("tool '%s' not found or disabled (did you mean %s?). Tools with extended help: %s",
			name, strings.Join(suggestions, ", "), available)
	}
	return fmt.Errorf("tool '%s' not found or disabled. Tools with extended help: %s", name, available)
}

// extractBasicInfo extracts basic information from a tool's definition
func (t *ToolHelpTool) extractBasicInfo(tool tools.Tool) map[string]any {
	definition := tool.Definition()

	basicInfo := map[string]any{
		"name":        definition.Name,
		"description": definition.Description,
	}
	if definition.InputSchema.Type != "" {
		basicInfo["input_schema"] = definition.InputSchema
	}
	return basicInfo
}

func (t *ToolHelpTool) convertExtendedInfo(info *tools.ExtendedHelp) *ExtendedHelpData {
	result := &ExtendedHelpData{
		CommonPatterns:   info.CommonPatterns,
		ParameterDetails: info.ParameterDetails,
		WhenToUse:        info.WhenToUse,
		WhenNotToUse:     info.WhenNotToUse,
	}

	for _, tip := range info.Troubleshooting {
		result.Troubleshooting = append(result.Troubleshooting, TroubleshootingData(tip))
	}
	for _, example := range info.Examples {
		result.Examples = append(result.Examples, ToolExampleData(example))
	}
	return result
}
