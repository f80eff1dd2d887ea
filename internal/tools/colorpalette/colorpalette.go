package colorpalette

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/lumenkit/creative-toolkit/internal/config"
	"github.com/lumenkit/creative-toolkit/internal/registry"
	"github.com/lumenkit/creative-toolkit/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
)

// ColorPalette implements the colour conversion, harmony and contrast tool
type ColorPalette struct{}

func init() {
	registry.Register(&ColorPalette{})
}

// Definition returns the tool's definition for MCP registration
func (c *ColorPalette) Definition() mcp.Tool {
	harmonies := make([]string, len(Harmonies))
	for i, h := range Harmonies {
		harmonies[i] = string(h)
	}

	return mcp.NewTool(
		"color_palette",
		mcp.WithDescription(`Work with hex colours.

Actions:
- convert: describe a colour as hex, RGB and HSL
- harmony: build a colour scheme from a base colour (five colours, three for split-complementary)
- contrast: WCAG 2 contrast ratio, AA/AAA compliance and a readable text colour for a foreground/background pair`),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("Operation to perform"),
			mcp.Enum(string(ActionConvert), string(ActionHarmony), string(ActionContrast)),
		),
		mcp.WithString("color",
			mcp.Description("convert, harmony: base colour as #rgb or #rrggbb"),
		),
		mcp.WithString("harmony",
			mcp.Description("harmony: scheme to generate (default: from config, analogous)"),
			mcp.Enum(harmonies...),
		),
		mcp.WithString("foreground",
			mcp.Description("contrast: text colour as #rgb or #rrggbb"),
		),
		mcp.WithString("background",
			mcp.Description("contrast: background colour as #rgb or #rrggbb"),
		),
	)
}

// Execute executes the colour palette tool
func (c *ColorPalette) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	request, err := c.parseRequest(args)
	if err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"action":  request.Action,
		"color":   request.Color,
		"harmony": request.Harmony,
	}).Debug("Colour palette request")

	switch request.Action {
	case ActionConvert:
		base, err := ParseHex(request.Color)
		if err != nil {
			return nil, err
		}
		return tools.NewToolResultJSON(Describe(base))

	case ActionHarmony:
		base, err := ParseHex(request.Color)
		if err != nil {
			return nil, err
		}
		colors, err := GenerateHarmony(base, request.Harmony)
		if err != nil {
			return nil, err
		}
		response := HarmonyResponse{
			Base:    base.Hex(),
			Harmony: request.Harmony,
			Colors:  make([]ColorInfo, len(colors)),
		}
		for i, color := range colors {
			response.Colors[i] = Describe(color)
		}
		return tools.NewToolResultJSON(response)

	case ActionContrast:
		foreground, err := ParseHex(request.Foreground)
		if err != nil {
			return nil, fmt.Errorf("foreground: %w", err)
		}
		background, err := ParseHex(request.Background)
		if err != nil {
			return nil, fmt.Errorf("background: %w", err)
		}
		return tools.NewToolResultJSON(AssessContrast(foreground, background))
	}

	return nil, fmt.Errorf("unsupported action: %s", request.Action)
}

// parseRequest parses and validates the request parameters
func (c *ColorPalette) parseRequest(args map[string]any) (*PaletteRequest, error) {
	request := &PaletteRequest{}

	action, _ := args["action"].(string)
	request.Action = Action(strings.ToLower(strings.TrimSpace(action)))

	request.Color, _ = args["color"].(string)
	request.Foreground, _ = args["foreground"].(string)
	request.Background, _ = args["background"].(string)

	switch request.Action {
	case ActionConvert:
		if strings.TrimSpace(request.Color) == "" {
			return nil, fmt.Errorf("color is required for convert")
		}
	case ActionHarmony:
		if strings.TrimSpace(request.Color) == "" {
			return nil, fmt.Errorf("color is required for harmony")
		}
		name, _ := args["harmony"].(string)
		harmony, err := parseHarmony(name)
		if err != nil {
			return nil, err
		}
		request.Harmony = harmony
	case ActionContrast:
		if strings.TrimSpace(request.Foreground) == "" || strings.TrimSpace(request.Background) == "" {
			return nil, fmt.Errorf("foreground and background are required for contrast")
		}
	case "":
		return nil, fmt.Errorf("action is required (convert, harmony or contrast)")
	default:
		return nil, fmt.Errorf("unknown action %q (expected convert, harmony or contrast)", action)
	}

	return request, nil
}

// parseHarmony resolves a scheme name; empty uses the configured default and an
// unusable default falls back to analogous
func parseHarmony(name string) (Harmony, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		if configured := Harmony(strings.ToLower(config.Get().DefaultHarmony)); isHarmony(configured) {
			return configured, nil
		}
		return HarmonyAnalogous, nil
	}
	if !isHarmony(Harmony(name)) {
		return "", fmt.Errorf("unknown harmony %q (expected monochromatic, analogous, complementary, split-complementary, triadic or tetradic)", name)
	}
	return Harmony(name), nil
}

func isHarmony(h Harmony) bool {
	for _, known := range Harmonies {
		if h == known {
			return true
		}
	}
	return false
}
