package colorpalette

import (
	"github.com/lumenkit/creative-toolkit/internal/tools"
)

// ProvideExtendedInfo provides detailed usage information for the color_palette tool
func (c *ColorPalette) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		WhenToUse:    "Use when picking UI colours: converting a hex value to RGB/HSL for CSS, generating a matching palette from a brand colour, or checking whether a text/background pair meets WCAG contrast requirements.",
		WhenNotToUse: "Don't use for colour spaces other than sRGB hex input, or for extracting colours from images.",
		CommonPatterns: []string{
			"Check text readability: {\"action\": \"contrast\", \"foreground\": \"#777\", \"background\": \"#fff\"}",
			"Palette from a brand colour: {\"action\": \"harmony\", \"color\": \"#3366cc\", \"harmony\": \"triadic\"}",
			"If contrast fails, try readable_text_color from the response as the foreground",
		},
		ParameterDetails: map[string]string{
			"harmony": "monochromatic varies lightness by 15% and saturation by 10% per step; analogous rotates hue by -30, 0, +30, +60; complementary adds the opposite hue then +60, +120, +180; split-complementary returns only three colours, the hues 30 degrees either side of the opposite; triadic adds 90 degree steps; tetradic 60 degree steps. The base colour is always first.",
			"ratio":   "Contrast ratios are rounded to two decimals before thresholds are applied: normal text AA 4.5 / AAA 7, large text AA 3 / AAA 4.5, UI components 3.",
		},
		Examples: []tools.ToolExample{
			{
				Description: "Convert a shorthand colour",
				Arguments: map[string]any{
					"action": "convert",
					"color":  "#f00",
				},
				ExpectedResult: `{"hex": "#ff0000", "rgb": {"r": 255, "g": 0, "b": 0}, "hsl": {"h": 0, "s": 100, "l": 50}, "css_rgb": "rgb(255, 0, 0)", ...}`,
			},
			{
				Description: "Black on white",
				Arguments: map[string]any{
					"action":     "contrast",
					"foreground": "#000000",
					"background": "#ffffff",
				},
				ExpectedResult: `{"ratio": 21, "level": "AAA (best)", "normal_text": {"aa": true, "aaa": true}, "readable_text_color": "#000000", ...}`,
			},
		},
		Troubleshooting: []tools.TroubleshootingTip{
			{
				Problem:  "invalid colour error",
				Solution: "Only #rgb and #rrggbb hex forms are accepted. Named colours and rgb() strings are not parsed.",
			},
		},
	}
}
