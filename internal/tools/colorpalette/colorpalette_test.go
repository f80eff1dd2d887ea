package colorpalette

import (
	"testing"

	"github.com/lumenkit/creative-toolkit/internal/config"
	"github.com/lumenkit/creative-toolkit/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"#ff0000", "#ff0000", false},
		{"#F00", "#ff0000", false},
		{"abcdef", "#abcdef", false},
		{"  #123  ", "#112233", false},
		{"", "", true},
		{"#12", "", true},
		{"#gggggg", "", true},
		{"#1234567", "", true},
		{"red", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c, err := ParseHex(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidColor)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Hex())
		})
	}
}

func TestDescribe(t *testing.T) {
	c, err := ParseHex("#f00")
	require.NoError(t, err)

	info := Describe(c)
	assert.Equal(t, "#ff0000", info.Hex)
	assert.Equal(t, RGB{R: 255, G: 0, B: 0}, info.RGB)
	assert.Equal(t, HSL{H: 0, S: 100, L: 50}, info.HSL)
	assert.Equal(t, "rgb(255, 0, 0)", info.CSSRGB)
	assert.Equal(t, "hsl(0, 100%, 50%)", info.CSSHSL)
}

func TestGenerateHarmony(t *testing.T) {
	red, err := ParseHex("#ff0000")
	require.NoError(t, err)

	t.Run("every scheme starts with the base", func(t *testing.T) {
		for _, harmony := range Harmonies {
			colors, err := GenerateHarmony(red, harmony)
			require.NoError(t, err, harmony)
			want := 5
			if harmony == HarmonySplitComplementary {
				want = 3
			}
			require.Len(t, colors, want, harmony)
			assert.Equal(t, "#ff0000", colors[0].Hex(), harmony)
		}
	})

	t.Run("tetradic", func(t *testing.T) {
		colors, err := GenerateHarmony(red, HarmonyTetradic)
		require.NoError(t, err)
		var hexes []string
		for _, c := range colors {
			hexes = append(hexes, c.Hex())
		}
		assert.Equal(t, []string{"#ff0000", "#ffff00", "#00ff00", "#00ffff", "#0000ff"}, hexes)
	})

	t.Run("complementary puts the opposite hue second", func(t *testing.T) {
		colors, err := GenerateHarmony(red, HarmonyComplementary)
		require.NoError(t, err)
		assert.Equal(t, "#00ffff", colors[1].Hex())
		assert.Equal(t, "#ffff00", colors[2].Hex())
	})

	t.Run("split-complementary flanks the opposite hue", func(t *testing.T) {
		colors, err := GenerateHarmony(red, HarmonySplitComplementary)
		require.NoError(t, err)
		require.Len(t, colors, 3)
		assert.Equal(t, 150, Describe(colors[1]).HSL.H)
		assert.Equal(t, 210, Describe(colors[2]).HSL.H)
	})

	t.Run("analogous wraps below zero", func(t *testing.T) {
		colors, err := GenerateHarmony(red, HarmonyAnalogous)
		require.NoError(t, err)
		assert.Equal(t, 330, Describe(colors[1]).HSL.H)
		assert.Equal(t, "#ff0000", colors[2].Hex())
		assert.Equal(t, 30, Describe(colors[3]).HSL.H)
	})

	t.Run("monochromatic steps lightness", func(t *testing.T) {
		grey, err := ParseHex("#808080")
		require.NoError(t, err)
		colors, err := GenerateHarmony(grey, HarmonyMonochromatic)
		require.NoError(t, err)
		for i := 2; i < len(colors); i++ {
			assert.Greater(t, Describe(colors[i]).HSL.L, Describe(colors[i-1]).HSL.L)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := GenerateHarmony(red, Harmony("square"))
		assert.Error(t, err)
	})
}

func TestContrastRatio(t *testing.T) {
	tests := []struct {
		fg, bg string
		ratio  float64
		level  string
	}{
		{"#000000", "#ffffff", 21, "AAA (best)"},
		{"#ffffff", "#000000", 21, "AAA (best)"},
		{"#777777", "#ffffff", 4.48, "AA large text (acceptable)"},
		{"#ffffff", "#ffffff", 1, "fails (needs improvement)"},
	}

	for _, tt := range tests {
		t.Run(tt.fg+" on "+tt.bg, func(t *testing.T) {
			fg, err := ParseHex(tt.fg)
			require.NoError(t, err)
			bg, err := ParseHex(tt.bg)
			require.NoError(t, err)

			ratio := ContrastRatio(fg, bg)
			assert.InDelta(t, tt.ratio, ratio, 1e-9)
			assert.Equal(t, tt.level, ContrastLevel(ratio))
		})
	}
}

func TestContrastLevel_Boundaries(t *testing.T) {
	assert.Equal(t, "AAA (best)", ContrastLevel(7))
	assert.Equal(t, "AA (good)", ContrastLevel(6.99))
	assert.Equal(t, "AA (good)", ContrastLevel(4.5))
	assert.Equal(t, "AA large text (acceptable)", ContrastLevel(3))
	assert.Equal(t, "fails (needs improvement)", ContrastLevel(2.99))
}

func TestReadableTextColorAndInvert(t *testing.T) {
	for hex, want := range map[string]string{
		"#ffffff": black,
		"#ffff00": black,
		"#000000": white,
		"#0000ff": white,
	} {
		c, err := ParseHex(hex)
		require.NoError(t, err)
		assert.Equal(t, want, ReadableTextColor(c), hex)
	}

	for hex, want := range map[string]string{
		"#000000": white,
		"#202020": white,
		"#ffffff": black,
		"#c0c0c0": black,
		"#ff0000": "#00ffff",
		"#3366cc": "#cc9933",
	} {
		c, err := ParseHex(hex)
		require.NoError(t, err)
		assert.Equal(t, want, Invert(c), hex)
	}
}

func TestColorPalette_Definition(t *testing.T) {
	definition := (&ColorPalette{}).Definition()
	assert.Equal(t, "color_palette", definition.Name)
	assert.Contains(t, definition.InputSchema.Required, "action")
	assert.Contains(t, definition.InputSchema.Properties, "harmony")
}

func TestColorPalette_Execute(t *testing.T) {
	testutils.UseSettings(t, config.Defaults())
	tool := &ColorPalette{}
	ctx := testutils.CreateTestContext()
	logger := testutils.CreateTestLogger()
	cache := testutils.CreateTestCache()

	t.Run("convert", func(t *testing.T) {
		result, err := tool.Execute(ctx, logger, cache, map[string]any{"action": "convert", "color": "#0f0"})
		require.NoError(t, err)

		info := testutils.DecodeResult[ColorInfo](t, result)
		assert.Equal(t, "#00ff00", info.Hex)
		assert.Equal(t, 120, info.HSL.H)
	})

	t.Run("harmony uses the configured default", func(t *testing.T) {
		settings := config.Defaults()
		settings.DefaultHarmony = "tetradic"
		testutils.UseSettings(t, settings)

		result, err := tool.Execute(ctx, logger, cache, map[string]any{"action": "harmony", "color": "#ff0000"})
		require.NoError(t, err)

		response := testutils.DecodeResult[HarmonyResponse](t, result)
		assert.Equal(t, HarmonyTetradic, response.Harmony)
		assert.Equal(t, "#ff0000", response.Base)
		require.Len(t, response.Colors, 5)
		assert.Equal(t, "#0000ff", response.Colors[4].Hex)
	})

	t.Run("harmony falls back to analogous", func(t *testing.T) {
		settings := config.Defaults()
		settings.DefaultHarmony = "nonsense"
		testutils.UseSettings(t, settings)

		result, err := tool.Execute(ctx, logger, cache, map[string]any{"action": "harmony", "color": "#ff0000"})
		require.NoError(t, err)
		assert.Equal(t, HarmonyAnalogous, testutils.DecodeResult[HarmonyResponse](t, result).Harmony)
	})

	t.Run("split-complementary by name", func(t *testing.T) {
		result, err := tool.Execute(ctx, logger, cache, map[string]any{
			"action":  "harmony",
			"color":   "#ff0000",
			"harmony": "split-complementary",
		})
		require.NoError(t, err)

		response := testutils.DecodeResult[HarmonyResponse](t, result)
		assert.Equal(t, HarmonySplitComplementary, response.Harmony)
		require.Len(t, response.Colors, 3)
		assert.Equal(t, 150, response.Colors[1].HSL.H)
		assert.Equal(t, 210, response.Colors[2].HSL.H)
	})

	t.Run("contrast", func(t *testing.T) {
		result, err := tool.Execute(ctx, logger, cache, map[string]any{
			"action":     "contrast",
			"foreground": "#777",
			"background": "#fff",
		})
		require.NoError(t, err)

		response := testutils.DecodeResult[ContrastResponse](t, result)
		assert.InDelta(t, 4.48, response.Ratio, 1e-9)
		assert.False(t, response.NormalText.AA)
		assert.True(t, response.LargeText.AA)
		assert.False(t, response.LargeText.AAA)
		assert.True(t, response.UIComponents)
		assert.Equal(t, black, response.ReadableText)
		assert.Equal(t, "#777777", response.Foreground)
	})
}

func TestColorPalette_Execute_Errors(t *testing.T) {
	testutils.UseSettings(t, config.Defaults())
	tool := &ColorPalette{}

	tests := []struct {
		name        string
		args        map[string]any
		errContains string
	}{
		{"missing action", map[string]any{"color": "#fff"}, "action is required"},
		{"unknown action", map[string]any{"action": "mix"}, "unknown action"},
		{"convert without colour", map[string]any{"action": "convert"}, "color is required"},
		{"bad colour", map[string]any{"action": "convert", "color": "#zzz"}, "invalid colour"},
		{"unknown harmony", map[string]any{"action": "harmony", "color": "#fff", "harmony": "square"}, "unknown harmony"},
		{"contrast needs both", map[string]any{"action": "contrast", "foreground": "#fff"}, "foreground and background"},
		{"bad background", map[string]any{"action": "contrast", "foreground": "#fff", "background": "white"}, "background"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tool.Execute(testutils.CreateTestContext(), testutils.CreateTestLogger(), testutils.CreateTestCache(), tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}
