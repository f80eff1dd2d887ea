package colorpalette

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidColor is returned for anything that is not #rgb or #rrggbb
var ErrInvalidColor = errors.New("invalid colour")

const (
	// WCAG 2 contrast thresholds
	normalAA  = 4.5
	normalAAA = 7.0
	largeAA   = 3.0
	largeAAA  = 4.5
	uiMinimum = 3.0

	// background luminance above which dark text reads better
	readableLuminance = 0.5

	black = "#000000"
	white = "#ffffff"
)

// ParseHex reads a hex colour with or without the leading #. Three digit shorthand
// is expanded (#abc is #aabbcc).
func ParseHex(s string) (colorful.Color, error) {
	hex := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 || strings.Trim(hex, "0123456789abcdef") != "" {
		return colorful.Color{}, fmt.Errorf("%w %q (expected #rgb or #rrggbb)", ErrInvalidColor, s)
	}

	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("%w %q: %w", ErrInvalidColor, s, err)
	}
	return c, nil
}

// Describe reports c in hex, RGB and HSL notations
func Describe(c colorful.Color) ColorInfo {
	r, g, b := c.Clamped().RGB255()
	h, s, l := c.Clamped().Hsl()

	hsl := HSL{
		H: int(math.Round(h)) % 360,
		S: int(math.Round(s * 100)),
		L: int(math.Round(l * 100)),
	}
	return ColorInfo{
		Hex:    c.Clamped().Hex(),
		RGB:    RGB{R: int(r), G: int(g), B: int(b)},
		HSL:    hsl,
		CSSRGB: fmt.Sprintf("rgb(%d, %d, %d)", r, g, b),
		CSSHSL: fmt.Sprintf("hsl(%d, %d%%, %d%%)", hsl.H, hsl.S, hsl.L),
	}
}

// GenerateHarmony returns the colours of a scheme, the first being base itself. Every
// scheme has five colours except split-complementary, which has three.
func GenerateHarmony(base colorful.Color, harmony Harmony) ([]colorful.Color, error) {
	h, s, l := base.Hsl()
	colors := []colorful.Color{base}

	switch harmony {
	case HarmonyMonochromatic:
		for i := 1; i <= 4; i++ {
			step := float64(i - 2)
			colors = append(colors, colorful.Hsl(h, clamp01(s+step*0.1), clamp01(l+step*0.15)))
		}
	case HarmonyAnalogous:
		for i := 1; i <= 4; i++ {
			colors = append(colors, colorful.Hsl(rotateHue(h, float64(i-2)*30), s, l))
		}
	case HarmonyComplementary:
		colors = append(colors, colorful.Hsl(rotateHue(h, 180), s, l))
		for i := 1; i <= 3; i++ {
			colors = append(colors, colorful.Hsl(rotateHue(h, float64(i)*60), s, l))
		}
	case HarmonySplitComplementary:
		complement := rotateHue(h, 180)
		colors = append(colors,
			colorful.Hsl(rotateHue(complement, -30), s, l),
			colorful.Hsl(rotateHue(complement, 30), s, l),
		)
	case HarmonyTriadic:
		for i := 1; i <= 4; i++ {
			colors = append(colors, colorful.Hsl(rotateHue(h, float64(i)*90), s, l))
		}
	case HarmonyTetradic:
		for i := 1; i <= 4; i++ {
			colors = append(colors, colorful.Hsl(rotateHue(h, float64(i)*60), s, l))
		}
	default:
		return nil, fmt.Errorf("unknown harmony %q", harmony)
	}

	return colors, nil
}

func rotateHue(h, degrees float64) float64 {
	return math.Mod(h+degrees+360, 360)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// RelativeLuminance is the WCAG 2 relative luminance of c
func RelativeLuminance(c colorful.Color) float64 {
	r, g, b := c.Clamped().LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// ContrastRatio is (lighter + 0.05) / (darker + 0.05), rounded to two decimals
func ContrastRatio(a, b colorful.Color) float64 {
	l1, l2 := RelativeLuminance(a), RelativeLuminance(b)
	lighter, darker := math.Max(l1, l2), math.Min(l1, l2)
	ratio := (lighter + 0.05) / (darker + 0.05)
	return math.Round(ratio*100) / 100
}

// ContrastLevel labels a ratio with the best WCAG level it reaches
func ContrastLevel(ratio float64) string {
	switch {
	case ratio >= normalAAA:
		return "AAA (best)"
	case ratio >= normalAA:
		return "AA (good)"
	case ratio >= largeAA:
		return "AA large text (acceptable)"
	default:
		return "fails (needs improvement)"
	}
}

// ReadableTextColor picks black or white text for the background
func ReadableTextColor(background colorful.Color) string {
	if RelativeLuminance(background) > readableLuminance {
		return black
	}
	return white
}

// Invert returns the opposite colour. Dark colours become white and light ones
// black; anything else has each channel inverted.
func Invert(c colorful.Color) string {
	r, g, b := c.Clamped().RGB255()
	switch {
	case r < 100 && g < 100 && b < 100:
		return white
	case r > 155 && g > 155 && b > 155:
		return black
	}
	return fmt.Sprintf("#%02x%02x%02x", 255-r, 255-g, 255-b)
}

// AssessContrast builds the full WCAG report for a text/background pair
func AssessContrast(foreground, background colorful.Color) ContrastResponse {
	ratio := ContrastRatio(foreground, background)
	return ContrastResponse{
		Foreground: foreground.Clamped().Hex(),
		Background: background.Clamped().Hex(),
		Ratio:      ratio,
		Level:      ContrastLevel(ratio),
		NormalText: Compliance{
			AA:  ratio >= normalAA,
			AAA: ratio >= normalAAA,
		},
		LargeText: Compliance{
			AA:  ratio >= largeAA,
			AAA: ratio >= largeAAA,
		},
		UIComponents:       ratio >= uiMinimum,
		ReadableText:       ReadableTextColor(background),
		InvertedForeground: Invert(foreground),
		InvertedBackground: Invert(background),
	}
}
