package colorpalette

// Action selects what color_palette computes
type Action string

const (
	ActionConvert  Action = "convert"
	ActionHarmony  Action = "harmony"
	ActionContrast Action = "contrast"
)

// Harmony names a colour scheme built around a base colour
type Harmony string

const (
	HarmonyMonochromatic      Harmony = "monochromatic"
	HarmonyAnalogous          Harmony = "analogous"
	HarmonyComplementary      Harmony = "complementary"
	HarmonySplitComplementary Harmony = "split-complementary"
	HarmonyTriadic            Harmony = "triadic"
	HarmonyTetradic           Harmony = "tetradic"
)

// Harmonies lists every supported scheme
var Harmonies = []Harmony{
	HarmonyMonochromatic,
	HarmonyAnalogous,
	HarmonyComplementary,
	HarmonySplitComplementary,
	HarmonyTriadic,
	HarmonyTetradic,
}

// PaletteRequest represents the parsed parameters of one color_palette call
type PaletteRequest struct {
	Action     Action
	Color      string
	Harmony    Harmony
	Foreground string
	Background string
}

// RGB is a colour in 0-255 channels
type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// HSL holds hue in degrees and saturation/lightness in percent
type HSL struct {
	H int `json:"h"`
	S int `json:"s"`
	L int `json:"l"`
}

// ColorInfo describes one colour in every notation the tool reports
type ColorInfo struct {
	Hex    string `json:"hex"`
	RGB    RGB    `json:"rgb"`
	HSL    HSL    `json:"hsl"`
	CSSRGB string `json:"css_rgb"`
	CSSHSL string `json:"css_hsl"`
}

// HarmonyResponse is the palette generated from a base colour
type HarmonyResponse struct {
	Base    string      `json:"base"`
	Harmony Harmony     `json:"harmony"`
	Colors  []ColorInfo `json:"colors"`
}

// Compliance reports which WCAG 2 thresholds a ratio meets
type Compliance struct {
	AA  bool `json:"aa"`
	AAA bool `json:"aaa"`
}

// ContrastResponse is the WCAG assessment of a foreground/background pair
type ContrastResponse struct {
	Foreground         string     `json:"foreground"`
	Background         string     `json:"background"`
	Ratio              float64    `json:"ratio"`
	Level              string     `json:"level"`
	NormalText         Compliance `json:"normal_text"`
	LargeText          Compliance `json:"large_text"`
	UIComponents       bool       `json:"ui_components"`
	ReadableText       string     `json:"readable_text_color"`
	InvertedForeground string     `json:"inverted_foreground"`
	InvertedBackground string     `json:"inverted_background"`
}
