package registry

import (
	"testing"
)

func BenchmarkNormaliseToolName(b *testing.B) {
	toolNames := []string{
		"code_tools",
		"color_palette",
		"get_tool_help",
		"Code-Tools",
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for _, name := range toolNames {
			_ = normaliseToolName(name)
		}
	}
}

func BenchmarkIsEnabled(b *testing.B) {
	Init(nil)

	toolNames := []string{
		"code_tools",
		"color_palette",
		"get_tool_help",
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for _, name := range toolNames {
			_ = IsEnabled(name)
		}
	}
}

func BenchmarkParseToolList(b *testing.B) {
	disabled := "tool1,tool2,tool3,tool4,tool5,tool6,tool7,tool8,tool9,tool10"

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = parseToolList(disabled)
	}
}
