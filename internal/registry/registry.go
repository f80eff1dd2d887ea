package registry

import (
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/lumenkit/creative-toolkit/internal/tools"
	"github.com/sahilm/fuzzy"
	"github.com/sirupsen/logrus"
)

const (
	// DisabledToolsEnvVar lists tools that are never exposed
	DisabledToolsEnvVar = "DISABLED_TOOLS"
	// EnableAdditionalToolsEnvVar lists opt-in tools to expose, or "all"
	EnableAdditionalToolsEnvVar = "ENABLE_ADDITIONAL_TOOLS"

	maxSuggestions = 3
)

// additionalTools are off unless named in ENABLE_ADDITIONAL_TOOLS
var additionalTools = []string{
	"color_palette",
	"text_analyzer",
}

var (
	mu sync.RWMutex

	// toolRegistry is a map of tool names to tool implementations
	toolRegistry = make(map[string]tools.Tool)

	// disabledTools is a set of normalised tool names to disable
	disabledTools = make(map[string]bool)

	// logger is the shared logger instance
	logger *logrus.Logger

	// cache is the shared cache instance
	cache *sync.Map
)

// Init sets up the shared resources and reads the enablement environment.
// Call it after any .env file has been loaded.
func Init(l *logrus.Logger) {
	mu.Lock()
	defer mu.Unlock()

	logger = l
	cache = &sync.Map{}
	disabledTools = parseToolList(os.Getenv(DisabledToolsEnvVar))

	if logger != nil && len(disabledTools) > 0 {
		logger.WithField("count", len(disabledTools)).Debug("Parsed disabled tools from environment")
	}
}

// normaliseToolName lowercases and treats underscores and hyphens alike
func normaliseToolName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", "-"))
}

func parseToolList(value string) map[string]bool {
	set := make(map[string]bool)
	for name := range strings.SplitSeq(value, ",") {
		if name = normaliseToolName(name); name != "" {
			set[name] = true
		}
	}
	return set
}

// requiresEnablement reports whether toolName is one of the opt-in tools
func requiresEnablement(toolName string) bool {
	normalised := normaliseToolName(toolName)
	for _, tool := range additionalTools {
		if normaliseToolName(tool) == normalised {
			return true
		}
	}
	return false
}

// isToolEnabled checks ENABLE_ADDITIONAL_TOOLS for toolName or "all"
func isToolEnabled(toolName string) bool {
	enabled := os.Getenv(EnableAdditionalToolsEnvVar)
	if strings.EqualFold(strings.TrimSpace(enabled), "all") {
		return true
	}
	return parseToolList(enabled)[normaliseToolName(toolName)]
}

// IsEnabled decides whether a tool is exposed:
// 1. DISABLED_TOOLS wins over everything
// 2. opt-in tools need ENABLE_ADDITIONAL_TOOLS
// 3. everything else is on
func IsEnabled(toolName string) bool {
	mu.RLock()
	disabled := disabledTools[normaliseToolName(toolName)]
	mu.RUnlock()

	if disabled {
		return false
	}
	if requiresEnablement(toolName) {
		return isToolEnabled(toolName)
	}
	return true
}

// Register adds a tool implementation to the registry. Enablement is evaluated when
// tools are looked up, so environment loaded after package init still applies.
func Register(tool tools.Tool) {
	// Definition may consult the registry itself, so it runs before locking
	toolName := tool.Definition().Name

	mu.Lock()
	defer mu.Unlock()

	toolRegistry[toolName] = tool
	if logger != nil {
		logger.WithField("tool", toolName).Debug("Tool registered")
	}
}

// GetTool retrieves an enabled tool by name
func GetTool(name string) (tools.Tool, bool) {
	mu.RLock()
	tool, ok := toolRegistry[name]
	mu.RUnlock()

	if !ok || !IsEnabled(name) {
		return nil, false
	}
	return tool, true
}

// GetEnabledTools returns all tools that are enabled for MCP server registration
func GetEnabledTools() map[string]tools.Tool {
	mu.RLock()
	defer mu.RUnlock()

	enabled := make(map[string]tools.Tool)
	for name, tool := range toolRegistry {
		if disabledTools[normaliseToolName(name)] {
			continue
		}
		if requiresEnablement(name) && !isToolEnabled(name) {
			continue
		}
		enabled[name] = tool
	}
	return enabled
}

// GetEnabledToolNames returns a sorted list of enabled tool names
func GetEnabledToolNames() []string {
	var names []string
	for name := range GetEnabledTools() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetToolNamesWithExtendedHelp returns a sorted list of enabled tool names that provide extended help
func GetToolNamesWithExtendedHelp() []string {
	var names []string
	for name, tool := range GetEnabledTools() {
		if _, ok := tool.(tools.ExtendedHelpProvider); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// SuggestToolNames returns up to three enabled tool names closest to name
func SuggestToolNames(name string) []string {
	candidates := GetEnabledToolNames()
	matches := fuzzy.Find(normaliseToolName(name), normalisedNames(candidates))

	var suggestions []string
	for _, match := range matches {
		suggestions = append(suggestions, candidates[match.Index])
		if len(suggestions) == maxSuggestions {
			break
		}
	}
	return suggestions
}

func normalisedNames(names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = normaliseToolName(name)
	}
	return out
}

// GetLogger returns the shared logger instance
func GetLogger() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// GetCache returns the shared cache instance
func GetCache() *sync.Map {
	mu.RLock()
	defer mu.RUnlock()
	return cache
}
