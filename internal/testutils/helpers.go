// Package testutils holds helpers shared by the tool tests
package testutils

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/lumenkit/creative-toolkit/internal/config"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// CreateTestLogger creates a logger that discards its output
func CreateTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

// CreateTestCache creates a cache suitable for testing
func CreateTestCache() *sync.Map {
	return &sync.Map{}
}

// CreateTestContext creates a context suitable for testing
func CreateTestContext() context.Context {
	return context.Background()
}

// ResultText returns the text of the first content item of a tool result
func ResultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content, "expected content in tool result")

	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

// DecodeResult unmarshals the JSON text of a tool result into T
func DecodeResult[T any](t *testing.T, result *mcp.CallToolResult) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal([]byte(ResultText(t, result)), &out))
	return out
}

// UseSettings makes s the active configuration for the rest of the test
func UseSettings(t *testing.T, s config.Settings) {
	t.Helper()
	previous := config.Get()
	config.Set(s)
	t.Cleanup(func() { config.Set(previous) })
}
