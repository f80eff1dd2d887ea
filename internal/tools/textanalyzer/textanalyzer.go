// Package textanalyzer implements the text_analyzer tool: keyword density, readability,
// heading structure and an overall SEO score for prose, plus an audit of embedded HTML.
package textanalyzer

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/lumenkit/creative-toolkit/internal/config"
	"github.com/lumenkit/creative-toolkit/internal/registry"
	"github.com/lumenkit/creative-toolkit/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
)

// TextAnalyzer implements the SEO text analysis tool
type TextAnalyzer struct{}

func init() {
	registry.Register(&TextAnalyzer{})
}

// Definition returns the tool's definition for MCP registration
func (t *TextAnalyzer) Definition() mcp.Tool {
	return mcp.NewTool(
		"text_analyzer",
		mcp.WithDescription(`Analyse prose for SEO.

Actions:
- analyse: word, character and paragraph counts, keyword density, related keywords, headings, readability (20-100) and an overall SEO score (0-100)
- audit_html: list <img> tags missing alt text and make every link open in a new tab with rel="noopener noreferrer"`),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("Operation to perform"),
			mcp.Enum(string(ActionAnalyse), string(ActionAuditHTML)),
		),
		mcp.WithString("text",
			mcp.Description("Text or HTML to analyse (provide this or file_path)"),
		),
		mcp.WithString("file_path",
			mcp.Description("Absolute path of a file to analyse instead of text"),
		),
		mcp.WithString("keywords",
			mcp.Description("analyse: comma separated target keywords (default: the five most frequent terms)"),
		),
	)
}

// Execute executes the text analyzer tool
func (t *TextAnalyzer) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	request, err := t.parseRequest(args)
	if err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	text := request.Text
	if request.FilePath != "" {
		if text, err = readText(request.FilePath); err != nil {
			return nil, err
		}
	}

	logger.WithFields(logrus.Fields{
		"action":   request.Action,
		"length":   len(text),
		"keywords": len(request.Keywords),
	}).Debug("Text analyzer request")

	switch request.Action {
	case ActionAnalyse:
		return tools.NewToolResultJSON(Analyse(text, request.Keywords))
	case ActionAuditHTML:
		audit := AuditHTML(text)
		if len(audit.MissingAltImages) > 0 {
			logger.WithField("images", len(audit.MissingAltImages)).Info("Images without alt text")
		}
		return tools.NewToolResultJSON(audit)
	}

	return nil, fmt.Errorf("unsupported action: %s", request.Action)
}

// parseRequest parses and validates the request parameters
func (t *TextAnalyzer) parseRequest(args map[string]any) (*AnalyseRequest, error) {
	request := &AnalyseRequest{}

	action, _ := args["action"].(string)
	request.Action = Action(strings.ToLower(strings.TrimSpace(action)))
	if request.Action == "analyze" {
		request.Action = ActionAnalyse
	}
	switch request.Action {
	case ActionAnalyse, ActionAuditHTML:
	case "":
		return nil, fmt.Errorf("action is required (analyse or audit_html)")
	default:
		return nil, fmt.Errorf("unknown action %q (expected analyse or audit_html)", action)
	}

	request.Text, _ = args["text"].(string)
	request.FilePath, _ = args["file_path"].(string)
	request.FilePath = strings.TrimSpace(request.FilePath)

	hasText := strings.TrimSpace(request.Text) != ""
	switch {
	case hasText && request.FilePath != "":
		return nil, fmt.Errorf("provide either text or file_path, not both")
	case !hasText && request.FilePath == "":
		return nil, fmt.Errorf("text or file_path is required")
	}

	if maxLength := config.Get().MaxInputLength; len(request.Text) > maxLength {
		return nil, fmt.Errorf("text exceeds maximum length of %d bytes (got %d)", maxLength, len(request.Text))
	}

	if keywords, ok := args["keywords"].(string); ok {
		request.Keywords = ParseKeywords(keywords)
	}

	return request, nil
}

func readText(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", path, err)
	}
	if maxLength := config.Get().MaxInputLength; len(content) > maxLength {
		return "", fmt.Errorf("file %s exceeds maximum length of %d bytes (got %d)", path, maxLength, len(content))
	}
	return string(content), nil
}
