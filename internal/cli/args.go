package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/lumenkit/creative-toolkit/internal/codefmt"
	"github.com/mark3labs/mcp-go/mcp"
)

// fileFlagSuffix turns any string parameter into a flag that reads its value from a path
const fileFlagSuffix = "-file"

// optionParsers canonicalise the formatter's option values before they reach a tool, so
// `--naming-style=snake` arrives as snake_case and a typo fails before anything runs.
var optionParsers = map[string]func(string) (string, error){
	"language": func(s string) (string, error) {
		v, err := codefmt.ParseLanguage(s)
		return string(v), err
	},
	"empty_line_mode": func(s string) (string, error) {
		v, err := codefmt.ParseEmptyLineMode(s)
		return string(v), err
	},
	"quote_type": func(s string) (string, error) {
		v, err := codefmt.ParseQuoteType(s)
		return string(v), err
	},
	"indent_type": func(s string) (string, error) {
		v, err := codefmt.ParseIndentType(s)
		return string(v), err
	},
	"naming_style": func(s string) (string, error) {
		v, err := codefmt.ParseNamingStyle(s)
		return string(v), err
	},
	"comment_style": func(s string) (string, error) {
		v, err := codefmt.ParseCommentStyle(s)
		return string(v), err
	},
}

// schemaInfo holds what argument parsing needs from a tool's input schema.
type schemaInfo struct {
	// types maps parameter names to their JSON Schema types
	types map[string]string
	// enums maps parameter names to their allowed values
	enums map[string][]string
	// flags maps kebab-case flag names to parameter names
	flags map[string]string
}

func buildSchemaInfo(def mcp.Tool) schemaInfo {
	info := schemaInfo{
		types: make(map[string]string, len(def.InputSchema.Properties)),
		enums: make(map[string][]string),
		flags: make(map[string]string, len(def.InputSchema.Properties)),
	}
	for name, prop := range def.InputSchema.Properties {
		info.flags[toFlagName(name)] = name
		pm, ok := prop.(map[string]any)
		if !ok {
			continue
		}
		if t, ok := pm["type"].(string); ok {
			info.types[name] = t
		}
		if vals := enumValues(pm); len(vals) > 0 {
			info.enums[name] = vals
		}
	}
	return info
}

// resolveParam maps a flag to its parameter, falling back to snake_case for names the
// schema does not declare.
func (s schemaInfo) resolveParam(flagName string) string {
	if name, ok := s.flags[flagName]; ok {
		return name
	}
	return strings.ReplaceAll(flagName, "-", "_")
}

// fileParam reports the string parameter a `--<param>-file` flag fills, if any.
func (s schemaInfo) fileParam(flagName string) (string, bool) {
	if _, declared := s.flags[flagName]; declared {
		return "", false
	}
	base, ok := strings.CutSuffix(flagName, fileFlagSuffix)
	if !ok {
		return "", false
	}
	name, ok := s.flags[base]
	if !ok || s.types[name] != "string" {
		return "", false
	}
	return name, true
}

type argParser struct {
	schema    schemaInfo
	stdin     io.Reader
	stdinUsed bool
}

// parse converts CLI arguments into the map a tool's Execute receives.
func (p *argParser) parse(args []string) (map[string]any, error) {
	params := make(map[string]any)

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "{") {
			var obj map[string]any
			if err := json.Unmarshal([]byte(arg), &obj); err != nil {
				return nil, fmt.Errorf("invalid JSON argument: %w", err)
			}
			// flags already seen win over JSON values
			for k, v := range obj {
				if _, exists := params[k]; !exists {
					params[k] = v
				}
			}
			continue
		}

		if !strings.HasPrefix(arg, "--") {
			return nil, fmt.Errorf("unexpected argument: %s (use --key=value flags or pass a JSON object)", arg)
		}

		flagName, raw, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		paramName := p.schema.resolveParam(flagName)
		fileTarget, isFile := p.schema.fileParam(flagName)

		if !hasValue {
			if !isFile && p.schema.types[paramName] == "boolean" {
				params[paramName] = true
				continue
			}
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("flag --%s requires a value", flagName)
			}
			raw = args[i]
		}

		if isFile {
			content, err := p.readFile(raw)
			if err != nil {
				return nil, fmt.Errorf("flag --%s: %w", flagName, err)
			}
			params[fileTarget] = content
			continue
		}

		val, err := coerceValue(raw, p.schema.types[paramName])
		if err != nil {
			return nil, fmt.Errorf("flag --%s: %w", flagName, err)
		}
		params[paramName] = val
	}

	if err := p.canonicalise(params); err != nil {
		return nil, err
	}
	return params, nil
}

// readFile returns the contents of path, or of stdin when path is "-".
func (p *argParser) readFile(path string) (string, error) {
	if path != "-" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	if p.stdin == nil {
		return "", errors.New("no stdin available")
	}
	if p.stdinUsed {
		return "", errors.New("stdin can only be read once")
	}
	p.stdinUsed = true
	data, err := io.ReadAll(p.stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

// canonicalise validates enum parameters from both flags and JSON. Formatter options go
// through their codefmt parsers; every other enum must match one of its listed values.
func (p *argParser) canonicalise(params map[string]any) error {
	for name, v := range params {
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		if parse, ok := optionParsers[name]; ok {
			if _, declared := p.schema.types[name]; !declared {
				continue
			}
			canonical, err := parse(s)
			if err != nil {
				return fmt.Errorf("--%s: %w", toFlagName(name), err)
			}
			params[name] = canonical
			continue
		}
		if allowed, ok := p.schema.enums[name]; ok && !slices.Contains(allowed, s) {
			return fmt.Errorf("invalid value %q for --%s (expected %s)", s, toFlagName(name), strings.Join(allowed, "|"))
		}
	}
	return nil
}

// coerceValue converts a flag value to the Go type its JSON Schema type calls for.
func coerceValue(raw, schemaType string) (any, error) {
	switch schemaType {
	case "number", "integer":
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number, got %q", raw)
		}
		return f, nil
	case "boolean":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("expected true or false, got %q", raw)
		}
		return b, nil
	case "array":
		var arr []any
		if err := json.Unmarshal([]byte(raw), &arr); err == nil {
			return arr, nil
		}
		return strings.Split(raw, ","), nil
	}
	return raw, nil
}

func enumValues(pm map[string]any) []string {
	switch arr := pm["enum"].(type) {
	case []string:
		return arr
	case []any:
		vals := make([]string, 0, len(arr))
		for _, v := range arr {
			vals = append(vals, fmt.Sprint(v))
		}
		return vals
	}
	return nil
}
