// Package output renders command results and orchestrator events for the
// terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

const (
	// FormatYAML represents YAML output format.
	FormatYAML Format = "yaml"
	// FormatJSON represents JSON output format.
	FormatJSON Format = "json"
)

// FormatData formats data according to the specified format.
func FormatData(data any, format Format) (string, error) {
	switch format {
	case FormatYAML:
		bytes, err := yaml.Marshal(data)
		if err != nil {
			return "", fmt.Errorf("failed to format as YAML: %w", err)
		}
		return string(bytes), nil
	case FormatJSON:
		bytes, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to format as JSON: %w", err)
		}
		return string(bytes) + "\n", nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

// Write formats data and writes it to w. The table format requires data to
// implement TableRenderer.
func Write(w io.Writer, data any, format Format) error {
	if format == FormatTable {
		table, ok := data.(TableRenderer)
		if !ok {
			return fmt.Errorf("table output is not supported for %T", data)
		}
		return PrintTable(w, table)
	}

	text, err := FormatData(data, format)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text)
	return err
}

// ParseFormat parses a format string into a Format value.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "table":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("invalid output format '%s': must be 'table', 'yaml' or 'json'", s)
	}
}
