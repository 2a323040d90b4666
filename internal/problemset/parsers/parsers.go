// SPDX-License-Identifier: Apache-2.0

// Package parsers holds the problem set parsers.
package parsers

import (
	"path/filepath"
	"strings"

	"github.com/mathkitproj/mathsolver-mcp/internal/problemset"
)

// Default returns a pipeline with every parser registered. Structured
// formats go first, plain text accepts anything left over.
func Default() *problemset.Pipeline {
	return problemset.NewPipeline(
		NewYAMLParser(),
		NewMarkdownParser(),
		NewTextParser(),
	)
}

// FormatFromPath maps a file extension to a format hint.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	case ".md", ".markdown":
		return "markdown"
	case ".txt":
		return "text"
	}
	return ""
}

// listItem strips a leading "-", "*", "+" or "1." marker.
func listItem(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	for _, marker := range []string{"- ", "* ", "+ "} {
		if strings.HasPrefix(trimmed, marker) {
			return strings.TrimSpace(trimmed[len(marker):]), true
		}
	}
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i > 0 && i+1 < len(trimmed) && (trimmed[i] == '.' || trimmed[i] == ')') && trimmed[i+1] == ' ' {
		return strings.TrimSpace(trimmed[i+2:]), true
	}
	return trimmed, false
}
