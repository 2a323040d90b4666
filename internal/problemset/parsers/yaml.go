// SPDX-License-Identifier: Apache-2.0

package parsers

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/mathkitproj/mathsolver-mcp/internal/problemset"
)

// YAMLParser reads YAML and JSON problem sets. The document is either a list
// or a mapping with a "problems" list. Items are plain strings or mappings
// with problem_text, subject_area and difficulty_level.
type YAMLParser struct{}

func NewYAMLParser() *YAMLParser {
	return &YAMLParser{}
}

func (p *YAMLParser) Name() string {
	return "yaml"
}

func (p *YAMLParser) CanHandle(source problemset.Source) bool {
	switch strings.ToLower(source.Format) {
	case "yaml", "yml", "json":
		return true
	case "":
	default:
		return false
	}
	content := strings.TrimSpace(string(source.Content))
	return strings.HasPrefix(content, "{") ||
		strings.HasPrefix(content, "[") ||
		strings.HasPrefix(content, "problems:")
}

func (p *YAMLParser) Parse(_ context.Context, source problemset.Source) ([]problemset.Entry, error) {
	var doc any
	if err := yaml.Unmarshal(source.Content, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML/JSON: %w", err)
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		list, ok := v["problems"].([]any)
		if !ok {
			return nil, fmt.Errorf("expected a %q list", "problems")
		}
		items = list
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("expected a list or a mapping, got %T", doc)
	}

	entries := make([]problemset.Entry, 0, len(items))
	for i, item := range items {
		ref := fmt.Sprintf("%s[%d]", source.ID, i)
		switch v := item.(type) {
		case string:
			entries = append(entries, problemset.Entry{Text: strings.TrimSpace(v), Ref: ref})
		case map[string]any:
			entries = append(entries, problemset.Entry{
				Text:       field(v, "problem_text", "problem"),
				Subject:    field(v, "subject_area", "subject"),
				Difficulty: field(v, "difficulty_level", "difficulty"),
				Ref:        ref,
			})
		default:
			return nil, fmt.Errorf("item %d: expected a string or a mapping, got %T", i, item)
		}
	}
	return entries, nil
}

// field returns the first key present in m, rendered as a string.
func field(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return ""
}
