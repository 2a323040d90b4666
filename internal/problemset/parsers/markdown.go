// SPDX-License-Identifier: Apache-2.0

package parsers

import (
	"context"
	"strings"

	"github.com/mathkitproj/mathsolver-mcp/internal/problemset"
)

// MarkdownParser reads one problem per list item. The nearest heading is
// used as the subject hint for the items below it, so a "## Algebra" section
// hints algebra. Paragraph text outside lists is ignored.
type MarkdownParser struct{}

func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{}
}

func (p *MarkdownParser) Name() string {
	return "markdown"
}

// CanHandle returns true for the "markdown" format hint or content with a
// heading line.
func (p *MarkdownParser) CanHandle(source problemset.Source) bool {
	if strings.EqualFold(source.Format, "markdown") || strings.EqualFold(source.Format, "md") {
		return true
	}
	if source.Format != "" {
		return false
	}
	content := strings.TrimSpace(string(source.Content))
	return strings.HasPrefix(content, "#") || strings.Contains(content, "\n#")
}

func (p *MarkdownParser) Parse(_ context.Context, source problemset.Source) ([]problemset.Entry, error) {
	var (
		entries []problemset.Entry
		heading string
		inFence bool
	)
	for _, line := range strings.Split(string(source.Content), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			heading = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			continue
		}
		text, ok := listItem(line)
		if !ok || text == "" {
			continue
		}
		ref := source.ID
		if heading != "" {
			ref += "#" + heading
		}
		entries = append(entries, problemset.Entry{
			Text:    text,
			Subject: strings.ToLower(heading),
			Ref:     ref,
		})
	}
	return entries, nil
}
