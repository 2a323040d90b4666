// SPDX-License-Identifier: Apache-2.0

package parsers

import (
	"context"
	"fmt"
	"strings"

	"github.com/mathkitproj/mathsolver-mcp/internal/problemset"
)

// TextParser reads one problem per non-empty line. Lines starting with "//"
// are comments. It accepts any source without a conflicting format hint.
type TextParser struct{}

func NewTextParser() *TextParser {
	return &TextParser{}
}

func (p *TextParser) Name() string {
	return "text"
}

func (p *TextParser) CanHandle(source problemset.Source) bool {
	switch strings.ToLower(source.Format) {
	case "", "text", "txt":
		return true
	}
	return false
}

func (p *TextParser) Parse(_ context.Context, source problemset.Source) ([]problemset.Entry, error) {
	var entries []problemset.Entry
	for i, line := range strings.Split(string(source.Content), "\n") {
		text, _ := listItem(line)
		if text == "" || strings.HasPrefix(text, "//") {
			continue
		}
		entries = append(entries, problemset.Entry{
			Text: text,
			Ref:  fmt.Sprintf("%s:%d", source.ID, i+1),
		})
	}
	return entries, nil
}
