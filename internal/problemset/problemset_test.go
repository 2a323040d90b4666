// SPDX-License-Identifier: Apache-2.0

package problemset_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathkitproj/mathsolver-mcp/internal/problemset"
	"github.com/mathkitproj/mathsolver-mcp/internal/problemset/parsers"
)

// ---------------------------------------------------------------------------
// Parser selection
// ---------------------------------------------------------------------------

func TestPipeline_SelectsParser(t *testing.T) {
	pipeline := parsers.Default()
	ctx := context.Background()

	tests := []struct {
		name       string
		source     problemset.Source
		wantParser string
		wantTexts  []string
	}{
		{
			name:       "yaml list by hint",
			source:     problemset.Source{Content: []byte("- 2 + 3\n- 2x + 5 = 13\n"), Format: "yaml", ID: "set.yaml"},
			wantParser: "yaml",
			wantTexts:  []string{"2 + 3", "2x + 5 = 13"},
		},
		{
			name:       "yaml problems mapping detected",
			source:     problemset.Source{Content: []byte("problems:\n  - problem_text: mean of 1, 2, 3\n    subject_area: statistics\n")},
			wantParser: "yaml",
			wantTexts:  []string{"mean of 1, 2, 3"},
		},
		{
			name:       "json array detected",
			source:     problemset.Source{Content: []byte(`["2 + 3", {"problem": "area of circle with radius 5"}]`)},
			wantParser: "yaml",
			wantTexts:  []string{"2 + 3", "area of circle with radius 5"},
		},
		{
			name:       "markdown detected from heading",
			source:     problemset.Source{Content: []byte("# Algebra\n\nWarm up.\n\n- 2x + 5 = 13\n- x^2 - 4 = 0\n")},
			wantParser: "markdown",
			wantTexts:  []string{"2x + 5 = 13", "x^2 - 4 = 0"},
		},
		{
			name:       "plain text fallback",
			source:     problemset.Source{Content: []byte("2 + 3\n\n// skipped\n1. 10 / 4\n3.5 * 2\n")},
			wantParser: "text",
			wantTexts:  []string{"2 + 3", "10 / 4", "3.5 * 2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := pipeline.Load(ctx, tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.wantParser, set.ParserUsed)

			texts := make([]string, 0, len(set.Entries))
			for _, e := range set.Entries {
				texts = append(texts, e.Text)
			}
			assert.Equal(t, tt.wantTexts, texts)
		})
	}
}

func TestPipeline_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := parsers.Default().Load(ctx, problemset.Source{Content: []byte("2 + 3"), Format: "dockerfile"})
	assert.ErrorIs(t, err, problemset.ErrUnsupported)

	_, err = parsers.Default().Load(ctx, problemset.Source{Content: []byte("\n\n// nothing\n"), Format: "text"})
	assert.ErrorIs(t, err, problemset.ErrEmpty)

	_, err = parsers.Default().Load(ctx, problemset.Source{Content: []byte("problems: 3"), Format: "yaml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `parser "yaml" failed`)
}

func TestPipeline_RegisteredParsers(t *testing.T) {
	assert.Equal(t, []string{"yaml", "markdown", "text"}, parsers.Default().RegisteredParsers())
}

// ---------------------------------------------------------------------------
// Entry fields
// ---------------------------------------------------------------------------

func TestYAMLParser_Fields(t *testing.T) {
	src := problemset.Source{
		ID:     "set.yaml",
		Format: "yaml",
		Content: []byte(`problems:
  - problem_text: "2x + 5 = 13"
    subject_area: algebra
    difficulty_level: beginner
  - "2 + 3"
`),
	}
	entries, err := parsers.NewYAMLParser().Parse(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, problemset.Entry{Text: "2x + 5 = 13", Subject: "algebra", Difficulty: "beginner", Ref: "set.yaml[0]"}, entries[0])
	assert.Equal(t, problemset.Entry{Text: "2 + 3", Ref: "set.yaml[1]"}, entries[1])
}

func TestMarkdownParser_HeadingHints(t *testing.T) {
	src := problemset.Source{
		ID: "set.md",
		Content: []byte("# Practice\n\n## Geometry\n* area of circle with radius 5\n\n" +
			"```\n- not a problem\n```\n\n## Statistics\n1. mean of 1, 2, 3\n"),
	}
	entries, err := parsers.NewMarkdownParser().Parse(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "geometry", entries[0].Subject)
	assert.Equal(t, "set.md#Geometry", entries[0].Ref)
	assert.Equal(t, "statistics", entries[1].Subject)
	assert.Equal(t, "mean of 1, 2, 3", entries[1].Text)
}

func TestTextParser_Refs(t *testing.T) {
	entries, err := parsers.NewTextParser().Parse(context.Background(), problemset.Source{ID: "set.txt", Content: []byte("2 + 3\n\n7 * 6")})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "set.txt:1", entries[0].Ref)
	assert.Equal(t, "set.txt:3", entries[1].Ref)
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]string{
		"set.yaml":   "yaml",
		"set.YML":    "yaml",
		"set.json":   "json",
		"notes.md":   "markdown",
		"list.txt":   "text",
		"problems":   "",
		"archive.gz": "",
	}
	for path, want := range tests {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, want, parsers.FormatFromPath(path))
		})
	}
}
