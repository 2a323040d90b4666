// SPDX-License-Identifier: Apache-2.0

// Package problemset reads problem sets from documents. A Pipeline picks the
// first registered Parser that accepts a Source and returns its entries.
package problemset

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnsupported is returned when no registered parser accepts a source.
var ErrUnsupported = errors.New("unsupported problem set format")

// ErrEmpty is returned when a source parses but holds no problems.
var ErrEmpty = errors.New("problem set contains no problems")

// Entry is one problem read from a set.
type Entry struct {
	Text       string `json:"problem_text" yaml:"problem_text"`
	Subject    string `json:"subject_area,omitempty" yaml:"subject_area,omitempty"`
	Difficulty string `json:"difficulty_level,omitempty" yaml:"difficulty_level,omitempty"`
	// Ref locates the entry in its source, e.g. "set.md#Algebra" or "set.txt:3".
	Ref        string `json:"ref" yaml:"ref"`
}

// Source describes the raw input to the pipeline.
type Source struct {
	Content []byte
	// Format is an optional hint such as "yaml", "markdown" or "text".
	Format  string
	ID      string
}

type Parser interface {
	CanHandle(source Source) bool
	Parse(ctx context.Context, source Source) ([]Entry, error)
	Name() string
}

type Pipeline struct {
	parsers []Parser
}

// NewPipeline creates a Pipeline trying parsers in the given order.
func NewPipeline(parsers ...Parser) *Pipeline {
	return &Pipeline{parsers: parsers}
}

// Set is the output of a successful load.
type Set struct {
	Entries    []Entry `json:"entries" yaml:"entries"`
	ParserUsed string  `json:"parser_used" yaml:"parser_used"`
	SourceID   string  `json:"source_id" yaml:"source_id"`
}

func (p *Pipeline) Load(ctx context.Context, source Source) (Set, error) {
	if source.ID == "" {
		source.ID = "unknown"
	}
	parser, err := p.selectParser(source)
	if err != nil {
		return Set{}, err
	}

	entries, err := parser.Parse(ctx, source)
	if err != nil {
		return Set{}, fmt.Errorf("parser %q failed: %w", parser.Name(), err)
	}
	if len(entries) == 0 {
		return Set{}, fmt.Errorf("%w: %s", ErrEmpty, source.ID)
	}
	return Set{Entries: entries, ParserUsed: parser.Name(), SourceID: source.ID}, nil
}

func (p *Pipeline) selectParser(source Source) (Parser, error) {
	for _, parser := range p.parsers {
		if parser.CanHandle(source) {
			return parser, nil
		}
	}
	return nil, fmt.Errorf("%w: no parser found for source %q (format hint: %q)", ErrUnsupported, source.ID, source.Format)
}

// RegisteredParsers returns the parser names in selection order.
func (p *Pipeline) RegisteredParsers() []string {
	names := make([]string, len(p.parsers))
	for i, parser := range p.parsers {
		names[i] = parser.Name()
	}
	return names
}
