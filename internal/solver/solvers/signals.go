// SPDX-License-Identifier: Apache-2.0

package solvers

import (
	"regexp"
	"strings"
)

// signals is a subject's applicability table. Keywords match the
// lowercased text, symbols match the original text.
type signals struct {
	keywords []string
	symbols  []*regexp.Regexp
	phrases  []*regexp.Regexp
}

func (s signals) keywordHits(lower string) int {
	n := 0
	for _, kw := range s.keywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}

func (s signals) symbolHit(text string) bool {
	for _, re := range s.symbols {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func (s signals) phraseHit(lower string) bool {
	for _, re := range s.phrases {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

var (
	trailingPunct = regexp.MustCompile(`[\s?!.,;:]+$`)
	instruction   = regexp.MustCompile(`(?i)^\s*(?:what\s+is|what's|calculate|compute|evaluate|find|solve|simplify|expand|factor(?:ise|ize)?|determine)\b\s*(?:the\s+value\s+of\s+)?:?\s*`)
	forVariable   = regexp.MustCompile(`(?i)^\s*(?:solve\s+for|find|what\s+is|calculate|determine)\s+[a-z]\s*:\s*`)
)

// stripInstruction removes a leading imperative ("Solve for x:", "What is")
// and trailing punctuation, leaving the mathematical body.
func stripInstruction(text string) string {
	body := forVariable.ReplaceAllString(text, "")
	body = instruction.ReplaceAllString(body, "")
	return strings.TrimSpace(trailingPunct.ReplaceAllString(body, ""))
}

