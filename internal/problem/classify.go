// SPDX-License-Identifier: Apache-2.0

package problem

import (
	"regexp"
	"sort"
	"strings"
)

const (
	keywordWeight = 2
	symbolWeight  = 3
	phraseWeight  = 5

	// maxKeywordConfidence leaves headroom above keyword matching for a
	// user-supplied subject.
	maxKeywordConfidence = 0.9
	hintThreshold        = 0.7
	hintConfidence       = 0.8
	fallbackConfidence   = 0.5
)

// Subject patterns. Symbols match the original text, keywords and phrases
// match its lower-cased form.
type Subject struct {
	Name     string
	Keywords []string
	Symbols  []*regexp.Regexp
	Phrases  []*regexp.Regexp
}

func patterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// Subjects is the classification table. Order breaks exact score ties.
var Subjects = []Subject{
	{
		Name: "calculus",
		Keywords: []string{
			"derivative", "integral", "limit", "differentiate",
			"integrate", "tangent line", "rate of change",
		},
		Symbols: patterns(`d/dx`, `∫`, `∂`, `lim`, `dy/dx`),
		Phrases: patterns(`find.*derivative`, `evaluate.*integral`, `area under.*curve`),
	},
	{
		Name: "algebra",
		Keywords: []string{
			"solve", "equation", "simplify", "factor", "expand",
			"polynomial", "quadratic", "linear", "variable",
		},
		Symbols: patterns(`[xyz]\s*=`, `\^2`, `x\^`, `=`),
		Phrases: patterns(`solve for [xyz]`, `find [xyz]\b`, `what is [xyz]\b`),
	},
	{
		Name: "geometry",
		Keywords: []string{
			"area", "volume", "perimeter", "angle", "triangle",
			"circle", "rectangle", "sphere", "radius", "diameter",
		},
		Symbols: patterns(`π`, `°`, `∠`),
		Phrases: patterns(`area of`, `volume of`, `perimeter of`),
	},
	{
		Name: "statistics",
		Keywords: []string{
			"mean", "median", "mode", "average", "probability",
			"standard deviation", "variance", "distribution",
		},
		Symbols: patterns(`σ`, `μ`, `%`),
		Phrases: patterns(`find.*average`, `calculate.*mean`, `probability of`),
	},
	{
		Name: "arithmetic",
		Keywords: []string{
			"add", "subtract", "multiply", "divide", "sum",
			"difference", "product", "quotient", "percentage",
		},
		Symbols: patterns(`^\d+\s*[+\-*/]\s*\d+`, `\d+%`),
		Phrases: patterns(`what is \d+`, `calculate \d+`),
	},
	{
		Name:     "trigonometry",
		Keywords: []string{"sine", "cosine", "tangent", "trigonometric", "radian", "hypotenuse"},
		Symbols:  patterns(`\b(?:sin|cos|tan|sec|csc|cot)\s*\(`),
		Phrases:  patterns(`(?:sin|cos|tan)\s+of`),
	},
}

// hintable are the subjects a caller hint may force.
var hintable = []string{"arithmetic", "algebra", "calculus", "geometry", "statistics"}

func (s Subject) score(text, lower string) int {
	score := 0
	for _, kw := range s.Keywords {
		if strings.Contains(lower, kw) {
			score += keywordWeight
		}
	}
	for _, re := range s.Symbols {
		if re.MatchString(text) {
			score += symbolWeight
		}
	}
	for _, re := range s.Phrases {
		if re.MatchString(lower) {
			score += phraseWeight
		}
	}
	return score
}

// Scores returns the weighted score of every subject in table order.
func Scores(text string) map[string]int {
	lower := strings.ToLower(text)
	out := make(map[string]int, len(Subjects))
	for _, s := range Subjects {
		out[s.Name] = s.score(text, lower)
	}
	return out
}

// Classify guesses the subject of text. A hint naming one of the solver
// subjects overrides a guess below 0.7 confidence.
func Classify(text, hint string) Classification {
	cls := classifyByKeywords(text)

	if hint != "" && cls.Confidence < hintThreshold {
		h := strings.ToLower(strings.TrimSpace(hint))
		for _, name := range hintable {
			if h == name {
				cls = Classification{
					Subject:          h,
					Confidence:       hintConfidence,
					Method:           MethodUserProvided,
					FallbackSubjects: without(cls.FallbackSubjects, h),
				}
				break
			}
		}
	}

	if cls.Subject == "" {
		cls = Classification{
			Subject:          "arithmetic",
			Confidence:       fallbackConfidence,
			Method:           MethodDefaultFallback,
			FallbackSubjects: []string{},
		}
	}
	return cls
}

func classifyByKeywords(text string) Classification {
	lower := strings.ToLower(text)
	type scored struct {
		name  string
		score int
	}
	ranked := make([]scored, 0, len(Subjects))
	total := 0
	for _, s := range Subjects {
		n := s.score(text, lower)
		total += n
		if n > 0 {
			ranked = append(ranked, scored{s.Name, n})
		}
	}
	if total == 0 {
		return Classification{FallbackSubjects: []string{}}
	}
	// Stable keeps table order among equal scores.
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	fallback := make([]string, 0, len(ranked)-1)
	for _, r := range ranked[1:] {
		fallback = append(fallback, r.name)
	}
	return Classification{
		Subject:          ranked[0].name,
		Confidence:       min(float64(ranked[0].score)/float64(total), maxKeywordConfidence),
		Method:           MethodKeywordMatching,
		FallbackSubjects: fallback,
	}
}

func without(names []string, drop string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != drop {
			out = append(out, n)
		}
	}
	return out
}
