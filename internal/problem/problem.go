// SPDX-License-Identifier: Apache-2.0

package problem

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mathkitproj/mathsolver-mcp/internal/solver"
)

// MaxProblemLength is the longest accepted problem text, in characters.
const MaxProblemLength = 1000

var (
	ErrEmpty   = errors.New("empty problem text")
	ErrTooLong = errors.New("problem text too long (max 1000 characters)")
	ErrNotMath = errors.New("no mathematical content detected")
)

// Classification methods.
const (
	MethodKeywordMatching = "keyword_matching"
	MethodUserProvided    = "user_provided"
	MethodDefaultFallback = "default_fallback"
)

// Classification is the parser's subject guess for a problem.
type Classification struct {
	Subject          string   `json:"subject" yaml:"subject"`
	Confidence       float64  `json:"confidence" yaml:"confidence"`
	Method           string   `json:"method" yaml:"method"`
	FallbackSubjects []string `json:"fallback_subjects" yaml:"fallback_subjects"`
}

// Unknown is the classification attached to results that failed before or
// during classification.
func Unknown() Classification {
	return Classification{Subject: "unknown", FallbackSubjects: []string{}}
}

// Result combines classification and the registry outcome for one problem.
type Result struct {
	Success        bool
	Error          string
	Classification Classification
	Solution       *solver.Solution
	SolverUsed     string
	ProblemType    string
	Registry       solver.RegistryInfo
	Elapsed        time.Duration
}

var (
	hasDigit      = regexp.MustCompile(`\d`)
	hasMathSymbol = regexp.MustCompile(`[+\-*/=<>]`)
	mathActions   = []string{"solve", "calculate", "find", "compute", "evaluate"}
)

// Validate rejects text the pipeline cannot process. The length limit counts
// characters, not bytes.
func Validate(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmpty
	}
	if utf8.RuneCountInString(text) > MaxProblemLength {
		return ErrTooLong
	}
	if hasDigit.MatchString(text) || hasMathSymbol.MatchString(text) {
		return nil
	}
	lower := strings.ToLower(text)
	for _, kw := range mathActions {
		if strings.Contains(lower, kw) {
			return nil
		}
	}
	return ErrNotMath
}
