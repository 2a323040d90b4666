// SPDX-License-Identifier: Apache-2.0

package solver

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	unsignedNumber = regexp.MustCompile(`\d+\.?\d*`)
	signedNumber   = regexp.MustCompile(`-?\d+\.?\d*`)
)

// ExtractNumbers returns every number in text in order of appearance.
// Signed also accepts a leading minus.
func ExtractNumbers(text string, signed bool) []float64 {
	re := unsignedNumber
	if signed {
		re = signedNumber
	}
	var out []float64
	for _, m := range re.FindAllString(text, -1) {
		f, err := strconv.ParseFloat(strings.TrimSuffix(m, "."), 64)
		if err != nil {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Round rounds x half away from zero to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// FormatDecimal renders a floating-point result the way a calculator
// would echo it back: integral values keep one decimal place ("20.0"),
// others use the shortest exact representation.
func FormatDecimal(f float64) string {
	if math.IsInf(f, 1) {
		return "∞"
	}
	if math.IsInf(f, -1) {
		return "-∞"
	}
	if f == 0 {
		return "0.0"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e16 {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// HintIs reports whether hint names one of the given subjects, ignoring case.
func HintIs(hint string, names ...string) bool {
	h := strings.ToLower(strings.TrimSpace(hint))
	if h == "" {
		return false
	}
	for _, n := range names {
		if h == n {
			return true
		}
	}
	return false
}
