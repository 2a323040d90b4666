// SPDX-License-Identifier: Apache-2.0

package solvers

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mathkitproj/mathsolver-mcp/internal/solver"
)

var statisticsSignals = signals{
	keywords: []string{
		"mean", "median", "mode", "average", "standard deviation",
		"variance", "range", "quartile", "percentile", "statistics",
		"data", "sample", "population", "probability", "distribution",
		"frequency", "histogram", "correlation", "regression",
		"hypothesis", "test", "confidence", "interval",
		"std", "numbers", "values", "set", "list", "array",
		"chance", "likely", "odds",
	},
	phrases: []*regexp.Regexp{
		wordsPattern("min", "max", "minimum", "maximum"),
	},
}

// maxDataMagnitude drops numbers that are unlikely to be sample values.
const maxDataMagnitude = 10000

// sampleData stands in when the text carries no numbers at all.
var sampleData = []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

// Order here is the order results are reported in. Keywords match whole
// words so "determine" does not ask for a minimum.
var statisticKeywords = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"mean", wordsPattern("mean", "average")},
	{"median", wordsPattern("median")},
	{"mode", wordsPattern("mode")},
	{"standard_deviation", wordsPattern("standard deviation", "std", "deviation")},
	{"variance", wordsPattern("variance")},
	{"range", wordsPattern("range")},
	{"minimum", wordsPattern("minimum", "min", "smallest")},
	{"maximum", wordsPattern("maximum", "max", "largest")},
}

func wordsPattern(words ...string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

var defaultStatistics = []string{"mean", "median", "standard_deviation"}

var probabilityFormulas = map[string]string{
	"binomial":    "P(X=x) = C(n,x) * p^x * (1-p)^(n-x)",
	"normal":      "P(X<x) = Φ((x-μ)/σ)",
	"uniform":     "P(a<X<b) = (b-a)/(max-min)",
	"combination": "C(n,r) = n!/(r!(n-r)!)",
	"permutation": "P(n,r) = n!/(n-r)!",
	"basic":       "P(A) = favorable outcomes / total outcomes",
}

var (
	trialsRe    = regexp.MustCompile(`(\d+)\s*(?:trials|tosses|flips|rolls|times)|\bn\s*=\s*(\d+)`)
	successesRe = regexp.MustCompile(`(?:exactly\s+)?(\d+)\s*(?:successes|heads|tails|success)|\bx\s*=\s*(\d+)|\bk\s*=\s*(\d+)`)
	successPRe  = regexp.MustCompile(`\bp\s*=\s*(\d*\.?\d+)|probability\s+(?:of\s+success\s+)?(?:is\s+|of\s+)?(0?\.\d+)`)
	meanRe      = regexp.MustCompile(`(?:mean|average|μ)\s*(?:of|is|=)?\s*(-?\d+\.?\d*)`)
	stdDevRe    = regexp.MustCompile(`(?:standard deviation|std|sd|σ)\s*(?:of|is|=)?\s*(\d+\.?\d*)`)
	normalXRe   = regexp.MustCompile(`(?:less than|below|under|greater than|above|more than|x\s*[<>]=?|[<>]=?)\s*(-?\d+\.?\d*)`)
	upperTailRe = regexp.MustCompile(`greater than|above|more than|x\s*>|>`)
)

// StatisticsSolver computes descriptive statistics over numbers found in
// the text and evaluates closed-form probabilities.
type StatisticsSolver struct{}

func NewStatisticsSolver() *StatisticsSolver {
	return &StatisticsSolver{}
}

func (s *StatisticsSolver) Name() string {
	return "statistics"
}

func (s *StatisticsSolver) CanSolve(problem, subjectHint string) bool {
	if solver.HintIs(subjectHint, "statistics", "statistical") {
		return true
	}
	lower := strings.ToLower(problem)
	return statisticsSignals.keywordHits(lower) >= 1 || statisticsSignals.phraseHit(lower)
}

func (s *StatisticsSolver) Solve(_ context.Context, problem string, _ solver.Options) *solver.Solution {
	lower := strings.ToLower(problem)
	switch {
	case isProbabilityProblem(lower):
		return s.solveProbability(problem)
	case requestsStatistic(lower):
		return s.solveDescriptive(problem)
	case containsAny(lower, "data", "numbers", "values", "set", "list", "quartile", "iqr", "find", "calculate", "analy"):
		return s.solveDataAnalysis(problem)
	default:
		return s.solveDescriptive(problem)
	}
}

func (s *StatisticsSolver) Capabilities() []string {
	return []string{
		"descriptive_statistics",
		"mean_calculation",
		"median_calculation",
		"mode_calculation",
		"standard_deviation",
		"variance_calculation",
		"range_calculation",
		"probability_calculations",
		"binomial_distribution",
		"normal_distribution",
		"uniform_distribution",
		"combinations",
		"permutations",
		"data_analysis",
		"quartile_calculations",
	}
}

func isProbabilityProblem(lower string) bool {
	return containsAny(lower, "probability", "chance", "likely", "odds", "p(", "binomial",
		"normal distribution", "uniform distribution", "combination", "permutation", "choose")
}

// extractData returns the sample in textual order. The bool is false when
// the text had no usable numbers and the stand-in sample was used.
func extractData(problem string) ([]float64, bool) {
	var data []float64
	for _, v := range solver.ExtractNumbers(problem, true) {
		if math.Abs(v) <= maxDataMagnitude {
			data = append(data, v)
		}
	}
	if len(data) == 0 {
		return append([]float64(nil), sampleData...), false
	}
	return data, true
}

func requestsStatistic(lower string) bool {
	for _, st := range statisticKeywords {
		if st.pattern.MatchString(lower) {
			return true
		}
	}
	return false
}

func requestedStatistics(lower string) []string {
	var out []string
	for _, st := range statisticKeywords {
		if st.pattern.MatchString(lower) {
			out = append(out, st.name)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultStatistics...)
	}
	return out
}

func sortedCopy(data []float64) []float64 {
	out := append([]float64(nil), data...)
	sort.Float64s(out)
	return out
}

func mean(data []float64) float64 {
	return stat.Mean(data, nil)
}

// median averages the two middle values of an even-sized sample.
func median(data []float64) float64 {
	s := sortedCopy(data)
	lower := stat.Quantile(0.5, stat.Empirical, s, nil)
	if len(s)%2 == 0 {
		return (lower + s[len(s)/2]) / 2
	}
	return lower
}

// mode returns the most frequent value, the smallest one on ties.
func mode(data []float64) float64 {
	s := sortedCopy(data)
	_, top := stat.Mode(s, nil)
	for i := 0; i < len(s); {
		j := i
		for j < len(s) && s[j] == s[i] {
			j++
		}
		if float64(j-i) == top {
			return s[i]
		}
		i = j
	}
	return s[0]
}

// sampleVariance uses the n-1 divisor; a single value has zero variance.
func sampleVariance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

func sampleStdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// percentile interpolates linearly between closest ranks at (n-1)p.
// stat.LinInterp places ranks at i/n, which reports different quartiles
// for small samples.
func percentile(data []float64, p float64) float64 {
	s := sortedCopy(data)
	pos := p / 100 * float64(len(s)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return s[lo]
	}
	return s[lo] + (s[hi]-s[lo])*(pos-float64(lo))
}

func (s *StatisticsSolver) solveDescriptive(problem string) *solver.Solution {
	data, found := extractData(problem)
	requested := requestedStatistics(strings.ToLower(problem))

	var t solver.Trace
	if found {
		t.AddWithConfidence("extract_data", "Extract data: "+joinFloats(data), "Data: "+joinFloats(data), "", 0.9)
	} else {
		t.AddWithConfidence("extract_data", "No data found in the problem; using sample data "+joinFloats(data), "Data: "+joinFloats(data), "", 0.5)
	}
	t.AddWithConfidence("identify_statistics", "Identify requested statistics: "+strings.Join(requested, ", "), "Statistics: "+strings.Join(requested, ", "), "", 0.9)

	sorted := sortedCopy(data)
	n := len(data)
	results := map[string]float64{}
	for _, name := range requested {
		var v float64
		switch name {
		case "mean":
			v = mean(data)
			sum := floats.Sum(data)
			t.AddWithConfidence("calculate_mean", fmt.Sprintf("Calculate mean: Σx/n = %s/%d = %s", g(sum), n, g(v)), "Mean = "+g(v), `\bar{x} = `+g(v), 0.95)
		case "median":
			v = median(data)
			var how string
			if n%2 == 0 {
				how = fmt.Sprintf("Median = (%s + %s)/2 = %s", g(sorted[n/2-1]), g(sorted[n/2]), g(v))
			} else {
				how = fmt.Sprintf("Median = %s", g(v))
			}
			t.AddWithConfidence("calculate_median", "Calculate median: "+how, "Median = "+g(v), "", 0.95)
		case "mode":
			v = mode(data)
			t.AddWithConfidence("calculate_mode", "Calculate mode: Most frequent value = "+g(v), "Mode = "+g(v), "", 0.95)
		case "standard_deviation":
			v = sampleStdDev(data)
			t.AddWithConfidence("calculate_std", "Calculate standard deviation: √(Σ(x-μ)²/(n-1)) = "+g(v), "Standard Deviation = "+g(v), `s = `+g(v), 0.95)
		case "variance":
			v = sampleVariance(data)
			t.AddWithConfidence("calculate_variance", "Calculate variance: Σ(x-μ)²/(n-1) = "+g(v), "Variance = "+g(v), `s^2 = `+g(v), 0.95)
		case "range":
			v = sorted[n-1] - sorted[0]
			t.AddWithConfidence("calculate_range", fmt.Sprintf("Calculate range: Max - Min = %s - %s = %s", g(sorted[n-1]), g(sorted[0]), g(v)), "Range = "+g(v), "", 0.95)
		case "minimum":
			v = sorted[0]
			t.AddWithConfidence("find_minimum", "Find minimum value: "+g(v), "Minimum = "+g(v), "", 0.95)
		case "maximum":
			v = sorted[n-1]
			t.AddWithConfidence("find_maximum", "Find maximum value: "+g(v), "Maximum = "+g(v), "", 0.95)
		}
		results[name] = solver.Round(v, 2)
	}

	answer := describeResults(results, requested)
	return t.Done(answer, "descriptive_statistics", 0.95, "Statistics calculated: "+answer,
		map[string]any{
			"data_points":           n,
			"statistics_calculated": requested,
			"data_type":             "numerical",
			"sample_data":           !found,
			"results":               results,
		})
}

func describeResults(results map[string]float64, order []string) string {
	parts := make([]string, 0, len(order))
	for _, name := range order {
		parts = append(parts, name+" = "+solver.FormatDecimal(results[name]))
	}
	return strings.Join(parts, ", ")
}

var analysisOrder = []string{"count", "mean", "median", "mode", "standard_deviation", "variance", "range", "minimum", "maximum", "q1", "q2", "q3", "iqr"}

func (s *StatisticsSolver) solveDataAnalysis(problem string) *solver.Solution {
	data, found := extractData(problem)

	var t solver.Trace
	if found {
		t.AddWithConfidence("extract_data", "Extract and organize data: "+joinFloats(data), "Data: "+joinFloats(data), "", 0.9)
	} else {
		t.AddWithConfidence("extract_data", "No data found in the problem; using sample data "+joinFloats(data), "Data: "+joinFloats(data), "", 0.5)
	}

	sorted := sortedCopy(data)
	q1, q2, q3 := percentile(data, 25), percentile(data, 50), percentile(data, 75)
	analysis := map[string]float64{
		"count":              float64(len(data)),
		"mean":               solver.Round(mean(data), 2),
		"median":             solver.Round(median(data), 2),
		"mode":               solver.Round(mode(data), 2),
		"standard_deviation": solver.Round(sampleStdDev(data), 2),
		"variance":           solver.Round(sampleVariance(data), 2),
		"range":              solver.Round(sorted[len(sorted)-1]-sorted[0], 2),
		"minimum":            solver.Round(sorted[0], 2),
		"maximum":            solver.Round(sorted[len(sorted)-1], 2),
		"q1":                 solver.Round(q1, 2),
		"q2":                 solver.Round(q2, 2),
		"q3":                 solver.Round(q3, 2),
		"iqr":                solver.Round(q3-q1, 2),
	}
	t.AddWithConfidence("calculate_quartiles",
		fmt.Sprintf("Calculate quartiles: Q1 = %s, Q2 = %s, Q3 = %s, IQR = %s", g(analysis["q1"]), g(analysis["q2"]), g(analysis["q3"]), g(analysis["iqr"])),
		fmt.Sprintf("IQR = Q3 - Q1 = %s", g(analysis["iqr"])), "", 0.95)

	answer := describeAnalysis(analysis)
	t.AddWithConfidence("comprehensive_analysis", fmt.Sprintf("Perform comprehensive data analysis on %d data points", len(data)), "Analysis completed: "+answer, "", 0.95)

	return t.Done(answer, "data_analysis", 0.9, "Data analysis completed: "+answer,
		map[string]any{
			"data_points":   len(data),
			"analysis_type": "comprehensive",
			"data_type":     "numerical",
			"sample_data":   !found,
			"results":       analysis,
		})
}

func describeAnalysis(analysis map[string]float64) string {
	parts := make([]string, 0, len(analysisOrder))
	for _, name := range analysisOrder {
		v := analysis[name]
		if name == "count" {
			parts = append(parts, "count = "+strconv.Itoa(int(v)))
			continue
		}
		parts = append(parts, name+" = "+solver.FormatDecimal(v))
	}
	return strings.Join(parts, ", ")
}

func probabilityType(lower string) string {
	switch {
	case strings.Contains(lower, "binomial"):
		return "binomial"
	case strings.Contains(lower, "normal"):
		return "normal"
	case strings.Contains(lower, "uniform"):
		return "uniform"
	case containsAny(lower, "combination", "choose"):
		return "combination"
	case strings.Contains(lower, "permutation"):
		return "permutation"
	default:
		return "basic"
	}
}

// firstGroup returns the first non-empty capture group of re in s.
func firstGroup(re *regexp.Regexp, s string) (float64, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	for _, grp := range m[1:] {
		if grp == "" {
			continue
		}
		f, err := strconv.ParseFloat(grp, 64)
		if err == nil {
			return f, true
		}
	}
	return 0, false
}

// takeRemaining removes the first occurrence of each claimed value and
// returns what is left, in order.
func takeRemaining(nums []float64, claimed ...float64) []float64 {
	rest := append([]float64(nil), nums...)
	for _, c := range claimed {
		for i, v := range rest {
			if v == c {
				rest = append(rest[:i], rest[i+1:]...)
				break
			}
		}
	}
	return rest
}

type probabilityParams struct {
	values map[string]float64
	order  []string
}

func (p probabilityParams) String() string {
	parts := make([]string, 0, len(p.order))
	for _, k := range p.order {
		parts = append(parts, k+"="+g(p.values[k]))
	}
	return strings.Join(parts, ", ")
}

func (s *StatisticsSolver) solveProbability(problem string) *solver.Solution {
	lower := strings.ToLower(problem)
	kind := probabilityType(lower)
	nums := solver.ExtractNumbers(lower, false)
	formula := probabilityFormulas[kind]

	var (
		params probabilityParams
		prob   float64
		answer string
		err    error
		t      solver.Trace
	)
	t.AddWithConfidence("identify_type", "Identify probability type: "+kind, "Type: "+kind, "", 0.9)

	switch kind {
	case "binomial":
		params, err = binomialParams(lower, nums)
	case "normal":
		params, err = normalParams(lower, nums)
	case "uniform":
		params, err = uniformParams(nums)
	case "combination", "permutation":
		params, err = countingParams(nums)
	default:
		params, err = basicParams(lower, nums)
	}
	if err != nil {
		return solver.Failure("Probability calculation failed: %v", err)
	}
	t.AddWithConfidence("extract_parameters", "Extract parameters: "+params.String(), "Parameters: "+params.String(), "", 0.9)
	t.AddWithConfidence("apply_formula", "Apply formula: "+formula, "Formula: "+formula, "", 0.95)

	v := params.values
	switch kind {
	case "binomial":
		n, x, p := int(v["n"]), int(v["x"]), v["p"]
		prob = binomialPMF(n, x, p)
		t.AddWithConfidence("calculate_binomial",
			fmt.Sprintf("Calculate binomial probability: P(X=%d) = C(%d,%d) * %s^%d * %s^%d = %s", x, n, x, g(p), x, g(1-p), n-x, g(prob)),
			fmt.Sprintf("P(X=%d) = %s", x, g(prob)),
			fmt.Sprintf(`P(X=%d) = \binom{%d}{%d} %s^{%d} (1-%s)^{%d}`, x, n, x, g(p), x, g(p), n-x), 0.95)
		prob = solver.Round(prob, 4)
		answer = solver.FormatDecimal(prob)
	case "normal":
		x, mu, sigma := v["x"], v["mean"], v["std"]
		z := (x - mu) / sigma
		cdf := normalCDF(z)
		if upperTailRe.MatchString(lower) {
			prob = 1 - cdf
			t.AddWithConfidence("calculate_normal",
				fmt.Sprintf("Calculate normal probability: P(X>%s) = 1 - Φ((%s-%s)/%s) = 1 - Φ(%s) = %s", g(x), g(x), g(mu), g(sigma), g(z), g(prob)),
				fmt.Sprintf("P(X>%s) = %s", g(x), g(prob)), "", 0.95)
		} else {
			prob = cdf
			t.AddWithConfidence("calculate_normal",
				fmt.Sprintf("Calculate normal probability: P(X<%s) = Φ((%s-%s)/%s) = Φ(%s) = %s", g(x), g(x), g(mu), g(sigma), g(z), g(prob)),
				fmt.Sprintf("P(X<%s) = %s", g(x), g(prob)), "", 0.95)
		}
		prob = solver.Round(prob, 4)
		answer = solver.FormatDecimal(prob)
	case "uniform":
		prob = (v["b"] - v["a"]) / (v["max"] - v["min"])
		t.AddWithConfidence("calculate_uniform",
			fmt.Sprintf("Calculate uniform probability: P(%s<X<%s) = (%s-%s)/(%s-%s) = %s", g(v["a"]), g(v["b"]), g(v["b"]), g(v["a"]), g(v["max"]), g(v["min"]), g(prob)),
			"P = "+g(prob), "", 0.95)
		prob = solver.Round(prob, 4)
		answer = solver.FormatDecimal(prob)
	case "combination":
		n, r := int64(v["n"]), int64(v["r"])
		c := new(big.Int).Binomial(n, r)
		t.AddWithConfidence("calculate_combination",
			fmt.Sprintf("Calculate combinations: C(%d,%d) = %d!/(%d!(%d-%d)!) = %s", n, r, n, r, n, r, c),
			fmt.Sprintf("C(%d,%d) = %s", n, r, c), fmt.Sprintf(`\binom{%d}{%d} = %s`, n, r, c), 0.95)
		answer = c.String()
		prob, _ = new(big.Float).SetInt(c).Float64()
	case "permutation":
		n, r := int64(v["n"]), int64(v["r"])
		pr := new(big.Int).MulRange(n-r+1, n)
		t.AddWithConfidence("calculate_permutation",
			fmt.Sprintf("Calculate permutations: P(%d,%d) = %d!/(%d-%d)! = %s", n, r, n, n, r, pr),
			fmt.Sprintf("P(%d,%d) = %s", n, r, pr), "", 0.95)
		answer = pr.String()
		prob, _ = new(big.Float).SetInt(pr).Float64()
	default:
		fav, total := v["favorable"], v["total"]
		prob = fav / total
		t.AddWithConfidence("calculate_basic",
			fmt.Sprintf("Calculate basic probability: P(A) = %s/%s = %s", g(fav), g(total), g(prob)),
			"P(A) = "+g(prob), fmt.Sprintf(`P(A) = \frac{%s}{%s}`, g(fav), g(total)), 0.95)
		prob = solver.Round(prob, 4)
		answer = solver.FormatDecimal(prob)
	}

	return t.Done(answer, "probability_"+kind, 0.9, "Probability = "+answer,
		map[string]any{
			"probability_type": kind,
			"parameters":       params.values,
			"formula":          formula,
			"value":            prob,
		})
}

// binomialParams fills n, x and p from labeled phrases first ("10 trials",
// "3 successes", "p = 0.5"), then from the remaining numbers: p is the
// first value in [0, 1], n the larger of the rest.
func binomialParams(lower string, nums []float64) (probabilityParams, error) {
	vals := map[string]float64{}
	var claimed []float64
	if n, ok := firstGroup(trialsRe, lower); ok {
		vals["n"] = n
		claimed = append(claimed, n)
	}
	if x, ok := firstGroup(successesRe, lower); ok {
		vals["x"] = x
		claimed = append(claimed, x)
	}
	if p, ok := firstGroup(successPRe, lower); ok {
		vals["p"] = p
		claimed = append(claimed, p)
	}
	rest := takeRemaining(nums, claimed...)
	if _, ok := vals["p"]; !ok {
		for i, v := range rest {
			if v >= 0 && v <= 1 && v != math.Trunc(v) {
				vals["p"] = v
				rest = append(rest[:i], rest[i+1:]...)
				break
			}
		}
	}
	if _, ok := vals["p"]; !ok {
		vals["p"] = 0.5
	}
	_, hasN := vals["n"]
	_, hasX := vals["x"]
	switch {
	case !hasN && !hasX && len(rest) >= 2:
		a, b := rest[0], rest[1]
		vals["n"], vals["x"] = math.Max(a, b), math.Min(a, b)
	case !hasN && len(rest) >= 1:
		vals["n"] = rest[0]
	case !hasX && len(rest) >= 1:
		vals["x"] = rest[0]
	}
	if _, ok := vals["n"]; !ok {
		return probabilityParams{}, fmt.Errorf("number of trials not found")
	}
	if _, ok := vals["x"]; !ok {
		return probabilityParams{}, fmt.Errorf("number of successes not found")
	}
	n, x, p := vals["n"], vals["x"], vals["p"]
	if n != math.Trunc(n) || x != math.Trunc(x) || x < 0 || x > n {
		return probabilityParams{}, fmt.Errorf("successes %s must be a whole number between 0 and trials %s", g(x), g(n))
	}
	if p < 0 || p > 1 {
		return probabilityParams{}, fmt.Errorf("success probability %s outside [0, 1]", g(p))
	}
	return probabilityParams{values: vals, order: []string{"n", "x", "p"}}, nil
}

func binomialPMF(n, x int, p float64) float64 {
	switch p {
	case 0:
		if x == 0 {
			return 1
		}
		return 0
	case 1:
		if x == n {
			return 1
		}
		return 0
	}
	return distuv.Binomial{N: float64(n), P: p}.Prob(float64(x))
}

func normalCDF(z float64) float64 {
	return distuv.UnitNormal.CDF(z)
}

func normalParams(lower string, nums []float64) (probabilityParams, error) {
	vals := map[string]float64{"mean": 0, "std": 1}
	var claimed []float64
	if m, ok := firstGroup(meanRe, lower); ok {
		vals["mean"] = m
		claimed = append(claimed, math.Abs(m))
	}
	if sd, ok := firstGroup(stdDevRe, lower); ok {
		vals["std"] = sd
		claimed = append(claimed, sd)
	}
	if x, ok := firstGroup(normalXRe, lower); ok {
		vals["x"] = x
	} else {
		rest := takeRemaining(nums, claimed...)
		if len(rest) == 0 {
			return probabilityParams{}, fmt.Errorf("value of X not found")
		}
		vals["x"] = rest[0]
	}
	if vals["std"] <= 0 {
		return probabilityParams{}, fmt.Errorf("standard deviation must be positive")
	}
	return probabilityParams{values: vals, order: []string{"x", "mean", "std"}}, nil
}

// uniformParams reads the support first and the event interval second:
// "between 0 and 10 ... between 2 and 5".
func uniformParams(nums []float64) (probabilityParams, error) {
	if len(nums) < 4 {
		return probabilityParams{}, fmt.Errorf("need the distribution bounds and the event interval")
	}
	lo, hi := math.Min(nums[0], nums[1]), math.Max(nums[0], nums[1])
	a, b := math.Min(nums[2], nums[3]), math.Max(nums[2], nums[3])
	if hi == lo {
		return probabilityParams{}, fmt.Errorf("distribution bounds are equal")
	}
	a, b = math.Max(a, lo), math.Min(b, hi)
	if b < a {
		a, b = lo, lo
	}
	return probabilityParams{
		values: map[string]float64{"min": lo, "max": hi, "a": a, "b": b},
		order:  []string{"min", "max", "a", "b"},
	}, nil
}

// countingParams takes n as the larger and r as the smaller of the first
// two numbers, so "5 choose 2" and "choose 2 from 5" agree.
func countingParams(nums []float64) (probabilityParams, error) {
	if len(nums) < 2 {
		return probabilityParams{}, fmt.Errorf("need n and r")
	}
	n, r := math.Max(nums[0], nums[1]), math.Min(nums[0], nums[1])
	if n != math.Trunc(n) || r != math.Trunc(r) {
		return probabilityParams{}, fmt.Errorf("n and r must be whole numbers")
	}
	if n > 1000 {
		return probabilityParams{}, fmt.Errorf("n = %s is too large", g(n))
	}
	return probabilityParams{values: map[string]float64{"n": n, "r": r}, order: []string{"n", "r"}}, nil
}

// basicParams treats the smaller of two counts as favorable. A lone die or
// coin supplies its own sample space.
func basicParams(lower string, nums []float64) (probabilityParams, error) {
	order := []string{"favorable", "total"}
	if len(nums) >= 2 {
		fav, total := math.Min(nums[0], nums[1]), math.Max(nums[0], nums[1])
		if total == 0 {
			return probabilityParams{}, fmt.Errorf("total outcomes is zero")
		}
		return probabilityParams{values: map[string]float64{"favorable": fav, "total": total}, order: order}, nil
	}
	switch {
	case containsAny(lower, "die", "dice"):
		return probabilityParams{values: map[string]float64{"favorable": 1, "total": 6}, order: order}, nil
	case strings.Contains(lower, "coin"):
		return probabilityParams{values: map[string]float64{"favorable": 1, "total": 2}, order: order}, nil
	}
	return probabilityParams{}, fmt.Errorf("need favorable and total outcomes")
}
