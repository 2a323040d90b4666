// SPDX-License-Identifier: Apache-2.0

package solvers

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mathkitproj/mathsolver-mcp/internal/solver"
	"github.com/mathkitproj/mathsolver-mcp/internal/symbolic"
)

var geometrySignals = signals{
	keywords: []string{
		"area", "volume", "perimeter", "circumference", "angle",
		"triangle", "circle", "rectangle", "square", "sphere",
		"cylinder", "cone", "pyramid", "radius", "diameter",
		"height", "width", "length", "base", "hypotenuse",
		"pythagorean", "geometry", "shape", "polygon",
	},
}

var (
	geometryShapes       = []string{"triangle", "circle", "rectangle", "square", "sphere", "cylinder", "cone", "pyramid", "cube", "parallelogram", "trapezoid", "rhombus", "pentagon", "hexagon", "octagon"}
	geometryMeasurements = []string{"area", "volume", "perimeter", "circumference", "angle"}
	geometryFormulaWords = []string{"π", "pi", "radius", "diameter", "height", "base"}
)

var (
	numberToken  = regexp.MustCompile(`\d+\.?\d*`)
	unitPattern  = regexp.MustCompile(`\d\s*(cm|mm|km|m|ft|in)\b`)
	trigFunction = regexp.MustCompile(`\b(sin|sine|cos|cosine|tan|tangent)\b`)
)

type measureKind string

const (
	kindArea      measureKind = "area"
	kindVolume    measureKind = "volume"
	kindPerimeter measureKind = "perimeter"
)

// measure is one closed-form formula over named dimensions.
type measure struct {
	formula string
	dims    []string
	eval    func(d map[string]float64) float64
}

type shape struct {
	name     string
	words    []string
	measures map[measureKind]measure
}

// The first shape whose vocabulary appears in the text wins.
var shapes = []shape{
	{"circle", []string{"circle", "circular"}, map[measureKind]measure{
		kindArea:      {"A = πr²", []string{"radius"}, func(d map[string]float64) float64 { return math.Pi * d["radius"] * d["radius"] }},
		kindPerimeter: {"C = 2πr", []string{"radius"}, func(d map[string]float64) float64 { return 2 * math.Pi * d["radius"] }},
	}},
	{"triangle", []string{"triangle", "triangular"}, map[measureKind]measure{
		kindArea:      {"A = (1/2)bh", []string{"base", "height"}, func(d map[string]float64) float64 { return 0.5 * d["base"] * d["height"] }},
		kindPerimeter: {"P = a + b + c", []string{"a", "b", "c"}, func(d map[string]float64) float64 { return d["a"] + d["b"] + d["c"] }},
	}},
	{"rectangle", []string{"rectangle", "rectangular"}, map[measureKind]measure{
		kindArea:      {"A = lw", []string{"length", "width"}, func(d map[string]float64) float64 { return d["length"] * d["width"] }},
		kindPerimeter: {"P = 2(l + w)", []string{"length", "width"}, func(d map[string]float64) float64 { return 2 * (d["length"] + d["width"]) }},
		kindVolume:    {"V = lwh", []string{"length", "width", "height"}, func(d map[string]float64) float64 { return d["length"] * d["width"] * d["height"] }},
	}},
	{"square", []string{"square"}, map[measureKind]measure{
		kindArea:      {"A = s²", []string{"side"}, func(d map[string]float64) float64 { return d["side"] * d["side"] }},
		kindPerimeter: {"P = 4s", []string{"side"}, func(d map[string]float64) float64 { return 4 * d["side"] }},
	}},
	{"sphere", []string{"sphere", "spherical"}, map[measureKind]measure{
		kindVolume: {"V = (4/3)πr³", []string{"radius"}, func(d map[string]float64) float64 { return 4.0 / 3.0 * math.Pi * math.Pow(d["radius"], 3) }},
		kindArea:   {"A = 4πr²", []string{"radius"}, func(d map[string]float64) float64 { return 4 * math.Pi * d["radius"] * d["radius"] }},
	}},
	{"cylinder", []string{"cylinder", "cylindrical"}, map[measureKind]measure{
		kindVolume: {"V = πr²h", []string{"radius", "height"}, func(d map[string]float64) float64 { return math.Pi * d["radius"] * d["radius"] * d["height"] }},
		kindArea:   {"A = 2πr(r + h)", []string{"radius", "height"}, func(d map[string]float64) float64 { return 2 * math.Pi * d["radius"] * (d["radius"] + d["height"]) }},
	}},
	{"cone", []string{"cone", "conical"}, map[measureKind]measure{
		kindVolume: {"V = (1/3)πr²h", []string{"radius", "height"}, func(d map[string]float64) float64 { return math.Pi * d["radius"] * d["radius"] * d["height"] / 3 }},
		kindArea: {"A = πr(r + √(h² + r²))", []string{"radius", "height"}, func(d map[string]float64) float64 {
			r, h := d["radius"], d["height"]
			return math.Pi * r * (r + math.Hypot(h, r))
		}},
	}},
	{"cube", []string{"cube", "cubic"}, map[measureKind]measure{
		kindVolume: {"V = s³", []string{"side"}, func(d map[string]float64) float64 { return math.Pow(d["side"], 3) }},
		kindArea:   {"A = 6s²", []string{"side"}, func(d map[string]float64) float64 { return 6 * d["side"] * d["side"] }},
	}},
	{"parallelogram", []string{"parallelogram"}, map[measureKind]measure{
		kindArea:      {"A = bh", []string{"base", "height"}, func(d map[string]float64) float64 { return d["base"] * d["height"] }},
		kindPerimeter: {"P = 2(a + b)", []string{"a", "b"}, func(d map[string]float64) float64 { return 2 * (d["a"] + d["b"]) }},
	}},
	{"trapezoid", []string{"trapezoid", "trapezoidal", "trapezium"}, map[measureKind]measure{
		kindArea: {"A = (1/2)(b₁ + b₂)h", []string{"base1", "base2", "height"}, func(d map[string]float64) float64 { return 0.5 * (d["base1"] + d["base2"]) * d["height"] }},
	}},
}

// Labels a dimension may be introduced by in the text.
// angleWord matches "angle" as a word, not inside "triangle" or "rectangle".
var angleWord = regexp.MustCompile(`\bangles?\b`)

var dimensionLabels = map[string][]string{
	"radius":   {"radius", "r ="},
	"diameter": {"diameter", "d ="},
	"height":   {"height", "altitude", "h ="},
	"base":     {"base", "b ="},
	"length":   {"length", "l ="},
	"width":    {"width", "w ="},
	"side":     {"side length", "side", "edge", "s ="},
}

var angleFormulas = map[string]string{
	"sine":     "sin(θ) = opposite/hypotenuse",
	"cosine":   "cos(θ) = adjacent/hypotenuse",
	"tangent":  "tan(θ) = opposite/adjacent",
	"triangle": "A + B + C = 180°",
}

// GeometrySolver applies fixed area, volume, perimeter, angle and
// Pythagorean formulas to dimensions found in the text.
type GeometrySolver struct{}

func NewGeometrySolver() *GeometrySolver {
	return &GeometrySolver{}
}

func (s *GeometrySolver) Name() string {
	return "geometry"
}

func (s *GeometrySolver) CanSolve(problem, subjectHint string) bool {
	if solver.HintIs(subjectHint, "geometry", "geometric") {
		return true
	}
	lower := strings.ToLower(problem)
	return geometrySignals.keywordHits(lower) >= 2 ||
		containsAny(lower, geometryShapes...) ||
		containsAny(lower, geometryMeasurements...) ||
		containsAny(lower, geometryFormulaWords...)
}

func (s *GeometrySolver) Solve(_ context.Context, problem string, _ solver.Options) *solver.Solution {
	lower := strings.ToLower(problem)
	switch {
	case containsAny(lower, "area", "square units", "cm²", "m²", "ft²", "surface"):
		return s.solveMeasure(problem, kindArea)
	case containsAny(lower, "volume", "cubic units", "cm³", "m³", "ft³"):
		return s.solveMeasure(problem, kindVolume)
	case containsAny(lower, "pythagorean", "hypotenuse", "right triangle", "a² + b²"):
		return s.solvePythagorean(problem)
	case containsAny(lower, "perimeter", "circumference", "around", "boundary"):
		return s.solveMeasure(problem, kindPerimeter)
	case angleWord.MatchString(lower) || containsAny(lower, "degree", "°", "radian") || trigFunction.MatchString(lower):
		return s.solveAngle(problem)
	case containsAny(lower, "triangle", "circle"):
		return s.solveMeasure(problem, kindArea)
	default:
		return solver.Failure("Unable to identify geometry problem type")
	}
}

func (s *GeometrySolver) Capabilities() []string {
	return []string{
		"area_calculations",
		"volume_calculations",
		"perimeter_calculations",
		"angle_calculations",
		"pythagorean_theorem",
		"trigonometric_calculations",
		"circle_geometry",
		"triangle_geometry",
		"surface_area",
		"shape_identification",
	}
}

func identifyShape(lower string) (shape, bool) {
	for _, sh := range shapes {
		if containsAny(lower, sh.words...) {
			return sh, true
		}
	}
	return shape{name: "unknown"}, false
}

type positioned struct {
	value  float64
	offset int
}

// numbersIn returns every number in text with its byte offset.
func numbersIn(text string) []positioned {
	var out []positioned
	for _, loc := range numberToken.FindAllStringIndex(text, -1) {
		f, err := strconv.ParseFloat(strings.TrimSuffix(text[loc[0]:loc[1]], "."), 64)
		if err != nil {
			continue
		}
		out = append(out, positioned{value: f, offset: loc[0]})
	}
	return out
}

// labeledNumber finds the number that directly follows one of the labels.
func labeledNumber(lower string, labels []string) (positioned, bool) {
	for _, label := range labels {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(label) + `\s*(?:of|is|=|:)?\s*(\d+\.?\d*)`)
		loc := re.FindStringSubmatchIndex(lower)
		if loc == nil {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSuffix(lower[loc[2]:loc[3]], "."), 64)
		if err != nil {
			continue
		}
		return positioned{value: f, offset: loc[2]}, true
	}
	return positioned{}, false
}

// extractDimensions fills the named dimensions, preferring labeled values
// ("radius 5") and then taking the remaining numbers in textual order.
// A circle given by its diameter gets its radius derived.
func extractDimensions(problem string, names []string) (map[string]float64, []string, error) {
	lower := strings.ToLower(problem)
	nums := numbersIn(lower)
	used := map[int]bool{}
	dims := map[string]float64{}
	order := append([]string(nil), names...)

	wantsRadius := false
	for _, n := range names {
		if n == "radius" {
			wantsRadius = true
		}
	}
	if wantsRadius {
		if _, ok := labeledNumber(lower, dimensionLabels["radius"]); !ok && strings.Contains(lower, "diameter") {
			d, ok := labeledNumber(lower, dimensionLabels["diameter"])
			if !ok && len(nums) > 0 {
				d, ok = nums[0], true
			}
			if ok {
				used[d.offset] = true
				dims["diameter"] = d.value
				dims["radius"] = d.value / 2
				order = append([]string{"diameter"}, order...)
			}
		}
	}

	for _, name := range names {
		if _, done := dims[name]; done {
			continue
		}
		if labels, ok := dimensionLabels[name]; ok {
			if p, ok := labeledNumber(lower, labels); ok && !used[p.offset] {
				used[p.offset] = true
				dims[name] = p.value
			}
		}
	}
	for _, name := range names {
		if _, done := dims[name]; done {
			continue
		}
		for _, p := range nums {
			if !used[p.offset] {
				used[p.offset] = true
				dims[name] = p.value
				break
			}
		}
		if _, done := dims[name]; !done {
			return nil, nil, fmt.Errorf("missing %s", name)
		}
	}
	return dims, order, nil
}

func describeDims(dims map[string]float64, order []string) string {
	parts := make([]string, 0, len(order))
	for _, name := range order {
		parts = append(parts, name+"="+symbolic.FormatFloat(dims[name]))
	}
	return strings.Join(parts, ", ")
}

func extractUnits(problem string) string {
	if m := unitPattern.FindStringSubmatch(problem); m != nil {
		return m[1]
	}
	return "units"
}

func withUnits(value, units, power string) string {
	if units == "units" {
		return value
	}
	return value + " " + units + power
}

var kindLabels = map[measureKind]struct{ title, power string }{
	kindArea:      {"Area", "²"},
	kindVolume:    {"Volume", "³"},
	kindPerimeter: {"Perimeter", ""},
}

func (s *GeometrySolver) solveMeasure(problem string, kind measureKind) *solver.Solution {
	label := kindLabels[kind]
	sh, _ := identifyShape(strings.ToLower(problem))
	m, ok := sh.measures[kind]
	if !ok {
		return solver.Failure("%s calculation failed: no %s formula for shape %s", label.title, kind, sh.name)
	}
	dims, order, err := extractDimensions(problem, m.dims)
	if err != nil {
		return solver.Failure("%s calculation failed: %v", label.title, err)
	}

	var t solver.Trace
	t.AddWithConfidence("identify_shape", "Identify the shape: "+sh.name, "Shape: "+sh.name, "", 0.9)
	t.AddWithConfidence("extract_dimensions", "Extract dimensions: "+describeDims(dims, order), "Dimensions: "+describeDims(dims, order), "", 0.9)
	t.AddWithConfidence("apply_formula", fmt.Sprintf("Apply %s formula: %s", kind, m.formula), "Formula: "+m.formula, "", 0.95)

	value := solver.Round(m.eval(dims), 2)
	result := solver.FormatDecimal(value)
	t.AddWithConfidence("calculate", fmt.Sprintf("Calculate %s: %s", kind, result), fmt.Sprintf("%s = %s", label.title, result), "", 0.95)

	units := extractUnits(problem)
	return t.Done(withUnits(result, units, label.power), fmt.Sprintf("%s_%s_calculation", sh.name, kind), 0.95,
		fmt.Sprintf("%s of %s = %s", label.title, sh.name, result),
		map[string]any{
			"shape":      sh.name,
			"dimensions": dims,
			"formula":    m.formula,
			"units":      units,
			"value":      value,
		})
}

func (s *GeometrySolver) solvePythagorean(problem string) *solver.Solution {
	lower := strings.ToLower(problem)
	nums := numbersIn(lower)

	var t solver.Trace
	t.AddWithConfidence("identify_theorem", "Identify Pythagorean theorem: a² + b² = c²", "a² + b² = c²", "a^2 + b^2 = c^2", 0.95)

	units := extractUnits(problem)
	if hyp, ok := labeledNumber(lower, []string{"hypotenuse"}); ok {
		var leg float64
		found := false
		for _, p := range nums {
			if p.offset != hyp.offset {
				leg, found = p.value, true
				break
			}
		}
		if !found {
			return solver.Failure("Pythagorean theorem failed: need a hypotenuse and one leg")
		}
		c := hyp.value
		if leg >= c {
			return solver.Failure("Pythagorean theorem failed: leg %s is not shorter than hypotenuse %s", symbolic.FormatFloat(leg), symbolic.FormatFloat(c))
		}
		given := map[string]float64{"a": leg, "c": c}
		t.AddWithConfidence("extract_sides", "Extract sides: a="+symbolic.FormatFloat(leg)+", c="+symbolic.FormatFloat(c), "Sides: a="+symbolic.FormatFloat(leg)+", c="+symbolic.FormatFloat(c), "", 0.9)
		diff := c*c - leg*leg
		t.AddWithConfidence("calculate_squares",
			fmt.Sprintf("Calculate c² - a² = %s² - %s² = %s - %s = %s", g(c), g(leg), g(c*c), g(leg*leg), g(diff)),
			"c² - a² = "+g(diff), fmt.Sprintf("b^2 = %s", g(diff)), 0.95)
		b := math.Sqrt(diff)
		t.AddWithConfidence("calculate_square_root", fmt.Sprintf("Calculate b = √%s = %s", g(diff), g(b)), "b = "+g(b), fmt.Sprintf(`b = \sqrt{%s}`, g(diff)), 0.95)
		answer := solver.FormatDecimal(solver.Round(b, 2))
		return t.Done(withUnits(answer, units, ""), "pythagorean_theorem", 0.95, "Pythagorean theorem result: "+answer,
			map[string]any{"sides": given, "theorem": "a² + b² = c²", "solved_for": "b"})
	}

	if len(nums) < 2 {
		return solver.Failure("Pythagorean theorem failed: need two sides")
	}
	a, b := nums[0].value, nums[1].value
	given := map[string]float64{"a": a, "b": b}
	t.AddWithConfidence("extract_sides", fmt.Sprintf("Extract sides: a=%s, b=%s", g(a), g(b)), fmt.Sprintf("Sides: a=%s, b=%s", g(a), g(b)), "", 0.9)
	sum := a*a + b*b
	t.AddWithConfidence("calculate_squares",
		fmt.Sprintf("Calculate a² + b² = %s² + %s² = %s + %s = %s", g(a), g(b), g(a*a), g(b*b), g(sum)),
		"a² + b² = "+g(sum), fmt.Sprintf("c^2 = %s", g(sum)), 0.95)
	c := math.Sqrt(sum)
	t.AddWithConfidence("calculate_square_root", fmt.Sprintf("Calculate c = √%s = %s", g(sum), g(c)), "c = "+g(c), fmt.Sprintf(`c = \sqrt{%s}`, g(sum)), 0.95)

	answer := solver.FormatDecimal(solver.Round(c, 2))
	return t.Done(withUnits(answer, units, ""), "pythagorean_theorem", 0.95, "Pythagorean theorem result: "+answer,
		map[string]any{"sides": given, "theorem": "a² + b² = c²", "solved_for": "c"})
}

func g(f float64) string { return symbolic.FormatFloat(f) }

func angleType(lower string) string {
	switch m := trigFunction.FindString(lower); {
	case strings.HasPrefix(m, "sin"):
		return "sine"
	case strings.HasPrefix(m, "cos"):
		return "cosine"
	case strings.HasPrefix(m, "tan"):
		return "tangent"
	case strings.Contains(lower, "triangle"):
		return "triangle"
	default:
		return "general"
	}
}

func (s *GeometrySolver) solveAngle(problem string) *solver.Solution {
	lower := strings.ToLower(problem)
	kind := angleType(lower)
	nums := solver.ExtractNumbers(lower, false)
	if len(nums) == 0 {
		return solver.Failure("Angle calculation failed: no values found")
	}
	formula, ok := angleFormulas[kind]
	if !ok {
		formula = "θ = given value"
	}

	var t solver.Trace
	t.AddWithConfidence("identify_angle_type", "Identify angle type: "+kind, "Type: "+kind, "", 0.9)
	t.AddWithConfidence("extract_info", "Extract given information: "+joinFloats(nums), "Given: "+joinFloats(nums), "", 0.9)
	t.AddWithConfidence("apply_formula", "Apply formula: "+formula, "Formula: "+formula, "", 0.95)

	value := nums[0]
	var angle float64
	switch kind {
	case "sine", "cosine":
		if value < -1 || value > 1 {
			return solver.Failure("Angle calculation failed: %s value %s is outside [-1, 1]", kind, g(value))
		}
		if kind == "sine" {
			angle = math.Asin(value)
		} else {
			angle = math.Acos(value)
		}
		angle = angle * 180 / math.Pi
	case "tangent":
		angle = math.Atan(value) * 180 / math.Pi
	case "triangle":
		if len(nums) < 2 {
			return solver.Failure("Angle calculation failed: need two angles of the triangle")
		}
		angle = 180 - nums[0] - nums[1]
		if angle <= 0 {
			return solver.Failure("Angle calculation failed: angles %s and %s exceed 180°", g(nums[0]), g(nums[1]))
		}
	default:
		angle = value
	}
	angle = solver.Round(angle, 2)
	answer := solver.FormatDecimal(angle)
	t.AddWithConfidence("calculate", fmt.Sprintf("Calculate angle: %s°", answer), "Angle = "+answer, answer+`^\circ`, 0.95)

	return t.Done(answer, kind+"_angle_calculation", 0.9, "Angle = "+answer,
		map[string]any{
			"angle_type": kind,
			"given_info": map[string]float64{"value": value},
			"formula":    formula,
			"units":      "degrees",
		})
}
