// SPDX-License-Identifier: Apache-2.0

package explain

import (
	"context"
	"fmt"
	"strings"
)

// operationHints are the beginner-level glosses for common step operations.
var operationHints = map[string]string{
	"parse":                   "First we write the problem in mathematical form.",
	"identify":                "Next we recognise what kind of problem this is.",
	"rearrange":               "Move every term to one side so the equation equals zero.",
	"solve":                   "Now we isolate the unknown.",
	"verify":                  "Finally we substitute the answer back to check it.",
	"expand":                  "Multiply out the brackets.",
	"collect":                 "Group terms that share the same power of the variable.",
	"factor":                  "Write the expression as a product of simpler pieces.",
	"simplify":                "Tidy the result into its simplest form.",
	"parentheses":             "Work inside the brackets first.",
	"exponents":               "Then evaluate powers.",
	"multiplication_division": "Then multiply and divide from left to right.",
	"addition_subtraction":    "Finally add and subtract from left to right.",
	"apply_formula":           "Use the formula that matches the shape or quantity.",
	"calculate_squares":       "Square each known side and add them.",
	"calculate_square_root":   "Take the square root to get the length.",
	"differentiate":           "Apply the differentiation rules term by term.",
	"integrate":               "Reverse the differentiation rules to find the antiderivative.",
	"add_constant":            "Every antiderivative carries an arbitrary constant C.",
	"identify_form":           "Direct substitution gives an indeterminate form, so we need another approach.",
	"evaluate_limit":          "Evaluate what the expression approaches.",
	"extract_data":            "Collect the numbers we are working with.",
}

// StepNarrator explains a solution from its steps alone. It needs no
// network access and never fails.
type StepNarrator struct{}

func NewStepNarrator() *StepNarrator {
	return &StepNarrator{}
}

func (n *StepNarrator) Name() string {
	return "narrator"
}

func (n *StepNarrator) Explain(_ context.Context, req Request) (Explanation, error) {
	if strings.TrimSpace(req.Answer) == "" {
		return Explanation{}, ErrNoAnswer
	}
	content := Narrate(req)
	return Explanation{
		Content:    content,
		Method:     "step_narration",
		Success:    true,
		TokensUsed: estimateTokens(content),
	}, nil
}

// Narrate renders the explanation text. Beginners get a plain-language hint
// per step, advanced readers also get the LaTeX forms and step confidence.
func Narrate(req Request) string {
	difficulty := Difficulty(req.Difficulty)
	method := strings.ReplaceAll(req.Method, "_", " ")
	if method == "" {
		method = "mathematical analysis"
	}

	var b strings.Builder
	b.WriteString("**Solution process**\n")
	fmt.Fprintf(&b, "This problem was solved using %s.\n\n", method)

	if len(req.Steps) > 0 {
		b.WriteString("**Step-by-Step Explanation:**\n")
		for i, st := range req.Steps {
			fmt.Fprintf(&b, "%d. %s", i+1, st.Description)
			if st.Expression != "" && st.Expression != st.Description {
				fmt.Fprintf(&b, ": %s", st.Expression)
			}
			b.WriteString("\n")
			switch difficulty {
			case Beginner:
				if hint, ok := operationHints[st.Operation]; ok {
					fmt.Fprintf(&b, "   %s\n", hint)
				}
			case Advanced:
				if st.LaTeX != "" {
					fmt.Fprintf(&b, "   $%s$\n", st.LaTeX)
				}
				if st.Confidence > 0 && st.Confidence < 1 {
					fmt.Fprintf(&b, "   (confidence %.2f)\n", st.Confidence)
				}
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("**Answer**\n")
	b.WriteString(req.Answer)
	b.WriteString("\n")
	if difficulty == Beginner {
		b.WriteString("\nCheck the answer by substituting it back into the original problem.\n")
	}
	return b.String()
}
