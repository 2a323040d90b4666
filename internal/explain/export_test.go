// SPDX-License-Identifier: Apache-2.0

package explain

import "context"

// SetGenerate swaps the Gemini transport and returns a restore func.
func SetGenerate(fn func(ctx context.Context, apiKey, model, system, prompt string) (string, int, error)) func() {
	prev := generate
	generate = fn
	return func() { generate = prev }
}
