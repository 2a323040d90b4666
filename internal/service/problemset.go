// SPDX-License-Identifier: Apache-2.0

package service

import "github.com/mathkitproj/mathsolver-mcp/internal/problemset"

// SetRequests turns problem set entries into solve requests. Entry fields
// override the matching fields of defaults when set.
func SetRequests(set problemset.Set, defaults SolveRequest) []SolveRequest {
	out := make([]SolveRequest, 0, len(set.Entries))
	for _, e := range set.Entries {
		req := defaults
		req.ProblemText = e.Text
		if e.Subject != "" {
			req.SubjectArea = e.Subject
		}
		if e.Difficulty != "" {
			req.DifficultyLevel = e.Difficulty
		}
		out = append(out, req)
	}
	return out
}
