// SPDX-License-Identifier: Apache-2.0

package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mathkitproj/mathsolver-mcp/internal/problemset"
	"github.com/mathkitproj/mathsolver-mcp/internal/service"
)

func TestSetRequests(t *testing.T) {
	set := problemset.Set{Entries: []problemset.Entry{
		{Text: "2 + 3"},
		{Text: "2x + 5 = 13", Subject: "algebra", Difficulty: "advanced"},
	}}
	defaults := service.SolveRequest{DifficultyLevel: "beginner", TimeoutMS: 2000, IncludeExplanation: true}

	got := service.SetRequests(set, defaults)
	assert.Equal(t, []service.SolveRequest{
		{ProblemText: "2 + 3", DifficultyLevel: "beginner", TimeoutMS: 2000, IncludeExplanation: true},
		{ProblemText: "2x + 5 = 13", SubjectArea: "algebra", DifficultyLevel: "advanced", TimeoutMS: 2000, IncludeExplanation: true},
	}, got)
	assert.Empty(t, service.SetRequests(problemset.Set{}, defaults))
}
