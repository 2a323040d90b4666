// SPDX-License-Identifier: Apache-2.0

// Package tool exposes the solve pipeline as MCP tools.
package tool

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mathkitproj/mathsolver-mcp/internal/service"
)

// ServerName is the MCP implementation name.
const ServerName = "mathsolver-mcp"

// Tools holds the handlers for every tool. It shares one Service.
type Tools struct {
	svc *service.Service
}

func New(svc *service.Service) *Tools {
	return &Tools{svc: svc}
}

// Register adds every tool to srv.
func (t *Tools) Register(srv *mcp.Server) {
	mcp.AddTool(srv, MetadataSolveMathProblem, t.SolveMathProblem)
	mcp.AddTool(srv, MetadataExplainMathProblem, t.ExplainMathProblem)
	mcp.AddTool(srv, MetadataSolveMathBatch, t.SolveMathBatch)
	mcp.AddTool(srv, MetadataSolveProblemSet, t.SolveProblemSet)
	mcp.AddTool(srv, MetadataListSolvers, t.ListSolvers)
	mcp.AddTool(srv, MetadataValidateProblem, t.ValidateProblem)
	mcp.AddTool(srv, MetadataSolveStats, t.SolveStats)
}

// NewServer builds an MCP server with all tools registered.
func NewServer(svc *service.Service, version string) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version}, &mcp.ServerOptions{
		Instructions: "Solve and explain text math problems. Call validate_problem to pre-check input, " +
			"solve_math_problem for answers with steps, explain_math_problem for a tutor-style explanation, " +
			"solve_problem_set to solve every problem in a YAML, Markdown or text document.",
	})
	New(svc).Register(srv)
	return srv
}
