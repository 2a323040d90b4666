// SPDX-License-Identifier: Apache-2.0

// Package solvers holds the per-subject solver variants.
package solvers

import (
	"github.com/mathkitproj/mathsolver-mcp/internal/solver"
)

// All returns every solver in registration order. Earlier solvers win when
// more than one claims a problem and no preference applies.
func All() []solver.Solver {
	return []solver.Solver{
		NewArithmeticSolver(),
		NewAlgebraSolver(),
		NewGeometrySolver(),
		NewCalculusSolver(),
		NewStatisticsSolver(),
	}
}

// Register adds every solver not named in disabled to r.
func Register(r *solver.Registry, disabled ...string) {
	skip := make(map[string]bool, len(disabled))
	for _, name := range disabled {
		skip[name] = true
	}
	for _, s := range All() {
		if skip[s.Name()] {
			continue
		}
		r.Register(s.Name(), s)
	}
}
