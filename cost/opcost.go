// Package cost — the per-step cost function called inside the search.
package cost

import (
	"fmt"

	"github.com/katalvlaran/einopt/expr"
)

// DefaultOpFactor is the multiply-add scaling applied to every step cost:
// each point of the loop nest performs one multiplication and one addition.
const DefaultOpFactor = 2

// OpCost returns the cost monomial of one pairwise (or small n-ary)
// contraction step: opFactor times the product of the range sizes of every
// distinct index in the step's loop nest — all free indices of the partial
// result plus all indices summed at the step. Concrete sizes fold into the
// coefficient; symbolic ranges contribute exponents keyed by their label.
//
// Pure, no allocation beyond the result; O(len(indices)).
func OpCost(table *expr.RangeTable, indices []expr.Index, opFactor float64) (Monom, error) {
	m := NewMonom(opFactor)
	seen := make(map[string]bool, len(indices))
	for _, ix := range indices {
		if seen[ix.Name] {
			continue
		}
		seen[ix.Name] = true
		r, ok := table.Lookup(ix.Range)
		if !ok {
			return Monom{}, fmt.Errorf("%w: %q (index %q)", ErrUnknownRange, ix.Range, ix.Name)
		}
		if r.Concrete() {
			m.Coeff *= float64(r.Size)
			continue
		}
		m = m.MulSymbol(r.Label)
	}
	return m, nil
}
