// Package expr — strict modeling-error validation.
//
// Validate is the single gate between the upstream algebra layer and the
// optimizer: everything downstream assumes its invariants hold and never
// re-checks them. Errors are sentinels from types.go wrapped with enough
// context to identify the offending term, index or generator.
//
// Complexity: O(total slots + total generators · arity).
package expr

import (
	"fmt"
	"math"
)

// Validate checks a tensor expression against the contraction invariants:
//
//   - the target has a non-empty name, distinct external indices and known
//     ranges;
//   - every term has at least one factor and a finite coefficient;
//   - within each term, every external index occurs exactly once and every
//     other index exactly twice (a trace counts as two occurrences in one
//     factor);
//   - an index name is bound to the same range everywhere it appears;
//   - declared symmetry generators are valid slot permutations with sign ±1.
//
// The first violation is returned; nil means the expression is well formed.
func Validate(table *RangeTable, e TensorExpr) error {
	if table == nil {
		return ErrNilTable
	}
	if err := validateTarget(table, e.Target); err != nil {
		return err
	}
	if len(e.Terms) == 0 {
		return fmt.Errorf("%w: target %s", ErrNoTerms, e.Target.String())
	}
	ext := e.ExternalSet()
	for ti, t := range e.Terms {
		if err := validateTerm(table, t, ext, ti); err != nil {
			return err
		}
	}
	return nil
}

// validateTarget checks the result tensor declaration.
func validateTarget(table *RangeTable, target Factor) error {
	if target.Base == "" {
		return fmt.Errorf("%w: empty name", ErrBadTarget)
	}
	seen := make(map[string]bool, len(target.Indices))
	for _, ix := range target.Indices {
		if seen[ix.Name] {
			return fmt.Errorf("%w: duplicate external index %q", ErrBadTarget, ix.Name)
		}
		seen[ix.Name] = true
		if _, ok := table.Lookup(ix.Range); !ok {
			return fmt.Errorf("%w: %q (external index %q)", ErrUnknownRange, ix.Range, ix.Name)
		}
	}
	return validateSymms(target, -1)
}

// validateTerm checks one term of the sum.
func validateTerm(table *RangeTable, t Term, ext map[string]bool, ti int) error {
	if len(t.Factors) == 0 {
		return fmt.Errorf("%w: term %d", ErrEmptyTerm, ti)
	}
	if math.IsNaN(t.Coeff) || math.IsInf(t.Coeff, 0) {
		return fmt.Errorf("%w: term %d coeff %v", ErrBadCoefficient, ti, t.Coeff)
	}
	// One pass over all slots: occurrence counts, range consistency,
	// range-table membership.
	occ := make(map[string]int)
	rng := make(map[string]string)
	for _, f := range t.Factors {
		for _, ix := range f.Indices {
			occ[ix.Name]++
			if prev, ok := rng[ix.Name]; ok && prev != ix.Range {
				return fmt.Errorf("%w: term %d index %q bound to %q and %q",
					ErrRangeMismatch, ti, ix.Name, prev, ix.Range)
			}
			rng[ix.Name] = ix.Range
			if _, ok := table.Lookup(ix.Range); !ok {
				return fmt.Errorf("%w: %q (term %d index %q)", ErrUnknownRange, ix.Range, ti, ix.Name)
			}
		}
		if err := validateSymms(f, ti); err != nil {
			return err
		}
	}
	// Occurrence invariant: external exactly once, summed exactly twice.
	for name, n := range occ {
		want := 2
		if ext[name] {
			want = 1
		}
		if n != want {
			return fmt.Errorf("%w: term %d (%s) index %q occurs %d times, want %d",
				ErrUnbalancedIndex, ti, t.String(), name, n, want)
		}
	}
	// Every declared external must be bound: a term that never touches one
	// of the target's indices slips past the count loop above.
	for name := range ext {
		if occ[name] == 0 {
			return fmt.Errorf("%w: term %d (%s) never binds external index %q",
				ErrUnbalancedIndex, ti, t.String(), name)
		}
	}
	return nil
}

// validateSymms checks the declared generators of one factor; ti == -1
// marks the target tensor in error messages.
func validateSymms(f Factor, ti int) error {
	where := fmt.Sprintf("term %d", ti)
	if ti < 0 {
		where = "target"
	}
	for gi, p := range f.Symms {
		if p.Sign != 1 && p.Sign != -1 {
			return fmt.Errorf("%w: %s factor %s generator %d sign %d",
				ErrBadSymmetry, where, f.Base, gi, p.Sign)
		}
		if len(p.Slots) != f.Arity() {
			return fmt.Errorf("%w: %s factor %s generator %d has %d slots, arity %d",
				ErrBadSymmetry, where, f.Base, gi, len(p.Slots), f.Arity())
		}
		seen := make([]bool, f.Arity())
		for _, s := range p.Slots {
			if s < 0 || s >= f.Arity() || seen[s] {
				return fmt.Errorf("%w: %s factor %s generator %d is not a permutation",
					ErrBadSymmetry, where, f.Base, gi)
			}
			seen[s] = true
		}
	}
	return nil
}
