// Package symmetrize — the merge pass.
package symmetrize

import (
	"fmt"

	"github.com/katalvlaran/einopt/evalseq"
	"github.com/katalvlaran/einopt/expr"
)

// Run folds intermediates equal up to free-slot permutation and sign
// into the earliest equivalent step, rewriting consumers in place. It
// reports how many steps were removed. Declared targets are never
// folded, only their inputs change.
func Run(seq *evalseq.Sequence, opts Options) (int, error) {
	if seq == nil {
		return 0, ErrNilSequence
	}
	if err := opts.validate(); err != nil {
		return 0, err
	}
	merged := 0
	for {
		did, err := pass(seq, opts)
		if err != nil {
			return merged, err
		}
		if !did {
			return merged, nil
		}
		merged++
	}
}

// pass scans the live steps in arena order and performs at most one
// merge. One merge per scan keeps later signatures honest: folding a
// step rewrites its consumers, which may change their signatures too.
func pass(seq *evalseq.Sequence, opts Options) (bool, error) {
	type match struct {
		id  int
		arr arrangement
	}
	seen := make(map[string]match)
	for _, st := range seq.Steps() {
		if !st.Intermediate {
			continue
		}
		sig, arr, ok, err := signature(st, opts.MaxFreeSlots)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}
		prev, dup := seen[sig]
		if !dup {
			seen[sig] = match{id: st.ID, arr: arr}
			continue
		}
		if err := merge(seq, prev.id, prev.arr, st, arr); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// merge removes the victim step and rewires every reference to it onto
// the survivor. With au, av the arrangements relating survivor and
// victim to the shared canonical form, a reference victim[x0..] maps
// slot av[j] of its indices to slot au[j] of the survivor, and the term
// coefficient scales by the signs' product.
func merge(seq *evalseq.Sequence, survivorID int, au arrangement, victim evalseq.Step, av arrangement) error {
	survivor, ok := seq.Step(survivorID)
	if !ok {
		return fmt.Errorf("%w: survivor %d vanished", ErrMergeBroke, survivorID)
	}
	mark := seq.Checkpoint()
	relSign := au.sign * av.sign

	for _, st := range seq.Steps() {
		if st.ID == victim.ID {
			continue
		}
		changed := false
		cp := st.Clone()
		for ti := range cp.Terms {
			for fi, f := range cp.Terms[ti].Factors {
				if f.Base != victim.Target.Base {
					continue
				}
				w := make([]expr.Index, len(f.Indices))
				for j := range f.Indices {
					w[au.slots[j]] = f.Indices[av.slots[j]]
				}
				cp.Terms[ti].Factors[fi] = expr.Factor{Base: survivor.Target.Base, Indices: w}
				cp.Terms[ti].Coeff *= relSign
				changed = true
			}
		}
		if !changed {
			continue
		}
		if err := seq.Replace(st.ID, cp); err != nil {
			return err
		}
	}
	if err := seq.Remove(victim.ID); err != nil {
		return err
	}
	if err := seq.Validate(); err != nil {
		if rbErr := seq.Rollback(mark); rbErr != nil {
			return rbErr
		}
		return fmt.Errorf("%w: %v", ErrMergeBroke, err)
	}
	return nil
}
