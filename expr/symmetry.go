// Package expr — symmetry-group closure and canonical factor forms.
//
// Declared symmetries arrive as generators; stages that match structures up
// to symmetry need the full group and a canonical representative. The
// closure is bounded by GroupCap: practical tensors carry tiny groups (pair
// swaps, antisymmetrized slot blocks), so hitting the cap is a modeling
// error rather than a search problem.
package expr

import (
	"fmt"
	"strings"
)

// ApplyPerm rearranges a slot list: out[i] = in[p.Slots[i]].
// The caller guarantees len(in) == len(p.Slots).
func ApplyPerm(in []Index, p Perm) []Index {
	out := make([]Index, len(in))
	for i, s := range p.Slots {
		out[i] = in[s]
	}
	return out
}

// composePerm returns the permutation "p then q" (apply p to the original
// arrangement, then q to the result), with signs multiplied.
func composePerm(p, q Perm) Perm {
	out := Perm{Slots: make([]int, len(p.Slots)), Sign: p.Sign * q.Sign}
	for i, s := range q.Slots {
		out.Slots[i] = p.Slots[s]
	}
	return out
}

// permKey encodes the slot image for closure bookkeeping (sign excluded:
// a permutation appearing with both signs makes the factor identically
// zero upstream, which the canonicalizer has already removed).
func permKey(p Perm) string {
	var b strings.Builder
	for _, s := range p.Slots {
		fmt.Fprintf(&b, "%d.", s)
	}
	return b.String()
}

// PermGroup returns the closure of the given generators over arity slots,
// identity included, in a deterministic (BFS discovery) order.
// Returns ErrSymmetryExplosion when the closure exceeds GroupCap.
//
// Complexity: O(|group| · |gens| · arity).
func PermGroup(arity int, gens []Perm) ([]Perm, error) {
	id := Identity(arity)
	group := []Perm{id}
	seen := map[string]bool{permKey(id): true}
	// Plain BFS over right-composition with every generator.
	for head := 0; head < len(group); head++ {
		for _, g := range gens {
			next := composePerm(group[head], g)
			k := permKey(next)
			if seen[k] {
				continue
			}
			seen[k] = true
			group = append(group, next)
			if len(group) > GroupCap {
				return nil, fmt.Errorf("%w: arity %d, >%d elements", ErrSymmetryExplosion, arity, GroupCap)
			}
		}
	}
	return group, nil
}

// CanonicalFactor returns the factor rearranged into the lexicographically
// minimal index-name sequence reachable through its declared symmetry
// group, together with the sign of the chosen group element. The returned
// factor keeps the original generators so later stages can canonicalize
// again after renaming.
//
// Complexity: O(|group| · arity).
func CanonicalFactor(f Factor) (Factor, int, error) {
	if len(f.Symms) == 0 || f.Arity() < 2 {
		return f.Clone(), 1, nil
	}
	group, err := PermGroup(f.Arity(), f.Symms)
	if err != nil {
		return Factor{}, 0, err
	}
	best := f.Indices
	sign := 1
	for _, p := range group[1:] {
		cand := ApplyPerm(f.Indices, p)
		if lessNames(cand, best) {
			best = cand
			sign = p.Sign
		}
	}
	cp := f.Clone()
	cp.Indices = append([]Index(nil), best...)
	return cp, sign, nil
}

// lessNames compares two equal-length slot lists by name sequence.
func lessNames(a, b []Index) bool {
	for i := range a {
		if a[i].Name != b[i].Name {
			return a[i].Name < b[i].Name
		}
	}
	return false
}
