// Package expr — index bookkeeping helpers shared by the optimizer stages.
//
// These helpers answer the two questions every stage keeps asking about a
// term: which indices does it touch, and which of them are summed away.
// They are pure, allocation-conscious and deterministic (sorted outputs).
package expr

import "sort"

// ExternalSet returns the set of external index names declared by the
// target's slot list.
func (e TensorExpr) ExternalSet() map[string]bool {
	ext := make(map[string]bool, len(e.Target.Indices))
	for _, ix := range e.Target.Indices {
		ext[ix.Name] = true
	}
	return ext
}

// IndexOccurrences counts, per index name, how many slots of the term bind
// that name (a trace contributes two occurrences from one factor).
//
// Complexity: O(total slots).
func (t Term) IndexOccurrences() map[string]int {
	occ := make(map[string]int)
	for _, f := range t.Factors {
		for _, ix := range f.Indices {
			occ[ix.Name]++
		}
	}
	return occ
}

// Indices returns every distinct index of the term, sorted by name.
// The range of each name is taken from its first occurrence.
func (t Term) Indices() []Index {
	seen := make(map[string]Index)
	for _, f := range t.Factors {
		for _, ix := range f.Indices {
			if _, ok := seen[ix.Name]; !ok {
				seen[ix.Name] = ix
			}
		}
	}
	out := make([]Index, 0, len(seen))
	for _, ix := range seen {
		out = append(out, ix)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SummedIndices returns the term's contracted indices — every index not in
// the external set — sorted by name.
func (t Term) SummedIndices(ext map[string]bool) []Index {
	all := t.Indices()
	out := make([]Index, 0, len(all))
	for _, ix := range all {
		if !ext[ix.Name] {
			out = append(out, ix)
		}
	}
	return out
}

// ExternalIndices returns the term's free indices — those in the external
// set — sorted by name.
func (t Term) ExternalIndices(ext map[string]bool) []Index {
	all := t.Indices()
	out := make([]Index, 0, len(all))
	for _, ix := range all {
		if ext[ix.Name] {
			out = append(out, ix)
		}
	}
	return out
}

// Rename returns a copy of the term with every index name mapped through
// sub; names absent from sub pass through unchanged. Ranges are preserved.
func (t Term) Rename(sub map[string]string) Term {
	cp := t.Clone()
	for fi := range cp.Factors {
		for si := range cp.Factors[fi].Indices {
			if to, ok := sub[cp.Factors[fi].Indices[si].Name]; ok {
				cp.Factors[fi].Indices[si].Name = to
			}
		}
	}
	return cp
}

// Scale returns a copy of the term with the coefficient multiplied by c.
func (t Term) Scale(c float64) Term {
	cp := t.Clone()
	cp.Coeff *= c
	return cp
}
