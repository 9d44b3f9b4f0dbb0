// Package parenth — the subset dynamic program.
//
// Hot-path discipline: the per-subset open-index sets are recomputed from
// per-index occupancy masks (two AND/ANDN tests per index) instead of being
// stored per subset, trading a little CPU inside the O(3ⁿ) loop for O(2ⁿ)
// instead of O(2ⁿ·I) memory.
package parenth

import (
	"fmt"
	"sort"

	"github.com/katalvlaran/einopt/cost"
	"github.com/katalvlaran/einopt/expr"
)

// indexInfo is the per-distinct-index bookkeeping the search runs on.
type indexInfo struct {
	index    expr.Index
	occupied Mask // factors whose slot list binds this name
	external bool // appears in the whole expression's result
}

// cell is one DP table entry: the cheapest way to contract subset S.
type cell struct {
	set         bool
	total       cost.Poly
	left, right Mask // chosen split (left holds S's lowest bit); 0 for singletons
	openCount   int  // |open(left)| + |open(right)| of the chosen split
}

// searcher carries the immutable inputs and the DP table of one run.
type searcher struct {
	table   *expr.RangeTable
	factors []expr.Factor
	infos   []indexInfo
	opts    Options
	cells   []cell
}

// Search returns the minimal-cost binary contraction tree for the term,
// given the external index set of the enclosing expression.
//
// Errors: ErrNoFactors, ErrTooManyFactors, cost.ErrIncomparableCost (under
// cost.PolicyStrict with undecidable symbolic sizes), cost.ErrUnknownRange.
//
// Complexity: O(3ⁿ·I) time, O(2ⁿ) memory; see the package comment.
func Search(table *expr.RangeTable, term expr.Term, ext map[string]bool, opts Options) (*Tree, error) {
	n := len(term.Factors)
	if n == 0 {
		return nil, ErrNoFactors
	}
	if n > MaxFactors {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyFactors, n, MaxFactors)
	}

	s := &searcher{
		table:   table,
		factors: term.Factors,
		infos:   collectIndexInfo(term, ext),
		opts:    opts,
		cells:   make([]cell, 1<<uint(n)),
	}
	if err := s.run(); err != nil {
		return nil, err
	}
	return s.build(Mask(1<<uint(n)) - 1)
}

// collectIndexInfo builds per-index occupancy masks, sorted by name.
func collectIndexInfo(term expr.Term, ext map[string]bool) []indexInfo {
	byName := make(map[string]*indexInfo)
	for fi, f := range term.Factors {
		for _, ix := range f.Indices {
			info, ok := byName[ix.Name]
			if !ok {
				info = &indexInfo{index: ix, external: ext[ix.Name]}
				byName[ix.Name] = info
			}
			info.occupied = info.occupied.Union(Single(fi))
		}
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]indexInfo, len(names))
	for i, name := range names {
		out[i] = *byName[name]
	}
	return out
}

// open returns the indices of subset S's result: touched by S and either
// external or still needed by a factor outside S. Sorted by name (infos
// are kept sorted).
func (s *searcher) open(set Mask) []expr.Index {
	var out []expr.Index
	for _, info := range s.infos {
		if info.occupied.Intersect(set) == 0 {
			continue
		}
		if info.external || info.occupied.Without(set) != 0 {
			out = append(out, info.index)
		}
	}
	return out
}

// stepIndices returns open(a) ∪ open(b) — every index in the loop nest of
// the step combining a and b: free indices of either operand's result,
// which covers both the step's surviving indices and the ones it sums away.
func (s *searcher) stepIndices(a, b Mask) []expr.Index {
	var out []expr.Index
	for _, info := range s.infos {
		ina := info.occupied.Intersect(a) != 0 && (info.external || info.occupied.Without(a) != 0)
		inb := info.occupied.Intersect(b) != 0 && (info.external || info.occupied.Without(b) != 0)
		if ina || inb {
			out = append(out, info.index)
		}
	}
	return out
}

// run fills the DP table in increasing subset order (every proper submask
// of S is numerically smaller than S, so dependencies are ready).
func (s *searcher) run() error {
	n := len(s.factors)
	full := Mask(1<<uint(n)) - 1
	for set := Mask(1); set <= full; set++ {
		var err error
		if set.Count() == 1 {
			err = s.initLeaf(set)
		} else {
			err = s.fill(set)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// initLeaf seeds a singleton subset; a trace index (both occurrences in
// this one factor, not external) is closed here with a one-pass cost.
func (s *searcher) initLeaf(set Mask) error {
	ord := 0
	for !set.Has(ord) {
		ord++
	}
	c := &s.cells[set]
	c.set = true
	c.total = cost.Zero()
	if traced, all := s.leafTrace(set, ord); traced {
		m, err := cost.OpCost(s.table, all, s.opts.OpFactor)
		if err != nil {
			return err
		}
		c.total = cost.FromMonom(m)
	}
	return nil
}

// leafTrace reports whether factor ord closes a trace at its own leaf and
// returns the factor's distinct indices for the diagonal-pass cost.
func (s *searcher) leafTrace(set Mask, ord int) (bool, []expr.Index) {
	occ := make(map[string]int)
	for _, ix := range s.factors[ord].Indices {
		occ[ix.Name]++
	}
	traced := false
	for _, info := range s.infos {
		if info.occupied != set || info.external {
			continue
		}
		if occ[info.index.Name] == 2 {
			traced = true
		}
	}
	if !traced {
		return false, nil
	}
	var all []expr.Index
	for _, info := range s.infos {
		if info.occupied.Intersect(set) != 0 {
			all = append(all, info.index)
		}
	}
	return true, all
}

// fill computes best[set] over every split; the lowest set bit is pinned
// to the left operand so each unordered split is tried exactly once.
func (s *searcher) fill(set Mask) error {
	low := set.Lowest()
	c := &s.cells[set]
	for sub := (set - 1) & set; sub > 0; sub = (sub - 1) & set {
		if sub.Intersect(low) == 0 {
			continue
		}
		other := set.Without(sub)
		stepIxs := s.stepIndices(sub, other)
		step, err := cost.OpCost(s.table, stepIxs, s.opts.OpFactor)
		if err != nil {
			return err
		}
		total := s.cells[sub].total.Add(s.cells[other].total).AddMonom(step)
		openCount := len(s.open(sub)) + len(s.open(other))

		if !c.set {
			*c = cell{set: true, total: total, left: sub, right: other, openCount: openCount}
			continue
		}
		ord, err := cost.Compare(total, c.total, s.opts.Policy)
		if err != nil {
			return fmt.Errorf("parenth: comparing split costs: %w", err)
		}
		switch {
		case ord == cost.Less:
			*c = cell{set: true, total: total, left: sub, right: other, openCount: openCount}
		case ord == cost.Equal && openCount < c.openCount:
			*c = cell{set: true, total: total, left: sub, right: other, openCount: openCount}
		case ord == cost.Equal && openCount == c.openCount && sub < c.left:
			*c = cell{set: true, total: total, left: sub, right: other, openCount: openCount}
		}
	}
	return nil
}

// build materializes the chosen tree for subset set.
func (s *searcher) build(set Mask) (*Tree, error) {
	c := s.cells[set]
	if set.Count() == 1 {
		ord := 0
		for !set.Has(ord) {
			ord++
		}
		leaf := &Tree{
			Factor: s.factors[ord].Clone(),
			Open:   s.open(set),
			Total:  c.total,
		}
		if ms := c.total.Monoms(); len(ms) == 1 {
			leaf.Step = ms[0] // trace closed at the leaf
		}
		return leaf, nil
	}
	left, err := s.build(c.left)
	if err != nil {
		return nil, err
	}
	right, err := s.build(c.right)
	if err != nil {
		return nil, err
	}
	step, err := cost.OpCost(s.table, s.stepIndices(c.left, c.right), s.opts.OpFactor)
	if err != nil {
		return nil, err
	}
	return &Tree{
		Left:  left,
		Right: right,
		Open:  s.open(set),
		Step:  step,
		Total: c.total,
	}, nil
}

// NaiveCost returns the cost of the fixed left-to-right contraction order,
// the baseline the optimum must never exceed.
func NaiveCost(table *expr.RangeTable, term expr.Term, ext map[string]bool, opts Options) (cost.Poly, error) {
	n := len(term.Factors)
	if n == 0 {
		return cost.Poly{}, ErrNoFactors
	}
	if n > MaxFactors {
		return cost.Poly{}, fmt.Errorf("%w: %d > %d", ErrTooManyFactors, n, MaxFactors)
	}
	s := &searcher{
		table:   table,
		factors: term.Factors,
		infos:   collectIndexInfo(term, ext),
		opts:    opts,
	}
	total := cost.Zero()
	// Leaf traces close first, exactly as the optimizer charges them.
	for i := 0; i < n; i++ {
		if traced, all := s.leafTrace(Single(i), i); traced {
			m, err := cost.OpCost(table, all, opts.OpFactor)
			if err != nil {
				return cost.Poly{}, err
			}
			total = total.AddMonom(m)
		}
	}
	acc := Single(0)
	for i := 1; i < n; i++ {
		step, err := cost.OpCost(table, s.stepIndices(acc, Single(i)), opts.OpFactor)
		if err != nil {
			return cost.Poly{}, err
		}
		total = total.AddMonom(step)
		acc = acc.Union(Single(i))
	}
	return total, nil
}
