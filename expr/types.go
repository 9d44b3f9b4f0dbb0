// Package expr — core types and sentinel errors for the tensor-algebra model.
//
// Design contract (strict):
//   - Sentinel errors only; callers match with errors.Is.
//   - No panics on data errors; panics are reserved for programmer misuse
//     of constructors (none exist here).
//   - All exported types are value types; nothing is mutated after
//     construction.
package expr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors returned by the expression model.
var (
	// ErrNilTable indicates a nil *RangeTable was supplied where one is required.
	ErrNilTable = errors.New("expr: range table is nil")

	// ErrDuplicateRange indicates two ranges with the same label were registered.
	ErrDuplicateRange = errors.New("expr: duplicate range label")

	// ErrBadRange indicates a range with an empty label or a negative size.
	ErrBadRange = errors.New("expr: invalid range")

	// ErrUnknownRange indicates an index refers to a range label absent
	// from the range table.
	ErrUnknownRange = errors.New("expr: unknown range")

	// ErrNoTerms indicates a tensor expression with an empty term list.
	ErrNoTerms = errors.New("expr: expression has no terms")

	// ErrEmptyTerm indicates a term with zero factors (a modeling error;
	// scalar factors are legal, factorless terms are not).
	ErrEmptyTerm = errors.New("expr: term has no factors")

	// ErrUnbalancedIndex indicates an index whose occurrence count breaks
	// the contraction invariant: summed indices occur exactly twice,
	// external indices exactly once.
	ErrUnbalancedIndex = errors.New("expr: unbalanced index occurrence")

	// ErrRangeMismatch indicates the same index name bound to two
	// different ranges within one term.
	ErrRangeMismatch = errors.New("expr: index bound to conflicting ranges")

	// ErrBadSymmetry indicates a declared slot permutation that is not a
	// valid permutation of the factor's slots, or a sign outside {-1,+1}.
	ErrBadSymmetry = errors.New("expr: invalid symmetry generator")

	// ErrSymmetryExplosion indicates the closure of the declared symmetry
	// generators exceeded GroupCap elements.
	ErrSymmetryExplosion = errors.New("expr: symmetry group too large")

	// ErrBadCoefficient indicates a NaN or infinite term coefficient.
	ErrBadCoefficient = errors.New("expr: coefficient is not finite")

	// ErrBadTarget indicates a malformed target: empty name or duplicate
	// external indices.
	ErrBadTarget = errors.New("expr: invalid target tensor")
)

// GroupCap bounds the closure of declared symmetry generators. Factors in
// practice carry small groups (pair swaps, column permutations); anything
// past this cap is a modeling error, not a search problem.
const GroupCap = 1024

// Range is an index domain: a label plus a size. Size > 0 is a concrete
// extent; Size == 0 marks the range as symbolic, sized by its own label
// (e.g. "nv" for the number of virtual orbitals). Immutable.
type Range struct {
	Label string // identity, e.g. "o" or "v"
	Size  int64  // concrete extent; 0 ⇒ symbolic
}

// Concrete reports whether the range has a numeric extent.
func (r Range) Concrete() bool { return r.Size > 0 }

// RangeTable is a label → Range registry with deterministic iteration.
type RangeTable struct {
	m map[string]Range
}

// NewRangeTable builds a table from the given ranges.
// Returns ErrBadRange on an empty label or negative size, and
// ErrDuplicateRange when two ranges share a label.
func NewRangeTable(ranges ...Range) (*RangeTable, error) {
	t := &RangeTable{m: make(map[string]Range, len(ranges))}
	for _, r := range ranges {
		if r.Label == "" || r.Size < 0 {
			return nil, fmt.Errorf("%w: label=%q size=%d", ErrBadRange, r.Label, r.Size)
		}
		if _, dup := t.m[r.Label]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRange, r.Label)
		}
		t.m[r.Label] = r
	}
	return t, nil
}

// Lookup returns the range registered under label.
func (t *RangeTable) Lookup(label string) (Range, bool) {
	if t == nil {
		return Range{}, false
	}
	r, ok := t.m[label]
	return r, ok
}

// Labels returns all registered labels in ascending order.
func (t *RangeTable) Labels() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.m))
	for l := range t.m {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered ranges.
func (t *RangeTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.m)
}

// Index is a bound variable drawn from exactly one Range.
type Index struct {
	Name  string // bound variable name, e.g. "i"
	Range string // label of the owning range
}

// String renders the index as name only; the range is implied by context.
func (i Index) String() string { return i.Name }

// Perm is one symmetry generator on a factor's index slots: applying it
// rearranges slots as new[k] = old[Slots[k]] and scales the value by Sign.
type Perm struct {
	Slots []int // image of each slot; must be a permutation of 0..n-1
	Sign  int   // +1 (symmetric) or -1 (antisymmetric)
}

// Identity returns the identity permutation over n slots.
func Identity(n int) Perm {
	p := Perm{Slots: make([]int, n), Sign: 1}
	for i := range p.Slots {
		p.Slots[i] = i
	}
	return p
}

// Factor is a reference to a base tensor symbol with an ordered list of
// index slots and the declared slot-symmetry generators, as supplied by the
// upstream algebra layer.
type Factor struct {
	Base    string
	Indices []Index
	Symms   []Perm // declared generators; nil ⇒ asymmetric
}

// Arity returns the number of index slots.
func (f Factor) Arity() int { return len(f.Indices) }

// Names returns the slot index names in slot order.
func (f Factor) Names() []string {
	out := make([]string, len(f.Indices))
	for i, ix := range f.Indices {
		out[i] = ix.Name
	}
	return out
}

// String renders the factor as base[i,j,...] (or bare base for scalars).
func (f Factor) String() string {
	if len(f.Indices) == 0 {
		return f.Base
	}
	return f.Base + "[" + strings.Join(f.Names(), ",") + "]"
}

// Clone returns a deep copy of the factor.
func (f Factor) Clone() Factor {
	cp := Factor{Base: f.Base, Indices: append([]Index(nil), f.Indices...)}
	if f.Symms != nil {
		cp.Symms = make([]Perm, len(f.Symms))
		for i, p := range f.Symms {
			cp.Symms[i] = Perm{Slots: append([]int(nil), p.Slots...), Sign: p.Sign}
		}
	}
	return cp
}

// Term is a scalar coefficient times a product of factors. The partition of
// its indices into external and summed is induced by the enclosing target.
type Term struct {
	Coeff   float64
	Factors []Factor
}

// Clone returns a deep copy of the term.
func (t Term) Clone() Term {
	cp := Term{Coeff: t.Coeff, Factors: make([]Factor, len(t.Factors))}
	for i, f := range t.Factors {
		cp.Factors[i] = f.Clone()
	}
	return cp
}

// String renders the term as coeff*f1*f2*..., with the coefficient omitted
// when it is exactly 1.
func (t Term) String() string {
	parts := make([]string, 0, len(t.Factors)+1)
	if t.Coeff != 1 {
		parts = append(parts, fmt.Sprintf("%g", t.Coeff))
	}
	for _, f := range t.Factors {
		parts = append(parts, f.String())
	}
	if len(parts) == 0 {
		parts = append(parts, "1")
	}
	return strings.Join(parts, "*")
}

// TensorExpr is a target tensor (name, external index list and optional
// declared result symmetry) equal to a sum of terms sharing that external
// index set.
type TensorExpr struct {
	Target Factor
	Terms  []Term
}

// Clone returns a deep copy of the expression.
func (e TensorExpr) Clone() TensorExpr {
	cp := TensorExpr{Target: e.Target.Clone(), Terms: make([]Term, len(e.Terms))}
	for i, t := range e.Terms {
		cp.Terms[i] = t.Clone()
	}
	return cp
}
