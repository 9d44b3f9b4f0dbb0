// Package parenth — types, options and sentinel errors for the search.
package parenth

import (
	"errors"
	"math/bits"

	"github.com/katalvlaran/einopt/cost"
	"github.com/katalvlaran/einopt/expr"
)

// Sentinel errors returned by the contraction-order search.
var (
	// ErrNoFactors indicates a term with zero factors (a modeling error).
	ErrNoFactors = errors.New("parenth: term has no factors")

	// ErrTooManyFactors indicates a term whose factor count exceeds the
	// fixed bitset width MaxFactors.
	ErrTooManyFactors = errors.New("parenth: too many factors for subset search")
)

// MaxFactors is the fixed bitset width: the largest factor count one term
// may carry. Raising it means widening Mask, not changing the algorithm.
const MaxFactors = 64

// Mask is a subset of factor ordinals encoded in one machine word.
// All operations are O(1).
type Mask uint64

// Single returns the mask containing exactly ordinal i.
func Single(i int) Mask { return Mask(1) << uint(i) }

// Has reports membership of ordinal i.
func (m Mask) Has(i int) bool { return m&Single(i) != 0 }

// Union returns m ∪ o.
func (m Mask) Union(o Mask) Mask { return m | o }

// Intersect returns m ∩ o.
func (m Mask) Intersect(o Mask) Mask { return m & o }

// Without returns m \ o.
func (m Mask) Without(o Mask) Mask { return m &^ o }

// Count returns |m|.
func (m Mask) Count() int { return bits.OnesCount64(uint64(m)) }

// Lowest returns the mask holding only m's lowest set bit.
func (m Mask) Lowest() Mask { return m & (-m) }

// Options configures one search run.
//
// OpFactor — constant scaling of every step cost (2 counts multiply+add).
// Policy   — how incomparable symbolic costs are resolved (see cost).
type Options struct {
	OpFactor float64
	Policy   cost.Policy
}

// DefaultOptions returns the canonical configuration: multiply-add
// counting and strict symbolic comparison.
func DefaultOptions() Options {
	return Options{OpFactor: cost.DefaultOpFactor, Policy: cost.PolicyStrict}
}

// Tree is one node of a binary contraction tree. Leaves carry the original
// factor (or, after factoring rewrites, an intermediate reference);
// internal nodes record the pairwise step combining their children.
type Tree struct {
	Factor expr.Factor // leaf payload; meaningful when Left == nil
	Left   *Tree
	Right  *Tree

	// Open lists the node result's free indices — indices still needed by
	// factors outside this subtree or external to the whole term — sorted
	// by name for determinism.
	Open []expr.Index

	// Step is the cost of the single contraction producing this node
	// (zero-coefficient for plain leaves; the diagonal pass for traces).
	Step cost.Monom

	// Total is the cumulative cost of the whole subtree.
	Total cost.Poly
}

// IsLeaf reports whether the node is a leaf.
func (t *Tree) IsLeaf() bool { return t.Left == nil }

// Leaves appends the subtree's leaf factors left-to-right.
func (t *Tree) Leaves() []expr.Factor {
	return t.appendLeaves(nil)
}

func (t *Tree) appendLeaves(acc []expr.Factor) []expr.Factor {
	if t.IsLeaf() {
		return append(acc, t.Factor)
	}
	return t.Right.appendLeaves(t.Left.appendLeaves(acc))
}

// Term renders the subtree as a coefficient-1 product of its leaf factors.
func (t *Tree) Term() expr.Term {
	return expr.Term{Coeff: 1, Factors: t.Leaves()}
}

// Internal appends every internal node of the subtree in post-order
// (children before parents), the order in which steps must be emitted.
func (t *Tree) Internal() []*Tree {
	return t.appendInternal(nil)
}

func (t *Tree) appendInternal(acc []*Tree) []*Tree {
	if t.IsLeaf() {
		return acc
	}
	acc = t.Left.appendInternal(acc)
	acc = t.Right.appendInternal(acc)
	return append(acc, t)
}

// Retotal recomputes Total bottom-up from Step and children, after a
// rewrite replaced part of the subtree.
func (t *Tree) Retotal() {
	if t.IsLeaf() {
		t.Total = cost.FromMonom(t.Step)
		return
	}
	t.Left.Retotal()
	t.Right.Retotal()
	t.Total = t.Left.Total.Add(t.Right.Total).AddMonom(t.Step)
}

// Clone deep-copies the subtree.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	cp := &Tree{
		Factor: t.Factor.Clone(),
		Left:   t.Left.Clone(),
		Right:  t.Right.Clone(),
		Open:   append([]expr.Index(nil), t.Open...),
		Step:   t.Step,
		Total:  t.Total,
	}
	return cp
}
