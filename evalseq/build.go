// Package evalseq — flattening contraction trees into evaluation steps.
package evalseq

import (
	"fmt"
	"sort"

	"github.com/katalvlaran/einopt/cost"
	"github.com/katalvlaran/einopt/expr"
	"github.com/katalvlaran/einopt/parenth"
)

// Builder turns parenthesization trees into a Sequence. Every internal
// tree node becomes a fresh intermediate step unless it is
//
//   - deduplicated: a node whose canonical pattern matches an already
//     materialized intermediate reuses that intermediate's target, with
//     free indices remapped slot-wise and signs reconciled; or
//   - inlined: when InlineThreshold is set and the node's step cost is
//     strictly below it, the node's factors are folded into the parent
//     as one n-ary contraction instead of materializing.
//
// Trees for declared targets are accumulated per target (one tree per
// term) and emitted last by Finalize, after every intermediate they
// reference, keeping the arena in definition-before-use order.
type Builder struct {
	table *expr.RangeTable
	opts  BuildOptions
	namer *Namer
	seq   *Sequence

	dedup map[string]dedupEntry

	pending map[string]*pendingTarget
	order   []string
}

// dedupEntry records a materialized intermediate: its name and the ±1
// relation between the step's target value and the canonical arrangement.
type dedupEntry struct {
	name string
	sign float64
}

type pendingTarget struct {
	target expr.Factor
	terms  []expr.Term
	total  cost.Poly
}

// operand is the result of emitting a subtree, as consumed by its parent:
// factors to splice into the parent's term and a ±1 sign multiplier.
type operand struct {
	factors []expr.Factor
	sign    float64
}

// NewBuilder returns a builder over the given range table. A nil namer
// gets a fresh one with opts.Prefix; callers that pre-name intermediates
// elsewhere pass the shared namer so counters never collide.
func NewBuilder(table *expr.RangeTable, opts BuildOptions, namer *Namer) *Builder {
	if namer == nil {
		namer = NewNamer(opts.Prefix)
	}
	return &Builder{
		table:   table,
		opts:    opts,
		namer:   namer,
		seq:     NewSequence(),
		dedup:   make(map[string]dedupEntry),
		pending: make(map[string]*pendingTarget),
	}
}

// AddIntermediate appends a pre-named intermediate step (a factored-out
// subexpression) defined as coeff times the tree's contraction. The step
// is emitted immediately, so callers must add intermediates in dependency
// order.
func (b *Builder) AddIntermediate(target expr.Factor, coeff float64, root *parenth.Tree) error {
	if root == nil {
		return ErrNilTree
	}
	b.reserveLeaves(root)
	b.namer.Reserve(target.Base)
	term, mono, err := b.rootTerm(coeff, root)
	if err != nil {
		return err
	}
	_, err = b.seq.Append(Step{
		Target:       target.Clone(),
		Terms:        []expr.Term{term},
		Cost:         cost.FromMonom(mono),
		Intermediate: true,
	})
	return err
}

// AddTree registers one term of a declared target: coeff times the
// contraction computed by root. Intermediates for the tree's internal
// nodes are emitted immediately; the target's own step is deferred and
// appended by Finalize, merged with the target's other terms.
func (b *Builder) AddTree(target expr.Factor, coeff float64, root *parenth.Tree) error {
	if root == nil {
		return ErrNilTree
	}
	b.reserveLeaves(root)
	b.namer.Reserve(target.Base)
	term, mono, err := b.rootTerm(coeff, root)
	if err != nil {
		return err
	}
	pt, ok := b.pending[target.Base]
	if !ok {
		pt = &pendingTarget{target: target.Clone(), total: cost.Zero()}
		b.pending[target.Base] = pt
		b.order = append(b.order, target.Base)
	}
	pt.terms = append(pt.terms, term)
	pt.total = pt.total.AddMonom(mono)
	return nil
}

// Finalize appends the deferred target steps in first-seen order and
// returns the completed sequence. The builder must not be reused after.
func (b *Builder) Finalize() (*Sequence, error) {
	for _, name := range b.order {
		pt := b.pending[name]
		if _, err := b.seq.Append(Step{
			Target: pt.target,
			Terms:  pt.terms,
			Cost:   pt.total,
		}); err != nil {
			return nil, err
		}
	}
	b.pending = nil
	b.order = nil
	if err := b.seq.Validate(); err != nil {
		return nil, err
	}
	return b.seq, nil
}

// rootTerm builds the defining term for a tree's root. The root itself is
// never materialized as a separate intermediate: its factors and cost flow
// straight into the caller's step.
func (b *Builder) rootTerm(coeff float64, root *parenth.Tree) (expr.Term, cost.Monom, error) {
	if root.IsLeaf() && root.Step.Coeff == 0 {
		// Plain copy of an input; no arithmetic.
		return expr.Term{Coeff: coeff, Factors: []expr.Factor{root.Factor.Clone()}}, cost.Monom{}, nil
	}
	facs, sign, err := b.operandFactors(root)
	if err != nil {
		return expr.Term{}, cost.Monom{}, err
	}
	mono, err := b.stepCost(facs)
	if err != nil {
		return expr.Term{}, cost.Monom{}, err
	}
	return expr.Term{Coeff: coeff * sign, Factors: facs}, mono, nil
}

// operandFactors gathers the factors of node's defining term, recursing
// into children. Trace leaves count as defining terms of one factor.
func (b *Builder) operandFactors(node *parenth.Tree) ([]expr.Factor, float64, error) {
	if node.IsLeaf() {
		return []expr.Factor{node.Factor.Clone()}, 1, nil
	}
	left, err := b.emit(node.Left)
	if err != nil {
		return nil, 0, err
	}
	right, err := b.emit(node.Right)
	if err != nil {
		return nil, 0, err
	}
	facs := make([]expr.Factor, 0, len(left.factors)+len(right.factors))
	facs = append(facs, left.factors...)
	facs = append(facs, right.factors...)
	return facs, left.sign * right.sign, nil
}

// emit materializes (or inlines, or deduplicates) one subtree and returns
// the operand its parent splices in.
func (b *Builder) emit(node *parenth.Tree) (operand, error) {
	if node.IsLeaf() && node.Step.Coeff == 0 {
		return operand{factors: []expr.Factor{node.Factor.Clone()}, sign: 1}, nil
	}
	// Internal node or trace leaf: both define a computation.
	facs, sign, err := b.operandFactors(node)
	if err != nil {
		return operand{}, err
	}
	mono, err := b.stepCost(facs)
	if err != nil {
		return operand{}, err
	}
	if ok, err := b.inlinable(mono); err != nil {
		return operand{}, err
	} else if ok {
		return operand{factors: facs, sign: sign}, nil
	}

	ext := make(map[string]bool, len(node.Open))
	for _, ix := range node.Open {
		ext[ix.Name] = true
	}
	pat, err := expr.CanonPattern(expr.Term{Coeff: 1, Factors: facs}, ext)
	if err != nil {
		return operand{}, err
	}
	if ent, ok := b.dedup[pat.Key]; ok {
		// Same contraction already computed: reference it slot-wise.
		ref := expr.Factor{Base: ent.name, Indices: cloneIndices(pat.Free)}
		return operand{factors: []expr.Factor{ref}, sign: sign * float64(pat.Sign) * ent.sign}, nil
	}

	name := b.namer.Fresh()
	step := Step{
		Target:       expr.Factor{Base: name, Indices: cloneIndices(pat.Free)},
		Terms:        []expr.Term{{Coeff: sign, Factors: facs}},
		Cost:         cost.FromMonom(mono),
		Intermediate: true,
	}
	if _, err := b.seq.Append(step); err != nil {
		return operand{}, err
	}
	b.dedup[pat.Key] = dedupEntry{name: name, sign: sign * float64(pat.Sign)}
	return operand{
		factors: []expr.Factor{{Base: name, Indices: cloneIndices(pat.Free)}},
		sign:    1,
	}, nil
}

// stepCost prices one n-ary contraction: op factor times the product of
// the distinct index ranges across the term's factors.
func (b *Builder) stepCost(facs []expr.Factor) (cost.Monom, error) {
	seen := make(map[string]bool)
	var nest []expr.Index
	for _, f := range facs {
		for _, ix := range f.Indices {
			if !seen[ix.Name] {
				seen[ix.Name] = true
				nest = append(nest, ix)
			}
		}
	}
	sort.Slice(nest, func(i, j int) bool { return nest[i].Name < nest[j].Name })
	mono, err := cost.OpCost(b.table, nest, b.opts.OpFactor)
	if err != nil {
		return cost.Monom{}, fmt.Errorf("evalseq: step cost: %w", err)
	}
	return mono, nil
}

// inlinable reports whether a node with the given step cost folds into
// its parent rather than materializing.
func (b *Builder) inlinable(mono cost.Monom) (bool, error) {
	if b.opts.InlineThreshold.IsZero() {
		return false, nil
	}
	less, err := cost.LessThan(cost.FromMonom(mono), b.opts.InlineThreshold, b.opts.Policy)
	if err != nil {
		return false, fmt.Errorf("evalseq: inline threshold: %w", err)
	}
	return less, nil
}

func (b *Builder) reserveLeaves(node *parenth.Tree) {
	if node == nil {
		return
	}
	if node.IsLeaf() {
		b.namer.Reserve(node.Factor.Base)
		return
	}
	b.reserveLeaves(node.Left)
	b.reserveLeaves(node.Right)
}

func cloneIndices(ixs []expr.Index) []expr.Index {
	out := make([]expr.Index, len(ixs))
	copy(out, ixs)
	return out
}
