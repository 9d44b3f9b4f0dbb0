// Package factorize — the greedy rewrite loop and sequence emission.
package factorize

import (
	"fmt"

	"github.com/katalvlaran/einopt/cost"
	"github.com/katalvlaran/einopt/evalseq"
	"github.com/katalvlaran/einopt/expr"
	"github.com/katalvlaran/einopt/parenth"
)

type engine struct {
	table *expr.RangeTable
	opts  Options
	namer *evalseq.Namer

	works   []*workTree // targets first, then definitions in creation order
	targets int
}

// Run factors shared subexpressions out of the targets' contraction trees
// and emits the resulting evaluation sequence: extracted definitions in
// dependency order followed by the rewritten target steps.
//
// The input trees are cloned; callers keep their originals.
func Run(table *expr.RangeTable, targets []Target, opts Options) (*evalseq.Sequence, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	e := &engine{
		table:   table,
		opts:    opts,
		namer:   evalseq.NewNamer(opts.Prefix),
		targets: len(targets),
	}
	for i, tg := range targets {
		if tg.Tree == nil {
			return nil, fmt.Errorf("%w: target %d (%s)", ErrNilTargetTree, i, tg.Factor.String())
		}
		e.namer.Reserve(tg.Factor.Base)
		for _, f := range tg.Tree.Leaves() {
			e.namer.Reserve(f.Base)
		}
		e.works = append(e.works, &workTree{
			target: tg.Factor.Clone(),
			coeff:  tg.Coeff,
			root:   tg.Tree.Clone(),
		})
	}

	for iter := 0; iter < e.opts.MaxIterations; iter++ {
		ranked := e.groups(collect(e.works))
		if len(ranked) == 0 {
			break
		}
		e.commit(ranked[0])
	}
	return e.emit()
}

// commit extracts one candidate group: clones the first site as the
// definition and turns every site into a reference leaf. The canonical
// signs of definition and site reconcile through the owner's coefficient,
// so each owner's value is unchanged.
func (e *engine) commit(g group) {
	name := e.namer.Fresh()
	first := g.sites[0]
	def := &workTree{
		target: expr.Factor{Base: name, Indices: cloneIndices(first.pat.Free)},
		coeff:  1,
		root:   first.node.Clone(),
		synth:  true,
	}
	for _, s := range g.sites {
		s.owner.coeff *= float64(s.pat.Sign * first.pat.Sign)
		leafify(s.node, expr.Factor{Base: name, Indices: cloneIndices(s.pat.Free)})
		s.owner.root.Retotal()
	}
	e.works = append(e.works, def)
}

// leafify rewrites a node in place into a reference leaf. The node's open
// indices are untouched; ancestors contract the same index sets as before.
func leafify(n *parenth.Tree, ref expr.Factor) {
	n.Factor = ref
	n.Left = nil
	n.Right = nil
	n.Step = cost.Monom{}
	n.Total = cost.Zero()
}

// emit builds the sequence: definitions in dependency order (a definition
// extracted later may feed one extracted earlier), then the targets in
// their declared order.
func (e *engine) emit() (*evalseq.Sequence, error) {
	b := evalseq.NewBuilder(e.table, evalseq.BuildOptions{
		OpFactor:        e.opts.OpFactor,
		Policy:          e.opts.Policy,
		InlineThreshold: e.opts.InlineThreshold,
		Prefix:          e.opts.Prefix,
	}, e.namer)

	defs := make(map[string]*workTree)
	for _, w := range e.works[e.targets:] {
		defs[w.target.Base] = w
	}
	emitted := make(map[string]bool)
	var place func(w *workTree) error
	place = func(w *workTree) error {
		if emitted[w.target.Base] {
			return nil
		}
		emitted[w.target.Base] = true
		for _, f := range w.root.Leaves() {
			if dep, ok := defs[f.Base]; ok && dep != w {
				if err := place(dep); err != nil {
					return err
				}
			}
		}
		return b.AddIntermediate(w.target, w.coeff, w.root)
	}
	for _, w := range e.works[e.targets:] {
		if err := place(w); err != nil {
			return nil, err
		}
	}
	for _, w := range e.works[:e.targets] {
		if err := b.AddTree(w.target, w.coeff, w.root); err != nil {
			return nil, err
		}
	}
	return b.Finalize()
}

func cloneIndices(ixs []expr.Index) []expr.Index {
	out := make([]expr.Index, len(ixs))
	copy(out, ixs)
	return out
}
