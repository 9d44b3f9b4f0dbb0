// Package optimize — the pipeline.
package optimize

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/einopt/cost"
	"github.com/katalvlaran/einopt/expr"
	"github.com/katalvlaran/einopt/factorize"
	"github.com/katalvlaran/einopt/parenth"
	"github.com/katalvlaran/einopt/symmetrize"
	"github.com/katalvlaran/einopt/verify"
)

// Optimize runs the full pipeline over the given expressions and returns
// the optimized evaluation sequence. All expressions are validated up
// front; every validation failure is reported, not just the first.
func Optimize(table *expr.RangeTable, exprs []expr.TensorExpr, opts ...Option) (*Result, error) {
	cfg := DefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := validateInput(table, exprs); err != nil {
		return nil, err
	}

	targets, err := parenthesize(table, exprs, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "optimize: parenthesize")
	}

	seq, err := factorize.Run(table, targets, factorize.Options{
		OpFactor:        cfg.OpFactor,
		Policy:          cfg.Policy,
		MaxIterations:   cfg.FactorIterations,
		MaterializeCost: cfg.MaterializeCost,
		Seed:            cfg.Seed,
		InlineThreshold: cfg.InlineThreshold,
		Prefix:          cfg.Prefix,
	})
	if err != nil {
		return nil, errors.Wrap(err, "optimize: factor")
	}

	merged := 0
	if cfg.Symmetrize {
		merged, err = symmetrize.Run(seq, symmetrize.Options{MaxFreeSlots: cfg.MaxFreeSlots})
		if err != nil {
			return nil, errors.Wrap(err, "optimize: symmetrize")
		}
	}

	if cfg.Verify {
		vopts := verify.DefaultOptions()
		vopts.Epsilon = cfg.Epsilon
		if err := verify.Check(seq, exprs, vopts); err != nil {
			return nil, errors.Wrap(err, "optimize: verify")
		}
	}

	return &Result{Sequence: seq, Total: seq.TotalCost(), Merged: merged}, nil
}

// validateInput checks the whole batch and aggregates every failure.
func validateInput(table *expr.RangeTable, exprs []expr.TensorExpr) error {
	if len(exprs) == 0 {
		return ErrNoExpressions
	}
	var errs error
	seen := make(map[string]bool, len(exprs))
	for i, e := range exprs {
		if seen[e.Target.Base] {
			errs = multierr.Append(errs, fmt.Errorf("%w: %q", ErrDuplicateTarget, e.Target.Base))
		}
		seen[e.Target.Base] = true
		if err := expr.Validate(table, e); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "expression %d (%s)", i, e.Target.String()))
		}
	}
	return errs
}

// parenthesize finds the optimal contraction tree of every term,
// independent terms concurrently.
func parenthesize(table *expr.RangeTable, exprs []expr.TensorExpr, cfg Options) ([]factorize.Target, error) {
	type slot struct {
		target expr.Factor
		coeff  float64
		term   expr.Term
		ext    map[string]bool
		tree   *parenth.Tree
	}
	slots := make([]*slot, 0, len(exprs))
	for _, e := range exprs {
		ext := e.ExternalSet()
		for _, t := range e.Terms {
			slots = append(slots, &slot{target: e.Target, coeff: t.Coeff, term: t, ext: ext})
		}
	}

	popts := parenth.Options{OpFactor: cfg.OpFactor, Policy: cfg.Policy}
	var g errgroup.Group
	g.SetLimit(cfg.Parallelism)
	for _, s := range slots {
		g.Go(func() error {
			tree, err := parenth.Search(table, s.term, s.ext, popts)
			if err != nil {
				return errors.Wrapf(err, "term of %s", s.target.String())
			}
			s.tree = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	targets := make([]factorize.Target, len(slots))
	for i, s := range slots {
		targets[i] = factorize.Target{Factor: s.target, Coeff: s.coeff, Tree: s.tree}
	}
	return targets, nil
}

// NaiveTotal prices the unoptimized left-to-right evaluation of the same
// expressions, the baseline an optimized sequence must beat.
func NaiveTotal(table *expr.RangeTable, exprs []expr.TensorExpr, opts ...Option) (cost.Poly, error) {
	cfg := DefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := validateInput(table, exprs); err != nil {
		return cost.Poly{}, err
	}
	popts := parenth.Options{OpFactor: cfg.OpFactor, Policy: cfg.Policy}
	total := cost.Zero()
	for _, e := range exprs {
		ext := e.ExternalSet()
		for _, t := range e.Terms {
			nc, err := parenth.NaiveCost(table, t, ext, popts)
			if err != nil {
				return cost.Poly{}, errors.Wrapf(err, "optimize: naive cost of %s", e.Target.String())
			}
			total = total.Add(nc)
		}
	}
	return total, nil
}
