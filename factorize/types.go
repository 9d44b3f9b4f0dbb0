// Package factorize — targets, options and sentinel errors.
package factorize

import (
	"errors"

	"github.com/katalvlaran/einopt/cost"
	"github.com/katalvlaran/einopt/expr"
	"github.com/katalvlaran/einopt/parenth"
)

// Sentinel errors returned by Run.
var (
	// ErrNoTargets indicates an empty target list.
	ErrNoTargets = errors.New("factorize: no targets")

	// ErrNilTargetTree indicates a target whose contraction tree is nil.
	ErrNilTargetTree = errors.New("factorize: nil target tree")

	// ErrBadIterations indicates a non-positive MaxIterations.
	ErrBadIterations = errors.New("factorize: MaxIterations must be positive")
)

// DefaultMaxIterations caps the rewrite rounds; each round commits at
// most one extraction, so this also caps the number of intermediates
// the engine creates.
const DefaultMaxIterations = 100

// Target is one declared output term: Coeff times the contraction
// computed by Tree, accumulated into Factor. Several targets may share
// the same Factor (a multi-term output).
type Target struct {
	Factor expr.Factor
	Coeff  float64
	Tree   *parenth.Tree
}

// Options configures the factoring engine.
type Options struct {
	// OpFactor scales step costs; see cost.DefaultOpFactor.
	OpFactor float64

	// Policy resolves symbolic cost comparisons when deciding whether an
	// extraction pays off.
	Policy cost.Policy

	// MaxIterations caps rewrite rounds (DefaultMaxIterations).
	MaxIterations int

	// MaterializeCost prices writing one entry of an extracted
	// intermediate. Zero (the default) makes any shared subtree worth
	// extracting; a positive value demands the duplicate work exceed the
	// write-out.
	MaterializeCost float64

	// Seed perturbs tie-breaking between equal-saving candidate groups.
	// Zero keeps the canonical (key-ordered) tie-break.
	Seed uint64

	// InlineThreshold and Prefix pass through to the sequence builder.
	InlineThreshold cost.Poly
	Prefix          string
}

// DefaultOptions returns multiply-add counting, strict comparison, free
// extraction and canonical tie-breaking.
func DefaultOptions() Options {
	return Options{
		OpFactor:      cost.DefaultOpFactor,
		Policy:        cost.PolicyStrict,
		MaxIterations: DefaultMaxIterations,
	}
}

func (o Options) validate() error {
	if o.MaxIterations <= 0 {
		return ErrBadIterations
	}
	return nil
}
