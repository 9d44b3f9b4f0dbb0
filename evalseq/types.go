// Package evalseq — step/sequence types, options and sentinel errors.
package evalseq

import (
	"errors"
	"fmt"
	"strings"

	"github.com/katalvlaran/einopt/cost"
	"github.com/katalvlaran/einopt/expr"
)

// Sentinel errors returned by the sequence arena and the builder.
var (
	// ErrUnknownStep indicates a step ID that does not exist (or was removed).
	ErrUnknownStep = errors.New("evalseq: unknown step")

	// ErrDuplicateTarget indicates an appended step whose target name is
	// already defined by a live step.
	ErrDuplicateTarget = errors.New("evalseq: duplicate step target")

	// ErrUseBeforeDef indicates a step referencing a target that is only
	// defined by a later step — the sequence is not topologically ordered.
	ErrUseBeforeDef = errors.New("evalseq: step uses intermediate before its definition")

	// ErrBadVersion indicates a Rollback to a version newer than the
	// journal, or one already rolled back.
	ErrBadVersion = errors.New("evalseq: invalid rollback version")

	// ErrNilTree indicates AddTree was called with a nil contraction tree.
	ErrNilTree = errors.New("evalseq: nil contraction tree")
)

// DefaultPrefix names fresh intermediates: tau1, tau2, ...
const DefaultPrefix = "tau"

// Step is one evaluation step: a target tensor equated to a sum of terms
// whose factors are input tensors or earlier steps' targets.
// Steps are immutable once stored; edits go through Sequence.Replace.
type Step struct {
	ID           int
	Target       expr.Factor
	Terms        []expr.Term
	Cost         cost.Poly
	Intermediate bool // synthesized by the optimizer (vs. an original target)
}

// Clone deep-copies the step.
func (s Step) Clone() Step {
	cp := s
	cp.Target = s.Target.Clone()
	cp.Terms = make([]expr.Term, len(s.Terms))
	for i, t := range s.Terms {
		cp.Terms[i] = t.Clone()
	}
	return cp
}

// String renders "target[i,j] = term + term  # cost".
func (s Step) String() string {
	parts := make([]string, len(s.Terms))
	for i, t := range s.Terms {
		parts[i] = t.String()
	}
	return fmt.Sprintf("%s = %s", s.Target.String(), strings.Join(parts, " + "))
}

// BuildOptions configures the Builder.
//
//   - OpFactor: step-cost scaling (multiply-add counting by default).
//   - Policy: symbolic cost comparison policy for threshold checks.
//   - InlineThreshold: internal nodes with step cost strictly below this
//     polynomial are folded into their parent as one n-ary contraction.
//     The zero polynomial disables inlining.
//   - Prefix: intermediate name prefix (DefaultPrefix when empty).
type BuildOptions struct {
	OpFactor        float64
	Policy          cost.Policy
	InlineThreshold cost.Poly
	Prefix          string
}

// DefaultBuildOptions returns multiply-add counting, strict comparison,
// no inlining, and the tau prefix.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{OpFactor: cost.DefaultOpFactor, Policy: cost.PolicyStrict}
}
