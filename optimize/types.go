// Package optimize — options, result type and sentinel errors.
package optimize

import (
	"errors"
	"runtime"

	"github.com/katalvlaran/einopt/cost"
	"github.com/katalvlaran/einopt/evalseq"
	"github.com/katalvlaran/einopt/factorize"
	"github.com/katalvlaran/einopt/symmetrize"
	"github.com/katalvlaran/einopt/verify"
)

// Sentinel errors returned by Optimize (stage errors wrap the stage
// packages' sentinels and pass through errors.Is).
var (
	// ErrNoExpressions indicates an empty input slice.
	ErrNoExpressions = errors.New("optimize: no expressions")

	// ErrDuplicateTarget indicates two expressions naming the same target.
	ErrDuplicateTarget = errors.New("optimize: duplicate target")

	// ErrBadOption guards the With* constructors; they panic with it on
	// invalid arguments.
	ErrBadOption = errors.New("optimize: invalid option value")
)

// Options configures the pipeline.
//
//   - OpFactor: scaling of the operation count (2 counts multiply-adds).
//   - Policy: symbolic cost comparison policy for every stage.
//   - FactorIterations: cap on factoring rounds.
//   - MaterializeCost: per-entry write-out price charged to extractions.
//   - InlineThreshold: step-cost bound below which single contractions
//     fold into their parent; the zero polynomial disables inlining.
//   - MaxFreeSlots: slot cap for the symmetrization signature search.
//   - Epsilon: coefficient tolerance of the final verification.
//   - Seed: tie-break perturbation for factoring (0 = canonical).
//   - Prefix: intermediate name prefix ("tau").
//   - Parallelism: concurrent parenthesization workers.
//   - Symmetrize: run the permutation-merge stage.
//   - Verify: run the final symbolic check.
type Options struct {
	OpFactor         float64
	Policy           cost.Policy
	FactorIterations int
	MaterializeCost  float64
	InlineThreshold  cost.Poly
	MaxFreeSlots     int
	Epsilon          float64
	Seed             uint64
	Prefix           string
	Parallelism      int
	Symmetrize       bool
	Verify           bool
}

// DefaultOptions returns the standard pipeline configuration: multiply-add
// counting, strict comparison, all stages enabled, one worker per CPU.
func DefaultOptions() Options {
	return Options{
		OpFactor:         cost.DefaultOpFactor,
		Policy:           cost.PolicyStrict,
		FactorIterations: factorize.DefaultMaxIterations,
		MaxFreeSlots:     symmetrize.DefaultMaxFreeSlots,
		Epsilon:          verify.DefaultEpsilon,
		Prefix:           evalseq.DefaultPrefix,
		Parallelism:      runtime.NumCPU(),
		Symmetrize:       true,
		Verify:           true,
	}
}

// Option represents a functional option for configuring Optimize.
type Option func(*Options)

// WithOpFactor sets the operation-count scaling. Must be positive.
func WithOpFactor(f float64) Option {
	return func(o *Options) {
		if f <= 0 {
			panic(ErrBadOption.Error())
		}
		o.OpFactor = f
	}
}

// WithPolicy selects how symbolically incomparable costs are resolved.
func WithPolicy(p cost.Policy) Option {
	return func(o *Options) {
		o.Policy = p
	}
}

// WithFactorIterations caps the factoring rounds. Must be positive.
func WithFactorIterations(n int) Option {
	return func(o *Options) {
		if n <= 0 {
			panic(ErrBadOption.Error())
		}
		o.FactorIterations = n
	}
}

// WithMaterializeCost charges extracted intermediates a per-entry
// write-out price. Must be non-negative; zero (the default) makes any
// shared subexpression worth extracting.
func WithMaterializeCost(c float64) Option {
	return func(o *Options) {
		if c < 0 {
			panic(ErrBadOption.Error())
		}
		o.MaterializeCost = c
	}
}

// WithInlineThreshold folds contractions cheaper than t into their
// consumers instead of materializing them.
func WithInlineThreshold(t cost.Poly) Option {
	return func(o *Options) {
		o.InlineThreshold = t
	}
}

// WithSeed perturbs tie-breaking between equally good factoring
// candidates; zero keeps the canonical order.
func WithSeed(seed uint64) Option {
	return func(o *Options) {
		o.Seed = seed
	}
}

// WithPrefix names intermediates prefix1, prefix2, ... Must be non-empty.
func WithPrefix(prefix string) Option {
	return func(o *Options) {
		if prefix == "" {
			panic(ErrBadOption.Error())
		}
		o.Prefix = prefix
	}
}

// WithParallelism bounds the concurrent parenthesization workers.
// Must be positive.
func WithParallelism(n int) Option {
	return func(o *Options) {
		if n <= 0 {
			panic(ErrBadOption.Error())
		}
		o.Parallelism = n
	}
}

// WithSymmetrization toggles the permutation-merge stage.
func WithSymmetrization(on bool) Option {
	return func(o *Options) {
		o.Symmetrize = on
	}
}

// WithVerification toggles the final symbolic check. Disable only for
// throughput experiments; a passing check is the pipeline's correctness
// proof.
func WithVerification(on bool) Option {
	return func(o *Options) {
		o.Verify = on
	}
}

// Result is the pipeline outcome.
type Result struct {
	// Sequence holds the evaluation steps, definitions before uses.
	Sequence *evalseq.Sequence

	// Total is the symbolic operation count of the whole sequence.
	Total cost.Poly

	// Merged counts intermediates folded by symmetrization.
	Merged int
}
