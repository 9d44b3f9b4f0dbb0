// Package verify — options and sentinel errors.
package verify

import "errors"

// Sentinel errors returned by Check.
var (
	// ErrNilSequence indicates a nil input sequence.
	ErrNilSequence = errors.New("verify: nil sequence")

	// ErrMissingTarget indicates a declared target no step defines.
	ErrMissingTarget = errors.New("verify: target not defined by sequence")

	// ErrTargetShape indicates a target step whose index slots disagree
	// with the declared target.
	ErrTargetShape = errors.New("verify: target shape mismatch")

	// ErrMismatch indicates the sequence computes a different expression
	// than the original.
	ErrMismatch = errors.New("verify: sequence does not match expression")

	// ErrDepthExceeded indicates substitution nesting past MaxDepth.
	ErrDepthExceeded = errors.New("verify: substitution depth exceeded")

	// ErrTooManyTerms indicates the expansion outgrew MaxTerms.
	ErrTooManyTerms = errors.New("verify: expansion exceeded term cap")

	// ErrBadOptions indicates non-positive caps or epsilon.
	ErrBadOptions = errors.New("verify: invalid options")
)

// Default expansion limits.
const (
	DefaultEpsilon  = 1e-9
	DefaultMaxDepth = 64
	DefaultMaxTerms = 1 << 16
)

// Options configures the checker.
type Options struct {
	// Epsilon bounds the allowed coefficient drift per canonical term.
	Epsilon float64

	// MaxDepth caps substitution nesting along one term's expansion.
	MaxDepth int

	// MaxTerms caps the total number of fully expanded terms per target.
	MaxTerms int
}

// DefaultOptions returns the standard caps.
func DefaultOptions() Options {
	return Options{Epsilon: DefaultEpsilon, MaxDepth: DefaultMaxDepth, MaxTerms: DefaultMaxTerms}
}

func (o Options) validate() error {
	if o.Epsilon <= 0 || o.MaxDepth <= 0 || o.MaxTerms <= 0 {
		return ErrBadOptions
	}
	return nil
}
