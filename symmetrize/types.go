// Package symmetrize — options and sentinel errors.
package symmetrize

import "errors"

// Sentinel errors returned by Run.
var (
	// ErrNilSequence indicates a nil input sequence.
	ErrNilSequence = errors.New("symmetrize: nil sequence")

	// ErrBadSlotCap indicates a non-positive MaxFreeSlots.
	ErrBadSlotCap = errors.New("symmetrize: MaxFreeSlots must be positive")

	// ErrMergeBroke indicates a merge that left the sequence invalid; the
	// sequence is rolled back to its pre-merge state before returning.
	ErrMergeBroke = errors.New("symmetrize: merge broke the sequence")
)

// DefaultMaxFreeSlots bounds the factorial signature search per step.
const DefaultMaxFreeSlots = 6

// Options configures the merge pass.
type Options struct {
	// MaxFreeSlots skips steps with more free indices than this
	// (DefaultMaxFreeSlots); their signatures would need k! arrangements.
	MaxFreeSlots int
}

// DefaultOptions returns the standard slot cap.
func DefaultOptions() Options {
	return Options{MaxFreeSlots: DefaultMaxFreeSlots}
}

func (o Options) validate() error {
	if o.MaxFreeSlots <= 0 {
		return ErrBadSlotCap
	}
	return nil
}
