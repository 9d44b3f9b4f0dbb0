// Package cost — result kinds, policies and sentinel errors.
package cost

import "errors"

// Sentinel errors returned by the cost model.
var (
	// ErrUnknownRange indicates an index whose range label is absent from
	// the range table.
	ErrUnknownRange = errors.New("cost: unknown range")

	// ErrIncomparableCost indicates two symbolic costs that cannot be
	// ordered under PolicyStrict; the caller must supply concrete range
	// sizes or switch to PolicyDegree.
	ErrIncomparableCost = errors.New("cost: symbolic costs are incomparable")

	// ErrUnknownSymbol indicates Eval was asked to evaluate a polynomial
	// containing a symbol with no supplied size.
	ErrUnknownSymbol = errors.New("cost: no size supplied for symbol")
)

// Ordering is the result of a cost comparison. Unlike a classical
// three-way compare, symbolic costs admit a fourth outcome.
type Ordering int

// Comparison outcomes.
const (
	Less         Ordering = -1
	Equal        Ordering = 0
	Greater      Ordering = 1
	Incomparable Ordering = 2
)

// String implements fmt.Stringer for diagnostics.
func (o Ordering) String() string {
	switch o {
	case Less:
		return "less"
	case Equal:
		return "equal"
	case Greater:
		return "greater"
	default:
		return "incomparable"
	}
}

// Policy selects how Incomparable outcomes are resolved when a total order
// is required (inside the search and the greedy factoring loop).
type Policy int

const (
	// PolicyStrict surfaces Incomparable as ErrIncomparableCost.
	PolicyStrict Policy = iota

	// PolicyDegree assumes every unresolved symbol is large: polynomials
	// are ordered by leading total degree, then lexicographic exponent
	// pattern, then coefficient. A deterministic total order.
	PolicyDegree
)

// cmpEpsilon is the relative tolerance for numeric coefficient comparison,
// stabilizing FP drift across platforms without affecting optimality.
const cmpEpsilon = 1e-9
