// Package cost implements the FLOP cost model driving the contraction
// search: the cost of one contraction step is a monomial — a constant
// factor times the product of the range sizes of every index in the step's
// loop nest — and the cost of a plan is a polynomial sum of step monomials.
//
// Range sizes may be concrete or symbolic. Concrete sizes fold into the
// monomial coefficient at construction; symbolic sizes stay as exponents
// over range labels. Comparisons are therefore inherently partial and are
// exposed as an explicit three-way-plus-one result:
//
//	Less | Equal | Greater | Incomparable
//
// Two policies resolve Incomparable for callers that need a total order:
//
//   - PolicyStrict  — Incomparable is a fatal configuration error
//     (ErrIncomparableCost); the caller must supply concrete sizes.
//   - PolicyDegree  — unresolved symbols are assumed large: polynomials are
//     ordered by leading total degree, then lexicographically. Total order,
//     deterministic, heuristic.
//
// Everything here is a pure function over immutable values; OpCost is
// called inside the exponential subset search and runs in O(#indices).
package cost
