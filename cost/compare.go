// Package cost — three-way-plus-one cost comparison.
//
// Soundness note: the symbolic branch uses coefficient dominance on the
// difference polynomial. Dominance is sufficient but not necessary — some
// pairs that are ordered for every plausible size assignment still report
// Incomparable. That errs on the safe side: callers either fail loudly
// (PolicyStrict) or fall back to the documented degree heuristic.
package cost

import "math"

// Cmp compares two cost polynomials and returns Less, Equal, Greater or
// Incomparable. The comparison is pure and deterministic:
//
//  1. both numeric ⇒ ε-stabilized float comparison;
//  2. otherwise, coefficient dominance on q−p: all coefficients positive ⇒
//     Less, all negative ⇒ Greater, empty ⇒ Equal, mixed ⇒ Incomparable.
//
// Complexity: O(len(p)+len(q)).
func Cmp(p, q Poly) Ordering {
	if pv, ok := p.Numeric(); ok {
		if qv, qok := q.Numeric(); qok {
			return cmpFloat(pv, qv)
		}
	}
	diff := q.Sub(p)
	if diff.IsZero() {
		return Equal
	}
	pos, neg := false, false
	for _, m := range diff.ms {
		if m.Coeff > 0 {
			pos = true
		} else {
			neg = true
		}
	}
	switch {
	case pos && !neg:
		return Less
	case neg && !pos:
		return Greater
	default:
		return Incomparable
	}
}

// Compare resolves Cmp under a policy, yielding a usable total order.
// Under PolicyStrict an Incomparable pair returns ErrIncomparableCost;
// under PolicyDegree it is resolved by degreeCmp.
func Compare(p, q Poly, pol Policy) (Ordering, error) {
	o := Cmp(p, q)
	if o != Incomparable {
		return o, nil
	}
	if pol == PolicyStrict {
		return Incomparable, ErrIncomparableCost
	}
	return degreeCmp(p, q), nil
}

// LessThan reports p < q under the policy.
func LessThan(p, q Poly, pol Policy) (bool, error) {
	o, err := Compare(p, q, pol)
	return o == Less, err
}

// degreeCmp orders two polynomials assuming every symbol is large:
// monomials of each side are ranked by (total degree desc, pattern key,
// coefficient) and the ranked sequences compared lexicographically.
// Always returns Less, Equal or Greater.
func degreeCmp(p, q Poly) Ordering {
	pm, qm := rankMonoms(p), rankMonoms(q)
	for i := 0; i < len(pm) && i < len(qm); i++ {
		if o := cmpMonomRank(pm[i], qm[i]); o != Equal {
			return o
		}
	}
	return cmpFloat(float64(len(pm)), float64(len(qm)))
}

// rankMonoms orders monomials by descending degree, then pattern key.
func rankMonoms(p Poly) []Monom {
	out := append([]Monom(nil), p.ms...)
	// Insertion sort: polynomials here are short (one monomial per step).
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && monomRankLess(out[j], out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// monomRankLess reports whether a ranks before b (greater degree first).
func monomRankLess(a, b Monom) bool {
	if a.Degree() != b.Degree() {
		return a.Degree() > b.Degree()
	}
	return a.key() < b.key()
}

// cmpMonomRank compares two monomials under the degree heuristic.
func cmpMonomRank(a, b Monom) Ordering {
	if a.Degree() != b.Degree() {
		if a.Degree() < b.Degree() {
			return Less
		}
		return Greater
	}
	if ak, bk := a.key(), b.key(); ak != bk {
		// Equal degree, different pattern: order by pattern key for
		// determinism (no size information can break the tie).
		if ak < bk {
			return Less
		}
		return Greater
	}
	return cmpFloat(a.Coeff, b.Coeff)
}

// cmpFloat is the ε-stabilized numeric comparison.
func cmpFloat(a, b float64) Ordering {
	if math.Abs(a-b) <= cmpEpsilon*math.Max(1, math.Max(math.Abs(a), math.Abs(b))) {
		return Equal
	}
	if a < b {
		return Less
	}
	return Greater
}
