// Package cost — monomial and polynomial arithmetic over range symbols.
//
// Representation invariants (enforced by the constructors):
//   - a Monom's Pows map holds only positive exponents;
//   - a Poly's monomials carry pairwise distinct exponent patterns, are
//     sorted by pattern key, and have non-zero coefficients.
//
// These invariants make equality, addition and comparison linear scans.
package cost

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Monom is a product monomial: Coeff · ∏ label^Pows[label].
type Monom struct {
	Coeff float64
	Pows  map[string]int
}

// NewMonom returns a monomial with the given coefficient and no symbols.
func NewMonom(coeff float64) Monom {
	return Monom{Coeff: coeff}
}

// MulSymbol multiplies the monomial by label^1, returning a copy.
func (m Monom) MulSymbol(label string) Monom {
	out := Monom{Coeff: m.Coeff, Pows: make(map[string]int, len(m.Pows)+1)}
	for k, v := range m.Pows {
		out.Pows[k] = v
	}
	out.Pows[label]++
	return out
}

// MulCoeff scales the monomial's coefficient, returning a copy.
func (m Monom) MulCoeff(c float64) Monom {
	out := m
	out.Coeff *= c
	return out
}

// Degree returns the total symbolic degree.
func (m Monom) Degree() int {
	d := 0
	for _, v := range m.Pows {
		d += v
	}
	return d
}

// key renders the exponent pattern canonically ("no^2*nv"); the empty
// pattern (pure number) renders as "".
func (m Monom) key() string {
	if len(m.Pows) == 0 {
		return ""
	}
	labels := make([]string, 0, len(m.Pows))
	for l := range m.Pows {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		if e := m.Pows[l]; e == 1 {
			parts = append(parts, l)
		} else {
			parts = append(parts, fmt.Sprintf("%s^%d", l, m.Pows[l]))
		}
	}
	return strings.Join(parts, "*")
}

// String renders the monomial for diagnostics.
func (m Monom) String() string {
	k := m.key()
	if k == "" {
		return fmt.Sprintf("%g", m.Coeff)
	}
	if m.Coeff == 1 {
		return k
	}
	return fmt.Sprintf("%g*%s", m.Coeff, k)
}

// Poly is a canonical sum of monomials.
type Poly struct {
	ms []Monom
}

// Zero returns the zero polynomial.
func Zero() Poly { return Poly{} }

// FromMonom lifts a monomial into a polynomial.
func FromMonom(m Monom) Poly {
	if m.Coeff == 0 {
		return Poly{}
	}
	return Poly{ms: []Monom{m}}
}

// IsZero reports whether the polynomial has no monomials.
func (p Poly) IsZero() bool { return len(p.ms) == 0 }

// Monoms returns the canonical monomial slice (shared; do not mutate).
func (p Poly) Monoms() []Monom { return p.ms }

// Add returns p + q.
func (p Poly) Add(q Poly) Poly {
	return merge(p, q, 1)
}

// AddMonom returns p + m.
func (p Poly) AddMonom(m Monom) Poly {
	return p.Add(FromMonom(m))
}

// Sub returns p − q.
func (p Poly) Sub(q Poly) Poly {
	return merge(p, q, -1)
}

// Scale returns p with every coefficient multiplied by c.
func (p Poly) Scale(c float64) Poly {
	if c == 0 {
		return Poly{}
	}
	out := Poly{ms: make([]Monom, len(p.ms))}
	for i, m := range p.ms {
		out.ms[i] = m.MulCoeff(c)
	}
	return out
}

// merge combines two canonical polynomials, scaling q by qSign.
func merge(p, q Poly, qSign float64) Poly {
	acc := make(map[string]Monom, len(p.ms)+len(q.ms))
	keys := make([]string, 0, len(p.ms)+len(q.ms))
	put := func(m Monom, scale float64) {
		k := m.key()
		if prev, ok := acc[k]; ok {
			prev.Coeff += m.Coeff * scale
			acc[k] = prev
			return
		}
		acc[k] = m.MulCoeff(scale)
		keys = append(keys, k)
	}
	for _, m := range p.ms {
		put(m, 1)
	}
	for _, m := range q.ms {
		put(m, qSign)
	}
	sort.Strings(keys)
	out := Poly{ms: make([]Monom, 0, len(keys))}
	for _, k := range keys {
		m := acc[k]
		if m.Coeff == 0 {
			continue
		}
		out.ms = append(out.ms, m)
	}
	return out
}

// Numeric returns the polynomial's value when it carries no symbols.
func (p Poly) Numeric() (float64, bool) {
	total := 0.0
	for _, m := range p.ms {
		if len(m.Pows) > 0 {
			return 0, false
		}
		total += m.Coeff
	}
	return total, true
}

// Eval substitutes concrete sizes for every symbol and returns the numeric
// value. Returns ErrUnknownSymbol when a symbol has no supplied size.
func (p Poly) Eval(sizes map[string]int64) (float64, error) {
	total := 0.0
	for _, m := range p.ms {
		v := m.Coeff
		for l, e := range m.Pows {
			s, ok := sizes[l]
			if !ok {
				return 0, fmt.Errorf("%w: %q", ErrUnknownSymbol, l)
			}
			v *= math.Pow(float64(s), float64(e))
		}
		total += v
	}
	return total, nil
}

// String renders the polynomial for diagnostics ("2*no^2*nv^2 + 640").
func (p Poly) String() string {
	if len(p.ms) == 0 {
		return "0"
	}
	parts := make([]string, len(p.ms))
	for i, m := range p.ms {
		parts[i] = m.String()
	}
	return strings.Join(parts, " + ")
}
