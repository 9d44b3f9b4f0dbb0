// Package verify checks that an evaluation sequence computes exactly the
// tensor expressions it was derived from.
//
// The check is symbolic. Every declared target's step is expanded by
// substituting intermediate definitions (with summed indices freshened
// to avoid capture, and definition slots renamed to the use site's
// indices) until only input tensors remain. The expanded terms and the
// original terms are then both accumulated into canonical-key buckets,
// where parenthesization, factor order, index naming and declared
// symmetries all wash out, and the per-key coefficients are compared
// within a small epsilon. Any discrepancy — a missing contraction, a
// wrong coefficient, a sign error — surfaces as ErrMismatch naming the
// target and the first offending canonical term.
//
// Expansion is exponential in the worst case (every intermediate can
// multiply terms), so both the substitution depth and the expanded term
// count are capped; either cap tripping is an error, not a pass.
package verify
