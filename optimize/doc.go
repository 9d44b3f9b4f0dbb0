// Package optimize is the front door: it turns a set of tensor
// expressions into a cheap evaluation sequence.
//
// The pipeline runs four stages over validated input:
//
//  1. parenthesize — every term gets an optimal binary contraction tree
//     (parenth.Search), independent terms in parallel;
//  2. factor — subexpressions shared between trees become named
//     intermediates (factorize.Run);
//  3. symmetrize — intermediates equal up to free-index permutation and
//     sign fold together (symmetrize.Run);
//  4. verify — the sequence is symbolically expanded and checked against
//     the input expressions (verify.Check).
//
// Each stage only ever lowers (or preserves) the total operation count,
// and the final verification makes the whole pipeline self-checking: a
// returned Result is both cheaper and provably value-equal to the input.
//
// The package is deterministic for a fixed option set; WithSeed perturbs
// only tie-breaking between equally good factoring candidates.
//
// Usage:
//
//	res, err := optimize.Optimize(table, exprs,
//	    optimize.WithPolicy(cost.PolicyDegree),
//	    optimize.WithFactorIterations(50),
//	)
package optimize
