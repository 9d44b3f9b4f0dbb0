// Package einopt minimizes the floating-point cost of symbolic tensor
// contractions — the sums-of-products that dominate quantum chemistry,
// nuclear physics and tensor-network codes.
//
// 🚀 What is einopt?
//
//	A deterministic optimizer that takes Einstein-summation expressions
//	and returns an evaluation sequence with far fewer operations:
//		• Parenthesization: optimal binary contraction order per term
//		  (exact subset dynamic programming over index footprints)
//		• Factoring: subexpressions shared between terms become named
//		  intermediates, computed once
//		• Symmetrization: intermediates equal up to index permutation
//		  and sign fold together
//		• Verification: the result is symbolically expanded and proven
//		  equal to the input
//
// ✨ Why choose einopt?
//
//   - Symbolic costs – ranges may be concrete sizes or free symbols;
//     comparisons use coefficient dominance with a degree fallback
//   - Symmetry aware – declared slot symmetries (antisymmetrized
//     amplitudes, symmetric integrals) sharpen the matching
//   - Deterministic – identical input and options give byte-identical
//     output, with an optional seed for tie-break exploration
//   - Self-checking – every pipeline run can end with a symbolic proof
//     of value equality
//
// Under the hood, everything is organized under seven subpackages:
//
//	expr/       — ranges, indices, factors, terms, validation & canonical forms
//	cost/       — symbolic polynomials over range sizes & comparison policies
//	parenth/    — per-term optimal contraction trees (subset DP)
//	evalseq/    — evaluation steps, the versioned sequence arena & the builder
//	factorize/  — greedy cross-term common-subexpression extraction
//	symmetrize/ — permutation/sign merging of intermediates
//	verify/     — symbolic expansion check of a finished sequence
//
// optimize/ ties the stages together:
//
//	res, err := optimize.Optimize(table, exprs)
//	if err != nil { ... }
//	for _, step := range res.Sequence.Steps() {
//	    fmt.Println(step)
//	}
//
// See examples/ for end-to-end scenarios.
//
//	go get github.com/katalvlaran/einopt
package einopt
