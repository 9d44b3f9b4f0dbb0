// Package parenth finds the minimal-FLOP binary contraction order for one
// product of tensor factors — the generalized matrix-chain parenthesization
// problem — by dynamic programming over bitset-encoded factor subsets.
//
// 🚀 The problem
//
//	A term multiplies n factors and sums over its contracted indices. The
//	order in which factors are combined pairwise changes the total FLOP
//	count by orders of magnitude. parenth searches every way to split every
//	subset of factors and returns the cheapest binary contraction tree.
//
// Algorithm:
//
//   - State: every non-empty subset S of the n factors, encoded as a Mask
//     (fixed 64-bit word, O(1) union/intersection/membership).
//   - An index stays "open" for S while it is external to the whole term or
//     some factor outside S still references it; otherwise it has been
//     summed away inside S.
//   - Transition: best[S] = min over splits S = A ⊎ B of
//     best[A] + best[B] + OpCost(open(A) ∪ open(B)).
//     Sub-subsets are enumerated with the (sub-1)&mask walk, giving the
//     standard O(3ⁿ) total over all subsets.
//   - Tie-break: equal cost ⇒ prefer the split whose operands carry fewer
//     open indices (smaller, more reusable intermediates), then the lowest
//     split submask. Fully deterministic.
//
// A factor whose summed index occurs twice in the factor itself (a trace)
// is closed at the leaf, with the one-pass diagonal cost charged there.
//
// Complexity:
//
//   - Time:   O(3ⁿ · I) for n factors and I distinct indices
//   - Memory: O(2ⁿ)
//
// Practical term sizes are tens of factors at most; the bitset encoding
// keeps the constants tiny, which is the whole point of this package.
//
// Use Search for the optimal tree, NaiveCost for the left-to-right
// baseline the optimum is guaranteed to never exceed.
package parenth
