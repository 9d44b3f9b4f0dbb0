// Package symmetrize merges intermediates that are equal up to a
// permutation of their free indices and an overall sign.
//
// Factoring matches subexpressions syntactically, so two intermediates
// like u[a,b] = t[a,p]·w[p,b] and v[a,b] = t[b,p]·w[p,a] survive as
// separate steps even though v[a,b] = u[b,a]. This pass detects such
// pairs on the finished sequence: each intermediate gets a canonical
// signature, minimized over all arrangements of its free slots and both
// signs, and steps with equal signatures are folded into the earliest
// one. Consumers of a folded step are rewritten in place: their
// references permute slots accordingly, and the relative sign scales the
// term coefficient, so every remaining step computes the same values.
//
// Merging runs to a fixed point: folding one pair can make two of its
// consumers textually equal, which the next round catches. Steps with
// more free slots than Options.MaxFreeSlots are left alone rather than
// paying a factorial signature search.
//
// Determinism: steps are scanned in arena order and the earliest
// signature match wins. Complexity: O(rounds · steps · k!·2) signature
// work for k free slots, with k capped.
package symmetrize
