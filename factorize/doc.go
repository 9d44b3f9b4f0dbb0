// Package factorize extracts subexpressions shared between contraction
// trees into named intermediates, so each shared contraction is computed
// once.
//
// The engine is a greedy rewriter over the parenthesized trees of a
// target list. Each round it scans every tree (original targets and
// already-extracted definitions alike) for subtrees whose canonical
// pattern — the contraction shape up to summed- and free-index renaming,
// factor reordering, and declared slot symmetry — occurs at two or more
// sites, ranks the candidate groups by net saving, commits the best one
// by cloning one site as the definition and replacing every site with a
// reference leaf, and rescans. Signs picked up by the canonical matching
// fold into the owning term's coefficient, so rewrites never change the
// value being computed.
//
// Savings are exact, not estimated: replacing a site removes exactly the
// site's subtree cost from its tree, and the definition adds exactly one
// copy plus the optional write-out overhead. A group is committed only
// when the overhead is strictly below the cost of the duplicate sites,
// under the configured comparison policy; symbolically incomparable
// savings are skipped rather than gambled on.
//
// The result is emitted as an evalseq.Sequence: definitions first, in
// dependency order, then the rewritten targets.
//
// Design: greedy over candidate groups with deterministic ranking.
// Determinism: fixed scan order, total ranking order, ties broken by
// canonical key (or by a seeded hash when Options.Seed is nonzero).
// Complexity: O(rounds · nodes · canonicalization) with rounds bounded
// by Options.MaxIterations.
package factorize
