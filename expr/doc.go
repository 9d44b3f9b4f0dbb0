// Package expr defines the symbolic tensor-algebra input model shared by
// every optimizer stage: index ranges, bound indices, tensor factors with
// declared permutation symmetries, product terms, and full tensor
// expressions (a target tensor equal to a sum of terms).
//
// The model is deliberately thin: expressions arrive already canonicalized
// from an upstream computer-algebra layer, and this package only records
// them, validates the contraction invariants, and provides the canonical
// forms every later stage relies on:
//
//   - every summed index occurs exactly twice within a term (possibly twice
//     in one factor — a trace);
//   - every external index occurs exactly once and appears in the target's
//     index list;
//   - factor symmetries are opaque equivalence data (slot permutations with
//     a ±1 sign), never derived here.
//
// Key operations:
//
//   - Validate — strict modeling-error checks with sentinel errors.
//   - CanonicalFactor — minimal slot arrangement of one factor under its
//     declared symmetry group, with the implied sign extracted.
//   - CanonKey — a deterministic canonical string for a whole term, equal
//     for terms that differ only by summed-index renaming, factor order or
//     declared symmetry. This single primitive powers sub-contraction
//     deduplication, cross-term factoring, symmetrization and verification.
//
// All values are immutable once constructed; methods return copies.
//
// Complexity: validation is O(total index slots); canonicalization is
// polynomial for typical terms and falls back to a deterministic heuristic
// when symmetry classes are too large to enumerate (see GroupCap).
package expr
