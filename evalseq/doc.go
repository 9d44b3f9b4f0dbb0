// Package evalseq turns optimized contraction trees into an evaluation
// sequence: an ordered, deduplicated list of intermediate tensor
// definitions forming a DAG, ready for a code generator.
//
// Two pieces live here:
//
//   - Sequence — the arena of evaluation steps. It is the one mutable
//     structure in the optimizer, and every mutation goes through a journal:
//     Checkpoint returns a version, Rollback restores it. Heuristic passes
//     (factoring, symmetrization) commit atomically and back out cheaply
//     instead of mutating a pointer graph. Validate re-checks the
//     definition-before-use ordering with a three-color DFS.
//
//   - Builder — flattens binary contraction trees into steps:
//     every internal tree node becomes a fresh intermediate unless it is
//     deduplicated against a structurally identical node seen before
//     (canonical key, up to index renaming and declared symmetry), or
//     inlined into its parent when used once and cheaper than the
//     configured threshold. Traces closed at a leaf are materialized as
//     their own diagonal-sum step so declared costs stay exact.
//
// Intermediate names are deterministic ("tau1", "tau2", …) and never
// collide with input tensor names. Step order is discovery (post-order)
// order, which is topological by construction.
package evalseq
