// Package expr — canonical term keys.
//
// A canonical key is a string equal for two terms exactly when they are the
// same contraction up to: factor ordering, renaming of summed indices, and
// rearrangements allowed by each factor's declared symmetry group. It is
// the matching primitive behind sub-contraction deduplication, cross-term
// factoring, common symmetrization and verification.
//
// Exactness policy: factor orderings within an ambiguous signature class
// and per-factor symmetry arrangements are enumerated jointly up to a work
// cap; past the cap a deterministic heuristic form is used instead (still
// deterministic, merely unable to prove some equivalences — safe in every
// caller, which only ever merges on key equality).
//
// Complexity: bounded by canonWorkCap arrangements per term; typical terms
// (2–4 factors, pair-swap symmetries) enumerate a handful.
package expr

import (
	"fmt"
	"sort"
	"strings"
)

// canonWorkCap bounds the number of (factor ordering × symmetry
// arrangement) combinations tried for one term.
const canonWorkCap = 100000

// canonClassCap bounds the size of one ambiguous factor class whose
// orderings are enumerated exhaustively (5! = 120 orderings).
const canonClassCap = 5

// Pattern is the canonical form of a term: a matching key, the sign picked
// up from symmetry rearrangements, and — when free indices were renamed —
// the actual free indices in canonical slot order.
type Pattern struct {
	Key  string  // canonical key; equal keys ⇔ equivalent contractions
	Sign int     // ±1: value(term) == Sign · value(canonical arrangement)
	Free []Index // actual free indices in canonical f-slot order (CanonPattern only)
}

// CanonKey canonicalizes a term keeping external index names fixed: two
// terms over the same target get equal keys exactly when they denote the
// same sum. Used by the verifier, where externals are pinned by the target.
func CanonKey(t Term, ext map[string]bool) (Pattern, error) {
	return canonicalize(t, ext, false)
}

// CanonPattern canonicalizes a term with free indices renamed to canonical
// placeholders as well, so structurally identical sub-contractions from
// different terms (different free names) produce equal keys. Pattern.Free
// reports which actual index fills each canonical free slot.
func CanonPattern(t Term, ext map[string]bool) (Pattern, error) {
	return canonicalize(t, ext, true)
}

// factorArrangements holds one factor's symmetry group, precomputed.
type factorArrangements struct {
	factor Factor
	group  []Perm
}

// canonicalize drives the joint enumeration described in the package
// comment. renameFree selects whether external (free) names are replaced
// by positional placeholders.
func canonicalize(t Term, ext map[string]bool, renameFree bool) (Pattern, error) {
	if len(t.Factors) == 0 {
		return Pattern{}, ErrEmptyTerm
	}

	// Precompute each factor's symmetry group once.
	arr := make([]factorArrangements, len(t.Factors))
	work := 1
	for i, f := range t.Factors {
		g := []Perm{Identity(f.Arity())}
		if len(f.Symms) > 0 && f.Arity() > 1 {
			var err error
			g, err = PermGroup(f.Arity(), f.Symms)
			if err != nil {
				return Pattern{}, err
			}
		}
		arr[i] = factorArrangements{factor: f, group: g}
		if work <= canonWorkCap {
			work *= len(g)
		}
	}

	orderings := factorOrderings(t, ext, renameFree)
	if work > canonWorkCap || work*len(orderings) > canonWorkCap {
		// Heuristic fallback: single ordering, per-factor canonical form.
		return heuristicForm(arr, orderings[0], ext, renameFree)
	}

	var best Pattern
	have := false
	for _, order := range orderings {
		enumerate(arr, order, 0, 1, make([]Factor, len(order)), func(fs []Factor, sign int) {
			cand := renderKey(fs, ext, renameFree, sign)
			if !have || cand.Key < best.Key {
				best = cand
				have = true
			}
		})
	}
	return best, nil
}

// enumerate walks the cartesian product of symmetry arrangements for the
// factors in the given order, invoking visit with each full arrangement.
func enumerate(arr []factorArrangements, order []int, pos, sign int, acc []Factor, visit func([]Factor, int)) {
	if pos == len(order) {
		visit(acc, sign)
		return
	}
	fa := arr[order[pos]]
	for _, p := range fa.group {
		f := fa.factor
		acc[pos] = Factor{Base: f.Base, Indices: ApplyPerm(f.Indices, p)}
		enumerate(arr, order, pos+1, sign*p.Sign, acc, visit)
	}
}

// renderKey renames summed (and optionally free) indices by first
// occurrence over the arranged factors and renders the canonical string.
func renderKey(fs []Factor, ext map[string]bool, renameFree bool, sign int) Pattern {
	sub := make(map[string]string)
	var free []Index
	nSummed, nFree := 0, 0
	var b strings.Builder
	for fi, f := range fs {
		if fi > 0 {
			b.WriteByte('*')
		}
		b.WriteString(f.Base)
		if len(f.Indices) == 0 {
			continue
		}
		b.WriteByte('[')
		for si, ix := range f.Indices {
			if si > 0 {
				b.WriteByte(',')
			}
			name, seen := sub[ix.Name]
			if !seen {
				switch {
				case !ext[ix.Name]:
					name = fmt.Sprintf("s%d", nSummed)
					nSummed++
				case renameFree:
					name = fmt.Sprintf("f%d", nFree)
					nFree++
					free = append(free, ix)
				default:
					name = ix.Name
				}
				sub[ix.Name] = name
			}
			// Ranges are part of the key: equal shapes, not just equal
			// wiring, are required for a match.
			b.WriteString(name)
			b.WriteByte(':')
			b.WriteString(ix.Range)
		}
		b.WriteByte(']')
	}
	return Pattern{Key: b.String(), Sign: sign, Free: free}
}

// factorOrderings returns the candidate factor orderings: factors sorted by
// a symmetry-invariant signature, with permutations enumerated inside each
// ambiguous signature class (classes past canonClassCap keep input order).
func factorOrderings(t Term, ext map[string]bool, renameFree bool) [][]int {
	sigs := make([]string, len(t.Factors))
	for i, f := range t.Factors {
		sigs[i] = factorSignature(f, ext, renameFree)
	}
	base := make([]int, len(t.Factors))
	for i := range base {
		base[i] = i
	}
	sort.SliceStable(base, func(i, j int) bool { return sigs[base[i]] < sigs[base[j]] })

	// Split into consecutive equal-signature classes.
	orderings := [][]int{append([]int(nil), base...)}
	for lo := 0; lo < len(base); {
		hi := lo + 1
		for hi < len(base) && sigs[base[hi]] == sigs[base[lo]] {
			hi++
		}
		if n := hi - lo; n > 1 && n <= canonClassCap && len(orderings)*factorial(n) <= 720 {
			orderings = expandClass(orderings, lo, hi)
		}
		lo = hi
	}
	return orderings
}

// expandClass multiplies the current ordering set by every permutation of
// the class occupying positions [lo, hi).
func expandClass(orderings [][]int, lo, hi int) [][]int {
	var out [][]int
	for _, ord := range orderings {
		permuteInPlace(ord, lo, hi, func(o []int) {
			out = append(out, append([]int(nil), o...))
		})
	}
	return out
}

// permuteInPlace enumerates permutations of ord[lo:hi] (Heap's algorithm),
// restoring the slice afterwards.
func permuteInPlace(ord []int, lo, hi int, visit func([]int)) {
	n := hi - lo
	c := make([]int, n)
	visit(ord)
	i := 0
	for i < n {
		if c[i] < i {
			if i%2 == 0 {
				ord[lo], ord[lo+i] = ord[lo+i], ord[lo]
			} else {
				ord[lo+c[i]], ord[lo+i] = ord[lo+i], ord[lo+c[i]]
			}
			visit(ord)
			c[i]++
			i = 0
		} else {
			c[i] = 0
			i++
		}
	}
}

// factorial over the tiny class sizes admitted by canonClassCap.
func factorial(n int) int {
	out := 1
	for i := 2; i <= n; i++ {
		out *= i
	}
	return out
}

// factorSignature is a symmetry-invariant grouping key: base, arity, the
// free slots carried, and the summed-slot count. With renameFree the free
// names are about to be replaced by positional placeholders, so only their
// count may enter the signature: embedding the actual names would let a
// renaming reorder same-base factors and split keys that should match.
func factorSignature(f Factor, ext map[string]bool, renameFree bool) string {
	frees := make([]string, 0, len(f.Indices))
	summed := 0
	for _, ix := range f.Indices {
		if ext[ix.Name] {
			frees = append(frees, ix.Name)
		} else {
			summed++
		}
	}
	if renameFree {
		return fmt.Sprintf("%s/%d/#%d/%d", f.Base, f.Arity(), len(frees), summed)
	}
	sort.Strings(frees)
	return fmt.Sprintf("%s/%d/%s/%d", f.Base, f.Arity(), strings.Join(frees, ","), summed)
}

// heuristicForm is the capped fallback: first candidate ordering, each
// factor arranged by its own CanonicalFactor, one rename pass. Equal
// structures still tend to coincide; unequal ones never do.
func heuristicForm(arr []factorArrangements, order []int, ext map[string]bool, renameFree bool) (Pattern, error) {
	fs := make([]Factor, len(order))
	sign := 1
	for pos, oi := range order {
		cf, s, err := CanonicalFactor(arr[oi].factor)
		if err != nil {
			return Pattern{}, err
		}
		fs[pos] = cf
		sign *= s
	}
	return renderKey(fs, ext, renameFree, sign), nil
}
