// Package symmetrize — canonical step signatures.
package symmetrize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/katalvlaran/einopt/evalseq"
	"github.com/katalvlaran/einopt/expr"
)

// arrangement records how a step's free slots map onto the canonical
// form: placeholder j stands for slot slots[j], and sign is the overall
// factor relating the step to the canonical value.
type arrangement struct {
	slots []int
	sign  float64
}

// signature returns the minimal rendering of the step over all free-slot
// arrangements and both signs, plus the arrangement achieving it. ok is
// false for steps the pass cannot handle: too many slots, or a target
// repeating an index name.
func signature(st evalseq.Step, maxSlots int) (string, arrangement, bool, error) {
	k := len(st.Target.Indices)
	if k > maxSlots {
		return "", arrangement{}, false, nil
	}
	seen := make(map[string]bool, k)
	for _, ix := range st.Target.Indices {
		if seen[ix.Name] {
			return "", arrangement{}, false, nil
		}
		seen[ix.Name] = true
	}

	var best string
	var bestArr arrangement
	for _, p := range permutations(k) {
		sub := make(map[string]string, k)
		ext := make(map[string]bool, k)
		for j, slot := range p {
			ph := placeholder(j)
			sub[st.Target.Indices[slot].Name] = ph
			ext[ph] = true
		}
		for _, sign := range []float64{1, -1} {
			s, err := render(st.Terms, sub, ext, sign)
			if err != nil {
				return "", arrangement{}, false, err
			}
			if best == "" || s < best {
				best = s
				bestArr = arrangement{slots: append([]int(nil), p...), sign: sign}
			}
		}
	}
	return best, bestArr, true, nil
}

// render canonicalizes every term against the placeholder externals and
// joins the sorted results, so factor order, summed names and declared
// symmetries never influence the signature.
func render(terms []expr.Term, sub map[string]string, ext map[string]bool, sign float64) (string, error) {
	entries := make([]string, len(terms))
	for i, t := range terms {
		pat, err := expr.CanonKey(t.Rename(sub), ext)
		if err != nil {
			return "", fmt.Errorf("symmetrize: signature: %w", err)
		}
		c := sign * t.Coeff * float64(pat.Sign)
		entries[i] = strconv.FormatFloat(c, 'g', -1, 64) + "*" + pat.Key
	}
	sort.Strings(entries)
	return strings.Join(entries, ";"), nil
}

func placeholder(j int) string { return "#f" + strconv.Itoa(j) }

// permutations lists every arrangement of 0..k-1 deterministically.
func permutations(k int) [][]int {
	base := make([]int, k)
	for i := range base {
		base[i] = i
	}
	if k < 2 {
		return [][]int{base}
	}
	var out [][]int
	var rec func(prefix []int, rest []int)
	rec = func(prefix []int, rest []int) {
		if len(rest) == 0 {
			out = append(out, append([]int(nil), prefix...))
			return
		}
		for i, v := range rest {
			next := make([]int, 0, len(rest)-1)
			next = append(next, rest[:i]...)
			next = append(next, rest[i+1:]...)
			grown := append(append(make([]int, 0, len(prefix)+1), prefix...), v)
			rec(grown, next)
		}
	}
	rec(nil, base)
	return out
}
