// Package verify — expansion and comparison.
package verify

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/pkg/errors"

	"github.com/katalvlaran/einopt/evalseq"
	"github.com/katalvlaran/einopt/expr"
)

// Check confirms that seq computes every expression in originals: each
// declared target is expanded to a closed form over input tensors and
// compared, canonically, against the original terms. A nil error means
// the sequence is provably value-equal to the input.
func Check(seq *evalseq.Sequence, originals []expr.TensorExpr, opts Options) error {
	if seq == nil {
		return ErrNilSequence
	}
	if err := opts.validate(); err != nil {
		return err
	}
	if err := seq.Validate(); err != nil {
		return errors.Wrap(err, "verify: malformed sequence")
	}
	c := &checker{seq: seq, opts: opts}
	for _, e := range originals {
		if err := c.target(e); err != nil {
			return errors.Wrapf(err, "target %s", e.Target.String())
		}
	}
	return nil
}

type checker struct {
	seq   *evalseq.Sequence
	opts  Options
	fresh int
}

func (c *checker) target(e expr.TensorExpr) error {
	st, ok := c.seq.Lookup(e.Target.Base)
	if !ok {
		return fmt.Errorf("%w: %q", ErrMissingTarget, e.Target.Base)
	}
	if len(st.Target.Indices) != len(e.Target.Indices) {
		return fmt.Errorf("%w: %d slots vs %d", ErrTargetShape,
			len(st.Target.Indices), len(e.Target.Indices))
	}

	// The step may carry its own slot names; rebase onto the declared ones.
	slotSub := make(map[string]string, len(st.Target.Indices))
	for q, ix := range st.Target.Indices {
		slotSub[ix.Name] = e.Target.Indices[q].Name
	}
	ext := make(map[string]bool, len(e.Target.Indices))
	for _, ix := range e.Target.Indices {
		ext[ix.Name] = true
	}

	var expanded []expr.Term
	for _, t := range st.Terms {
		if err := c.expand(t.Rename(slotSub), 0, &expanded); err != nil {
			return err
		}
	}
	got, err := accumulate(expanded, ext)
	if err != nil {
		return err
	}
	want, err := accumulate(e.Terms, ext)
	if err != nil {
		return err
	}
	return c.compare(got, want)
}

// expand substitutes intermediate references depth-first, appending the
// closed-form terms to out.
func (c *checker) expand(t expr.Term, depth int, out *[]expr.Term) error {
	if depth > c.opts.MaxDepth {
		return fmt.Errorf("%w: depth %d", ErrDepthExceeded, depth)
	}
	ref := -1
	var def evalseq.Step
	for i, f := range t.Factors {
		if st, ok := c.seq.Lookup(f.Base); ok {
			ref, def = i, st
			break
		}
	}
	if ref < 0 {
		if len(*out) >= c.opts.MaxTerms {
			return fmt.Errorf("%w: %d", ErrTooManyTerms, c.opts.MaxTerms)
		}
		*out = append(*out, t)
		return nil
	}

	use := t.Factors[ref]
	rest := make([]expr.Factor, 0, len(t.Factors)-1)
	rest = append(rest, t.Factors[:ref]...)
	rest = append(rest, t.Factors[ref+1:]...)

	slotNames := make(map[string]bool, len(def.Target.Indices))
	slotSub := make(map[string]string, len(def.Target.Indices))
	for q, ix := range def.Target.Indices {
		slotNames[ix.Name] = true
		slotSub[ix.Name] = use.Indices[q].Name
	}
	for _, dt := range def.Terms {
		// Freshen the definition's summed indices first, so they cannot
		// capture names already present at the use site.
		renamed := dt.Rename(c.freshSummed(dt, slotNames)).Rename(slotSub)
		nt := expr.Term{
			Coeff:   t.Coeff * renamed.Coeff,
			Factors: append(append([]expr.Factor{}, rest...), renamed.Factors...),
		}
		if err := c.expand(nt, depth+1, out); err != nil {
			return err
		}
	}
	return nil
}

// freshSummed maps every non-slot index name of a definition term to a
// fresh name drawn from a namespace inputs never use.
func (c *checker) freshSummed(t expr.Term, slots map[string]bool) map[string]string {
	sub := make(map[string]string)
	for _, f := range t.Factors {
		for _, ix := range f.Indices {
			if slots[ix.Name] || sub[ix.Name] != "" {
				continue
			}
			c.fresh++
			sub[ix.Name] = "#v" + strconv.Itoa(c.fresh)
		}
	}
	return sub
}

// accumulate folds terms into canonical-key coefficient buckets.
func accumulate(terms []expr.Term, ext map[string]bool) (map[string]float64, error) {
	acc := make(map[string]float64, len(terms))
	for _, t := range terms {
		pat, err := expr.CanonKey(t, ext)
		if err != nil {
			return nil, errors.Wrap(err, "verify: canonicalize")
		}
		acc[pat.Key] += t.Coeff * float64(pat.Sign)
	}
	return acc, nil
}

func (c *checker) compare(got, want map[string]float64) error {
	keys := make(map[string]bool, len(got)+len(want))
	for k := range got {
		keys[k] = true
	}
	for k := range want {
		keys[k] = true
	}
	ordered := make([]string, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Strings(ordered)
	for _, k := range ordered {
		if math.Abs(got[k]-want[k]) > c.opts.Epsilon {
			return fmt.Errorf("%w: term %s computes %g, expression has %g",
				ErrMismatch, k, got[k], want[k])
		}
	}
	return nil
}
