package optimize_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/einopt/cost"
	"github.com/katalvlaran/einopt/expr"
	"github.com/katalvlaran/einopt/optimize"
	"github.com/katalvlaran/einopt/verify"
)

const seedDet = 7

func ix(name, rng string) expr.Index { return expr.Index{Name: name, Range: rng} }

func fac(base string, ixs ...expr.Index) expr.Factor {
	return expr.Factor{Base: base, Indices: ixs}
}

// ladder returns the two-electron ladder contraction over occupied (o)
// and virtual (v) orbital ranges:
//
//	r[a,b,i,j] = v2[k,l,c,d]·t[c,d,i,j]·t[a,b,k,l]
func ladder(t *testing.T, no, nv int64) (*expr.RangeTable, expr.TensorExpr) {
	t.Helper()
	tbl, err := expr.NewRangeTable(
		expr.Range{Label: "o", Size: no},
		expr.Range{Label: "v", Size: nv},
	)
	require.NoError(t, err)
	e := expr.TensorExpr{
		Target: fac("r", ix("a", "v"), ix("b", "v"), ix("i", "o"), ix("j", "o")),
		Terms: []expr.Term{{Coeff: 1, Factors: []expr.Factor{
			fac("v2", ix("k", "o"), ix("l", "o"), ix("c", "v"), ix("d", "v")),
			fac("t", ix("c", "v"), ix("d", "v"), ix("i", "o"), ix("j", "o")),
			fac("t", ix("a", "v"), ix("b", "v"), ix("k", "o"), ix("l", "o")),
		}}},
	}
	return tbl, e
}

func TestOptimize_LadderTwoStep(t *testing.T) {
	tbl, e := ladder(t, 8, 40)
	res, err := optimize.Optimize(tbl, []expr.TensorExpr{e})
	require.NoError(t, err)

	// One intermediate (v2·t over c,d) and the target step.
	steps := res.Sequence.Steps()
	require.Len(t, steps, 2)
	require.True(t, steps[0].Intermediate)
	require.Equal(t, "r", steps[1].Target.Base)

	// Each step runs in no⁴·nv² multiply-adds: 2·(8⁴·40²) apiece.
	total, ok := res.Total.Numeric()
	require.True(t, ok)
	require.InDelta(t, 2*2*4096*1600.0, total, 1e-3)

	// The three-way single contraction would cost no⁴·nv⁴ instead.
	naive, err := optimize.NaiveTotal(tbl, []expr.TensorExpr{e})
	require.NoError(t, err)
	nv, ok := naive.Numeric()
	require.True(t, ok)
	require.LessOrEqual(t, total, nv)
}

func TestOptimize_LadderSymbolicNeedsDegreePolicy(t *testing.T) {
	tbl, e := ladder(t, 0, 0) // symbolic ranges

	_, err := optimize.Optimize(tbl, []expr.TensorExpr{e})
	require.ErrorIs(t, err, cost.ErrIncomparableCost)

	res, err := optimize.Optimize(tbl, []expr.TensorExpr{e},
		optimize.WithPolicy(cost.PolicyDegree))
	require.NoError(t, err)
	require.Len(t, res.Sequence.Steps(), 2)

	// o⁴v² + o⁴v², evaluated at no=8, nv=40.
	at, err := res.Total.Eval(map[string]int64{"o": 8, "v": 40})
	require.NoError(t, err)
	require.InDelta(t, 2*2*4096*1600.0, at, 1e-3)
}

func TestOptimize_SharedWorkFactoredOnce(t *testing.T) {
	tbl, err := expr.NewRangeTable(
		expr.Range{Label: "m", Size: 2},
		expr.Range{Label: "n", Size: 8},
	)
	require.NoError(t, err)
	exprs := []expr.TensorExpr{
		{
			Target: fac("T", ix("i", "m"), ix("j", "n")),
			Terms: []expr.Term{{Coeff: 1, Factors: []expr.Factor{
				fac("A", ix("i", "m"), ix("p", "n")),
				fac("B", ix("p", "n"), ix("q", "m")),
				fac("C", ix("q", "m"), ix("j", "n")),
			}}},
		},
		{
			Target: fac("S", ix("i", "m"), ix("j", "n")),
			Terms: []expr.Term{{Coeff: -2, Factors: []expr.Factor{
				fac("A", ix("i", "m"), ix("r", "n")),
				fac("B", ix("r", "n"), ix("s", "m")),
				fac("D", ix("s", "m"), ix("j", "n")),
			}}},
		},
	}
	res, err := optimize.Optimize(tbl, exprs)
	require.NoError(t, err)

	// A·B appears once; both targets reference it.
	require.Len(t, res.Sequence.Steps(), 3)
	total, ok := res.Total.Numeric()
	require.True(t, ok)
	require.InDelta(t, 192.0, total, 1e-9)

	st, ok := res.Sequence.Lookup("S")
	require.True(t, ok)
	require.InDelta(t, -2.0, st.Terms[0].Coeff, 1e-12)
}

func TestOptimize_Deterministic(t *testing.T) {
	tbl, e := ladder(t, 8, 40)
	first, err := optimize.Optimize(tbl, []expr.TensorExpr{e})
	require.NoError(t, err)
	second, err := optimize.Optimize(tbl, []expr.TensorExpr{e})
	require.NoError(t, err)

	require.Empty(t, cmp.Diff(first.Sequence.String(), second.Sequence.String()))
	require.Empty(t, cmp.Diff(first.Total.String(), second.Total.String()))
}

// randomChainExprs builds a batch of matrix-chain expressions with shared
// leading products, the shape the factoring stage thrives on. Some chains
// swap one link in for the symmetric tensor W (declared pair swap, both
// slots in range m) and some append a trace factor Q[c,c], so the whole
// pipeline is exercised against symmetry- and trace-carrying inputs too.
func randomChainExprs(rng *rand.Rand, tbl *expr.RangeTable, labels []string) []expr.TensorExpr {
	nExprs := 1 + rng.Intn(3)
	out := make([]expr.TensorExpr, nExprs)
	for xi := range out {
		n := 2 + rng.Intn(4)
		links := make([]string, n+1)
		rngOf := make([]string, n+1)
		for i := range links {
			links[i] = fmt.Sprintf("x%d_%d", xi, i)
			rngOf[i] = labels[rng.Intn(len(labels))]
		}
		symAt := -1
		if rng.Intn(2) == 0 {
			symAt = rng.Intn(n)
			rngOf[symAt], rngOf[symAt+1] = "m", "m"
		}
		factors := make([]expr.Factor, n)
		for i := 0; i < n; i++ {
			if i == symAt {
				f := fac("W", ix(links[i], "m"), ix(links[i+1], "m"))
				f.Symms = []expr.Perm{{Slots: []int{1, 0}, Sign: 1}}
				factors[i] = f
				continue
			}
			factors[i] = fac(fmt.Sprintf("M%d", rng.Intn(4)),
				ix(links[i], rngOf[i]), ix(links[i+1], rngOf[i+1]))
		}
		if rng.Intn(3) == 0 {
			tr := fmt.Sprintf("c%d", xi)
			factors = append(factors, fac("Q", ix(tr, "k"), ix(tr, "k")))
		}
		out[xi] = expr.TensorExpr{
			Target: fac(fmt.Sprintf("Z%d", xi),
				ix(links[0], rngOf[0]), ix(links[n], rngOf[n])),
			Terms: []expr.Term{{Coeff: float64(1 + rng.Intn(3)), Factors: factors}},
		}
	}
	return out
}

func TestOptimize_RandomNeverWorseThanNaive(t *testing.T) {
	rng := rand.New(rand.NewSource(seedDet))
	labels := []string{"m", "n", "k"}
	for trial := 0; trial < 60; trial++ {
		tbl, err := expr.NewRangeTable(
			expr.Range{Label: "m", Size: int64(2 + rng.Intn(6))},
			expr.Range{Label: "n", Size: int64(2 + rng.Intn(6))},
			expr.Range{Label: "k", Size: int64(2 + rng.Intn(6))},
		)
		require.NoError(t, err)
		exprs := randomChainExprs(rng, tbl, labels)

		// Verification stays on: every optimized sequence must expand
		// back to its input.
		res, err := optimize.Optimize(tbl, exprs)
		require.NoError(t, err, "trial %d", trial)

		naive, err := optimize.NaiveTotal(tbl, exprs)
		require.NoError(t, err)
		got, ok := res.Total.Numeric()
		require.True(t, ok)
		want, ok := naive.Numeric()
		require.True(t, ok)
		require.LessOrEqual(t, got, want+1e-9, "trial %d", trial)
	}
}

func TestOptimize_SeededTieBreakStaysValid(t *testing.T) {
	tbl, e := ladder(t, 8, 40)
	res, err := optimize.Optimize(tbl, []expr.TensorExpr{e}, optimize.WithSeed(99))
	require.NoError(t, err)

	// A different tie-break order never changes what is computed.
	require.NoError(t, verify.Check(res.Sequence, []expr.TensorExpr{e}, verify.DefaultOptions()))
}

func TestOptimize_InputErrorsAggregated(t *testing.T) {
	tbl, e := ladder(t, 8, 40)

	_, err := optimize.Optimize(tbl, nil)
	require.ErrorIs(t, err, optimize.ErrNoExpressions)

	bad := e.Clone()
	bad.Terms[0].Factors = bad.Terms[0].Factors[:2] // a,b now dangle
	_, err = optimize.Optimize(tbl, []expr.TensorExpr{e, e, bad})
	require.ErrorIs(t, err, optimize.ErrDuplicateTarget)
	require.ErrorIs(t, err, expr.ErrUnbalancedIndex)
}

func TestOptimize_OptionPanics(t *testing.T) {
	require.Panics(t, func() { optimize.WithOpFactor(0)(&optimize.Options{}) })
	require.Panics(t, func() { optimize.WithFactorIterations(-1)(&optimize.Options{}) })
	require.Panics(t, func() { optimize.WithParallelism(0)(&optimize.Options{}) })
	require.Panics(t, func() { optimize.WithPrefix("")(&optimize.Options{}) })
	require.Panics(t, func() { optimize.WithMaterializeCost(-1)(&optimize.Options{}) })
}
