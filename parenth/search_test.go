package parenth_test

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/einopt/cost"
	"github.com/katalvlaran/einopt/expr"
	"github.com/katalvlaran/einopt/parenth"
)

// seedDet freezes every randomized test in this file.
const seedDet = 1

func ix(name, rng string) expr.Index { return expr.Index{Name: name, Range: rng} }

// ladderInputs builds the three-factor ladder term with concrete sizes
// no=8, nv=40 and externals a,b,i,j.
func ladderInputs(t *testing.T) (*expr.RangeTable, expr.Term, map[string]bool) {
	t.Helper()
	tbl, err := expr.NewRangeTable(
		expr.Range{Label: "o", Size: 8},
		expr.Range{Label: "v", Size: 40},
	)
	require.NoError(t, err)
	term := expr.Term{Coeff: 1, Factors: []expr.Factor{
		{Base: "v", Indices: []expr.Index{ix("k", "o"), ix("l", "o"), ix("c", "v"), ix("d", "v")}},
		{Base: "t", Indices: []expr.Index{ix("c", "v"), ix("d", "v"), ix("i", "o"), ix("j", "o")}},
		{Base: "t", Indices: []expr.Index{ix("a", "v"), ix("b", "v"), ix("k", "o"), ix("l", "o")}},
	}}
	ext := map[string]bool{"a": true, "b": true, "i": true, "j": true}
	return tbl, term, ext
}

func TestSearch_NoFactors(t *testing.T) {
	tbl, _, ext := ladderInputs(t)
	_, err := parenth.Search(tbl, expr.Term{Coeff: 1}, ext, parenth.DefaultOptions())
	require.ErrorIs(t, err, parenth.ErrNoFactors)
}

func TestSearch_TooManyFactors(t *testing.T) {
	tbl, err := expr.NewRangeTable(expr.Range{Label: "o", Size: 2})
	require.NoError(t, err)
	// 65 scalar factors overflow the 64-bit subset mask.
	factors := make([]expr.Factor, parenth.MaxFactors+1)
	for i := range factors {
		factors[i] = expr.Factor{Base: fmt.Sprintf("s%d", i)}
	}
	_, err = parenth.Search(tbl, expr.Term{Coeff: 1, Factors: factors}, nil, parenth.DefaultOptions())
	require.ErrorIs(t, err, parenth.ErrTooManyFactors)
}

// TestSearch_LadderTwoStep pins the scenario from the design discussion:
// contracting v·t first (over c,d) then with the second t (over k,l) costs
// 2·(no⁴·nv²) + 2·(no⁴·nv²)... strictly less than the single three-way
// contraction; the chosen tree must pair factor 0 with factor 1 first.
func TestSearch_LadderTwoStep(t *testing.T) {
	tbl, term, ext := ladderInputs(t)
	tree, err := parenth.Search(tbl, term, ext, parenth.DefaultOptions())
	require.NoError(t, err)
	require.False(t, tree.IsLeaf())

	no, nv := 8.0, 40.0
	// Step p[k,l,i,j] = sum_{c,d} v[k,l,c,d]*t[c,d,i,j]: nest k,l,i,j,c,d.
	p := 2 * no * no * no * no * nv * nv
	// Step r[a,b,i,j] = sum_{k,l} p[k,l,i,j]*t[a,b,k,l]: nest a,b,i,j,k,l.
	r := 2 * nv * nv * no * no * no * no
	want := p + r

	got, ok := tree.Total.Numeric()
	require.True(t, ok)
	require.InEpsilon(t, want, got, 1e-12)

	// The deep child must be the v·t pair (factors sharing c,d), with free
	// indices k,l,i,j.
	deep := tree.Left
	if deep.IsLeaf() {
		deep = tree.Right
	}
	require.False(t, deep.IsLeaf())
	names := make([]string, 0, 4)
	for _, o := range deep.Open {
		names = append(names, o.Name)
	}
	require.ElementsMatch(t, []string{"k", "l", "i", "j"}, names)

	// Strictly cheaper than the one-shot three-way contraction
	// (nest a,b,i,j,k,l,c,d).
	oneShot := 2 * nv * nv * no * no * no * no * nv * nv
	require.Less(t, got, oneShot)
}

func TestSearch_PostOrderStepsTopological(t *testing.T) {
	tbl, term, ext := ladderInputs(t)
	tree, err := parenth.Search(tbl, term, ext, parenth.DefaultOptions())
	require.NoError(t, err)
	internals := tree.Internal()
	require.Len(t, internals, 2)
	// Post-order: the dependent (root) step comes last.
	require.Same(t, tree, internals[len(internals)-1])
}

func TestSearch_TraceClosedAtLeaf(t *testing.T) {
	tbl, err := expr.NewRangeTable(expr.Range{Label: "o", Size: 8})
	require.NoError(t, err)
	// tr = sum_c A[c,c]: a pure trace, one factor, zero open indices.
	term := expr.Term{Coeff: 1, Factors: []expr.Factor{
		{Base: "A", Indices: []expr.Index{ix("c", "o"), ix("c", "o")}},
	}}
	tree, err := parenth.Search(tbl, term, nil, parenth.DefaultOptions())
	require.NoError(t, err)
	require.True(t, tree.IsLeaf())
	require.Empty(t, tree.Open)
	got, ok := tree.Total.Numeric()
	require.True(t, ok)
	require.Equal(t, 16.0, got) // 2 · no
}

// classicChain computes the textbook matrix-chain DP optimum over dims
// d[0..n], with the same multiply-add factor the searcher charges.
func classicChain(d []float64) float64 {
	n := len(d) - 1
	m := make([][]float64, n+1)
	for i := range m {
		m[i] = make([]float64, n+1)
	}
	for length := 2; length <= n; length++ {
		for i := 1; i+length-1 <= n; i++ {
			j := i + length - 1
			m[i][j] = math.Inf(1)
			for k := i; k < j; k++ {
				c := m[i][k] + m[k+1][j] + 2*d[i-1]*d[k]*d[j]
				if c < m[i][j] {
					m[i][j] = c
				}
			}
		}
	}
	return m[1][n]
}

func TestSearch_MatrixChainEquivalence(t *testing.T) {
	rng := rand.New(rand.NewSource(seedDet))
	for n := 2; n <= 10; n++ {
		for trial := 0; trial < 20; trial++ {
			dims := make([]float64, n+1)
			ranges := make([]expr.Range, n+1)
			for i := range dims {
				dims[i] = float64(2 + rng.Intn(8))
				ranges[i] = expr.Range{Label: fmt.Sprintf("d%d", i), Size: int64(dims[i])}
			}
			tbl, err := expr.NewRangeTable(ranges...)
			require.NoError(t, err)

			factors := make([]expr.Factor, n)
			for k := 0; k < n; k++ {
				factors[k] = expr.Factor{Base: fmt.Sprintf("A%d", k), Indices: []expr.Index{
					{Name: fmt.Sprintf("x%d", k), Range: fmt.Sprintf("d%d", k)},
					{Name: fmt.Sprintf("x%d", k+1), Range: fmt.Sprintf("d%d", k+1)},
				}}
			}
			ext := map[string]bool{"x0": true, fmt.Sprintf("x%d", n): true}

			tree, err := parenth.Search(tbl, expr.Term{Coeff: 1, Factors: factors}, ext, parenth.DefaultOptions())
			require.NoError(t, err)
			got, ok := tree.Total.Numeric()
			require.True(t, ok)
			require.InDelta(t, classicChain(dims), got, 1e-6,
				"n=%d trial=%d dims=%v", n, trial, dims)
		}
	}
}

// randomTerm builds a random valid contraction of nf factors over a pool
// of indices: each summed index is planted into exactly two slots.
func randomTerm(rng *rand.Rand, nf int) (*expr.RangeTable, expr.Term, map[string]bool, error) {
	ranges := []expr.Range{
		{Label: "o", Size: int64(2 + rng.Intn(6))},
		{Label: "w", Size: int64(2 + rng.Intn(10))},
	}
	tbl, err := expr.NewRangeTable(ranges...)
	if err != nil {
		return nil, expr.Term{}, nil, err
	}
	labels := []string{"o", "w"}

	// Give each factor 1–3 open slots; then wire pairs of slots together
	// with summed indices, leaving the rest external.
	type slot struct{ f int }
	var slots []slot
	factors := make([]expr.Factor, nf)
	for f := 0; f < nf; f++ {
		factors[f] = expr.Factor{Base: fmt.Sprintf("T%d", f)}
		for k := 0; k < 1+rng.Intn(3); k++ {
			slots = append(slots, slot{f: f})
		}
	}
	rng.Shuffle(len(slots), func(i, j int) { slots[i], slots[j] = slots[j], slots[i] })

	ext := make(map[string]bool)
	id := 0
	for len(slots) >= 2 && rng.Intn(3) > 0 {
		a, b := slots[0], slots[1]
		slots = slots[2:]
		name := fmt.Sprintf("s%d", id)
		id++
		r := labels[rng.Intn(2)]
		factors[a.f].Indices = append(factors[a.f].Indices, expr.Index{Name: name, Range: r})
		factors[b.f].Indices = append(factors[b.f].Indices, expr.Index{Name: name, Range: r})
	}
	for _, sl := range slots {
		name := fmt.Sprintf("e%d", id)
		id++
		r := labels[rng.Intn(2)]
		factors[sl.f].Indices = append(factors[sl.f].Indices, expr.Index{Name: name, Range: r})
		ext[name] = true
	}
	return tbl, expr.Term{Coeff: 1, Factors: factors}, ext, nil
}

func TestSearch_NeverWorseThanNaive(t *testing.T) {
	rng := rand.New(rand.NewSource(seedDet))
	for trial := 0; trial < 200; trial++ {
		nf := 2 + rng.Intn(5)
		tbl, term, ext, err := randomTerm(rng, nf)
		require.NoError(t, err)

		tree, err := parenth.Search(tbl, term, ext, parenth.DefaultOptions())
		require.NoError(t, err)
		naive, err := parenth.NaiveCost(tbl, term, ext, parenth.DefaultOptions())
		require.NoError(t, err)

		opt, ok := tree.Total.Numeric()
		require.True(t, ok)
		base, ok := naive.Numeric()
		require.True(t, ok)
		require.LessOrEqual(t, opt, base+1e-9, "trial=%d term=%s", trial, term.String())
	}
}

func TestSearch_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(seedDet))
	for trial := 0; trial < 50; trial++ {
		tbl, term, ext, err := randomTerm(rng, 2+rng.Intn(4))
		require.NoError(t, err)
		a, err := parenth.Search(tbl, term, ext, parenth.DefaultOptions())
		require.NoError(t, err)
		b, err := parenth.Search(tbl, term, ext, parenth.DefaultOptions())
		require.NoError(t, err)
		require.Equal(t, renderTree(a), renderTree(b))
	}
}

// renderTree flattens a tree into a comparable structural string.
func renderTree(t *parenth.Tree) string {
	if t.IsLeaf() {
		return t.Factor.String()
	}
	return "(" + renderTree(t.Left) + "." + renderTree(t.Right) + ")"
}

func TestSearch_SymbolicStrictIncomparable(t *testing.T) {
	// Two symbolic ranges make split costs incomparable under PolicyStrict.
	tbl, err := expr.NewRangeTable(
		expr.Range{Label: "p", Size: 0},
		expr.Range{Label: "q", Size: 0},
	)
	require.NoError(t, err)
	term := expr.Term{Coeff: 1, Factors: []expr.Factor{
		{Base: "A", Indices: []expr.Index{ix("i", "p"), ix("c", "p")}},
		{Base: "B", Indices: []expr.Index{ix("c", "p"), ix("d", "q")}},
		{Base: "C", Indices: []expr.Index{ix("d", "q"), ix("j", "q")}},
	}}
	ext := map[string]bool{"i": true, "j": true}

	_, err = parenth.Search(tbl, term, ext, parenth.DefaultOptions())
	require.ErrorIs(t, err, cost.ErrIncomparableCost)

	// PolicyDegree resolves the same input deterministically.
	opts := parenth.DefaultOptions()
	opts.Policy = cost.PolicyDegree
	tree, err := parenth.Search(tbl, term, ext, opts)
	require.NoError(t, err)
	require.False(t, tree.IsLeaf())
}

func TestSearch_SingleFactorPassThrough(t *testing.T) {
	tbl, err := expr.NewRangeTable(expr.Range{Label: "o", Size: 4})
	require.NoError(t, err)
	term := expr.Term{Coeff: 1, Factors: []expr.Factor{
		{Base: "A", Indices: []expr.Index{ix("i", "o"), ix("j", "o")}},
	}}
	ext := map[string]bool{"i": true, "j": true}
	tree, err := parenth.Search(tbl, term, ext, parenth.DefaultOptions())
	require.NoError(t, err)
	require.True(t, tree.IsLeaf())
	require.True(t, tree.Total.IsZero())
	require.Len(t, tree.Open, 2)
}
