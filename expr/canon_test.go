package expr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/einopt/expr"
)

// extOf builds an external-name set from names.
func extOf(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func TestCanonKey_InvariantUnderFactorOrder(t *testing.T) {
	e := ladderExpr()
	term := e.Terms[0]
	ext := e.ExternalSet()

	base, err := expr.CanonKey(term, ext)
	require.NoError(t, err)
	require.Equal(t, 1, base.Sign)

	shuffled := term.Clone()
	shuffled.Factors[0], shuffled.Factors[2] = shuffled.Factors[2], shuffled.Factors[0]
	got, err := expr.CanonKey(shuffled, ext)
	require.NoError(t, err)
	require.Equal(t, base.Key, got.Key)
	require.Equal(t, base.Sign, got.Sign)
}

func TestCanonKey_InvariantUnderSummedRenaming(t *testing.T) {
	e := ladderExpr()
	term := e.Terms[0]
	ext := e.ExternalSet()

	base, err := expr.CanonKey(term, ext)
	require.NoError(t, err)

	renamed := term.Rename(map[string]string{"c": "x", "d": "y", "k": "p", "l": "q"})
	got, err := expr.CanonKey(renamed, ext)
	require.NoError(t, err)
	require.Equal(t, base.Key, got.Key)
}

func TestCanonKey_InvariantUnderSymmetry(t *testing.T) {
	swap01 := expr.Perm{Slots: []int{1, 0, 2, 3}, Sign: 1}
	a := expr.Term{Coeff: 1, Factors: []expr.Factor{
		{Base: "g", Indices: []expr.Index{ix("i", "o"), ix("j", "o"), ix("c", "v"), ix("c", "v")}},
	}}
	// Same factor with the first two slots pre-swapped: equal under symmetry.
	b := expr.Term{Coeff: 1, Factors: []expr.Factor{
		{Base: "g", Indices: []expr.Index{ix("j", "o"), ix("i", "o"), ix("c", "v"), ix("c", "v")}},
	}}
	a.Factors[0].Symms = []expr.Perm{swap01}
	b.Factors[0].Symms = []expr.Perm{swap01}

	ext := extOf("i", "j")
	pa, err := expr.CanonKey(a, ext)
	require.NoError(t, err)
	pb, err := expr.CanonKey(b, ext)
	require.NoError(t, err)
	require.Equal(t, pa.Key, pb.Key)
	require.Equal(t, pa.Sign, pb.Sign)
}

func TestCanonKey_AntisymmetricSignFlip(t *testing.T) {
	anti := expr.Perm{Slots: []int{1, 0}, Sign: -1}
	// A[i,j] and A[j,i] with antisymmetric A: same key, opposite signs.
	a := expr.Term{Coeff: 1, Factors: []expr.Factor{
		{Base: "A", Indices: []expr.Index{ix("i", "o"), ix("j", "o")}, Symms: []expr.Perm{anti}},
	}}
	b := expr.Term{Coeff: 1, Factors: []expr.Factor{
		{Base: "A", Indices: []expr.Index{ix("j", "o"), ix("i", "o")}, Symms: []expr.Perm{anti}},
	}}
	ext := extOf("i", "j")
	pa, err := expr.CanonKey(a, ext)
	require.NoError(t, err)
	pb, err := expr.CanonKey(b, ext)
	require.NoError(t, err)
	require.Equal(t, pa.Key, pb.Key)
	require.Equal(t, -pa.Sign, pb.Sign)
}

func TestCanonKey_DistinguishesDifferentContractions(t *testing.T) {
	ext := extOf("i", "j")
	// A[i,c]*B[c,j] vs A[i,c]*B[j,c]: different contractions, different keys.
	a := expr.Term{Coeff: 1, Factors: []expr.Factor{
		{Base: "A", Indices: []expr.Index{ix("i", "o"), ix("c", "v")}},
		{Base: "B", Indices: []expr.Index{ix("c", "v"), ix("j", "o")}},
	}}
	b := expr.Term{Coeff: 1, Factors: []expr.Factor{
		{Base: "A", Indices: []expr.Index{ix("i", "o"), ix("c", "v")}},
		{Base: "B", Indices: []expr.Index{ix("j", "o"), ix("c", "v")}},
	}}
	pa, err := expr.CanonKey(a, ext)
	require.NoError(t, err)
	pb, err := expr.CanonKey(b, ext)
	require.NoError(t, err)
	require.NotEqual(t, pa.Key, pb.Key)
}

func TestCanonPattern_MatchesAcrossRenamedFreeIndices(t *testing.T) {
	// The same v·t sub-contraction instantiated with two disjoint sets of
	// free names must produce one pattern key.
	a := expr.Term{Coeff: 1, Factors: []expr.Factor{
		{Base: "v", Indices: []expr.Index{ix("k", "o"), ix("l", "o"), ix("c", "v"), ix("d", "v")}},
		{Base: "t", Indices: []expr.Index{ix("c", "v"), ix("d", "v"), ix("i", "o"), ix("j", "o")}},
	}}
	b := expr.Term{Coeff: 1, Factors: []expr.Factor{
		{Base: "v", Indices: []expr.Index{ix("p", "o"), ix("q", "o"), ix("e", "v"), ix("f", "v")}},
		{Base: "t", Indices: []expr.Index{ix("e", "v"), ix("f", "v"), ix("m", "o"), ix("n", "o")}},
	}}
	pa, err := expr.CanonPattern(a, extOf("k", "l", "i", "j"))
	require.NoError(t, err)
	pb, err := expr.CanonPattern(b, extOf("p", "q", "m", "n"))
	require.NoError(t, err)
	require.Equal(t, pa.Key, pb.Key)
	require.Len(t, pa.Free, 4)
	require.Len(t, pb.Free, 4)

	// Free slots correspond positionally: slot k of a maps to slot k of b.
	for k := range pa.Free {
		require.Equal(t, pa.Free[k].Range, pb.Free[k].Range)
	}
}

func TestCanonPattern_FreeRenamingCannotReorderFactors(t *testing.T) {
	// Two same-base factors in a chain: which one carries the
	// lexicographically smaller free name depends on the renaming, so the
	// candidate ordering must not be driven by free names. T[x,p]·T[p,y]
	// and T[z,q]·T[q,a] are the same contraction.
	a := expr.Term{Coeff: 1, Factors: []expr.Factor{
		{Base: "T", Indices: []expr.Index{ix("x", "o"), ix("p", "o")}},
		{Base: "T", Indices: []expr.Index{ix("p", "o"), ix("y", "o")}},
	}}
	b := expr.Term{Coeff: 1, Factors: []expr.Factor{
		{Base: "T", Indices: []expr.Index{ix("z", "o"), ix("q", "o")}},
		{Base: "T", Indices: []expr.Index{ix("q", "o"), ix("a", "o")}},
	}}
	pa, err := expr.CanonPattern(a, extOf("x", "y"))
	require.NoError(t, err)
	pb, err := expr.CanonPattern(b, extOf("z", "a"))
	require.NoError(t, err)
	require.Equal(t, pa.Key, pb.Key)

	// Free slots still line up positionally after canonicalization.
	require.Len(t, pa.Free, 2)
	require.Len(t, pb.Free, 2)
}

func TestCanonPattern_ScalarFactor(t *testing.T) {
	term := expr.Term{Coeff: 2, Factors: []expr.Factor{{Base: "e0"}}}
	p, err := expr.CanonPattern(term, nil)
	require.NoError(t, err)
	require.Equal(t, "e0", p.Key)
	require.Empty(t, p.Free)
}
