package parenth_test

import (
	"fmt"

	"github.com/katalvlaran/einopt/expr"
	"github.com/katalvlaran/einopt/parenth"
)

// ExampleSearch parenthesizes a rectangular matrix chain where the
// left-to-right order is the wrong one: pairing B with C first keeps
// every intermediate small.
func ExampleSearch() {
	table, _ := expr.NewRangeTable(
		expr.Range{Label: "m", Size: 2},
		expr.Range{Label: "n", Size: 8},
	)
	m := func(s string) expr.Index { return expr.Index{Name: s, Range: "m"} }
	n := func(s string) expr.Index { return expr.Index{Name: s, Range: "n"} }

	term := expr.Term{Coeff: 1, Factors: []expr.Factor{
		{Base: "A", Indices: []expr.Index{n("i"), m("p")}},
		{Base: "B", Indices: []expr.Index{m("p"), n("q")}},
		{Base: "C", Indices: []expr.Index{n("q"), m("j")}},
	}}
	ext := map[string]bool{"i": true, "j": true}

	tree, err := parenth.Search(table, term, ext, parenth.DefaultOptions())
	if err != nil {
		fmt.Println("search:", err)
		return
	}
	total, _ := tree.Total.Numeric()
	naive, _ := parenth.NaiveCost(table, term, ext, parenth.DefaultOptions())
	naiveTotal, _ := naive.Numeric()
	fmt.Printf("optimal %.0f\n", total)
	fmt.Printf("left-to-right %.0f\n", naiveTotal)
	// Output:
	// optimal 128
	// left-to-right 512
}
