package optimize_test

import (
	"fmt"

	"github.com/katalvlaran/einopt/expr"
	"github.com/katalvlaran/einopt/optimize"
)

// ExampleOptimize optimizes the classic two-electron ladder term. The
// naive three-tensor contraction touches no⁴·nv⁴ index tuples; splitting
// it into two pairwise steps brings the count down to 2·no⁴·nv².
func ExampleOptimize() {
	table, _ := expr.NewRangeTable(
		expr.Range{Label: "o", Size: 8},
		expr.Range{Label: "v", Size: 40},
	)
	o := func(n string) expr.Index { return expr.Index{Name: n, Range: "o"} }
	v := func(n string) expr.Index { return expr.Index{Name: n, Range: "v"} }

	ladder := expr.TensorExpr{
		Target: expr.Factor{Base: "r", Indices: []expr.Index{v("a"), v("b"), o("i"), o("j")}},
		Terms: []expr.Term{{Coeff: 1, Factors: []expr.Factor{
			{Base: "v2", Indices: []expr.Index{o("k"), o("l"), v("c"), v("d")}},
			{Base: "t", Indices: []expr.Index{v("c"), v("d"), o("i"), o("j")}},
			{Base: "t", Indices: []expr.Index{v("a"), v("b"), o("k"), o("l")}},
		}}},
	}

	res, err := optimize.Optimize(table, []expr.TensorExpr{ladder})
	if err != nil {
		fmt.Println("optimize:", err)
		return
	}
	for _, st := range res.Sequence.Steps() {
		c, _ := st.Cost.Numeric()
		fmt.Printf("%s costs %.0f\n", st.Target.Base, c)
	}
	total, _ := res.Total.Numeric()
	fmt.Printf("total %.0f\n", total)
	// Output:
	// tau1 costs 13107200
	// r costs 13107200
	// total 26214400
}
