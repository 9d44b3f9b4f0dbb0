// Package factorize — candidate collection and ranking.
package factorize

import (
	"hash/fnv"
	"sort"

	"github.com/katalvlaran/einopt/cost"
	"github.com/katalvlaran/einopt/expr"
	"github.com/katalvlaran/einopt/parenth"
)

// workTree is one rewritable tree: a declared target or an extracted
// definition. Coeff absorbs the signs its rewrites pick up.
type workTree struct {
	target expr.Factor
	coeff  float64
	root   *parenth.Tree
	synth  bool
}

// site is one occurrence of a candidate pattern: a node inside an owner
// tree, plus the canonical form relating the node to the pattern.
type site struct {
	owner *workTree
	node  *parenth.Tree
	pat   expr.Pattern
}

// group collects every site of one canonical pattern.
type group struct {
	key     string
	sites   []site
	total   cost.Poly // one site's subtree cost (all sites price equally)
	savings cost.Poly // (len(sites)-1)·total − write-out overhead
}

// collect gathers the candidate sites of every work tree: internal nodes
// and trace leaves, the nodes that actually compute something. Nodes that
// fail canonicalization limits are skipped, not fatal.
func collect(works []*workTree) map[string][]site {
	byKey := make(map[string][]site)
	for _, w := range works {
		walk(w.root, func(n *parenth.Tree) {
			if n.IsLeaf() && n.Step.Coeff == 0 {
				return
			}
			ext := make(map[string]bool, len(n.Open))
			for _, ix := range n.Open {
				ext[ix.Name] = true
			}
			pat, err := expr.CanonPattern(n.Term(), ext)
			if err != nil {
				return
			}
			byKey[pat.Key] = append(byKey[pat.Key], site{owner: w, node: n, pat: pat})
		})
	}
	return byKey
}

func walk(n *parenth.Tree, visit func(*parenth.Tree)) {
	if n == nil {
		return
	}
	walk(n.Left, visit)
	walk(n.Right, visit)
	visit(n)
}

// groups filters the collected sites down to profitable multi-site
// patterns and ranks them best-first. Two nodes of one tree are either
// disjoint or nested, and nested nodes contract different factor counts,
// so same-key sites never overlap and every group commits cleanly.
func (e *engine) groups(byKey map[string][]site) []group {
	out := make([]group, 0, len(byKey))
	for key, sites := range byKey {
		if len(sites) < 2 {
			continue
		}
		total := sites[0].node.Total
		base := total.Scale(float64(len(sites) - 1))
		overhead, err := e.writeOut(sites[0].pat.Free)
		if err != nil {
			continue
		}
		profitable, err := cost.LessThan(overhead, base, e.opts.Policy)
		if err != nil || !profitable {
			// Incomparable savings are skipped under the strict policy.
			continue
		}
		out = append(out, group{
			key:     key,
			sites:   sites,
			total:   total,
			savings: base.Sub(overhead),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		ord, _ := cost.Compare(out[i].savings, out[j].savings, cost.PolicyDegree)
		switch ord {
		case cost.Greater:
			return true
		case cost.Less:
			return false
		}
		if e.opts.Seed != 0 {
			return e.tiebreak(out[i].key) < e.tiebreak(out[j].key)
		}
		return out[i].key < out[j].key
	})
	return out
}

// writeOut prices storing one extracted intermediate: MaterializeCost per
// entry over the pattern's free indices.
func (e *engine) writeOut(free []expr.Index) (cost.Poly, error) {
	if e.opts.MaterializeCost == 0 {
		return cost.Zero(), nil
	}
	m, err := cost.OpCost(e.table, free, e.opts.MaterializeCost)
	if err != nil {
		return cost.Poly{}, err
	}
	return cost.FromMonom(m), nil
}

// tiebreak hashes a candidate key against the run seed, giving a
// reproducible but seed-dependent order among equal-saving groups.
func (e *engine) tiebreak(key string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return splitmix64(e.opts.Seed ^ h.Sum64())
}

// splitmix64 scrambles a 64-bit value; the standard finalizer.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
