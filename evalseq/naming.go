// Package evalseq — deterministic intermediate naming.
package evalseq

import "strconv"

// Namer hands out fresh intermediate tensor names (prefix1, prefix2, …)
// that never collide with reserved input or target names. Shared between
// the factoring engine and the builder so one run draws from one counter.
type Namer struct {
	prefix string
	next   int
	taken  map[string]bool
}

// NewNamer returns a namer with the given prefix (DefaultPrefix if empty).
func NewNamer(prefix string) *Namer {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Namer{prefix: prefix, next: 1, taken: make(map[string]bool)}
}

// Reserve marks names as taken (input tensors, declared targets).
func (n *Namer) Reserve(names ...string) {
	for _, name := range names {
		n.taken[name] = true
	}
}

// Fresh returns the next unused intermediate name and reserves it.
func (n *Namer) Fresh() string {
	for {
		name := n.prefix + strconv.Itoa(n.next)
		n.next++
		if !n.taken[name] {
			n.taken[name] = true
			return name
		}
	}
}
