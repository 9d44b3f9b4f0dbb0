// Package evalseq — the versioned step arena.
//
// The arena is append-mostly: steps keep stable IDs (their arena slot),
// removals are tombstones, and every mutation pushes an inverse record on
// the journal so a heuristic pass can check out a version, try a rewrite,
// and restore the exact prior state when the rewrite does not pay off.
package evalseq

import (
	"fmt"
	"strings"

	"github.com/katalvlaran/einopt/cost"
)

// Version identifies a journal position for Rollback.
type Version int

// journal record kinds.
const (
	recAppend = iota
	recReplace
	recRemove
)

type record struct {
	kind int
	id   int
	prev Step // pre-image for recReplace/recRemove
}

// Sequence is the ordered, versioned arena of evaluation steps.
type Sequence struct {
	steps   []Step
	alive   []bool
	byName  map[string]int
	journal []record
}

// NewSequence returns an empty sequence.
func NewSequence() *Sequence {
	return &Sequence{byName: make(map[string]int)}
}

// Len returns the number of live steps.
func (s *Sequence) Len() int {
	n := 0
	for _, a := range s.alive {
		if a {
			n++
		}
	}
	return n
}

// Append stores a new step, assigns its ID, and returns it.
// Fails with ErrDuplicateTarget when a live step already defines the name.
func (s *Sequence) Append(st Step) (int, error) {
	if id, ok := s.byName[st.Target.Base]; ok && s.alive[id] {
		return 0, fmt.Errorf("%w: %q", ErrDuplicateTarget, st.Target.Base)
	}
	st.ID = len(s.steps)
	s.steps = append(s.steps, st)
	s.alive = append(s.alive, true)
	s.byName[st.Target.Base] = st.ID
	s.journal = append(s.journal, record{kind: recAppend, id: st.ID})
	return st.ID, nil
}

// Replace swaps the step stored under id for st (same target slot).
func (s *Sequence) Replace(id int, st Step) error {
	if id < 0 || id >= len(s.steps) || !s.alive[id] {
		return fmt.Errorf("%w: id %d", ErrUnknownStep, id)
	}
	prev := s.steps[id]
	if st.Target.Base != prev.Target.Base {
		delete(s.byName, prev.Target.Base)
		s.byName[st.Target.Base] = id
	}
	st.ID = id
	s.journal = append(s.journal, record{kind: recReplace, id: id, prev: prev})
	s.steps[id] = st
	return nil
}

// Remove tombstones the step stored under id.
func (s *Sequence) Remove(id int) error {
	if id < 0 || id >= len(s.steps) || !s.alive[id] {
		return fmt.Errorf("%w: id %d", ErrUnknownStep, id)
	}
	s.journal = append(s.journal, record{kind: recRemove, id: id, prev: s.steps[id]})
	s.alive[id] = false
	delete(s.byName, s.steps[id].Target.Base)
	return nil
}

// Step returns the live step stored under id.
func (s *Sequence) Step(id int) (Step, bool) {
	if id < 0 || id >= len(s.steps) || !s.alive[id] {
		return Step{}, false
	}
	return s.steps[id], true
}

// Lookup returns the live step defining the named target.
func (s *Sequence) Lookup(name string) (Step, bool) {
	id, ok := s.byName[name]
	if !ok || !s.alive[id] {
		return Step{}, false
	}
	return s.steps[id], true
}

// Steps returns the live steps in arena (topological) order.
func (s *Sequence) Steps() []Step {
	out := make([]Step, 0, len(s.steps))
	for id, st := range s.steps {
		if s.alive[id] {
			out = append(out, st)
		}
	}
	return out
}

// Checkpoint returns the current journal version.
func (s *Sequence) Checkpoint() Version { return Version(len(s.journal)) }

// Rollback restores the sequence to a prior Checkpoint by replaying the
// journal backwards. O(#mutations since the checkpoint).
func (s *Sequence) Rollback(v Version) error {
	if int(v) < 0 || int(v) > len(s.journal) {
		return fmt.Errorf("%w: %d", ErrBadVersion, v)
	}
	for len(s.journal) > int(v) {
		rec := s.journal[len(s.journal)-1]
		s.journal = s.journal[:len(s.journal)-1]
		switch rec.kind {
		case recAppend:
			// Appends are always the newest slots; drop them.
			s.alive = s.alive[:rec.id]
			delete(s.byName, s.steps[rec.id].Target.Base)
			s.steps = s.steps[:rec.id]
		case recReplace:
			cur := s.steps[rec.id]
			if cur.Target.Base != rec.prev.Target.Base {
				delete(s.byName, cur.Target.Base)
				s.byName[rec.prev.Target.Base] = rec.id
			}
			s.steps[rec.id] = rec.prev
		case recRemove:
			s.alive[rec.id] = true
			s.byName[rec.prev.Target.Base] = rec.id
		}
	}
	return nil
}

// TotalCost sums the live steps' declared costs.
func (s *Sequence) TotalCost() cost.Poly {
	total := cost.Zero()
	for id, st := range s.steps {
		if s.alive[id] {
			total = total.Add(st.Cost)
		}
	}
	return total
}

// Validate checks the definition-before-use invariant: every factor of
// every live step either names an input tensor (no step defines it) or a
// step stored earlier in the arena. This is stronger than acyclicity and
// is exactly what a code generator consumes.
func (s *Sequence) Validate() error {
	defined := make(map[string]int, len(s.steps))
	removed := make(map[string]bool)
	for id, st := range s.steps {
		if s.alive[id] {
			defined[st.Target.Base] = id
		} else {
			removed[st.Target.Base] = true
		}
	}
	for id, st := range s.steps {
		if !s.alive[id] {
			continue
		}
		for _, t := range st.Terms {
			for _, f := range t.Factors {
				def, isStep := defined[f.Base]
				if isStep && def >= id {
					return fmt.Errorf("%w: step %d (%s) uses %q defined at %d",
						ErrUseBeforeDef, id, st.Target.String(), f.Base, def)
				}
				if !isStep && removed[f.Base] {
					return fmt.Errorf("%w: step %d (%s) uses removed step %q",
						ErrUseBeforeDef, id, st.Target.String(), f.Base)
				}
			}
		}
	}
	return nil
}

// String renders the live steps one per line.
func (s *Sequence) String() string {
	var b strings.Builder
	for _, st := range s.Steps() {
		b.WriteString(st.String())
		b.WriteByte('\n')
	}
	return b.String()
}
