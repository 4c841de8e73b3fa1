package retrie

// initialBytes is the fixed window size used to derive the entry key
// for a search string, and therefore also the length at which the first
// compressed segment out of the start state is cut.
const initialBytes = 24

type pendingTransition struct {
	from  *state
	label string
	to    *state
}

// compressPathsHelper walks away from a cut state, concatenating labels
// until it hits the next state that has to survive: one with more than
// one incoming transition, an accepting one, one already visited, or
// one where the label has reached its length limit. Everything strictly
// between two cut states is marked contained and removed afterwards.
func compressPathsHelper(dfa *Automaton, start, cur *state, label string,
	maxLen int, pending *[]pendingTransition) {

	if label != "" &&
		(cur.incoming > 1 || cur.accepting || cur.marked ||
			(start != dfa.start && maxLen > 0 && len(label) == maxLen) ||
			(start == dfa.start && len(label) == initialBytes)) {
		*pending = append(*pending, pendingTransition{from: start, label: label, to: cur})
		if !cur.marked {
			compressPathsHelper(dfa, cur, cur, "", maxLen, pending)
		}
		return
	} else if cur != start {
		cur.contained = true
	}

	if cur.marked && cur != start {
		return
	}
	cur.marked = true

	for _, t := range cur.transitions {
		if t.to != cur {
			compressPathsHelper(dfa, start, t.to, label+t.label, maxLen, pending)
		}
	}
}

// compressPaths rewrites chains of single-byte transitions into fewer
// transitions with longer labels, capped at maxLen bytes (0 for no
// cap). The first segment out of the start state is instead cut at
// initialBytes so the entry key for any long enough string lands on a
// surviving state.
func compressPaths(c *buildContext, dfa *Automaton, maxLen int) {
	for _, s := range dfa.states {
		s.incoming = 0
	}
	for _, s := range dfa.states {
		for _, t := range s.transitions {
			if t.to != nil {
				t.to.incoming++
			}
		}
	}
	for _, s := range dfa.states {
		s.marked = false
		s.contained = false
	}

	var pending []pendingTransition
	compressPathsHelper(dfa, dfa.start, dfa.start, "", maxLen, &pending)

	for _, p := range pending {
		c.addTransition(p.from, p.label, p.to)
	}

	snapshot := append([]*state(nil), dfa.states...)
	for _, s := range snapshot {
		if s.contained {
			dfa.removeState(s)
		}
	}
}

// addMultiStrideHelper collects, for one origin state, all transitions
// of exactly stride steps, skipping self-loops.
func addMultiStrideHelper(origin, cur *state, label string, depth, stride int,
	pending *[]pendingTransition) {

	if depth == stride {
		*pending = append(*pending, pendingTransition{from: origin, label: label, to: cur})
		return
	}
	for _, t := range cur.transitions {
		if t.to == cur {
			continue
		}
		addMultiStrideHelper(origin, t.to, label+t.label, depth+1, stride, pending)
	}
}

// AddMultiStrides adds, for every state, transitions that consume
// stride steps at once. The resulting automaton accepts the same
// strings but can no longer be compressed or strided again, so this is
// a one-way operation; calling it a second time does nothing.
func (a *Automaton) AddMultiStrides(stride int) {
	if stride < 1 || a.multistrided || a.kind != kindDFA {
		return
	}
	c := &buildContext{stateID: len(a.states)}
	var pending []pendingTransition
	for _, s := range a.states {
		addMultiStrideHelper(s, s, "", 0, stride, &pending)
	}
	for _, p := range pending {
		c.addTransition(p.from, p.label, p.to)
	}
	a.multistrided = true
}
