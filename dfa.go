package retrie

// closureSet computes, for a set of NFA states, the set reachable by
// following transitions with the given label. With the epsilon label
// the seed states themselves are included and chains of epsilon
// transitions are followed; the result is sorted by state id.
func closureSet(states stateSet, label string) stateSet {
	var ret stateSet
	var cleanup stateSet
	for _, s := range states {
		if label == epsilon {
			ret = append(ret, s)
		}
		stack := []*state{s}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, t := range cur.transitions {
				if t.to == nil || t.to.contained || t.label != label {
					continue
				}
				ret = append(ret, t.to)
				stack = append(stack, t.to)
				t.to.contained = true
				cleanup = append(cleanup, t.to)
			}
		}
	}
	for _, s := range cleanup {
		s.contained = false
	}
	ret.sortByID()
	return ret
}

// constructDFAStates resolves the pending transitions of dfaState,
// creating target DFA states for NFA state sets not seen before and
// recursing into them.
func constructDFAStates(c *buildContext, dfa *Automaton, dfaState *state) {
	for _, t := range dfaState.transitions {
		if t.label == epsilon || t.to != nil {
			continue
		}
		moved := closureSet(dfaState.nfaSet, t.label)
		set := closureSet(moved, epsilon)

		var existing *state
		for _, s := range dfa.states {
			if s.nfaSet.equal(set) {
				existing = s
				break
			}
		}
		if existing != nil {
			t.to = existing
			continue
		}
		newState := c.newDFAState(set)
		t.to = newState
		dfa.addState(newState)
		constructDFAStates(c, dfa, newState)
	}
}

// BuildDFA compiles a regex into a minimized DFA with canonical proofs
// and keys on every state. maxPathLen controls path compression: 1
// leaves every transition labeled with a single byte, 0 compresses
// without bound, any other value caps compressed labels at that many
// bytes. The first segment out of the start state is always cut at the
// initial-window size instead.
func BuildDFA(regex string, maxPathLen int) (*Automaton, error) {
	c := &buildContext{}
	nfa, err := c.constructNFA(regex)
	if err != nil {
		return nil, err
	}

	dfa := &Automaton{kind: kindDFA, regex: regex}
	startSet := closureSet(stateSet{nfa.start}, epsilon)
	dfa.start = c.newDFAState(startSet)
	dfa.addState(dfa.start)
	constructDFAStates(c, dfa, dfa.start)
	nfa.states = nil

	minimize(c, dfa)
	createProofs(dfa)
	if maxPathLen != 1 {
		compressPaths(c, dfa, maxPathLen)
	}
	return dfa, nil
}
