package retrie

// removeUnreachable deletes every state the start state cannot reach.
func removeUnreachable(a *Automaton) {
	for _, s := range a.states {
		s.marked = false
	}
	a.traverse(a.start, nil, func(_ int, s *state) {
		s.marked = true
	})
	snapshot := append([]*state(nil), a.states...)
	for _, s := range snapshot {
		if !s.marked {
			a.removeState(s)
		}
	}
}

// removeDeadStates deletes non-accepting states whose transitions, if
// any, only loop back to themselves. A string ending up in such a state
// can never be accepted.
func removeDeadStates(a *Automaton) {
	snapshot := append([]*state(nil), a.states...)
	for _, s := range snapshot {
		if s.accepting {
			continue
		}
		dead := true
		for _, t := range s.transitions {
			if t.to != nil && t.to != s {
				dead = false
				break
			}
		}
		if !dead {
			continue
		}
		a.removeState(s)
	}
}

// pairTable is a symmetric bit table over state pairs, indexed by the
// dense positions handed out at construction.
type pairTable struct {
	n    int
	bits []uint64
}

func newPairTable(n int) *pairTable {
	return &pairTable{n: n, bits: make([]uint64, (n*n+63)/64)}
}

func (pt *pairTable) mark(i, j int) {
	idx := i*pt.n + j
	pt.bits[idx/64] |= 1 << (idx % 64)
	idx = j*pt.n + i
	pt.bits[idx/64] |= 1 << (idx % 64)
}

func (pt *pairTable) marked(i, j int) bool {
	idx := i*pt.n + j
	return pt.bits[idx/64]&(1<<(idx%64)) != 0
}

// mergeNondistinguishableStates finds pairs of states no input string
// can tell apart and folds each such pair into one state. Classic
// table-filling: seed the table with pairs that disagree on acceptance,
// then propagate until nothing changes.
func mergeNondistinguishableStates(c *buildContext, a *Automaton) {
	n := len(a.states)
	if n == 0 {
		return
	}
	pos := make(map[*state]int, n)
	for i, s := range a.states {
		pos[s] = i
	}
	table := newPairTable(n)

	for i, s1 := range a.states {
		for j := 0; j < i; j++ {
			if a.states[j].accepting != s1.accepting {
				table.mark(i, j)
			}
		}
	}

	for change := true; change; {
		change = false
		for i, s1 := range a.states {
			for j := 0; j < i; j++ {
				s2 := a.states[j]
				if table.marked(i, j) {
					continue
				}
				numEqualEdges := 0
				for _, t1 := range s1.transitions {
					for _, t2 := range s2.transitions {
						if t1.label != t2.label {
							continue
						}
						numEqualEdges++
						if table.marked(pos[t1.to], pos[t2.to]) {
							table.mark(i, j)
							change = true
						}
					}
				}
				if numEqualEdges != len(s1.transitions) ||
					numEqualEdges != len(s2.transitions) {
					// one state has a transition the other lacks
					table.mark(i, j)
					change = true
				}
			}
		}
	}

	// merge the earlier state of each unmarked pair into the later one
	snapshot := append([]*state(nil), a.states...)
	removed := make(map[*state]bool)
	for i, s1 := range snapshot {
		if removed[s1] {
			continue
		}
		for j := 0; j < i; j++ {
			s2 := snapshot[j]
			if removed[s2] || table.marked(i, j) {
				continue
			}
			c.mergeStates(a, s1, s2)
			removed[s2] = true
		}
	}
}

// minimize shrinks a freshly constructed DFA: drop unreachable states,
// drop dead states, merge states that accept the same suffixes.
func minimize(c *buildContext, a *Automaton) {
	removeUnreachable(a)
	removeDeadStates(a)
	mergeNondistinguishableStates(c, a)
}
