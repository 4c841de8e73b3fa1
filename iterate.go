package retrie

// EdgeIterator is called once per publishable record. The key is the
// hash of the proof, edges describe the outgoing transitions of the
// state the record stands for.
type EdgeIterator func(key Hash, proof string, accepting bool, edges []Edge)

// FirstKey derives the entry key for a search string: the hash of its
// initial window, at most initialBytes long. Returns the key and how
// many bytes of the string it covers.
func FirstKey(str string) (Hash, int) {
	size := initialBytes
	if len(str) < size {
		size = len(str)
	}
	return hashOf(str[:size]), size
}

// iterateInitialEdge walks label concatenations from the start state
// and emits synthetic records so that hashing the initial window of any
// accepted string always lands on a published key, even when the window
// boundary falls in the middle of a compressed label or before the
// string ends.
func iterateInitialEdge(minLen, maxLen int, consumed string, s *state, it EdgeIterator) {
	curLen := len(consumed)

	if (curLen >= minLen || s.accepting) && curLen > 0 {
		if curLen <= maxLen {
			if s.hasProof && consumed != s.proof {
				it(hashOf(consumed), consumed, s.accepting, s.edges())
			}
			if s.accepting && curLen > 1 && len(s.transitions) < 1 && curLen < maxLen {
				// the whole regex is one short string: publish an
				// extra record one byte back so the entry key for the
				// full string has an edge leading to it
				prefix := consumed[:curLen-1]
				edge := []Edge{{Label: consumed[curLen-1:], Destination: s.key}}
				it(hashOf(prefix), prefix, false, edge)
			}
		} else {
			// consumed labels overshot the window, split at the boundary
			prefix := consumed[:maxLen]
			edge := []Edge{{Label: consumed[maxLen:], Destination: s.key}}
			it(hashOf(prefix), prefix, false, edge)
		}
	}

	if curLen < maxLen {
		for _, t := range s.transitions {
			iterateInitialEdge(minLen, maxLen, consumed+t.label, t.to, it)
		}
	}
}

// IterateAllEdges calls it once for every state that has a proof or
// accepts, and once for every synthetic initial-window record.
func (a *Automaton) IterateAllEdges(it EdgeIterator) {
	for _, s := range a.states {
		if s.hasProof || s.accepting {
			it(s.key, s.proof, s.accepting, s.edges())
		}
		s.marked = false
	}
	iterateInitialEdge(initialBytes, initialBytes, "", a.start, it)
}

type storedRecord struct {
	key       Hash
	proof     string
	accepting bool
	edges     []Edge
	reachable bool
}

// IterateReachableEdges is IterateAllEdges filtered down to records a
// search can actually find: entry records, whose proof is at least
// initialBytes long or which accept, and everything their edges lead
// to, transitively. Records nothing points at are skipped.
func (a *Automaton) IterateReachableEdges(it EdgeIterator) {
	byKey := make(map[Hash]*storedRecord, 2*len(a.states))
	var order []*storedRecord
	a.IterateAllEdges(func(key Hash, proof string, accepting bool, edges []Edge) {
		if _, ok := byKey[key]; ok {
			return
		}
		rec := &storedRecord{key: key, proof: proof, accepting: accepting, edges: edges}
		byKey[key] = rec
		order = append(order, rec)
	})

	for _, rec := range order {
		if rec.reachable {
			continue
		}
		if len(rec.proof) < initialBytes && !rec.accepting {
			// not an entry point
			continue
		}
		stack := []*storedRecord{rec}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if cur.reachable {
				continue
			}
			cur.reachable = true
			for _, e := range cur.edges {
				child, ok := byKey[e.Destination]
				if !ok {
					continue
				}
				stack = append(stack, child)
			}
		}
	}

	for _, rec := range order {
		if rec.reachable {
			it(rec.key, rec.proof, rec.accepting, rec.edges)
		}
	}
}
