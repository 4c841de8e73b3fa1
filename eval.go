package retrie

// dfaMove consumes the longest transition label that prefixes the
// remaining input and returns the new state and how many bytes were
// consumed. Returns nil when no transition matches. On ties between
// equally long labels the later transition in label order wins.
func dfaMove(s *state, str string) (*state, int) {
	var best *state
	maxLen := 0
	for _, t := range s.transitions {
		if len(t.label) > len(str) || str[:len(t.label)] != t.label {
			continue
		}
		if len(t.label) >= maxLen {
			maxLen = len(t.label)
			best = t.to
		}
	}
	return best, maxLen
}

func evaluateDFA(a *Automaton, str string) bool {
	s := a.start
	if len(str) == 0 {
		return s.accepting
	}
	for len(str) > 0 {
		next, consumed := dfaMove(s, str)
		if next == nil {
			return false
		}
		s = next
		str = str[consumed:]
	}
	return s.accepting
}

func evaluateNFA(a *Automaton, str string) bool {
	if len(str) == 0 && a.start.accepting {
		return true
	}
	set := closureSet(stateSet{a.start}, epsilon)
	for i := 0; i < len(str); i++ {
		moved := closureSet(set, str[i:i+1])
		set = closureSet(moved, epsilon)
	}
	for _, s := range set {
		if s.accepting {
			return true
		}
	}
	return false
}

// Eval reports whether the automaton accepts str. Works on NFAs and
// DFAs alike.
func (a *Automaton) Eval(str string) bool {
	switch a.kind {
	case kindDFA:
		return evaluateDFA(a, str)
	case kindNFA:
		return evaluateNFA(a, str)
	default:
		panic("automaton of unknown kind")
	}
}
