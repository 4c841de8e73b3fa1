package retrie

import "fmt"

// StateCount returns the number of states in the automaton.
func (a *Automaton) StateCount() int {
	return len(a.states)
}

// TransitionCount returns the total number of transitions over all
// states.
func (a *Automaton) TransitionCount() int {
	n := 0
	for _, s := range a.states {
		n += len(s.transitions)
	}
	return n
}

// AcceptingStateCount returns the number of accepting states.
func (a *Automaton) AcceptingStateCount() int {
	n := 0
	for _, s := range a.states {
		if s.accepting {
			n++
		}
	}
	return n
}

// Stats summarizes the automaton in one line, handy for benchmarks and
// profiling runs.
func (a *Automaton) Stats() string {
	maxFanout := 0
	labelBytes := 0
	for _, s := range a.states {
		if len(s.transitions) > maxFanout {
			maxFanout = len(s.transitions)
		}
		for _, t := range s.transitions {
			labelBytes += len(t.label)
		}
	}
	avg := "n/a"
	if tc := a.TransitionCount(); tc > 0 {
		avg = fmt.Sprintf("%.3f", float64(labelBytes)/float64(tc))
	}
	return fmt.Sprintf("States: %d (%d accepting), transitions: %d (max fanout %d, avg label %s)",
		a.StateCount(), a.AcceptingStateCount(), a.TransitionCount(), maxFanout, avg)
}
