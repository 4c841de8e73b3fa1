package retrie

import (
	"crypto/sha512"
	"fmt"
	"sort"
	"strings"
)

// Hash is the lookup key a state is published under: the SHA-512 digest
// of the state's proof.
type Hash [sha512.Size]byte

func hashOf(s string) Hash {
	return sha512.Sum512([]byte(s))
}

// Edge is the wire-level view of one outgoing transition: the label to
// consume and the key of the state it leads to.
type Edge struct {
	Label       string
	Destination Hash
}

type automatonKind int

const (
	kindNFA automatonKind = iota
	kindDFA
)

// epsilon transitions carry an empty label. They only ever occur inside
// NFAs; every other label is at least one byte long.
const epsilon = ""

type transition struct {
	id    int
	label string
	// to is nil while a DFA transition is waiting for its target set to
	// be resolved during subset construction.
	to *state
}

type state struct {
	id          int
	traversalID int
	name        string
	accepting   bool

	// scratch flags used by traversal, compression and reachability
	marked    bool
	contained bool
	incoming  int

	// sorted by label, epsilon first
	transitions []*transition

	// for DFA states, the set of NFA states this one stands for
	nfaSet stateSet

	proof    string
	hasProof bool
	key      Hash
}

// stateSet is a set of states kept sorted by state id so that two sets
// can be compared element-wise.
type stateSet []*state

func (ss stateSet) sortByID() {
	sort.Slice(ss, func(i, j int) bool { return ss[i].id < ss[j].id })
}

// equal assumes both sets are sorted by id.
func (ss stateSet) equal(other stateSet) bool {
	if len(ss) != len(other) {
		return false
	}
	for i := range ss {
		if ss[i].id != other[i].id {
			return false
		}
	}
	return true
}

// Automaton is a regex compiled into a graph of states, either an NFA
// fragment under construction or a finished DFA.
type Automaton struct {
	kind  automatonKind
	start *state
	end   *state

	// insertion order; iteration and publication follow it
	states []*state

	regex        string
	canonical    string
	multistrided bool
}

// Regex returns the expression the automaton was built from.
func (a *Automaton) Regex() string {
	return a.regex
}

// buildContext carries the id counters shared between an NFA and the
// DFA derived from it.
type buildContext struct {
	stateID      int
	transitionID int
	stack        []*Automaton
}

func (c *buildContext) newState(accepting bool) *state {
	s := &state{
		id:        c.stateID,
		accepting: accepting,
		name:      fmt.Sprintf("s%d", c.stateID),
	}
	c.stateID++
	return s
}

// newDFAState makes a DFA state standing for the given set of NFA
// states, taking ownership of the set. One unresolved transition is
// added per distinct outgoing label of the members.
func (c *buildContext) newDFAState(set stateSet) *state {
	s := c.newState(false)
	s.nfaSet = set

	var names []string
	for _, m := range set {
		names = append(names, fmt.Sprintf("%d", m.id))
		if m.accepting {
			s.accepting = true
		}
		for _, t := range m.transitions {
			if t.label != epsilon {
				c.addTransition(s, t.label, nil)
			}
		}
	}
	s.name = "{" + strings.Join(names, ",") + "}"
	return s
}

// addTransition inserts a transition keeping the list sorted by label.
// A transition with the same label and target as an existing one is
// dropped.
func (c *buildContext) addTransition(from *state, label string, to *state) {
	for _, t := range from.transitions {
		if t.to == to && t.label == label {
			return
		}
	}
	i := 0
	for i < len(from.transitions) && from.transitions[i].label <= label {
		i++
	}
	t := &transition{id: c.transitionID, label: label, to: to}
	c.transitionID++
	from.transitions = append(from.transitions, nil)
	copy(from.transitions[i+1:], from.transitions[i:])
	from.transitions[i] = t
}

func removeTransition(from *state, t *transition) {
	for i, cur := range from.transitions {
		if cur == t {
			from.transitions = append(from.transitions[:i], from.transitions[i+1:]...)
			return
		}
	}
}

// edges summarizes the resolved outgoing transitions of a state.
func (s *state) edges() []Edge {
	var es []Edge
	for _, t := range s.transitions {
		if t.to == nil {
			continue
		}
		es = append(es, Edge{Label: t.label, Destination: t.to.key})
	}
	return es
}

func (a *Automaton) addState(s *state) {
	a.states = append(a.states, s)
}

// removeState deletes s from the automaton, dropping every transition
// that points at it.
func (a *Automaton) removeState(s *state) {
	for _, other := range a.states {
		if other == s {
			continue
		}
		for i := 0; i < len(other.transitions); {
			if other.transitions[i].to == s {
				other.transitions = append(other.transitions[:i], other.transitions[i+1:]...)
				continue
			}
			i++
		}
	}
	for i, cur := range a.states {
		if cur == s {
			a.states = append(a.states[:i], a.states[i+1:]...)
			break
		}
	}
	s.transitions = nil
	s.nfaSet = nil
}

// mergeStates folds s2 into s1: incoming transitions of s2 are
// redirected to s1 (or dropped if that would duplicate one), outgoing
// transitions of s2 are copied onto s1, and s2 is deleted.
func (c *buildContext) mergeStates(a *Automaton, s1, s2 *state) {
	if s1 == s2 {
		return
	}
	for _, from := range a.states {
		for i := 0; i < len(from.transitions); {
			t := from.transitions[i]
			if t.to != s2 {
				i++
				continue
			}
			dup := false
			for _, other := range from.transitions {
				if other != t && other.to == s1 && other.label == t.label {
					dup = true
					break
				}
			}
			if dup {
				from.transitions = append(from.transitions[:i], from.transitions[i+1:]...)
				continue
			}
			t.to = s1
			i++
		}
	}
	for _, t := range s2.transitions {
		if t.to != s1 {
			c.addTransition(s1, t.label, t.to)
		}
	}
	// the start state can be on the losing side of a merge, for
	// example in "(ab)*" where it is equivalent to the state reached
	// after "ab"
	if a.start == s2 {
		a.start = s1
	}
	s2.transitions = nil
	a.removeState(s2)
}

type traverseCheck func(s *state, t *transition) bool
type traverseAction func(count int, s *state)

// traverse walks the automaton depth-first from start, visiting each
// reachable state once in the order a recursive walk would, but with an
// explicit stack. check, if non-nil, can prune individual transitions.
// action receives a dense visit counter, which is also stored in each
// state's traversalID.
func (a *Automaton) traverse(start *state, check traverseCheck, action traverseAction) {
	if start == nil {
		start = a.start
	}
	visited := make(map[*state]bool, len(a.states))
	count := 0
	stack := []*state{start}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[s] {
			continue
		}
		visited[s] = true
		s.traversalID = count
		if action != nil {
			action(count, s)
		}
		count++
		for i := len(s.transitions) - 1; i >= 0; i-- {
			t := s.transitions[i]
			if t.to == nil || visited[t.to] {
				continue
			}
			if check != nil && !check(s, t) {
				continue
			}
			stack = append(stack, t.to)
		}
	}
}
