package retrie

import "fmt"

// ParseError reports a malformed regular expression. Position is the
// byte offset of the offending character, or the length of the regex
// for errors only detectable at the end.
type ParseError struct {
	Regex    string
	Position int
	Message  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %q at offset %d: %s", e.Regex, e.Position, e.Message)
}

// nfaFragment wraps a start/end pair into an automaton so fragments can
// be stacked during parsing.
func (c *buildContext) nfaFragment(start, end *state) *Automaton {
	a := &Automaton{kind: kindNFA, start: start, end: end}
	a.addState(start)
	a.addState(end)
	return a
}

func (a *Automaton) absorbStates(b *Automaton) {
	a.states = append(a.states, b.states...)
	b.states = nil
}

func (c *buildContext) push(a *Automaton) {
	c.stack = append(c.stack, a)
}

func (c *buildContext) pop() *Automaton {
	if len(c.stack) == 0 {
		return nil
	}
	a := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return a
}

// nfaAddLabel pushes the two-state fragment for a single literal byte.
func (c *buildContext) nfaAddLabel(label string) {
	start := c.newState(false)
	end := c.newState(true)
	c.addTransition(start, label, end)
	c.push(c.nfaFragment(start, end))
}

// nfaAddConcatenation pops b then a and pushes the fragment for ab.
func (c *buildContext) nfaAddConcatenation() {
	b := c.pop()
	a := c.pop()
	c.addTransition(a.end, epsilon, b.start)
	a.end.accepting = false
	b.end.accepting = true

	a.absorbStates(b)
	a.end = b.end
	c.push(a)
}

// nfaAddAlternation pops b then a and pushes the fragment for a|b.
func (c *buildContext) nfaAddAlternation() {
	b := c.pop()
	a := c.pop()
	start := c.newState(false)
	end := c.newState(true)
	c.addTransition(start, epsilon, a.start)
	c.addTransition(start, epsilon, b.start)
	c.addTransition(a.end, epsilon, end)
	c.addTransition(b.end, epsilon, end)
	a.end.accepting = false
	b.end.accepting = false

	a.absorbStates(b)
	a.addState(start)
	a.addState(end)
	a.start = start
	a.end = end
	c.push(a)
}

// nfaAddStar rewrites the fragment on top of the stack into a*.
func (c *buildContext) nfaAddStar() {
	a := c.pop()
	start := c.newState(false)
	end := c.newState(true)
	c.addTransition(start, epsilon, a.start)
	c.addTransition(start, epsilon, end)
	c.addTransition(a.end, epsilon, a.start)
	c.addTransition(a.end, epsilon, end)
	a.end.accepting = false

	a.addState(start)
	a.addState(end)
	a.start = start
	a.end = end
	c.push(a)
}

// nfaAddPlus rewrites the fragment on top of the stack into a+. Only a
// back edge is needed; the fragment keeps its start and end.
func (c *buildContext) nfaAddPlus() {
	a := c.stack[len(c.stack)-1]
	c.addTransition(a.end, epsilon, a.start)
}

// nfaAddQuestion rewrites the fragment on top of the stack into a?.
func (c *buildContext) nfaAddQuestion() {
	a := c.pop()
	start := c.newState(false)
	end := c.newState(true)
	c.addTransition(start, epsilon, a.start)
	c.addTransition(start, epsilon, end)
	c.addTransition(a.end, epsilon, end)
	a.end.accepting = false

	a.addState(start)
	a.addState(end)
	a.start = start
	a.end = end
	c.push(a)
}

// parenCounts remembers how many alternation arms and unconcatenated
// atoms were pending when a group opened.
type parenCounts struct {
	alt, atom int
}

// constructNFA parses the regex with a shunting-yard style scan,
// keeping fragments on a stack and counting pending atoms and
// alternation arms per parenthesis level.
func (c *buildContext) constructNFA(regex string) (*Automaton, error) {
	fail := func(pos int, msg string) (*Automaton, error) {
		c.stack = nil
		return nil, &ParseError{Regex: regex, Position: pos, Message: msg}
	}

	var parens []parenCounts
	altcount := 0
	atomcount := 0
	for i := 0; i < len(regex); i++ {
		switch regex[i] {
		case '(':
			if atomcount > 1 {
				atomcount--
				c.nfaAddConcatenation()
			}
			parens = append(parens, parenCounts{alt: altcount, atom: atomcount})
			altcount = 0
			atomcount = 0
		case '|':
			if atomcount == 0 {
				return fail(i, "cannot append '|' to nothing")
			}
			for atomcount--; atomcount > 0; atomcount-- {
				c.nfaAddConcatenation()
			}
			altcount++
		case ')':
			if len(parens) == 0 {
				return fail(i, "missing opening '('")
			}
			if atomcount == 0 {
				// empty group, behaves like it was never there
				saved := parens[len(parens)-1]
				parens = parens[:len(parens)-1]
				altcount = saved.alt
				atomcount = saved.atom
				continue
			}
			for atomcount--; atomcount > 0; atomcount-- {
				c.nfaAddConcatenation()
			}
			for ; altcount > 0; altcount-- {
				c.nfaAddAlternation()
			}
			saved := parens[len(parens)-1]
			parens = parens[:len(parens)-1]
			altcount = saved.alt
			atomcount = saved.atom
			atomcount++
		case '*':
			if atomcount == 0 {
				return fail(i, "cannot append '*' to nothing")
			}
			c.nfaAddStar()
		case '+':
			if atomcount == 0 {
				return fail(i, "cannot append '+' to nothing")
			}
			c.nfaAddPlus()
		case '?':
			if atomcount == 0 {
				return fail(i, "cannot append '?' to nothing")
			}
			c.nfaAddQuestion()
		default:
			if atomcount > 1 {
				atomcount--
				c.nfaAddConcatenation()
			}
			c.nfaAddLabel(regex[i : i+1])
			atomcount++
		}
	}
	if len(parens) > 0 {
		return fail(len(regex), "unbalanced parenthesis")
	}
	if altcount > 0 && atomcount == 0 {
		// trailing '|' left an alternation without a right arm
		return fail(len(regex), "cannot append '|' to nothing")
	}
	for atomcount--; atomcount > 0; atomcount-- {
		c.nfaAddConcatenation()
	}
	for ; altcount > 0; altcount-- {
		c.nfaAddAlternation()
	}
	if len(c.stack) == 0 {
		return fail(len(regex), "regex accepts nothing")
	}
	nfa := c.pop()
	if len(c.stack) > 0 {
		return fail(len(regex), "fragment stack not empty after parsing")
	}
	nfa.regex = regex

	// assign depth-first numbers, mostly for the pretty printer
	nfa.traverse(nil, nil, nil)
	return nfa, nil
}

// BuildNFA compiles a regex into a nondeterministic automaton. The NFA
// can be evaluated directly but carries no proofs or keys; build a DFA
// for anything that is going to be published.
func BuildNFA(regex string) (*Automaton, error) {
	if len(regex) == 0 {
		return nil, &ParseError{Regex: regex, Position: 0, Message: "empty regex"}
	}
	c := &buildContext{}
	return c.constructNFA(regex)
}
