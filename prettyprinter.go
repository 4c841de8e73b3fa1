package retrie

import (
	"fmt"
	"strings"
)

// prettyPrint makes a human-readable representation of the automaton to
// facilitate debugging; one line per state listing its flags and
// outgoing transitions. For an example of the output see TestPP in
// prettyprinter_test.go.
func (a *Automaton) prettyPrint() string {
	var sb strings.Builder
	kind := "NFA"
	if a.kind == kindDFA {
		kind = "DFA"
	}
	fmt.Fprintf(&sb, "%s for %q", kind, a.regex)
	if a.canonical != "" {
		fmt.Fprintf(&sb, " (canonical %q)", a.canonical)
	}
	sb.WriteByte('\n')
	for _, s := range a.states {
		flags := ""
		if s == a.start {
			flags += ">"
		}
		if s.accepting {
			flags += "*"
		}
		fmt.Fprintf(&sb, " %s%s", flags, s.name)
		if s.hasProof {
			fmt.Fprintf(&sb, " proof=%q", s.proof)
		}
		sb.WriteByte('\n')
		for _, t := range s.transitions {
			label := t.label
			if label == epsilon {
				label = "ε"
			}
			target := "(unresolved)"
			if t.to != nil {
				target = t.to.name
			}
			fmt.Fprintf(&sb, "   -%s-> %s\n", label, target)
		}
	}
	return sb.String()
}
