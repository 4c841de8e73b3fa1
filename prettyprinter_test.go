package retrie

import (
	"strings"
	"testing"
)

func TestPP(t *testing.T) {
	dfa, err := BuildDFA("a(b|c)d", 1)
	if err != nil {
		t.Fatal(err)
	}
	out := dfa.prettyPrint()
	if !strings.Contains(out, "DFA") || !strings.Contains(out, `"a(b|c)d"`) {
		t.Errorf("missing header in:\n%s", out)
	}
	if !strings.Contains(out, ">") || !strings.Contains(out, "*") {
		t.Errorf("missing start or accepting marker in:\n%s", out)
	}
	if !strings.Contains(out, "-a-> ") {
		t.Errorf("missing transition line in:\n%s", out)
	}

	nfa, err := BuildNFA("ab?")
	if err != nil {
		t.Fatal(err)
	}
	out = nfa.prettyPrint()
	if !strings.Contains(out, "NFA") || !strings.Contains(out, "ε") {
		t.Errorf("missing epsilon transition in:\n%s", out)
	}
}

func TestStats(t *testing.T) {
	dfa, err := BuildDFA("ab?(abcd)?", 1)
	if err != nil {
		t.Fatal(err)
	}
	if dfa.StateCount() == 0 || dfa.TransitionCount() == 0 {
		t.Error("empty automaton for a nonempty regex")
	}
	if dfa.AcceptingStateCount() == 0 {
		t.Error("no accepting states")
	}
	if !strings.Contains(dfa.Stats(), "States:") {
		t.Errorf("unexpected stats line %q", dfa.Stats())
	}
}
