package retrie

import "testing"

// compression must never change the accepted language, whatever the cap
func TestCompressionPreservesLanguage(t *testing.T) {
	regexes := []string{
		"ab",
		"abcdefg",
		"a(b|c)+d",
		"(ab)*c",
		"ab?(abcd)?",
		"(a|b)(a|b)(a|b)cde",
		"abc(def)?gh+",
	}
	inputs := allStrings("abcd", 4)
	inputs = append(inputs, "abcdefg", "abcd", "abcdefgh", "abcdefghh", "ababc", "abcgh", "abcdefgh")
	for _, regex := range regexes {
		plain, err := BuildDFA(regex, 1)
		if err != nil {
			t.Fatalf("BuildDFA(%q): %v", regex, err)
		}
		for _, maxLen := range []int{0, 2, 4, 8} {
			compressed, err := BuildDFA(regex, maxLen)
			if err != nil {
				t.Fatalf("BuildDFA(%q, %d): %v", regex, maxLen, err)
			}
			if compressed.StateCount() > plain.StateCount() {
				t.Errorf("%q: compression with cap %d grew the automaton", regex, maxLen)
			}
			for _, str := range inputs {
				if plain.Eval(str) != compressed.Eval(str) {
					t.Errorf("%q with cap %d disagrees on %q", regex, maxLen, str)
				}
			}
		}
	}
}

func TestCompressionShortensChains(t *testing.T) {
	long := "abcdefghij"
	plain, err := BuildDFA(long, 1)
	if err != nil {
		t.Fatal(err)
	}
	compressed, err := BuildDFA(long, 0)
	if err != nil {
		t.Fatal(err)
	}
	if compressed.StateCount() >= plain.StateCount() {
		t.Errorf("unbounded compression left %d of %d states",
			compressed.StateCount(), plain.StateCount())
	}
	if !compressed.Eval(long) {
		t.Errorf("compressed DFA rejects %q", long)
	}
}

func TestMultiStridesPreserveLanguage(t *testing.T) {
	inputs := allStrings("abc", 5)
	for _, regex := range []string{"ab", "a(b|c)+", "(abc)*", "ab?c"} {
		plain, err := BuildDFA(regex, 1)
		if err != nil {
			t.Fatal(err)
		}
		for _, stride := range []int{2, 3} {
			strided, err := BuildDFA(regex, 1)
			if err != nil {
				t.Fatal(err)
			}
			strided.AddMultiStrides(stride)
			for _, str := range inputs {
				if plain.Eval(str) != strided.Eval(str) {
					t.Errorf("%q with stride %d disagrees on %q", regex, stride, str)
				}
			}
		}
	}
}

func TestMultiStridesOnlyOnce(t *testing.T) {
	dfa, err := BuildDFA("ab+c", 1)
	if err != nil {
		t.Fatal(err)
	}
	dfa.AddMultiStrides(2)
	after := dfa.TransitionCount()
	dfa.AddMultiStrides(3)
	if dfa.TransitionCount() != after {
		t.Error("second AddMultiStrides call changed the automaton")
	}
}
