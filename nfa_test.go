package retrie

import (
	"errors"
	"testing"
)

func TestParseErrors(t *testing.T) {
	bad := []string{
		"",
		"*",
		"+a",
		"?x",
		"|b",
		"a|",
		"(ab",
		"ab)",
		"a(b))",
		"(|a)|",
		"()",
		"(()())",
	}
	for _, regex := range bad {
		_, err := BuildNFA(regex)
		if err == nil {
			t.Errorf("BuildNFA(%q) succeeded, want error", regex)
			continue
		}
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("BuildNFA(%q) returned %T, want *ParseError", regex, err)
		}
		if _, err := BuildDFA(regex, 1); err == nil {
			t.Errorf("BuildDFA(%q) succeeded, want error", regex)
		}
	}
}

func TestParseAccepts(t *testing.T) {
	good := []string{
		"a",
		"ab",
		"a*",
		"a+",
		"ab?",
		"a|b",
		"(ab)",
		"(a|b)*",
		"a(()b)",
		"ab?(abcd)?",
		"(bla)*",
		"((a|b)c|(a|b)(d|(a|b)e))",
	}
	for _, regex := range good {
		if _, err := BuildNFA(regex); err != nil {
			t.Errorf("BuildNFA(%q): %v", regex, err)
		}
	}
}

func TestNFAEval(t *testing.T) {
	cases := []struct {
		regex string
		str   string
		want  bool
	}{
		{"a", "a", true},
		{"a", "b", false},
		{"a", "", false},
		{"a*", "", true},
		{"a*", "aaaa", true},
		{"a*", "aab", false},
		{"a+", "", false},
		{"a+", "aaa", true},
		{"ab?", "a", true},
		{"ab?", "ab", true},
		{"ab?", "abb", false},
		{"a|b", "a", true},
		{"a|b", "b", true},
		{"a|b", "ab", false},
		{"(ab)+", "ababab", true},
		{"(ab)+", "aba", false},
		{"a(b|c)*d", "ad", true},
		{"a(b|c)*d", "abcbcd", true},
		{"a(b|c)*d", "abc", false},
	}
	for _, c := range cases {
		nfa, err := BuildNFA(c.regex)
		if err != nil {
			t.Fatalf("BuildNFA(%q): %v", c.regex, err)
		}
		if got := nfa.Eval(c.str); got != c.want {
			t.Errorf("NFA %q on %q: got %v, want %v", c.regex, c.str, got, c.want)
		}
	}
}
