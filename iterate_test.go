package retrie

import (
	"strings"
	"testing"
)

const longLiteral = "abcdefghijklmnopqrstuvwxyz0123"

func TestIterateAllEdgesKeysMatchProofs(t *testing.T) {
	for _, regex := range []string{"ab?(abcd)?", "a(b|c)*d", longLiteral} {
		dfa, err := BuildDFA(regex, 8)
		if err != nil {
			t.Fatal(err)
		}
		records := 0
		dfa.IterateAllEdges(func(key Hash, proof string, accepting bool, edges []Edge) {
			records++
			if key != hashOf(proof) {
				t.Errorf("%q: record key is not the hash of its proof %q", regex, proof)
			}
		})
		if records == 0 {
			t.Errorf("%q: no records emitted", regex)
		}
	}
}

func TestIterateReachableIsSubset(t *testing.T) {
	for _, regex := range []string{"ab?(abcd)?", longLiteral, "(0|1)(0|1)(0|1)"} {
		dfa, err := BuildDFA(regex, 8)
		if err != nil {
			t.Fatal(err)
		}
		all := make(map[Hash]bool)
		dfa.IterateAllEdges(func(key Hash, _ string, _ bool, _ []Edge) {
			all[key] = true
		})
		reachable := 0
		dfa.IterateReachableEdges(func(key Hash, _ string, _ bool, _ []Edge) {
			reachable++
			if !all[key] {
				t.Errorf("%q: reachable record %x not in full iteration", regex, key[:8])
			}
		})
		if reachable == 0 {
			t.Errorf("%q: no reachable records", regex)
		}
		if reachable > len(all) {
			t.Errorf("%q: more reachable records than records", regex)
		}
	}
}

// For a string longer than the initial window the published records
// must allow a search to start at the hash of the window and walk edge
// tokens to an accepting record.
func TestReachableRecordsWalkable(t *testing.T) {
	dfa, err := BuildDFA(longLiteral, 8)
	if err != nil {
		t.Fatal(err)
	}
	byKey := make(map[Hash]*struct {
		proof     string
		accepting bool
		edges     []Edge
	})
	dfa.IterateReachableEdges(func(key Hash, proof string, accepting bool, edges []Edge) {
		byKey[key] = &struct {
			proof     string
			accepting bool
			edges     []Edge
		}{proof, accepting, edges}
	})

	key, position := FirstKey(longLiteral)
	if position != initialBytes {
		t.Fatalf("FirstKey consumed %d bytes, want %d", position, initialBytes)
	}
	for {
		rec, ok := byKey[key]
		if !ok {
			t.Fatalf("no record at position %d", position)
		}
		if position == len(longLiteral) {
			if !rec.accepting {
				t.Fatal("record at end of string does not accept")
			}
			return
		}
		remainder := longLiteral[position:]
		advanced := false
		for _, e := range rec.edges {
			if strings.HasPrefix(remainder, e.Label) {
				key = e.Destination
				position += len(e.Label)
				advanced = true
				break
			}
		}
		if !advanced {
			t.Fatalf("stuck at position %d, no edge matches %q", position, remainder)
		}
	}
}

// A regex shorter than the initial window is findable through the
// synthetic records: every accepted string hashes to a record that
// accepts.
func TestShortRegexSyntheticEntries(t *testing.T) {
	dfa, err := BuildDFA("ab?(abcd)?", 1)
	if err != nil {
		t.Fatal(err)
	}
	accepting := make(map[Hash]bool)
	dfa.IterateReachableEdges(func(key Hash, _ string, acc bool, _ []Edge) {
		if acc {
			accepting[key] = true
		}
	})
	for _, str := range []string{"a", "ab", "aabcd", "ababcd"} {
		if !dfa.Eval(str) {
			continue
		}
		key, n := FirstKey(str)
		if n != len(str) {
			t.Fatalf("FirstKey(%q) consumed %d bytes", str, n)
		}
		if !accepting[key] {
			t.Errorf("no accepting record under the key for %q", str)
		}
	}
}

func TestFirstKeyWindow(t *testing.T) {
	short := "abc"
	if _, n := FirstKey(short); n != len(short) {
		t.Errorf("FirstKey(%q) consumed %d bytes, want %d", short, n, len(short))
	}
	if _, n := FirstKey(longLiteral); n != initialBytes {
		t.Errorf("FirstKey of long string consumed %d bytes, want %d", n, initialBytes)
	}
	k1, _ := FirstKey(longLiteral)
	k2, _ := FirstKey(longLiteral[:initialBytes])
	if k1 != k2 {
		t.Error("keys for a string and its initial window differ")
	}
}
