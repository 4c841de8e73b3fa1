// Package retrie turns regular expressions into automata that can be
// published to, and searched in, a distributed key/value store.
//
// A regex is parsed into a Thompson NFA, determinized by subset
// construction, and minimized. Every DFA state then gets a "proof": a
// canonical regular expression accepting exactly the strings that lead
// from the start state to it. The SHA-512 hash of the proof is the
// state's key. A peer that wants to be findable under a regex publishes
// one block per state, keyed by the state's key, carrying the proof and
// the outgoing edges; a peer searching with a concrete string hashes a
// fixed-size prefix of it, fetches the block stored there, and walks
// edge by edge until it reaches an accepting block.
//
// The supported dialect is deliberately small: literals, grouping with
// parentheses, alternation with |, and the postfix operators *, + and ?.
// No anchors, no character classes, no escapes.
//
// Automata built here are plain data structures with no interior
// locking. Build and use one from a single goroutine, or publish it
// once and share it read-only.
package retrie
