package dht

import (
	"context"
	"crypto/ed25519"
	"io"
	"log/slog"
	"time"

	"retrie.net/go/retrie"
)

// Found is called once per distinct peer discovered behind an accepting
// state.
type Found func(peer ed25519.PublicKey)

// SearchOption tweaks a search.
type SearchOption func(*searcher)

// WithSearchLogger sets the logger; discards by default.
func WithSearchLogger(log *slog.Logger) SearchOption {
	return func(s *searcher) {
		s.log = log
	}
}

type searchStep struct {
	key      retrie.Hash
	position int
}

type searcher struct {
	store Store
	str   string
	found Found
	log   *slog.Logger

	// lookups already issued, so branches that reconverge on the same
	// state at the same position do not evaluate it twice
	visited map[searchStep]bool
	// raw blocks already evaluated, per step
	seen  map[searchStep]map[string]bool
	peers map[string]bool
}

// Search walks the store from the hash of the initial window of str,
// following the longest matching edge of every relevant block, and
// reports each peer it finds announced behind an accepting state.
// Branches are explored breadth-first; cancelling the context stops the
// walk between lookups.
func Search(ctx context.Context, store Store, str string, found Found, opts ...SearchOption) error {
	if len(str) == 0 {
		return &retrie.ParseError{Regex: str, Position: 0, Message: "cannot search for the empty string"}
	}
	s := &searcher{
		store:   store,
		str:     str,
		found:   found,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		visited: make(map[searchStep]bool),
		seen:    make(map[searchStep]map[string]bool),
		peers:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}

	key, position := retrie.FirstKey(str)
	queue := []searchStep{{key: key, position: position}}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		step := queue[0]
		queue = queue[1:]
		if s.visited[step] {
			continue
		}
		s.visited[step] = true

		next, err := s.lookup(ctx, step)
		if err != nil {
			return err
		}
		queue = append(queue, next...)
	}
	return nil
}

// lookup fetches and evaluates the blocks under one key and returns the
// follow-up steps.
func (s *searcher) lookup(ctx context.Context, step searchStep) ([]searchStep, error) {
	blocks, err := s.store.Get(ctx, step.key, KindRegex)
	if err != nil {
		return nil, err
	}
	remainder := s.str[step.position:]

	var next []searchStep
	for _, data := range blocks {
		if seenHere := s.seen[step]; seenHere[string(data)] {
			s.log.Debug("duplicate block", "position", step.position)
			continue
		}
		if s.seen[step] == nil {
			s.seen[step] = make(map[string]bool)
		}
		s.seen[step][string(data)] = true

		block, err := retrie.UnmarshalBlock(data)
		if err != nil {
			s.log.Warn("discarding malformed block", "err", err)
			continue
		}
		switch block.Evaluate(step.key, remainder) {
		case retrie.BlockInvalid:
			s.log.Warn("discarding invalid block", "position", step.position)
			continue
		case retrie.BlockIrrelevant:
			continue
		}

		if step.position == len(s.str) {
			if block.Accepting {
				if err := s.collectPeers(ctx, step.key); err != nil {
					return nil, err
				}
			}
			continue
		}

		if branch, ok := nextEdge(block, remainder, step.position); ok {
			next = append(next, branch)
		}
	}
	return next, nil
}

// nextEdge picks the longest edge token that prefixes the remaining
// string, the same choice the publisher's compression made.
func nextEdge(block *retrie.Block, remainder string, position int) (searchStep, bool) {
	best := -1
	var bestEdge retrie.Edge
	for _, e := range block.Edges {
		if len(e.Label) <= best || len(e.Label) > len(remainder) {
			continue
		}
		if remainder[:len(e.Label)] != e.Label {
			continue
		}
		best = len(e.Label)
		bestEdge = e
	}
	if best < 0 {
		return searchStep{}, false
	}
	return searchStep{key: bestEdge.Destination, position: position + best}, true
}

// collectPeers verifies the accept blocks under an accepting state's
// key and reports each peer once.
func (s *searcher) collectPeers(ctx context.Context, key retrie.Hash) error {
	blocks, err := s.store.Get(ctx, key, KindAccept)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, data := range blocks {
		accept, err := retrie.UnmarshalAcceptBlock(data)
		if err != nil {
			s.log.Warn("discarding malformed accept block", "err", err)
			continue
		}
		if err := accept.Verify(key, now); err != nil {
			s.log.Warn("discarding unverifiable accept block", "err", err)
			continue
		}
		if s.peers[string(accept.Peer)] {
			continue
		}
		s.peers[string(accept.Peer)] = true
		s.found(accept.Peer)
	}
	return nil
}
