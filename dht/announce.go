package dht

import (
	"context"
	"crypto/ed25519"
	"errors"
	"io"
	"log/slog"
	"time"

	"retrie.net/go/retrie"
)

// defaultTTL is how long published blocks stay alive; Reannounce before
// it runs out.
const defaultTTL = time.Hour

// Announcement keeps a compiled automaton published under a peer
// identity. Reannounce republishes the same blocks, refreshing their
// TTL.
type Announcement struct {
	store Store
	dfa   *retrie.Automaton
	priv  ed25519.PrivateKey
	ttl   time.Duration
	log   *slog.Logger
}

// AnnounceOption tweaks an announcement.
type AnnounceOption func(*Announcement)

// WithTTL sets the block lifetime used for puts.
func WithTTL(ttl time.Duration) AnnounceOption {
	return func(h *Announcement) {
		h.ttl = ttl
	}
}

// WithLogger sets the logger; discards by default.
func WithLogger(log *slog.Logger) AnnounceOption {
	return func(h *Announcement) {
		h.log = log
	}
}

// Announce compiles regex into a DFA with the given path compression
// cap and publishes it. The returned Announcement can be used to
// refresh the blocks; it holds no goroutines, scheduling reannounces is
// the caller's business.
func Announce(ctx context.Context, store Store, priv ed25519.PrivateKey,
	regex string, compression int, opts ...AnnounceOption) (*Announcement, error) {

	dfa, err := retrie.BuildDFA(regex, compression)
	if err != nil {
		return nil, err
	}
	h := &Announcement{
		store: store,
		dfa:   dfa,
		priv:  priv,
		ttl:   defaultTTL,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	if err := h.Reannounce(ctx); err != nil {
		return nil, err
	}
	return h, nil
}

// DFA exposes the compiled automaton, mostly for inspection and stats.
func (h *Announcement) DFA() *retrie.Automaton {
	return h.dfa
}

// Close drops the compiled automaton. Reannounce after Close errors.
func (h *Announcement) Close() {
	h.dfa = nil
}

// Reannounce publishes one block per reachable record and an accept
// block for every accepting one. Individual put failures do not stop
// the iteration; the first error is returned at the end.
func (h *Announcement) Reannounce(ctx context.Context) error {
	if h.dfa == nil {
		return errors.New("announcement is closed")
	}
	var firstErr error
	expiration := time.Now().Add(h.ttl)
	published := 0

	h.dfa.IterateReachableEdges(func(key retrie.Hash, proof string, accepting bool, edges []retrie.Edge) {
		block := &retrie.Block{Proof: proof, Accepting: accepting, Edges: edges}
		data, err := block.Marshal()
		if err != nil {
			h.log.Error("skipping unserializable block", "err", err, "proof", proof)
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		if err := h.store.Put(ctx, key, KindRegex, data, h.ttl); err != nil {
			h.log.Error("block put failed", "err", err)
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		published++

		if !accepting {
			return
		}
		accept := retrie.NewAcceptBlock(h.priv, key, expiration)
		acceptData, err := accept.Marshal()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		if err := h.store.Put(ctx, key, KindAccept, acceptData, h.ttl); err != nil {
			h.log.Error("accept block put failed", "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	})

	if published == 0 && firstErr == nil {
		firstErr = errors.New("automaton produced no publishable blocks")
	}
	h.log.Info("announced regex", "regex", h.dfa.Regex(), "blocks", published)
	return firstErr
}
