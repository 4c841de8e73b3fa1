package dht

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const longLiteral = "abcdefghijklmnopqrstuvwxyz0123"

func newTestKey(t *testing.T) ed25519.PrivateKey {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return priv
}

func searchPeers(t *testing.T, store Store, str string) []ed25519.PublicKey {
	t.Helper()
	var peers []ed25519.PublicKey
	err := Search(context.Background(), store, str, func(p ed25519.PublicKey) {
		peers = append(peers, p)
	})
	require.NoError(t, err)
	return peers
}

func TestAnnounceAndSearchShortRegex(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	priv := newTestKey(t)

	h, err := Announce(ctx, store, priv, "ab?(abcd)?", 1)
	require.NoError(t, err)
	assert.Greater(t, store.Len(), 0)

	pub := priv.Public().(ed25519.PublicKey)
	for _, match := range []string{"a", "ab", "aabcd", "ababcd"} {
		peers := searchPeers(t, store, match)
		require.Len(t, peers, 1, "searching %q", match)
		assert.Equal(t, pub, peers[0])
	}
	for _, miss := range []string{"abb", "abab", "b"} {
		assert.Empty(t, searchPeers(t, store, miss), "searching %q", miss)
	}

	// reannouncing refreshes the blocks; accept blocks carry a fresh
	// expiration so the store may grow, but searches still find the
	// peer exactly once
	require.NoError(t, h.Reannounce(ctx))
	peers := searchPeers(t, store, "ababcd")
	require.Len(t, peers, 1)

	h.Close()
	assert.Error(t, h.Reannounce(ctx))
}

func TestAnnounceAndSearchLongString(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	priv := newTestKey(t)

	// the search has to enter at the initial window and walk compressed
	// edge tokens to the accepting block
	_, err := Announce(ctx, store, priv, longLiteral+"(x|y)+", 8)
	require.NoError(t, err)

	peers := searchPeers(t, store, longLiteral+"xyx")
	require.Len(t, peers, 1)
	assert.Empty(t, searchPeers(t, store, longLiteral+"z"))
}

func TestSearchMultiplePeers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	privA := newTestKey(t)
	privB := newTestKey(t)

	_, err := Announce(ctx, store, privA, "ping", 1)
	require.NoError(t, err)
	_, err = Announce(ctx, store, privB, "ping", 1)
	require.NoError(t, err)

	peers := searchPeers(t, store, "ping")
	assert.Len(t, peers, 2)
}

func TestSearchCancellation(t *testing.T) {
	store := NewMemoryStore()
	priv := newTestKey(t)
	_, err := Announce(context.Background(), store, priv, "abc", 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = Search(ctx, store, "abc", func(ed25519.PublicKey) {
		t.Fatal("callback after cancellation")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearchEmptyString(t *testing.T) {
	err := Search(context.Background(), NewMemoryStore(), "", func(ed25519.PublicKey) {})
	assert.Error(t, err)
}

func TestAnnounceBadRegex(t *testing.T) {
	_, err := Announce(context.Background(), NewMemoryStore(), newTestKey(t), "a|", 1)
	assert.Error(t, err)
}
