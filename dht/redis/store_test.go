package redis_test

import (
	"context"
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retrie.net/go/retrie"
	"retrie.net/go/retrie/dht"
	"retrie.net/go/retrie/dht/redis"
)

func newTestStore(t *testing.T) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	return redis.NewFromClient(client), mr
}

func TestRedisStorePutGet(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	key, _ := retrie.FirstKey("some block key material....")

	require.NoError(t, store.Put(ctx, key, dht.KindRegex, []byte("one"), time.Hour))
	require.NoError(t, store.Put(ctx, key, dht.KindRegex, []byte("two"), time.Hour))
	// identical put is a refresh, not a duplicate
	require.NoError(t, store.Put(ctx, key, dht.KindRegex, []byte("one"), time.Hour))

	blocks, err := store.Get(ctx, key, dht.KindRegex)
	require.NoError(t, err)
	assert.Len(t, blocks, 2)

	// kinds are separate namespaces
	accepts, err := store.Get(ctx, key, dht.KindAccept)
	require.NoError(t, err)
	assert.Empty(t, accepts)
}

func TestRedisStoreTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)
	key, _ := retrie.FirstKey("expiring block key..........")

	require.NoError(t, store.Put(ctx, key, dht.KindRegex, []byte("block"), time.Minute))

	mr.FastForward(2 * time.Minute)

	blocks, err := store.Get(ctx, key, dht.KindRegex)
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestRedisStoreAnnounceAndSearch(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	_, err = dht.Announce(ctx, store, priv, "ab?(abcd)?", 0)
	require.NoError(t, err)

	var peers []ed25519.PublicKey
	err = dht.Search(ctx, store, "aabcd", func(peer ed25519.PublicKey) {
		peers = append(peers, peer)
	})
	require.NoError(t, err)
	require.Len(t, peers, 1)
	assert.True(t, pub.Equal(peers[0]))

	peers = nil
	err = dht.Search(ctx, store, "abc", func(peer ed25519.PublicKey) {
		peers = append(peers, peer)
	})
	require.NoError(t, err)
	assert.Empty(t, peers)
}
