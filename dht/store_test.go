package dht

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retrie.net/go/retrie"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	key, _ := retrie.FirstKey("some block key material....")

	require.NoError(t, store.Put(ctx, key, KindRegex, []byte("one"), time.Hour))
	require.NoError(t, store.Put(ctx, key, KindRegex, []byte("two"), time.Hour))
	// identical put is a refresh, not a duplicate
	require.NoError(t, store.Put(ctx, key, KindRegex, []byte("one"), time.Hour))

	blocks, err := store.Get(ctx, key, KindRegex)
	require.NoError(t, err)
	assert.Len(t, blocks, 2)

	// kinds are separate namespaces
	accepts, err := store.Get(ctx, key, KindAccept)
	require.NoError(t, err)
	assert.Empty(t, accepts)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = store.Get(cancelled, key, KindRegex)
	assert.Error(t, err)
}
