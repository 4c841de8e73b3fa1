// Package dht publishes compiled automata into a distributed key/value
// store and searches them: Announce writes one block per reachable
// state under the state's key, Search starts from the hash of the
// initial window of a string and follows edges until it finds a signed
// accept block.
package dht

import (
	"bytes"
	"context"
	"sync"
	"time"

	"retrie.net/go/retrie"
)

// BlockKind separates the two record types stored under a key.
type BlockKind int

const (
	// KindRegex is a serialized state block.
	KindRegex BlockKind = iota
	// KindAccept is a signed peer announcement for an accepting state.
	KindAccept
)

// Store is the slice of a DHT this package needs: multiple blocks can
// live under the same key and kind, and a put of an identical block is
// a refresh, not a duplicate.
type Store interface {
	Put(ctx context.Context, key retrie.Hash, kind BlockKind, block []byte, ttl time.Duration) error
	Get(ctx context.Context, key retrie.Hash, kind BlockKind) ([][]byte, error)
}

type memoryKey struct {
	kind BlockKind
	key  retrie.Hash
}

// MemoryStore is an in-process Store, used in tests and by the perf
// harness. Safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	blocks map[memoryKey][][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blocks: make(map[memoryKey][][]byte)}
}

func (m *MemoryStore) Put(ctx context.Context, key retrie.Hash, kind BlockKind, block []byte, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memoryKey{kind: kind, key: key}
	for _, existing := range m.blocks[k] {
		if bytes.Equal(existing, block) {
			return nil
		}
	}
	m.blocks[k] = append(m.blocks[k], append([]byte(nil), block...))
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, key retrie.Hash, kind BlockKind) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored := m.blocks[memoryKey{kind: kind, key: key}]
	out := make([][]byte, len(stored))
	for i, b := range stored {
		out[i] = append([]byte(nil), b...)
	}
	return out, nil
}

// Len returns how many distinct blocks the store holds.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, blocks := range m.blocks {
		n += len(blocks)
	}
	return n
}
