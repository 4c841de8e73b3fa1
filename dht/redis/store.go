// Package redis backs the dht.Store interface with a Redis instance.
// Blocks under one key live in a set, so putting the same block twice
// is a refresh, matching DHT replication semantics.
package redis

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"retrie.net/go/retrie"
	"retrie.net/go/retrie/dht"
)

// Store implements dht.Store using Redis sets.
type Store struct {
	client *backend.Client
	prefix string
}

type Option func(*Store)

// WithPrefix sets the key prefix for stored blocks.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "retrie:block:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(key retrie.Hash, kind dht.BlockKind) string {
	return fmt.Sprintf("%s%d:%s", s.prefix, kind, hex.EncodeToString(key[:]))
}

// Put adds the block to the set under the key and pushes the TTL out.
func (s *Store) Put(ctx context.Context, key retrie.Hash, kind dht.BlockKind, block []byte, ttl time.Duration) error {
	k := s.key(key, kind)
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, k, block)
	if ttl > 0 {
		pipe.Expire(ctx, k, ttl)
	}
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("putting block: %w", err)
	}
	return nil
}

// Get returns all blocks stored under the key.
func (s *Store) Get(ctx context.Context, key retrie.Hash, kind dht.BlockKind) ([][]byte, error) {
	members, err := s.client.SMembers(ctx, s.key(key, kind)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting blocks: %w", err)
	}
	out := make([][]byte, len(members))
	for i, m := range members {
		out[i] = []byte(m)
	}
	return out, nil
}
