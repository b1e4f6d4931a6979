// Package cache provides plain string key-value stores used as the backing
// storage for resolved versions.
//
// # Overview
//
// A [Store] only knows about strings: it has no native expiry and no value
// types. Expiry and negative caching are layered on top by the resolver,
// which keeps a value key and a timestamp key side by side. Any backend that
// can get, put and delete a string qualifies:
//
//   - [MemoryStore]: in-process map, for tests and single-instance use
//   - [FileStore]: one file per key under a cache directory
//   - [NullStore]: stores nothing, disables caching
//   - redis, nats and mongo subpackages: shared stores for multi-instance
//     deployments
//
// # Batches
//
// Stores that can commit several keys at once implement [Batcher].
// [PutAll] uses it when available and otherwise writes the pairs one by one,
// in order.
package cache

import (
	"context"
)

// Store is a string key-value store.
//
// Get reports found=false with a nil error when the key does not exist.
// Delete of a missing key is not an error. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Pair is a single key and value written by [PutAll].
type Pair struct {
	Key   string
	Value string
}

// Batcher is implemented by stores that can write several pairs atomically.
type Batcher interface {
	PutBatch(ctx context.Context, pairs ...Pair) error
}

// PutAll writes pairs to s. If s implements [Batcher] the pairs are committed
// together; otherwise they are written sequentially in the given order and
// the first failure stops the sequence.
func PutAll(ctx context.Context, s Store, pairs ...Pair) error {
	if b, ok := s.(Batcher); ok {
		return b.PutBatch(ctx, pairs...)
	}
	for _, p := range pairs {
		if err := s.Put(ctx, p.Key, p.Value); err != nil {
			return err
		}
	}
	return nil
}
