// Package redis provides a Redis-backed [cache.Store] for deployments where
// several resolver instances share one cache.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/matzehuels/tagresolver/pkg/cache"
)

// Config configures the Redis connection.
type Config struct {
	Addr     string
	Password string
	DB       int

	// Prefix is prepended to every key, allowing several services to share
	// one Redis database.
	Prefix string

	// DialTimeout bounds the initial connection check. Zero means 5s.
	DialTimeout time.Duration
}

// Store implements [cache.Store] on top of a Redis client.
type Store struct {
	client goredis.UniversalClient
	prefix string
}

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, cfg Config) (*Store, error) {
	timeout := cfg.DialTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return NewFromClient(client, cfg.Prefix), nil
}

// NewFromClient wraps an existing client. The store takes ownership and
// closes the client in [Store.Close].
func NewFromClient(client goredis.UniversalClient, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Get retrieves a value.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Put stores a value without expiry.
func (s *Store) Put(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.prefix+key, value, 0).Err()
}

// PutBatch stores all pairs in one MULTI/EXEC transaction.
func (s *Store) PutBatch(ctx context.Context, pairs ...cache.Pair) error {
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, p := range pairs {
			pipe.Set(ctx, s.prefix+p.Key, p.Value, 0)
		}
		return nil
	})
	return err
}

// Delete removes a value.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

var (
	_ cache.Store   = (*Store)(nil)
	_ cache.Batcher = (*Store)(nil)
)
