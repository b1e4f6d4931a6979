// Package nats provides a [cache.Store] backed by a NATS JetStream key-value
// bucket.
package nats

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/matzehuels/tagresolver/pkg/cache"
)

// DefaultBucket is the key-value bucket used when none is configured.
const DefaultBucket = "gh"

// validKey matches the key alphabet accepted by JetStream KV.
var validKey = regexp.MustCompile(`^[-/_=.a-zA-Z0-9]+$`)

// Config configures the NATS connection and bucket.
type Config struct {
	URL    string
	Bucket string

	// Name identifies the connection on the server.
	Name string

	// Timeout bounds the connection handshake. Zero means 5s.
	Timeout time.Duration
}

// Store implements [cache.Store] on a JetStream key-value bucket.
type Store struct {
	conn *natsgo.Conn
	kv   jetstream.KeyValue
}

// New connects to NATS and creates the bucket if it does not exist.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultBucket
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	opts := []natsgo.Option{natsgo.Timeout(cfg.Timeout)}
	if cfg.Name != "" {
		opts = append(opts, natsgo.Name(cfg.Name))
	}
	nc, err := natsgo.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", cfg.URL, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{Bucket: cfg.Bucket})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("key-value bucket %q: %w", cfg.Bucket, err)
	}
	return &Store{conn: nc, kv: kv}, nil
}

// Get retrieves a value.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	entry, err := s.kv.Get(ctx, encodeKey(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(entry.Value()), true, nil
}

// Put stores a value.
func (s *Store) Put(ctx context.Context, key, value string) error {
	_, err := s.kv.PutString(ctx, encodeKey(key), value)
	return err
}

// Delete removes a value. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.kv.Delete(ctx, encodeKey(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}
	return err
}

// Close drains and closes the connection.
func (s *Store) Close() error {
	return s.conn.Drain()
}

// encodeKey maps keys JetStream KV would reject (characters outside its
// alphabet, empty tokens around '.') to a stable base64url form. Valid keys
// pass through unchanged.
func encodeKey(key string) string {
	if validKey.MatchString(key) && !strings.HasPrefix(key, ".") &&
		!strings.HasSuffix(key, ".") && !strings.Contains(key, "..") {
		return key
	}
	return "b64." + base64.RawURLEncoding.EncodeToString([]byte(key))
}

var _ cache.Store = (*Store)(nil)
