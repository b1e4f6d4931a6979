package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/matzehuels/tagresolver/pkg/cache"
)

func newTestStore(t *testing.T, prefix string) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := New(context.Background(), Config{Addr: mr.Addr(), Prefix: prefix})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestStoreGetPutDelete(t *testing.T) {
	s, _ := newTestStore(t, "")
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "ver/o/r/1.0"); err != nil || ok {
		t.Fatalf("Get(missing) = %v, %v; want false, nil", ok, err)
	}

	if err := s.Put(ctx, "ver/o/r/1.0", "v1.0.2"); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	v, ok, err := s.Get(ctx, "ver/o/r/1.0")
	if err != nil || !ok || v != "v1.0.2" {
		t.Fatalf("Get() = %q, %v, %v; want v1.0.2, true, nil", v, ok, err)
	}

	if err := s.Delete(ctx, "ver/o/r/1.0"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "ver/o/r/1.0"); ok {
		t.Error("Get() after Delete should miss")
	}
}

func TestStorePrefix(t *testing.T) {
	s, mr := newTestStore(t, "tagresolver:")
	ctx := context.Background()

	if err := s.Put(ctx, "ver/o/r/latest", "v3.0.0"); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	got, err := mr.Get("tagresolver:ver/o/r/latest")
	if err != nil {
		t.Fatalf("miniredis Get() error: %v", err)
	}
	if got != "v3.0.0" {
		t.Errorf("stored value = %q, want v3.0.0", got)
	}
}

func TestStorePutBatch(t *testing.T) {
	s, mr := newTestStore(t, "")
	ctx := context.Background()

	err := cache.PutAll(ctx, s,
		cache.Pair{Key: "ver/o/r/2", Value: "v2.4.1"},
		cache.Pair{Key: "ver-time/o/r/2", Value: "1700000000"},
	)
	if err != nil {
		t.Fatalf("PutAll() error: %v", err)
	}
	if !mr.Exists("ver/o/r/2") || !mr.Exists("ver-time/o/r/2") {
		t.Error("both keys should be written")
	}
}

func TestNewUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := New(context.Background(), Config{Addr: addr}); err == nil {
		t.Error("New() should fail when redis is unreachable")
	}
}
