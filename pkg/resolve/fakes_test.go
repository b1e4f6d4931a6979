package resolve

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/matzehuels/tagresolver/pkg/cache"
	"github.com/matzehuels/tagresolver/pkg/integrations/github"
)

// fakeSource serves fixed release pages and counts calls.
type fakeSource struct {
	mu        sync.Mutex
	pages     [][]string
	paginated bool // attach Link metadata to every page
	latest    string
	latestErr error
	listErr   error

	requested   []int
	latestCalls int
}

func (f *fakeSource) ListReleases(ctx context.Context, owner, repo string, page, perPage int) (*github.ReleasePage, error) {
	f.mu.Lock()
	f.requested = append(f.requested, page)
	f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}
	var tags []string
	if page <= len(f.pages) {
		tags = f.pages[page-1]
	}
	p := &github.ReleasePage{Tags: tags, Count: len(tags)}
	if f.paginated {
		p.Paginated = true
		p.HasNext = page < len(f.pages)
	}
	return p, nil
}

func (f *fakeSource) LatestRelease(ctx context.Context, owner, repo string) (string, error) {
	f.mu.Lock()
	f.latestCalls++
	f.mu.Unlock()
	return f.latest, f.latestErr
}

func (f *fakeSource) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requested) + f.latestCalls
}

// splitPages chunks tags into pages of size n.
func splitPages(tags []string, n int) [][]string {
	var pages [][]string
	for len(tags) > n {
		pages = append(pages, tags[:n])
		tags = tags[n:]
	}
	if len(tags) > 0 {
		pages = append(pages, tags)
	}
	return pages
}

type resolverFunc func(ctx context.Context, repo Repo, spec string) (string, error)

func (f resolverFunc) Resolve(ctx context.Context, repo Repo, spec string) (string, error) {
	return f(ctx, repo, spec)
}

// allowSet is a case-insensitive allow-list of "owner/repo" strings.
type allowSet map[string]bool

func (a allowSet) Allows(owner, repo string) bool {
	return a[strings.ToLower(owner+"/"+repo)]
}

// recordingStore logs every operation against an in-memory store. It does
// not implement cache.Batcher, so write order is observable.
type recordingStore struct {
	mu  sync.Mutex
	ops []string
	mem *cache.MemoryStore
}

func newRecordingStore() *recordingStore {
	return &recordingStore{mem: cache.NewMemoryStore()}
}

func (s *recordingStore) record(op string) {
	s.mu.Lock()
	s.ops = append(s.ops, op)
	s.mu.Unlock()
}

func (s *recordingStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.record("get " + key)
	return s.mem.Get(ctx, key)
}

func (s *recordingStore) Put(ctx context.Context, key, value string) error {
	s.record("put " + key)
	return s.mem.Put(ctx, key, value)
}

func (s *recordingStore) Delete(ctx context.Context, key string) error {
	s.record("delete " + key)
	return s.mem.Delete(ctx, key)
}

func (s *recordingStore) Close() error { return s.mem.Close() }

func (s *recordingStore) operations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ops...)
}

var errStoreDown = errors.New("store down")

// failingStore fails every operation.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) { return "", false, errStoreDown }
func (failingStore) Put(context.Context, string, string) error         { return errStoreDown }
func (failingStore) Delete(context.Context, string) error              { return errStoreDown }
func (failingStore) Close() error                                      { return nil }
