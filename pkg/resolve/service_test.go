package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tagresolver/pkg/cache"
	errs "github.com/matzehuels/tagresolver/pkg/errors"
	"github.com/matzehuels/tagresolver/pkg/integrations"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestService(r VersionResolver, store cache.Store) *Service {
	return NewService(ServiceConfig{
		Allow:    allowSet{"cli/cli": true},
		Resolver: r,
		Cache:    NewCache(store),
		Logger:   quietLogger(),
	})
}

func TestServiceEndToEnd(t *testing.T) {
	src := &fakeSource{pages: [][]string{{"v1.0.0", "v1.1.0", "v1.1.0-beta"}}}
	store := cache.NewMemoryStore()
	svc := newTestService(NewResolver(src), store)
	ctx := context.Background()

	got, err := svc.Handle(ctx, "cli", "cli", "1.1")
	if err != nil || got != "v1.1.0" {
		t.Fatalf("Handle() = %q, %v; want v1.1.0", got, err)
	}
	first := src.calls()

	got, err = svc.Handle(ctx, "cli", "cli", "1.1")
	if err != nil || got != "v1.1.0" {
		t.Fatalf("repeat Handle() = %q, %v; want v1.1.0", got, err)
	}
	if extra := src.calls() - first; extra != 0 {
		t.Errorf("repeat request made %d upstream calls, want 0", extra)
	}
	if v, _, _ := store.Get(ctx, ValueKey(Repo{Owner: "cli", Name: "cli"}, "1.1")); v != "v1.1.0" {
		t.Errorf("cached value = %q, want v1.1.0", v)
	}
}

func TestServiceMainSkipsUpstream(t *testing.T) {
	src := &fakeSource{}
	svc := newTestService(NewResolver(src), cache.NewMemoryStore())

	got, err := svc.Handle(context.Background(), "cli", "cli", "main")
	if err != nil || got != "main" {
		t.Errorf("Handle(main) = %q, %v", got, err)
	}
	if src.calls() != 0 {
		t.Errorf("upstream calls = %d, want 0", src.calls())
	}
}

func TestServiceForbidden(t *testing.T) {
	src := &fakeSource{latest: "v1"}
	store := newRecordingStore()
	svc := newTestService(NewResolver(src), store)

	_, err := svc.Handle(context.Background(), "evil", "repo", "latest")
	if !errs.Is(err, errs.ErrCodeForbidden) {
		t.Fatalf("Handle() error = %v, want FORBIDDEN", err)
	}
	if StatusOf(err) != StatusForbidden {
		t.Errorf("StatusOf() = %v, want forbidden", StatusOf(err))
	}
	if src.calls() != 0 {
		t.Errorf("upstream calls = %d, want 0", src.calls())
	}
	if ops := store.operations(); len(ops) != 0 {
		t.Errorf("store touched: %v", ops)
	}
}

func TestServiceAllowListIsCaseInsensitive(t *testing.T) {
	src := &fakeSource{latest: "v1"}
	svc := newTestService(NewResolver(src), cache.NewMemoryStore())

	if _, err := svc.Handle(context.Background(), "CLI", "Cli", "latest"); err != nil {
		t.Errorf("Handle() error = %v, want allowed", err)
	}
}

func TestServiceRepoCaseSharesCacheEntry(t *testing.T) {
	src := &fakeSource{latest: "v1"}
	store := cache.NewMemoryStore()
	svc := newTestService(NewResolver(src), store)
	ctx := context.Background()

	for _, owner := range []string{"CLI", "cli", "Cli"} {
		if got, err := svc.Handle(ctx, owner, "Cli", "latest"); err != nil || got != "v1" {
			t.Fatalf("Handle(%s) = %q, %v; want v1", owner, got, err)
		}
	}
	if src.calls() != 1 {
		t.Errorf("upstream calls = %d, want 1", src.calls())
	}
	if v, _, _ := store.Get(ctx, ValueKey(Repo{Owner: "cli", Name: "cli"}, "latest")); v != "v1" {
		t.Errorf("lower-case cache value = %q, want v1", v)
	}

	if err := svc.Forget(ctx, "CLI", "CLI", "latest"); err != nil {
		t.Fatalf("Forget() error: %v", err)
	}
	if _, ok, _ := store.Get(ctx, ValueKey(Repo{Owner: "cli", Name: "cli"}, "latest")); ok {
		t.Error("Forget() with mixed case left the entry behind")
	}
}

func TestServiceAllowListPrecedesSpecValidation(t *testing.T) {
	src := &fakeSource{latest: "v1"}
	svc := newTestService(NewResolver(src), cache.NewMemoryStore())

	_, err := svc.Handle(context.Background(), "golang", "go", "1 2")
	if StatusOf(err) != StatusForbidden {
		t.Errorf("Handle() error = %v, want forbidden", err)
	}
}

func TestServiceNilAllowListDeniesAll(t *testing.T) {
	svc := NewService(ServiceConfig{
		Resolver: NewResolver(&fakeSource{latest: "v1"}),
		Cache:    NewCache(cache.NewMemoryStore()),
		Logger:   quietLogger(),
	})
	if _, err := svc.Handle(context.Background(), "cli", "cli", "latest"); StatusOf(err) != StatusForbidden {
		t.Errorf("Handle() error = %v, want forbidden", err)
	}
}

func TestServiceInvalidInput(t *testing.T) {
	src := &fakeSource{latest: "v1"}
	svc := newTestService(NewResolver(src), cache.NewMemoryStore())

	tests := []struct {
		name              string
		owner, repo, spec string
	}{
		{"empty owner", "", "cli", "latest"},
		{"empty repo", "cli", "", "latest"},
		{"empty spec", "cli", "cli", ""},
		{"spec with slash", "cli", "cli", "1/2"},
		{"spec with space", "cli", "cli", "1 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Handle(context.Background(), tt.owner, tt.repo, tt.spec)
			if StatusOf(err) != StatusInvalid {
				t.Errorf("Handle() error = %v, want invalid", err)
			}
		})
	}
	if src.calls() != 0 {
		t.Errorf("upstream calls = %d, want 0", src.calls())
	}
}

func TestServiceNegativeCaching(t *testing.T) {
	src := &fakeSource{pages: [][]string{{"v1.0.0"}}}
	store := cache.NewMemoryStore()
	svc := newTestService(NewResolver(src), store)
	ctx := context.Background()

	for i := range 3 {
		_, err := svc.Handle(ctx, "cli", "cli", "9.9")
		if !errs.Is(err, errs.ErrCodeVersionNotFound) {
			t.Fatalf("call %d: error = %v, want VERSION_NOT_FOUND", i, err)
		}
		if StatusOf(err) != StatusNotFound {
			t.Errorf("call %d: StatusOf() = %v, want not_found", i, StatusOf(err))
		}
	}
	if src.calls() != 1 {
		t.Errorf("upstream calls = %d, want 1", src.calls())
	}
	if v, _, _ := store.Get(ctx, ValueKey(Repo{Owner: "cli", Name: "cli"}, "9.9")); v != NotFoundSentinel {
		t.Errorf("cached value = %q, want sentinel", v)
	}
}

func TestServiceUpstreamErrorsAreNotCached(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   errs.Code
		wantStatus Status
	}{
		{"network", fmt.Errorf("github cli/cli: %w", integrations.ErrNetwork), errs.ErrCodeUpstream, StatusUpstreamError},
		{"per-call timeout", fmt.Errorf("%w: %w", integrations.ErrNetwork, context.DeadlineExceeded), errs.ErrCodeTimeout, StatusTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			r := resolverFunc(func(ctx context.Context, repo Repo, spec string) (string, error) {
				calls.Add(1)
				return "", tt.err
			})
			store := cache.NewMemoryStore()
			svc := newTestService(r, store)

			for range 2 {
				_, err := svc.Handle(context.Background(), "cli", "cli", "latest")
				if !errs.Is(err, tt.wantCode) {
					t.Errorf("error = %v, want %s", err, tt.wantCode)
				}
				if StatusOf(err) != tt.wantStatus {
					t.Errorf("StatusOf() = %v, want %v", StatusOf(err), tt.wantStatus)
				}
			}
			if calls.Load() != 2 {
				t.Errorf("resolver calls = %d, want 2 (errors must not be cached)", calls.Load())
			}
			if store.Len() != 0 {
				t.Errorf("store holds %d keys after upstream errors, want 0", store.Len())
			}
		})
	}
}

func TestServiceToleratesStoreFailures(t *testing.T) {
	src := &fakeSource{latest: "v2.0.0"}
	svc := newTestService(NewResolver(src), failingStore{})

	for range 2 {
		got, err := svc.Handle(context.Background(), "cli", "cli", "latest")
		if err != nil || got != "v2.0.0" {
			t.Fatalf("Handle() = %q, %v; want v2.0.0 despite store failures", got, err)
		}
	}
	if src.calls() != 2 {
		t.Errorf("upstream calls = %d, want 2 (nothing could be cached)", src.calls())
	}
}

func TestServiceCoalescesConcurrentMisses(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	r := resolverFunc(func(ctx context.Context, repo Repo, spec string) (string, error) {
		calls.Add(1)
		<-release
		return "v1.2.3", nil
	})
	svc := newTestService(r, cache.NewMemoryStore())

	const n = 10
	var wg sync.WaitGroup
	results := make([]string, n)
	errList := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errList[i] = svc.Handle(context.Background(), "cli", "cli", "1.2")
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := range n {
		if errList[i] != nil || results[i] != "v1.2.3" {
			t.Errorf("caller %d: %q, %v", i, results[i], errList[i])
		}
	}
	if calls.Load() != 1 {
		t.Errorf("resolver calls = %d, want 1", calls.Load())
	}
}

func TestServiceWaiterSurvivesLeaderCancellation(t *testing.T) {
	var calls atomic.Int32
	entered := make(chan struct{})
	r := resolverFunc(func(ctx context.Context, repo Repo, spec string) (string, error) {
		if calls.Add(1) == 1 {
			close(entered)
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "v3.0.0", nil
	})
	store := cache.NewMemoryStore()
	svc := newTestService(r, store)

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := svc.Handle(leaderCtx, "cli", "cli", "3")
		leaderErr <- err
	}()
	<-entered

	waiterDone := make(chan struct{})
	var waiterTag string
	var waiterErr error
	go func() {
		defer close(waiterDone)
		waiterTag, waiterErr = svc.Handle(context.Background(), "cli", "cli", "3")
	}()

	time.Sleep(20 * time.Millisecond)
	cancelLeader()

	if err := <-leaderErr; err == nil {
		t.Error("canceled leader should get an error")
	}
	<-waiterDone
	if waiterErr != nil || waiterTag != "v3.0.0" {
		t.Errorf("waiter = %q, %v; want v3.0.0", waiterTag, waiterErr)
	}
	if v, _, _ := store.Get(context.Background(), ValueKey(Repo{Owner: "cli", Name: "cli"}, "3")); v != "v3.0.0" {
		t.Errorf("cached value = %q, want v3.0.0", v)
	}
}

func TestServiceNoCacheWriteAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := resolverFunc(func(context.Context, Repo, string) (string, error) {
		cancel()
		return "v1.0.0", nil
	})
	store := cache.NewMemoryStore()
	svc := newTestService(r, store)

	svc.Handle(ctx, "cli", "cli", "1")
	if store.Len() != 0 {
		t.Errorf("store holds %d keys after a canceled request, want 0", store.Len())
	}
}

func TestServiceForget(t *testing.T) {
	src := &fakeSource{latest: "v1.0.0"}
	svc := newTestService(NewResolver(src), cache.NewMemoryStore())
	ctx := context.Background()

	if _, err := svc.Handle(ctx, "cli", "cli", "latest"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Forget(ctx, "cli", "cli", "latest"); err != nil {
		t.Fatalf("Forget() error: %v", err)
	}
	src.latest = "v1.1.0"
	got, err := svc.Handle(ctx, "cli", "cli", "latest")
	if err != nil || got != "v1.1.0" {
		t.Errorf("Handle() after Forget = %q, %v; want v1.1.0", got, err)
	}
	if src.calls() != 2 {
		t.Errorf("upstream calls = %d, want 2", src.calls())
	}

	if err := svc.Forget(ctx, "", "cli", "latest"); StatusOf(err) != StatusInvalid {
		t.Errorf("Forget() with empty owner = %v, want invalid", err)
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want Status
	}{
		{nil, StatusOK},
		{errs.New(errs.ErrCodeVersionNotFound, "x"), StatusNotFound},
		{errs.New(errs.ErrCodeForbidden, "x"), StatusForbidden},
		{errs.New(errs.ErrCodeTimeout, "x"), StatusTimeout},
		{errs.New(errs.ErrCodeInvalidSpec, "x"), StatusInvalid},
		{errs.New(errs.ErrCodeUpstream, "x"), StatusUpstreamError},
		{errors.New("plain"), StatusUpstreamError},
	}
	for _, tt := range tests {
		if got := StatusOf(tt.err); got != tt.want {
			t.Errorf("StatusOf(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
