package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	errs "github.com/matzehuels/tagresolver/pkg/errors"
	"github.com/matzehuels/tagresolver/pkg/observability"
)

// Allower decides whether a repository may be resolved.
type Allower interface {
	Allows(owner, repo string) bool
}

// VersionResolver resolves a spec against upstream. [Resolver] implements it.
type VersionResolver interface {
	Resolve(ctx context.Context, repo Repo, spec string) (string, error)
}

// ServiceConfig holds the inputs of a [Service]. They are fixed for the
// lifetime of the service.
type ServiceConfig struct {
	Allow    Allower
	Resolver VersionResolver
	Cache    *Cache
	Logger   *log.Logger
}

// Service answers resolution requests: allow-list check, cache lookup, and
// on a miss a single coalesced upstream resolution whose outcome is written
// back to the cache.
type Service struct {
	allow    Allower
	resolver VersionResolver
	cache    *Cache
	logger   *log.Logger
	flights  singleflight.Group
}

// errAbandoned marks a shared resolution whose leading caller went away
// before it finished.
var errAbandoned = errors.New("resolution abandoned by its caller")

// NewService creates a Service. A nil logger uses log.Default().
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		allow:    cfg.Allow,
		resolver: cfg.Resolver,
		cache:    cfg.Cache,
		logger:   logger,
	}
}

// Handle resolves spec for owner/repo.
//
// The allow-list is checked before the version spec is validated. Owner and
// repo are lower-cased before they reach the cache or upstream.
//
// Errors carry a code from the errors package: INVALID_INPUT or
// INVALID_VERSION_SPEC for bad input, FORBIDDEN for repositories outside the
// allow-list, VERSION_NOT_FOUND for fresh or new negative results, and
// UPSTREAM_ERROR or TIMEOUT when upstream failed. Upstream failures are never
// cached.
func (s *Service) Handle(ctx context.Context, owner, repo, spec string) (string, error) {
	if owner == "" || repo == "" || spec == "" {
		return "", errs.New(errs.ErrCodeInvalidInput, "owner, repo and version are required")
	}
	if s.allow == nil || !s.allow.Allows(owner, repo) {
		observability.Resolve().OnForbidden(ctx)
		return "", errs.New(errs.ErrCodeForbidden, "repository %s/%s is not allowed", owner, repo)
	}
	if err := errs.ValidateVersionSpec(spec); err != nil {
		return "", err
	}

	r := normalizeRepo(owner, repo)
	logger := s.loggerFor(ctx).With("owner", r.Owner, "repo", r.Name, "spec", spec)

	if e, ok, err := s.cache.Get(ctx, r, spec); err != nil {
		logger.Warn("cache read failed, resolving upstream", "err", err)
	} else if ok {
		logger.Debug("cache hit", "value", e.Value, "age", time.Since(e.WrittenAt).Truncate(time.Second))
		if e.NotFound() {
			return "", notFound(r, spec, nil)
		}
		return e.Value, nil
	}

	return s.resolve(ctx, r, spec, logger)
}

// normalizeRepo lower-cases owner and repo so that spellings GitHub treats as
// the same repository share one cache entry and one upstream flight.
func normalizeRepo(owner, repo string) Repo {
	return Repo{Owner: strings.ToLower(owner), Name: strings.ToLower(repo)}
}

// loggerFor prefers a request-scoped logger attached with log.WithContext.
func (s *Service) loggerFor(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(log.ContextKey).(*log.Logger); ok {
		return l
	}
	return s.logger
}

// Forget drops the cached entry for owner/repo and spec, if any.
func (s *Service) Forget(ctx context.Context, owner, repo, spec string) error {
	if owner == "" || repo == "" || spec == "" {
		return errs.New(errs.ErrCodeInvalidInput, "owner, repo and version are required")
	}
	if err := s.cache.Invalidate(ctx, normalizeRepo(owner, repo), spec); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "invalidate %s/%s %q", owner, repo, spec)
	}
	return nil
}

// resolve coalesces concurrent misses for the same key into one flight.
// A waiter whose flight was abandoned by the leading caller starts a new one
// under its own context.
func (s *Service) resolve(ctx context.Context, r Repo, spec string, logger *log.Logger) (string, error) {
	key := r.String() + "\x00" + spec
	for {
		ch := s.flights.DoChan(key, func() (any, error) {
			return s.fill(ctx, r, spec, logger)
		})

		select {
		case <-ctx.Done():
			return "", contextError(ctx.Err())
		case res := <-ch:
			if res.Shared {
				observability.Resolve().OnResolveShared(ctx, Kind(spec).String())
			}
			if errors.Is(res.Err, errAbandoned) {
				if ctx.Err() != nil {
					return "", contextError(ctx.Err())
				}
				logger.Debug("shared resolution abandoned, retrying")
				continue
			}
			if res.Err != nil {
				return "", res.Err
			}
			return res.Val.(string), nil
		}
	}
}

// fill runs one upstream resolution and writes its outcome to the cache.
func (s *Service) fill(ctx context.Context, r Repo, spec string, logger *log.Logger) (string, error) {
	kind := Kind(spec).String()
	hooks := observability.Resolve()
	hooks.OnResolveStart(ctx, kind)
	start := time.Now()

	tag, err := s.resolver.Resolve(ctx, r, spec)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		hooks.OnResolveComplete(ctx, kind, observability.OutcomeFound, elapsed)
		logger.Info("resolved", "tag", tag, "duration", elapsed)
		s.store(ctx, r, spec, tag, logger)
		return tag, nil

	case errors.Is(err, ErrNotFound):
		hooks.OnResolveComplete(ctx, kind, observability.OutcomeNotFound, elapsed)
		logger.Info("no matching release", "duration", elapsed)
		s.store(ctx, r, spec, NotFoundSentinel, logger)
		return "", notFound(r, spec, err)

	case ctx.Err() != nil:
		hooks.OnResolveComplete(ctx, kind, observability.OutcomeError, elapsed)
		return "", fmt.Errorf("%w: %w", errAbandoned, ctx.Err())

	default:
		hooks.OnResolveComplete(ctx, kind, observability.OutcomeError, elapsed)
		logger.Error("upstream resolution failed", "err", err, "duration", elapsed)
		if errors.Is(err, context.DeadlineExceeded) {
			return "", errs.Wrap(errs.ErrCodeTimeout, err, "upstream timed out resolving %s %q", r, spec)
		}
		return "", errs.Wrap(errs.ErrCodeUpstream, err, "upstream failed resolving %s %q", r, spec)
	}
}

// store writes a resolution outcome. Nothing is written once the caller's
// context is done, and write failures only get logged.
func (s *Service) store(ctx context.Context, r Repo, spec, value string, logger *log.Logger) {
	if ctx.Err() != nil {
		logger.Debug("context done, skipping cache write")
		return
	}
	if err := s.cache.Put(ctx, r, spec, value); err != nil {
		logger.Warn("cache write failed", "err", err)
	}
}

func notFound(r Repo, spec string, cause error) error {
	return errs.Wrap(errs.ErrCodeVersionNotFound, cause, "no release of %s matches %q", r, spec)
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.Wrap(errs.ErrCodeTimeout, err, "request deadline exceeded")
	}
	return errs.Wrap(errs.ErrCodeInternal, err, "request canceled")
}
