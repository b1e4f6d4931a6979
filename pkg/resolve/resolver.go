package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/matzehuels/tagresolver/pkg/integrations"
	"github.com/matzehuels/tagresolver/pkg/version"
)

// Resolver turns a version spec into a concrete release tag. It holds no
// state besides its source and is safe for concurrent use.
type Resolver struct {
	src ReleaseSource
}

// NewResolver creates a Resolver over src.
func NewResolver(src ReleaseSource) *Resolver {
	return &Resolver{src: src}
}

// Resolve returns the tag selected by spec.
//
//   - "main" resolves to "main" without contacting upstream.
//   - "latest" asks upstream for its latest release.
//   - anything else scans every release page and returns the newest tag
//     matched by [version.MatchPrefix].
//
// When nothing matches, or the repository does not exist, the error wraps
// [ErrNotFound]. Any other error is an upstream failure.
func (r *Resolver) Resolve(ctx context.Context, repo Repo, spec string) (string, error) {
	switch Kind(spec) {
	case KindMain:
		return SpecMain, nil
	case KindLatest:
		return r.latest(ctx, repo)
	default:
		return r.newestMatching(ctx, repo, spec)
	}
}

func (r *Resolver) latest(ctx context.Context, repo Repo) (string, error) {
	tag, err := r.src.LatestRelease(ctx, repo.Owner, repo.Name)
	if errors.Is(err, integrations.ErrNotFound) {
		return "", fmt.Errorf("%w: %s has no latest release", ErrNotFound, repo)
	}
	if err != nil {
		return "", err
	}
	if tag == "" || tag == NotFoundSentinel {
		return "", fmt.Errorf("%w: %s latest release has no usable tag", ErrNotFound, repo)
	}
	return tag, nil
}

func (r *Resolver) newestMatching(ctx context.Context, repo Repo, spec string) (string, error) {
	var matches []string
	for tag, err := range Releases(ctx, r.src, repo) {
		if errors.Is(err, integrations.ErrNotFound) {
			return "", fmt.Errorf("%w: repository %s", ErrNotFound, repo)
		}
		if err != nil {
			return "", err
		}
		if tag != NotFoundSentinel && version.MatchPrefix(tag, spec) {
			matches = append(matches, tag)
		}
	}

	best, ok := version.Newest(matches)
	if !ok {
		return "", fmt.Errorf("%w: no release of %s matches %q", ErrNotFound, repo, spec)
	}
	return best, nil
}
