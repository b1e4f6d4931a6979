package resolve

import (
	"context"
	"iter"

	"github.com/matzehuels/tagresolver/pkg/integrations/github"
)

// PageSize is the number of releases requested per page.
const PageSize = 50

// ReleaseSource is the upstream release API. [github.Client] implements it.
type ReleaseSource interface {
	ListReleases(ctx context.Context, owner, repo string, page, perPage int) (*github.ReleasePage, error)
	LatestRelease(ctx context.Context, owner, repo string) (string, error)
}

// Releases returns a lazy sequence over every release tag of repo, fetching
// pages 1, 2, 3... on demand. Each call starts a fresh walk.
//
// A fetch error is yielded once as ("", err) and ends the sequence.
// Breaking out of the range stops further fetches.
func Releases(ctx context.Context, src ReleaseSource, repo Repo) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for page := 1; ; page++ {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			p, err := src.ListReleases(ctx, repo.Owner, repo.Name, page, PageSize)
			if err != nil {
				yield("", err)
				return
			}
			for _, tag := range p.Tags {
				if !yield(tag, nil) {
					return
				}
			}
			if !hasMore(p, PageSize) {
				return
			}
		}
	}
}

// hasMore decides whether to fetch the page after p. An explicit Link header
// is authoritative; without one, only a full page implies more.
// A Link header without rel="next" stops the walk even on a full page, which
// is stricter than applying the full-page rule whenever next is absent.
func hasMore(p *github.ReleasePage, perPage int) bool {
	if p.Count == 0 {
		return false
	}
	if p.Paginated {
		return p.HasNext
	}
	return p.Count >= perPage
}
