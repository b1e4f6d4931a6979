// Package resolve turns loose version specs into concrete GitHub release tags
// and caches the answers.
//
// # Overview
//
// A request names a repository and a spec:
//
//   - "latest": the release GitHub marks as latest
//   - "main": the development head, answered without upstream I/O
//   - anything else: a prefix such as "2.1", answered with the newest
//     release tag that matches it on segment boundaries
//
// The layers, from the bottom up:
//
//   - [Releases]: lazy page-by-page walk over a repository's release tags
//   - [Resolver]: applies a spec to the upstream data
//   - [Cache]: value and timestamp keys over a plain [cache.Store], with
//     expiry checked on read and negative entries stored as [NotFoundSentinel]
//   - [Service]: allow-list, cache, coalesced resolution and write-back
//
// # Usage
//
//	gh := github.NewClient(github.Config{Token: token})
//	svc := resolve.NewService(resolve.ServiceConfig{
//	    Allow:    allowList,
//	    Resolver: resolve.NewResolver(gh),
//	    Cache:    resolve.NewCache(cache.NewMemoryStore()),
//	    Logger:   logger,
//	})
//
//	tag, err := svc.Handle(ctx, "cli", "cli", "2.1")
//	switch resolve.StatusOf(err) {
//	case resolve.StatusOK:
//	    fmt.Println(tag)
//	case resolve.StatusNotFound:
//	    // no release matches
//	}
//
// # Expiry
//
// Entries carry their write time in Unix seconds. "latest" entries stay fresh
// for [DefaultLatestTTL]; prefix and "main" entries, whose answers rarely
// change, for [DefaultPinnedTTL]. Negative entries follow the same windows.
//
// # Concurrency
//
// Concurrent misses for the same repository and spec share one upstream
// resolution. A caller that gives up does not poison the others: waiters
// whose shared resolution was abandoned start their own.
//
// [cache.Store]: github.com/matzehuels/tagresolver/pkg/cache.Store
package resolve
