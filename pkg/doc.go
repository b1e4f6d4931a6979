// Package pkg provides the libraries behind tagresolver.
//
// # Overview
//
// tagresolver answers one question: given a GitHub repository and a version
// spec such as "2.1", "latest" or "main", which release tag does it denote?
// The pkg directory is organized into these areas:
//
//  1. [version] - Tag normalization, ordering and prefix matching
//  2. [integrations] - Upstream HTTP client and the GitHub releases API
//  3. [resolve] - Release enumeration, resolution, caching and the service
//  4. [cache] - Key-value stores (memory, file, redis, nats, mongo)
//  5. [server] - HTTP routes
//  6. [config] - TOML configuration and the allow-list
//
// Supporting packages are [errors] (coded errors), [observability] (hooks
// for metrics) and [buildinfo] (version stamping).
//
// # Architecture
//
// The data flow of a request:
//
//	GET /gh/v1/releases/tag/{owner}/{repo}/{version}
//	         ↓
//	    [server] (route, request id, deadline)
//	         ↓
//	    [resolve.Service] (allow-list, cache, coalescing)
//	         ↓
//	    [resolve.Resolver] (latest, main, newest prefix match)
//	         ↓
//	    [integrations/github] (paginated release listing)
//
// # Quick Start
//
// Resolve a spec without cache or allow-list:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/tagresolver/pkg/integrations/github"
//	    "github.com/matzehuels/tagresolver/pkg/resolve"
//	)
//
//	r := resolve.NewResolver(github.NewClient(github.Config{}))
//	tag, err := r.Resolve(context.Background(), resolve.Repo{Owner: "cli", Name: "cli"}, "2.1")
//
// Serve the full stack:
//
//	svc := resolve.NewService(resolve.ServiceConfig{
//	    Allow:    allowList,
//	    Resolver: r,
//	    Cache:    resolve.NewCache(cache.NewMemoryStore()),
//	})
//	srv := server.New(svc, server.Config{Addr: ":8080"})
//	srv.ListenAndServe(ctx)
//
// [version]: github.com/matzehuels/tagresolver/pkg/version
// [integrations]: github.com/matzehuels/tagresolver/pkg/integrations
// [integrations/github]: github.com/matzehuels/tagresolver/pkg/integrations/github
// [resolve]: github.com/matzehuels/tagresolver/pkg/resolve
// [resolve.Service]: github.com/matzehuels/tagresolver/pkg/resolve#Service
// [resolve.Resolver]: github.com/matzehuels/tagresolver/pkg/resolve#Resolver
// [cache]: github.com/matzehuels/tagresolver/pkg/cache
// [server]: github.com/matzehuels/tagresolver/pkg/server
// [config]: github.com/matzehuels/tagresolver/pkg/config
// [errors]: github.com/matzehuels/tagresolver/pkg/errors
// [observability]: github.com/matzehuels/tagresolver/pkg/observability
// [buildinfo]: github.com/matzehuels/tagresolver/pkg/buildinfo
package pkg
