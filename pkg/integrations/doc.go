// Package integrations provides the shared HTTP plumbing for upstream APIs.
//
// # Overview
//
// Upstream clients live in subpackages and embed [Client]:
//
//   - [github]: GitHub releases API used for tag resolution
//
// # Client Pattern
//
//	client := integrations.NewClient(headers, 10*time.Second)
//	hdr, err := client.Get(ctx, url, &v)
//
// [Client] handles:
//   - Default headers (auth, accept, user agent)
//   - A deadline on every call
//   - Status mapping: 404 to [ErrNotFound], any other failure to [ErrNetwork]
//   - HTTP hooks from the observability package
//
// There is no retry and no response caching at this layer. Resolution results
// are cached one level up, and a failed call surfaces immediately.
//
// # Pagination
//
// [HasNextPage] parses RFC 8288 Link headers. Callers distinguish "no
// pagination metadata" from "metadata without a next link" to decide whether
// to keep fetching.
//
// [github]: github.com/matzehuels/tagresolver/pkg/integrations/github
package integrations
