// Package github provides an HTTP client for the GitHub releases API.
//
// # Overview
//
// This package lists release tags from GitHub (https://api.github.com) so
// that loose version specs such as "latest" or "2.1" can be resolved to a
// concrete tag.
//
// # Usage
//
//	client := github.NewClient(github.Config{Token: token})
//
//	tag, err := client.LatestRelease(ctx, "cli", "cli")
//
//	page, err := client.ListReleases(ctx, "cli", "cli", 1, 50)
//	for _, t := range page.Tags {
//	    fmt.Println(t)
//	}
//
// # Pagination
//
// [Client.ListReleases] fetches exactly one page. The returned [ReleasePage]
// reports whether the response carried Link metadata and whether it pointed
// at a next page. Walking pages is left to the caller.
//
// # Authentication
//
// A GitHub personal access token is optional but recommended to avoid rate
// limits. Without a token, the client is limited to 60 requests/hour.
// With a token, the limit is 5000 requests/hour.
//
// # Errors
//
// A 404 maps to [integrations.ErrNotFound]. Everything else that fails,
// including rate limiting and deadlines, maps to [integrations.ErrNetwork].
package github
