package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/tagresolver/pkg/buildinfo"
	"github.com/matzehuels/tagresolver/pkg/integrations"
)

// DefaultBaseURL is the public GitHub REST API endpoint.
const DefaultBaseURL = "https://api.github.com"

// Config configures a [Client].
type Config struct {
	Token     string        // Optional bearer token
	BaseURL   string        // Defaults to DefaultBaseURL
	UserAgent string        // Defaults to buildinfo.UserAgent()
	Timeout   time.Duration // Per-call deadline; zero selects the integrations default
}

// Client provides access to the GitHub releases API.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a GitHub API client.
// Pass an empty token for unauthenticated requests (lower rate limits).
func NewClient(cfg Config) *Client {
	headers := map[string]string{
		"Accept":     "application/vnd.github.v3+json",
		"User-Agent": cfg.UserAgent,
	}
	if headers["User-Agent"] == "" {
		headers["User-Agent"] = buildinfo.UserAgent()
	}
	if cfg.Token != "" {
		headers["Authorization"] = "Bearer " + cfg.Token
	}

	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		Client:  integrations.NewClient(headers, cfg.Timeout),
		baseURL: base,
	}
}

// ListReleases fetches one page of releases for owner/repo. Pages are 1-based.
func (c *Client) ListReleases(ctx context.Context, owner, repo string, page, perPage int) (*ReleasePage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	u := fmt.Sprintf("%s/releases?%s", c.repoURL(owner, repo), q.Encode())

	var data []json.RawMessage
	hdr, err := c.Get(ctx, u, &data)
	if err != nil {
		return nil, wrapRepo(err, owner, repo)
	}

	p := &ReleasePage{Tags: make([]string, 0, len(data)), Count: len(data)}
	for _, raw := range data {
		if tag := releaseTag(raw); tag != "" {
			p.Tags = append(p.Tags, tag)
		}
	}
	p.Paginated, p.HasNext = integrations.HasNextPage(hdr)
	return p, nil
}

// LatestRelease returns the tag of the repository's latest published release.
// A repository without releases, or a response without a string tag, yields
// [integrations.ErrNotFound].
func (c *Client) LatestRelease(ctx context.Context, owner, repo string) (string, error) {
	var data releaseResponse
	if _, err := c.Get(ctx, c.repoURL(owner, repo)+"/releases/latest", &data); err != nil {
		return "", wrapRepo(err, owner, repo)
	}
	tag := data.tag()
	if tag == "" {
		return "", fmt.Errorf("%w: github %s/%s latest release has no tag", integrations.ErrNotFound, owner, repo)
	}
	return tag, nil
}

func (c *Client) repoURL(owner, repo string) string {
	return fmt.Sprintf("%s/repos/%s/%s", c.baseURL, integrations.PathEscape(owner), integrations.PathEscape(repo))
}

func wrapRepo(err error, owner, repo string) error {
	if errors.Is(err, integrations.ErrNotFound) {
		return fmt.Errorf("%w: github repo %s/%s", err, owner, repo)
	}
	return fmt.Errorf("github %s/%s: %w", owner, repo, err)
}
