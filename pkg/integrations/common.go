package integrations

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const httpTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when a repository or release doesn't exist upstream.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, non-2xx responses).
	ErrNetwork = errors.New("network error")
)

// NewHTTPClient creates an HTTP client with a standard timeout for upstream requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// PathEscape percent-encodes a single URL path segment such as an owner or
// repository name.
func PathEscape(s string) string { return url.PathEscape(s) }

// HasNextPage reports whether a response advertised pagination metadata at all
// (paginated) and whether it carried a link with rel="next" (next).
//
// Link headers follow RFC 8288, e.g.
//
//	<https://api.github.com/repositories/1/releases?page=2>; rel="next", <...>; rel="last"
func HasNextPage(h http.Header) (paginated, next bool) {
	values := h.Values("Link")
	for _, v := range values {
		for _, link := range strings.Split(v, ",") {
			link = strings.TrimSpace(link)
			if link == "" {
				continue
			}
			paginated = true
			if linkHasRel(link, "next") {
				return true, true
			}
		}
	}
	return paginated, false
}

func linkHasRel(link, rel string) bool {
	parts := strings.Split(link, ";")
	for _, p := range parts[1:] {
		key, val, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "rel") {
			continue
		}
		val = strings.Trim(strings.TrimSpace(val), `"`)
		for _, r := range strings.Fields(val) {
			if strings.EqualFold(r, rel) {
				return true
			}
		}
	}
	return false
}
