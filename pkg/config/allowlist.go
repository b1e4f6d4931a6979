package config

import (
	"bufio"
	"io"
	"slices"
	"strings"

	errs "github.com/matzehuels/tagresolver/pkg/errors"
)

// AllowList is an immutable set of "owner/repo" entries. Matching ignores
// case. An empty or nil AllowList allows nothing.
type AllowList struct {
	repos map[string]struct{}
}

// NewAllowList builds an AllowList from "owner/repo" entries. Surrounding
// whitespace is trimmed; malformed entries are an error.
func NewAllowList(entries ...string) (*AllowList, error) {
	a := &AllowList{repos: make(map[string]struct{}, len(entries))}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		owner, repo, ok := strings.Cut(e, "/")
		if !ok {
			return nil, errs.New(errs.ErrCodeInvalidRepo, "allow-list entry %q is not OWNER/REPO", e)
		}
		if err := errs.ValidateRepository(owner, repo); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidRepo, err, "allow-list entry %q", e)
		}
		a.repos[key(owner, repo)] = struct{}{}
	}
	return a, nil
}

// ReadAllowList reads one "owner/repo" per line. Blank lines and lines
// starting with '#' are skipped, as is anything after a '#'.
func ReadAllowList(r io.Reader) ([]string, error) {
	var entries []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		if line = strings.TrimSpace(line); line != "" {
			entries = append(entries, line)
		}
	}
	return entries, sc.Err()
}

// Allows reports whether owner/repo is on the list.
func (a *AllowList) Allows(owner, repo string) bool {
	if a == nil {
		return false
	}
	_, ok := a.repos[key(owner, repo)]
	return ok
}

// Len returns the number of distinct entries.
func (a *AllowList) Len() int {
	if a == nil {
		return 0
	}
	return len(a.repos)
}

// Entries returns the normalized entries in sorted order.
func (a *AllowList) Entries() []string {
	if a == nil {
		return nil
	}
	out := make([]string, 0, len(a.repos))
	for k := range a.repos {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func key(owner, repo string) string {
	return strings.ToLower(owner + "/" + repo)
}
