package resolve

import (
	"errors"
	"strings"

	errs "github.com/matzehuels/tagresolver/pkg/errors"
)

// NotFoundSentinel is the value stored for a negative resolution. It is
// never accepted as an upstream tag.
const NotFoundSentinel = "__not_found__"

// Reserved specs.
const (
	SpecLatest = "latest"
	SpecMain   = "main"
)

// ErrNotFound is returned by [Resolver.Resolve] when no release satisfies
// the spec, or when the repository does not exist upstream.
var ErrNotFound = errors.New("no matching release")

// Repo identifies a GitHub repository.
type Repo struct {
	Owner string
	Name  string
}

// String returns "owner/name".
func (r Repo) String() string { return r.Owner + "/" + r.Name }

// ParseRepo parses an "owner/name" reference and validates both parts.
func ParseRepo(s string) (Repo, error) {
	owner, name, ok := strings.Cut(s, "/")
	if !ok {
		return Repo{}, errs.New(errs.ErrCodeInvalidRepo, "repository must be OWNER/REPO, got %q", s)
	}
	if err := errs.ValidateRepository(owner, name); err != nil {
		return Repo{}, err
	}
	return Repo{Owner: owner, Name: name}, nil
}

// SpecKind classifies a version spec.
type SpecKind int

const (
	// KindPrefix selects the newest release whose tag starts with the spec.
	KindPrefix SpecKind = iota
	// KindLatest selects the release GitHub marks as latest.
	KindLatest
	// KindMain is the development head; it resolves to "main" without I/O.
	KindMain
)

// Kind classifies spec.
func Kind(spec string) SpecKind {
	switch spec {
	case SpecLatest:
		return KindLatest
	case SpecMain:
		return KindMain
	default:
		return KindPrefix
	}
}

// String returns the kind name used in logs and metrics.
func (k SpecKind) String() string {
	switch k {
	case KindLatest:
		return "latest"
	case KindMain:
		return "main"
	default:
		return "prefix"
	}
}
