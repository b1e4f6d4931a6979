package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxSpecLength bounds the size of a requested version spec.
const maxSpecLength = 128

// ownerRegex matches GitHub user and organization names.
var ownerRegex = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,38})$`)

// repoRegex matches GitHub repository names.
var repoRegex = regexp.MustCompile(`^[A-Za-z0-9._-]{1,100}$`)

// ValidateRepository validates the owner and name of a repository reference.
// It rejects values that could escape the upstream URL path or the cache
// key scheme.
func ValidateRepository(owner, repo string) error {
	if owner == "" || repo == "" {
		return New(ErrCodeInvalidRepo, "repository owner and name cannot be empty")
	}
	if !ownerRegex.MatchString(owner) {
		return New(ErrCodeInvalidRepo, "invalid repository owner: %q", owner)
	}
	if !repoRegex.MatchString(repo) || repo == "." || repo == ".." {
		return New(ErrCodeInvalidRepo, "invalid repository name: %q", repo)
	}
	return nil
}

// ValidateVersionSpec validates a requested version spec.
//
// The validation rules are intentionally conservative:
//   - No empty specs
//   - No control characters or whitespace
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateVersionSpec(spec string) error {
	if spec == "" {
		return New(ErrCodeInvalidSpec, "version spec cannot be empty")
	}

	if len(spec) > maxSpecLength {
		return New(ErrCodeInvalidSpec, "version spec too long (max %d characters)", maxSpecLength)
	}

	for _, r := range spec {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidSpec, "version spec contains invalid characters")
		}
	}

	for _, pattern := range []string{"/", "\\", ".."} {
		if strings.Contains(spec, pattern) {
			return New(ErrCodeInvalidSpec, "version spec contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
