package version

import "strings"

// MatchPrefix reports whether spec selects tag.
//
// A tag matches when it equals spec, or starts with spec followed by one of
// the separators '.', '-' or '+'. A spec that itself ends in a separator
// matches any continuation. When spec carries no leading version letter, the
// tag's letter is ignored, so "1.1" matches "v1.1.0".
func MatchPrefix(tag, spec string) bool {
	if spec == "" {
		return false
	}
	if hasSegmentPrefix(tag, spec) {
		return true
	}
	if stripped := StripPrefix(tag); stripped != tag && StripPrefix(spec) == spec {
		return hasSegmentPrefix(stripped, spec)
	}
	return false
}

func hasSegmentPrefix(tag, spec string) bool {
	if !strings.HasPrefix(tag, spec) {
		return false
	}
	if len(tag) == len(spec) || isSeparator(spec[len(spec)-1]) {
		return true
	}
	return isSeparator(tag[len(spec)])
}

func isSeparator(c byte) bool { return c == '.' || c == '-' || c == '+' }
