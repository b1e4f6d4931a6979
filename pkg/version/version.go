package version

import (
	"slices"
	"strings"
)

// segmentWidth is the zero-padded width of a numeric segment in a sort key.
// Numeric segments wider than this are kept as-is and may misorder against
// narrower ones.
const segmentWidth = 4

// SortKey returns a key for tag whose lexicographic order matches version
// order. It is pure and total.
func SortKey(tag string) string {
	s := stripBuild(StripPrefix(tag))

	var b strings.Builder
	for _, seg := range strings.Split(s, ".") {
		switch {
		case seg == "":
		case isNumeric(seg):
			b.WriteString(pad(seg))
		default:
			for _, part := range strings.Split(seg, "-") {
				switch {
				case part == "":
				case isNumeric(part):
					b.WriteString(pad(part))
				default:
					b.WriteByte('-')
					b.WriteString(part)
				}
			}
		}
	}
	b.WriteByte('.')
	return b.String()
}

// Compare returns -1, 0 or +1 depending on whether a orders before, equal to,
// or after b. Tags with identical sort keys fall back to raw string order,
// so Compare only returns 0 for identical inputs.
func Compare(a, b string) int {
	if c := strings.Compare(SortKey(a), SortKey(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// SortDescending sorts tags newest first, in place.
func SortDescending(tags []string) {
	slices.SortStableFunc(tags, func(a, b string) int { return Compare(b, a) })
}

// Newest returns the tag with the greatest sort key.
// It returns false if tags is empty.
func Newest(tags []string) (string, bool) {
	if len(tags) == 0 {
		return "", false
	}
	return slices.MaxFunc(tags, Compare), true
}

// StripPrefix removes a single leading version letter (conventionally "v")
// when it is immediately followed by a digit.
func StripPrefix(tag string) string {
	if len(tag) >= 2 && isLetter(tag[0]) && isDigit(tag[1]) {
		return tag[1:]
	}
	return tag
}

func stripBuild(s string) string {
	if i := strings.IndexByte(s, '+'); i >= 0 {
		return s[:i]
	}
	return s
}

func pad(digits string) string {
	if n := len(digits); n < segmentWidth {
		return strings.Repeat("0", segmentWidth-n) + digits
	}
	return digits
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
