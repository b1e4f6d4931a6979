package github

import "encoding/json"

// ReleasePage is one page of a repository's release listing.
type ReleasePage struct {
	// Tags holds the tag names on this page in upstream order.
	// Entries without a non-empty string tag_name are skipped.
	Tags []string

	// Count is the number of release entries in the response, including
	// entries that were skipped for lacking a tag.
	Count int

	// Paginated is true when the response carried any Link metadata.
	Paginated bool

	// HasNext is true when the Link metadata contained rel="next".
	HasNext bool
}

// releaseResponse is the subset of the GitHub release object we read.
// TagName stays raw so one malformed entry cannot fail a whole page.
type releaseResponse struct {
	TagName json.RawMessage `json:"tag_name"`
}

// tag returns the release tag, or "" when tag_name is missing or not a string.
func (r releaseResponse) tag() string {
	var s string
	if json.Unmarshal(r.TagName, &s) != nil {
		return ""
	}
	return s
}

// releaseTag decodes one raw release entry, returning "" when it is malformed.
func releaseTag(raw json.RawMessage) string {
	var r releaseResponse
	if json.Unmarshal(raw, &r) != nil {
		return ""
	}
	return r.tag()
}
