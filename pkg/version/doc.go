// Package version orders and matches release tag strings.
//
// # Overview
//
// Release tags published on source-control hosts are loosely formatted:
// "v2.1.0", "2.1.0-rc.1", "1.10", "V3". This package turns any tag into a
// sort key whose plain string ordering reproduces the intended version
// ordering, and offers prefix matching on dotted-segment boundaries.
//
// # Sort Keys
//
// [SortKey] is pure and total: it never fails, and unrecognized input
// degrades to a key that still sorts deterministically. Numeric segments are
// zero-padded to a fixed width so "0002" < "0010" holds where "2" < "10" would
// not:
//
//	version.SortKey("v1.2.10") // "000100020010."
//	version.SortKey("1.2.3")   // "000100020003."
//
// Every key ends with a '.' terminator. Pre-release markers are encoded with
// a leading '-', which sorts below '.', so a release always orders after its
// own pre-releases and before any longer numeric continuation:
//
//	2.0.0-rc.1 < 2.0.0 < 2.0.0.1
//
// # Comparison
//
// [Compare] compares sort keys and breaks ties on the raw tag, which makes
// the ordering total: two distinct tags never compare equal. Use
// [SortDescending] or [Newest] to pick the "newest first" candidate.
//
// # Matching
//
// [MatchPrefix] decides whether a requested version prefix selects a tag.
// Matching respects segment boundaries, so "2.1" selects "2.1.0" and
// "v2.1.5-beta" but not "2.10.0".
package version
