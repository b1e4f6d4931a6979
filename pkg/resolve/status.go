package resolve

import (
	errs "github.com/matzehuels/tagresolver/pkg/errors"
)

// Status is the outcome class of a [Service.Handle] call, as seen by a
// transport.
type Status int

const (
	StatusOK Status = iota
	StatusNotFound
	StatusForbidden
	StatusUpstreamError
	StatusTimeout
	StatusInvalid
)

// StatusOf classifies an error returned by [Service.Handle].
// Errors without a recognized code are upstream errors.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	switch errs.GetCode(err) {
	case errs.ErrCodeVersionNotFound, errs.ErrCodeNotFound:
		return StatusNotFound
	case errs.ErrCodeForbidden:
		return StatusForbidden
	case errs.ErrCodeTimeout:
		return StatusTimeout
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidRepo, errs.ErrCodeInvalidSpec:
		return StatusInvalid
	default:
		return StatusUpstreamError
	}
}

// String returns a lower-case name for logs.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not_found"
	case StatusForbidden:
		return "forbidden"
	case StatusTimeout:
		return "timeout"
	case StatusInvalid:
		return "invalid"
	default:
		return "upstream_error"
	}
}
