package yodlee

import "errors"

var (
	// ErrInvalidResponse indicates the aggregation server replied with a body
	// that is not valid JSON.
	ErrInvalidResponse = errors.New("yodlee: response body is not valid JSON")

	// ErrMissingField indicates a response lacks a field the flow depends on,
	// such as a session token or a site identifier.
	ErrMissingField = errors.New("yodlee: expected response field missing")

	// ErrUnsupportedForm indicates a login form whose fields combine with
	// something other than plain AND semantics.
	ErrUnsupportedForm = errors.New("yodlee: unsupported login form")
)
