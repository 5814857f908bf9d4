package search

import "errors"

// Sentinel kinds for search errors. All of them are soft failures for a query.
var (
	ErrBadStatus         = errors.New("search returned non-200 status")
	ErrMalformedResponse = errors.New("malformed search response")
	ErrNoResults         = errors.New("no results")
	ErrRequest           = errors.New("search request failed")
	ErrUnknownProvider   = errors.New("unknown search provider")
)
