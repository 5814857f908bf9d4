package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrServe        = errors.New("admin server failed")
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
)
