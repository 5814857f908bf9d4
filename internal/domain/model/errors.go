package model

import "errors"

// Sentinel kinds for query validation.
var (
	ErrEmptyKeyword    = errors.New("empty keyword")
	ErrEncoding        = errors.New("keyword encoding")
	ErrUnknownEncoding = errors.New("unknown keyword encoding")
)
