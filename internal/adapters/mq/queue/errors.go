package queue

import "errors"

// Sentinel kinds for inbox errors.
var (
	ErrFull     = errors.New("inbox full")
	ErrClosed   = errors.New("inbox closed")
	ErrCanceled = errors.New("enqueue canceled")
)
